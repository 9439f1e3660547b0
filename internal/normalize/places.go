package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	NoPlacesMessage = "Không tìm thấy địa điểm nào phù hợp."

	maxImagesPerPlace = 2
	currencySuffix    = "VND"
	defaultTransport  = "🚗"
)

var transportIcons = map[string]string{
	"walking":   "🚶",
	"bicycling": "🚴",
	"driving":   "🚗",
	"transit":   "🚌",
}

// RenderPlaces renders places in backend order. The preamble is printed above
// the list; it is dropped when the list is empty.
func RenderPlaces(places []Place, preamble string) string {
	if len(places) == 0 {
		return NoPlacesMessage
	}

	var b strings.Builder
	if preamble != "" {
		b.WriteString(preamble)
		b.WriteString("\n\n---\n\n")
	}
	fmt.Fprintf(&b, "### Tìm thấy %d địa điểm:\n\n", len(places))

	for i, place := range places {
		writePlace(&b, i+1, place)
	}
	return b.String()
}

func writePlace(b *strings.Builder, index int, p Place) {
	if p.NameEn != "" && p.NameEn != p.Name {
		fmt.Fprintf(b, "**%d. %s** (%s)\n\n", index, p.Name, p.NameEn)
	} else {
		fmt.Fprintf(b, "**%d. %s**\n\n", index, p.Name)
	}

	images := p.Images
	if len(images) > maxImagesPerPlace {
		images = images[:maxImagesPerPlace]
	}
	for _, url := range images {
		fmt.Fprintf(b, "![%s](%s)\n\n", p.Name, url)
	}

	if p.Address != "" {
		fmt.Fprintf(b, "📍 **Địa chỉ:** %s\n\n", p.Address)
	}
	if len(p.Categories) > 0 {
		fmt.Fprintf(b, "🏷️ **Loại:** %s\n\n", strings.Join(p.Categories, ", "))
	}
	if p.DistanceMeters != nil {
		fmt.Fprintf(b, "📏 **Khoảng cách:** %sm\n\n", formatNumber(*p.DistanceMeters))
	}
	if p.IsOpenNow != nil {
		status := "🔴 Đã đóng cửa"
		if *p.IsOpenNow {
			status = "🟢 Đang mở cửa"
		}
		fmt.Fprintf(b, "⏰ **Trạng thái:** %s\n\n", status)
	}

	if line := priceLine(p); line != "" {
		fmt.Fprintf(b, "💰 **Giá:** %s\n\n", line)
	}

	if c := p.ContactInfo; c != nil {
		if c.Phone != "" {
			fmt.Fprintf(b, "📞 **Phone:** %s\n\n", c.Phone)
		}
		if c.Website != "" {
			fmt.Fprintf(b, "🌐 **Website:** [%s](%s)\n\n", c.Website, c.Website)
		}
	}

	if p.GoogleMapsURL != "" {
		fmt.Fprintf(b, "🗺️ **[Xem trên Google Maps](%s)**\n\n", p.GoogleMapsURL)
	}

	if d := p.Directions; d != nil {
		writeDirections(b, d, p.SuggestedTransport)
	}

	if p.Summary != "" {
		fmt.Fprintf(b, "💡 %s\n\n", p.Summary)
	}

	b.WriteString("---\n\n")
}

func writeDirections(b *strings.Builder, d *Directions, transport string) {
	var route []string
	if d.Distance != nil && d.Distance.Meters != nil {
		route = append(route, formatNumber(*d.Distance.Meters)+"m")
	}
	if d.EstimatedTime != nil && d.EstimatedTime.Minutes != nil {
		route = append(route, fmt.Sprintf("(~%s phút)", formatNumber(*d.EstimatedTime.Minutes)))
	}
	if len(route) > 0 {
		fmt.Fprintf(b, "🚶 **Chỉ đường:** %s\n\n", strings.Join(route, " "))
	}

	if transport != "" {
		icon, ok := transportIcons[transport]
		if !ok {
			icon = defaultTransport
		}
		fmt.Fprintf(b, "%s **Đề xuất:** %s\n\n", icon, transport)
	}

	if d.DirectionsURL != "" {
		fmt.Fprintf(b, "📍 **[Chỉ đường chi tiết](%s)**\n\n", d.DirectionsURL)
	}
}

// priceLine prefers estimated_cost over price_info. Within the chosen object
// per_person wins over min_price/max_price, side by side.
func priceLine(p Place) string {
	info := p.EstimatedCost
	if info == nil {
		info = p.PriceInfo
	}
	if info == nil {
		return ""
	}

	var parts []string
	if info.PriceRange != "" {
		parts = append(parts, info.PriceRange)
	}
	if lo, hi, ok := info.bounds(); ok {
		parts = append(parts, fmt.Sprintf("(%s - %s %s)", humanize.Commaf(lo), humanize.Commaf(hi), currencySuffix))
	}
	return strings.Join(parts, " ")
}

func (info *PriceInfo) bounds() (float64, float64, bool) {
	lo, hi := info.MinPrice, info.MaxPrice
	if pp := info.PerPerson; pp != nil {
		if pp.Min != nil {
			lo = pp.Min
		}
		if pp.Max != nil {
			hi = pp.Max
		}
	}
	if lo == nil || hi == nil {
		return 0, 0, false
	}
	return *lo, *hi, true
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
