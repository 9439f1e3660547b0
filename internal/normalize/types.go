package normalize

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Place is one entry of a places or nearby_places list. Pointer and empty
// fields are treated as absent and never rendered.
type Place struct {
	Name               string       `json:"name"`
	NameEn             string       `json:"name_en,omitempty"`
	Images             []string     `json:"images,omitempty"`
	Address            string       `json:"address,omitempty"`
	Categories         []string     `json:"categories,omitempty"`
	DistanceMeters     *float64     `json:"distance_meters,omitempty"`
	IsOpenNow          *bool        `json:"is_open_now,omitempty"`
	EstimatedCost      *PriceInfo   `json:"estimated_cost,omitempty"`
	PriceInfo          *PriceInfo   `json:"price_info,omitempty"`
	ContactInfo        *ContactInfo `json:"contact_info,omitempty"`
	GoogleMapsURL      string       `json:"google_maps_url,omitempty"`
	Directions         *Directions  `json:"directions,omitempty"`
	SuggestedTransport string       `json:"suggested_transport,omitempty"`
	Summary            string       `json:"summary,omitempty"`
}

type PriceInfo struct {
	PriceRange string     `json:"price_range,omitempty"`
	PerPerson  *PriceBand `json:"per_person,omitempty"`
	MinPrice   *float64   `json:"min_price,omitempty"`
	MaxPrice   *float64   `json:"max_price,omitempty"`
}

type PriceBand struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

type ContactInfo struct {
	Phone   string `json:"phone,omitempty"`
	Website string `json:"website,omitempty"`
}

type Directions struct {
	Distance      *DirectionsDistance `json:"distance,omitempty"`
	EstimatedTime *DirectionsDuration `json:"estimated_time,omitempty"`
	DirectionsURL string              `json:"directions_url,omitempty"`
}

type DirectionsDistance struct {
	Meters *float64 `json:"meters,omitempty"`
}

type DirectionsDuration struct {
	Minutes *float64 `json:"minutes,omitempty"`
}

// Recommendation is one entry of a recommendations list.
type Recommendation struct {
	Name        string   `json:"name"`
	Address     string   `json:"address,omitempty"`
	MatchReason string   `json:"match_reason,omitempty"`
	Score       *float64 `json:"score,omitempty"`
}

// The decoders below read field by field. A field holding the wrong JSON
// type is left absent instead of failing the whole entry. Only an entry
// that is not a JSON object is an error.

func (p *Place) UnmarshalJSON(data []byte) error {
	raw, err := object(data)
	if err != nil || raw == nil {
		return err
	}

	*p = Place{
		Name:               textField(raw, "name"),
		NameEn:             textField(raw, "name_en"),
		Images:             textList(raw, "images"),
		Address:            textField(raw, "address"),
		Categories:         textList(raw, "categories"),
		DistanceMeters:     numberField(raw, "distance_meters"),
		IsOpenNow:          boolField(raw, "is_open_now"),
		EstimatedCost:      nested[PriceInfo](raw, "estimated_cost"),
		PriceInfo:          nested[PriceInfo](raw, "price_info"),
		ContactInfo:        nested[ContactInfo](raw, "contact_info"),
		GoogleMapsURL:      textField(raw, "google_maps_url"),
		Directions:         nested[Directions](raw, "directions"),
		SuggestedTransport: textField(raw, "suggested_transport"),
		Summary:            textField(raw, "summary"),
	}
	return nil
}

func (p *PriceInfo) UnmarshalJSON(data []byte) error {
	raw, err := object(data)
	if err != nil || raw == nil {
		return err
	}

	*p = PriceInfo{
		PriceRange: textField(raw, "price_range"),
		PerPerson:  nested[PriceBand](raw, "per_person"),
		MinPrice:   numberField(raw, "min_price"),
		MaxPrice:   numberField(raw, "max_price"),
	}
	return nil
}

func (p *PriceBand) UnmarshalJSON(data []byte) error {
	raw, err := object(data)
	if err != nil || raw == nil {
		return err
	}

	*p = PriceBand{Min: numberField(raw, "min"), Max: numberField(raw, "max")}
	return nil
}

func (c *ContactInfo) UnmarshalJSON(data []byte) error {
	raw, err := object(data)
	if err != nil || raw == nil {
		return err
	}

	*c = ContactInfo{Phone: textField(raw, "phone"), Website: textField(raw, "website")}
	return nil
}

func (d *Directions) UnmarshalJSON(data []byte) error {
	raw, err := object(data)
	if err != nil || raw == nil {
		return err
	}

	*d = Directions{
		Distance:      nested[DirectionsDistance](raw, "distance"),
		EstimatedTime: nested[DirectionsDuration](raw, "estimated_time"),
		DirectionsURL: textField(raw, "directions_url"),
	}
	return nil
}

func (d *DirectionsDistance) UnmarshalJSON(data []byte) error {
	raw, err := object(data)
	if err != nil || raw == nil {
		return err
	}

	*d = DirectionsDistance{Meters: numberField(raw, "meters")}
	return nil
}

func (d *DirectionsDuration) UnmarshalJSON(data []byte) error {
	raw, err := object(data)
	if err != nil || raw == nil {
		return err
	}

	*d = DirectionsDuration{Minutes: numberField(raw, "minutes")}
	return nil
}

func (r *Recommendation) UnmarshalJSON(data []byte) error {
	raw, err := object(data)
	if err != nil || raw == nil {
		return err
	}

	*r = Recommendation{
		Name:        textField(raw, "name"),
		Address:     textField(raw, "address"),
		MatchReason: textField(raw, "match_reason"),
		Score:       numberField(raw, "score"),
	}
	return nil
}

// object splits a JSON object into its members. null yields a nil map and
// no error.
func object(data []byte) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// isNull reports a missing or null member.
func isNull(v json.RawMessage) bool {
	v = json.RawMessage(strings.TrimSpace(string(v)))
	return len(v) == 0 || string(v) == "null"
}

// scalarText returns a JSON string as is and a JSON number as written.
func scalarText(v json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String(), true
	}
	return "", false
}

func textField(raw map[string]json.RawMessage, key string) string {
	s, _ := scalarText(raw[key])
	return s
}

// textList keeps the string and number elements of an array.
func textList(raw map[string]json.RawMessage, key string) []string {
	var items []json.RawMessage
	if err := json.Unmarshal(raw[key], &items); err != nil {
		return nil
	}

	var out []string
	for _, item := range items {
		if s, ok := scalarText(item); ok {
			out = append(out, s)
		}
	}
	return out
}

// numberField accepts a JSON number or a string holding one.
func numberField(raw map[string]json.RawMessage, key string) *float64 {
	if isNull(raw[key]) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw[key], &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(raw[key], &s); err != nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &f
}

func boolField(raw map[string]json.RawMessage, key string) *bool {
	if isNull(raw[key]) {
		return nil
	}
	var b bool
	if err := json.Unmarshal(raw[key], &b); err != nil {
		return nil
	}
	return &b
}

// nested decodes an object member into T, nil when missing, null or not an
// object.
func nested[T any](raw map[string]json.RawMessage, key string) *T {
	v := raw[key]
	if isNull(v) {
		return nil
	}
	var out T
	if err := json.Unmarshal(v, &out); err != nil {
		return nil
	}
	return &out
}
