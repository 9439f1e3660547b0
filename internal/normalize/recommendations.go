package normalize

import (
	"fmt"
	"strings"
)

const NoRecommendationsMessage = "Không có gợi ý nào phù hợp."

// RenderRecommendations renders recommendations in backend order.
func RenderRecommendations(list []Recommendation) string {
	if len(list) == 0 {
		return NoRecommendationsMessage
	}

	var b strings.Builder
	b.WriteString("### 🎯 Gợi ý địa điểm cho bạn:\n\n")
	for i, r := range list {
		fmt.Fprintf(&b, "**%d. %s**\n", i+1, r.Name)
		if r.Address != "" {
			fmt.Fprintf(&b, "📍 %s\n", r.Address)
		}
		if r.MatchReason != "" {
			fmt.Fprintf(&b, "💡 %s\n", r.MatchReason)
		}
		if r.Score != nil {
			fmt.Fprintf(&b, "⭐ Score: %.2f\n", *r.Score)
		}
		b.WriteString("\n")
	}
	return b.String()
}
