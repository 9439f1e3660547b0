// Package normalize turns backend chat envelopes into a single markdown
// document. Every function here is pure and never fails: unknown or
// malformed payloads degrade to a structured dump or a fixed message.
package normalize

import (
	"bytes"
	"encoding/json"

	"map-assistant/internal/model"
)

const CannotProcessMessage = "Xin lỗi, tôi không thể xử lý yêu cầu này."

// Normalize renders the envelope as the content of an assistant turn.
func Normalize(env *model.Envelope) string {
	if env == nil {
		return CannotProcessMessage
	}
	if env.Success && env.HasResult() {
		return Decode(env.Result).Render()
	}
	if env.Response != nil && *env.Response != "" {
		return *env.Response
	}
	return CannotProcessMessage
}

// Result is a classified backend result. The concrete types are the variants
// produced by Decode, one per Shape.
type Result interface {
	Shape() Shape
	Render() string
}

// TextResult covers the itinerary, general and comparison shapes.
type TextResult struct {
	Kind  Shape
	Value json.RawMessage
}

type PlacesResult struct {
	Kind     Shape
	Places   []Place
	Preamble string
}

type RecommendationsResult struct {
	Recommendations []Recommendation
}

type FallbackResult struct {
	Raw json.RawMessage
}

func (r TextResult) Shape() Shape { return r.Kind }

func (r PlacesResult) Shape() Shape { return r.Kind }

func (r PlacesResult) Render() string { return RenderPlaces(r.Places, r.Preamble) }

func (RecommendationsResult) Shape() Shape { return ShapeRecommendations }

func (r RecommendationsResult) Render() string { return RenderRecommendations(r.Recommendations) }

func (FallbackResult) Shape() Shape { return ShapeFallback }

func (r FallbackResult) Render() string { return Dump(r.Raw) }

// Render emits a string value verbatim and anything else as a dump.
func (r TextResult) Render() string {
	var s string
	if err := json.Unmarshal(r.Value, &s); err == nil {
		return s
	}
	return Dump(r.Value)
}

// Decode classifies raw and decodes the matching variant. A payload whose
// selected field does not decode into the expected structure becomes a
// FallbackResult for the whole object.
func Decode(raw json.RawMessage) Result {
	f, ok := decodeFields(raw)
	if !ok {
		return FallbackResult{Raw: raw}
	}

	switch shape := f.shape(); shape {
	case ShapeItinerary:
		return TextResult{Kind: shape, Value: f["itinerary"]}
	case ShapeGeneral:
		return TextResult{Kind: shape, Value: f["response"]}
	case ShapeComparison:
		return TextResult{Kind: shape, Value: f["comparison"]}
	case ShapeNearbyPlaces:
		var places []Place
		if err := json.Unmarshal(f["nearby_places"], &places); err != nil {
			return FallbackResult{Raw: raw}
		}
		return PlacesResult{Kind: shape, Places: places, Preamble: f.text("summary")}
	case ShapePlaces:
		var places []Place
		if err := json.Unmarshal(f["places"], &places); err != nil {
			return FallbackResult{Raw: raw}
		}
		preamble := f.text("recommendation")
		if preamble == "" {
			preamble = f.text("summary")
		}
		return PlacesResult{Kind: shape, Places: places, Preamble: preamble}
	case ShapeRecommendations:
		var list []Recommendation
		if err := json.Unmarshal(f["recommendations"], &list); err != nil {
			return FallbackResult{Raw: raw}
		}
		return RecommendationsResult{Recommendations: list}
	default:
		return FallbackResult{Raw: raw}
	}
}

// Dump re-indents a JSON value with two spaces. Key order, numbers and
// string contents are kept as received.
func Dump(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
