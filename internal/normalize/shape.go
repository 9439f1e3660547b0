package normalize

import (
	"encoding/json"

	"map-assistant/internal/model"
)

// Shape identifies which renderer a backend result is routed to.
type Shape int

const (
	ShapeItinerary Shape = iota
	ShapeGeneral
	ShapeComparison
	ShapeNearbyPlaces
	ShapePlaces
	ShapeRecommendations
	ShapeFallback
)

var shapeNames = map[Shape]string{
	ShapeItinerary:       "itinerary",
	ShapeGeneral:         "general",
	ShapeComparison:      "comparison",
	ShapeNearbyPlaces:    "nearby_places",
	ShapePlaces:          "places",
	ShapeRecommendations: "recommendations",
	ShapeFallback:        "fallback",
}

func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return "unknown"
}

// shapeRules is evaluated top to bottom, first match wins. A payload carrying
// both places and recommendations is a places payload.
var shapeRules = []struct {
	field string
	shape Shape
}{
	{"itinerary", ShapeItinerary},
	{"response", ShapeGeneral},
	{"comparison", ShapeComparison},
	{"nearby_places", ShapeNearbyPlaces},
	{"places", ShapePlaces},
	{"recommendations", ShapeRecommendations},
}

// fields is a decoded result object with its values left raw.
type fields map[string]json.RawMessage

func decodeFields(raw json.RawMessage) (fields, bool) {
	var f fields
	if err := json.Unmarshal(raw, &f); err != nil || f == nil {
		return nil, false
	}
	return f, true
}

// present reports whether key holds a truthy value: null, false, 0 and ""
// count as absent.
func (f fields) present(key string) bool {
	return model.Truthy(f[key])
}

// text returns key as a string when it is a present JSON string.
func (f fields) text(key string) string {
	if !f.present(key) {
		return ""
	}
	var s string
	if err := json.Unmarshal(f[key], &s); err != nil {
		return ""
	}
	return s
}

// Classify returns the shape of a raw result payload. Anything that is not a
// JSON object, or carries none of the known fields, is ShapeFallback.
func Classify(raw json.RawMessage) Shape {
	f, ok := decodeFields(raw)
	if !ok {
		return ShapeFallback
	}
	return f.shape()
}

func (f fields) shape() Shape {
	for _, rule := range shapeRules {
		if f.present(rule.field) {
			return rule.shape
		}
	}
	return ShapeFallback
}
