package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// Result is one source document returned by a search, keyed by field name.
// After sanitization it is read-only.
type Result map[string]any

// Coordinates is a validated latitude/longitude pair
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Title returns the title field or "" when absent
func (r Result) Title() string {
	return r.text(FieldTitle)
}

// Content returns the content field or "" when absent
func (r Result) Content() string {
	return r.text(FieldContent)
}

// PublicationDate returns the publication date as stored, or "" when absent
func (r Result) PublicationDate() string {
	return r.text(FieldPublicationDate)
}

// Category returns the category field or "" when absent
func (r Result) Category() string {
	return r.text(FieldCategory)
}

// Location returns the location field or "" when absent
func (r Result) Location() string {
	return r.text(FieldLocation)
}

// Coordinates returns the point of a sanitized result.
// The second return value is false when coordinates are absent.
func (r Result) Coordinates() (Coordinates, bool) {
	return ParseCoordinates(r[FieldCoordinates])
}

// ParseCoordinates reads a lat/lon pair from a decoded coordinates value.
// It accepts a map with numeric lat and lon (map[string]any or
// map[string]float64) and Coordinates by value or pointer. The pair must be
// inside the valid ranges.
func ParseCoordinates(v any) (Coordinates, bool) {
	var c Coordinates
	switch p := v.(type) {
	case map[string]any:
		lat, ok := AsFloat(p["lat"])
		if !ok {
			return Coordinates{}, false
		}
		lon, ok := AsFloat(p["lon"])
		if !ok {
			return Coordinates{}, false
		}
		c = Coordinates{Lat: lat, Lon: lon}
	case map[string]float64:
		lat, okLat := p["lat"]
		lon, okLon := p["lon"]
		if !okLat || !okLon {
			return Coordinates{}, false
		}
		c = Coordinates{Lat: lat, Lon: lon}
	case Coordinates:
		c = p
	case *Coordinates:
		if p == nil {
			return Coordinates{}, false
		}
		c = *p
	default:
		return Coordinates{}, false
	}

	if _, ok := AsFloat(c.Lat); !ok {
		return Coordinates{}, false
	}
	if _, ok := AsFloat(c.Lon); !ok {
		return Coordinates{}, false
	}
	if !ValidCoordinates(c.Lat, c.Lon) {
		return Coordinates{}, false
	}
	return c, true
}

// ValidCoordinates checks that latitude is in [-90,90] and longitude in [-180,180]
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func (r Result) text(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// AsFloat converts a decoded numeric value to float64.
// Strings, booleans, NaN and infinities are not numeric.
func AsFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
