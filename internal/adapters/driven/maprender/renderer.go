// Package maprender renders search results as a Leaflet map page.
package maprender

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"

	"github.com/custodia-labs/sercha-geo/internal/core/domain"
	"github.com/custodia-labs/sercha-geo/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.MapRenderer = (*Renderer)(nil)

//go:embed map.html.tmpl
var pageTemplate string

var popupTemplate = template.Must(template.New("popup").Parse(
	`<b>{{.Title}}</b><br>Date: {{.Date}}<br>Category: {{.Category}}<br>Location: {{.Location}}`))

// Popup field defaults
const (
	DefaultTitle    = "Untitled"
	DefaultDate     = "Unknown"
	DefaultCategory = "Uncategorized"
	DefaultLocation = "Unknown"
)

// Config holds map presentation settings
type Config struct {
	// PageTitle is the HTML document title
	PageTitle string

	// CenterLat and CenterLon set the initial view
	CenterLat float64
	CenterLon float64

	// Zoom is the initial zoom level
	Zoom int

	// TileURL is the tile layer URL template
	TileURL string

	// Attribution is shown in the map corner
	Attribution string

	// MarkerColor is the marker stroke and fill color
	MarkerColor string
}

// DefaultConfig returns a world view centered on (0,0)
func DefaultConfig() Config {
	return Config{
		PageTitle:   "Event map",
		CenterLat:   0,
		CenterLon:   0,
		Zoom:        2,
		TileURL:     "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: "&copy; OpenStreetMap contributors",
		MarkerColor: "#d63e2a",
	}
}

// Renderer implements driven.MapRenderer with Leaflet
type Renderer struct {
	config Config
	page   *template.Template
}

// NewRenderer creates a new Renderer
func NewRenderer(cfg Config) (*Renderer, error) {
	page, err := template.New("map").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse map template: %w", err)
	}
	return &Renderer{config: cfg, page: page}, nil
}

// marker is one point passed to the page script
type marker struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Popup string  `json:"popup"`
}

type pageData struct {
	Config
	Markers []marker
}

// Render returns a complete HTML page with one marker per result that has coordinates
func (r *Renderer) Render(results []domain.Result) ([]byte, error) {
	markers := make([]marker, 0, len(results))
	for _, res := range results {
		coords, ok := res.Coordinates()
		if !ok {
			continue
		}
		popup, err := renderPopup(res)
		if err != nil {
			return nil, err
		}
		markers = append(markers, marker{Lat: coords.Lat, Lon: coords.Lon, Popup: popup})
	}

	var buf bytes.Buffer
	if err := r.page.Execute(&buf, pageData{Config: r.config, Markers: markers}); err != nil {
		return nil, fmt.Errorf("render map: %w", err)
	}
	return buf.Bytes(), nil
}

func renderPopup(res domain.Result) (string, error) {
	data := struct {
		Title, Date, Category, Location string
	}{
		Title:    orDefault(res.Title(), DefaultTitle),
		Date:     orDefault(res.PublicationDate(), DefaultDate),
		Category: orDefault(res.Category(), DefaultCategory),
		Location: orDefault(res.Location(), DefaultLocation),
	}

	var buf bytes.Buffer
	if err := popupTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render popup: %w", err)
	}
	return buf.String(), nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
