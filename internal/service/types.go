// Package service contains the layer, map and editor-session logic behind
// the geo-layers API.
package service

import "github.com/paulmach/orb"

// LayerConfig describes one map layer. The service stores the style fields
// for the viewer but never interprets them.
type LayerConfig struct {
	ID             string    `json:"id,omitempty" doc:"Unique layer identifier" example:"buildings"`
	Name           string    `json:"name" required:"true" minLength:"1" maxLength:"100" doc:"Display name" example:"Buildings"`
	File           string    `json:"file" required:"true" doc:"Tile source the viewer loads" example:"buildings.pmtiles"`
	GeomType       string    `json:"geomType" required:"true" enum:"polygon,line,point" doc:"Geometry type" example:"polygon" default:"polygon"`
	DefaultVisible bool      `json:"defaultVisible" default:"true" doc:"Attach to the map when created" example:"true"`
	Fill           string    `json:"fill,omitempty" doc:"Fill color (CSS)" example:"#3388ff" default:"#3388ff"`
	Stroke         string    `json:"stroke,omitempty" doc:"Stroke color (CSS)" example:"#2266cc" default:"#2266cc"`
	Opacity        float64   `json:"opacity,omitempty" minimum:"0" maximum:"1" default:"0.7" doc:"Layer opacity (0-1)" example:"0.7"`
	Bounds         []float64 `json:"bounds,omitempty" minItems:"4" maxItems:"4" doc:"Layer extent as [minLon, minLat, maxLon, maxLat]"`
}

// DisplayName implements Named.
func (l LayerConfig) DisplayName() string {
	return l.Name
}

// Bound returns the layer extent, or false when the layer has none.
func (l LayerConfig) Bound() (orb.Bound, bool) {
	if len(l.Bounds) != 4 {
		return orb.Bound{}, false
	}
	return orb.Bound{
		Min: orb.Point{l.Bounds[0], l.Bounds[1]},
		Max: orb.Point{l.Bounds[2], l.Bounds[3]},
	}, true
}

// MapState is the map's attached layer list in draw order.
type MapState struct {
	Layers []string `json:"layers" doc:"Attached layer IDs in draw order, bottom first"`
}
