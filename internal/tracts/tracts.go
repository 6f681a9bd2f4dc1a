// Package tracts loads census tract boundary polygons from GeoJSON. The
// geometry table is the primary side of every join: one output row per
// tract here, in file order.
package tracts

import (
	"fmt"
	"os"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Tract is one census tract polygon with its descriptive name. The name
// field carries the county phrase ("... Kings County, New York") the
// demographic reshaper derives boroughs from.
type Tract struct {
	GEOID    string
	Name     string
	Geometry orb.Geometry
	Centroid orb.Point
}

// LoadGeoJSON reads a FeatureCollection of tract polygons. Duplicate GEOIDs
// are rejected: the joiner depends on the primary key being unique.
func LoadGeoJSON(path string) ([]Tract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tract geometry file: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse GeoJSON: %w", path, err)
	}

	seen := make(map[string]bool, len(fc.Features))
	out := make([]Tract, 0, len(fc.Features))
	for i, feat := range fc.Features {
		geoid := propString(feat, "GEOID", "geoid", "GEO_ID")
		if geoid == "" {
			return nil, fmt.Errorf("%s: feature %d has no GEOID property", path, i)
		}
		if seen[geoid] {
			return nil, fmt.Errorf("%s: duplicate tract GEOID %s", path, geoid)
		}
		seen[geoid] = true

		name := propString(feat, "NAMELSAD", "NAME", "name")

		centroid, _ := planar.CentroidArea(feat.Geometry)
		out = append(out, Tract{
			GEOID:    geoid,
			Name:     name,
			Geometry: feat.Geometry,
			Centroid: centroid,
		})
	}

	return out, nil
}

func propString(feat *geojson.Feature, keys ...string) string {
	for _, k := range keys {
		if v, ok := feat.Properties[k]; ok {
			if s, ok := v.(string); ok {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
