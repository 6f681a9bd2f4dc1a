// Package pipeline runs the tract data-integration pipeline: load the four
// sources, left-join them onto the tract geometry table, and derive rates,
// ranks and the surveillance classification.
package pipeline

import (
	"fmt"

	"github.com/civic-data/equity.report/internal/cameras"
	"github.com/civic-data/equity.report/internal/census"
	"github.com/civic-data/equity.report/internal/stops"
	"github.com/civic-data/equity.report/internal/tracts"
)

// TractRow is one row of the joined tract table. Secondary sources are
// pointers: nil means the tract had no row in that source, which is
// distinct from a present row with zero values. Derived fields are filled
// by Derive.
type TractRow struct {
	TractID string
	Name    string

	Tract  tracts.Tract
	Demo   *census.Demographics
	Camera *cameras.Record
	Stops  *stops.TractStops

	StopRate  *float64
	SurvRate  *float64
	SurvRank  int
	SurvClass *string
}

// Join left-joins demographics, cameras and stop aggregates onto the
// geometry table by tract id. The output has exactly one row per geometry
// tract, in geometry order; unmatched secondaries are nil. Duplicate keys
// in a secondary source are rejected rather than silently expanding the
// primary set.
func Join(geo []tracts.Tract, demos []census.Demographics, cams []cameras.Record, agg map[string]stops.TractStops) ([]TractRow, error) {
	demoByID := make(map[string]*census.Demographics, len(demos))
	for i := range demos {
		d := &demos[i]
		if _, dup := demoByID[d.TractID]; dup {
			return nil, fmt.Errorf("duplicate demographic record for tract %s", d.TractID)
		}
		demoByID[d.TractID] = d
	}

	camByID := make(map[string]*cameras.Record, len(cams))
	for i := range cams {
		c := &cams[i]
		if _, dup := camByID[c.TractID]; dup {
			return nil, fmt.Errorf("duplicate camera record for tract %s", c.TractID)
		}
		camByID[c.TractID] = c
	}

	rows := make([]TractRow, 0, len(geo))
	for _, t := range geo {
		row := TractRow{
			TractID: t.GEOID,
			Name:    t.Name,
			Tract:   t,
			Demo:    demoByID[t.GEOID],
			Camera:  camByID[t.GEOID],
		}
		if ts, ok := agg[t.GEOID]; ok {
			tsCopy := ts
			row.Stops = &tsCopy
		}
		rows = append(rows, row)
	}

	return rows, nil
}
