package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/civic-data/equity.report/internal/cameras"
	"github.com/civic-data/equity.report/internal/census"
	"github.com/civic-data/equity.report/internal/config"
	"github.com/civic-data/equity.report/internal/stops"
	"github.com/civic-data/equity.report/internal/tracts"
)

// SourceCounts reports how many records each source contributed.
type SourceCounts struct {
	Tracts       int `json:"tracts"`
	Demographics int `json:"demographics"`
	Stops        int `json:"stops"`
	Cameras      int `json:"cameras"`
}

// Result is the output of one pipeline run: the joined and derived tract
// table plus citywide stop totals for the presentation layer.
type Result struct {
	Rows           []TractRow
	StopTotals     stops.Totals
	Sources        SourceCounts
	UnmatchedStops int
	Params         DeriveParams
	Years          [2]int
}

// Run loads the four sources, reshapes and aggregates them, joins them onto
// the geometry table and derives rates, ranks and classes. The four loads
// have no data dependency until the join, so they run concurrently.
func Run(ctx context.Context, cfg *config.PipelineConfig) (*Result, error) {
	var (
		wg sync.WaitGroup

		geo     []tracts.Tract
		geoErr  error
		long    []census.LongRow
		longErr error
		incs    []stops.Incident
		incErr  error
		cams    []cameras.Record
		camErr  error
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		geo, geoErr = tracts.LoadGeoJSON(cfg.GetTractsPath())
	}()
	go func() {
		defer wg.Done()
		long, longErr = census.LoadLongCSV(cfg.GetACSPath())
	}()
	go func() {
		defer wg.Done()
		incs, incErr = stops.LoadCSV(cfg.GetStopsPath())
	}()
	go func() {
		defer wg.Done()
		cams, camErr = cameras.LoadCSV(cfg.GetCamerasPath())
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range []error{geoErr, longErr, incErr, camErr} {
		if err != nil {
			return nil, fmt.Errorf("load failed: %w", err)
		}
	}

	demos, err := census.Reshape(long)
	if err != nil {
		return nil, fmt.Errorf("demographic reshape failed: %w", err)
	}

	agg, unmatched := stops.Aggregate(incs)
	if unmatched > 0 {
		log.Printf("%d stop incidents have no tract id and were excluded from the join", unmatched)
	}

	rows, err := Join(geo, demos, cams, agg)
	if err != nil {
		return nil, fmt.Errorf("join failed: %w", err)
	}

	params := DeriveParams{
		PopulationThreshold: cfg.GetPopulationThreshold(),
		TopRankCount:        cfg.GetTopRankCount(),
	}
	Derive(rows, params)

	return &Result{
		Rows:       rows,
		StopTotals: stops.Summarize(incs),
		Sources: SourceCounts{
			Tracts:       len(geo),
			Demographics: len(demos),
			Stops:        len(incs),
			Cameras:      len(cams),
		},
		UnmatchedStops: unmatched,
		Params:         params,
		Years:          cfg.GetYears(),
	}, nil
}
