// Package report is the presentation layer: borough rollups, go-echarts
// HTML charts, gonum/plot PNG output and the HTTP report server. It
// consumes the joined tract table and performs no further data
// transformation beyond aggregation for display.
package report

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/civic-data/equity.report/internal/pipeline"
)

// BoroughSummary is one borough's rollup of the joined table. Rate
// statistics cover only tracts that received a rate (population over the
// threshold with the relevant source present); they are nil when no tract
// in the borough qualified.
type BoroughSummary struct {
	Borough    string `json:"borough"`
	Tracts     int    `json:"tracts"`
	TotalPop   int    `json:"total_pop"`
	TotalStops int    `json:"total_stops"`
	TopRanked  int    `json:"top_ranked"`

	MeanStopRate   *float64 `json:"mean_stop_rate"`
	StddevStopRate *float64 `json:"stddev_stop_rate"`
	MedianStopRate *float64 `json:"median_stop_rate"`
	MeanSurvRate   *float64 `json:"mean_surv_rate"`
	MedianSurvRate *float64 `json:"median_surv_rate"`
}

// SummarizeByBorough rolls the joined table up per borough, sorted by
// borough name. Tracts without demographics have no borough and are
// excluded.
func SummarizeByBorough(rows []pipeline.TractRow) []BoroughSummary {
	type acc struct {
		summary   BoroughSummary
		stopRates []float64
		survRates []float64
	}

	byBorough := make(map[string]*acc)
	for _, row := range rows {
		if row.Demo == nil {
			continue
		}
		a := byBorough[row.Demo.Borough]
		if a == nil {
			a = &acc{summary: BoroughSummary{Borough: row.Demo.Borough}}
			byBorough[row.Demo.Borough] = a
		}

		a.summary.Tracts++
		a.summary.TotalPop += row.Demo.TotalPop
		if row.Stops != nil {
			a.summary.TotalStops += row.Stops.Total
		}
		if row.StopRate != nil {
			a.stopRates = append(a.stopRates, *row.StopRate)
		}
		if row.SurvRate != nil {
			a.survRates = append(a.survRates, *row.SurvRate)
		}
		if row.SurvClass != nil && *row.SurvClass != "other" {
			a.summary.TopRanked++
		}
	}

	names := make([]string, 0, len(byBorough))
	for name := range byBorough {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]BoroughSummary, 0, len(names))
	for _, name := range names {
		a := byBorough[name]
		a.summary.MeanStopRate, a.summary.StddevStopRate, a.summary.MedianStopRate = rateStats(a.stopRates)
		a.summary.MeanSurvRate, _, a.summary.MedianSurvRate = rateStats(a.survRates)
		out = append(out, a.summary)
	}
	return out
}

// rateStats returns mean, stddev and median of vals, or nils for an empty
// slice. Stddev is nil for a single observation.
func rateStats(vals []float64) (mean, stddev, median *float64) {
	if len(vals) == 0 {
		return nil, nil, nil
	}

	m := stat.Mean(vals, nil)
	mean = &m

	if len(vals) > 1 {
		s := stat.StdDev(vals, nil)
		stddev = &s
	}

	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	md := stat.Quantile(0.5, stat.Empirical, sorted, nil)
	median = &md

	return mean, stddev, median
}
