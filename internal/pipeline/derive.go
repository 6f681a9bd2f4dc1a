package pipeline

import (
	"fmt"
	"sort"
)

// DeriveParams carries the tunables for the rate and rank derivations.
type DeriveParams struct {
	// PopulationThreshold gates rate computation: rates require population
	// strictly greater than this value. At or below it, both rates and the
	// classification stay null.
	PopulationThreshold int

	// TopRankCount is the surveillance-rank cutoff for the "top" class.
	TopRankCount int
}

// Derive fills the derived fields of the joined table in place:
//
//   - stop_rate  = 1000 * total stops / population
//   - surv_rate  = 1000 * effective cameras within 200m / population
//
// both only for tracts over the population threshold. Every tract receives
// a surveillance rank, 1-based over the whole table by descending
// surveillance rate; tracts without a rate rank after all tracts with one,
// ordered by tract id so ranks are deterministic. Above-threshold tracts
// with rank at or under TopRankCount are classed "top N", the rest of the
// above-threshold tracts "other", and gated tracts stay unclassified.
func Derive(rows []TractRow, p DeriveParams) {
	for i := range rows {
		row := &rows[i]
		if row.Demo == nil || row.Demo.TotalPop <= p.PopulationThreshold {
			continue
		}
		pop := float64(row.Demo.TotalPop)

		if row.Stops != nil {
			rate := 1000 * float64(row.Stops.Total) / pop
			row.StopRate = &rate
		}
		if row.Camera != nil {
			rate := 1000 * row.Camera.EffectiveWithin200m / pop
			row.SurvRate = &rate
		}
	}

	rankRows(rows)

	topLabel := fmt.Sprintf("top %d", p.TopRankCount)
	for i := range rows {
		row := &rows[i]
		if row.Demo == nil || row.Demo.TotalPop <= p.PopulationThreshold {
			continue
		}
		label := "other"
		if row.SurvRank <= p.TopRankCount {
			label = topLabel
		}
		row.SurvClass = &label
	}
}

// rankRows assigns 1-based dense surveillance ranks across all rows.
func rankRows(rows []TractRow) {
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := rows[order[a]].SurvRate, rows[order[b]].SurvRate
		switch {
		case ra != nil && rb != nil:
			if *ra != *rb {
				return *ra > *rb
			}
		case ra != nil:
			return true
		case rb != nil:
			return false
		}
		return rows[order[a]].TractID < rows[order[b]].TractID
	})

	for rank, idx := range order {
		rows[idx].SurvRank = rank + 1
	}
}
