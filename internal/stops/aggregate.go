package stops

import "github.com/civic-data/equity.report/internal/census"

// TractStops is the per-tract aggregate of normalized stop incidents.
// Tracts with zero incidents never appear here; the join reintroduces them
// with no data, which downstream code must treat as distinct from a
// verified zero.
type TractStops struct {
	TractID string
	Total   int
	ByYear  map[int]int
	Black   int
}

// Totals holds citywide incident counts used by the presentation layer.
type Totals struct {
	ByRace map[census.Race]int
	ByYear map[int]int
}

// Aggregate groups incidents by tract id. Incidents without a tract id
// cannot join and are excluded from the per-tract map; their count is
// returned so callers can report them.
func Aggregate(incidents []Incident) (byTract map[string]TractStops, unmatched int) {
	byTract = make(map[string]TractStops)
	for _, inc := range incidents {
		if inc.TractID == "" {
			unmatched++
			continue
		}

		ts, ok := byTract[inc.TractID]
		if !ok {
			ts = TractStops{TractID: inc.TractID, ByYear: make(map[int]int)}
		}
		ts.Total++
		ts.ByYear[inc.Year]++
		if inc.Race == census.RaceBlack {
			ts.Black++
		}
		byTract[inc.TractID] = ts
	}
	return byTract, unmatched
}

// Summarize computes citywide incident totals by race and year, counting
// every incident whether or not it matched a tract.
func Summarize(incidents []Incident) Totals {
	t := Totals{
		ByRace: make(map[census.Race]int),
		ByYear: make(map[int]int),
	}
	for _, inc := range incidents {
		t.ByRace[inc.Race]++
		t.ByYear[inc.Year]++
	}
	return t
}
