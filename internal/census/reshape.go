package census

import (
	"fmt"
	"sort"
	"strings"
)

// Race is one of the five normalized racial categories shared by the
// demographic and stop-incident sides of the pipeline.
type Race string

const (
	RaceBlack  Race = "Black"
	RaceWhite  Race = "White"
	RaceLatino Race = "Latino"
	RaceAsian  Race = "Asian"
	RaceOther  Race = "Other"
)

// PluralityOrder is the fixed tie-break order for the plurality computation:
// the first category in this order attaining the row maximum wins.
var PluralityOrder = []Race{RaceBlack, RaceWhite, RaceLatino, RaceAsian, RaceOther}

// Boroughs in the order their name patterns are checked.
var boroughPatterns = []struct {
	pattern string
	borough string
}{
	{"Bronx", "Bronx"},
	{"Kings", "Brooklyn"},
	{"Queens", "Queens"},
	{"New York County", "Manhattan"},
	{"Richmond", "Staten Island"},
}

// Demographics is one reshaped record per tract. OtherPop is derived, not
// sourced: total minus the four sourced race counts, so the five categories
// always sum to TotalPop. MedianIncome is nil when the source suppressed it.
type Demographics struct {
	TractID       string
	Name          string
	Borough       string
	TotalPop      int
	WhitePop      int
	BlackPop      int
	LatinoPop     int
	AsianPop      int
	OtherPop      int
	MalePop       int
	FemalePop     int
	MedianIncome  *float64
	PluralityRace Race
}

// RaceCount returns the count for one of the five categories.
func (d *Demographics) RaceCount(r Race) int {
	switch r {
	case RaceBlack:
		return d.BlackPop
	case RaceWhite:
		return d.WhitePop
	case RaceLatino:
		return d.LatinoPop
	case RaceAsian:
		return d.AsianPop
	default:
		return d.OtherPop
	}
}

// Reshape pivots long-format ACS rows into one Demographics record per
// tract, sorted by tract id. A repeated (tract, variable) pair is rejected
// rather than resolved silently. A tract name matching none of the five
// borough patterns is an error, never a sentinel default.
func Reshape(rows []LongRow) ([]Demographics, error) {
	type tractVars struct {
		name string
		vars map[string]*float64
	}

	byTract := make(map[string]*tractVars)
	for _, row := range rows {
		tv := byTract[row.TractID]
		if tv == nil {
			tv = &tractVars{name: row.Name, vars: make(map[string]*float64)}
			byTract[row.TractID] = tv
		}
		if _, dup := tv.vars[row.Variable]; dup {
			return nil, fmt.Errorf("duplicate ACS value for tract %s variable %s", row.TractID, row.Variable)
		}
		tv.vars[row.Variable] = row.Estimate
	}

	ids := make([]string, 0, len(byTract))
	for id := range byTract {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]Demographics, 0, len(ids))
	for _, id := range ids {
		tv := byTract[id]

		d := Demographics{TractID: id, Name: tv.name}

		borough, err := BoroughFromName(tv.name)
		if err != nil {
			return nil, fmt.Errorf("tract %s: %w", id, err)
		}
		d.Borough = borough

		counts := map[string]*int{
			VarTotalPop:  &d.TotalPop,
			VarWhitePop:  &d.WhitePop,
			VarBlackPop:  &d.BlackPop,
			VarLatinoPop: &d.LatinoPop,
			VarAsianPop:  &d.AsianPop,
		}
		for code, dst := range counts {
			v, ok := tv.vars[code]
			if !ok || v == nil {
				return nil, fmt.Errorf("tract %s missing population variable %s", id, code)
			}
			*dst = int(*v)
		}

		// Gender counts are optional in partial extracts; absent means zero.
		if v := tv.vars[VarMalePop]; v != nil {
			d.MalePop = int(*v)
		}
		if v := tv.vars[VarFemalePop]; v != nil {
			d.FemalePop = int(*v)
		}
		d.MedianIncome = tv.vars[VarMedianIncome]

		d.OtherPop = d.TotalPop - (d.WhitePop + d.BlackPop + d.LatinoPop + d.AsianPop)
		if d.OtherPop < 0 {
			return nil, fmt.Errorf("tract %s: race counts exceed total population (%d > %d)",
				id, d.TotalPop-d.OtherPop, d.TotalPop)
		}

		d.PluralityRace = pluralityRace(&d)
		out = append(out, d)
	}

	return out, nil
}

// BoroughFromName maps a tract name field to one of the five boroughs by
// substring match, checked in a fixed order. An unmatched name is an error.
func BoroughFromName(name string) (string, error) {
	for _, bp := range boroughPatterns {
		if strings.Contains(name, bp.pattern) {
			return bp.borough, nil
		}
	}
	return "", fmt.Errorf("tract name %q matches no borough pattern", name)
}

// pluralityRace returns the first category in PluralityOrder attaining the
// row maximum.
func pluralityRace(d *Demographics) Race {
	max := d.RaceCount(PluralityOrder[0])
	for _, r := range PluralityOrder[1:] {
		if c := d.RaceCount(r); c > max {
			max = c
		}
	}
	for _, r := range PluralityOrder {
		if d.RaceCount(r) == max {
			return r
		}
	}
	return RaceOther
}
