package pipeline

import (
	"math"
	"testing"

	"github.com/civic-data/equity.report/internal/cameras"
	"github.com/civic-data/equity.report/internal/census"
	"github.com/civic-data/equity.report/internal/stops"
)

func defaultParams() DeriveParams {
	return DeriveParams{PopulationThreshold: 250, TopRankCount: 50}
}

func TestDerive_Rates(t *testing.T) {
	rows := []TractRow{
		{
			TractID: "A",
			Demo:    &census.Demographics{TractID: "A", TotalPop: 4000},
			Stops:   &stops.TractStops{TractID: "A", Total: 20},
			Camera:  &cameras.Record{TractID: "A", EffectiveWithin200m: 8},
		},
	}

	Derive(rows, defaultParams())

	if rows[0].StopRate == nil {
		t.Fatal("stop rate not derived")
	}
	if got, want := *rows[0].StopRate, 1000*20.0/4000; math.Abs(got-want) > 1e-9 {
		t.Errorf("stop rate = %v, want %v", got, want)
	}
	if rows[0].SurvRate == nil {
		t.Fatal("surveillance rate not derived")
	}
	if got, want := *rows[0].SurvRate, 1000*8.0/4000; math.Abs(got-want) > 1e-9 {
		t.Errorf("surveillance rate = %v, want %v", got, want)
	}
}

func TestDerive_PopulationThresholdIsStrict(t *testing.T) {
	// Exactly at the threshold is still gated; one over is not.
	rows := []TractRow{
		{
			TractID: "AT",
			Demo:    &census.Demographics{TractID: "AT", TotalPop: 250},
			Stops:   &stops.TractStops{TractID: "AT", Total: 5},
			Camera:  &cameras.Record{TractID: "AT", EffectiveWithin200m: 2},
		},
		{
			TractID: "OVER",
			Demo:    &census.Demographics{TractID: "OVER", TotalPop: 251},
			Stops:   &stops.TractStops{TractID: "OVER", Total: 5},
			Camera:  &cameras.Record{TractID: "OVER", EffectiveWithin200m: 2},
		},
	}

	Derive(rows, defaultParams())

	at := rows[0]
	if at.StopRate != nil || at.SurvRate != nil {
		t.Errorf("population 250 must not get rates: stop=%v surv=%v", at.StopRate, at.SurvRate)
	}
	if at.SurvClass != nil {
		t.Errorf("population 250 must stay unclassified, got %q", *at.SurvClass)
	}

	over := rows[1]
	if over.StopRate == nil || over.SurvRate == nil {
		t.Error("population 251 should get both rates")
	}
	if over.SurvClass == nil {
		t.Error("population 251 should be classified")
	}
}

func TestDerive_MissingSecondariesKeepRatesNull(t *testing.T) {
	rows := []TractRow{
		{TractID: "A", Demo: &census.Demographics{TractID: "A", TotalPop: 1000}},
		{TractID: "B"},
	}

	Derive(rows, defaultParams())

	if rows[0].StopRate != nil || rows[0].SurvRate != nil {
		t.Errorf("tract without stop/camera rows must keep nil rates, got %v / %v",
			rows[0].StopRate, rows[0].SurvRate)
	}
	// No demographics at all: no rates, no class, but still a rank.
	if rows[1].SurvClass != nil {
		t.Errorf("tract without demographics must stay unclassified, got %q", *rows[1].SurvClass)
	}
	if rows[1].SurvRank == 0 {
		t.Error("every tract must receive a rank")
	}
}

func rowWithSurvRate(id string, pop int, eff float64) TractRow {
	return TractRow{
		TractID: id,
		Demo:    &census.Demographics{TractID: id, TotalPop: pop},
		Camera:  &cameras.Record{TractID: id, EffectiveWithin200m: eff},
	}
}

func TestDerive_RankOrderAndNullsLast(t *testing.T) {
	rows := []TractRow{
		rowWithSurvRate("C", 1000, 2), // rate 2.0
		{TractID: "E"},                // no rate
		rowWithSurvRate("A", 1000, 8), // rate 8.0
		{TractID: "D"},                // no rate
		rowWithSurvRate("B", 1000, 5), // rate 5.0
	}

	Derive(rows, defaultParams())

	ranks := map[string]int{}
	for _, r := range rows {
		ranks[r.TractID] = r.SurvRank
	}

	want := map[string]int{"A": 1, "B": 2, "C": 3, "D": 4, "E": 5}
	for id, wantRank := range want {
		if ranks[id] != wantRank {
			t.Errorf("rank[%s] = %d, want %d", id, ranks[id], wantRank)
		}
	}
}

func TestDerive_RankTieBrokenByTractID(t *testing.T) {
	rows := []TractRow{
		rowWithSurvRate("B", 1000, 4),
		rowWithSurvRate("A", 1000, 4),
	}

	Derive(rows, defaultParams())

	var aRank, bRank int
	for _, r := range rows {
		switch r.TractID {
		case "A":
			aRank = r.SurvRank
		case "B":
			bRank = r.SurvRank
		}
	}
	if aRank != 1 || bRank != 2 {
		t.Errorf("tie ranks = A:%d B:%d, want A:1 B:2 (tract id order)", aRank, bRank)
	}
}

func TestDerive_TopClassification(t *testing.T) {
	p := DeriveParams{PopulationThreshold: 250, TopRankCount: 2}
	rows := []TractRow{
		rowWithSurvRate("A", 1000, 9),
		rowWithSurvRate("B", 1000, 7),
		rowWithSurvRate("C", 1000, 3),
		{TractID: "D", Demo: &census.Demographics{TractID: "D", TotalPop: 100}},
	}

	Derive(rows, p)

	classOf := func(id string) string {
		for _, r := range rows {
			if r.TractID == id {
				if r.SurvClass == nil {
					return "<nil>"
				}
				return *r.SurvClass
			}
		}
		return "<missing>"
	}

	if got := classOf("A"); got != "top 2" {
		t.Errorf("class[A] = %q, want \"top 2\"", got)
	}
	if got := classOf("B"); got != "top 2" {
		t.Errorf("class[B] = %q, want \"top 2\"", got)
	}
	if got := classOf("C"); got != "other" {
		t.Errorf("class[C] = %q, want \"other\"", got)
	}
	if got := classOf("D"); got != "<nil>" {
		t.Errorf("class[D] = %q, want nil (below population threshold)", got)
	}
}
