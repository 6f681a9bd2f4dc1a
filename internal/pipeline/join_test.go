package pipeline

import (
	"testing"

	"github.com/civic-data/equity.report/internal/cameras"
	"github.com/civic-data/equity.report/internal/census"
	"github.com/civic-data/equity.report/internal/stops"
	"github.com/civic-data/equity.report/internal/tracts"
)

func geoFixture(ids ...string) []tracts.Tract {
	out := make([]tracts.Tract, 0, len(ids))
	for _, id := range ids {
		out = append(out, tracts.Tract{GEOID: id, Name: "Census Tract " + id + ", Kings County, New York"})
	}
	return out
}

func TestJoin_GeometryDrivesRowCount(t *testing.T) {
	// Geometry has A, B, C. Demographics covers A and B, cameras covers B
	// and C, stops covers only B. The join must produce exactly three rows
	// with nil for every unmatched secondary.
	geo := geoFixture("A", "B", "C")
	demos := []census.Demographics{
		{TractID: "A", TotalPop: 1000},
		{TractID: "B", TotalPop: 2000},
	}
	cams := []cameras.Record{
		{TractID: "B", Cameras: 4},
		{TractID: "C", Cameras: 9},
	}
	agg := map[string]stops.TractStops{
		"B": {TractID: "B", Total: 12, ByYear: map[int]int{2022: 12}},
	}

	rows, err := Join(geo, demos, cams, agg)
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows (one per geometry tract), got %d", len(rows))
	}

	a, b, c := rows[0], rows[1], rows[2]
	if a.TractID != "A" || b.TractID != "B" || c.TractID != "C" {
		t.Fatalf("rows out of geometry order: %s, %s, %s", a.TractID, b.TractID, c.TractID)
	}

	if a.Demo == nil || a.Demo.TotalPop != 1000 {
		t.Errorf("row A demographics = %+v, want TotalPop 1000", a.Demo)
	}
	if a.Camera != nil {
		t.Errorf("row A camera record should be nil, got %+v", a.Camera)
	}
	if a.Stops != nil {
		t.Errorf("row A stops should be nil, got %+v", a.Stops)
	}

	if b.Demo == nil || b.Camera == nil || b.Stops == nil {
		t.Fatalf("row B should have all three secondaries, got %+v", b)
	}
	if b.Stops.Total != 12 {
		t.Errorf("row B stop total = %d, want 12", b.Stops.Total)
	}

	if c.Demo != nil {
		t.Errorf("row C demographics should be nil, got %+v", c.Demo)
	}
	if c.Camera == nil || c.Camera.Cameras != 9 {
		t.Errorf("row C camera = %+v, want 9 cameras", c.Camera)
	}
}

func TestJoin_SecondaryOnlyKeysDropped(t *testing.T) {
	geo := geoFixture("A")
	demos := []census.Demographics{
		{TractID: "A", TotalPop: 100},
		{TractID: "Z", TotalPop: 500},
	}

	rows, err := Join(geo, demos, nil, nil)
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("secondary-only key must not add rows: got %d rows", len(rows))
	}
	if rows[0].TractID != "A" {
		t.Errorf("row = %s, want A", rows[0].TractID)
	}
}

func TestJoin_DuplicateDemographicRejected(t *testing.T) {
	geo := geoFixture("A")
	demos := []census.Demographics{
		{TractID: "A", TotalPop: 100},
		{TractID: "A", TotalPop: 200},
	}
	if _, err := Join(geo, demos, nil, nil); err == nil {
		t.Fatal("expected error for duplicate demographic key")
	}
}

func TestJoin_DuplicateCameraRejected(t *testing.T) {
	geo := geoFixture("A")
	cams := []cameras.Record{
		{TractID: "A", Cameras: 1},
		{TractID: "A", Cameras: 2},
	}
	if _, err := Join(geo, nil, cams, nil); err == nil {
		t.Fatal("expected error for duplicate camera key")
	}
}

func TestJoin_StopsAreCopied(t *testing.T) {
	geo := geoFixture("A")
	agg := map[string]stops.TractStops{
		"A": {TractID: "A", Total: 5, ByYear: map[int]int{2022: 5}},
	}

	rows, err := Join(geo, nil, nil, agg)
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	ts := agg["A"]
	ts.Total = 99
	agg["A"] = ts
	if rows[0].Stops.Total != 5 {
		t.Errorf("joined stops aliased the aggregate map: total = %d, want 5", rows[0].Stops.Total)
	}
}
