package pipeline

import (
	"context"
	"testing"

	"github.com/civic-data/equity.report/internal/config"
	"github.com/civic-data/equity.report/internal/testutil"
)

const fixtureACS = `geoid,name,variable,estimate
36047000100,"Census Tract 1, Kings County, New York",B03002_001E,4000
36047000100,"Census Tract 1, Kings County, New York",B03002_003E,800
36047000100,"Census Tract 1, Kings County, New York",B03002_004E,1800
36047000100,"Census Tract 1, Kings County, New York",B03002_012E,900
36047000100,"Census Tract 1, Kings County, New York",B03002_006E,300
36047000100,"Census Tract 1, Kings County, New York",B19013_001E,62000
36047000200,"Census Tract 2, Kings County, New York",B03002_001E,200
36047000200,"Census Tract 2, Kings County, New York",B03002_003E,50
36047000200,"Census Tract 2, Kings County, New York",B03002_004E,60
36047000200,"Census Tract 2, Kings County, New York",B03002_012E,40
36047000200,"Census Tract 2, Kings County, New York",B03002_006E,20
`

const fixtureStops = `tract_id,suspect_race_description,year
36047000100,BLACK,2022
36047000100,BLACK,2023
36047000100,WHITE HISPANIC,2022
,WHITE,2022
`

const fixtureCameras = `tract_id,cameras,effective_cameras_200m
36047000100,12,8
`

const fixtureGeo = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature",
     "properties": {"GEOID": "36047000100", "NAMELSAD": "Census Tract 1, Kings County, New York"},
     "geometry": {"type": "Polygon", "coordinates": [[[-73.96,40.67],[-73.94,40.67],[-73.94,40.69],[-73.96,40.69],[-73.96,40.67]]]}},
    {"type": "Feature",
     "properties": {"GEOID": "36047000200", "NAMELSAD": "Census Tract 2, Kings County, New York"},
     "geometry": {"type": "Polygon", "coordinates": [[[-73.94,40.67],[-73.92,40.67],[-73.92,40.69],[-73.94,40.69],[-73.94,40.67]]]}}
  ]
}`

func TestRun(t *testing.T) {
	cfg := &config.PipelineConfig{
		ACSPath:     testutil.StringPtr(testutil.WriteTempFile(t, "acs.csv", fixtureACS)),
		StopsPath:   testutil.StringPtr(testutil.WriteTempFile(t, "stops.csv", fixtureStops)),
		CamerasPath: testutil.StringPtr(testutil.WriteTempFile(t, "cameras.csv", fixtureCameras)),
		TractsPath:  testutil.StringPtr(testutil.WriteTempFile(t, "tracts.geojson", fixtureGeo)),
	}

	result, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Sources.Tracts != 2 || result.Sources.Demographics != 2 ||
		result.Sources.Stops != 4 || result.Sources.Cameras != 1 {
		t.Errorf("source counts = %+v", result.Sources)
	}
	if result.UnmatchedStops != 1 {
		t.Errorf("unmatched stops = %d, want 1", result.UnmatchedStops)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("expected 2 joined rows, got %d", len(result.Rows))
	}

	// Tract 1: above the population threshold with all sources present.
	r1 := result.Rows[0]
	if r1.TractID != "36047000100" {
		t.Fatalf("first row = %s", r1.TractID)
	}
	if r1.Demo == nil || r1.Demo.Borough != "Brooklyn" {
		t.Errorf("row 1 demographics = %+v, want Brooklyn", r1.Demo)
	}
	if r1.Demo.OtherPop != 200 {
		t.Errorf("row 1 other pop = %d, want 200", r1.Demo.OtherPop)
	}
	if r1.Stops == nil || r1.Stops.Total != 3 || r1.Stops.Black != 2 {
		t.Errorf("row 1 stops = %+v, want 3 total / 2 black", r1.Stops)
	}
	if r1.StopRate == nil || *r1.StopRate != 1000*3.0/4000 {
		t.Errorf("row 1 stop rate = %v", r1.StopRate)
	}
	if r1.SurvRate == nil || *r1.SurvRate != 1000*8.0/4000 {
		t.Errorf("row 1 surveillance rate = %v", r1.SurvRate)
	}
	if r1.SurvRank != 1 {
		t.Errorf("row 1 surveillance rank = %d, want 1", r1.SurvRank)
	}
	if r1.SurvClass == nil || *r1.SurvClass != "top 50" {
		t.Errorf("row 1 class = %v, want top 50", r1.SurvClass)
	}

	// Tract 2: population 200 is under the threshold; no stops or cameras.
	r2 := result.Rows[1]
	if r2.StopRate != nil || r2.SurvRate != nil || r2.SurvClass != nil {
		t.Errorf("row 2 should be fully gated: %+v", r2)
	}
	if r2.SurvRank != 2 {
		t.Errorf("row 2 surveillance rank = %d, want 2", r2.SurvRank)
	}

	// Citywide totals include the unmatched incident.
	if result.StopTotals.ByYear[2022] != 3 || result.StopTotals.ByYear[2023] != 1 {
		t.Errorf("citywide by-year totals = %v", result.StopTotals.ByYear)
	}
}

func TestRun_MissingSource(t *testing.T) {
	cfg := &config.PipelineConfig{
		ACSPath:     testutil.StringPtr("does-not-exist.csv"),
		StopsPath:   testutil.StringPtr(testutil.WriteTempFile(t, "stops.csv", fixtureStops)),
		CamerasPath: testutil.StringPtr(testutil.WriteTempFile(t, "cameras.csv", fixtureCameras)),
		TractsPath:  testutil.StringPtr(testutil.WriteTempFile(t, "tracts.geojson", fixtureGeo)),
	}

	if _, err := Run(context.Background(), cfg); err == nil {
		t.Fatal("expected error for missing source file")
	}
}
