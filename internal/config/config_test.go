package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civic-data/equity.report/internal/testutil"
)

func TestEmptyConfigDefaults(t *testing.T) {
	cfg := EmptyPipelineConfig()

	if got := cfg.GetACSPath(); got != "data/acs_demographics.csv" {
		t.Errorf("GetACSPath = %q", got)
	}
	if got := cfg.GetStopsPath(); got != "data/sqf_stops.csv" {
		t.Errorf("GetStopsPath = %q", got)
	}
	if got := cfg.GetCamerasPath(); got != "data/cameras_by_tract.csv" {
		t.Errorf("GetCamerasPath = %q", got)
	}
	if got := cfg.GetTractsPath(); got != "data/census_tracts.geojson" {
		t.Errorf("GetTractsPath = %q", got)
	}
	if got := cfg.GetDBPath(); got != "equity_report.db" {
		t.Errorf("GetDBPath = %q", got)
	}
	if got := cfg.GetPopulationThreshold(); got != 250 {
		t.Errorf("GetPopulationThreshold = %d, want 250", got)
	}
	if got := cfg.GetTopRankCount(); got != 50 {
		t.Errorf("GetTopRankCount = %d, want 50", got)
	}
	if got := cfg.GetYears(); got != [2]int{2022, 2023} {
		t.Errorf("GetYears = %v, want [2022 2023]", got)
	}
}

func TestLoadPipelineConfig_Partial(t *testing.T) {
	path := testutil.WriteTempFile(t, "partial.json",
		`{"acs_path": "fixtures/acs.csv", "population_threshold": 500}`)

	cfg, err := LoadPipelineConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "fixtures/acs.csv", cfg.GetACSPath())
	assert.Equal(t, 500, cfg.GetPopulationThreshold())
	// Unset fields keep their defaults.
	assert.Equal(t, "data/sqf_stops.csv", cfg.GetStopsPath())
	assert.Equal(t, 50, cfg.GetTopRankCount())
}

func TestLoadPipelineConfig_WrongExtension(t *testing.T) {
	path := testutil.WriteTempFile(t, "config.yaml", "acs_path: x")
	if _, err := LoadPipelineConfig(path); err == nil {
		t.Fatal("expected error for non-.json config file")
	}
}

func TestLoadPipelineConfig_BadJSON(t *testing.T) {
	path := testutil.WriteTempFile(t, "broken.json", "{nope")
	if _, err := LoadPipelineConfig(path); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestLoadPipelineConfig_Missing(t *testing.T) {
	if _, err := LoadPipelineConfig("does-not-exist.json"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	neg := -1
	zero := 0
	cases := []struct {
		name    string
		cfg     PipelineConfig
		wantErr bool
	}{
		{"empty", PipelineConfig{}, false},
		{"negative threshold", PipelineConfig{PopulationThreshold: &neg}, true},
		{"zero threshold ok", PipelineConfig{PopulationThreshold: &zero}, false},
		{"zero rank count", PipelineConfig{TopRankCount: &zero}, true},
		{"one year", PipelineConfig{Years: []int{2022}}, true},
		{"two years", PipelineConfig{Years: []int{2022, 2023}}, false},
	}
	for _, tc := range cases {
		err := tc.cfg.Validate()
		if tc.wantErr && err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
	}
}
