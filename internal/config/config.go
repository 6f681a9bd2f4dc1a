package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical pipeline defaults file.
const DefaultConfigPath = "config/pipeline.defaults.json"

// PipelineConfig represents the root configuration for a report run.
// Fields are pointers so a partial JSON file only overrides what it names;
// the Get* accessors supply defaults for everything else.
type PipelineConfig struct {
	// Input sources
	ACSPath     *string `json:"acs_path,omitempty"`
	StopsPath   *string `json:"stops_path,omitempty"`
	CamerasPath *string `json:"cameras_path,omitempty"`
	TractsPath  *string `json:"tracts_path,omitempty"`

	// Results database
	DBPath *string `json:"db_path,omitempty"`

	// Derivation params
	PopulationThreshold *int  `json:"population_threshold,omitempty"`
	TopRankCount        *int  `json:"top_rank_count,omitempty"`
	Years               []int `json:"years,omitempty"`
}

// EmptyPipelineConfig returns a PipelineConfig with all fields unset.
func EmptyPipelineConfig() *PipelineConfig {
	return &PipelineConfig{}
}

// LoadPipelineConfig loads a PipelineConfig from a JSON file. Fields omitted
// from the file retain their defaults, so partial configs are safe.
func LoadPipelineConfig(path string) (*PipelineConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyPipelineConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *PipelineConfig) Validate() error {
	if c.PopulationThreshold != nil && *c.PopulationThreshold < 0 {
		return fmt.Errorf("population_threshold must be non-negative, got %d", *c.PopulationThreshold)
	}
	if c.TopRankCount != nil && *c.TopRankCount < 1 {
		return fmt.Errorf("top_rank_count must be at least 1, got %d", *c.TopRankCount)
	}
	if c.Years != nil && len(c.Years) != 2 {
		return fmt.Errorf("years must list exactly the two observed years, got %d", len(c.Years))
	}
	return nil
}

// GetACSPath returns the ACS demographics CSV path or the default.
func (c *PipelineConfig) GetACSPath() string {
	if c.ACSPath == nil || *c.ACSPath == "" {
		return "data/acs_demographics.csv"
	}
	return *c.ACSPath
}

// GetStopsPath returns the stop-incident CSV path or the default.
func (c *PipelineConfig) GetStopsPath() string {
	if c.StopsPath == nil || *c.StopsPath == "" {
		return "data/sqf_stops.csv"
	}
	return *c.StopsPath
}

// GetCamerasPath returns the camera-count CSV path or the default.
func (c *PipelineConfig) GetCamerasPath() string {
	if c.CamerasPath == nil || *c.CamerasPath == "" {
		return "data/cameras_by_tract.csv"
	}
	return *c.CamerasPath
}

// GetTractsPath returns the tract-geometry GeoJSON path or the default.
func (c *PipelineConfig) GetTractsPath() string {
	if c.TractsPath == nil || *c.TractsPath == "" {
		return "data/census_tracts.geojson"
	}
	return *c.TractsPath
}

// GetDBPath returns the results database path or the default.
func (c *PipelineConfig) GetDBPath() string {
	if c.DBPath == nil || *c.DBPath == "" {
		return "equity_report.db"
	}
	return *c.DBPath
}

// GetPopulationThreshold returns the minimum tract population for rate
// derivation. Rates require population strictly greater than this value;
// a tract exactly at the threshold gets null rates.
func (c *PipelineConfig) GetPopulationThreshold() int {
	if c.PopulationThreshold == nil {
		return 250
	}
	return *c.PopulationThreshold
}

// GetTopRankCount returns the surveillance-rank cutoff for the "top" class.
func (c *PipelineConfig) GetTopRankCount() int {
	if c.TopRankCount == nil {
		return 50
	}
	return *c.TopRankCount
}

// GetYears returns the two observed stop years.
func (c *PipelineConfig) GetYears() [2]int {
	if len(c.Years) != 2 {
		return [2]int{2022, 2023}
	}
	return [2]int{c.Years[0], c.Years[1]}
}
