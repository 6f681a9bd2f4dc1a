// Package stops loads NYPD stop-incident records, normalizes their reported
// race strings onto the shared five-category schema, and aggregates
// incidents per census tract.
package stops

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/civic-data/equity.report/internal/census"
)

// Incident is one police stop. TractID is empty when the incident could not
// be matched to a tract; such incidents never join. Coordinates are planar
// and nullable.
type Incident struct {
	TractID string
	RawRace string
	Race    census.Race
	Year    int
	X       *float64
	Y       *float64
}

// NormalizeRace maps a raw reported race/ethnicity string onto the shared
// five-category schema. The mapping is total: every input, including blank
// and unknown strings, yields exactly one category.
func NormalizeRace(raw string) census.Race {
	switch strings.TrimSpace(strings.ToUpper(raw)) {
	case "WHITE":
		return census.RaceWhite
	case "BLACK":
		return census.RaceBlack
	case "BLACK HISPANIC", "WHITE HISPANIC":
		return census.RaceLatino
	case "ASIAN / PACIFIC ISLANDER":
		return census.RaceAsian
	default:
		return census.RaceOther
	}
}

// LoadCSV reads stop incidents from a CSV file.
func LoadCSV(path string) ([]Incident, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open stops file: %w", err)
	}
	defer f.Close()

	incidents, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return incidents, nil
}

// Read parses stop incidents from r. The header must name tract, race and
// year columns; coordinate columns are optional.
func Read(r io.Reader) ([]Incident, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read stops header: %w", err)
	}

	tractCol, raceCol, yearCol := -1, -1, -1
	xCol, yCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "tract_id", "geoid", "tract":
			tractCol = i
		case "suspect_race_description", "race", "race_description":
			raceCol = i
		case "year", "year2":
			yearCol = i
		case "stop_location_x", "x_coord", "x":
			xCol = i
		case "stop_location_y", "y_coord", "y":
			yCol = i
		}
	}
	if tractCol < 0 || raceCol < 0 || yearCol < 0 {
		return nil, fmt.Errorf("stops header missing required columns (have %v)", header)
	}

	var incidents []Incident
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read stops row: %w", err)
		}

		inc := Incident{
			TractID: strings.TrimSpace(rec[tractCol]),
			RawRace: rec[raceCol],
		}
		inc.Race = NormalizeRace(inc.RawRace)

		year, err := strconv.Atoi(strings.TrimSpace(rec[yearCol]))
		if err != nil {
			return nil, fmt.Errorf("stops row %d: bad year %q: %w", len(incidents)+2, rec[yearCol], err)
		}
		inc.Year = year

		inc.X = parseCoord(rec, xCol)
		inc.Y = parseCoord(rec, yCol)

		incidents = append(incidents, inc)
	}

	return incidents, nil
}

func parseCoord(rec []string, col int) *float64 {
	if col < 0 || col >= len(rec) {
		return nil
	}
	raw := strings.TrimSpace(rec[col])
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
