// Package cameras loads per-tract surveillance camera counts. The effective
// counts are deduplicated coverage estimates computed upstream and treated
// as opaque inputs here.
package cameras

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Record is one row of camera counts keyed by tract id.
type Record struct {
	TractID             string
	Cameras             int
	CamerasWithin200m   int
	EffectiveCameras    float64
	EffectiveWithin200m float64
}

// LoadCSV reads camera counts from a CSV file.
func LoadCSV(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cameras file: %w", err)
	}
	defer f.Close()

	recs, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

// Read parses camera records from r.
func Read(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read cameras header: %w", err)
	}

	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	tractCol, ok := firstCol(cols, "tract_id", "geoid", "tract")
	if !ok {
		return nil, fmt.Errorf("cameras header missing tract id column (have %v)", header)
	}
	camCol, ok := firstCol(cols, "cameras", "camera_count")
	if !ok {
		return nil, fmt.Errorf("cameras header missing camera count column (have %v)", header)
	}
	cam200Col, _ := firstCol(cols, "cameras_200m", "cameras_within_200m")
	effCol, _ := firstCol(cols, "effective_cameras")
	eff200Col, _ := firstCol(cols, "effective_cameras_200m", "effective_cameras_within_200m")

	var recs []Record
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read cameras row: %w", err)
		}

		out := Record{TractID: NormalizeTractID(rec[tractCol])}
		if out.TractID == "" {
			return nil, fmt.Errorf("cameras row %d has empty tract id", len(recs)+2)
		}

		if out.Cameras, err = intField(rec, camCol); err != nil {
			return nil, fmt.Errorf("cameras row for tract %s: %w", out.TractID, err)
		}
		if out.CamerasWithin200m, err = intField(rec, cam200Col); err != nil {
			return nil, fmt.Errorf("cameras row for tract %s: %w", out.TractID, err)
		}
		if out.EffectiveCameras, err = floatField(rec, effCol); err != nil {
			return nil, fmt.Errorf("cameras row for tract %s: %w", out.TractID, err)
		}
		if out.EffectiveWithin200m, err = floatField(rec, eff200Col); err != nil {
			return nil, fmt.Errorf("cameras row for tract %s: %w", out.TractID, err)
		}

		recs = append(recs, out)
	}

	return recs, nil
}

// NormalizeTractID coerces a camera-table key to the same textual form as
// the geometry key. Upstream tools export numeric-typed tract ids, which
// arrive as "36005000100.0"; the fractional suffix is dropped.
func NormalizeTractID(raw string) string {
	id := strings.TrimSpace(raw)
	id = strings.TrimSuffix(id, ".0")
	return id
}

func firstCol(cols map[string]int, names ...string) (int, bool) {
	for _, n := range names {
		if i, ok := cols[n]; ok {
			return i, true
		}
	}
	return -1, false
}

func intField(rec []string, col int) (int, error) {
	if col < 0 || col >= len(rec) || strings.TrimSpace(rec[col]) == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(rec[col]))
	if err != nil {
		return 0, fmt.Errorf("bad integer field %q: %w", rec[col], err)
	}
	return v, nil
}

func floatField(rec []string, col int) (float64, error) {
	if col < 0 || col >= len(rec) || strings.TrimSpace(rec[col]) == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(rec[col]), 64)
	if err != nil {
		return 0, fmt.Errorf("bad numeric field %q: %w", rec[col], err)
	}
	return v, nil
}
