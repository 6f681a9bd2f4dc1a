// Package census loads and reshapes American Community Survey (ACS)
// demographic extracts. The input is a long-format table with one row per
// (tract, variable) pair; Reshape pivots it into one record per tract.
package census

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ACS variable codes carried through the pipeline. Any other variable code
// in the input is preserved in the pivot but ignored by Reshape.
const (
	VarTotalPop     = "B03002_001E"
	VarWhitePop     = "B03002_003E"
	VarBlackPop     = "B03002_004E"
	VarAsianPop     = "B03002_006E"
	VarLatinoPop    = "B03002_012E"
	VarMalePop      = "B01001_002E"
	VarFemalePop    = "B01001_026E"
	VarMedianIncome = "B19013_001E"
)

// acsSuppressed is the sentinel the Census Bureau emits for estimates
// suppressed in low-population tracts (notably median income).
const acsSuppressed = -666666666

// LongRow is one row of the long-format ACS extract. Estimate is nil when
// the source value is blank or carries the suppression sentinel. The
// margin-of-error column is read and dropped.
type LongRow struct {
	TractID  string
	Name     string
	Variable string
	Estimate *float64
}

// LoadLongCSV reads a long-format ACS extract from a CSV file.
func LoadLongCSV(path string) ([]LongRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ACS file: %w", err)
	}
	defer f.Close()

	rows, err := ReadLong(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// ReadLong parses long-format ACS rows from r. The first record must be a
// header naming at least geoid, name, variable and estimate columns.
func ReadLong(r io.Reader) ([]LongRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read ACS header: %w", err)
	}

	cols, err := longColumns(header)
	if err != nil {
		return nil, err
	}

	var rows []LongRow
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read ACS row: %w", err)
		}

		row := LongRow{
			TractID:  strings.TrimSpace(rec[cols.geoid]),
			Name:     strings.TrimSpace(rec[cols.name]),
			Variable: strings.TrimSpace(rec[cols.variable]),
		}
		if row.TractID == "" {
			return nil, fmt.Errorf("ACS row %d has empty tract id", len(rows)+2)
		}

		raw := strings.TrimSpace(rec[cols.estimate])
		if raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("ACS row for tract %s variable %s: bad estimate %q: %w",
					row.TractID, row.Variable, raw, err)
			}
			if v != acsSuppressed {
				row.Estimate = &v
			}
		}

		rows = append(rows, row)
	}

	return rows, nil
}

type longCols struct {
	geoid, name, variable, estimate int
}

func longColumns(header []string) (longCols, error) {
	cols := longCols{geoid: -1, name: -1, variable: -1, estimate: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "geoid", "geo_id", "tract_id":
			cols.geoid = i
		case "name", "tract_name":
			cols.name = i
		case "variable", "variable_code":
			cols.variable = i
		case "estimate", "value":
			cols.estimate = i
		}
	}
	if cols.geoid < 0 || cols.name < 0 || cols.variable < 0 || cols.estimate < 0 {
		return cols, fmt.Errorf("ACS header missing required columns (have %v)", header)
	}
	return cols, nil
}
