package db

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

var exportHeader = []string{
	"tract_id", "name", "borough",
	"total_pop", "white_pop", "black_pop", "latino_pop", "asian_pop", "other_pop",
	"male_pop", "female_pop", "median_income", "plurality_race",
	"cameras", "cameras_200m", "effective_cameras", "effective_cameras_200m",
	"stops_total", "stops_year_one", "stops_year_two", "stops_black",
	"stop_rate", "surv_rate", "surv_rank", "surv_class",
}

// WriteTractCSV writes the stored joined table for a run as CSV. Null
// fields export as empty cells, preserving the no-data/zero distinction.
func (db *DB) WriteTractCSV(w io.Writer, runID string) error {
	rows, err := db.TractRowsForRun(runID)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, st := range rows {
		rec := []string{
			st.TractID, st.Name, strOrEmpty(st.Borough),
			intOrEmpty(st.TotalPop), intOrEmpty(st.WhitePop), intOrEmpty(st.BlackPop),
			intOrEmpty(st.LatinoPop), intOrEmpty(st.AsianPop), intOrEmpty(st.OtherPop),
			intOrEmpty(st.MalePop), intOrEmpty(st.FemalePop),
			floatOrEmpty(st.MedianIncome), strOrEmpty(st.PluralityRace),
			intOrEmpty(st.Cameras), intOrEmpty(st.Cameras200m),
			floatOrEmpty(st.EffectiveCameras), floatOrEmpty(st.EffectiveCameras200m),
			intOrEmpty(st.StopsTotal), intOrEmpty(st.StopsYearOne),
			intOrEmpty(st.StopsYearTwo), intOrEmpty(st.StopsBlack),
			floatOrEmpty(st.StopRate), floatOrEmpty(st.SurvRate),
			strconv.Itoa(st.SurvRank), strOrEmpty(st.SurvClass),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write CSV row for tract %s: %w", st.TractID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func strOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func intOrEmpty(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func floatOrEmpty(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
