package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/civic-data/equity.report/internal/pipeline"
)

// ReportRun is the stored metadata for one pipeline run.
type ReportRun struct {
	RunID               string    `json:"run_id"`
	CreatedAt           time.Time `json:"created_at"`
	TractCount          int       `json:"tract_count"`
	StopCount           int       `json:"stop_count"`
	UnmatchedStops      int       `json:"unmatched_stops"`
	PopulationThreshold int       `json:"population_threshold"`
	TopRankCount        int       `json:"top_rank_count"`
	YearOne             int       `json:"year_one"`
	YearTwo             int       `json:"year_two"`
}

// StoredTract is one flattened row of the joined tract table. Nullable
// columns are pointers; nil means the tract had no data from that source,
// never zero.
type StoredTract struct {
	RunID       string  `json:"-"`
	TractID     string  `json:"tract_id"`
	Name        string  `json:"name"`
	Borough     *string `json:"borough"`
	CentroidLon float64 `json:"centroid_lon"`
	CentroidLat float64 `json:"centroid_lat"`

	TotalPop      *int     `json:"total_pop"`
	WhitePop      *int     `json:"white_pop"`
	BlackPop      *int     `json:"black_pop"`
	LatinoPop     *int     `json:"latino_pop"`
	AsianPop      *int     `json:"asian_pop"`
	OtherPop      *int     `json:"other_pop"`
	MalePop       *int     `json:"male_pop"`
	FemalePop     *int     `json:"female_pop"`
	MedianIncome  *float64 `json:"median_income"`
	PluralityRace *string  `json:"plurality_race"`

	Cameras              *int     `json:"cameras"`
	Cameras200m          *int     `json:"cameras_200m"`
	EffectiveCameras     *float64 `json:"effective_cameras"`
	EffectiveCameras200m *float64 `json:"effective_cameras_200m"`

	StopsTotal   *int `json:"stops_total"`
	StopsYearOne *int `json:"stops_year_one"`
	StopsYearTwo *int `json:"stops_year_two"`
	StopsBlack   *int `json:"stops_black"`

	StopRate  *float64 `json:"stop_rate"`
	SurvRate  *float64 `json:"surv_rate"`
	SurvRank  int      `json:"surv_rank"`
	SurvClass *string  `json:"surv_class"`
}

// storedFromRow flattens one joined row for storage.
func storedFromRow(runID string, row pipeline.TractRow, years [2]int) StoredTract {
	st := StoredTract{
		RunID:       runID,
		TractID:     row.TractID,
		Name:        row.Name,
		CentroidLon: row.Tract.Centroid[0],
		CentroidLat: row.Tract.Centroid[1],
		StopRate:    row.StopRate,
		SurvRate:    row.SurvRate,
		SurvRank:    row.SurvRank,
		SurvClass:   row.SurvClass,
	}

	if d := row.Demo; d != nil {
		st.Borough = &d.Borough
		st.TotalPop = &d.TotalPop
		st.WhitePop = &d.WhitePop
		st.BlackPop = &d.BlackPop
		st.LatinoPop = &d.LatinoPop
		st.AsianPop = &d.AsianPop
		st.OtherPop = &d.OtherPop
		st.MalePop = &d.MalePop
		st.FemalePop = &d.FemalePop
		st.MedianIncome = d.MedianIncome
		plurality := string(d.PluralityRace)
		st.PluralityRace = &plurality
	}

	if c := row.Camera; c != nil {
		st.Cameras = &c.Cameras
		st.Cameras200m = &c.CamerasWithin200m
		st.EffectiveCameras = &c.EffectiveCameras
		st.EffectiveCameras200m = &c.EffectiveWithin200m
	}

	if s := row.Stops; s != nil {
		st.StopsTotal = &s.Total
		st.StopsBlack = &s.Black
		y1, y2 := s.ByYear[years[0]], s.ByYear[years[1]]
		st.StopsYearOne = &y1
		st.StopsYearTwo = &y2
	}

	return st
}

// SaveRun persists a pipeline result as a new run, all rows in one
// transaction.
func (db *DB) SaveRun(result *pipeline.Result) (*ReportRun, error) {
	run := &ReportRun{
		RunID:               uuid.NewString(),
		CreatedAt:           time.Now().UTC(),
		TractCount:          result.Sources.Tracts,
		StopCount:           result.Sources.Stops,
		UnmatchedStops:      result.UnmatchedStops,
		PopulationThreshold: result.Params.PopulationThreshold,
		TopRankCount:        result.Params.TopRankCount,
		YearOne:             result.Years[0],
		YearTwo:             result.Years[1],
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO report_runs (
			run_id, created_at, tract_count, stop_count, unmatched_stops,
			population_threshold, top_rank_count, year_one, year_two
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.CreatedAt, run.TractCount, run.StopCount, run.UnmatchedStops,
		run.PopulationThreshold, run.TopRankCount, run.YearOne, run.YearTwo,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO tract_rows (
			run_id, tract_id, name, borough, centroid_lon, centroid_lat,
			total_pop, white_pop, black_pop, latino_pop, asian_pop, other_pop,
			male_pop, female_pop, median_income, plurality_race,
			cameras, cameras_200m, effective_cameras, effective_cameras_200m,
			stops_total, stops_year_one, stops_year_two, stops_black,
			stop_rate, surv_rate, surv_rank, surv_class
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare tract insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range result.Rows {
		st := storedFromRow(run.RunID, row, result.Years)
		_, err := stmt.Exec(
			st.RunID, st.TractID, st.Name, st.Borough, st.CentroidLon, st.CentroidLat,
			st.TotalPop, st.WhitePop, st.BlackPop, st.LatinoPop, st.AsianPop, st.OtherPop,
			st.MalePop, st.FemalePop, st.MedianIncome, st.PluralityRace,
			st.Cameras, st.Cameras200m, st.EffectiveCameras, st.EffectiveCameras200m,
			st.StopsTotal, st.StopsYearOne, st.StopsYearTwo, st.StopsBlack,
			st.StopRate, st.SurvRate, st.SurvRank, st.SurvClass,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert tract %s: %w", st.TractID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit run: %w", err)
	}
	return run, nil
}

// LatestRun returns the most recently created run, or nil when the store is
// empty.
func (db *DB) LatestRun() (*ReportRun, error) {
	row := db.QueryRow(`
		SELECT run_id, created_at, tract_count, stop_count, unmatched_stops,
		       population_threshold, top_rank_count, year_one, year_two
		FROM report_runs ORDER BY created_at DESC, run_id DESC LIMIT 1`)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest run: %w", err)
	}
	return run, nil
}

// RecentRuns returns up to limit runs, newest first.
func (db *DB) RecentRuns(limit int) ([]ReportRun, error) {
	rows, err := db.Query(`
		SELECT run_id, created_at, tract_count, stop_count, unmatched_stops,
		       population_threshold, top_rank_count, year_one, year_two
		FROM report_runs ORDER BY created_at DESC, run_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []ReportRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// TractRowsForRun returns the stored joined table for a run, ordered by
// tract id.
func (db *DB) TractRowsForRun(runID string) ([]StoredTract, error) {
	rows, err := db.Query(`
		SELECT run_id, tract_id, name, borough, centroid_lon, centroid_lat,
		       total_pop, white_pop, black_pop, latino_pop, asian_pop, other_pop,
		       male_pop, female_pop, median_income, plurality_race,
		       cameras, cameras_200m, effective_cameras, effective_cameras_200m,
		       stops_total, stops_year_one, stops_year_two, stops_black,
		       stop_rate, surv_rate, surv_rank, surv_class
		FROM tract_rows WHERE run_id = ? ORDER BY tract_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tract rows: %w", err)
	}
	defer rows.Close()

	var out []StoredTract
	for rows.Next() {
		var st StoredTract
		var (
			borough, plurality, survClass         sql.NullString
			totalPop, whitePop, blackPop          sql.NullInt64
			latinoPop, asianPop, otherPop         sql.NullInt64
			malePop, femalePop                    sql.NullInt64
			medianIncome                          sql.NullFloat64
			cams, cams200                         sql.NullInt64
			effCams, effCams200                   sql.NullFloat64
			stopsTotal, stopsY1, stopsY2, stopsBl sql.NullInt64
			stopRate, survRate                    sql.NullFloat64
		)
		err := rows.Scan(
			&st.RunID, &st.TractID, &st.Name, &borough, &st.CentroidLon, &st.CentroidLat,
			&totalPop, &whitePop, &blackPop, &latinoPop, &asianPop, &otherPop,
			&malePop, &femalePop, &medianIncome, &plurality,
			&cams, &cams200, &effCams, &effCams200,
			&stopsTotal, &stopsY1, &stopsY2, &stopsBl,
			&stopRate, &survRate, &st.SurvRank, &survClass,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tract row: %w", err)
		}

		st.Borough = nullString(borough)
		st.PluralityRace = nullString(plurality)
		st.SurvClass = nullString(survClass)
		st.TotalPop = nullInt(totalPop)
		st.WhitePop = nullInt(whitePop)
		st.BlackPop = nullInt(blackPop)
		st.LatinoPop = nullInt(latinoPop)
		st.AsianPop = nullInt(asianPop)
		st.OtherPop = nullInt(otherPop)
		st.MalePop = nullInt(malePop)
		st.FemalePop = nullInt(femalePop)
		st.MedianIncome = nullFloat(medianIncome)
		st.Cameras = nullInt(cams)
		st.Cameras200m = nullInt(cams200)
		st.EffectiveCameras = nullFloat(effCams)
		st.EffectiveCameras200m = nullFloat(effCams200)
		st.StopsTotal = nullInt(stopsTotal)
		st.StopsYearOne = nullInt(stopsY1)
		st.StopsYearTwo = nullInt(stopsY2)
		st.StopsBlack = nullInt(stopsBl)
		st.StopRate = nullFloat(stopRate)
		st.SurvRate = nullFloat(survRate)

		out = append(out, st)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(r rowScanner) (*ReportRun, error) {
	var run ReportRun
	err := r.Scan(
		&run.RunID, &run.CreatedAt, &run.TractCount, &run.StopCount, &run.UnmatchedStops,
		&run.PopulationThreshold, &run.TopRankCount, &run.YearOne, &run.YearTwo,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}
