package report

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/civic-data/equity.report/internal/db"
	"github.com/civic-data/equity.report/internal/httputil"
	"github.com/civic-data/equity.report/internal/pipeline"
)

type renderable interface {
	Render(w io.Writer) error
}

// Server serves the report: HTML charts and maps from the in-memory joined
// table, JSON and CSV from the stored run.
type Server struct {
	db     *db.DB
	result *pipeline.Result
	run    *db.ReportRun
}

// NewServer creates a report server over a stored run and its in-memory
// pipeline result.
func NewServer(database *db.DB, result *pipeline.Result, run *db.ReportRun) *Server {
	return &Server{db: database, result: result, run: run}
}

// ServeMux returns the report routes.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/tracts", s.handleTracts)
	mux.HandleFunc("/api/runs", s.handleRuns)
	mux.HandleFunc("/api/summary", s.handleSummary)
	mux.HandleFunc("/export/tracts.csv", s.handleExportCSV)

	mux.HandleFunc("/charts/plurality", s.chartHandler(func() renderable {
		return PluralityBar(s.result.Rows)
	}))
	mux.HandleFunc("/charts/population", s.chartHandler(func() renderable {
		return PopulationBar(s.result.Rows)
	}))
	mux.HandleFunc("/charts/stops-by-race", s.chartHandler(func() renderable {
		return StopsByRaceBar(s.result.StopTotals)
	}))
	mux.HandleFunc("/charts/stops-by-year", s.chartHandler(func() renderable {
		return StopsByYearBar(s.result.StopTotals, s.result.Years)
	}))

	mux.HandleFunc("/maps/stop-rate", s.chartHandler(func() renderable {
		return RateMap(s.result.Rows, "Stop Rate per 1000 Residents", func(r pipeline.TractRow) *float64 {
			return r.StopRate
		})
	}))
	mux.HandleFunc("/maps/surv-rate", s.chartHandler(func() renderable {
		return RateMap(s.result.Rows, "Surveillance Rate per 1000 Residents", func(r pipeline.TractRow) *float64 {
			return r.SurvRate
		})
	}))
	mux.HandleFunc("/maps/plurality", s.chartHandler(func() renderable {
		return CategoryMap(s.result.Rows, "Plurality Race by Tract", func(r pipeline.TractRow) *string {
			if r.Demo == nil {
				return nil
			}
			race := string(r.Demo.PluralityRace)
			return &race
		})
	}))
	mux.HandleFunc("/maps/surv-class", s.chartHandler(func() renderable {
		return CategoryMap(s.result.Rows, "Surveillance Classification", func(r pipeline.TractRow) *string {
			return r.SurvClass
		})
	}))

	return mux
}

// chartHandler renders a chart to a buffer and serves it as HTML.
func (s *Server) chartHandler(build func() renderable) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := build().Render(&buf); err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, err := w.Write(buf.Bytes()); err != nil {
			log.Printf("failed to write chart response: %v", err)
		}
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		httputil.NotFound(w, "not found")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (s *Server) handleTracts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	rows, err := s.db.TractRowsForRun(s.run.RunID)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to load tract rows: %v", err))
		return
	}
	httputil.WriteJSONOK(w, rows)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	runs, err := s.db.RecentRuns(20)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to load runs: %v", err))
		return
	}
	httputil.WriteJSONOK(w, runs)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, SummarizeByBorough(s.result.Rows))
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=tracts.csv")
	if err := s.db.WriteTractCSV(w, s.run.RunID); err != nil {
		log.Printf("failed to export tract CSV: %v", err)
	}
}

const indexHTML = `<!DOCTYPE html>
<html>
<head><title>Equity Report</title></head>
<body>
<h1>Equity Report</h1>
<h2>Charts</h2>
<ul>
<li><a href="/charts/plurality">Tracts by plurality race</a></li>
<li><a href="/charts/population">Population by race</a></li>
<li><a href="/charts/stops-by-race">Police stops by race</a></li>
<li><a href="/charts/stops-by-year">Police stops by year</a></li>
</ul>
<h2>Maps</h2>
<ul>
<li><a href="/maps/stop-rate">Stop rate per 1000 residents</a></li>
<li><a href="/maps/surv-rate">Surveillance rate per 1000 residents</a></li>
<li><a href="/maps/plurality">Plurality race by tract</a></li>
<li><a href="/maps/surv-class">Surveillance classification</a></li>
</ul>
<h2>Data</h2>
<ul>
<li><a href="/api/tracts">Joined tract table (JSON)</a></li>
<li><a href="/api/summary">Borough summaries (JSON)</a></li>
<li><a href="/api/runs">Run history (JSON)</a></li>
<li><a href="/export/tracts.csv">Joined tract table (CSV)</a></li>
</ul>
</body>
</html>
`
