// gen-report runs the tract pipeline once and writes its outputs to disk:
// PNG bar charts and a borough summary CSV. Intended for offline report
// generation without the HTTP server.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/civic-data/equity.report/internal/config"
	"github.com/civic-data/equity.report/internal/pipeline"
	"github.com/civic-data/equity.report/internal/report"
	"github.com/civic-data/equity.report/internal/security"
)

var (
	configPath = flag.String("config", "", "Path to pipeline config JSON (optional)")
	outDir     = flag.String("out", "reports", "Base output directory")
)

func main() {
	flag.Parse()

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatalf("failed to get working directory: %v", err)
	}
	if err := security.ValidatePathWithinDirectory(*outDir, cwd); err != nil {
		log.Fatalf("invalid output directory: %v", err)
	}

	cfg := config.EmptyPipelineConfig()
	if *configPath != "" {
		cfg, err = config.LoadPipelineConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	result, err := pipeline.Run(context.Background(), cfg)
	if err != nil {
		log.Fatalf("pipeline run failed: %v", err)
	}
	log.Printf("pipeline complete: %d tracts, %d stops (%d unmatched)",
		result.Sources.Tracts, result.Sources.Stops, result.UnmatchedStops)

	runDir := report.MakePlotOutputDir(*outDir)
	count, err := report.SavePlots(runDir, result)
	if err != nil {
		log.Fatalf("failed to save plots: %v", err)
	}
	log.Printf("wrote %d plots to %s", count, runDir)

	summaryPath := filepath.Join(runDir, "borough_summary.csv")
	if err := writeSummaryCSV(summaryPath, result); err != nil {
		log.Fatalf("failed to write summary CSV: %v", err)
	}
	log.Printf("wrote %s", summaryPath)
}

func writeSummaryCSV(path string, result *pipeline.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"borough", "tracts", "total_pop", "total_stops", "top_ranked",
		"mean_stop_rate", "stddev_stop_rate", "median_stop_rate",
		"mean_surv_rate", "median_surv_rate",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, s := range report.SummarizeByBorough(result.Rows) {
		row := []string{
			s.Borough,
			fmt.Sprintf("%d", s.Tracts),
			fmt.Sprintf("%d", s.TotalPop),
			fmt.Sprintf("%d", s.TotalStops),
			fmt.Sprintf("%d", s.TopRanked),
			rateCell(s.MeanStopRate),
			rateCell(s.StddevStopRate),
			rateCell(s.MedianStopRate),
			rateCell(s.MeanSurvRate),
			rateCell(s.MedianSurvRate),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// rateCell formats a nullable rate; null exports as an empty cell.
func rateCell(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.6f", *v)
}
