package report

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/civic-data/equity.report/internal/census"
	"github.com/civic-data/equity.report/internal/pipeline"
)

// SavePlots writes the PNG bar charts for a pipeline result into outputDir.
// Returns the number of files written.
func SavePlots(outputDir string, result *pipeline.Result) (int, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create output dir: %w", err)
	}

	plots := []struct {
		filename string
		title    string
		yLabel   string
		build    func() (names []string, values plotter.Values)
	}{
		{
			filename: "tracts_by_plurality_race.png",
			title:    "Tracts by Plurality Race",
			yLabel:   "Tracts",
			build: func() ([]string, plotter.Values) {
				counts := make(map[census.Race]int)
				for _, row := range result.Rows {
					if row.Demo != nil {
						counts[row.Demo.PluralityRace]++
					}
				}
				return raceValues(func(r census.Race) float64 { return float64(counts[r]) })
			},
		},
		{
			filename: "population_by_race.png",
			title:    "Population by Race",
			yLabel:   "Population",
			build: func() ([]string, plotter.Values) {
				totals := make(map[census.Race]int)
				for _, row := range result.Rows {
					if row.Demo == nil {
						continue
					}
					for _, r := range raceOrder {
						totals[r] += row.Demo.RaceCount(r)
					}
				}
				return raceValues(func(r census.Race) float64 { return float64(totals[r]) })
			},
		},
		{
			filename: "stops_by_race.png",
			title:    "Police Stops by Race",
			yLabel:   "Stops",
			build: func() ([]string, plotter.Values) {
				return raceValues(func(r census.Race) float64 {
					return float64(result.StopTotals.ByRace[r])
				})
			},
		},
		{
			filename: "mean_stop_rate_by_borough.png",
			title:    "Mean Stop Rate per 1000 by Borough",
			yLabel:   "Stops per 1000 residents",
			build: func() ([]string, plotter.Values) {
				summaries := SummarizeByBorough(result.Rows)
				names := make([]string, 0, len(summaries))
				values := make(plotter.Values, 0, len(summaries))
				for _, s := range summaries {
					names = append(names, s.Borough)
					if s.MeanStopRate != nil {
						values = append(values, *s.MeanStopRate)
					} else {
						values = append(values, 0)
					}
				}
				return names, values
			},
		},
	}

	count := 0
	for _, pl := range plots {
		names, values := pl.build()
		if err := saveBarPlot(filepath.Join(outputDir, pl.filename), pl.title, pl.yLabel, names, values); err != nil {
			return count, fmt.Errorf("%s: %w", pl.filename, err)
		}
		count++
	}
	return count, nil
}

func saveBarPlot(path, title, yLabel string, names []string, values plotter.Values) error {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = yLabel

	bars, err := plotter.NewBarChart(values, vg.Points(40))
	if err != nil {
		return err
	}
	bars.LineStyle.Width = vg.Length(0)
	bars.Color = color.RGBA{R: 0x31, G: 0x68, B: 0x8e, A: 255}

	p.Add(bars)
	p.NominalX(names...)

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}

func raceValues(value func(census.Race) float64) ([]string, plotter.Values) {
	names := make([]string, 0, len(raceOrder))
	values := make(plotter.Values, 0, len(raceOrder))
	for _, r := range raceOrder {
		names = append(names, string(r))
		values = append(values, value(r))
	}
	return names, values
}

// MakePlotOutputDir returns a timestamped output directory for a batch run.
func MakePlotOutputDir(baseDir string) string {
	return filepath.Join(baseDir, time.Now().Format("20060102_150405"))
}
