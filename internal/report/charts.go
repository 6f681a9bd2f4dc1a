package report

import (
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/civic-data/equity.report/internal/census"
	"github.com/civic-data/equity.report/internal/pipeline"
	"github.com/civic-data/equity.report/internal/stops"
)

// viridis palette for continuous visual maps.
var viridisColors = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// categoryColors gives each race category and class label a stable color.
var categoryColors = map[string]string{
	string(census.RaceBlack):  "#5470c6",
	string(census.RaceWhite):  "#91cc75",
	string(census.RaceLatino): "#fac858",
	string(census.RaceAsian):  "#ee6666",
	string(census.RaceOther):  "#73c0de",
}

// raceOrder fixes the category order on every chart axis.
var raceOrder = []census.Race{census.RaceBlack, census.RaceWhite, census.RaceLatino, census.RaceAsian, census.RaceOther}

// PluralityBar charts how many tracts fall to each plurality race category.
func PluralityBar(rows []pipeline.TractRow) *charts.Bar {
	counts := make(map[census.Race]int)
	for _, row := range rows {
		if row.Demo != nil {
			counts[row.Demo.PluralityRace]++
		}
	}
	return raceBar("Tracts by Plurality Race", "tracts", func(r census.Race) float64 {
		return float64(counts[r])
	})
}

// PopulationBar charts the citywide population of each race category.
func PopulationBar(rows []pipeline.TractRow) *charts.Bar {
	totals := make(map[census.Race]int)
	for _, row := range rows {
		if row.Demo == nil {
			continue
		}
		for _, r := range raceOrder {
			totals[r] += row.Demo.RaceCount(r)
		}
	}
	return raceBar("Population by Race", "population", func(r census.Race) float64 {
		return float64(totals[r])
	})
}

// StopsByRaceBar charts citywide stop counts per normalized race category.
func StopsByRaceBar(totals stops.Totals) *charts.Bar {
	return raceBar("Police Stops by Race", "stops", func(r census.Race) float64 {
		return float64(totals.ByRace[r])
	})
}

// StopsByYearBar charts citywide stop counts for the two observed years.
func StopsByYearBar(totals stops.Totals, years [2]int) *charts.Bar {
	bar := newBar(fmt.Sprintf("Police Stops by Year (%d-%d)", years[0], years[1]))
	x := []string{fmt.Sprintf("%d", years[0]), fmt.Sprintf("%d", years[1])}
	y := []opts.BarData{
		{Value: totals.ByYear[years[0]]},
		{Value: totals.ByYear[years[1]]},
	}
	bar.SetXAxis(x).AddSeries("stops", y,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
	)
	return bar
}

// RateMap renders a choropleth-style scatter of tract centroids colored by
// a numeric field through a viridis visual map. Tracts where the field is
// null are omitted: no data is not a zero.
func RateMap(rows []pipeline.TractRow, title string, field func(pipeline.TractRow) *float64) *charts.Scatter {
	data := make([]opts.ScatterData, 0, len(rows))
	maxVal := 0.0
	for _, row := range rows {
		v := field(row)
		if v == nil {
			continue
		}
		if *v > maxVal {
			maxVal = *v
		}
		data = append(data, opts.ScatterData{
			Value: []interface{}{row.Tract.Centroid[0], row.Tract.Centroid[1], *v},
			Name:  row.TractID,
		})
	}
	if maxVal == 0 {
		maxVal = 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("tracts=%d", len(data))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Longitude", NameLocation: "middle", NameGap: 25, Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Latitude", NameLocation: "middle", NameGap: 30, Scale: opts.Bool(true)}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxVal),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridisColors},
		}),
	)
	scatter.AddSeries("tracts", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	return scatter
}

// CategoryMap renders tract centroids as one series per category value, so
// categorical fields (plurality race, surveillance class) map with a
// legend instead of a continuous scale. Null-valued tracts are omitted.
func CategoryMap(rows []pipeline.TractRow, title string, field func(pipeline.TractRow) *string) *charts.Scatter {
	byCategory := make(map[string][]opts.ScatterData)
	var order []string
	for _, row := range rows {
		v := field(row)
		if v == nil {
			continue
		}
		if _, seen := byCategory[*v]; !seen {
			order = append(order, *v)
		}
		byCategory[*v] = append(byCategory[*v], opts.ScatterData{
			Value: []interface{}{row.Tract.Centroid[0], row.Tract.Centroid[1]},
			Name:  row.TractID,
		})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Longitude", NameLocation: "middle", NameGap: 25, Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Latitude", NameLocation: "middle", NameGap: 30, Scale: opts.Bool(true)}),
	)

	for _, cat := range order {
		series := charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6})
		if color, ok := categoryColors[cat]; ok {
			scatter.AddSeries(cat, byCategory[cat], series, charts.WithItemStyleOpts(opts.ItemStyle{Color: color}))
		} else {
			scatter.AddSeries(cat, byCategory[cat], series)
		}
	}
	return scatter
}

func raceBar(title, seriesName string, value func(census.Race) float64) *charts.Bar {
	bar := newBar(title)
	x := make([]string, 0, len(raceOrder))
	y := make([]opts.BarData, 0, len(raceOrder))
	for _, r := range raceOrder {
		x = append(x, string(r))
		y = append(y, opts.BarData{Value: value(r), ItemStyle: &opts.ItemStyle{Color: categoryColors[string(r)]}})
	}
	bar.SetXAxis(x).AddSeries(seriesName, y,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
	)
	return bar
}

func newBar(title string) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "720px"}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	return bar
}
