package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/uniformity.report/internal/uniformity"
)

// ChartOptions configures the interactive charts.
type ChartOptions struct {
	// AssetsHost overrides where the echarts scripts are loaded from. Empty
	// uses the go-echarts default.
	AssetsHost string
}

func (o ChartOptions) init(title, height string) opts.Initialization {
	in := opts.Initialization{PageTitle: title, Width: "100%", Height: height}
	if o.AssetsHost != "" {
		in.AssetsHost = o.AssetsHost
	}
	return in
}

// AxisRange is an optional fixed y-axis range.
type AxisRange struct {
	Lo, Hi float64
	OK     bool
}

// Renderer is anything go-echarts can render to a writer.
type Renderer interface {
	Render(w io.Writer) error
}

// RenderHTML renders a chart or page into a standalone HTML document.
func RenderHTML(r Renderer) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}

// DistributionChart draws a horizontal bar per band with the number of
// sensors in it. All ten bands are shown even when empty.
func DistributionChart(t *uniformity.Table, k uniformity.Kind, o ChartOptions) *charts.Bar {
	counts := uniformity.Distribution(t, k)
	labels := make([]string, uniformity.NumBands)
	data := make([]opts.BarData, uniformity.NumBands)
	for _, b := range uniformity.Bands() {
		labels[b] = b.String()
		data[b] = opts.BarData{
			Value:     counts[b],
			ItemStyle: &opts.ItemStyle{Color: bandColor(b), BorderColor: "black", BorderWidth: 1},
		}
	}

	title := fmt.Sprintf("%s Score Distribution", k)
	subtitle := ""
	if t.Empty() {
		subtitle = "No data available"
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(o.init(title, "500px")),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle, Left: "center"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Count", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: fmt.Sprintf("%s Category", k), Type: "category"}),
	)
	bar.SetXAxis(labels).
		AddSeries(k.String(), data,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "right"}),
		)
	bar.XYReversal()
	return bar
}

// ProfileChart draws one line chart per band, best band first, with every
// sensor's thickness profile and a dashed target line.
func ProfileChart(profiles []uniformity.BandProfile, k uniformity.Kind, target float64, yr AxisRange, o ChartOptions) *components.Page {
	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("%s Thickness Profiles", k)
	if o.AssetsHost != "" {
		page.AssetsHost = o.AssetsHost
	}

	title := fmt.Sprintf("%s Thickness Profiles by Category", k)
	if len(profiles) == 0 {
		empty := charts.NewLine()
		empty.SetGlobalOptions(
			charts.WithInitializationOpts(o.init(title, "400px")),
			charts.WithTitleOpts(opts.Title{Title: title, Subtitle: "No data available for plotting", Left: "center"}),
		)
		page.AddCharts(empty)
		return page
	}

	cs := make([]components.Charter, 0, len(profiles))
	for _, bp := range profiles {
		yAxis := opts.YAxis{Name: "Thickness (μm)", Type: "value"}
		if yr.OK {
			yAxis.Min = yr.Lo
			yAxis.Max = yr.Hi
		}

		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithInitializationOpts(o.init(title, "350px")),
			charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("%s: %s", k, bp.Band), Subtitle: fmt.Sprintf("%d sensors", len(bp.Sensors))}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
			charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
			charts.WithXAxisOpts(opts.XAxis{Name: "Position (mm)", Type: "value", Min: uniformity.MinPositionMM, Max: uniformity.MaxPositionMM}),
			charts.WithYAxisOpts(yAxis),
		)

		for i, sp := range bp.Sensors {
			data := make([]opts.LineData, len(sp.Samples))
			for j, m := range sp.Samples {
				data[j] = opts.LineData{Value: []interface{}{m.PositionMM, m.ThicknessUM}}
			}
			c := sensorColor(i)
			line.AddSeries(sp.SensorID, data,
				charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}),
				charts.WithLineStyleOpts(opts.LineStyle{Color: c, Width: 2}),
				charts.WithItemStyleOpts(opts.ItemStyle{Color: c, BorderColor: "black", BorderWidth: 1}),
			)
		}

		targetLine := []opts.LineData{
			{Value: []interface{}{uniformity.MinPositionMM, target}},
			{Value: []interface{}{uniformity.MaxPositionMM, target}},
		}
		line.AddSeries(fmt.Sprintf("Target: %g μm", target), targetLine,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: targetColor, Type: "dashed", Width: 3}),
		)
		cs = append(cs, line)
	}
	page.AddCharts(cs...)
	return page
}
