package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/uniformity.report/internal/uniformity"
)

const (
	pngWidth         = 8 * vg.Inch
	pngHeight        = 5 * vg.Inch
	pngProfileHeight = 4 * vg.Inch
)

// DistributionPNG renders the band distribution as a static horizontal bar
// chart. Each band is its own bar chart so it can carry its own colour.
func DistributionPNG(t *uniformity.Table, k uniformity.Kind) ([]byte, error) {
	counts := uniformity.Distribution(t, k)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s Score Distribution", k)
	if t.Empty() {
		p.Title.Text += " (no data)"
	}
	p.X.Label.Text = "Count"
	p.Y.Label.Text = fmt.Sprintf("%s Category", k)
	p.X.Min = 0

	labels := make([]string, uniformity.NumBands)
	for _, b := range uniformity.Bands() {
		labels[b] = b.String()
		bars, err := plotter.NewBarChart(plotter.Values{float64(counts[b])}, vg.Points(18))
		if err != nil {
			return nil, fmt.Errorf("distribution bar %s: %w", b, err)
		}
		bars.Horizontal = true
		bars.XMin = float64(b)
		bars.Color = rgb(bandColor(b))
		bars.LineStyle.Width = vg.Points(0.5)
		p.Add(bars)
	}
	p.NominalY(labels...)

	return encodePNG(p, pngWidth, pngHeight)
}

// ProfilePNG renders one band's sensor profiles with the target line.
func ProfilePNG(bp uniformity.BandProfile, k uniformity.Kind, target float64, yr AxisRange) ([]byte, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s: %s (%d sensors)", k, bp.Band, len(bp.Sensors))
	p.X.Label.Text = "Position (mm)"
	p.Y.Label.Text = "Thickness (μm)"
	p.X.Min = uniformity.MinPositionMM
	p.X.Max = uniformity.MaxPositionMM
	if yr.OK {
		p.Y.Min = yr.Lo
		p.Y.Max = yr.Hi
	}
	p.Add(plotter.NewGrid())

	colors := generateColors(len(bp.Sensors))
	for i, sp := range bp.Sensors {
		if len(sp.Samples) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(sp.Samples))
		for j, m := range sp.Samples {
			pts[j] = plotter.XY{X: m.PositionMM, Y: m.ThicknessUM}
		}
		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", sp.SensorID, err)
		}
		line.Color = colors[i]
		line.Width = vg.Points(1.5)
		points.GlyphStyle.Color = colors[i]
		points.GlyphStyle.Radius = vg.Points(2)
		p.Add(line, points)
	}

	tl, err := plotter.NewLine(plotter.XYs{
		{X: uniformity.MinPositionMM, Y: target},
		{X: uniformity.MaxPositionMM, Y: target},
	})
	if err != nil {
		return nil, fmt.Errorf("target line: %w", err)
	}
	tl.Color = rgb(targetColor)
	tl.Width = vg.Points(2)
	tl.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	p.Add(tl)
	p.Legend.Add(fmt.Sprintf("Target: %g μm", target), tl)
	p.Legend.Top = true

	return encodePNG(p, pngWidth, pngProfileHeight)
}

func encodePNG(p *plot.Plot, w, h vg.Length) ([]byte, error) {
	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return nil, fmt.Errorf("png writer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// dataURL embeds a PNG into an img src attribute.
func dataURL(png []byte) template.URL {
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
}
