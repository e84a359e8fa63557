package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/banshee-data/uniformity.report/internal/uniformity"
)

// Figure is one chart slot in a report. An interactive figure carries a
// rendered chart page; a static one carries PNG data URLs. A figure with
// neither renders as "Chart not available".
type Figure struct {
	Title  string
	Page   string
	Images []template.URL
	Height int
}

// Available reports whether the figure has anything to show.
func (f Figure) Available() bool {
	return f.Page != "" || len(f.Images) > 0
}

// Section is a titled group of figures.
type Section struct {
	Heading string
	Figures []Figure
}

// Document is a complete, self-contained report.
type Document struct {
	Title     string
	Source    string
	Generated time.Time
	Summary   uniformity.Summary
	Scores    []uniformity.SensorScore
	Sections  []Section
}

// Empty reports whether there is nothing to tabulate.
func (d Document) Empty() bool {
	return len(d.Scores) == 0
}

var funcs = template.FuncMap{
	"f1": func(v float64) string { return fmt.Sprintf("%.1f", v) },
	"f3": func(v float64) string { return fmt.Sprintf("%.3f", v) },
	"fg": func(v float64) string { return fmt.Sprintf("%g", v) },
	"ts": func(t time.Time) string { return t.Format("2006-01-02 15:04:05") },
}

var (
	fullTemplate   = template.Must(template.New("full").Funcs(funcs).Parse(fullHTML))
	simpleTemplate = template.Must(template.New("simple").Funcs(funcs).Parse(simpleHTML))
)

// Render writes d as HTML. A document without scores renders the short
// "No Data Available" page.
func Render(w io.Writer, d Document) error {
	tmpl := fullTemplate
	if d.Empty() {
		tmpl = simpleTemplate
	}
	if err := tmpl.Execute(w, d); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

// HTML renders d into memory.
func HTML(d Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Filename builds the download name for an analysis, e.g. "Pre-OL" on
// 2026-10-14 gives "Pre_OL_report_20261014.html".
func Filename(analysis string, day time.Time) string {
	name := strings.NewReplacer(" ", "_", "-", "_").Replace(strings.TrimSpace(analysis))
	if name == "" {
		name = "uniformity"
	}
	return fmt.Sprintf("%s_report_%s.html", name, day.Format("20060102"))
}

const styleHTML = `<style>
body { font-family: Arial, sans-serif; margin: 0; background: #f8f9fa; color: #212529; }
.container { max-width: 1400px; margin: 0 auto; padding: 20px; }
.header { background: #343a40; color: #fff; padding: 24px; border-radius: 8px; margin-bottom: 24px; }
.header h1 { margin: 0 0 8px 0; }
.metrics { display: flex; flex-wrap: wrap; gap: 16px; margin-bottom: 24px; }
.metric-card { flex: 1 1 180px; background: #fff; border-radius: 8px; padding: 16px; box-shadow: 0 1px 3px rgba(0,0,0,0.1); }
.metric-value { font-size: 1.8em; font-weight: bold; }
.metric-label { color: #6c757d; }
.section { background: #fff; border-radius: 8px; padding: 16px; margin-bottom: 24px; box-shadow: 0 1px 3px rgba(0,0,0,0.1); }
.chart iframe { width: 100%; border: none; }
.chart img { max-width: 100%; display: block; margin: 8px auto; }
.unavailable { color: #6c757d; font-style: italic; }
table { border-collapse: collapse; width: 100%; font-size: 0.9em; }
th, td { border: 1px solid #dee2e6; padding: 6px 8px; text-align: right; }
th { background: #e9ecef; }
td:first-child, th:first-child { text-align: left; }
.footer { text-align: center; color: #6c757d; padding: 16px; }
</style>`

const fullHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
` + styleHTML + `
</head>
<body>
<div class="container">
<div class="header">
<h1>{{.Title}}</h1>
<div>Generated on {{ts .Generated}}</div>
</div>
<div class="metrics">
<div class="metric-card"><div class="metric-value">{{.Summary.Sensors}}</div><div class="metric-label">Total Sensors</div></div>
<div class="metric-card"><div class="metric-value">{{f1 .Summary.MeanThickness}} μm</div><div class="metric-label">Average Thickness</div></div>
<div class="metric-card"><div class="metric-value">{{f3 .Summary.MeanTUS}}</div><div class="metric-label">Average TUS</div></div>
<div class="metric-card"><div class="metric-value">{{f3 .Summary.MeanRUS}}</div><div class="metric-label">Average RUS</div></div>
<div class="metric-card"><div class="metric-value">{{fg .Summary.TargetMean}} μm</div><div class="metric-label">Target Mean</div></div>
</div>
{{range .Sections}}<div class="section">
<h2>{{.Heading}}</h2>
{{range .Figures}}<div class="chart">
<h3>{{.Title}}</h3>
{{if .Page}}<iframe srcdoc="{{.Page}}" height="{{.Height}}"></iframe>
{{else if .Images}}{{range .Images}}<img src="{{.}}" alt="chart">
{{end}}{{else}}<p class="unavailable">Chart not available</p>
{{end}}</div>
{{end}}</div>
{{end}}<div class="section">
<h2>Detailed Results</h2>
<table>
<thead><tr><th>sensor_id</th><th>samples</th><th>mean_thickness</th><th>thickness_sd</th><th>thickness_range</th><th>r2_straightness</th><th>symmetry_bonus</th><th>TUS</th><th>RUS</th><th>TUS_category</th><th>RUS_category</th></tr></thead>
<tbody>
{{range .Scores}}<tr><td>{{.SensorID}}</td><td>{{.Samples}}</td><td>{{f3 .MeanThickness}}</td><td>{{f3 .ThicknessSD}}</td><td>{{f3 .ThicknessRange}}</td><td>{{f3 .R2Straightness}}</td><td>{{f3 .SymmetryBonus}}</td><td>{{f3 .TUS}}</td><td>{{f3 .RUS}}</td><td>{{.TUSCategory}}</td><td>{{.RUSCategory}}</td></tr>
{{end}}</tbody>
</table>
</div>
<div class="footer">
{{if .Source}}<p>Report generated from: {{.Source}}</p>{{end}}
<p>Thickness Uniformity Analysis System</p>
</div>
</div>
</body>
</html>
`

const simpleHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
` + styleHTML + `
</head>
<body>
<div class="container">
<div class="header">
<h1>{{.Title}}</h1>
<div>Generated on {{ts .Generated}}</div>
</div>
<div class="section">
<h2>No Data Available</h2>
<p>No thickness data was available for this analysis.</p>
</div>
<div class="footer">
{{if .Source}}<p>Report generated from: {{.Source}}</p>{{end}}
<p>Thickness Uniformity Analysis System</p>
</div>
</div>
</body>
</html>
`
