package format

import (
	"html/template"
	"strconv"
	"strings"

	"github.com/wippyai/wasm-coverage/cover"
	"github.com/wippyai/wasm-coverage/errors"
)

var htmlTemplate = template.Must(template.New("coverage").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Coverage {{.RunID}}</title>
<style>
body { font-family: monospace; margin: 2em; }
h1 { font-size: 1.2em; }
.summary { margin-bottom: 1em; }
.incomplete { color: #b00; font-weight: bold; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 2px 8px; text-align: left; }
tr.covered td { background: #dfd; }
tr.uncovered td { background: #fdd; }
tr.tainted td { background: #ffe8b0; font-style: italic; }
</style>
</head>
<body>
<h1>Coverage report {{.RunID}}</h1>
<div class="summary">
{{printf "%.1f" .Summary.Percent}}% &mdash; {{.Summary.CoveredBlocks}}/{{.Summary.TotalBlocks}} blocks covered,
{{.Summary.TaintedBlocks}} tainted
{{if not .Summary.Complete}}<span class="incomplete">(incomplete run)</span>{{end}}
</div>
<table>
<tr><th>block</th><th>location</th><th>hits</th><th>status</th></tr>
{{range .Rows}}<tr class="{{.Class}}"><td>{{.ID}}</td><td>{{.Location}}</td><td>{{.Hits}}</td><td>{{.Status}}</td></tr>
{{end}}</table>
</body>
</html>
`))

type htmlRow struct {
	ID       uint32
	Location string
	Hits     uint64
	Class    string
	Status   string
}

type htmlData struct {
	RunID   string
	Summary cover.Summary
	Rows    []htmlRow
}

// HTML renders the report as a standalone page. Tainted rows are styled
// distinctly from covered and uncovered ones.
func HTML(r *cover.Report, meta Metadata) (string, error) {
	data := htmlData{RunID: r.RunID, Summary: r.Summary()}
	for _, row := range r.Blocks() {
		location := ""
		if loc, ok := meta.Sources[row.ID]; ok {
			location = loc.File + ":" + strconv.FormatUint(uint64(loc.StartLine), 10)
		}
		class, status := "uncovered", "not covered"
		switch {
		case row.Tainted:
			class, status = "tainted", "tainted"
		case row.Hits > 0:
			class, status = "covered", "covered"
		}
		data.Rows = append(data.Rows, htmlRow{
			ID:       uint32(row.ID),
			Location: location,
			Hits:     row.Hits,
			Class:    class,
			Status:   status,
		})
	}

	var b strings.Builder
	if err := htmlTemplate.Execute(&b, data); err != nil {
		return "", errors.New(errors.PhaseFormat, errors.KindIO).
			Detail("execute html template").
			Cause(err).
			Build()
	}
	return b.String(), nil
}
