package service

import (
	"fmt"
	"html/template"
	"io"
)

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"text": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"distance": func(d *float64) string {
		if d == nil {
			return ""
		}
		return fmt.Sprintf("%.4f", *d)
	},
	"score": func(r BenchmarkResult, model string) int { return r.Score(model) },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>Benchmark results</title>
<style>
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid black; padding: 8px; text-align: left; vertical-align: top; }
th { background-color: #f2f2f2; }
.model-header { text-align: center; }
.matches { max-width: 300px; overflow-wrap: break-word; }
.best { background-color: #e6ffe6; }
</style>
</head>
<body>
<table>
<tr>
<th rowspan="2">ID</th>
<th rowspan="2">Keyword</th>
{{- range .Models}}
<th colspan="2" class="model-header">{{.}} ({{score $ .}}/{{len $.Rows}})</th>
{{- end}}
</tr>
<tr>
{{- range .Models}}<th>Matches</th><th>Success</th>{{end}}
</tr>
{{- range $row := .Rows}}
<tr>
<td>{{$row.Index}}</td>
<td>{{$row.Case.Keyword}}</td>
{{- range $model := $.Models}}
{{- $o := index $row.Outcomes $model}}
<td class="matches">
{{- range $i, $m := $o.Matches}}
{{- if $i}}<hr/>{{end}}
<div{{if eq $i $o.Success}} class="best"{{end}}>{{$m.ID}} match={{$m.Match}}{{if eq $i $o.Success}} &#x2714;{{end}}<br>
keyword = {{text $m.Keyword}} {{distance $m.KeywordDistance}}<br>
description = {{text $m.Description}} {{distance $m.DescriptionDistance}}</div>
{{- end}}
</td>
<td>{{if $o.Found}}&#x2714;&#xFE0F;{{else}}&#x274C;{{end}}</td>
{{- end}}
</tr>
{{- end}}
</table>
</body>
</html>
`))

// WriteReport renders result as an HTML table with one row per case and a
// Matches and Success column per model. The expected match is highlighted.
func WriteReport(w io.Writer, result BenchmarkResult) error {
	if err := reportTemplate.Execute(w, result); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}
