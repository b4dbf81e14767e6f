package server

import (
	"html/template"
	"net/http"

	"github.com/matzehuels/sizemap/pkg/entry"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"bytes":  entry.FormatBytes,
	"viewer": viewerURL,
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>sizemap</title>
<style>
  body { font: 14px sans-serif; margin: 2em; }
  table { border-collapse: collapse; margin-top: 1em; }
  td, th { padding: 4px 12px; text-align: left; border-bottom: 1px solid #ddd; }
  td.size { text-align: right; font-family: monospace; }
</style>
</head>
<body>
<h1>sizemap</h1>
<form id="upload" method="post" action="/upload" enctype="multipart/form-data">
  <input type="file" name="report" accept=".json,application/json" required>
  <button type="submit">Upload report</button>
</form>
{{if .}}
<table id="reports">
  <tr><th>Name</th><th>Size</th><th>Uploaded</th></tr>
  {{range .}}
  <tr class="report">
    <td><a href="{{viewer .ID}}">{{.Name}}</a></td>
    <td class="size">{{bytes .Size}}</td>
    <td>{{.CreatedAt.Format "2006-01-02 15:04"}}</td>
  </tr>
  {{end}}
</table>
{{else}}
<p class="empty">No reports yet.</p>
{{end}}
</body>
</html>
`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	reports, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, reports); err != nil {
		s.logger.Error("render index", "error", err)
	}
}
