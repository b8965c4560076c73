package webui

import (
	"html/template"
)

// Templates contains the HTML templates for the status page
var Templates = template.Must(template.New("").Funcs(template.FuncMap{
	"levelClass": func(level string) string {
		switch level {
		case "error", "fatal":
			return "log-error"
		case "warn":
			return "log-warn"
		case "debug":
			return "log-debug"
		default:
			return "log-info"
		}
	},
}).Parse(`
{{define "index"}}
<!DOCTYPE html>
<html lang="uk">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <meta http-equiv="refresh" content="30">
    <title>raidwatch</title>
    <style>
        body { font-family: system-ui, sans-serif; margin: 2rem; background: #111; color: #eee; }
        table { border-collapse: collapse; margin-bottom: 2rem; }
        td, th { padding: .4rem .8rem; border-bottom: 1px solid #333; text-align: left; }
        .active { color: #ff5c5c; font-weight: bold; }
        .clear { color: #5cd65c; }
        .log-error { color: #ff5c5c; }
        .log-warn { color: #ffb347; }
        .log-debug { color: #888; }
        pre { margin: 0; white-space: pre-wrap; }
    </style>
</head>
<body>
    <h1>raidwatch</h1>
    <p>Version {{.Version}} · uptime {{.Uptime}} · cycles {{.Status.Cycles}} · last result {{.Status.LastResult}}</p>
    {{if .Status.LastError}}<p class="log-error">{{.Status.LastError}}</p>{{end}}
    <table>
        <tr><th>ID</th><th>Region</th><th>Status</th></tr>
        {{range .Regions}}
        <tr>
            <td>{{.ID}}</td>
            <td>{{.Name}}</td>
            {{if .Active}}<td class="active">🚨 тривога</td>{{else}}<td class="clear">✅ відбій</td>{{end}}
        </tr>
        {{end}}
    </table>
    <h2>Logs</h2>
    {{range .Logs}}
    <pre class="{{levelClass .Level}}">{{.Timestamp.Format "2006-01-02 15:04:05"}} [{{.Level}}] {{.Message}}</pre>
    {{end}}
</body>
</html>
{{end}}
`))

// RegionRow is one row of the region table
type RegionRow struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}
