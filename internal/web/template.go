package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/scryfall-thermal/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"modeOrUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Scryfall Thermal</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.idle { color: green; font-weight: bold; }
.busy { color: #c80; font-weight: bold; }
.error { color: red; font-weight: bold; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Scryfall Thermal</h1>

<h2>State</h2>
<table>
<tr><th>Mode</th><td class="{{if eq (modeOrUnknown (printf "%s" .Mode)) "IDLE"}}idle{{else if eq (modeOrUnknown (printf "%s" .Mode)) "ERROR"}}error{{else if eq (modeOrUnknown (printf "%s" .Mode)) "UNKNOWN"}}unknown{{else}}busy{{end}}">{{modeOrUnknown (printf "%s" .Mode)}}</td></tr>
<tr><th>Mana Value</th><td>{{.Value}}</td></tr>
{{if .LastCard}}<tr><th>Last Card</th><td>{{.LastCard}}</td></tr>{{end}}
{{if .LastError}}<tr><th>Last Error</th><td class="error">{{.LastError}}</td></tr>{{end}}
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
<tr><th>Printer</th><td>{{.Config.Printer}}</td></tr>
</table>

<h2>Job Counts</h2>
<table>
<tr><th>Prints</th><td>{{.Counts.Prints}}</td></tr>
<tr><th>Failures</th><td>{{.Counts.Failures}}</td></tr>
<tr><th>Discarded Steps</th><td>{{.Counts.Discarded}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Settle</th><td>{{.Config.SettleMs}}ms</td></tr>
<tr><th>Refresh</th><td>{{.Config.RefreshHz}}Hz</td></tr>
<tr><th>Range</th><td>{{.Config.MinValue}}&ndash;{{.Config.MaxValue}}</td></tr>
<tr><th>Width</th><td>{{.Config.WidthPx}}px</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
