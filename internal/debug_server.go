package internal

import (
	"embed"
	"html/template"
	"net/http"
	"time"
)

//go:embed status.html
var templatesFS embed.FS

// StatsProvider returns the counters shown on the status page.
type StatsProvider func() map[string]any

type PageData struct {
	Time  string
	Stats map[string]any
}

// StatusHandler renders the relay status page. It shows counters, never the held codes.
func StatusHandler(stats StatsProvider) http.Handler {
	tmpl := template.Must(template.ParseFS(templatesFS, "status.html"))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := PageData{
			Time:  time.Now().UTC().Format(time.RFC822),
			Stats: make(map[string]any),
		}
		if stats != nil {
			data.Stats = stats()
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	})
}
