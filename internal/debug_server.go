package internal

import (
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"chat-console/domain"
	"chat-console/session"
)

// The inspector renders the controller's live state as a plain HTML
// page, handy when chasing badge or draft desyncs without a debugger.
const inspectPage = `<!DOCTYPE html>
<html>
<head><title>chat-console inspector</title>
<style>
body { font-family: monospace; margin: 2em; }
table { border-collapse: collapse; margin-bottom: 2em; }
td, th { border: 1px solid #999; padding: 4px 10px; text-align: left; }
h2 { margin-bottom: 0.3em; }
</style>
</head>
<body>
<h1>chat-console — {{.Self}}</h1>
<h2>Session</h2>
<table>
<tr><th>Active conversation</th><td>{{if .Active}}{{.Active}}{{else}}&mdash;{{end}}</td></tr>
<tr><th>Typing from</th><td>{{if .TypingFrom}}{{.TypingFrom}}{{else}}&mdash;{{end}}</td></tr>
<tr><th>Admin notices</th><td>{{.AdminNotices}}</td></tr>
<tr><th>Open previews</th><td>{{.OpenPreviews}}</td></tr>
</table>
<h2>Badges</h2>
<table>
<tr><th>Conversation</th><th>Unread</th></tr>
{{range $conv, $count := .Badges}}<tr><td>{{$conv}}</td><td>{{$count}}</td></tr>
{{else}}<tr><td colspan="2">none</td></tr>
{{end}}</table>
<h2>Timeline ({{len .Timeline}} messages)</h2>
<table>
<tr><th>Message id</th></tr>
{{range .Timeline}}<tr><td>{{.}}</td></tr>
{{else}}<tr><td>empty</td></tr>
{{end}}</table>
<h2>Roster</h2>
<table>
<tr><th>User</th><th>Online</th></tr>
{{range .Roster}}<tr><td>{{.Username}}</td><td>{{.Online}}</td></tr>
{{else}}<tr><td colspan="2">empty</td></tr>
{{end}}</table>
</body>
</html>`

var inspectTemplate = template.Must(template.New("inspect").Parse(inspectPage))

type inspectData struct {
	Self         string
	Active       domain.ConversationID
	TypingFrom   string
	AdminNotices int
	OpenPreviews int
	Badges       map[domain.ConversationID]int
	Timeline     []int64
	Roster       []domain.RosterEntry
}

// StartDebugServer exposes the controller's state on /inspect. It never
// blocks the caller; a port of 0 disables it.
func StartDebugServer(controller *session.Controller, port int) {
	if port == 0 {
		return
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Get("/inspect", func(w http.ResponseWriter, r *http.Request) {
		data := inspectData{
			Self:         controller.Self(),
			Active:       controller.Active(),
			TypingFrom:   controller.TypingFrom(),
			AdminNotices: controller.AdminNotices(),
			OpenPreviews: controller.Previews().OpenCount(),
			Badges:       controller.Badges(),
			Timeline:     controller.TimelineIDs(),
			Roster:       controller.RosterEntries(),
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = inspectTemplate.Execute(w, data)
	})

	go func() {
		_ = http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", port), router)
	}()
}
