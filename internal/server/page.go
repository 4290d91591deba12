package server

import (
	"fmt"
	"net/http"
	"time"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/sw33tLie/shortscroll/pkg/session"
	"github.com/sw33tLie/shortscroll/pkg/storage"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var (
		stats    []storage.PlatformStats
		statsErr error
	)
	if s.DB != nil {
		stats, statsErr = s.DB.GetStats(r.Context())
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := statusPage(s.Hub.Statuses(), stats, statsErr).Render(w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func statusPage(statuses []session.Status, stats []storage.PlatformStats, statsErr error) g.Node {
	return g.Group([]g.Node{
		Doctype(
			HTML(Lang("en"),
				Head(
					Meta(Charset("UTF-8")),
					Meta(Name("viewport"), Content("width=device-width, initial-scale=1.0")),
					Meta(g.Attr("http-equiv", "refresh"), Content("5")),
					TitleEl(g.Text("shortscroll")),
					StyleEl(g.Raw(`
						body { font-family: system-ui, sans-serif; background: #18181b; color: #e4e4e7; margin: 2rem; }
						table { border-collapse: collapse; width: 100%; margin-bottom: 2rem; }
						th, td { text-align: left; padding: .4rem .8rem; border-bottom: 1px solid #3f3f46; }
						th { color: #a1a1aa; font-size: .75rem; text-transform: uppercase; }
						.state-idle { color: #71717a; }
						.error { color: #f87171; }
					`)),
				),
				Body(
					H1(g.Text("Sessions")),
					sessionsTable(statuses),
					H1(g.Text("Advances")),
					statsSection(stats, statsErr),
				),
			),
		),
	})
}

func sessionsTable(statuses []session.Status) g.Node {
	if len(statuses) == 0 {
		return P(Class("state-idle"), g.Text("No open tabs on a supported platform."))
	}
	return Table(
		THead(Tr(
			Th(g.Text("Tab")), Th(g.Text("Platform")), Th(g.Text("State")),
			Th(g.Text("Settings")), Th(g.Text("Advances")), Th(g.Text("Last")), Th(g.Text("URL")),
		)),
		TBody(g.Group(g.Map(statuses, func(st session.Status) g.Node {
			return Tr(
				Td(g.Text(st.TabID)),
				Td(g.Text(string(st.Platform))),
				Td(g.If(st.State == "idle", Class("state-idle")), g.Text(st.State)),
				Td(g.Text(settingsSummary(st))),
				Td(g.Text(fmt.Sprintf("%d", st.Advances))),
				Td(g.Text(since(st.LastAdvance, st.LastRoute, st.LastStep))),
				Td(g.Text(st.URL)),
			)
		}))),
	)
}

func statsSection(stats []storage.PlatformStats, statsErr error) g.Node {
	if statsErr != nil {
		return P(Class("error"), g.Text("Error loading stats: "+statsErr.Error()))
	}
	if len(stats) == 0 {
		return P(Class("state-idle"), g.Text("Nothing advanced yet."))
	}
	return Table(
		THead(Tr(Th(g.Text("Platform")), Th(g.Text("Advances")), Th(g.Text("Fallback scrolls")), Th(g.Text("Last advance")))),
		TBody(g.Group(g.Map(stats, func(ps storage.PlatformStats) g.Node {
			return Tr(
				Td(g.Text(ps.Platform)),
				Td(g.Text(fmt.Sprintf("%d", ps.Advances))),
				Td(g.Text(fmt.Sprintf("%d", ps.Fallbacks))),
				Td(g.Text(ps.LastAt.Local().Format(time.DateTime))),
			)
		}))),
	)
}

func settingsSummary(st session.Status) string {
	s := st.Settings
	switch {
	case !s.Enabled:
		return "off"
	case s.DetectVideoEnd:
		return "on video end"
	case s.ScrollAfterSeconds > 0:
		return fmt.Sprintf("%ds per item", s.ScrollAfterSeconds)
	default:
		return fmt.Sprintf("every %ds", s.IntervalSeconds)
	}
}

func since(t time.Time, route, step string) string {
	if t.IsZero() {
		return "-"
	}
	via := step
	if via == "" {
		via = "fallback scroll"
	}
	return fmt.Sprintf("%s ago (%s: %s)", time.Since(t).Round(time.Second), route, via)
}
