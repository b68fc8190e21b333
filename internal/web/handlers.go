package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/appointworks/appoint/internal/config"
	"github.com/appointworks/appoint/internal/errors"
	"github.com/appointworks/appoint/internal/history"
	"github.com/appointworks/appoint/internal/ops"
	"github.com/appointworks/appoint/internal/record"
)

// Handlers contains HTTP route handlers for the dashboard.
type Handlers struct {
	svc      *ops.Service
	cfg      *config.Config
	renderer *Renderer
}

// filterFromQuery builds a history filter from the request's query
// parameters. Invalid values are reported, not silently dropped.
func filterFromQuery(r *http.Request) (history.Filter, error) {
	var f history.Filter
	q := r.URL.Query()

	switch kind := q.Get("kind"); kind {
	case "":
	case string(record.KindAppointment), string(record.KindTask):
		k := record.Kind(kind)
		f.Kind = &k
	default:
		return f, errors.NewInvalidRequest("kind must be one of: appointment, task")
	}

	switch outcome := q.Get("outcome"); outcome {
	case "":
	case string(record.OutcomeSuccess), string(record.OutcomeFailed):
		o := record.Outcome(outcome)
		f.Outcome = &o
	default:
		return f, errors.NewInvalidRequest("outcome must be one of: success, failed")
	}

	if tt := q.Get("type"); tt != "" {
		f.TemplateType = &tt
	}
	f.Search = q.Get("q")

	if from := q.Get("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return f, errors.NewInvalidRequest("from must be YYYY-MM-DD")
		}
		f.From = &t
	}
	if to := q.Get("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return f, errors.NewInvalidRequest("to must be YYYY-MM-DD")
		}
		// Inclusive: a bare date covers the whole day.
		t = t.Add(24*time.Hour - time.Second)
		f.To = &t
	}

	return f, nil
}

// HandleSessions handles GET /sessions — the filtered session list.
func (h *Handlers) HandleSessions(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	sessions, err := h.svc.ListSessions(f)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	types, err := h.svc.ListTaskTypes()
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	q := r.URL.Query()
	h.renderer.renderPage(w, r, "sessions", SessionsPageData{
		PageData: PageData{
			Title:   "Sessions",
			Version: h.renderer.version,
			Nav:     "sessions",
		},
		Sessions: sessions,
		Kind:     q.Get("kind"),
		Outcome:  q.Get("outcome"),
		Type:     q.Get("type"),
		Query:    q.Get("q"),
		From:     q.Get("from"),
		To:       q.Get("to"),
		Types:    types,
	})
}

// HandleSessionDetail handles GET /sessions/{id} — one session's records.
func (h *Handlers) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("session ID is required"))
		return
	}

	sessions, err := h.svc.ListSessions(history.Filter{})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	for i := range sessions {
		if sessions[i].SessionID == id {
			h.renderer.renderPage(w, r, "detail", DetailPageData{
				PageData: PageData{
					Title:   sessions[i].TemplateName,
					Version: h.renderer.version,
					Nav:     "sessions",
				},
				Session: sessions[i],
			})
			return
		}
	}

	h.renderer.renderError(w, r, errors.NewNotFound(id))
}

// HandleSessionDelete handles DELETE /sessions/{id} — cascade-delete all
// records of a session.
func (h *Handlers) HandleSessionDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("session ID is required"))
		return
	}

	removed, err := h.svc.DeleteSession(id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	// HTMX request: redirect via HX-Redirect header
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/sessions")
		w.WriteHeader(http.StatusOK)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, map[string]any{
			"deleted":         id,
			"records_removed": removed,
		})
		return
	}

	http.Redirect(w, r, "/sessions", http.StatusFound)
}

// HandleRecordDelete handles DELETE /records/{id} — delete one record.
func (h *Handlers) HandleRecordDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("record ID is required"))
		return
	}

	if err := h.svc.DeleteRecord(id); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/sessions")
		w.WriteHeader(http.StatusOK)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, map[string]any{"deleted": id})
		return
	}

	http.Redirect(w, r, "/sessions", http.StatusFound)
}

// HandleStats handles GET /stats — aggregate statistics.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	stats, err := h.svc.ComputeStats(f)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, stats)
		return
	}

	h.renderer.renderPage(w, r, "stats", StatsPageData{
		PageData: PageData{
			Title:   "Statistics",
			Version: h.renderer.version,
			Nav:     "stats",
		},
		Stats: stats,
	})
}

// HandleTemplates handles GET /templates — browse task templates.
func (h *Handlers) HandleTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.svc.ListTemplates()
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	views := make([]templateView, 0, len(templates))
	for _, tpl := range templates {
		views = append(views, templateView{
			Template:        tpl,
			DescriptionHTML: renderMarkdown(tpl.Description),
		})
	}

	h.renderer.renderPage(w, r, "templates", TemplatesPageData{
		PageData: PageData{
			Title:   "Templates",
			Version: h.renderer.version,
			Nav:     "templates",
		},
		Templates: views,
	})
}

// HandleHistoryClear handles POST /history/clear — wipe the record log.
func (h *Handlers) HandleHistoryClear(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	if r.FormValue("confirm") != "true" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("confirm parameter must be \"true\""))
		return
	}

	removed, err := h.svc.ClearHistory()
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/sessions")
		w.WriteHeader(http.StatusOK)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, map[string]any{"records_removed": removed})
		return
	}

	http.Redirect(w, r, "/sessions", http.StatusFound)
}
