package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/appointworks/appoint/internal/config"
	"github.com/appointworks/appoint/internal/history"
	"github.com/appointworks/appoint/internal/ops"
	"github.com/appointworks/appoint/internal/record"
	"github.com/appointworks/appoint/internal/store"
)

// setupWebTest builds the full dashboard handler over a temporary store.
func setupWebTest(t *testing.T) (http.Handler, *ops.Service) {
	t.Helper()

	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	svc := ops.NewService(st, config.DefaultConfig())
	srv := NewServer(svc, config.DefaultConfig(), "test", "127.0.0.1", 0)
	return srv.Handler, svc
}

// seedSession appends a paired appointment+task for one session.
func seedSession(t *testing.T, svc *ops.Service, sessionID, name, taskType string, outcome record.Outcome) {
	t.Helper()

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	start := base.Add(5 * time.Minute)
	duration := 300

	appt := record.Record{
		ID:              sessionID + "-appt",
		SessionID:       sessionID,
		Kind:            record.KindAppointment,
		Outcome:         record.OutcomeSuccess,
		TemplateID:      "tpl-" + sessionID,
		TemplateName:    name,
		TemplateType:    taskType,
		ScheduledTime:   base,
		ActualStartTime: &start,
		EndTime:         start,
		Violations:      []string{},
		Notes:           "appointment countdown completed",
		CreatedAt:       start,
	}
	if err := svc.Append(appt); err != nil {
		t.Fatalf("failed to append appointment: %v", err)
	}

	task := appt
	task.ID = sessionID + "-task"
	task.Kind = record.KindTask
	task.Outcome = outcome
	task.EndTime = start.Add(5 * time.Minute)
	task.Duration = &duration
	task.Notes = "task completed"
	task.CreatedAt = task.EndTime
	if err := svc.Append(task); err != nil {
		t.Fatalf("failed to append task: %v", err)
	}
}

func get(t *testing.T, h http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRootRedirectsToSessions(t *testing.T) {
	h, _ := setupWebTest(t)

	w := get(t, h, "/", nil)
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/sessions" {
		t.Errorf("Location = %q, want /sessions", loc)
	}
}

func TestSecurityHeaders(t *testing.T) {
	h, _ := setupWebTest(t)

	w := get(t, h, "/sessions", nil)
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
	if got := w.Header().Get("Content-Security-Policy"); !strings.Contains(got, "default-src 'self'") {
		t.Errorf("Content-Security-Policy = %q", got)
	}
}

func TestSessionsPage(t *testing.T) {
	h, svc := setupWebTest(t)
	seedSession(t, svc, "s1", "morning run", "exercise", record.OutcomeSuccess)
	seedSession(t, svc, "s2", "evening study", "study", record.OutcomeFailed)

	w := get(t, h, "/sessions", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, "morning run") || !strings.Contains(body, "evening study") {
		t.Errorf("session names missing from page")
	}
	if !strings.Contains(body, "badge-success") || !strings.Contains(body, "badge-failed") {
		t.Errorf("status badges missing from page")
	}
}

func TestSessionsPage_Filtered(t *testing.T) {
	h, svc := setupWebTest(t)
	seedSession(t, svc, "s1", "morning run", "exercise", record.OutcomeSuccess)
	seedSession(t, svc, "s2", "evening study", "study", record.OutcomeFailed)

	w := get(t, h, "/sessions?type=exercise", nil)
	body := w.Body.String()
	if !strings.Contains(body, "morning run") {
		t.Errorf("filtered-in session missing")
	}
	if strings.Contains(body, "evening study") {
		t.Errorf("filtered-out session present")
	}
}

func TestSessionsPage_InvalidFilter(t *testing.T) {
	h, _ := setupWebTest(t)

	w := get(t, h, "/sessions?kind=nap", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	w = get(t, h, "/sessions?from=yesterday", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestSessionsPage_HTMXFragment(t *testing.T) {
	h, svc := setupWebTest(t)
	seedSession(t, svc, "s1", "morning run", "exercise", record.OutcomeSuccess)

	w := get(t, h, "/sessions", map[string]string{"HX-Request": "true"})
	body := w.Body.String()
	if strings.Contains(body, "<html") {
		t.Errorf("HTMX fragment contains full layout")
	}
	if !strings.Contains(body, "morning run") {
		t.Errorf("fragment missing session content")
	}
}

func TestSessionDetail(t *testing.T) {
	h, svc := setupWebTest(t)
	seedSession(t, svc, "s1", "morning run", "exercise", record.OutcomeSuccess)

	w := get(t, h, "/sessions/s1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "morning run") || !strings.Contains(body, "task completed") {
		t.Errorf("detail page missing record content")
	}
}

func TestSessionDetail_NotFound(t *testing.T) {
	h, _ := setupWebTest(t)

	w := get(t, h, "/sessions/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestSessionDelete_HTMX(t *testing.T) {
	h, svc := setupWebTest(t)
	seedSession(t, svc, "s1", "morning run", "exercise", record.OutcomeSuccess)

	req := httptest.NewRequest(http.MethodDelete, "/sessions/s1", nil)
	req.Header.Set("HX-Request", "true")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get("HX-Redirect") != "/sessions" {
		t.Errorf("HX-Redirect = %q", w.Header().Get("HX-Redirect"))
	}

	w2 := get(t, h, "/sessions/s1", nil)
	if w2.Code != http.StatusNotFound {
		t.Errorf("deleted session still found, status = %d", w2.Code)
	}
}

func TestRecordDelete_JSON(t *testing.T) {
	h, svc := setupWebTest(t)
	seedSession(t, svc, "s1", "morning run", "exercise", record.OutcomeSuccess)

	req := httptest.NewRequest(http.MethodDelete, "/records/s1-task", nil)
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "s1-task") {
		t.Errorf("response body = %s", w.Body.String())
	}
}

func TestStatsPage(t *testing.T) {
	h, svc := setupWebTest(t)
	seedSession(t, svc, "s1", "morning run", "exercise", record.OutcomeSuccess)

	w := get(t, h, "/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Statistics") {
		t.Errorf("stats page missing heading")
	}

	w = get(t, h, "/stats", map[string]string{"Accept": "application/json"})
	if !strings.Contains(w.Body.String(), "totalSessions") {
		t.Errorf("JSON stats missing totalSessions: %s", w.Body.String())
	}
}

func TestTemplatesPage_RendersMarkdown(t *testing.T) {
	h, svc := setupWebTest(t)
	if _, err := svc.CreateTemplate(ops.TemplateCreateInput{
		Name:             "deep work",
		Description:      "Stay **focused** for the whole block.",
		Type:             "work",
		CountdownSeconds: 1500,
	}); err != nil {
		t.Fatalf("failed to create template: %v", err)
	}

	w := get(t, h, "/templates", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "deep work") {
		t.Errorf("template name missing")
	}
	if !strings.Contains(body, "<strong>focused</strong>") {
		t.Errorf("markdown not rendered: %s", body)
	}
}

func TestHistoryClear_RequiresConfirm(t *testing.T) {
	h, svc := setupWebTest(t)
	seedSession(t, svc, "s1", "morning run", "exercise", record.OutcomeSuccess)

	req := httptest.NewRequest(http.MethodPost, "/history/clear", strings.NewReader("confirm=no"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/history/clear", strings.NewReader("confirm=true"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	records, err := svc.ListRecords(history.Filter{})
	if err != nil {
		t.Fatalf("failed to list records: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("records remain after clear: %d", len(records))
	}
}

func TestStaticAssetsServed(t *testing.T) {
	h, _ := setupWebTest(t)

	w := get(t, h, "/static/style.css", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "badge-success") {
		t.Errorf("stylesheet missing badge classes")
	}
}
