package ops

import (
	"fmt"
	"testing"
	"time"

	"github.com/appointworks/appoint/internal/errors"
	"github.com/appointworks/appoint/internal/history"
	"github.com/appointworks/appoint/internal/record"
)

func appendSession(t *testing.T, svc *Service, sessionID string, taskOutcome record.Outcome) {
	t.Helper()
	now := time.Now().UTC()
	appt := record.Record{
		ID:           sessionID + "-appt",
		SessionID:    sessionID,
		Kind:         record.KindAppointment,
		Outcome:      record.OutcomeSuccess,
		TemplateID:   "tpl-1",
		TemplateName: "Deep Work",
		TemplateType: "work",
		CreatedAt:    now,
	}
	task := record.Record{
		ID:           sessionID + "-task",
		SessionID:    sessionID,
		Kind:         record.KindTask,
		Outcome:      taskOutcome,
		TemplateID:   "tpl-1",
		TemplateName: "Deep Work",
		TemplateType: "work",
		CreatedAt:    now.Add(time.Minute),
	}
	for _, rec := range []record.Record{appt, task} {
		if err := svc.Append(rec); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
}

func TestAppend_PersistsAcrossLoads(t *testing.T) {
	svc := newTestService(t)
	appendSession(t, svc, "s1", record.OutcomeSuccess)

	records, err := svc.ListRecords(history.Filter{})
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}

	sessions, err := svc.ListSessions(history.Filter{})
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 1 || sessions[0].OverallStatus != history.StatusSuccess {
		t.Errorf("sessions = %+v", sessions)
	}
}

func TestComputeStats_ThroughService(t *testing.T) {
	svc := newTestService(t)
	appendSession(t, svc, "s1", record.OutcomeSuccess)
	appendSession(t, svc, "s2", record.OutcomeFailed)

	stats, err := svc.ComputeStats(history.Filter{})
	if err != nil {
		t.Fatalf("ComputeStats failed: %v", err)
	}
	if stats.TotalSessions != 2 || stats.TotalRecords != 4 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.Sessions.Success != 1 || stats.Sessions.Failed != 1 {
		t.Errorf("session counts = %+v", stats.Sessions)
	}
}

func TestDeleteRecord(t *testing.T) {
	svc := newTestService(t)
	appendSession(t, svc, "s1", record.OutcomeSuccess)

	if err := svc.DeleteRecord("s1-task"); err != nil {
		t.Fatalf("DeleteRecord failed: %v", err)
	}
	if err := svc.DeleteRecord("s1-task"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("double delete: got %v", err)
	}

	// The surviving appointment makes the session incomplete.
	sessions, _ := svc.ListSessions(history.Filter{})
	if len(sessions) != 1 || sessions[0].OverallStatus != history.StatusIncomplete {
		t.Errorf("sessions = %+v", sessions)
	}
}

func TestDeleteSession_Cascades(t *testing.T) {
	svc := newTestService(t)
	appendSession(t, svc, "s1", record.OutcomeSuccess)
	appendSession(t, svc, "s2", record.OutcomeSuccess)

	removed, err := svc.DeleteSession("s1")
	if err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	records, _ := svc.ListRecords(history.Filter{})
	for _, rec := range records {
		if rec.SessionID == "s1" {
			t.Errorf("record %q survived the cascade", rec.ID)
		}
	}

	if _, err := svc.DeleteSession("s1"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("delete absent session: got %v", err)
	}
}

func TestClearHistory(t *testing.T) {
	svc := newTestService(t)
	for i := 0; i < 3; i++ {
		appendSession(t, svc, fmt.Sprintf("s%d", i), record.OutcomeSuccess)
	}
	mustCreateTemplate(t, svc, "deep work", "work")

	removed, err := svc.ClearHistory()
	if err != nil {
		t.Fatalf("ClearHistory failed: %v", err)
	}
	if removed != 6 {
		t.Errorf("removed = %d, want 6", removed)
	}

	records, _ := svc.ListRecords(history.Filter{})
	if len(records) != 0 {
		t.Errorf("records after clear = %d, want 0", len(records))
	}

	// Templates and settings survive a history clear.
	templates, _ := svc.ListTemplates()
	if len(templates) != 1 {
		t.Errorf("templates = %d, want 1", len(templates))
	}
}
