package ops

import (
	"testing"

	"github.com/appointworks/appoint/internal/config"
	"github.com/appointworks/appoint/internal/record"
	"github.com/appointworks/appoint/internal/store"
)

// newTestService opens a fresh store in a temp dir.
func newTestService(t *testing.T) *Service {
	t.Helper()
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return NewService(st, config.DefaultConfig())
}

func stringPtr(s string) *string { return &s }
func intPtr(n int) *int          { return &n }
func boolPtr(b bool) *bool       { return &b }

func mustCreateTemplate(t *testing.T, svc *Service, name, taskType string) *record.Template {
	t.Helper()
	tpl, err := svc.CreateTemplate(TemplateCreateInput{
		Name:             name,
		Type:             taskType,
		TimerKind:        record.TimerCountdown,
		CountdownSeconds: 1500,
	})
	if err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}
	return tpl
}

func TestService_TemplateSource(t *testing.T) {
	svc := newTestService(t)
	tpl := mustCreateTemplate(t, svc, "deep work", "work")

	got, err := svc.Template(tpl.ID)
	if err != nil {
		t.Fatalf("Template failed: %v", err)
	}
	if got == nil || got.Name != "deep work" {
		t.Errorf("Template = %+v", got)
	}

	missing, err := svc.Template("nope")
	if err != nil {
		t.Fatalf("Template on absent id: %v", err)
	}
	if missing != nil {
		t.Errorf("absent id should resolve to nil, got %+v", missing)
	}

	if secs := svc.AppointmentSeconds(); secs != 900 {
		t.Errorf("AppointmentSeconds = %d, want 900", secs)
	}
}
