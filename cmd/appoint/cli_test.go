package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/appointworks/appoint/internal/config"
	"github.com/appointworks/appoint/internal/ops"
	"github.com/appointworks/appoint/internal/record"
	"github.com/appointworks/appoint/internal/store"
)

// setupTestService creates a service over a temporary store.
func setupTestService(t *testing.T) (*ops.Service, *config.Config) {
	t.Helper()

	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true // allow temp dirs in tests
	return ops.NewService(st, cfg), cfg
}

// runCapture runs the app with args and returns captured stdout.
func runCapture(t *testing.T, svc *ops.Service, cfg *config.Config, args ...string) (string, error) {
	t.Helper()

	app := newCLIApp(svc, cfg)

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := app.Run(append([]string{"appoint"}, args...))

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout

	return buf.String(), err
}

func TestParseList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
		{
			name:     "single item",
			input:    "phone",
			expected: []string{"phone"},
		},
		{
			name:     "multiple items",
			input:    "phone,email,snacks",
			expected: []string{"phone", "email", "snacks"},
		},
		{
			name:     "items with spaces",
			input:    " phone , email ",
			expected: []string{"phone", "email"},
		},
		{
			name:     "empty items filtered",
			input:    "phone,,email,",
			expected: []string{"phone", "email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseList(tt.input)
			if len(result) != len(tt.expected) {
				t.Errorf("expected %d items, got %d", len(tt.expected), len(result))
				return
			}
			for i, item := range result {
				if item != tt.expected[i] {
					t.Errorf("expected item[%d]=%q, got %q", i, tt.expected[i], item)
				}
			}
		})
	}
}

func TestCLITemplateCreateAndList(t *testing.T) {
	svc, cfg := setupTestService(t)

	out, err := runCapture(t, svc, cfg, "template", "create",
		"--name=deep work", "--type=work", "--countdown=25:00", "--forbid=phone,email")
	if err != nil {
		t.Fatalf("template create failed: %v", err)
	}

	var created record.Template
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if created.ID == "" {
		t.Error("expected non-empty ID")
	}
	if created.CountdownSeconds != 1500 {
		t.Errorf("expected countdownTime=1500, got %d", created.CountdownSeconds)
	}
	if len(created.ForbiddenActions) != 2 {
		t.Errorf("expected 2 forbidden actions, got %d", len(created.ForbiddenActions))
	}

	out, err = runCapture(t, svc, cfg, "template", "list")
	if err != nil {
		t.Fatalf("template list failed: %v", err)
	}
	var listed struct {
		Count     int               `json:"count"`
		Templates []record.Template `json:"templates"`
	}
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if listed.Count != 1 {
		t.Errorf("expected count=1, got %d", listed.Count)
	}
}

func TestCLITemplateUpdate(t *testing.T) {
	svc, cfg := setupTestService(t)

	tpl, err := svc.CreateTemplate(ops.TemplateCreateInput{
		Name:             "reading",
		Type:             "study",
		CountdownSeconds: 600,
	})
	if err != nil {
		t.Fatalf("failed to create template: %v", err)
	}

	out, err := runCapture(t, svc, cfg, "template", "update", tpl.ID, "--countdown=20:00")
	if err != nil {
		t.Fatalf("template update failed: %v", err)
	}

	var updated record.Template
	if err := json.Unmarshal([]byte(out), &updated); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if updated.CountdownSeconds != 1200 {
		t.Errorf("expected countdownTime=1200, got %d", updated.CountdownSeconds)
	}
	if updated.Name != "reading" {
		t.Errorf("name changed unexpectedly: %q", updated.Name)
	}
}

func TestCLITypeAddAndDelete(t *testing.T) {
	svc, cfg := setupTestService(t)

	out, err := runCapture(t, svc, cfg, "type", "add", "gardening", "--color=#00aa00")
	if err != nil {
		t.Fatalf("type add failed: %v", err)
	}
	var tt record.TaskType
	if err := json.Unmarshal([]byte(out), &tt); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if tt.Name != "gardening" || tt.Color != "#00aa00" {
		t.Errorf("task type = %+v", tt)
	}

	if _, err := runCapture(t, svc, cfg, "type", "delete", "gardening"); err != nil {
		t.Fatalf("type delete failed: %v", err)
	}
}

func TestCLISettings(t *testing.T) {
	svc, cfg := setupTestService(t)

	out, err := runCapture(t, svc, cfg, "settings", "set", "--appointment-time=10:00", "--theme=dark")
	if err != nil {
		t.Fatalf("settings set failed: %v", err)
	}
	var settings record.Settings
	if err := json.Unmarshal([]byte(out), &settings); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if settings.DefaultAppointmentSeconds != 600 {
		t.Errorf("expected defaultAppointmentTime=600, got %d", settings.DefaultAppointmentSeconds)
	}
	if settings.Theme != "dark" {
		t.Errorf("expected theme=dark, got %q", settings.Theme)
	}
}

func TestCLIHistoryClearRequiresYes(t *testing.T) {
	svc, cfg := setupTestService(t)

	if _, err := runCapture(t, svc, cfg, "history", "clear"); err == nil {
		t.Error("expected error without --yes")
	}
	if _, err := runCapture(t, svc, cfg, "history", "clear", "--yes"); err != nil {
		t.Errorf("history clear --yes failed: %v", err)
	}
}

func TestCLIExportImport(t *testing.T) {
	svc, cfg := setupTestService(t)

	if _, err := svc.CreateTemplate(ops.TemplateCreateInput{
		Name:             "deep work",
		Type:             "work",
		CountdownSeconds: 1500,
	}); err != nil {
		t.Fatalf("failed to create template: %v", err)
	}

	exportPath := filepath.Join(t.TempDir(), "backup.json")

	out, err := runCapture(t, svc, cfg, "export", "--path="+exportPath)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	var exported ops.ExportOutput
	if err := json.Unmarshal([]byte(out), &exported); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if exported.Templates != 1 {
		t.Errorf("expected templates=1, got %d", exported.Templates)
	}
	if exported.Path != exportPath {
		t.Errorf("expected path=%s, got %s", exportPath, exported.Path)
	}

	// Import into a fresh store
	svc2, cfg2 := setupTestService(t)
	out, err = runCapture(t, svc2, cfg2, "import", "--path="+exportPath)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	var imported ops.ImportOutput
	if err := json.Unmarshal([]byte(out), &imported); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if imported.Templates != 1 {
		t.Errorf("expected templates=1, got %d", imported.Templates)
	}
}

func TestCLIErrorHandling(t *testing.T) {
	svc, cfg := setupTestService(t)

	t.Run("template get not found returns error", func(t *testing.T) {
		if _, err := runCapture(t, svc, cfg, "template", "get", "missing"); err == nil {
			t.Error("expected error, got nil")
		}
	})

	t.Run("invalid duration returns error", func(t *testing.T) {
		if _, err := runCapture(t, svc, cfg, "template", "create",
			"--name=x", "--type=work", "--countdown=later"); err == nil {
			t.Error("expected error, got nil")
		}
	})

	t.Run("invalid filter returns error", func(t *testing.T) {
		if _, err := runCapture(t, svc, cfg, "history", "records", "--kind=nap"); err == nil {
			t.Error("expected error, got nil")
		}
	})
}

func TestIsCLIMode(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{
			name:     "no args",
			args:     []string{"appoint"},
			expected: false,
		},
		{
			name:     "template command",
			args:     []string{"appoint", "template"},
			expected: true,
		},
		{
			name:     "run command",
			args:     []string{"appoint", "run"},
			expected: true,
		},
		{
			name:     "help flag",
			args:     []string{"appoint", "--help"},
			expected: true,
		},
		{
			name:     "version flag",
			args:     []string{"appoint", "--version"},
			expected: true,
		},
		{
			name:     "unknown arg defaults to MCP",
			args:     []string{"appoint", "--unknown"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			if result := isCLIMode(); result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestIsHelpOrVersion(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{
			name:     "no args",
			args:     []string{"appoint"},
			expected: false,
		},
		{
			name:     "help flag",
			args:     []string{"appoint", "--help"},
			expected: true,
		},
		{
			name:     "help subcommand",
			args:     []string{"appoint", "help"},
			expected: true,
		},
		{
			name:     "template command is not help",
			args:     []string{"appoint", "template"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			if result := isHelpOrVersion(); result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}
