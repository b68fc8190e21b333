package ops

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/appointworks/appoint/internal/errors"
	"github.com/appointworks/appoint/internal/record"
)

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string // required
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Templates int `json:"templates"`
	TaskTypes int `json:"taskTypes"`
	Records   int `json:"records"`
}

// Import replaces the live aggregate with the contents of an export file.
// The file is parsed and validated in full before anything is written:
// any problem is an INVALID_IMPORT and leaves the stored state intact.
func (s *Service) Import(input ImportInput) (*ImportOutput, error) {
	if input.Path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}
	if err := ValidatePath(input.Path, PathCheckRead, s.cfg); err != nil {
		return nil, err
	}

	file, err := openFileNoFollowRead(input.Path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	blob, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to read import file: %w", err))
	}

	var imported ExportFile
	if err := json.Unmarshal(blob, &imported); err != nil {
		return nil, errors.NewInvalidImport(fmt.Sprintf("invalid JSON: %v", err))
	}
	if err := validateImport(&imported); err != nil {
		return nil, err
	}

	data := imported.Data
	if data.Templates == nil {
		data.Templates = []record.Template{}
	}
	if data.Chains == nil {
		data.Chains = []record.Chain{}
	}
	if data.History == nil {
		data.History = []record.Record{}
	}

	err = s.update(func(live *record.Data) error {
		*live = data
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &ImportOutput{
		Templates: len(data.Templates),
		TaskTypes: len(data.Settings.TaskTypes),
		Records:   len(data.History),
	}, nil
}

// validateImport checks an export file's structural integrity before any
// mutation. Settings gaps are filled from defaults rather than rejected,
// so exports from older versions still import.
func validateImport(in *ExportFile) error {
	if in.Version != "" && in.Version != ExportSchemaVersion {
		return errors.NewInvalidImport(fmt.Sprintf("unsupported export version %q", in.Version))
	}

	seen := make(map[string]bool, len(in.Templates))
	for i := range in.Templates {
		tpl := &in.Templates[i]
		if tpl.ID == "" {
			return errors.NewInvalidImport(fmt.Sprintf("template %d: missing id", i))
		}
		if seen[tpl.ID] {
			return errors.NewInvalidImport(fmt.Sprintf("duplicate template id %q", tpl.ID))
		}
		seen[tpl.ID] = true
		if tpl.Name == "" {
			return errors.NewInvalidImport(fmt.Sprintf("template %q: missing name", tpl.ID))
		}
		if tpl.TimerKind != record.TimerCountdown && tpl.TimerKind != record.TimerCountUp {
			return errors.NewInvalidImport(fmt.Sprintf("template %q: invalid timer kind %q", tpl.ID, tpl.TimerKind))
		}
	}

	seenRec := make(map[string]bool, len(in.History))
	for i := range in.History {
		rec := &in.History[i]
		if rec.ID == "" || rec.SessionID == "" {
			return errors.NewInvalidImport(fmt.Sprintf("record %d: missing id or sessionId", i))
		}
		if seenRec[rec.ID] {
			return errors.NewInvalidImport(fmt.Sprintf("duplicate record id %q", rec.ID))
		}
		seenRec[rec.ID] = true
		if rec.Kind != record.KindAppointment && rec.Kind != record.KindTask {
			return errors.NewInvalidImport(fmt.Sprintf("record %q: invalid type %q", rec.ID, rec.Kind))
		}
		if rec.Outcome != record.OutcomeSuccess && rec.Outcome != record.OutcomeFailed {
			return errors.NewInvalidImport(fmt.Sprintf("record %q: invalid status %q", rec.ID, rec.Outcome))
		}
	}

	if in.Settings.DefaultAppointmentSeconds < 0 {
		return errors.NewInvalidImport("settings: defaultAppointmentTime must not be negative")
	}
	if in.Settings.DefaultAppointmentSeconds == 0 {
		in.Settings.DefaultAppointmentSeconds = record.DefaultSettings().DefaultAppointmentSeconds
	}
	if len(in.Settings.TaskTypes) == 0 {
		in.Settings.TaskTypes = record.DefaultSettings().TaskTypes
	}

	return nil
}
