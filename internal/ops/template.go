package ops

import (
	"fmt"
	"strings"
	"time"

	"github.com/appointworks/appoint/internal/errors"
	"github.com/appointworks/appoint/internal/record"
)

// TemplateCreateInput contains parameters for creating a template.
type TemplateCreateInput struct {
	Name              string
	Description       string
	Type              string // must name an existing task type
	TimerKind         record.TimerKind
	CountdownSeconds  int
	CountupMinSeconds int
	CountupMaxSeconds int
	ForbiddenActions  []string
}

// TemplateUpdateInput contains the mutable fields of a template. Nil
// pointers leave the stored value untouched.
type TemplateUpdateInput struct {
	ID                string
	Name              *string
	Description       *string
	Type              *string
	TimerKind         *record.TimerKind
	CountdownSeconds  *int
	CountupMinSeconds *int
	CountupMaxSeconds *int
	ForbiddenActions  []string // nil keeps existing; empty slice clears
}

// CreateTemplate validates and stores a new template.
func (s *Service) CreateTemplate(input TemplateCreateInput) (*record.Template, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Type = strings.TrimSpace(input.Type)
	if input.TimerKind == "" {
		input.TimerKind = record.TimerCountdown
	}

	id, err := generateULID()
	if err != nil {
		return nil, err
	}

	tpl := record.Template{
		ID:                id,
		Name:              input.Name,
		Description:       input.Description,
		Type:              input.Type,
		TimerKind:         input.TimerKind,
		CountdownSeconds:  input.CountdownSeconds,
		CountupMinSeconds: input.CountupMinSeconds,
		CountupMaxSeconds: input.CountupMaxSeconds,
		ForbiddenActions:  input.ForbiddenActions,
		CreatedAt:         time.Now().UTC(),
	}
	if tpl.ForbiddenActions == nil {
		tpl.ForbiddenActions = []string{}
	}

	err = s.update(func(data *record.Data) error {
		if err := validateTemplate(&tpl, data); err != nil {
			return err
		}
		data.Templates = append(data.Templates, tpl)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

// GetTemplate returns one template by id.
func (s *Service) GetTemplate(id string) (*record.Template, error) {
	tpl, err := s.Template(id)
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		return nil, errors.NewTemplateNotFound(id)
	}
	return tpl, nil
}

// ListTemplates returns all templates, oldest first (creation order).
func (s *Service) ListTemplates() ([]record.Template, error) {
	data, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	return data.Templates, nil
}

// UpdateTemplate applies the non-nil fields of the input to a stored
// template. History records keep their name/type snapshots; editing a
// template never rewrites them.
func (s *Service) UpdateTemplate(input TemplateUpdateInput) (*record.Template, error) {
	var out record.Template
	err := s.update(func(data *record.Data) error {
		tpl := data.FindTemplate(input.ID)
		if tpl == nil {
			return errors.NewTemplateNotFound(input.ID)
		}

		if input.Name != nil {
			tpl.Name = strings.TrimSpace(*input.Name)
		}
		if input.Description != nil {
			tpl.Description = *input.Description
		}
		if input.Type != nil {
			tpl.Type = strings.TrimSpace(*input.Type)
		}
		if input.TimerKind != nil {
			tpl.TimerKind = *input.TimerKind
		}
		if input.CountdownSeconds != nil {
			tpl.CountdownSeconds = *input.CountdownSeconds
		}
		if input.CountupMinSeconds != nil {
			tpl.CountupMinSeconds = *input.CountupMinSeconds
		}
		if input.CountupMaxSeconds != nil {
			tpl.CountupMaxSeconds = *input.CountupMaxSeconds
		}
		if input.ForbiddenActions != nil {
			tpl.ForbiddenActions = input.ForbiddenActions
		}

		if err := validateTemplate(tpl, data); err != nil {
			return err
		}
		out = *tpl
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteTemplate removes a template. Existing history records referencing
// it are untouched; they carry their own name/type snapshots.
func (s *Service) DeleteTemplate(id string) error {
	return s.update(func(data *record.Data) error {
		for i := range data.Templates {
			if data.Templates[i].ID == id {
				data.Templates = append(data.Templates[:i], data.Templates[i+1:]...)
				return nil
			}
		}
		return errors.NewTemplateNotFound(id)
	})
}

// validateTemplate checks a template's fields against the aggregate's
// task types and timing rules.
func validateTemplate(tpl *record.Template, data *record.Data) error {
	if tpl.Name == "" {
		return errors.NewInvalidRequest("template name is required")
	}
	if tpl.Type == "" {
		return errors.NewInvalidRequest("template type is required")
	}
	if data.FindTaskType(tpl.Type) == nil {
		return errors.NewInvalidRequest(fmt.Sprintf("unknown task type %q", tpl.Type))
	}

	switch tpl.TimerKind {
	case record.TimerCountdown:
		if tpl.CountdownSeconds <= 0 {
			return errors.NewInvalidRequest("countdown templates need a positive countdown time")
		}
	case record.TimerCountUp:
		if tpl.CountupMaxSeconds <= 0 {
			return errors.NewInvalidRequest("countup templates need a positive max time")
		}
		if tpl.CountupMinSeconds < 0 || tpl.CountupMinSeconds > tpl.CountupMaxSeconds {
			return errors.NewInvalidRequest("countup min time must be between 0 and the max time")
		}
	default:
		return errors.NewInvalidRequest("timer kind must be one of: countdown, countup")
	}

	return nil
}
