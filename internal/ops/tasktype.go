package ops

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/appointworks/appoint/internal/errors"
	"github.com/appointworks/appoint/internal/record"
)

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// TaskTypeInput contains parameters for adding or updating a task type.
type TaskTypeInput struct {
	Name      string
	Color     string // #rrggbb
	TextColor string // #rrggbb
}

// AddTaskType registers a new task type name for templates to use.
func (s *Service) AddTaskType(input TaskTypeInput) (*record.TaskType, error) {
	tt, err := buildTaskType(input)
	if err != nil {
		return nil, err
	}

	err = s.update(func(data *record.Data) error {
		if data.FindTaskType(tt.Name) != nil {
			return errors.NewConflict(fmt.Sprintf("task type %q already exists", tt.Name))
		}
		data.Settings.TaskTypes = append(data.Settings.TaskTypes, *tt)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tt, nil
}

// ListTaskTypes returns all task types in definition order.
func (s *Service) ListTaskTypes() ([]record.TaskType, error) {
	data, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	return data.Settings.TaskTypes, nil
}

// UpdateTaskType replaces the colors of an existing task type. Names are
// identities and cannot be changed in place; add a new type instead.
func (s *Service) UpdateTaskType(input TaskTypeInput) (*record.TaskType, error) {
	tt, err := buildTaskType(input)
	if err != nil {
		return nil, err
	}

	err = s.update(func(data *record.Data) error {
		existing := data.FindTaskType(tt.Name)
		if existing == nil {
			return errors.NewNotFound(tt.Name)
		}
		existing.Color = tt.Color
		existing.TextColor = tt.TextColor
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tt, nil
}

// DeleteTaskType removes a task type. Rejected while any template still
// references it, so templates never point at a missing type.
func (s *Service) DeleteTaskType(name string) error {
	name = strings.TrimSpace(name)
	return s.update(func(data *record.Data) error {
		for _, tpl := range data.Templates {
			if tpl.Type == name {
				return errors.NewConflict(fmt.Sprintf("task type %q is in use by template %q", name, tpl.Name))
			}
		}
		for i := range data.Settings.TaskTypes {
			if data.Settings.TaskTypes[i].Name == name {
				data.Settings.TaskTypes = append(data.Settings.TaskTypes[:i], data.Settings.TaskTypes[i+1:]...)
				return nil
			}
		}
		return errors.NewNotFound(name)
	})
}

func buildTaskType(input TaskTypeInput) (*record.TaskType, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.NewInvalidRequest("task type name is required")
	}
	color := input.Color
	if color == "" {
		color = "#2383e2"
	}
	textColor := input.TextColor
	if textColor == "" {
		textColor = "#ffffff"
	}
	if !hexColorRe.MatchString(color) || !hexColorRe.MatchString(textColor) {
		return nil, errors.NewInvalidRequest("colors must be #rrggbb hex values")
	}
	return &record.TaskType{Name: name, Color: color, TextColor: textColor}, nil
}
