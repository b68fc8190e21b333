package ops

import (
	"github.com/appointworks/appoint/internal/errors"
	"github.com/appointworks/appoint/internal/record"
)

// SettingsUpdateInput contains the mutable settings fields. Nil pointers
// leave the stored value untouched. Task types are managed through the
// task-type operations, not here.
type SettingsUpdateInput struct {
	DefaultAppointmentSeconds *int
	Theme                     *string
	Notifications             *bool
	AutoSave                  *bool
}

// GetSettings returns the current settings.
func (s *Service) GetSettings() (*record.Settings, error) {
	data, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	out := data.Settings
	return &out, nil
}

// UpdateSettings applies the non-nil fields of the input.
func (s *Service) UpdateSettings(input SettingsUpdateInput) (*record.Settings, error) {
	var out record.Settings
	err := s.update(func(data *record.Data) error {
		if input.DefaultAppointmentSeconds != nil {
			if *input.DefaultAppointmentSeconds <= 0 {
				return errors.NewInvalidRequest("default appointment time must be positive")
			}
			data.Settings.DefaultAppointmentSeconds = *input.DefaultAppointmentSeconds
		}
		if input.Theme != nil {
			if *input.Theme != "light" && *input.Theme != "dark" {
				return errors.NewInvalidRequest("theme must be one of: light, dark")
			}
			data.Settings.Theme = *input.Theme
		}
		if input.Notifications != nil {
			data.Settings.Notifications = *input.Notifications
		}
		if input.AutoSave != nil {
			data.Settings.AutoSave = *input.AutoSave
		}
		out = data.Settings
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
