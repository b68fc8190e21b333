// Package ops implements the application operations over the persisted
// aggregate: template and task-type management, settings, history queries,
// and import/export. Each operation takes an Input struct and returns an
// Output struct so the CLI, MCP, and web layers share one surface.
package ops

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/appointworks/appoint/internal/config"
	"github.com/appointworks/appoint/internal/errors"
	"github.com/appointworks/appoint/internal/record"
	"github.com/appointworks/appoint/internal/store"
)

// Service runs operations against one store. The aggregate is read,
// modified, and written back as a unit, so a mutex serializes mutations;
// reads going through Load are safe concurrently.
type Service struct {
	mu    sync.Mutex
	store *store.Store
	cfg   *config.Config
}

// NewService wires a service to its store and config.
func NewService(st *store.Store, cfg *config.Config) *Service {
	return &Service{store: st, cfg: cfg}
}

// update runs fn against the loaded aggregate and persists the result.
// fn returning an error aborts the write, leaving the stored state intact.
func (s *Service) update(fn func(data *record.Data) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.store.Load()
	if err != nil {
		return err
	}
	if err := fn(data); err != nil {
		return err
	}
	return s.store.Save(data)
}

// Append writes one history record. It satisfies the session machine's
// sink interface.
func (s *Service) Append(rec record.Record) error {
	return s.update(func(data *record.Data) error {
		data.History = append(data.History, rec)
		return nil
	})
}

// Template resolves a template by id, (nil, nil) when absent. It satisfies
// the session machine's template source interface.
func (s *Service) Template(id string) (*record.Template, error) {
	data, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	tpl := data.FindTemplate(id)
	if tpl == nil {
		return nil, nil
	}
	out := *tpl
	return &out, nil
}

// AppointmentSeconds returns the configured appointment countdown length,
// falling back to the stock default if the settings are unreadable.
func (s *Service) AppointmentSeconds() int {
	data, err := s.store.Load()
	if err != nil {
		return record.DefaultSettings().DefaultAppointmentSeconds
	}
	return data.Settings.DefaultAppointmentSeconds
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return id.String(), nil
}
