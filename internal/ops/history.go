package ops

import (
	"github.com/appointworks/appoint/internal/errors"
	"github.com/appointworks/appoint/internal/history"
	"github.com/appointworks/appoint/internal/record"
)

// ListRecords returns the raw history records passing the filter, in
// insertion order.
func (s *Service) ListRecords(f history.Filter) ([]record.Record, error) {
	data, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	return f.Apply(data.History), nil
}

// ListSessions returns the derived session views, newest first.
func (s *Service) ListSessions(f history.Filter) ([]history.Session, error) {
	data, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	return history.Sessions(data.History, f), nil
}

// ComputeStats returns aggregate statistics over the filtered history.
func (s *Service) ComputeStats(f history.Filter) (*history.Stats, error) {
	data, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	return history.Compute(data.History, f), nil
}

// DeleteRecord removes one history record by id.
func (s *Service) DeleteRecord(id string) error {
	return s.update(func(data *record.Data) error {
		for i := range data.History {
			if data.History[i].ID == id {
				data.History = append(data.History[:i], data.History[i+1:]...)
				return nil
			}
		}
		return errors.NewNotFound(id)
	})
}

// DeleteSession removes every record sharing the given session id.
// Returns the number of records removed.
func (s *Service) DeleteSession(sessionID string) (int, error) {
	removed := 0
	err := s.update(func(data *record.Data) error {
		kept := data.History[:0]
		for i := range data.History {
			if data.History[i].SessionID == sessionID {
				removed++
				continue
			}
			kept = append(kept, data.History[i])
		}
		if removed == 0 {
			return errors.NewNotFound(sessionID)
		}
		data.History = kept
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// ClearHistory deletes the entire record log. Templates, task types, and
// settings are untouched. Returns the number of records removed.
func (s *Service) ClearHistory() (int, error) {
	removed := 0
	err := s.update(func(data *record.Data) error {
		removed = len(data.History)
		data.History = []record.Record{}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
