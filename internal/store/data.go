package store

import (
	"encoding/json"
	"time"

	"github.com/appointworks/appoint/internal/errors"
	"github.com/appointworks/appoint/internal/record"
)

// DataKey is the single key the application aggregate lives under.
// Bump the suffix only with a migration that rewrites the old key.
const DataKey = "appoint/v1"

// Load reads the aggregate from the store. An absent key yields a fresh
// default aggregate; a present but unreadable one is a storage failure.
func (s *Store) Load() (*record.Data, error) {
	blob, ok, err := s.Get(DataKey)
	if err != nil {
		return nil, errors.NewStorageFailure(err)
	}
	if !ok {
		return record.DefaultData(), nil
	}

	data := &record.Data{}
	if err := json.Unmarshal(blob, data); err != nil {
		return nil, errors.NewStorageFailure(err)
	}

	// Older aggregates may predate some settings fields.
	if data.Settings.DefaultAppointmentSeconds <= 0 {
		data.Settings.DefaultAppointmentSeconds = record.DefaultSettings().DefaultAppointmentSeconds
	}

	return data, nil
}

// Save writes the aggregate back, stamping LastUpdated. A failed write is
// surfaced as a storage failure so the caller can retry or alert.
func (s *Store) Save(data *record.Data) error {
	now := time.Now().UTC()
	data.LastUpdated = now

	blob, err := json.Marshal(data)
	if err != nil {
		return errors.NewStorageFailure(err)
	}
	if err := s.Set(DataKey, blob, now.Unix()); err != nil {
		return errors.NewStorageFailure(err)
	}
	return nil
}
