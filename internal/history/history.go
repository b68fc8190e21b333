package history

import (
	"sort"
	"strings"
	"time"

	"github.com/appointworks/appoint/internal/record"
)

// Status is the derived session-level outcome. It is never stored; it is
// recomputed from the member records on every read.
type Status string

const (
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
	StatusIncomplete Status = "incomplete"
)

// Filter narrows the record set. All supplied fields must match (AND).
type Filter struct {
	Kind         *record.Kind    `json:"kind,omitempty"`
	Outcome      *record.Outcome `json:"outcome,omitempty"`
	TemplateType *string         `json:"templateType,omitempty"`
	Search       string          `json:"search,omitempty"` // substring of template name, case-insensitive
	From         *time.Time      `json:"from,omitempty"`   // inclusive, on createdAt
	To           *time.Time      `json:"to,omitempty"`     // inclusive, on createdAt
}

// Session pairs the appointment and task records sharing one session id.
// At most one of each kind; duplicates resolve last-write-wins in record
// insertion order. At least one slot is always populated.
type Session struct {
	SessionID     string         `json:"sessionId"`
	TemplateID    string         `json:"templateId"`
	TemplateName  string         `json:"templateName"`
	TemplateType  string         `json:"templateType"`
	ScheduledTime time.Time      `json:"scheduledTime"`
	Appointment   *record.Record `json:"appointment"`
	Task          *record.Record `json:"task"`
	CreatedAt     time.Time      `json:"createdAt"`
	OverallStatus Status         `json:"overallStatus"`
}

// Matches reports whether a record passes the filter.
func (f Filter) Matches(r *record.Record) bool {
	if f.Kind != nil && r.Kind != *f.Kind {
		return false
	}
	if f.Outcome != nil && r.Outcome != *f.Outcome {
		return false
	}
	if f.TemplateType != nil && r.TemplateType != *f.TemplateType {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(r.TemplateName), strings.ToLower(f.Search)) {
		return false
	}
	if f.From != nil && r.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && r.CreatedAt.After(*f.To) {
		return false
	}
	return true
}

// Apply returns the records passing the filter, preserving order.
func (f Filter) Apply(records []record.Record) []record.Record {
	out := make([]record.Record, 0, len(records))
	for i := range records {
		if f.Matches(&records[i]) {
			out = append(out, records[i])
		}
	}
	return out
}

// Sessions groups the filtered records by session id and derives each
// session's overall status, newest first.
func Sessions(records []record.Record, f Filter) []Session {
	filtered := f.Apply(records)

	index := make(map[string]int, len(filtered))
	sessions := make([]Session, 0, len(filtered))

	for i := range filtered {
		r := &filtered[i]
		idx, ok := index[r.SessionID]
		if !ok {
			idx = len(sessions)
			index[r.SessionID] = idx
			sessions = append(sessions, Session{
				SessionID:     r.SessionID,
				TemplateID:    r.TemplateID,
				TemplateName:  r.TemplateName,
				TemplateType:  r.TemplateType,
				ScheduledTime: r.ScheduledTime,
				CreatedAt:     r.CreatedAt,
			})
		}

		s := &sessions[idx]
		switch r.Kind {
		case record.KindAppointment:
			s.Appointment = r
		case record.KindTask:
			s.Task = r
		}

		// Session creation is the earliest member record.
		if r.CreatedAt.Before(s.CreatedAt) {
			s.CreatedAt = r.CreatedAt
		}
	}

	for i := range sessions {
		sessions[i].OverallStatus = deriveStatus(&sessions[i])
	}

	sort.SliceStable(sessions, func(a, b int) bool {
		return sessions[a].CreatedAt.After(sessions[b].CreatedAt)
	})

	return sessions
}

// deriveStatus computes the overall outcome of a session:
//   - both records present: success only if both succeeded
//   - appointment alone: incomplete if it succeeded (task not yet started),
//     failed if it was abandoned
//   - task alone (anomalous): mirrors the task outcome
func deriveStatus(s *Session) Status {
	switch {
	case s.Appointment != nil && s.Task != nil:
		if s.Appointment.Outcome == record.OutcomeSuccess && s.Task.Outcome == record.OutcomeSuccess {
			return StatusSuccess
		}
		return StatusFailed
	case s.Appointment != nil:
		if s.Appointment.Outcome == record.OutcomeSuccess {
			return StatusIncomplete
		}
		return StatusFailed
	case s.Task != nil:
		if s.Task.Outcome == record.OutcomeSuccess {
			return StatusSuccess
		}
		return StatusFailed
	default:
		return StatusIncomplete
	}
}
