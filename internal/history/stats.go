package history

import (
	"math"

	"github.com/appointworks/appoint/internal/record"
)

// PhaseCounts breaks one record kind down by outcome.
type PhaseCounts struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// SessionCounts breaks sessions down by overall status.
type SessionCounts struct {
	Success    int `json:"success"`
	Failed     int `json:"failed"`
	Incomplete int `json:"incomplete"`
}

// TypeCounts is the per-template-type session breakdown.
type TypeCounts struct {
	Total      int `json:"total"`
	Success    int `json:"success"`
	Failed     int `json:"failed"`
	Incomplete int `json:"incomplete"`
}

// Stats summarizes a filtered slice of the history log.
type Stats struct {
	TotalSessions int                   `json:"totalSessions"`
	TotalRecords  int                   `json:"totalRecords"`
	Sessions      SessionCounts         `json:"sessions"`
	Appointments  PhaseCounts           `json:"appointments"`
	Tasks         PhaseCounts           `json:"tasks"`
	ByType        map[string]TypeCounts `json:"byType"`
	// AverageDuration is the mean task duration in seconds, rounded,
	// over task records with a recorded duration. 0 when none exist.
	AverageDuration int `json:"averageDuration"`
}

// Compute derives statistics over the records passing the filter and the
// sessions they group into.
func Compute(records []record.Record, f Filter) *Stats {
	filtered := f.Apply(records)
	sessions := Sessions(records, f)

	stats := &Stats{
		TotalSessions: len(sessions),
		TotalRecords:  len(filtered),
		ByType:        make(map[string]TypeCounts),
	}

	for i := range filtered {
		r := &filtered[i]
		switch r.Kind {
		case record.KindAppointment:
			stats.Appointments.Total++
			if r.Outcome == record.OutcomeSuccess {
				stats.Appointments.Success++
			} else {
				stats.Appointments.Failed++
			}
		case record.KindTask:
			stats.Tasks.Total++
			if r.Outcome == record.OutcomeSuccess {
				stats.Tasks.Success++
			} else {
				stats.Tasks.Failed++
			}
		}
	}

	for i := range sessions {
		s := &sessions[i]
		switch s.OverallStatus {
		case StatusSuccess:
			stats.Sessions.Success++
		case StatusFailed:
			stats.Sessions.Failed++
		case StatusIncomplete:
			stats.Sessions.Incomplete++
		}

		tc := stats.ByType[s.TemplateType]
		tc.Total++
		switch s.OverallStatus {
		case StatusSuccess:
			tc.Success++
		case StatusFailed:
			tc.Failed++
		case StatusIncomplete:
			tc.Incomplete++
		}
		stats.ByType[s.TemplateType] = tc
	}

	// Average over task records that carry a duration; a nil duration
	// (abandoned task) is excluded rather than counted as zero.
	var sum, n int
	for i := range filtered {
		r := &filtered[i]
		if r.Kind == record.KindTask && r.Duration != nil {
			sum += *r.Duration
			n++
		}
	}
	if n > 0 {
		stats.AverageDuration = int(math.Round(float64(sum) / float64(n)))
	}

	return stats
}
