// Package session implements the appointment-then-task workflow as an
// explicit state machine. A machine owns one timer and is the only writer
// of history records: every terminal transition appends exactly one record
// to the sink and returns the machine to idle.
package session

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/appointworks/appoint/internal/errors"
	"github.com/appointworks/appoint/internal/record"
	"github.com/appointworks/appoint/internal/timer"
)

// Phase is the machine's lifecycle state.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseAppointment Phase = "appointmentPending"
	PhaseTask        Phase = "taskPending"
)

// Notes written onto records at each terminal transition.
const (
	notesAppointmentDone      = "appointment countdown completed"
	notesAppointmentAbandoned = "appointment abandoned"
	notesTaskDone             = "task completed"
	notesTaskAbandoned        = "task abandoned"
)

// Sink receives each history record as it is produced. An error return
// surfaces as a storage failure to the transition that produced the record.
type Sink interface {
	Append(rec record.Record) error
}

// TemplateSource resolves templates and the appointment countdown length.
// Template returns (nil, nil) for an unknown id.
type TemplateSource interface {
	Template(id string) (*record.Template, error)
	AppointmentSeconds() int
}

// Callbacks notify the owner of asynchronous machine events. They run on the
// timer's tick goroutine and must not call back into the Machine.
type Callbacks struct {
	OnTick func(displayTime string, remainingSeconds int)
	// OnAppointmentElapsed fires when the appointment countdown reaches
	// zero. The machine stays in the appointment phase: commitment is
	// explicit, via StartTask or Abandon.
	OnAppointmentElapsed func()
	// OnSessionEnded fires when the task timer completes on its own and
	// the machine has appended the success record and returned to idle.
	OnSessionEnded func(rec record.Record)
	// OnError reports a sink failure during timer-driven completion,
	// where no caller is present to receive the error.
	OnError func(err error)
}

// Snapshot is a point-in-time view of the machine for status displays.
type Snapshot struct {
	Phase         Phase       `json:"phase"`
	SessionID     string      `json:"sessionId,omitempty"`
	TemplateID    string      `json:"templateId,omitempty"`
	TemplateName  string      `json:"templateName,omitempty"`
	ScheduledTime *time.Time  `json:"scheduledTime,omitempty"`
	Timer         timer.State `json:"timer"`
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithIDGenerator overrides the record/session id generator.
func WithIDGenerator(newID func() string) Option {
	return func(m *Machine) { m.newID = newID }
}

// WithTimer substitutes the machine's timer, letting tests shorten the
// tick interval.
func WithTimer(t *timer.Timer) Option {
	return func(m *Machine) { m.timer = t }
}

// Machine is the session state machine. Exactly one session is live at a
// time; StartAppointment is rejected unless the machine is idle.
//
// An epoch counter guards against the timer race where a completion
// callback is already in flight when a transition cancels the timer: each
// transition bumps the epoch, and a completion carrying a stale epoch is
// discarded.
type Machine struct {
	templates TemplateSource
	sink      Sink
	timer     *timer.Timer
	now       func() time.Time
	newID     func() string
	cb        Callbacks

	mu            sync.Mutex
	phase         Phase
	epoch         uint64
	sessionID     string
	template      record.Template
	scheduledTime time.Time
	apptStart     time.Time
	taskStart     time.Time
}

// New creates an idle machine. SetCallbacks, if needed, must be called
// before the first transition.
func New(templates TemplateSource, sink Sink, opts ...Option) *Machine {
	m := &Machine{
		templates: templates,
		sink:      sink,
		timer:     timer.New(),
		now:       time.Now,
		newID:     func() string { return ulid.Make().String() },
		phase:     PhaseIdle,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetCallbacks installs the owner's event callbacks.
func (m *Machine) SetCallbacks(cb Callbacks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cb = cb
}

// Timer exposes the underlying timer for pause/resume control.
func (m *Machine) Timer() *timer.Timer {
	return m.timer
}

// Status returns a snapshot of the machine and its timer.
func (m *Machine) Status() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Phase: m.phase,
		Timer: m.timer.Snapshot(),
	}
	if m.phase != PhaseIdle {
		snap.SessionID = m.sessionID
		snap.TemplateID = m.template.ID
		snap.TemplateName = m.template.Name
		st := m.scheduledTime
		snap.ScheduledTime = &st
	}
	return snap
}

// StartAppointment opens a new session against the given template and
// begins the appointment countdown. Valid only from idle.
func (m *Machine) StartAppointment(templateID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseIdle {
		return errors.NewAppointmentActive(string(m.phase))
	}
	if templateID == "" {
		return errors.NewNoTemplateSelected()
	}
	tpl, err := m.templates.Template(templateID)
	if err != nil {
		return err
	}
	if tpl == nil {
		return errors.NewTemplateNotFound(templateID)
	}

	now := m.now()
	secs := m.templates.AppointmentSeconds()

	m.epoch++
	m.phase = PhaseAppointment
	m.sessionID = m.newID()
	m.template = *tpl
	m.apptStart = now
	m.scheduledTime = now.Add(time.Duration(secs) * time.Second)
	m.taskStart = time.Time{}

	m.armTimerLocked(secs, timer.Countdown, m.appointmentElapsed)
	return nil
}

// StartTask commits to the task: it records the appointment as a success
// and starts the task timer per the template. Valid only while an
// appointment is pending; the countdown need not have lapsed.
func (m *Machine) StartTask() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseAppointment {
		return errors.NewNoActiveAppointment()
	}

	now := m.now()
	apptStart := m.apptStart
	rec := m.recordLocked(record.KindAppointment, record.OutcomeSuccess, now)
	rec.ActualStartTime = &apptStart
	rec.Notes = notesAppointmentDone
	rec.TimeNodes = record.TimeNodes{AppointmentStart: &apptStart}

	if err := m.sink.Append(rec); err != nil {
		// State unchanged; the caller can retry the commit.
		return err
	}

	kind := timer.Countdown
	if m.template.TimerKind == record.TimerCountUp {
		kind = timer.CountUp
	}

	m.epoch++
	m.phase = PhaseTask
	m.taskStart = now
	m.armTimerLocked(m.template.TaskDurationSeconds(), kind, m.taskCompleted)
	return nil
}

// Abandon fails the live phase, records it, and returns to idle. Valid
// from either pending phase.
func (m *Machine) Abandon() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase == PhaseIdle {
		return errors.NewNothingToAbandon()
	}

	now := m.now()
	var rec record.Record
	switch m.phase {
	case PhaseAppointment:
		apptStart := m.apptStart
		rec = m.recordLocked(record.KindAppointment, record.OutcomeFailed, now)
		rec.ActualStartTime = &apptStart
		rec.Notes = notesAppointmentAbandoned
		rec.TimeNodes = record.TimeNodes{AppointmentStart: &apptStart, AbandonTime: &now}
	case PhaseTask:
		taskStart := m.taskStart
		rec = m.recordLocked(record.KindTask, record.OutcomeFailed, now)
		rec.ActualStartTime = &taskStart
		rec.Notes = notesTaskAbandoned
		rec.TimeNodes = record.TimeNodes{TaskStart: &taskStart, AbandonTime: &now}
	}

	if err := m.sink.Append(rec); err != nil {
		return err
	}

	m.resetLocked()
	return nil
}

// appointmentElapsed handles the appointment countdown reaching zero. The
// machine stays in the appointment phase until the user commits or abandons.
func (m *Machine) appointmentElapsed(epoch uint64) {
	m.mu.Lock()
	if epoch != m.epoch || m.phase != PhaseAppointment {
		m.mu.Unlock()
		return
	}
	elapsed := m.cb.OnAppointmentElapsed
	m.mu.Unlock()

	if elapsed != nil {
		elapsed()
	}
}

// taskCompleted handles the task timer completing on its own: the task
// succeeded, and the session ends.
func (m *Machine) taskCompleted(epoch uint64) {
	m.mu.Lock()
	if epoch != m.epoch || m.phase != PhaseTask {
		m.mu.Unlock()
		return
	}

	now := m.now()
	taskStart := m.taskStart
	duration := int(now.Sub(taskStart) / time.Second)

	rec := m.recordLocked(record.KindTask, record.OutcomeSuccess, now)
	rec.ActualStartTime = &taskStart
	rec.Duration = &duration
	rec.Notes = notesTaskDone
	rec.TimeNodes = record.TimeNodes{TaskStart: &taskStart, TaskEnd: &now}

	err := m.sink.Append(rec)
	m.resetLocked()
	ended, onErr := m.cb.OnSessionEnded, m.cb.OnError
	m.mu.Unlock()

	if err != nil {
		if onErr != nil {
			onErr(err)
		}
		return
	}
	if ended != nil {
		ended(rec)
	}
}

// recordLocked builds the common record fields from the live session.
func (m *Machine) recordLocked(kind record.Kind, outcome record.Outcome, now time.Time) record.Record {
	return record.Record{
		ID:            m.newID(),
		SessionID:     m.sessionID,
		Kind:          kind,
		Outcome:       outcome,
		TemplateID:    m.template.ID,
		TemplateName:  m.template.Name,
		TemplateType:  m.template.Type,
		ScheduledTime: m.scheduledTime,
		EndTime:       now,
		Violations:    []string{},
		CreatedAt:     now,
	}
}

// armTimerLocked stops, reconfigures, and starts the timer for the current
// epoch. The completion handler revalidates the epoch under the machine
// lock, so a completion already in flight when a later transition cancels
// the timer is discarded.
func (m *Machine) armTimerLocked(totalSeconds int, kind timer.Kind, onComplete func(epoch uint64)) {
	epoch := m.epoch
	onTick := m.cb.OnTick

	m.timer.Stop()
	m.timer.Configure(totalSeconds, kind)
	m.timer.SetCallbacks(timer.Callbacks{
		OnTick:     onTick,
		OnComplete: func() { onComplete(epoch) },
	})
	m.timer.Start()
}

// resetLocked clears session state and stops the timer.
func (m *Machine) resetLocked() {
	m.epoch++
	m.timer.Stop()
	m.phase = PhaseIdle
	m.sessionID = ""
	m.template = record.Template{}
	m.scheduledTime = time.Time{}
	m.apptStart = time.Time{}
	m.taskStart = time.Time{}
}
