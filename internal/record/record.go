package record

import "time"

// Kind distinguishes the two phases a history record can describe.
type Kind string

const (
	KindAppointment Kind = "appointment"
	KindTask        Kind = "task"
)

// Outcome is the terminal result of a phase.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
)

// TimerKind selects countdown or count-up timing for a task.
type TimerKind string

const (
	TimerCountdown TimerKind = "countdown"
	TimerCountUp   TimerKind = "countup"
)

// TimeNodes captures the notable instants of a session phase. Absent nodes
// are nil; the JSON field names are part of the durable export contract.
type TimeNodes struct {
	AppointmentStart *time.Time `json:"appointmentStart"`
	TaskStart        *time.Time `json:"taskStart"`
	TaskEnd          *time.Time `json:"taskEnd"`
	AbandonTime      *time.Time `json:"abandonTime"`
}

// Record is one immutable entry in the append-only history log, written
// exactly once when a phase reaches a terminal transition. Template name and
// type are snapshotted at record-creation time, not live-joined.
type Record struct {
	ID              string     `json:"id"`
	SessionID       string     `json:"sessionId"`
	Kind            Kind       `json:"type"`
	Outcome         Outcome    `json:"status"`
	TemplateID      string     `json:"templateId"`
	TemplateName    string     `json:"templateName"`
	TemplateType    string     `json:"templateType"`
	ScheduledTime   time.Time  `json:"scheduledTime"`
	ActualStartTime *time.Time `json:"actualStartTime"`
	EndTime         time.Time  `json:"endTime"`
	Duration        *int       `json:"duration"` // seconds, tasks only
	Violations      []string   `json:"violations"`
	Notes           string     `json:"notes"`
	TimeNodes       TimeNodes  `json:"timeNodes"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// Template is a reusable task definition. Records snapshot its name and
// type, so editing a template never rewrites history.
type Template struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	Type              string    `json:"type"`
	TimerKind         TimerKind `json:"timerType"`
	CountdownSeconds  int       `json:"countdownTime"`
	CountupMinSeconds int       `json:"countupMinTime"`
	CountupMaxSeconds int       `json:"countupMaxTime"`
	ForbiddenActions  []string  `json:"forbiddenActions"`
	CreatedAt         time.Time `json:"createdAt"`
}

// TaskDurationSeconds returns the timer budget for the task phase:
// the countdown time for countdown templates, the count-up ceiling otherwise.
func (t *Template) TaskDurationSeconds() int {
	if t.TimerKind == TimerCountdown {
		return t.CountdownSeconds
	}
	return t.CountupMaxSeconds
}

// TaskType is a named category templates belong to.
type TaskType struct {
	Name      string `json:"name"`
	Color     string `json:"color"`
	TextColor string `json:"textColor"`
}

// Settings are the user-facing domain settings. They are persisted in the
// aggregate (not config.json) so they travel with exports.
type Settings struct {
	DefaultAppointmentSeconds int        `json:"defaultAppointmentTime"`
	Theme                     string     `json:"theme"`
	Notifications             bool       `json:"notifications"`
	AutoSave                  bool       `json:"autoSave"`
	TaskTypes                 []TaskType `json:"taskTypes"`
}

// Chain is a legacy streak-tracking structure. It has no operations here but
// is carried in the aggregate so older exports round-trip unchanged.
type Chain struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Items         []any     `json:"items"`
	CurrentStreak int       `json:"currentStreak"`
	MaxStreak     int       `json:"maxStreak"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Data is the single JSON aggregate persisted under one storage key.
type Data struct {
	Templates    []Template `json:"templates"`
	Chains       []Chain    `json:"chains"`
	Settings     Settings   `json:"settings"`
	CurrentChain *string    `json:"currentChain"`
	History      []Record   `json:"history"`
	LastUpdated  time.Time  `json:"lastUpdated"`
}

// DefaultSettings returns the stock settings for a fresh install:
// a 15-minute appointment countdown and the five stock task types.
func DefaultSettings() Settings {
	return Settings{
		DefaultAppointmentSeconds: 900,
		Theme:                     "light",
		Notifications:             true,
		AutoSave:                  true,
		TaskTypes: []TaskType{
			{Name: "study", Color: "#2383e2", TextColor: "#ffffff"},
			{Name: "work", Color: "#10b981", TextColor: "#ffffff"},
			{Name: "exercise", Color: "#f59e0b", TextColor: "#ffffff"},
			{Name: "rest", Color: "#8b5cf6", TextColor: "#ffffff"},
			{Name: "play", Color: "#ef4444", TextColor: "#ffffff"},
		},
	}
}

// DefaultData returns an empty aggregate with default settings.
func DefaultData() *Data {
	return &Data{
		Templates:   []Template{},
		Chains:      []Chain{},
		Settings:    DefaultSettings(),
		History:     []Record{},
		LastUpdated: time.Now().UTC(),
	}
}

// FindTemplate returns the template with the given id, or nil.
func (d *Data) FindTemplate(id string) *Template {
	for i := range d.Templates {
		if d.Templates[i].ID == id {
			return &d.Templates[i]
		}
	}
	return nil
}

// FindTaskType returns the task type with the given name, or nil.
func (d *Data) FindTaskType(name string) *TaskType {
	for i := range d.Settings.TaskTypes {
		if d.Settings.TaskTypes[i].Name == name {
			return &d.Settings.TaskTypes[i]
		}
	}
	return nil
}
