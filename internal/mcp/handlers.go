package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/appointworks/appoint/internal/config"
	"github.com/appointworks/appoint/internal/errors"
	"github.com/appointworks/appoint/internal/history"
	"github.com/appointworks/appoint/internal/ops"
	"github.com/appointworks/appoint/internal/record"
	"github.com/appointworks/appoint/internal/session"
)

// Handlers holds dependencies for MCP tool handlers. The machine is
// created lazily on first use so a server that only reads history never
// arms a timer.
type Handlers struct {
	svc *ops.Service
	cfg *config.Config

	machineOnce sync.Once
	machine     *session.Machine
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(svc *ops.Service, cfg *config.Config) *Handlers {
	return &Handlers{svc: svc, cfg: cfg}
}

func (h *Handlers) getMachine() *session.Machine {
	h.machineOnce.Do(func() {
		h.machine = newMachine(h.svc)
	})
	return h.machine
}

// Request types for each tool

// TemplateCreateRequest represents the arguments for template_create.
type TemplateCreateRequest struct {
	Name             string   `json:"name"`
	Description      string   `json:"description,omitempty"`
	Type             string   `json:"type"`
	TimerType        string   `json:"timer_type,omitempty"`
	CountdownTime    int      `json:"countdown_time,omitempty"`
	CountupMinTime   int      `json:"countup_min_time,omitempty"`
	CountupMaxTime   int      `json:"countup_max_time,omitempty"`
	ForbiddenActions []string `json:"forbidden_actions,omitempty"`
}

// TemplateUpdateRequest represents the arguments for template_update.
type TemplateUpdateRequest struct {
	ID               string   `json:"id"`
	Name             *string  `json:"name,omitempty"`
	Description      *string  `json:"description,omitempty"`
	Type             *string  `json:"type,omitempty"`
	TimerType        *string  `json:"timer_type,omitempty"`
	CountdownTime    *int     `json:"countdown_time,omitempty"`
	CountupMinTime   *int     `json:"countup_min_time,omitempty"`
	CountupMaxTime   *int     `json:"countup_max_time,omitempty"`
	ForbiddenActions []string `json:"forbidden_actions,omitempty"`
}

// IDRequest addresses a single object by id.
type IDRequest struct {
	ID string `json:"id"`
}

// TaskTypeRequest represents the arguments for tasktype_add and tasktype_update.
type TaskTypeRequest struct {
	Name      string `json:"name"`
	Color     string `json:"color,omitempty"`
	TextColor string `json:"text_color,omitempty"`
}

// NameRequest addresses a single object by name.
type NameRequest struct {
	Name string `json:"name"`
}

// StartAppointmentRequest represents the arguments for session_start_appointment.
type StartAppointmentRequest struct {
	TemplateID string `json:"template_id"`
}

// FilterRequest carries the shared history filter parameters.
type FilterRequest struct {
	Kind         string `json:"kind,omitempty"`
	Outcome      string `json:"outcome,omitempty"`
	TemplateType string `json:"template_type,omitempty"`
	Search       string `json:"search,omitempty"`
	From         string `json:"from,omitempty"`
	To           string `json:"to,omitempty"`
}

// SessionIDRequest addresses a session by id.
type SessionIDRequest struct {
	SessionID string `json:"session_id"`
}

// SettingsUpdateRequest represents the arguments for data_settings_update.
type SettingsUpdateRequest struct {
	DefaultAppointmentTime *int    `json:"default_appointment_time,omitempty"`
	Theme                  *string `json:"theme,omitempty"`
	Notifications          *bool   `json:"notifications,omitempty"`
	AutoSave               *bool   `json:"auto_save,omitempty"`
}

// PathRequest represents the arguments for data_export and data_import.
type PathRequest struct {
	Path string `json:"path,omitempty"`
}

// toFilter converts the wire filter into a history.Filter.
func (r FilterRequest) toFilter() (history.Filter, error) {
	var f history.Filter

	switch r.Kind {
	case "":
	case string(record.KindAppointment), string(record.KindTask):
		k := record.Kind(r.Kind)
		f.Kind = &k
	default:
		return f, errors.NewInvalidRequest("kind must be one of: appointment, task")
	}

	switch r.Outcome {
	case "":
	case string(record.OutcomeSuccess), string(record.OutcomeFailed):
		o := record.Outcome(r.Outcome)
		f.Outcome = &o
	default:
		return f, errors.NewInvalidRequest("outcome must be one of: success, failed")
	}

	if r.TemplateType != "" {
		tt := r.TemplateType
		f.TemplateType = &tt
	}
	f.Search = r.Search

	if r.From != "" {
		from, err := parseTimeBound(r.From, false)
		if err != nil {
			return f, err
		}
		f.From = &from
	}
	if r.To != "" {
		to, err := parseTimeBound(r.To, true)
		if err != nil {
			return f, err
		}
		f.To = &to
	}

	return f, nil
}

// parseTimeBound accepts RFC 3339 or a bare date. A bare date used as an
// upper bound covers the whole day.
func parseTimeBound(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, errors.NewInvalidRequest(fmt.Sprintf("invalid time %q: use RFC 3339 or YYYY-MM-DD", s))
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, nil
}

// Handler implementations

// HandleTemplateCreate handles the template_create tool call.
func (h *Handlers) HandleTemplateCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TemplateCreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	tpl, err := h.svc.CreateTemplate(ops.TemplateCreateInput{
		Name:              input.Name,
		Description:       input.Description,
		Type:              input.Type,
		TimerKind:         record.TimerKind(input.TimerType),
		CountdownSeconds:  input.CountdownTime,
		CountupMinSeconds: input.CountupMinTime,
		CountupMaxSeconds: input.CountupMaxTime,
		ForbiddenActions:  input.ForbiddenActions,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(tpl)
}

// HandleTemplateGet handles the template_get tool call.
func (h *Handlers) HandleTemplateGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	tpl, err := h.svc.GetTemplate(input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(tpl)
}

// HandleTemplateList handles the template_list tool call.
func (h *Handlers) HandleTemplateList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templates, err := h.svc.ListTemplates()
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"templates": templates, "count": len(templates)})
}

// HandleTemplateUpdate handles the template_update tool call.
func (h *Handlers) HandleTemplateUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TemplateUpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	update := ops.TemplateUpdateInput{
		ID:                input.ID,
		Name:              input.Name,
		Description:       input.Description,
		Type:              input.Type,
		CountdownSeconds:  input.CountdownTime,
		CountupMinSeconds: input.CountupMinTime,
		CountupMaxSeconds: input.CountupMaxTime,
		ForbiddenActions:  input.ForbiddenActions,
	}
	if input.TimerType != nil {
		tk := record.TimerKind(*input.TimerType)
		update.TimerKind = &tk
	}

	tpl, err := h.svc.UpdateTemplate(update)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(tpl)
}

// HandleTemplateDelete handles the template_delete tool call.
func (h *Handlers) HandleTemplateDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if err := h.svc.DeleteTemplate(input.ID); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"deleted": input.ID})
}

// HandleTaskTypeAdd handles the tasktype_add tool call.
func (h *Handlers) HandleTaskTypeAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TaskTypeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	tt, err := h.svc.AddTaskType(ops.TaskTypeInput{
		Name:      input.Name,
		Color:     input.Color,
		TextColor: input.TextColor,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(tt)
}

// HandleTaskTypeList handles the tasktype_list tool call.
func (h *Handlers) HandleTaskTypeList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	types, err := h.svc.ListTaskTypes()
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"task_types": types, "count": len(types)})
}

// HandleTaskTypeUpdate handles the tasktype_update tool call.
func (h *Handlers) HandleTaskTypeUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TaskTypeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	tt, err := h.svc.UpdateTaskType(ops.TaskTypeInput{
		Name:      input.Name,
		Color:     input.Color,
		TextColor: input.TextColor,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(tt)
}

// HandleTaskTypeDelete handles the tasktype_delete tool call.
func (h *Handlers) HandleTaskTypeDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NameRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if err := h.svc.DeleteTaskType(input.Name); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"deleted": input.Name})
}

// HandleStartAppointment handles the session_start_appointment tool call.
func (h *Handlers) HandleStartAppointment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[StartAppointmentRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	m := h.getMachine()
	if err := m.StartAppointment(input.TemplateID); err != nil {
		return errorResult(err), nil
	}
	return successResult(m.Status())
}

// HandleStartTask handles the session_start_task tool call.
func (h *Handlers) HandleStartTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m := h.getMachine()
	if err := m.StartTask(); err != nil {
		return errorResult(err), nil
	}
	return successResult(m.Status())
}

// HandleAbandon handles the session_abandon tool call.
func (h *Handlers) HandleAbandon(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m := h.getMachine()
	if err := m.Abandon(); err != nil {
		return errorResult(err), nil
	}
	return successResult(m.Status())
}

// HandleSessionStatus handles the session_status tool call.
func (h *Handlers) HandleSessionStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(h.getMachine().Status())
}

// HandlePause handles the session_pause tool call.
func (h *Handlers) HandlePause(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m := h.getMachine()
	m.Timer().Pause()
	return successResult(m.Status())
}

// HandleResume handles the session_resume tool call.
func (h *Handlers) HandleResume(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m := h.getMachine()
	m.Timer().Resume()
	return successResult(m.Status())
}

// HandleHistorySessions handles the history_sessions tool call.
func (h *Handlers) HandleHistorySessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FilterRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	f, err := input.toFilter()
	if err != nil {
		return errorResult(err), nil
	}

	sessions, err := h.svc.ListSessions(f)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"sessions": sessions, "count": len(sessions)})
}

// HandleHistoryRecords handles the history_records tool call.
func (h *Handlers) HandleHistoryRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FilterRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	f, err := input.toFilter()
	if err != nil {
		return errorResult(err), nil
	}

	records, err := h.svc.ListRecords(f)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"records": records, "count": len(records)})
}

// HandleHistoryStats handles the history_stats tool call.
func (h *Handlers) HandleHistoryStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FilterRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	f, err := input.toFilter()
	if err != nil {
		return errorResult(err), nil
	}

	stats, err := h.svc.ComputeStats(f)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(stats)
}

// HandleDeleteRecord handles the history_delete_record tool call.
func (h *Handlers) HandleDeleteRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if err := h.svc.DeleteRecord(input.ID); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"deleted": input.ID})
}

// HandleDeleteSession handles the history_delete_session tool call.
func (h *Handlers) HandleDeleteSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionIDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	removed, err := h.svc.DeleteSession(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"deleted": input.SessionID, "records_removed": removed})
}

// HandleClearHistory handles the history_clear tool call.
func (h *Handlers) HandleClearHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	removed, err := h.svc.ClearHistory()
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"records_removed": removed})
}

// HandleSettingsGet handles the data_settings_get tool call.
func (h *Handlers) HandleSettingsGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	settings, err := h.svc.GetSettings()
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(settings)
}

// HandleSettingsUpdate handles the data_settings_update tool call.
func (h *Handlers) HandleSettingsUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SettingsUpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	settings, err := h.svc.UpdateSettings(ops.SettingsUpdateInput{
		DefaultAppointmentSeconds: input.DefaultAppointmentTime,
		Theme:                     input.Theme,
		Notifications:             input.Notifications,
		AutoSave:                  input.AutoSave,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(settings)
}

// HandleExport handles the data_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PathRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	out, err := h.svc.Export(ops.ExportInput{Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleImport handles the data_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PathRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	out, err := h.svc.Import(ops.ImportInput{Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// errorResult creates an MCP error result from any error.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if appErr, ok := err.(*errors.AppointError); ok {
		errorObj := map[string]any{
			"code":    appErr.Code,
			"message": appErr.Message,
			"status":  appErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or driver errors
		if appErr.Code != errors.ErrInternal && appErr.Details != nil {
			errorObj["details"] = appErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
