package mcp

import "github.com/mark3labs/mcp-go/mcp"

// Filter parameters shared by the history tools.
func filterOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("kind", mcp.Description("Filter by record kind: appointment or task")),
		mcp.WithString("outcome", mcp.Description("Filter by outcome: success or failed")),
		mcp.WithString("template_type", mcp.Description("Filter by task type name")),
		mcp.WithString("search", mcp.Description("Case-insensitive substring match on template name")),
		mcp.WithString("from", mcp.Description("Inclusive lower bound on createdAt (RFC 3339 or YYYY-MM-DD)")),
		mcp.WithString("to", mcp.Description("Inclusive upper bound on createdAt (RFC 3339 or YYYY-MM-DD; a bare date covers the whole day)")),
	}
}

var templateCreateToolDef = mcp.NewTool("template_create",
	mcp.WithDescription("Create a reusable task template"),
	mcp.WithString("name", mcp.Required(), mcp.Description("Template name")),
	mcp.WithString("description", mcp.Description("Free-form description")),
	mcp.WithString("type", mcp.Required(), mcp.Description("Task type name (must already exist)")),
	mcp.WithString("timer_type", mcp.Description("countdown (default) or countup")),
	mcp.WithNumber("countdown_time", mcp.Description("Countdown length in seconds (countdown templates)")),
	mcp.WithNumber("countup_min_time", mcp.Description("Count-up minimum in seconds (countup templates)")),
	mcp.WithNumber("countup_max_time", mcp.Description("Count-up ceiling in seconds (countup templates)")),
	mcp.WithArray("forbidden_actions", mcp.Description("Actions the user commits to avoiding during the task")),
)

var templateGetToolDef = mcp.NewTool("template_get",
	mcp.WithDescription("Fetch one template by id"),
	mcp.WithString("id", mcp.Required(), mcp.Description("Template id")),
)

var templateListToolDef = mcp.NewTool("template_list",
	mcp.WithDescription("List all templates in creation order"),
)

var templateUpdateToolDef = mcp.NewTool("template_update",
	mcp.WithDescription("Update a template's fields; omitted fields are left unchanged. History records keep their snapshots."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Template id")),
	mcp.WithString("name", mcp.Description("New name")),
	mcp.WithString("description", mcp.Description("New description")),
	mcp.WithString("type", mcp.Description("New task type name")),
	mcp.WithString("timer_type", mcp.Description("countdown or countup")),
	mcp.WithNumber("countdown_time", mcp.Description("New countdown length in seconds")),
	mcp.WithNumber("countup_min_time", mcp.Description("New count-up minimum in seconds")),
	mcp.WithNumber("countup_max_time", mcp.Description("New count-up ceiling in seconds")),
	mcp.WithArray("forbidden_actions", mcp.Description("Replacement forbidden-action list")),
)

var templateDeleteToolDef = mcp.NewTool("template_delete",
	mcp.WithDescription("Delete a template; existing history records are untouched"),
	mcp.WithString("id", mcp.Required(), mcp.Description("Template id")),
)

var taskTypeAddToolDef = mcp.NewTool("tasktype_add",
	mcp.WithDescription("Register a new task type"),
	mcp.WithString("name", mcp.Required(), mcp.Description("Type name")),
	mcp.WithString("color", mcp.Description("Badge color as #rrggbb")),
	mcp.WithString("text_color", mcp.Description("Badge text color as #rrggbb")),
)

var taskTypeListToolDef = mcp.NewTool("tasktype_list",
	mcp.WithDescription("List all task types"),
)

var taskTypeUpdateToolDef = mcp.NewTool("tasktype_update",
	mcp.WithDescription("Update a task type's colors"),
	mcp.WithString("name", mcp.Required(), mcp.Description("Type name")),
	mcp.WithString("color", mcp.Description("Badge color as #rrggbb")),
	mcp.WithString("text_color", mcp.Description("Badge text color as #rrggbb")),
)

var taskTypeDeleteToolDef = mcp.NewTool("tasktype_delete",
	mcp.WithDescription("Delete a task type; rejected while any template uses it"),
	mcp.WithString("name", mcp.Required(), mcp.Description("Type name")),
)

var sessionStartAppointmentToolDef = mcp.NewTool("session_start_appointment",
	mcp.WithDescription("Open a session: start the appointment countdown for a template"),
	mcp.WithString("template_id", mcp.Required(), mcp.Description("Template to appoint")),
)

var sessionStartTaskToolDef = mcp.NewTool("session_start_task",
	mcp.WithDescription("Commit to the task: records the appointment as a success and starts the task timer"),
)

var sessionAbandonToolDef = mcp.NewTool("session_abandon",
	mcp.WithDescription("Abandon the pending appointment or task, recording it as failed"),
)

var sessionStatusToolDef = mcp.NewTool("session_status",
	mcp.WithDescription("Show the live session phase and timer state"),
)

var sessionPauseToolDef = mcp.NewTool("session_pause",
	mcp.WithDescription("Pause the running timer"),
)

var sessionResumeToolDef = mcp.NewTool("session_resume",
	mcp.WithDescription("Resume a paused timer"),
)

var historySessionsToolDef = mcp.NewTool("history_sessions",
	append([]mcp.ToolOption{
		mcp.WithDescription("List derived session views (appointment + task pairs), newest first"),
	}, filterOptions()...)...,
)

var historyRecordsToolDef = mcp.NewTool("history_records",
	append([]mcp.ToolOption{
		mcp.WithDescription("List raw history records in insertion order"),
	}, filterOptions()...)...,
)

var historyStatsToolDef = mcp.NewTool("history_stats",
	append([]mcp.ToolOption{
		mcp.WithDescription("Compute statistics over the filtered history"),
	}, filterOptions()...)...,
)

var historyDeleteRecordToolDef = mcp.NewTool("history_delete_record",
	mcp.WithDescription("Delete one history record by id"),
	mcp.WithString("id", mcp.Required(), mcp.Description("Record id")),
)

var historyDeleteSessionToolDef = mcp.NewTool("history_delete_session",
	mcp.WithDescription("Delete every record sharing a session id"),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
)

var historyClearToolDef = mcp.NewTool("history_clear",
	mcp.WithDescription("Delete the entire history log; templates and settings are kept"),
)

var settingsGetToolDef = mcp.NewTool("data_settings_get",
	mcp.WithDescription("Show the current settings"),
)

var settingsUpdateToolDef = mcp.NewTool("data_settings_update",
	mcp.WithDescription("Update settings; omitted fields are left unchanged"),
	mcp.WithNumber("default_appointment_time", mcp.Description("Appointment countdown length in seconds")),
	mcp.WithString("theme", mcp.Description("light or dark")),
	mcp.WithBoolean("notifications", mcp.Description("Enable completion notifications")),
	mcp.WithBoolean("auto_save", mcp.Description("Persist after every change")),
)

var exportToolDef = mcp.NewTool("data_export",
	mcp.WithDescription("Export the full data set to a JSON file"),
	mcp.WithString("path", mcp.Description("Destination path (default: ~/.appoint/exports/appoint-<timestamp>.json)")),
)

var importToolDef = mcp.NewTool("data_import",
	mcp.WithDescription("Replace the data set from an export file; the file is validated in full before anything changes"),
	mcp.WithString("path", mcp.Required(), mcp.Description("Export file to read")),
)
