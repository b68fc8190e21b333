// Package mcp exposes the appoint operations and the live session machine
// as MCP tools over stdio.
package mcp

import (
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/appointworks/appoint/internal/config"
	"github.com/appointworks/appoint/internal/ops"
	"github.com/appointworks/appoint/internal/session"
)

// KnownTypes lists all valid tool type names.
var KnownTypes = []string{"template", "tasktype", "session", "history", "data"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
// Names follow the pattern "type_action".
var toolRegistry = map[string]toolEntry{
	"template_create": {
		def:     templateCreateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTemplateCreate },
	},
	"template_get": {
		def:     templateGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTemplateGet },
	},
	"template_list": {
		def:     templateListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTemplateList },
	},
	"template_update": {
		def:     templateUpdateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTemplateUpdate },
	},
	"template_delete": {
		def:     templateDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTemplateDelete },
	},
	"tasktype_add": {
		def:     taskTypeAddToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTaskTypeAdd },
	},
	"tasktype_list": {
		def:     taskTypeListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTaskTypeList },
	},
	"tasktype_update": {
		def:     taskTypeUpdateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTaskTypeUpdate },
	},
	"tasktype_delete": {
		def:     taskTypeDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTaskTypeDelete },
	},
	"session_start_appointment": {
		def:     sessionStartAppointmentToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleStartAppointment },
	},
	"session_start_task": {
		def:     sessionStartTaskToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleStartTask },
	},
	"session_abandon": {
		def:     sessionAbandonToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAbandon },
	},
	"session_status": {
		def:     sessionStatusToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionStatus },
	},
	"session_pause": {
		def:     sessionPauseToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePause },
	},
	"session_resume": {
		def:     sessionResumeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleResume },
	},
	"history_sessions": {
		def:     historySessionsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHistorySessions },
	},
	"history_records": {
		def:     historyRecordsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHistoryRecords },
	},
	"history_stats": {
		def:     historyStatsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHistoryStats },
	},
	"history_delete_record": {
		def:     historyDeleteRecordToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeleteRecord },
	},
	"history_delete_session": {
		def:     historyDeleteSessionToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeleteSession },
	},
	"history_clear": {
		def:     historyClearToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleClearHistory },
	},
	"data_settings_get": {
		def:     settingsGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSettingsGet },
	},
	"data_settings_update": {
		def:     settingsUpdateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSettingsUpdate },
	},
	"data_export": {
		def:     exportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport },
	},
	"data_import": {
		def:     importToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleImport },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "template_create" → "template").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	tools := make([]string, 0)
	for name := range toolRegistry {
		typ := GetTypeForTool(name)
		if typeSet[typ] {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates a new MCP server with appoint tools registered. The
// server owns the live session machine: session tools drive it, and its
// records land in the service's store. Tools listed in cfg.DisabledTools
// or belonging to cfg.DisabledTypes are excluded from registration.
func NewServer(svc *ops.Service, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"appoint",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(svc, cfg)

	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(cfg.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(svc *ops.Service, cfg *config.Config, version string) error {
	s := NewServer(svc, cfg, version)
	return server.ServeStdio(s)
}

// newMachine builds the live session machine against the service, which
// acts as both template source and record sink.
func newMachine(svc *ops.Service) *session.Machine {
	return session.New(svc, svc)
}
