package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jmhooper/vikunja-mcp/internal/ops"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"tasks_filter": {
		def:     filterTasksToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFilterTasks },
	},
	"filters_save": {
		def:     saveFilterToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSaveFilter },
	},
	"filters_list": {
		def:     listFiltersToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleListFilters },
	},
	"filters_get": {
		def:     getFilterToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGetFilter },
	},
	"filters_delete": {
		def:     deleteFilterToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeleteFilter },
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

// NewServer creates a new MCP server with the task-filter tools
// registered. Tools listed in deps.Cfg.DisabledTools are excluded.
func NewServer(deps *ops.Deps, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"vikunja-mcp",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(deps)

	disabled := make(map[string]bool)
	for _, name := range deps.Cfg.DisabledTools {
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
func Run(deps *ops.Deps, version string) error {
	s := NewServer(deps, version)
	return server.ServeStdio(s)
}
