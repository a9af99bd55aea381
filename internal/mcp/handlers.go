package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/jmhooper/vikunja-mcp/internal/errors"
	"github.com/jmhooper/vikunja-mcp/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	deps *ops.Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps *ops.Deps) *Handlers {
	return &Handlers{deps: deps}
}

// Request types for each tool

// FilterTasksRequest represents the arguments for tasks_filter.
type FilterTasksRequest struct {
	Filter      string `json:"filter,omitempty"`
	SavedFilter string `json:"saved_filter,omitempty"`
}

// SaveFilterRequest represents the arguments for filters_save.
type SaveFilterRequest struct {
	Name        string `json:"name"`
	Expression  string `json:"expression"`
	Description string `json:"description,omitempty"`
}

// RefRequest represents the arguments for filters_get and filters_delete.
type RefRequest struct {
	Ref string `json:"ref"`
}

// sessionID derives the caller's session identity from the MCP transport
// session. Stdio serves a single client, so a missing session collapses
// to one shared identity rather than failing the call.
func sessionID(ctx context.Context) string {
	if session := mcpserver.ClientSessionFromContext(ctx); session != nil {
		if id := session.SessionID(); id != "" {
			return id
		}
	}
	return "default"
}

// HandleFilterTasks handles the tasks_filter tool call.
func (h *Handlers) HandleFilterTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FilterTasksRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.FilterTasks(ctx, h.deps, ops.FilterTasksInput{
		SessionID:   sessionID(ctx),
		Filter:      input.Filter,
		SavedFilter: input.SavedFilter,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSaveFilter handles the filters_save tool call.
func (h *Handlers) HandleSaveFilter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SaveFilterRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.SaveFilter(h.deps, ops.SaveFilterInput{
		SessionID:   sessionID(ctx),
		Name:        input.Name,
		Expression:  input.Expression,
		Description: input.Description,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleListFilters handles the filters_list tool call.
func (h *Handlers) HandleListFilters(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.ListFilters(h.deps, sessionID(ctx))
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleGetFilter handles the filters_get tool call.
func (h *Handlers) HandleGetFilter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RefRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.GetFilter(h.deps, sessionID(ctx), input.Ref)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleDeleteFilter handles the filters_delete tool call.
func (h *Handlers) HandleDeleteFilter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RefRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if err := ops.DeleteFilter(h.deps, sessionID(ctx), input.Ref); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"deleted": true, "ref": input.Ref})
}

// errorResult creates an MCP error result from an error.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if mErr, ok := err.(*errors.MCPError); ok {
		errorObj := map[string]any{
			"code":    mErr.Code,
			"message": mErr.Message,
			"status":  mErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if mErr.Code != errors.ErrInternal && mErr.Details != nil {
			errorObj["details"] = mErr.Details
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
