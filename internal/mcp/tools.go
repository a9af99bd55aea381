package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var filterTasksToolDef = mcp.NewTool("tasks_filter",
	mcp.WithDescription(`Query tasks with a filter expression.

The filter language supports comparisons (= != > >= < <=), substring match
(like / CONTAINS), set membership (in / not in), ranges (between X and Y),
and AND/OR grouping with parentheses. Field names: id, title, description,
done, priority, percent_done, due_date, created, updated, project_id,
labels, assignees. Dates are quoted ISO 8601 strings.

EXAMPLES:
  priority >= 3 AND done = false
  title like 'release' OR labels in ('urgent', 'blocked')
  due_date between '2026-01-01' and '2026-06-30'

Filters run on the remote API when its query language supports every
condition; otherwise evaluation falls back to this server, subject to a
memory ceiling. The response reports provenance: "server", "client", or
"hybrid-merged".`),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithIdempotentHintAnnotation(true),
	mcp.WithString("filter",
		mcp.Description("Filter expression. Mutually exclusive with saved_filter."),
	),
	mcp.WithString("saved_filter",
		mcp.Description("Id or name of a saved filter to run. Mutually exclusive with filter."),
	),
)

var saveFilterToolDef = mcp.NewTool("filters_save",
	mcp.WithDescription(`Save a named filter expression for reuse within this session.

The expression is validated immediately; a filter that does not parse is
rejected and nothing is stored. Names are unique per session. Saved
filters are private to the session that created them and are evicted
after the session has been idle for the configured window.`),
	mcp.WithString("name",
		mcp.Description("Unique name for the filter within this session."),
		mcp.Required(),
	),
	mcp.WithString("expression",
		mcp.Description("The filter expression to save."),
		mcp.Required(),
	),
	mcp.WithString("description",
		mcp.Description("Optional free-text note about what the filter is for."),
	),
)

var listFiltersToolDef = mcp.NewTool("filters_list",
	mcp.WithDescription("List this session's saved filters, oldest first."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithIdempotentHintAnnotation(true),
)

var getFilterToolDef = mcp.NewTool("filters_get",
	mcp.WithDescription("Fetch one saved filter by id or name."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithIdempotentHintAnnotation(true),
	mcp.WithString("ref",
		mcp.Description("Id or name of the saved filter."),
		mcp.Required(),
	),
)

var deleteFilterToolDef = mcp.NewTool("filters_delete",
	mcp.WithDescription("Delete one saved filter by id or name. Deleting a filter that does not exist in this session reports NOT_FOUND."),
	mcp.WithString("ref",
		mcp.Description("Id or name of the saved filter."),
		mcp.Required(),
	),
)
