package ops

import (
	"context"
	"fmt"

	"github.com/jmhooper/vikunja-mcp/internal/errors"
	"github.com/jmhooper/vikunja-mcp/internal/filter"
	"github.com/jmhooper/vikunja-mcp/internal/task"
)

// FilterTasksInput contains parameters for the FilterTasks operation.
// Exactly one of Filter and SavedFilter must be set; SavedFilter names a
// stored filter by id or name within the caller's session.
type FilterTasksInput struct {
	SessionID   string
	Filter      string
	SavedFilter string
}

// FilterTasksOutput contains the result of the FilterTasks operation.
type FilterTasksOutput struct {
	Items      []task.Task `json:"items"`
	Provenance string      `json:"provenance"`
	Warnings   []string    `json:"warnings,omitempty"`
}

// FilterTasks is the primary query entry point. It parses and validates
// the filter, then routes evaluation:
//
//  1. Fully server-translatable filters run on the remote API.
//  2. A root-level AND with a translatable subset pushes that subset to
//     the server and evaluates the remainder locally over the prefiltered
//     set (hybrid-merged).
//  3. Everything else fetches the full collection and evaluates locally,
//     subject to the memory risk gate.
//
// Remote failures are always surfaced as REMOTE_ERROR. They never trigger
// client fallback and are never reported as an empty result: fallback is
// reserved for translation incompatibility, which is decided here before
// any call goes over the wire.
func FilterTasks(ctx context.Context, deps *Deps, input FilterTasksInput) (*FilterTasksOutput, error) {
	if input.SessionID == "" {
		return nil, errors.NewInvalidRequest("session_id is required")
	}

	raw, err := resolveExpression(deps, input)
	if err != nil {
		return nil, err
	}

	expr, err := filter.Parse(raw, deps.Schema, deps.Limits())
	if err != nil {
		return nil, err
	}

	if remoteFilter, ok := filter.Translate(expr, deps.Schema); ok {
		items, err := deps.Remote.Query(ctx, remoteFilter)
		if err != nil {
			return nil, err
		}
		return &FilterTasksOutput{
			Items:      ensureItems(items),
			Provenance: ProvenanceServer,
		}, nil
	}

	if serverExpr, localExpr := filter.Split(expr, deps.Schema); serverExpr != nil {
		remoteFilter, ok := filter.Translate(serverExpr, deps.Schema)
		if !ok {
			// Split only returns server-compatible children.
			return nil, errors.NewInternal(fmt.Errorf("split produced untranslatable prefilter for %q", raw))
		}
		items, err := deps.Remote.Query(ctx, remoteFilter)
		if err != nil {
			return nil, err
		}
		matched, err := evaluateLocal(deps, localExpr, items)
		if err != nil {
			return nil, err
		}
		return &FilterTasksOutput{
			Items:      matched,
			Provenance: ProvenanceHybrid,
			Warnings: []string{
				fmt.Sprintf("conditions not supported by the remote API were evaluated locally: %s",
					filter.Render(localExpr)),
			},
		}, nil
	}

	items, err := deps.Remote.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	matched, err := evaluateLocal(deps, expr, items)
	if err != nil {
		return nil, err
	}
	return &FilterTasksOutput{
		Items:      matched,
		Provenance: ProvenanceClient,
		Warnings: []string{
			"the filter is not supported by the remote API and was evaluated locally over the full collection",
		},
	}, nil
}

// resolveExpression picks the raw filter source from the input, loading a
// saved filter when referenced.
func resolveExpression(deps *Deps, input FilterTasksInput) (string, error) {
	hasRaw := input.Filter != ""
	hasSaved := input.SavedFilter != ""
	switch {
	case hasRaw && hasSaved:
		return "", errors.NewInvalidRequest("specify either filter or saved_filter, not both")
	case hasSaved:
		saved, err := deps.Store.Get(input.SessionID, input.SavedFilter)
		if err != nil {
			return "", err
		}
		return saved.Expression, nil
	case hasRaw:
		deps.Store.Touch(input.SessionID)
		return input.Filter, nil
	default:
		return "", errors.NewInvalidRequest("filter or saved_filter is required")
	}
}

// evaluateLocal runs the memory gate and then the local predicate over
// items.
func evaluateLocal(deps *Deps, expr *filter.Expression, items []task.Task) ([]task.Task, error) {
	estimator := deps.Estimator()
	est := estimator.Estimate(items, len(items))
	if err := estimator.Gate(est, deps.Cfg.AllowHighMemory); err != nil {
		return nil, err
	}
	matched := filter.Evaluate(expr, items, filter.EvalOptions{
		LikeCaseSensitive: deps.Cfg.LikeCaseSensitive,
	})
	return ensureItems(matched), nil
}

// ensureItems keeps the JSON shape an array rather than null.
func ensureItems(items []task.Task) []task.Task {
	if items == nil {
		return []task.Task{}
	}
	return items
}
