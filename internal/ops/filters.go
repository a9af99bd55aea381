package ops

import (
	"strings"

	"github.com/jmhooper/vikunja-mcp/internal/errors"
	"github.com/jmhooper/vikunja-mcp/internal/filter"
)

// MaxFilterNameLength bounds saved-filter names.
const MaxFilterNameLength = 100

// SavedFilterView is the wire shape of a saved filter.
type SavedFilterView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Expression  string `json:"expression"`
	Description string `json:"description,omitempty"`
	CreatedAt   int64  `json:"created_at"`
	LastUsedAt  int64  `json:"last_used_at"`
}

// SaveFilterInput contains parameters for the SaveFilter operation.
type SaveFilterInput struct {
	SessionID   string
	Name        string
	Expression  string
	Description string
}

// SaveFilter validates and stores a named filter in the caller's session.
// The expression is fully parsed before storage so a saved filter can
// never fail to parse on later use under the same schema and limits.
func SaveFilter(deps *Deps, input SaveFilterInput) (*SavedFilterView, error) {
	if input.SessionID == "" {
		return nil, errors.NewInvalidRequest("session_id is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.NewInvalidRequest("name is required")
	}
	if len(name) > MaxFilterNameLength {
		return nil, errors.NewInvalidRequest("name is too long")
	}
	if input.Expression == "" {
		return nil, errors.NewInvalidRequest("expression is required")
	}

	if _, err := filter.Parse(input.Expression, deps.Schema, deps.Limits()); err != nil {
		return nil, err
	}

	saved, err := deps.Store.Save(input.SessionID, name, input.Expression, strings.TrimSpace(input.Description))
	if err != nil {
		return nil, err
	}
	view := viewOf(saved)
	return &view, nil
}

// ListFiltersOutput contains the result of the ListFilters operation.
type ListFiltersOutput struct {
	Filters []SavedFilterView `json:"filters"`
	Total   int               `json:"total"`
}

// ListFilters returns the session's saved filters, oldest first.
func ListFilters(deps *Deps, sessionID string) (*ListFiltersOutput, error) {
	if sessionID == "" {
		return nil, errors.NewInvalidRequest("session_id is required")
	}

	saved := deps.Store.List(sessionID)
	views := make([]SavedFilterView, 0, len(saved))
	for _, f := range saved {
		views = append(views, viewOf(f))
	}
	return &ListFiltersOutput{Filters: views, Total: len(views)}, nil
}

// GetFilter resolves one saved filter by id or name within the session.
func GetFilter(deps *Deps, sessionID, ref string) (*SavedFilterView, error) {
	if sessionID == "" {
		return nil, errors.NewInvalidRequest("session_id is required")
	}
	if strings.TrimSpace(ref) == "" {
		return nil, errors.NewInvalidRequest("id or name is required")
	}

	saved, err := deps.Store.Get(sessionID, ref)
	if err != nil {
		return nil, err
	}
	view := viewOf(saved)
	return &view, nil
}

// DeleteFilter removes one saved filter by id or name within the session.
func DeleteFilter(deps *Deps, sessionID, ref string) error {
	if sessionID == "" {
		return errors.NewInvalidRequest("session_id is required")
	}
	if strings.TrimSpace(ref) == "" {
		return errors.NewInvalidRequest("id or name is required")
	}
	return deps.Store.Delete(sessionID, ref)
}

func viewOf(f filter.Saved) SavedFilterView {
	return SavedFilterView{
		ID:          f.ID,
		Name:        f.Name,
		Expression:  f.Expression,
		Description: f.Description,
		CreatedAt:   f.CreatedAt,
		LastUsedAt:  f.LastUsedAt,
	}
}
