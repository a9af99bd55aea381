package db

import (
	"database/sql"
	"strings"

	"github.com/jmhooper/vikunja-mcp/internal/errors"
	"github.com/jmhooper/vikunja-mcp/internal/filter"
)

// InsertFilter stores a saved filter, creating the owning session row if
// it does not exist yet.
func InsertFilter(db *sql.DB, f *filter.Saved) error {
	if err := TouchSession(db, f.SessionID, f.CreatedAt); err != nil {
		return err
	}

	var description sql.NullString
	if f.Description != "" {
		description = sql.NullString{String: f.Description, Valid: true}
	}

	query := `
		INSERT INTO saved_filters (
			id, session_id, name, expression, description,
			created_at, last_used_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query,
		f.ID, f.SessionID, f.Name, f.Expression, description,
		f.CreatedAt, f.LastUsedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return errors.NewNameAlreadyExists(f.Name)
		}
		return errors.NewInternal(err)
	}

	return nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ListFilters returns all saved filters for one session, oldest first.
func ListFilters(db *sql.DB, sessionID string) ([]*filter.Saved, error) {
	query := `
		SELECT id, session_id, name, expression, description,
			created_at, last_used_at
		FROM saved_filters
		WHERE session_id = ?
		ORDER BY created_at
	`

	rows, err := db.Query(query, sessionID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var filters []*filter.Saved
	for rows.Next() {
		f, err := scanFilter(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		filters = append(filters, f)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return filters, nil
}

// ListAllFilters returns every saved filter across sessions; used to warm
// the in-memory store on startup.
func ListAllFilters(db *sql.DB) ([]*filter.Saved, error) {
	query := `
		SELECT id, session_id, name, expression, description,
			created_at, last_used_at
		FROM saved_filters
		ORDER BY session_id, created_at
	`

	rows, err := db.Query(query)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var filters []*filter.Saved
	for rows.Next() {
		f, err := scanFilter(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		filters = append(filters, f)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return filters, nil
}

// DeleteFilter removes a saved filter scoped to its owning session. A
// missing row and a cross-session id report the same NOT_FOUND.
func DeleteFilter(db *sql.DB, sessionID, id string) error {
	result, err := db.Exec(
		`DELETE FROM saved_filters WHERE id = ? AND session_id = ?`,
		id, sessionID,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}

	return nil
}

// SessionRecord mirrors one sessions row.
type SessionRecord struct {
	ID         string
	LastSeenAt int64
}

// ListSessions returns every persisted session with its last-seen
// timestamp; used at startup to decide which sessions are still live.
func ListSessions(db *sql.DB) ([]SessionRecord, error) {
	rows, err := db.Query(`SELECT id, last_seen_at FROM sessions`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var sessions []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		if err := rows.Scan(&rec.ID, &rec.LastSeenAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		sessions = append(sessions, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return sessions, nil
}

// DeleteSession removes a session row and all of its saved filters.
func DeleteSession(db *sql.DB, sessionID string) error {
	if _, err := db.Exec(`DELETE FROM saved_filters WHERE session_id = ?`, sessionID); err != nil {
		return errors.NewInternal(err)
	}
	if _, err := db.Exec(`DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// TouchSession upserts the session row's last-seen timestamp.
func TouchSession(db *sql.DB, sessionID string, seenAt int64) error {
	query := `
		INSERT INTO sessions (id, last_seen_at) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET last_seen_at = excluded.last_seen_at
	`
	if _, err := db.Exec(query, sessionID, seenAt); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// TouchFilter updates a saved filter's last-used timestamp.
func TouchFilter(db *sql.DB, sessionID, id string, usedAt int64) error {
	if _, err := db.Exec(
		`UPDATE saved_filters SET last_used_at = ? WHERE id = ? AND session_id = ?`,
		usedAt, id, sessionID,
	); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// scanFilter scans a single row into a Saved struct.
func scanFilter(rows *sql.Rows) (*filter.Saved, error) {
	var (
		f           filter.Saved
		description sql.NullString
	)

	err := rows.Scan(
		&f.ID, &f.SessionID, &f.Name, &f.Expression, &description,
		&f.CreatedAt, &f.LastUsedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		f.Description = description.String
	}

	return &f, nil
}
