package db

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmhooper/vikunja-mcp/internal/errors"
	"github.com/jmhooper/vikunja-mcp/internal/filter"
)

func testSaved(sessionID, name string) *filter.Saved {
	now := time.Now().Unix()
	return &filter.Saved{
		ID:         ulid.Make().String(),
		SessionID:  sessionID,
		Name:       name,
		Expression: "priority >= 3",
		CreatedAt:  now,
		LastUsedAt: now,
	}
}

func TestInsertAndListFilters(t *testing.T) {
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	a := testSaved("s1", "a")
	b := testSaved("s1", "b")
	b.CreatedAt = a.CreatedAt + 1
	other := testSaved("s2", "a")

	for _, f := range []*filter.Saved{a, b, other} {
		if err := InsertFilter(database, f); err != nil {
			t.Fatalf("InsertFilter(%s) failed: %v", f.Name, err)
		}
	}

	got, err := ListFilters(database, "s1")
	if err != nil {
		t.Fatalf("ListFilters failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListFilters = %d rows, want 2", len(got))
	}
	if got[0].Name != "a" || got[1].Name != "b" {
		t.Errorf("order = %s, %s, want a, b (oldest first)", got[0].Name, got[1].Name)
	}
	if got[0].Expression != "priority >= 3" {
		t.Errorf("Expression = %q, want round-tripped source", got[0].Expression)
	}

	all, err := ListAllFilters(database)
	if err != nil {
		t.Fatalf("ListAllFilters failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("ListAllFilters = %d rows, want 3", len(all))
	}
}

func TestInsertFilter_DuplicateNamePerSession(t *testing.T) {
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	if err := InsertFilter(database, testSaved("s1", "dup")); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	err = InsertFilter(database, testSaved("s1", "dup"))
	if !errors.Is(err, errors.ErrNameAlreadyExists) {
		t.Fatalf("duplicate insert = %v, want NAME_ALREADY_EXISTS", err)
	}

	// Same name under a different session is allowed.
	if err := InsertFilter(database, testSaved("s2", "dup")); err != nil {
		t.Errorf("cross-session insert failed: %v", err)
	}
}

func TestDeleteFilter_ScopedToSession(t *testing.T) {
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	f := testSaved("s1", "mine")
	if err := InsertFilter(database, f); err != nil {
		t.Fatalf("InsertFilter failed: %v", err)
	}

	if err := DeleteFilter(database, "s2", f.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("cross-session delete = %v, want NOT_FOUND", err)
	}
	if err := DeleteFilter(database, "s1", f.ID); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	if err := DeleteFilter(database, "s1", f.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second delete = %v, want NOT_FOUND", err)
	}
}

func TestDeleteSession_RemovesFilters(t *testing.T) {
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	if err := InsertFilter(database, testSaved("s1", "a")); err != nil {
		t.Fatalf("InsertFilter failed: %v", err)
	}
	if err := InsertFilter(database, testSaved("s1", "b")); err != nil {
		t.Fatalf("InsertFilter failed: %v", err)
	}

	if err := DeleteSession(database, "s1"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	got, err := ListFilters(database, "s1")
	if err != nil {
		t.Fatalf("ListFilters failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ListFilters after DeleteSession = %d rows, want 0", len(got))
	}
}

func TestTouchFilter(t *testing.T) {
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	f := testSaved("s1", "touched")
	if err := InsertFilter(database, f); err != nil {
		t.Fatalf("InsertFilter failed: %v", err)
	}

	if err := TouchFilter(database, "s1", f.ID, f.LastUsedAt+60); err != nil {
		t.Fatalf("TouchFilter failed: %v", err)
	}
	got, err := ListFilters(database, "s1")
	if err != nil {
		t.Fatalf("ListFilters failed: %v", err)
	}
	if got[0].LastUsedAt != f.LastUsedAt+60 {
		t.Errorf("LastUsedAt = %d, want %d", got[0].LastUsedAt, f.LastUsedAt+60)
	}
}

func TestInit_SetsSchemaVersion(t *testing.T) {
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	version, err := GetUserVersion(database)
	if err != nil {
		t.Fatalf("GetUserVersion failed: %v", err)
	}
	if version != CurrentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, CurrentSchemaVersion)
	}
}
