package filter

// Saved is a named filter owned by exactly one session. Expression holds
// the raw source, not the parsed tree: it is re-parsed on use so saved
// filters are revalidated against the current schema and limits.
type Saved struct {
	ID          string // ULID
	SessionID   string
	Name        string
	Expression  string
	Description string
	CreatedAt   int64 // Unix seconds
	LastUsedAt  int64 // Unix seconds
}
