package session

import (
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmhooper/vikunja-mcp/internal/db"
	"github.com/jmhooper/vikunja-mcp/internal/errors"
	"github.com/jmhooper/vikunja-mcp/internal/filter"
)

// Store holds saved filters partitioned by session. Sessions never see
// each other's filters: names are unique per session, and a lookup with
// another session's id reports NOT_FOUND exactly like a missing id.
//
// Each session's state carries its own mutex, held across the whole
// read-modify-write of an operation, so concurrent saves against one
// session serialize while distinct sessions proceed in parallel.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*state

	// sqlDB is the optional write-through target. A nil sqlDB keeps the
	// store memory-only, which tests use.
	sqlDB *sql.DB

	idle time.Duration
	now  func() time.Time

	stop chan struct{}
	done chan struct{}
}

// state is one session's saved filters plus bookkeeping.
type state struct {
	mu       sync.Mutex
	byID     map[string]*filter.Saved
	byName   map[string]string // name -> id
	lastSeen time.Time
	evicted  bool
}

// NewStore builds a Store backed by sqlDB (nil for memory-only), warms it
// from persisted sessions that are still inside the idle window, and
// starts the idle-eviction sweep when sweepEvery is positive. Sessions
// whose idle window expired while the process was down are purged, not
// resurrected. Callers must Close the store to stop the sweep.
func NewStore(sqlDB *sql.DB, idle, sweepEvery time.Duration) (*Store, error) {
	s := &Store{
		sessions: make(map[string]*state),
		sqlDB:    sqlDB,
		idle:     idle,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	if sqlDB != nil {
		if err := s.warm(); err != nil {
			return nil, err
		}
	}

	if sweepEvery > 0 {
		go s.sweepLoop(sweepEvery)
	} else {
		close(s.done)
	}
	return s, nil
}

// warm rebuilds the in-memory arena from sqlite. Each live session's
// lastSeen is seeded from the persisted timestamp so its remaining idle
// window carries across a restart; expired sessions are deleted together
// with their filters.
func (s *Store) warm() error {
	cutoff := s.now().Add(-s.idle)

	sessions, err := db.ListSessions(s.sqlDB)
	if err != nil {
		return err
	}
	for _, rec := range sessions {
		lastSeen := time.Unix(rec.LastSeenAt, 0)
		if lastSeen.Before(cutoff) {
			if err := db.DeleteSession(s.sqlDB, rec.ID); err != nil {
				return err
			}
			continue
		}
		s.sessions[rec.ID] = &state{
			byID:     make(map[string]*filter.Saved),
			byName:   make(map[string]string),
			lastSeen: lastSeen,
		}
	}

	// Expired sessions were just purged, so every remaining filter row
	// belongs to a live session.
	saved, err := db.ListAllFilters(s.sqlDB)
	if err != nil {
		return err
	}
	for _, f := range saved {
		st, ok := s.sessions[f.SessionID]
		if !ok {
			continue
		}
		st.byID[f.ID] = f
		st.byName[f.Name] = f.ID
	}
	return nil
}

// Close stops the eviction sweep and waits for it to exit.
func (s *Store) Close() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	<-s.done
}

// Save stores a new filter under the session. The expression must already
// be validated by the caller; the store treats it as opaque text. The
// returned filter is a copy detached from the store's internal state.
func (s *Store) Save(sessionID, name, expression, description string) (filter.Saved, error) {
	st := s.lockState(sessionID)
	defer st.mu.Unlock()

	if _, exists := st.byName[name]; exists {
		return filter.Saved{}, errors.NewNameAlreadyExists(name)
	}

	now := s.now()
	f := &filter.Saved{
		ID:          ulid.Make().String(),
		SessionID:   sessionID,
		Name:        name,
		Expression:  expression,
		Description: description,
		CreatedAt:   now.Unix(),
		LastUsedAt:  now.Unix(),
	}

	if s.sqlDB != nil {
		if err := db.InsertFilter(s.sqlDB, f); err != nil {
			return filter.Saved{}, err
		}
	}

	st.byID[f.ID] = f
	st.byName[f.Name] = f.ID
	st.lastSeen = now
	return *f, nil
}

// List returns copies of the session's saved filters ordered by creation
// time.
func (s *Store) List(sessionID string) []filter.Saved {
	st := s.lockState(sessionID)
	defer st.mu.Unlock()

	st.lastSeen = s.now()
	filters := make([]filter.Saved, 0, len(st.byID))
	for _, f := range st.byID {
		filters = append(filters, *f)
	}
	sortByCreation(filters)
	return filters
}

// Get resolves a saved filter by id or by name within the session and
// bumps its last-used timestamp. The result is copied under the session
// lock: later Gets mutate the stored record, never a value already handed
// out, so callers may read it without further synchronization.
func (s *Store) Get(sessionID, ref string) (filter.Saved, error) {
	st := s.lockState(sessionID)
	defer st.mu.Unlock()

	f, ok := st.byID[ref]
	if !ok {
		if id, byName := st.byName[ref]; byName {
			f, ok = st.byID[id], true
		}
	}
	if !ok {
		return filter.Saved{}, errors.NewNotFound(ref)
	}

	now := s.now()
	st.lastSeen = now
	f.LastUsedAt = now.Unix()
	if s.sqlDB != nil {
		if err := db.TouchFilter(s.sqlDB, sessionID, f.ID, f.LastUsedAt); err != nil {
			return filter.Saved{}, err
		}
		if err := db.TouchSession(s.sqlDB, sessionID, now.Unix()); err != nil {
			return filter.Saved{}, err
		}
	}
	return *f, nil
}

// Delete removes a saved filter by id or name. Deleting an id that does
// not exist in this session reports NOT_FOUND, including a second delete
// of the same id.
func (s *Store) Delete(sessionID, ref string) error {
	st := s.lockState(sessionID)
	defer st.mu.Unlock()

	f, ok := st.byID[ref]
	if !ok {
		if id, byName := st.byName[ref]; byName {
			f, ok = st.byID[id], true
		}
	}
	if !ok {
		return errors.NewNotFound(ref)
	}

	if s.sqlDB != nil {
		if err := db.DeleteFilter(s.sqlDB, sessionID, f.ID); err != nil {
			return err
		}
	}

	delete(st.byID, f.ID)
	delete(st.byName, f.Name)
	st.lastSeen = s.now()
	return nil
}

// Touch marks the session as active without other effects.
func (s *Store) Touch(sessionID string) {
	st := s.lockState(sessionID)
	st.lastSeen = s.now()
	st.mu.Unlock()
}

// getState returns the session's state, creating it on first use.
func (s *Store) getState(sessionID string) *state {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[sessionID]
	if !ok {
		st = &state{
			byID:     make(map[string]*filter.Saved),
			byName:   make(map[string]string),
			lastSeen: s.now(),
		}
		s.sessions[sessionID] = st
	}
	return st
}

// lockState returns the session's state with its mutex held. A state
// evicted between lookup and lock is retried so operations never land on
// an orphan.
func (s *Store) lockState(sessionID string) *state {
	for {
		st := s.getState(sessionID)
		st.mu.Lock()
		if !st.evicted {
			return st
		}
		st.mu.Unlock()
	}
}

func (s *Store) sweepLoop(every time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep evicts sessions idle past the configured window, removing their
// persisted filters as well.
func (s *Store) sweep() {
	cutoff := s.now().Add(-s.idle)

	s.mu.Lock()
	var stale []string
	for id, st := range s.sessions {
		st.mu.Lock()
		if st.lastSeen.Before(cutoff) {
			stale = append(stale, id)
		}
		st.mu.Unlock()
	}
	s.mu.Unlock()

	for _, id := range stale {
		s.evict(id, cutoff)
	}
}

func (s *Store) evict(sessionID string, cutoff time.Time) {
	s.mu.Lock()
	st, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	// An operation may have touched the session since the scan.
	if !st.lastSeen.Before(cutoff) {
		return
	}
	st.evicted = true

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if s.sqlDB != nil {
		// Best-effort: a failed cleanup is retried implicitly the next
		// time the same session id appears and expires again.
		_ = db.DeleteSession(s.sqlDB, sessionID)
	}
}

func sortByCreation(filters []filter.Saved) {
	sort.Slice(filters, func(i, j int) bool {
		if filters[i].CreatedAt != filters[j].CreatedAt {
			return filters[i].CreatedAt < filters[j].CreatedAt
		}
		return filters[i].ID < filters[j].ID
	})
}
