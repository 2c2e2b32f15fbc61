package booking

import (
	"sync"
	"time"
)

// Session is a user's in-progress booking conversation state. Sessions live in
// memory only; a process restart loses them and the user restarts the flow.
type Session struct {
	Step           Step
	Department     Department
	Date           string // yyyy-mm-dd once resolved
	Slot           string // HH:MM once resolved
	PatientName    string
	PatientPhone   string
	ReservedAt     time.Time // set the moment a slot is provisionally held
	LastActivityAt time.Time
}

// HasReservation reports whether the session currently owns a slot hold.
func (s Session) HasReservation() bool {
	return !s.ReservedAt.IsZero() && s.Date != "" && s.Slot != ""
}

// ReservationKeyFor returns the key of the hold this session owns.
func (s Session) ReservationKeyFor() ReservationKey {
	return ReservationKey{Date: s.Date, Department: s.Department, Slot: s.Slot}
}

// SessionStore keeps one booking session per user identifier. Every mutation
// refreshes LastActivityAt, which feeds the inactivity sweep.
type SessionStore interface {
	// Get returns the user's session, creating an Idle one if absent.
	Get(userID string) Session
	// Lookup returns the user's session without creating one.
	Lookup(userID string) (Session, bool)
	Set(userID string, s Session)
	Delete(userID string)
	UpdateStep(userID string, step Step)
	// Patch applies a partial mutation to the stored session.
	Patch(userID string, apply func(*Session))
	// Range iterates sessions until fn returns false.
	Range(fn func(userID string, s Session) bool)
}

// MemorySessionStore is a mutex-guarded map implementation of SessionStore.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	now      func() time.Time
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]Session),
		now:      time.Now,
	}
}

// NewMemorySessionStoreWithClock allows injecting a clock for tests.
func NewMemorySessionStoreWithClock(now func() time.Time) *MemorySessionStore {
	s := NewMemorySessionStore()
	if now != nil {
		s.now = now
	}
	return s
}

var _ SessionStore = (*MemorySessionStore)(nil)

func (m *MemorySessionStore) Get(userID string) Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		return s
	}
	s := Session{Step: StepIdle, LastActivityAt: m.now()}
	m.sessions[userID] = s
	return s
}

func (m *MemorySessionStore) Lookup(userID string) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	return s, ok
}

func (m *MemorySessionStore) Set(userID string, s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.LastActivityAt = m.now()
	m.sessions[userID] = s
}

func (m *MemorySessionStore) Delete(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

func (m *MemorySessionStore) UpdateStep(userID string, step Step) {
	m.Patch(userID, func(s *Session) {
		s.Step = step
	})
}

func (m *MemorySessionStore) Patch(userID string, apply func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		s = Session{Step: StepIdle}
	}
	apply(&s)
	s.LastActivityAt = m.now()
	m.sessions[userID] = s
}

func (m *MemorySessionStore) Range(fn func(userID string, s Session) bool) {
	m.mu.RLock()
	snapshot := make(map[string]Session, len(m.sessions))
	for id, s := range m.sessions {
		snapshot[id] = s
	}
	m.mu.RUnlock()

	for id, s := range snapshot {
		if !fn(id, s) {
			return
		}
	}
}
