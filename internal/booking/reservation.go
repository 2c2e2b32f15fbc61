package booking

import (
	"context"
	"sync"
	"time"
)

// DefaultReservationTTL is how long a slot hold survives without being
// converted into an appointment.
const DefaultReservationTTL = 5 * time.Minute

// ReservationKey identifies a single bookable slot on a given day.
type ReservationKey struct {
	Date       string // yyyy-mm-dd
	Department Department
	Slot       string // HH:MM
}

// ReservationStore is a short-lived hold table preventing two users from
// selecting the same slot while one of them is mid-flow. It is a best-effort
// optimization: the durable store's uniqueness constraint remains the final
// authority on double booking.
type ReservationStore interface {
	// TryReserve stores a hold for holder. It succeeds if the key is free,
	// expired, or already held by the same holder (idempotent re-reservation),
	// and fails if a different holder owns a live hold.
	TryReserve(ctx context.Context, key ReservationKey, holder string) (bool, error)
	Release(ctx context.Context, key ReservationKey) error
	IsHeldByOther(ctx context.Context, key ReservationKey, holder string) (bool, error)
	// HeldSlots returns the slots with live holds for a date and department.
	HeldSlots(ctx context.Context, date string, department Department) ([]string, error)
	// Sweep evicts expired holds and returns how many were removed.
	Sweep(ctx context.Context, now time.Time) int
}

type hold struct {
	holder string
	at     time.Time
}

// MemoryReservationStore is a mutex-guarded map implementation with
// expiry-based eviction.
type MemoryReservationStore struct {
	mu    sync.Mutex
	holds map[ReservationKey]hold
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryReservationStore creates an in-memory reservation table. A
// non-positive ttl falls back to DefaultReservationTTL.
func NewMemoryReservationStore(ttl time.Duration) *MemoryReservationStore {
	if ttl <= 0 {
		ttl = DefaultReservationTTL
	}
	return &MemoryReservationStore{
		holds: make(map[ReservationKey]hold),
		ttl:   ttl,
		now:   time.Now,
	}
}

// NewMemoryReservationStoreWithClock allows injecting a clock for tests.
func NewMemoryReservationStoreWithClock(ttl time.Duration, now func() time.Time) *MemoryReservationStore {
	s := NewMemoryReservationStore(ttl)
	if now != nil {
		s.now = now
	}
	return s
}

var _ ReservationStore = (*MemoryReservationStore)(nil)

func (m *MemoryReservationStore) live(h hold, now time.Time) bool {
	return now.Sub(h.at) <= m.ttl
}

func (m *MemoryReservationStore) TryReserve(_ context.Context, key ReservationKey, holder string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if h, ok := m.holds[key]; ok && m.live(h, now) && h.holder != holder {
		return false, nil
	}
	m.holds[key] = hold{holder: holder, at: now}
	return true, nil
}

func (m *MemoryReservationStore) Release(_ context.Context, key ReservationKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.holds, key)
	return nil
}

func (m *MemoryReservationStore) IsHeldByOther(_ context.Context, key ReservationKey, holder string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.holds[key]
	if !ok || !m.live(h, m.now()) {
		return false, nil
	}
	return h.holder != holder, nil
}

func (m *MemoryReservationStore) HeldSlots(_ context.Context, date string, department Department) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	var slots []string
	for key, h := range m.holds {
		if key.Date == date && key.Department == department && m.live(h, now) {
			slots = append(slots, key.Slot)
		}
	}
	return slots, nil
}

func (m *MemoryReservationStore) Sweep(_ context.Context, now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	evicted := 0
	for key, h := range m.holds {
		if !m.live(h, now) {
			delete(m.holds, key)
			evicted++
		}
	}
	return evicted
}
