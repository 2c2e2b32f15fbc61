package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweeperEvictsStaleSessions(t *testing.T) {
	ctx := context.Background()
	now := fixedNow()
	clock := func() time.Time { return now }

	sessions := NewMemorySessionStoreWithClock(clock)
	reservations := NewMemoryReservationStoreWithClock(5*time.Minute, clock)
	sweeper := NewSweeper(sessions, reservations, nil, nil, 30*time.Minute, time.Minute).WithClock(clock)

	// Stale session mid-flow with a live hold.
	key := ReservationKey{Date: "2026-09-02", Department: DepartmentOrtho, Slot: "10:30"}
	ok, err := reservations.TryReserve(ctx, key, "stale-user")
	require.NoError(t, err)
	require.True(t, ok)
	sessions.Set("stale-user", Session{
		Step:       StepAwaitingDetails,
		Department: DepartmentOrtho,
		Date:       "2026-09-02",
		Slot:       "10:30",
		ReservedAt: now,
	})

	now = now.Add(29 * time.Minute)
	sessions.UpdateStep("fresh-user", StepAwaitingDate)

	now = now.Add(2 * time.Minute)
	sweeper.SweepOnce(ctx)

	// The stale session is gone and its hold released in the same pass, even
	// though the hold's own TTL would have kept it only five minutes anyway.
	assert.Equal(t, StepIdle, sessions.Get("stale-user").Step)
	other, err := reservations.IsHeldByOther(ctx, key, "someone-else")
	require.NoError(t, err)
	assert.False(t, other)

	// The fresh session survives.
	assert.Equal(t, StepAwaitingDate, sessions.Get("fresh-user").Step)
}

func TestSweeperEvictsExpiredHolds(t *testing.T) {
	ctx := context.Background()
	now := fixedNow()
	clock := func() time.Time { return now }

	sessions := NewMemorySessionStoreWithClock(clock)
	reservations := NewMemoryReservationStoreWithClock(5*time.Minute, clock)
	sweeper := NewSweeper(sessions, reservations, nil, nil, 30*time.Minute, time.Minute).WithClock(clock)

	key := ReservationKey{Date: "2026-09-02", Department: DepartmentENT, Slot: "11:15"}
	_, err := reservations.TryReserve(ctx, key, "user-a")
	require.NoError(t, err)

	now = now.Add(6 * time.Minute)
	sweeper.SweepOnce(ctx)

	ok, err := reservations.TryReserve(ctx, key, "user-b")
	require.NoError(t, err)
	assert.True(t, ok)
}

// vanishingSessionStore deletes a user right after the scan reports it,
// mimicking a conversation that ends while a sweep pass is underway.
type vanishingSessionStore struct {
	*MemorySessionStore
	vanish string
}

func (v *vanishingSessionStore) Range(fn func(userID string, s Session) bool) {
	v.MemorySessionStore.Range(fn)
	v.MemorySessionStore.Delete(v.vanish)
}

func TestSweeperSkipsSessionDeletedDuringPass(t *testing.T) {
	ctx := context.Background()
	now := fixedNow()
	clock := func() time.Time { return now }

	inner := NewMemorySessionStoreWithClock(clock)
	sessions := &vanishingSessionStore{MemorySessionStore: inner, vanish: "gone-user"}
	reservations := NewMemoryReservationStoreWithClock(5*time.Minute, clock)
	sweeper := NewSweeper(sessions, reservations, nil, nil, 30*time.Minute, time.Minute).WithClock(clock)

	inner.UpdateStep("gone-user", StepAwaitingDate)
	now = now.Add(31 * time.Minute)
	sweeper.SweepOnce(ctx)

	_, ok := inner.Lookup("gone-user")
	assert.False(t, ok, "sweep must not resurrect a session deleted mid-pass")
}

func TestSweeperRunStopsOnCancel(t *testing.T) {
	sessions := NewMemorySessionStore()
	reservations := NewMemoryReservationStore(0)
	sweeper := NewSweeper(sessions, reservations, nil, nil, time.Hour, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on context cancel")
	}
}
