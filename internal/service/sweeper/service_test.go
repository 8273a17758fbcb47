package sweeper

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/gatepass/gatepass/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore holds pending deadlines and expires the overdue ones exactly once.
type fakeStore struct {
	mu        sync.Mutex
	deadlines map[int64]time.Time // booking seq -> hold deadline
	expired   map[int64]bool
	perQty    int64
	clamped   []int64
	err       error
}

func (s *fakeStore) ExpireDue(_ context.Context, now time.Time) (domain.SweepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return domain.SweepResult{}, s.err
	}

	var res domain.SweepResult
	for id, deadline := range s.deadlines {
		if s.expired[id] || deadline.After(now) {
			continue
		}
		s.expired[id] = true
		res.ExpiredCount++
		res.InventoryReleased += s.perQty
	}
	if res.ExpiredCount > 0 {
		res.EventIDs = []int64{1}
		res.ClampedSections = s.clamped
	}
	return res, nil
}

func TestSweep(t *testing.T) {
	now := time.Now()
	store := &fakeStore{
		deadlines: map[int64]time.Time{
			1: now.Add(-time.Minute),
			2: now.Add(-time.Second),
			3: now.Add(time.Hour), // still inside its hold window
		},
		expired: make(map[int64]bool),
		perQty:  2,
	}
	svc := New(store, nil, nil, nil)

	res, err := svc.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), res.ExpiredCount)
	assert.Equal(t, int64(4), res.InventoryReleased)
	assert.False(t, store.expired[3])
}

func TestSweep_Idempotent(t *testing.T) {
	store := &fakeStore{
		deadlines: map[int64]time.Time{1: time.Now().Add(-time.Minute)},
		expired:   make(map[int64]bool),
		perQty:    3,
	}
	svc := New(store, nil, nil, nil)

	first, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ExpiredCount)

	second, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second.ExpiredCount)
	assert.Zero(t, second.InventoryReleased)
}

func TestSweep_NothingDue(t *testing.T) {
	store := &fakeStore{
		deadlines: map[int64]time.Time{1: time.Now().Add(time.Hour)},
		expired:   make(map[int64]bool),
	}
	svc := New(store, nil, nil, nil)

	res, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.ExpiredCount)
}

func TestSweep_ClampedReleaseLogged(t *testing.T) {
	store := &fakeStore{
		deadlines: map[int64]time.Time{1: time.Now().Add(-time.Minute)},
		expired:   make(map[int64]bool),
		perQty:    1,
		clamped:   []int64{42},
	}

	var logs bytes.Buffer
	svc := New(store, nil, nil, slog.New(slog.NewTextHandler(&logs, nil)))

	_, err := svc.Sweep(context.Background())
	require.NoError(t, err)

	assert.Contains(t, logs.String(), "release clamped at zero")
	assert.Contains(t, logs.String(), "section_ids")
}

func TestSweep_StoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("deadlock detected")}
	svc := New(store, nil, nil, nil)

	_, err := svc.Sweep(context.Background())
	assert.ErrorContains(t, err, "deadlock detected")
}
