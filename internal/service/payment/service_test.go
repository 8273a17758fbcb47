package payment

import (
	"context"
	"sync"
	"testing"

	"github.com/gatepass/gatepass/internal/domain"
	"github.com/gatepass/gatepass/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore mimics the guarded status flip: only a pending booking can be
// confirmed, and each reference may be attached once.
type fakeStore struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*domain.Booking
	usedRefs map[string]bool
}

func newFakeStore(bookings ...*domain.Booking) *fakeStore {
	s := &fakeStore{
		bookings: make(map[uuid.UUID]*domain.Booking),
		usedRefs: make(map[string]bool),
	}
	for _, b := range bookings {
		s.bookings[b.ID] = b
	}
	return s
}

func (s *fakeStore) ConfirmPayment(_ context.Context, id uuid.UUID, reference string) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if b.Status != domain.BookingPending {
		return nil, repository.ErrAlreadyFinalized
	}
	if s.usedRefs[reference] {
		return nil, repository.ErrDuplicateReference
	}

	b.Status = domain.BookingConfirmed
	b.PaymentReference = reference
	b.HoldExpiresAt = nil
	s.usedRefs[reference] = true

	cp := *b
	return &cp, nil
}

func pendingBooking() *domain.Booking {
	return &domain.Booking{
		ID:      uuid.New(),
		EventID: 1,
		Status:  domain.BookingPending,
	}
}

func TestVerify(t *testing.T) {
	b := pendingBooking()
	svc := New(newFakeStore(b))

	got, err := svc.Verify(context.Background(), b.ID, "UTR-123456")
	require.NoError(t, err)

	assert.Equal(t, domain.BookingConfirmed, got.Status)
	assert.Equal(t, "UTR-123456", got.PaymentReference)
	assert.Nil(t, got.HoldExpiresAt)
}

func TestVerify_TrimsReference(t *testing.T) {
	b := pendingBooking()
	svc := New(newFakeStore(b))

	got, err := svc.Verify(context.Background(), b.ID, "  UTR-123456  ")
	require.NoError(t, err)
	assert.Equal(t, "UTR-123456", got.PaymentReference)
}

func TestVerify_EmptyReference(t *testing.T) {
	b := pendingBooking()
	svc := New(newFakeStore(b))

	_, err := svc.Verify(context.Background(), b.ID, "   ")
	assert.ErrorIs(t, err, ErrEmptyReference)
}

func TestVerify_NotFound(t *testing.T) {
	svc := New(newFakeStore())

	_, err := svc.Verify(context.Background(), uuid.New(), "UTR-1")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestVerify_SecondAttemptLoses(t *testing.T) {
	b := pendingBooking()
	svc := New(newFakeStore(b))

	_, err := svc.Verify(context.Background(), b.ID, "UTR-1")
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), b.ID, "UTR-2")
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
}

func TestVerify_DuplicateReference(t *testing.T) {
	b1 := pendingBooking()
	b2 := pendingBooking()
	svc := New(newFakeStore(b1, b2))

	_, err := svc.Verify(context.Background(), b1.ID, "UTR-1")
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), b2.ID, "UTR-1")
	assert.ErrorIs(t, err, ErrDuplicateReference)
}

func TestVerify_ExactlyOnceUnderConcurrency(t *testing.T) {
	const attempts = 20

	b := pendingBooking()
	svc := New(newFakeStore(b))

	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Verify(context.Background(), b.ID, "UTR-RACE")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var won int
	for err := range results {
		if err == nil {
			won++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyFinalized)
		}
	}
	assert.Equal(t, 1, won)
}
