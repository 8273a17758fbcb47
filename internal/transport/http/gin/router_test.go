package httpgin

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gatepass/gatepass/internal/domain"
	"github.com/gatepass/gatepass/internal/repository"
	"github.com/gatepass/gatepass/internal/service"
	"github.com/gatepass/gatepass/internal/service/booking"
	"github.com/gatepass/gatepass/internal/service/discount"
	"github.com/gatepass/gatepass/internal/service/payment"
	"github.com/gatepass/gatepass/internal/service/sweeper"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	capacity map[int64]int32
	reserved map[int64]int32
	bookings map[uuid.UUID]*domain.Booking
	usedRefs map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		capacity: map[int64]int32{10: 5},
		reserved: make(map[int64]int32),
		bookings: make(map[uuid.UUID]*domain.Booking),
		usedRefs: make(map[string]bool),
	}
}

func (s *memStore) CreateWithHold(_ context.Context, b *domain.Booking) error {
	for _, t := range b.Tickets {
		if s.capacity[t.SectionID]-s.reserved[t.SectionID] < t.Quantity {
			return &repository.InsufficientCapacityError{
				SectionID: t.SectionID,
				Available: s.capacity[t.SectionID] - s.reserved[t.SectionID],
			}
		}
	}
	for _, t := range b.Tickets {
		s.reserved[t.SectionID] += t.Quantity
	}
	s.bookings[b.ID] = b
	return nil
}

func (s *memStore) Get(_ context.Context, id uuid.UUID) (*domain.Booking, error) {
	b, ok := s.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return b, nil
}

func (s *memStore) Cancel(_ context.Context, id uuid.UUID) (int64, int64, []int64, error) {
	b, ok := s.bookings[id]
	if !ok {
		return 0, 0, nil, repository.ErrNotFound
	}
	if b.Status != domain.BookingPending {
		return 0, 0, nil, repository.ErrAlreadyFinalized
	}
	b.Status = domain.BookingCancelled
	var released int64
	for _, t := range b.Tickets {
		s.reserved[t.SectionID] -= t.Quantity
		released += int64(t.Quantity)
	}
	return released, b.EventID, nil, nil
}

func (s *memStore) ConfirmPayment(_ context.Context, id uuid.UUID, reference string) (*domain.Booking, error) {
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
	s.usedRefs[reference] = true
	return b, nil
}

func (s *memStore) ExpireDue(_ context.Context, now time.Time) (domain.SweepResult, error) {
	var res domain.SweepResult
	for _, b := range s.bookings {
		if b.Status != domain.BookingPending || b.HoldExpiresAt == nil || b.HoldExpiresAt.After(now) {
			continue
		}
		b.Status = domain.BookingExpired
		res.ExpiredCount++
		for _, t := range b.Tickets {
			s.reserved[t.SectionID] -= t.Quantity
			res.InventoryReleased += int64(t.Quantity)
		}
	}
	return res, nil
}

type memCatalog struct{}

func (memCatalog) Get(_ context.Context, id int64) (*domain.Event, error) {
	if id != 1 {
		return nil, repository.ErrNotFound
	}
	return &domain.Event{ID: 1, Name: "Concert", Published: true}, nil
}

func (memCatalog) SectionsByEvent(_ context.Context, eventID int64) ([]domain.Section, error) {
	return []domain.Section{
		{ID: 10, EventID: 1, Name: "GA", UnitPriceCents: 5000, TotalCapacity: 5},
	}, nil
}

type memDiscounts struct{}

func (memDiscounts) GetByCode(_ context.Context, code string) (*domain.DiscountCode, error) {
	if code != "SAVE10" {
		return nil, repository.ErrNotFound
	}
	return &domain.DiscountCode{
		Code:      "SAVE10",
		Type:      domain.DiscountPercentage,
		Value:     10,
		ValidFrom: time.Now().Add(-time.Hour),
		ValidTill: time.Now().Add(time.Hour),
		Active:    true,
	}, nil
}

func newTestRouter(t *testing.T, store *memStore, adminToken string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svcs := &service.Services{
		Booking:  booking.New(store, memCatalog{}, memDiscounts{}, nil, nil, nil, nil, booking.Config{}),
		Payment:  payment.New(store),
		Discount: discount.New(memDiscounts{}),
		Sweeper:  sweeper.New(store, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil))),
	}

	return NewRouter(svcs, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), adminToken)
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createReq(quantity int32, code string) CreateBookingRequest {
	return CreateBookingRequest{
		EventID: 1,
		CustomerInfo: CustomerInfoInput{
			Name:  "Ann",
			Email: "ann@example.com",
		},
		SelectedTickets: []SelectedTicketInput{{SectionID: 10, Quantity: quantity}},
		DiscountCode:    code,
	}
}

func TestCreateBooking(t *testing.T) {
	r := newTestRouter(t, newMemStore(), "")

	w := doJSON(t, r, http.MethodPost, "/bookings", createReq(2, ""), nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp CreateBookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, int64(10000), resp.TotalAmount)
	assert.NotNil(t, resp.HoldExpiresAt)
	assert.NotEmpty(t, resp.BookingID)
}

func TestCreateBooking_InsufficientCapacity(t *testing.T) {
	r := newTestRouter(t, newMemStore(), "")

	w := doJSON(t, r, http.MethodPost, "/bookings", createReq(6, ""), nil)
	require.Equal(t, http.StatusConflict, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "InsufficientCapacity", resp.Error)
	assert.Equal(t, int64(10), resp.SectionID)
	require.NotNil(t, resp.Available)
	assert.Equal(t, int32(5), *resp.Available)
}

func TestCreateBooking_InvalidDiscount(t *testing.T) {
	r := newTestRouter(t, newMemStore(), "")

	w := doJSON(t, r, http.MethodPost, "/bookings", createReq(1, "NOPE"), nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "InvalidDiscount", resp.Error)
	assert.NotEmpty(t, resp.Reason)
}

func TestCreateBooking_BadPayload(t *testing.T) {
	r := newTestRouter(t, newMemStore(), "")

	w := doJSON(t, r, http.MethodPost, "/bookings", map[string]any{"event_id": 1}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetBooking(t *testing.T) {
	store := newMemStore()
	r := newTestRouter(t, store, "")

	w := doJSON(t, r, http.MethodPost, "/bookings", createReq(1, ""), nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var created CreateBookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, r, http.MethodGet, "/bookings/"+created.BookingID, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, created.BookingID, resp.BookingID)
	assert.Positive(t, resp.HoldSecondsLeft)
}

func TestGetBooking_NotFound(t *testing.T) {
	r := newTestRouter(t, newMemStore(), "")

	w := doJSON(t, r, http.MethodGet, "/bookings/"+uuid.NewString(), nil, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "NotFound", resp.Error)
}

func TestVerifyPayment(t *testing.T) {
	store := newMemStore()
	r := newTestRouter(t, store, "")

	w := doJSON(t, r, http.MethodPost, "/bookings", createReq(1, ""), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var created CreateBookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	path := "/bookings/" + created.BookingID + "/verify-payment"

	w = doJSON(t, r, http.MethodPost, path, VerifyPaymentRequest{PaymentReference: "UTR-1"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp VerifyPaymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "confirmed", resp.Status)

	// the booking is finalized, a retry conflicts
	w = doJSON(t, r, http.MethodPost, path, VerifyPaymentRequest{PaymentReference: "UTR-2"}, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "AlreadyFinalized", errResp.Error)
}

func TestVerifyPayment_DuplicateReference(t *testing.T) {
	store := newMemStore()
	r := newTestRouter(t, store, "")

	var ids []string
	for i := 0; i < 2; i++ {
		w := doJSON(t, r, http.MethodPost, "/bookings", createReq(1, ""), nil)
		require.Equal(t, http.StatusCreated, w.Code)
		var created CreateBookingResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		ids = append(ids, created.BookingID)
	}

	w := doJSON(t, r, http.MethodPost, "/bookings/"+ids[0]+"/verify-payment",
		VerifyPaymentRequest{PaymentReference: "UTR-1"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/bookings/"+ids[1]+"/verify-payment",
		VerifyPaymentRequest{PaymentReference: "UTR-1"}, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "DuplicateReference", resp.Error)
}

func TestValidateDiscount(t *testing.T) {
	r := newTestRouter(t, newMemStore(), "")

	w := doJSON(t, r, http.MethodPost, "/discounts/validate",
		ValidateDiscountRequest{EventID: 1, DiscountCode: "SAVE10", Amount: 10000}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ValidateDiscountResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Valid)
	assert.Equal(t, int64(1000), resp.DiscountAmount)

	w = doJSON(t, r, http.MethodPost, "/discounts/validate",
		ValidateDiscountRequest{EventID: 1, DiscountCode: "NOPE", Amount: 10000}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)
	assert.NotEmpty(t, resp.Reason)
}

func TestAdminAuth(t *testing.T) {
	r := newTestRouter(t, newMemStore(), "token-1")

	w := doJSON(t, r, http.MethodPost, "/admin/bookings/cleanup", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/admin/bookings/cleanup", nil,
		map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/admin/bookings/cleanup", nil,
		map[string]string{"Authorization": "Bearer token-1"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminDisabledWithoutToken(t *testing.T) {
	r := newTestRouter(t, newMemStore(), "")

	w := doJSON(t, r, http.MethodPost, "/admin/bookings/cleanup", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminCleanup(t *testing.T) {
	store := newMemStore()
	r := newTestRouter(t, store, "token-1")

	// seed an already-overdue hold directly
	past := time.Now().Add(-time.Minute)
	id := uuid.New()
	store.bookings[id] = &domain.Booking{
		ID:            id,
		EventID:       1,
		Status:        domain.BookingPending,
		HoldExpiresAt: &past,
		Tickets:       []domain.SelectedTicket{{SectionID: 10, Quantity: 2, UnitPriceCents: 5000}},
	}
	store.reserved[10] = 2

	w := doJSON(t, r, http.MethodPost, "/admin/bookings/cleanup", nil,
		map[string]string{"Authorization": "Bearer token-1"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp CleanupResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.ExpiredCount)
	assert.Equal(t, int64(2), resp.InventoryReleased)
	assert.Equal(t, int32(0), store.reserved[10])

	// a second pass finds nothing due
	w = doJSON(t, r, http.MethodPost, "/admin/bookings/cleanup", nil,
		map[string]string{"Authorization": "Bearer token-1"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Zero(t, resp.ExpiredCount)
}

func TestCancelBooking(t *testing.T) {
	store := newMemStore()
	r := newTestRouter(t, store, "")

	w := doJSON(t, r, http.MethodPost, "/bookings", createReq(2, ""), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var created CreateBookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, r, http.MethodPost, "/bookings/"+created.BookingID+"/cancel", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp CancelBookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "cancelled", resp.Status)
	assert.Equal(t, int64(2), resp.InventoryReleased)
	assert.Equal(t, int32(0), store.reserved[10])
}
