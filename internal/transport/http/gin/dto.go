package httpgin

import (
	"time"

	"github.com/gatepass/gatepass/internal/domain"
)

type CustomerInfoInput struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone"`
}

type SelectedTicketInput struct {
	SectionID int64 `json:"section_id" binding:"required"`
	Quantity  int32 `json:"quantity" binding:"required,gt=0"`
}

type CreateBookingRequest struct {
	EventID         int64                 `json:"event_id" binding:"required"`
	CustomerInfo    CustomerInfoInput     `json:"customer_info" binding:"required"`
	SelectedTickets []SelectedTicketInput `json:"selected_tickets" binding:"required,min=1,dive"`
	DiscountCode    string                `json:"discount_code"`
}

type CreateBookingResponse struct {
	BookingID     string     `json:"booking_id"`
	Status        string     `json:"status"`
	TotalAmount   int64      `json:"total_amount"`
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty"`
}

type BookingResponse struct {
	BookingID        string                  `json:"booking_id"`
	EventID          int64                   `json:"event_id"`
	Customer         domain.CustomerInfo     `json:"customer_info"`
	SelectedTickets  []domain.SelectedTicket `json:"selected_tickets"`
	TotalAmount      int64                   `json:"total_amount"`
	Status           string                  `json:"status"`
	HoldExpiresAt    *time.Time              `json:"hold_expires_at,omitempty"`
	HoldSecondsLeft  int64                   `json:"hold_seconds_left"`
	DiscountCode     string                  `json:"discount_code,omitempty"`
	PaymentReference string                  `json:"payment_reference,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
}

func toBookingResponse(b *domain.Booking, now time.Time) BookingResponse {
	return BookingResponse{
		BookingID:        b.ID.String(),
		EventID:          b.EventID,
		Customer:         b.Customer,
		SelectedTickets:  b.Tickets,
		TotalAmount:      b.TotalCents,
		Status:           string(b.Status),
		HoldExpiresAt:    b.HoldExpiresAt,
		HoldSecondsLeft:  b.HoldSecondsLeft(now),
		DiscountCode:     b.DiscountCode,
		PaymentReference: b.PaymentReference,
		CreatedAt:        b.CreatedAt,
	}
}

type VerifyPaymentRequest struct {
	PaymentReference string `json:"payment_reference" binding:"required"`
}

type VerifyPaymentResponse struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

type CancelBookingResponse struct {
	BookingID         string `json:"booking_id"`
	Status            string `json:"status"`
	InventoryReleased int64  `json:"inventory_released"`
}

type ValidateDiscountRequest struct {
	EventID      int64  `json:"event_id" binding:"required"`
	DiscountCode string `json:"discount_code" binding:"required"`
	Amount       int64  `json:"amount" binding:"required,gt=0"`
}

type ValidateDiscountResponse struct {
	Valid          bool   `json:"valid"`
	DiscountAmount int64  `json:"discount_amount"`
	Reason         string `json:"reason,omitempty"`
}

type CleanupResponse struct {
	ExpiredCount      int64 `json:"expired_count"`
	InventoryReleased int64 `json:"inventory_released"`
}

type SectionInput struct {
	Name          string `json:"name" binding:"required"`
	UnitPrice     int64  `json:"unit_price" binding:"required,gt=0"`
	TotalCapacity int32  `json:"total_capacity" binding:"required,gt=0"`
}

type CreateEventRequest struct {
	Name     string         `json:"name" binding:"required"`
	Venue    string         `json:"venue"`
	StartsAt string         `json:"starts_at" binding:"required"`
	EndsAt   string         `json:"ends_at" binding:"required"`
	Sections []SectionInput `json:"sections" binding:"required,min=1,dive"`
}

type CreateEventResponse struct {
	EventID int64 `json:"event_id"`
}

type AdjustCapacityRequest struct {
	Delta int32 `json:"delta" binding:"required"`
}

type AdjustCapacityResponse struct {
	SectionID     int64 `json:"section_id"`
	TotalCapacity int32 `json:"total_capacity"`
}

type CreateDiscountRequest struct {
	Code      string  `json:"code" binding:"required"`
	Type      string  `json:"type" binding:"required,oneof=percentage fixed"`
	Value     int64   `json:"value" binding:"required,gt=0"`
	ValidFrom string  `json:"valid_from" binding:"required"`
	ValidTill string  `json:"valid_till" binding:"required"`
	MaxUses   int32   `json:"max_uses"`
	EventIDs  []int64 `json:"event_ids"`
}

// ErrorResponse is the closed error shape of the API. Error carries the
// machine-readable kind; the optional fields qualify it.
type ErrorResponse struct {
	Error     string `json:"error"`
	Reason    string `json:"reason,omitempty"`
	SectionID int64  `json:"section_id,omitempty"`
	Available *int32 `json:"available,omitempty"`
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
