package domain

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingExpired   BookingStatus = "expired"
	BookingCancelled BookingStatus = "cancelled"
)

// Terminal reports whether no further transition exists out of the status.
func (s BookingStatus) Terminal() bool {
	switch s {
	case BookingConfirmed, BookingExpired, BookingCancelled:
		return true
	}
	return false
}

type Event struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Venue     string    `json:"venue"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	Published bool      `json:"published"`
}

// Section is a bookable inventory unit: a seating area or ticket tier with
// fixed total capacity. reserved_count is the sum of active holds plus
// confirmed quantities; it never exceeds total_capacity.
type Section struct {
	ID             int64  `json:"id"`
	EventID        int64  `json:"event_id"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	TotalCapacity  int32  `json:"total_capacity"`
	ReservedCount  int32  `json:"reserved_count"`
}

func (s Section) Available() int32 {
	return s.TotalCapacity - s.ReservedCount
}

type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type SelectedTicket struct {
	SectionID      int64 `json:"section_id"`
	Quantity       int32 `json:"quantity"`
	UnitPriceCents int64 `json:"unit_price_cents"`
}

type Booking struct {
	ID               uuid.UUID        `json:"id"`
	EventID          int64            `json:"event_id"`
	Customer         CustomerInfo     `json:"customer"`
	Tickets          []SelectedTicket `json:"tickets"`
	TotalCents       int64            `json:"total_cents"`
	Status           BookingStatus    `json:"status"`
	HoldExpiresAt    *time.Time       `json:"hold_expires_at,omitempty"`
	DiscountCode     string           `json:"discount_code,omitempty"`
	PaymentReference string           `json:"payment_reference,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// HoldSecondsLeft returns the remaining hold window in whole seconds,
// derived from the persisted deadline so restarts and multiple devices
// observe the same countdown. Zero for non-pending bookings or past
// deadlines.
func (b *Booking) HoldSecondsLeft(now time.Time) int64 {
	if b.Status != BookingPending || b.HoldExpiresAt == nil {
		return 0
	}
	left := b.HoldExpiresAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return int64(left.Seconds())
}

// SubtotalCents is the ticket total before any discount.
func (b *Booking) SubtotalCents() int64 {
	var sum int64
	for _, t := range b.Tickets {
		sum += int64(t.Quantity) * t.UnitPriceCents
	}
	return sum
}

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// DiscountCode is a promotional code. Value is cents for the fixed type and
// a percentage (0-100) for the percentage type. MaxUses == 0 means unlimited.
// An empty EventIDs list means the code applies to every event.
type DiscountCode struct {
	Code      string       `json:"code"`
	Type      DiscountType `json:"type"`
	Value     int64        `json:"value"`
	ValidFrom time.Time    `json:"valid_from"`
	ValidTill time.Time    `json:"valid_till"`
	MaxUses   int32        `json:"max_uses"`
	UsedCount int32        `json:"used_count"`
	EventIDs  []int64      `json:"event_ids,omitempty"`
	Active    bool         `json:"active"`
}

// SweepResult summarizes one reclamation pass of the expiry reaper.
// ClampedSections lists sections whose release hit the zero floor, which
// means some quantity was returned twice and the ledger needs a look.
type SweepResult struct {
	ExpiredCount      int64   `json:"expired_count"`
	InventoryReleased int64   `json:"inventory_released"`
	EventIDs          []int64 `json:"-"`
	ClampedSections   []int64 `json:"-"`
}
