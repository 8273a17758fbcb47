package booking

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrEventNotFound    = errors.New("event not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrEmptySelection   = errors.New("no tickets selected")
	ErrAlreadyFinalized = errors.New("booking already finalized")
)

// InsufficientCapacityError names the first section that could not satisfy
// its requested quantity, with the availability remaining at that moment.
type InsufficientCapacityError struct {
	SectionID int64
	Available int32
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf("section %d has only %d tickets available", e.SectionID, e.Available)
}

type UnknownSectionError struct {
	SectionID int64
}

func (e *UnknownSectionError) Error() string {
	return fmt.Sprintf("section %d does not belong to this event", e.SectionID)
}

type InvalidDiscountError struct {
	Reason string
}

func (e *InvalidDiscountError) Error() string {
	return "invalid discount: " + e.Reason
}

type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry in %s", e.RetryAfter)
}
