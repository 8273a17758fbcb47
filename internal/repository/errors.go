package repository

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrInsufficientCapacity = errors.New("insufficient capacity")
	ErrAlreadyFinalized     = errors.New("booking already finalized")
	ErrDuplicateReference   = errors.New("payment reference already used")
	ErrDiscountExhausted    = errors.New("discount usage limit reached")
	ErrCapacityBelowHeld    = errors.New("capacity below reserved count")
)

// InsufficientCapacityError carries the remaining availability of the section
// that could not satisfy a reservation, so callers can offer a reduced
// quantity.
type InsufficientCapacityError struct {
	SectionID int64
	Available int32
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf("section %d: insufficient capacity, %d available", e.SectionID, e.Available)
}

func (e *InsufficientCapacityError) Is(target error) bool {
	return target == ErrInsufficientCapacity
}
