package admin

import "errors"

var (
	ErrSectionConflict   = errors.New("duplicate section name for event")
	ErrSectionNotFound   = errors.New("section not found")
	ErrCapacityBelowHeld = errors.New("capacity cannot drop below reserved count")
	ErrDiscountConflict  = errors.New("discount code already exists")
	ErrDiscountNotFound  = errors.New("discount code not found")
	ErrInvalidDiscount   = errors.New("invalid discount definition")
	ErrNoSections        = errors.New("event needs at least one section")
)
