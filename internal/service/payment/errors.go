package payment

import "errors"

var (
	ErrBookingNotFound    = errors.New("booking not found")
	ErrAlreadyFinalized   = errors.New("booking already finalized")
	ErrDuplicateReference = errors.New("payment reference already used")
	ErrDiscountExhausted  = errors.New("discount usage limit reached")
	ErrEmptyReference     = errors.New("payment reference is empty")
)
