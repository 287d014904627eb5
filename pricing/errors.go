package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrNegativePrice is returned when a definition would store a price below zero.
	ErrNegativePrice = errors.New("negative price")

	// ErrDuplicatePrice is returned when a sheet defines the same code twice for one owner.
	ErrDuplicatePrice = errors.New("duplicate price definition")

	// ErrEmptyCode is returned when a definition has no code.
	ErrEmptyCode = errors.New("price code is empty")
)

// NegativePriceError provides details about a rejected price.
type NegativePriceError struct {
	OwnerID OwnerID
	Code    Code
	Price   decimal.Decimal
}

func (e *NegativePriceError) Error() string {
	return fmt.Sprintf("negative price %s for code %q (owner %d)", e.Price, e.Code, e.OwnerID)
}

func (e *NegativePriceError) Unwrap() error {
	return ErrNegativePrice
}

// DuplicatePriceError reports a second definition of the same (owner, code).
type DuplicatePriceError struct {
	OwnerID OwnerID
	Code    Code
}

func (e *DuplicatePriceError) Error() string {
	return fmt.Sprintf("code %q defined more than once for owner %d", e.Code, e.OwnerID)
}

func (e *DuplicatePriceError) Unwrap() error {
	return ErrDuplicatePrice
}
