package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptySale        = errors.New("sale must contain at least one line")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrSaleNotFound     = errors.New("sale not found")

	ErrInvalidQuantity = errors.New("line quantity must be a positive integer")

	// ErrInvoiceConflict is returned when invoice number assignment keeps
	// colliding after retries. The whole sale is rolled back and can be
	// retried by the caller.
	ErrInvoiceConflict = errors.New("invoice number conflict")
)

// InsufficientStockError reports the offending product by name together
// with the requested and available quantities.
type InsufficientStockError struct {
	ProductName string
	Requested   int64
	Available   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("only %d units available for %s (requested %d)",
		e.Available, e.ProductName, e.Requested)
}
