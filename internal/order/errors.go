package order

import "errors"

var (
	// ErrEmptyCart guards submission before any network call is made.
	ErrEmptyCart = errors.New("cart is empty, nothing to submit")

	// ErrSubmissionFailed wraps an Order Service rejection or a transport
	// failure. The cart is left untouched so the user can retry manually.
	ErrSubmissionFailed = errors.New("order submission failed")
)
