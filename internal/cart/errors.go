package cart

import "errors"

// Validation errors are resolved entirely client-side and never reach the
// network layer.
var (
	ErrOutOfStock       = errors.New("article is out of stock")
	ErrQuantityExceeded = errors.New("requested quantity exceeds available stock")
	ErrLineNotFound     = errors.New("article is not in the cart")
)
