package catalog

import "errors"

var (
	// ErrFetch wraps any network or HTTP failure while talking to the
	// Article Service. Transient; callers decide whether to re-invoke.
	ErrFetch = errors.New("catalog fetch failed")

	ErrItemNotFound = errors.New("article not found in catalog")
)
