package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderReceipt is what the user keeps after a successful submission: the
// server-assigned order number plus the client's own line snapshot and
// precomputed total. Immutable once created, display only.
type OrderReceipt struct {
	Number      string          `json:"numero"`
	Lines       []CartLine      `json:"items"`
	Total       decimal.Decimal `json:"total"`
	SubmittedAt time.Time       `json:"submitted_at"`
}
