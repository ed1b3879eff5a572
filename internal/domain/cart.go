package domain

import "github.com/shopspring/decimal"

// CartLine is one requested article in a session cart. Name, ref and unit
// price are denormalized at add time so the cart still renders after the
// catalog moves underneath it. Cap is the available quantity snapshotted at
// the last add/update; a present line always holds 1 <= Quantity <= Cap.
type CartLine struct {
	ArticleID int64           `json:"article_id"`
	Name      string          `json:"nom"`
	Ref       string          `json:"ref,omitempty"`
	UnitPrice decimal.Decimal `json:"prix_vente"`
	Quantity  int             `json:"quantite"`
	Cap       int             `json:"-"`
}

// Subtotal returns unit price x quantity for the line.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is an ordered snapshot of cart lines (insertion order).
type Cart struct {
	Lines []CartLine      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// IsEmpty reports whether the cart holds no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}
