package domain

import "github.com/shopspring/decimal"

// CatalogItem is one purchasable article as published by the Article Service.
// Prices are nullable upstream; a nil pointer means "no price set".
type CatalogItem struct {
	ID             int64            `json:"id"`
	Name           string           `json:"nom"`
	Ref            string           `json:"ref,omitempty"`
	SalePrice      *decimal.Decimal `json:"prix_vente"`
	ReferencePrice *decimal.Decimal `json:"prix_neuf"`
	Quantity       int              `json:"quantite"`
}

// UnitPrice returns the sale price, or zero when the article has none.
func (i CatalogItem) UnitPrice() decimal.Decimal {
	if i.SalePrice == nil {
		return decimal.Zero
	}
	return *i.SalePrice
}

// DiscountPercent computes the rounded discount of the sale price against the
// reference price. Returns 0 when no meaningful discount can be displayed
// (missing prices, zero reference, or sale >= reference).
func (i CatalogItem) DiscountPercent() int {
	if i.SalePrice == nil || i.ReferencePrice == nil {
		return 0
	}
	ref := *i.ReferencePrice
	if ref.IsZero() || i.SalePrice.GreaterThanOrEqual(ref) {
		return 0
	}
	pct := ref.Sub(*i.SalePrice).Div(ref).Mul(decimal.NewFromInt(100))
	n := int(pct.Round(0).IntPart())
	if n <= 0 {
		return 0
	}
	return n
}
