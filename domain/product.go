package domain

import "github.com/shopspring/decimal"

type Product struct {
	ID           int64           `db:"id" json:"id"`
	SKU          *string         `db:"sku" json:"sku,omitempty"`
	Name         string          `db:"name" json:"name"`
	Description  *string         `db:"description" json:"description,omitempty"`
	CostPrice    decimal.Decimal `db:"cost_price" json:"cost_price"`
	SellingPrice decimal.Decimal `db:"selling_price" json:"selling_price"`
	Quantity     int64           `db:"quantity" json:"quantity"`
	CreatedAt    string          `db:"created_at" json:"created_at"`
	UpdatedAt    string          `db:"updated_at" json:"updated_at"`
}

// PriceQuote is the narrow projection served to callers that validate
// prices before submitting a sale.
type PriceQuote struct {
	ID           int64           `db:"id" json:"id"`
	Name         string          `db:"name" json:"name"`
	SellingPrice decimal.Decimal `db:"selling_price" json:"selling_price"`
	AvailableQty int64           `db:"quantity" json:"available_qty"`
}
