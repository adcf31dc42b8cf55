package domain

import "github.com/shopspring/decimal"

type Sale struct {
	ID            int64           `db:"id" json:"id"`
	InvoiceNumber string          `db:"invoice_number" json:"invoice_number"`
	CustomerID    int64           `db:"customer_id" json:"customer_id"`
	Date          string          `db:"date" json:"date"`
	TotalAmount   decimal.Decimal `db:"total_amount" json:"total_amount"`
	CreatedAt     string          `db:"created_at" json:"created_at"`
}

type SaleItem struct {
	ID         int64           `db:"id" json:"id"`
	SaleID     int64           `db:"sale_id" json:"sale_id"`
	ProductID  int64           `db:"product_id" json:"product_id"`
	Quantity   int64           `db:"quantity" json:"quantity"`
	UnitPrice  decimal.Decimal `db:"unit_price" json:"unit_price"`
	TotalPrice decimal.Decimal `db:"total_price" json:"total_price"`
}

// ReceiptLine is one resolved sale line with its product name, as shown on
// a receipt. UnitPrice is the snapshot taken at sale time, not the product's
// current price.
type ReceiptLine struct {
	ProductID   int64           `db:"product_id" json:"product_id"`
	ProductName string          `db:"product_name" json:"product_name"`
	Quantity    int64           `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
	TotalPrice  decimal.Decimal `db:"total_price" json:"total_price"`
}

// Receipt is the read model for a committed sale, shared by the primary
// store projection and the mirror writes.
type Receipt struct {
	SaleID        int64           `db:"id" json:"sale_id"`
	InvoiceNumber string          `db:"invoice_number" json:"invoice_number"`
	CustomerID    int64           `db:"customer_id" json:"customer_id"`
	CustomerName  string          `db:"customer_name" json:"customer_name"`
	Date          string          `db:"date" json:"date"`
	TotalAmount   decimal.Decimal `db:"total_amount" json:"total_amount"`
	CreatedAt     string          `db:"created_at" json:"created_at"`
	Lines         []ReceiptLine   `json:"items"`
}
