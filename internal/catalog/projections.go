package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"retailpos/m/domain"
)

// Dashboard aggregates the storefront overview: product count, products at
// or below the low-stock threshold, and the most recent sales.
type Dashboard struct {
	TotalProducts int64            `json:"total_products"`
	LowStock      []domain.Product `json:"low_stock_products"`
	RecentSales   []domain.Sale    `json:"recent_sales"`
}

func (s *Store) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	if err := s.db.GetContext(ctx, &d.TotalProducts, `SELECT COUNT(*) FROM products`); err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	d.LowStock = []domain.Product{}
	if err := s.db.SelectContext(ctx, &d.LowStock,
		`SELECT * FROM products WHERE quantity <= ? ORDER BY name`, LowStockThreshold); err != nil {
		return nil, fmt.Errorf("load low stock products: %w", err)
	}
	d.RecentSales = []domain.Sale{}
	if err := s.db.SelectContext(ctx, &d.RecentSales,
		`SELECT * FROM sales ORDER BY created_at DESC, id DESC LIMIT 5`); err != nil {
		return nil, fmt.Errorf("load recent sales: %w", err)
	}
	return &d, nil
}

// Receipt resolves a committed sale with its customer name and lines.
func (s *Store) Receipt(ctx context.Context, saleID int64) (*domain.Receipt, error) {
	var r domain.Receipt
	err := s.db.GetContext(ctx, &r,
		`SELECT s.id, s.invoice_number, s.customer_id, c.name AS customer_name,
		        s.date, s.total_amount, s.created_at
		 FROM sales s JOIN customers c ON c.id = s.customer_id
		 WHERE s.id = ?`, saleID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSaleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load sale: %w", err)
	}
	r.Lines = []domain.ReceiptLine{}
	err = s.db.SelectContext(ctx, &r.Lines,
		`SELECT si.product_id, p.name AS product_name, si.quantity, si.unit_price, si.total_price
		 FROM sale_items si JOIN products p ON p.id = si.product_id
		 WHERE si.sale_id = ? ORDER BY si.id`, saleID)
	if err != nil {
		return nil, fmt.Errorf("load sale items: %w", err)
	}
	return &r, nil
}

// SalesPage returns up to limit receipts with id > afterID, in identifier
// order, for batched backfill.
func (s *Store) SalesPage(ctx context.Context, afterID int64, limit int) ([]domain.Receipt, error) {
	var ids []int64
	err := s.db.SelectContext(ctx, &ids,
		`SELECT id FROM sales WHERE id > ? ORDER BY id LIMIT ?`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("page sales: %w", err)
	}
	receipts := make([]domain.Receipt, 0, len(ids))
	for _, id := range ids {
		r, err := s.Receipt(ctx, id)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, *r)
	}
	return receipts, nil
}
