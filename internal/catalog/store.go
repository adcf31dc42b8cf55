package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"retailpos/m/domain"
)

// LowStockThreshold is the on-hand quantity at or below which a product
// shows up in the dashboard's low-stock list.
const LowStockThreshold = 5

// Store provides access to Product and Customer records and the read
// projections built on top of them.
type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Products

func (s *Store) CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	var id int64
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO products (sku, name, description, cost_price, selling_price, quantity)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		p.SKU, p.Name, p.Description, p.CostPrice, p.SellingPrice, p.Quantity).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	return s.GetProduct(ctx, id)
}

func (s *Store) UpdateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE products SET sku = ?, name = ?, description = ?, cost_price = ?,
		 selling_price = ?, quantity = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		p.SKU, p.Name, p.Description, p.CostPrice, p.SellingPrice, p.Quantity, p.ID)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, domain.ErrProductNotFound
	}
	return s.GetProduct(ctx, p.ID)
}

func (s *Store) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := s.db.GetContext(ctx, &p, `SELECT * FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	return &p, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products := []domain.Product{}
	if err := s.db.SelectContext(ctx, &products, `SELECT * FROM products ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// AllProducts returns every product in identifier order, for backfill.
func (s *Store) AllProducts(ctx context.Context) ([]domain.Product, error) {
	products := []domain.Product{}
	if err := s.db.SelectContext(ctx, &products, `SELECT * FROM products ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// ProductsByIDs loads the given products in one query. Missing ids are
// silently absent from the result.
func (s *Store) ProductsByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM products WHERE id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("prepare products query: %w", err)
	}
	products := []domain.Product{}
	if err := s.db.SelectContext(ctx, &products, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	return products, nil
}

// PriceQuote returns the narrow price-lookup projection for one product.
// A missing product is reported as ErrProductNotFound, distinct from a
// valid product with zero price or zero quantity.
func (s *Store) PriceQuote(ctx context.Context, id int64) (*domain.PriceQuote, error) {
	var q domain.PriceQuote
	err := s.db.GetContext(ctx, &q, `SELECT id, name, selling_price, quantity FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load price quote: %w", err)
	}
	return &q, nil
}

// ProductForSale loads a product inside an open transaction so the engine
// sees the live quantity and price, not a stale read.
func (s *Store) ProductForSale(tx *sqlx.Tx, id int64) (*domain.Product, error) {
	var p domain.Product
	err := tx.Get(&p, `SELECT * FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	return &p, nil
}

// DecrementStock reduces a product's on-hand quantity inside the caller's
// transaction. The quantity is re-read and the update is guarded so two
// sales competing for the same units cannot both succeed.
func (s *Store) DecrementStock(tx *sqlx.Tx, productID, qty int64) error {
	cur, err := s.ProductForSale(tx, productID)
	if err != nil {
		return err
	}
	if cur.Quantity < qty {
		return &domain.InsufficientStockError{ProductName: cur.Name, Requested: qty, Available: cur.Quantity}
	}
	res, err := tx.Exec(
		`UPDATE products SET quantity = quantity - ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND quantity >= ?`, qty, productID, qty)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.InsufficientStockError{ProductName: cur.Name, Requested: qty, Available: cur.Quantity}
	}
	return nil
}

// Customers

func (s *Store) CreateCustomer(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	var id int64
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO customers (name, phone, email, address) VALUES (?, ?, ?, ?) RETURNING id`,
		c.Name, c.Phone, c.Email, c.Address).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert customer: %w", err)
	}
	return s.GetCustomer(ctx, id)
}

func (s *Store) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	var c domain.Customer
	err := s.db.GetContext(ctx, &c, `SELECT * FROM customers WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load customer: %w", err)
	}
	return &c, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	customers := []domain.Customer{}
	if err := s.db.SelectContext(ctx, &customers, `SELECT * FROM customers ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}

// AllCustomers returns every customer in identifier order, for backfill.
func (s *Store) AllCustomers(ctx context.Context) ([]domain.Customer, error) {
	customers := []domain.Customer{}
	if err := s.db.SelectContext(ctx, &customers, `SELECT * FROM customers ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}
