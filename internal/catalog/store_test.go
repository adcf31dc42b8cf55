package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailpos/m/domain"
	"retailpos/m/internal/database"
	"retailpos/m/internal/migrations"
)

func newTestStore(t *testing.T) (*Store, *sqlx.DB) {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "pos.db") +
		"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := database.Connect(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Run(db))
	return New(db), db
}

func strPtr(s string) *string { return &s }

func mustProduct(t *testing.T, store *Store, name, price string, qty int64) *domain.Product {
	t.Helper()
	p, err := store.CreateProduct(context.Background(), domain.Product{
		Name:         name,
		CostPrice:    decimal.RequireFromString(price),
		SellingPrice: decimal.RequireFromString(price),
		Quantity:     qty,
	})
	require.NoError(t, err)
	return p
}

func TestProductRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	created, err := store.CreateProduct(ctx, domain.Product{
		SKU:          strPtr("WID-1"),
		Name:         "Widget",
		Description:  strPtr("A widget"),
		CostPrice:    decimal.RequireFromString("3.50"),
		SellingPrice: decimal.RequireFromString("5.00"),
		Quantity:     10,
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.NotEmpty(t, created.CreatedAt)

	loaded, err := store.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", loaded.Name)
	require.NotNil(t, loaded.SKU)
	assert.Equal(t, "WID-1", *loaded.SKU)
	assert.True(t, loaded.CostPrice.Equal(decimal.RequireFromString("3.50")))
	assert.True(t, loaded.SellingPrice.Equal(decimal.RequireFromString("5.00")))
	assert.Equal(t, int64(10), loaded.Quantity)

	loaded.Name = "Widget v2"
	loaded.SellingPrice = decimal.RequireFromString("6.00")
	updated, err := store.UpdateProduct(ctx, *loaded)
	require.NoError(t, err)
	assert.Equal(t, "Widget v2", updated.Name)
	assert.True(t, updated.SellingPrice.Equal(decimal.RequireFromString("6.00")))
}

func TestGetProductNotFound(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.GetProduct(context.Background(), 42)
	require.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = store.UpdateProduct(context.Background(), domain.Product{ID: 42, Name: "X"})
	require.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestListProductsOrderedByName(t *testing.T) {
	store, _ := newTestStore(t)
	mustProduct(t, store, "Zebra", "1.00", 1)
	mustProduct(t, store, "Apple", "1.00", 1)
	mustProduct(t, store, "Mango", "1.00", 1)

	products, err := store.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "Apple", products[0].Name)
	assert.Equal(t, "Mango", products[1].Name)
	assert.Equal(t, "Zebra", products[2].Name)
}

func TestPriceQuote(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	// Zero price and zero quantity is still a valid product, reported
	// distinctly from not-found.
	p := mustProduct(t, store, "Freebie", "0.00", 0)

	quote, err := store.PriceQuote(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, quote.ID)
	assert.Equal(t, "Freebie", quote.Name)
	assert.True(t, quote.SellingPrice.IsZero())
	assert.Equal(t, int64(0), quote.AvailableQty)

	_, err = store.PriceQuote(ctx, 9999)
	require.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestCustomers(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	created, err := store.CreateCustomer(ctx, domain.Customer{
		Name:  "Walter",
		Phone: strPtr("555-0199"),
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	require.NotNil(t, created.Phone)
	assert.Equal(t, "555-0199", *created.Phone)
	assert.Nil(t, created.Email)

	_, err = store.CreateCustomer(ctx, domain.Customer{Name: "Alice"})
	require.NoError(t, err)

	customers, err := store.ListCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 2)
	assert.Equal(t, "Alice", customers[0].Name)
	assert.Equal(t, "Walter", customers[1].Name)

	_, err = store.GetCustomer(ctx, 9999)
	require.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestDecrementStock(t *testing.T) {
	store, db := newTestStore(t)
	p := mustProduct(t, store, "Widget", "5.00", 4)

	tx, err := db.Beginx()
	require.NoError(t, err)
	require.NoError(t, store.DecrementStock(tx, p.ID, 3))
	require.NoError(t, tx.Commit())

	reloaded, err := store.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reloaded.Quantity)
}

func TestDecrementStockInsufficient(t *testing.T) {
	store, db := newTestStore(t)
	p := mustProduct(t, store, "Widget", "5.00", 2)

	tx, err := db.Beginx()
	require.NoError(t, err)
	err = store.DecrementStock(tx, p.ID, 3)
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Widget", stockErr.ProductName)
	assert.Equal(t, int64(3), stockErr.Requested)
	assert.Equal(t, int64(2), stockErr.Available)
	require.NoError(t, tx.Rollback())

	reloaded, err := store.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), reloaded.Quantity)
}

func TestDecrementStockUnknownProduct(t *testing.T) {
	store, db := newTestStore(t)
	tx, err := db.Beginx()
	require.NoError(t, err)
	defer tx.Rollback()
	require.ErrorIs(t, store.DecrementStock(tx, 9999, 1), domain.ErrProductNotFound)
}

func insertSale(t *testing.T, db *sqlx.DB, invoice string, customerID int64, total string) int64 {
	t.Helper()
	var id int64
	err := db.QueryRowx(
		`INSERT INTO sales (invoice_number, customer_id, date, total_amount)
		 VALUES (?, ?, '2026-08-28T10:00:00Z', ?) RETURNING id`,
		invoice, customerID, total).Scan(&id)
	require.NoError(t, err)
	return id
}

func insertSaleItem(t *testing.T, db *sqlx.DB, saleID, productID, qty int64, unit, total string) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO sale_items (sale_id, product_id, quantity, unit_price, total_price)
		 VALUES (?, ?, ?, ?, ?)`, saleID, productID, qty, unit, total)
	require.NoError(t, err)
}

func TestReceipt(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	p := mustProduct(t, store, "Widget", "5.00", 10)
	c, err := store.CreateCustomer(ctx, domain.Customer{Name: "Walter"})
	require.NoError(t, err)

	saleID := insertSale(t, db, "INV202608280001", c.ID, "15.00")
	insertSaleItem(t, db, saleID, p.ID, 3, "5.00", "15.00")

	receipt, err := store.Receipt(ctx, saleID)
	require.NoError(t, err)
	assert.Equal(t, "INV202608280001", receipt.InvoiceNumber)
	assert.Equal(t, "Walter", receipt.CustomerName)
	assert.True(t, receipt.TotalAmount.Equal(decimal.RequireFromString("15.00")))
	require.Len(t, receipt.Lines, 1)
	assert.Equal(t, "Widget", receipt.Lines[0].ProductName)
	assert.Equal(t, int64(3), receipt.Lines[0].Quantity)

	_, err = store.Receipt(ctx, 9999)
	require.ErrorIs(t, err, domain.ErrSaleNotFound)
}

func TestDashboard(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	mustProduct(t, store, "Plenty", "1.00", LowStockThreshold+1)
	low := mustProduct(t, store, "Low", "1.00", LowStockThreshold)
	out := mustProduct(t, store, "Out", "1.00", 0)

	c, err := store.CreateCustomer(ctx, domain.Customer{Name: "Walter"})
	require.NoError(t, err)
	for i := 0; i < 7; i++ {
		insertSale(t, db, "INV20260828000"+string(rune('1'+i)), c.ID, "1.00")
	}

	d, err := store.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), d.TotalProducts)
	require.Len(t, d.LowStock, 2)
	assert.Equal(t, low.Name, d.LowStock[0].Name)
	assert.Equal(t, out.Name, d.LowStock[1].Name)
	require.Len(t, d.RecentSales, 5)
	// Newest first.
	first := d.RecentSales[0].ID
	for _, s := range d.RecentSales[1:] {
		assert.Less(t, s.ID, first)
		first = s.ID
	}
}

func TestSalesPage(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	p := mustProduct(t, store, "Widget", "1.00", 100)
	c, err := store.CreateCustomer(ctx, domain.Customer{Name: "Walter"})
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		saleID := insertSale(t, db, "INV20260828000"+string(rune('0'+i)), c.ID, "1.00")
		insertSaleItem(t, db, saleID, p.ID, 1, "1.00", "1.00")
	}

	page, err := store.SalesPage(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Less(t, page[0].SaleID, page[1].SaleID)

	page, err = store.SalesPage(ctx, page[1].SaleID, 10)
	require.NoError(t, err)
	require.Len(t, page, 3)
	for _, r := range page {
		require.Len(t, r.Lines, 1)
		assert.Equal(t, "Widget", r.Lines[0].ProductName)
	}

	page, err = store.SalesPage(ctx, 9999, 10)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestProductsByIDs(t *testing.T) {
	store, _ := newTestStore(t)
	a := mustProduct(t, store, "A", "1.00", 1)
	b := mustProduct(t, store, "B", "1.00", 1)

	products, err := store.ProductsByIDs(context.Background(), []int64{a.ID, b.ID, 9999})
	require.NoError(t, err)
	require.Len(t, products, 2)

	products, err = store.ProductsByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, products)
}
