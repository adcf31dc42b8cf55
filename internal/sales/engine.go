// Package sales implements the sale transaction engine: validating a
// multi-line sale against live stock, decrementing inventory, computing
// totals and assigning a unique invoice number, all inside one transaction.
package sales

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"retailpos/m/domain"
	"retailpos/m/internal/catalog"
	"retailpos/m/internal/mirror"
)

// invoiceAttempts bounds the retry loop around invoice number assignment.
// Conflicts only occur when two transactions race on the same daily
// sequence; the loser re-reads and picks the next number.
const invoiceAttempts = 3

// LineRequest is one product-quantity entry of a sale request.
type LineRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type Engine struct {
	db     *sqlx.DB
	store  *catalog.Store
	sink   mirror.Sink
	logger *zap.Logger

	// overridable in tests
	now         func() time.Time
	nextInvoice func(tx *sqlx.Tx, now time.Time) (string, error)
}

func NewEngine(db *sqlx.DB, store *catalog.Store, sink mirror.Sink, logger *zap.Logger) *Engine {
	return &Engine{
		db:          db,
		store:       store,
		sink:        sink,
		logger:      logger,
		now:         time.Now,
		nextInvoice: nextInvoiceNumber,
	}
}

// CreateSale commits a multi-line sale as one atomic unit. On success the
// committed state is pushed to the mirror sink; mirror failures are logged
// and never affect the returned sale.
func (e *Engine) CreateSale(ctx context.Context, customerID int64, lines []LineRequest) (*domain.Receipt, error) {
	if len(lines) == 0 {
		return nil, domain.ErrEmptySale
	}
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, fmt.Errorf("%w (product %d)", domain.ErrInvalidQuantity, line.ProductID)
		}
	}

	var saleID int64
	for attempt := 1; ; attempt++ {
		id, err := e.attemptSale(ctx, customerID, lines)
		if err == nil {
			saleID = id
			break
		}
		if errors.Is(err, domain.ErrInvoiceConflict) && attempt < invoiceAttempts {
			e.logger.Warn("invoice number conflict, retrying",
				zap.Int("attempt", attempt))
			continue
		}
		return nil, err
	}

	receipt, err := e.store.Receipt(ctx, saleID)
	if err != nil {
		return nil, err
	}
	e.notifyMirror(ctx, receipt)
	return receipt, nil
}

// attemptSale runs one full transaction: create the sale with a provisional
// zero total, process each line in order, then persist the final total.
// Any failure rolls back everything, including the stock decrements.
func (e *Engine) attemptSale(ctx context.Context, customerID int64, lines []LineRequest) (int64, error) {
	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin sale transaction: %w", err)
	}
	defer tx.Rollback()

	var customerName string
	err = tx.Get(&customerName, `SELECT name FROM customers WHERE id = ?`, customerID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrCustomerNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("load customer: %w", err)
	}

	now := e.now().UTC()
	invoice, err := e.nextInvoice(tx, now)
	if err != nil {
		return 0, err
	}

	var saleID int64
	err = tx.QueryRowx(
		`INSERT INTO sales (invoice_number, customer_id, date, total_amount)
		 VALUES (?, ?, ?, 0) RETURNING id`,
		invoice, customerID, now.Format(time.RFC3339)).Scan(&saleID)
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("%w: %s", domain.ErrInvoiceConflict, invoice)
	}
	if err != nil {
		return 0, fmt.Errorf("insert sale: %w", err)
	}

	total := decimal.Zero
	for _, line := range lines {
		product, err := e.store.ProductForSale(tx, line.ProductID)
		if err != nil {
			return 0, err
		}
		// Snapshot the selling price; later price edits must not change
		// this line.
		unitPrice := product.SellingPrice
		lineTotal := unitPrice.Mul(decimal.NewFromInt(line.Quantity))

		if err := e.store.DecrementStock(tx, line.ProductID, line.Quantity); err != nil {
			return 0, err
		}
		if _, err := tx.Exec(
			`INSERT INTO sale_items (sale_id, product_id, quantity, unit_price, total_price)
			 VALUES (?, ?, ?, ?, ?)`,
			saleID, line.ProductID, line.Quantity, unitPrice, lineTotal); err != nil {
			return 0, fmt.Errorf("insert sale item: %w", err)
		}
		total = total.Add(lineTotal)
	}

	if _, err := tx.Exec(`UPDATE sales SET total_amount = ? WHERE id = ?`, total, saleID); err != nil {
		return 0, fmt.Errorf("update sale total: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit sale: %w", err)
	}
	return saleID, nil
}

// nextInvoiceNumber derives the next fixed-width invoice code for the
// current date, e.g. INV202608280001. The sequence is the highest suffix
// already committed for the day plus one, read inside the transaction; the
// unique index on invoice_number catches the case where a concurrent sale
// picked the same number first.
func nextInvoiceNumber(tx *sqlx.Tx, now time.Time) (string, error) {
	prefix := "INV" + now.Format("20060102")
	var seq int64
	err := tx.Get(&seq,
		`SELECT COALESCE(MAX(CAST(substr(invoice_number, ?) AS INTEGER)), 0) + 1
		 FROM sales WHERE invoice_number LIKE ?`,
		len(prefix)+1, prefix+"%")
	if err != nil {
		return "", fmt.Errorf("next invoice sequence: %w", err)
	}
	return fmt.Sprintf("%s%04d", prefix, seq), nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}

// notifyMirror pushes the committed sale to the mirror sink: the canonical
// sale document, refreshed product quantities, and the append-only event
// log entries. Runs strictly after commit; every failure is swallowed here.
func (e *Engine) notifyMirror(ctx context.Context, r *domain.Receipt) {
	ids := make([]int64, 0, len(r.Lines))
	for _, line := range r.Lines {
		ids = append(ids, line.ProductID)
	}
	products, err := e.store.ProductsByIDs(ctx, ids)
	if err != nil {
		e.logger.Warn("mirror: loading post-sale products failed",
			zap.Int64("sale_id", r.SaleID), zap.Error(err))
		products = nil
	}
	if err := e.sink.WriteSale(ctx, *r, products); err != nil {
		e.logger.Warn("mirror: sale write failed",
			zap.Int64("sale_id", r.SaleID), zap.Error(err))
	}
	if err := e.sink.AppendSaleEvent(ctx, *r); err != nil {
		e.logger.Warn("mirror: sale event append failed",
			zap.Int64("sale_id", r.SaleID), zap.Error(err))
	}
	for _, line := range r.Lines {
		if err := e.sink.AppendStockEvent(ctx, r.SaleID, line); err != nil {
			e.logger.Warn("mirror: stock event append failed",
				zap.Int64("sale_id", r.SaleID),
				zap.Int64("product_id", line.ProductID), zap.Error(err))
		}
	}
}
