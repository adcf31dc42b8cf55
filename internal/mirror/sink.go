// Package mirror replicates committed catalog and sale records into a
// secondary document store. The mirror is advisory: it is written after the
// primary store commits, it is keyed by the primary store's identifiers, and
// its failures never reach the sale flow.
package mirror

import (
	"context"

	"retailpos/m/domain"
)

// Sink accepts committed entities for best-effort replication. Product,
// customer and sale documents are upserts keyed by the primary id; the
// event collections are append-only.
type Sink interface {
	UpsertProduct(ctx context.Context, p domain.Product) error
	UpsertCustomer(ctx context.Context, c domain.Customer) error
	// WriteSale stores the canonical sale document and re-mirrors the
	// post-sale quantities of the products it touched.
	WriteSale(ctx context.Context, r domain.Receipt, products []domain.Product) error
	AppendSaleEvent(ctx context.Context, r domain.Receipt) error
	AppendStockEvent(ctx context.Context, saleID int64, line domain.ReceiptLine) error
}

// Noop is the sink used when mirroring is disabled. Every operation is a
// silent no-op.
type Noop struct{}

func (Noop) UpsertProduct(context.Context, domain.Product) error   { return nil }
func (Noop) UpsertCustomer(context.Context, domain.Customer) error { return nil }
func (Noop) WriteSale(context.Context, domain.Receipt, []domain.Product) error {
	return nil
}
func (Noop) AppendSaleEvent(context.Context, domain.Receipt) error { return nil }
func (Noop) AppendStockEvent(context.Context, int64, domain.ReceiptLine) error {
	return nil
}
