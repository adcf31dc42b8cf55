// Command backfill replays the primary store through the mirror sink:
// all products, then all customers, then optionally all sales in invoice
// order, batched. Per-record failures are logged and skipped so a partial
// mirror can always be resynced.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"retailpos/m/internal/catalog"
	"retailpos/m/internal/config"
	"retailpos/m/internal/database"
	"retailpos/m/internal/migrations"
	"retailpos/m/internal/mirror"
)

func main() {
	includeSales := flag.Bool("include-sales", false, "also write canonical sales and mirror product quantities")
	salesBatch := flag.Int("sales-batch", 200, "process sales in batches of N")
	flag.Parse()

	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	if !cfg.MirrorEnabled {
		logger.Fatal("mirroring is disabled; set MIRROR_ENABLED=true to backfill")
	}

	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	if err := migrations.Run(db); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	ctx := context.Background()
	sink, err := mirror.New(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialise mirror sink", zap.Error(err))
	}
	store := catalog.New(db)

	logger.Info("backfilling products")
	products, err := store.AllProducts(ctx)
	if err != nil {
		logger.Fatal("failed to list products", zap.Error(err))
	}
	for _, p := range products {
		if err := sink.UpsertProduct(ctx, p); err != nil {
			logger.Warn("product backfill failed", zap.Int64("id", p.ID), zap.Error(err))
		}
	}
	logger.Info("products backfilled", zap.Int("count", len(products)))

	logger.Info("backfilling customers")
	customers, err := store.AllCustomers(ctx)
	if err != nil {
		logger.Fatal("failed to list customers", zap.Error(err))
	}
	for _, c := range customers {
		if err := sink.UpsertCustomer(ctx, c); err != nil {
			logger.Warn("customer backfill failed", zap.Int64("id", c.ID), zap.Error(err))
		}
	}
	logger.Info("customers backfilled", zap.Int("count", len(customers)))

	if *includeSales {
		logger.Info("backfilling sales", zap.Int("batch", *salesBatch))
		var afterID int64
		processed := 0
		for {
			receipts, err := store.SalesPage(ctx, afterID, *salesBatch)
			if err != nil {
				logger.Fatal("failed to page sales", zap.Int64("after_id", afterID), zap.Error(err))
			}
			if len(receipts) == 0 {
				break
			}
			for _, r := range receipts {
				afterID = r.SaleID
				ids := make([]int64, 0, len(r.Lines))
				for _, line := range r.Lines {
					ids = append(ids, line.ProductID)
				}
				saleProducts, err := store.ProductsByIDs(ctx, ids)
				if err != nil {
					logger.Warn("sale backfill failed", zap.Int64("id", r.SaleID), zap.Error(err))
					continue
				}
				if err := sink.WriteSale(ctx, r, saleProducts); err != nil {
					logger.Warn("sale backfill failed", zap.Int64("id", r.SaleID), zap.Error(err))
				}
			}
			processed += len(receipts)
			logger.Info("sales progress", zap.Int("processed", processed))
		}
		logger.Info("sales backfilled", zap.Int("count", processed))
	}

	logger.Info("mirror backfill completed")
}
