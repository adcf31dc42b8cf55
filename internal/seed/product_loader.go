package seed

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// LoadProducts ingests a CSV catalog (sku, name, description, cost_price,
// selling_price, quantity) into the products table, ignoring rows whose sku
// already exists. A missing file is not an error; the seed is optional.
func LoadProducts(db *sqlx.DB, csvPath string, logger *zap.Logger) {
	if csvPath == "" {
		return
	}
	file, err := os.Open(csvPath)
	if err != nil {
		logger.Warn("unable to load product catalog", zap.String("path", csvPath), zap.Error(err))
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)
	// Skip header
	if _, err := reader.Read(); err != nil {
		logger.Warn("unable to read product header", zap.Error(err))
		return
	}

	tx, err := db.Beginx()
	if err != nil {
		logger.Warn("unable to start product seed transaction", zap.Error(err))
		return
	}
	stmt, err := tx.Preparex(`INSERT OR IGNORE INTO products (sku, name, description, cost_price, selling_price, quantity) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		logger.Warn("unable to prepare product insert", zap.Error(err))
		_ = tx.Rollback()
		return
	}
	defer stmt.Close()

	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Warn("unable to read product row", zap.Error(err))
			continue
		}
		if len(record) < 6 {
			continue
		}
		sku := strings.TrimSpace(record[0])
		name := strings.TrimSpace(record[1])
		description := strings.TrimSpace(record[2])
		costPrice := strings.TrimSpace(record[3])
		sellingPrice := strings.TrimSpace(record[4])
		quantity, _ := strconv.ParseInt(strings.TrimSpace(record[5]), 10, 64)

		if name == "" || quantity < 0 {
			continue
		}

		if _, err := stmt.Exec(nullIfEmpty(sku), name, nullIfEmpty(description), costPrice, sellingPrice, quantity); err != nil {
			logger.Warn("unable to insert product", zap.String("name", name), zap.Error(err))
		} else {
			rows++
		}
	}

	if err := tx.Commit(); err != nil {
		logger.Warn("unable to commit product seed", zap.Error(err))
	} else {
		logger.Info("seeded product catalog", zap.Int("rows", rows))
	}
}

func nullIfEmpty(val string) *string {
	if val == "" {
		return nil
	}
	return &val
}
