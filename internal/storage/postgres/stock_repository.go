package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/ims/internal/domain"
)

const (
	opTimeout = 5 * time.Second
)

type stockRepository struct {
	db *sql.DB
}

// NewStockRepository создаёт PostgreSQL-реализацию StockRepository.
func NewStockRepository(store *Store) domain.StockRepository {
	return &stockRepository{db: store.DB()}
}

func (r *stockRepository) Get(productID string) (domain.StockRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var rec domain.StockRecord
	err := r.db.QueryRowContext(ctx, `
		SELECT product_id, quantity, last_updated
		FROM stock_records
		WHERE product_id = $1
	`, productID).Scan(&rec.ProductID, &rec.Quantity, &rec.LastUpdated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.StockRecord{}, domain.ErrStockNotFound
		}
		return domain.StockRecord{}, fmt.Errorf("select stock record: %w", err)
	}
	return rec, nil
}

func (r *stockRepository) Set(productID string, quantity int32) (domain.StockRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var rec domain.StockRecord
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO stock_records (product_id, quantity, last_updated)
		VALUES ($1, $2, NOW())
		ON CONFLICT (product_id) DO UPDATE
		SET quantity = EXCLUDED.quantity, last_updated = NOW()
		RETURNING product_id, quantity, last_updated
	`, productID, quantity).Scan(&rec.ProductID, &rec.Quantity, &rec.LastUpdated)
	if err != nil {
		return domain.StockRecord{}, fmt.Errorf("upsert stock record: %w", err)
	}
	return rec, nil
}

// Adjust применяет дельту одним условным UPDATE: отдельного чтения с
// последующей незащищённой записью нет, поэтому параллельные списания
// не теряют обновлений и не уводят остаток ниже нуля.
func (r *stockRepository) Adjust(productID string, delta int32) (domain.StockRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if delta >= 0 {
		// Пополнение создаёт запись при первом обращении.
		var rec domain.StockRecord
		err := r.db.QueryRowContext(ctx, `
			INSERT INTO stock_records (product_id, quantity, last_updated)
			VALUES ($1, $2, NOW())
			ON CONFLICT (product_id) DO UPDATE
			SET quantity = stock_records.quantity + EXCLUDED.quantity, last_updated = NOW()
			RETURNING product_id, quantity, last_updated
		`, productID, delta).Scan(&rec.ProductID, &rec.Quantity, &rec.LastUpdated)
		if err != nil {
			return domain.StockRecord{}, fmt.Errorf("credit stock record: %w", err)
		}
		return rec, nil
	}

	var rec domain.StockRecord
	err := r.db.QueryRowContext(ctx, `
		UPDATE stock_records
		SET quantity = quantity + $2, last_updated = NOW()
		WHERE product_id = $1 AND quantity + $2 >= 0
		RETURNING product_id, quantity, last_updated
	`, productID, delta).Scan(&rec.ProductID, &rec.Quantity, &rec.LastUpdated)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.StockRecord{}, fmt.Errorf("debit stock record: %w", err)
	}

	// UPDATE никого не задел: записи нет либо остатка не хватает.
	current, getErr := r.Get(productID)
	if getErr != nil {
		if errors.Is(getErr, domain.ErrStockNotFound) {
			return domain.StockRecord{}, domain.NewInsufficientStock(productID, -delta, 0)
		}
		return domain.StockRecord{}, getErr
	}
	return domain.StockRecord{}, domain.NewInsufficientStock(productID, -delta, current.Quantity)
}

func (r *stockRepository) List() ([]domain.StockRecord, error) {
	return r.list(`
		SELECT product_id, quantity, last_updated
		FROM stock_records
		ORDER BY product_id
	`)
}

func (r *stockRepository) ListBelow(threshold int32) ([]domain.StockRecord, error) {
	return r.list(`
		SELECT product_id, quantity, last_updated
		FROM stock_records
		WHERE quantity <= $1
		ORDER BY product_id
	`, threshold)
}

func (r *stockRepository) list(query string, args ...any) ([]domain.StockRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock records: %w", err)
	}
	defer rows.Close()

	result := make([]domain.StockRecord, 0)
	for rows.Next() {
		var rec domain.StockRecord
		if err := rows.Scan(&rec.ProductID, &rec.Quantity, &rec.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan stock record: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stock records: %w", err)
	}
	return result, nil
}

var _ domain.StockRepository = (*stockRepository)(nil)
