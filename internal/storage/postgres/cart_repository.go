package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/ims/internal/domain"
)

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository создаёт PostgreSQL-реализацию CartRepository.
func NewCartRepository(store *Store) domain.CartRepository {
	return &cartRepository{db: store.DB()}
}

func (r *cartRepository) Get(userID string) (domain.Cart, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var cart domain.Cart
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, version, created_at, updated_at
		FROM carts
		WHERE user_id = $1
	`, userID).Scan(&cart.UserID, &cart.Version, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Cart{}, domain.ErrCartNotFound
		}
		return domain.Cart{}, fmt.Errorf("select cart: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, qty
		FROM cart_items
		WHERE user_id = $1
		ORDER BY product_id
	`, userID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("load cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ProductID, &item.Qty); err != nil {
			return domain.Cart{}, fmt.Errorf("scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return domain.Cart{}, fmt.Errorf("iterate cart items: %w", err)
	}

	return cart, nil
}

// Save перезаписывает корзину и её позиции одной транзакцией с проверкой версии.
func (r *cartRepository) Save(cart domain.Cart) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	var res sql.Result
	if cart.Version == 0 {
		res, err = tx.ExecContext(ctx, `
			INSERT INTO carts (user_id, version, created_at, updated_at)
			VALUES ($1, 1, $2, $2)
			ON CONFLICT (user_id) DO NOTHING
		`, cart.UserID, now)
	} else {
		res, err = tx.ExecContext(ctx, `
			UPDATE carts
			SET version = version + 1, updated_at = $2
			WHERE user_id = $1 AND version = $3
		`, cart.UserID, now, cart.Version)
	}
	if err != nil {
		return fmt.Errorf("upsert cart: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		// Версия разошлась: корзину параллельно изменил другой запрос.
		err = domain.ErrVersionConflict
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, cart.UserID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}
	for _, item := range cart.Items {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO cart_items (user_id, product_id, qty)
			VALUES ($1, $2, $3)
		`, cart.UserID, item.ProductID, item.Qty); err != nil {
			return fmt.Errorf("insert cart item: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save cart: %w", err)
	}
	return nil
}

func (r *cartRepository) Delete(userID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

var _ domain.CartRepository = (*cartRepository)(nil)
