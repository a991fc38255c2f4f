package memory

import (
	"errors"
	"sync"
	"testing"

	"github.com/vladislavdragonenkov/ims/internal/domain"
)

func TestStockRepository_SetAndGet(t *testing.T) {
	repo := NewStockRepository()

	rec, err := repo.Set("prod-1", 10)
	if err != nil {
		t.Fatalf("set stock: %v", err)
	}
	if rec.Quantity != 10 {
		t.Fatalf("expected quantity 10, got %d", rec.Quantity)
	}
	if rec.LastUpdated.IsZero() {
		t.Fatal("expected LastUpdated to be stamped")
	}

	got, err := repo.Get("prod-1")
	if err != nil {
		t.Fatalf("get stock: %v", err)
	}
	if got.Quantity != 10 {
		t.Fatalf("expected quantity 10, got %d", got.Quantity)
	}
}

func TestStockRepository_GetMissing(t *testing.T) {
	repo := NewStockRepository()

	if _, err := repo.Get("ghost"); !errors.Is(err, domain.ErrStockNotFound) {
		t.Fatalf("expected ErrStockNotFound, got %v", err)
	}
}

func TestStockRepository_AdjustBelowZero(t *testing.T) {
	repo := NewStockRepository()
	if _, err := repo.Set("prod-1", 2); err != nil {
		t.Fatalf("set stock: %v", err)
	}

	_, err := repo.Adjust("prod-1", -3)
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	var insufficient *domain.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatal("expected InsufficientStockError")
	}
	if insufficient.Available != 2 {
		t.Fatalf("expected available 2, got %d", insufficient.Available)
	}

	// Остаток не должен измениться после отказа.
	rec, err := repo.Get("prod-1")
	if err != nil {
		t.Fatalf("get stock: %v", err)
	}
	if rec.Quantity != 2 {
		t.Fatalf("expected quantity 2 after failed adjust, got %d", rec.Quantity)
	}
}

func TestStockRepository_AdjustMissingRecord(t *testing.T) {
	repo := NewStockRepository()

	// Отрицательная дельта без записи — списывать не с чего.
	if _, err := repo.Adjust("ghost", -1); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	// Положительная дельта создаёт запись.
	rec, err := repo.Adjust("ghost", 4)
	if err != nil {
		t.Fatalf("adjust up: %v", err)
	}
	if rec.Quantity != 4 {
		t.Fatalf("expected quantity 4, got %d", rec.Quantity)
	}
}

// N конкурентных списаний по 1 при остатке ровно N должны все пройти
// и оставить остаток 0; лишнее списание обязано упасть, не уведя остаток в минус.
func TestStockRepository_ConcurrentAdjust(t *testing.T) {
	const n = 50

	repo := NewStockRepository()
	if _, err := repo.Set("prod-1", n); err != nil {
		t.Fatalf("set stock: %v", err)
	}

	var wg sync.WaitGroup
	errCh := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Adjust("prod-1", -1); err != nil {
				errCh <- err
			}
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		t.Fatalf("unexpected adjust failure: %v", err)
	}

	rec, err := repo.Get("prod-1")
	if err != nil {
		t.Fatalf("get stock: %v", err)
	}
	if rec.Quantity != 0 {
		t.Fatalf("expected quantity 0 after %d decrements, got %d", n, rec.Quantity)
	}

	if _, err := repo.Adjust("prod-1", -1); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock on extra decrement, got %v", err)
	}
	rec, _ = repo.Get("prod-1")
	if rec.Quantity != 0 {
		t.Fatalf("stock went negative: %d", rec.Quantity)
	}
}

func TestStockRepository_ListBelow(t *testing.T) {
	repo := NewStockRepository()
	seed := map[string]int32{"prod-1": 2, "prod-2": 5, "prod-3": 20}
	for id, qty := range seed {
		if _, err := repo.Set(id, qty); err != nil {
			t.Fatalf("set stock %s: %v", id, err)
		}
	}

	low, err := repo.ListBelow(5)
	if err != nil {
		t.Fatalf("list below: %v", err)
	}
	if len(low) != 2 {
		t.Fatalf("expected 2 low stock records, got %d", len(low))
	}
	if low[0].ProductID != "prod-1" || low[1].ProductID != "prod-2" {
		t.Fatalf("unexpected low stock order: %+v", low)
	}

	all, err := repo.List()
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
}
