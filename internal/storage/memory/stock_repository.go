package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/ims/internal/domain"
)

// stockRepositoryInMemory — in-memory реализация StockRepository.
// Мьютекс делает Adjust атомарным read-modify-write.
type stockRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.StockRecord
}

// NewStockRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewStockRepository() domain.StockRepository {
	return &stockRepositoryInMemory{
		items: make(map[string]domain.StockRecord),
	}
}

// Get возвращает складскую запись или ErrStockNotFound.
func (r *stockRepositoryInMemory) Get(productID string) (domain.StockRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.items[productID]
	if !ok {
		return domain.StockRecord{}, domain.ErrStockNotFound
	}
	return rec, nil
}

// Set выставляет абсолютный остаток, создавая запись при первом обращении.
func (r *stockRepositoryInMemory) Set(productID string, quantity int32) (domain.StockRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := domain.StockRecord{
		ProductID:   productID,
		Quantity:    quantity,
		LastUpdated: time.Now().UTC(),
	}
	r.items[productID] = rec
	return rec, nil
}

// Adjust атомарно применяет дельту под мьютексом, не позволяя остатку
// опуститься ниже нуля.
func (r *stockRepositoryInMemory) Adjust(productID string, delta int32) (domain.StockRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.items[productID]
	if !ok {
		if delta < 0 {
			// Списывать не с чего: записи нет, остаток трактуется как 0.
			return domain.StockRecord{}, domain.NewInsufficientStock(productID, -delta, 0)
		}
		rec = domain.StockRecord{ProductID: productID}
	}

	next := rec.Quantity + delta
	if next < 0 {
		return domain.StockRecord{}, domain.NewInsufficientStock(productID, -delta, rec.Quantity)
	}

	rec.Quantity = next
	rec.LastUpdated = time.Now().UTC()
	r.items[productID] = rec
	return rec, nil
}

// List возвращает все записи, отсортированные по товару для стабильной выдачи.
func (r *stockRepositoryInMemory) List() ([]domain.StockRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.StockRecord, 0, len(r.items))
	for _, rec := range r.items {
		result = append(result, rec)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ProductID < result[j].ProductID
	})
	return result, nil
}

// ListBelow возвращает записи с остатком не выше threshold.
func (r *stockRepositoryInMemory) ListBelow(threshold int32) ([]domain.StockRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.StockRecord, 0)
	for _, rec := range r.items {
		if rec.Quantity <= threshold {
			result = append(result, rec)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ProductID < result[j].ProductID
	})
	return result, nil
}

var _ domain.StockRepository = (*stockRepositoryInMemory)(nil)
