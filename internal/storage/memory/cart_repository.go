package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/ims/internal/domain"
)

// cartRepositoryInMemory — in-memory реализация CartRepository.
type cartRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Cart
}

// NewCartRepository возвращает in-memory репозиторий корзин.
func NewCartRepository() domain.CartRepository {
	return &cartRepositoryInMemory{
		items: make(map[string]domain.Cart),
	}
}

// Get возвращает корзину пользователя или ErrCartNotFound.
func (r *cartRepositoryInMemory) Get(userID string) (domain.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, ok := r.items[userID]
	if !ok {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	// Копируем срез позиций, чтобы избежать мутаций извне.
	cart.Items = append([]domain.CartItem(nil), cart.Items...)
	return cart, nil
}

// Save создаёт или перезаписывает корзину, проверяя версию (optimistic locking).
// Гонка двух запросов на одну корзину проявляется как ErrVersionConflict.
func (r *cartRepositoryInMemory) Save(cart domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[cart.UserID]
	if ok && current.Version != cart.Version {
		return domain.ErrVersionConflict
	}

	cart.Version++
	cart.Items = append([]domain.CartItem(nil), cart.Items...)
	r.items[cart.UserID] = cart
	return nil
}

// Delete удаляет корзину; отсутствие корзины не ошибка.
func (r *cartRepositoryInMemory) Delete(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.items, userID)
	return nil
}

var _ domain.CartRepository = (*cartRepositoryInMemory)(nil)
