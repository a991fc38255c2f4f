package catalog

import (
	"sync"

	"github.com/vladislavdragonenkov/ims/internal/domain"
)

// MockService — конфигурируемая заглушка CatalogService для тестов и
// локального запуска без внешнего каталога. Безопасна для конкурентных
// вызовов: в приложении её дёргают параллельные HTTP-запросы.
type MockService struct {
	mu       sync.Mutex
	Products map[string]domain.Product
	GetErr   error

	GetCalls int
}

// NewMockService возвращает каталог без товаров.
func NewMockService() *MockService {
	return &MockService{Products: make(map[string]domain.Product)}
}

// NewSeededMockService возвращает каталог, заполненный переданными товарами.
func NewSeededMockService(products ...domain.Product) *MockService {
	m := NewMockService()
	for _, p := range products {
		m.Products[p.ID] = p
	}
	return m
}

// Seed добавляет или перезаписывает товар в каталоге.
func (m *MockService) Seed(p domain.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Products[p.ID] = p
}

// GetProduct возвращает товар, настроенную ошибку или ErrProductNotFound.
func (m *MockService) GetProduct(productID string) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetCalls++
	if m.GetErr != nil {
		return domain.Product{}, m.GetErr
	}
	p, ok := m.Products[productID]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

var _ domain.CatalogService = (*MockService)(nil)
