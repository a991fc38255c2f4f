package cart

import (
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ims/internal/domain"
)

// Service управляет корзинами. Корзина хранит желаемые количества и НЕ
// резервирует остатки: проверки склада здесь только отсекают заведомо
// невыполнимые запросы, окончательное списание делает оформление заказа.
type Service interface {
	AddItem(userID, productID string, qty int32) (domain.CartView, error)
	// UpdateItem выставляет абсолютное количество позиции.
	UpdateItem(userID, productID string, qty int32) (domain.CartView, error)
	RemoveItem(userID, productID string) (domain.CartView, error)
	ClearCart(userID string) error
	// GetCart возвращает корзину, обогащённую каталогом и остатками.
	// Отсутствующая корзина — это пустая корзина, не ошибка.
	GetCart(userID string) (domain.CartView, error)
	// ValidateInventory сверяет корзину с текущими остатками без мутаций.
	ValidateInventory(userID string) (domain.CartValidation, error)
	// PrepareForCheckout возвращает корзину с консультативной валидацией.
	// Пустая или отсутствующая корзина оформлению не подлежит.
	PrepareForCheckout(userID string) (domain.CheckoutPreparation, error)
}

type service struct {
	carts   domain.CartRepository
	stock   domain.StockRepository
	catalog domain.CatalogService
	logger  *log.Entry
}

// NewService создаёт сервис корзин.
func NewService(carts domain.CartRepository, stock domain.StockRepository, catalog domain.CatalogService, logger *log.Entry) Service {
	if logger == nil {
		logger = log.New().WithField("component", "cart")
	}
	return &service{
		carts:   carts,
		stock:   stock,
		catalog: catalog,
		logger:  logger,
	}
}

// AddItem добавляет товар или увеличивает существующую позицию. Итоговое
// количество после слияния перепроверяется против остатка целиком.
func (s *service) AddItem(userID, productID string, qty int32) (domain.CartView, error) {
	if userID == "" {
		return domain.CartView{}, domain.ErrUserRequired
	}
	if qty <= 0 {
		return domain.CartView{}, domain.ErrInvalidQuantity
	}
	if _, err := s.catalog.GetProduct(productID); err != nil {
		return domain.CartView{}, err
	}

	err := s.saveWithRetry(userID, true, func(cart *domain.Cart) error {
		merged := qty
		if i := cart.ItemIndex(productID); i >= 0 {
			merged += cart.Items[i].Qty
		}
		if err := s.checkStock(productID, merged); err != nil {
			return err
		}
		if i := cart.ItemIndex(productID); i >= 0 {
			cart.Items[i].Qty = merged
		} else {
			cart.Items = append(cart.Items, domain.CartItem{ProductID: productID, Qty: merged})
		}
		return nil
	})
	if err != nil {
		return domain.CartView{}, err
	}

	s.logger.WithFields(log.Fields{
		"user_id":    userID,
		"product_id": productID,
		"qty":        qty,
	}).Info("item added to cart")
	return s.GetCart(userID)
}

// UpdateItem выставляет абсолютное количество существующей позиции.
func (s *service) UpdateItem(userID, productID string, qty int32) (domain.CartView, error) {
	if userID == "" {
		return domain.CartView{}, domain.ErrUserRequired
	}
	if qty <= 0 {
		return domain.CartView{}, domain.ErrInvalidQuantity
	}

	err := s.saveWithRetry(userID, false, func(cart *domain.Cart) error {
		i := cart.ItemIndex(productID)
		if i < 0 {
			return domain.ErrCartItemNotFound
		}
		if err := s.checkStock(productID, qty); err != nil {
			return err
		}
		cart.Items[i].Qty = qty
		return nil
	})
	if err != nil {
		return domain.CartView{}, err
	}
	return s.GetCart(userID)
}

// RemoveItem убирает позицию из корзины. Отсутствие позиции не ошибка,
// отсутствие самой корзины — ошибка.
func (s *service) RemoveItem(userID, productID string) (domain.CartView, error) {
	if userID == "" {
		return domain.CartView{}, domain.ErrUserRequired
	}

	err := s.saveWithRetry(userID, false, func(cart *domain.Cart) error {
		i := cart.ItemIndex(productID)
		if i < 0 {
			return nil
		}
		cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
		return nil
	})
	if err != nil {
		return domain.CartView{}, err
	}
	return s.GetCart(userID)
}

// ClearCart удаляет корзину целиком; повторный вызов безвреден.
func (s *service) ClearCart(userID string) error {
	if userID == "" {
		return domain.ErrUserRequired
	}
	if err := s.carts.Delete(userID); err != nil {
		return err
	}
	s.logger.WithField("user_id", userID).Info("cart cleared")
	return nil
}

// GetCart собирает выдачу корзины: имена и цены из каталога, остатки со
// склада, флаг превышения остатка по каждой позиции.
func (s *service) GetCart(userID string) (domain.CartView, error) {
	if userID == "" {
		return domain.CartView{}, domain.ErrUserRequired
	}

	cart, err := s.carts.Get(userID)
	if err != nil {
		if errors.Is(err, domain.ErrCartNotFound) {
			return domain.CartView{UserID: userID, IsEmpty: true}, nil
		}
		return domain.CartView{}, err
	}

	view := domain.CartView{UserID: userID, IsEmpty: cart.IsEmpty()}
	for _, item := range cart.Items {
		line := domain.CartItemView{ProductID: item.ProductID, Qty: item.Qty}

		if product, err := s.catalog.GetProduct(item.ProductID); err == nil {
			line.ProductName = product.Name
			line.UnitPriceMinor = product.PriceMinor
		} else if !errors.Is(err, domain.ErrProductNotFound) {
			return domain.CartView{}, err
		}

		available, err := s.availableStock(item.ProductID)
		if err != nil {
			return domain.CartView{}, err
		}
		line.AvailableStock = available
		line.InStock = available > 0
		line.QuantityExceedsStock = item.Qty > available

		view.Items = append(view.Items, line)
	}
	return view, nil
}

// ValidateInventory сверяет каждую позицию корзины с текущим остатком.
func (s *service) ValidateInventory(userID string) (domain.CartValidation, error) {
	if userID == "" {
		return domain.CartValidation{}, domain.ErrUserRequired
	}

	cart, err := s.carts.Get(userID)
	if err != nil {
		if errors.Is(err, domain.ErrCartNotFound) {
			return domain.CartValidation{Valid: true}, nil
		}
		return domain.CartValidation{}, err
	}

	validation := domain.CartValidation{Valid: true}
	for _, item := range cart.Items {
		available, err := s.availableStock(item.ProductID)
		if err != nil {
			return domain.CartValidation{}, err
		}
		if item.Qty <= available {
			continue
		}
		issue := domain.CartIssue{
			ProductID: item.ProductID,
			Requested: item.Qty,
			Available: available,
		}
		if product, err := s.catalog.GetProduct(item.ProductID); err == nil {
			issue.ProductName = product.Name
		}
		validation.Valid = false
		validation.Issues = append(validation.Issues, issue)
	}
	return validation, nil
}

// PrepareForCheckout отдаёт корзину и результат валидации одним снимком.
// Валидация консультативная: остатки не удерживаются, и к моменту создания
// заказа картина может измениться.
func (s *service) PrepareForCheckout(userID string) (domain.CheckoutPreparation, error) {
	view, err := s.GetCart(userID)
	if err != nil {
		return domain.CheckoutPreparation{}, err
	}
	if view.IsEmpty {
		return domain.CheckoutPreparation{}, domain.ErrCartEmpty
	}
	validation, err := s.ValidateInventory(userID)
	if err != nil {
		return domain.CheckoutPreparation{}, err
	}
	return domain.CheckoutPreparation{
		Cart:   view,
		Valid:  validation.Valid,
		Issues: validation.Issues,
	}, nil
}

// saveWithRetry применяет мутацию к корзине и сохраняет её, повторяя цикл
// при конфликте версий. createIfMissing управляет поведением для
// отсутствующей корзины.
func (s *service) saveWithRetry(userID string, createIfMissing bool, mutate func(*domain.Cart) error) error {
	const maxRetries = 3
	const baseDelay = 10 * time.Millisecond

	for attempt := 0; attempt < maxRetries; attempt++ {
		cart, err := s.carts.Get(userID)
		if err != nil {
			if !errors.Is(err, domain.ErrCartNotFound) {
				return err
			}
			if !createIfMissing {
				return err
			}
			cart = domain.Cart{UserID: userID}
		}

		if err := mutate(&cart); err != nil {
			return err
		}

		if err := s.carts.Save(cart); err != nil {
			if domain.IsVersionConflict(err) && attempt < maxRetries-1 {
				s.logger.WithFields(log.Fields{
					"user_id": userID,
					"attempt": attempt + 1,
				}).Warn("cart version conflict detected, retrying")
				time.Sleep(baseDelay * time.Duration(1<<uint(attempt)))
				continue
			}
			return err
		}
		return nil
	}
	return domain.ErrVersionConflict
}

func (s *service) checkStock(productID string, requested int32) error {
	available, err := s.availableStock(productID)
	if err != nil {
		return err
	}
	if requested > available {
		return domain.NewInsufficientStock(productID, requested, available)
	}
	return nil
}

func (s *service) availableStock(productID string) (int32, error) {
	rec, err := s.stock.Get(productID)
	if err != nil {
		if errors.Is(err, domain.ErrStockNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return rec.Quantity, nil
}

var _ Service = (*service)(nil)
