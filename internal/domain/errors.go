package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUserRequired — отсутствует идентификатор пользователя.
	ErrUserRequired = errors.New("user_id is required")
	// ErrItemsRequired — заказ должен содержать хотя бы одну позицию.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// ErrItemPriceInvalid — цена позиции отрицательная.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	// ErrAmountMismatch — сумма заказа не сходится с суммой позиций.
	ErrAmountMismatch = errors.New("order total does not match items sum")
	// ErrInvalidQuantity — количество вне допустимого диапазона
	// (нужен минимум 1, либо отрицательный целевой остаток).
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	// ErrInvalidStatus — неизвестный статус заказа.
	ErrInvalidStatus = errors.New("unknown order status")
	// ErrInsufficientStock — запрошено больше, чем доступно на складе.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrStockNotFound — складская запись по товару отсутствует.
	ErrStockNotFound = errors.New("stock record not found")
	// ErrProductNotFound — товар не найден в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrCartNotFound — корзина пользователя отсутствует.
	ErrCartNotFound = errors.New("cart not found")
	// ErrCartItemNotFound — товара нет в корзине.
	ErrCartItemNotFound = errors.New("product not found in cart")
	// ErrCartEmpty — корзина пуста, оформление невозможно.
	ErrCartEmpty = errors.New("cart is empty")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderExists возвращается при попытке создать заказ с занятым ID.
	ErrOrderExists = errors.New("order already exists")
	// ErrUnauthorized — вызывающий слой не подтвердил право на операцию.
	ErrUnauthorized = errors.New("operation not permitted")
	// ErrVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrVersionConflict = errors.New("version conflict")
)

// InsufficientStockError несёт товар и доступный остаток; разворачивается
// в ErrInsufficientStock для проверки через errors.Is.
type InsufficientStockError struct {
	ProductID string
	Requested int32
	Available int32
}

// Error формирует пользовательское сообщение с доступным количеством.
func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for product %s: requested %d, only %d available",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// NewInsufficientStock создаёт ошибку нехватки остатка по товару.
func NewInsufficientStock(productID string, requested, available int32) error {
	return &InsufficientStockError{ProductID: productID, Requested: requested, Available: available}
}

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}
