package domain

import "time"

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, склад уже списан, доставка ещё не началась.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusShipped — заказ передан в доставку.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered — заказ доставлен покупателю.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled — заказ отменён; товары возвращены на склад (если применимо).
	OrderStatusCancelled OrderStatus = "cancelled"
)

// KnownStatus сообщает, входит ли статус в допустимый набор.
func KnownStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// OrderLineItem представляет одну позицию заказа.
// Цена фиксируется в момент создания заказа и после этого не меняется,
// даже если цена в каталоге изменилась.
type OrderLineItem struct {
	// ID позиции нужен для однозначной идентификации и аудита.
	ID string
	// ProductID — внешний идентификатор товара в каталоге.
	ProductID string
	// Qty — количество единиц товара.
	Qty int32
	// UnitPriceMinor — цена за единицу в минимальных денежных единицах,
	// снятая с каталога при создании заказа.
	UnitPriceMinor int64
	// CreatedAt фиксирует момент добавления позиции в заказ.
	CreatedAt time.Time
}

// Order агрегирует состояние заказа и его позиции. После создания
// мутируется только статус и флаг мягкого удаления.
type Order struct {
	ID              string
	UserID          string
	Status          OrderStatus
	TotalPriceMinor int64
	Items           []OrderLineItem
	Version         int64
	IsDeleted       bool
	DeletedAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.UserID == "" {
		errs = append(errs, ErrUserRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if !KnownStatus(o.Status) {
		errs = append(errs, ErrInvalidStatus)
	}

	// Сверяем сумму заказа с суммой позиций: qty * price.
	var calc int64
	for _, item := range o.Items {
		if item.Qty <= 0 {
			errs = append(errs, ErrInvalidQuantity)
		}
		if item.UnitPriceMinor < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
		calc += int64(item.Qty) * item.UnitPriceMinor
	}
	if calc != o.TotalPriceMinor {
		errs = append(errs, ErrAmountMismatch)
	}

	return errs
}

// OrderLineView — позиция заказа, обогащённая данными каталога для выдачи наружу.
// UnitPriceMinor остаётся исторической ценой заказа, не текущей ценой каталога.
type OrderLineView struct {
	OrderLineItem
	ProductName string
}

// OrderView — заказ с разрешёнными деталями товаров.
type OrderView struct {
	Order
	Lines []OrderLineView
}
