package domain

import "time"

// CartItem — желаемое пользователем количество товара. Корзина НЕ резервирует
// остаток: доступность перепроверяется при чтении и при оформлении заказа.
type CartItem struct {
	ProductID string
	Qty       int32
}

// Cart — корзина пользователя; не более одной позиции на товар.
type Cart struct {
	UserID    string
	Items     []CartItem
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ItemIndex возвращает индекс позиции по товару или -1.
func (c *Cart) ItemIndex(productID string) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// IsEmpty сообщает, пуста ли корзина.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// CartItemView — позиция корзины, обогащённая данными каталога и склада.
type CartItemView struct {
	ProductID      string
	ProductName    string
	UnitPriceMinor int64
	Qty            int32
	// InStock — остаток больше нуля.
	InStock bool
	// AvailableStock — текущий остаток (0, если записи нет).
	AvailableStock int32
	// QuantityExceedsStock взводится, когда желаемое количество превышает
	// текущий остаток: склад мог уменьшиться после добавления в корзину.
	QuantityExceedsStock bool
}

// CartView — корзина для выдачи наружу. Отсутствующая корзина отдаётся
// явным пустым маркером, а не ошибкой.
type CartView struct {
	UserID  string
	Items   []CartItemView
	IsEmpty bool
}

// CartIssue — нехватка остатка по позиции корзины с именем товара из каталога.
type CartIssue struct {
	ProductID   string
	ProductName string
	Requested   int32
	Available   int32
}

// CartValidation — результат сверки корзины с текущими остатками.
type CartValidation struct {
	Valid  bool
	Issues []CartIssue
}

// CheckoutPreparation — корзина и результат валидации перед оформлением.
// Чисто читающая операция: остатки не удерживаются, фактическое списание
// происходит только при создании заказа.
type CheckoutPreparation struct {
	Cart   CartView
	Valid  bool
	Issues []CartIssue
}
