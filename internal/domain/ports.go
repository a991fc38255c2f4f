package domain

// Product — данные каталога, которые нужны этому ядру: имя и актуальная цена.
type Product struct {
	ID         string
	Name       string
	PriceMinor int64
}

// CatalogService описывает взаимодействие с внешним каталогом товаров.
// Цена из каталога авторитетна: цена, присланная клиентом, игнорируется.
type CatalogService interface {
	// GetProduct возвращает товар или ErrProductNotFound.
	GetProduct(productID string) (Product, error)
}

// Role — решение вызывающего слоя о роли пользователя. Ядро само ничего
// не аутентифицирует, оно лишь принимает или отклоняет операцию на основе
// переданного решения.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)
