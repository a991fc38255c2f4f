package domain

// StockRepository описывает требования к хранилищу складских записей.
// Adjust обязан быть атомарным read-modify-write: параллельные списания
// не должны терять обновления и не могут увести остаток ниже нуля.
type StockRepository interface {
	// Get возвращает запись по товару или ErrStockNotFound.
	Get(productID string) (StockRecord, error)
	// Set выставляет абсолютный остаток с upsert-семантикой.
	Set(productID string, quantity int32) (StockRecord, error)
	// Adjust атомарно применяет дельту. Отрицательная дельта без записи или
	// с уходом ниже нуля возвращает InsufficientStockError.
	Adjust(productID string, delta int32) (StockRecord, error)
	// List возвращает все складские записи.
	List() ([]StockRecord, error)
	// ListBelow возвращает записи с остатком <= threshold.
	ListBelow(threshold int32) ([]StockRecord, error)
}

// CartRepository описывает требования к хранилищу корзин.
type CartRepository interface {
	// Get возвращает корзину пользователя или ErrCartNotFound.
	Get(userID string) (Cart, error)
	// Save создаёт или перезаписывает корзину с учётом optimistic locking.
	Save(cart Cart) error
	// Delete удаляет корзину целиком; отсутствие корзины не ошибка.
	Delete(userID string) error
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ. Возвращает ошибку, если запись с таким ID уже существует.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(id string) (Order, error)
	// List возвращает заказы пользователя; пустой userID означает «все заказы».
	// Мягко удалённые заказы в выборку не попадают.
	List(userID string, limit int) ([]Order, error)
	// Save применяет обновления к заказу с учётом optimistic locking.
	Save(order Order) error
	// Delete физически удаляет заказ. Применяется только для компенсации
	// неудавшегося создания; обычное удаление — мягкое, через Save.
	Delete(id string) error
}
