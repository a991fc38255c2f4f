package domain

import "time"

// StockRecord хранит доступное количество товара. Единственный владелец
// истины о количестве — складской журнал; корзины и заказы держат только ссылки.
type StockRecord struct {
	// ProductID — уникальный ключ записи.
	ProductID string
	// Quantity — доступное количество; никогда не опускается ниже нуля.
	Quantity int32
	// LastUpdated — момент последнего изменения записи.
	LastUpdated time.Time
}

// ItemQuantity — пара товар/количество для проверок доступности и заказов.
type ItemQuantity struct {
	ProductID string
	Qty       int32
}

// StockAdjustment — одно изменение остатка (положительное или отрицательное).
type StockAdjustment struct {
	ProductID string
	Delta     int32
}

// InsufficientItem описывает нехватку по одному товару.
type InsufficientItem struct {
	ProductID string
	Requested int32
	Available int32
}

// AvailabilityReport — результат проверки доступности без мутации остатков.
type AvailabilityReport struct {
	AllAvailable bool
	Insufficient []InsufficientItem
}

// BulkAdjustItemError — ошибка по одной позиции bulk-операции.
type BulkAdjustItemError struct {
	ProductID string
	Message   string
}

// BulkAdjustReport — итог best-effort пакетного изменения остатков:
// каждая позиция применяется независимо, успехи и ошибки собираются отдельно.
type BulkAdjustReport struct {
	// Success истинен только когда применились все позиции.
	Success bool
	// Updated — число успешно применённых позиций.
	Updated int
	Errors  []BulkAdjustItemError
}
