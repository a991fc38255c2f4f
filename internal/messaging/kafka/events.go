package kafka

import "time"

// EventType определяет тип события.
type EventType string

const (
	// Складские события
	EventTypeStockSet      EventType = "stock.set"
	EventTypeStockAdjusted EventType = "stock.adjusted"
	EventTypeStockDepleted EventType = "stock.depleted"

	// События заказов
	EventTypeOrderCreated       EventType = "order.created"
	EventTypeOrderStatusChanged EventType = "order.status_changed"
	EventTypeOrderDeleted       EventType = "order.deleted"
)

// Topics для Kafka.
const (
	TopicStockEvents = "ims.stock.events"
	TopicOrderEvents = "ims.order.events"
)

// StockEvent описывает движение по складскому журналу.
type StockEvent struct {
	EventType EventType `json:"event_type"`
	ProductID string    `json:"product_id"`
	Quantity  int32     `json:"quantity"`
	Delta     int32     `json:"delta,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderEvent описывает событие жизненного цикла заказа.
type OrderEvent struct {
	EventType EventType              `json:"event_type"`
	OrderID   string                 `json:"order_id"`
	UserID    string                 `json:"user_id"`
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewStockEvent создаёт складское событие.
func NewStockEvent(eventType EventType, productID string, quantity, delta int32) *StockEvent {
	return &StockEvent{
		EventType: eventType,
		ProductID: productID,
		Quantity:  quantity,
		Delta:     delta,
		Timestamp: time.Now(),
	}
}

// NewOrderEvent создаёт событие заказа.
func NewOrderEvent(eventType EventType, orderID, userID, status string, metadata map[string]interface{}) *OrderEvent {
	return &OrderEvent{
		EventType: eventType,
		OrderID:   orderID,
		UserID:    userID,
		Status:    status,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}
