package order

import (
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ims/internal/domain"
	"github.com/vladislavdragonenkov/ims/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/ims/internal/metrics"
	"github.com/vladislavdragonenkov/ims/internal/service/inventory"
)

// Service оформляет заказы и проводит переходы их статусов. Создание заказа
// и смена статуса — единственные места, где склад списывается и кредитуется.
type Service interface {
	// CreateOrder проверяет все позиции, фиксирует цены из каталога,
	// сохраняет заказ в статусе pending и списывает склад. Либо видимы заказ
	// и все списания, либо ничего.
	CreateOrder(userID string, items []domain.ItemQuantity) (domain.OrderView, error)
	// GetOrders возвращает заказы пользователя; пустой userID означает все
	// заказы (право на это решает вызывающий слой).
	GetOrders(userID string) ([]domain.OrderView, error)
	GetOrderByID(orderID string) (domain.OrderView, error)
	// UpdateOrderStatus проводит переход статуса вместе со складским
	// эффектом перехода как единое целое.
	UpdateOrderStatus(orderID string, next domain.OrderStatus) (domain.OrderView, error)
	// DeleteOrder мягко удаляет заказ. Удаление — про хранение записей, не
	// про отмену: склад не кредитуется никогда.
	DeleteOrder(orderID string) error
}

type service struct {
	orders        domain.OrderRepository
	ledger        inventory.Ledger
	catalog       domain.CatalogService
	logger        *log.Entry
	metrics       *metrics.LedgerMetrics
	kafkaProducer *kafka.Producer // опциональный Kafka producer для событий заказов
}

// NewService создаёт рабочий сервис заказов.
func NewService(orders domain.OrderRepository, ledger inventory.Ledger, catalog domain.CatalogService, logger *log.Entry) Service {
	if logger == nil {
		logger = log.New().WithField("component", "order")
	}
	return &service{
		orders:  orders,
		ledger:  ledger,
		catalog: catalog,
		logger:  logger,
		metrics: metrics.NewLedgerMetrics(),
	}
}

// NewServiceWithKafka создаёт сервис заказов с Kafka producer.
func NewServiceWithKafka(orders domain.OrderRepository, ledger inventory.Ledger, catalog domain.CatalogService, kafkaProducer *kafka.Producer, logger *log.Entry) Service {
	if logger == nil {
		logger = log.New().WithField("component", "order")
	}
	return &service{
		orders:        orders,
		ledger:        ledger,
		catalog:       catalog,
		logger:        logger,
		metrics:       metrics.NewLedgerMetrics(),
		kafkaProducer: kafkaProducer,
	}
}

// NewServiceWithoutMetrics создаёт сервис заказов без метрик (для тестов).
func NewServiceWithoutMetrics(orders domain.OrderRepository, ledger inventory.Ledger, catalog domain.CatalogService, logger *log.Entry) Service {
	if logger == nil {
		logger = log.New().WithField("component", "order")
	}
	return &service{
		orders:  orders,
		ledger:  ledger,
		catalog: catalog,
		logger:  logger,
		metrics: nil,
	}
}

// CreateOrder выполняет полный проход валидации по всем позициям до первого
// списания: цена и наличие проверяются для каждой позиции, и только потом
// начинается фиксация. При отказе списания заказ компенсируется физическим
// удалением, при частичном списании журнал сам откатывает применённое.
func (s *service) CreateOrder(userID string, items []domain.ItemQuantity) (domain.OrderView, error) {
	start := time.Now()

	if userID == "" {
		return domain.OrderView{}, domain.ErrUserRequired
	}
	if len(items) == 0 {
		return domain.OrderView{}, domain.ErrItemsRequired
	}

	now := time.Now().UTC()
	lines := make([]domain.OrderLineItem, 0, len(items))
	var total int64
	for _, item := range items {
		if item.Qty <= 0 {
			return domain.OrderView{}, domain.ErrInvalidQuantity
		}
		// Цена клиента игнорируется: авторитетна только цена каталога.
		product, err := s.catalog.GetProduct(item.ProductID)
		if err != nil {
			return domain.OrderView{}, err
		}
		lines = append(lines, domain.OrderLineItem{
			ID:             uuid.NewString(),
			ProductID:      item.ProductID,
			Qty:            item.Qty,
			UnitPriceMinor: product.PriceMinor,
			CreatedAt:      now,
		})
		total += int64(item.Qty) * product.PriceMinor
	}

	report, err := s.ledger.CheckAvailability(items)
	if err != nil {
		return domain.OrderView{}, err
	}
	if !report.AllAvailable {
		first := report.Insufficient[0]
		return domain.OrderView{}, domain.NewInsufficientStock(first.ProductID, first.Requested, first.Available)
	}

	order := domain.Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		Status:          domain.OrderStatusPending,
		TotalPriceMinor: total,
		Items:           lines,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.orders.Create(order); err != nil {
		return domain.OrderView{}, err
	}

	if err := s.ledger.Debit(items); err != nil {
		// Остаток изменился между проверкой и списанием: заказ не должен
		// остаться видимым.
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("ledger debit failed, compensating order creation")
		if delErr := s.orders.Delete(order.ID); delErr != nil {
			s.logger.WithError(delErr).WithField("order_id", order.ID).Error("compensation delete failed")
		}
		return domain.OrderView{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordOrderCreated()
		s.metrics.RecordCheckoutDuration(time.Since(start))
	}
	s.logger.WithFields(log.Fields{
		"order_id":    order.ID,
		"user_id":     userID,
		"items_count": len(lines),
		"total_minor": total,
	}).Info("order created")
	s.publishOrderEvent(kafka.EventTypeOrderCreated, order, map[string]interface{}{
		"items_count": len(lines),
		"total_minor": total,
	})

	return s.buildView(order), nil
}

// GetOrders возвращает заказы с именами товаров, разрешёнными из каталога.
// Цены позиций остаются историческими ценами покупки.
func (s *service) GetOrders(userID string) ([]domain.OrderView, error) {
	orders, err := s.orders.List(userID, 0)
	if err != nil {
		return nil, err
	}
	views := make([]domain.OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, s.buildView(o))
	}
	return views, nil
}

// GetOrderByID возвращает заказ по идентификатору. Мягко удалённый заказ
// остаётся читаемым: удаление — вопрос хранения, а не доступа к записи.
func (s *service) GetOrderByID(orderID string) (domain.OrderView, error) {
	order, err := s.orders.Get(orderID)
	if err != nil {
		return domain.OrderView{}, err
	}
	return s.buildView(order), nil
}

// UpdateOrderStatus применяет переход статуса и его складской эффект как
// единое целое: при отказе обязательного списания статус не меняется, при
// отказе записи статуса уже выполненное списание компенсируется.
func (s *service) UpdateOrderStatus(orderID string, next domain.OrderStatus) (domain.OrderView, error) {
	if !domain.KnownStatus(next) {
		return domain.OrderView{}, domain.ErrInvalidStatus
	}

	order, err := s.orders.Get(orderID)
	if err != nil {
		return domain.OrderView{}, err
	}
	if order.IsDeleted {
		return domain.OrderView{}, domain.ErrOrderNotFound
	}
	if order.Status == next {
		return s.buildView(order), nil
	}

	previous := order.Status
	effect := domain.TransitionEffect(previous, next)
	items := lineQuantities(order.Items)

	switch effect {
	case domain.LedgerEffectDebit:
		// Реактивация: сначала списание всех позиций целиком, статус
		// меняется только после успеха.
		if err := s.ledger.Debit(items); err != nil {
			s.logger.WithError(err).WithFields(log.Fields{
				"order_id": order.ID,
				"next":     next,
			}).Warn("reactivation debit failed, status unchanged")
			return domain.OrderView{}, err
		}
		if err := s.persistStatus(&order, next); err != nil {
			if credErr := s.ledger.Credit(items); credErr != nil {
				s.logger.WithError(credErr).WithField("order_id", order.ID).Error("reactivation rollback failed")
			}
			return domain.OrderView{}, err
		}
		if s.metrics != nil {
			s.metrics.RecordOrderReactivated()
		}
	case domain.LedgerEffectCredit:
		// Отмена активного заказа: статус фиксируется, затем товары
		// возвращаются на склад. Отказ кредита откатывает статус: заказ
		// не может считаться отменённым, пока склад не отражает возврат.
		if err := s.persistStatus(&order, next); err != nil {
			return domain.OrderView{}, err
		}
		if err := s.ledger.Credit(items); err != nil {
			s.logger.WithError(err).WithFields(log.Fields{
				"order_id": order.ID,
				"next":     next,
			}).Error("cancel credit failed, rolling back status")
			if rbErr := s.persistStatus(&order, previous); rbErr != nil {
				s.logger.WithError(rbErr).WithField("order_id", order.ID).Error("cancel rollback failed")
			}
			return domain.OrderView{}, err
		}
	default:
		if err := s.persistStatus(&order, next); err != nil {
			return domain.OrderView{}, err
		}
	}

	if next == domain.OrderStatusCancelled && s.metrics != nil {
		s.metrics.RecordOrderCancelled()
	}
	s.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"previous": previous,
		"next":     next,
		"effect":   effect.String(),
	}).Info("order status updated")
	s.publishOrderEvent(kafka.EventTypeOrderStatusChanged, order, map[string]interface{}{
		"previous": string(previous),
		"effect":   effect.String(),
	})

	return s.buildView(order), nil
}

// DeleteOrder мягко удаляет заказ; повторное удаление безвредно.
func (s *service) DeleteOrder(orderID string) error {
	order, err := s.orders.Get(orderID)
	if err != nil {
		return err
	}
	if order.IsDeleted {
		return nil
	}

	now := time.Now().UTC()
	order.IsDeleted = true
	order.DeletedAt = &now
	order.UpdatedAt = now
	if err := s.orders.Save(order); err != nil {
		return err
	}

	s.logger.WithField("order_id", order.ID).Info("order soft deleted")
	s.publishOrderEvent(kafka.EventTypeOrderDeleted, order, nil)
	return nil
}

// persistStatus сохраняет новый статус с повтором при конфликте версий.
// После перезагрузки переход проверяется заново: если статус успел уйти от
// исходного, эффект перехода уже не тот и операция отдаёт конфликт наружу.
func (s *service) persistStatus(order *domain.Order, next domain.OrderStatus) error {
	const maxRetries = 3
	const baseDelay = 10 * time.Millisecond

	previous := order.Status
	for attempt := 0; attempt < maxRetries; attempt++ {
		order.Status = next
		order.UpdatedAt = time.Now().UTC()
		prevVersion := order.Version

		if err := s.orders.Save(*order); err != nil {
			if domain.IsVersionConflict(err) && attempt < maxRetries-1 {
				s.logger.WithFields(log.Fields{
					"order_id": order.ID,
					"attempt":  attempt + 1,
					"version":  order.Version,
				}).Warn("version conflict detected, retrying")

				fresh, loadErr := s.orders.Get(order.ID)
				if loadErr != nil {
					order.Status = previous
					return loadErr
				}
				if fresh.Status != previous || fresh.IsDeleted {
					order.Status = previous
					return domain.ErrVersionConflict
				}
				*order = fresh

				time.Sleep(baseDelay * time.Duration(1<<uint(attempt)))
				continue
			}
			order.Status = previous
			s.logger.WithError(err).WithFields(log.Fields{
				"order_id": order.ID,
				"attempt":  attempt + 1,
			}).Error("failed to persist status")
			return err
		}

		order.Version = prevVersion + 1
		return nil
	}
	return domain.ErrVersionConflict
}

func (s *service) buildView(order domain.Order) domain.OrderView {
	view := domain.OrderView{Order: order}
	for _, line := range order.Items {
		lv := domain.OrderLineView{OrderLineItem: line}
		if product, err := s.catalog.GetProduct(line.ProductID); err == nil {
			lv.ProductName = product.Name
		}
		view.Lines = append(view.Lines, lv)
	}
	return view
}

func (s *service) publishOrderEvent(eventType kafka.EventType, order domain.Order, metadata map[string]interface{}) {
	if s.kafkaProducer == nil {
		return
	}
	event := kafka.NewOrderEvent(eventType, order.ID, order.UserID, string(order.Status), metadata)
	if err := s.kafkaProducer.PublishEvent(kafka.TopicOrderEvents, order.ID, event); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"event_type": eventType,
			"order_id":   order.ID,
		}).Warn("failed to publish order event to kafka")
	}
}

func lineQuantities(lines []domain.OrderLineItem) []domain.ItemQuantity {
	items := make([]domain.ItemQuantity, 0, len(lines))
	for _, line := range lines {
		items = append(items, domain.ItemQuantity{ProductID: line.ProductID, Qty: line.Qty})
	}
	return items
}

var _ Service = (*service)(nil)
