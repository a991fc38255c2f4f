package inventory

import (
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ims/internal/domain"
	"github.com/vladislavdragonenkov/ims/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/ims/internal/metrics"
)

// defaultLowStockThreshold применяется, когда вызывающая сторона не задала порог.
const defaultLowStockThreshold int32 = 5

// Ledger — единственная точка изменения складских остатков. Корзины остатки
// не трогают, заказы списывают и возвращают товар только через журнал.
type Ledger interface {
	GetStock(productID string) (domain.StockRecord, error)
	SetStock(productID string, quantity int32) (domain.StockRecord, error)
	AdjustStock(productID string, delta int32) (domain.StockRecord, error)
	BulkAdjust(adjustments []domain.StockAdjustment) domain.BulkAdjustReport
	CheckAvailability(items []domain.ItemQuantity) (domain.AvailabilityReport, error)
	// Debit списывает все позиции или ни одной: при отказе на середине уже
	// списанные позиции возвращаются обратно.
	Debit(items []domain.ItemQuantity) error
	// Credit возвращает позиции на склад. Ошибки отдельных позиций логируются,
	// остальные позиции всё равно применяются.
	Credit(items []domain.ItemQuantity) error
	ListAll() ([]domain.StockRecord, error)
	ListLowStock(threshold int32) ([]domain.StockRecord, error)
}

type ledger struct {
	stock         domain.StockRepository
	logger        *log.Entry
	metrics       *metrics.LedgerMetrics
	kafkaProducer *kafka.Producer // опциональный Kafka producer для событий склада
}

// NewLedger создаёт рабочий экземпляр складского журнала.
func NewLedger(stock domain.StockRepository, logger *log.Entry) Ledger {
	if logger == nil {
		logger = log.New().WithField("component", "inventory")
	}
	return &ledger{
		stock:   stock,
		logger:  logger,
		metrics: metrics.NewLedgerMetrics(),
	}
}

// NewLedgerWithKafka создаёт журнал с Kafka producer для событий склада.
func NewLedgerWithKafka(stock domain.StockRepository, kafkaProducer *kafka.Producer, logger *log.Entry) Ledger {
	if logger == nil {
		logger = log.New().WithField("component", "inventory")
	}
	return &ledger{
		stock:         stock,
		logger:        logger,
		metrics:       metrics.NewLedgerMetrics(),
		kafkaProducer: kafkaProducer,
	}
}

// NewLedgerWithoutMetrics создаёт журнал без метрик (для тестов).
func NewLedgerWithoutMetrics(stock domain.StockRepository, logger *log.Entry) Ledger {
	if logger == nil {
		logger = log.New().WithField("component", "inventory")
	}
	return &ledger{
		stock:   stock,
		logger:  logger,
		metrics: nil,
	}
}

// GetStock возвращает складскую запись по товару.
func (l *ledger) GetStock(productID string) (domain.StockRecord, error) {
	return l.stock.Get(productID)
}

// SetStock выставляет абсолютный остаток. Отрицательное значение отклоняется.
func (l *ledger) SetStock(productID string, quantity int32) (domain.StockRecord, error) {
	if quantity < 0 {
		return domain.StockRecord{}, domain.ErrInvalidQuantity
	}
	rec, err := l.stock.Set(productID, quantity)
	if err != nil {
		return domain.StockRecord{}, err
	}
	l.logger.WithFields(log.Fields{
		"product_id": productID,
		"quantity":   quantity,
	}).Info("stock level set")
	l.publishStockEvent(kafka.EventTypeStockSet, rec, 0)
	return rec, nil
}

// AdjustStock атомарно применяет дельту к остатку.
func (l *ledger) AdjustStock(productID string, delta int32) (domain.StockRecord, error) {
	rec, err := l.stock.Adjust(productID, delta)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			if l.metrics != nil {
				l.metrics.RecordInsufficientStock()
			}
			l.logger.WithFields(log.Fields{
				"product_id": productID,
				"delta":      delta,
			}).Warn("stock adjustment rejected")
		}
		return domain.StockRecord{}, err
	}

	if l.metrics != nil {
		if delta < 0 {
			l.metrics.RecordStockDebit(1)
		} else if delta > 0 {
			l.metrics.RecordStockCredit(1)
		}
	}
	l.publishStockEvent(kafka.EventTypeStockAdjusted, rec, delta)
	if rec.Quantity == 0 && delta < 0 {
		l.publishStockEvent(kafka.EventTypeStockDepleted, rec, delta)
	}
	return rec, nil
}

// BulkAdjust применяет пакет изменений best-effort: каждая позиция независима,
// отказ одной не откатывает остальные.
func (l *ledger) BulkAdjust(adjustments []domain.StockAdjustment) domain.BulkAdjustReport {
	if l.metrics != nil {
		l.metrics.RecordBulkBatchSize(len(adjustments))
	}

	report := domain.BulkAdjustReport{}
	for _, adj := range adjustments {
		if _, err := l.AdjustStock(adj.ProductID, adj.Delta); err != nil {
			report.Errors = append(report.Errors, domain.BulkAdjustItemError{
				ProductID: adj.ProductID,
				Message:   err.Error(),
			})
			continue
		}
		report.Updated++
	}
	report.Success = len(report.Errors) == 0

	l.logger.WithFields(log.Fields{
		"total":   len(adjustments),
		"updated": report.Updated,
		"errors":  len(report.Errors),
	}).Info("bulk stock adjustment applied")
	return report
}

// CheckAvailability сверяет запрошенные количества с текущими остатками,
// ничего не списывая. Отсутствующая запись трактуется как нулевой остаток.
func (l *ledger) CheckAvailability(items []domain.ItemQuantity) (domain.AvailabilityReport, error) {
	report := domain.AvailabilityReport{AllAvailable: true}
	for _, item := range items {
		if item.Qty <= 0 {
			return domain.AvailabilityReport{}, domain.ErrInvalidQuantity
		}
		available := int32(0)
		rec, err := l.stock.Get(item.ProductID)
		if err == nil {
			available = rec.Quantity
		} else if !errors.Is(err, domain.ErrStockNotFound) {
			return domain.AvailabilityReport{}, err
		}
		if item.Qty > available {
			report.AllAvailable = false
			report.Insufficient = append(report.Insufficient, domain.InsufficientItem{
				ProductID: item.ProductID,
				Requested: item.Qty,
				Available: available,
			})
		}
	}
	return report, nil
}

// Debit списывает позиции со склада как единое целое. Список проверяется
// заранее, но остаток может измениться между проверкой и списанием, поэтому
// уже применённые позиции компенсируются при любом отказе.
func (l *ledger) Debit(items []domain.ItemQuantity) error {
	report, err := l.CheckAvailability(items)
	if err != nil {
		return err
	}
	if !report.AllAvailable {
		if l.metrics != nil {
			l.metrics.RecordInsufficientStock()
		}
		first := report.Insufficient[0]
		return domain.NewInsufficientStock(first.ProductID, first.Requested, first.Available)
	}

	applied := make([]domain.ItemQuantity, 0, len(items))
	for _, item := range items {
		rec, err := l.stock.Adjust(item.ProductID, -item.Qty)
		if err != nil {
			if errors.Is(err, domain.ErrInsufficientStock) && l.metrics != nil {
				l.metrics.RecordInsufficientStock()
			}
			l.logger.WithError(err).WithField("product_id", item.ProductID).Warn("debit failed, rolling back applied items")
			l.rollbackDebits(applied)
			return err
		}
		applied = append(applied, item)
		l.publishStockEvent(kafka.EventTypeStockAdjusted, rec, -item.Qty)
		if rec.Quantity == 0 {
			l.publishStockEvent(kafka.EventTypeStockDepleted, rec, -item.Qty)
		}
	}

	if l.metrics != nil {
		l.metrics.RecordStockDebit(len(applied))
	}
	return nil
}

// Credit возвращает позиции на склад. Компенсирующие начисления не должны
// останавливаться на первой ошибке.
func (l *ledger) Credit(items []domain.ItemQuantity) error {
	var firstErr error
	credited := 0
	for _, item := range items {
		rec, err := l.stock.Adjust(item.ProductID, item.Qty)
		if err != nil {
			l.logger.WithError(err).WithField("product_id", item.ProductID).Error("credit failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		credited++
		l.publishStockEvent(kafka.EventTypeStockAdjusted, rec, item.Qty)
	}
	if l.metrics != nil && credited > 0 {
		l.metrics.RecordStockCredit(credited)
	}
	return firstErr
}

// ListAll возвращает все складские записи.
func (l *ledger) ListAll() ([]domain.StockRecord, error) {
	return l.stock.List()
}

// ListLowStock возвращает записи с остатком не выше порога.
// Неположительный порог заменяется значением по умолчанию.
func (l *ledger) ListLowStock(threshold int32) ([]domain.StockRecord, error) {
	if threshold <= 0 {
		threshold = defaultLowStockThreshold
	}
	return l.stock.ListBelow(threshold)
}

func (l *ledger) rollbackDebits(applied []domain.ItemQuantity) {
	for _, item := range applied {
		if _, err := l.stock.Adjust(item.ProductID, item.Qty); err != nil {
			l.logger.WithError(err).WithField("product_id", item.ProductID).Error("debit rollback failed")
		}
	}
}

func (l *ledger) publishStockEvent(eventType kafka.EventType, rec domain.StockRecord, delta int32) {
	if l.kafkaProducer == nil {
		return
	}
	event := kafka.NewStockEvent(eventType, rec.ProductID, rec.Quantity, delta)
	if err := l.kafkaProducer.PublishEvent(kafka.TopicStockEvents, rec.ProductID, event); err != nil {
		l.logger.WithError(err).WithFields(log.Fields{
			"event_type": eventType,
			"product_id": rec.ProductID,
		}).Warn("failed to publish stock event to kafka")
	}
}

var _ Ledger = (*ledger)(nil)
