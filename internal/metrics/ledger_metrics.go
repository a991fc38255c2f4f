package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics содержит метрики складского журнала и жизненного цикла заказов.
type LedgerMetrics struct {
	// Счётчики движений по складу
	stockDebits  prometheus.Counter
	stockCredits prometheus.Counter
	stockRejects prometheus.Counter

	// Счётчики жизненного цикла заказов
	ordersCreated     prometheus.Counter
	ordersCancelled   prometheus.Counter
	ordersReactivated prometheus.Counter

	// Гистограмма времени оформления заказа
	checkoutDuration prometheus.Histogram

	// Gauge размера последней bulk-операции
	bulkBatchSize prometheus.Gauge
}

// NewLedgerMetrics создаёт метрики на default-регистраторе.
func NewLedgerMetrics() *LedgerMetrics {
	return newLedgerMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newLedgerMetricsWithRegisterer(registerer prometheus.Registerer) *LedgerMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &LedgerMetrics{
		stockDebits: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ims_stock_debits_total",
			Help: "Total number of successful stock debits",
		}),
		stockCredits: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ims_stock_credits_total",
			Help: "Total number of successful stock credits",
		}),
		stockRejects: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ims_stock_insufficient_total",
			Help: "Total number of stock operations rejected for insufficient quantity",
		}),
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ims_orders_created_total",
			Help: "Total number of orders created",
		}),
		ordersCancelled: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ims_orders_cancelled_total",
			Help: "Total number of orders cancelled",
		}),
		ordersReactivated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ims_orders_reactivated_total",
			Help: "Total number of cancelled orders reactivated",
		}),
		checkoutDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "ims_checkout_duration_seconds",
			Help:    "Duration of order creation in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		bulkBatchSize: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "ims_bulk_adjust_batch_size",
			Help: "Size of the most recent bulk stock adjustment batch",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordStockDebit фиксирует успешные списания.
func (m *LedgerMetrics) RecordStockDebit(items int) {
	m.stockDebits.Add(float64(items))
}

// RecordStockCredit фиксирует успешные возвраты на склад.
func (m *LedgerMetrics) RecordStockCredit(items int) {
	m.stockCredits.Add(float64(items))
}

// RecordInsufficientStock фиксирует отказ из-за нехватки остатка.
func (m *LedgerMetrics) RecordInsufficientStock() {
	m.stockRejects.Inc()
}

// RecordOrderCreated увеличивает счётчик созданных заказов.
func (m *LedgerMetrics) RecordOrderCreated() {
	m.ordersCreated.Inc()
}

// RecordOrderCancelled увеличивает счётчик отменённых заказов.
func (m *LedgerMetrics) RecordOrderCancelled() {
	m.ordersCancelled.Inc()
}

// RecordOrderReactivated увеличивает счётчик реактивированных заказов.
func (m *LedgerMetrics) RecordOrderReactivated() {
	m.ordersReactivated.Inc()
}

// RecordCheckoutDuration фиксирует длительность оформления заказа.
func (m *LedgerMetrics) RecordCheckoutDuration(d time.Duration) {
	m.checkoutDuration.Observe(d.Seconds())
}

// RecordBulkBatchSize фиксирует размер пакета bulk-операции.
func (m *LedgerMetrics) RecordBulkBatchSize(n int) {
	m.bulkBatchSize.Set(float64(n))
}
