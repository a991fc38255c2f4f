package app

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ims/internal/domain"
	"github.com/vladislavdragonenkov/ims/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/ims/internal/service/cart"
	"github.com/vladislavdragonenkov/ims/internal/service/catalog"
	"github.com/vladislavdragonenkov/ims/internal/service/inventory"
	"github.com/vladislavdragonenkov/ims/internal/service/order"
	"github.com/vladislavdragonenkov/ims/internal/storage/memory"
	"github.com/vladislavdragonenkov/ims/internal/storage/postgres"
)

// Dependencies содержит все зависимости приложения.
type Dependencies struct {
	Store  *postgres.Store // nil в in-memory режиме
	Stock  domain.StockRepository
	Carts  domain.CartRepository
	Orders domain.OrderRepository

	Catalog       domain.CatalogService
	Ledger        inventory.Ledger
	CartService   cart.Service
	OrderService  order.Service
	KafkaProducer *kafka.Producer

	Logger *log.Entry
}

// NewDependencies создаёт и инициализирует все зависимости приложения.
// Хранилище выбирается по DSN: postgres при заданном, иначе in-memory.
// NOTE: каталог здесь — seeded mock; в production окружении его заменяет
// клиент реального каталога товаров.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{
		Logger:  logger,
		Catalog: demoCatalog(),
	}

	if cfg.PostgresDSN != "" {
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		deps.Store = store
		deps.Stock = postgres.NewStockRepository(store)
		deps.Carts = postgres.NewCartRepository(store)
		deps.Orders = postgres.NewOrderRepository(store)
		logger.Info("postgres storage initialized")
	} else {
		deps.Stock = memory.NewStockRepository()
		deps.Carts = memory.NewCartRepository()
		deps.Orders = memory.NewOrderRepository()
		logger.Info("in-memory storage initialized")
	}

	if cfg.KafkaBrokers != "" {
		brokers := strings.Split(cfg.KafkaBrokers, ",")
		producer, err := kafka.NewProducer(brokers)
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		} else {
			deps.KafkaProducer = producer
			logger.WithField("brokers", brokers).Info("kafka producer initialized")
		}
	}

	if deps.KafkaProducer != nil {
		deps.Ledger = inventory.NewLedgerWithKafka(deps.Stock, deps.KafkaProducer, logger.WithField("component", "inventory"))
		deps.OrderService = order.NewServiceWithKafka(deps.Orders, deps.Ledger, deps.Catalog, deps.KafkaProducer, logger.WithField("component", "order"))
	} else {
		deps.Ledger = inventory.NewLedger(deps.Stock, logger.WithField("component", "inventory"))
		deps.OrderService = order.NewService(deps.Orders, deps.Ledger, deps.Catalog, logger.WithField("component", "order"))
	}
	deps.CartService = cart.NewService(deps.Carts, deps.Stock, deps.Catalog, logger.WithField("component", "cart"))

	return deps, nil
}

// Close освобождает внешние ресурсы в обратном порядке инициализации.
func (d *Dependencies) Close() {
	if d.KafkaProducer != nil {
		if err := d.KafkaProducer.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close kafka producer")
		} else {
			d.Logger.Info("kafka producer closed")
		}
	}
	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close postgres store")
		}
	}
}

// demoCatalog — небольшой каталог для локального запуска без внешнего сервиса.
func demoCatalog() domain.CatalogService {
	return catalog.NewSeededMockService(
		domain.Product{ID: "sku-widget", Name: "Widget", PriceMinor: 1500},
		domain.Product{ID: "sku-gadget", Name: "Gadget", PriceMinor: 2500},
		domain.Product{ID: "sku-doohickey", Name: "Doohickey", PriceMinor: 990},
	)
}
