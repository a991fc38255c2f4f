package order

import (
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/ims/internal/domain"
	"github.com/vladislavdragonenkov/ims/internal/service/catalog"
	"github.com/vladislavdragonenkov/ims/internal/service/inventory"
	"github.com/vladislavdragonenkov/ims/internal/storage/memory"
)

type orderFixture struct {
	service Service
	ledger  inventory.Ledger
	orders  domain.OrderRepository
	catalog *catalog.MockService
}

func newOrderFixture() orderFixture {
	products := catalog.NewSeededMockService(
		domain.Product{ID: "p-1", Name: "Widget", PriceMinor: 1500},
		domain.Product{ID: "p-2", Name: "Gadget", PriceMinor: 2500},
	)
	ledger := inventory.NewLedgerWithoutMetrics(memory.NewStockRepository(), nil)
	orders := memory.NewOrderRepository()
	return orderFixture{
		service: NewServiceWithoutMetrics(orders, ledger, products, nil),
		ledger:  ledger,
		orders:  orders,
		catalog: products,
	}
}

func (f orderFixture) seedStock(t *testing.T, productID string, qty int32) {
	t.Helper()
	if _, err := f.ledger.SetStock(productID, qty); err != nil {
		t.Fatalf("seed stock %s: %v", productID, err)
	}
}

func (f orderFixture) stockQty(t *testing.T, productID string) int32 {
	t.Helper()
	rec, err := f.ledger.GetStock(productID)
	if err != nil {
		t.Fatalf("get stock %s: %v", productID, err)
	}
	return rec.Quantity
}

func TestService_CreateOrder(t *testing.T) {
	f := newOrderFixture()
	f.seedStock(t, "p-1", 5)

	view, err := f.service.CreateOrder("u-1", []domain.ItemQuantity{{ProductID: "p-1", Qty: 3}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.ID == "" || view.Status != domain.OrderStatusPending {
		t.Fatalf("unexpected order: %+v", view.Order)
	}
	if view.TotalPriceMinor != 3*1500 {
		t.Fatalf("expected total %d, got %d", 3*1500, view.TotalPriceMinor)
	}
	if len(view.Lines) != 1 || view.Lines[0].ProductName != "Widget" {
		t.Fatalf("unexpected lines: %+v", view.Lines)
	}
	if view.Lines[0].UnitPriceMinor != 1500 {
		t.Fatalf("expected stamped price 1500, got %d", view.Lines[0].UnitPriceMinor)
	}

	if got := f.stockQty(t, "p-1"); got != 2 {
		t.Fatalf("expected stock debited to 2, got %d", got)
	}

	if errs := view.Order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("order violates invariants: %v", errs)
	}
}

func TestService_CreateOrderInsufficientStock(t *testing.T) {
	f := newOrderFixture()
	f.seedStock(t, "p-1", 2)

	_, err := f.service.CreateOrder("u-1", []domain.ItemQuantity{{ProductID: "p-1", Qty: 3}})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	var detail *domain.InsufficientStockError
	if !errors.As(err, &detail) {
		t.Fatalf("expected InsufficientStockError, got %T", err)
	}
	if detail.ProductID != "p-1" || detail.Available != 2 {
		t.Fatalf("unexpected detail: %+v", detail)
	}

	if got := f.stockQty(t, "p-1"); got != 2 {
		t.Fatalf("expected stock untouched at 2, got %d", got)
	}
	views, err := f.service.GetOrders("u-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 0 {
		t.Fatalf("expected no persisted orders, got %d", len(views))
	}
}

func TestService_CreateOrderMixedItemsAllOrNothing(t *testing.T) {
	f := newOrderFixture()
	f.seedStock(t, "p-1", 10)
	f.seedStock(t, "p-2", 1)

	// Вторая позиция невыполнима: первая не должна списаться.
	_, err := f.service.CreateOrder("u-1", []domain.ItemQuantity{
		{ProductID: "p-1", Qty: 3},
		{ProductID: "p-2", Qty: 2},
	})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if got := f.stockQty(t, "p-1"); got != 10 {
		t.Fatalf("expected p-1 untouched at 10, got %d", got)
	}
	if got := f.stockQty(t, "p-2"); got != 1 {
		t.Fatalf("expected p-2 untouched at 1, got %d", got)
	}
}

func TestService_CreateOrderUnknownProduct(t *testing.T) {
	f := newOrderFixture()
	f.seedStock(t, "p-1", 5)

	_, err := f.service.CreateOrder("u-1", []domain.ItemQuantity{
		{ProductID: "p-1", Qty: 1},
		{ProductID: "ghost", Qty: 1},
	})
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if got := f.stockQty(t, "p-1"); got != 5 {
		t.Fatalf("expected stock untouched, got %d", got)
	}
}

func TestService_CreateOrderBadInput(t *testing.T) {
	f := newOrderFixture()

	if _, err := f.service.CreateOrder("", []domain.ItemQuantity{{ProductID: "p-1", Qty: 1}}); !errors.Is(err, domain.ErrUserRequired) {
		t.Fatalf("expected ErrUserRequired, got %v", err)
	}
	if _, err := f.service.CreateOrder("u-1", nil); !errors.Is(err, domain.ErrItemsRequired) {
		t.Fatalf("expected ErrItemsRequired, got %v", err)
	}
	if _, err := f.service.CreateOrder("u-1", []domain.ItemQuantity{{ProductID: "p-1", Qty: 0}}); !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestService_PriceFrozenAfterCatalogChange(t *testing.T) {
	f := newOrderFixture()
	f.seedStock(t, "p-1", 5)

	view, err := f.service.CreateOrder("u-1", []domain.ItemQuantity{{ProductID: "p-1", Qty: 2}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Цена каталога меняется после создания заказа.
	f.catalog.Seed(domain.Product{ID: "p-1", Name: "Widget", PriceMinor: 9900})

	got, err := f.service.GetOrderByID(view.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Lines[0].UnitPriceMinor != 1500 {
		t.Fatalf("expected frozen price 1500, got %d", got.Lines[0].UnitPriceMinor)
	}
	if got.TotalPriceMinor != 2*1500 {
		t.Fatalf("expected frozen total %d, got %d", 2*1500, got.TotalPriceMinor)
	}
}

func TestService_GetOrders(t *testing.T) {
	f := newOrderFixture()
	f.seedStock(t, "p-1", 20)

	if _, err := f.service.CreateOrder("u-1", []domain.ItemQuantity{{ProductID: "p-1", Qty: 1}}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.service.CreateOrder("u-2", []domain.ItemQuantity{{ProductID: "p-1", Qty: 2}}); err != nil {
		t.Fatalf("create: %v", err)
	}

	mine, err := f.service.GetOrders("u-1")
	if err != nil {
		t.Fatalf("list u-1: %v", err)
	}
	if len(mine) != 1 || mine[0].UserID != "u-1" {
		t.Fatalf("unexpected orders for u-1: %+v", mine)
	}

	// Пустой userID — все заказы.
	all, err := f.service.GetOrders("")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(all))
	}
}

func TestService_GetOrderByIDNotFound(t *testing.T) {
	f := newOrderFixture()

	if _, err := f.service.GetOrderByID("missing"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestService_CancelCreditsStock(t *testing.T) {
	f := newOrderFixture()
	f.seedStock(t, "p-1", 5)

	view, err := f.service.CreateOrder("u-1", []domain.ItemQuantity{{ProductID: "p-1", Qty: 3}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := f.stockQty(t, "p-1"); got != 2 {
		t.Fatalf("expected stock 2 after create, got %d", got)
	}

	updated, err := f.service.UpdateOrderStatus(view.ID, domain.OrderStatusCancelled)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if updated.Status != domain.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", updated.Status)
	}
	if got := f.stockQty(t, "p-1"); got != 5 {
		t.Fatalf("expected stock restored to 5, got %d", got)
	}
}

func TestService_CancelShippedCreditsStock(t *testing.T) {
	f := newOrderFixture()
	f.seedStock(t, "p-1", 5)

	view, err := f.service.CreateOrder("u-1", []domain.ItemQuantity{{ProductID: "p-1", Qty: 3}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.service.UpdateOrderStatus(view.ID, domain.OrderStatusShipped); err != nil {
		t.Fatalf("ship: %v", err)
	}
	if got := f.stockQty(t, "p-1"); got != 2 {
		t.Fatalf("shipping must not touch stock, got %d", got)
	}

	if _, err := f.service.UpdateOrderStatus(view.ID, domain.OrderStatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := f.stockQty(t, "p-1"); got != 5 {
		t.Fatalf("expected stock restored to 5, got %d", got)
	}
}

func TestService_CancelDeliveredDoesNotCreditStock(t *testing.T) {
	f := newOrderFixture()
	f.seedStock(t, "p-1", 5)

	view, err := f.service.CreateOrder("u-1", []domain.ItemQuantity{{ProductID: "p-1", Qty: 3}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, status := range []domain.OrderStatus{domain.OrderStatusShipped, domain.OrderStatusDelivered} {
		if _, err := f.service.UpdateOrderStatus(view.ID, status); err != nil {
			t.Fatalf("transition to %s: %v", status, err)
		}
	}

	// Товар уже у покупателя: отмена доставленного заказа склад не кредитует.
	updated, err := f.service.UpdateOrderStatus(view.ID, domain.OrderStatusCancelled)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if updated.Status != domain.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", updated.Status)
	}
	if got := f.stockQty(t, "p-1"); got != 2 {
		t.Fatalf("expected stock to stay at 2, got %d", got)
	}
}

// creditRejectingStock отклоняет положительные дельты, имитируя отказ
// хранилища при возврате товара на склад. Seed через Set остаётся рабочим.
type creditRejectingStock struct {
	domain.StockRepository
}

func (s creditRejectingStock) Adjust(productID string, delta int32) (domain.StockRecord, error) {
	if delta > 0 {
		return domain.StockRecord{}, errors.New("stock storage unavailable")
	}
	return s.StockRepository.Adjust(productID, delta)
}

func TestService_CancelCreditFailureRollsBackStatus(t *testing.T) {
	products := catalog.NewSeededMockService(
		domain.Product{ID: "p-1", Name: "Widget", PriceMinor: 1500},
	)
	ledger := inventory.NewLedgerWithoutMetrics(creditRejectingStock{memory.NewStockRepository()}, nil)
	orders := memory.NewOrderRepository()
	svc := NewServiceWithoutMetrics(orders, ledger, products, nil)

	if _, err := ledger.SetStock("p-1", 5); err != nil {
		t.Fatalf("seed stock: %v", err)
	}
	view, err := svc.CreateOrder("u-1", []domain.ItemQuantity{{ProductID: "p-1", Qty: 3}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.UpdateOrderStatus(view.ID, domain.OrderStatusCancelled); err == nil {
		t.Fatal("expected error when cancel credit fails")
	}

	// Кредит не прошёл, поэтому заказ не может считаться отменённым.
	got, err := svc.GetOrderByID(view.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.OrderStatusPending {
		t.Fatalf("expected status rolled back to pending, got %s", got.Status)
	}
	rec, err := ledger.GetStock("p-1")
	if err != nil {
		t.Fatalf("get stock: %v", err)
	}
	if rec.Quantity != 2 {
		t.Fatalf("expected stock to stay debited at 2, got %d", rec.Quantity)
	}
}

func TestService_ReactivationDebitsStock(t *testing.T) {
	f := newOrderFixture()
	f.seedStock(t, "p-1", 5)

	view, err := f.service.CreateOrder("u-1", []domain.ItemQuantity{{ProductID: "p-1", Qty: 3}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.service.UpdateOrderStatus(view.ID, domain.OrderStatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := f.stockQty(t, "p-1"); got != 5 {
		t.Fatalf("expected stock 5 after cancel, got %d", got)
	}

	updated, err := f.service.UpdateOrderStatus(view.ID, domain.OrderStatusPending)
	if err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if updated.Status != domain.OrderStatusPending {
		t.Fatalf("expected pending, got %s", updated.Status)
	}
	if got := f.stockQty(t, "p-1"); got != 2 {
		t.Fatalf("expected stock re-debited to 2, got %d", got)
	}
}

func TestService_ReactivationInsufficientStock(t *testing.T) {
	f := newOrderFixture()
	f.seedStock(t, "p-1", 5)

	view, err := f.service.CreateOrder("u-1", []domain.ItemQuantity{{ProductID: "p-1", Qty: 3}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.service.UpdateOrderStatus(view.ID, domain.OrderStatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	// Остаток ушёл на сторону, товара на реактивацию не хватает.
	if _, err := f.ledger.SetStock("p-1", 1); err != nil {
		t.Fatalf("set stock: %v", err)
	}

	_, err = f.service.UpdateOrderStatus(view.ID, domain.OrderStatusPending)
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	got, err := f.service.GetOrderByID(view.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.OrderStatusCancelled {
		t.Fatalf("expected order to stay cancelled, got %s", got.Status)
	}
	if qty := f.stockQty(t, "p-1"); qty != 1 {
		t.Fatalf("expected stock to stay at 1, got %d", qty)
	}
}

func TestService_UpdateStatusValidation(t *testing.T) {
	f := newOrderFixture()
	f.seedStock(t, "p-1", 5)

	if _, err := f.service.UpdateOrderStatus("missing", domain.OrderStatusShipped); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}

	view, err := f.service.CreateOrder("u-1", []domain.ItemQuantity{{ProductID: "p-1", Qty: 1}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.service.UpdateOrderStatus(view.ID, domain.OrderStatus("teleported")); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}

	// Переход в тот же статус — no-op.
	same, err := f.service.UpdateOrderStatus(view.ID, domain.OrderStatusPending)
	if err != nil {
		t.Fatalf("same status: %v", err)
	}
	if same.Status != domain.OrderStatusPending || same.Version != view.Version {
		t.Fatalf("expected untouched order, got %+v", same.Order)
	}
}

func TestService_DeleteOrderSoftAndIdempotent(t *testing.T) {
	f := newOrderFixture()
	f.seedStock(t, "p-1", 5)

	view, err := f.service.CreateOrder("u-1", []domain.ItemQuantity{{ProductID: "p-1", Qty: 3}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := f.service.DeleteOrder(view.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// Удаление — не отмена: склад не кредитуется.
	if got := f.stockQty(t, "p-1"); got != 2 {
		t.Fatalf("expected stock to stay at 2, got %d", got)
	}

	// Из списков заказ пропадает, по ID запись остаётся читаемой.
	views, err := f.service.GetOrders("u-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 0 {
		t.Fatalf("expected no listed orders, got %d", len(views))
	}
	got, err := f.service.GetOrderByID(view.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.IsDeleted || got.DeletedAt == nil {
		t.Fatalf("expected soft delete markers, got %+v", got.Order)
	}

	// Повторное удаление безвредно и не трогает склад.
	if err := f.service.DeleteOrder(view.ID); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
	if got := f.stockQty(t, "p-1"); got != 2 {
		t.Fatalf("double delete must not credit stock, got %d", got)
	}

	// Статусные переходы по удалённому заказу не проходят.
	if _, err := f.service.UpdateOrderStatus(view.ID, domain.OrderStatusCancelled); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestService_DeleteCancelledOrderDoesNotDoubleCredit(t *testing.T) {
	f := newOrderFixture()
	f.seedStock(t, "p-1", 5)

	view, err := f.service.CreateOrder("u-1", []domain.ItemQuantity{{ProductID: "p-1", Qty: 3}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.service.UpdateOrderStatus(view.ID, domain.OrderStatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := f.stockQty(t, "p-1"); got != 5 {
		t.Fatalf("expected stock 5 after cancel, got %d", got)
	}

	if err := f.service.DeleteOrder(view.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := f.stockQty(t, "p-1"); got != 5 {
		t.Fatalf("expected stock to stay at 5, got %d", got)
	}
}
