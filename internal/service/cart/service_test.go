package cart

import (
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/ims/internal/domain"
	"github.com/vladislavdragonenkov/ims/internal/service/catalog"
	"github.com/vladislavdragonenkov/ims/internal/storage/memory"
)

type cartFixture struct {
	service Service
	stock   domain.StockRepository
	carts   domain.CartRepository
	catalog *catalog.MockService
}

func newCartFixture() cartFixture {
	products := catalog.NewSeededMockService(
		domain.Product{ID: "p-1", Name: "Widget", PriceMinor: 1500},
		domain.Product{ID: "p-2", Name: "Gadget", PriceMinor: 2500},
	)
	stock := memory.NewStockRepository()
	carts := memory.NewCartRepository()
	return cartFixture{
		service: NewService(carts, stock, products, nil),
		stock:   stock,
		carts:   carts,
		catalog: products,
	}
}

func (f cartFixture) seedStock(t *testing.T, productID string, qty int32) {
	t.Helper()
	if _, err := f.stock.Set(productID, qty); err != nil {
		t.Fatalf("seed stock %s: %v", productID, err)
	}
}

func TestService_AddItemCreatesCart(t *testing.T) {
	f := newCartFixture()
	f.seedStock(t, "p-1", 10)

	view, err := f.service.AddItem("u-1", "p-1", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.IsEmpty || len(view.Items) != 1 {
		t.Fatalf("unexpected view: %+v", view)
	}
	item := view.Items[0]
	if item.ProductID != "p-1" || item.Qty != 2 {
		t.Fatalf("unexpected item: %+v", item)
	}
	if item.ProductName != "Widget" || item.UnitPriceMinor != 1500 {
		t.Fatalf("expected catalog enrichment, got %+v", item)
	}
}

func TestService_AddItemMergesQuantities(t *testing.T) {
	f := newCartFixture()
	f.seedStock(t, "p-1", 10)

	if _, err := f.service.AddItem("u-1", "p-1", 2); err != nil {
		t.Fatalf("first add: %v", err)
	}
	view, err := f.service.AddItem("u-1", "p-1", 3)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].Qty != 5 {
		t.Fatalf("expected merged quantity 5, got %+v", view.Items)
	}
}

func TestService_AddItemValidatesMergedTotal(t *testing.T) {
	f := newCartFixture()
	f.seedStock(t, "p-1", 5)

	if _, err := f.service.AddItem("u-1", "p-1", 3); err != nil {
		t.Fatalf("first add: %v", err)
	}

	// 3 уже в корзине, ещё 3 превышает остаток 5 после слияния.
	_, err := f.service.AddItem("u-1", "p-1", 3)
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	var detail *domain.InsufficientStockError
	if !errors.As(err, &detail) {
		t.Fatalf("expected InsufficientStockError, got %T", err)
	}
	if detail.Requested != 6 || detail.Available != 5 {
		t.Fatalf("expected merged total 6 vs 5 available, got %+v", detail)
	}

	// Отказ не меняет корзину.
	view, err := f.service.GetCart("u-1")
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].Qty != 3 {
		t.Fatalf("expected cart untouched at 3, got %+v", view.Items)
	}
}

func TestService_AddItemRejectsUnknownProduct(t *testing.T) {
	f := newCartFixture()

	if _, err := f.service.AddItem("u-1", "ghost", 1); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestService_AddItemRejectsBadInput(t *testing.T) {
	f := newCartFixture()

	if _, err := f.service.AddItem("", "p-1", 1); !errors.Is(err, domain.ErrUserRequired) {
		t.Fatalf("expected ErrUserRequired, got %v", err)
	}
	if _, err := f.service.AddItem("u-1", "p-1", 0); !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestService_UpdateItem(t *testing.T) {
	f := newCartFixture()
	f.seedStock(t, "p-1", 10)

	if _, err := f.service.AddItem("u-1", "p-1", 2); err != nil {
		t.Fatalf("add: %v", err)
	}

	// Абсолютное значение, не дельта.
	view, err := f.service.UpdateItem("u-1", "p-1", 7)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if view.Items[0].Qty != 7 {
		t.Fatalf("expected quantity 7, got %d", view.Items[0].Qty)
	}

	if _, err := f.service.UpdateItem("u-1", "p-1", 11); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if _, err := f.service.UpdateItem("u-1", "p-2", 1); !errors.Is(err, domain.ErrCartItemNotFound) {
		t.Fatalf("expected ErrCartItemNotFound, got %v", err)
	}
	if _, err := f.service.UpdateItem("nobody", "p-1", 1); !errors.Is(err, domain.ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound, got %v", err)
	}
}

func TestService_RemoveItem(t *testing.T) {
	f := newCartFixture()
	f.seedStock(t, "p-1", 10)
	f.seedStock(t, "p-2", 10)

	if _, err := f.service.AddItem("u-1", "p-1", 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := f.service.AddItem("u-1", "p-2", 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	view, err := f.service.RemoveItem("u-1", "p-1")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].ProductID != "p-2" {
		t.Fatalf("unexpected items after remove: %+v", view.Items)
	}

	// Отсутствующая позиция — не ошибка.
	if _, err := f.service.RemoveItem("u-1", "p-1"); err != nil {
		t.Fatalf("repeat remove: %v", err)
	}

	// Отсутствующая корзина — ошибка.
	if _, err := f.service.RemoveItem("nobody", "p-1"); !errors.Is(err, domain.ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound, got %v", err)
	}
}

func TestService_ClearCart(t *testing.T) {
	f := newCartFixture()
	f.seedStock(t, "p-1", 10)

	if _, err := f.service.AddItem("u-1", "p-1", 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := f.service.ClearCart("u-1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	view, err := f.service.GetCart("u-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !view.IsEmpty {
		t.Fatalf("expected empty cart, got %+v", view)
	}

	// Повторная очистка безвредна.
	if err := f.service.ClearCart("u-1"); err != nil {
		t.Fatalf("repeat clear: %v", err)
	}
}

func TestService_GetCartMissingIsEmptyMarker(t *testing.T) {
	f := newCartFixture()

	view, err := f.service.GetCart("nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !view.IsEmpty || view.UserID != "nobody" || len(view.Items) != 0 {
		t.Fatalf("expected empty marker, got %+v", view)
	}
}

func TestService_GetCartFlagsStaleQuantities(t *testing.T) {
	f := newCartFixture()
	f.seedStock(t, "p-1", 10)

	if _, err := f.service.AddItem("u-1", "p-1", 6); err != nil {
		t.Fatalf("add: %v", err)
	}

	// Остаток упал после добавления: корзина остаётся, но позиция помечается.
	f.seedStock(t, "p-1", 4)

	view, err := f.service.GetCart("u-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	item := view.Items[0]
	if !item.InStock || item.AvailableStock != 4 {
		t.Fatalf("unexpected stock enrichment: %+v", item)
	}
	if !item.QuantityExceedsStock {
		t.Fatal("expected QuantityExceedsStock flag")
	}

	// Полное исчерпание остатка.
	f.seedStock(t, "p-1", 0)
	view, err = f.service.GetCart("u-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view.Items[0].InStock {
		t.Fatal("expected out of stock item")
	}
}

func TestService_ValidateInventory(t *testing.T) {
	f := newCartFixture()
	f.seedStock(t, "p-1", 10)
	f.seedStock(t, "p-2", 10)

	if _, err := f.service.AddItem("u-1", "p-1", 6); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := f.service.AddItem("u-1", "p-2", 2); err != nil {
		t.Fatalf("add: %v", err)
	}

	validation, err := f.service.ValidateInventory("u-1")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !validation.Valid || len(validation.Issues) != 0 {
		t.Fatalf("expected valid cart, got %+v", validation)
	}

	f.seedStock(t, "p-1", 4)
	validation, err = f.service.ValidateInventory("u-1")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if validation.Valid || len(validation.Issues) != 1 {
		t.Fatalf("expected one issue, got %+v", validation)
	}
	issue := validation.Issues[0]
	if issue.ProductID != "p-1" || issue.ProductName != "Widget" || issue.Requested != 6 || issue.Available != 4 {
		t.Fatalf("unexpected issue: %+v", issue)
	}
}

func TestService_PrepareForCheckout(t *testing.T) {
	f := newCartFixture()
	f.seedStock(t, "p-1", 10)

	if _, err := f.service.PrepareForCheckout("nobody"); !errors.Is(err, domain.ErrCartEmpty) {
		t.Fatalf("expected ErrCartEmpty, got %v", err)
	}

	if _, err := f.service.AddItem("u-1", "p-1", 6); err != nil {
		t.Fatalf("add: %v", err)
	}
	prep, err := f.service.PrepareForCheckout("u-1")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if !prep.Valid || len(prep.Issues) != 0 || len(prep.Cart.Items) != 1 {
		t.Fatalf("unexpected preparation: %+v", prep)
	}

	// Валидация консультативная: нехватка возвращается как issues, не ошибка.
	f.seedStock(t, "p-1", 2)
	prep, err = f.service.PrepareForCheckout("u-1")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if prep.Valid || len(prep.Issues) != 1 {
		t.Fatalf("expected advisory issues, got %+v", prep)
	}
}
