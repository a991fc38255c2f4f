package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ims/internal/domain"
	"github.com/vladislavdragonenkov/ims/internal/service/cart"
	"github.com/vladislavdragonenkov/ims/internal/service/inventory"
	"github.com/vladislavdragonenkov/ims/internal/service/order"
)

// Заголовки, через которые вызывающий слой передаёт решение об аутентификации.
// Ядро само никого не аутентифицирует, оно доверяет переданному решению.
const (
	headerUserID   = "X-User-Id"
	headerUserRole = "X-User-Role"
)

const requestTimeout = 15 * time.Second

// Handler связывает HTTP-маршруты с сервисами ядра.
type Handler struct {
	inventory inventory.Ledger
	carts     cart.Service
	orders    order.Service
	logger    *log.Entry
}

// NewHandler создаёт HTTP-обработчик поверх сервисов.
func NewHandler(ledger inventory.Ledger, carts cart.Service, orders order.Service, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.New().WithField("component", "api")
	}
	return &Handler{
		inventory: ledger,
		carts:     carts,
		orders:    orders,
		logger:    logger,
	}
}

// NewRouter собирает chi-маршрутизатор со стандартным набором middleware.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", h.listStock)
			r.Get("/low-stock", h.listLowStock)
			r.Post("/check-availability", h.checkAvailability)
			r.Post("/bulk-adjust", h.bulkAdjustStock)
			r.Get("/{productID}", h.getStock)
			r.Put("/{productID}", h.setStock)
			r.Post("/{productID}/adjust", h.adjustStock)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.getCart)
			r.Delete("/", h.clearCart)
			r.Post("/items", h.addCartItem)
			r.Put("/items/{productID}", h.updateCartItem)
			r.Delete("/items/{productID}", h.removeCartItem)
			r.Get("/validate", h.validateCart)
			r.Post("/checkout", h.prepareCheckout)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.createOrder)
			r.Get("/", h.listOrders)
			r.Get("/{orderID}", h.getOrder)
			r.Patch("/{orderID}/status", h.updateOrderStatus)
			r.Delete("/{orderID}", h.deleteOrder)
		})
	})

	return r
}

func callerID(r *http.Request) string {
	return r.Header.Get(headerUserID)
}

func callerRole(r *http.Request) domain.Role {
	if domain.Role(r.Header.Get(headerUserRole)) == domain.RoleAdmin {
		return domain.RoleAdmin
	}
	return domain.RoleCustomer
}

// requireAdmin отклоняет запрос, если вызывающий слой не подтвердил
// административную роль.
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if callerRole(r) != domain.RoleAdmin {
		writeError(w, h.logger, domain.ErrUnauthorized)
		return false
	}
	return true
}
