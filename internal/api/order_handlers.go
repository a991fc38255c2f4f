package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/ims/internal/domain"
)

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items []struct {
			ProductID string `json:"product_id"`
			Quantity  int32  `json:"quantity"`
		} `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}
	items := make([]domain.ItemQuantity, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.ItemQuantity{ProductID: item.ProductID, Qty: item.Quantity})
	}

	view, err := h.orders.CreateOrder(callerID(r), items)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrder(view))
}

// listOrders возвращает заказы вызывающего; ?all=true отдаёт заказы всех
// пользователей и требует административной роли.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r)
	if r.URL.Query().Get("all") == "true" {
		if !h.requireAdmin(w, r) {
			return
		}
		userID = ""
	} else if userID == "" {
		writeError(w, h.logger, domain.ErrUserRequired)
		return
	}

	views, err := h.orders.GetOrders(userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrders(views))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	view, err := h.orders.GetOrderByID(chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	// Чужой заказ виден только администратору.
	if view.UserID != callerID(r) && callerRole(r) != domain.RoleAdmin {
		writeError(w, h.logger, domain.ErrUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, toOrder(view))
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}

	view, err := h.orders.UpdateOrderStatus(chi.URLParam(r, "orderID"), domain.OrderStatus(req.Status))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrder(view))
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	view, err := h.orders.GetOrderByID(orderID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if view.UserID != callerID(r) && callerRole(r) != domain.RoleAdmin {
		writeError(w, h.logger, domain.ErrUnauthorized)
		return
	}

	if err := h.orders.DeleteOrder(orderID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
