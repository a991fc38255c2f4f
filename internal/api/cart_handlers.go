package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.carts.GetCart(callerID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toCart(view))
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
		Quantity  *int32 `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}
	// Количество по умолчанию — одна единица.
	qty := int32(1)
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	view, err := h.carts.AddItem(callerID(r), req.ProductID, qty)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toCart(view))
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity int32 `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}
	view, err := h.carts.UpdateItem(callerID(r), chi.URLParam(r, "productID"), req.Quantity)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toCart(view))
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	view, err := h.carts.RemoveItem(callerID(r), chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toCart(view))
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.ClearCart(callerID(r)); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) validateCart(w http.ResponseWriter, r *http.Request) {
	validation, err := h.carts.ValidateInventory(callerID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cartValidationResponse{
		Valid:  validation.Valid,
		Issues: toCartIssues(validation.Issues),
	})
}

func (h *Handler) prepareCheckout(w http.ResponseWriter, r *http.Request) {
	prep, err := h.carts.PrepareForCheckout(callerID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, checkoutPreparationResponse{
		Cart:   toCart(prep.Cart),
		Valid:  prep.Valid,
		Issues: toCartIssues(prep.Issues),
	})
}
