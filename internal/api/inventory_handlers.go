package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/ims/internal/domain"
)

func (h *Handler) listStock(w http.ResponseWriter, r *http.Request) {
	recs, err := h.inventory.ListAll()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toStockRecords(recs))
}

func (h *Handler) listLowStock(w http.ResponseWriter, r *http.Request) {
	var threshold int64
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid threshold"})
			return
		}
		threshold = parsed
	}
	recs, err := h.inventory.ListLowStock(int32(threshold))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toStockRecords(recs))
}

func (h *Handler) getStock(w http.ResponseWriter, r *http.Request) {
	rec, err := h.inventory.GetStock(chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toStockRecord(rec))
}

func (h *Handler) setStock(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	var req struct {
		Quantity int32 `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}
	rec, err := h.inventory.SetStock(chi.URLParam(r, "productID"), req.Quantity)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toStockRecord(rec))
}

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	var req struct {
		Delta int32 `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}
	rec, err := h.inventory.AdjustStock(chi.URLParam(r, "productID"), req.Delta)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toStockRecord(rec))
}

func (h *Handler) bulkAdjustStock(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	var req bulkAdjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "items are required"})
		return
	}

	adjustments := make([]domain.StockAdjustment, 0, len(req.Items))
	for _, item := range req.Items {
		adjustments = append(adjustments, domain.StockAdjustment{ProductID: item.ProductID, Delta: item.Delta})
	}
	report := h.inventory.BulkAdjust(adjustments)

	// Частичный отказ — это всё ещё обработанный запрос с поэлементным отчётом.
	code := http.StatusOK
	if !report.Success {
		code = http.StatusMultiStatus
	}
	writeJSON(w, code, toBulkAdjust(report))
}

func (h *Handler) checkAvailability(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items []availabilityItemRequest `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}
	items := make([]domain.ItemQuantity, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.ItemQuantity{ProductID: item.ProductID, Qty: item.Quantity})
	}
	report, err := h.inventory.CheckAvailability(items)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toAvailability(report))
}
