package api

import (
	"time"

	"github.com/vladislavdragonenkov/ims/internal/domain"
)

type stockRecordResponse struct {
	ProductID   string    `json:"product_id"`
	Quantity    int32     `json:"quantity"`
	LastUpdated time.Time `json:"last_updated"`
}

func toStockRecord(rec domain.StockRecord) stockRecordResponse {
	return stockRecordResponse{
		ProductID:   rec.ProductID,
		Quantity:    rec.Quantity,
		LastUpdated: rec.LastUpdated,
	}
}

func toStockRecords(recs []domain.StockRecord) []stockRecordResponse {
	out := make([]stockRecordResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toStockRecord(rec))
	}
	return out
}

type availabilityItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
}

type availabilityResponse struct {
	AllAvailable bool                       `json:"all_available"`
	Insufficient []insufficientItemResponse `json:"insufficient,omitempty"`
}

type insufficientItemResponse struct {
	ProductID string `json:"product_id"`
	Requested int32  `json:"requested"`
	Available int32  `json:"available"`
}

func toAvailability(report domain.AvailabilityReport) availabilityResponse {
	resp := availabilityResponse{AllAvailable: report.AllAvailable}
	for _, item := range report.Insufficient {
		resp.Insufficient = append(resp.Insufficient, insufficientItemResponse{
			ProductID: item.ProductID,
			Requested: item.Requested,
			Available: item.Available,
		})
	}
	return resp
}

type bulkAdjustRequest struct {
	Items []struct {
		ProductID string `json:"product_id"`
		Delta     int32  `json:"delta"`
	} `json:"items"`
}

type bulkAdjustResponse struct {
	Success bool                      `json:"success"`
	Updated int                       `json:"updated"`
	Errors  []bulkAdjustErrorResponse `json:"errors,omitempty"`
}

type bulkAdjustErrorResponse struct {
	ProductID string `json:"product_id"`
	Message   string `json:"message"`
}

func toBulkAdjust(report domain.BulkAdjustReport) bulkAdjustResponse {
	resp := bulkAdjustResponse{Success: report.Success, Updated: report.Updated}
	for _, e := range report.Errors {
		resp.Errors = append(resp.Errors, bulkAdjustErrorResponse{ProductID: e.ProductID, Message: e.Message})
	}
	return resp
}

type cartItemResponse struct {
	ProductID            string `json:"product_id"`
	ProductName          string `json:"product_name,omitempty"`
	UnitPriceMinor       int64  `json:"unit_price_minor"`
	Quantity             int32  `json:"quantity"`
	InStock              bool   `json:"in_stock"`
	AvailableStock       int32  `json:"available_stock"`
	QuantityExceedsStock bool   `json:"quantity_exceeds_stock"`
}

type cartResponse struct {
	UserID  string             `json:"user_id"`
	IsEmpty bool               `json:"is_empty"`
	Items   []cartItemResponse `json:"items"`
}

func toCart(view domain.CartView) cartResponse {
	resp := cartResponse{
		UserID:  view.UserID,
		IsEmpty: view.IsEmpty,
		Items:   make([]cartItemResponse, 0, len(view.Items)),
	}
	for _, item := range view.Items {
		resp.Items = append(resp.Items, cartItemResponse{
			ProductID:            item.ProductID,
			ProductName:          item.ProductName,
			UnitPriceMinor:       item.UnitPriceMinor,
			Quantity:             item.Qty,
			InStock:              item.InStock,
			AvailableStock:       item.AvailableStock,
			QuantityExceedsStock: item.QuantityExceedsStock,
		})
	}
	return resp
}

type cartIssueResponse struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	Requested   int32  `json:"requested"`
	Available   int32  `json:"available"`
}

type cartValidationResponse struct {
	Valid  bool                `json:"valid"`
	Issues []cartIssueResponse `json:"issues,omitempty"`
}

func toCartIssues(issues []domain.CartIssue) []cartIssueResponse {
	out := make([]cartIssueResponse, 0, len(issues))
	for _, issue := range issues {
		out = append(out, cartIssueResponse{
			ProductID:   issue.ProductID,
			ProductName: issue.ProductName,
			Requested:   issue.Requested,
			Available:   issue.Available,
		})
	}
	return out
}

type checkoutPreparationResponse struct {
	Cart   cartResponse        `json:"cart"`
	Valid  bool                `json:"valid"`
	Issues []cartIssueResponse `json:"issues,omitempty"`
}

type orderItemResponse struct {
	ID             string `json:"id"`
	ProductID      string `json:"product_id"`
	ProductName    string `json:"product_name,omitempty"`
	Quantity       int32  `json:"quantity"`
	UnitPriceMinor int64  `json:"unit_price_minor"`
}

type orderResponse struct {
	ID              string              `json:"id"`
	UserID          string              `json:"user_id"`
	Status          string              `json:"status"`
	TotalPriceMinor int64               `json:"total_price_minor"`
	Items           []orderItemResponse `json:"items"`
	IsDeleted       bool                `json:"is_deleted,omitempty"`
	DeletedAt       *time.Time          `json:"deleted_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func toOrder(view domain.OrderView) orderResponse {
	resp := orderResponse{
		ID:              view.ID,
		UserID:          view.UserID,
		Status:          string(view.Status),
		TotalPriceMinor: view.TotalPriceMinor,
		Items:           make([]orderItemResponse, 0, len(view.Lines)),
		IsDeleted:       view.IsDeleted,
		DeletedAt:       view.DeletedAt,
		CreatedAt:       view.CreatedAt,
		UpdatedAt:       view.UpdatedAt,
	}
	for _, line := range view.Lines {
		resp.Items = append(resp.Items, orderItemResponse{
			ID:             line.ID,
			ProductID:      line.ProductID,
			ProductName:    line.ProductName,
			Quantity:       line.Qty,
			UnitPriceMinor: line.UnitPriceMinor,
		})
	}
	return resp
}

func toOrders(views []domain.OrderView) []orderResponse {
	out := make([]orderResponse, 0, len(views))
	for _, view := range views {
		out = append(out, toOrder(view))
	}
	return out
}
