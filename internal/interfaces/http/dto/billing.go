package dto

import (
	"time"

	"github.com/fieldservice/backend/internal/domain/billing"
	"github.com/fieldservice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConvertEstimateRequest is the body of POST /estimates/:id/convert-to-invoice
type ConvertEstimateRequest struct {
	BillingMode         string           `json:"billing_mode" binding:"omitempty,oneof=FULL PERCENTAGE MANUAL"`
	Percentage          *decimal.Decimal `json:"percentage"`
	SelectedLineItemIDs []uuid.UUID      `json:"selected_line_item_ids"`
}

// LineItemResponse is a document line as returned to API clients
type LineItemResponse struct {
	ID                  uuid.UUID          `json:"id"`
	GroupID             *uuid.UUID         `json:"group_id,omitempty"`
	SourceItemID        *uuid.UUID         `json:"source_item_id,omitempty"`
	SourceBundleID      *uuid.UUID         `json:"source_bundle_id,omitempty"`
	Description         string             `json:"description"`
	Quantity            decimal.Decimal    `json:"quantity"`
	UnitPrice           valueobject.Money  `json:"unit_price"`
	UnitCost            *valueobject.Money `json:"unit_cost,omitempty"`
	Total               valueobject.Money  `json:"total"`
	SortOrder           int                `json:"sort_order"`
	Notes               string             `json:"notes,omitempty"`
	Taxable             bool               `json:"taxable"`
	TaxRate             *decimal.Decimal   `json:"tax_rate,omitempty"`
	IsVisibleToClient   bool               `json:"is_visible_to_client"`
	ShowCostToCustomer  bool               `json:"show_cost_to_customer"`
	ShowPriceToCustomer bool               `json:"show_price_to_customer"`
	ShowTaxToCustomer   bool               `json:"show_tax_to_customer"`
	ShowNotesToCustomer bool               `json:"show_notes_to_customer"`
}

// InvoiceResponse is an invoice as returned to API clients. The payment
// token is only ever exposed embedded in PaymentURL.
type InvoiceResponse struct {
	ID              uuid.UUID          `json:"id"`
	InvoiceNumber   string             `json:"invoice_number"`
	Title           string             `json:"title"`
	Status          string             `json:"status"`
	ClientID        uuid.UUID          `json:"client_id"`
	EstimateID      *uuid.UUID         `json:"estimate_id,omitempty"`
	JobID           *uuid.UUID         `json:"job_id,omitempty"`
	BillingMode     string             `json:"billing_mode"`
	ProgressPercent *decimal.Decimal   `json:"progress_percent,omitempty"`
	Notes           string             `json:"notes,omitempty"`
	Terms           string             `json:"terms,omitempty"`
	LineItems       []LineItemResponse `json:"line_items"`
	billing.DocumentTotals
	PaidAmount  valueobject.Money `json:"paid_amount"`
	Balance     valueobject.Money `json:"balance"`
	PaidAt      *time.Time        `json:"paid_at,omitempty"`
	InvoiceDate time.Time         `json:"invoice_date"`
	PaymentURL  string            `json:"payment_url,omitempty"`
	TimestampResponse
}

// ConversionResponse is returned by a successful conversion. A failed
// payment link never fails the conversion; it only sets the flag.
type ConversionResponse struct {
	Invoice          InvoiceResponse `json:"invoice"`
	PaymentLinkError bool            `json:"payment_link_error"`
}

// EstimateResponse is an estimate as returned to API clients
type EstimateResponse struct {
	ID             uuid.UUID          `json:"id"`
	EstimateNumber string             `json:"estimate_number"`
	Title          string             `json:"title"`
	Status         string             `json:"status"`
	ClientID       *uuid.UUID         `json:"client_id,omitempty"`
	LeadID         *uuid.UUID         `json:"lead_id,omitempty"`
	JobID          *uuid.UUID         `json:"job_id,omitempty"`
	JobSiteAddress string             `json:"job_site_address,omitempty"`
	LineItems      []LineItemResponse `json:"line_items"`
	billing.DocumentTotals
	TimestampResponse
}

// PaymentWebhookResponse acknowledges a processed payment webhook
type PaymentWebhookResponse struct {
	OK        bool       `json:"ok"`
	Ignored   bool       `json:"ignored,omitempty"`
	Duplicate bool       `json:"duplicate,omitempty"`
	JobID     *uuid.UUID `json:"job_id,omitempty"`
}

// ToLineItemResponses converts document lines
func ToLineItemResponses(items []billing.LineItem) []LineItemResponse {
	out := make([]LineItemResponse, 0, len(items))
	for _, li := range items {
		out = append(out, LineItemResponse{
			ID:                  li.ID,
			GroupID:             li.GroupID,
			SourceItemID:        li.SourceItemID,
			SourceBundleID:      li.SourceBundleID,
			Description:         li.Description,
			Quantity:            li.Quantity,
			UnitPrice:           li.UnitPrice,
			UnitCost:            li.UnitCost,
			Total:               li.Total,
			SortOrder:           li.SortOrder,
			Notes:               li.Notes,
			Taxable:             li.Taxable,
			TaxRate:             li.TaxRate,
			IsVisibleToClient:   li.IsVisibleToClient,
			ShowCostToCustomer:  li.ShowCostToCustomer,
			ShowPriceToCustomer: li.ShowPriceToCustomer,
			ShowTaxToCustomer:   li.ShowTaxToCustomer,
			ShowNotesToCustomer: li.ShowNotesToCustomer,
		})
	}
	return out
}

// ToInvoiceResponse converts a domain invoice
func ToInvoiceResponse(inv *billing.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:              inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		Title:           inv.Title,
		Status:          string(inv.Status),
		ClientID:        inv.ClientID,
		EstimateID:      inv.EstimateID,
		JobID:           inv.JobID,
		BillingMode:     string(inv.BillingMode),
		ProgressPercent: inv.ProgressPercent,
		Notes:           inv.Notes,
		Terms:           inv.Terms,
		LineItems:       ToLineItemResponses(inv.LineItems),
		DocumentTotals:  inv.DocumentTotals,
		PaidAmount:      inv.PaidAmount,
		Balance:         inv.Balance,
		PaidAt:          inv.PaidAt,
		InvoiceDate:     inv.InvoiceDate,
		PaymentURL:      inv.PaymentURL,
		TimestampResponse: TimestampResponse{
			CreatedAt: inv.CreatedAt,
			UpdatedAt: inv.UpdatedAt,
		},
	}
}

// ToEstimateResponse converts a domain estimate
func ToEstimateResponse(est *billing.Estimate) EstimateResponse {
	return EstimateResponse{
		ID:             est.ID,
		EstimateNumber: est.EstimateNumber,
		Title:          est.Title,
		Status:         string(est.Status),
		ClientID:       est.ClientID,
		LeadID:         est.LeadID,
		JobID:          est.JobID,
		JobSiteAddress: est.JobSiteAddress,
		LineItems:      ToLineItemResponses(est.LineItems),
		DocumentTotals: est.DocumentTotals,
		TimestampResponse: TimestampResponse{
			CreatedAt: est.CreatedAt,
			UpdatedAt: est.UpdatedAt,
		},
	}
}
