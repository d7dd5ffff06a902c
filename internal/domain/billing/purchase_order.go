package billing

import (
	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderStatus represents the status of a purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft     PurchaseOrderStatus = "DRAFT"
	PurchaseOrderStatusSent      PurchaseOrderStatus = "SENT"
	PurchaseOrderStatusReceived  PurchaseOrderStatus = "RECEIVED"
	PurchaseOrderStatusCancelled PurchaseOrderStatus = "CANCELLED"
)

// PurchaseOrder is a vendor-facing document. Line prices are the tenant's
// cost, so the same totals calculator applies.
type PurchaseOrder struct {
	shared.TenantEntity
	PONumber  string
	VendorID  *uuid.UUID
	JobID     *uuid.UUID
	Status    PurchaseOrderStatus
	LineItems []LineItem
	DocumentTotals
}

// NewPurchaseOrder creates an empty draft purchase order
func NewPurchaseOrder(tenantID uuid.UUID, number string, vendorID *uuid.UUID, taxRate decimal.Decimal) *PurchaseOrder {
	return &PurchaseOrder{
		TenantEntity:   shared.NewTenantEntity(tenantID),
		PONumber:       number,
		VendorID:       vendorID,
		Status:         PurchaseOrderStatusDraft,
		DocumentTotals: DocumentTotals{TaxRate: taxRate},
	}
}

// AddLine appends a line after the current last one and recalculates
func (po *PurchaseOrder) AddLine(description string, quantity decimal.Decimal, unitCost valueobject.Money) error {
	if po.Status != PurchaseOrderStatusDraft {
		return shared.NewInvalidStateError("PO_NOT_EDITABLE", "Only draft purchase orders can be edited")
	}
	line, err := NewLineItem(description, quantity, unitCost, &unitCost)
	if err != nil {
		return err
	}
	line.VendorID = po.VendorID
	line.SortOrder = MaxSortOrder(po.LineItems) + 1
	po.LineItems = append(po.LineItems, line)
	return po.Recalculate()
}

// Recalculate recomputes the document totals from the line items
func (po *PurchaseOrder) Recalculate() error {
	totals, err := CalculateTotals(TotalsLines(po.LineItems), po.Discount, po.TaxRate)
	if err != nil {
		return err
	}
	po.DocumentTotals = totals
	po.Touch()
	return nil
}
