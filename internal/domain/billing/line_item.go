package billing

import (
	"strings"

	"github.com/fieldservice/backend/internal/domain/catalog"
	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentType identifies which document a line group belongs to
type DocumentType string

const (
	DocumentTypeEstimate      DocumentType = "ESTIMATE"
	DocumentTypeInvoice       DocumentType = "INVOICE"
	DocumentTypePurchaseOrder DocumentType = "PURCHASE_ORDER"
)

// LineItem is one priced row of a document
type LineItem struct {
	ID             uuid.UUID
	GroupID        *uuid.UUID
	SourceItemID   *uuid.UUID
	SourceBundleID *uuid.UUID
	VendorID       *uuid.UUID
	Description    string
	Quantity       decimal.Decimal
	UnitPrice      valueobject.Money
	UnitCost       *valueobject.Money
	Total          valueobject.Money
	SortOrder      int
	Notes          string
	Taxable        bool
	TaxRate        *decimal.Decimal

	IsVisibleToClient   bool
	ShowCostToCustomer  bool
	ShowPriceToCustomer bool
	ShowTaxToCustomer   bool
	ShowNotesToCustomer bool
}

// NewLineItem creates a visible, taxable line with total = round(qty × price)
func NewLineItem(description string, quantity decimal.Decimal, unitPrice valueobject.Money, unitCost *valueobject.Money) (LineItem, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return LineItem{}, shared.NewValidationError("INVALID_LINE_DESCRIPTION", "Line item description cannot be empty")
	}
	if quantity.IsNegative() {
		return LineItem{}, shared.NewValidationError("INVALID_LINE_QUANTITY", "Line item quantity cannot be negative")
	}
	return LineItem{
		ID:                  uuid.New(),
		Description:         description,
		Quantity:            quantity,
		UnitPrice:           unitPrice,
		UnitCost:            unitCost,
		Total:               LineTotal(quantity, unitPrice),
		Taxable:             true,
		IsVisibleToClient:   true,
		ShowPriceToCustomer: true,
	}, nil
}

// LineItemFromComponent builds a document line from a flattened bundle
// component, keeping provenance back to the catalog item and bundle.
func LineItemFromComponent(c catalog.FlattenedComponent, groupID uuid.UUID, sortOrder int) LineItem {
	itemID := c.ItemID
	bundleID := c.SourceBundleID
	gid := groupID
	return LineItem{
		ID:                  uuid.New(),
		GroupID:             &gid,
		SourceItemID:        &itemID,
		SourceBundleID:      &bundleID,
		Description:         c.DisplayText(),
		Quantity:            c.Quantity,
		UnitPrice:           c.UnitPrice,
		UnitCost:            c.UnitCost,
		Total:               c.LineTotal(),
		SortOrder:           sortOrder,
		Taxable:             true,
		IsVisibleToClient:   true,
		ShowPriceToCustomer: true,
	}
}

// CopyForDocument returns a verbatim copy of the line with a fresh id and the
// given sort order. The group link is dropped because groups belong to the
// source document.
func (l LineItem) CopyForDocument(sortOrder int) LineItem {
	cp := l
	cp.ID = uuid.New()
	cp.GroupID = nil
	cp.SortOrder = sortOrder
	if l.UnitCost != nil {
		v := *l.UnitCost
		cp.UnitCost = &v
	}
	if l.TaxRate != nil {
		v := *l.TaxRate
		cp.TaxRate = &v
	}
	return cp
}

// DocumentLineGroup groups lines that came from one bundle expansion
type DocumentLineGroup struct {
	shared.TenantEntity
	DocumentType     DocumentType
	DocumentID       uuid.UUID
	Name             string
	SourceBundleID   *uuid.UUID
	SourceBundleName string
	SortOrder        int
}

// NewBundleLineGroup creates the group for one bundle applied to a document
func NewBundleLineGroup(tenantID uuid.UUID, docType DocumentType, docID uuid.UUID, bundle *catalog.BundleDefinition) *DocumentLineGroup {
	bundleID := bundle.ID
	return &DocumentLineGroup{
		TenantEntity:     shared.NewTenantEntity(tenantID),
		DocumentType:     docType,
		DocumentID:       docID,
		Name:             bundle.Name,
		SourceBundleID:   &bundleID,
		SourceBundleName: bundle.Name,
	}
}

// MaxSortOrder returns the highest sort order among the lines, or -1
func MaxSortOrder(items []LineItem) int {
	max := -1
	for i := range items {
		if items[i].SortOrder > max {
			max = items[i].SortOrder
		}
	}
	return max
}
