package billing

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillingMode selects how an estimate is turned into an invoice
type BillingMode string

const (
	BillingModeFull       BillingMode = "FULL"
	BillingModePercentage BillingMode = "PERCENTAGE"
	BillingModeManual     BillingMode = "MANUAL"
)

// IsValid checks if the billing mode is known
func (m BillingMode) IsValid() bool {
	switch m {
	case BillingModeFull, BillingModePercentage, BillingModeManual:
		return true
	}
	return false
}

var hundred = decimal.NewFromInt(100)

// Validation errors raised before any write
var (
	ErrEstimateWithoutClient = shared.NewValidationError("ESTIMATE_WITHOUT_CLIENT", "Estimate must be linked to a client before converting to invoice.")
	ErrPercentageOutOfRange  = shared.NewValidationError("INVALID_PERCENTAGE", "Percentage must be between 0 and 100.")
	ErrNoLineItemsSelected   = shared.NewValidationError("NO_LINE_ITEMS_SELECTED", "No line items selected to bill.")
	ErrInvalidBillingMode    = shared.NewValidationError("INVALID_BILLING_MODE", "Billing mode must be FULL, PERCENTAGE or MANUAL.")
)

// ConversionRequest carries the caller's choice of billing mode
type ConversionRequest struct {
	EstimateID          uuid.UUID
	Mode                BillingMode
	Percentage          decimal.Decimal
	SelectedLineItemIDs []uuid.UUID
}

// Validate checks the request parameters that do not depend on the estimate
func (r ConversionRequest) Validate() error {
	if r.Mode == "" {
		r.Mode = BillingModeFull
	}
	if !r.Mode.IsValid() {
		return ErrInvalidBillingMode
	}
	switch r.Mode {
	case BillingModePercentage:
		if !r.Percentage.IsPositive() || r.Percentage.GreaterThan(hundred) {
			return ErrPercentageOutOfRange
		}
	case BillingModeManual:
		if len(r.SelectedLineItemIDs) == 0 {
			return ErrNoLineItemsSelected
		}
	}
	return nil
}

// EffectiveMode returns the billing mode, defaulting to FULL
func (r ConversionRequest) EffectiveMode() BillingMode {
	if r.Mode == "" {
		return BillingModeFull
	}
	return r.Mode
}

// InvoiceDraft is everything needed to persist a converted invoice
type InvoiceDraft struct {
	Number  string
	Token   string
	ActorID *uuid.UUID
	Now     time.Time
}

// ConvertEstimate builds an unsaved DRAFT invoice from the estimate under the
// requested billing mode. Totals are recomputed from the resulting lines with
// the estimate's tax rate and no discount; the balance starts at the total.
func ConvertEstimate(est *Estimate, req ConversionRequest, draft InvoiceDraft) (*Invoice, error) {
	if !est.HasClient() {
		return nil, ErrEstimateWithoutClient
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	mode := req.EffectiveMode()
	var lines []LineItem
	var progress *decimal.Decimal

	switch mode {
	case BillingModePercentage:
		pct := req.Percentage
		progress = &pct
		lines = []LineItem{percentageLine(est, pct)}
	case BillingModeManual:
		lines = copyLines(selectLines(est.OrderedLineItems(), req.SelectedLineItemIDs))
	default:
		lines = copyLines(est.OrderedLineItems())
	}
	if len(lines) == 0 {
		return nil, ErrNoLineItemsSelected
	}

	totals, err := CalculateTotals(TotalsLines(lines), valueobject.Zero(), est.TaxRate)
	if err != nil {
		return nil, err
	}

	estimateID := est.ID
	inv := &Invoice{
		TenantEntity:    shared.NewTenantEntity(est.TenantID),
		InvoiceNumber:   draft.Number,
		Title:           conversionTitle(est.Title, mode, req.Percentage),
		Status:          InvoiceStatusDraft,
		ClientID:        *est.ClientID,
		EstimateID:      &estimateID,
		BillingMode:     mode,
		ProgressPercent: progress,
		Notes:           est.Notes,
		Terms:           est.Terms,
		LineItems:       lines,
		Balance:         totals.Total.NonNegative(),
		InvoiceDate:     draft.Now,
		PaymentToken:    draft.Token,
		CreatedBy:       draft.ActorID,
		DocumentTotals:  totals,
	}
	inv.CreatedAt = draft.Now
	inv.UpdatedAt = draft.Now
	return inv, nil
}

// percentageLine is the single synthetic line of a PERCENTAGE invoice. It is
// not taxable since the estimate total it derives from already includes tax.
func percentageLine(est *Estimate, pct decimal.Decimal) LineItem {
	amount := est.Total.Percentage(pct).NonNegative()
	return LineItem{
		ID:                  uuid.New(),
		Description:         fmt.Sprintf("Progress Billing (%s%%) - Estimate %s", pct.StringFixed(2), est.EstimateNumber),
		Quantity:            decimal.NewFromInt(1),
		UnitPrice:           amount,
		Total:               amount,
		SortOrder:           0,
		Taxable:             false,
		IsVisibleToClient:   true,
		ShowPriceToCustomer: true,
		ShowTaxToCustomer:   true,
	}
}

func selectLines(lines []LineItem, ids []uuid.UUID) []LineItem {
	wanted := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	out := make([]LineItem, 0, len(ids))
	for _, l := range lines {
		if _, ok := wanted[l.ID]; ok {
			out = append(out, l)
		}
	}
	return out
}

func copyLines(lines []LineItem) []LineItem {
	out := make([]LineItem, 0, len(lines))
	for i, l := range lines {
		out = append(out, l.CopyForDocument(i))
	}
	return out
}

func conversionTitle(title string, mode BillingMode, pct decimal.Decimal) string {
	switch mode {
	case BillingModePercentage:
		return fmt.Sprintf("%s - %s%% Billing", title, pct.StringFixed(2))
	case BillingModeManual:
		return title + " - Partial Billing"
	default:
		return title + " - Full Billing"
	}
}

// NewPaymentToken returns a random 40 character hex token used in the client
// portal payment URL
func NewPaymentToken() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate payment token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// FormatDocumentNumber renders a sequential tenant document number, e.g.
// INV-000042
func FormatDocumentNumber(prefix string, seq int64) string {
	return fmt.Sprintf("%s-%06d", prefix, seq)
}
