package models

import (
	"time"

	"github.com/fieldservice/backend/internal/domain/billing"
	"github.com/fieldservice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentTotalsColumns are the totals shared by estimates and invoices
type DocumentTotalsColumns struct {
	Subtotal  valueobject.Money `gorm:"type:bigint;not null;default:0"`
	Discount  valueobject.Money `gorm:"type:bigint;not null;default:0"`
	TaxRate   decimal.Decimal   `gorm:"type:decimal(9,6);not null;default:0"`
	TaxAmount valueobject.Money `gorm:"type:bigint;not null;default:0"`
	Total     valueobject.Money `gorm:"type:bigint;not null;default:0"`
}

func (c DocumentTotalsColumns) toDomain() billing.DocumentTotals {
	return billing.DocumentTotals{
		Subtotal:  c.Subtotal,
		Discount:  c.Discount,
		TaxRate:   c.TaxRate,
		TaxAmount: c.TaxAmount,
		Total:     c.Total,
	}
}

func documentTotalsColumns(t billing.DocumentTotals) DocumentTotalsColumns {
	return DocumentTotalsColumns{
		Subtotal:  t.Subtotal,
		Discount:  t.Discount,
		TaxRate:   t.TaxRate,
		TaxAmount: t.TaxAmount,
		Total:     t.Total,
	}
}

// LineItemColumns are the columns shared by estimate and invoice lines
type LineItemColumns struct {
	ID                  uuid.UUID          `gorm:"type:uuid;primary_key"`
	TenantID            uuid.UUID          `gorm:"type:uuid;not null;index"`
	GroupID             *uuid.UUID         `gorm:"type:uuid;index"`
	SourceItemID        *uuid.UUID         `gorm:"type:uuid"`
	SourceBundleID      *uuid.UUID         `gorm:"type:uuid"`
	VendorID            *uuid.UUID         `gorm:"type:uuid"`
	Description         string             `gorm:"type:text;not null"`
	Quantity            decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:1"`
	UnitPrice           valueobject.Money  `gorm:"type:bigint;not null;default:0"`
	UnitCost            *valueobject.Money `gorm:"type:bigint"`
	Total               valueobject.Money  `gorm:"type:bigint;not null;default:0"`
	SortOrder           int                `gorm:"not null;default:0"`
	Notes               string             `gorm:"type:text"`
	Taxable             bool               `gorm:"not null;default:true"`
	TaxRate             *decimal.Decimal   `gorm:"type:decimal(9,6)"`
	IsVisibleToClient   bool               `gorm:"not null;default:true"`
	ShowCostToCustomer  bool               `gorm:"not null;default:false"`
	ShowPriceToCustomer bool               `gorm:"not null;default:true"`
	ShowTaxToCustomer   bool               `gorm:"not null;default:true"`
	ShowNotesToCustomer bool               `gorm:"not null;default:true"`
	CreatedAt           time.Time          `gorm:"not null"`
	UpdatedAt           time.Time          `gorm:"not null"`
}

// ToDomain converts the columns to a domain LineItem
func (c *LineItemColumns) ToDomain() billing.LineItem {
	return billing.LineItem{
		ID:                  c.ID,
		GroupID:             c.GroupID,
		SourceItemID:        c.SourceItemID,
		SourceBundleID:      c.SourceBundleID,
		VendorID:            c.VendorID,
		Description:         c.Description,
		Quantity:            c.Quantity,
		UnitPrice:           c.UnitPrice,
		UnitCost:            c.UnitCost,
		Total:               c.Total,
		SortOrder:           c.SortOrder,
		Notes:               c.Notes,
		Taxable:             c.Taxable,
		TaxRate:             c.TaxRate,
		IsVisibleToClient:   c.IsVisibleToClient,
		ShowCostToCustomer:  c.ShowCostToCustomer,
		ShowPriceToCustomer: c.ShowPriceToCustomer,
		ShowTaxToCustomer:   c.ShowTaxToCustomer,
		ShowNotesToCustomer: c.ShowNotesToCustomer,
	}
}

func lineItemColumns(tenantID uuid.UUID, l billing.LineItem, now time.Time) LineItemColumns {
	id := l.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return LineItemColumns{
		ID:                  id,
		TenantID:            tenantID,
		GroupID:             l.GroupID,
		SourceItemID:        l.SourceItemID,
		SourceBundleID:      l.SourceBundleID,
		VendorID:            l.VendorID,
		Description:         l.Description,
		Quantity:            l.Quantity,
		UnitPrice:           l.UnitPrice,
		UnitCost:            l.UnitCost,
		Total:               l.Total,
		SortOrder:           l.SortOrder,
		Notes:               l.Notes,
		Taxable:             l.Taxable,
		TaxRate:             l.TaxRate,
		IsVisibleToClient:   l.IsVisibleToClient,
		ShowCostToCustomer:  l.ShowCostToCustomer,
		ShowPriceToCustomer: l.ShowPriceToCustomer,
		ShowTaxToCustomer:   l.ShowTaxToCustomer,
		ShowNotesToCustomer: l.ShowNotesToCustomer,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// EstimateModel is the persistence model for the Estimate entity.
type EstimateModel struct {
	NumberedTenantModel
	EstimateNumber string                  `gorm:"type:varchar(50);not null;uniqueIndex:,composite:tenant_number,priority:2"`
	Title          string                  `gorm:"type:varchar(200);not null"`
	Status         string                  `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	ClientID       *uuid.UUID              `gorm:"type:uuid;index"`
	LeadID         *uuid.UUID              `gorm:"type:uuid;index"`
	JobID          *uuid.UUID              `gorm:"type:uuid"`
	Notes          string                  `gorm:"type:text"`
	Terms          string                  `gorm:"type:text"`
	JobSiteAddress string                  `gorm:"type:text"`
	LineItems      []EstimateLineItemModel `gorm:"foreignKey:EstimateID"`
	DocumentTotalsColumns
}

// TableName returns the table name for GORM
func (EstimateModel) TableName() string {
	return "estimates"
}

// ToDomain converts the persistence model to a domain Estimate.
func (m *EstimateModel) ToDomain() *billing.Estimate {
	est := &billing.Estimate{
		TenantEntity:   m.ToTenantEntity(),
		EstimateNumber: m.EstimateNumber,
		Title:          m.Title,
		Status:         billing.EstimateStatus(m.Status),
		ClientID:       m.ClientID,
		LeadID:         m.LeadID,
		JobID:          m.JobID,
		Notes:          m.Notes,
		Terms:          m.Terms,
		JobSiteAddress: m.JobSiteAddress,
		LineItems:      make([]billing.LineItem, 0, len(m.LineItems)),
		DocumentTotals: m.DocumentTotalsColumns.toDomain(),
	}
	for i := range m.LineItems {
		est.LineItems = append(est.LineItems, m.LineItems[i].ToDomain())
	}
	return est
}

// EstimateModelFromDomain creates a persistence model, lines included, from
// a domain Estimate.
func EstimateModelFromDomain(e *billing.Estimate) *EstimateModel {
	m := &EstimateModel{
		EstimateNumber:        e.EstimateNumber,
		Title:                 e.Title,
		Status:                string(e.Status),
		ClientID:              e.ClientID,
		LeadID:                e.LeadID,
		JobID:                 e.JobID,
		Notes:                 e.Notes,
		Terms:                 e.Terms,
		JobSiteAddress:        e.JobSiteAddress,
		DocumentTotalsColumns: documentTotalsColumns(e.DocumentTotals),
		LineItems:             make([]EstimateLineItemModel, 0, len(e.LineItems)),
	}
	m.FromDomainTenantEntity(e.TenantEntity)
	for _, l := range e.LineItems {
		m.LineItems = append(m.LineItems, EstimateLineItemModel{
			LineItemColumns: lineItemColumns(e.TenantID, l, e.UpdatedAt),
			EstimateID:      e.ID,
		})
	}
	return m
}

// EstimateLineItemModel is a line of an estimate
type EstimateLineItemModel struct {
	LineItemColumns
	EstimateID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (EstimateLineItemModel) TableName() string {
	return "estimate_line_items"
}

// InvoiceModel is the persistence model for the Invoice entity.
type InvoiceModel struct {
	NumberedTenantModel
	InvoiceNumber         string                 `gorm:"type:varchar(50);not null;uniqueIndex:,composite:tenant_number,priority:2"`
	Title                 string                 `gorm:"type:varchar(200);not null"`
	Status                string                 `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	ClientID              uuid.UUID              `gorm:"type:uuid;not null;index"`
	EstimateID            *uuid.UUID             `gorm:"type:uuid;index"`
	JobID                 *uuid.UUID             `gorm:"type:uuid"`
	BillingMode           string                 `gorm:"type:varchar(20);not null;default:'FULL'"`
	ProgressPercent       *decimal.Decimal       `gorm:"type:decimal(9,4)"`
	Notes                 string                 `gorm:"type:text"`
	Terms                 string                 `gorm:"type:text"`
	PaidAmount            valueobject.Money      `gorm:"type:bigint;not null;default:0"`
	Balance               valueobject.Money      `gorm:"type:bigint;not null;default:0"`
	PaidAt                *time.Time             `gorm:"default:null"`
	InvoiceDate           time.Time              `gorm:"not null"`
	PaymentToken          string                 `gorm:"type:varchar(64);index"`
	PaymentURL            string                 `gorm:"type:text"`
	ProviderTransactionID string                 `gorm:"type:varchar(100)"`
	CreatedBy             *uuid.UUID             `gorm:"type:uuid"`
	LineItems             []InvoiceLineItemModel `gorm:"foreignKey:InvoiceID"`
	DocumentTotalsColumns
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice.
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	inv := &billing.Invoice{
		TenantEntity:          m.ToTenantEntity(),
		InvoiceNumber:         m.InvoiceNumber,
		Title:                 m.Title,
		Status:                billing.InvoiceStatus(m.Status),
		ClientID:              m.ClientID,
		EstimateID:            m.EstimateID,
		JobID:                 m.JobID,
		BillingMode:           billing.BillingMode(m.BillingMode),
		ProgressPercent:       m.ProgressPercent,
		Notes:                 m.Notes,
		Terms:                 m.Terms,
		LineItems:             make([]billing.LineItem, 0, len(m.LineItems)),
		PaidAmount:            m.PaidAmount,
		Balance:               m.Balance,
		PaidAt:                m.PaidAt,
		InvoiceDate:           m.InvoiceDate,
		PaymentToken:          m.PaymentToken,
		PaymentURL:            m.PaymentURL,
		ProviderTransactionID: m.ProviderTransactionID,
		CreatedBy:             m.CreatedBy,
		DocumentTotals:        m.DocumentTotalsColumns.toDomain(),
	}
	for i := range m.LineItems {
		inv.LineItems = append(inv.LineItems, m.LineItems[i].ToDomain())
	}
	return inv
}

// InvoiceModelFromDomain creates a persistence model, lines included, from a
// domain Invoice.
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		InvoiceNumber:         inv.InvoiceNumber,
		Title:                 inv.Title,
		Status:                string(inv.Status),
		ClientID:              inv.ClientID,
		EstimateID:            inv.EstimateID,
		JobID:                 inv.JobID,
		BillingMode:           string(inv.BillingMode),
		ProgressPercent:       inv.ProgressPercent,
		Notes:                 inv.Notes,
		Terms:                 inv.Terms,
		PaidAmount:            inv.PaidAmount,
		Balance:               inv.Balance,
		PaidAt:                inv.PaidAt,
		InvoiceDate:           inv.InvoiceDate,
		PaymentToken:          inv.PaymentToken,
		PaymentURL:            inv.PaymentURL,
		ProviderTransactionID: inv.ProviderTransactionID,
		CreatedBy:             inv.CreatedBy,
		DocumentTotalsColumns: documentTotalsColumns(inv.DocumentTotals),
		LineItems:             make([]InvoiceLineItemModel, 0, len(inv.LineItems)),
	}
	m.FromDomainTenantEntity(inv.TenantEntity)
	for _, l := range inv.LineItems {
		m.LineItems = append(m.LineItems, InvoiceLineItemModel{
			LineItemColumns: lineItemColumns(inv.TenantID, l, inv.CreatedAt),
			InvoiceID:       inv.ID,
		})
	}
	return m
}

// InvoiceLineItemModel is a line of an invoice
type InvoiceLineItemModel struct {
	LineItemColumns
	InvoiceID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (InvoiceLineItemModel) TableName() string {
	return "invoice_line_items"
}

// DocumentLineGroupModel groups the lines one bundle expansion produced
type DocumentLineGroupModel struct {
	TenantModel
	DocumentType     string     `gorm:"type:varchar(20);not null;index:idx_line_group_document,priority:1"`
	DocumentID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_line_group_document,priority:2"`
	Name             string     `gorm:"type:varchar(200);not null"`
	SourceBundleID   *uuid.UUID `gorm:"type:uuid"`
	SourceBundleName string     `gorm:"type:varchar(200)"`
	SortOrder        int        `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (DocumentLineGroupModel) TableName() string {
	return "document_line_groups"
}

// ToDomain converts the persistence model to a domain DocumentLineGroup.
func (m *DocumentLineGroupModel) ToDomain() *billing.DocumentLineGroup {
	return &billing.DocumentLineGroup{
		TenantEntity:     m.ToTenantEntity(),
		DocumentType:     billing.DocumentType(m.DocumentType),
		DocumentID:       m.DocumentID,
		Name:             m.Name,
		SourceBundleID:   m.SourceBundleID,
		SourceBundleName: m.SourceBundleName,
		SortOrder:        m.SortOrder,
	}
}

// DocumentLineGroupModelFromDomain creates a persistence model from a domain
// DocumentLineGroup.
func DocumentLineGroupModelFromDomain(g *billing.DocumentLineGroup) *DocumentLineGroupModel {
	m := &DocumentLineGroupModel{
		DocumentType:     string(g.DocumentType),
		DocumentID:       g.DocumentID,
		Name:             g.Name,
		SourceBundleID:   g.SourceBundleID,
		SourceBundleName: g.SourceBundleName,
		SortOrder:        g.SortOrder,
	}
	m.FromDomainTenantEntity(g.TenantEntity)
	return m
}

// PaymentModel is the persistence model for the Payment entity. The
// (tenant_id, provider_transaction_id) unique index is what rejects a second
// delivery of the same provider payment.
type PaymentModel struct {
	BaseModel
	TenantID              uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_payment_tenant_provider_tx,priority:1"`
	InvoiceID             uuid.UUID         `gorm:"type:uuid;not null;index"`
	Amount                valueobject.Money `gorm:"type:bigint;not null"`
	Status                string            `gorm:"type:varchar(20);not null"`
	Method                string            `gorm:"type:varchar(20);not null"`
	Reference             string            `gorm:"type:varchar(100)"`
	ProviderTransactionID *string           `gorm:"type:varchar(100);uniqueIndex:idx_payment_tenant_provider_tx,priority:2"`
	WebhookPayload        *string           `gorm:"type:jsonb"`
	ProcessedAt           time.Time         `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() *billing.Payment {
	p := &billing.Payment{
		InvoiceID:             m.InvoiceID,
		Amount:                m.Amount,
		Status:                billing.PaymentStatus(m.Status),
		Method:                billing.PaymentMethod(m.Method),
		Reference:             m.Reference,
		ProviderTransactionID: m.ProviderTransactionID,
		ProcessedAt:           m.ProcessedAt,
	}
	p.BaseEntity = m.BaseModel.ToDomain()
	p.TenantID = m.TenantID
	if m.WebhookPayload != nil {
		p.WebhookPayload = []byte(*m.WebhookPayload)
	}
	return p
}

// PaymentModelFromDomain creates a persistence model from a domain Payment.
func PaymentModelFromDomain(p *billing.Payment) *PaymentModel {
	m := &PaymentModel{
		TenantID:              p.TenantID,
		InvoiceID:             p.InvoiceID,
		Amount:                p.Amount,
		Status:                string(p.Status),
		Method:                string(p.Method),
		Reference:             p.Reference,
		ProviderTransactionID: p.ProviderTransactionID,
		ProcessedAt:           p.ProcessedAt,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	if len(p.WebhookPayload) > 0 {
		payload := string(p.WebhookPayload)
		m.WebhookPayload = &payload
	}
	return m
}
