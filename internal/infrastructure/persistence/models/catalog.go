package models

import (
	"github.com/fieldservice/backend/internal/domain/catalog"
	"github.com/fieldservice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemModel is the persistence model for the catalog Item entity.
type ItemModel struct {
	TenantModel
	Name        string             `gorm:"type:varchar(200);not null"`
	Description string             `gorm:"type:text"`
	Unit        string             `gorm:"type:varchar(20);not null;default:'each'"`
	Kind        string             `gorm:"type:varchar(10);not null;default:'SINGLE'"`
	UnitPrice   valueobject.Money  `gorm:"type:bigint;not null;default:0"`
	UnitCost    *valueobject.Money `gorm:"type:bigint"`
	IsActive    bool               `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (ItemModel) TableName() string {
	return "items"
}

// ToDomain converts the persistence model to a domain Item entity.
func (m *ItemModel) ToDomain() *catalog.Item {
	return &catalog.Item{
		TenantEntity: m.ToTenantEntity(),
		Name:         m.Name,
		Description:  m.Description,
		Unit:         m.Unit,
		Kind:         catalog.ItemKind(m.Kind),
		UnitPrice:    m.UnitPrice,
		UnitCost:     m.UnitCost,
		IsActive:     m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain Item entity.
func (m *ItemModel) FromDomain(i *catalog.Item) {
	m.FromDomainTenantEntity(i.TenantEntity)
	m.Name = i.Name
	m.Description = i.Description
	m.Unit = i.Unit
	m.Kind = string(i.Kind)
	m.UnitPrice = i.UnitPrice
	m.UnitCost = i.UnitCost
	m.IsActive = i.IsActive
}

// ItemModelFromDomain creates a persistence model from a domain Item entity.
func ItemModelFromDomain(i *catalog.Item) *ItemModel {
	m := &ItemModel{}
	m.FromDomain(i)
	return m
}

// BundleDefinitionModel is the persistence model for BundleDefinition.
// Each bundle item owns at most one definition.
type BundleDefinitionModel struct {
	TenantModel
	ItemID          uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex"`
	Name            string                 `gorm:"type:varchar(200);not null"`
	PricingStrategy string                 `gorm:"type:varchar(30);not null;default:'SUM_COMPONENTS'"`
	IsActive        bool                   `gorm:"not null;default:true"`
	Components      []BundleComponentModel `gorm:"foreignKey:BundleID"`
}

// TableName returns the table name for GORM
func (BundleDefinitionModel) TableName() string {
	return "bundle_definitions"
}

// ToDomain converts the persistence model to a domain BundleDefinition.
func (m *BundleDefinitionModel) ToDomain() *catalog.BundleDefinition {
	def := &catalog.BundleDefinition{
		TenantEntity:    m.ToTenantEntity(),
		ItemID:          m.ItemID,
		Name:            m.Name,
		PricingStrategy: catalog.PricingStrategy(m.PricingStrategy),
		IsActive:        m.IsActive,
		Components:      make([]catalog.BundleComponent, 0, len(m.Components)),
	}
	for i := range m.Components {
		def.Components = append(def.Components, m.Components[i].ToDomain())
	}
	return def
}

// BundleDefinitionModelFromDomain creates a persistence model, components
// included, from a domain BundleDefinition.
func BundleDefinitionModelFromDomain(d *catalog.BundleDefinition) *BundleDefinitionModel {
	m := &BundleDefinitionModel{
		ItemID:          d.ItemID,
		Name:            d.Name,
		PricingStrategy: string(d.PricingStrategy),
		IsActive:        d.IsActive,
		Components:      make([]BundleComponentModel, 0, len(d.Components)),
	}
	m.FromDomainTenantEntity(d.TenantEntity)
	for _, c := range d.Components {
		m.Components = append(m.Components, BundleComponentModelFromDomain(d.ID, c))
	}
	return m
}

// BundleComponentModel is one edge of the bundle composition graph
type BundleComponentModel struct {
	ID                uuid.UUID          `gorm:"type:uuid;primary_key"`
	BundleID          uuid.UUID          `gorm:"type:uuid;not null;index"`
	ComponentType     string             `gorm:"type:varchar(10);not null"`
	ItemID            *uuid.UUID         `gorm:"type:uuid;index"`
	ChildBundleID     *uuid.UUID         `gorm:"type:uuid;index"`
	Quantity          decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:1"`
	UnitPriceOverride *valueobject.Money `gorm:"type:bigint"`
	UnitCostOverride  *valueobject.Money `gorm:"type:bigint"`
	SortOrder         int                `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (BundleComponentModel) TableName() string {
	return "bundle_components"
}

// ToDomain converts the persistence model to a domain BundleComponent.
func (m *BundleComponentModel) ToDomain() catalog.BundleComponent {
	return catalog.BundleComponent{
		ID:                m.ID,
		BundleID:          m.BundleID,
		Type:              catalog.ComponentType(m.ComponentType),
		ItemID:            m.ItemID,
		ChildBundleID:     m.ChildBundleID,
		Quantity:          m.Quantity,
		UnitPriceOverride: m.UnitPriceOverride,
		UnitCostOverride:  m.UnitCostOverride,
		SortOrder:         m.SortOrder,
	}
}

// BundleComponentModelFromDomain creates a component row owned by bundleID
func BundleComponentModelFromDomain(bundleID uuid.UUID, c catalog.BundleComponent) BundleComponentModel {
	id := c.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return BundleComponentModel{
		ID:                id,
		BundleID:          bundleID,
		ComponentType:     string(c.Type),
		ItemID:            c.ItemID,
		ChildBundleID:     c.ChildBundleID,
		Quantity:          c.Quantity,
		UnitPriceOverride: c.UnitPriceOverride,
		UnitCostOverride:  c.UnitCostOverride,
		SortOrder:         c.SortOrder,
	}
}
