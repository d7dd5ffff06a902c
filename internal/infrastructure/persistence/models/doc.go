// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Money is stored as bigint cents through valueobject.Money's Valuer/Scanner.
// Quantities and rates are decimal columns.
//
// Structure:
// - base.go: BaseModel, TenantModel and NumberedTenantModel
// - catalog.go: items, bundle definitions and components
// - billing.go: estimates, invoices, line items, line groups, payments
// - partner.go: clients and leads
// - job.go: jobs and addresses
// - identity.go: users
// - audit.go: activities and notifications
package models
