// Package billing provides the financial document model of the field-service
// engine: estimates, invoices and purchase orders with their line items, the
// document totals calculator, progress billing, and payment application.
//
// Key Aggregates:
//   - Estimate: a priced proposal to a client or lead; may be converted to
//     invoices and, on first payment, materialized into a job
//   - Invoice: a bill with paid amount, balance and payment state
//   - PurchaseOrder: a vendor order sharing the document totals shape
//
// Value Objects:
//   - DocumentTotals: subtotal, discount, tax and total in cents
//   - PaymentEvent: a provider webhook payload normalized to one shape
//
// All money is held as valueobject.Money (integer cents). Quantities and
// rates are decimals and only meet money through Money's rounding helpers.
package billing
