package billing

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fieldservice/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PaymentEvent is the canonical shape every provider callback is normalized
// into before it reaches reconciliation.
type PaymentEvent struct {
	Provider      string
	Success       bool
	InvoiceID     string
	Amount        *valueobject.Money
	TransactionID string
	Raw           json.RawMessage
}

// HasTransactionID reports whether the event can be deduplicated
func (e PaymentEvent) HasTransactionID() bool {
	return e.TransactionID != ""
}

// Field aliases accepted from gateway form-style callbacks, in lookup order
var (
	resultFields        = []string{"Result", "result", "xResult"}
	invoiceIDFields     = []string{"invoiceId", "xInvoice", "InvoiceID"}
	amountFields        = []string{"amount", "xAmount"}
	transactionIDFields = []string{"transactionId", "TransactionID", "xRefNum"}
)

// NormalizeGatewayPayload maps a loosely-typed gateway callback body into a
// PaymentEvent. Unknown fields are ignored and missing ones fall back to
// zero values.
func NormalizeGatewayPayload(provider string, raw []byte) (PaymentEvent, error) {
	var body map[string]any
	if len(raw) > 0 {
		dec := json.NewDecoder(strings.NewReader(string(raw)))
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil {
			return PaymentEvent{}, fmt.Errorf("decode payment payload: %w", err)
		}
	}

	result := strings.ToUpper(firstString(body, resultFields...))
	status := strings.ToLower(firstString(body, "status"))

	evt := PaymentEvent{
		Provider:      provider,
		Success:       result == "S" || status == "completed" || status == "paid",
		InvoiceID:     firstString(body, invoiceIDFields...),
		TransactionID: firstString(body, transactionIDFields...),
		Raw:           json.RawMessage(raw),
	}
	if amt, ok := firstAmount(body, amountFields...); ok {
		evt.Amount = &amt
	}
	return evt, nil
}

// firstString returns the first present, non-empty field rendered as a string
func firstString(body map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := body[k]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case json.Number:
			s = t.String()
		case bool:
			if !t {
				continue
			}
			s = "true"
		default:
			s = fmt.Sprint(t)
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// firstAmount returns the first field that parses as a positive decimal,
// rounded to cents. A positive report below half a cent rounds to zero and is
// still returned so it is never mistaken for an omitted amount.
func firstAmount(body map[string]any, keys ...string) (valueobject.Money, bool) {
	for _, k := range keys {
		v, ok := body[k]
		if !ok || v == nil {
			continue
		}
		var d decimal.Decimal
		var err error
		switch t := v.(type) {
		case json.Number:
			d, err = decimal.NewFromString(t.String())
		case string:
			d, err = decimal.NewFromString(strings.TrimSpace(t))
		case float64:
			d = decimal.NewFromFloat(t)
		default:
			continue
		}
		if err != nil || !d.IsPositive() {
			continue
		}
		return valueobject.NewMoney(d), true
	}
	return valueobject.Money{}, false
}
