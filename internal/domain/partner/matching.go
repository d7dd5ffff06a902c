package partner

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// phoneMatchDigits is how many trailing digits of a phone number identify it,
// so "+1 (555) 010-2000" and "555-010-2000" match.
const phoneMatchDigits = 10

// ClientMatchCriteria holds normalized lead fields. An existing client matches
// when any of these hold:
//
//   - email equal ignoring case
//   - client phone digits contain the phone suffix
//   - name equal ignoring case, and company equal ignoring case when the
//     lead has one
type ClientMatchCriteria struct {
	Email       string
	PhoneSuffix string
	Name        string
	Company     string
}

// NewClientMatchCriteria normalizes raw lead contact fields
func NewClientMatchCriteria(email, phone, name, company string) ClientMatchCriteria {
	return ClientMatchCriteria{
		Email:       NormalizeEmail(email),
		PhoneSuffix: PhoneSuffix(phone),
		Name:        strings.TrimSpace(name),
		Company:     strings.TrimSpace(company),
	}
}

// IsEmpty reports whether no criterion can match anything
func (m ClientMatchCriteria) IsEmpty() bool {
	return m.Email == "" && m.PhoneSuffix == "" && m.Name == ""
}

// Matches applies the criteria to a client
func (m ClientMatchCriteria) Matches(c *Client) bool {
	if m.Email != "" && NormalizeEmail(c.Email) == m.Email {
		return true
	}
	if m.PhoneSuffix != "" && strings.Contains(c.PhoneDigits(), m.PhoneSuffix) {
		return true
	}
	if m.Name != "" && EqualFold(c.Name, m.Name) {
		if m.Company == "" || EqualFold(c.CompanyName, m.Company) {
			return true
		}
	}
	return false
}

// NormalizeEmail trims and lowercases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DigitsOnly strips every non-digit rune
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PhoneSuffix returns the last ten digits of a phone number, or all digits
// when there are fewer
func PhoneSuffix(phone string) string {
	d := DigitsOnly(phone)
	if len(d) > phoneMatchDigits {
		return d[len(d)-phoneMatchDigits:]
	}
	return d
}

// EqualFold compares two strings under Unicode case folding after trimming
func EqualFold(a, b string) bool {
	return FoldKey(a) == FoldKey(b)
}

// FoldKey returns the case-folded form used for case-insensitive lookups
func FoldKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
