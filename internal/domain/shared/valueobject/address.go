package valueobject

import (
	"encoding/json"
	"regexp"
	"strings"
)

// DefaultCountry is assumed for addresses parsed from free-form text
const DefaultCountry = "US"

// AddressType tags how an address is used by its owner
type AddressType string

const (
	AddressTypeJobSite  AddressType = "job_site"
	AddressTypeBilling  AddressType = "billing"
	AddressTypeShipping AddressType = "shipping"
)

// Address is an immutable postal address
type Address struct {
	street  string
	city    string
	state   string
	zipCode string
	country string
}

// AddressOption is a functional option for configuring Address
type AddressOption func(*Address)

// WithZipCode sets the zip code
func WithZipCode(zip string) AddressOption {
	return func(a *Address) {
		a.zipCode = strings.TrimSpace(zip)
	}
}

// WithCountry sets the country
func WithCountry(country string) AddressOption {
	return func(a *Address) {
		a.country = strings.TrimSpace(country)
	}
}

// NewAddress creates an address from its parts
func NewAddress(street, city, state string, opts ...AddressOption) Address {
	addr := Address{
		street:  strings.TrimSpace(street),
		city:    strings.TrimSpace(city),
		state:   strings.TrimSpace(state),
		country: DefaultCountry,
	}
	for _, opt := range opts {
		opt(&addr)
	}
	return addr
}

var stateZipPattern = regexp.MustCompile(`^([A-Za-z]{2})\s+(.+)$`)

// ParseAddress heuristically splits a free-form single-line address such as
// "12 Main St, Springfield, IL 62701" into street, city, state and zip.
// Blank input yields ok=false. Parts that cannot be recognised are kept
// as-is rather than dropped: a third part without a two-letter state prefix
// becomes the state verbatim.
func ParseAddress(raw string) (Address, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Address{}, false
	}

	parts := make([]string, 0, 3)
	for _, p := range strings.Split(trimmed, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	street := trimmed
	if len(parts) > 0 {
		street = parts[0]
	}
	var city, stateZip string
	if len(parts) > 1 {
		city = parts[1]
	}
	if len(parts) > 2 {
		stateZip = parts[2]
	}

	state, zip := stateZip, ""
	if m := stateZipPattern.FindStringSubmatch(stateZip); m != nil {
		state, zip = m[1], m[2]
	}

	return Address{
		street:  street,
		city:    city,
		state:   state,
		zipCode: zip,
		country: DefaultCountry,
	}, true
}

// Street returns the street line
func (a Address) Street() string { return a.street }

// City returns the city
func (a Address) City() string { return a.city }

// State returns the state or region
func (a Address) State() string { return a.state }

// ZipCode returns the postal code
func (a Address) ZipCode() string { return a.zipCode }

// Country returns the country code
func (a Address) Country() string { return a.country }

// IsEmpty returns true when no street was recorded
func (a Address) IsEmpty() bool {
	return a.street == ""
}

// String renders the address on one line
func (a Address) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.street, a.city, strings.TrimSpace(a.state + " " + a.zipCode)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Equals compares two addresses field by field
func (a Address) Equals(other Address) bool {
	return a == other
}

type addressJSON struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

// MarshalJSON implements json.Marshaler
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(addressJSON{
		Street:  a.street,
		City:    a.city,
		State:   a.state,
		ZipCode: a.zipCode,
		Country: a.country,
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (a *Address) UnmarshalJSON(data []byte) error {
	var v addressJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = NewAddress(v.Street, v.City, v.State, WithZipCode(v.ZipCode), WithCountry(v.Country))
	if a.country == "" {
		a.country = DefaultCountry
	}
	return nil
}
