package entity

import (
	"errors"
	"fmt"
	"strings"
)

// CountryIndia is the only country that requires a PIN code
const CountryIndia = "India"

// SupportedCountries lists the countries a party may be located in, in display order
var SupportedCountries = []string{
	CountryIndia,
	"United States",
	"United Kingdom",
	"Canada",
	"Australia",
	"Germany",
	"France",
	"Japan",
	"China",
	"Other",
}

// ErrUnsupportedCountry is returned when a party is assigned a country outside SupportedCountries
var ErrUnsupportedCountry = errors.New("unsupported country")

// IsSupportedCountry reports whether country is one of SupportedCountries
func IsSupportedCountry(country string) bool {
	for _, c := range SupportedCountries {
		if c == country {
			return true
		}
	}
	return false
}

// PartyRole distinguishes the issuing company from the billed client
type PartyRole string

const (
	RoleIssuer    PartyRole = "issuer"
	RoleRecipient PartyRole = "recipient"
)

// Label returns the human-readable noun used in validation messages
func (r PartyRole) Label() string {
	if r == RoleIssuer {
		return "Company"
	}
	return "Client"
}

// Party is either the issuer or the recipient of an invoice.
// Logo is only meaningful for the issuer and holds a data: URL.
type Party struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Country string `json:"country"`
	PinCode string `json:"pinCode"`
	Logo    string `json:"logo,omitempty"`
}

// NewParty returns an empty party located in the given country
func NewParty(country string) Party {
	if country == "" {
		country = CountryIndia
	}
	return Party{Country: country}
}

// RequiresPinCode reports whether the party's country mandates a PIN code
func (p Party) RequiresPinCode() bool {
	return p.Country == CountryIndia
}

// Rememberable reports whether the party carries enough identity to be persisted
func (p Party) Rememberable() bool {
	return p.Name != "" && p.Email != ""
}

// PartyPatch holds the fields to merge into a Party. Nil fields are left untouched.
type PartyPatch struct {
	Name    *string `json:"name,omitempty"`
	Address *string `json:"address,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Country *string `json:"country,omitempty"`
	PinCode *string `json:"pinCode,omitempty"`
	Logo    *string `json:"logo,omitempty"`
}

// Empty reports whether the patch changes nothing
func (pp PartyPatch) Empty() bool {
	return pp.Name == nil && pp.Address == nil && pp.Email == nil && pp.Phone == nil &&
		pp.Country == nil && pp.PinCode == nil && pp.Logo == nil
}

// Apply merges the patch into p and enforces the PIN code rule.
// Whenever the country is assigned a value other than India the PIN code is cleared;
// a PIN code is never kept for a non-Indian party.
func (pp PartyPatch) Apply(p *Party) error {
	if pp.Country != nil && !IsSupportedCountry(*pp.Country) {
		return fmt.Errorf("%w: %q", ErrUnsupportedCountry, *pp.Country)
	}

	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Address != nil {
		p.Address = *pp.Address
	}
	if pp.Email != nil {
		p.Email = *pp.Email
	}
	if pp.Phone != nil {
		p.Phone = *pp.Phone
	}
	if pp.PinCode != nil {
		p.PinCode = *pp.PinCode
	}
	if pp.Logo != nil {
		p.Logo = *pp.Logo
	}
	if pp.Country != nil {
		p.Country = *pp.Country
	}

	if (pp.Country != nil || pp.PinCode != nil) && !p.RequiresPinCode() {
		p.PinCode = ""
	}
	return nil
}

// PatchFrom builds a patch that overwrites every field of p
func PatchFrom(p Party) PartyPatch {
	return PartyPatch{
		Name:    &p.Name,
		Address: &p.Address,
		Email:   &p.Email,
		Phone:   &p.Phone,
		Country: &p.Country,
		PinCode: &p.PinCode,
		Logo:    &p.Logo,
	}
}

// SameEmail reports whether two addresses name the same mailbox for
// de-duplication and lookup; the comparison ignores case
func SameEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// UpsertRecent inserts p into a most-recent-first list keyed by email.
// An existing entry with the same email (see SameEmail) is replaced in place;
// otherwise p is prepended and the list truncated to limit entries.
func UpsertRecent(list []Party, p Party, limit int) []Party {
	out := make([]Party, len(list))
	copy(out, list)

	for i := range out {
		if SameEmail(out[i].Email, p.Email) {
			out[i] = p
			return out
		}
	}

	out = append([]Party{p}, out...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
