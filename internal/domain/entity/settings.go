package entity

import (
	"fmt"
	"time"
)

// DiscountType selects how Settings.Discount is interpreted
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// IsValid checks if the discount type is one of the defined constants
func (d DiscountType) IsValid() bool {
	return d == DiscountPercentage || d == DiscountFixed
}

// Settings field names accepted by field-level updates
const (
	SettingTaxRate       = "taxRate"
	SettingDiscountType  = "discountType"
	SettingDiscount      = "discount"
	SettingCurrency      = "currency"
	SettingInvoiceNumber = "invoiceNumber"
	SettingInvoiceDate   = "invoiceDate"
	SettingDueDate       = "dueDate"
)

// Defaults used when no configuration overrides them
const (
	DefaultTaxRate  = 18.0
	DefaultCurrency = "INR"
	DefaultDueDays  = 30
)

// DateLayout is the wire format of invoice dates
const DateLayout = "2006-01-02"

// Date is a calendar day serialized as YYYY-MM-DD
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day in t's location
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

// String returns the YYYY-MM-DD form
func (d Date) String() string {
	return d.Format(DateLayout)
}

// AddDays returns the date n days later
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date literal %s", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Settings holds invoice-wide configuration
type Settings struct {
	TaxRate       float64      `json:"taxRate"`
	DiscountType  DiscountType `json:"discountType"`
	Discount      float64      `json:"discount"`
	Currency      string       `json:"currency"`
	InvoiceNumber string       `json:"invoiceNumber"`
	InvoiceDate   Date         `json:"invoiceDate"`
	DueDate       Date         `json:"dueDate"`
}
