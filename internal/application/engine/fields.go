package engine

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/garyjia/invoxis/internal/domain/entity"
	"github.com/spf13/cast"
)

func applyItemField(item *entity.LineItem, field string, value interface{}) error {
	switch field {
	case entity.ItemFieldDescription:
		s, err := cast.ToStringE(value)
		if err != nil {
			return fmt.Errorf("%w for %s: %v", ErrInvalidValue, field, err)
		}
		item.Description = s
	case entity.ItemFieldQuantity:
		n, err := toNumber(field, value)
		if err != nil {
			return err
		}
		item.Quantity = n
	case entity.ItemFieldPrice:
		n, err := toNumber(field, value)
		if err != nil {
			return err
		}
		item.Price = n
	case entity.ItemFieldDiscount:
		n, err := toNumber(field, value)
		if err != nil {
			return err
		}
		item.Discount = n
	case entity.ItemFieldTaxable:
		b, err := cast.ToBoolE(value)
		if err != nil {
			return fmt.Errorf("%w for %s: %v", ErrInvalidValue, field, err)
		}
		item.Taxable = b
	default:
		return fmt.Errorf("%w: line item has no field %q", ErrUnknownField, field)
	}
	return nil
}

func applySettingsField(s *entity.Settings, field string, value interface{}) error {
	switch field {
	case entity.SettingTaxRate:
		n, err := toNumber(field, value)
		if err != nil {
			return err
		}
		s.TaxRate = n
	case entity.SettingDiscount:
		n, err := toNumber(field, value)
		if err != nil {
			return err
		}
		s.Discount = n
	case entity.SettingDiscountType:
		str, err := cast.ToStringE(value)
		if err != nil || !entity.DiscountType(str).IsValid() {
			return fmt.Errorf("%w for %s: %v", ErrInvalidValue, field, value)
		}
		s.DiscountType = entity.DiscountType(str)
	case entity.SettingCurrency:
		str, err := cast.ToStringE(value)
		if err != nil {
			return fmt.Errorf("%w for %s: %v", ErrInvalidValue, field, err)
		}
		s.Currency = str
	case entity.SettingInvoiceNumber:
		str, err := cast.ToStringE(value)
		if err != nil || str == "" {
			return fmt.Errorf("%w for %s: %v", ErrInvalidValue, field, value)
		}
		s.InvoiceNumber = str
	case entity.SettingInvoiceDate:
		d, err := toDate(field, value)
		if err != nil {
			return err
		}
		s.InvoiceDate = d
	case entity.SettingDueDate:
		d, err := toDate(field, value)
		if err != nil {
			return err
		}
		s.DueDate = d
	default:
		return fmt.Errorf("%w: settings have no field %q", ErrUnknownField, field)
	}
	return nil
}

// toNumber coerces empty input to 0 and anything else through cast.
// NaN and infinities are rejected; totals derived from them cannot be encoded.
func toNumber(field string, value interface{}) (float64, error) {
	if value == nil {
		return 0, nil
	}
	if s, ok := value.(string); ok {
		if strings.TrimSpace(s) == "" {
			return 0, nil
		}
		value = strings.TrimSpace(s)
	}
	n, err := cast.ToFloat64E(value)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("%w for %s: %v", ErrInvalidNumber, field, value)
	}
	return n, nil
}

func toDate(field string, value interface{}) (entity.Date, error) {
	switch v := value.(type) {
	case entity.Date:
		return v, nil
	case time.Time:
		return entity.NewDate(v), nil
	case string:
		d, err := entity.ParseDate(v)
		if err != nil {
			return entity.Date{}, fmt.Errorf("%w for %s: %v", ErrInvalidValue, field, err)
		}
		return d, nil
	}
	return entity.Date{}, fmt.Errorf("%w for %s: %v", ErrInvalidValue, field, value)
}
