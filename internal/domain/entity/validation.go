package entity

import "github.com/garyjia/invoxis/pkg/utils"

// Validation messages
const (
	MsgAddressRequired   = "Address is required"
	MsgEmailRequired     = "Email is required"
	MsgEmailInvalid      = "Email is invalid"
	MsgPhoneRequired     = "Phone number is required"
	MsgPhoneDigits       = "Phone number must be 10 digits"
	MsgPinCodeRequired   = "PIN code is required"
	MsgItemsRequired     = "At least one invoice item is required"
	MsgDescriptionNeeded = "Description is required"
	MsgQuantityPositive  = "Quantity must be greater than 0"
	MsgPriceNegative     = "Price cannot be negative"
)

// NameRequiredMessage returns the role-specific "name is required" message
func NameRequiredMessage(role PartyRole) string {
	return role.Label() + " name is required"
}

// PartyErrors mirrors Party fields; an empty string means the field is valid
type PartyErrors struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	PinCode string `json:"pinCode,omitempty"`
}

// Empty reports whether no field produced a message
func (pe PartyErrors) Empty() bool {
	return pe == PartyErrors{}
}

// ItemErrors mirrors LineItem fields. General is only set on the single entry
// reported for an empty collection.
type ItemErrors struct {
	General     string `json:"general,omitempty"`
	Description string `json:"description,omitempty"`
	Quantity    string `json:"quantity,omitempty"`
	Price       string `json:"price,omitempty"`
}

// Empty reports whether no field produced a message
func (ie ItemErrors) Empty() bool {
	return ie == ItemErrors{}
}

// ValidationErrors is the recomputed view of every validation message
type ValidationErrors struct {
	Issuer    PartyErrors  `json:"issuer"`
	Recipient PartyErrors  `json:"recipient"`
	Items     []ItemErrors `json:"items"`
}

// Clone returns a deep copy
func (ve ValidationErrors) Clone() ValidationErrors {
	out := ve
	if ve.Items != nil {
		out.Items = make([]ItemErrors, len(ve.Items))
		copy(out.Items, ve.Items)
	}
	return out
}

// ValidateParty applies the party rules field by field. Each field reports at
// most one message, the first failing rule in order.
func ValidateParty(role PartyRole, p Party) PartyErrors {
	var errs PartyErrors

	if p.Name == "" {
		errs.Name = NameRequiredMessage(role)
	}
	if p.Address == "" {
		errs.Address = MsgAddressRequired
	}

	if p.Email == "" {
		errs.Email = MsgEmailRequired
	} else if !utils.IsEmailShape(p.Email) {
		errs.Email = MsgEmailInvalid
	}

	if p.Phone == "" {
		errs.Phone = MsgPhoneRequired
	} else if !utils.IsTenDigitPhone(p.Phone) {
		errs.Phone = MsgPhoneDigits
	}

	if p.RequiresPinCode() && p.PinCode == "" {
		errs.PinCode = MsgPinCodeRequired
	}

	return errs
}

// ValidateItems applies the line item rules. An empty collection yields exactly
// one general error and no per-item entries.
func ValidateItems(items []LineItem) ([]ItemErrors, bool) {
	if len(items) == 0 {
		return []ItemErrors{{General: MsgItemsRequired}}, false
	}

	out := make([]ItemErrors, len(items))
	valid := true
	for i, item := range items {
		if item.Description == "" {
			out[i].Description = MsgDescriptionNeeded
		}
		if item.Quantity <= 0 {
			out[i].Quantity = MsgQuantityPositive
		}
		if item.Price < 0 {
			out[i].Price = MsgPriceNegative
		}
		if !out[i].Empty() {
			valid = false
		}
	}
	return out, valid
}
