package entity

// Line item field names accepted by field-level updates
const (
	ItemFieldDescription = "description"
	ItemFieldQuantity    = "quantity"
	ItemFieldPrice       = "price"
	ItemFieldDiscount    = "discount"
	ItemFieldTaxable     = "taxable"
)

// LineItem is one billable row of an invoice
type LineItem struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
	Discount    float64 `json:"discount"`
	Taxable     bool    `json:"taxable"`
}

// NewLineItem returns an item with the documented defaults
func NewLineItem(id string) LineItem {
	return LineItem{
		ID:       id,
		Quantity: 1,
		Price:    0,
		Discount: 0,
		Taxable:  true,
	}
}

// Amount is the item's contribution to the subtotal: quantity x price - discount
func (li LineItem) Amount() float64 {
	return li.Quantity*li.Price - li.Discount
}
