package entity

// Totals is the derived money view of an invoice
type Totals struct {
	Subtotal       float64 `json:"subtotal"`
	TaxAmount      float64 `json:"taxAmount"`
	DiscountAmount float64 `json:"discountAmount"`
	Total          float64 `json:"total"`
}

// Subtotal sums quantity x price - discount over items
func Subtotal(items []LineItem) float64 {
	sum := 0.0
	for _, item := range items {
		sum += item.Amount()
	}
	return sum
}

// TaxableSubtotal sums the subtotal contribution of items flagged taxable
func TaxableSubtotal(items []LineItem) float64 {
	sum := 0.0
	for _, item := range items {
		if item.Taxable {
			sum += item.Amount()
		}
	}
	return sum
}

// TaxAmount applies the settings tax rate to the taxable subtotal
func TaxAmount(items []LineItem, s Settings) float64 {
	return TaxableSubtotal(items) * (s.TaxRate / 100)
}

// DiscountAmount resolves the invoice-level discount against the subtotal
func DiscountAmount(items []LineItem, s Settings) float64 {
	if s.DiscountType == DiscountPercentage {
		return Subtotal(items) * (s.Discount / 100)
	}
	return s.Discount
}

// Total is subtotal + tax - discount. It is not clamped and may be negative.
func Total(items []LineItem, s Settings) float64 {
	return Subtotal(items) + TaxAmount(items, s) - DiscountAmount(items, s)
}

// ComputeTotals evaluates every derived figure in one pass over the same inputs
func ComputeTotals(items []LineItem, s Settings) Totals {
	return Totals{
		Subtotal:       Subtotal(items),
		TaxAmount:      TaxAmount(items, s),
		DiscountAmount: DiscountAmount(items, s),
		Total:          Total(items, s),
	}
}
