package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name     string
		items    []LineItem
		settings Settings
		want     Totals
	}{
		{
			name:     "no items",
			settings: Settings{TaxRate: 18, DiscountType: DiscountPercentage, Discount: 10},
			want:     Totals{},
		},
		{
			name:     "percentage discount",
			items:    []LineItem{{Quantity: 2, Price: 50, Discount: 10, Taxable: true}},
			settings: Settings{TaxRate: 18, DiscountType: DiscountPercentage, Discount: 10},
			want:     Totals{Subtotal: 90, TaxAmount: 16.2, DiscountAmount: 9, Total: 97.2},
		},
		{
			name:     "fixed discount",
			items:    []LineItem{{Quantity: 4, Price: 25, Taxable: true}},
			settings: Settings{TaxRate: 10, DiscountType: DiscountFixed, Discount: 15},
			want:     Totals{Subtotal: 100, TaxAmount: 10, DiscountAmount: 15, Total: 95},
		},
		{
			name: "non taxable items are not taxed",
			items: []LineItem{
				{Quantity: 1, Price: 100, Taxable: true},
				{Quantity: 1, Price: 100, Taxable: false},
			},
			settings: Settings{TaxRate: 5, DiscountType: DiscountFixed},
			want:     Totals{Subtotal: 200, TaxAmount: 5, DiscountAmount: 0, Total: 205},
		},
		{
			name:     "total may go negative",
			items:    []LineItem{{Quantity: 1, Price: 10, Taxable: true}},
			settings: Settings{DiscountType: DiscountFixed, Discount: 30},
			want:     Totals{Subtotal: 10, DiscountAmount: 30, Total: -20},
		},
		{
			name:     "item discount larger than amount",
			items:    []LineItem{{Quantity: 1, Price: 5, Discount: 8, Taxable: false}},
			settings: Settings{DiscountType: DiscountFixed},
			want:     Totals{Subtotal: -3, Total: -3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotals(tt.items, tt.settings)

			assert.InDelta(t, tt.want.Subtotal, got.Subtotal, 1e-9)
			assert.InDelta(t, tt.want.TaxAmount, got.TaxAmount, 1e-9)
			assert.InDelta(t, tt.want.DiscountAmount, got.DiscountAmount, 1e-9)
			assert.InDelta(t, tt.want.Total, got.Total, 1e-9)
			assert.Equal(t, got.Subtotal+got.TaxAmount-got.DiscountAmount, got.Total)
		})
	}
}

func TestLineItemDefaults(t *testing.T) {
	item := NewLineItem("x")
	assert.Equal(t, 1.0, item.Quantity)
	assert.True(t, item.Taxable)
	assert.Equal(t, 0.0, item.Amount())
}
