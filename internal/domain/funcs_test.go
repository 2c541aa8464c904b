package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFullName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", FullName(User{FirstName: "Ada", LastName: "Lovelace"}))
	assert.Equal(t, "Ada", FullName(User{FirstName: " Ada "}))
	assert.Equal(t, "", FullName(User{}))
}

func TestSubtotalRoundsToCents(t *testing.T) {
	price := decimal.RequireFromString("10.00")
	assert.True(t, Subtotal(price, 2).Equal(decimal.RequireFromString("20.00")))

	odd := decimal.RequireFromString("0.333")
	assert.Equal(t, "1.00", Subtotal(odd, 3).StringFixed(2))
}

func TestItemsTotalAndQuantity(t *testing.T) {
	items := []SaleItem{
		{Quantity: 2, Subtotal: decimal.RequireFromString("20.00")},
		{Quantity: 1, Subtotal: decimal.RequireFromString("4.50")},
	}
	assert.Equal(t, "24.50", ItemsTotal(items).StringFixed(2))
	assert.Equal(t, 3, ItemsQuantity(items))
}

func TestSaleStatusTransitions(t *testing.T) {
	assert.False(t, SaleCompleted.Terminal())
	assert.True(t, SaleCancelled.Terminal())
	assert.True(t, SaleRefunded.Terminal())
	assert.False(t, SaleStatus("pending").Valid())
}

func TestIsLowStock(t *testing.T) {
	rp := 5
	assert.True(t, IsLowStock(Product{Quantity: 3, ReorderPoint: &rp}))
	assert.False(t, IsLowStock(Product{Quantity: 0, ReorderPoint: &rp}))
	assert.False(t, IsLowStock(Product{Quantity: 6, ReorderPoint: &rp}))
	assert.False(t, IsLowStock(Product{Quantity: 1}))
}
