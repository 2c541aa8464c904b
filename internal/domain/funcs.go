package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FullName joins first and last name, skipping empty parts.
func FullName(u User) string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

// Subtotal is price × quantity rounded to cents.
func Subtotal(price decimal.Decimal, qty int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(qty))).Round(2)
}

// ItemsTotal sums the subtotals of items.
func ItemsTotal(items []SaleItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Subtotal)
	}
	return sum
}

// ItemsQuantity sums the quantities of items.
func ItemsQuantity(items []SaleItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// IsLowStock reports 0 < quantity <= reorder point.
func IsLowStock(p Product) bool {
	if p.ReorderPoint == nil {
		return false
	}
	return p.Quantity > 0 && p.Quantity <= *p.ReorderPoint
}
