package handler

import (
	"encoding/json"
	"time"

	"scanstock-backend/internal/domain"
	"github.com/shopspring/decimal"
)

func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func userJSON(u domain.User) map[string]any {
	return map[string]any{
		"id":              u.ID,
		"firstName":       u.FirstName,
		"lastName":        u.LastName,
		"fullName":        domain.FullName(u),
		"email":           u.Email,
		"profilePicture":  u.ProfilePicture,
		"isEmailVerified": u.IsEmailVerified,
		"isActive":        u.IsActive,
		"createdAt":       timestamp(u.CreatedAt),
		"updatedAt":       timestamp(u.UpdatedAt),
	}
}

func businessJSON(b domain.Business) map[string]any {
	return map[string]any{
		"id":             b.ID,
		"ownerId":        b.OwnerID,
		"name":           b.Name,
		"logo":           b.Logo,
		"address":        b.Address,
		"city":           b.City,
		"state":          b.State,
		"postalCode":     b.PostalCode,
		"country":        b.Country,
		"phoneNumber":    b.PhoneNumber,
		"website":        b.Website,
		"taxId":          b.TaxID,
		"description":    b.Description,
		"industry":       b.Industry,
		"customIndustry": b.CustomIndustry,
		"isActive":       b.IsActive,
		"createdAt":      timestamp(b.CreatedAt),
		"updatedAt":      timestamp(b.UpdatedAt),
	}
}

func categoryJSON(c domain.Category) map[string]any {
	return map[string]any{
		"id":           c.ID,
		"name":         c.Name,
		"color":        c.Color,
		"description":  c.Description,
		"productCount": c.ProductCount,
		"createdAt":    timestamp(c.CreatedAt),
		"updatedAt":    timestamp(c.UpdatedAt),
	}
}

func productJSON(p domain.Product) map[string]any {
	out := map[string]any{
		"id":           p.ID,
		"categoryId":   p.CategoryID,
		"categoryName": p.CategoryName,
		"name":         p.Name,
		"price":        money(p.Price),
		"costPrice":    nil,
		"barcode":      p.Barcode,
		"sku":          p.SKU,
		"description":  p.Description,
		"imageUrl":     p.ImageURL,
		"quantity":     p.Quantity,
		"reorderPoint": p.ReorderPoint,
		"isActive":     p.IsActive,
		"isFavorite":   p.IsFavorite,
		"isLowStock":   domain.IsLowStock(p),
		"createdAt":    timestamp(p.CreatedAt),
		"updatedAt":    timestamp(p.UpdatedAt),
	}
	if p.CostPrice.Valid {
		out["costPrice"] = money(p.CostPrice.Decimal)
	}
	return out
}

func productsJSON(items []domain.Product) []map[string]any {
	resp := make([]map[string]any, 0, len(items))
	for _, p := range items {
		resp = append(resp, productJSON(p))
	}
	return resp
}

func saleJSON(s domain.Sale) map[string]any {
	items := make([]map[string]any, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, map[string]any{
			"id":             it.ID,
			"productId":      it.ProductID,
			"productName":    it.ProductName,
			"productBarcode": it.ProductBarcode,
			"quantity":       it.Quantity,
			"price":          money(it.Price),
			"subtotal":       money(it.Subtotal),
		})
	}
	return map[string]any{
		"id":            s.ID,
		"receiptNumber": s.ReceiptNumber,
		"total":         money(s.Total),
		"customerName":  s.CustomerName,
		"customerEmail": s.CustomerEmail,
		"customerPhone": s.CustomerPhone,
		"notes":         s.Notes,
		"paymentMethod": string(s.PaymentMethod),
		"status":        string(s.Status),
		"items":         items,
		"createdAt":     timestamp(s.CreatedAt),
		"updatedAt":     timestamp(s.UpdatedAt),
	}
}

func activityJSON(a domain.Activity) map[string]any {
	out := map[string]any{
		"id":          a.ID,
		"type":        string(a.Type),
		"description": a.Description,
		"entityId":    a.EntityID,
		"entityType":  string(a.EntityType),
		"entityName":  a.EntityName,
		"amount":      nil,
		"quantity":    a.Quantity,
		"timestamp":   timestamp(a.Timestamp),
	}
	if a.Amount.Valid {
		out["amount"] = money(a.Amount.Decimal)
	}
	return out
}

func appUpdateJSON(u domain.AppUpdate) map[string]any {
	return map[string]any{
		"id":           u.ID,
		"version":      u.Version,
		"minVersion":   u.MinVersion,
		"androidUrl":   u.AndroidURL,
		"iosUrl":       u.IOSURL,
		"releaseNotes": u.ReleaseNotes,
		"forceUpdate":  u.ForceUpdate,
		"isActive":     u.IsActive,
		"createdAt":    timestamp(u.CreatedAt),
		"updatedAt":    timestamp(u.UpdatedAt),
	}
}
