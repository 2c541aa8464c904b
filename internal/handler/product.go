package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"scanstock-backend/internal/domain"
	"scanstock-backend/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type ProductHandler struct {
	Service *service.ProductService
}

func (h ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/stats", h.stats)
		r.Get("/low-stock", h.lowStock)
		r.Get("/out-of-stock", h.outOfStock)
		r.Get("/favorites", h.favorites)
		r.Get("/search", h.search)
		r.Get("/category/{categoryId}", h.byCategory)
		r.Get("/barcode/{barcode}", h.byBarcode)
		r.Get("/{id}", h.get)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Patch("/{id}/favorite", h.toggleFavorite)
		r.Patch("/{id}/stock/increase", h.increaseStock)
		r.Patch("/{id}/stock/decrease", h.decreaseStock)
	})
}

func (h ProductHandler) create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req struct {
		CategoryID   *int64           `json:"categoryId"`
		Name         string           `json:"name"`
		Price        decimal.Decimal  `json:"price"`
		CostPrice    *decimal.Decimal `json:"costPrice"`
		Barcode      string           `json:"barcode"`
		SKU          string           `json:"sku"`
		Description  string           `json:"description"`
		ImageURL     string           `json:"imageUrl"`
		Quantity     int              `json:"quantity"`
		ReorderPoint *int             `json:"reorderPoint"`
		IsActive     *bool            `json:"isActive"`
		IsFavorite   bool             `json:"isFavorite"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	p, err := h.Service.Create(r.Context(), user.ID, service.ProductInput{
		CategoryID:   req.CategoryID,
		Name:         req.Name,
		Price:        req.Price,
		CostPrice:    req.CostPrice,
		Barcode:      req.Barcode,
		SKU:          req.SKU,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		Quantity:     req.Quantity,
		ReorderPoint: req.ReorderPoint,
		IsActive:     req.IsActive,
		IsFavorite:   req.IsFavorite,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, productJSON(*p))
}

func (h ProductHandler) list(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.Service.FindAll)
}

func (h ProductHandler) lowStock(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.Service.LowStock)
}

func (h ProductHandler) outOfStock(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.Service.OutOfStock)
}

func (h ProductHandler) favorites(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.Service.Favorites)
}

func (h ProductHandler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	h.writeList(w, r, func(ctx context.Context, ownerID int64) ([]domain.Product, error) {
		return h.Service.Search(ctx, ownerID, q)
	})
}

func (h ProductHandler) byCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := pathID(w, r, "categoryId")
	if !ok {
		return
	}
	h.writeList(w, r, func(ctx context.Context, ownerID int64) ([]domain.Product, error) {
		return h.Service.ByCategory(ctx, ownerID, categoryID)
	})
}

func (h ProductHandler) writeList(w http.ResponseWriter, r *http.Request, fetch func(context.Context, int64) ([]domain.Product, error)) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	items, err := fetch(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productsJSON(items))
}

func (h ProductHandler) stats(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	st, err := h.Service.Stats(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"totalProducts":   st.TotalProducts,
		"lowStockCount":   st.LowStockCount,
		"outOfStockCount": st.OutOfStockCount,
		"totalStock":      st.TotalStock,
		"totalValue":      money(st.TotalValue),
	})
}

func (h ProductHandler) get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.Service.FindOne(r.Context(), user.ID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productJSON(*p))
}

func (h ProductHandler) byBarcode(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	p, err := h.Service.FindByBarcode(r.Context(), user.ID, chi.URLParam(r, "barcode"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productJSON(*p))
}

func (h ProductHandler) update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		CategoryID   json.RawMessage  `json:"categoryId"`
		Name         *string          `json:"name"`
		Price        *decimal.Decimal `json:"price"`
		CostPrice    *decimal.Decimal `json:"costPrice"`
		Barcode      *string          `json:"barcode"`
		SKU          *string          `json:"sku"`
		Description  *string          `json:"description"`
		ImageURL     *string          `json:"imageUrl"`
		Quantity     *int             `json:"quantity"`
		ReorderPoint *int             `json:"reorderPoint"`
		IsActive     *bool            `json:"isActive"`
		IsFavorite   *bool            `json:"isFavorite"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	patch := service.ProductPatch{
		Name:         req.Name,
		Price:        req.Price,
		CostPrice:    req.CostPrice,
		Barcode:      req.Barcode,
		SKU:          req.SKU,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		Quantity:     req.Quantity,
		ReorderPoint: req.ReorderPoint,
		IsActive:     req.IsActive,
		IsFavorite:   req.IsFavorite,
	}
	// An explicit null detaches the product from its category.
	switch {
	case len(req.CategoryID) == 0:
	case bytes.Equal(req.CategoryID, []byte("null")):
		patch.ClearCategory = true
	default:
		var categoryID int64
		if err := json.Unmarshal(req.CategoryID, &categoryID); err != nil {
			writeError(w, http.StatusBadRequest, "invalid categoryId")
			return
		}
		patch.CategoryID = &categoryID
	}
	p, err := h.Service.Update(r.Context(), user.ID, id, patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productJSON(*p))
}

func (h ProductHandler) delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.Remove(r.Context(), user.ID, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "product deleted", nil)
}

func (h ProductHandler) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.Service.ToggleFavorite(r.Context(), user.ID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productJSON(*p))
}

func (h ProductHandler) increaseStock(w http.ResponseWriter, r *http.Request) {
	h.adjustStock(w, r, h.Service.IncreaseStock)
}

func (h ProductHandler) decreaseStock(w http.ResponseWriter, r *http.Request) {
	h.adjustStock(w, r, h.Service.DecreaseStock)
}

func (h ProductHandler) adjustStock(w http.ResponseWriter, r *http.Request, apply func(context.Context, int64, int64, int) (*domain.Product, error)) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	qty, ok := stockQuantity(w, r)
	if !ok {
		return
	}
	p, err := apply(r.Context(), user.ID, id, qty)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productJSON(*p))
}

// stockQuantity reads ?quantity=, defaulting to one unit.
func stockQuantity(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("quantity")
	if raw == "" {
		return 1, true
	}
	qty, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "quantity must be an integer")
		return 0, false
	}
	return qty, true
}
