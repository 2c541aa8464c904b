package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"scanstock-backend/internal/domain"
	"scanstock-backend/internal/ports"
	"github.com/shopspring/decimal"
)

type ProductService struct {
	Tx         ports.TxRunner
	Products   ports.ProductStore
	Categories ports.CategoryStore
	Activity   ports.ActivityLogger
}

type ProductInput struct {
	CategoryID   *int64
	Name         string
	Price        decimal.Decimal
	CostPrice    *decimal.Decimal
	Barcode      string
	SKU          string
	Description  string
	ImageURL     string
	Quantity     int
	ReorderPoint *int
	IsActive     *bool
	IsFavorite   bool
}

// ProductPatch carries the fields of a partial update; nil fields are left untouched.
type ProductPatch struct {
	CategoryID    *int64
	ClearCategory bool
	Name          *string
	Price         *decimal.Decimal
	CostPrice     *decimal.Decimal
	Barcode       *string
	SKU           *string
	Description   *string
	ImageURL      *string
	Quantity      *int
	ReorderPoint  *int
	IsActive      *bool
	IsFavorite    *bool
}

func (s ProductService) Create(ctx context.Context, ownerID int64, in ProductInput) (*domain.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Barcode = strings.TrimSpace(in.Barcode)
	switch {
	case in.Name == "":
		return nil, fmt.Errorf("name is required: %w", domain.ErrValidation)
	case in.Barcode == "":
		return nil, fmt.Errorf("barcode is required: %w", domain.ErrValidation)
	case in.Price.IsNegative():
		return nil, fmt.Errorf("price cannot be negative: %w", domain.ErrValidation)
	case in.Quantity < 0:
		return nil, fmt.Errorf("quantity cannot be negative: %w", domain.ErrValidation)
	}
	if err := s.checkCategory(ctx, ownerID, in.CategoryID); err != nil {
		return nil, err
	}
	if _, err := s.Products.GetByBarcode(ctx, ownerID, in.Barcode); err == nil {
		return nil, fmt.Errorf("product with this barcode already exists: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	p := domain.Product{
		UserID:       ownerID,
		CategoryID:   in.CategoryID,
		Name:         in.Name,
		Price:        in.Price.Round(2),
		Barcode:      in.Barcode,
		SKU:          in.SKU,
		Description:  in.Description,
		ImageURL:     in.ImageURL,
		Quantity:     in.Quantity,
		ReorderPoint: in.ReorderPoint,
		IsActive:     true,
		IsFavorite:   in.IsFavorite,
	}
	if in.CostPrice != nil {
		p.CostPrice = decimal.NewNullDecimal(in.CostPrice.Round(2))
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}

	out, err := s.Products.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	s.Activity.Log(ctx, ownerID, ports.ActivityEntry{
		Type:        domain.ActivityProductAdded,
		Description: "Added product: " + out.Name,
		EntityID:    out.ID,
		EntityType:  domain.EntityProduct,
		EntityName:  out.Name,
		Quantity:    ptr(out.Quantity),
	})
	return out, nil
}

func (s ProductService) FindAll(ctx context.Context, ownerID int64) ([]domain.Product, error) {
	return s.Products.List(ctx, ownerID, domain.ProductFilter{})
}

func (s ProductService) FindOne(ctx context.Context, ownerID, id int64) (*domain.Product, error) {
	return s.Products.Get(ctx, ownerID, id)
}

func (s ProductService) FindByBarcode(ctx context.Context, ownerID int64, barcode string) (*domain.Product, error) {
	return s.Products.GetByBarcode(ctx, ownerID, strings.TrimSpace(barcode))
}

func (s ProductService) Update(ctx context.Context, ownerID, id int64, patch ProductPatch) (*domain.Product, error) {
	p, err := s.Products.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("name cannot be empty: %w", domain.ErrValidation)
		}
		p.Name = name
	}
	if patch.Price != nil {
		if patch.Price.IsNegative() {
			return nil, fmt.Errorf("price cannot be negative: %w", domain.ErrValidation)
		}
		p.Price = patch.Price.Round(2)
	}
	if patch.CostPrice != nil {
		p.CostPrice = decimal.NewNullDecimal(patch.CostPrice.Round(2))
	}
	if patch.Barcode != nil {
		barcode := strings.TrimSpace(*patch.Barcode)
		if barcode == "" {
			return nil, fmt.Errorf("barcode cannot be empty: %w", domain.ErrValidation)
		}
		if barcode != p.Barcode {
			existing, err := s.Products.GetByBarcode(ctx, ownerID, barcode)
			if err == nil && existing.ID != p.ID {
				return nil, fmt.Errorf("product with this barcode already exists: %w", domain.ErrConflict)
			}
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return nil, err
			}
		}
		p.Barcode = barcode
	}
	if patch.ClearCategory {
		p.CategoryID = nil
	} else if patch.CategoryID != nil {
		if err := s.checkCategory(ctx, ownerID, patch.CategoryID); err != nil {
			return nil, err
		}
		p.CategoryID = patch.CategoryID
	}
	if patch.SKU != nil {
		p.SKU = *patch.SKU
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.ImageURL != nil {
		p.ImageURL = *patch.ImageURL
	}
	if patch.Quantity != nil {
		if *patch.Quantity < 0 {
			return nil, fmt.Errorf("quantity cannot be negative: %w", domain.ErrValidation)
		}
		p.Quantity = *patch.Quantity
	}
	if patch.ReorderPoint != nil {
		p.ReorderPoint = patch.ReorderPoint
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
	if patch.IsFavorite != nil {
		p.IsFavorite = *patch.IsFavorite
	}

	out, err := s.Products.Update(ctx, *p)
	if err != nil {
		return nil, err
	}
	s.Activity.Log(ctx, ownerID, ports.ActivityEntry{
		Type:        domain.ActivityProductUpdated,
		Description: "Updated product: " + out.Name,
		EntityID:    out.ID,
		EntityType:  domain.EntityProduct,
		EntityName:  out.Name,
	})
	return out, nil
}

func (s ProductService) Remove(ctx context.Context, ownerID, id int64) error {
	p, err := s.Products.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.Products.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	s.Activity.Log(ctx, ownerID, ports.ActivityEntry{
		Type:        domain.ActivityProductUpdated,
		Description: "Deleted product: " + p.Name,
		EntityID:    p.ID,
		EntityType:  domain.EntityProduct,
		EntityName:  p.Name,
	})
	return nil
}

func (s ProductService) LowStock(ctx context.Context, ownerID int64) ([]domain.Product, error) {
	return s.Products.List(ctx, ownerID, domain.ProductFilter{LowStock: true})
}

func (s ProductService) OutOfStock(ctx context.Context, ownerID int64) ([]domain.Product, error) {
	return s.Products.List(ctx, ownerID, domain.ProductFilter{OutOfStock: true})
}

func (s ProductService) Favorites(ctx context.Context, ownerID int64) ([]domain.Product, error) {
	return s.Products.List(ctx, ownerID, domain.ProductFilter{FavoritesOnly: true})
}

func (s ProductService) ByCategory(ctx context.Context, ownerID, categoryID int64) ([]domain.Product, error) {
	return s.Products.List(ctx, ownerID, domain.ProductFilter{CategoryID: &categoryID})
}

func (s ProductService) Search(ctx context.Context, ownerID int64, q string) ([]domain.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, fmt.Errorf("search query is required: %w", domain.ErrValidation)
	}
	return s.Products.List(ctx, ownerID, domain.ProductFilter{Search: q})
}

func (s ProductService) ToggleFavorite(ctx context.Context, ownerID, id int64) (*domain.Product, error) {
	p, err := s.Products.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	p.IsFavorite = !p.IsFavorite
	return s.Products.Update(ctx, *p)
}

func (s ProductService) Stats(ctx context.Context, ownerID int64) (domain.ProductStats, error) {
	return s.Products.Stats(ctx, ownerID)
}

// DecreaseStock removes qty units. It joins the caller's unit of work when
// one is in flight, so a sale rolls the decrement back with everything else.
func (s ProductService) DecreaseStock(ctx context.Context, ownerID, productID int64, qty int) (*domain.Product, error) {
	if qty < 1 {
		return nil, fmt.Errorf("quantity must be at least 1: %w", domain.ErrValidation)
	}
	var out *domain.Product
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		p, err := s.Products.GetForUpdate(ctx, ownerID, productID)
		if err != nil {
			return err
		}
		if qty > p.Quantity {
			return fmt.Errorf("not enough stock available for %s: %w", p.Name, domain.ErrConflict)
		}
		out, err = s.Products.AdjustQuantity(ctx, ownerID, productID, -qty)
		if err != nil {
			return err
		}
		s.Activity.Log(ctx, ownerID, ports.ActivityEntry{
			Type:        domain.ActivityStockDecrease,
			Description: "Decreased stock of " + out.Name + " by " + strconv.Itoa(qty),
			EntityID:    out.ID,
			EntityType:  domain.EntityProduct,
			EntityName:  out.Name,
			Quantity:    ptr(qty),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// IncreaseStock adds qty units, joining the caller's unit of work when one is in flight.
func (s ProductService) IncreaseStock(ctx context.Context, ownerID, productID int64, qty int) (*domain.Product, error) {
	if qty < 1 {
		return nil, fmt.Errorf("quantity must be at least 1: %w", domain.ErrValidation)
	}
	var out *domain.Product
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.Products.AdjustQuantity(ctx, ownerID, productID, qty)
		if err != nil {
			return err
		}
		s.Activity.Log(ctx, ownerID, ports.ActivityEntry{
			Type:        domain.ActivityStockIncrease,
			Description: "Increased stock of " + out.Name + " by " + strconv.Itoa(qty),
			EntityID:    out.ID,
			EntityType:  domain.EntityProduct,
			EntityName:  out.Name,
			Quantity:    ptr(qty),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s ProductService) checkCategory(ctx context.Context, ownerID int64, categoryID *int64) error {
	if categoryID == nil || s.Categories == nil {
		return nil
	}
	if _, err := s.Categories.Get(ctx, ownerID, *categoryID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("category %d: %w", *categoryID, domain.ErrNotFound)
		}
		return err
	}
	return nil
}
