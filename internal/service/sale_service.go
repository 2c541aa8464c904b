package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"scanstock-backend/internal/domain"
	"scanstock-backend/internal/metrics"
	"scanstock-backend/internal/ports"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const receiptAttempts = 5

type SaleService struct {
	Tx       ports.TxRunner
	Sales    ports.SaleStore
	Products ports.ProductStore
	Stock    ProductService
	Activity ports.ActivityLogger
	// NewReceiptNumber overrides the receipt generator; nil uses NewReceiptNumber.
	NewReceiptNumber func() string
}

type SaleItemInput struct {
	ProductID int64
	Quantity  int
	Price     decimal.Decimal
}

type CreateSaleInput struct {
	Items         []SaleItemInput
	Total         decimal.Decimal
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Notes         string
	PaymentMethod domain.PaymentMethod
}

type UpdateSaleInput struct {
	Notes         *string
	PaymentMethod *domain.PaymentMethod
	Status        *domain.SaleStatus
}

// NewReceiptNumber builds "REC-<unix millis>-<4 hex chars>".
func NewReceiptNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
	return fmt.Sprintf("REC-%d-%s", time.Now().UnixMilli(), suffix)
}

// Create records a sale and decrements stock for every item as one unit of
// work. Any failure rolls back the sale, its items, the stock changes and the
// activity entries.
func (s SaleService) Create(ctx context.Context, ownerID int64, in CreateSaleInput) (*domain.Sale, error) {
	if err := validateSale(&in); err != nil {
		return nil, err
	}

	var saleID int64
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		sale, err := s.insertSale(ctx, domain.Sale{
			UserID:        ownerID,
			Total:         in.Total.Round(2),
			CustomerName:  strings.TrimSpace(in.CustomerName),
			CustomerEmail: strings.TrimSpace(in.CustomerEmail),
			CustomerPhone: strings.TrimSpace(in.CustomerPhone),
			Notes:         in.Notes,
			PaymentMethod: in.PaymentMethod,
			Status:        domain.SaleCompleted,
		})
		if err != nil {
			return err
		}
		saleID = sale.ID

		products, err := s.lockProducts(ctx, ownerID, in.Items)
		if err != nil {
			return err
		}

		totalQty := 0
		for _, item := range in.Items {
			product := products[item.ProductID]
			pid := product.ID
			if _, err := s.Sales.AddItem(ctx, domain.SaleItem{
				SaleID:         sale.ID,
				ProductID:      &pid,
				Quantity:       item.Quantity,
				Price:          item.Price.Round(2),
				Subtotal:       domain.Subtotal(item.Price.Round(2), item.Quantity),
				ProductName:    product.Name,
				ProductBarcode: product.Barcode,
			}); err != nil {
				return err
			}
			if _, err := s.Stock.DecreaseStock(ctx, ownerID, product.ID, item.Quantity); err != nil {
				return err
			}
			totalQty += item.Quantity
		}

		total := sale.Total
		s.Activity.Log(ctx, ownerID, ports.ActivityEntry{
			Type:        domain.ActivitySale,
			Description: fmt.Sprintf("Sale %s: %d item(s), %d unit(s), total %s", sale.ReceiptNumber, len(in.Items), totalQty, total.StringFixed(2)),
			EntityID:    sale.ID,
			EntityType:  domain.EntitySale,
			EntityName:  sale.ReceiptNumber,
			Amount:      &total,
			Quantity:    ptr(totalQty),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.SalesTotal.WithLabelValues(string(domain.SaleCompleted)).Inc()
	return s.Sales.Get(ctx, ownerID, saleID)
}

// lockProducts locks every product the sale touches in ascending id order, so
// two sales over the same products cannot deadlock on each other's rows.
func (s SaleService) lockProducts(ctx context.Context, ownerID int64, items []SaleItemInput) (map[int64]*domain.Product, error) {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	slices.Sort(ids)
	ids = slices.Compact(ids)

	out := make(map[int64]*domain.Product, len(ids))
	for _, id := range ids {
		p, err := s.Products.GetForUpdate(ctx, ownerID, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
			}
			return nil, err
		}
		out[id] = p
	}
	return out, nil
}

// insertSale retries with a fresh receipt number when the owner already has it.
func (s SaleService) insertSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	gen := s.NewReceiptNumber
	if gen == nil {
		gen = NewReceiptNumber
	}
	var err error
	for range receiptAttempts {
		sale.ReceiptNumber = gen()
		var out *domain.Sale
		out, err = s.Sales.Create(ctx, sale)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("could not allocate a unique receipt number: %w", err)
}

func (s SaleService) FindAll(ctx context.Context, ownerID int64, f domain.SaleFilter) ([]domain.Sale, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", f.Status, domain.ErrValidation)
	}
	return s.Sales.List(ctx, ownerID, f)
}

func (s SaleService) FindOne(ctx context.Context, ownerID, id int64) (*domain.Sale, error) {
	return s.Sales.Get(ctx, ownerID, id)
}

// Update edits notes, payment method or status of a completed sale. It has no
// inventory side effects. The sale row stays locked from the status check to
// the write, so a concurrent cancel or refund cannot be overwritten.
func (s SaleService) Update(ctx context.Context, ownerID, id int64, in UpdateSaleInput) (*domain.Sale, error) {
	if in.PaymentMethod != nil && !in.PaymentMethod.Valid() {
		return nil, fmt.Errorf("unknown payment method %q: %w", *in.PaymentMethod, domain.ErrValidation)
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", *in.Status, domain.ErrValidation)
	}

	var out *domain.Sale
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		sale, err := s.Sales.GetForUpdate(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if sale.Status != domain.SaleCompleted {
			return fmt.Errorf("cannot update a %s sale: %w", sale.Status, domain.ErrInvalidState)
		}
		if in.Notes != nil {
			sale.Notes = *in.Notes
		}
		if in.PaymentMethod != nil {
			sale.PaymentMethod = *in.PaymentMethod
		}
		if in.Status != nil {
			sale.Status = *in.Status
		}

		out, err = s.Sales.Update(ctx, *sale)
		if err != nil {
			return err
		}
		total := out.Total
		s.Activity.Log(ctx, ownerID, ports.ActivityEntry{
			Type:        domain.ActivitySale,
			Description: "Updated sale " + out.ReceiptNumber,
			EntityID:    out.ID,
			EntityType:  domain.EntitySale,
			EntityName:  out.ReceiptNumber,
			Amount:      &total,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s SaleService) Cancel(ctx context.Context, ownerID, id int64) (*domain.Sale, error) {
	return s.reverse(ctx, ownerID, id, domain.SaleCancelled)
}

func (s SaleService) Refund(ctx context.Context, ownerID, id int64) (*domain.Sale, error) {
	return s.reverse(ctx, ownerID, id, domain.SaleRefunded)
}

// reverse moves a completed sale to a terminal status and puts every item
// whose product still exists back into stock.
func (s SaleService) reverse(ctx context.Context, ownerID, id int64, to domain.SaleStatus) (*domain.Sale, error) {
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		sale, err := s.Sales.GetForUpdate(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if sale.Status != domain.SaleCompleted {
			return fmt.Errorf("only completed sales can be %s: %w", to, domain.ErrInvalidState)
		}

		sale.Status = to
		if _, err := s.Sales.Update(ctx, *sale); err != nil {
			return err
		}
		for _, item := range sale.Items {
			if item.ProductID == nil {
				continue
			}
			if _, err := s.Stock.IncreaseStock(ctx, ownerID, *item.ProductID, item.Quantity); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					continue
				}
				return err
			}
		}

		total := sale.Total
		verb := "Cancelled"
		if to == domain.SaleRefunded {
			verb = "Refunded"
		}
		s.Activity.Log(ctx, ownerID, ports.ActivityEntry{
			Type:        domain.ActivitySale,
			Description: fmt.Sprintf("%s sale %s", verb, sale.ReceiptNumber),
			EntityID:    sale.ID,
			EntityType:  domain.EntitySale,
			EntityName:  sale.ReceiptNumber,
			Amount:      &total,
			Quantity:    ptr(domain.ItemsQuantity(sale.Items)),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.SalesTotal.WithLabelValues(string(to)).Inc()
	return s.Sales.Get(ctx, ownerID, id)
}

func (s SaleService) Statistics(ctx context.Context, ownerID int64, start, end *time.Time) (domain.SaleStatistics, error) {
	if start != nil && end != nil && end.Before(*start) {
		return domain.SaleStatistics{}, fmt.Errorf("end must not be before start: %w", domain.ErrValidation)
	}
	return s.Sales.Statistics(ctx, ownerID, start, end)
}

func validateSale(in *CreateSaleInput) error {
	if len(in.Items) == 0 {
		return fmt.Errorf("sale must contain at least one item: %w", domain.ErrValidation)
	}
	for i, it := range in.Items {
		if it.Quantity < 1 {
			return fmt.Errorf("item %d: quantity must be at least 1: %w", i, domain.ErrValidation)
		}
		if it.Price.IsNegative() {
			return fmt.Errorf("item %d: price cannot be negative: %w", i, domain.ErrValidation)
		}
	}
	if in.Total.IsNegative() {
		return fmt.Errorf("total cannot be negative: %w", domain.ErrValidation)
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = domain.PaymentCash
	}
	if !in.PaymentMethod.Valid() {
		return fmt.Errorf("unknown payment method %q: %w", in.PaymentMethod, domain.ErrValidation)
	}
	return nil
}
