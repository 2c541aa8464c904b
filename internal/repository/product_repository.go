package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"scanstock-backend/internal/db"
	"scanstock-backend/internal/domain"
	"github.com/jackc/pgx/v5"
)

type ProductRepository struct {
	DB *db.Postgres
}

const productSelect = `
	SELECT p.id, p.user_id, p.category_id, COALESCE(c.name, ''), p.name, p.price, p.cost_price,
	       p.barcode, p.sku, p.description, p.image_url, p.quantity, p.reorder_point,
	       p.is_active, p.is_favorite, p.created_at, p.updated_at
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id`

func (r ProductRepository) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	var id int64
	err := r.DB.Conn(ctx).QueryRow(ctx, `
		INSERT INTO products (user_id, category_id, name, price, cost_price, barcode, sku, description,
		                      image_url, quantity, reorder_point, is_active, is_favorite, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13, now(), now())
		RETURNING id
	`, p.UserID, p.CategoryID, p.Name, p.Price, p.CostPrice, p.Barcode, p.SKU, p.Description,
		p.ImageURL, p.Quantity, p.ReorderPoint, p.IsActive, p.IsFavorite).Scan(&id)
	if err != nil {
		if IsDuplicate(err) {
			return nil, fmt.Errorf("product with this barcode already exists: %w", domain.ErrConflict)
		}
		return nil, err
	}
	return r.Get(ctx, p.UserID, id)
}

func (r ProductRepository) List(ctx context.Context, ownerID int64, f domain.ProductFilter) ([]domain.Product, error) {
	where := []string{"p.user_id=$1"}
	args := []any{ownerID}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.CategoryID != nil {
		add("p.category_id=$%d", *f.CategoryID)
	}
	if f.FavoritesOnly {
		where = append(where, "p.is_favorite")
	}
	if f.ActiveOnly || f.LowStock || f.OutOfStock {
		where = append(where, "p.is_active")
	}
	if f.LowStock {
		where = append(where, "p.reorder_point IS NOT NULL AND p.quantity > 0 AND p.quantity <= p.reorder_point")
	}
	if f.OutOfStock {
		where = append(where, "p.quantity = 0")
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(p.name ILIKE $%d OR p.barcode ILIKE $%d OR p.sku ILIKE $%d)", n, n, n))
	}

	order := "p.name ASC, p.id ASC"
	if f.LowStock {
		order = "p.quantity ASC, p.name ASC"
	}
	rows, err := r.DB.Conn(ctx).Query(ctx, productSelect+`
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY `+order, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r ProductRepository) Get(ctx context.Context, ownerID, id int64) (*domain.Product, error) {
	row := r.DB.Conn(ctx).QueryRow(ctx, productSelect+`
		WHERE p.id=$1 AND p.user_id=$2
	`, id, ownerID)
	return scanProductOrNotFound(row)
}

// GetForUpdate locks the product row until the surrounding transaction ends.
func (r ProductRepository) GetForUpdate(ctx context.Context, ownerID, id int64) (*domain.Product, error) {
	row := r.DB.Conn(ctx).QueryRow(ctx, productSelect+`
		WHERE p.id=$1 AND p.user_id=$2
		FOR UPDATE OF p
	`, id, ownerID)
	return scanProductOrNotFound(row)
}

func (r ProductRepository) GetByBarcode(ctx context.Context, ownerID int64, barcode string) (*domain.Product, error) {
	row := r.DB.Conn(ctx).QueryRow(ctx, productSelect+`
		WHERE p.barcode=$1 AND p.user_id=$2
	`, barcode, ownerID)
	return scanProductOrNotFound(row)
}

func (r ProductRepository) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	ct, err := r.DB.Conn(ctx).Exec(ctx, `
		UPDATE products
		SET category_id=$1,
			name=$2,
			price=$3,
			cost_price=$4,
			barcode=$5,
			sku=$6,
			description=$7,
			image_url=$8,
			quantity=$9,
			reorder_point=$10,
			is_active=$11,
			is_favorite=$12,
			updated_at=now()
		WHERE id=$13 AND user_id=$14
	`, p.CategoryID, p.Name, p.Price, p.CostPrice, p.Barcode, p.SKU, p.Description, p.ImageURL,
		p.Quantity, p.ReorderPoint, p.IsActive, p.IsFavorite, p.ID, p.UserID)
	if err != nil {
		if IsDuplicate(err) {
			return nil, fmt.Errorf("product with this barcode already exists: %w", domain.ErrConflict)
		}
		if db.IsCheckViolation(err) {
			return nil, fmt.Errorf("quantity cannot be negative: %w", domain.ErrValidation)
		}
		return nil, err
	}
	if ct.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, p.UserID, p.ID)
}

func (r ProductRepository) Delete(ctx context.Context, ownerID, id int64) error {
	ct, err := r.DB.Conn(ctx).Exec(ctx, `DELETE FROM products WHERE id=$1 AND user_id=$2`, id, ownerID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AdjustQuantity adds delta to the stored quantity. The update is guarded so
// the quantity never drops below zero; a refused decrement is a conflict.
func (r ProductRepository) AdjustQuantity(ctx context.Context, ownerID, id int64, delta int) (*domain.Product, error) {
	ct, err := r.DB.Conn(ctx).Exec(ctx, `
		UPDATE products
		SET quantity = quantity + $1, updated_at=now()
		WHERE id=$2 AND user_id=$3 AND quantity + $1 >= 0
	`, delta, id, ownerID)
	if err != nil {
		if db.IsCheckViolation(err) {
			return nil, fmt.Errorf("not enough stock available: %w", domain.ErrConflict)
		}
		return nil, err
	}
	if ct.RowsAffected() == 0 {
		if _, err := r.Get(ctx, ownerID, id); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("not enough stock available: %w", domain.ErrConflict)
	}
	return r.Get(ctx, ownerID, id)
}

func (r ProductRepository) Stats(ctx context.Context, ownerID int64) (domain.ProductStats, error) {
	var s domain.ProductStats
	err := r.DB.Conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE reorder_point IS NOT NULL AND quantity > 0 AND quantity <= reorder_point),
		       COUNT(*) FILTER (WHERE quantity = 0),
		       COALESCE(SUM(quantity), 0),
		       COALESCE(SUM(price * quantity), 0)
		FROM products
		WHERE user_id=$1 AND is_active
	`, ownerID).Scan(&s.TotalProducts, &s.LowStockCount, &s.OutOfStockCount, &s.TotalStock, &s.TotalValue)
	if err != nil {
		return s, err
	}
	s.TotalValue = s.TotalValue.Round(2)
	return s, nil
}

func scanProductOrNotFound(row pgx.Row) (*domain.Product, error) {
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func scanProduct(row interface {
	Scan(dest ...any) error
}) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.CategoryID,
		&p.CategoryName,
		&p.Name,
		&p.Price,
		&p.CostPrice,
		&p.Barcode,
		&p.SKU,
		&p.Description,
		&p.ImageURL,
		&p.Quantity,
		&p.ReorderPoint,
		&p.IsActive,
		&p.IsFavorite,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
