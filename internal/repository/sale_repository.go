package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"scanstock-backend/internal/db"
	"scanstock-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

type SaleRepository struct {
	DB *db.Postgres
}

const saleColumns = `id, user_id, total, customer_name, customer_email, customer_phone, notes,
	payment_method, status, receipt_number, created_at, updated_at`

// Create inserts the sale header. A receipt number already used by the owner
// is reported as domain.ErrConflict so the caller can retry with a new one.
func (r SaleRepository) Create(ctx context.Context, s domain.Sale) (*domain.Sale, error) {
	row := r.DB.Conn(ctx).QueryRow(ctx, `
		INSERT INTO sales (user_id, total, customer_name, customer_email, customer_phone, notes,
		                   payment_method, status, receipt_number, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, now(), now())
		ON CONFLICT (user_id, receipt_number) DO NOTHING
		RETURNING `+saleColumns,
		s.UserID, s.Total, nullText(s.CustomerName), nullText(s.CustomerEmail), nullText(s.CustomerPhone), nullText(s.Notes),
		string(s.PaymentMethod), string(s.Status), s.ReceiptNumber)
	out, err := scanSale(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("receipt number %s already used: %w", s.ReceiptNumber, domain.ErrConflict)
		}
		return nil, err
	}
	return out, nil
}

func (r SaleRepository) AddItem(ctx context.Context, it domain.SaleItem) (*domain.SaleItem, error) {
	out := it
	err := r.DB.Conn(ctx).QueryRow(ctx, `
		INSERT INTO sale_items (sale_id, product_id, quantity, price, subtotal, product_name, product_barcode)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id
	`, it.SaleID, it.ProductID, it.Quantity, it.Price, it.Subtotal, nullText(it.ProductName), nullText(it.ProductBarcode)).Scan(&out.ID)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r SaleRepository) Get(ctx context.Context, ownerID, id int64) (*domain.Sale, error) {
	return r.get(ctx, `
		SELECT `+saleColumns+`
		FROM sales
		WHERE id=$1 AND user_id=$2
	`, ownerID, id)
}

// GetForUpdate locks the sale row until the surrounding transaction ends, so
// concurrent status transitions on the same sale serialize.
func (r SaleRepository) GetForUpdate(ctx context.Context, ownerID, id int64) (*domain.Sale, error) {
	return r.get(ctx, `
		SELECT `+saleColumns+`
		FROM sales
		WHERE id=$1 AND user_id=$2
		FOR UPDATE
	`, ownerID, id)
}

func (r SaleRepository) get(ctx context.Context, query string, ownerID, id int64) (*domain.Sale, error) {
	s, err := scanSale(r.DB.Conn(ctx).QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	items, err := r.itemsFor(ctx, []int64{s.ID})
	if err != nil {
		return nil, err
	}
	s.Items = items[s.ID]
	return s, nil
}

// List returns the owner's sales newest first, each with its items.
func (r SaleRepository) List(ctx context.Context, ownerID int64, f domain.SaleFilter) ([]domain.Sale, error) {
	where := []string{"user_id=$1"}
	args := []any{ownerID}
	if f.Start != nil {
		args = append(args, *f.Start)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if f.End != nil {
		args = append(args, *f.End)
		where = append(where, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	rows, err := r.DB.Conn(ctx).Query(ctx, `
		SELECT `+saleColumns+`
		FROM sales
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY created_at DESC, id DESC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []domain.Sale
	var ids []int64
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		ids = append(ids, s.ID)
		sales = append(sales, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return sales, nil
	}

	itemsBySale, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range sales {
		sales[i].Items = itemsBySale[sales[i].ID]
	}
	return sales, nil
}

// Update persists the mutable header fields: notes, payment method and status.
func (r SaleRepository) Update(ctx context.Context, s domain.Sale) (*domain.Sale, error) {
	ct, err := r.DB.Conn(ctx).Exec(ctx, `
		UPDATE sales
		SET notes=$1, payment_method=$2, status=$3, updated_at=now()
		WHERE id=$4 AND user_id=$5
	`, nullText(s.Notes), string(s.PaymentMethod), string(s.Status), s.ID, s.UserID)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, s.UserID, s.ID)
}

func (r SaleRepository) Statistics(ctx context.Context, ownerID int64, start, end *time.Time) (domain.SaleStatistics, error) {
	var st domain.SaleStatistics
	err := r.DB.Conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total), 0)
		FROM sales
		WHERE user_id=$1
		  AND status=$2
		  AND ($3::timestamptz IS NULL OR created_at >= $3)
		  AND ($4::timestamptz IS NULL OR created_at <= $4)
	`, ownerID, string(domain.SaleCompleted), start, end).Scan(&st.TotalSales, &st.TotalRevenue)
	if err != nil {
		return st, err
	}
	st.TotalRevenue = st.TotalRevenue.Round(2)
	return st, nil
}

func (r SaleRepository) itemsFor(ctx context.Context, saleIDs []int64) (map[int64][]domain.SaleItem, error) {
	rows, err := r.DB.Conn(ctx).Query(ctx, `
		SELECT id, sale_id, product_id, quantity, price, subtotal, product_name, product_barcode
		FROM sale_items
		WHERE sale_id = ANY($1)
		ORDER BY id ASC
	`, saleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]domain.SaleItem)
	for rows.Next() {
		var it domain.SaleItem
		var productID pgtype.Int8
		var name, barcode pgtype.Text
		if err := rows.Scan(&it.ID, &it.SaleID, &productID, &it.Quantity, &it.Price, &it.Subtotal, &name, &barcode); err != nil {
			return nil, err
		}
		if productID.Valid {
			pid := productID.Int64
			it.ProductID = &pid
		}
		it.ProductName = name.String
		it.ProductBarcode = barcode.String
		out[it.SaleID] = append(out[it.SaleID], it)
	}
	return out, rows.Err()
}

func scanSale(row interface {
	Scan(dest ...any) error
}) (*domain.Sale, error) {
	var s domain.Sale
	var total decimal.Decimal
	var method, status string
	var customerName, customerEmail, customerPhone, notes pgtype.Text
	if err := row.Scan(
		&s.ID, &s.UserID, &total, &customerName, &customerEmail, &customerPhone, &notes,
		&method, &status, &s.ReceiptNumber, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	s.Total = total
	s.CustomerName = customerName.String
	s.CustomerEmail = customerEmail.String
	s.CustomerPhone = customerPhone.String
	s.Notes = notes.String
	s.PaymentMethod = domain.PaymentMethod(method)
	s.Status = domain.SaleStatus(status)
	return &s, nil
}

func nullText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
