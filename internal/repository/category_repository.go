package repository

import (
	"context"
	"errors"

	"scanstock-backend/internal/db"
	"scanstock-backend/internal/domain"
	"github.com/jackc/pgx/v5"
)

type CategoryRepository struct {
	DB *db.Postgres
}

func (r CategoryRepository) List(ctx context.Context, ownerID int64) ([]domain.Category, error) {
	rows, err := r.DB.Conn(ctx).Query(ctx, `
		SELECT c.id, c.user_id, c.name, c.color, c.description, c.created_at, c.updated_at,
		       (SELECT COUNT(*) FROM products p WHERE p.category_id = c.id) AS product_count
		FROM categories c
		WHERE c.user_id=$1
		ORDER BY c.name ASC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Color, &c.Description, &c.CreatedAt, &c.UpdatedAt, &c.ProductCount); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r CategoryRepository) Create(ctx context.Context, c domain.Category) (*domain.Category, error) {
	out := domain.Category{UserID: c.UserID}
	err := r.DB.Conn(ctx).QueryRow(ctx, `
		INSERT INTO categories (user_id, name, color, description, created_at, updated_at)
		VALUES ($1,$2,$3,$4, now(), now())
		RETURNING id, name, color, description, created_at, updated_at
	`, c.UserID, c.Name, c.Color, c.Description).Scan(&out.ID, &out.Name, &out.Color, &out.Description, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r CategoryRepository) Update(ctx context.Context, c domain.Category) (*domain.Category, error) {
	out := domain.Category{UserID: c.UserID}
	err := r.DB.Conn(ctx).QueryRow(ctx, `
		UPDATE categories
		SET name=$1, color=$2, description=$3, updated_at=now()
		WHERE id=$4 AND user_id=$5
		RETURNING id, name, color, description, created_at, updated_at
	`, c.Name, c.Color, c.Description, c.ID, c.UserID).Scan(&out.ID, &out.Name, &out.Color, &out.Description, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (r CategoryRepository) Delete(ctx context.Context, ownerID int64, id int64) error {
	ct, err := r.DB.Conn(ctx).Exec(ctx, `DELETE FROM categories WHERE id=$1 AND user_id=$2`, id, ownerID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r CategoryRepository) Get(ctx context.Context, ownerID int64, id int64) (*domain.Category, error) {
	row := r.DB.Conn(ctx).QueryRow(ctx, `
		SELECT c.id, c.user_id, c.name, c.color, c.description, c.created_at, c.updated_at,
		       (SELECT COUNT(*) FROM products p WHERE p.category_id = c.id) AS product_count
		FROM categories c
		WHERE c.id=$1 AND c.user_id=$2
	`, id, ownerID)
	var c domain.Category
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Color, &c.Description, &c.CreatedAt, &c.UpdatedAt, &c.ProductCount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
