package repository

import (
	"context"
	"fmt"
	"strings"

	"scanstock-backend/internal/db"
	"scanstock-backend/internal/domain"
	"github.com/jackc/pgx/v5/pgtype"
)

type ActivityLogRepository struct {
	DB *db.Postgres
}

// Create appends one activity. Inside a transaction the insert runs under a
// savepoint, so a failed insert leaves the surrounding transaction usable.
func (r ActivityLogRepository) Create(ctx context.Context, a domain.Activity) (*domain.Activity, error) {
	out := a
	err := r.DB.Savepoint(ctx, func(ctx context.Context) error {
		return r.DB.Conn(ctx).QueryRow(ctx, `
			INSERT INTO activities (user_id, type, description, entity_id, entity_type, entity_name, amount, quantity, timestamp)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8, now())
			RETURNING id, timestamp
		`, a.UserID, string(a.Type), a.Description, a.EntityID, string(a.EntityType), nullText(a.EntityName),
			a.Amount, a.Quantity).Scan(&out.ID, &out.Timestamp)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r ActivityLogRepository) List(ctx context.Context, ownerID int64, f domain.ActivityFilter) ([]domain.Activity, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	where := []string{"user_id=$1"}
	args := []any{ownerID}
	if f.Type != "" {
		args = append(args, string(f.Type))
		where = append(where, fmt.Sprintf("type=$%d", len(args)))
	}
	if f.EntityType != "" {
		args = append(args, string(f.EntityType))
		where = append(where, fmt.Sprintf("entity_type=$%d", len(args)))
	}
	if f.EntityID != nil {
		args = append(args, *f.EntityID)
		where = append(where, fmt.Sprintf("entity_id=$%d", len(args)))
	}
	args = append(args, limit)

	rows, err := r.DB.Conn(ctx).Query(ctx, `
		SELECT id, user_id, type, description, entity_id, entity_type, entity_name, amount, quantity, timestamp
		FROM activities
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY timestamp DESC, id DESC
		LIMIT $`+fmt.Sprint(len(args)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Activity
	for rows.Next() {
		var a domain.Activity
		var typ, entityType string
		var entityName pgtype.Text
		if err := rows.Scan(&a.ID, &a.UserID, &typ, &a.Description, &a.EntityID, &entityType, &entityName,
			&a.Amount, &a.Quantity, &a.Timestamp); err != nil {
			return nil, err
		}
		a.Type = domain.ActivityType(typ)
		a.EntityType = domain.EntityType(entityType)
		a.EntityName = entityName.String
		out = append(out, a)
	}
	return out, rows.Err()
}
