package repository

import (
	"context"
	"errors"

	"scanstock-backend/internal/db"
	"scanstock-backend/internal/domain"
	"github.com/jackc/pgx/v5"
)

type AppUpdateRepository struct {
	DB *db.Postgres
}

const appUpdateColumns = `id, version, min_version, android_url, ios_url, release_notes, force_update, is_active, created_at, updated_at`

func (r AppUpdateRepository) Create(ctx context.Context, u domain.AppUpdate) (*domain.AppUpdate, error) {
	row := r.DB.Conn(ctx).QueryRow(ctx, `
		INSERT INTO app_updates (version, min_version, android_url, ios_url, release_notes, force_update, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7, now(), now())
		RETURNING `+appUpdateColumns,
		u.Version, u.MinVersion, u.AndroidURL, u.IOSURL, u.ReleaseNotes, u.ForceUpdate, u.IsActive)
	return scanAppUpdate(row)
}

func (r AppUpdateRepository) List(ctx context.Context) ([]domain.AppUpdate, error) {
	rows, err := r.DB.Conn(ctx).Query(ctx, `
		SELECT `+appUpdateColumns+`
		FROM app_updates
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.AppUpdate
	for rows.Next() {
		u, err := scanAppUpdate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// Latest returns the newest active update.
func (r AppUpdateRepository) Latest(ctx context.Context) (*domain.AppUpdate, error) {
	row := r.DB.Conn(ctx).QueryRow(ctx, `
		SELECT `+appUpdateColumns+`
		FROM app_updates
		WHERE is_active
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`)
	u, err := scanAppUpdate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r AppUpdateRepository) Get(ctx context.Context, id int64) (*domain.AppUpdate, error) {
	row := r.DB.Conn(ctx).QueryRow(ctx, `SELECT `+appUpdateColumns+` FROM app_updates WHERE id=$1`, id)
	u, err := scanAppUpdate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r AppUpdateRepository) Update(ctx context.Context, u domain.AppUpdate) (*domain.AppUpdate, error) {
	row := r.DB.Conn(ctx).QueryRow(ctx, `
		UPDATE app_updates
		SET version=$1, min_version=$2, android_url=$3, ios_url=$4, release_notes=$5,
		    force_update=$6, is_active=$7, updated_at=now()
		WHERE id=$8
		RETURNING `+appUpdateColumns,
		u.Version, u.MinVersion, u.AndroidURL, u.IOSURL, u.ReleaseNotes, u.ForceUpdate, u.IsActive, u.ID)
	out, err := scanAppUpdate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

func scanAppUpdate(row interface {
	Scan(dest ...any) error
}) (*domain.AppUpdate, error) {
	var u domain.AppUpdate
	if err := row.Scan(&u.ID, &u.Version, &u.MinVersion, &u.AndroidURL, &u.IOSURL, &u.ReleaseNotes,
		&u.ForceUpdate, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
