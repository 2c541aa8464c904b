package repository

import (
	"context"
	"errors"
	"fmt"

	"scanstock-backend/internal/db"
	"scanstock-backend/internal/domain"
	"github.com/jackc/pgx/v5"
)

type UserRepository struct {
	DB *db.Postgres
}

const userColumns = `id, first_name, last_name, email, password_hash, profile_picture, is_email_verified, is_active, created_at, updated_at`

func (r UserRepository) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	row := r.DB.Conn(ctx).QueryRow(ctx, `
		INSERT INTO users (first_name, last_name, email, password_hash, is_active, created_at, updated_at)
		VALUES ($1,$2,LOWER($3),$4,TRUE, now(), now())
		RETURNING `+userColumns,
		u.FirstName, u.LastName, u.Email, u.PasswordHash)
	user, err := scanUser(row)
	if err != nil {
		if IsDuplicate(err) {
			return nil, fmt.Errorf("email already in use: %w", domain.ErrConflict)
		}
		return nil, err
	}
	return user, nil
}

func (r UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.DB.Conn(ctx).QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE LOWER(email)=LOWER($1)
	`, email)
	return scanUserOrNotFound(row)
}

func (r UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.DB.Conn(ctx).QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id=$1
	`, id)
	return scanUserOrNotFound(row)
}

func (r UserRepository) Update(ctx context.Context, u domain.User) (*domain.User, error) {
	row := r.DB.Conn(ctx).QueryRow(ctx, `
		UPDATE users
		SET first_name=$1,
			last_name=$2,
			email=LOWER($3),
			is_active=$4,
			updated_at=now()
		WHERE id=$5
		RETURNING `+userColumns,
		u.FirstName, u.LastName, u.Email, u.IsActive, u.ID)
	user, err := scanUserOrNotFound(row)
	if err != nil {
		if IsDuplicate(err) {
			return nil, fmt.Errorf("a user with this email already exists: %w", domain.ErrConflict)
		}
		return nil, err
	}
	return user, nil
}

func (r UserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	ct, err := r.DB.Conn(ctx).Exec(ctx, `UPDATE users SET password_hash=$1, updated_at=now() WHERE id=$2`, hash, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r UserRepository) UpdateProfilePicture(ctx context.Context, id int64, url string) error {
	ct, err := r.DB.Conn(ctx).Exec(ctx, `UPDATE users SET profile_picture=$1, updated_at=now() WHERE id=$2`, url, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r UserRepository) Delete(ctx context.Context, id int64) error {
	ct, err := r.DB.Conn(ctx).Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUserOrNotFound(row pgx.Row) (*domain.User, error) {
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.PasswordHash,
		&u.ProfilePicture,
		&u.IsEmailVerified,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}
