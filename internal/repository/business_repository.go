package repository

import (
	"context"
	"errors"
	"fmt"

	"scanstock-backend/internal/db"
	"scanstock-backend/internal/domain"
	"github.com/jackc/pgx/v5"
)

type BusinessRepository struct {
	DB *db.Postgres
}

const businessColumns = `id, owner_id, name, logo, address, city, state, postal_code, country, phone_number,
	website, tax_id, description, industry, custom_industry, is_active, created_at, updated_at`

func (r BusinessRepository) Create(ctx context.Context, b domain.Business) (*domain.Business, error) {
	row := r.DB.Conn(ctx).QueryRow(ctx, `
		INSERT INTO businesses (owner_id, name, logo, address, city, state, postal_code, country, phone_number,
		                        website, tax_id, description, industry, custom_industry, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15, now(), now())
		RETURNING `+businessColumns,
		b.OwnerID, b.Name, b.Logo, b.Address, b.City, b.State, b.PostalCode, b.Country, b.PhoneNumber,
		b.Website, b.TaxID, b.Description, b.Industry, b.CustomIndustry, b.IsActive)
	out, err := scanBusiness(row)
	if err != nil {
		if IsDuplicate(err) {
			return nil, fmt.Errorf("business already exists for this user: %w", domain.ErrConflict)
		}
		return nil, err
	}
	return out, nil
}

func (r BusinessRepository) GetByOwner(ctx context.Context, ownerID int64) (*domain.Business, error) {
	row := r.DB.Conn(ctx).QueryRow(ctx, `
		SELECT `+businessColumns+`
		FROM businesses
		WHERE owner_id=$1
	`, ownerID)
	out, err := scanBusiness(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

func (r BusinessRepository) Update(ctx context.Context, b domain.Business) (*domain.Business, error) {
	row := r.DB.Conn(ctx).QueryRow(ctx, `
		UPDATE businesses
		SET name=$1,
			logo=$2,
			address=$3,
			city=$4,
			state=$5,
			postal_code=$6,
			country=$7,
			phone_number=$8,
			website=$9,
			tax_id=$10,
			description=$11,
			industry=$12,
			custom_industry=$13,
			is_active=$14,
			updated_at=now()
		WHERE owner_id=$15
		RETURNING `+businessColumns,
		b.Name, b.Logo, b.Address, b.City, b.State, b.PostalCode, b.Country, b.PhoneNumber,
		b.Website, b.TaxID, b.Description, b.Industry, b.CustomIndustry, b.IsActive, b.OwnerID)
	out, err := scanBusiness(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

func (r BusinessRepository) Delete(ctx context.Context, ownerID int64) error {
	ct, err := r.DB.Conn(ctx).Exec(ctx, `DELETE FROM businesses WHERE owner_id=$1`, ownerID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanBusiness(row pgx.Row) (*domain.Business, error) {
	var b domain.Business
	if err := row.Scan(
		&b.ID, &b.OwnerID, &b.Name, &b.Logo, &b.Address, &b.City, &b.State, &b.PostalCode, &b.Country, &b.PhoneNumber,
		&b.Website, &b.TaxID, &b.Description, &b.Industry, &b.CustomIndustry, &b.IsActive, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &b, nil
}
