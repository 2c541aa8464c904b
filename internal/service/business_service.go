package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"scanstock-backend/internal/domain"
	"scanstock-backend/internal/ports"
)

type BusinessService struct {
	Businesses ports.BusinessStore
}

// BusinessInput is shared by create and update; nil fields are left untouched on update.
type BusinessInput struct {
	Name           *string
	Logo           *string
	Address        *string
	City           *string
	State          *string
	PostalCode     *string
	Country        *string
	PhoneNumber    *string
	Website        *string
	TaxID          *string
	Description    *string
	Industry       *string
	CustomIndustry *string
	IsActive       *bool
}

func (s BusinessService) Create(ctx context.Context, ownerID int64, in BusinessInput) (*domain.Business, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, fmt.Errorf("name is required: %w", domain.ErrValidation)
	}
	if _, err := s.Businesses.GetByOwner(ctx, ownerID); err == nil {
		return nil, fmt.Errorf("business already exists for this user: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	b := domain.Business{OwnerID: ownerID, IsActive: true}
	applyBusiness(&b, in)
	return s.Businesses.Create(ctx, b)
}

func (s BusinessService) FindByOwner(ctx context.Context, ownerID int64) (*domain.Business, error) {
	b, err := s.Businesses.GetByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("business not found for user %d: %w", ownerID, domain.ErrNotFound)
		}
		return nil, err
	}
	return b, nil
}

func (s BusinessService) Update(ctx context.Context, ownerID int64, in BusinessInput) (*domain.Business, error) {
	b, err := s.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, fmt.Errorf("name cannot be empty: %w", domain.ErrValidation)
	}
	applyBusiness(b, in)
	return s.Businesses.Update(ctx, *b)
}

func (s BusinessService) Remove(ctx context.Context, ownerID int64) error {
	if _, err := s.FindByOwner(ctx, ownerID); err != nil {
		return err
	}
	return s.Businesses.Delete(ctx, ownerID)
}

func applyBusiness(b *domain.Business, in BusinessInput) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&b.Name, in.Name)
	set(&b.Logo, in.Logo)
	set(&b.Address, in.Address)
	set(&b.City, in.City)
	set(&b.State, in.State)
	set(&b.PostalCode, in.PostalCode)
	set(&b.Country, in.Country)
	set(&b.PhoneNumber, in.PhoneNumber)
	set(&b.Website, in.Website)
	set(&b.TaxID, in.TaxID)
	set(&b.Description, in.Description)
	set(&b.Industry, in.Industry)
	set(&b.CustomIndustry, in.CustomIndustry)
	if in.IsActive != nil {
		b.IsActive = *in.IsActive
	}
}
