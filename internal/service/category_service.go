package service

import (
	"context"
	"fmt"
	"strings"

	"scanstock-backend/internal/domain"
	"scanstock-backend/internal/ports"
)

type CategoryService struct {
	Categories ports.CategoryStore
}

type CategoryInput struct {
	Name        *string
	Color       *string
	Description *string
}

func (s CategoryService) Create(ctx context.Context, ownerID int64, in CategoryInput) (*domain.Category, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, fmt.Errorf("name is required: %w", domain.ErrValidation)
	}
	c := domain.Category{UserID: ownerID, Name: strings.TrimSpace(*in.Name)}
	if in.Color != nil {
		c.Color = *in.Color
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	return s.Categories.Create(ctx, c)
}

func (s CategoryService) FindAll(ctx context.Context, ownerID int64) ([]domain.Category, error) {
	return s.Categories.List(ctx, ownerID)
}

func (s CategoryService) FindOne(ctx context.Context, ownerID, id int64) (*domain.Category, error) {
	return s.Categories.Get(ctx, ownerID, id)
}

func (s CategoryService) Update(ctx context.Context, ownerID, id int64, in CategoryInput) (*domain.Category, error) {
	c, err := s.Categories.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("name cannot be empty: %w", domain.ErrValidation)
		}
		c.Name = name
	}
	if in.Color != nil {
		c.Color = *in.Color
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	out, err := s.Categories.Update(ctx, *c)
	if err != nil {
		return nil, err
	}
	out.ProductCount = c.ProductCount
	return out, nil
}

func (s CategoryService) Remove(ctx context.Context, ownerID, id int64) error {
	return s.Categories.Delete(ctx, ownerID, id)
}
