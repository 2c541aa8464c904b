package service

import (
	"context"
	"fmt"
	"log/slog"

	"scanstock-backend/internal/domain"
	"scanstock-backend/internal/metrics"
	"scanstock-backend/internal/ports"
	"github.com/shopspring/decimal"
)

const (
	defaultActivityLimit = 10
	maxActivityLimit     = 100
)

// ActivityService appends to and reads the per-owner activity log.
type ActivityService struct {
	Store  ports.ActivityStore
	Logger *slog.Logger
}

// Log records one event. Failures never reach the caller: they are logged,
// counted, and reported as a nil activity.
func (s ActivityService) Log(ctx context.Context, ownerID int64, e ports.ActivityEntry) *domain.Activity {
	a := domain.Activity{
		UserID:      ownerID,
		Type:        e.Type,
		Description: e.Description,
		EntityID:    e.EntityID,
		EntityType:  e.EntityType,
		EntityName:  e.EntityName,
		Quantity:    e.Quantity,
	}
	if e.Amount != nil {
		a.Amount = decimal.NewNullDecimal(e.Amount.Round(2))
	}
	out, err := s.Store.Create(ctx, a)
	if err != nil {
		metrics.ActivityLogFailures.Inc()
		s.logger().ErrorContext(ctx, "failed to record activity",
			"err", err,
			"owner_id", ownerID,
			"type", string(e.Type),
			"entity_type", string(e.EntityType),
			"entity_id", e.EntityID,
		)
		return nil
	}
	return out
}

func (s ActivityService) Recent(ctx context.Context, ownerID int64, limit int) ([]domain.Activity, error) {
	return s.Store.List(ctx, ownerID, domain.ActivityFilter{Limit: clampLimit(limit)})
}

func (s ActivityService) ForProduct(ctx context.Context, ownerID, productID int64, limit int) ([]domain.Activity, error) {
	return s.Store.List(ctx, ownerID, domain.ActivityFilter{
		EntityType: domain.EntityProduct,
		EntityID:   &productID,
		Limit:      clampLimit(limit),
	})
}

func (s ActivityService) ForSale(ctx context.Context, ownerID, saleID int64, limit int) ([]domain.Activity, error) {
	return s.Store.List(ctx, ownerID, domain.ActivityFilter{
		EntityType: domain.EntitySale,
		EntityID:   &saleID,
		Limit:      clampLimit(limit),
	})
}

func (s ActivityService) ByType(ctx context.Context, ownerID int64, typ domain.ActivityType, limit int) ([]domain.Activity, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("unknown activity type %q: %w", typ, domain.ErrValidation)
	}
	return s.Store.List(ctx, ownerID, domain.ActivityFilter{Type: typ, Limit: clampLimit(limit)})
}

func (s ActivityService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultActivityLimit
	}
	if limit > maxActivityLimit {
		return maxActivityLimit
	}
	return limit
}
