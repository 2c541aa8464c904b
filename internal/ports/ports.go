package ports

import (
	"context"
	"io"
	"time"

	"scanstock-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// HealthChecker is used to probe dependencies.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// TxRunner runs fn as one atomic unit of work: every store call made with
// the derived context commits or rolls back together.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ActivityLogger appends domain events. It is best-effort: a persistence
// failure is logged and swallowed, and the returned activity is nil.
type ActivityLogger interface {
	Log(ctx context.Context, ownerID int64, entry ActivityEntry) *domain.Activity
}

// ActivityEntry is one event to append to the activity log.
type ActivityEntry struct {
	Type        domain.ActivityType
	Description string
	EntityID    int64
	EntityType  domain.EntityType
	EntityName  string
	Amount      *decimal.Decimal
	Quantity    *int
}

type UserStore interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, u domain.User) (*domain.User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
	UpdateProfilePicture(ctx context.Context, id int64, url string) error
	Delete(ctx context.Context, id int64) error
}

type BusinessStore interface {
	Create(ctx context.Context, b domain.Business) (*domain.Business, error)
	GetByOwner(ctx context.Context, ownerID int64) (*domain.Business, error)
	Update(ctx context.Context, b domain.Business) (*domain.Business, error)
	Delete(ctx context.Context, ownerID int64) error
}

type CategoryStore interface {
	Create(ctx context.Context, c domain.Category) (*domain.Category, error)
	List(ctx context.Context, ownerID int64) ([]domain.Category, error)
	Get(ctx context.Context, ownerID, id int64) (*domain.Category, error)
	Update(ctx context.Context, c domain.Category) (*domain.Category, error)
	Delete(ctx context.Context, ownerID, id int64) error
}

type ProductStore interface {
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	List(ctx context.Context, ownerID int64, f domain.ProductFilter) ([]domain.Product, error)
	Get(ctx context.Context, ownerID, id int64) (*domain.Product, error)
	// GetForUpdate locks the row for the rest of the unit of work.
	GetForUpdate(ctx context.Context, ownerID, id int64) (*domain.Product, error)
	GetByBarcode(ctx context.Context, ownerID int64, barcode string) (*domain.Product, error)
	Update(ctx context.Context, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, ownerID, id int64) error
	// AdjustQuantity applies delta and returns domain.ErrConflict when the
	// result would be negative.
	AdjustQuantity(ctx context.Context, ownerID, id int64, delta int) (*domain.Product, error)
	Stats(ctx context.Context, ownerID int64) (domain.ProductStats, error)
}

type SaleStore interface {
	// Create inserts the sale row only. A receipt-number collision returns domain.ErrConflict.
	Create(ctx context.Context, s domain.Sale) (*domain.Sale, error)
	AddItem(ctx context.Context, it domain.SaleItem) (*domain.SaleItem, error)
	Get(ctx context.Context, ownerID, id int64) (*domain.Sale, error)
	// GetForUpdate locks the sale row for the rest of the unit of work.
	GetForUpdate(ctx context.Context, ownerID, id int64) (*domain.Sale, error)
	List(ctx context.Context, ownerID int64, f domain.SaleFilter) ([]domain.Sale, error)
	Update(ctx context.Context, s domain.Sale) (*domain.Sale, error)
	Statistics(ctx context.Context, ownerID int64, start, end *time.Time) (domain.SaleStatistics, error)
}

type ActivityStore interface {
	Create(ctx context.Context, a domain.Activity) (*domain.Activity, error)
	List(ctx context.Context, ownerID int64, f domain.ActivityFilter) ([]domain.Activity, error)
}

type AppUpdateStore interface {
	Create(ctx context.Context, u domain.AppUpdate) (*domain.AppUpdate, error)
	List(ctx context.Context) ([]domain.AppUpdate, error)
	Latest(ctx context.Context) (*domain.AppUpdate, error)
	Get(ctx context.Context, id int64) (*domain.AppUpdate, error)
	Update(ctx context.Context, u domain.AppUpdate) (*domain.AppUpdate, error)
}

// ObjectStorage stores uploaded files and resolves their public URLs.
type ObjectStorage interface {
	Upload(ctx context.Context, path string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, publicURL string) error
	PublicURL(path string) string
}
