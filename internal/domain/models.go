package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Enumerations
const (
	SaleCompleted SaleStatus = "completed"
	SaleCancelled SaleStatus = "cancelled"
	SaleRefunded  SaleStatus = "refunded"

	PaymentCash  PaymentMethod = "cash"
	PaymentCard  PaymentMethod = "card"
	PaymentOther PaymentMethod = "other"

	ActivitySale           ActivityType = "sale"
	ActivityStockIncrease  ActivityType = "stock_increase"
	ActivityStockDecrease  ActivityType = "stock_decrease"
	ActivityProductAdded   ActivityType = "product_added"
	ActivityProductUpdated ActivityType = "product_updated"

	EntityProduct EntityType = "product"
	EntitySale    EntityType = "sale"
)

type SaleStatus string
type PaymentMethod string
type ActivityType string
type EntityType string

// Valid reports whether s is one of the known sale states.
func (s SaleStatus) Valid() bool {
	switch s {
	case SaleCompleted, SaleCancelled, SaleRefunded:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed out of s.
func (s SaleStatus) Terminal() bool {
	return s == SaleCancelled || s == SaleRefunded
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentOther:
		return true
	}
	return false
}

func (t ActivityType) Valid() bool {
	switch t {
	case ActivitySale, ActivityStockIncrease, ActivityStockDecrease, ActivityProductAdded, ActivityProductUpdated:
		return true
	}
	return false
}

type User struct {
	ID              int64
	FirstName       string
	LastName        string
	Email           string
	PasswordHash    *string
	ProfilePicture  string
	IsEmailVerified bool
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Business struct {
	ID             int64
	OwnerID        int64
	Name           string
	Logo           string
	Address        string
	City           string
	State          string
	PostalCode     string
	Country        string
	PhoneNumber    string
	Website        string
	TaxID          string
	Description    string
	Industry       string
	CustomIndustry string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Category struct {
	ID           int64
	UserID       int64
	Name         string
	Color        string
	Description  string
	ProductCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Product struct {
	ID           int64
	UserID       int64
	CategoryID   *int64
	CategoryName string
	Name         string
	Price        decimal.Decimal
	CostPrice    decimal.NullDecimal
	Barcode      string
	SKU          string
	Description  string
	ImageURL     string
	Quantity     int
	ReorderPoint *int
	IsActive     bool
	IsFavorite   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProductFilter narrows product listings. Zero value lists every product of the owner.
type ProductFilter struct {
	CategoryID    *int64
	FavoritesOnly bool
	LowStock      bool
	OutOfStock    bool
	ActiveOnly    bool
	Search        string
}

type ProductStats struct {
	TotalProducts   int64
	LowStockCount   int64
	OutOfStockCount int64
	TotalStock      int64
	TotalValue      decimal.Decimal
}

type Sale struct {
	ID            int64
	UserID        int64
	Total         decimal.Decimal
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Notes         string
	PaymentMethod PaymentMethod
	Status        SaleStatus
	ReceiptNumber string
	Items         []SaleItem
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type SaleItem struct {
	ID             int64
	SaleID         int64
	ProductID      *int64
	Quantity       int
	Price          decimal.Decimal
	Subtotal       decimal.Decimal
	ProductName    string
	ProductBarcode string
}

// SaleFilter bounds sale listings by creation time. Nil bounds are open.
type SaleFilter struct {
	Start  *time.Time
	End    *time.Time
	Status SaleStatus
}

type SaleStatistics struct {
	TotalSales   int64
	TotalRevenue decimal.Decimal
}

type Activity struct {
	ID          int64
	UserID      int64
	Type        ActivityType
	Description string
	EntityID    int64
	EntityType  EntityType
	EntityName  string
	Amount      decimal.NullDecimal
	Quantity    *int
	Timestamp   time.Time
}

type ActivityFilter struct {
	Type       ActivityType
	EntityType EntityType
	EntityID   *int64
	Limit      int
}

type AppUpdate struct {
	ID           int64
	Version      string
	MinVersion   string
	AndroidURL   string
	IOSURL       string
	ReleaseNotes string
	ForceUpdate  bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
