package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"scanstock-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// memDB is an in-memory store whose InTx snapshots every table and restores
// it when fn fails, mirroring a database rollback.
type memDB struct {
	mu           sync.Mutex
	nextID       int64
	clock        time.Time
	users        map[int64]domain.User
	businesses   map[int64]domain.Business
	categories   map[int64]domain.Category
	products     map[int64]domain.Product
	sales        map[int64]domain.Sale
	items        map[int64]domain.SaleItem
	activities   []domain.Activity
	updates      map[int64]domain.AppUpdate
	failActivity bool
}

type memTxKey struct{}

func newMemDB() *memDB {
	return &memDB{
		clock:      time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		users:      map[int64]domain.User{},
		businesses: map[int64]domain.Business{},
		categories: map[int64]domain.Category{},
		products:   map[int64]domain.Product{},
		sales:      map[int64]domain.Sale{},
		items:      map[int64]domain.SaleItem{},
		updates:    map[int64]domain.AppUpdate{},
	}
}

func (m *memDB) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memDB) now() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

type memSnapshot struct {
	nextID     int64
	users      map[int64]domain.User
	businesses map[int64]domain.Business
	categories map[int64]domain.Category
	products   map[int64]domain.Product
	sales      map[int64]domain.Sale
	items      map[int64]domain.SaleItem
	activities []domain.Activity
	updates    map[int64]domain.AppUpdate
}

func (m *memDB) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memSnapshot{
		nextID:     m.nextID,
		users:      maps.Clone(m.users),
		businesses: maps.Clone(m.businesses),
		categories: maps.Clone(m.categories),
		products:   maps.Clone(m.products),
		sales:      maps.Clone(m.sales),
		items:      maps.Clone(m.items),
		activities: append([]domain.Activity(nil), m.activities...),
		updates:    maps.Clone(m.updates),
	}
}

func (m *memDB) restore(s memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID = s.nextID
	m.users = s.users
	m.businesses = s.businesses
	m.categories = s.categories
	m.products = s.products
	m.sales = s.sales
	m.items = s.items
	m.activities = s.activities
	m.updates = s.updates
}

func (m *memDB) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}
	snap := m.snapshot()
	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

// ---- users

type memUsers struct{ db *memDB }

func (s memUsers) Create(_ context.Context, u domain.User) (*domain.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u.Email = strings.ToLower(u.Email)
	for _, existing := range s.db.users {
		if existing.Email == u.Email {
			return nil, fmt.Errorf("email already in use: %w", domain.ErrConflict)
		}
	}
	u.ID = s.db.id()
	u.IsActive = true
	u.CreatedAt = s.db.now()
	u.UpdatedAt = u.CreatedAt
	s.db.users[u.ID] = u
	return &u, nil
}

func (s memUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (s memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s memUsers) Update(_ context.Context, u domain.User) (*domain.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[u.ID]; !ok {
		return nil, domain.ErrNotFound
	}
	for _, existing := range s.db.users {
		if existing.ID != u.ID && strings.EqualFold(existing.Email, u.Email) {
			return nil, fmt.Errorf("a user with this email already exists: %w", domain.ErrConflict)
		}
	}
	u.UpdatedAt = s.db.now()
	s.db.users[u.ID] = u
	return &u, nil
}

func (s memUsers) UpdatePassword(_ context.Context, id int64, hash string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordHash = &hash
	s.db.users[id] = u
	return nil
}

func (s memUsers) UpdateProfilePicture(_ context.Context, id int64, url string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.ProfilePicture = url
	s.db.users[id] = u
	return nil
}

func (s memUsers) Delete(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.db.users, id)
	return nil
}

// ---- businesses

type memBusinesses struct{ db *memDB }

func (s memBusinesses) Create(_ context.Context, b domain.Business) (*domain.Business, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.businesses[b.OwnerID]; ok {
		return nil, domain.ErrConflict
	}
	b.ID = s.db.id()
	b.CreatedAt = s.db.now()
	b.UpdatedAt = b.CreatedAt
	s.db.businesses[b.OwnerID] = b
	return &b, nil
}

func (s memBusinesses) GetByOwner(_ context.Context, ownerID int64) (*domain.Business, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	b, ok := s.db.businesses[ownerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

func (s memBusinesses) Update(_ context.Context, b domain.Business) (*domain.Business, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.businesses[b.OwnerID]; !ok {
		return nil, domain.ErrNotFound
	}
	b.UpdatedAt = s.db.now()
	s.db.businesses[b.OwnerID] = b
	return &b, nil
}

func (s memBusinesses) Delete(_ context.Context, ownerID int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.businesses[ownerID]; !ok {
		return domain.ErrNotFound
	}
	delete(s.db.businesses, ownerID)
	return nil
}

// ---- categories

type memCategories struct{ db *memDB }

func (s memCategories) Create(_ context.Context, c domain.Category) (*domain.Category, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c.ID = s.db.id()
	c.CreatedAt = s.db.now()
	c.UpdatedAt = c.CreatedAt
	s.db.categories[c.ID] = c
	return &c, nil
}

func (s memCategories) List(_ context.Context, ownerID int64) ([]domain.Category, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []domain.Category
	for _, c := range s.db.categories {
		if c.UserID == ownerID {
			c.ProductCount = s.db.countProducts(c.ID)
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s memCategories) Get(_ context.Context, ownerID, id int64) (*domain.Category, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.categories[id]
	if !ok || c.UserID != ownerID {
		return nil, domain.ErrNotFound
	}
	c.ProductCount = s.db.countProducts(c.ID)
	return &c, nil
}

func (s memCategories) Update(_ context.Context, c domain.Category) (*domain.Category, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	existing, ok := s.db.categories[c.ID]
	if !ok || existing.UserID != c.UserID {
		return nil, domain.ErrNotFound
	}
	c.UpdatedAt = s.db.now()
	s.db.categories[c.ID] = c
	return &c, nil
}

func (s memCategories) Delete(_ context.Context, ownerID, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.categories[id]
	if !ok || c.UserID != ownerID {
		return domain.ErrNotFound
	}
	delete(s.db.categories, id)
	for pid, p := range s.db.products {
		if p.CategoryID != nil && *p.CategoryID == id {
			p.CategoryID = nil
			s.db.products[pid] = p
		}
	}
	return nil
}

func (m *memDB) countProducts(categoryID int64) int {
	n := 0
	for _, p := range m.products {
		if p.CategoryID != nil && *p.CategoryID == categoryID {
			n++
		}
	}
	return n
}

// ---- products

type memProducts struct{ db *memDB }

func (s memProducts) Create(_ context.Context, p domain.Product) (*domain.Product, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.products {
		if existing.UserID == p.UserID && existing.Barcode == p.Barcode {
			return nil, fmt.Errorf("product with this barcode already exists: %w", domain.ErrConflict)
		}
	}
	p.ID = s.db.id()
	p.CreatedAt = s.db.now()
	p.UpdatedAt = p.CreatedAt
	s.db.products[p.ID] = p
	return &p, nil
}

func (s memProducts) List(_ context.Context, ownerID int64, f domain.ProductFilter) ([]domain.Product, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	q := strings.ToLower(f.Search)
	var out []domain.Product
	for _, p := range s.db.products {
		switch {
		case p.UserID != ownerID:
			continue
		case f.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *f.CategoryID):
			continue
		case f.FavoritesOnly && !p.IsFavorite:
			continue
		case (f.ActiveOnly || f.LowStock || f.OutOfStock) && !p.IsActive:
			continue
		case f.LowStock && !domain.IsLowStock(p):
			continue
		case f.OutOfStock && p.Quantity != 0:
			continue
		case q != "" && !strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Barcode), q) &&
			!strings.Contains(strings.ToLower(p.SKU), q):
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s memProducts) Get(_ context.Context, ownerID, id int64) (*domain.Product, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.products[id]
	if !ok || p.UserID != ownerID {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (s memProducts) GetForUpdate(ctx context.Context, ownerID, id int64) (*domain.Product, error) {
	return s.Get(ctx, ownerID, id)
}

func (s memProducts) GetByBarcode(_ context.Context, ownerID int64, barcode string) (*domain.Product, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, p := range s.db.products {
		if p.UserID == ownerID && p.Barcode == barcode {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s memProducts) Update(_ context.Context, p domain.Product) (*domain.Product, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	existing, ok := s.db.products[p.ID]
	if !ok || existing.UserID != p.UserID {
		return nil, domain.ErrNotFound
	}
	for _, other := range s.db.products {
		if other.ID != p.ID && other.UserID == p.UserID && other.Barcode == p.Barcode {
			return nil, domain.ErrConflict
		}
	}
	p.UpdatedAt = s.db.now()
	s.db.products[p.ID] = p
	return &p, nil
}

func (s memProducts) Delete(_ context.Context, ownerID, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.products[id]
	if !ok || p.UserID != ownerID {
		return domain.ErrNotFound
	}
	delete(s.db.products, id)
	for iid, it := range s.db.items {
		if it.ProductID != nil && *it.ProductID == id {
			it.ProductID = nil
			s.db.items[iid] = it
		}
	}
	return nil
}

func (s memProducts) AdjustQuantity(_ context.Context, ownerID, id int64, delta int) (*domain.Product, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.products[id]
	if !ok || p.UserID != ownerID {
		return nil, domain.ErrNotFound
	}
	if p.Quantity+delta < 0 {
		return nil, fmt.Errorf("not enough stock available: %w", domain.ErrConflict)
	}
	p.Quantity += delta
	p.UpdatedAt = s.db.now()
	s.db.products[id] = p
	return &p, nil
}

func (s memProducts) Stats(_ context.Context, ownerID int64) (domain.ProductStats, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	st := domain.ProductStats{TotalValue: decimal.Zero}
	for _, p := range s.db.products {
		if p.UserID != ownerID || !p.IsActive {
			continue
		}
		st.TotalProducts++
		if domain.IsLowStock(p) {
			st.LowStockCount++
		}
		if p.Quantity == 0 {
			st.OutOfStockCount++
		}
		st.TotalStock += int64(p.Quantity)
		st.TotalValue = st.TotalValue.Add(domain.Subtotal(p.Price, p.Quantity))
	}
	return st, nil
}

// ---- sales

type memSales struct{ db *memDB }

func (s memSales) Create(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.sales {
		if existing.UserID == sale.UserID && existing.ReceiptNumber == sale.ReceiptNumber {
			return nil, fmt.Errorf("receipt number %s already used: %w", sale.ReceiptNumber, domain.ErrConflict)
		}
	}
	sale.ID = s.db.id()
	sale.Items = nil
	sale.CreatedAt = s.db.now()
	sale.UpdatedAt = sale.CreatedAt
	s.db.sales[sale.ID] = sale
	return &sale, nil
}

func (s memSales) AddItem(_ context.Context, it domain.SaleItem) (*domain.SaleItem, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.sales[it.SaleID]; !ok {
		return nil, domain.ErrNotFound
	}
	it.ID = s.db.id()
	s.db.items[it.ID] = it
	return &it, nil
}

func (s memSales) Get(_ context.Context, ownerID, id int64) (*domain.Sale, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	sale, ok := s.db.sales[id]
	if !ok || sale.UserID != ownerID {
		return nil, domain.ErrNotFound
	}
	sale.Items = s.db.itemsOf(id)
	return &sale, nil
}

func (s memSales) GetForUpdate(ctx context.Context, ownerID, id int64) (*domain.Sale, error) {
	return s.Get(ctx, ownerID, id)
}

func (m *memDB) itemsOf(saleID int64) []domain.SaleItem {
	var out []domain.SaleItem
	for _, it := range m.items {
		if it.SaleID == saleID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s memSales) List(_ context.Context, ownerID int64, f domain.SaleFilter) ([]domain.Sale, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []domain.Sale
	for _, sale := range s.db.sales {
		if sale.UserID != ownerID || !inRange(sale.CreatedAt, f.Start, f.End) {
			continue
		}
		if f.Status != "" && sale.Status != f.Status {
			continue
		}
		sale.Items = s.db.itemsOf(sale.ID)
		out = append(out, sale)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s memSales) Update(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	existing, ok := s.db.sales[sale.ID]
	if !ok || existing.UserID != sale.UserID {
		return nil, domain.ErrNotFound
	}
	existing.Notes = sale.Notes
	existing.PaymentMethod = sale.PaymentMethod
	existing.Status = sale.Status
	existing.UpdatedAt = s.db.now()
	s.db.sales[sale.ID] = existing
	existing.Items = s.db.itemsOf(sale.ID)
	return &existing, nil
}

func (s memSales) Statistics(_ context.Context, ownerID int64, start, end *time.Time) (domain.SaleStatistics, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	st := domain.SaleStatistics{TotalRevenue: decimal.Zero}
	for _, sale := range s.db.sales {
		if sale.UserID != ownerID || sale.Status != domain.SaleCompleted || !inRange(sale.CreatedAt, start, end) {
			continue
		}
		st.TotalSales++
		st.TotalRevenue = st.TotalRevenue.Add(sale.Total)
	}
	return st, nil
}

func inRange(t time.Time, start, end *time.Time) bool {
	if start != nil && t.Before(*start) {
		return false
	}
	if end != nil && t.After(*end) {
		return false
	}
	return true
}

// ---- activities

type memActivities struct{ db *memDB }

func (s memActivities) Create(_ context.Context, a domain.Activity) (*domain.Activity, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.failActivity {
		return nil, errors.New("activities table unavailable")
	}
	a.ID = s.db.id()
	a.Timestamp = s.db.now()
	s.db.activities = append(s.db.activities, a)
	return &a, nil
}

func (s memActivities) List(_ context.Context, ownerID int64, f domain.ActivityFilter) ([]domain.Activity, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []domain.Activity
	for i := len(s.db.activities) - 1; i >= 0; i-- {
		a := s.db.activities[i]
		switch {
		case a.UserID != ownerID:
			continue
		case f.Type != "" && a.Type != f.Type:
			continue
		case f.EntityType != "" && a.EntityType != f.EntityType:
			continue
		case f.EntityID != nil && a.EntityID != *f.EntityID:
			continue
		}
		out = append(out, a)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (m *memDB) activitiesOf(typ domain.ActivityType) []domain.Activity {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Activity
	for _, a := range m.activities {
		if a.Type == typ {
			out = append(out, a)
		}
	}
	return out
}

// ---- app updates

type memUpdates struct{ db *memDB }

func (s memUpdates) Create(_ context.Context, u domain.AppUpdate) (*domain.AppUpdate, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u.ID = s.db.id()
	u.CreatedAt = s.db.now()
	u.UpdatedAt = u.CreatedAt
	s.db.updates[u.ID] = u
	return &u, nil
}

func (s memUpdates) List(_ context.Context) ([]domain.AppUpdate, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []domain.AppUpdate
	for _, u := range s.db.updates {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s memUpdates) Latest(ctx context.Context) (*domain.AppUpdate, error) {
	all, _ := s.List(ctx)
	for _, u := range all {
		if u.IsActive {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s memUpdates) Get(_ context.Context, id int64) (*domain.AppUpdate, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.updates[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (s memUpdates) Update(_ context.Context, u domain.AppUpdate) (*domain.AppUpdate, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.updates[u.ID]; !ok {
		return nil, domain.ErrNotFound
	}
	u.UpdatedAt = s.db.now()
	s.db.updates[u.ID] = u
	return &u, nil
}

// ---- object storage

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	failDel bool
}

func newMemStorage() *memStorage { return &memStorage{objects: map[string][]byte{}} }

func (s *memStorage) Upload(_ context.Context, path string, r io.Reader, _ string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = b
	return s.PublicURL(path), nil
}

func (s *memStorage) Delete(_ context.Context, publicURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDel {
		return errors.New("bucket unavailable")
	}
	s.deleted = append(s.deleted, publicURL)
	delete(s.objects, strings.TrimPrefix(publicURL, "https://cdn.test/"))
	return nil
}

func (s *memStorage) PublicURL(path string) string { return "https://cdn.test/" + path }
