package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"scanstock-backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	db       *memDB
	activity ActivityService
	products ProductService
	sales    SaleService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newMemDB()
	activity := ActivityService{Store: memActivities{db}, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	products := ProductService{Tx: db, Products: memProducts{db}, Categories: memCategories{db}, Activity: activity}
	seq := 0
	sales := SaleService{
		Tx:       db,
		Sales:    memSales{db},
		Products: memProducts{db},
		Stock:    products,
		Activity: activity,
		NewReceiptNumber: func() string {
			seq++
			return fmt.Sprintf("REC-TEST-%d", seq)
		},
	}
	return &testEnv{db: db, activity: activity, products: products, sales: sales}
}

func (e *testEnv) product(t *testing.T, owner int64, barcode string, qty int, price string) *domain.Product {
	t.Helper()
	p, err := memProducts{e.db}.Create(context.Background(), domain.Product{
		UserID:   owner,
		Name:     "Product " + barcode,
		Barcode:  barcode,
		Price:    decimal.RequireFromString(price),
		Quantity: qty,
		IsActive: true,
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) quantity(t *testing.T, owner, id int64) int {
	t.Helper()
	p, err := memProducts{e.db}.Get(context.Background(), owner, id)
	require.NoError(t, err)
	return p.Quantity
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

const owner = int64(1000)

func TestSaleService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("decrements stock and records one sale activity", func(t *testing.T) {
		env := newTestEnv(t)
		p := env.product(t, owner, "111", 5, "10.00")

		sale, err := env.sales.Create(ctx, owner, CreateSaleInput{
			Items: []SaleItemInput{{ProductID: p.ID, Quantity: 2, Price: dec("10.00")}},
			Total: dec("20.00"),
		})
		require.NoError(t, err)

		assert.Equal(t, 3, env.quantity(t, owner, p.ID))
		assert.Equal(t, "20.00", sale.Total.StringFixed(2))
		assert.Equal(t, domain.SaleCompleted, sale.Status)
		assert.Equal(t, domain.PaymentCash, sale.PaymentMethod)
		require.Len(t, sale.Items, 1)
		assert.Equal(t, "20.00", sale.Items[0].Subtotal.StringFixed(2))
		assert.Equal(t, "Product 111", sale.Items[0].ProductName)
		assert.Equal(t, "111", sale.Items[0].ProductBarcode)
		assert.Len(t, env.db.activitiesOf(domain.ActivitySale), 1)
		assert.Len(t, env.db.activitiesOf(domain.ActivityStockDecrease), 1)
	})

	t.Run("uses request price and sums line items", func(t *testing.T) {
		env := newTestEnv(t)
		a := env.product(t, owner, "A", 10, "3.00")
		b := env.product(t, owner, "B", 10, "7.00")

		sale, err := env.sales.Create(ctx, owner, CreateSaleInput{
			Items: []SaleItemInput{
				{ProductID: a.ID, Quantity: 3, Price: dec("2.50")},
				{ProductID: b.ID, Quantity: 1, Price: dec("6.99")},
			},
			Total:         dec("14.49"),
			PaymentMethod: domain.PaymentCard,
			CustomerName:  " Jane ",
		})
		require.NoError(t, err)

		assert.Equal(t, "14.49", domain.ItemsTotal(sale.Items).StringFixed(2))
		assert.Equal(t, "7.50", sale.Items[0].Subtotal.StringFixed(2))
		assert.Equal(t, "Jane", sale.CustomerName)
		assert.Equal(t, 7, env.quantity(t, owner, a.ID))
		assert.Equal(t, 9, env.quantity(t, owner, b.ID))
	})

	t.Run("empty items is a validation error and writes nothing", func(t *testing.T) {
		env := newTestEnv(t)
		before := env.db.snapshot()

		_, err := env.sales.Create(ctx, owner, CreateSaleInput{Total: dec("0")})
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Equal(t, before, env.db.snapshot())
	})

	t.Run("rejects bad quantity and payment method", func(t *testing.T) {
		env := newTestEnv(t)
		p := env.product(t, owner, "111", 5, "1.00")

		_, err := env.sales.Create(ctx, owner, CreateSaleInput{Items: []SaleItemInput{{ProductID: p.ID, Quantity: 0, Price: dec("1")}}})
		assert.ErrorIs(t, err, domain.ErrValidation)

		_, err = env.sales.Create(ctx, owner, CreateSaleInput{
			Items:         []SaleItemInput{{ProductID: p.ID, Quantity: 1, Price: dec("1")}},
			PaymentMethod: "bitcoin",
		})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("insufficient stock rolls back everything", func(t *testing.T) {
		env := newTestEnv(t)
		a := env.product(t, owner, "A", 5, "1.00")
		b := env.product(t, owner, "B", 1, "1.00")
		before := env.db.snapshot()

		_, err := env.sales.Create(ctx, owner, CreateSaleInput{
			Items: []SaleItemInput{
				{ProductID: a.ID, Quantity: 2, Price: dec("1.00")},
				{ProductID: b.ID, Quantity: 3, Price: dec("1.00")},
			},
			Total: dec("5.00"),
		})
		assert.ErrorIs(t, err, domain.ErrConflict)

		assert.Equal(t, before, env.db.snapshot())
		assert.Equal(t, 5, env.quantity(t, owner, a.ID))
		assert.Equal(t, 1, env.quantity(t, owner, b.ID))
		assert.Empty(t, env.db.activities)
	})

	t.Run("unknown or foreign product is not found and rolls back", func(t *testing.T) {
		env := newTestEnv(t)
		a := env.product(t, owner, "A", 5, "1.00")
		foreign := env.product(t, owner+1, "F", 5, "1.00")
		before := env.db.snapshot()

		_, err := env.sales.Create(ctx, owner, CreateSaleInput{
			Items: []SaleItemInput{
				{ProductID: a.ID, Quantity: 1, Price: dec("1.00")},
				{ProductID: foreign.ID, Quantity: 1, Price: dec("1.00")},
			},
			Total: dec("2.00"),
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Equal(t, before, env.db.snapshot())
	})

	t.Run("activity failure does not block the sale", func(t *testing.T) {
		env := newTestEnv(t)
		p := env.product(t, owner, "A", 5, "1.00")
		env.db.failActivity = true

		sale, err := env.sales.Create(ctx, owner, CreateSaleInput{
			Items: []SaleItemInput{{ProductID: p.ID, Quantity: 1, Price: dec("1.00")}},
			Total: dec("1.00"),
		})
		require.NoError(t, err)
		assert.NotZero(t, sale.ID)
		assert.Equal(t, 4, env.quantity(t, owner, p.ID))
		assert.Empty(t, env.db.activities)
	})

	t.Run("receipt collision retries with a new number", func(t *testing.T) {
		env := newTestEnv(t)
		p := env.product(t, owner, "A", 5, "1.00")
		numbers := []string{"REC-1", "REC-1", "REC-2"}
		env.sales.NewReceiptNumber = func() string {
			n := numbers[0]
			numbers = numbers[1:]
			return n
		}
		in := CreateSaleInput{Items: []SaleItemInput{{ProductID: p.ID, Quantity: 1, Price: dec("1.00")}}, Total: dec("1.00")}

		first, err := env.sales.Create(ctx, owner, in)
		require.NoError(t, err)
		second, err := env.sales.Create(ctx, owner, in)
		require.NoError(t, err)

		assert.Equal(t, "REC-1", first.ReceiptNumber)
		assert.Equal(t, "REC-2", second.ReceiptNumber)
	})
}

// lockingProducts records the order in which product rows are locked.
type lockingProducts struct {
	memProducts
	locked *[]int64
}

func (l lockingProducts) GetForUpdate(ctx context.Context, ownerID, id int64) (*domain.Product, error) {
	*l.locked = append(*l.locked, id)
	return l.memProducts.GetForUpdate(ctx, ownerID, id)
}

// lockingSales records whether sale rows were read under a lock inside a unit of work.
type lockingSales struct {
	memSales
	lockedInTx *[]bool
}

func (l lockingSales) GetForUpdate(ctx context.Context, ownerID, id int64) (*domain.Sale, error) {
	*l.lockedInTx = append(*l.lockedInTx, ctx.Value(memTxKey{}) != nil)
	return l.memSales.GetForUpdate(ctx, ownerID, id)
}

func TestSaleService_LocksInStableOrder(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.product(t, owner, "A", 10, "1.00")
	b := env.product(t, owner, "B", 10, "1.00")

	var locked []int64
	env.sales.Products = lockingProducts{memProducts: memProducts{env.db}, locked: &locked}
	_, err := env.sales.Create(ctx, owner, CreateSaleInput{
		Items: []SaleItemInput{
			{ProductID: b.ID, Quantity: 1, Price: dec("1.00")},
			{ProductID: a.ID, Quantity: 2, Price: dec("1.00")},
			{ProductID: b.ID, Quantity: 3, Price: dec("1.00")},
		},
		Total: dec("6.00"),
	})
	require.NoError(t, err)

	assert.Equal(t, []int64{a.ID, b.ID}, locked, "each product locked once, lowest id first")
	assert.Equal(t, 8, env.quantity(t, owner, a.ID))
	assert.Equal(t, 6, env.quantity(t, owner, b.ID))
}

func TestSaleService_TransitionsLockTheSale(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.product(t, owner, "A", 5, "1.00")
	sale, err := env.sales.Create(ctx, owner, CreateSaleInput{
		Items: []SaleItemInput{{ProductID: p.ID, Quantity: 1, Price: dec("1.00")}},
		Total: dec("1.00"),
	})
	require.NoError(t, err)

	var lockedInTx []bool
	env.sales.Sales = lockingSales{memSales: memSales{env.db}, lockedInTx: &lockedInTx}

	notes := "table 4"
	_, err = env.sales.Update(ctx, owner, sale.ID, UpdateSaleInput{Notes: &notes})
	require.NoError(t, err)
	_, err = env.sales.Cancel(ctx, owner, sale.ID)
	require.NoError(t, err)
	_, err = env.sales.Refund(ctx, owner, sale.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	assert.Equal(t, []bool{true, true, true}, lockedInTx)
	assert.Equal(t, 5, env.quantity(t, owner, p.ID), "stock restored exactly once")
}

func TestSaleService_CancelAndRefund(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		name   string
		action func(SaleService, context.Context, int64, int64) (*domain.Sale, error)
		status domain.SaleStatus
	}{
		{"cancel", SaleService.Cancel, domain.SaleCancelled},
		{"refund", SaleService.Refund, domain.SaleRefunded},
	} {
		t.Run(tc.name+" restores stock", func(t *testing.T) {
			env := newTestEnv(t)
			a := env.product(t, owner, "A", 5, "2.00")
			b := env.product(t, owner, "B", 5, "3.00")
			sale, err := env.sales.Create(ctx, owner, CreateSaleInput{
				Items: []SaleItemInput{
					{ProductID: a.ID, Quantity: 2, Price: dec("2.00")},
					{ProductID: b.ID, Quantity: 4, Price: dec("3.00")},
				},
				Total: dec("16.00"),
			})
			require.NoError(t, err)

			out, err := tc.action(env.sales, ctx, owner, sale.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.status, out.Status)
			assert.Equal(t, 5, env.quantity(t, owner, a.ID))
			assert.Equal(t, 5, env.quantity(t, owner, b.ID))
			assert.Len(t, env.db.activitiesOf(domain.ActivityStockIncrease), 2)
		})

		t.Run(tc.name+" of a terminal sale fails and changes nothing", func(t *testing.T) {
			env := newTestEnv(t)
			p := env.product(t, owner, "A", 5, "2.00")
			sale, err := env.sales.Create(ctx, owner, CreateSaleInput{
				Items: []SaleItemInput{{ProductID: p.ID, Quantity: 1, Price: dec("2.00")}},
				Total: dec("2.00"),
			})
			require.NoError(t, err)
			_, err = env.sales.Cancel(ctx, owner, sale.ID)
			require.NoError(t, err)

			before := env.db.snapshot()
			saleBefore, err := env.sales.FindOne(ctx, owner, sale.ID)
			require.NoError(t, err)

			_, err = tc.action(env.sales, ctx, owner, sale.ID)
			assert.ErrorIs(t, err, domain.ErrInvalidState)

			saleAfter, err := env.sales.FindOne(ctx, owner, sale.ID)
			require.NoError(t, err)
			assert.Equal(t, saleBefore, saleAfter)
			assert.Equal(t, before, env.db.snapshot())
		})
	}

	t.Run("skips items whose product was deleted", func(t *testing.T) {
		env := newTestEnv(t)
		a := env.product(t, owner, "A", 5, "1.00")
		b := env.product(t, owner, "B", 5, "1.00")
		sale, err := env.sales.Create(ctx, owner, CreateSaleInput{
			Items: []SaleItemInput{
				{ProductID: a.ID, Quantity: 1, Price: dec("1.00")},
				{ProductID: b.ID, Quantity: 2, Price: dec("1.00")},
			},
			Total: dec("3.00"),
		})
		require.NoError(t, err)
		require.NoError(t, env.products.Remove(ctx, owner, a.ID))

		out, err := env.sales.Refund(ctx, owner, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.SaleRefunded, out.Status)
		assert.Nil(t, out.Items[0].ProductID)
		assert.Equal(t, "Product A", out.Items[0].ProductName)
		assert.Equal(t, 5, env.quantity(t, owner, b.ID))
	})

	t.Run("unknown sale is not found", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.sales.Cancel(ctx, owner, 42)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestSaleService_Update(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.product(t, owner, "A", 5, "1.00")
	sale, err := env.sales.Create(ctx, owner, CreateSaleInput{
		Items: []SaleItemInput{{ProductID: p.ID, Quantity: 1, Price: dec("1.00")}},
		Total: dec("1.00"),
	})
	require.NoError(t, err)

	notes := "paid in coins"
	card := domain.PaymentCard
	out, err := env.sales.Update(ctx, owner, sale.ID, UpdateSaleInput{Notes: &notes, PaymentMethod: &card})
	require.NoError(t, err)
	assert.Equal(t, notes, out.Notes)
	assert.Equal(t, domain.PaymentCard, out.PaymentMethod)
	assert.Equal(t, 4, env.quantity(t, owner, p.ID), "update has no inventory side effects")

	sales := env.db.activitiesOf(domain.ActivitySale)
	updated := sales[len(sales)-1]
	assert.Equal(t, "Updated sale "+sale.ReceiptNumber, updated.Description)
	require.True(t, updated.Amount.Valid)
	assert.Equal(t, "1.00", updated.Amount.Decimal.StringFixed(2))

	bad := domain.SaleStatus("lost")
	_, err = env.sales.Update(ctx, owner, sale.ID, UpdateSaleInput{Status: &bad})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.sales.Cancel(ctx, owner, sale.ID)
	require.NoError(t, err)
	before, err := env.sales.FindOne(ctx, owner, sale.ID)
	require.NoError(t, err)

	_, err = env.sales.Update(ctx, owner, sale.ID, UpdateSaleInput{Notes: &notes})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	after, err := env.sales.FindOne(ctx, owner, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSaleService_StatisticsAndList(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.product(t, owner, "A", 100, "1.00")
	var ids []int64
	for _, total := range []string{"10.10", "20.20", "30.30"} {
		s, err := env.sales.Create(ctx, owner, CreateSaleInput{
			Items: []SaleItemInput{{ProductID: p.ID, Quantity: 1, Price: dec("1.00")}},
			Total: dec(total),
		})
		require.NoError(t, err)
		ids = append(ids, s.ID)
	}
	_, err := env.sales.Refund(ctx, owner, ids[2])
	require.NoError(t, err)

	stats, err := env.sales.Statistics(ctx, owner, nil, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalSales)
	assert.Equal(t, "30.30", stats.TotalRevenue.StringFixed(2))

	future := time.Now().Add(100 * 365 * 24 * time.Hour)
	stats, err = env.sales.Statistics(ctx, owner, &future, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 0, stats.TotalSales)

	past := future.Add(-time.Hour)
	_, err = env.sales.Statistics(ctx, owner, &future, &past)
	assert.ErrorIs(t, err, domain.ErrValidation)

	all, err := env.sales.FindAll(ctx, owner, domain.SaleFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID, "newest first")
	assert.Len(t, all[0].Items, 1)

	other, err := env.sales.FindAll(ctx, owner+1, domain.SaleFilter{})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestNewReceiptNumber(t *testing.T) {
	a := NewReceiptNumber()
	b := NewReceiptNumber()
	assert.Regexp(t, `^REC-\d{13}-[0-9A-F]{4}$`, a)
	assert.NotEqual(t, a, b)
}
