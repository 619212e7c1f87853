package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/diewo77/go-bistro/internal/apperr"
	"github.com/diewo77/go-bistro/internal/cache"
	"github.com/diewo77/go-bistro/internal/dbtest"
	"github.com/diewo77/go-bistro/internal/models"
	"github.com/diewo77/go-bistro/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newFinance(t *testing.T) (*gorm.DB, *services.FinanceService) {
	t.Helper()
	conn := dbtest.Open(t)
	svc := services.NewFinanceService(conn, nil, cache.NewMemory(), time.Minute)
	svc.SetClock(clock)
	return conn, svc
}

func TestGenerateReceivablesIsIdempotent(t *testing.T) {
	conn, svc := newFinance(t)
	ctx := context.Background()
	c := mustCustomer(t, conn, "Ann", "555-0200")
	done := mustSale(t, conn, fixedNow.AddDate(0, 0, -3), models.SaleCompleted, "25.00", &c.ID)
	mustSale(t, conn, fixedNow, models.SalePending, "9.00", &c.ID)
	mustSale(t, conn, fixedNow, models.SaleCompleted, "9.00", nil)

	res, err := svc.GenerateReceivables(ctx)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Count)

	var rec models.Receivable
	require.NoError(t, conn.Where("sale_id = ?", done.ID).First(&rec).Error)
	assert.Equal(t, done.SaleDate.AddDate(0, 0, services.GeneratedReceivableTermDays).Format("2006-01-02"), rec.DueDate.UTC().Format("2006-01-02"))

	res, err = svc.GenerateReceivables(ctx)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Zero(t, res.Count)
}

func TestGeneratePayablesSkipsVendorless(t *testing.T) {
	conn, svc := newFinance(t)
	v := mustVendor(t, conn, "Mill")
	withVendor := models.Purchase{OrderDate: fixedNow, Status: models.PurchaseCompleted, VendorID: &v.ID, TotalAmount: decimal.NewFromInt(80)}
	orphan := models.Purchase{OrderDate: fixedNow, Status: models.PurchaseCompleted, TotalAmount: decimal.NewFromInt(10)}
	pending := models.Purchase{OrderDate: fixedNow, Status: models.PurchasePending, VendorID: &v.ID, TotalAmount: decimal.NewFromInt(5)}
	require.NoError(t, conn.Create(&withVendor).Error)
	require.NoError(t, conn.Create(&orphan).Error)
	require.NoError(t, conn.Create(&pending).Error)

	res, err := svc.GeneratePayables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)

	var pay models.Payable
	require.NoError(t, conn.Where("purchase_id = ?", withVendor.ID).First(&pay).Error)
	assert.Equal(t, v.ID, pay.VendorID)
	assert.Equal(t, fixedNow.AddDate(0, 0, services.GeneratedPayableTermDays).Format("2006-01-02"), pay.DueDate.UTC().Format("2006-01-02"))
}

func TestReceivablesOverdueFilter(t *testing.T) {
	conn, svc := newFinance(t)
	c := mustCustomer(t, conn, "Bo", "555-0201")
	mk := func(due time.Time, status models.SettlementStatus) {
		s := mustSale(t, conn, fixedNow, models.SaleCompleted, "10", &c.ID)
		require.NoError(t, conn.Create(&models.Receivable{SaleID: s.ID, CustomerID: c.ID, Amount: decimal.NewFromInt(10), DueDate: due, Status: status}).Error)
	}
	mk(fixedNow.AddDate(0, 0, -5), models.StatusUnpaid)
	mk(fixedNow.AddDate(0, 0, -5), models.StatusPaid)
	mk(fixedNow.AddDate(0, 0, 5), models.StatusUnpaid)

	rows, err := svc.Receivables(context.Background(), "overdue")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Overdue)
	assert.Equal(t, "Bo", rows[0].CustomerName)

	all, err := svc.Receivables(context.Background(), "all")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = svc.Receivables(context.Background(), "late")
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestSetReceivableStatusTogglesPaidDate(t *testing.T) {
	conn, svc := newFinance(t)
	ctx := context.Background()
	c := mustCustomer(t, conn, "Cy", "555-0202")
	s := mustSale(t, conn, fixedNow, models.SaleCompleted, "10", &c.ID)
	rec := models.Receivable{SaleID: s.ID, CustomerID: c.ID, Amount: decimal.NewFromInt(10), DueDate: fixedNow, Status: models.StatusUnpaid}
	require.NoError(t, conn.Create(&rec).Error)

	got, err := svc.SetReceivableStatus(ctx, rec.ID, models.StatusPaid)
	require.NoError(t, err)
	require.NotNil(t, got.PaidDate)

	got, err = svc.SetReceivableStatus(ctx, rec.ID, models.StatusUnpaid)
	require.NoError(t, err)
	assert.Nil(t, got.PaidDate)

	_, err = svc.SetReceivableStatus(ctx, 999, models.StatusPaid)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestFinanceSummary(t *testing.T) {
	conn, svc := newFinance(t)
	ctx := context.Background()
	senior := mustCustomer(t, conn, "Old", "555-0203")
	require.NoError(t, conn.Model(&senior).Update("birth_date", time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC)).Error)
	dish := mustDish(t, conn, "Margherita", "Pizza", "10.00")

	sale := models.Sale{
		SaleDate: fixedNow.AddDate(0, 0, -1), Status: models.SaleCompleted,
		TotalAmount: decimal.NewFromInt(18), DiscountAmount: decimal.NewFromInt(2), CustomerID: &senior.ID,
		Lines: []models.SaleDish{{DishID: dish.ID, Quantity: 2, UnitPrice: decimal.NewFromInt(10)}},
	}
	require.NoError(t, conn.Create(&sale).Error)
	mustSale(t, conn, fixedNow, models.SaleCancelled, "50", nil)
	v := mustVendor(t, conn, "Mill")
	require.NoError(t, conn.Create(&models.Purchase{OrderDate: fixedNow, Status: models.PurchaseCompleted, VendorID: &v.ID, TotalAmount: decimal.NewFromInt(6)}).Error)

	sum, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(18).Equal(sum.TotalRevenue))
	assert.True(t, decimal.NewFromInt(2).Equal(sum.TotalDiscounts))
	assert.True(t, decimal.NewFromInt(2).Equal(sum.TotalSeniorDiscounts))
	assert.True(t, decimal.NewFromInt(12).Equal(sum.GrossProfit))
	assert.InDelta(t, 66.67, sum.GrossMargin, 0.001)
	assert.EqualValues(t, 2, sum.TotalItemsSold)
	require.Len(t, sum.MonthlyStats, 12)
	assert.True(t, sum.MonthlyStats[11].Revenue.IsZero())
	require.Len(t, sum.TopItems, 1)
	assert.Equal(t, "Margherita", sum.TopItems[0].Name)
	require.Len(t, sum.ProductMargins, 1)
	assert.True(t, decimal.RequireFromString("5.50").Equal(sum.ProductMargins[0].Cost))

	// cached until a finance write invalidates it
	mustSale(t, conn, fixedNow, models.SaleCompleted, "100", &senior.ID)
	again, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.True(t, sum.TotalRevenue.Equal(again.TotalRevenue))

	_, err = svc.GenerateReceivables(ctx)
	require.NoError(t, err)
	fresh, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(118).Equal(fresh.TotalRevenue))
}

func TestSeniorReport(t *testing.T) {
	conn, svc := newFinance(t)
	old := mustCustomer(t, conn, "Old", "555-0210")
	young := mustCustomer(t, conn, "Young", "555-0211")
	require.NoError(t, conn.Model(&old).Update("birth_date", time.Date(1960, 3, 10, 0, 0, 0, 0, time.UTC)).Error)
	require.NoError(t, conn.Model(&young).Update("birth_date", time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)).Error)
	s := models.Sale{SaleDate: fixedNow, Status: models.SaleCompleted, TotalAmount: decimal.NewFromInt(9), DiscountAmount: decimal.NewFromInt(1), CustomerID: &old.ID}
	require.NoError(t, conn.Create(&s).Error)

	rep, err := svc.SeniorReport(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.Customers, 1)
	assert.Equal(t, "Old", rep.Customers[0].Name)
	assert.Equal(t, 66, rep.Customers[0].Age)
	assert.EqualValues(t, 1, rep.DiscountCount)
	assert.True(t, decimal.NewFromInt(1).Equal(rep.DiscountTotal))
}
