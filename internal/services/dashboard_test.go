package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/diewo77/go-bistro/internal/cache"
	"github.com/diewo77/go-bistro/internal/dbtest"
	"github.com/diewo77/go-bistro/internal/models"
	"github.com/diewo77/go-bistro/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newDashboard(t *testing.T) (*gorm.DB, *services.DashboardService) {
	t.Helper()
	conn := dbtest.Open(t)
	svc := services.NewDashboardService(conn, nil, cache.NewMemory(), time.Minute)
	svc.SetClock(clock)
	return conn, svc
}

func TestSalesSummaryGrowth(t *testing.T) {
	conn, svc := newDashboard(t)
	today := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	mustSale(t, conn, today, models.SaleCompleted, "30", nil)
	mustSale(t, conn, today.Add(time.Hour), models.SalePending, "99", nil)
	mustSale(t, conn, today.AddDate(0, 0, -1), models.SaleCompleted, "20", nil)
	mustSale(t, conn, today.AddDate(0, -1, 0), models.SaleCompleted, "40", nil)

	sum, err := svc.SalesSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 30.0, sum.TodaySales)
	assert.Equal(t, 50.0, sum.MonthlySales)
	assert.EqualValues(t, 2, sum.OrdersCount)
	assert.Equal(t, 50.0, sum.TodayGrowth)
	assert.Equal(t, 25.0, sum.MonthlyGrowth)
	assert.Equal(t, 100.0, sum.OrdersGrowth)
	assert.Equal(t, 30.0, sum.AvgOrderAmount)
}

func TestSalesSummaryZeroBase(t *testing.T) {
	conn, svc := newDashboard(t)
	mustSale(t, conn, fixedNow, models.SaleCompleted, "30", nil)

	sum, err := svc.SalesSummary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sum.TodayGrowth)
	assert.Zero(t, sum.MonthlyGrowth)
}

func TestTrendZeroFills(t *testing.T) {
	conn, svc := newDashboard(t)
	mustSale(t, conn, fixedNow, models.SaleCompleted, "12.5", nil)
	mustSale(t, conn, fixedNow.AddDate(0, 0, -2), models.SaleCompleted, "7", nil)
	mustSale(t, conn, fixedNow.AddDate(0, 0, -2), models.SaleCancelled, "100", nil)

	tr, err := svc.Trend(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, tr.Dates, 7)
	assert.Equal(t, "2026-03-04", tr.Dates[0])
	assert.Equal(t, "2026-03-10", tr.Dates[6])
	assert.Equal(t, []float64{0, 0, 0, 0, 7, 0, 12.5}, tr.Sales)
}

func TestPeakHoursAndChannels(t *testing.T) {
	conn, svc := newDashboard(t)
	at := func(h int) time.Time { return time.Date(2026, 3, 9, h, 15, 0, 0, time.UTC) }
	mustSale(t, conn, at(9), models.SaleCompleted, "1", nil)
	mustSale(t, conn, at(12), models.SaleDelivered, "1", nil)
	mustSale(t, conn, at(12), models.SaleCompleted, "1", nil)
	mustSale(t, conn, at(20), models.SalePending, "1", nil)
	noChannel := models.Sale{SaleDate: at(13), Status: models.SalePending, TotalAmount: decimal.NewFromInt(1)}
	require.NoError(t, conn.Create(&noChannel).Error)

	peak, err := svc.PeakHours(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"9:00", "12:00"}, peak.Labels)
	assert.Equal(t, []float64{1, 2}, peak.Data)

	ch, err := svc.ByChannel(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Dine-in", "Unknown"}, ch.Labels)
}

func TestSalesDistribution(t *testing.T) {
	conn, svc := newDashboard(t)
	gold := mustCustomer(t, conn, "G", "1")
	require.NoError(t, conn.Model(&gold).Update("mem_level", "Gold").Error)
	pizza := mustDish(t, conn, "Margherita", "Pizza", "10")
	lunch := models.Sale{
		SaleDate: time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC), Status: models.SaleCompleted,
		TotalAmount: decimal.NewFromInt(20), CustomerID: &gold.ID,
		Lines: []models.SaleDish{{DishID: pizza.ID, Quantity: 2, UnitPrice: decimal.NewFromInt(10)}},
	}
	require.NoError(t, conn.Create(&lunch).Error)
	mustSale(t, conn, time.Date(2026, 3, 9, 19, 0, 0, 0, time.UTC), models.SaleCompleted, "15", nil)

	dist, err := svc.SalesDistribution(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Pizza"}, dist.ByCategory.Labels)
	assert.Equal(t, []float64{20}, dist.ByCategory.Data)
	assert.Equal(t, []string{"breakfast", "lunch", "dinner", "late_night"}, dist.ByPeriod.Labels)
	assert.Equal(t, []float64{0, 20, 15, 0}, dist.ByPeriod.Data)
	assert.Equal(t, []string{"Gold"}, dist.ByMembership.Labels)
}
