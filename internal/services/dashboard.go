package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/diewo77/go-bistro/internal/apperr"
	"github.com/diewo77/go-bistro/internal/cache"
	"github.com/diewo77/go-bistro/internal/logger"
	"github.com/diewo77/go-bistro/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	distributionWindowDays = 30
	topProductsLimit       = 10
	topDishesLimit         = 5
)

// dayPeriods are inclusive hour ranges of the service periods.
var dayPeriods = []struct {
	Name     string
	From, To int
}{
	{"breakfast", 6, 10},
	{"lunch", 11, 14},
	{"dinner", 17, 20},
	{"late_night", 21, 23},
}

// DashboardService computes the sales KPIs and charts.
type DashboardService struct {
	base
	cache cache.Store
	ttl   time.Duration
}

func NewDashboardService(db *gorm.DB, logg *logger.Logger, store cache.Store, ttl time.Duration) *DashboardService {
	return &DashboardService{base: newBase(db, logg), cache: store, ttl: ttl}
}

type SalesSummary struct {
	TodaySales     float64 `json:"today_sales"`
	MonthlySales   float64 `json:"monthly_sales"`
	OrdersCount    int64   `json:"orders_count"`
	AvgOrderAmount float64 `json:"avg_order_amount"`
	TodayGrowth    float64 `json:"today_growth"`
	MonthlyGrowth  float64 `json:"monthly_growth"`
	OrdersGrowth   float64 `json:"orders_growth"`
	AvgGrowth      float64 `json:"avg_growth"`
}

func (s *DashboardService) completedBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	q := s.db.WithContext(ctx).Model(&models.Sale{}).
		Where("status = ? AND sale_date >= ? AND sale_date < ?", models.SaleCompleted, from, to)
	total, err := sumColumn(q, "total_amount")
	return total, apperr.FromDB(err, "sale")
}

func (s *DashboardService) countBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Sale{}).
		Where("sale_date >= ? AND sale_date < ?", from, to).Count(&n).Error
	return n, apperr.FromDB(err, "sale")
}

func (s *DashboardService) avgBetween(ctx context.Context, from, to time.Time) (float64, error) {
	var avg *float64
	err := s.db.WithContext(ctx).Model(&models.Sale{}).
		Select("AVG(total_amount)").
		Where("status = ? AND sale_date >= ? AND sale_date < ?", models.SaleCompleted, from, to).
		Row().Scan(&avg)
	if err != nil {
		return 0, apperr.FromDB(err, "sale")
	}
	if avg == nil {
		return 0, nil
	}
	return round2(*avg), nil
}

// SalesSummary compares today with yesterday and this month with the
// previous one. The average order covers every Completed sale to date.
func (s *DashboardService) SalesSummary(ctx context.Context) (*SalesSummary, error) {
	return cache.Remember(ctx, s.cache, s.log, cache.Key("dashboard", "sales_summary"), s.ttl, s.salesSummary)
}

func (s *DashboardService) salesSummary(ctx context.Context) (*SalesSummary, error) {
	today := s.today()
	tomorrow := today.AddDate(0, 0, 1)
	yesterday := today.AddDate(0, 0, -1)
	month := monthStart(today)
	prevMonth := month.AddDate(0, -1, 0)
	epoch := time.Time{}

	todaySales, err := s.completedBetween(ctx, today, tomorrow)
	if err != nil {
		return nil, err
	}
	yesterdaySales, err := s.completedBetween(ctx, yesterday, today)
	if err != nil {
		return nil, err
	}
	monthly, err := s.completedBetween(ctx, month, tomorrow)
	if err != nil {
		return nil, err
	}
	prevMonthly, err := s.completedBetween(ctx, prevMonth, month)
	if err != nil {
		return nil, err
	}
	orders, err := s.countBetween(ctx, today, tomorrow)
	if err != nil {
		return nil, err
	}
	prevOrders, err := s.countBetween(ctx, yesterday, today)
	if err != nil {
		return nil, err
	}
	avg, err := s.avgBetween(ctx, epoch, tomorrow)
	if err != nil {
		return nil, err
	}
	prevAvg, err := s.avgBetween(ctx, prevMonth, month)
	if err != nil {
		return nil, err
	}
	return &SalesSummary{
		TodaySales:     toFloat(todaySales),
		MonthlySales:   toFloat(monthly),
		OrdersCount:    orders,
		AvgOrderAmount: avg,
		TodayGrowth:    growth(toFloat(todaySales), toFloat(yesterdaySales)),
		MonthlyGrowth:  growth(toFloat(monthly), toFloat(prevMonthly)),
		OrdersGrowth:   growth(float64(orders), float64(prevOrders)),
		AvgGrowth:      growth(avg, prevAvg),
	}, nil
}

type TopProducts struct {
	ByQuantity []Bestseller `json:"by_quantity"`
	ByRevenue  []Bestseller `json:"by_revenue"`
}

func (s *DashboardService) TopProducts(ctx context.Context) (*TopProducts, error) {
	byQty, err := rankDishes(ctx, s.db, dishRanking{Limit: topProductsLimit})
	if err != nil {
		return nil, err
	}
	byRev, err := rankDishes(ctx, s.db, dishRanking{Limit: topProductsLimit, ByRevenue: true})
	if err != nil {
		return nil, err
	}
	return &TopProducts{ByQuantity: byQty, ByRevenue: byRev}, nil
}

type SalesDistribution struct {
	ByCategory   Chart `json:"by_category"`
	ByPeriod     Chart `json:"by_period"`
	ByMembership Chart `json:"by_membership"`
}

// SalesDistribution splits the revenue of the last 30 days of Completed
// sales by dish category, service period and membership level.
func (s *DashboardService) SalesDistribution(ctx context.Context) (*SalesDistribution, error) {
	since := s.today().AddDate(0, 0, -distributionWindowDays)
	out := &SalesDistribution{}

	type catRow struct {
		Category *string
		Revenue  decimal.Decimal
	}
	var cats []catRow
	err := s.db.WithContext(ctx).Table("sale_dishes AS sd").
		Select("d.category AS category, COALESCE(SUM(sd.quantity * sd.unit_price), 0) AS revenue").
		Joins("JOIN sales s ON s.id = sd.sale_id").
		Joins("JOIN dishes d ON d.id = sd.dish_id").
		Where("s.status = ? AND s.sale_date >= ?", models.SaleCompleted, since).
		Group("d.category").Order("d.category").
		Scan(&cats).Error
	if err != nil {
		return nil, apperr.FromDB(err, "sale")
	}
	byCat := newChartAccumulator()
	for _, c := range cats {
		label := unknownLabel
		if c.Category != nil && *c.Category != "" {
			label = *c.Category
		}
		byCat.add(label, toFloat(c.Revenue))
	}
	out.ByCategory = byCat.chart()

	stamps, err := saleStamps(ctx, s.db, since, s.today().AddDate(0, 0, 1), models.SaleCompleted)
	if err != nil {
		return nil, err
	}
	periods := make([]float64, len(dayPeriods))
	for _, st := range stamps {
		h := st.SaleDate.UTC().Hour()
		for i, p := range dayPeriods {
			if h >= p.From && h <= p.To {
				periods[i] += toFloat(st.TotalAmount)
			}
		}
	}
	out.ByPeriod = Chart{Labels: make([]string, 0, len(dayPeriods)), Data: make([]float64, 0, len(dayPeriods))}
	for i, p := range dayPeriods {
		out.ByPeriod.Labels = append(out.ByPeriod.Labels, p.Name)
		out.ByPeriod.Data = append(out.ByPeriod.Data, round2(periods[i]))
	}

	type levelRow struct {
		MemLevel *string
		Revenue  decimal.Decimal
	}
	var levels []levelRow
	err = s.db.WithContext(ctx).Table("sales AS s").
		Select("c.mem_level AS mem_level, COALESCE(SUM(s.total_amount), 0) AS revenue").
		Joins("JOIN customers c ON c.id = s.customer_id").
		Where("s.status = ? AND s.sale_date >= ?", models.SaleCompleted, since).
		Group("c.mem_level").Order("c.mem_level").
		Scan(&levels).Error
	if err != nil {
		return nil, apperr.FromDB(err, "sale")
	}
	byLevel := newChartAccumulator()
	for _, l := range levels {
		label := "Non-member"
		if l.MemLevel != nil && *l.MemLevel != "" {
			label = *l.MemLevel
		}
		byLevel.add(label, toFloat(l.Revenue))
	}
	out.ByMembership = byLevel.chart()
	return out, nil
}

// chartAccumulator sums values per label, keeping first-seen order.
type chartAccumulator struct {
	order  []string
	values map[string]float64
}

func newChartAccumulator() *chartAccumulator {
	return &chartAccumulator{values: map[string]float64{}}
}

func (c *chartAccumulator) add(label string, v float64) {
	if _, ok := c.values[label]; !ok {
		c.order = append(c.order, label)
	}
	c.values[label] += v
}

func (c *chartAccumulator) chart() Chart {
	out := Chart{Labels: make([]string, 0, len(c.order)), Data: make([]float64, 0, len(c.order))}
	for _, l := range c.order {
		out.Labels = append(out.Labels, l)
		out.Data = append(out.Data, round2(c.values[l]))
	}
	return out
}

// TopDishes is the top five Completed dishes by quantity.
func (s *DashboardService) TopDishes(ctx context.Context) (*Chart, error) {
	ranked, err := rankDishes(ctx, s.db, dishRanking{Limit: topDishesLimit})
	if err != nil {
		return nil, err
	}
	out := &Chart{Labels: make([]string, 0, len(ranked)), Data: make([]float64, 0, len(ranked))}
	for _, r := range ranked {
		out.Labels = append(out.Labels, r.Name)
		out.Data = append(out.Data, float64(r.TotalQuantity))
	}
	return out, nil
}

type Trend struct {
	Dates []string  `json:"dates"`
	Sales []float64 `json:"sales"`
}

// Trend is the daily Completed revenue over the last days days, today
// included, with empty days at zero.
func (s *DashboardService) Trend(ctx context.Context, days int) (*Trend, error) {
	today := s.today()
	from := today.AddDate(0, 0, -(days - 1))
	stamps, err := saleStamps(ctx, s.db, from, today.AddDate(0, 0, 1), models.SaleCompleted)
	if err != nil {
		return nil, err
	}
	perDay := map[string]float64{}
	for _, st := range stamps {
		perDay[st.SaleDate.UTC().Format("2006-01-02")] += toFloat(st.TotalAmount)
	}
	out := &Trend{Dates: make([]string, 0, days), Sales: make([]float64, 0, days)}
	for d := from; !d.After(today); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		out.Dates = append(out.Dates, key)
		out.Sales = append(out.Sales, round2(perDay[key]))
	}
	return out, nil
}

// ByChannel counts every order per channel.
func (s *DashboardService) ByChannel(ctx context.Context) (*Chart, error) {
	type row struct {
		Channel *string
		Count   int64
	}
	var rows []row
	err := s.db.WithContext(ctx).Model(&models.Sale{}).
		Select("channel, COUNT(*) AS count").Group("channel").Order("channel").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.FromDB(err, "sale")
	}
	acc := newChartAccumulator()
	for _, r := range rows {
		label := unknownLabel
		if r.Channel != nil && *r.Channel != "" {
			label = *r.Channel
		}
		acc.add(label, float64(r.Count))
	}
	out := acc.chart()
	return &out, nil
}

// PeakHours counts Completed and Delivered orders per hour of day. Hours
// without orders are omitted.
func (s *DashboardService) PeakHours(ctx context.Context) (*Chart, error) {
	var dates []time.Time
	err := s.db.WithContext(ctx).Model(&models.Sale{}).
		Where("status IN ?", []models.SaleStatus{models.SaleCompleted, models.SaleDelivered}).
		Pluck("sale_date", &dates).Error
	if err != nil {
		return nil, apperr.FromDB(err, "sale")
	}
	counts := map[int]int{}
	for _, d := range dates {
		counts[d.UTC().Hour()]++
	}
	hours := make([]int, 0, len(counts))
	for h := range counts {
		hours = append(hours, h)
	}
	sort.Ints(hours)
	out := &Chart{Labels: make([]string, 0, len(hours)), Data: make([]float64, 0, len(hours))}
	for _, h := range hours {
		out.Labels = append(out.Labels, fmt.Sprintf("%d:00", h))
		out.Data = append(out.Data, float64(counts[h]))
	}
	return out, nil
}

// PageData backs the dashboard page.
type PageData struct {
	TodaySales   float64
	TodayOrders  int64
	MonthlySales float64
	AvgOrder     float64
	RecentSales  []OrderRow
}

func (s *DashboardService) PageData(ctx context.Context, orders *OrderService) (*PageData, error) {
	sum, err := s.salesSummary(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := orders.Recent(ctx, 5)
	if err != nil {
		return nil, err
	}
	return &PageData{
		TodaySales:   sum.TodaySales,
		TodayOrders:  sum.OrdersCount,
		MonthlySales: sum.MonthlySales,
		AvgOrder:     sum.AvgOrderAmount,
		RecentSales:  recent,
	}, nil
}
