package services

import (
	"context"
	"fmt"
	"time"

	"github.com/diewo77/go-bistro/internal/apperr"
	"github.com/diewo77/go-bistro/internal/cache"
	"github.com/diewo77/go-bistro/internal/logger"
	"github.com/diewo77/go-bistro/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	GeneratedReceivableTermDays = 30
	GeneratedPayableTermDays    = 15
	summaryTopN                 = 5
)

// DefaultDishCost is the unit cost assumed for a dish without a preset.
var DefaultDishCost = decimal.RequireFromString("4.00")

// presetCosts are unit costs per dish category.
var presetCosts = map[string]decimal.Decimal{
	"Pizza":  decimal.RequireFromString("5.50"),
	"Salad":  decimal.RequireFromString("3.75"),
	"Sides":  decimal.RequireFromString("2.25"),
	"Drinks": decimal.RequireFromString("1.50"),
}

func dishCost(category string) decimal.Decimal {
	if c, ok := presetCosts[category]; ok {
		return c
	}
	return DefaultDishCost
}

type FinanceService struct {
	base
	cache      cache.Store
	summaryTTL time.Duration
}

func NewFinanceService(db *gorm.DB, logg *logger.Logger, store cache.Store, summaryTTL time.Duration) *FinanceService {
	return &FinanceService{base: newBase(db, logg), cache: store, summaryTTL: summaryTTL}
}

var summaryKey = cache.Key("finance", "summary")

func (s *FinanceService) invalidateSummary(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, summaryKey); err != nil {
		s.log.Warn(s.log.WithField(ctx, "error", err.Error()), "finance.cache_invalidate_failed")
	}
}

type ReceivableRow struct {
	models.Receivable
	CustomerName string `json:"customer_name"`
	Overdue      bool   `json:"overdue"`
}

type PayableRow struct {
	models.Payable
	VendorName string `json:"vendor_name"`
	Overdue    bool   `json:"overdue"`
}

// settlementFilter applies all|Paid|Unpaid|Cancelled|overdue.
func settlementFilter(q *gorm.DB, status string, today time.Time) (*gorm.DB, error) {
	switch status {
	case "", "all":
		return q, nil
	case "overdue":
		return q.Where("status = ? AND due_date < ?", models.StatusUnpaid, today), nil
	case string(models.StatusPaid), string(models.StatusUnpaid), string(models.StatusCancelled):
		return q.Where("status = ?", status), nil
	}
	return nil, apperr.Validation("status", "must be one of all, Paid, Unpaid, Cancelled, overdue")
}

func (s *FinanceService) Receivables(ctx context.Context, status string) ([]ReceivableRow, error) {
	today := s.today()
	q, err := settlementFilter(s.db.WithContext(ctx).Preload("Customer"), status, today)
	if err != nil {
		return nil, err
	}
	var recs []models.Receivable
	if err := q.Order("due_date").Order("id").Find(&recs).Error; err != nil {
		return nil, apperr.FromDB(err, "receivable")
	}
	return receivableRows(recs, today), nil
}

func receivableRows(recs []models.Receivable, today time.Time) []ReceivableRow {
	rows := make([]ReceivableRow, 0, len(recs))
	for _, r := range recs {
		row := ReceivableRow{Receivable: r, Overdue: r.Overdue(today)}
		if r.Customer != nil {
			row.CustomerName = r.Customer.Name
		}
		row.Receivable.Customer = nil
		rows = append(rows, row)
	}
	return rows
}

func (s *FinanceService) Payables(ctx context.Context, status string) ([]PayableRow, error) {
	today := s.today()
	q, err := settlementFilter(s.db.WithContext(ctx).Preload("Vendor"), status, today)
	if err != nil {
		return nil, err
	}
	var pays []models.Payable
	if err := q.Order("due_date").Order("id").Find(&pays).Error; err != nil {
		return nil, apperr.FromDB(err, "payable")
	}
	return payableRows(pays, today), nil
}

func payableRows(pays []models.Payable, today time.Time) []PayableRow {
	rows := make([]PayableRow, 0, len(pays))
	for _, p := range pays {
		row := PayableRow{Payable: p, Overdue: p.Overdue(today)}
		if p.Vendor != nil {
			row.VendorName = p.Vendor.Name
		}
		row.Payable.Vendor = nil
		rows = append(rows, row)
	}
	return rows
}

// settle returns the column updates for a status change. Only Paid keeps a
// paid_date.
func (s *FinanceService) settle(status models.SettlementStatus) map[string]any {
	updates := map[string]any{"status": status, "paid_date": nil}
	if status == models.StatusPaid {
		updates["paid_date"] = s.now()
	}
	return updates
}

func (s *FinanceService) SetReceivableStatus(ctx context.Context, id uint, status models.SettlementStatus) (*models.Receivable, error) {
	switch status {
	case models.StatusPaid, models.StatusUnpaid, models.StatusCancelled:
	default:
		return nil, apperr.Validation("status", "must be one of Paid, Unpaid, Cancelled")
	}
	var rec models.Receivable
	db := s.db.WithContext(ctx)
	if err := db.First(&rec, id).Error; err != nil {
		return nil, apperr.FromDB(err, "receivable")
	}
	if err := db.Model(&rec).Updates(s.settle(status)).Error; err != nil {
		return nil, apperr.FromDB(err, "receivable")
	}
	if err := db.First(&rec, id).Error; err != nil {
		return nil, apperr.FromDB(err, "receivable")
	}
	s.invalidateSummary(ctx)
	return &rec, nil
}

func (s *FinanceService) SetPayableStatus(ctx context.Context, id uint, status models.SettlementStatus) (*models.Payable, error) {
	switch status {
	case models.StatusPaid, models.StatusUnpaid:
	default:
		return nil, apperr.Validation("status", "must be one of Paid, Unpaid")
	}
	var pay models.Payable
	db := s.db.WithContext(ctx)
	if err := db.First(&pay, id).Error; err != nil {
		return nil, apperr.FromDB(err, "payable")
	}
	if err := db.Model(&pay).Updates(s.settle(status)).Error; err != nil {
		return nil, apperr.FromDB(err, "payable")
	}
	if err := db.First(&pay, id).Error; err != nil {
		return nil, apperr.FromDB(err, "payable")
	}
	s.invalidateSummary(ctx)
	return &pay, nil
}

// GenerateReceivables raises a receivable for every Completed sale with a
// customer that has none yet.
func (s *FinanceService) GenerateReceivables(ctx context.Context) (*Result, error) {
	count := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sales []models.Sale
		err := tx.Where("status = ? AND customer_id IS NOT NULL", models.SaleCompleted).
			Where("NOT EXISTS (SELECT 1 FROM receivables r WHERE r.sale_id = sales.id)").
			Order("id").Find(&sales).Error
		if err != nil {
			return apperr.FromDB(err, "sale")
		}
		for _, sale := range sales {
			rec := models.Receivable{
				SaleID:     sale.ID,
				CustomerID: *sale.CustomerID,
				Amount:     sale.TotalAmount,
				DueDate:    sale.SaleDate.AddDate(0, 0, GeneratedReceivableTermDays),
				Status:     models.StatusUnpaid,
			}
			if err := tx.Create(&rec).Error; err != nil {
				return apperr.FromDB(err, "receivable")
			}
			count++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.generated(ctx, count, "receivable")
}

// GeneratePayables raises a payable for every Completed purchase from a
// known vendor that has none yet.
func (s *FinanceService) GeneratePayables(ctx context.Context) (*Result, error) {
	count := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var purchases []models.Purchase
		err := tx.Where("status = ? AND vendor_id IS NOT NULL", models.PurchaseCompleted).
			Where("NOT EXISTS (SELECT 1 FROM payables p WHERE p.purchase_id = purchases.id)").
			Order("id").Find(&purchases).Error
		if err != nil {
			return apperr.FromDB(err, "purchase")
		}
		for _, pur := range purchases {
			purchaseID := pur.ID
			pay := models.Payable{
				PurchaseID: &purchaseID,
				VendorID:   *pur.VendorID,
				Amount:     pur.TotalAmount,
				DueDate:    pur.OrderDate.AddDate(0, 0, GeneratedPayableTermDays),
				Status:     models.StatusUnpaid,
			}
			if err := tx.Create(&pay).Error; err != nil {
				return apperr.FromDB(err, "payable")
			}
			count++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.generated(ctx, count, "payable")
}

func (s *FinanceService) generated(ctx context.Context, count int, what string) (*Result, error) {
	if count == 0 {
		return &Result{Success: false, Count: 0, Message: "no eligible records for a new " + what}, nil
	}
	s.invalidateSummary(ctx)
	s.log.Info(s.log.WithFields(ctx, map[string]any{"kind": what, "count": count}), "finance.generated")
	return &Result{Success: true, Count: count, Message: fmt.Sprintf("generated %d %ss", count, what)}, nil
}

type TopItem struct {
	ID       uint            `json:"id"`
	Name     string          `json:"name"`
	Quantity int64           `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type ReceivableSummary struct {
	Total   decimal.Decimal `json:"total"`
	Overdue decimal.Decimal `json:"overdue"`
	Records []ReceivableRow `json:"records"`
}

type PayableSummary struct {
	Total   decimal.Decimal `json:"total"`
	Overdue decimal.Decimal `json:"overdue"`
	Records []PayableRow    `json:"records"`
}

type MonthStat struct {
	Month    int             `json:"month"`
	Label    string          `json:"label"`
	Revenue  decimal.Decimal `json:"revenue"`
	Expenses decimal.Decimal `json:"expenses"`
	Profit   decimal.Decimal `json:"profit"`
}

type ProductMargin struct {
	ID        uint            `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Cost      decimal.Decimal `json:"cost"`
	Margin    decimal.Decimal `json:"margin"`
	MarginPct float64         `json:"margin_pct"`
}

type FinanceSummary struct {
	TotalRevenue           decimal.Decimal   `json:"total_revenue"`
	TotalDiscounts         decimal.Decimal   `json:"total_discounts"`
	TotalSeniorDiscounts   decimal.Decimal   `json:"total_senior_discounts"`
	TotalPurchases         decimal.Decimal   `json:"total_purchases"`
	GrossProfit            decimal.Decimal   `json:"gross_profit"`
	GrossMargin            float64           `json:"gross_margin"`
	TotalItemsSold         int64             `json:"total_items_sold"`
	NewOrdersLast30Days    int64             `json:"new_orders_last_30_days"`
	NewCustomersLast30Days int64             `json:"new_customers_last_30_days"`
	TopItems               []TopItem         `json:"top_items"`
	Receivables            ReceivableSummary `json:"receivables"`
	Payables               PayableSummary    `json:"payables"`
	MonthlyStats           []MonthStat       `json:"monthly_stats"`
	ProductMargins         []ProductMargin   `json:"product_margins"`
	GeneratedAt            time.Time         `json:"generated_at"`
}

// Summary is the finance dashboard, cached for the configured TTL.
func (s *FinanceService) Summary(ctx context.Context) (*FinanceSummary, error) {
	return cache.Remember(ctx, s.cache, s.log, summaryKey, s.summaryTTL, s.computeSummary)
}

func (s *FinanceService) computeSummary(ctx context.Context) (*FinanceSummary, error) {
	db := s.db.WithContext(ctx)
	now := s.now()
	today := dayStart(now)
	since30 := today.AddDate(0, 0, -30)
	out := &FinanceSummary{GeneratedAt: now}
	var err error

	completed := func() *gorm.DB { return db.Model(&models.Sale{}).Where("status = ?", models.SaleCompleted) }
	if out.TotalRevenue, err = sumColumn(completed(), "total_amount"); err != nil {
		return nil, apperr.FromDB(err, "sale")
	}
	if out.TotalDiscounts, err = sumColumn(completed(), "discount_amount"); err != nil {
		return nil, apperr.FromDB(err, "sale")
	}
	seniors := completed().
		Joins("JOIN customers c ON c.id = sales.customer_id").
		Where("c.birth_date IS NOT NULL AND c.birth_date <= ?", models.SeniorCutoff(now))
	if out.TotalSeniorDiscounts, err = sumColumn(seniors, "sales.discount_amount"); err != nil {
		return nil, apperr.FromDB(err, "sale")
	}
	purchases := db.Model(&models.Purchase{}).Where("status = ?", models.PurchaseCompleted)
	if out.TotalPurchases, err = sumColumn(purchases, "total_amount"); err != nil {
		return nil, apperr.FromDB(err, "purchase")
	}
	out.GrossProfit = out.TotalRevenue.Sub(out.TotalPurchases)
	if out.TotalRevenue.IsPositive() {
		out.GrossMargin = round2(toFloat(out.GrossProfit.Div(out.TotalRevenue).Mul(decimal.NewFromInt(100))))
	}

	var sold decimal.NullDecimal
	err = db.Table("sale_dishes AS sd").Joins("JOIN sales s ON s.id = sd.sale_id").
		Where("s.status = ?", models.SaleCompleted).
		Select("SUM(sd.quantity)").Row().Scan(&sold)
	if err != nil {
		return nil, apperr.FromDB(err, "sale")
	}
	out.TotalItemsSold = sold.Decimal.IntPart()

	if err := completed().Where("sale_date >= ?", since30).Count(&out.NewOrdersLast30Days).Error; err != nil {
		return nil, apperr.FromDB(err, "sale")
	}
	if err := db.Model(&models.Customer{}).Where("reg_date >= ?", since30).Count(&out.NewCustomersLast30Days).Error; err != nil {
		return nil, apperr.FromDB(err, "customer")
	}

	ranked, err := rankDishes(ctx, s.db, dishRanking{Limit: summaryTopN})
	if err != nil {
		return nil, err
	}
	out.TopItems = make([]TopItem, 0, len(ranked))
	for _, r := range ranked {
		out.TopItems = append(out.TopItems, TopItem{ID: r.DishID, Name: r.Name, Quantity: r.TotalQuantity, Revenue: r.Revenue})
	}

	if out.Receivables, err = s.receivableSummary(ctx, today); err != nil {
		return nil, err
	}
	if out.Payables, err = s.payableSummary(ctx, today); err != nil {
		return nil, err
	}
	if out.MonthlyStats, err = s.monthlyStats(ctx, now); err != nil {
		return nil, err
	}
	if out.ProductMargins, err = s.productMargins(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *FinanceService) receivableSummary(ctx context.Context, today time.Time) (ReceivableSummary, error) {
	var out ReceivableSummary
	db := s.db.WithContext(ctx)
	var err error
	open := func() *gorm.DB { return db.Model(&models.Receivable{}).Where("status = ?", models.StatusUnpaid) }
	if out.Total, err = sumColumn(open(), "amount"); err != nil {
		return out, apperr.FromDB(err, "receivable")
	}
	if out.Overdue, err = sumColumn(open().Where("due_date < ?", today), "amount"); err != nil {
		return out, apperr.FromDB(err, "receivable")
	}
	var recs []models.Receivable
	if err := open().Preload("Customer").Order("due_date").Limit(summaryTopN).Find(&recs).Error; err != nil {
		return out, apperr.FromDB(err, "receivable")
	}
	out.Records = receivableRows(recs, today)
	return out, nil
}

func (s *FinanceService) payableSummary(ctx context.Context, today time.Time) (PayableSummary, error) {
	var out PayableSummary
	db := s.db.WithContext(ctx)
	var err error
	open := func() *gorm.DB { return db.Model(&models.Payable{}).Where("status = ?", models.StatusUnpaid) }
	if out.Total, err = sumColumn(open(), "amount"); err != nil {
		return out, apperr.FromDB(err, "payable")
	}
	if out.Overdue, err = sumColumn(open().Where("due_date < ?", today), "amount"); err != nil {
		return out, apperr.FromDB(err, "payable")
	}
	var pays []models.Payable
	if err := open().Preload("Vendor").Order("due_date").Limit(summaryTopN).Find(&pays).Error; err != nil {
		return out, apperr.FromDB(err, "payable")
	}
	out.Records = payableRows(pays, today)
	return out, nil
}

// monthlyStats covers the twelve months of now's year; months after now
// stay at zero.
func (s *FinanceService) monthlyStats(ctx context.Context, now time.Time) ([]MonthStat, error) {
	year := now.Year()
	from := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	stats := make([]MonthStat, 12)
	for i := range stats {
		m := time.Month(i + 1)
		stats[i] = MonthStat{Month: i + 1, Label: m.String()[:3], Revenue: decimal.Zero, Expenses: decimal.Zero, Profit: decimal.Zero}
	}
	sales, err := saleStamps(ctx, s.db, from, to, models.SaleCompleted)
	if err != nil {
		return nil, err
	}
	for _, st := range sales {
		if st.SaleDate.After(now) {
			continue
		}
		i := int(st.SaleDate.UTC().Month()) - 1
		stats[i].Revenue = stats[i].Revenue.Add(st.TotalAmount)
	}
	var purchases []models.Purchase
	err = s.db.WithContext(ctx).Select("order_date, total_amount").
		Where("status = ? AND order_date >= ? AND order_date < ?", models.PurchaseCompleted, from, to).
		Find(&purchases).Error
	if err != nil {
		return nil, apperr.FromDB(err, "purchase")
	}
	for _, p := range purchases {
		if p.OrderDate.After(now) {
			continue
		}
		i := int(p.OrderDate.UTC().Month()) - 1
		stats[i].Expenses = stats[i].Expenses.Add(p.TotalAmount)
	}
	for i := range stats {
		stats[i].Revenue = stats[i].Revenue.Round(2)
		stats[i].Expenses = stats[i].Expenses.Round(2)
		stats[i].Profit = stats[i].Revenue.Sub(stats[i].Expenses)
	}
	return stats, nil
}

// productMargins prices every dish against its preset cost.
func (s *FinanceService) productMargins(ctx context.Context) ([]ProductMargin, error) {
	var dishes []models.Dish
	if err := s.db.WithContext(ctx).Order("name").Find(&dishes).Error; err != nil {
		return nil, apperr.FromDB(err, "dish")
	}
	out := make([]ProductMargin, 0, len(dishes))
	for _, d := range dishes {
		price := d.EffectivePrice()
		cost := dishCost(d.Category)
		pm := ProductMargin{ID: d.ID, Name: d.Name, Price: price, Cost: cost, Margin: price.Sub(cost)}
		if price.IsPositive() {
			pm.MarginPct = round2(toFloat(pm.Margin.Div(price).Mul(decimal.NewFromInt(100))))
		}
		out = append(out, pm)
	}
	return out, nil
}

type SeniorCustomer struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	BirthDate time.Time `json:"birth_date"`
	Age       int       `json:"age"`
}

type SeniorReport struct {
	DiscountTotal decimal.Decimal  `json:"discount_total"`
	DiscountCount int64            `json:"discount_count"`
	Customers     []SeniorCustomer `json:"customers"`
}

// SeniorReport lists customers aged SeniorAge or more and the discounts
// granted on their Completed sales.
func (s *FinanceService) SeniorReport(ctx context.Context) (*SeniorReport, error) {
	now := s.now()
	cutoff := models.SeniorCutoff(now)
	db := s.db.WithContext(ctx)
	var customers []models.Customer
	if err := db.Where("birth_date IS NOT NULL AND birth_date <= ?", cutoff).Order("name").Find(&customers).Error; err != nil {
		return nil, apperr.FromDB(err, "customer")
	}
	out := &SeniorReport{DiscountTotal: decimal.Zero, Customers: make([]SeniorCustomer, 0, len(customers))}
	for _, c := range customers {
		out.Customers = append(out.Customers, SeniorCustomer{ID: c.ID, Name: c.Name, BirthDate: *c.BirthDate, Age: c.Age(now)})
	}
	discounted := func() *gorm.DB {
		return db.Model(&models.Sale{}).
			Joins("JOIN customers c ON c.id = sales.customer_id").
			Where("sales.status = ? AND sales.discount_amount > 0", models.SaleCompleted).
			Where("c.birth_date IS NOT NULL AND c.birth_date <= ?", cutoff)
	}
	var err error
	if out.DiscountTotal, err = sumColumn(discounted(), "sales.discount_amount"); err != nil {
		return nil, apperr.FromDB(err, "sale")
	}
	if err := discounted().Count(&out.DiscountCount).Error; err != nil {
		return nil, apperr.FromDB(err, "sale")
	}
	return out, nil
}
