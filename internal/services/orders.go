package services

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/diewo77/go-bistro/internal/apperr"
	"github.com/diewo77/go-bistro/internal/events"
	"github.com/diewo77/go-bistro/internal/logger"
	"github.com/diewo77/go-bistro/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	// ReceivableTermDays is the payment term of a receivable raised at order time.
	ReceivableTermDays = 14
	DefaultPerPage     = 15
	MaxPerPage         = 100
	guestName          = "Guest"
	unknownLabel       = "Unknown"
)

type OrderService struct {
	base
	notify *Notifier
}

func NewOrderService(db *gorm.DB, logg *logger.Logger, notify *Notifier) *OrderService {
	return &OrderService{base: newBase(db, logg), notify: notify}
}

var orderSortColumns = map[string]string{
	"sale_date":    "sale_date",
	"total_amount": "total_amount",
	"status":       "status",
	"channel":      "channel",
}

type OrderQuery struct {
	Page             int
	PerPage          int
	SortBy           string
	SortOrder        string
	Start            *time.Time
	End              *time.Time
	Status           string
	Channel          string
	PaymentCompleted *bool
}

type OrderRow struct {
	ID               uint              `json:"id"`
	SaleDate         time.Time         `json:"sale_date"`
	CustomerID       *uint             `json:"customer_id"`
	CustomerName     string            `json:"customer_name"`
	TotalAmount      decimal.Decimal   `json:"total_amount"`
	DiscountAmount   decimal.Decimal   `json:"discount_amount"`
	Status           models.SaleStatus `json:"status"`
	Channel          string            `json:"channel"`
	OrderType        string            `json:"order_type"`
	PaymentCompleted bool              `json:"payment_completed"`
	TotalQuantity    int               `json:"total_quantity"`
	Dishes           string            `json:"dishes"`
}

type OrderPage struct {
	Sales       []OrderRow `json:"sales"`
	TotalItems  int64      `json:"total_items"`
	CurrentPage int        `json:"current_page"`
	TotalPages  int        `json:"total_pages"`
	PerPage     int        `json:"per_page"`
}

func orderRow(s models.Sale) OrderRow {
	row := OrderRow{
		ID:               s.ID,
		SaleDate:         s.SaleDate,
		CustomerID:       s.CustomerID,
		CustomerName:     guestName,
		TotalAmount:      s.TotalAmount,
		DiscountAmount:   s.DiscountAmount,
		Status:           s.Status,
		Channel:          s.Channel,
		OrderType:        s.OrderType,
		PaymentCompleted: s.PaymentCompleted,
	}
	if s.Customer != nil {
		row.CustomerName = s.Customer.Name
	}
	names := make([]string, 0, len(s.Lines))
	for _, l := range s.Lines {
		row.TotalQuantity += l.Quantity
		if l.Dish != nil {
			names = append(names, l.Dish.Name)
		}
	}
	sort.Strings(names)
	row.Dishes = strings.Join(names, ", ")
	if row.Dishes == "" {
		row.Dishes = "N/A"
	}
	return row
}

// List pages through sales. Dates are inclusive calendar days.
func (s *OrderService) List(ctx context.Context, q OrderQuery) (*OrderPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = DefaultPerPage
	}
	if q.PerPage > MaxPerPage {
		q.PerPage = MaxPerPage
	}
	tx := s.db.WithContext(ctx).Model(&models.Sale{})
	if q.Start != nil {
		tx = tx.Where("sale_date >= ?", dayStart(*q.Start))
	}
	if q.End != nil {
		tx = tx.Where("sale_date < ?", dayStart(*q.End).AddDate(0, 0, 1))
	}
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if q.Channel != "" {
		tx = tx.Where("channel = ?", q.Channel)
	}
	if q.PaymentCompleted != nil {
		tx = tx.Where("payment_completed = ?", *q.PaymentCompleted)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, apperr.FromDB(err, "sale")
	}
	col, ok := orderSortColumns[q.SortBy]
	if !ok {
		col = "sale_date"
	}
	dir := "DESC"
	if strings.EqualFold(q.SortOrder, "asc") {
		dir = "ASC"
	}
	var sales []models.Sale
	err := tx.Preload("Customer").Preload("Lines.Dish").
		Order(col + " " + dir).Order("id " + dir).
		Offset((q.Page - 1) * q.PerPage).Limit(q.PerPage).
		Find(&sales).Error
	if err != nil {
		return nil, apperr.FromDB(err, "sale")
	}
	page := &OrderPage{
		Sales:       make([]OrderRow, 0, len(sales)),
		TotalItems:  total,
		CurrentPage: q.Page,
		TotalPages:  int(math.Ceil(float64(total) / float64(q.PerPage))),
		PerPage:     q.PerPage,
	}
	for _, sale := range sales {
		page.Sales = append(page.Sales, orderRow(sale))
	}
	return page, nil
}

// Recent returns the n latest sales for the dashboard.
func (s *OrderService) Recent(ctx context.Context, n int) ([]OrderRow, error) {
	page, err := s.List(ctx, OrderQuery{PerPage: n})
	if err != nil {
		return nil, err
	}
	return page.Sales, nil
}

type OrderLine struct {
	DishID    uint            `json:"dish_id"`
	DishName  string          `json:"dish_name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type OrderDetail struct {
	OrderRow
	FinalAmount decimal.Decimal `json:"final_amount"`
	Lines       []OrderLine     `json:"lines"`
}

func (s *OrderService) Get(ctx context.Context, id uint) (*OrderDetail, error) {
	var sale models.Sale
	if err := s.db.WithContext(ctx).Preload("Customer").Preload("Lines.Dish").First(&sale, id).Error; err != nil {
		return nil, apperr.FromDB(err, "order")
	}
	out := &OrderDetail{OrderRow: orderRow(sale), FinalAmount: sale.TotalAmount, Lines: make([]OrderLine, 0, len(sale.Lines))}
	for _, l := range sale.Lines {
		line := OrderLine{DishID: l.DishID, Quantity: l.Quantity, UnitPrice: l.UnitPrice, Subtotal: l.Subtotal().Round(2)}
		if l.Dish != nil {
			line.DishName = l.Dish.Name
		}
		out.Lines = append(out.Lines, line)
	}
	return out, nil
}

type OrderLineInput struct {
	DishID   uint `json:"dish_id" validate:"required"`
	Quantity int  `json:"quantity" validate:"gt=0"`
}

type OrderInput struct {
	CustomerID       *uint            `json:"customer_id"`
	OrderType        string           `json:"order_type" validate:"max=20"`
	Channel          string           `json:"channel" validate:"max=20"`
	Items            []OrderLineInput `json:"items" validate:"required,min=1,dive"`
	DiscountAmount   decimal.Decimal  `json:"discount_amount" validate:"gte=0"`
	PaymentCompleted bool             `json:"payment_completed"`
}

// OrderTotal is the sum of line subtotals minus discount, never negative.
func OrderTotal(lines []models.SaleDish, discount decimal.Decimal) decimal.Decimal {
	sale := models.Sale{Lines: lines}
	total := sale.LinesTotal().Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total.Round(2)
}

// Create records a sale with its lines. An unpaid order with a customer
// also raises a receivable due ReceivableTermDays later.
func (s *OrderService) Create(ctx context.Context, in OrderInput) (*models.Sale, error) {
	if len(in.Items) == 0 {
		return nil, apperr.Validation("items", "must contain at least 1 entries")
	}
	if in.DiscountAmount.IsNegative() {
		return nil, apperr.Validation("discount_amount", "must be at least 0")
	}
	now := s.now()
	sale := models.Sale{
		SaleDate:         now,
		DiscountAmount:   in.DiscountAmount.Round(2),
		Status:           models.SalePending,
		OrderType:        orDefault(in.OrderType, unknownLabel),
		Channel:          orDefault(in.Channel, unknownLabel),
		CustomerID:       in.CustomerID,
		PaymentCompleted: in.PaymentCompleted,
	}
	var receivable *models.Receivable
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.CustomerID != nil {
			ok, err := exists(tx, &models.Customer{}, *in.CustomerID)
			if err != nil {
				return apperr.FromDB(err, "customer")
			}
			if !ok {
				return apperr.NotFound("customer")
			}
		}
		for _, item := range in.Items {
			var dish models.Dish
			if err := tx.First(&dish, item.DishID).Error; err != nil {
				if apperr.Is(apperr.FromDB(err, "dish"), apperr.CodeNotFound) {
					return apperr.Newf(apperr.CodeNotFound, "dish %d not found", item.DishID)
				}
				return apperr.FromDB(err, "dish")
			}
			sale.Lines = append(sale.Lines, models.SaleDish{DishID: dish.ID, Quantity: item.Quantity, UnitPrice: dish.EffectivePrice()})
		}
		sale.TotalAmount = OrderTotal(sale.Lines, sale.DiscountAmount)
		if err := tx.Create(&sale).Error; err != nil {
			return apperr.FromDB(err, "order")
		}
		if in.CustomerID != nil {
			if err := tx.Model(&models.Customer{}).Where("id = ?", *in.CustomerID).Update("last_visit", now).Error; err != nil {
				return apperr.FromDB(err, "customer")
			}
		}
		if sale.PaymentCompleted || sale.CustomerID == nil {
			return nil
		}
		receivable = &models.Receivable{
			SaleID:     sale.ID,
			CustomerID: *sale.CustomerID,
			Amount:     sale.TotalAmount,
			DueDate:    sale.SaleDate.AddDate(0, 0, ReceivableTermDays),
			Status:     models.StatusUnpaid,
		}
		return apperr.FromDB(tx.Create(receivable).Error, "receivable")
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.log.WithField(ctx, "sale_id", sale.ID)
	if !sale.PaymentCompleted && sale.CustomerID == nil {
		s.log.Info(logCtx, "order.receivable_skipped")
	}
	if receivable != nil {
		s.log.Info(s.log.WithField(logCtx, "receivable_id", receivable.ID), "order.receivable_created")
	}
	s.notify.Metrics().OrderCreated(sale.Channel, toFloat(sale.TotalAmount))
	s.notify.Publish(ctx, events.OrderCreated, map[string]any{
		"sale_id":      sale.ID,
		"customer_id":  sale.CustomerID,
		"total_amount": sale.TotalAmount,
		"channel":      sale.Channel,
		"lines":        len(sale.Lines),
	})
	return &sale, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

type StatusInput struct {
	Status string `json:"status" validate:"required"`
}

// UpdateStatus moves a sale to status. Cancelling also cancels an Unpaid
// receivable; paid ones are left alone.
func (s *OrderService) UpdateStatus(ctx context.Context, id uint, status models.SaleStatus) (*models.Sale, error) {
	if !status.Valid() {
		return nil, apperr.Validation("status", "must be one of Pending, Processing, Delivered, Completed, Cancelled")
	}
	var (
		sale models.Sale
		prev models.SaleStatus
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&sale, id).Error; err != nil {
			return apperr.FromDB(err, "order")
		}
		prev = sale.Status
		if err := tx.Model(&sale).Update("status", status).Error; err != nil {
			return apperr.FromDB(err, "order")
		}
		sale.Status = status
		if status != models.SaleCancelled {
			return nil
		}
		err := tx.Model(&models.Receivable{}).
			Where("sale_id = ? AND status = ?", id, models.StatusUnpaid).
			Update("status", models.StatusCancelled).Error
		return apperr.FromDB(err, "receivable")
	})
	if err != nil {
		return nil, err
	}
	s.notify.Metrics().OrderStatusChanged(string(status))
	s.notify.Publish(ctx, events.OrderStatusChanged, map[string]any{
		"sale_id": sale.ID,
		"from":    prev,
		"to":      status,
	})
	return &sale, nil
}

type MarkPaidResult struct {
	Sale        *models.Sale `json:"sale"`
	AlreadyPaid bool         `json:"already_paid"`
}

// MarkPaid settles a sale and its receivable. Repeating it is a no-op.
func (s *OrderService) MarkPaid(ctx context.Context, id uint) (*MarkPaidResult, error) {
	var sale models.Sale
	already := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&sale, id).Error; err != nil {
			return apperr.FromDB(err, "order")
		}
		if sale.PaymentCompleted {
			already = true
			return nil
		}
		if err := tx.Model(&sale).Update("payment_completed", true).Error; err != nil {
			return apperr.FromDB(err, "order")
		}
		sale.PaymentCompleted = true
		now := s.now()
		err := tx.Model(&models.Receivable{}).
			Where("sale_id = ? AND status = ?", id, models.StatusUnpaid).
			Updates(map[string]any{"status": models.StatusPaid, "paid_date": now}).Error
		return apperr.FromDB(err, "receivable")
	})
	if err != nil {
		return nil, err
	}
	return &MarkPaidResult{Sale: &sale, AlreadyPaid: already}, nil
}
