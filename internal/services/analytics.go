package services

import (
	"context"
	"time"

	"github.com/diewo77/go-bistro/internal/apperr"
	"github.com/diewo77/go-bistro/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type dishRanking struct {
	Since    *time.Time
	Statuses []models.SaleStatus
	// ByRevenue ranks on revenue instead of quantity.
	ByRevenue bool
	Limit     int
}

// rankDishes aggregates sale lines per dish.
func rankDishes(ctx context.Context, db *gorm.DB, r dishRanking) ([]Bestseller, error) {
	if len(r.Statuses) == 0 {
		r.Statuses = []models.SaleStatus{models.SaleCompleted}
	}
	q := db.WithContext(ctx).Table("sale_dishes AS sd").
		Select(`d.id AS dish_id, d.name AS name, d.category AS category,
			COUNT(DISTINCT s.id) AS order_count,
			COALESCE(SUM(sd.quantity), 0) AS total_quantity,
			COALESCE(SUM(sd.quantity * sd.unit_price), 0) AS revenue`).
		Joins("JOIN sales s ON s.id = sd.sale_id").
		Joins("JOIN dishes d ON d.id = sd.dish_id").
		Where("s.status IN ?", r.Statuses).
		Group("d.id, d.name, d.category")
	if r.Since != nil {
		q = q.Where("s.sale_date >= ?", *r.Since)
	}
	if r.ByRevenue {
		q = q.Order("revenue DESC, d.name")
	} else {
		q = q.Order("total_quantity DESC, d.name")
	}
	if r.Limit > 0 {
		q = q.Limit(r.Limit)
	}
	rows := []Bestseller{}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, apperr.FromDB(err, "sale")
	}
	for i := range rows {
		rows[i].Revenue = rows[i].Revenue.Round(2)
	}
	return rows, nil
}

// sumColumn adds up a money column over the rows q selects.
func sumColumn(q *gorm.DB, column string) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	if err := q.Select("SUM(" + column + ")").Row().Scan(&total); err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal.Round(2), nil
}

type saleStamp struct {
	SaleDate    time.Time
	TotalAmount decimal.Decimal
	CustomerID  *uint
	Channel     string
	Status      models.SaleStatus
}

// saleStamps loads the light columns of sales in [from, to) for bucketing.
func saleStamps(ctx context.Context, db *gorm.DB, from, to time.Time, statuses ...models.SaleStatus) ([]saleStamp, error) {
	q := db.WithContext(ctx).Model(&models.Sale{}).
		Select("sale_date, total_amount, customer_id, channel, status").
		Where("sale_date >= ? AND sale_date < ?", from, to)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var rows []saleStamp
	if err := q.Scan(&rows).Error; err != nil {
		return nil, apperr.FromDB(err, "sale")
	}
	return rows, nil
}
