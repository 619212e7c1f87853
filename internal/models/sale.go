package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type SaleStatus string

const (
	SalePending    SaleStatus = "Pending"
	SaleProcessing SaleStatus = "Processing"
	SaleDelivered  SaleStatus = "Delivered"
	SaleCompleted  SaleStatus = "Completed"
	SaleCancelled  SaleStatus = "Cancelled"
)

var SaleStatuses = []SaleStatus{SalePending, SaleProcessing, SaleDelivered, SaleCompleted, SaleCancelled}

func (s SaleStatus) Valid() bool {
	for _, v := range SaleStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Sale is a customer order.
type Sale struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	SaleDate         time.Time       `gorm:"index" json:"sale_date"`
	TotalAmount      decimal.Decimal `gorm:"type:numeric(10,2);default:0" json:"total_amount"`
	DiscountAmount   decimal.Decimal `gorm:"type:numeric(10,2);default:0" json:"discount_amount"`
	Status           SaleStatus      `gorm:"size:20;index" json:"status"`
	OrderType        string          `gorm:"size:20" json:"order_type"`
	Channel          string          `gorm:"size:20" json:"channel"`
	CustomerID       *uint           `gorm:"index" json:"customer_id"`
	Customer         *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	PaymentCompleted bool            `gorm:"not null;default:false" json:"payment_completed"`

	Lines []SaleDish `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE" json:"lines,omitempty"`
}

// LinesTotal sums the line subtotals before any discount.
func (s *Sale) LinesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// SaleDish is one order line.
type SaleDish struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	SaleID    uint            `gorm:"index;not null" json:"sale_id"`
	DishID    uint            `gorm:"index;not null" json:"dish_id"`
	Dish      *Dish           `gorm:"foreignKey:DishID" json:"dish,omitempty"`
	Quantity  int             `gorm:"default:1" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"unit_price"`
}

func (l SaleDish) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
