package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type SettlementStatus string

const (
	StatusUnpaid    SettlementStatus = "Unpaid"
	StatusPaid      SettlementStatus = "Paid"
	StatusCancelled SettlementStatus = "Cancelled"
)

// Receivable is money a customer owes for a sale.
type Receivable struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	DueDate    time.Time        `gorm:"not null;index" json:"due_date"`
	Status     SettlementStatus `gorm:"size:20;default:'Unpaid';index" json:"status"`
	Amount     decimal.Decimal  `gorm:"type:numeric(10,2);not null" json:"amount"`
	SaleID     uint             `gorm:"not null" json:"sale_id"`
	Sale       *Sale            `gorm:"foreignKey:SaleID" json:"-"`
	CustomerID uint             `gorm:"not null;index" json:"customer_id"`
	Customer   *Customer        `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	PaidDate   *time.Time       `json:"paid_date"`
	CreatedAt  time.Time        `json:"created_at"`
}

func (r *Receivable) Overdue(today time.Time) bool {
	return r.Status == StatusUnpaid && r.DueDate.Before(today)
}

// Payable is money the business owes a vendor.
type Payable struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	Status     SettlementStatus `gorm:"size:20;default:'Unpaid';index" json:"status"`
	DueDate    time.Time        `gorm:"index" json:"due_date"`
	Amount     decimal.Decimal  `gorm:"type:numeric(10,2)" json:"amount"`
	PurchaseID *uint            `gorm:"index" json:"purchase_id"`
	VendorID   uint             `gorm:"index" json:"vendor_id"`
	Vendor     *Vendor          `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
	PaidDate   *time.Time       `json:"paid_date"`
	CreatedAt  time.Time        `json:"created_at"`
}

func (p *Payable) Overdue(today time.Time) bool {
	return p.Status == StatusUnpaid && p.DueDate.Before(today)
}
