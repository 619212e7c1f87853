package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "Pending"
	PurchaseCompleted PurchaseStatus = "Completed"
	PurchaseCancelled PurchaseStatus = "Cancelled"
)

// Purchase is a supply order placed with a vendor.
type Purchase struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	OrderDate    time.Time       `gorm:"index" json:"order_date"`
	DeliveryDate *time.Time      `json:"delivery_date"`
	Status       PurchaseStatus  `gorm:"size:20;default:'Pending';index" json:"status"`
	VendorID     *uint           `gorm:"index" json:"vendor_id"`
	Vendor       *Vendor         `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
	StaffID      *uint           `json:"staff_id"`
	TotalAmount  decimal.Decimal `gorm:"type:numeric(10,2);default:0" json:"total_amount"`
	Notes        string          `gorm:"type:text" json:"notes"`
	CreatedAt    time.Time       `json:"created_at"`

	Items []PurchaseItem `gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

type PurchaseItem struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	PurchaseID       uint            `gorm:"index;not null" json:"purchase_id"`
	ItemID           uint            `gorm:"index;not null" json:"item_id"`
	Item             *Item           `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	Quantity         float64         `gorm:"not null" json:"quantity"`
	UnitPrice        decimal.Decimal `gorm:"type:numeric(10,2)" json:"unit_price"`
	TotalPrice       decimal.Decimal `gorm:"type:numeric(10,2)" json:"total_price"`
	ReceivedQuantity float64         `gorm:"default:0" json:"received_quantity"`
	ReceivedDate     *time.Time      `json:"received_date"`
}

// LineTotal is quantity times unit price, rounded to cents.
func (p PurchaseItem) LineTotal() decimal.Decimal {
	return p.UnitPrice.Mul(decimal.NewFromFloat(p.Quantity)).Round(2)
}
