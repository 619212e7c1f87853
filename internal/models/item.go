package models

import "time"

// Item is a raw material kept in stock.
type Item struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Category    string    `gorm:"size:50" json:"category"`
	Description string    `gorm:"type:text" json:"description"`
	DefaultUnit string    `gorm:"size:20;default:'pcs'" json:"default_unit"`
	CreatedAt   time.Time `json:"created_at"`
}

type StockStatus string

const (
	StockLow    StockStatus = "Low"
	StockNormal StockStatus = "Normal"
	StockNone   StockStatus = "None"
)

// DefaultReorderLevel applies when a new inventory row omits one.
const DefaultReorderLevel = 10.0

// Inventory holds the stock level of one Item.
type Inventory struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	ItemID           uint       `gorm:"uniqueIndex;not null" json:"item_id"`
	Item             *Item      `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	StockLevel       float64    `gorm:"not null" json:"stock_level"`
	ReorderLevel     float64    `gorm:"not null" json:"reorder_level"`
	LastPurchaseDate *time.Time `json:"last_purchase_date"`
	LastUpdate       time.Time  `gorm:"autoUpdateTime" json:"last_update"`
	VendorID         *uint      `gorm:"index" json:"vendor_id"`
	Vendor           *Vendor    `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
}

func (Inventory) TableName() string { return "inventory" }

func (i *Inventory) Status() StockStatus {
	if i.StockLevel <= i.ReorderLevel {
		return StockLow
	}
	return StockNormal
}

// FillRatio is stock over reorder level; rows without a reorder level sort
// after every real ratio.
func (i *Inventory) FillRatio() float64 {
	if i.ReorderLevel <= 0 {
		return 1e18
	}
	return i.StockLevel / i.ReorderLevel
}

// BuyList records one stock-in receipt.
type BuyList struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ItemID       uint      `gorm:"index;not null" json:"item_id"`
	Item         *Item     `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	Quantity     float64   `gorm:"not null" json:"quantity"`
	VendorID     *uint     `gorm:"index" json:"vendor_id"`
	Vendor       *Vendor   `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
	PurchaseDate time.Time `gorm:"index" json:"purchase_date"`
}

func (BuyList) TableName() string { return "buy_list" }
