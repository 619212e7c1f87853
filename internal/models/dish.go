package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DishStatus string

const (
	DishAvailable   DishStatus = "Available"
	DishUnavailable DishStatus = "Unavailable"
)

// DishCategories is the fixed category list offered by the management UI.
var DishCategories = []string{"Pizza", "Sides", "Salad", "Drinks"}

// Dish is a menu item.
type Dish struct {
	ID            uint                `gorm:"primaryKey" json:"id"`
	Name          string              `gorm:"size:100;not null" json:"name"`
	Price         decimal.Decimal     `gorm:"type:numeric(10,2);not null" json:"price"`
	DiscountPrice decimal.NullDecimal `gorm:"type:numeric(10,2)" json:"discount_price"`
	Category      string              `gorm:"size:50;index" json:"category"`
	Description   string              `gorm:"type:text" json:"description"`
	Status        DishStatus          `gorm:"size:20;default:'Available'" json:"status"`
	ImageURL      string              `gorm:"size:255" json:"image_url"`
	CreatedAt     time.Time           `json:"created_at"`

	Ingredients []DishIngredient `gorm:"foreignKey:DishID;constraint:OnDelete:CASCADE" json:"ingredients,omitempty"`
}

// EffectivePrice is the price charged on a new order line.
func (d *Dish) EffectivePrice() decimal.Decimal {
	if d.DiscountPrice.Valid {
		return d.DiscountPrice.Decimal
	}
	return d.Price
}

func (d *Dish) IsAvailable() bool { return d.Status == DishAvailable }

// DishIngredient is the quantity of an Item consumed by one portion of a Dish.
type DishIngredient struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	DishID   uint    `gorm:"index;not null" json:"dish_id"`
	ItemID   uint    `gorm:"index;not null" json:"item_id"`
	Item     *Item   `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	Quantity float64 `gorm:"not null" json:"quantity"`
}
