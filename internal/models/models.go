// Package models declares the persistent entities of the back office.
package models

import "github.com/shopspring/decimal"

func init() {
	// Money is emitted as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// All lists every entity in dependency order for AutoMigrate.
func All() []any {
	return []any{
		&Permission{},
		&Profile{},
		&User{},
		&Vendor{},
		&DeliveryPlatform{},
		&MaintenanceProvider{},
		&Item{},
		&Dish{},
		&DishIngredient{},
		&Inventory{},
		&BuyList{},
		&Customer{},
		&Staff{},
		&Purchase{},
		&PurchaseItem{},
		&Sale{},
		&SaleDish{},
		&Receivable{},
		&Payable{},
		&Feedback{},
	}
}
