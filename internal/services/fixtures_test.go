package services_test

import (
	"testing"
	"time"

	"github.com/diewo77/go-bistro/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func mustDish(t *testing.T, conn *gorm.DB, name, category, price string) models.Dish {
	t.Helper()
	d := models.Dish{Name: name, Category: category, Price: decimal.RequireFromString(price), Status: models.DishAvailable}
	require.NoError(t, conn.Create(&d).Error)
	return d
}

func mustCustomer(t *testing.T, conn *gorm.DB, name, phone string) models.Customer {
	t.Helper()
	c := models.Customer{Name: name, Phone: phone, MemLevel: "Regular", RegDate: fixedNow, LastVisit: fixedNow}
	require.NoError(t, conn.Create(&c).Error)
	return c
}

func mustItem(t *testing.T, conn *gorm.DB, name string) models.Item {
	t.Helper()
	it := models.Item{Name: name, Category: "Dry", DefaultUnit: "kg"}
	require.NoError(t, conn.Create(&it).Error)
	return it
}

func mustVendor(t *testing.T, conn *gorm.DB, name string) models.Vendor {
	t.Helper()
	v := models.Vendor{Name: name, Type: models.VendorFood}
	require.NoError(t, conn.Create(&v).Error)
	return v
}

func mustSale(t *testing.T, conn *gorm.DB, at time.Time, status models.SaleStatus, total string, customerID *uint) models.Sale {
	t.Helper()
	s := models.Sale{SaleDate: at, Status: status, TotalAmount: decimal.RequireFromString(total), CustomerID: customerID, Channel: "Dine-in"}
	require.NoError(t, conn.Create(&s).Error)
	return s
}

func ptr[T any](v T) *T { return &v }
