package services_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/diewo77/go-bistro/internal/apperr"
	"github.com/diewo77/go-bistro/internal/dbtest"
	"github.com/diewo77/go-bistro/internal/models"
	"github.com/diewo77/go-bistro/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDishCreateWithIngredients(t *testing.T) {
	conn := dbtest.Open(t)
	svc := services.NewDishService(conn, nil)
	ctx := context.Background()
	flour := mustItem(t, conn, "Flour")

	d, err := svc.Create(ctx, services.DishInput{
		Name:        "Focaccia",
		Price:       decimal.RequireFromString("6.5"),
		Category:    "Sides",
		Ingredients: []services.IngredientInput{{ItemID: flour.ID, Quantity: 0.2}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.DishAvailable, d.Status)

	detail, err := svc.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, detail.Ingredients, 1)
	assert.Equal(t, "Flour", detail.Ingredients[0].ItemName)

	_, err = svc.Create(ctx, services.DishInput{
		Name:        "Ghost",
		Price:       decimal.NewFromInt(1),
		Ingredients: []services.IngredientInput{{ItemID: 999, Quantity: 1}},
	})
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
	var n int64
	require.NoError(t, conn.Model(&models.Dish{}).Where("name = ?", "Ghost").Count(&n).Error)
	assert.Zero(t, n)
}

func TestDishUpdateClearsDiscount(t *testing.T) {
	conn := dbtest.Open(t)
	svc := services.NewDishService(conn, nil)
	ctx := context.Background()
	d := mustDish(t, conn, "Calzone", "Pizza", "12.00")

	var p services.DishPatch
	require.NoError(t, json.Unmarshal([]byte(`{"discount_price": 9.5}`), &p))
	got, err := svc.Update(ctx, d.ID, p)
	require.NoError(t, err)
	require.True(t, got.DiscountPrice.Valid)
	assert.True(t, decimal.RequireFromString("9.5").Equal(got.DiscountPrice.Decimal))

	p = services.DishPatch{}
	require.NoError(t, json.Unmarshal([]byte(`{"discount_price": null}`), &p))
	got, err = svc.Update(ctx, d.ID, p)
	require.NoError(t, err)
	assert.False(t, got.DiscountPrice.Valid)
	assert.True(t, decimal.NewFromInt(12).Equal(got.EffectivePrice()))
}

func TestDishDeleteRefusesSoldDish(t *testing.T) {
	conn := dbtest.Open(t)
	svc := services.NewDishService(conn, nil)
	ctx := context.Background()
	sold := mustDish(t, conn, "Sold", "Pizza", "10")
	fresh := mustDish(t, conn, "Fresh", "Salad", "7")
	sale := models.Sale{SaleDate: fixedNow, Status: models.SaleCompleted, Lines: []models.SaleDish{{DishID: sold.ID, Quantity: 1, UnitPrice: sold.Price}}}
	require.NoError(t, conn.Create(&sale).Error)

	assert.True(t, apperr.Is(svc.Delete(ctx, sold.ID), apperr.CodeConflict))
	require.NoError(t, svc.Delete(ctx, fresh.ID))
	assert.True(t, apperr.Is(svc.Delete(ctx, fresh.ID), apperr.CodeNotFound))
}

func TestDishCategoryStatsAndExport(t *testing.T) {
	conn := dbtest.Open(t)
	svc := services.NewDishService(conn, nil)
	ctx := context.Background()
	mustDish(t, conn, "Margherita", "Pizza", "10")
	mustDish(t, conn, "Diavola", "Pizza", "11")
	mustDish(t, conn, "Tiramisu", "Dessert", "5")
	mustDish(t, conn, "Water", "Drinks", "1.5")

	stats, err := svc.CategoryStats(ctx)
	require.NoError(t, err)
	byCat := map[string]services.CategoryStat{}
	for _, s := range stats {
		byCat[s.Category] = s
	}
	assert.EqualValues(t, 2, byCat["Pizza"].Count)
	assert.Equal(t, 50.0, byCat["Pizza"].Percentage)
	assert.EqualValues(t, 1, byCat["Other"].Count)
	assert.Contains(t, byCat, "Salad")

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(ctx, &buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "ID,Name,Category,Price,Description,Status,Image", lines[0])
	assert.Contains(t, lines[4], "Water,Drinks,1.50")

	assert.Equal(t, "products_20260310_120000.csv", services.ExportFilename(fixedNow))
}

func TestMenuGroupsAvailableDishes(t *testing.T) {
	conn := dbtest.Open(t)
	svc := services.NewDishService(conn, nil)
	mustDish(t, conn, "Margherita", "Pizza", "10")
	off := mustDish(t, conn, "Seasonal", "Pizza", "14")
	require.NoError(t, conn.Model(&off).Update("status", models.DishUnavailable).Error)
	mustDish(t, conn, "Cola", "Drinks", "2")

	menu, err := svc.Menu(context.Background())
	require.NoError(t, err)
	require.Len(t, menu, 2)
	assert.Equal(t, "Drinks", menu[0].Category)
	assert.Equal(t, "Pizza", menu[1].Category)
	assert.Len(t, menu[1].Dishes, 1)
}
