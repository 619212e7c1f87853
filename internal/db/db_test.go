package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/diewo77/go-bistro/gate"
	"github.com/diewo77/go-bistro/internal/db"
	"github.com/diewo77/go-bistro/internal/dbtest"
	"github.com/diewo77/go-bistro/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMigrateIsRepeatable(t *testing.T) {
	conn := dbtest.Open(t)
	require.NoError(t, db.Migrate(context.Background(), conn))
	assert.True(t, conn.Migrator().HasTable(&models.Sale{}))
	assert.True(t, conn.Migrator().HasTable("buy_list"))
	assert.True(t, conn.Migrator().HasIndex(&models.Receivable{}, "ux_receivables_sale_id"))
}

func TestReceivableUniquePerSale(t *testing.T) {
	conn := dbtest.Open(t)
	cust := models.Customer{Name: "Ann", Phone: "1"}
	require.NoError(t, conn.Create(&cust).Error)
	sale := models.Sale{SaleDate: time.Now(), Status: models.SalePending, CustomerID: &cust.ID}
	require.NoError(t, conn.Create(&sale).Error)

	first := models.Receivable{SaleID: sale.ID, CustomerID: cust.ID, Amount: decimal.NewFromInt(10), DueDate: time.Now()}
	require.NoError(t, conn.Create(&first).Error)
	second := models.Receivable{SaleID: sale.ID, CustomerID: cust.ID, Amount: decimal.NewFromInt(10), DueDate: time.Now()}
	assert.Error(t, conn.Create(&second).Error)
}

func TestSeedProfiles(t *testing.T) {
	conn := dbtest.Open(t)
	ctx := context.Background()
	require.NoError(t, db.SeedProfiles(ctx, conn))
	// second run must not duplicate anything
	require.NoError(t, db.SeedProfiles(ctx, conn))

	var count int64
	require.NoError(t, conn.Model(&models.Profile{}).Count(&count).Error)
	assert.EqualValues(t, len(db.SystemProfiles()), count)

	var cashier models.Profile
	require.NoError(t, conn.Preload("Permissions").Where("name = ?", "cashier").First(&cashier).Error)
	g := cashier.Gate()
	assert.True(t, g.HasPermission("order:create"))
	assert.True(t, g.HasPermission("feedback:update"))
	assert.False(t, g.HasPermission("finance:view"))

	var viewer models.Profile
	require.NoError(t, conn.Preload("Permissions").Where("name = ?", "viewer").First(&viewer).Error)
	vg := viewer.Gate()
	assert.True(t, vg.HasPermission("staff:list"))
	assert.False(t, vg.HasPermission(gate.NewPermission("staff", gate.ActionDelete)))
}

func TestSeedAdmin(t *testing.T) {
	conn := dbtest.Seeded(t)
	ctx := context.Background()

	created, err := db.SeedAdmin(ctx, conn, "boss@bistro.local", "s3cret!")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = db.SeedAdmin(ctx, conn, "boss@bistro.local", "other")
	require.NoError(t, err)
	assert.False(t, created)

	var u models.User
	require.NoError(t, conn.Preload("Profile").Where("email = ?", "boss@bistro.local").First(&u).Error)
	require.NotNil(t, u.Profile)
	assert.Equal(t, "admin", u.Profile.Name)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("s3cret!")))

	created, err = db.SeedAdmin(ctx, conn, "x@y.z", "")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestSeedDemo(t *testing.T) {
	conn := dbtest.Open(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 15, 15, 0, 0, 0, time.UTC)
	require.NoError(t, db.SeedDemo(ctx, conn, now))

	var dishes, sales, receivables int64
	conn.Model(&models.Dish{}).Count(&dishes)
	conn.Model(&models.Sale{}).Count(&sales)
	conn.Model(&models.Receivable{}).Count(&receivables)
	assert.EqualValues(t, 5, dishes)
	assert.EqualValues(t, 6, sales)
	// only the unpaid order with a customer owes money
	assert.EqualValues(t, 1, receivables)

	var low int64
	conn.Model(&models.Inventory{}).Where("stock_level <= reorder_level").Count(&low)
	assert.EqualValues(t, 2, low)

	// loading twice leaves the data alone
	require.NoError(t, db.SeedDemo(ctx, conn, now))
	conn.Model(&models.Sale{}).Count(&sales)
	assert.EqualValues(t, 6, sales)
}
