package services_test

import (
	"context"
	"testing"

	"github.com/diewo77/go-bistro/internal/apperr"
	"github.com/diewo77/go-bistro/internal/dbtest"
	"github.com/diewo77/go-bistro/internal/events"
	"github.com/diewo77/go-bistro/internal/models"
	"github.com/diewo77/go-bistro/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurchaseLifecycle(t *testing.T) {
	conn := dbtest.Open(t)
	rec := &events.Recorder{}
	svc := services.NewPurchaseService(conn, nil, services.NewNotifier(rec, nil, nil))
	svc.SetClock(clock)
	ctx := context.Background()
	mill := mustVendor(t, conn, "Mill")
	flour := mustItem(t, conn, "Flour")
	yeast := mustItem(t, conn, "Yeast")

	p, err := svc.Create(ctx, services.PurchaseInput{
		VendorID: mill.ID,
		Items: []services.PurchaseLineInput{
			{ItemID: flour.ID, Quantity: 10, UnitPrice: decimal.RequireFromString("1.20")},
			{ItemID: yeast.ID, Quantity: 2.5, UnitPrice: decimal.RequireFromString("4.00")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.PurchasePending, p.Status)
	assert.True(t, decimal.NewFromInt(22).Equal(p.TotalAmount), p.TotalAmount.String())
	assert.Equal(t, "Mill", p.VendorName)
	require.Len(t, p.Items, 2)

	got, err := svc.Receive(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseCompleted, got.Status)
	require.NotNil(t, got.DeliveryDate)
	for _, line := range got.Items {
		assert.Equal(t, line.Quantity, line.ReceivedQuantity)
		assert.NotNil(t, line.ReceivedDate)
	}

	var inv models.Inventory
	require.NoError(t, conn.Where("item_id = ?", flour.ID).First(&inv).Error)
	assert.Equal(t, 10.0, inv.StockLevel)
	require.NotNil(t, inv.VendorID)
	assert.Equal(t, mill.ID, *inv.VendorID)
	var entries int64
	require.NoError(t, conn.Model(&models.BuyList{}).Count(&entries).Error)
	assert.EqualValues(t, 2, entries)
	assert.Len(t, rec.Named(events.PurchaseReceived), 1)

	_, err = svc.Receive(ctx, p.ID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeStateConflict))
	require.NoError(t, conn.Where("item_id = ?", flour.ID).First(&inv).Error)
	assert.Equal(t, 10.0, inv.StockLevel)
}

func TestCreatePurchaseUnknownRefs(t *testing.T) {
	conn := dbtest.Open(t)
	svc := services.NewPurchaseService(conn, nil, nil)
	flour := mustItem(t, conn, "Flour")
	mill := mustVendor(t, conn, "Mill")

	_, err := svc.Create(context.Background(), services.PurchaseInput{VendorID: 99, Items: []services.PurchaseLineInput{{ItemID: flour.ID, Quantity: 1}}})
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
	_, err = svc.Create(context.Background(), services.PurchaseInput{VendorID: mill.ID, Items: []services.PurchaseLineInput{{ItemID: 99, Quantity: 1}}})
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	var n int64
	require.NoError(t, conn.Model(&models.Purchase{}).Count(&n).Error)
	assert.Zero(t, n)
}
