package services_test

import (
	"context"
	"testing"

	"github.com/diewo77/go-bistro/internal/apperr"
	"github.com/diewo77/go-bistro/internal/dbtest"
	"github.com/diewo77/go-bistro/internal/models"
	"github.com/diewo77/go-bistro/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVendorCRUDAndSearch(t *testing.T) {
	conn := dbtest.Open(t)
	svc := services.NewVendorService(conn, nil)
	ctx := context.Background()

	v, err := svc.Create(ctx, services.VendorInput{Name: "Green Farm", ContactPerson: "Lou"})
	require.NoError(t, err)
	assert.Equal(t, models.VendorFood, v.Type)
	_, err = svc.Create(ctx, services.VendorInput{Name: "FixIt", Type: models.VendorMaintenance})
	require.NoError(t, err)

	found, err := svc.List(ctx, "lou", "")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Green Farm", found[0].Name)
	found, err = svc.List(ctx, "", string(models.VendorMaintenance))
	require.NoError(t, err)
	require.Len(t, found, 1)

	got, err := svc.Update(ctx, v.ID, services.VendorPatch{Phone: ptr("555-0500")})
	require.NoError(t, err)
	assert.Equal(t, "555-0500", got.Phone)
	assert.Equal(t, "Green Farm", got.Name)

	require.NoError(t, svc.Delete(ctx, v.ID))
	_, err = svc.Get(ctx, v.ID)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestVendorDeleteRefusedWithPayables(t *testing.T) {
	conn := dbtest.Open(t)
	svc := services.NewVendorService(conn, nil)
	ctx := context.Background()
	v := mustVendor(t, conn, "Mill")

	pay, err := svc.CreatePayable(ctx, v.ID, services.PayableInput{Amount: decimal.RequireFromString("120.456"), DueDate: "2026-04-01"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnpaid, pay.Status)
	assert.Equal(t, "120.46", pay.Amount.StringFixed(2))

	assert.True(t, apperr.Is(svc.Delete(ctx, v.ID), apperr.CodeConflict))
}

func TestCreatePayableValidation(t *testing.T) {
	conn := dbtest.Open(t)
	svc := services.NewVendorService(conn, nil)
	ctx := context.Background()
	v := mustVendor(t, conn, "Mill")

	_, err := svc.CreatePayable(ctx, 999, services.PayableInput{Amount: decimal.NewFromInt(1), DueDate: "2026-04-01"})
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
	_, err = svc.CreatePayable(ctx, v.ID, services.PayableInput{Amount: decimal.NewFromInt(1), DueDate: "April"})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
	_, err = svc.CreatePayable(ctx, v.ID, services.PayableInput{Amount: decimal.NewFromInt(1), DueDate: "2026-04-01", PurchaseID: ptr(uint(5))})
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestDeliveryPlatformsAndProviders(t *testing.T) {
	conn := dbtest.Open(t)
	svc := services.NewVendorService(conn, nil)
	ctx := context.Background()

	_, err := svc.CreatePlatform(ctx, services.PlatformInput{PlatformName: ptr("Rush")})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))

	p, err := svc.CreatePlatform(ctx, services.PlatformInput{
		PlatformName:         ptr("Rush"),
		CommissionRate:       ptr(18.5),
		CooperationStartDate: ptr("2025-01-15"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Active", p.Status)
	require.NotNil(t, p.CooperationStartDate)

	p, err = svc.UpdatePlatform(ctx, p.ID, services.PlatformInput{OrdersThisMonth: ptr(42)})
	require.NoError(t, err)
	assert.Equal(t, 42, p.OrdersThisMonth)
	assert.Equal(t, 18.5, p.CommissionRate)

	require.NoError(t, svc.DeletePlatform(ctx, p.ID))
	assert.True(t, apperr.Is(svc.DeletePlatform(ctx, p.ID), apperr.CodeNotFound))

	_, err = svc.CreateProvider(ctx, services.ProviderInput{ServiceType: ptr("HVAC")})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
	mp, err := svc.CreateProvider(ctx, services.ProviderInput{ProviderName: ptr("CoolAir"), NextServiceDate: ptr("2026-05-01")})
	require.NoError(t, err)
	require.NotNil(t, mp.NextServiceDate)
	list, err := svc.ListProviders(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
