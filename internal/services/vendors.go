package services

import (
	"context"
	"strings"
	"time"

	"github.com/diewo77/go-bistro/internal/apperr"
	"github.com/diewo77/go-bistro/internal/logger"
	"github.com/diewo77/go-bistro/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VendorService manages suppliers, delivery platforms, maintenance
// providers and the payables raised against vendors.
type VendorService struct {
	base
}

func NewVendorService(db *gorm.DB, logg *logger.Logger) *VendorService {
	return &VendorService{base: newBase(db, logg)}
}

func (s *VendorService) List(ctx context.Context, search, vendorType string) ([]models.Vendor, error) {
	q := s.db.WithContext(ctx).Model(&models.Vendor{})
	if vendorType != "" {
		q = q.Where("type = ?", vendorType)
	}
	if search != "" {
		p := likePattern(search)
		q = q.Where("LOWER(name) LIKE ? OR LOWER(contact_person) LIKE ? OR LOWER(email) LIKE ?", p, p, p)
	}
	out := []models.Vendor{}
	if err := q.Order("name").Find(&out).Error; err != nil {
		return nil, apperr.FromDB(err, "vendor")
	}
	return out, nil
}

func (s *VendorService) Get(ctx context.Context, id uint) (*models.Vendor, error) {
	var v models.Vendor
	if err := s.db.WithContext(ctx).First(&v, id).Error; err != nil {
		return nil, apperr.FromDB(err, "vendor")
	}
	return &v, nil
}

type VendorInput struct {
	Name          string            `json:"name" validate:"required,max=100"`
	ContactPerson string            `json:"contact_person" validate:"max=50"`
	Phone         string            `json:"phone" validate:"max=20"`
	Email         string            `json:"email" validate:"omitempty,email,max=100"`
	Address       string            `json:"address" validate:"max=255"`
	Type          models.VendorType `json:"type" validate:"omitempty,oneof=Food Maintenance Delivery"`
	Description   string            `json:"description"`
}

func (s *VendorService) Create(ctx context.Context, in VendorInput) (*models.Vendor, error) {
	v := models.Vendor{
		Name:          strings.TrimSpace(in.Name),
		ContactPerson: in.ContactPerson,
		Phone:         in.Phone,
		Email:         in.Email,
		Address:       in.Address,
		Type:          in.Type,
		Description:   in.Description,
	}
	if v.Type == "" {
		v.Type = models.VendorFood
	}
	if err := s.db.WithContext(ctx).Create(&v).Error; err != nil {
		return nil, apperr.FromDB(err, "vendor")
	}
	return &v, nil
}

type VendorPatch struct {
	Name          *string            `json:"name" validate:"omitempty,min=1,max=100"`
	ContactPerson *string            `json:"contact_person" validate:"omitempty,max=50"`
	Phone         *string            `json:"phone" validate:"omitempty,max=20"`
	Email         *string            `json:"email" validate:"omitempty,email,max=100"`
	Address       *string            `json:"address" validate:"omitempty,max=255"`
	Type          *models.VendorType `json:"type" validate:"omitempty,oneof=Food Maintenance Delivery"`
	Description   *string            `json:"description"`
}

func (s *VendorService) Update(ctx context.Context, id uint, p VendorPatch) (*models.Vendor, error) {
	v, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	setString(&v.Name, p.Name)
	setString(&v.ContactPerson, p.ContactPerson)
	setString(&v.Phone, p.Phone)
	setString(&v.Email, p.Email)
	setString(&v.Address, p.Address)
	setString(&v.Description, p.Description)
	if p.Type != nil {
		v.Type = *p.Type
	}
	if err := s.db.WithContext(ctx).Save(v).Error; err != nil {
		return nil, apperr.FromDB(err, "vendor")
	}
	return v, nil
}

// Delete refuses vendors that still carry purchases or payables.
func (s *VendorService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if ok, err := exists(tx, &models.Vendor{}, id); err != nil {
			return apperr.FromDB(err, "vendor")
		} else if !ok {
			return apperr.NotFound("vendor")
		}
		for _, ref := range []any{&models.Purchase{}, &models.Payable{}} {
			var n int64
			if err := tx.Model(ref).Where("vendor_id = ?", id).Count(&n).Error; err != nil {
				return apperr.FromDB(err, "vendor")
			}
			if n > 0 {
				return apperr.New(apperr.CodeConflict, "vendor has purchases or payables")
			}
		}
		if err := tx.Model(&models.Inventory{}).Where("vendor_id = ?", id).Update("vendor_id", nil).Error; err != nil {
			return apperr.FromDB(err, "inventory")
		}
		if err := tx.Model(&models.BuyList{}).Where("vendor_id = ?", id).Update("vendor_id", nil).Error; err != nil {
			return apperr.FromDB(err, "buy list entry")
		}
		return apperr.FromDB(tx.Delete(&models.Vendor{}, id).Error, "vendor")
	})
}

type PayableInput struct {
	Amount     decimal.Decimal `json:"amount" validate:"required,gt=0"`
	DueDate    string          `json:"due_date" validate:"required,date"`
	PurchaseID *uint           `json:"purchase_id"`
}

// CreatePayable records an Unpaid amount owed to a vendor.
func (s *VendorService) CreatePayable(ctx context.Context, vendorID uint, in PayableInput) (*models.Payable, error) {
	due, err := parseDate("due_date", in.DueDate)
	if err != nil {
		return nil, err
	}
	if due == nil {
		return nil, apperr.Validation("due_date", "is required")
	}
	pay := models.Payable{
		VendorID:   vendorID,
		Amount:     in.Amount.Round(2),
		DueDate:    *due,
		PurchaseID: in.PurchaseID,
		Status:     models.StatusUnpaid,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if ok, err := exists(tx, &models.Vendor{}, vendorID); err != nil {
			return apperr.FromDB(err, "vendor")
		} else if !ok {
			return apperr.NotFound("vendor")
		}
		if in.PurchaseID != nil {
			if ok, err := exists(tx, &models.Purchase{}, *in.PurchaseID); err != nil {
				return apperr.FromDB(err, "purchase")
			} else if !ok {
				return apperr.NotFound("purchase")
			}
		}
		return apperr.FromDB(tx.Create(&pay).Error, "payable")
	})
	if err != nil {
		return nil, err
	}
	return &pay, nil
}

func (s *VendorService) ListPlatforms(ctx context.Context) ([]models.DeliveryPlatform, error) {
	out := []models.DeliveryPlatform{}
	if err := s.db.WithContext(ctx).Order("platform_name").Find(&out).Error; err != nil {
		return nil, apperr.FromDB(err, "delivery platform")
	}
	return out, nil
}

func (s *VendorService) GetPlatform(ctx context.Context, id uint) (*models.DeliveryPlatform, error) {
	var p models.DeliveryPlatform
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, apperr.FromDB(err, "delivery platform")
	}
	return &p, nil
}

type PlatformInput struct {
	PlatformName         *string  `json:"platform_name" validate:"omitempty,min=1,max=100"`
	ContactPerson        *string  `json:"contact_person" validate:"omitempty,max=50"`
	ContactPhone         *string  `json:"contact_phone" validate:"omitempty,max=20"`
	Email                *string  `json:"email" validate:"omitempty,email,max=100"`
	CommissionRate       *float64 `json:"commission_rate" validate:"omitempty,gte=0,lte=100"`
	SettlementCycle      *string  `json:"settlement_cycle" validate:"omitempty,max=50"`
	CooperationStartDate *string  `json:"cooperation_start_date" validate:"omitempty,date"`
	OrdersThisMonth      *int     `json:"orders_this_month" validate:"omitempty,gte=0"`
	Status               *string  `json:"status" validate:"omitempty,max=20"`
	Description          *string  `json:"description"`
}

func (in PlatformInput) apply(p *models.DeliveryPlatform) error {
	setString(&p.PlatformName, in.PlatformName)
	setString(&p.ContactPerson, in.ContactPerson)
	setString(&p.ContactPhone, in.ContactPhone)
	setString(&p.Email, in.Email)
	setString(&p.SettlementCycle, in.SettlementCycle)
	setString(&p.Status, in.Status)
	setString(&p.Description, in.Description)
	if in.CommissionRate != nil {
		p.CommissionRate = *in.CommissionRate
	}
	if in.OrdersThisMonth != nil {
		p.OrdersThisMonth = *in.OrdersThisMonth
	}
	if in.CooperationStartDate != nil {
		d, err := parseDate("cooperation_start_date", *in.CooperationStartDate)
		if err != nil {
			return err
		}
		p.CooperationStartDate = d
	}
	return nil
}

// CreatePlatform needs a name and a commission rate.
func (s *VendorService) CreatePlatform(ctx context.Context, in PlatformInput) (*models.DeliveryPlatform, error) {
	if in.PlatformName == nil || strings.TrimSpace(*in.PlatformName) == "" {
		return nil, apperr.Validation("platform_name", "is required")
	}
	if in.CommissionRate == nil {
		return nil, apperr.Validation("commission_rate", "is required")
	}
	p := models.DeliveryPlatform{Status: "Active"}
	if err := in.apply(&p); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, apperr.FromDB(err, "delivery platform")
	}
	return &p, nil
}

func (s *VendorService) UpdatePlatform(ctx context.Context, id uint, in PlatformInput) (*models.DeliveryPlatform, error) {
	p, err := s.GetPlatform(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.apply(p); err != nil {
		return nil, err
	}
	if p.PlatformName == "" {
		return nil, apperr.Validation("platform_name", "is required")
	}
	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		return nil, apperr.FromDB(err, "delivery platform")
	}
	return p, nil
}

func (s *VendorService) DeletePlatform(ctx context.Context, id uint) error {
	return deleteByID(ctx, s.db, &models.DeliveryPlatform{}, id, "delivery platform")
}

func deleteByID(ctx context.Context, db *gorm.DB, model any, id uint, what string) error {
	res := db.WithContext(ctx).Delete(model, id)
	if res.Error != nil {
		return apperr.FromDB(res.Error, what)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(what)
	}
	return nil
}

func (s *VendorService) ListProviders(ctx context.Context) ([]models.MaintenanceProvider, error) {
	out := []models.MaintenanceProvider{}
	if err := s.db.WithContext(ctx).Order("provider_name").Find(&out).Error; err != nil {
		return nil, apperr.FromDB(err, "maintenance provider")
	}
	return out, nil
}

func (s *VendorService) GetProvider(ctx context.Context, id uint) (*models.MaintenanceProvider, error) {
	var p models.MaintenanceProvider
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, apperr.FromDB(err, "maintenance provider")
	}
	return &p, nil
}

type ProviderInput struct {
	ProviderName       *string `json:"provider_name" validate:"omitempty,min=1,max=100"`
	ServiceType        *string `json:"service_type" validate:"omitempty,max=50"`
	ContactPerson      *string `json:"contact_person" validate:"omitempty,max=50"`
	ContactPhone       *string `json:"contact_phone" validate:"omitempty,max=20"`
	Email              *string `json:"email" validate:"omitempty,email,max=100"`
	ContractExpiryDate *string `json:"contract_expiry_date" validate:"omitempty,date"`
	LastServiceDate    *string `json:"last_service_date" validate:"omitempty,date"`
	NextServiceDate    *string `json:"next_service_date" validate:"omitempty,date"`
	MaintenanceCycle   *int    `json:"maintenance_cycle" validate:"omitempty,gte=0"`
	Status             *string `json:"status" validate:"omitempty,max=20"`
	Description        *string `json:"description"`
}

func (in ProviderInput) apply(p *models.MaintenanceProvider) error {
	setString(&p.ProviderName, in.ProviderName)
	setString(&p.ServiceType, in.ServiceType)
	setString(&p.ContactPerson, in.ContactPerson)
	setString(&p.ContactPhone, in.ContactPhone)
	setString(&p.Email, in.Email)
	setString(&p.Status, in.Status)
	setString(&p.Description, in.Description)
	if in.MaintenanceCycle != nil {
		p.MaintenanceCycle = *in.MaintenanceCycle
	}
	dates := []struct {
		field string
		raw   *string
		dst   **time.Time
	}{
		{"contract_expiry_date", in.ContractExpiryDate, &p.ContractExpiryDate},
		{"last_service_date", in.LastServiceDate, &p.LastServiceDate},
		{"next_service_date", in.NextServiceDate, &p.NextServiceDate},
	}
	for _, d := range dates {
		if d.raw == nil {
			continue
		}
		v, err := parseDate(d.field, *d.raw)
		if err != nil {
			return err
		}
		*d.dst = v
	}
	return nil
}

func (s *VendorService) CreateProvider(ctx context.Context, in ProviderInput) (*models.MaintenanceProvider, error) {
	if in.ProviderName == nil || strings.TrimSpace(*in.ProviderName) == "" {
		return nil, apperr.Validation("provider_name", "is required")
	}
	p := models.MaintenanceProvider{Status: "Active"}
	if err := in.apply(&p); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, apperr.FromDB(err, "maintenance provider")
	}
	return &p, nil
}

func (s *VendorService) UpdateProvider(ctx context.Context, id uint, in ProviderInput) (*models.MaintenanceProvider, error) {
	p, err := s.GetProvider(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.apply(p); err != nil {
		return nil, err
	}
	if p.ProviderName == "" {
		return nil, apperr.Validation("provider_name", "is required")
	}
	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		return nil, apperr.FromDB(err, "maintenance provider")
	}
	return p, nil
}

func (s *VendorService) DeleteProvider(ctx context.Context, id uint) error {
	return deleteByID(ctx, s.db, &models.MaintenanceProvider{}, id, "maintenance provider")
}
