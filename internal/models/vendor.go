package models

import "time"

type VendorType string

const (
	VendorFood        VendorType = "Food"
	VendorMaintenance VendorType = "Maintenance"
	VendorDelivery    VendorType = "Delivery"
)

type Vendor struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Name          string     `gorm:"size:100;not null" json:"name"`
	ContactPerson string     `gorm:"size:50" json:"contact_person"`
	Phone         string     `gorm:"size:20" json:"phone"`
	Email         string     `gorm:"size:100" json:"email"`
	Address       string     `gorm:"size:255" json:"address"`
	Type          VendorType `gorm:"size:50;default:'Food'" json:"type"`
	Description   string     `gorm:"type:text" json:"description"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// DeliveryPlatform is a third-party delivery partner taking a commission.
type DeliveryPlatform struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	PlatformName         string     `gorm:"size:100;not null" json:"platform_name"`
	ContactPerson        string     `gorm:"size:50" json:"contact_person"`
	ContactPhone         string     `gorm:"size:20" json:"contact_phone"`
	Email                string     `gorm:"size:100" json:"email"`
	CommissionRate       float64    `gorm:"not null" json:"commission_rate"`
	SettlementCycle      string     `gorm:"size:50" json:"settlement_cycle"`
	CooperationStartDate *time.Time `json:"cooperation_start_date"`
	OrdersThisMonth      int        `gorm:"default:0" json:"orders_this_month"`
	Status               string     `gorm:"size:20;default:'Active'" json:"status"`
	Description          string     `gorm:"type:text" json:"description"`
	CreatedAt            time.Time  `json:"created_at"`
}

// MaintenanceProvider services kitchen equipment and premises.
type MaintenanceProvider struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	ProviderName       string     `gorm:"size:100;not null" json:"provider_name"`
	ServiceType        string     `gorm:"size:50" json:"service_type"`
	ContactPerson      string     `gorm:"size:50" json:"contact_person"`
	ContactPhone       string     `gorm:"size:20" json:"contact_phone"`
	Email              string     `gorm:"size:100" json:"email"`
	ContractExpiryDate *time.Time `json:"contract_expiry_date"`
	LastServiceDate    *time.Time `json:"last_service_date"`
	NextServiceDate    *time.Time `json:"next_service_date"`
	MaintenanceCycle   int        `json:"maintenance_cycle"`
	Status             string     `gorm:"size:20;default:'Active'" json:"status"`
	Description        string     `gorm:"type:text" json:"description"`
	CreatedAt          time.Time  `json:"created_at"`
}
