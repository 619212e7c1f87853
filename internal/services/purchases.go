package services

import (
	"context"

	"github.com/diewo77/go-bistro/internal/apperr"
	"github.com/diewo77/go-bistro/internal/events"
	"github.com/diewo77/go-bistro/internal/logger"
	"github.com/diewo77/go-bistro/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchaseService places supply orders and receives them into stock.
type PurchaseService struct {
	base
	notify *Notifier
}

func NewPurchaseService(db *gorm.DB, logg *logger.Logger, notify *Notifier) *PurchaseService {
	return &PurchaseService{base: newBase(db, logg), notify: notify}
}

type PurchaseRow struct {
	models.Purchase
	VendorName string `json:"vendor_name"`
}

func (s *PurchaseService) List(ctx context.Context, status string, vendorID uint) ([]PurchaseRow, error) {
	q := s.db.WithContext(ctx).Preload("Vendor").Preload("Items.Item")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if vendorID != 0 {
		q = q.Where("vendor_id = ?", vendorID)
	}
	var purchases []models.Purchase
	if err := q.Order("order_date DESC, id DESC").Find(&purchases).Error; err != nil {
		return nil, apperr.FromDB(err, "purchase")
	}
	rows := make([]PurchaseRow, 0, len(purchases))
	for _, p := range purchases {
		rows = append(rows, purchaseRow(p))
	}
	return rows, nil
}

func purchaseRow(p models.Purchase) PurchaseRow {
	row := PurchaseRow{Purchase: p}
	if p.Vendor != nil {
		row.VendorName = p.Vendor.Name
	}
	return row
}

func (s *PurchaseService) Get(ctx context.Context, id uint) (*PurchaseRow, error) {
	var p models.Purchase
	if err := s.db.WithContext(ctx).Preload("Vendor").Preload("Items.Item").First(&p, id).Error; err != nil {
		return nil, apperr.FromDB(err, "purchase")
	}
	row := purchaseRow(p)
	return &row, nil
}

type PurchaseLineInput struct {
	ItemID    uint            `json:"item_id" validate:"required"`
	Quantity  float64         `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"gte=0"`
}

type PurchaseInput struct {
	VendorID uint                `json:"vendor_id" validate:"required"`
	StaffID  *uint               `json:"staff_id"`
	Notes    string              `json:"notes"`
	Items    []PurchaseLineInput `json:"items" validate:"required,min=1,dive"`
}

// Create stores a Pending purchase whose total is the sum of its lines.
func (s *PurchaseService) Create(ctx context.Context, in PurchaseInput) (*PurchaseRow, error) {
	if len(in.Items) == 0 {
		return nil, apperr.Validation("items", "is required")
	}
	vendorID := in.VendorID
	p := models.Purchase{
		OrderDate: s.now(),
		Status:    models.PurchasePending,
		VendorID:  &vendorID,
		StaffID:   in.StaffID,
		Notes:     in.Notes,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if ok, err := exists(tx, &models.Vendor{}, vendorID); err != nil {
			return apperr.FromDB(err, "vendor")
		} else if !ok {
			return apperr.NotFound("vendor")
		}
		total := decimal.Zero
		for _, line := range in.Items {
			if ok, err := exists(tx, &models.Item{}, line.ItemID); err != nil {
				return apperr.FromDB(err, "item")
			} else if !ok {
				return apperr.Newf(apperr.CodeNotFound, "item %d not found", line.ItemID)
			}
			item := models.PurchaseItem{ItemID: line.ItemID, Quantity: line.Quantity, UnitPrice: line.UnitPrice.Round(2)}
			item.TotalPrice = item.LineTotal()
			total = total.Add(item.TotalPrice)
			p.Items = append(p.Items, item)
		}
		p.TotalAmount = total
		return apperr.FromDB(tx.Create(&p).Error, "purchase")
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, p.ID)
}

// Receive completes a Pending purchase and stocks every line in one
// transaction.
func (s *PurchaseService) Receive(ctx context.Context, id uint) (*PurchaseRow, error) {
	now := s.now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Purchase
		if err := tx.Preload("Items").First(&p, id).Error; err != nil {
			return apperr.FromDB(err, "purchase")
		}
		switch p.Status {
		case models.PurchaseCompleted:
			return apperr.New(apperr.CodeStateConflict, "purchase already received").
				WithDetails(map[string]any{"status": p.Status})
		case models.PurchaseCancelled:
			return apperr.New(apperr.CodeStateConflict, "purchase was cancelled").
				WithDetails(map[string]any{"status": p.Status})
		}
		for _, line := range p.Items {
			if _, _, err := stockIn(tx, StockInInput{ItemID: line.ItemID, Quantity: line.Quantity, VendorID: p.VendorID}, now); err != nil {
				return err
			}
			err := tx.Model(&models.PurchaseItem{}).Where("id = ?", line.ID).
				Updates(map[string]any{"received_quantity": line.Quantity, "received_date": now}).Error
			if err != nil {
				return apperr.FromDB(err, "purchase item")
			}
		}
		return apperr.FromDB(tx.Model(&models.Purchase{}).Where("id = ?", id).
			Updates(map[string]any{"status": models.PurchaseCompleted, "delivery_date": now}).Error, "purchase")
	})
	if err != nil {
		return nil, err
	}
	row, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	for range row.Items {
		s.notify.Metrics().StockIn()
	}
	s.notify.Publish(ctx, events.PurchaseReceived, map[string]any{
		"purchase_id":  row.ID,
		"vendor_id":    row.VendorID,
		"total_amount": row.TotalAmount,
		"lines":        len(row.Items),
	})
	s.log.Info(s.log.WithField(ctx, "purchase_id", id), "purchase.received")
	return row, nil
}
