package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/diewo77/go-bistro/internal/apperr"
	"github.com/diewo77/go-bistro/internal/events"
	"github.com/diewo77/go-bistro/internal/logger"
	"github.com/diewo77/go-bistro/internal/models"
	"gorm.io/gorm"
)

type InventoryService struct {
	base
	notify *Notifier
}

func NewInventoryService(db *gorm.DB, logg *logger.Logger, notify *Notifier) *InventoryService {
	return &InventoryService{base: newBase(db, logg), notify: notify}
}

type InventoryRow struct {
	ID               uint               `json:"id"`
	ItemID           uint               `json:"item_id"`
	ItemName         string             `json:"item_name"`
	Unit             string             `json:"unit"`
	StockLevel       float64            `json:"stock_level"`
	ReorderLevel     float64            `json:"reorder_level"`
	Status           models.StockStatus `json:"status"`
	LastPurchaseDate *time.Time         `json:"last_purchase_date"`
	LastUpdate       time.Time          `json:"last_update"`
	VendorID         *uint              `json:"vendor_id"`
	VendorName       string             `json:"vendor_name"`
}

func inventoryRow(inv models.Inventory) InventoryRow {
	row := InventoryRow{
		ID:               inv.ID,
		ItemID:           inv.ItemID,
		StockLevel:       inv.StockLevel,
		ReorderLevel:     inv.ReorderLevel,
		Status:           inv.Status(),
		LastPurchaseDate: inv.LastPurchaseDate,
		LastUpdate:       inv.LastUpdate,
		VendorID:         inv.VendorID,
	}
	if inv.Item != nil {
		row.ItemName = inv.Item.Name
		row.Unit = inv.Item.DefaultUnit
	}
	if inv.Vendor != nil {
		row.VendorName = inv.Vendor.Name
	}
	return row
}

// List returns every inventory row, optionally for a single item.
func (s *InventoryService) List(ctx context.Context, itemID uint) ([]InventoryRow, error) {
	q := s.db.WithContext(ctx).Preload("Item").Preload("Vendor").Order("id")
	if itemID != 0 {
		q = q.Where("item_id = ?", itemID)
	}
	var invs []models.Inventory
	if err := q.Find(&invs).Error; err != nil {
		return nil, apperr.FromDB(err, "inventory")
	}
	rows := make([]InventoryRow, 0, len(invs))
	for _, inv := range invs {
		rows = append(rows, inventoryRow(inv))
	}
	return rows, nil
}

// LowStock returns rows at or under their reorder level, emptiest first.
// Every row read here raises an inventory.low_stock event.
func (s *InventoryService) LowStock(ctx context.Context) ([]InventoryRow, error) {
	var invs []models.Inventory
	err := s.db.WithContext(ctx).Preload("Item").Preload("Vendor").
		Where("stock_level <= reorder_level").Find(&invs).Error
	if err != nil {
		return nil, apperr.FromDB(err, "inventory")
	}
	sort.SliceStable(invs, func(i, j int) bool { return invs[i].FillRatio() < invs[j].FillRatio() })
	rows := make([]InventoryRow, 0, len(invs))
	for _, inv := range invs {
		row := inventoryRow(inv)
		rows = append(rows, row)
		s.notify.Publish(ctx, events.InventoryLowStock, map[string]any{
			"item_id":       row.ItemID,
			"item_name":     row.ItemName,
			"stock_level":   row.StockLevel,
			"reorder_level": row.ReorderLevel,
		})
	}
	s.notify.Metrics().SetLowStock(len(rows))
	return rows, nil
}

type InventoryInput struct {
	ItemID       uint     `json:"item_id" validate:"required"`
	StockLevel   float64  `json:"stock_level" validate:"gte=0"`
	ReorderLevel *float64 `json:"reorder_level" validate:"omitempty,gte=0"`
	VendorID     *uint    `json:"vendor_id"`
}

func (s *InventoryService) Create(ctx context.Context, in InventoryInput) (*InventoryRow, error) {
	inv := models.Inventory{
		ItemID:       in.ItemID,
		StockLevel:   in.StockLevel,
		ReorderLevel: models.DefaultReorderLevel,
		VendorID:     in.VendorID,
		LastUpdate:   s.now(),
	}
	if in.ReorderLevel != nil {
		inv.ReorderLevel = *in.ReorderLevel
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if ok, err := exists(tx, &models.Item{}, in.ItemID); err != nil {
			return apperr.FromDB(err, "item")
		} else if !ok {
			return apperr.NotFound("item")
		}
		var n int64
		if err := tx.Model(&models.Inventory{}).Where("item_id = ?", in.ItemID).Count(&n).Error; err != nil {
			return apperr.FromDB(err, "inventory")
		}
		if n > 0 {
			return apperr.New(apperr.CodeConflict, "inventory already exists for this item")
		}
		if err := checkVendor(tx, in.VendorID); err != nil {
			return err
		}
		return apperr.FromDB(tx.Create(&inv).Error, "inventory")
	})
	if err != nil {
		return nil, err
	}
	return s.row(ctx, inv.ID)
}

func checkVendor(tx *gorm.DB, id *uint) error {
	if id == nil {
		return nil
	}
	ok, err := exists(tx, &models.Vendor{}, *id)
	if err != nil {
		return apperr.FromDB(err, "vendor")
	}
	if !ok {
		return apperr.NotFound("vendor")
	}
	return nil
}

func (s *InventoryService) row(ctx context.Context, id uint) (*InventoryRow, error) {
	var inv models.Inventory
	if err := s.db.WithContext(ctx).Preload("Item").Preload("Vendor").First(&inv, id).Error; err != nil {
		return nil, apperr.FromDB(err, "inventory")
	}
	row := inventoryRow(inv)
	return &row, nil
}

type InventoryPatch struct {
	StockLevel   *float64       `json:"stock_level" validate:"omitempty,gte=0"`
	ReorderLevel *float64       `json:"reorder_level" validate:"omitempty,gte=0"`
	VendorID     Nullable[uint] `json:"vendor_id"`
}

func (s *InventoryService) Update(ctx context.Context, id uint, p InventoryPatch) (*InventoryRow, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv models.Inventory
		if err := tx.First(&inv, id).Error; err != nil {
			return apperr.FromDB(err, "inventory")
		}
		if p.StockLevel != nil {
			inv.StockLevel = *p.StockLevel
		}
		if p.ReorderLevel != nil {
			inv.ReorderLevel = *p.ReorderLevel
		}
		if p.VendorID.Set {
			v := p.VendorID.Ptr()
			if v != nil && *v == 0 {
				v = nil
			}
			if err := checkVendor(tx, v); err != nil {
				return err
			}
			inv.VendorID = v
		}
		inv.LastUpdate = s.now()
		inv.Item, inv.Vendor = nil, nil
		return apperr.FromDB(tx.Save(&inv).Error, "inventory")
	})
	if err != nil {
		return nil, err
	}
	return s.row(ctx, id)
}

type StockInInput struct {
	ItemID   uint    `json:"item_id" validate:"required"`
	Quantity float64 `json:"quantity" validate:"gt=0"`
	VendorID *uint   `json:"vendor_id"`
}

type StockInResult struct {
	Inventory InventoryRow   `json:"inventory"`
	Entry     models.BuyList `json:"buy_list_entry"`
}

// StockIn receives quantity of an item: the inventory row is created when
// missing, stock grows and a buy-list entry records the receipt.
func (s *InventoryService) StockIn(ctx context.Context, in StockInInput) (*StockInResult, error) {
	var (
		inv   models.Inventory
		entry models.BuyList
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		inv, entry, err = stockIn(tx, in, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notify.Metrics().StockIn()
	s.log.Info(s.log.WithFields(ctx, map[string]any{"item_id": in.ItemID, "quantity": in.Quantity}), "inventory.stock_in")
	row, err := s.row(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	return &StockInResult{Inventory: *row, Entry: entry}, nil
}

// stockIn runs inside the caller's transaction so purchases can receive
// several lines atomically.
func stockIn(tx *gorm.DB, in StockInInput, now time.Time) (models.Inventory, models.BuyList, error) {
	var inv models.Inventory
	if in.Quantity <= 0 {
		return inv, models.BuyList{}, apperr.Validation("quantity", "must be greater than 0")
	}
	if ok, err := exists(tx, &models.Item{}, in.ItemID); err != nil {
		return inv, models.BuyList{}, apperr.FromDB(err, "item")
	} else if !ok {
		return inv, models.BuyList{}, apperr.NotFound("item")
	}
	if err := checkVendor(tx, in.VendorID); err != nil {
		return inv, models.BuyList{}, err
	}
	err := tx.Where("item_id = ?", in.ItemID).First(&inv).Error
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		inv = models.Inventory{ItemID: in.ItemID, ReorderLevel: models.DefaultReorderLevel}
	default:
		return inv, models.BuyList{}, apperr.FromDB(err, "inventory")
	}
	inv.StockLevel += in.Quantity
	if in.VendorID != nil {
		inv.VendorID = in.VendorID
	}
	inv.LastPurchaseDate = &now
	inv.LastUpdate = now
	if err := tx.Save(&inv).Error; err != nil {
		return inv, models.BuyList{}, apperr.FromDB(err, "inventory")
	}
	entry := models.BuyList{ItemID: in.ItemID, Quantity: in.Quantity, VendorID: in.VendorID, PurchaseDate: now}
	if err := tx.Create(&entry).Error; err != nil {
		return inv, models.BuyList{}, apperr.FromDB(err, "buy list entry")
	}
	return inv, entry, nil
}

// Vendors lists the vendors that can be assigned to stock.
func (s *InventoryService) Vendors(ctx context.Context) ([]models.Vendor, error) {
	vendors := []models.Vendor{}
	if err := s.db.WithContext(ctx).Order("name").Find(&vendors).Error; err != nil {
		return nil, apperr.FromDB(err, "vendor")
	}
	return vendors, nil
}

type BuyListRow struct {
	ID           uint      `json:"id"`
	ItemID       uint      `json:"item_id"`
	ItemName     string    `json:"item_name"`
	Quantity     float64   `json:"quantity"`
	VendorID     *uint     `json:"vendor_id"`
	VendorName   string    `json:"vendor_name"`
	PurchaseDate time.Time `json:"purchase_date"`
}

func (s *InventoryService) BuyList(ctx context.Context) ([]BuyListRow, error) {
	var entries []models.BuyList
	err := s.db.WithContext(ctx).Preload("Item").Preload("Vendor").
		Order("purchase_date DESC, id DESC").Find(&entries).Error
	if err != nil {
		return nil, apperr.FromDB(err, "buy list entry")
	}
	rows := make([]BuyListRow, 0, len(entries))
	for _, e := range entries {
		row := BuyListRow{ID: e.ID, ItemID: e.ItemID, Quantity: e.Quantity, VendorID: e.VendorID, PurchaseDate: e.PurchaseDate}
		if e.Item != nil {
			row.ItemName = e.Item.Name
		}
		if e.Vendor != nil {
			row.VendorName = e.Vendor.Name
		}
		rows = append(rows, row)
	}
	return rows, nil
}
