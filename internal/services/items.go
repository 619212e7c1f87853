package services

import (
	"context"
	"strings"

	"github.com/diewo77/go-bistro/internal/apperr"
	"github.com/diewo77/go-bistro/internal/logger"
	"github.com/diewo77/go-bistro/internal/models"
	"gorm.io/gorm"
)

type ItemService struct {
	base
}

func NewItemService(db *gorm.DB, logg *logger.Logger) *ItemService {
	return &ItemService{base: newBase(db, logg)}
}

// ItemRow is an item with its stock situation.
type ItemRow struct {
	models.Item
	InventoryID  *uint              `json:"inventory_id,omitempty"`
	StockLevel   *float64           `json:"stock_level"`
	ReorderLevel *float64           `json:"reorder_level"`
	StockStatus  models.StockStatus `json:"stock_status"`
}

func (s *ItemService) List(ctx context.Context, category string) ([]ItemRow, error) {
	q := s.db.WithContext(ctx).Order("name")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var items []models.Item
	if err := q.Find(&items).Error; err != nil {
		return nil, apperr.FromDB(err, "item")
	}
	var invs []models.Inventory
	if err := s.db.WithContext(ctx).Find(&invs).Error; err != nil {
		return nil, apperr.FromDB(err, "inventory")
	}
	byItem := make(map[uint]models.Inventory, len(invs))
	for _, inv := range invs {
		byItem[inv.ItemID] = inv
	}
	rows := make([]ItemRow, 0, len(items))
	for _, it := range items {
		row := ItemRow{Item: it, StockStatus: models.StockNone}
		if inv, ok := byItem[it.ID]; ok {
			id, stock, reorder := inv.ID, inv.StockLevel, inv.ReorderLevel
			row.InventoryID, row.StockLevel, row.ReorderLevel = &id, &stock, &reorder
			row.StockStatus = inv.Status()
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type ItemInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Category    string `json:"category" validate:"max=50"`
	Description string `json:"description"`
	Unit        string `json:"unit" validate:"max=20"`
}

func (s *ItemService) Create(ctx context.Context, in ItemInput) (*models.Item, error) {
	item := models.Item{
		Name:        strings.TrimSpace(in.Name),
		Category:    in.Category,
		Description: in.Description,
		DefaultUnit: in.Unit,
		CreatedAt:   s.now(),
	}
	if item.DefaultUnit == "" {
		item.DefaultUnit = "pcs"
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := uniqueItemName(tx, item.Name, 0); err != nil {
			return err
		}
		return apperr.FromDB(tx.Create(&item).Error, "item")
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func uniqueItemName(tx *gorm.DB, name string, except uint) error {
	var n int64
	q := tx.Model(&models.Item{}).Where("name = ?", name)
	if except != 0 {
		q = q.Where("id <> ?", except)
	}
	if err := q.Count(&n).Error; err != nil {
		return apperr.FromDB(err, "item")
	}
	if n > 0 {
		return apperr.Newf(apperr.CodeConflict, "item %q already exists", name)
	}
	return nil
}

type ItemPatch struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Category    *string `json:"category" validate:"omitempty,max=50"`
	Description *string `json:"description"`
	Unit        *string `json:"unit" validate:"omitempty,max=20"`
}

func (s *ItemService) Update(ctx context.Context, id uint, p ItemPatch) (*models.Item, error) {
	var item models.Item
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, id).Error; err != nil {
			return apperr.FromDB(err, "item")
		}
		if p.Name != nil {
			name := strings.TrimSpace(*p.Name)
			if name != item.Name {
				if err := uniqueItemName(tx, name, item.ID); err != nil {
					return err
				}
			}
			item.Name = name
		}
		if p.Category != nil {
			item.Category = *p.Category
		}
		if p.Description != nil {
			item.Description = *p.Description
		}
		if p.Unit != nil && *p.Unit != "" {
			item.DefaultUnit = *p.Unit
		}
		return apperr.FromDB(tx.Save(&item).Error, "item")
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *ItemService) Categories(ctx context.Context) ([]string, error) {
	cats := []string{}
	err := s.db.WithContext(ctx).Model(&models.Item{}).
		Where("category IS NOT NULL AND category <> ''").
		Distinct().Order("category").Pluck("category", &cats).Error
	if err != nil {
		return nil, apperr.FromDB(err, "item")
	}
	return cats, nil
}
