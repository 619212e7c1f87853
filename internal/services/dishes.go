package services

import (
	"context"
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/go-bistro/internal/apperr"
	"github.com/diewo77/go-bistro/internal/logger"
	"github.com/diewo77/go-bistro/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DishService serves the public menu and dish management.
type DishService struct {
	base
}

func NewDishService(db *gorm.DB, logg *logger.Logger) *DishService {
	return &DishService{base: newBase(db, logg)}
}

type DishFilter struct {
	Category      string
	Search        string
	AvailableOnly bool
}

// List returns dishes ordered by name. Search matches name and description
// case-insensitively.
func (s *DishService) List(ctx context.Context, f DishFilter) ([]models.Dish, error) {
	q := s.db.WithContext(ctx).Model(&models.Dish{})
	if f.AvailableOnly {
		q = q.Where("status = ?", models.DishAvailable)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Search != "" {
		p := likePattern(f.Search)
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", p, p)
	}
	dishes := []models.Dish{}
	if err := q.Order("name").Find(&dishes).Error; err != nil {
		return nil, apperr.FromDB(err, "dish")
	}
	return dishes, nil
}

// Categories lists the distinct non-empty categories in use.
func (s *DishService) Categories(ctx context.Context) ([]string, error) {
	cats := []string{}
	err := s.db.WithContext(ctx).Model(&models.Dish{}).
		Where("category IS NOT NULL AND category <> ''").
		Distinct().Order("category").Pluck("category", &cats).Error
	if err != nil {
		return nil, apperr.FromDB(err, "dish")
	}
	return cats, nil
}

type IngredientView struct {
	ItemID   uint    `json:"item_id"`
	ItemName string  `json:"item_name"`
	Quantity float64 `json:"quantity"`
}

type DishDetail struct {
	models.Dish
	Ingredients []IngredientView `json:"ingredients"`
}

func (s *DishService) Get(ctx context.Context, id uint) (*DishDetail, error) {
	var dish models.Dish
	if err := s.db.WithContext(ctx).Preload("Ingredients.Item").First(&dish, id).Error; err != nil {
		return nil, apperr.FromDB(err, "dish")
	}
	out := &DishDetail{Dish: dish, Ingredients: make([]IngredientView, 0, len(dish.Ingredients))}
	for _, ing := range dish.Ingredients {
		v := IngredientView{ItemID: ing.ItemID, Quantity: ing.Quantity}
		if ing.Item != nil {
			v.ItemName = ing.Item.Name
		}
		out.Ingredients = append(out.Ingredients, v)
	}
	out.Dish.Ingredients = nil
	return out, nil
}

type IngredientInput struct {
	ItemID   uint    `json:"item_id" validate:"required"`
	Quantity float64 `json:"quantity" validate:"gt=0"`
}

type DishInput struct {
	Name          string              `json:"name" validate:"required,max=100"`
	Price         decimal.Decimal     `json:"price" validate:"required,gt=0"`
	DiscountPrice decimal.NullDecimal `json:"discount_price" validate:"omitempty,gte=0"`
	Category      string              `json:"category" validate:"max=50"`
	Description   string              `json:"description"`
	Status        models.DishStatus   `json:"status" validate:"omitempty,oneof=Available Unavailable"`
	ImageURL      string              `json:"image_url" validate:"max=255"`
	Ingredients   []IngredientInput   `json:"ingredients" validate:"dive"`
}

func (s *DishService) Create(ctx context.Context, in DishInput) (*models.Dish, error) {
	dish := models.Dish{
		Name:          strings.TrimSpace(in.Name),
		Price:         in.Price.Round(2),
		DiscountPrice: in.DiscountPrice,
		Category:      in.Category,
		Description:   in.Description,
		Status:        in.Status,
		ImageURL:      in.ImageURL,
	}
	if dish.Status == "" {
		dish.Status = models.DishAvailable
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&dish).Error; err != nil {
			return apperr.FromDB(err, "dish")
		}
		return replaceIngredients(tx, dish.ID, in.Ingredients)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info(s.log.WithField(ctx, "dish_id", dish.ID), "dish.created")
	return &dish, nil
}

func replaceIngredients(tx *gorm.DB, dishID uint, lines []IngredientInput) error {
	if err := tx.Where("dish_id = ?", dishID).Delete(&models.DishIngredient{}).Error; err != nil {
		return apperr.FromDB(err, "ingredient")
	}
	for _, l := range lines {
		ok, err := exists(tx, &models.Item{}, l.ItemID)
		if err != nil {
			return apperr.FromDB(err, "item")
		}
		if !ok {
			return apperr.Newf(apperr.CodeNotFound, "item %d not found", l.ItemID)
		}
		row := models.DishIngredient{DishID: dishID, ItemID: l.ItemID, Quantity: l.Quantity}
		if err := tx.Create(&row).Error; err != nil {
			return apperr.FromDB(err, "ingredient")
		}
	}
	return nil
}

// DishPatch is a partial update; nil fields are left alone and an explicit
// null discount_price clears it.
type DishPatch struct {
	Name          *string                   `json:"name" validate:"omitempty,min=1,max=100"`
	Price         *decimal.Decimal          `json:"price" validate:"omitempty,gt=0"`
	DiscountPrice Nullable[decimal.Decimal] `json:"discount_price"`
	Category      *string                   `json:"category" validate:"omitempty,max=50"`
	Description   *string                   `json:"description"`
	Status        *models.DishStatus        `json:"status" validate:"omitempty,oneof=Available Unavailable"`
	ImageURL      *string                   `json:"image_url" validate:"omitempty,max=255"`
	Ingredients   []IngredientInput         `json:"ingredients" validate:"dive"`
}

func (s *DishService) Update(ctx context.Context, id uint, p DishPatch) (*models.Dish, error) {
	var dish models.Dish
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&dish, id).Error; err != nil {
			return apperr.FromDB(err, "dish")
		}
		if p.Name != nil {
			dish.Name = strings.TrimSpace(*p.Name)
		}
		if p.Price != nil {
			dish.Price = p.Price.Round(2)
		}
		if p.DiscountPrice.Set {
			if v := p.DiscountPrice.Ptr(); v != nil {
				if v.IsNegative() {
					return apperr.Validation("discount_price", "must be at least 0")
				}
				dish.DiscountPrice = decimal.NewNullDecimal(v.Round(2))
			} else {
				dish.DiscountPrice = decimal.NullDecimal{}
			}
		}
		if p.Category != nil {
			dish.Category = *p.Category
		}
		if p.Description != nil {
			dish.Description = *p.Description
		}
		if p.Status != nil {
			dish.Status = *p.Status
		}
		if p.ImageURL != nil {
			dish.ImageURL = *p.ImageURL
		}
		if err := tx.Save(&dish).Error; err != nil {
			return apperr.FromDB(err, "dish")
		}
		if p.Ingredients != nil {
			return replaceIngredients(tx, dish.ID, p.Ingredients)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dish, nil
}

// Delete removes a dish that was never sold.
func (s *DishService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := exists(tx, &models.Dish{}, id)
		if err != nil {
			return apperr.FromDB(err, "dish")
		}
		if !ok {
			return apperr.NotFound("dish")
		}
		var sold int64
		if err := tx.Model(&models.SaleDish{}).Where("dish_id = ?", id).Count(&sold).Error; err != nil {
			return apperr.FromDB(err, "dish")
		}
		if sold > 0 {
			return apperr.New(apperr.CodeConflict, "dish appears on existing sales")
		}
		if err := tx.Where("dish_id = ?", id).Delete(&models.DishIngredient{}).Error; err != nil {
			return apperr.FromDB(err, "ingredient")
		}
		return apperr.FromDB(tx.Delete(&models.Dish{}, id).Error, "dish")
	})
}

type Bestseller struct {
	DishID        uint            `json:"dish_id"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	OrderCount    int64           `json:"order_count"`
	TotalQuantity int64           `json:"total_quantity"`
	Revenue       decimal.Decimal `json:"revenue"`
}

// Bestsellers ranks dishes by quantity sold on Completed sales of the last
// days days.
func (s *DishService) Bestsellers(ctx context.Context, days, limit int) ([]Bestseller, error) {
	since := s.today().AddDate(0, 0, -days)
	return rankDishes(ctx, s.db, dishRanking{Since: &since, Limit: limit})
}

type CategoryStat struct {
	Category   string  `json:"category"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// CategoryStats shares dishes over the fixed categories. Anything else is
// counted as Other.
func (s *DishService) CategoryStats(ctx context.Context) ([]CategoryStat, error) {
	var cats []string
	if err := s.db.WithContext(ctx).Model(&models.Dish{}).Pluck("category", &cats).Error; err != nil {
		return nil, apperr.FromDB(err, "dish")
	}
	counts := map[string]int64{}
	for _, c := range cats {
		if !isFixedCategory(c) {
			c = "Other"
		}
		counts[c]++
	}
	labels := append(append([]string{}, models.DishCategories...), "Other")
	out := make([]CategoryStat, 0, len(labels))
	for _, l := range labels {
		if l == "Other" && counts[l] == 0 {
			continue
		}
		st := CategoryStat{Category: l, Count: counts[l]}
		if len(cats) > 0 {
			st.Percentage = round2(float64(st.Count) / float64(len(cats)) * 100)
		}
		out = append(out, st)
	}
	return out, nil
}

func isFixedCategory(c string) bool {
	for _, f := range models.DishCategories {
		if f == c {
			return true
		}
	}
	return false
}

// ExportCSV writes every dish, ordered by id.
func (s *DishService) ExportCSV(ctx context.Context, w io.Writer) error {
	var dishes []models.Dish
	if err := s.db.WithContext(ctx).Order("id").Find(&dishes).Error; err != nil {
		return apperr.FromDB(err, "dish")
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"ID", "Name", "Category", "Price", "Description", "Status", "Image"}); err != nil {
		return err
	}
	for _, d := range dishes {
		rec := []string{
			strconv.FormatUint(uint64(d.ID), 10),
			d.Name,
			d.Category,
			d.Price.StringFixed(2),
			d.Description,
			string(d.Status),
			d.ImageURL,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFilename is the attachment name for a CSV export taken at now.
func ExportFilename(now time.Time) string {
	return "products_" + now.UTC().Format("20060102_150405") + ".csv"
}

// MenuSection groups available dishes for the menu page.
type MenuSection struct {
	Category string
	Dishes   []models.Dish
}

// Menu groups the available dishes by category, categories sorted.
func (s *DishService) Menu(ctx context.Context) ([]MenuSection, error) {
	dishes, err := s.List(ctx, DishFilter{AvailableOnly: true})
	if err != nil {
		return nil, err
	}
	byCat := map[string][]models.Dish{}
	for _, d := range dishes {
		c := d.Category
		if c == "" {
			c = "Other"
		}
		byCat[c] = append(byCat[c], d)
	}
	keys := make([]string, 0, len(byCat))
	for k := range byCat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]MenuSection, 0, len(keys))
	for _, k := range keys {
		out = append(out, MenuSection{Category: k, Dishes: byCat[k]})
	}
	return out, nil
}
