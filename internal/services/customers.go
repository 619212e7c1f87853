package services

import (
	"context"
	"strings"
	"time"

	"github.com/diewo77/go-bistro/internal/apperr"
	"github.com/diewo77/go-bistro/internal/logger"
	"github.com/diewo77/go-bistro/internal/models"
	"gorm.io/gorm"
)

// DefaultInactiveDays is the window after which a customer counts as inactive.
const DefaultInactiveDays = 90

type CustomerService struct {
	base
}

func NewCustomerService(db *gorm.DB, logg *logger.Logger) *CustomerService {
	return &CustomerService{base: newBase(db, logg)}
}

func (s *CustomerService) List(ctx context.Context, memLevel, search string) ([]models.Customer, error) {
	q := s.db.WithContext(ctx).Model(&models.Customer{})
	if memLevel != "" {
		q = q.Where("mem_level = ?", memLevel)
	}
	if search != "" {
		p := likePattern(search)
		q = q.Where("LOWER(name) LIKE ? OR LOWER(phone) LIKE ? OR LOWER(email) LIKE ?", p, p, p)
	}
	out := []models.Customer{}
	if err := q.Order("name").Find(&out).Error; err != nil {
		return nil, apperr.FromDB(err, "customer")
	}
	return out, nil
}

func (s *CustomerService) Get(ctx context.Context, id uint) (*models.Customer, error) {
	var c models.Customer
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, apperr.FromDB(err, "customer")
	}
	return &c, nil
}

type CustomerInput struct {
	Name      string `json:"name" validate:"required,max=100"`
	Phone     string `json:"phone" validate:"required,max=20"`
	Email     string `json:"email" validate:"required,email,max=100"`
	MemLevel  string `json:"mem_level" validate:"required,oneof=Regular Bronze Silver Gold"`
	BirthDate string `json:"birth_date" validate:"required,date"`
}

// Create registers a customer; the phone number is the natural key.
func (s *CustomerService) Create(ctx context.Context, in CustomerInput) (*models.Customer, error) {
	birth, err := parseDate("birth_date", in.BirthDate)
	if err != nil {
		return nil, err
	}
	if birth == nil {
		return nil, apperr.Validation("birth_date", "is required")
	}
	now := s.now()
	c := models.Customer{
		Name:      strings.TrimSpace(in.Name),
		Phone:     strings.TrimSpace(in.Phone),
		Email:     in.Email,
		MemLevel:  in.MemLevel,
		BirthDate: birth,
		RegDate:   now,
		LastVisit: now,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := uniquePhone(tx, c.Phone, 0); err != nil {
			return err
		}
		return apperr.FromDB(tx.Create(&c).Error, "customer")
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func uniquePhone(tx *gorm.DB, phone string, exceptID uint) error {
	var n int64
	if err := tx.Model(&models.Customer{}).Where("phone = ? AND id <> ?", phone, exceptID).Count(&n).Error; err != nil {
		return apperr.FromDB(err, "customer")
	}
	if n > 0 {
		return apperr.New(apperr.CodeConflict, "phone number already registered")
	}
	return nil
}

type CustomerPatch struct {
	Name      *string `json:"name" validate:"omitempty,min=1,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,min=1,max=20"`
	Email     *string `json:"email" validate:"omitempty,email,max=100"`
	MemLevel  *string `json:"mem_level" validate:"omitempty,oneof=Regular Bronze Silver Gold"`
	BirthDate *string `json:"birth_date" validate:"omitempty,date"`
}

func (s *CustomerService) Update(ctx context.Context, id uint, p CustomerPatch) (*models.Customer, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	setString(&c.Name, p.Name)
	setString(&c.Phone, p.Phone)
	setString(&c.Email, p.Email)
	setString(&c.MemLevel, p.MemLevel)
	if p.BirthDate != nil {
		if c.BirthDate, err = parseDate("birth_date", *p.BirthDate); err != nil {
			return nil, err
		}
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if p.Phone != nil {
			if err := uniquePhone(tx, c.Phone, c.ID); err != nil {
				return err
			}
		}
		return apperr.FromDB(tx.Save(c).Error, "customer")
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Delete keeps sales and feedback but detaches them. Customers with
// receivables cannot be removed.
func (s *CustomerService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if ok, err := exists(tx, &models.Customer{}, id); err != nil {
			return apperr.FromDB(err, "customer")
		} else if !ok {
			return apperr.NotFound("customer")
		}
		var n int64
		if err := tx.Model(&models.Receivable{}).Where("customer_id = ?", id).Count(&n).Error; err != nil {
			return apperr.FromDB(err, "receivable")
		}
		if n > 0 {
			return apperr.New(apperr.CodeConflict, "customer has receivables")
		}
		for _, ref := range []any{&models.Sale{}, &models.Feedback{}} {
			if err := tx.Model(ref).Where("customer_id = ?", id).Update("customer_id", nil).Error; err != nil {
				return apperr.FromDB(err, "customer")
			}
		}
		return apperr.FromDB(tx.Delete(&models.Customer{}, id).Error, "customer")
	})
}

// Segments counts customers per membership level, every level included.
func (s *CustomerService) Segments(ctx context.Context) ([]CountBy, error) {
	var rows []CountBy
	err := s.db.WithContext(ctx).Model(&models.Customer{}).
		Select("mem_level AS label, COUNT(*) AS count").
		Group("mem_level").Scan(&rows).Error
	if err != nil {
		return nil, apperr.FromDB(err, "customer")
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		label := r.Label
		if label == "" {
			label = "Regular"
		}
		counts[label] += r.Count
	}
	out := make([]CountBy, 0, len(models.MemLevels))
	for _, level := range models.MemLevels {
		out = append(out, CountBy{Label: level, Count: counts[level]})
		delete(counts, level)
	}
	for label, n := range counts {
		out = append(out, CountBy{Label: label, Count: n})
	}
	return out, nil
}

type InactiveCustomer struct {
	models.Customer
	DaysSinceVisit int `json:"days_since_visit"`
}

// Inactive lists customers whose last visit is older than days.
func (s *CustomerService) Inactive(ctx context.Context, days int) ([]InactiveCustomer, error) {
	if days <= 0 {
		days = DefaultInactiveDays
	}
	now := s.now()
	cutoff := now.AddDate(0, 0, -days)
	var customers []models.Customer
	err := s.db.WithContext(ctx).Where("last_visit < ?", cutoff).Order("last_visit").Find(&customers).Error
	if err != nil {
		return nil, apperr.FromDB(err, "customer")
	}
	out := make([]InactiveCustomer, 0, len(customers))
	for _, c := range customers {
		out = append(out, InactiveCustomer{Customer: c, DaysSinceVisit: int(now.Sub(c.LastVisit) / (24 * time.Hour))})
	}
	return out, nil
}
