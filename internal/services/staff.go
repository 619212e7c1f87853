package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/go-bistro/internal/apperr"
	"github.com/diewo77/go-bistro/internal/logger"
	"github.com/diewo77/go-bistro/internal/models"
	"gorm.io/gorm"
)

type StaffService struct {
	base
}

func NewStaffService(db *gorm.DB, logg *logger.Logger) *StaffService {
	return &StaffService{base: newBase(db, logg)}
}

// List filters by exact position and a keyword matched against name,
// staff code, email and phone.
func (s *StaffService) List(ctx context.Context, position, keyword string) ([]models.Staff, error) {
	q := s.db.WithContext(ctx).Model(&models.Staff{})
	if position != "" {
		q = q.Where("position = ?", position)
	}
	if keyword != "" {
		p := likePattern(keyword)
		q = q.Where("LOWER(name) LIKE ? OR LOWER(staff_code) LIKE ? OR LOWER(email) LIKE ? OR LOWER(phone) LIKE ?", p, p, p, p)
	}
	staff := []models.Staff{}
	if err := q.Order("staff_code").Find(&staff).Error; err != nil {
		return nil, apperr.FromDB(err, "staff member")
	}
	return staff, nil
}

func (s *StaffService) Positions(ctx context.Context) ([]string, error) {
	out := []string{}
	err := s.db.WithContext(ctx).Model(&models.Staff{}).
		Where("position IS NOT NULL AND position <> ''").
		Distinct().Order("position").Pluck("position", &out).Error
	return out, apperr.FromDB(err, "staff member")
}

func (s *StaffService) Get(ctx context.Context, id uint) (*models.Staff, error) {
	var st models.Staff
	if err := s.db.WithContext(ctx).First(&st, id).Error; err != nil {
		return nil, apperr.FromDB(err, "staff member")
	}
	return &st, nil
}

type StaffInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Position    string `json:"position" validate:"required,max=50"`
	Department  string `json:"department" validate:"max=50"`
	Email       string `json:"email" validate:"omitempty,email,max=100"`
	Phone       string `json:"phone" validate:"required,max=20"`
	JoinDate    string `json:"join_date" validate:"omitempty,date"`
	Status      string `json:"status" validate:"omitempty,oneof='Active' 'On Leave' 'Inactive'"`
	Address     string `json:"address" validate:"max=255"`
	Performance int    `json:"performance" validate:"gte=0,lte=100"`
}

// Create assigns the next staff code after the highest one in use.
func (s *StaffService) Create(ctx context.Context, in StaffInput) (*models.Staff, error) {
	join, err := parseDate("join_date", in.JoinDate)
	if err != nil {
		return nil, err
	}
	st := models.Staff{
		Name:        strings.TrimSpace(in.Name),
		Position:    in.Position,
		Department:  in.Department,
		Email:       in.Email,
		Phone:       in.Phone,
		JoinDate:    join,
		Status:      orDefault(in.Status, "Active"),
		Address:     in.Address,
		Performance: in.Performance,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var codes []string
		if err := tx.Model(&models.Staff{}).Where("staff_code LIKE ?", "ST%").Pluck("staff_code", &codes).Error; err != nil {
			return apperr.FromDB(err, "staff member")
		}
		st.StaffCode = models.NextStaffCode(highestStaffCode(codes))
		return apperr.FromDB(tx.Create(&st).Error, "staff member")
	})
	if err != nil {
		return nil, err
	}
	s.log.Info(s.log.WithField(ctx, "staff_code", st.StaffCode), "staff.created")
	return &st, nil
}

// highestStaffCode compares codes numerically so ST1000 beats ST999.
// Malformed codes are ignored.
func highestStaffCode(codes []string) string {
	best, bestN := "", -1
	for _, c := range codes {
		n, err := strconv.Atoi(strings.TrimPrefix(c, "ST"))
		if err != nil || n < 0 {
			continue
		}
		if n > bestN {
			best, bestN = c, n
		}
	}
	return best
}

type StaffPatch struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Position    *string `json:"position" validate:"omitempty,max=50"`
	Department  *string `json:"department" validate:"omitempty,max=50"`
	Email       *string `json:"email" validate:"omitempty,email,max=100"`
	Phone       *string `json:"phone" validate:"omitempty,max=20"`
	JoinDate    *string `json:"join_date" validate:"omitempty,date"`
	Status      *string `json:"status" validate:"omitempty,oneof='Active' 'On Leave' 'Inactive'"`
	Address     *string `json:"address" validate:"omitempty,max=255"`
	Performance *int    `json:"performance" validate:"omitempty,gte=0,lte=100"`
}

func (s *StaffService) Update(ctx context.Context, id uint, p StaffPatch) (*models.Staff, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	setString(&st.Name, p.Name)
	setString(&st.Position, p.Position)
	setString(&st.Department, p.Department)
	setString(&st.Email, p.Email)
	setString(&st.Phone, p.Phone)
	setString(&st.Status, p.Status)
	setString(&st.Address, p.Address)
	if p.Performance != nil {
		st.Performance = *p.Performance
	}
	if p.JoinDate != nil {
		var d *time.Time
		if d, err = parseDate("join_date", *p.JoinDate); err != nil {
			return nil, err
		}
		st.JoinDate = d
	}
	if err := s.db.WithContext(ctx).Save(st).Error; err != nil {
		return nil, apperr.FromDB(err, "staff member")
	}
	return st, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

// Delete removes exactly one staff member.
func (s *StaffService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Staff{}, id)
	if res.Error != nil {
		return apperr.FromDB(res.Error, "staff member")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("staff member")
	}
	return nil
}

func (s *StaffService) Performance(ctx context.Context) (*Chart, error) {
	var staff []models.Staff
	if err := s.db.WithContext(ctx).Order("performance DESC, name").Find(&staff).Error; err != nil {
		return nil, apperr.FromDB(err, "staff member")
	}
	out := &Chart{Labels: make([]string, 0, len(staff)), Data: make([]float64, 0, len(staff))}
	for _, st := range staff {
		out.Labels = append(out.Labels, st.Name)
		out.Data = append(out.Data, float64(st.Performance))
	}
	return out, nil
}

// Departments counts staff per department; blank departments are Unknown.
func (s *StaffService) Departments(ctx context.Context) (*Chart, error) {
	var depts []*string
	if err := s.db.WithContext(ctx).Model(&models.Staff{}).Order("department").Pluck("department", &depts).Error; err != nil {
		return nil, apperr.FromDB(err, "staff member")
	}
	acc := newChartAccumulator()
	for _, d := range depts {
		label := unknownLabel
		if d != nil && *d != "" {
			label = *d
		}
		acc.add(label, 1)
	}
	out := acc.chart()
	return &out, nil
}
