package services

import (
	"context"

	"github.com/diewo77/go-bistro/internal/apperr"
	"github.com/diewo77/go-bistro/internal/logger"
	"github.com/diewo77/go-bistro/internal/models"
	"gorm.io/gorm"
)

// SummaryWeeks is the number of weeks covered by the feedback trend.
const SummaryWeeks = 12

type FeedbackService struct {
	base
}

func NewFeedbackService(db *gorm.DB, logg *logger.Logger) *FeedbackService {
	return &FeedbackService{base: newBase(db, logg)}
}

type FeedbackRow struct {
	models.Feedback
	CustomerName string `json:"customer_name"`
}

func (s *FeedbackService) List(ctx context.Context, status string, rating int) ([]FeedbackRow, error) {
	q := s.db.WithContext(ctx).Preload("Customer")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if rating != 0 {
		q = q.Where("rating = ?", rating)
	}
	var list []models.Feedback
	if err := q.Order("created_at DESC, id DESC").Find(&list).Error; err != nil {
		return nil, apperr.FromDB(err, "feedback")
	}
	rows := make([]FeedbackRow, 0, len(list))
	for _, f := range list {
		row := FeedbackRow{Feedback: f, CustomerName: guestName}
		if f.Customer != nil {
			row.CustomerName = f.Customer.Name
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type FeedbackInput struct {
	Rating     int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment    string `json:"comment" validate:"max=2000"`
	CustomerID *uint  `json:"customer_id"`
	SaleID     *uint  `json:"sale_id"`
}

func (s *FeedbackService) Create(ctx context.Context, in FeedbackInput) (*models.Feedback, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apperr.Validation("rating", "must be between 1 and 5")
	}
	f := models.Feedback{
		Rating:     in.Rating,
		Comment:    in.Comment,
		CustomerID: in.CustomerID,
		SaleID:     in.SaleID,
		Status:     models.FeedbackNew,
		CreatedAt:  s.now(),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.CustomerID != nil {
			if ok, err := exists(tx, &models.Customer{}, *in.CustomerID); err != nil {
				return apperr.FromDB(err, "customer")
			} else if !ok {
				return apperr.NotFound("customer")
			}
		}
		if in.SaleID != nil {
			if ok, err := exists(tx, &models.Sale{}, *in.SaleID); err != nil {
				return apperr.FromDB(err, "sale")
			} else if !ok {
				return apperr.NotFound("sale")
			}
		}
		return apperr.FromDB(tx.Create(&f).Error, "feedback")
	})
	if err != nil {
		return nil, err
	}
	return &f, nil
}

type FeedbackStatusInput struct {
	Status models.FeedbackStatus `json:"status" validate:"required,oneof=New Reviewed Resolved"`
}

func (s *FeedbackService) SetStatus(ctx context.Context, id uint, status models.FeedbackStatus) (*models.Feedback, error) {
	switch status {
	case models.FeedbackNew, models.FeedbackReviewed, models.FeedbackResolved:
	default:
		return nil, apperr.Validation("status", "must be one of New Reviewed Resolved")
	}
	res := s.db.WithContext(ctx).Model(&models.Feedback{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return nil, apperr.FromDB(res.Error, "feedback")
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("feedback")
	}
	var f models.Feedback
	if err := s.db.WithContext(ctx).First(&f, id).Error; err != nil {
		return nil, apperr.FromDB(err, "feedback")
	}
	return &f, nil
}

type FeedbackSummary struct {
	Total         int64   `json:"total"`
	AverageRating float64 `json:"average_rating"`
	// Distribution holds the counts for ratings 1 to 5.
	Distribution [5]int64 `json:"distribution"`
	Weekly       Chart    `json:"weekly"`
}

// Summary aggregates ratings and the weekly volume of the last twelve weeks,
// oldest week first.
func (s *FeedbackService) Summary(ctx context.Context) (*FeedbackSummary, error) {
	var rows []struct {
		Rating int
		Count  int64
	}
	err := s.db.WithContext(ctx).Model(&models.Feedback{}).
		Select("rating, COUNT(*) AS count").Group("rating").Scan(&rows).Error
	if err != nil {
		return nil, apperr.FromDB(err, "feedback")
	}
	out := &FeedbackSummary{}
	var sum int64
	for _, r := range rows {
		if r.Rating < 1 || r.Rating > 5 {
			continue
		}
		out.Distribution[r.Rating-1] = r.Count
		out.Total += r.Count
		sum += int64(r.Rating) * r.Count
	}
	if out.Total > 0 {
		out.AverageRating = round2(float64(sum) / float64(out.Total))
	}

	end := s.today().AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -7*SummaryWeeks)
	var stamps []models.Feedback
	err = s.db.WithContext(ctx).Select("created_at").
		Where("created_at >= ? AND created_at < ?", start, end).Find(&stamps).Error
	if err != nil {
		return nil, apperr.FromDB(err, "feedback")
	}
	counts := make([]float64, SummaryWeeks)
	for _, f := range stamps {
		w := int(f.CreatedAt.UTC().Sub(start).Hours() / (24 * 7))
		if w >= 0 && w < SummaryWeeks {
			counts[w]++
		}
	}
	out.Weekly = Chart{Labels: make([]string, SummaryWeeks), Data: counts}
	for i := range out.Weekly.Labels {
		out.Weekly.Labels[i] = start.AddDate(0, 0, 7*i).Format("2006-01-02")
	}
	return out, nil
}
