package models

import "time"

var MemLevels = []string{"Regular", "Bronze", "Silver", "Gold"}

// SeniorAge is the age from which customers qualify for the senior discount.
const SeniorAge = 60

type Customer struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Name      string     `gorm:"size:100;not null" json:"name"`
	BirthDate *time.Time `json:"birth_date"`
	Phone     string     `gorm:"size:20;uniqueIndex" json:"phone"`
	Email     string     `gorm:"size:100" json:"email"`
	MemLevel  string     `gorm:"size:20;default:'Regular'" json:"mem_level"`
	RegDate   time.Time  `json:"reg_date"`
	LastVisit time.Time  `json:"last_visit"`
}

// Age in whole years at now; -1 when the birth date is unknown.
func (c *Customer) Age(now time.Time) int {
	if c.BirthDate == nil {
		return -1
	}
	b := *c.BirthDate
	age := now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		age--
	}
	return age
}

// SeniorCutoff is the latest birth date of a customer who is a senior at now.
func SeniorCutoff(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y-SeniorAge, m, d, 0, 0, 0, 0, time.UTC)
}

type FeedbackStatus string

const (
	FeedbackNew      FeedbackStatus = "New"
	FeedbackReviewed FeedbackStatus = "Reviewed"
	FeedbackResolved FeedbackStatus = "Resolved"
)

type Feedback struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Rating     int            `gorm:"not null" json:"rating"`
	Comment    string         `gorm:"type:text" json:"comment"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
	CustomerID *uint          `gorm:"index" json:"customer_id"`
	Customer   *Customer      `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	SaleID     *uint          `gorm:"index" json:"sale_id"`
	Status     FeedbackStatus `gorm:"size:20;default:'New'" json:"status"`
}

func (Feedback) TableName() string { return "feedback" }
