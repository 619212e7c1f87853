package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Staff struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	StaffCode   string     `gorm:"size:10;uniqueIndex;not null" json:"staff_code"`
	Name        string     `gorm:"size:100;not null" json:"name"`
	Position    string     `gorm:"size:50;index" json:"position"`
	Department  string     `gorm:"size:50" json:"department"`
	Email       string     `gorm:"size:100" json:"email"`
	Phone       string     `gorm:"size:20" json:"phone"`
	JoinDate    *time.Time `json:"join_date"`
	Status      string     `gorm:"size:20;default:'Active'" json:"status"`
	Address     string     `gorm:"size:255" json:"address"`
	Performance int        `gorm:"default:0" json:"performance"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (Staff) TableName() string { return "staff" }

var StaffStatuses = []string{"Active", "On Leave", "Inactive"}

// NextStaffCode returns the code following last ("ST007" -> "ST008").
// An empty or malformed last code starts the sequence at ST001.
func NextStaffCode(last string) string {
	n, err := strconv.Atoi(strings.TrimPrefix(last, "ST"))
	if err != nil || !strings.HasPrefix(last, "ST") {
		n = 0
	}
	return fmt.Sprintf("ST%03d", n+1)
}
