package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDishEffectivePrice(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		discount *string
		want     string
	}{
		{"regular price", "12.50", nil, "12.5"},
		{"discounted", "12.50", ptr("9.99"), "9.99"},
		{"free promo", "3.00", ptr("0"), "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Dish{Price: decimal.RequireFromString(tt.price)}
			if tt.discount != nil {
				d.DiscountPrice = decimal.NewNullDecimal(decimal.RequireFromString(*tt.discount))
			}
			if got := d.EffectivePrice().String(); got != tt.want {
				t.Errorf("EffectivePrice() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSaleLinesTotal(t *testing.T) {
	s := &Sale{Lines: []SaleDish{
		{Quantity: 2, UnitPrice: decimal.RequireFromString("12.50")},
		{Quantity: 3, UnitPrice: decimal.RequireFromString("2.20")},
	}}
	if got := s.LinesTotal().String(); got != "31.6" {
		t.Errorf("LinesTotal() = %s, want 31.6", got)
	}
}

func TestInventoryStatusAndRatio(t *testing.T) {
	low := &Inventory{StockLevel: 5, ReorderLevel: 10}
	ok := &Inventory{StockLevel: 11, ReorderLevel: 10}
	edge := &Inventory{StockLevel: 10, ReorderLevel: 10}
	zero := &Inventory{StockLevel: 0, ReorderLevel: 0}

	if low.Status() != StockLow || edge.Status() != StockLow || ok.Status() != StockNormal {
		t.Error("unexpected stock status classification")
	}
	if low.FillRatio() != 0.5 {
		t.Errorf("FillRatio() = %v, want 0.5", low.FillRatio())
	}
	if zero.FillRatio() <= ok.FillRatio() || math.IsInf(zero.FillRatio(), 0) {
		t.Error("zero reorder level should sort last with a finite ratio")
	}
}

func TestCustomerAge(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		birth *time.Time
		want  int
	}{
		{"birthday passed", date(1960, 1, 1), 64},
		{"birthday today", date(1964, 6, 15), 60},
		{"birthday tomorrow", date(1964, 6, 16), 59},
		{"unknown", nil, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Customer{BirthDate: tt.birth}
			if got := c.Age(now); got != tt.want {
				t.Errorf("Age() = %d, want %d", got, tt.want)
			}
		})
	}
	if got := SeniorCutoff(now); !got.Equal(*date(1964, 6, 15)) {
		t.Errorf("SeniorCutoff() = %v", got)
	}
}

func TestNextStaffCode(t *testing.T) {
	cases := map[string]string{
		"":      "ST001",
		"ST009": "ST010",
		"ST099": "ST100",
		"XX12":  "ST001",
	}
	for in, want := range cases {
		if got := NextStaffCode(in); got != want {
			t.Errorf("NextStaffCode(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestReceivableOverdue(t *testing.T) {
	today := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	r := &Receivable{Status: StatusUnpaid, DueDate: today.AddDate(0, 0, -1)}
	if !r.Overdue(today) {
		t.Error("unpaid past due should be overdue")
	}
	r.Status = StatusPaid
	if r.Overdue(today) {
		t.Error("paid is never overdue")
	}
	p := &Payable{Status: StatusUnpaid, DueDate: today}
	if p.Overdue(today) {
		t.Error("due today is not overdue yet")
	}
}

func TestMoneyMarshalsAsNumber(t *testing.T) {
	b, err := json.Marshal(struct {
		Price decimal.Decimal `json:"price"`
	}{decimal.RequireFromString("4.50")})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"price":4.5}` {
		t.Errorf("unexpected JSON %s", b)
	}
}

func TestProfileGate(t *testing.T) {
	p := &Profile{ID: 3, Name: "cashier", Permissions: []Permission{
		{ResourceType: "order", Action: "create"},
		{ResourceType: "dish", Action: "*"},
	}}
	g := p.Gate()
	if !g.HasPermission("dish:update") || g.HasPermission("staff:view") {
		t.Error("unexpected permission mapping")
	}
}

func ptr(s string) *string { return &s }

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}
