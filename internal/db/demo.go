package db

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/go-bistro/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed demo.yaml
var demoYAML []byte

type demoData struct {
	Vendors []struct {
		Name          string `yaml:"name"`
		ContactPerson string `yaml:"contact_person"`
		Phone         string `yaml:"phone"`
		Email         string `yaml:"email"`
		Type          string `yaml:"type"`
	} `yaml:"vendors"`
	Items []struct {
		Name     string  `yaml:"name"`
		Category string  `yaml:"category"`
		Unit     string  `yaml:"unit"`
		Stock    float64 `yaml:"stock"`
		Reorder  float64 `yaml:"reorder"`
		Vendor   string  `yaml:"vendor"`
	} `yaml:"items"`
	Dishes []struct {
		Name          string `yaml:"name"`
		Category      string `yaml:"category"`
		Price         string `yaml:"price"`
		DiscountPrice string `yaml:"discount_price"`
		Description   string `yaml:"description"`
		Ingredients   []struct {
			Item     string  `yaml:"item"`
			Quantity float64 `yaml:"quantity"`
		} `yaml:"ingredients"`
	} `yaml:"dishes"`
	Customers []struct {
		Name      string `yaml:"name"`
		Phone     string `yaml:"phone"`
		Email     string `yaml:"email"`
		MemLevel  string `yaml:"mem_level"`
		BirthDate string `yaml:"birth_date"`
	} `yaml:"customers"`
	Staff []struct {
		Name        string `yaml:"name"`
		Position    string `yaml:"position"`
		Department  string `yaml:"department"`
		Phone       string `yaml:"phone"`
		Performance int    `yaml:"performance"`
	} `yaml:"staff"`
	DeliveryPlatforms []struct {
		PlatformName    string  `yaml:"platform_name"`
		ContactPerson   string  `yaml:"contact_person"`
		CommissionRate  float64 `yaml:"commission_rate"`
		SettlementCycle string  `yaml:"settlement_cycle"`
	} `yaml:"delivery_platforms"`
	MaintenanceProviders []struct {
		ProviderName     string `yaml:"provider_name"`
		ServiceType      string `yaml:"service_type"`
		MaintenanceCycle int    `yaml:"maintenance_cycle"`
	} `yaml:"maintenance_providers"`
	Sales []struct {
		DaysAgo   int    `yaml:"days_ago"`
		Hour      int    `yaml:"hour"`
		Customer  string `yaml:"customer"`
		Channel   string `yaml:"channel"`
		OrderType string `yaml:"order_type"`
		Status    string `yaml:"status"`
		Paid      bool   `yaml:"paid"`
		Discount  string `yaml:"discount"`
		Lines     []struct {
			Dish string `yaml:"dish"`
			Qty  int    `yaml:"qty"`
		} `yaml:"lines"`
	} `yaml:"sales"`
}

// SeedDemo loads the embedded demo dataset into an empty database. It is a
// no-op once any dish exists. Each section is attempted and failures are
// reported together.
func SeedDemo(ctx context.Context, conn *gorm.DB, now time.Time) error {
	var data demoData
	if err := yaml.Unmarshal(demoYAML, &data); err != nil {
		return fmt.Errorf("parsing demo data: %w", err)
	}
	var dishCount int64
	if err := conn.WithContext(ctx).Model(&models.Dish{}).Count(&dishCount).Error; err != nil {
		return err
	}
	if dishCount > 0 {
		return nil
	}

	return conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		vendors := map[string]uint{}
		items := map[string]uint{}
		dishes := map[string]*models.Dish{}
		customers := map[string]uint{}
		var errs error

		for _, v := range data.Vendors {
			row := models.Vendor{Name: v.Name, ContactPerson: v.ContactPerson, Phone: v.Phone, Email: v.Email, Type: models.VendorType(v.Type)}
			if err := tx.Create(&row).Error; err != nil {
				errs = multierr.Append(errs, fmt.Errorf("vendor %s: %w", v.Name, err))
				continue
			}
			vendors[v.Name] = row.ID
		}

		for _, it := range data.Items {
			item := models.Item{Name: it.Name, Category: it.Category, DefaultUnit: it.Unit}
			if err := tx.Create(&item).Error; err != nil {
				errs = multierr.Append(errs, fmt.Errorf("item %s: %w", it.Name, err))
				continue
			}
			items[it.Name] = item.ID
			inv := models.Inventory{ItemID: item.ID, StockLevel: it.Stock, ReorderLevel: it.Reorder}
			if id, ok := vendors[it.Vendor]; ok {
				inv.VendorID = &id
			}
			errs = multierr.Append(errs, tx.Create(&inv).Error)
		}

		for _, d := range data.Dishes {
			price, err := decimal.NewFromString(d.Price)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("dish %s price: %w", d.Name, err))
				continue
			}
			dish := models.Dish{Name: d.Name, Category: d.Category, Price: price, Description: d.Description, Status: models.DishAvailable, CreatedAt: now}
			if d.DiscountPrice != "" {
				dp, err := decimal.NewFromString(d.DiscountPrice)
				if err != nil {
					errs = multierr.Append(errs, fmt.Errorf("dish %s discount: %w", d.Name, err))
					continue
				}
				dish.DiscountPrice = decimal.NewNullDecimal(dp)
			}
			for _, ing := range d.Ingredients {
				id, ok := items[ing.Item]
				if !ok {
					errs = multierr.Append(errs, fmt.Errorf("dish %s: unknown item %s", d.Name, ing.Item))
					continue
				}
				dish.Ingredients = append(dish.Ingredients, models.DishIngredient{ItemID: id, Quantity: ing.Quantity})
			}
			if err := tx.Create(&dish).Error; err != nil {
				errs = multierr.Append(errs, fmt.Errorf("dish %s: %w", d.Name, err))
				continue
			}
			dishes[d.Name] = &dish
		}

		for _, c := range data.Customers {
			row := models.Customer{Name: c.Name, Phone: c.Phone, Email: c.Email, MemLevel: c.MemLevel, RegDate: now.AddDate(0, -6, 0), LastVisit: now}
			if c.BirthDate != "" {
				bd, err := time.Parse("2006-01-02", c.BirthDate)
				if err != nil {
					errs = multierr.Append(errs, fmt.Errorf("customer %s birth date: %w", c.Name, err))
					continue
				}
				row.BirthDate = &bd
			}
			if err := tx.Create(&row).Error; err != nil {
				errs = multierr.Append(errs, fmt.Errorf("customer %s: %w", c.Name, err))
				continue
			}
			customers[c.Phone] = row.ID
		}

		for i, s := range data.Staff {
			join := now.AddDate(-1, 0, -i*30)
			row := models.Staff{
				StaffCode:   fmt.Sprintf("ST%03d", i+1),
				Name:        s.Name,
				Position:    s.Position,
				Department:  s.Department,
				Phone:       s.Phone,
				Performance: s.Performance,
				Status:      "Active",
				JoinDate:    &join,
			}
			errs = multierr.Append(errs, tx.Create(&row).Error)
		}

		for _, p := range data.DeliveryPlatforms {
			start := now.AddDate(0, -3, 0)
			row := models.DeliveryPlatform{
				PlatformName:         p.PlatformName,
				ContactPerson:        p.ContactPerson,
				CommissionRate:       p.CommissionRate,
				SettlementCycle:      p.SettlementCycle,
				CooperationStartDate: &start,
				Status:               "Active",
			}
			errs = multierr.Append(errs, tx.Create(&row).Error)
		}
		for _, p := range data.MaintenanceProviders {
			last := now.AddDate(0, 0, -p.MaintenanceCycle/2)
			next := last.AddDate(0, 0, p.MaintenanceCycle)
			row := models.MaintenanceProvider{
				ProviderName:     p.ProviderName,
				ServiceType:      p.ServiceType,
				MaintenanceCycle: p.MaintenanceCycle,
				LastServiceDate:  &last,
				NextServiceDate:  &next,
				Status:           "Active",
			}
			errs = multierr.Append(errs, tx.Create(&row).Error)
		}

		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		for i, s := range data.Sales {
			sale := models.Sale{
				SaleDate:         today.AddDate(0, 0, -s.DaysAgo).Add(time.Duration(s.Hour) * time.Hour),
				Status:           models.SaleStatus(s.Status),
				Channel:          s.Channel,
				OrderType:        s.OrderType,
				PaymentCompleted: s.Paid,
			}
			if id, ok := customers[s.Customer]; ok {
				sale.CustomerID = &id
			}
			for _, l := range s.Lines {
				dish, ok := dishes[l.Dish]
				if !ok {
					errs = multierr.Append(errs, fmt.Errorf("sale %d: unknown dish %s", i, l.Dish))
					continue
				}
				sale.Lines = append(sale.Lines, models.SaleDish{DishID: dish.ID, Quantity: l.Qty, UnitPrice: dish.EffectivePrice()})
			}
			if s.Discount != "" {
				sale.DiscountAmount = decimal.RequireFromString(s.Discount)
			}
			sale.TotalAmount = decimal.Max(decimal.Zero, sale.LinesTotal().Sub(sale.DiscountAmount))
			if err := tx.Create(&sale).Error; err != nil {
				errs = multierr.Append(errs, fmt.Errorf("sale %d: %w", i, err))
				continue
			}
			if !sale.PaymentCompleted && sale.CustomerID != nil {
				rec := models.Receivable{
					SaleID:     sale.ID,
					CustomerID: *sale.CustomerID,
					Amount:     sale.TotalAmount,
					Status:     models.StatusUnpaid,
					DueDate:    sale.SaleDate.AddDate(0, 0, 14),
				}
				errs = multierr.Append(errs, tx.Create(&rec).Error)
			}
		}

		if errs != nil {
			return errors.Join(errors.New("demo data incomplete"), errs)
		}
		return nil
	})
}
