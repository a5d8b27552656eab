// internal/domain/catalog.go
package domain

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// DeviceTemplate is an entry of the purchasable device catalog.
type DeviceTemplate struct {
	Number       int             `json:"device_number"`
	Name         string          `json:"device_name"`
	Price        decimal.Decimal `json:"product_price"`
	DailyIncome  decimal.Decimal `json:"daily_income"`
	TotalIncome  decimal.Decimal `json:"total_income"`
	DurationDays int             `json:"duration_days"`
}

func template(number int, price, daily int64) DeviceTemplate {
	const days = 30
	return DeviceTemplate{
		Number:       number,
		Name:         "Device " + strconv.Itoa(number),
		Price:        decimal.NewFromInt(price),
		DailyIncome:  decimal.NewFromInt(daily),
		TotalIncome:  decimal.NewFromInt(daily * days),
		DurationDays: days,
	}
}

var catalog = []DeviceTemplate{
	template(1, 60, 9),
	template(2, 110, 20),
	template(3, 220, 27),
	template(4, 400, 40),
	template(5, 600, 60),
}

// Catalog returns a copy of the device catalog ordered by number.
func Catalog() []DeviceTemplate {
	out := make([]DeviceTemplate, len(catalog))
	copy(out, catalog)
	return out
}

// TemplateByNumber looks up a catalog entry.
func TemplateByNumber(number int) (DeviceTemplate, bool) {
	for _, t := range catalog {
		if t.Number == number {
			return t, true
		}
	}
	return DeviceTemplate{}, false
}
