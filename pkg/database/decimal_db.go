package database

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// Decimal wraps decimal.Decimal so NUMERIC columns scan without float rounding.
type Decimal struct {
	decimal.Decimal
}

func NewDecimal(f float64) Decimal {
	return Decimal{Decimal: decimal.NewFromFloat(f)}
}

func (d Decimal) Value() (driver.Value, error) {
	return d.Decimal.String(), nil
}

func (d *Decimal) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return d.parse(string(v))
	case string:
		return d.parse(v)
	case float64:
		d.Decimal = decimal.NewFromFloat(v)
	case int64:
		d.Decimal = decimal.NewFromInt(v)
	case nil:
		d.Decimal = decimal.Zero
	default:
		return fmt.Errorf("cannot scan decimal value: %v", value)
	}
	return nil
}

func (d *Decimal) parse(s string) error {
	dec, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	d.Decimal = dec
	return nil
}

func (d Decimal) Float64() float64 {
	return d.Decimal.InexactFloat64()
}
