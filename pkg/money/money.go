package money

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Money is an immutable amount held in centavos (1/100 of the peso).
// It is the only representation of currency inside the lending core.
type Money struct {
	centavos int64
}

// Zero is the zero amount.
var Zero = Money{}

// New creates a Money value from a centavo amount.
func New(centavos int64) Money {
	return Money{centavos: centavos}
}

// FromPesos creates a Money value from whole pesos.
func FromPesos(pesos int64) Money {
	return Money{centavos: pesos * 100}
}

// Centavos returns the integer centavo amount.
func (m Money) Centavos() int64 { return m.centavos }

// IsZero returns true if the amount is exactly zero.
func (m Money) IsZero() bool { return m.centavos == 0 }

// IsPositive returns true if the amount is greater than zero.
func (m Money) IsPositive() bool { return m.centavos > 0 }

// IsNegative returns true if the amount is less than zero.
func (m Money) IsNegative() bool { return m.centavos < 0 }

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{centavos: m.centavos + other.centavos}
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return Money{centavos: m.centavos - other.centavos}
}

// SubFloor returns m - other, floored at zero.
func (m Money) SubFloor(other Money) Money {
	if other.centavos >= m.centavos {
		return Zero
	}
	return Money{centavos: m.centavos - other.centavos}
}

// Cmp returns -1, 0 or +1 comparing m to other.
func (m Money) Cmp(other Money) int {
	switch {
	case m.centavos < other.centavos:
		return -1
	case m.centavos > other.centavos:
		return 1
	default:
		return 0
	}
}

// Equal returns true when both amounts carry the same centavo value.
func (m Money) Equal(other Money) bool { return m.centavos == other.centavos }

// LessThan returns true if m < other.
func (m Money) LessThan(other Money) bool { return m.centavos < other.centavos }

// GreaterThan returns true if m > other.
func (m Money) GreaterThan(other Money) bool { return m.centavos > other.centavos }

// Min returns the smaller of a and b.
func Min(a, b Money) Money {
	if a.centavos <= b.centavos {
		return a
	}
	return b
}

// Sum adds all amounts.
func Sum(amounts ...Money) Money {
	var total int64
	for _, a := range amounts {
		total += a.centavos
	}
	return Money{centavos: total}
}

// MulRound multiplies by a factor and rounds half away from zero to the
// nearest centavo.
func (m Money) MulRound(factor float64) Money {
	return Money{centavos: int64(math.Round(float64(m.centavos) * factor))}
}

// String renders the amount as pesos with two decimal places, e.g. "1234.56".
func (m Money) String() string {
	sign := ""
	c := m.centavos
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

// MarshalJSON encodes the amount as an integer number of centavos.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(m.centavos, 10)), nil
}

// UnmarshalJSON decodes an integer number of centavos.
func (m *Money) UnmarshalJSON(data []byte) error {
	var c int64
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("money: centavo amount must be an integer: %w", err)
	}
	m.centavos = c
	return nil
}

// Value implements driver.Valuer; amounts are stored as BIGINT centavos.
func (m Money) Value() (driver.Value, error) {
	return m.centavos, nil
}

// Scan implements sql.Scanner for BIGINT columns.
func (m *Money) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		m.centavos = v
	case int32:
		m.centavos = int64(v)
	case nil:
		m.centavos = 0
	default:
		return fmt.Errorf("money: cannot scan %T", src)
	}
	return nil
}
