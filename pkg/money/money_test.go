package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_Arithmetic(t *testing.T) {
	a := New(150_00)
	b := New(49_99)

	assert.Equal(t, int64(199_99), a.Add(b).Centavos())
	assert.Equal(t, int64(100_01), a.Sub(b).Centavos())
	assert.Equal(t, int64(0), b.SubFloor(a).Centavos())
	assert.Equal(t, int64(100_01), a.SubFloor(b).Centavos())
	assert.True(t, Min(a, b).Equal(b))
	assert.Equal(t, int64(10_000_00), FromPesos(10_000).Centavos())
	assert.Equal(t, int64(349_98), Sum(a, b, a.Sub(b).Add(New(49_98))).Centavos())
}

func TestMoney_Comparisons(t *testing.T) {
	tests := []struct {
		name string
		a, b Money
		want int
	}{
		{"less", New(1), New(2), -1},
		{"equal", New(2), New(2), 0},
		{"greater", New(3), New(2), 1},
		{"negative vs zero", New(-1), Zero, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Cmp(tt.b))
		})
	}

	assert.True(t, Zero.IsZero())
	assert.True(t, New(1).IsPositive())
	assert.True(t, New(-1).IsNegative())
	assert.True(t, New(1).LessThan(New(2)))
	assert.True(t, New(2).GreaterThan(New(1)))
}

func TestMoney_MulRound(t *testing.T) {
	tests := []struct {
		name   string
		amount Money
		factor float64
		want   int64
	}{
		{"exact", New(100_000_00), 0.02, 2_000_00},
		{"rounds half up", New(25), 0.5, 13},
		{"rounds down", New(10), 0.14, 1},
		{"thirtieth of a month", New(8_884_88), 0.02 * 15 / 30, 88_85},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.amount.MulRound(tt.factor).Centavos())
		})
	}
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "0.00", Zero.String())
	assert.Equal(t, "1234.05", New(123405).String())
	assert.Equal(t, "-0.07", New(-7).String())
}

func TestMoney_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Amount Money `json:"amount"`
	}{Amount: New(500_25)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":50025}`, string(data))

	var decoded struct {
		Amount Money `json:"amount"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"amount":777}`), &decoded))
	assert.Equal(t, int64(777), decoded.Amount.Centavos())

	err = json.Unmarshal([]byte(`{"amount":7.5}`), &decoded)
	assert.Error(t, err)
}

func TestMoney_Scan(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan(int64(42)))
	assert.Equal(t, int64(42), m.Centavos())

	require.NoError(t, m.Scan(nil))
	assert.True(t, m.IsZero())

	assert.Error(t, m.Scan("12.00"))

	v, err := New(99).Value()
	require.NoError(t, err)
	assert.Equal(t, int64(99), v)
}
