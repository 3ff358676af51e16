package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimal_Scan(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  float64
	}{
		{"numeric bytes", []byte("71500.00"), 71500},
		{"string", "2650.12", 2650.12},
		{"float", float64(1.5), 1.5},
		{"int", int64(42), 42},
		{"null", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Decimal
			require.NoError(t, d.Scan(tt.value))
			assert.InDelta(t, tt.want, d.Float64(), 1e-9)
		})
	}

	var d Decimal
	assert.Error(t, d.Scan([]byte("abc")))
	assert.Error(t, d.Scan(true))
}

func TestDecimal_Value(t *testing.T) {
	v, err := NewDecimal(2650.12).Value()
	require.NoError(t, err)
	assert.Equal(t, "2650.12", v)
}
