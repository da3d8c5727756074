package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"Whole amount is unchanged", 1500, 1500},
		{"Cents are kept", 2000.5, 2000.5},
		{"Sub-cent amount rounds to zero", 0.004, 0},
		{"Half cent rounds away from zero", 10.125, 10.13},
		{"Negative amount", -3.456, -3.46},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Round(tt.in))
		})
	}
}
