package customer

import (
	"errors"
	"strings"
	"testing"

	"loan-ledger/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }

func TestNewCustomer_DefaultsAndTrims(t *testing.T) {
	c := NewCustomer("owner-1", CreateInput{Name: "  Ravi  ", Phone: " 9876543210 ", Address: " Pune "})

	assert.Equal(t, "Ravi", c.Name)
	assert.Equal(t, "9876543210", c.Phone)
	assert.Equal(t, "Pune", c.Address)
	assert.Equal(t, DefaultTrustScore, c.TrustScore)
	assert.Equal(t, "owner-1", c.OwnerID)
	assert.Equal(t, "owner-1", c.Owner())
}

func TestNewCustomer_ExplicitTrustScore(t *testing.T) {
	c := NewCustomer("owner-1", CreateInput{Name: "Ravi", Phone: "9876543210", TrustScore: intPtr(0)})
	assert.Equal(t, 0, c.TrustScore)
}

func TestCustomer_Validate(t *testing.T) {
	valid := func() *Customer {
		return &Customer{Name: "Ravi", Phone: "9876543210", TrustScore: 50, OwnerID: "u1"}
	}

	tests := []struct {
		name      string
		mutate    func(c *Customer)
		wantField string
	}{
		{name: "valid", mutate: func(c *Customer) {}},
		{name: "missing name", mutate: func(c *Customer) { c.Name = "" }, wantField: "name"},
		{name: "name too long", mutate: func(c *Customer) { c.Name = strings.Repeat("a", 51) }, wantField: "name"},
		{name: "name at limit", mutate: func(c *Customer) { c.Name = strings.Repeat("a", 50) }},
		{name: "missing phone", mutate: func(c *Customer) { c.Phone = "" }, wantField: "phone"},
		{name: "short phone", mutate: func(c *Customer) { c.Phone = "12345" }, wantField: "phone"},
		{name: "phone with letters", mutate: func(c *Customer) { c.Phone = "98765abcde" }, wantField: "phone"},
		{name: "address too long", mutate: func(c *Customer) { c.Address = strings.Repeat("x", 201) }, wantField: "address"},
		{name: "trust score below range", mutate: func(c *Customer) { c.TrustScore = -1 }, wantField: "trustScore"},
		{name: "trust score above range", mutate: func(c *Customer) { c.TrustScore = 101 }, wantField: "trustScore"},
		{name: "trust score bounds", mutate: func(c *Customer) { c.TrustScore = 100 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(c)
			err := c.Validate()
			if tc.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrValidation))
			var ve *apperrors.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tc.wantField, ve.Field)
		})
	}
}

func TestCustomer_ApplyOnlyTouchesSuppliedFields(t *testing.T) {
	c := &Customer{Name: "Ravi", Phone: "9876543210", Address: "Pune", TrustScore: 50}
	in := UpdateInput{Address: strPtr(" Mumbai "), TrustScore: intPtr(70)}

	assert.False(t, in.IsEmpty())
	c.Apply(in)

	assert.Equal(t, "Ravi", c.Name)
	assert.Equal(t, "9876543210", c.Phone)
	assert.Equal(t, "Mumbai", c.Address)
	assert.Equal(t, 70, c.TrustScore)
	assert.True(t, UpdateInput{}.IsEmpty())
}
