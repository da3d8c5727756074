package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Envelope wraps every successful response body.
type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
	Count   *int `json:"count,omitempty"`
}

func NewEnvelope(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

func NewListEnvelope(data any, count int) Envelope {
	return Envelope{Success: true, Data: data, Count: &count}
}

type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type TokenRequest struct {
	Username string `json:"username"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Date accepts either a full RFC 3339 timestamp or a bare YYYY-MM-DD date.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date %q (use RFC 3339 or YYYY-MM-DD)", s)
	}
	d.Time = t
	return nil
}

// amountValue converts a decoded amount to the float64 the domain works in.
// decimal.Decimal accepts both JSON numbers and numeric strings.
func amountValue(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	v := d.InexactFloat64()
	return &v
}
