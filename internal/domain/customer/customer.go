package customer

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"loan-ledger/internal/pkg/apperrors"
)

const (
	DefaultTrustScore = 50
	MinTrustScore     = 0
	MaxTrustScore     = 100

	maxNameLength    = 50
	maxAddressLength = 200
)

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

type Customer struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Address    string    `json:"address"`
	TrustScore int       `json:"trustScore"`
	OwnerID    string    `json:"ownerId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Owner implements ownership.Owned.
func (c *Customer) Owner() string {
	return c.OwnerID
}

type CreateInput struct {
	Name       string
	Phone      string
	Address    string
	TrustScore *int
}

// UpdateInput carries a partial update; nil fields are left untouched.
type UpdateInput struct {
	Name       *string
	Phone      *string
	Address    *string
	TrustScore *int
}

func (in UpdateInput) IsEmpty() bool {
	return in.Name == nil && in.Phone == nil && in.Address == nil && in.TrustScore == nil
}

func NewCustomer(ownerID string, in CreateInput) *Customer {
	trustScore := DefaultTrustScore
	if in.TrustScore != nil {
		trustScore = *in.TrustScore
	}
	return &Customer{
		Name:       strings.TrimSpace(in.Name),
		Phone:      strings.TrimSpace(in.Phone),
		Address:    strings.TrimSpace(in.Address),
		TrustScore: trustScore,
		OwnerID:    ownerID,
	}
}

func (c *Customer) Apply(in UpdateInput) {
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		c.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		c.Address = strings.TrimSpace(*in.Address)
	}
	if in.TrustScore != nil {
		c.TrustScore = *in.TrustScore
	}
}

// Validate checks field constraints and reports the first violation.
// Out-of-range trust scores are rejected, never clamped.
func (c *Customer) Validate() error {
	switch {
	case c.Name == "":
		return apperrors.NewValidationError("name", "Please provide customer name")
	case utf8.RuneCountInString(c.Name) > maxNameLength:
		return apperrors.NewValidationError("name", "Name cannot exceed 50 characters")
	case c.Phone == "":
		return apperrors.NewValidationError("phone", "Please provide customer phone number")
	case !phonePattern.MatchString(c.Phone):
		return apperrors.NewValidationError("phone", "Please provide a valid 10-digit phone number")
	case utf8.RuneCountInString(c.Address) > maxAddressLength:
		return apperrors.NewValidationError("address", "Address cannot exceed 200 characters")
	case c.TrustScore < MinTrustScore:
		return apperrors.NewValidationError("trustScore", "Trust score cannot be less than 0")
	case c.TrustScore > MaxTrustScore:
		return apperrors.NewValidationError("trustScore", "Trust score cannot exceed 100")
	}
	return nil
}
