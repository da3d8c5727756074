// Package ownership decides whether a principal may act on a ledger record.
//
// Every customer, loan and repayment is owned by the principal that created
// it, for its whole lifetime. Single-record reads, updates and deletes go
// through Authorize. Listing operations are not guarded here: they are scoped
// by passing the caller's own id into the owner-scoped store queries.
package ownership

import (
	"fmt"

	"loan-ledger/internal/pkg/apperrors"
)

// Principal is the authenticated actor on whose behalf an operation runs.
type Principal string

func (p Principal) String() string {
	return string(p)
}

// Owned is implemented by every ledger record.
type Owned interface {
	Owner() string
}

// Authorize returns nil when principal owns the record identified by ownerID
// and an error wrapping apperrors.ErrForbidden otherwise.
func Authorize(principal Principal, ownerID string) error {
	if principal == "" || string(principal) != ownerID {
		return fmt.Errorf("%w: principal is not the owner of this record", apperrors.ErrForbidden)
	}
	return nil
}

// AuthorizeRecord is Authorize for any Owned record.
func AuthorizeRecord(principal Principal, record Owned) error {
	return Authorize(principal, record.Owner())
}
