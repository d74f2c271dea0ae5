package repo

import (
	"errors"

	"github.com/lib/pq"
)

// Duplicate-client errors, mapped from postgres unique violations so handlers
// can answer 409 with a message naming the colliding constraint.
var (
	ErrDuplicateName   = errors.New("client name already exists")
	ErrDuplicateTarget = errors.New("client url and platform already registered")
)

const uniqueViolation = "23505"

// mapUniqueViolation translates a pq unique-violation error on the clients
// table into the matching sentinel. Other errors pass through unchanged.
func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return err
	}
	switch pqErr.Constraint {
	case "clients_name_key":
		return ErrDuplicateName
	case "clients_url_platform_key":
		return ErrDuplicateTarget
	}
	return err
}
