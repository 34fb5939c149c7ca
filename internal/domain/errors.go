package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation failure")
	ErrNotFound        = errors.New("not found")
	ErrSupplierFailure = errors.New("supplier failure")
	ErrPolicyViolation = errors.New("policy violation")
	ErrDataInvariant   = errors.New("data invariant violated")
	ErrLockNotAcquired = errors.New("lock not acquired")
)

// SupplierError is a structured failure reported by a supplier backend.
type SupplierError struct {
	Supplier Supplier
	Status   int
	Detail   string
}

func (e *SupplierError) Error() string {
	return fmt.Sprintf("supplier %s: status %d: %s", e.Supplier, e.Status, e.Detail)
}

func (e *SupplierError) Unwrap() error { return ErrSupplierFailure }

// Category returns a short machine-checkable name for the error's kind.
func Category(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrValidation):
		return "validation_failure"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrPolicyViolation):
		return "policy_violation"
	case errors.Is(err, ErrSupplierFailure):
		return "supplier_failure"
	case errors.Is(err, ErrDataInvariant):
		return "data_invariant"
	case errors.Is(err, ErrLockNotAcquired):
		return "lock_not_acquired"
	default:
		return "internal"
	}
}
