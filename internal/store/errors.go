package store

import (
	"errors"
	"fmt"

	"github.com/fieldpatch/fieldpatch/internal/patch"
)

// NotFoundError indicates a read against a key with no record.
type NotFoundError struct {
	Table string
	Key   patch.Key
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("record not found: %s/%s/%s", e.Table, e.Key.Partition, e.Key.Sort)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ConditionError indicates an operation whose precondition did not hold:
// the target record does not exist, so the conditional update was not
// applied. Reported per item; other operations in the batch are
// unaffected.
type ConditionError struct {
	Table string
	Key   patch.Key
}

// Error implements the error interface.
func (e *ConditionError) Error() string {
	return fmt.Sprintf("condition failed: record %s/%s/%s does not exist", e.Table, e.Key.Partition, e.Key.Sort)
}

// IsConditionFailed reports whether err is (or wraps) a ConditionError.
func IsConditionFailed(err error) bool {
	var ce *ConditionError
	return errors.As(err, &ce)
}
