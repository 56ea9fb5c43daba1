package persist

import (
	"errors"
	"fmt"
)

// ErrStorage marks a backend I/O or constraint failure. Callers decide
// whether to retry.
var ErrStorage = errors.New("storage failure")

// Wrap tags err as a storage failure for operation op. A nil err stays nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
