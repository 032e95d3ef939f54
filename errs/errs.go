package errs

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// Error kinds surfaced by the store and the seeders. Every binary treats the
// first error as fatal; there is no retry policy.
var (
	ErrConnection   = errors.New("store unreachable or misconfigured")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrQuery        = errors.New("query failed")
)

// ValidationError reports the first schema constraint a record violates.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %q: %s", e.Field, e.Reason)
}

// Invalid builds a *ValidationError for the given field.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// FromMongo maps driver errors onto the error kinds above so callers never
// inspect driver types directly.
func FromMongo(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return err
}
