// Package validation provides request payload validation.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/allermedia/allerai-event-scorer/internal/scorererrors"
)

// validate is a package-level singleton that is safe for concurrent read-only
// access. Do not register anything on it after package init.
var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct validates a struct against its validate tags. Failures come
// back as a ValidationError naming the first offending field.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate payload: %w", err)
	}

	first := verrs[0]

	return scorererrors.NewValidationError(
		strings.ToLower(first.Field()),
		fmt.Sprintf("failed on the %q rule", first.Tag()),
	)
}
