package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/flightdesk-api/internal/domain"
	"github.com/go-playground/validator/v10"
)

// v is shared by every handler; validator caches struct metadata per type.
var v = validator.New(validator.WithRequiredStructEnabled())

// Struct validates s against its validate tags. Failures are reported as a
// single message wrapping domain.ErrBadRequest.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%s: %w", strings.Join(msgs, "; "), domain.ErrBadRequest)
}
