package field

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidationError represents one schema violation on a field.
type ValidationError struct {
	// Index is the position of the field in the extracted list, or -1.
	Index   int    `json:"index" yaml:"index"`
	FieldID string `json:"field_id" yaml:"field_id"`
	Field   string `json:"field" yaml:"field"`
	Message string `json:"message" yaml:"message"`
	Value   any    `json:"value,omitempty" yaml:"value,omitempty"`
}

func (e ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("field[%d] %q: %s: %s", e.Index, e.FieldID, e.Field, e.Message)
	}
	return fmt.Sprintf("field %q: %s: %s", e.FieldID, e.Field, e.Message)
}

// Errors joins a list of validation errors into a single error, or nil.
func Errors(errs []ValidationError) error {
	if len(errs) == 0 {
		return nil
	}
	joined := make([]error, len(errs))
	for i, e := range errs {
		joined[i] = e
	}
	return errors.Join(joined...)
}

// Validate checks a definition against the field schema: id and name must be
// set, and Data must be None or a numeric, non-negative Increment.
func Validate(d Definition) []ValidationError {
	return validateAt(-1, d)
}

// ValidateAll validates every definition, tagging errors with their index.
func ValidateAll(defs []Definition) []ValidationError {
	var errs []ValidationError
	for i, d := range defs {
		errs = append(errs, validateAt(i, d)...)
	}
	return errs
}

func validateAt(index int, d Definition) []ValidationError {
	var errs []ValidationError
	add := func(field, msg string, value any) {
		errs = append(errs, ValidationError{
			Index:   index,
			FieldID: d.ID,
			Field:   field,
			Message: msg,
			Value:   value,
		})
	}

	if err := validatorInstance().Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, e := range verrs {
				add(strings.ToLower(e.Field()), formatValidationError(e), e.Value())
			}
		} else {
			add("definition", err.Error(), nil)
		}
	}

	switch v := d.Data.(type) {
	case nil, None:
	case Increment:
		if !v.Numeric {
			add("data.startFrom", "must be a number", v.Raw)
			break
		}
		if err := validatorInstance().Struct(v); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				for _, e := range verrs {
					add("data.startFrom", formatValidationError(e), e.Value())
				}
			}
		}
	case Unknown:
		add("data.type", fmt.Sprintf("unrecognized data type %q", v.RawType), v.RawType)
	default:
		add("data.type", fmt.Sprintf("unsupported data variant %T", v), nil)
	}

	return errs
}

// CheckUnique reports every definition whose id was already used by an
// earlier definition. Extraction itself never enforces this.
func CheckUnique(defs []Definition) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]int, len(defs))
	for i, d := range defs {
		if first, ok := seen[d.ID]; ok {
			errs = append(errs, ValidationError{
				Index:   i,
				FieldID: d.ID,
				Field:   "id",
				Message: fmt.Sprintf("duplicates field[%d]", first),
				Value:   d.ID,
			})
			continue
		}
		seen[d.ID] = i
	}
	return errs
}

// formatValidationError creates a human-readable error message.
func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be at least %s", e.Param())
	default:
		return fmt.Sprintf("failed validation '%s'", e.Tag())
	}
}
