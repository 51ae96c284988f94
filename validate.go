package blogkit

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var reSlug = regexp.MustCompile(`^[a-z0-9]+(?:[-_][a-z0-9]+)*$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return reSlug.MatchString(fl.Field().String())
	})
	return v
}

// ValidSlug reports whether s can be used as a post id.
func ValidSlug(s string) bool {
	return reSlug.MatchString(s)
}

// ValidatePost checks p at the store boundary. The returned error wraps
// ErrInvalidPost and lists every failed field.
func ValidatePost(p Post) error {
	return describe(validate.Struct(p))
}

// ValidatePatch checks the non-nil fields of patch.
func ValidatePatch(patch PostPatch) error {
	return describe(validate.Struct(patch))
}

func describe(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidPost, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidPost, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	if field == "id" {
		field = "slug"
	}
	switch fe.Tag() {
	case "required", "min":
		if fe.Kind().String() == "string" {
			return field + " is required"
		}
		return field + " must be at least " + fe.Param()
	case "slug":
		return "slug may only contain lowercase letters, digits, '-' and '_'"
	case "max":
		return field + " is too long"
	case "url|startswith=/":
		return field + " must be an absolute URL or a site path"
	}
	return field + " is invalid"
}
