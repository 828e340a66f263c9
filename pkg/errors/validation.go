package errors

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// maxNameLength bounds member and cluster names.
const maxNameLength = 256

// ValidateName validates a member or cluster name.
//
// The validation rules are intentionally conservative:
//   - No empty or whitespace-only names
//   - No control characters (names end up in labels and file names)
//   - Maximum length of 256 characters
func ValidateName(kind, name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidManifest, "%s name cannot be empty", kind)
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidManifest, "%s name too long (max %d characters)", kind, maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidManifest, "%s name %q contains invalid control characters", kind, name)
		}
	}

	return nil
}

var (
	hexColorRegex   = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	namedColorRegex = regexp.MustCompile(`^[a-zA-Z]+$`)
	funcColorRegex  = regexp.MustCompile(`^(rgb|rgba|hsl|hsla)\([0-9.,%\s]+\)$`)
)

// ValidateColor validates a display color.
// Accepted forms are hex (#rgb, #rrggbb, with optional alpha), CSS color
// names and rgb()/hsl() functions.
func ValidateColor(color string) error {
	if color == "" {
		return New(ErrCodeInvalidManifest, "color cannot be empty")
	}
	if hexColorRegex.MatchString(color) || namedColorRegex.MatchString(color) || funcColorRegex.MatchString(color) {
		return nil
	}
	return New(ErrCodeInvalidManifest, "invalid color: %q", color)
}

// validate caches struct metadata; a *validator.Validate is safe for concurrent use.
var validate = validator.New()

// Struct runs the `validate` struct tags of v and converts failures into an
// *Error with the given code. The message lists every failing field.
func Struct(code Code, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Wrap(ErrCodeInternal, err, "validate %T", v)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return New(code, "%s", strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s (got %v)", field, fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("%s must be <= %s (got %v)", field, fe.Param(), fe.Value())
	case "gt":
		return fmt.Sprintf("%s must be > %s (got %v)", field, fe.Param(), fe.Value())
	case "gtefield":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %q validation", field, fe.Tag())
	}
}
