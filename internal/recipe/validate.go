package recipe

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report wire field names (prepTime, not PrepTime) in rejections.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Rejection describes the first constraint a recipe violated.
type Rejection struct {
	Field      string `json:"field"`
	Constraint string `json:"constraint"`
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("recipe rejected: field %q failed constraint %q", r.Field, r.Constraint)
}

// Validate checks a canonical recipe against the schema: enum membership,
// string and numeric bounds, and array-length floors. It returns nil on
// success or the first violated constraint. Purely synchronous and
// deterministic; missing optional fields (calories, tags, unit,
// nutritionalInfo) are permitted.
func Validate(r *Recipe) *Rejection {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		first := errs[0]
		constraint := first.Tag()
		if first.Param() != "" {
			constraint += "=" + first.Param()
		}
		return &Rejection{
			Field:      strings.TrimPrefix(first.Namespace(), "Recipe."),
			Constraint: constraint,
		}
	}

	return &Rejection{Field: "recipe", Constraint: err.Error()}
}

// ValidateAndStandardize runs Normalize then Validate on a raw generator
// object, returning either the canonical recipe or the rejection reason.
func ValidateAndStandardize(raw map[string]any) (*Recipe, *Rejection) {
	r := Normalize(raw)
	if rej := Validate(&r); rej != nil {
		return nil, rej
	}
	return &r, nil
}
