package validation

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Tell the validator to use the JSON tag as the “field name”
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		// Grab the value of `json:"foo,omitempty"`
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			// fallback to the Go field name or skip
			return fld.Name
		}
		return name
	})
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// ErrorsToList flattens validation errors into sorted human-readable
// lines like `api_key: required`, for direct printing at startup.
func ErrorsToList(validationErrs error) []string {
	var verrs validator.ValidationErrors
	if !asValidationErrors(validationErrs, &verrs) {
		return []string{validationErrs.Error()}
	}

	lines := make([]string, 0, len(verrs))
	for _, fieldErr := range verrs {
		rule := fieldErr.Tag()
		if p := fieldErr.Param(); p != "" {
			rule = fmt.Sprintf("%s=%s", rule, p)
		}
		lines = append(lines, fmt.Sprintf("%s: %s", fieldErr.Field(), rule))
	}
	sort.Strings(lines)
	return lines
}

func asValidationErrors(err error, out *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if ok {
		*out = verrs
	}
	return ok
}
