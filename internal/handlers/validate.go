package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"pagecraft/internal/normalize"
)

const maxBodyBytes = 2 << 20

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest checks a decoded request struct and returns the first
// error found as a readable message, or "".
func validateRequest(req any) string {
	err := validate.Struct(req)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required."
	case "uuid":
		return field + " must be a UUID."
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s is too long (max %s).", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s.", field, fe.Param())
	case "fqdn":
		return field + " must be a domain name."
	}
	return fmt.Sprintf("%s is invalid (%s).", field, fe.Tag())
}

// validateTemplate checks the loosely typed template fields that the
// normalizer copies into columns and returns the first error found.
func validateTemplate(raw map[string]any) string {
	if title, ok := raw["title"].(string); ok && utf8.RuneCountInString(title) > normalize.MaxTitleLen {
		return "Title is too long (max 300 characters)."
	}
	if desc, ok := raw["description"].(string); ok && utf8.RuneCountInString(desc) > normalize.MaxDescriptionLen {
		return "Description is too long (max 1,000 characters)."
	}
	for _, key := range []string{"favicon_url", "thumbnail_url"} {
		if u, ok := raw[key].(string); ok && len(u) > normalize.MaxURLLen {
			return key + " is too long (max 2,000 characters)."
		}
	}
	if data, ok := raw["data"]; ok && data != nil {
		if _, isObj := data.(map[string]any); !isObj {
			return "data must be an object."
		}
	}
	return ""
}
