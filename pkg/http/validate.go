package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = newValidator()

// newValidator reports fields by their query (or json) name so error payloads
// match what the client sent.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"query", "json"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// ReadAndValidateRequest binds query and body into req, applies defaults and validates it.
// It returns nil when req is usable.
func ReadAndValidateRequest(c echo.Context, req interface{}) []ValidationError {
	if err := c.Bind(req); err != nil {
		return []ValidationError{malformed(err)}
	}
	if err := defaults.Set(req); err != nil {
		return []ValidationError{malformed(err)}
	}
	err := validate.StructCtx(c.Request().Context(), req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []ValidationError{malformed(err)}
	}
	out := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, fieldError(fe))
	}
	return out
}

// malformed covers parameters that could not be decoded at all, such as days=abc.
func malformed(err error) ValidationError {
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg = fmt.Sprint(he.Message)
	}
	return ValidationError{Code: "ERR_MALFORMED", Message: msg}
}

// fieldError renders the tags used by the forecast request models.
func fieldError(fe validator.FieldError) ValidationError {
	field := fe.Field()
	ve := ValidationError{
		Code:  "ERR_" + strings.ToUpper(fe.Tag()),
		Field: field,
	}
	switch fe.Tag() {
	case "required":
		ve.Message = field + " is required"
	case "gte":
		ve.Message = fmt.Sprintf("%s must be at least %s", field, fe.Param())
		ve.Params = map[string]interface{}{"min": fe.Param()}
	case "lte":
		ve.Message = fmt.Sprintf("%s must be at most %s", field, fe.Param())
		ve.Params = map[string]interface{}{"max": fe.Param()}
	case "max":
		ve.Message = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		ve.Params = map[string]interface{}{"max": fe.Param()}
	default:
		ve.Message = fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
	return ve
}
