package validation

import (
	"reflect"
	"strings"
	"time"

	"github.com/blaisecz/nap-planner/internal/timeutil"
	"github.com/blaisecz/nap-planner/pkg/problem"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report fields by their JSON names
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// Register custom timezone validator
	validate.RegisterValidation("timezone", func(fl validator.FieldLevel) bool {
		tz := fl.Field().String()
		_, err := time.LoadLocation(tz)
		return err == nil
	})

	// Wall-clock times are stored as HH:mm
	validate.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, err := timeutil.ParseTimeToMinutes(fl.Field().String())
		return err == nil
	})
}

// Validate validates a struct and returns field errors
func Validate(s interface{}) []problem.FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []problem.FieldError{{Field: "body", Message: err.Error()}}
	}

	var fieldErrors []problem.FieldError
	for _, err := range verrs {
		fieldErrors = append(fieldErrors, problem.FieldError{
			Field:   fieldName(err),
			Message: getValidationMessage(err),
		})
	}
	return fieldErrors
}

func fieldName(err validator.FieldError) string {
	if name := err.Field(); name != "" && name != err.StructField() {
		return name
	}
	return toSnakeCase(err.StructField())
}

func getValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + err.Param()
	case "max":
		return "must be at most " + err.Param()
	case "oneof":
		return "must be one of: " + err.Param()
	case "gtfield":
		return "must be greater than " + toSnakeCase(err.Param())
	case "timezone":
		return "must be a valid IANA timezone"
	case "hhmm":
		return "must be a time in HH:mm format"
	case "datetime":
		return "must be a date in " + err.Param() + " format"
	default:
		return "is invalid"
	}
}

func toSnakeCase(s string) string {
	var result []byte
	for i, c := range s {
		if c >= 'A' && c <= 'Z' {
			if i > 0 {
				result = append(result, '_')
			}
			result = append(result, byte(c+'a'-'A'))
		} else {
			result = append(result, byte(c))
		}
	}
	return string(result)
}
