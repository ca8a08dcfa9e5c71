// Package validator validates the bound request bodies
package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type jsonValidator struct {
	validator *validator.Validate
}

// New returns a new Validator for the echo webserver framework. The fields
// are named by their JSON name in the errors.
func New() echo.Validator {
	v := &jsonValidator{
		validator: validator.New(),
	}

	v.validator.RegisterTagNameFunc(jsonTagName)

	return v
}

func (cv *jsonValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func jsonTagName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")

	switch name {
	case "-":
		return ""
	case "":
		return field.Name
	}

	return name
}
