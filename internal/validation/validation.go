// Package validation хранит общий экземпляр validator и переводит его ошибки в apperror.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hn-son/let-him-cook-backend/internal/apperror"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// в сообщениях используем имена полей из API, а не из Go
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Struct проверяет структуру по тегам validate
func Struct(v interface{}) error {
	return translate(validate.Struct(v))
}

// Var проверяет одиночное значение, field попадает в сообщение об ошибке
func Var(field string, value interface{}, tag string) error {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return apperror.InvalidInput(fmt.Sprintf("invalid %s: %s", field, describe(fieldErrs[0])))
	}
	return apperror.Wrap(err, "validation failed")
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperror.Wrap(err, "validation failed")
	}
	fe := fieldErrs[0]
	return apperror.InvalidInput(fmt.Sprintf("invalid %s: %s", fieldPath(fe), describe(fe)))
}

// fieldPath отбрасывает имя корневой структуры: "Input.ingredients[0].name" -> "ingredients[0].name"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "failed on " + fe.Tag()
	}
}
