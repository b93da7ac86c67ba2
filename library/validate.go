package library

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

type currentYearKey struct{}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report lower-cased Go field names ("year", "copies").
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.ToLower(fld.Name)
	})

	// Publication years cannot be after the current year, when one is given.
	_ = v.RegisterValidationCtx("notfuture", func(ctx context.Context, fl validator.FieldLevel) bool {
		year, ok := ctx.Value(currentYearKey{}).(int)
		return !ok || fl.Field().Int() <= int64(year)
	})
	return v
}

// validateStruct validates s and converts failures into a validation Error.
func validateStruct(s any) error {
	return validateStructCtx(context.Background(), s)
}

// validateBook validates b, rejecting publication years after thisYear.
func validateBook(b Book, thisYear int) error {
	return validateStructCtx(context.WithValue(context.Background(), currentYearKey{}, thisYear), b)
}

func validateStructCtx(ctx context.Context, s any) error {
	err := validate.StructCtx(ctx, s)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fields := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		fields[e.Field()] = friendlyMessage(ctx, e)
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+fields[name])
	}
	return ValidationWithDetails("validation failed: "+strings.Join(parts, ", "), fields)
}

func friendlyMessage(ctx context.Context, e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "notfuture":
		return fmt.Sprintf("must not be after %d", ctx.Value(currentYearKey{}))
	default:
		return fmt.Sprintf("failed %s validation", e.Tag())
	}
}
