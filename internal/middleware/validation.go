package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "gapminder/internal/errors"
	"gapminder/pkg/contracts/domain"
)

// Validator binds query parameters into tagged structs and validates them.
//
//	type Query struct {
//	    Country string `query:"country" validate:"omitempty,max=100"`
//	    From    *int   `query:"year_from" validate:"omitempty,gte=1800"`
//	}
type Validator struct {
	validator *validator.Validate
}

// NewValidator creates a validator that reports fields by their query name.
func NewValidator() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("indicator", isIndicator)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return &Validator{validator: v}
}

// BindQuery fills dst (a pointer to struct) from r's query string and
// validates it. Supported field kinds are string, int and *int. The error is
// an *apierrors.APIError listing every invalid field.
func (v *Validator) BindQuery(r *http.Request, dst interface{}) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("BindQuery: dst must be a pointer to struct, got %T", dst)
	}
	rv = rv.Elem()
	rt := rv.Type()
	q := r.URL.Query()

	var fieldErrs []apierrors.ValidationError
	for i := 0; i < rt.NumField(); i++ {
		name := strings.SplitN(rt.Field(i).Tag.Get("query"), ",", 2)[0]
		if name == "" || name == "-" || !q.Has(name) {
			continue
		}
		if err := setField(rv.Field(i), strings.TrimSpace(q.Get(name))); err != nil {
			fieldErrs = append(fieldErrs, apierrors.ValidationError{Field: name, Message: err.Error()})
		}
	}
	if len(fieldErrs) > 0 {
		return apierrors.NewValidationErrors(fieldErrs)
	}
	return v.ValidateStruct(dst)
}

func setField(f reflect.Value, raw string) error {
	switch {
	case f.Kind() == reflect.String:
		f.SetString(raw)
	case f.Kind() == reflect.Int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("must be a valid integer")
		}
		f.SetInt(int64(n))
	case f.Kind() == reflect.Pointer && f.Type().Elem().Kind() == reflect.Int:
		if raw == "" {
			return nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("must be a valid integer")
		}
		f.Set(reflect.ValueOf(&n))
	default:
		return fmt.Errorf("unsupported field type %s", f.Type())
	}
	return nil
}

// ValidateStruct validates a struct and returns validation errors
func (v *Validator) ValidateStruct(s interface{}) error {
	err := v.validator.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierrors.InvalidRequestWithError(err)
	}

	out := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(out)
}

// formatValidationError formats validation error messages
func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "indicator":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(indicatorNames(), ", "))
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// isIndicator accepts canonical indicator names and their aliases.
func isIndicator(fl validator.FieldLevel) bool {
	_, err := domain.ParseIndicator(fl.Field().String())
	return err == nil
}

func indicatorNames() []string {
	out := make([]string, len(domain.CanonicalIndicators))
	for i, ind := range domain.CanonicalIndicators {
		out[i] = string(ind)
	}
	return out
}
