package wizard

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors carries per-field validation failures for inline rendering.
type FieldErrors struct {
	Fields map[string][]string
}

func (e *FieldErrors) Error() string {
	return fmt.Sprintf("validation failed for %d field(s)", len(e.Fields))
}

// decodeForm fills a form struct from posted values using its form tags.
// String inputs are trimmed; unknown posted fields are ignored.
func decodeForm(form any, values url.Values) error {
	v := reflect.ValueOf(form)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("form must be a pointer to struct, got %T", form)
	}
	v = v.Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		name := t.Field(i).Tag.Get("form")
		if name == "" || name == "-" {
			continue
		}
		if !values.Has(name) {
			continue
		}
		raw := strings.TrimSpace(values.Get(name))
		field := v.Field(i)
		switch field.Kind() {
		case reflect.String:
			field.SetString(raw)
		case reflect.Int, reflect.Int64:
			if raw == "" {
				continue
			}
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return &FieldErrors{Fields: map[string][]string{name: {"must be a number"}}}
			}
			field.SetInt(parsed)
		case reflect.Bool:
			field.SetBool(raw == "true" || raw == "on" || raw == "1")
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				field.Set(reflect.ValueOf(values[name]))
			}
		default:
			return fmt.Errorf("unsupported form field kind %s for %q", field.Kind(), name)
		}
	}
	return nil
}

// formToMap serialises a form struct into the step's session slot, keyed by
// form tag.
func formToMap(form any) map[string]any {
	v := reflect.ValueOf(form).Elem()
	t := v.Type()
	data := make(map[string]any, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name := t.Field(i).Tag.Get("form")
		if name == "" || name == "-" {
			continue
		}
		data[name] = v.Field(i).Interface()
	}
	return data
}

// fieldErrors converts validator failures into FieldErrors keyed by the
// posted field name rather than the Go field name.
func fieldErrors(form any, err error) error {
	failures, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	t := reflect.TypeOf(form).Elem()
	fields := make(map[string][]string, len(failures))
	for _, failure := range failures {
		name := failure.StructField()
		if structField, ok := t.FieldByName(failure.StructField()); ok {
			if tag := structField.Tag.Get("form"); tag != "" {
				name = tag
			}
		}
		fields[name] = append(fields[name], messageFor(failure))
	}
	return &FieldErrors{Fields: fields}
}

func messageFor(failure validator.FieldError) string {
	switch failure.Tag() {
	case "required":
		return "cannot be empty"
	case "email":
		return "enter a valid email address"
	case "max":
		return "must be at most " + failure.Param() + " characters"
	case "min":
		return "must be at least " + failure.Param() + " characters"
	case "gte":
		return "must be " + failure.Param() + " or more"
	case "lte":
		return "must be " + failure.Param() + " or less"
	case "oneof":
		return "is not one of the allowed values"
	default:
		return "is not valid"
	}
}
