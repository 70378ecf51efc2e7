package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
)

// FieldError names one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when a request fails shape validation. It is
// rendered as 422 before any storage access.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// Validator adapts go-playground/validator to echo. Field names in errors
// use the json tag so they match what the client sent.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Validate implements echo.Validator.
func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &ValidationError{}
	for _, fe := range verrs {
		msg := "failed " + fe.Tag() + " check"
		if fe.Tag() == "required" {
			msg = "field required"
		}
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: msg})
	}
	return out
}

// bindBody decodes the JSON request body into dst and validates it. Type
// mismatches, malformed JSON, and missing required fields all come back as
// *ValidationError.
func bindBody(c echo.Context, dst any) error {
	if err := c.Echo().JSONSerializer.Deserialize(c, dst); err != nil {
		return decodeError(err)
	}
	return c.Validate(dst)
}

func decodeError(err error) error {
	if errors.Is(err, io.EOF) {
		return invalid("body", "request body is required")
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return invalid(field, fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value))
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return invalid("body", fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset))
	}

	if errors.Is(err, io.ErrUnexpectedEOF) {
		return invalid("body", "malformed JSON: unexpected end of input")
	}

	return invalid("body", err.Error())
}

// pathID parses the :id path parameter as a 64-bit integer.
func pathID(c echo.Context) (int64, error) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", "id", c.Param("id"), &id,
		runtime.BindStyledParameterOptions{
			ParamLocation: runtime.ParamLocationPath,
			Explode:       false,
			Required:      true,
		})
	if err != nil {
		return 0, invalid("id", "must be an integer")
	}
	return id, nil
}
