package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// rootField names the payload itself in a violation
const rootField = "(root)"

// ErrInvalidJSON is returned when the body is not syntactically valid JSON
var ErrInvalidJSON = errors.New("invalid JSON")

// FieldViolation is a single field-level schema violation
type FieldViolation struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// SchemaError carries every violation found in a payload
type SchemaError struct {
	Violations []FieldViolation
}

func (e *SchemaError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "payload validation failed: " + strings.Join(parts, "; ")
}

// Payload is one of *SuccessPayload or *ErrorReportPayload
type Payload interface {
	isPayload()
}

// TranslationPayload is one entry of article.translations
type TranslationPayload struct {
	Language *string `json:"language" validate:"required"`
	Content  *string `json:"content" validate:"required"`
	Title    *string `json:"title"`
}

// ArticlePayload is the article object of a success delivery.
// Optional fields are pointers so absent and empty stay distinguishable.
type ArticlePayload struct {
	Title           *string                       `json:"title" validate:"required,notblank"`
	Slug            *string                       `json:"slug" validate:"required,notblank,max=255"`
	Content         *string                       `json:"content"`
	Excerpt         *string                       `json:"excerpt"`
	MetaDescription *string                       `json:"meta_description"`
	HeroImageURL    *string                       `json:"hero_image_url"`
	Translations    map[string]TranslationPayload `json:"translations" validate:"omitempty,dive"`
}

// SuccessPayload is the `status: "success"` variant
type SuccessPayload struct {
	Article *ArticlePayload `json:"article" validate:"required"`
}

// ErrorReportPayload is the `status: "error"` variant
type ErrorReportPayload struct {
	ErrorMessage *string `json:"error_message" validate:"required"`
	ErrorType    *string `json:"error_type"`
}

func (*SuccessPayload) isPayload()     {}
func (*ErrorReportPayload) isPayload() {}

// PayloadValidator parses raw webhook bodies into typed payload variants
type PayloadValidator struct {
	validate *validator.Validate
}

// NewPayloadValidator creates a validator reporting fields by their JSON names
func NewPayloadValidator() *PayloadValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// notblank ships outside the default tag set
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return &PayloadValidator{validate: v}
}

// Parse discriminates on `status` and validates the matching variant.
// It returns ErrInvalidJSON (wrapped) or a *SchemaError on failure.
func (v *PayloadValidator) Parse(body []byte) (Payload, error) {
	if !json.Valid(body) {
		var probe interface{}
		if err := json.Unmarshal(body, &probe); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		return nil, ErrInvalidJSON
	}

	var envelope struct {
		Status json.RawMessage `json:"status"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, violation(rootField, "payload must be a JSON object", nil)
	}
	if envelope.Status == nil || string(envelope.Status) == "null" {
		return nil, violation("status", "status is required", nil)
	}

	var status string
	if err := json.Unmarshal(envelope.Status, &status); err != nil {
		return nil, violation("status", "status must be a string", string(envelope.Status))
	}

	var payload Payload
	switch status {
	case "success":
		payload = &SuccessPayload{}
	case "error":
		payload = &ErrorReportPayload{}
	default:
		return nil, violation("status", `unrecognized payload variant, expected "success" or "error"`, status)
	}

	if err := json.Unmarshal(body, payload); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			field := typeErr.Field
			if field == "" {
				field = rootField
			}
			return nil, violation(field, fmt.Sprintf("must be of type %s", jsonTypeName(typeErr.Type)), typeErr.Value)
		}
		return nil, violation(rootField, err.Error(), nil)
	}

	if err := v.validate.Struct(payload); err != nil {
		return nil, toSchemaError(err)
	}
	return payload, nil
}

func violation(field, message string, value interface{}) *SchemaError {
	return &SchemaError{Violations: []FieldViolation{{Field: field, Message: message, Value: value}}}
}

func toSchemaError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return violation(rootField, err.Error(), nil)
	}

	schemaErr := &SchemaError{}
	for _, fe := range verrs {
		schemaErr.Violations = append(schemaErr.Violations, FieldViolation{
			Field:   fieldPath(fe.Namespace()),
			Message: tagMessage(fe),
		})
	}
	return schemaErr
}

// fieldPath drops the Go type name the validator puts first in a namespace
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "notblank":
		return fe.Field() + " must not be blank"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

func jsonTypeName(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Struct, reflect.Map:
		return "object"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Bool:
		return "boolean"
	default:
		return "number"
	}
}
