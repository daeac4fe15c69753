package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const Draft07 = "http://json-schema.org/draft-07/schema#"

// JSONSchema defines the structure for input/output schemas
type JSONSchema struct {
	Schema               string              `json:"$schema,omitempty"`
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties *bool               `json:"additionalProperties,omitempty"`
}

type Property struct {
	Type             string              `json:"type"`
	Description      string              `json:"description,omitempty"`
	Default          interface{}         `json:"default,omitempty"`
	Minimum          *float64            `json:"minimum,omitempty"`
	ExclusiveMinimum *float64            `json:"exclusiveMinimum,omitempty"`
	Maximum          *float64            `json:"maximum,omitempty"`
	Enum             []string            `json:"enum,omitempty"`
	Pattern          string              `json:"pattern,omitempty"`
	MinLength        *int                `json:"minLength,omitempty"`
	MaxLength        *int                `json:"maxLength,omitempty"`
	Items            *Property           `json:"items,omitempty"`
	Properties       map[string]Property `json:"properties,omitempty"`
	Required         []string            `json:"required,omitempty"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Validate checks document against schema. document may be any value that
// encodes to JSON: a map decoded from job variables or a typed struct.
func Validate(schema JSONSchema, document interface{}) (*ValidationResult, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(document),
	)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	vr := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		vr.Errors = append(vr.Errors, ValidationError{
			Field:   fieldName(desc),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return vr, nil
}

// fieldName reports the offending property; "required" errors point at the
// parent, so the missing property name is pulled from the details.
func fieldName(desc gojsonschema.ResultError) string {
	if desc.Type() == "required" {
		if p, ok := desc.Details()["property"].(string); ok {
			return p
		}
	}
	f := desc.Field()
	if f == gojsonschema.STRING_ROOT_SCHEMA_PROPERTY {
		return ""
	}
	return f
}

// Float returns a pointer to v, for schema bounds.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for schema lengths.
func Int(v int) *int { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		if err.Field == "" {
			messages[i] = err.Message
			continue
		}
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// ValidateEmail validates email format
func ValidateEmail(email string) bool {
	emailPattern := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	return emailPattern.MatchString(email)
}

// ValidatePhone validates an E.164 style phone number
func ValidatePhone(phone string) bool {
	phonePattern := regexp.MustCompile(`^\+[1-9]\d{7,14}$`)
	return phonePattern.MatchString(phone)
}
