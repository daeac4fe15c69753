package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() JSONSchema {
	return JSONSchema{
		Schema: Draft07,
		Type:   "object",
		Properties: map[string]Property{
			"cropType": {Type: "string", Enum: []string{"tomato", "wheat"}},
			"landSize": {Type: "number", ExclusiveMinimum: Float(0)},
			"district": {Type: "string", MinLength: Int(1)},
		},
		Required: []string{"cropType", "landSize", "district"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		doc        map[string]interface{}
		valid      bool
		errorField string
	}{
		{
			name:  "valid document",
			doc:   map[string]interface{}{"cropType": "tomato", "landSize": 2.5, "district": "nashik"},
			valid: true,
		},
		{
			name:       "missing field",
			doc:        map[string]interface{}{"cropType": "tomato", "landSize": 2.5},
			errorField: "district",
		},
		{
			name:       "enum violation",
			doc:        map[string]interface{}{"cropType": "banana", "landSize": 1, "district": "pune"},
			errorField: "cropType",
		},
		{
			name:       "zero land size",
			doc:        map[string]interface{}{"cropType": "wheat", "landSize": 0, "district": "pune"},
			errorField: "landSize",
		},
		{
			name:       "wrong type",
			doc:        map[string]interface{}{"cropType": "wheat", "landSize": "two", "district": "pune"},
			errorField: "landSize",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Validate(testSchema(), tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, res.Valid)
			if tt.errorField != "" {
				assert.True(t, res.HasErrors(tt.errorField), "errors: %v", res.GetErrorMessages())
			}
		})
	}
}

func TestValidatePhoneAndEmail(t *testing.T) {
	assert.True(t, ValidatePhone("+919812345678"))
	assert.False(t, ValidatePhone("98123"))
	assert.True(t, ValidateEmail("farmer@example.in"))
	assert.False(t, ValidateEmail("farmer@"))
}
