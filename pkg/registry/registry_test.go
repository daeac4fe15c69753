package registry

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activity(id string) Activity {
	return Activity{
		ID:                   id,
		DisplayName:          "Analyze Harvest",
		Category:             "advisory",
		TaskType:             id,
		ImplementationStatus: StatusCompleted,
		Timeout:              "30s",
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "activity-registry.json")
	now := time.Date(2025, time.January, 2, 10, 0, 0, 0, time.UTC)

	reg, err := LoadOrNew(path)
	require.NoError(t, err)
	require.NoError(t, reg.Add(activity("analyze-harvest")))
	require.NoError(t, SaveRegistry(reg, path, now))

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-02T10:00:00Z", loaded.LastUpdated)
	require.Len(t, loaded.Activities, 1)
	assert.Equal(t, "analyze-harvest", loaded.Activities[0].ID)
}

func TestAdd_RejectsDuplicate(t *testing.T) {
	reg := &ActivityRegistry{}
	require.NoError(t, reg.Add(activity("notify-advisory")))
	assert.Error(t, reg.Add(activity("notify-advisory")))
}

func TestUpsert(t *testing.T) {
	reg := &ActivityRegistry{}
	assert.False(t, reg.Upsert(activity("analyze-harvest")))

	updated := activity("analyze-harvest")
	updated.Version = "1.1.0"
	assert.True(t, reg.Upsert(updated))

	require.Len(t, reg.Activities, 1)
	assert.Equal(t, "1.1.0", reg.Activities[0].Version)
}

func TestUpdate(t *testing.T) {
	tests := []struct {
		field   string
		value   string
		wantErr bool
	}{
		{"status", StatusVerified, false},
		{"status", "shipped", true},
		{"retries", "3", false},
		{"retries", "three", true},
		{"timeout", "45s", false},
		{"timeout", "soon", true},
		{"owner", "x", true},
	}

	for _, tt := range tests {
		t.Run(tt.field+"="+tt.value, func(t *testing.T) {
			reg := &ActivityRegistry{Activities: []Activity{activity("analyze-harvest")}}
			err := reg.Update("analyze-harvest", tt.field, tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}

	reg := &ActivityRegistry{}
	assert.Error(t, reg.Update("missing", "status", StatusPlanned))
}

func TestValidate(t *testing.T) {
	noCategory := activity("b")
	noCategory.Category = ""
	badTimeout := activity("c")
	badTimeout.Timeout = "10 seconds"

	tests := []struct {
		name    string
		reg     ActivityRegistry
		wantErr string
	}{
		{"empty", ActivityRegistry{}, "no activities"},
		{"duplicate", ActivityRegistry{Activities: []Activity{activity("a"), activity("a")}}, "duplicate activity ID"},
		{"missing category", ActivityRegistry{Activities: []Activity{noCategory}}, "Category"},
		{"bad timeout", ActivityRegistry{Activities: []Activity{badTimeout}}, "invalid timeout"},
		{"valid", ActivityRegistry{Activities: []Activity{activity("a"), activity("b")}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.reg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSchemaMap(t *testing.T) {
	type prop struct {
		Type string `json:"type"`
	}
	m, err := SchemaMap(struct {
		Type       string          `json:"type"`
		Properties map[string]prop `json:"properties"`
	}{Type: "object", Properties: map[string]prop{"landSize": {Type: "number"}}})

	require.NoError(t, err)
	assert.Equal(t, "object", m["type"])
	props := m["properties"].(map[string]interface{})
	assert.Contains(t, props, "landSize")
}
