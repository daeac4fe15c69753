// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

// LoadOrNew returns an empty registry when path does not exist yet.
func LoadOrNew(path string) (*ActivityRegistry, error) {
	reg, err := LoadRegistry(path)
	if err == nil {
		return reg, nil
	}
	if os.IsNotExist(err) {
		return &ActivityRegistry{Version: "1.0.0", Activities: []Activity{}}, nil
	}
	return nil, fmt.Errorf("failed to load registry: %w", err)
}

// SaveRegistry stamps LastUpdated and writes the registry as indented JSON.
func SaveRegistry(reg *ActivityRegistry, path string, now time.Time) error {
	reg.LastUpdated = now.UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

// Find returns the index of the activity with id, or -1.
func (r *ActivityRegistry) Find(id string) int {
	for i := range r.Activities {
		if r.Activities[i].ID == id {
			return i
		}
	}
	return -1
}

// Add appends a new activity; the id must be unused.
func (r *ActivityRegistry) Add(a Activity) error {
	if r.Find(a.ID) >= 0 {
		return fmt.Errorf("activity with ID %s already exists", a.ID)
	}
	r.Activities = append(r.Activities, a)
	return nil
}

// Upsert replaces the activity with the same id or appends it. It reports
// whether an existing entry was replaced.
func (r *ActivityRegistry) Upsert(a Activity) bool {
	if i := r.Find(a.ID); i >= 0 {
		r.Activities[i] = a
		return true
	}
	r.Activities = append(r.Activities, a)
	return false
}

// Update sets a single scalar field on an activity.
func (r *ActivityRegistry) Update(id, field, value string) error {
	i := r.Find(id)
	if i < 0 {
		return fmt.Errorf("activity with ID %s not found", id)
	}
	a := &r.Activities[i]

	switch field {
	case "status":
		if !validStatuses[value] {
			return fmt.Errorf("invalid status: %s", value)
		}
		a.ImplementationStatus = value
	case "version":
		a.Version = value
	case "displayName":
		a.DisplayName = value
	case "description":
		a.Description = value
	case "category":
		a.Category = value
	case "taskType":
		a.TaskType = value
	case "timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid timeout value: %w", err)
		}
		a.Timeout = value
	case "retries":
		retries, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid retries value: %w", err)
		}
		a.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", field)
	}
	return nil
}

// Validate checks ids are unique and every activity has its required fields.
func (r *ActivityRegistry) Validate() error {
	if len(r.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}

	ids := make(map[string]bool)
	for _, activity := range r.Activities {
		if activity.ID == "" {
			return fmt.Errorf("activity missing required field: ID")
		}
		if ids[activity.ID] {
			return fmt.Errorf("duplicate activity ID: %s", activity.ID)
		}
		ids[activity.ID] = true

		if activity.DisplayName == "" {
			return fmt.Errorf("activity %s missing required field: DisplayName", activity.ID)
		}
		if activity.TaskType == "" {
			return fmt.Errorf("activity %s missing required field: TaskType", activity.ID)
		}
		if activity.Category == "" {
			return fmt.Errorf("activity %s missing required field: Category", activity.ID)
		}
		if activity.ImplementationStatus != "" && !validStatuses[activity.ImplementationStatus] {
			return fmt.Errorf("activity %s has invalid status: %s", activity.ID, activity.ImplementationStatus)
		}
		if activity.Timeout != "" {
			if _, err := time.ParseDuration(activity.Timeout); err != nil {
				return fmt.Errorf("activity %s has invalid timeout: %s", activity.ID, activity.Timeout)
			}
		}
	}
	return nil
}

// SchemaMap converts a typed schema value into the generic map stored in
// the registry.
func SchemaMap(schema interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
