package catalog

import (
	"agrichain/internal/common/validation"
)

// RequestSchema is the JSON schema for an analysis request, with the crop,
// state, stage and storage enumerations taken from the tables above.
func RequestSchema() validation.JSONSchema {
	crops := make([]string, 0, len(cropProfiles))
	for _, c := range Crops() {
		crops = append(crops, string(c))
	}

	return validation.JSONSchema{
		Schema: validation.Draft07,
		Type:   "object",
		Properties: map[string]validation.Property{
			"cropType": {
				Type:        "string",
				Description: "Crop to analyse",
				Enum:        crops,
			},
			"state": {
				Type:        "string",
				Description: "State key, e.g. maharashtra",
				Enum:        States(),
			},
			"district": {
				Type:        "string",
				Description: "District key within the state, e.g. nashik",
				MinLength:   validation.Int(1),
				Pattern:     `^[a-z_]+$`,
			},
			"harvestStage": {
				Type: "string",
				Enum: Stages(),
			},
			"storageType": {
				Type: "string",
				Enum: Storages(),
			},
			"landSize": {
				Type:             "number",
				Description:      "Cultivated area in acres",
				ExclusiveMinimum: validation.Float(0),
				Maximum:          validation.Float(10000),
			},
		},
		Required: []string{"cropType", "state", "district", "harvestStage", "storageType", "landSize"},
	}
}
