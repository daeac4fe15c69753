// cmd/tools/registry-updater/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"agrichain/internal/advisor/catalog"
	apperrors "agrichain/internal/common/errors"
	"agrichain/internal/common/validation"
	ah "agrichain/internal/workers/advisory/analyze-harvest"
	na "agrichain/internal/workers/advisory/notify-advisory"
	"agrichain/pkg/registry"
)

const defaultRegistryPath = "configs/activity-registry.json"

func main() {
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	syncCmd := flag.NewFlagSet("sync", flag.ExitOnError)

	// Add command flags
	addPath := addCmd.String("path", defaultRegistryPath, "Path to registry file")
	idAdd := addCmd.String("id", "", "Activity ID (e.g., analyze-harvest)")
	displayName := addCmd.String("displayName", "", "Display Name (e.g., Analyze Harvest)")
	description := addCmd.String("description", "", "Description")
	category := addCmd.String("category", "", "Category (e.g., advisory)")
	taskType := addCmd.String("taskType", "", "Camunda Task Type (e.g., analyze-harvest)")
	version := addCmd.String("version", "1.0.0", "Version")
	implStatus := addCmd.String("status", registry.StatusPlanned, "Implementation Status (planned, in-progress, completed, verified)")

	// Update command flags
	updatePath := updateCmd.String("path", defaultRegistryPath, "Path to registry file")
	idUpdate := updateCmd.String("id", "", "Activity ID to update")
	field := updateCmd.String("field", "", "Field to update (status, version, etc.)")
	value := updateCmd.String("value", "", "New value for the field")

	validatePath := validateCmd.String("path", defaultRegistryPath, "Path to registry file")
	syncPath := syncCmd.String("path", defaultRegistryPath, "Path to registry file")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add":
		addCmd.Parse(os.Args[2:])
		if *idAdd == "" || *displayName == "" || *description == "" || *category == "" || *taskType == "" {
			fmt.Println("Error: id, displayName, description, category, and taskType are required for add.")
			addCmd.Usage()
			os.Exit(1)
		}
		activity := registry.Activity{
			ID:                   *idAdd,
			DisplayName:          *displayName,
			Description:          *description,
			Category:             *category,
			Version:              *version,
			TaskType:             *taskType,
			ImplementationStatus: *implStatus,
			InputSchema:          map[string]interface{}{},
			OutputSchema:         map[string]interface{}{},
			ErrorCodes:           []string{},
			Timeout:              "10s",
			Workflows:            []string{},
			Tags:                 []string{},
		}
		exitOnError("adding activity", modify(*addPath, func(reg *registry.ActivityRegistry) error {
			return reg.Add(activity)
		}))
		fmt.Printf("Added activity: %s\n", *idAdd)

	case "update":
		updateCmd.Parse(os.Args[2:])
		if *idUpdate == "" || *field == "" || *value == "" {
			fmt.Println("Error: id, field, and value are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		exitOnError("updating activity", modify(*updatePath, func(reg *registry.ActivityRegistry) error {
			return reg.Update(*idUpdate, *field, *value)
		}))
		fmt.Printf("Updated activity %s, field %s to %s\n", *idUpdate, *field, *value)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		reg, err := registry.LoadRegistry(*validatePath)
		exitOnError("loading registry", err)
		exitOnError("validating registry", reg.Validate())
		fmt.Printf("Registry validation passed. Found %d activities.\n", len(reg.Activities))

	case "sync":
		syncCmd.Parse(os.Args[2:])
		activities, err := advisoryActivities()
		exitOnError("building activities", err)
		exitOnError("syncing registry", modify(*syncPath, func(reg *registry.ActivityRegistry) error {
			for _, a := range activities {
				if reg.Upsert(a) {
					fmt.Printf("Refreshed activity: %s\n", a.ID)
				} else {
					fmt.Printf("Added activity: %s\n", a.ID)
				}
			}
			return reg.Validate()
		}))

	case "help":
		fallthrough
	default:
		help()
	}
}

// modify loads the registry (or starts a new one), applies fn and saves.
func modify(path string, fn func(*registry.ActivityRegistry) error) error {
	reg, err := registry.LoadOrNew(path)
	if err != nil {
		return err
	}
	if err := fn(reg); err != nil {
		return err
	}
	return registry.SaveRegistry(reg, path, time.Now())
}

func exitOnError(action string, err error) {
	if err != nil {
		fmt.Printf("Error %s: %v\n", action, err)
		os.Exit(1)
	}
}

// advisoryActivities describes the service tasks served by cmd/advisor. The
// analyze-harvest input schema is the one the worker and HTTP API validate
// against.
func advisoryActivities() ([]registry.Activity, error) {
	request := catalog.RequestSchema()
	request.Properties["requestId"] = validation.Property{Type: "string", Description: "Caller correlation id; generated when absent"}
	analyzeIn, err := registry.SchemaMap(request)
	if err != nil {
		return nil, err
	}
	analyzeOut, err := registry.SchemaMap(validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"requestId":     {Type: "string"},
			"bestMarket":    {Type: "string"},
			"netProfit":     {Type: "number", Description: "Estimated net profit of the best market in rupees"},
			"harvestWindow": {Type: "string"},
			"urgency":       {Type: "string", Enum: []string{"urgent", "normal", "plan_ahead"}},
			"riskLevel":     {Type: "string", Enum: []string{"Low", "Medium", "High"}},
			"riskPct":       {Type: "number"},
			"topAction":     {Type: "string"},
			"confidence":    {Type: "number"},
			"result":        {Type: "object", Description: "Full analysis result"},
		},
		Required: []string{"requestId", "bestMarket", "harvestWindow", "riskLevel", "confidence"},
	})
	if err != nil {
		return nil, err
	}

	notifyIn, err := registry.SchemaMap(validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"requestId":     {Type: "string"},
			"channel":       {Type: "string", Enum: []string{na.ChannelSMS, na.ChannelEmail, na.ChannelBoth}},
			"farmerPhone":   {Type: "string", Description: "E.164 phone number"},
			"farmerEmail":   {Type: "string"},
			"cropType":      {Type: "string"},
			"bestMarket":    {Type: "string"},
			"netProfit":     {Type: "number"},
			"harvestWindow": {Type: "string"},
			"riskLevel":     {Type: "string"},
			"riskPct":       {Type: "number"},
			"topAction":     {Type: "string"},
			"confidence":    {Type: "number"},
		},
		Required: []string{"channel", "bestMarket", "harvestWindow"},
	})
	if err != nil {
		return nil, err
	}
	notifyOut, err := registry.SchemaMap(validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"messageId":      {Type: "string"},
			"status":         {Type: "string", Enum: []string{na.StatusSent, na.StatusPartial, na.StatusDisabled}},
			"channels":       {Type: "array", Items: &validation.Property{Type: "string"}},
			"failedChannels": {Type: "array", Items: &validation.Property{Type: "string"}},
			"sentAt":         {Type: "string"},
		},
		Required: []string{"status"},
	})
	if err != nil {
		return nil, err
	}

	return []registry.Activity{
		{
			ID:                   ah.TaskType,
			DisplayName:          "Analyze Harvest",
			Description:          "Runs the farm-to-market decision engine: harvest window, mandi ranking, spoilage risk, preservation actions and explanation",
			Category:             "advisory",
			Version:              "1.0.0",
			TaskType:             ah.TaskType,
			ImplementationStatus: registry.StatusCompleted,
			InputSchema:          analyzeIn,
			OutputSchema:         analyzeOut,
			ErrorCodes: codes(
				apperrors.ErrCodeInvalidRequest,
				apperrors.ErrCodeUnsupportedCrop,
				apperrors.ErrCodeUnsupportedRegion,
				apperrors.ErrCodeNoReachableMarket,
				apperrors.ErrCodeAnalysisFailed,
			),
			Timeout:   "30s",
			Retries:   3,
			Workflows: []string{"farm-advisory"},
			Tags:      []string{"harvest", "market", "spoilage"},
		},
		{
			ID:                   na.TaskType,
			DisplayName:          "Notify Advisory",
			Description:          "Sends the advisory summary to the farmer by SMS (SNS) and/or email (SES)",
			Category:             "advisory",
			Version:              "1.0.0",
			TaskType:             na.TaskType,
			ImplementationStatus: registry.StatusCompleted,
			InputSchema:          notifyIn,
			OutputSchema:         notifyOut,
			ErrorCodes: codes(
				apperrors.ErrCodeInvalidRequest,
				apperrors.ErrCodeNotificationSendFailed,
			),
			Timeout:   "15s",
			Retries:   3,
			Workflows: []string{"farm-advisory"},
			Tags:      []string{"notification", "sms", "email"},
		},
	}, nil
}

func codes(cs ...apperrors.ErrorCode) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = string(c)
	}
	return out
}

func help() {
	fmt.Println(`
Usage: registry-updater <command> [flags]

Commands:
  add      Add a new activity to the registry
  update   Update an existing activity's field
  validate Validate the registry file
  sync     Regenerate the advisory activities (schemas, error codes) from code
  help     Show this help message

Examples:
  registry-updater add -id grade-produce -displayName "Grade Produce" -description "Grades produce quality" -category advisory -taskType grade-produce
  registry-updater update -id analyze-harvest -field status -value verified
  registry-updater validate -path configs/activity-registry.json
  registry-updater sync

Use 'registry-updater <command> -h' for more information about a command.
`)
}
