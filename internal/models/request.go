// internal/models/request.go
package models

// Harvest stages accepted by the engine.
const (
	StageFifteenDays = "15days"
	StageSevenDays   = "7days"
	StageReady       = "ready"
	StageOverdue     = "overdue"
)

// Storage types accepted by the engine.
const (
	StorageNone      = "none"
	StorageWarehouse = "warehouse"
	StorageCold      = "cold"
	StorageHome      = "home"
)

// AnalysisRequest is the validated input to the decision engine. Transports
// lower-case and trim the free-text fields before it reaches the engine.
type AnalysisRequest struct {
	CropType     string  `json:"cropType"`
	State        string  `json:"state"`
	District     string  `json:"district"`
	HarvestStage string  `json:"harvestStage"`
	StorageType  string  `json:"storageType"`
	LandSize     float64 `json:"landSize"` // acres
}

// Location returns the forecast location for the request.
func (r AnalysisRequest) Location() Location {
	return Location{State: r.State, District: r.District}
}

// Location identifies a district within a state.
type Location struct {
	State    string `json:"state"`
	District string `json:"district"`
}

func (l Location) String() string {
	return l.State + "/" + l.District
}
