// internal/models/analysis.go
package models

import "time"

type Explanation struct {
	Weather  string `json:"weather"`
	Price    string `json:"price"`
	Soil     string `json:"soil"`
	Spoilage string `json:"spoilage"`
}

type ReasoningStep struct {
	Step        string `json:"step"` // "01".."04"
	Domain      string `json:"domain"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Penalty struct {
	Rule   string  `json:"rule"`
	Points float64 `json:"points"`
	Reason string  `json:"reason"`
}

type Confidence struct {
	Score     float64   `json:"score"`
	Label     string    `json:"label"`
	Band      float64   `json:"band"`
	BandLabel string    `json:"bandLabel"`
	Basis     string    `json:"basis"`
	Penalties []Penalty `json:"penalties,omitempty"`
}

// AnalysisResult is built once per request and never mutated afterwards.
type AnalysisResult struct {
	Request        AnalysisRequest      `json:"request"`
	GeneratedFor   time.Time            `json:"generatedFor"`
	Forecast       Forecast             `json:"forecast"`
	HarvestWindow  HarvestWindow        `json:"harvestWindow"`
	Markets        []MarketCandidate    `json:"markets"`
	BestMarket     MarketCandidate      `json:"bestMarket"`
	Spoilage       SpoilageAssessment   `json:"spoilage"`
	Actions        []PreservationAction `json:"preservationActions"`
	Explanation    Explanation          `json:"explanation"`
	ReasoningSteps []ReasoningStep      `json:"reasoningSteps"`
	Confidence     Confidence           `json:"confidence"`
	DataSources    []string             `json:"dataSources"`
}
