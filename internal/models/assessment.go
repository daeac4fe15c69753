// internal/models/assessment.go
package models

import "time"

type FactorType string

const (
	FactorGood    FactorType = "good"
	FactorWarning FactorType = "warning"
)

type Factor struct {
	Type FactorType `json:"type"`
	Text string     `json:"text"`
}

func Good(text string) Factor    { return Factor{Type: FactorGood, Text: text} }
func Warning(text string) Factor { return Factor{Type: FactorWarning, Text: text} }

type Urgency string

const (
	UrgencyUrgent    Urgency = "urgent"
	UrgencyNormal    Urgency = "normal"
	UrgencyPlanAhead Urgency = "plan_ahead"
)

type HarvestWindow struct {
	Start                time.Time `json:"start"`
	End                  time.Time `json:"end"`
	DisplayRange         string    `json:"displayRange"`
	DaysFromToday        string    `json:"daysFromToday"`
	Urgency              Urgency   `json:"urgency"`
	RainDelayDays        int       `json:"rainDelayDays"`
	Recommendation       string    `json:"recommendation"`
	RecommendationDetail string    `json:"recommendationDetail"`
	Factors              []Factor  `json:"factors"`
}

type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

type SpoilageAssessment struct {
	RiskPct      float64   `json:"riskPct"`
	RiskLevel    RiskLevel `json:"riskLevel"`
	Description  string    `json:"description"`
	TransitHours float64   `json:"transitHours"`
	Factors      []Factor  `json:"factors"`
}

type PreservationAction struct {
	Rank          int     `json:"rank"`
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Detail        string  `json:"detail"`
	CostTier      int     `json:"costTier"`
	CostLabel     string  `json:"costLabel"`
	Effectiveness int     `json:"effectiveness"` // 1..5
	SpoilageAfter float64 `json:"spoilageAfter"`
}
