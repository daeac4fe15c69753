// internal/workers/advisory/analyze-harvest/models.go
package analyzeharvest

import "agrichain/internal/models"

// Input is the job payload: the analysis request plus an optional
// correlation id.
type Input struct {
	RequestID string `json:"requestId,omitempty"`
	models.AnalysisRequest
}

// Output flattens the headline figures next to the full result so BPMN
// gateways and the notify-advisory task can read them directly.
type Output struct {
	RequestID     string                 `json:"requestId"`
	BestMarket    string                 `json:"bestMarket"`
	NetProfit     float64                `json:"netProfit"`
	HarvestWindow string                 `json:"harvestWindow"`
	Urgency       string                 `json:"urgency"`
	RiskLevel     string                 `json:"riskLevel"`
	RiskPct       float64                `json:"riskPct"`
	TopAction     string                 `json:"topAction,omitempty"`
	Confidence    float64                `json:"confidence"`
	Result        *models.AnalysisResult `json:"result"`
}
