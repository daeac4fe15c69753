// internal/workers/advisory/notify-advisory/models.go
package notifyadvisory

// Input carries the contact details and the headline figures produced by
// the analyze-harvest task.
type Input struct {
	RequestID     string  `json:"requestId"`
	Channel       string  `json:"channel"` // "sms", "email" or "both"
	Phone         string  `json:"farmerPhone,omitempty"`
	Email         string  `json:"farmerEmail,omitempty"`
	CropType      string  `json:"cropType"`
	BestMarket    string  `json:"bestMarket"`
	NetProfit     float64 `json:"netProfit"`
	HarvestWindow string  `json:"harvestWindow"`
	Urgency       string  `json:"urgency"`
	RiskLevel     string  `json:"riskLevel"`
	RiskPct       float64 `json:"riskPct"`
	TopAction     string  `json:"topAction,omitempty"`
	Confidence    float64 `json:"confidence"`
}

type Output struct {
	MessageID      string   `json:"messageId"`
	Status         string   `json:"status"` // "sent", "partial", "disabled"
	Channels       []string `json:"channels,omitempty"`
	FailedChannels []string `json:"failedChannels,omitempty"`
	SentAt         string   `json:"sentAt"` // ISO 8601
}

// Channels
const (
	ChannelSMS   = "sms"
	ChannelEmail = "email"
	ChannelBoth  = "both"
)

// Statuses
const (
	StatusSent     = "sent"
	StatusPartial  = "partial"
	StatusDisabled = "disabled"
)
