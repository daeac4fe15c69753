// Package explain turns the model outputs into plain-language reasons,
// numbered reasoning steps and a confidence score.
package explain

import (
	"fmt"
	"math"
	"strings"

	"agrichain/internal/advisor/catalog"
	"agrichain/internal/advisor/marketdata"
	"agrichain/internal/models"
)

// Inputs carries every upstream result the explanation is built from.
type Inputs struct {
	Profile  catalog.CropProfile
	Region   catalog.Region
	Request  models.AnalysisRequest
	Forecast models.Forecast
	Harvest  models.HarvestWindow
	Best     models.MarketCandidate
	Markets  []models.MarketCandidate
	Yield    marketdata.YieldEstimate
	Spoilage models.SpoilageAssessment
	Actions  []models.PreservationAction

	RainThreshold   float64
	TrendWindowDays int
}

func Explain(in Inputs) models.Explanation {
	return models.Explanation{
		Weather:  weatherReason(in),
		Price:    priceReason(in),
		Soil:     soilReason(in),
		Spoilage: spoilageReason(in),
	}
}

// Steps returns one step per model in pipeline order: weather, price, soil,
// spoilage.
func Steps(in Inputs) []models.ReasoningStep {
	rain := in.Forecast.RainDays(in.RainThreshold)
	dryWindow := "no rain and favourable temperatures"
	if rain > 0 {
		dryWindow = fmt.Sprintf("%d rain day(s) pushed the start back", in.Harvest.RainDelayDays)
	}

	return []models.ReasoningStep{
		{
			Step: "01", Domain: "weather", Title: "Weather Analysis",
			Description: fmt.Sprintf("Forecast for %s shows %d rain day(s) over 7 days. Average high: %.0f°C, humidity: %.0f%%. The %s window was selected because %s.",
				in.Region.DisplayDistrict(), rain, in.Forecast.AvgTemperature(), in.Forecast.AvgHumidity(), in.Harvest.DisplayRange, dryWindow),
		},
		{
			Step: "02", Domain: "price", Title: "Price Pattern (Mandi Data)",
			Description: fmt.Sprintf("%s gives the best net return of %s on your %s acres across %d reachable market(s). Transport costs %s/kg over %.0f km. Trend: %s. Sell within 2–3 days of harvest for best price.",
				in.Best.Name, rupees(in.Best.NetProfit), trimFloat(in.Request.LandSize), len(in.Markets),
				rupeesPaise(in.Best.TransportCostPerKg), in.Best.DistanceKm, trendText(in.Best, in.TrendWindowDays)),
		},
		{
			Step: "03", Domain: "soil", Title: "Soil & Crop Health",
			Description: fmt.Sprintf("%s %s. Expected yield is about %.0f kg/acre (%s). %s",
				in.Profile.DisplayName, daysPhrase(in.Harvest), in.Yield.KgPerAcre, yieldBasis(in.Yield), in.Harvest.RecommendationDetail),
		},
		{
			Step: "04", Domain: "spoilage", Title: "Spoilage Logic",
			Description: spoilageStep(in),
		},
	}
}

func weatherReason(in Inputs) string {
	rain := in.Forecast.RainDays(in.RainThreshold)
	summary := "no rainfall expected this week"
	if rain > 0 {
		summary = fmt.Sprintf("%d rain day(s) expected — harvest before rain", rain)
	}
	hum := in.Forecast.AvgHumidity()
	tail := "Dry, cool conditions are ideal for harvest and transport."
	if hum > in.Profile.HumidityTolerance {
		tail = "Higher humidity increases fungal risk — act quickly after harvest."
	}
	reason := fmt.Sprintf("Weather forecast for %s shows %s. Average temperature is %.0f°C with %.0f%% humidity. %s",
		in.Region.DisplayDistrict(), summary, in.Forecast.AvgTemperature(), hum, tail)
	if f, ok := dominant(in.Harvest.Factors); ok {
		reason += " " + sentence(f.Text)
	}
	return reason
}

func priceReason(in Inputs) string {
	reason := fmt.Sprintf("Based on mandi price data, %s offers the best net return at %s/kg with transport cost of %s/kg, giving a net profit of %s for your farm size. Price trend: %s.",
		in.Best.Name, rupeesPaise(in.Best.LatestPrice), rupeesPaise(in.Best.TransportCostPerKg), rupees(in.Best.NetProfit), trendText(in.Best, in.TrendWindowDays))
	switch in.Best.PriceSource {
	case models.PriceFromState:
		reason += " No recent prices were recorded at this mandi, so the state median was used."
	case models.PriceFromNational:
		reason += " No recent prices were recorded in this state, so the national median was used."
	case models.PriceFromBenchmark:
		reason += " No mandi prices were available, so a benchmark price was used."
	}
	return reason
}

func soilReason(in Inputs) string {
	stage := "approaching maturity"
	switch in.Harvest.Urgency {
	case models.UrgencyUrgent:
		stage = "at or past peak maturity"
	case models.UrgencyNormal:
		stage = "nearing peak maturity"
	}
	tail := "Plan your harvest crew and transport now."
	if in.Harvest.Urgency == models.UrgencyUrgent {
		tail = "Immediate action recommended to avoid over-ripening."
	}
	reason := fmt.Sprintf("For %s in %s, the crop is %s. Historical yields point to about %.0f kg/acre (%s), or %.0f kg on your land. Harvesting in the %s window reduces shrinkage. %s",
		in.Profile.DisplayName, in.Region.DisplayState(), stage, in.Yield.KgPerAcre, yieldBasis(in.Yield), in.Best.ProjectedYieldKg, in.Harvest.DisplayRange, tail)
	if in.Profile.CuringDays > 0 {
		reason += fmt.Sprintf(" Allow %d day(s) of curing before storage.", in.Profile.CuringDays)
	}
	return reason
}

func spoilageReason(in Inputs) string {
	var keys []string
	for _, f := range in.Spoilage.Factors {
		if len(keys) == 2 {
			break
		}
		keys = append(keys, f.Text)
	}
	reason := fmt.Sprintf("Post-harvest spoilage risk is estimated at %s%% (%s).", trimFloat(in.Spoilage.RiskPct), in.Spoilage.RiskLevel)
	if len(keys) > 0 {
		reason += " Key factors: " + strings.Join(keys, "; ") + "."
	}
	if len(in.Actions) > 0 {
		top := in.Actions[0]
		reason += fmt.Sprintf(" Following the top action (%s) brings it down to about %s%%.", strings.ToLower(top.Title[:1])+top.Title[1:], trimFloat(top.SpoilageAfter))
	}
	return reason
}

func spoilageStep(in Inputs) string {
	desc := fmt.Sprintf("Without intervention, an estimated %s%% of produce may be lost to spoilage during %.1f hrs of transit and storage.",
		trimFloat(in.Spoilage.RiskPct), in.Spoilage.TransitHours)
	if len(in.Actions) > 0 {
		last := in.Actions[len(in.Actions)-1]
		desc += fmt.Sprintf(" Applying the %d recommended action(s) cuts it to about %s%%.", len(in.Actions), trimFloat(last.SpoilageAfter))
	}
	if in.Spoilage.RiskLevel == models.RiskHigh && in.Request.StorageType != models.StorageCold {
		return desc + " Cold storage is strongly recommended for best results."
	}
	return desc + " Simple ventilated crates are sufficient for your risk level."
}

// dominant picks the first warning, else the first factor.
func dominant(factors []models.Factor) (models.Factor, bool) {
	for _, f := range factors {
		if f.Type == models.FactorWarning {
			return f, true
		}
	}
	if len(factors) > 0 {
		return factors[0], true
	}
	return models.Factor{}, false
}

func trendText(c models.MarketCandidate, windowDays int) string {
	switch {
	case c.PriceSource != models.PriceFromMarket || c.TrendPoints < 2:
		return "not enough recent price history"
	case c.TrendPct > 0:
		return fmt.Sprintf("rising %s%% over %d days", trimFloat(c.TrendPct), windowDays)
	case c.TrendPct < 0:
		return fmt.Sprintf("falling %s%% over %d days", trimFloat(math.Abs(c.TrendPct)), windowDays)
	default:
		return fmt.Sprintf("flat over %d days", windowDays)
	}
}

func yieldBasis(y marketdata.YieldEstimate) string {
	switch y.Scope {
	case marketdata.YieldScopeState:
		return fmt.Sprintf("%d state record(s)", y.Points)
	case marketdata.YieldScopeNational:
		return fmt.Sprintf("%d national record(s)", y.Points)
	default:
		return "reference yield, no local history"
	}
}

func daysPhrase(w models.HarvestWindow) string {
	head, _, _ := strings.Cut(w.DaysFromToday, " — ")
	if head == "" {
		return "is close to its harvest window"
	}
	return "reaches its harvest window " + strings.ToLower(head[:1]) + head[1:]
}

func sentence(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasSuffix(s, ".") || strings.HasSuffix(s, "!") {
		return s
	}
	return s + "."
}

// rupees formats a whole-rupee amount with Indian digit grouping.
func rupees(v float64) string {
	neg := v < 0
	n := int64(math.Round(math.Abs(v)))
	s := fmt.Sprintf("%d", n)
	if len(s) > 3 {
		head, tail := s[:len(s)-3], s[len(s)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		s = strings.Join(groups, ",") + "," + tail
	}
	if neg {
		return "-₹" + s
	}
	return "₹" + s
}

func rupeesPaise(v float64) string {
	return fmt.Sprintf("₹%.2f", v)
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.1f", v)
	return strings.TrimSuffix(s, ".0")
}
