// Package spoilage scores post-harvest loss risk with an additive score
// squashed through a logistic curve.
package spoilage

import (
	"fmt"
	"math"
	"sort"

	"agrichain/internal/advisor/catalog"
	"agrichain/internal/common/config"
	apperrors "agrichain/internal/common/errors"
	"agrichain/internal/models"
)

type Model struct {
	rules config.SpoilageRules
}

func NewModel(rules config.SpoilageRules) *Model {
	return &Model{rules: rules}
}

type Input struct {
	Profile      catalog.CropProfile
	Storage      string
	Forecast     models.Forecast
	TransitHours float64 // to the best market
}

// Term is one additive contribution to the spoilage score.
type Term struct {
	Name   string
	Points float64
}

// Score returns the raw score and its terms in a fixed order: base, storage,
// humidity, heat, transit.
func (m *Model) Score(in Input) (float64, []Term, error) {
	storage, ok := catalog.Storage(in.Storage)
	if !ok {
		return 0, nil, apperrors.NewInvalidRequestError(fmt.Sprintf("unknown storage type %q", in.Storage))
	}
	params := catalog.PerishabilityParams(in.Profile.Perishability)

	humidity := math.Max(0, in.Forecast.AvgHumidity()-in.Profile.HumidityTolerance) * m.rules.HumidityWeight

	var heat float64
	if in.Profile.IsPerishable() {
		heat = math.Max(0, in.Forecast.AvgTemperature()-m.rules.HeatThresholdC) * m.rules.HeatWeight
	}

	transit := in.TransitHours * params.TransitRate
	if storage.ActiveCooling {
		transit /= 2
	}

	terms := []Term{
		{Name: "base", Points: params.BaseRisk},
		{Name: "storage", Points: storage.Penalty},
		{Name: "humidity", Points: humidity},
		{Name: "heat", Points: heat},
		{Name: "transit", Points: transit},
	}
	var z float64
	for _, t := range terms {
		z += t.Points
	}
	return z, terms, nil
}

// Risk maps a score onto [0,100], rounded to one decimal.
func (m *Model) Risk(z float64) float64 {
	r := 100 / (1 + math.Exp(-(z-m.rules.Midpoint)/m.rules.Scale))
	r = math.Round(r*10) / 10
	return math.Min(100, math.Max(0, r))
}

// Level resolves boundaries toward the higher band.
func (m *Model) Level(risk float64) models.RiskLevel {
	switch {
	case risk >= m.rules.HighFrom:
		return models.RiskHigh
	case risk >= m.rules.MediumFrom:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

func (m *Model) Assess(in Input) (models.SpoilageAssessment, error) {
	z, terms, err := m.Score(in)
	if err != nil {
		return models.SpoilageAssessment{}, err
	}
	risk := m.Risk(z)
	level := m.Level(risk)

	return models.SpoilageAssessment{
		RiskPct:      risk,
		RiskLevel:    level,
		Description:  describe(level, risk),
		TransitHours: in.TransitHours,
		Factors:      m.factors(in, terms),
	}, nil
}

// factors lists material terms, largest first, followed by reassurances.
func (m *Model) factors(in Input, terms []Term) []models.Factor {
	storage, _ := catalog.Storage(in.Storage)

	type weighted struct {
		points float64
		factor models.Factor
	}
	var warnings []weighted
	var good []models.Factor

	for _, t := range terms {
		material := t.Points >= m.rules.MaterialityPoints
		switch t.Name {
		case "storage":
			if storage.ActiveCooling {
				good = append(good, models.Good("Cold storage significantly reduces spoilage risk"))
			} else if material {
				warnings = append(warnings, weighted{t.Points, models.Warning(
					fmt.Sprintf("%s: +%.0f risk points — ventilate well", storage.DisplayName, t.Points))})
			}
		case "humidity":
			if material {
				warnings = append(warnings, weighted{t.Points, models.Warning(
					fmt.Sprintf("Humidity %.0f%% above the %.0f%% tolerance: +%.0f risk points",
						in.Forecast.AvgHumidity(), in.Profile.HumidityTolerance, t.Points))})
			}
		case "heat":
			if material {
				warnings = append(warnings, weighted{t.Points, models.Warning(
					fmt.Sprintf("Avg temperature %.0f°C above %.0f°C: +%.0f risk points",
						in.Forecast.AvgTemperature(), m.rules.HeatThresholdC, t.Points))})
			}
		case "transit":
			if material {
				warnings = append(warnings, weighted{t.Points, models.Warning(
					fmt.Sprintf("Transit time %.1f hrs to market: +%.0f risk points", in.TransitHours, t.Points))})
			} else {
				good = append(good, models.Good("Short transit time keeps spoilage low"))
			}
		}
	}

	sort.SliceStable(warnings, func(i, j int) bool { return warnings[i].points > warnings[j].points })
	out := make([]models.Factor, 0, len(warnings)+len(good))
	for _, w := range warnings {
		out = append(out, w.factor)
	}
	return append(out, good...)
}

func describe(level models.RiskLevel, risk float64) string {
	switch level {
	case models.RiskHigh:
		return fmt.Sprintf("High risk (%.1f%%) — urgent action required before and during transit.", risk)
	case models.RiskMedium:
		return fmt.Sprintf("Medium risk (%.1f%%) — take preservation actions to protect your harvest.", risk)
	default:
		return fmt.Sprintf("Low risk (%.1f%%) — standard care during transit is sufficient.", risk)
	}
}
