// Package harvest picks the harvest window from the crop stage and the
// 7-day forecast.
package harvest

import (
	"fmt"
	"time"

	"agrichain/internal/advisor/catalog"
	"agrichain/internal/common/config"
	apperrors "agrichain/internal/common/errors"
	"agrichain/internal/models"
)

type Model struct {
	rules config.HarvestRules
}

func NewModel(rules config.HarvestRules) *Model {
	return &Model{rules: rules}
}

// Window computes the harvest window starting from today. Each forecast day
// whose rain probability exceeds the threshold pushes the start back a day,
// except for overdue crops which always start today.
func (m *Model) Window(profile catalog.CropProfile, stage string, fc models.Forecast, today time.Time) (models.HarvestWindow, error) {
	offset, ok := profile.StageOffset(stage)
	if !ok {
		return models.HarvestWindow{}, apperrors.NewInvalidRequestError(fmt.Sprintf("unknown harvest stage %q", stage))
	}
	today = dateOnly(today)
	overdue := stage == models.StageOverdue
	rainDays := fc.RainDays(m.rules.RainThreshold)

	startOffset, rainDelay := 0, 0
	if !overdue {
		rainDelay = rainDays
		startOffset = max(0, offset) + rainDelay
	}
	start := today.AddDate(0, 0, startOffset)
	end := start.AddDate(0, 0, profile.HarvestWindowDays-1)
	endOffset := startOffset + profile.HarvestWindowDays - 1
	delayDate := end.AddDate(0, 0, profile.DelayPenaltyDays)

	urgency := m.urgency(startOffset)
	if overdue {
		urgency = models.UrgencyUrgent
	}
	display := DisplayRange(start, end)

	w := models.HarvestWindow{
		Start:          start,
		End:            end,
		DisplayRange:   display,
		DaysFromToday:  daysFromToday(startOffset, endOffset, urgency),
		Urgency:        urgency,
		RainDelayDays:  rainDelay,
		Recommendation: "Harvest between " + display,
	}
	w.RecommendationDetail = recommendationDetail(profile, urgency, overdue, delayDate)
	w.Factors = m.factors(profile, fc, overdue, rainDays, display, delayDate)
	return w, nil
}

func (m *Model) urgency(daysToStart int) models.Urgency {
	switch {
	case daysToStart <= m.rules.UrgentDays:
		return models.UrgencyUrgent
	case daysToStart <= m.rules.NormalDays:
		return models.UrgencyNormal
	default:
		return models.UrgencyPlanAhead
	}
}

func (m *Model) factors(profile catalog.CropProfile, fc models.Forecast, overdue bool, rainDays int, display string, delayDate time.Time) []models.Factor {
	var out []models.Factor

	if overdue {
		out = append(out, models.Warning(fmt.Sprintf("%s is past its ready window — harvest starts today", profile.DisplayName)))
	}

	switch {
	case rainDays == 0:
		out = append(out, models.Good("No rainfall forecast for "+display))
	case overdue:
		out = append(out, models.Warning(fmt.Sprintf("%d rain day(s) forecast — cover harvested produce", rainDays)))
	default:
		out = append(out, models.Warning(fmt.Sprintf("%d rain day(s) forecast — harvest pushed back %d day(s)", rainDays, rainDays)))
	}
	if stretch := m.longestDryStretch(fc); rainDays > 0 && stretch >= m.rules.DryStretchDays {
		out = append(out, models.Good(fmt.Sprintf("%d consecutive dry days in the forecast", stretch)))
	}

	temp := fc.AvgTemperature()
	switch {
	case temp > profile.IdealTemp.Max:
		out = append(out, models.Warning(fmt.Sprintf("High temps %.0f°C — harvest early in the day", temp)))
	case temp < profile.IdealTemp.Min:
		out = append(out, models.Warning(fmt.Sprintf("Cool temps %.0f°C — below the ideal %.0f–%.0f°C range", temp, profile.IdealTemp.Min, profile.IdealTemp.Max)))
	default:
		out = append(out, models.Good(fmt.Sprintf("Avg max temp %.0f°C — within ideal range", temp)))
	}

	if hum := fc.AvgHumidity(); hum <= profile.HumidityTolerance {
		out = append(out, models.Good(fmt.Sprintf("Humidity at %.0f%% — favourable for harvest", hum)))
	} else {
		out = append(out, models.Warning(fmt.Sprintf("High humidity %.0f%% — increases fungal risk", hum)))
	}

	out = append(out, models.Warning(fmt.Sprintf("Delaying past %s risks 15–20%% yield quality loss", shortDate(delayDate))))
	return out
}

func (m *Model) longestDryStretch(fc models.Forecast) int {
	longest, run := 0, 0
	for _, p := range fc.Points {
		if p.RainfallProbability > m.rules.RainThreshold {
			run = 0
			continue
		}
		run++
		longest = max(longest, run)
	}
	return longest
}

func recommendationDetail(profile catalog.CropProfile, urgency models.Urgency, overdue bool, delayDate time.Time) string {
	if overdue {
		return fmt.Sprintf("%s is already past its ready window. Harvest from today and move produce quickly; waiting beyond %s risks quality loss and price drop.",
			profile.DisplayName, shortDate(delayDate))
	}
	detail := fmt.Sprintf("This %d-day window offers the best combination of dry weather, favourable temperatures, and peak mandi demand. ",
		profile.HarvestWindowDays)
	if urgency == models.UrgencyPlanAhead {
		return detail + "Mark your calendar and prepare equipment."
	}
	return detail + "Waiting beyond " + shortDate(delayDate) + " risks quality loss and price drop."
}

func daysFromToday(from, to int, urgency models.Urgency) string {
	suffix := "optimal window"
	switch urgency {
	case models.UrgencyUrgent:
		suffix = "act soon!"
	case models.UrgencyPlanAhead:
		suffix = "plan ahead"
	}
	if from == 0 {
		return fmt.Sprintf("Today to %d days — %s", to, suffix)
	}
	return fmt.Sprintf("In %d–%d days — %s", from, to, suffix)
}

// DisplayRange renders "Jan 2–5", or "Jan 30–Feb 3" across months.
func DisplayRange(start, end time.Time) string {
	if start.Month() == end.Month() && start.Year() == end.Year() {
		return fmt.Sprintf("%s–%d", shortDate(start), end.Day())
	}
	return shortDate(start) + "–" + shortDate(end)
}

func shortDate(t time.Time) string {
	return t.Format("Jan 2")
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
