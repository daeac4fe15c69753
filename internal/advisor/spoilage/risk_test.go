package spoilage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrichain/internal/advisor/catalog"
	"agrichain/internal/common/config"
	apperrors "agrichain/internal/common/errors"
	"agrichain/internal/models"
)

func flatForecast(temp, humidity float64) models.Forecast {
	fc := models.Forecast{}
	for i := 0; i < models.ForecastDays; i++ {
		fc.Points = append(fc.Points, models.ForecastPoint{DayOffset: i, TemperatureC: temp, HumidityPct: humidity})
	}
	return fc
}

func newModel() *Model {
	return NewModel(config.DefaultEngineConfig().Spoilage)
}

func TestAssess_NoStorageTomatoIsHigh(t *testing.T) {
	p, err := catalog.Profile("tomato")
	require.NoError(t, err)

	a, err := newModel().Assess(Input{Profile: p, Storage: models.StorageNone, Forecast: flatForecast(24, 55)})
	require.NoError(t, err)

	// z = 35 + 30 = 65
	assert.Equal(t, 73.1, a.RiskPct)
	assert.Equal(t, models.RiskHigh, a.RiskLevel)
	assert.Equal(t, "High risk (73.1%) — urgent action required before and during transit.", a.Description)
}

func TestAssess_MonotonicInStorage(t *testing.T) {
	m := newModel()
	for _, crop := range catalog.Crops() {
		p, err := catalog.Profile(string(crop))
		require.NoError(t, err)

		for _, hours := range []float64{0, 1.5, 6, 12} {
			prev := -1.0
			// cold -> warehouse -> home -> none
			for i := len(catalog.Storages()) - 1; i >= 0; i-- {
				a, err := m.Assess(Input{Profile: p, Storage: catalog.Storages()[i], Forecast: flatForecast(33, 85), TransitHours: hours})
				require.NoError(t, err)
				assert.GreaterOrEqual(t, a.RiskPct, prev, "%s %s at %.1fh", crop, catalog.Storages()[i], hours)
				assert.GreaterOrEqual(t, a.RiskPct, 0.0)
				assert.LessOrEqual(t, a.RiskPct, 100.0)
				prev = a.RiskPct
			}
		}
	}
}

func TestAssess_MonotonicInTransit(t *testing.T) {
	m := newModel()
	p, _ := catalog.Profile("onion")
	prev := -1.0
	for _, hours := range []float64{0, 1, 2, 4, 8, 16, 32} {
		a, err := m.Assess(Input{Profile: p, Storage: models.StorageHome, Forecast: flatForecast(25, 50), TransitHours: hours})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, a.RiskPct, prev)
		prev = a.RiskPct
	}
}

func TestScore_Terms(t *testing.T) {
	p, _ := catalog.Profile("tomato")
	m := newModel()

	z, terms, err := m.Score(Input{Profile: p, Storage: models.StorageNone, Forecast: flatForecast(34, 80), TransitHours: 5})
	require.NoError(t, err)
	// base 35, storage 30, humidity (80-65)*0.4, heat (34-30)*1.5, transit 5*2
	assert.InDelta(t, 35+30+6+6+10, z, 1e-9)
	require.Len(t, terms, 5)
	assert.Equal(t, "transit", terms[4].Name)

	_, cold, err := m.Score(Input{Profile: p, Storage: models.StorageCold, Forecast: flatForecast(34, 80), TransitHours: 5})
	require.NoError(t, err)
	assert.InDelta(t, 5, cold[4].Points, 1e-9, "active cooling halves the transit term")
	assert.Zero(t, cold[1].Points)
}

func TestScore_HeatOnlyForPerishables(t *testing.T) {
	wheat, _ := catalog.Profile("wheat")
	_, terms, err := newModel().Score(Input{Profile: wheat, Storage: models.StorageWarehouse, Forecast: flatForecast(40, 40)})
	require.NoError(t, err)
	assert.Zero(t, terms[3].Points)
}

func TestAssess_FactorsLargestFirst(t *testing.T) {
	p, _ := catalog.Profile("tomato")
	a, err := newModel().Assess(Input{Profile: p, Storage: models.StorageNone, Forecast: flatForecast(24, 80), TransitHours: 5})
	require.NoError(t, err)

	require.Len(t, a.Factors, 3)
	assert.Equal(t, models.Warning("No storage: +30 risk points — ventilate well"), a.Factors[0])
	assert.Equal(t, models.Warning("Transit time 5.0 hrs to market: +10 risk points"), a.Factors[1])
	assert.Equal(t, models.Warning("Humidity 80% above the 65% tolerance: +6 risk points"), a.Factors[2])
}

func TestAssess_ColdStorageReassures(t *testing.T) {
	p, _ := catalog.Profile("potato")
	a, err := newModel().Assess(Input{Profile: p, Storage: models.StorageCold, Forecast: flatForecast(20, 60), TransitHours: 1})
	require.NoError(t, err)

	assert.Equal(t, models.RiskLow, a.RiskLevel)
	assert.Contains(t, a.Factors, models.Good("Cold storage significantly reduces spoilage risk"))
	assert.Contains(t, a.Factors, models.Good("Short transit time keeps spoilage low"))
}

func TestLevel_Boundaries(t *testing.T) {
	m := newModel()
	tests := []struct {
		risk float64
		want models.RiskLevel
	}{
		{0, models.RiskLow},
		{29.9, models.RiskLow},
		{30, models.RiskMedium},
		{59.9, models.RiskMedium},
		{60, models.RiskHigh},
		{100, models.RiskHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, m.Level(tt.risk), "risk %.1f", tt.risk)
	}
}

func TestRisk_Midpoint(t *testing.T) {
	m := newModel()
	assert.Equal(t, 50.0, m.Risk(50))
	assert.Less(t, m.Risk(0), m.Risk(50))
	assert.LessOrEqual(t, m.Risk(1000), 100.0)
}

func TestScore_UnknownStorage(t *testing.T) {
	p, _ := catalog.Profile("tomato")
	_, _, err := newModel().Score(Input{Profile: p, Storage: "fridge"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidRequest, apperrors.CodeOf(err))
}
