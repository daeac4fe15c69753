// internal/advisor/catalog/crops.go

// Package catalog holds the static rule tables of the advisor: crop
// profiles, storage penalties and supported regions. Each table is only
// reachable through a lookup function.
package catalog

import (
	"sort"
	"strings"

	apperrors "agrichain/internal/common/errors"
	"agrichain/internal/models"
)

type Crop string

const (
	Tomato  Crop = "tomato"
	Wheat   Crop = "wheat"
	Rice    Crop = "rice"
	Onion   Crop = "onion"
	Potato  Crop = "potato"
	Soybean Crop = "soybean"
	Cotton  Crop = "cotton"
	Maize   Crop = "maize"
)

type Perishability string

const (
	PerishabilityHigh   Perishability = "high"
	PerishabilityMedium Perishability = "medium"
	PerishabilityLow    Perishability = "low"
)

type TempRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// CropProfile is the agronomic and commercial reference data for one crop.
type CropProfile struct {
	Crop        Crop   `json:"crop"`
	DisplayName string `json:"displayName"`

	// StageOffsets is the number of days from a harvest stage to the start
	// of the ready window. Overdue crops have a negative offset.
	StageOffsets map[string]int `json:"stageOffsets"`

	IdealTemp         TempRange     `json:"idealTemp"`
	HumidityTolerance float64       `json:"humidityTolerance"` // % relative humidity
	HarvestWindowDays int           `json:"harvestWindowDays"`
	Perishability     Perishability `json:"perishability"`
	DelayPenaltyDays  int           `json:"delayPenaltyDays"`
	CuringDays        int           `json:"curingDays"`

	YieldKgPerAcre      float64  `json:"yieldKgPerAcre"`
	BenchmarkPricePerKg float64  `json:"benchmarkPricePerKg"`
	CommodityAliases    []string `json:"commodityAliases"`
}

func stages(fifteen, seven, overdue int) map[string]int {
	return map[string]int{
		models.StageFifteenDays: fifteen,
		models.StageSevenDays:   seven,
		models.StageReady:       0,
		models.StageOverdue:     overdue,
	}
}

var cropProfiles = map[Crop]CropProfile{
	Tomato: {
		Crop: Tomato, DisplayName: "Tomato",
		StageOffsets:      stages(15, 7, -3),
		IdealTemp:         TempRange{18, 28},
		HumidityTolerance: 65,
		HarvestWindowDays: 4,
		Perishability:     PerishabilityHigh,
		DelayPenaltyDays:  4,
		YieldKgPerAcre:    8000, BenchmarkPricePerKg: 28.5,
		CommodityAliases: []string{"Tomato"},
	},
	Wheat: {
		Crop: Wheat, DisplayName: "Wheat",
		StageOffsets:      stages(35, 28, -5),
		IdealTemp:         TempRange{15, 25},
		HumidityTolerance: 60,
		HarvestWindowDays: 5,
		Perishability:     PerishabilityLow,
		DelayPenaltyDays:  7,
		YieldKgPerAcre:    1500, BenchmarkPricePerKg: 21.5,
		CommodityAliases: []string{"Wheat"},
	},
	Rice: {
		Crop: Rice, DisplayName: "Rice",
		StageOffsets:      stages(20, 10, -5),
		IdealTemp:         TempRange{20, 32},
		HumidityTolerance: 75,
		HarvestWindowDays: 5,
		Perishability:     PerishabilityLow,
		DelayPenaltyDays:  6,
		CuringDays:        2,
		YieldKgPerAcre:    1800, BenchmarkPricePerKg: 22,
		CommodityAliases: []string{"Paddy", "Rice"},
	},
	Onion: {
		Crop: Onion, DisplayName: "Onion",
		StageOffsets:      stages(10, 5, -4),
		IdealTemp:         TempRange{20, 30},
		HumidityTolerance: 60,
		HarvestWindowDays: 5,
		Perishability:     PerishabilityMedium,
		DelayPenaltyDays:  6,
		CuringDays:        10,
		YieldKgPerAcre:    10000, BenchmarkPricePerKg: 18.5,
		CommodityAliases: []string{"Onion"},
	},
	Potato: {
		Crop: Potato, DisplayName: "Potato",
		StageOffsets:      stages(15, 8, -3),
		IdealTemp:         TempRange{15, 22},
		HumidityTolerance: 70,
		HarvestWindowDays: 6,
		Perishability:     PerishabilityMedium,
		DelayPenaltyDays:  5,
		CuringDays:        3,
		YieldKgPerAcre:    12000, BenchmarkPricePerKg: 14,
		CommodityAliases: []string{"Potato"},
	},
	Soybean: {
		Crop: Soybean, DisplayName: "Soybean",
		StageOffsets:      stages(20, 12, -5),
		IdealTemp:         TempRange{20, 30},
		HumidityTolerance: 50,
		HarvestWindowDays: 5,
		Perishability:     PerishabilityLow,
		DelayPenaltyDays:  8,
		YieldKgPerAcre:    900, BenchmarkPricePerKg: 42,
		CommodityAliases: []string{"Soyabean", "Soybean"},
	},
	Cotton: {
		Crop: Cotton, DisplayName: "Cotton",
		StageOffsets:      stages(20, 10, -7),
		IdealTemp:         TempRange{25, 35},
		HumidityTolerance: 55,
		HarvestWindowDays: 7,
		Perishability:     PerishabilityLow,
		DelayPenaltyDays:  10,
		YieldKgPerAcre:    500, BenchmarkPricePerKg: 65,
		CommodityAliases: []string{"Cotton"},
	},
	Maize: {
		Crop: Maize, DisplayName: "Maize",
		StageOffsets:      stages(18, 9, -4),
		IdealTemp:         TempRange{18, 30},
		HumidityTolerance: 60,
		HarvestWindowDays: 5,
		Perishability:     PerishabilityMedium,
		DelayPenaltyDays:  5,
		CuringDays:        2,
		YieldKgPerAcre:    2000, BenchmarkPricePerKg: 18,
		CommodityAliases: []string{"Maize"},
	},
}

// NormalizeKey lower-cases and trims an identifier and joins words with
// underscores, so "Madhya Pradesh" and "madhya_pradesh" are the same key.
func NormalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "_", " ")), "_")
}

// Profile returns the profile for crop or an UNSUPPORTED_CROP error.
func Profile(crop string) (CropProfile, error) {
	p, ok := cropProfiles[Crop(NormalizeKey(crop))]
	if !ok {
		return CropProfile{}, apperrors.NewUnsupportedCropError(crop)
	}
	return p, nil
}

// Crops lists the supported crops in alphabetical order.
func Crops() []Crop {
	out := make([]Crop, 0, len(cropProfiles))
	for c := range cropProfiles {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// StageOffset returns the offset for stage; ok is false for unknown stages.
func (p CropProfile) StageOffset(stage string) (int, bool) {
	off, ok := p.StageOffsets[stage]
	return off, ok
}

// IsPerishable reports whether heat exposure accelerates spoilage.
func (p CropProfile) IsPerishable() bool {
	return p.Perishability == PerishabilityHigh || p.Perishability == PerishabilityMedium
}

// MatchesCommodity reports whether an AGMARKNET commodity name refers to
// this crop, e.g. "Paddy(Dhan)(Common)" for rice. Only the base name before
// any qualifier is compared, so "Sweet Potato" is not potato.
func (p CropProfile) MatchesCommodity(commodity string) bool {
	base := CommodityBase(commodity)
	for _, alias := range p.CommodityAliases {
		if base == CommodityBase(alias) {
			return true
		}
	}
	return false
}

// CommodityBase lowercases a commodity name and drops any parenthesised
// qualifier: "Cotton(lint)" becomes "cotton".
func CommodityBase(commodity string) string {
	if i := strings.IndexByte(commodity, '('); i >= 0 {
		commodity = commodity[:i]
	}
	return strings.Join(strings.Fields(strings.ToLower(commodity)), " ")
}

// Stages lists the accepted harvest stages, earliest first.
func Stages() []string {
	return []string{models.StageFifteenDays, models.StageSevenDays, models.StageReady, models.StageOverdue}
}
