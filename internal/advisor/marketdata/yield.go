package marketdata

import (
	"fmt"
	"strconv"
	"strings"

	"agrichain/internal/advisor/catalog"
	apperrors "agrichain/internal/common/errors"
)

// kg/acre per t/ha
const tonnesPerHectareToKgPerAcre = 1000 / 2.471

type YieldScope string

const (
	YieldScopeState    YieldScope = "state"
	YieldScopeNational YieldScope = "national"
	YieldScopeCatalog  YieldScope = "catalog"
)

// YieldEstimate is the projected yield per acre and how much history backs it.
type YieldEstimate struct {
	KgPerAcre      float64    `json:"kgPerAcre"`
	Points         int        `json:"points"`
	Scope          YieldScope `json:"scope"`
	MeanRainfallMM float64    `json:"meanRainfallMm,omitempty"`
}

type yieldAgg struct {
	sum, rain float64
	n, rainN  int
}

func (a *yieldAgg) add(kgPerAcre, rainfall float64) {
	a.sum += kgPerAcre
	a.n++
	if rainfall > 0 {
		a.rain += rainfall
		a.rainN++
	}
}

func (a *yieldAgg) estimate(scope YieldScope) YieldEstimate {
	e := YieldEstimate{KgPerAcre: a.sum / float64(a.n), Points: a.n, Scope: scope}
	if a.rainN > 0 {
		e.MeanRainfallMM = a.rain / float64(a.rainN)
	}
	return e
}

// YieldHistory holds mean historical yields per crop and per (crop, state).
type YieldHistory struct {
	national map[string]*yieldAgg
	byState  map[string]*yieldAgg // "crop/state"
}

// NewYieldHistory returns an empty history; every lookup falls back to the
// catalog constant.
func NewYieldHistory() *YieldHistory {
	return &YieldHistory{national: map[string]*yieldAgg{}, byState: map[string]*yieldAgg{}}
}

// Add records one observation in tonnes per hectare.
func (h *YieldHistory) Add(crop, state string, tonnesPerHectare, rainfallMM float64) {
	if tonnesPerHectare <= 0 {
		return
	}
	kg := tonnesPerHectare * tonnesPerHectareToKgPerAcre
	crop = CommodityKey(crop)
	state = catalog.NormalizeKey(state)

	if h.national[crop] == nil {
		h.national[crop] = &yieldAgg{}
	}
	h.national[crop].add(kg, rainfallMM)

	key := crop + "/" + state
	if h.byState[key] == nil {
		h.byState[key] = &yieldAgg{}
	}
	h.byState[key].add(kg, rainfallMM)
}

// YieldFor returns the state mean when the state has history, the national
// mean otherwise, and the catalog yield with zero points as a last resort.
func (h *YieldHistory) YieldFor(crop, state string) YieldEstimate {
	key := CommodityKey(crop)
	if a := h.byState[key+"/"+catalog.NormalizeKey(state)]; a != nil && a.n > 0 {
		return a.estimate(YieldScopeState)
	}
	if a := h.national[key]; a != nil && a.n > 0 {
		return a.estimate(YieldScopeNational)
	}
	est := YieldEstimate{Scope: YieldScopeCatalog}
	if p, err := catalog.Profile(crop); err == nil {
		est.KgPerAcre = p.YieldKgPerAcre
	}
	return est
}

// LoadYieldCSV reads the crop yield history. Rows with a zero yield are
// skipped; anything non-numeric is fatal.
func LoadYieldCSV(path string) (*YieldHistory, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, apperrors.NewDataLoadFailedError(path, err)
	}
	if len(rows) < 2 {
		return nil, apperrors.NewDataLoadFailedError(path, fmt.Errorf("no yield rows"))
	}

	idx := headerIndex(rows[0])
	for _, col := range []string{"crop", "state", "yield"} {
		if _, ok := idx[col]; !ok {
			return nil, apperrors.NewDataLoadFailedError(path, fmt.Errorf("missing column %q", col))
		}
	}
	rainCol, hasRain := idx["annual_rainfall"]

	h := NewYieldHistory()
	for n, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		if len(row) < len(rows[0]) {
			return nil, apperrors.NewDataLoadFailedError(path, fmt.Errorf("line %d: expected %d fields", n+2, len(rows[0])))
		}
		yield, err := strconv.ParseFloat(strings.TrimSpace(row[idx["yield"]]), 64)
		if err != nil {
			return nil, apperrors.NewDataLoadFailedError(path, fmt.Errorf("line %d: invalid yield %q", n+2, row[idx["yield"]]))
		}
		var rain float64
		if hasRain {
			if raw := strings.TrimSpace(row[rainCol]); raw != "" {
				if rain, err = strconv.ParseFloat(raw, 64); err != nil {
					return nil, apperrors.NewDataLoadFailedError(path, fmt.Errorf("line %d: invalid rainfall %q", n+2, raw))
				}
			}
		}
		h.Add(row[idx["crop"]], row[idx["state"]], yield, rain)
	}
	return h, nil
}
