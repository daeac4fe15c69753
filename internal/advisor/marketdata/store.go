// internal/advisor/marketdata/store.go

// Package marketdata holds the read-only reference data of the advisor: mandi
// price history, the mandi distance table and historical crop yields. All of
// it is loaded once at startup and shared across requests without locking.
package marketdata

import (
	"math"
	"sort"
	"strings"
	"time"

	"agrichain/internal/advisor/catalog"
	apperrors "agrichain/internal/common/errors"
	"agrichain/internal/models"
)

// Trend is the price change over a trailing window of a market's history.
type Trend struct {
	Pct           float64 `json:"pct"`
	Points        int     `json:"points"`
	LowConfidence bool    `json:"lowConfidence"`
}

// Store indexes price records by commodity and market. Records are keyed by
// crop when the commodity matches a catalog alias, so "Paddy(Dhan)(Common)"
// rows answer queries for "rice".
type Store struct {
	series  map[string]map[string][]models.CommodityPriceRecord // commodity -> market -> by date
	byState map[string]map[string]map[string]struct{}           // commodity -> state -> markets
	records int
	from    time.Time
	to      time.Time
}

func NewStore(records []models.CommodityPriceRecord) *Store {
	s := &Store{
		series:  make(map[string]map[string][]models.CommodityPriceRecord),
		byState: make(map[string]map[string]map[string]struct{}),
	}

	for _, rec := range records {
		rec.Date = dateOnly(rec.Date)
		commodity := CommodityKey(rec.Commodity)
		market := MarketKey(rec.Market)
		state := catalog.NormalizeKey(rec.State)

		if s.series[commodity] == nil {
			s.series[commodity] = make(map[string][]models.CommodityPriceRecord)
		}
		s.series[commodity][market] = append(s.series[commodity][market], rec)

		if s.byState[commodity] == nil {
			s.byState[commodity] = make(map[string]map[string]struct{})
		}
		if s.byState[commodity][state] == nil {
			s.byState[commodity][state] = make(map[string]struct{})
		}
		s.byState[commodity][state][market] = struct{}{}

		if s.records == 0 || rec.Date.Before(s.from) {
			s.from = rec.Date
		}
		if s.records == 0 || rec.Date.After(s.to) {
			s.to = rec.Date
		}
		s.records++
	}

	for _, markets := range s.series {
		for m, recs := range markets {
			sort.SliceStable(recs, func(i, j int) bool { return recs[i].Date.Before(recs[j].Date) })
			markets[m] = recs
		}
	}
	return s
}

// CommodityKey maps an AGMARKNET commodity name onto a crop key where one
// matches, otherwise onto its normalized name.
func CommodityKey(commodity string) string {
	for _, c := range catalog.Crops() {
		p, _ := catalog.Profile(string(c))
		if p.MatchesCommodity(commodity) {
			return string(c)
		}
	}
	return catalog.NormalizeKey(commodity)
}

// MarketKey normalizes a market name so "Nashik APMC" and "nashik" match.
func MarketKey(market string) string {
	k := catalog.NormalizeKey(market)
	return strings.TrimSuffix(k, "_apmc")
}

// LatestPrice returns the most recent record, or NO_PRICE_DATA.
func (s *Store) LatestPrice(commodity, market string) (models.CommodityPriceRecord, error) {
	recs := s.series[CommodityKey(commodity)][MarketKey(market)]
	if len(recs) == 0 {
		return models.CommodityPriceRecord{}, apperrors.NewNoPriceDataError(commodity, market)
	}
	return recs[len(recs)-1], nil
}

// Trend is the percentage change between the earliest and latest price in
// the windowDays ending at the market's latest record. Fewer than two points
// give a zero trend flagged as low confidence.
func (s *Store) Trend(commodity, market string, windowDays int) Trend {
	recs := s.series[CommodityKey(commodity)][MarketKey(market)]
	if len(recs) == 0 {
		return Trend{LowConfidence: true}
	}

	cutoff := recs[len(recs)-1].Date.AddDate(0, 0, -windowDays)
	start := sort.Search(len(recs), func(i int) bool { return recs[i].Date.After(cutoff) })
	window := recs[start:]

	if len(window) < 2 {
		return Trend{Points: len(window), LowConfidence: true}
	}
	first, last := window[0].Price, window[len(window)-1].Price
	return Trend{
		Pct:    math.Round((last-first)/first*1000) / 10,
		Points: len(window),
	}
}

// StatePrice is the median latest price (₹/kg) across the state's markets.
func (s *Store) StatePrice(commodity, state string) (float64, bool) {
	markets := s.byState[CommodityKey(commodity)][catalog.NormalizeKey(state)]
	return s.medianLatest(commodity, markets)
}

// NationalPrice is the median latest price (₹/kg) across all markets.
func (s *Store) NationalPrice(commodity string) (float64, bool) {
	all := make(map[string]struct{})
	for m := range s.series[CommodityKey(commodity)] {
		all[m] = struct{}{}
	}
	return s.medianLatest(commodity, all)
}

func (s *Store) medianLatest(commodity string, markets map[string]struct{}) (float64, bool) {
	if len(markets) == 0 {
		return 0, false
	}
	prices := make([]float64, 0, len(markets))
	for m := range markets {
		if rec, err := s.LatestPrice(commodity, m); err == nil {
			prices = append(prices, rec.PricePerKg())
		}
	}
	if len(prices) == 0 {
		return 0, false
	}
	sort.Float64s(prices)
	mid := len(prices) / 2
	if len(prices)%2 == 1 {
		return prices[mid], true
	}
	return (prices[mid-1] + prices[mid]) / 2, true
}

// Markets lists the markets with records for commodity.
func (s *Store) Markets(commodity string) []string {
	out := make([]string, 0, len(s.series[CommodityKey(commodity)]))
	for m := range s.series[CommodityKey(commodity)] {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Summary describes the loaded history for health and catalog endpoints.
type Summary struct {
	Records     int       `json:"records"`
	Commodities int       `json:"commodities"`
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
}

func (s *Store) Summary() Summary {
	return Summary{Records: s.records, Commodities: len(s.series), From: s.from, To: s.to}
}
