// internal/models/market.go
package models

import "time"

// CommodityPriceRecord is one AGMARKNET row. Price is the modal price in
// rupees per quintal, as published.
type CommodityPriceRecord struct {
	Commodity string    `json:"commodity"`
	Market    string    `json:"market"`
	District  string    `json:"district"`
	State     string    `json:"state"`
	Date      time.Time `json:"date"`
	Price     float64   `json:"price"`
	Volume    *float64  `json:"volume,omitempty"` // arrivals, tonnes
}

func (r CommodityPriceRecord) PricePerKg() float64 {
	return r.Price / 100
}

// MandiDistance is a reference row of the transport table. An empty District
// marks a state-level row used when the district itself is not listed.
type MandiDistance struct {
	State      string  `json:"state"`
	District   string  `json:"district,omitempty"`
	Market     string  `json:"market"`
	DistanceKm float64 `json:"distanceKm"`
}

type PriceSource string

const (
	PriceFromMarket    PriceSource = "market"
	PriceFromState     PriceSource = "state"
	PriceFromNational  PriceSource = "national"
	PriceFromBenchmark PriceSource = "benchmark"
)

type MarketCandidate struct {
	Name               string      `json:"name"`
	LatestPrice        float64     `json:"latestPrice"` // ₹/kg
	PriceSource        PriceSource `json:"priceSource"`
	TrendPct           float64     `json:"trendPct"`
	TrendPoints        int         `json:"trendPoints"`
	DistanceKm         float64     `json:"distanceKm"`
	TransitHours       float64     `json:"transitHours"`
	TransportCostPerKg float64     `json:"transportCostPerKg"`
	TransportCost      float64     `json:"transportCost"`
	HandlingCost       float64     `json:"handlingCost"`
	ProjectedYieldKg   float64     `json:"projectedYieldKg"`
	NetProfit          float64     `json:"netProfit"`
	IsBest             bool        `json:"isBest"`
}
