package catalog

import (
	"sort"
	"strings"

	apperrors "agrichain/internal/common/errors"
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Region is a supported (state, district) pair with normalized keys.
type Region struct {
	State       string      `json:"state"`
	District    string      `json:"district"`
	Coordinates Coordinates `json:"coordinates"`
}

// DisplayDistrict renders the district key for humans, e.g. "Nashik".
func (r Region) DisplayDistrict() string {
	return Title(r.District)
}

func (r Region) DisplayState() string {
	return Title(r.State)
}

var regions = map[string]map[string]Coordinates{
	"maharashtra": {
		"nashik":     {19.9975, 73.7898},
		"pune":       {18.5204, 73.8567},
		"nagpur":     {21.1458, 79.0882},
		"amravati":   {20.9374, 77.7796},
		"kolhapur":   {16.7050, 74.2433},
		"aurangabad": {19.8762, 75.3433},
		"solapur":    {17.6599, 75.9064},
		"sangli":     {16.8524, 74.5815},
		"jalgaon":    {21.0077, 75.5626},
	},
	"madhya_pradesh": {
		"indore": {22.7196, 75.8577},
		"bhopal": {23.2599, 77.4126},
		"ujjain": {23.1765, 75.7885},
		"dewas":  {22.9676, 76.0534},
	},
	"uttar_pradesh": {
		"lucknow": {26.8467, 80.9462},
		"agra":    {27.1767, 78.0081},
		"kanpur":  {26.4499, 80.3319},
	},
	"rajasthan": {
		"jaipur": {26.9124, 75.7873},
	},
	"punjab": {
		"chandigarh": {30.7333, 76.7794},
	},
	"gujarat": {
		"ahmedabad": {23.0225, 72.5714},
	},
	"karnataka": {
		"bengaluru": {12.9716, 77.5946},
		"davangere": {14.4644, 75.9218},
		"hubli":     {15.3647, 75.1240},
	},
	"telangana": {
		"hyderabad": {17.3850, 78.4867},
	},
}

// ResolveRegion normalizes and validates a state and district. Unknown
// states or districts yield an UNSUPPORTED_REGION error.
func ResolveRegion(state, district string) (Region, error) {
	s, d := NormalizeKey(state), NormalizeKey(district)
	districts, ok := regions[s]
	if !ok {
		return Region{}, apperrors.NewUnsupportedRegionError(state, district)
	}
	coords, ok := districts[d]
	if !ok {
		return Region{}, apperrors.NewUnsupportedRegionError(state, district)
	}
	return Region{State: s, District: d, Coordinates: coords}, nil
}

// States lists supported states alphabetically.
func States() []string {
	out := make([]string, 0, len(regions))
	for s := range regions {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Districts lists the districts of state alphabetically, or nil.
func Districts(state string) []string {
	districts := regions[NormalizeKey(state)]
	out := make([]string, 0, len(districts))
	for d := range districts {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Title turns a normalized key back into display words.
func Title(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
