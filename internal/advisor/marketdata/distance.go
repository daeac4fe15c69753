package marketdata

import (
	"fmt"
	"sort"
	"strconv"

	"agrichain/internal/advisor/catalog"
	apperrors "agrichain/internal/common/errors"
	"agrichain/internal/models"
)

// Candidates are the markets reachable from a district, nearest first.
type Candidates struct {
	Markets       []models.MandiDistance
	StateFallback bool // district not listed; state-level rows were used
}

// DistanceTable maps a district (or a whole state) to reachable mandis.
type DistanceTable struct {
	districts map[string][]models.MandiDistance // "state/district"
	states    map[string][]models.MandiDistance
}

func NewDistanceTable(rows []models.MandiDistance) *DistanceTable {
	t := &DistanceTable{
		districts: make(map[string][]models.MandiDistance),
		states:    make(map[string][]models.MandiDistance),
	}
	for _, r := range rows {
		r.State = catalog.NormalizeKey(r.State)
		r.District = catalog.NormalizeKey(r.District)
		if r.District == "" {
			t.states[r.State] = append(t.states[r.State], r)
			continue
		}
		key := r.State + "/" + r.District
		t.districts[key] = append(t.districts[key], r)
	}
	for _, m := range []map[string][]models.MandiDistance{t.districts, t.states} {
		for k, rows := range m {
			sortByDistance(rows)
			m[k] = rows
		}
	}
	return t
}

func sortByDistance(rows []models.MandiDistance) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].DistanceKm != rows[j].DistanceKm {
			return rows[i].DistanceKm < rows[j].DistanceKm
		}
		return rows[i].Market < rows[j].Market
	})
}

// CandidateMarkets returns district rows when the district is listed, else
// the state-level rows. Neither yields NO_REACHABLE_MARKET.
func (t *DistanceTable) CandidateMarkets(state, district string) (Candidates, error) {
	s, d := catalog.NormalizeKey(state), catalog.NormalizeKey(district)
	if rows := t.districts[s+"/"+d]; len(rows) > 0 {
		return Candidates{Markets: append([]models.MandiDistance(nil), rows...)}, nil
	}
	if rows := t.states[s]; len(rows) > 0 {
		return Candidates{Markets: append([]models.MandiDistance(nil), rows...), StateFallback: true}, nil
	}
	return Candidates{}, apperrors.NewNoReachableMarketError(state, district)
}

// LoadDistanceCSV reads State, District, Market, Distance_Km rows. An empty
// District marks a state-level row.
func LoadDistanceCSV(path string) (*DistanceTable, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, apperrors.NewDataLoadFailedError(path, err)
	}
	if len(rows) < 2 {
		return nil, apperrors.NewDataLoadFailedError(path, fmt.Errorf("no distance rows"))
	}

	idx := headerIndex(rows[0])
	for _, col := range []string{"state", "district", "market", "distance_km"} {
		if _, ok := idx[col]; !ok {
			return nil, apperrors.NewDataLoadFailedError(path, fmt.Errorf("missing column %q", col))
		}
	}

	out := make([]models.MandiDistance, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		if len(row) < len(rows[0]) {
			return nil, apperrors.NewDataLoadFailedError(path, fmt.Errorf("line %d: expected %d fields", n+2, len(rows[0])))
		}
		km, err := strconv.ParseFloat(row[idx["distance_km"]], 64)
		if err != nil || km < 0 {
			return nil, apperrors.NewDataLoadFailedError(path, fmt.Errorf("line %d: invalid distance %q", n+2, row[idx["distance_km"]]))
		}
		out = append(out, models.MandiDistance{
			State:      row[idx["state"]],
			District:   row[idx["district"]],
			Market:     row[idx["market"]],
			DistanceKm: km,
		})
	}
	return NewDistanceTable(out), nil
}

func d(state, district, market string, km float64) models.MandiDistance {
	return models.MandiDistance{State: state, District: district, Market: market, DistanceKm: km}
}

// DefaultDistances is the built-in transport table used when no distance
// file is configured.
func DefaultDistances() *DistanceTable {
	return NewDistanceTable([]models.MandiDistance{
		// Maharashtra
		d("maharashtra", "nashik", "Nashik", 15), d("maharashtra", "nashik", "Lasalgaon", 60),
		d("maharashtra", "nashik", "Pune", 210), d("maharashtra", "nashik", "Mumbai", 170),
		d("maharashtra", "nashik", "Aurangabad", 240),
		d("maharashtra", "pune", "Pune", 10), d("maharashtra", "pune", "Nashik", 210),
		d("maharashtra", "pune", "Mumbai", 160), d("maharashtra", "pune", "Solapur", 240),
		d("maharashtra", "nagpur", "Nagpur", 12), d("maharashtra", "nagpur", "Amravati", 150),
		d("maharashtra", "nagpur", "Wardha", 75),
		d("maharashtra", "amravati", "Amravati", 10), d("maharashtra", "amravati", "Nagpur", 150),
		d("maharashtra", "amravati", "Akola", 110),
		d("maharashtra", "kolhapur", "Kolhapur", 8), d("maharashtra", "kolhapur", "Pune", 230),
		d("maharashtra", "kolhapur", "Sangli", 50),
		d("maharashtra", "aurangabad", "Aurangabad", 10), d("maharashtra", "aurangabad", "Nashik", 240),
		d("maharashtra", "aurangabad", "Latur", 200),
		d("maharashtra", "", "Pune", 180), d("maharashtra", "", "Nashik", 200),
		d("maharashtra", "", "Mumbai", 220), d("maharashtra", "", "Aurangabad", 190),
		// Madhya Pradesh
		d("madhya_pradesh", "indore", "Indore", 12), d("madhya_pradesh", "indore", "Bhopal", 195),
		d("madhya_pradesh", "indore", "Ujjain", 55), d("madhya_pradesh", "indore", "Dewas", 40),
		d("madhya_pradesh", "bhopal", "Bhopal", 10), d("madhya_pradesh", "bhopal", "Indore", 195),
		d("madhya_pradesh", "bhopal", "Sagar", 180),
		d("madhya_pradesh", "", "Indore", 150), d("madhya_pradesh", "", "Bhopal", 170),
		// Uttar Pradesh
		d("uttar_pradesh", "agra", "Agra", 8), d("uttar_pradesh", "agra", "Kanpur", 285),
		d("uttar_pradesh", "kanpur", "Kanpur", 10), d("uttar_pradesh", "kanpur", "Lucknow", 90),
		d("uttar_pradesh", "", "Lucknow", 120), d("uttar_pradesh", "", "Kanpur", 140),
		d("uttar_pradesh", "", "Agra", 250),
		// Karnataka
		d("karnataka", "davangere", "Davangere", 10), d("karnataka", "davangere", "Hubli", 145),
		d("karnataka", "hubli", "Hubli", 8), d("karnataka", "hubli", "Dharwad", 20),
		d("karnataka", "", "Bengaluru", 180), d("karnataka", "", "Davangere", 150),
		// Single-market states
		d("rajasthan", "", "Jaipur", 90),
		d("punjab", "", "Chandigarh", 60),
		d("gujarat", "", "Ahmedabad", 80),
		d("telangana", "", "Hyderabad", 70),
	})
}
