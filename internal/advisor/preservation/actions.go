// Package preservation recommends post-harvest actions for a spoilage
// assessment.
package preservation

import (
	"math"
	"slices"
	"sort"

	"agrichain/internal/advisor/catalog"
	"agrichain/internal/models"
)

// Action is a catalog entry. Reduction is the spoilage risk (points) the
// action removes when applied.
type Action struct {
	ID            string
	Title         string
	Detail        string
	CostTier      int // 0 = free
	CostLabel     string
	Effectiveness int // 1..5
	Reduction     float64
	AppliesTo     []catalog.Perishability
	ColdChain     bool
}

func (a Action) appliesTo(p catalog.Perishability) bool {
	return slices.Contains(a.AppliesTo, p)
}

var (
	high   = []catalog.Perishability{catalog.PerishabilityHigh}
	medium = []catalog.Perishability{catalog.PerishabilityMedium}
	low    = []catalog.Perishability{catalog.PerishabilityLow}
	fresh  = []catalog.Perishability{catalog.PerishabilityHigh, catalog.PerishabilityMedium}
	all    = []catalog.Perishability{catalog.PerishabilityHigh, catalog.PerishabilityMedium, catalog.PerishabilityLow}
)

var actionCatalog = map[string]Action{
	"early-morning-harvest": {
		Title:  "Harvest in early morning (5–8 AM)",
		Detail: "Cooler temps reduce field heat by 8–10°C. Zero cost, high impact.",
		CostLabel: "FREE", Effectiveness: 4, Reduction: 8, AppliesTo: high,
	},
	"ventilated-crates": {
		Title:  "Use ventilated crates (not gunny bags)",
		Detail: "Reduces moisture buildup by 40%. Prevents crush damage.",
		CostTier: 1, CostLabel: "₹800–1,200", Effectiveness: 4, Reduction: 12, AppliesTo: high,
	},
	"pre-cooling": {
		Title:  "Pre-cooling at nearest cold store (4 hrs)",
		Detail: "Drops core temperature before transit. Best for >5 hr journeys.",
		CostTier: 3, CostLabel: "₹2,500–3,000", Effectiveness: 5, Reduction: 20, AppliesTo: fresh, ColdChain: true,
	},
	"reefer-transport": {
		Title:  "Book a refrigerated truck to the mandi",
		Detail: "Holds produce at 8–12°C in transit. Worth it for long hauls.",
		CostTier: 3, CostLabel: "₹3,000–5,000", Effectiveness: 4, Reduction: 15, AppliesTo: fresh, ColdChain: true,
	},
	"wax-coating": {
		Title:  "Apply wax coating (tomato/onion/potato)",
		Detail: "Reduces water loss and extends shelf life by 2–3 days.",
		CostTier: 2, CostLabel: "₹1,200–1,800", Effectiveness: 3, Reduction: 10, AppliesTo: high,
	},
	"dry-grain": {
		Title:  "Dry grain to <14% moisture before storage",
		Detail: "Prevents mould and insect infestation in storage.",
		CostLabel: "FREE", Effectiveness: 5, Reduction: 15, AppliesTo: low,
	},
	"hdpe-bags": {
		Title:  "Use HDPE / moisture-proof bags",
		Detail: "Prevents re-absorption of humidity during transit.",
		CostTier: 1, CostLabel: "₹400–600", Effectiveness: 4, Reduction: 10, AppliesTo: low,
	},
	"store-away-from-sun": {
		Title:  "Store away from direct sunlight & moisture",
		Detail: "Simple warehouse discipline prevents 8–10% loss.",
		CostLabel: "FREE", Effectiveness: 3, Reduction: 8, AppliesTo: low,
	},
	"cure-before-storage": {
		Title:  "Cure produce before storage (7–10 days in shade)",
		Detail: "Heals surface wounds and hardens skin. Critical for onion/potato.",
		CostLabel: "FREE", Effectiveness: 5, Reduction: 18, AppliesTo: medium,
	},
	"ventilated-storage": {
		Title:  "Use ventilated storage with airflow",
		Detail: "Reduces internal temperature and ethylene buildup.",
		CostTier: 1, CostLabel: "₹600–1,000", Effectiveness: 4, Reduction: 12, AppliesTo: medium,
	},
	"sort-and-grade": {
		Title:  "Sort & grade before packing",
		Detail: "Remove damaged items to prevent spread of rot.",
		CostLabel: "FREE", Effectiveness: 3, Reduction: 8, AppliesTo: fresh,
	},
	"check-cold-store": {
		Title:  "Check cold store temperature daily",
		Detail: "A failed compressor undoes cold storage within a day.",
		CostLabel: "FREE", Effectiveness: 3, Reduction: 5, AppliesTo: all,
	},
}

var (
	basicCare = []string{"early-morning-harvest", "sort-and-grade", "cure-before-storage", "dry-grain", "store-away-from-sun"}
	packaging = []string{"ventilated-crates", "ventilated-storage", "hdpe-bags", "wax-coating"}
	coldChain = []string{"pre-cooling", "reefer-transport"}
	coldStore = []string{"check-cold-store"}
)

type ruleKey struct {
	storage string
	level   models.RiskLevel
}

var ruleTable = map[ruleKey][]string{
	{models.StorageNone, models.RiskLow}:    basicCare,
	{models.StorageNone, models.RiskMedium}: concat(basicCare, packaging),
	{models.StorageNone, models.RiskHigh}:   concat(coldChain, packaging, basicCare),

	{models.StorageHome, models.RiskLow}:    basicCare,
	{models.StorageHome, models.RiskMedium}: concat(basicCare, packaging),
	{models.StorageHome, models.RiskHigh}:   concat(coldChain, packaging, basicCare),

	{models.StorageWarehouse, models.RiskLow}:    basicCare,
	{models.StorageWarehouse, models.RiskMedium}: concat(packaging, basicCare),
	{models.StorageWarehouse, models.RiskHigh}:   concat(coldChain, packaging, basicCare),

	{models.StorageCold, models.RiskLow}:    concat(coldStore, basicCare),
	{models.StorageCold, models.RiskMedium}: concat(coldStore, basicCare, packaging),
	{models.StorageCold, models.RiskHigh}:   concat(coldStore, coldChain, packaging, basicCare),
}

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// Candidates returns the catalog actions listed for (storage, level) that
// apply to the crop's category. Cold-chain actions are dropped for crops
// already in cold storage.
func Candidates(profile catalog.CropProfile, storage string, level models.RiskLevel) []Action {
	st, _ := catalog.Storage(storage)
	var out []Action
	for _, id := range ruleTable[ruleKey{st.Type, level}] {
		a := actionCatalog[id]
		a.ID = id
		if !a.appliesTo(profile.Perishability) {
			continue
		}
		if a.ColdChain && st.ActiveCooling {
			continue
		}
		out = append(out, a)
	}
	return out
}

type Advisor struct {
	maxActions    int
	residualFloor float64
}

func NewAdvisor(maxActions int, residualFloor float64) *Advisor {
	return &Advisor{maxActions: maxActions, residualFloor: residualFloor}
}

// Advise ranks the candidates by effectiveness desc, cost asc and title asc,
// keeps the top maxActions and numbers them 1..k. SpoilageAfter is the
// residual risk after applying the action and every action ranked above it.
func (a *Advisor) Advise(profile catalog.CropProfile, storage string, assessment models.SpoilageAssessment) []models.PreservationAction {
	pool := Candidates(profile, storage, assessment.RiskLevel)
	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].Effectiveness != pool[j].Effectiveness {
			return pool[i].Effectiveness > pool[j].Effectiveness
		}
		if pool[i].CostTier != pool[j].CostTier {
			return pool[i].CostTier < pool[j].CostTier
		}
		return pool[i].Title < pool[j].Title
	})
	if a.maxActions > 0 && len(pool) > a.maxActions {
		pool = pool[:a.maxActions]
	}

	residual := assessment.RiskPct
	out := make([]models.PreservationAction, 0, len(pool))
	for i, act := range pool {
		residual = math.Min(residual, math.Max(a.residualFloor, residual-act.Reduction))
		out = append(out, models.PreservationAction{
			Rank:          i + 1,
			ID:            act.ID,
			Title:         act.Title,
			Detail:        act.Detail,
			CostTier:      act.CostTier,
			CostLabel:     act.CostLabel,
			Effectiveness: act.Effectiveness,
			SpoilageAfter: math.Round(residual*10) / 10,
		})
	}
	return out
}
