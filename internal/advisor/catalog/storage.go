package catalog

import "agrichain/internal/models"

// StorageProfile describes how a storage type affects spoilage.
type StorageProfile struct {
	Type          string  `json:"type"`
	DisplayName   string  `json:"displayName"`
	Penalty       float64 `json:"penalty"` // added to the spoilage score
	ActiveCooling bool    `json:"activeCooling"`
}

// Penalties are strictly decreasing none > home > warehouse > cold.
var storageProfiles = map[string]StorageProfile{
	models.StorageNone:      {Type: models.StorageNone, DisplayName: "No storage", Penalty: 30},
	models.StorageHome:      {Type: models.StorageHome, DisplayName: "Home storage", Penalty: 18},
	models.StorageWarehouse: {Type: models.StorageWarehouse, DisplayName: "Warehouse", Penalty: 8},
	models.StorageCold:      {Type: models.StorageCold, DisplayName: "Cold storage", Penalty: 0, ActiveCooling: true},
}

// Storage returns the profile for a storage type.
func Storage(storage string) (StorageProfile, bool) {
	p, ok := storageProfiles[NormalizeKey(storage)]
	return p, ok
}

// Storages lists storage types from worst to best.
func Storages() []string {
	return []string{models.StorageNone, models.StorageHome, models.StorageWarehouse, models.StorageCold}
}

// PerishabilityProfile holds the spoilage parameters shared by a crop category.
type PerishabilityProfile struct {
	BaseRisk    float64 // starting spoilage score
	TransitRate float64 // score points per hour on the road
}

var perishabilityProfiles = map[Perishability]PerishabilityProfile{
	PerishabilityHigh:   {BaseRisk: 35, TransitRate: 2.0},
	PerishabilityMedium: {BaseRisk: 20, TransitRate: 1.0},
	PerishabilityLow:    {BaseRisk: 10, TransitRate: 0.3},
}

func PerishabilityParams(p Perishability) PerishabilityProfile {
	return perishabilityProfiles[p]
}
