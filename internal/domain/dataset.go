package domain

import "strings"

// Tier names one of the three medallion containers.
type Tier string

const (
	TierBronze Tier = "bronze"
	TierSilver Tier = "silver"
	TierGold   Tier = "gold"
)

// DatasetKind tags every stored object so later phases can dispatch on it.
type DatasetKind string

const (
	KindStatCategories DatasetKind = "stat_categories"
	KindCompanies      DatasetKind = "companies"
	KindElectricity    DatasetKind = "electricity"
	KindEurostat       DatasetKind = "eurostat"
)

// MetaDatasetKind is the object metadata key carrying the DatasetKind.
const MetaDatasetKind = "dataset-kind"

// ParseDatasetKind returns the kind for a metadata value, or false when unknown.
func ParseDatasetKind(value string) (DatasetKind, bool) {
	switch kind := DatasetKind(strings.ToLower(strings.TrimSpace(value))); kind {
	case KindStatCategories, KindCompanies, KindElectricity, KindEurostat:
		return kind, true
	default:
		return "", false
	}
}
