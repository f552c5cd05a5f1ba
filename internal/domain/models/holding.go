package models

import "fmt"

// Region is the currency bucket a holding is denominated in.
type Region string

const (
	RegionUS   Region = "US"
	RegionEU   Region = "EU"
	RegionINTL Region = "INTL"
)

// AllRegions lists the supported regions in evaluation order.
func AllRegions() []Region {
	return []Region{RegionUS, RegionEU, RegionINTL}
}

// IsValidRegion returns true if r is a supported region.
func IsValidRegion(r Region) bool {
	switch r {
	case RegionUS, RegionEU, RegionINTL:
		return true
	default:
		return false
	}
}

// Classification is the coarse stock category used to select threshold variants.
type Classification string

const (
	ClassCompounder Classification = "Compounder"
	ClassCatalyst   Classification = "Catalyst"
	ClassCyclical   Classification = "Cyclical"
)

// AllClassifications lists the supported classifications.
func AllClassifications() []Classification {
	return []Classification{ClassCompounder, ClassCatalyst, ClassCyclical}
}

// IsValidClassification returns true if c is a supported classification.
func IsValidClassification(c Classification) bool {
	switch c {
	case ClassCompounder, ClassCatalyst, ClassCyclical:
		return true
	default:
		return false
	}
}

// MaxTier is the highest quality tier within a classification.
const MaxTier = 3

// Holding is one position in a region portfolio. Holdings are created on
// import, mutated on quantity/price updates, and replaced wholesale on
// re-import; they are never deleted mid-session.
type Holding struct {
	Symbol         string         `json:"symbol"`
	Region         Region         `json:"region"`
	Classification Classification `json:"classification"`
	Tier           int            `json:"tier"`
	Weight         float64        `json:"weight"` // fraction of portfolio, 0..1
	BookPrice      float64        `json:"book_price"`
	Quantity       float64        `json:"quantity"`
}

// Validate reports why a holding cannot be evaluated, or nil.
func (h Holding) Validate() error {
	if h.Symbol == "" {
		return fmt.Errorf("empty symbol")
	}
	if !IsValidRegion(h.Region) {
		return fmt.Errorf("unknown region %q", h.Region)
	}
	if !IsValidClassification(h.Classification) {
		return fmt.Errorf("unknown classification %q", h.Classification)
	}
	if h.Tier < 1 || h.Tier > MaxTier {
		return fmt.Errorf("tier %d out of range 1..%d", h.Tier, MaxTier)
	}
	if h.Quantity < 0 {
		return fmt.Errorf("negative quantity %g", h.Quantity)
	}
	if h.Weight < 0 || h.Weight > 1 {
		return fmt.Errorf("weight %g out of range 0..1", h.Weight)
	}
	return nil
}
