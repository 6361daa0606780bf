// Package pricing holds the weekly fee band tables shown next to a home's
// score. Baselines are national figures; regional multipliers scale them.
package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Care types with distinct fee bands.
const (
	CareTypeResidential         = "RESIDENTIAL"
	CareTypeNursing             = "NURSING"
	CareTypeDementiaResidential = "DEMENTIA_RESIDENTIAL"
	CareTypeDementiaNursing     = "DEMENTIA_NURSING"
)

// Band is a weekly fee range in GBP.
type Band struct {
	CareType string          `json:"care_type"`
	Region   string          `json:"region"`
	Lower    decimal.Decimal `json:"lower"`
	Typical  decimal.Decimal `json:"typical"`
	Upper    decimal.Decimal `json:"upper"`
}

type baseline struct {
	lower   string
	typical string
	upper   string
}

// National weekly baselines per care type.
var baselines = map[string]baseline{
	CareTypeResidential:         {"850", "1050", "1300"},
	CareTypeNursing:             {"1100", "1350", "1700"},
	CareTypeDementiaResidential: {"950", "1150", "1450"},
	CareTypeDementiaNursing:     {"1200", "1500", "1850"},
}

// Regional cost multipliers. Regions not listed use the national baseline.
var regionMultipliers = map[string]string{
	"London":                   "1.25",
	"South East":               "1.15",
	"East of England":          "1.05",
	"South West":               "1.05",
	"West Midlands":            "0.95",
	"East Midlands":            "0.92",
	"North West":               "0.92",
	"Yorkshire and The Humber": "0.90",
	"North East":               "0.88",
}

// BandFor returns the weekly fee band for a region and care type. Unknown
// regions fall back to the national baseline; unknown care types are an
// error.
func BandFor(region, careType string) (Band, error) {
	normalized := strings.ToUpper(strings.TrimSpace(careType))
	base, ok := baselines[normalized]
	if !ok {
		return Band{}, fmt.Errorf("unknown care type %q", careType)
	}

	multiplier := decimal.NewFromInt(1)
	if m, ok := regionMultipliers[region]; ok {
		multiplier = decimal.RequireFromString(m)
	}

	return Band{
		CareType: normalized,
		Region:   region,
		Lower:    decimal.RequireFromString(base.lower).Mul(multiplier).Round(2),
		Typical:  decimal.RequireFromString(base.typical).Mul(multiplier).Round(2),
		Upper:    decimal.RequireFromString(base.upper).Mul(multiplier).Round(2),
	}, nil
}

// CareTypes lists the supported care types.
func CareTypes() []string {
	return []string{
		CareTypeResidential,
		CareTypeNursing,
		CareTypeDementiaResidential,
		CareTypeDementiaNursing,
	}
}
