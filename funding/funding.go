// Package funding implements the England care-funding means test used by
// the eligibility endpoint. All money values are weekly amounts in GBP.
package funding

import (
	"github.com/shopspring/decimal"
)

// Eligibility statuses.
const (
	StatusSelfFunded  = "SELF_FUNDED"
	StatusMeansTested = "MEANS_TESTED"
	StatusFullyFunded = "FULLY_FUNDED"
)

// Means-test constants (England). Tariff income is charged at 1.00 per week
// for every 250.00, or part of it, held between the capital limits.
var (
	upperCapitalLimit         = decimal.RequireFromString("23250")
	lowerCapitalLimit         = decimal.RequireFromString("14250")
	tariffBand                = decimal.RequireFromString("250")
	tariffPerBand             = decimal.RequireFromString("1")
	personalExpensesAllowance = decimal.RequireFromString("28.25")
)

// Assessment is the input to the means test.
type Assessment struct {
	WeeklyCost        decimal.Decimal `json:"weekly_cost"`
	Capital           decimal.Decimal `json:"capital"`
	WeeklyIncome      decimal.Decimal `json:"weekly_income"`
	PrimaryHealthNeed bool            `json:"primary_health_need"`
}

// Result is the outcome of the means test.
type Result struct {
	Status                      string          `json:"status"`
	WeeklyUserContribution      decimal.Decimal `json:"weekly_user_contribution"`
	WeeklyAuthorityContribution decimal.Decimal `json:"weekly_authority_contribution"`
	TariffIncome                decimal.Decimal `json:"tariff_income"`
	Notes                       []string        `json:"notes"`
}

// Assess runs the means test. Pure; never fails.
func Assess(input Assessment) Result {
	cost := input.WeeklyCost.Round(2)

	if input.PrimaryHealthNeed {
		return Result{
			Status:                      StatusFullyFunded,
			WeeklyUserContribution:      decimal.Zero,
			WeeklyAuthorityContribution: cost,
			TariffIncome:                decimal.Zero,
			Notes: []string{
				"Primary health need: NHS continuing healthcare covers the full cost",
			},
		}
	}

	if input.Capital.GreaterThan(upperCapitalLimit) {
		return Result{
			Status:                      StatusSelfFunded,
			WeeklyUserContribution:      cost,
			WeeklyAuthorityContribution: decimal.Zero,
			TariffIncome:                decimal.Zero,
			Notes: []string{
				"Capital above the upper limit of " + upperCapitalLimit.StringFixed(2),
			},
		}
	}

	tariff := tariffIncome(input.Capital)

	assessedIncome := input.WeeklyIncome.Sub(personalExpensesAllowance)
	if assessedIncome.IsNegative() {
		assessedIncome = decimal.Zero
	}

	contribution := assessedIncome.Add(tariff).Round(2)
	var notes []string
	if contribution.GreaterThan(cost) {
		contribution = cost
		notes = append(notes, "Contribution capped at the weekly cost")
	}
	authority := cost.Sub(contribution)
	if authority.IsNegative() {
		authority = decimal.Zero
	}

	notes = append(notes, "Personal expenses allowance of "+
		personalExpensesAllowance.StringFixed(2)+" retained from income")

	return Result{
		Status:                      StatusMeansTested,
		WeeklyUserContribution:      contribution,
		WeeklyAuthorityContribution: authority,
		TariffIncome:                tariff,
		Notes:                       notes,
	}
}

// tariffIncome charges tariffPerBand for every started tariffBand of capital
// above the lower limit.
func tariffIncome(capital decimal.Decimal) decimal.Decimal {
	excess := capital.Sub(lowerCapitalLimit)
	if !excess.IsPositive() {
		return decimal.Zero
	}
	bands := excess.Div(tariffBand).Ceil()
	return bands.Mul(tariffPerBand)
}
