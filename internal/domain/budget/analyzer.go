// Package budget judges a prospective purchase against the user's finances:
// whether current savings cover it, how long saving up would take, and which
// warnings apply. The result is advisory and never changes the cooling period.
package budget

import (
	"math"
	"time"
)

// daysPerMonth converts monthly savings into a daily rate
const daysPerMonth = 30

// Profile is the financial data the analysis needs
type Profile struct {
	MonthlySalary   float64
	MonthlySavings  float64
	CurrentBalance  float64
	ConsiderSavings bool
}

// IsZero reports whether the user has not filled in any figures yet
func (p Profile) IsZero() bool {
	return p.MonthlySalary == 0 && p.MonthlySavings == 0 && p.CurrentBalance == 0
}

// SavingsPlan describes how long it takes to save up the missing amount
type SavingsPlan struct {
	Shortage      float64   `json:"shortage"`
	DailySavings  float64   `json:"daily_savings"`
	DaysNeeded    int       `json:"days_needed"`
	TargetDate    time.Time `json:"target_date"`
	MonthlyImpact float64   `json:"monthly_impact"`
}

// Analysis is the financial verdict on one purchase
type Analysis struct {
	CanAfford    bool         `json:"can_afford"`
	Shortage     float64      `json:"shortage"`
	BalanceAfter float64      `json:"balance_after"`
	SalaryRatio  float64      `json:"salary_ratio"`
	ExtraDays    int          `json:"extra_days"`
	SavingsPlan  *SavingsPlan `json:"savings_plan,omitempty"`
	Warnings     []Warning    `json:"warnings"`
}

// Analyze evaluates price against the profile at time now.
//
// Salary-based figures (ratio, extra days, salary warnings) are only produced
// when a salary is set. A savings plan requires ConsiderSavings, a shortage
// and positive monthly savings.
func Analyze(now time.Time, price float64, p Profile) Analysis {
	a := Analysis{
		CanAfford:    price <= p.CurrentBalance,
		Shortage:     max(price-p.CurrentBalance, 0),
		BalanceAfter: max(p.CurrentBalance-price, 0),
		Warnings:     make([]Warning, 0),
	}

	if p.MonthlySalary > 0 {
		a.SalaryRatio = price / p.MonthlySalary * 100
		switch {
		case price > p.MonthlySalary*0.5:
			a.ExtraDays = 14
		case price > p.MonthlySalary*0.3:
			a.ExtraDays = 7
		}
		switch {
		case a.SalaryRatio > 100:
			a.Warnings = append(a.Warnings, WarningExceedsSalary)
		case a.SalaryRatio > 50:
			a.Warnings = append(a.Warnings, WarningLargeShareOfSalary)
		}
	}

	if !a.CanAfford {
		a.Warnings = append(a.Warnings, WarningInsufficientSavings)
		if p.ConsiderSavings && p.MonthlySavings > 0 {
			a.SavingsPlan = plan(now, price, a.Shortage, p)
			switch days := a.SavingsPlan.DaysNeeded; {
			case days > 90:
				a.Warnings = append(a.Warnings, WarningLongSavingsPlan)
			case days > 30:
				a.Warnings = append(a.Warnings, WarningSavingsPlan)
			default:
				a.Warnings = append(a.Warnings, WarningShortSavingsPlan)
			}
		}
	} else if price > p.CurrentBalance*0.8 {
		a.Warnings = append(a.Warnings, WarningDrainsSavings)
	}

	if p.CurrentBalance > 0 && p.CurrentBalance-price < p.MonthlySalary {
		a.Warnings = append(a.Warnings, WarningThinCushion)
	}

	return a
}

func plan(now time.Time, price, shortage float64, p Profile) *SavingsPlan {
	daily := p.MonthlySavings / daysPerMonth
	days := int(math.Floor(shortage/daily)) + 1

	sp := &SavingsPlan{
		Shortage:     shortage,
		DailySavings: daily,
		DaysNeeded:   days,
		TargetDate:   now.AddDate(0, 0, days),
	}
	if p.MonthlySalary > 0 {
		sp.MonthlyImpact = price / p.MonthlySalary * 100
	}
	return sp
}
