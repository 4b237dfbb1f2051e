package domain

import (
	"time"

	agentdomain "github.com/agentbill/agentbill/internal/agent/domain"
)

// NextBillingDate advances one billing cycle from the given date, landing on
// the anchor day clamped to the target month's last day, at noon in the
// billing timezone. Noon keeps the date stable across DST transitions.
func NextBillingDate(from time.Time, cycle agentdomain.BillingCycle, anchorDay int, timezone string) time.Time {
	loc := loadLocation(timezone)
	t := from.In(loc)

	year, month := t.Year(), t.Month()
	if cycle == agentdomain.BillingCycleYearly {
		year++
	} else {
		month++
	}

	// time.Date normalizes month 13 into January of the next year.
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	lastDay := firstOfMonth.AddDate(0, 1, -1).Day()

	day := anchorDay
	if day < 1 {
		day = 1
	}
	if day > lastDay {
		day = lastDay
	}

	return time.Date(firstOfMonth.Year(), firstOfMonth.Month(), day, 12, 0, 0, 0, loc)
}

func loadLocation(timezone string) *time.Location {
	if timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
