// Package renewal holds the license expiration decision logic: the urgency
// classifier used by every display surface and the exact-day threshold
// engine shared by the manual check endpoint and the scheduled sweep.
// Everything here is pure; callers supply "today".
package renewal

import (
	"fmt"
	"time"

	"github.com/renovahub/renewal-api/internal/model"
)

// UrgencyStatus is the coarse display classification of a license.
type UrgencyStatus string

const (
	UrgencyExpired UrgencyStatus = "expired"
	UrgencyRed     UrgencyStatus = "red"
	UrgencyYellow  UrgencyStatus = "yellow"
	UrgencyGreen   UrgencyStatus = "green"
)

// Severity tiers for threshold notifications, most urgent last.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityUrgent   = "urgent"
	SeverityCritical = "critical"
	SeverityExpired  = "expired"
)

// Tier tags identify which threshold fired; they key the per-day
// deduplication and the notification log.
const (
	Tier30Days  = "30_days"
	Tier15Days  = "15_days"
	Tier7Days   = "7_days"
	Tier1Day    = "1_day"
	TierExpired = "expired"
)

// DaysUntil returns the calendar-day difference between renewal and today.
// Both instants are truncated to their calendar date first, so a renewal at
// 09:00 tomorrow is 1 day away even when asked at 23:00 today. Negative
// means the renewal date has passed.
func DaysUntil(renewal, today time.Time) int {
	r := dateOf(renewal)
	t := dateOf(today)
	return int(r.Sub(t).Hours() / 24)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Classify maps a renewal date to its urgency bucket. A renewal date equal
// to today's calendar date is due today, not expired; it lands in the red
// bucket via the <=7 branch.
func Classify(renewal, today time.Time) UrgencyStatus {
	days := DaysUntil(renewal, today)
	switch {
	case days < 0:
		return UrgencyExpired
	case days <= 7:
		return UrgencyRed
	case days <= 30:
		return UrgencyYellow
	default:
		return UrgencyGreen
	}
}

// Decision is a notification the threshold engine wants delivered. Delivery
// is the caller's concern; the engine only says what and how urgently.
type Decision struct {
	Severity  string
	Tier      string
	Title     string
	Body      string
	DaysUntil int
}

// Decide evaluates the notification thresholds for a single license.
// Thresholds are exact day counts, not windows: with one evaluation per
// calendar day each tier notifies exactly once as it is crossed. The sole
// exception is the expired tier, which matches again on every later day
// until the license is renewed or deactivated. Returns nil when no tier
// matches or the license is not active.
func Decide(license *model.License, today time.Time) *Decision {
	if license.Status != model.LicenseStatusActive {
		return nil
	}

	days := DaysUntil(license.RenewalDate, today)
	name := license.SoftwareName
	date := license.RenewalDate.Format("02/01/2006")

	switch {
	case days == 30:
		return &Decision{
			Severity:  SeverityInfo,
			Tier:      Tier30Days,
			Title:     "License renewal due in 30 days",
			Body:      fmt.Sprintf("The %s license renews on %s. Plan its renewal.", name, date),
			DaysUntil: days,
		}
	case days == 15:
		return &Decision{
			Severity:  SeverityWarning,
			Tier:      Tier15Days,
			Title:     "License renewal due in 15 days",
			Body:      fmt.Sprintf("The %s license renews on %s. Time to start the renewal.", name, date),
			DaysUntil: days,
		}
	case days == 7:
		return &Decision{
			Severity:  SeverityUrgent,
			Tier:      Tier7Days,
			Title:     "License renewal due in 7 days",
			Body:      fmt.Sprintf("URGENT: the %s license expires on %s.", name, date),
			DaysUntil: days,
		}
	case days == 1:
		return &Decision{
			Severity:  SeverityCritical,
			Tier:      Tier1Day,
			Title:     "License expires tomorrow",
			Body:      fmt.Sprintf("CRITICAL: the %s license expires tomorrow (%s).", name, date),
			DaysUntil: days,
		}
	case days <= 0:
		return &Decision{
			Severity:  SeverityExpired,
			Tier:      TierExpired,
			Title:     "License expired",
			Body:      fmt.Sprintf("The %s license expired on %s. Renew it immediately to avoid interruptions.", name, date),
			DaysUntil: days,
		}
	default:
		return nil
	}
}
