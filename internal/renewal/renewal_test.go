package renewal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/renovahub/renewal-api/internal/model"
)

var today = time.Date(2025, time.March, 10, 14, 30, 0, 0, time.UTC)

func inDays(n int) time.Time {
	return today.AddDate(0, 0, n)
}

func activeLicense(renewal time.Time) *model.License {
	return &model.License{
		SoftwareName: "Photoshop",
		RenewalDate:  renewal,
		Status:       model.LicenseStatusActive,
	}
}

func TestDaysUntil(t *testing.T) {
	assert.Equal(t, 0, DaysUntil(today, today))
	assert.Equal(t, 1, DaysUntil(inDays(1), today))
	assert.Equal(t, -1, DaysUntil(inDays(-1), today))
	assert.Equal(t, 30, DaysUntil(inDays(30), today))
}

func TestDaysUntilIgnoresTimeOfDay(t *testing.T) {
	lateToday := time.Date(2025, time.March, 10, 23, 55, 0, 0, time.UTC)
	earlyTomorrow := time.Date(2025, time.March, 11, 0, 5, 0, 0, time.UTC)

	// 10 minutes apart, but a full calendar day for countdown purposes.
	assert.Equal(t, 1, DaysUntil(earlyTomorrow, lateToday))
	assert.Equal(t, UrgencyRed, Classify(earlyTomorrow, lateToday))
}

func TestClassifySameDayIsRedNotExpired(t *testing.T) {
	dueEarlier := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, UrgencyRed, Classify(dueEarlier, today))
	assert.Equal(t, UrgencyRed, Classify(today, today))
}

func TestClassifyBuckets(t *testing.T) {
	for d := -60; d <= 120; d++ {
		got := Classify(inDays(d), today)
		var want UrgencyStatus
		switch {
		case d < 0:
			want = UrgencyExpired
		case d <= 7:
			want = UrgencyRed
		case d <= 30:
			want = UrgencyYellow
		default:
			want = UrgencyGreen
		}
		assert.Equal(t, want, got, "days=%d", d)
	}
}

func TestDecideExactThresholdsOnly(t *testing.T) {
	fires := map[int]string{
		30: SeverityInfo,
		15: SeverityWarning,
		7:  SeverityUrgent,
		1:  SeverityCritical,
	}

	for d := -10; d <= 60; d++ {
		decision := Decide(activeLicense(inDays(d)), today)
		if want, ok := fires[d]; ok {
			if assert.NotNil(t, decision, "days=%d", d) {
				assert.Equal(t, want, decision.Severity, "days=%d", d)
				assert.Equal(t, d, decision.DaysUntil)
			}
			continue
		}
		if d <= 0 {
			if assert.NotNil(t, decision, "days=%d", d) {
				assert.Equal(t, SeverityExpired, decision.Severity)
				assert.Equal(t, TierExpired, decision.Tier)
			}
			continue
		}
		assert.Nil(t, decision, "days=%d should not notify", d)
	}
}

func TestDecideSkipsInactiveLicense(t *testing.T) {
	lic := activeLicense(inDays(1))
	lic.Status = model.LicenseStatusInactive
	assert.Nil(t, Decide(lic, today))

	lic.Status = "paused"
	assert.Nil(t, Decide(lic, today))
}

func TestDecideThirtyDayScenario(t *testing.T) {
	decision := Decide(activeLicense(inDays(30)), today)
	if assert.NotNil(t, decision) {
		assert.Equal(t, SeverityInfo, decision.Severity)
		assert.Equal(t, Tier30Days, decision.Tier)
		assert.Contains(t, decision.Body, "Photoshop")
		assert.Contains(t, decision.Body, "09/04/2025")
	}
}

func TestDecideExpiredScenario(t *testing.T) {
	decision := Decide(activeLicense(inDays(-5)), today)
	if assert.NotNil(t, decision) {
		assert.Equal(t, SeverityExpired, decision.Severity)
		assert.Equal(t, -5, decision.DaysUntil)
	}

	// Expired keeps matching on subsequent days.
	later := today.AddDate(0, 0, 3)
	again := Decide(activeLicense(inDays(-5)), later)
	assert.NotNil(t, again)
	assert.Equal(t, SeverityExpired, again.Severity)
}

func TestDecideDueTodayIsExpiredTier(t *testing.T) {
	// Day zero falls into the <=0 tier, matching the reference behavior
	// where "due today" already counts as past due for reminders.
	decision := Decide(activeLicense(today), today)
	if assert.NotNil(t, decision) {
		assert.Equal(t, SeverityExpired, decision.Severity)
		assert.Equal(t, 0, decision.DaysUntil)
	}
}
