package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationOutcome records what happened to one license during a sweep.
// Sent=false with a Reason is a normal result, not an error: many
// responsible users have no registered delivery endpoint.
type NotificationOutcome struct {
	LicenseID    uuid.UUID `json:"license_id"`
	SoftwareName string    `json:"software_name"`
	DaysUntil    int       `json:"days_until_renewal"`
	Severity     string    `json:"severity,omitempty"`
	Sent         bool      `json:"sent"`
	Reason       string    `json:"reason,omitempty"`
	SuccessCount int       `json:"success_count,omitempty"`
	FailureCount int       `json:"failure_count,omitempty"`
}

// SweepResult aggregates a full pass over due licenses.
type SweepResult struct {
	TotalChecked int                   `json:"total_licenses_checked"`
	TotalSent    int                   `json:"total_notifications_sent"`
	Outcomes     []NotificationOutcome `json:"results"`
}

// NotificationLog is the persisted audit record of a fired decision.
type NotificationLog struct {
	ID           uuid.UUID `db:"id" json:"id"`
	LicenseID    uuid.UUID `db:"license_id" json:"license_id"`
	Tier         string    `db:"tier" json:"tier"`
	Severity     string    `db:"severity" json:"severity"`
	Recipient    string    `db:"recipient" json:"recipient"`
	Title        string    `db:"title" json:"title"`
	Body         string    `db:"body" json:"body"`
	SuccessCount int       `db:"success_count" json:"success_count"`
	FailureCount int       `db:"failure_count" json:"failure_count"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// NotificationStats mirrors the admin panel's delivery overview.
type NotificationStats struct {
	FCMStats struct {
		TotalTokens     int            `json:"total_tokens"`
		UsersWithTokens int            `json:"users_with_tokens"`
		TotalUsers      int            `json:"total_users"`
		TokensByUser    map[string]int `json:"tokens_by_user"`
	} `json:"fcm_stats"`
	LicenseStats struct {
		TotalLicenses    int `json:"total_licenses"`
		ExpiringLicenses int `json:"expiring_licenses"`
		HealthyLicenses  int `json:"healthy_licenses"`
	} `json:"license_stats"`
	LastUpdated time.Time `json:"last_updated"`
}
