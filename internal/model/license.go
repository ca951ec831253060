package model

import (
	"time"
)

const (
	LicenseStatusActive   = "active"
	LicenseStatusInactive = "inactive"
)

// License is a tracked software license. ResponsibleEmail joins to the user
// directory by value, not by id: licenses are imported from spreadsheets
// where an email column is all we get.
type License struct {
	Base
	SoftwareName     string    `db:"software_name" json:"software_name"`
	RenewalDate      time.Time `db:"renewal_date" json:"renewal_date"`
	Amount           float64   `db:"amount" json:"amount"`
	Currency         string    `db:"currency" json:"currency"`
	ResponsibleEmail string    `db:"responsible_email" json:"responsible_email"`
	RenewalURL       string    `db:"renewal_url" json:"renewal_url,omitempty"`
	Status           string    `db:"status" json:"status"`
	SourceSheet      string    `db:"source_sheet" json:"source_sheet,omitempty"`
}

// LicenseFilter narrows license listings.
type LicenseFilter struct {
	Status      string `form:"status"`
	Search      string `form:"search"`
	SourceSheet string `form:"source_sheet"`
}

// LicenseImportRow is one row of a bulk import before validation. Field
// names follow the spreadsheet column order: software name, renewal date,
// amount, currency, responsible email, renewal URL, status.
type LicenseImportRow struct {
	SoftwareName     string  `json:"software_name" validate:"required"`
	RenewalDate      string  `json:"renewal_date" validate:"required"`
	Amount           float64 `json:"amount" validate:"gt=0"`
	Currency         string  `json:"currency"`
	ResponsibleEmail string  `json:"responsible_email" validate:"required,email"`
	RenewalURL       string  `json:"renewal_url"`
	Status           string  `json:"status"`
	SourceSheet      string  `json:"source_sheet"`
}

// ImportResult aggregates a bulk import: rejected rows are reported, never
// fatal to the batch.
type ImportResult struct {
	SuccessCount int      `json:"success_count"`
	ErrorCount   int      `json:"error_count"`
	Errors       []string `json:"errors,omitempty"`
}

// LicenseSummary holds dashboard counts bucketed by urgency.
type LicenseSummary struct {
	Total   int `json:"total"`
	Expired int `json:"expired"`
	Red     int `json:"red"`
	Yellow  int `json:"yellow"`
	Green   int `json:"green"`
}
