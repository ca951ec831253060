package integration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/renovahub/renewal-api/internal/model"
	"github.com/renovahub/renewal-api/internal/renewal"
)

func sample() (*model.License, *renewal.Decision) {
	license := &model.License{
		SoftwareName:     "Editor Pro",
		RenewalDate:      time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC),
		Amount:           199.99,
		Currency:         "USD",
		ResponsibleEmail: "owner@corp.com",
		RenewalURL:       "https://vendor.example/renew",
	}
	decision := &renewal.Decision{
		Severity:  renewal.SeverityUrgent,
		Tier:      renewal.Tier7Days,
		Title:     "Renewal due soon",
		Body:      "Editor Pro renews in 7 days",
		DaysUntil: 7,
	}
	return license, decision
}

func TestRenderTemplateSubstitutesAll(t *testing.T) {
	license, decision := sample()

	out := RenderTemplate(
		"{{software_name}} / {{renewal_date}} / {{amount}} / {{days_until}} / {{severity}} / {{responsible_email}} / {{renewal_url}}",
		license, decision)

	assert.Equal(t,
		"Editor Pro / 09/04/2026 / 199.99 USD / 7 / urgent / owner@corp.com / https://vendor.example/renew",
		out)
}

func TestRenderTemplateEmptyUsesDefault(t *testing.T) {
	license, decision := sample()

	out := RenderTemplate("", license, decision)

	assert.Contains(t, out, "Editor Pro")
	assert.Contains(t, out, "09/04/2026")
	assert.Contains(t, out, decision.Title)
}

func TestRenderTemplateLeavesUnknownPlaceholders(t *testing.T) {
	license, decision := sample()

	out := RenderTemplate("{{software_name}} {{no_such_var}}", license, decision)

	assert.Equal(t, "Editor Pro {{no_such_var}}", out)
}
