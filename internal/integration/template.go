// Package integration posts renewal alerts to external channels: Slack
// incoming webhooks, Trello cards and plain webhooks.
package integration

import (
	"fmt"
	"strings"

	"github.com/renovahub/renewal-api/internal/model"
	"github.com/renovahub/renewal-api/internal/renewal"
)

// DefaultMessageTemplate is used when an integration has no template of
// its own.
const DefaultMessageTemplate = "{{title}}: {{software_name}} renews on {{renewal_date}} ({{amount}})"

// RenderTemplate substitutes {{variable}} placeholders. Unknown
// placeholders are left in place so a typo is visible in the channel
// instead of silently vanishing.
func RenderTemplate(tmpl string, license *model.License, decision *renewal.Decision) string {
	if tmpl == "" {
		tmpl = DefaultMessageTemplate
	}

	replacer := strings.NewReplacer(
		"{{title}}", decision.Title,
		"{{body}}", decision.Body,
		"{{software_name}}", license.SoftwareName,
		"{{renewal_date}}", license.RenewalDate.Format("02/01/2006"),
		"{{amount}}", fmt.Sprintf("%.2f %s", license.Amount, license.Currency),
		"{{days_until}}", fmt.Sprintf("%d", decision.DaysUntil),
		"{{severity}}", decision.Severity,
		"{{responsible_email}}", license.ResponsibleEmail,
		"{{renewal_url}}", license.RenewalURL,
	)
	return replacer.Replace(tmpl)
}
