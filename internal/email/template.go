package email

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/renovahub/renewal-api/internal/model"
	"github.com/renovahub/renewal-api/internal/renewal"
)

var renewalTmpl = template.Must(template.New("renewal").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px;">
  <h2 style="color: {{.Color}};">{{.Title}}</h2>
  <p>{{.Body}}</p>
  <table style="border-collapse: collapse;">
    <tr><td style="padding: 4px 12px 4px 0; color: #666;">Software</td><td>{{.SoftwareName}}</td></tr>
    <tr><td style="padding: 4px 12px 4px 0; color: #666;">Renewal date</td><td>{{.RenewalDate}}</td></tr>
    <tr><td style="padding: 4px 12px 4px 0; color: #666;">Amount</td><td>{{.Amount}}</td></tr>
  </table>
  {{if .RenewalURL}}<p><a href="{{.RenewalURL}}">Renew now</a></p>{{end}}
</div>
`))

var severityColors = map[string]string{
	renewal.SeverityInfo:     "#2e7d32",
	renewal.SeverityWarning:  "#f9a825",
	renewal.SeverityUrgent:   "#e65100",
	renewal.SeverityCritical: "#c62828",
	renewal.SeverityExpired:  "#b71c1c",
}

// RenderDecision produces the HTML body for a fired renewal decision.
func RenderDecision(license *model.License, decision *renewal.Decision) (string, error) {
	color, ok := severityColors[decision.Severity]
	if !ok {
		color = "#333333"
	}

	data := struct {
		Title        string
		Body         string
		Color        string
		SoftwareName string
		RenewalDate  string
		Amount       string
		RenewalURL   string
	}{
		Title:        decision.Title,
		Body:         decision.Body,
		Color:        color,
		SoftwareName: license.SoftwareName,
		RenewalDate:  license.RenewalDate.Format("02/01/2006"),
		Amount:       fmt.Sprintf("%.2f %s", license.Amount, license.Currency),
		RenewalURL:   license.RenewalURL,
	}

	var buf bytes.Buffer
	if err := renewalTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render email body: %w", err)
	}
	return buf.String(), nil
}
