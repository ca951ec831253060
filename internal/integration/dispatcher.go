package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/renovahub/renewal-api/internal/model"
	"github.com/renovahub/renewal-api/internal/renewal"
)

const trelloBaseURL = "https://api.trello.com/1"

// Dispatcher fans a fired decision out to every enabled integration. A
// failing channel is logged and skipped, it never blocks the others.
type Dispatcher struct {
	client         *http.Client
	logger         zerolog.Logger
	trelloAPIKey   string
	trelloAPIToken string
}

func NewDispatcher(logger zerolog.Logger, trelloAPIKey, trelloAPIToken string, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		client:         &http.Client{Timeout: timeout},
		logger:         logger,
		trelloAPIKey:   trelloAPIKey,
		trelloAPIToken: trelloAPIToken,
	}
}

// Dispatch sends the decision to each integration and returns how many
// deliveries succeeded.
func (d *Dispatcher) Dispatch(ctx context.Context, integrations []*model.Integration, license *model.License, decision *renewal.Decision) int {
	sent := 0
	for _, integ := range integrations {
		if !integ.Enabled {
			continue
		}
		var err error
		switch integ.Type {
		case model.IntegrationTypeSlack:
			err = d.sendSlack(ctx, integ, license, decision)
		case model.IntegrationTypeTrello:
			err = d.sendTrello(ctx, integ, license, decision)
		case model.IntegrationTypeWebhook:
			err = d.sendWebhook(ctx, integ, license, decision)
		default:
			d.logger.Warn().Str("type", integ.Type).Msg("unknown integration type")
			continue
		}
		if err != nil {
			d.logger.Error().Err(err).
				Str("type", integ.Type).
				Str("license_id", license.ID.String()).
				Msg("integration delivery failed")
			continue
		}
		sent++
	}
	return sent
}

func (d *Dispatcher) sendSlack(ctx context.Context, integ *model.Integration, license *model.License, decision *renewal.Decision) error {
	if integ.Config.URL == "" {
		return fmt.Errorf("slack integration has no webhook url")
	}
	payload, err := json.Marshal(map[string]string{
		"text": RenderTemplate(integ.Config.MessageTemplate, license, decision),
	})
	if err != nil {
		return fmt.Errorf("failed to encode slack payload: %w", err)
	}
	return d.post(ctx, integ.Config.URL, "application/json", payload)
}

// sendTrello creates a card on the configured list with the renewal date
// as the card due date.
func (d *Dispatcher) sendTrello(ctx context.Context, integ *model.Integration, license *model.License, decision *renewal.Decision) error {
	if integ.Config.TrelloListID == "" {
		return fmt.Errorf("trello integration has no list id")
	}
	if d.trelloAPIKey == "" || d.trelloAPIToken == "" {
		return fmt.Errorf("trello api credentials not configured")
	}

	params := url.Values{}
	params.Set("key", d.trelloAPIKey)
	params.Set("token", d.trelloAPIToken)
	params.Set("idList", integ.Config.TrelloListID)
	params.Set("name", decision.Title+" "+license.SoftwareName)
	params.Set("desc", RenderTemplate(integ.Config.MessageTemplate, license, decision))
	params.Set("due", license.RenewalDate.Format(time.RFC3339))

	endpoint := trelloBaseURL + "/cards?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build trello request: %w", err)
	}
	return d.do(req)
}

func (d *Dispatcher) sendWebhook(ctx context.Context, integ *model.Integration, license *model.License, decision *renewal.Decision) error {
	if integ.Config.URL == "" {
		return fmt.Errorf("webhook integration has no url")
	}
	payload, err := json.Marshal(map[string]interface{}{
		"event":    "license.renewal_due",
		"message":  RenderTemplate(integ.Config.MessageTemplate, license, decision),
		"severity": decision.Severity,
		"tier":     decision.Tier,
		"license":  license,
	})
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}
	return d.post(ctx, integ.Config.URL, "application/json", payload)
}

func (d *Dispatcher) post(ctx context.Context, endpoint, contentType string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	return d.do(req)
}

func (d *Dispatcher) do(req *http.Request) error {
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("endpoint returned %d", resp.StatusCode)
	}
	return nil
}
