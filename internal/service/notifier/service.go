// Package notifier runs the renewal threshold engine against stored
// licenses and fans fired decisions out to push, email and integration
// channels.
package notifier

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/renovahub/renewal-api/internal/email"
	"github.com/renovahub/renewal-api/internal/model"
	"github.com/renovahub/renewal-api/internal/push"
	"github.com/renovahub/renewal-api/internal/renewal"
	"github.com/renovahub/renewal-api/internal/repository"
	"github.com/renovahub/renewal-api/internal/repository/postgres"
	"github.com/renovahub/renewal-api/internal/service/directory"
	"github.com/renovahub/renewal-api/pkg/errors"
	"github.com/renovahub/renewal-api/pkg/metrics"
)

const (
	defaultWindowDays = 30
	defaultBatchLimit = 1000
)

// Pusher sends a multicast push to a set of device tokens.
type Pusher interface {
	Send(ctx context.Context, tokens []string, title, body string, data map[string]string) (*push.Result, error)
}

// IntegrationDispatcher delivers a decision to external channels and
// reports how many succeeded.
type IntegrationDispatcher interface {
	Dispatch(ctx context.Context, integrations []*model.Integration, license *model.License, decision *renewal.Decision) int
}

// Directory resolves a responsible email to a user profile.
type Directory interface {
	Lookup(ctx context.Context, email string) (*model.User, error)
}

type NotifierServicer interface {
	Sweep(ctx context.Context) (*model.SweepResult, error)
	CheckLicense(ctx context.Context, id uuid.UUID) (*model.NotificationOutcome, error)
	NotifyEvent(ctx context.Context, license *model.License, event string)
	TestNotification(ctx context.Context, userID *uuid.UUID, title, body string) (*push.Result, error)
	Stats(ctx context.Context) (*model.NotificationStats, error)
	Log(ctx context.Context, limit int) ([]*model.NotificationLog, error)
}

type Config struct {
	WindowDays int
	BatchLimit int
}

type Service struct {
	licenses      repository.LicenseRepository
	users         repository.UserRepository
	logs          repository.NotificationLogRepository
	integrations  repository.IntegrationRepository
	emailSettings repository.EmailSettingsRepository
	directory     Directory
	pusher        Pusher
	dispatcher    IntegrationDispatcher
	deduper       Deduper
	metrics       *metrics.Metrics
	logger        zerolog.Logger
	windowDays    int
	batchLimit    int

	// now is swappable so threshold behavior can be pinned to a date.
	now func() time.Time
}

func NewService(
	licenses repository.LicenseRepository,
	users repository.UserRepository,
	logs repository.NotificationLogRepository,
	integrations repository.IntegrationRepository,
	emailSettings repository.EmailSettingsRepository,
	dir Directory,
	pusher Pusher,
	dispatcher IntegrationDispatcher,
	deduper Deduper,
	m *metrics.Metrics,
	logger zerolog.Logger,
	cfg Config,
) *Service {
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = defaultWindowDays
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = defaultBatchLimit
	}
	return &Service{
		licenses:      licenses,
		users:         users,
		logs:          logs,
		integrations:  integrations,
		emailSettings: emailSettings,
		directory:     dir,
		pusher:        pusher,
		dispatcher:    dispatcher,
		deduper:       deduper,
		metrics:       m,
		logger:        logger,
		windowDays:    cfg.WindowDays,
		batchLimit:    cfg.BatchLimit,
		now:           time.Now,
	}
}

// Sweep evaluates every license due within the window and dispatches
// whatever the threshold engine fires. One bad license never aborts the
// batch.
func (s *Service) Sweep(ctx context.Context) (*model.SweepResult, error) {
	start := time.Now()
	today := s.now()

	due, err := s.licenses.ListDue(ctx, today.AddDate(0, 0, s.windowDays), s.batchLimit)
	if err != nil {
		s.metrics.DatabaseOperations.WithLabelValues("list_due", "error").Inc()
		return nil, fmt.Errorf("failed to list due licenses: %w", err)
	}
	s.metrics.DatabaseOperations.WithLabelValues("list_due", "success").Inc()

	enabled, err := s.integrations.ListEnabled(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load integrations, sweeping without them")
		enabled = nil
	}
	sender := s.emailSender(ctx)

	result := &model.SweepResult{TotalChecked: len(due)}
	for _, license := range due {
		s.metrics.LicensesChecked.Inc()
		outcome := s.process(ctx, license, today, enabled, sender)
		result.Outcomes = append(result.Outcomes, outcome)
		if outcome.Sent {
			result.TotalSent++
		}
	}

	s.metrics.SweepDuration.Observe(time.Since(start).Seconds())
	s.logger.Info().
		Int("checked", result.TotalChecked).
		Int("sent", result.TotalSent).
		Dur("took", time.Since(start)).
		Msg("renewal sweep finished")
	return result, nil
}

// CheckLicense runs the threshold engine for a single license right now.
func (s *Service) CheckLicense(ctx context.Context, id uuid.UUID) (*model.NotificationOutcome, error) {
	license, err := s.licenses.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, postgres.ErrNotFound) {
			return nil, errors.NotFound("license", err)
		}
		return nil, fmt.Errorf("failed to get license: %w", err)
	}

	enabled, err := s.integrations.ListEnabled(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load integrations, checking without them")
		enabled = nil
	}

	outcome := s.process(ctx, license, s.now(), enabled, s.emailSender(ctx))
	return &outcome, nil
}

func (s *Service) process(ctx context.Context, license *model.License, today time.Time, integrations []*model.Integration, sender email.Sender) model.NotificationOutcome {
	outcome := model.NotificationOutcome{
		LicenseID:    license.ID,
		SoftwareName: license.SoftwareName,
		DaysUntil:    renewal.DaysUntil(license.RenewalDate, today),
	}

	decision := renewal.Decide(license, today)
	if decision == nil {
		s.metrics.NotificationsSkipped.WithLabelValues("no_threshold").Inc()
		outcome.Reason = "no notification threshold matched"
		return outcome
	}
	outcome.Severity = decision.Severity
	outcome.DaysUntil = decision.DaysUntil

	if !s.deduper.Claim(ctx, license.ID, decision.Tier, today) {
		s.metrics.NotificationsDeduped.Inc()
		outcome.Reason = "already notified today"
		return outcome
	}

	user, err := s.directory.Lookup(ctx, license.ResponsibleEmail)
	if err != nil && !stderrors.Is(err, directory.ErrNoProfile) {
		s.logger.Error().Err(err).
			Str("license_id", license.ID.String()).
			Msg("directory lookup failed")
		outcome.Reason = "directory lookup failed"
		return outcome
	}

	delivered := 0

	if user != nil && len(user.FCMTokens) > 0 {
		res, err := s.pusher.Send(ctx, user.FCMTokens, decision.Title, decision.Body, map[string]string{
			"license_id": license.ID.String(),
			"severity":   decision.Severity,
			"tier":       decision.Tier,
		})
		if err != nil {
			s.metrics.NotificationsFailed.WithLabelValues("push").Inc()
			s.logger.Error().Err(err).
				Str("license_id", license.ID.String()).
				Msg("push delivery failed")
		} else {
			outcome.SuccessCount += res.SuccessCount
			outcome.FailureCount += res.FailureCount
			if res.SuccessCount > 0 {
				delivered++
				s.metrics.NotificationsSent.WithLabelValues(decision.Severity, "push").Inc()
			}
			s.pruneTokens(ctx, user, res.InvalidTokens)
		}
	}

	if sender != nil {
		if err := s.sendEmail(ctx, sender, license, decision); err != nil {
			s.metrics.NotificationsFailed.WithLabelValues("email").Inc()
			s.logger.Error().Err(err).
				Str("license_id", license.ID.String()).
				Msg("email delivery failed")
		} else {
			delivered++
			s.metrics.NotificationsSent.WithLabelValues(decision.Severity, "email").Inc()
		}
	}

	if len(integrations) > 0 {
		n := s.dispatcher.Dispatch(ctx, integrations, license, decision)
		if n > 0 {
			delivered += n
			s.metrics.NotificationsSent.WithLabelValues(decision.Severity, "integration").Add(float64(n))
		}
	}

	outcome.Sent = delivered > 0
	if !outcome.Sent && outcome.Reason == "" {
		switch {
		case user == nil:
			s.metrics.NotificationsSkipped.WithLabelValues("no_user").Inc()
			outcome.Reason = "no user found for responsible email"
		case len(user.FCMTokens) == 0:
			s.metrics.NotificationsSkipped.WithLabelValues("no_tokens").Inc()
			outcome.Reason = "user has no registered devices"
		default:
			outcome.Reason = "all delivery channels failed"
		}
	}

	s.record(ctx, license, decision, &outcome)
	return outcome
}

func (s *Service) sendEmail(ctx context.Context, sender email.Sender, license *model.License, decision *renewal.Decision) error {
	html, err := email.RenderDecision(license, decision)
	if err != nil {
		return err
	}
	return sender.Send(ctx, license.ResponsibleEmail, decision.Title, html)
}

func (s *Service) pruneTokens(ctx context.Context, user *model.User, invalid []string) {
	if len(invalid) == 0 {
		return
	}
	if err := s.users.RemoveFCMTokens(ctx, user.ID, invalid); err != nil {
		s.logger.Error().Err(err).
			Str("user_id", user.ID.String()).
			Msg("failed to prune dead fcm tokens")
		return
	}
	s.logger.Info().
		Str("user_id", user.ID.String()).
		Int("count", len(invalid)).
		Msg("pruned dead fcm tokens")
}

func (s *Service) record(ctx context.Context, license *model.License, decision *renewal.Decision, outcome *model.NotificationOutcome) {
	entry := &model.NotificationLog{
		LicenseID:    license.ID,
		Tier:         decision.Tier,
		Severity:     decision.Severity,
		Recipient:    license.ResponsibleEmail,
		Title:        decision.Title,
		Body:         decision.Body,
		SuccessCount: outcome.SuccessCount,
		FailureCount: outcome.FailureCount,
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		s.logger.Error().Err(err).
			Str("license_id", license.ID.String()).
			Msg("failed to record notification")
	}
}

// Event names for immediate lifecycle notifications.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventRenewed = "renewed"
)

var eventTitles = map[string]string{
	EventCreated: "License added",
	EventUpdated: "License updated",
	EventRenewed: "License renewed",
}

// NotifyEvent sends an informational push about a lifecycle change and
// then re-runs the expiration check for that license. Failures are logged,
// the originating request already succeeded.
func (s *Service) NotifyEvent(ctx context.Context, license *model.License, event string) {
	title, ok := eventTitles[event]
	if !ok {
		return
	}

	user, err := s.directory.Lookup(ctx, license.ResponsibleEmail)
	if err == nil && len(user.FCMTokens) > 0 {
		body := fmt.Sprintf("%s renews on %s", license.SoftwareName, license.RenewalDate.Format("02/01/2006"))
		if _, err := s.pusher.Send(ctx, user.FCMTokens, title, body, map[string]string{
			"license_id": license.ID.String(),
			"event":      event,
		}); err != nil {
			s.logger.Error().Err(err).
				Str("license_id", license.ID.String()).
				Str("event", event).
				Msg("event push failed")
		}
	}

	if _, err := s.CheckLicense(ctx, license.ID); err != nil {
		s.logger.Error().Err(err).
			Str("license_id", license.ID.String()).
			Msg("post-event expiration check failed")
	}
}

// TestNotification pushes a probe message to one user, or to every
// token-holder when userID is nil.
func (s *Service) TestNotification(ctx context.Context, userID *uuid.UUID, title, body string) (*push.Result, error) {
	if title == "" {
		title = "Test notification"
	}
	if body == "" {
		body = "Push delivery is working."
	}

	var tokens []string
	if userID != nil {
		user, err := s.users.Get(ctx, *userID)
		if err != nil {
			if stderrors.Is(err, postgres.ErrNotFound) {
				return nil, errors.NotFound("user", err)
			}
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		tokens = user.FCMTokens
	} else {
		users, err := s.users.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list users: %w", err)
		}
		for _, u := range users {
			tokens = append(tokens, u.FCMTokens...)
		}
	}

	if len(tokens) == 0 {
		return nil, errors.BadRequest("no registered devices to notify", nil)
	}

	res, err := s.pusher.Send(ctx, tokens, title, body, map[string]string{"type": "test"})
	if err != nil {
		return nil, fmt.Errorf("test push failed: %w", err)
	}
	return res, nil
}

// Stats summarizes delivery readiness and license health for the admin
// panel.
func (s *Service) Stats(ctx context.Context) (*model.NotificationStats, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	stats := &model.NotificationStats{LastUpdated: time.Now()}
	stats.FCMStats.TotalUsers = len(users)
	stats.FCMStats.TokensByUser = make(map[string]int)
	for _, u := range users {
		if len(u.FCMTokens) == 0 {
			continue
		}
		stats.FCMStats.UsersWithTokens++
		stats.FCMStats.TotalTokens += len(u.FCMTokens)
		stats.FCMStats.TokensByUser[u.Email] = len(u.FCMTokens)
	}

	today := s.now()
	total, err := s.licenses.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count licenses: %w", err)
	}
	expiring, err := s.licenses.CountDueWithin(ctx, today.AddDate(0, 0, s.windowDays))
	if err != nil {
		return nil, fmt.Errorf("failed to count expiring licenses: %w", err)
	}
	stats.LicenseStats.TotalLicenses = total
	stats.LicenseStats.ExpiringLicenses = expiring
	stats.LicenseStats.HealthyLicenses = total - expiring

	return stats, nil
}

func (s *Service) Log(ctx context.Context, limit int) ([]*model.NotificationLog, error) {
	return s.logs.List(ctx, limit)
}

// emailSender resolves the configured provider once per sweep. Nil means
// email delivery is off.
func (s *Service) emailSender(ctx context.Context) email.Sender {
	settings, err := s.emailSettings.Get(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load email settings, sweeping without email")
		return nil
	}
	return email.SenderFor(settings)
}
