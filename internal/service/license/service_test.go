package license

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renovahub/renewal-api/internal/model"
	"github.com/renovahub/renewal-api/internal/repository/postgres"
)

type fakeRepo struct {
	licenses map[uuid.UUID]*model.License
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{licenses: make(map[uuid.UUID]*model.License)}
}

func (f *fakeRepo) Create(ctx context.Context, l *model.License) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Status == "" {
		l.Status = model.LicenseStatusActive
	}
	f.licenses[l.ID] = l
	return nil
}

func (f *fakeRepo) Get(ctx context.Context, id uuid.UUID) (*model.License, error) {
	if l, ok := f.licenses[id]; ok {
		return l, nil
	}
	return nil, postgres.ErrNotFound
}

func (f *fakeRepo) Update(ctx context.Context, l *model.License) error {
	if _, ok := f.licenses[l.ID]; !ok {
		return postgres.ErrNotFound
	}
	f.licenses[l.ID] = l
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.licenses[id]; !ok {
		return postgres.ErrNotFound
	}
	delete(f.licenses, id)
	return nil
}

func (f *fakeRepo) List(ctx context.Context, filter *model.LicenseFilter) ([]*model.License, error) {
	var out []*model.License
	for _, l := range f.licenses {
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeRepo) ListDue(ctx context.Context, before time.Time, limit int) ([]*model.License, error) {
	return nil, nil
}

func (f *fakeRepo) CountActive(ctx context.Context) (int, error)                      { return len(f.licenses), nil }
func (f *fakeRepo) CountDueWithin(ctx context.Context, before time.Time) (int, error) { return 0, nil }

func TestRenewLicenseAnchorsToToday(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	// expired two months ago
	license := &model.License{
		SoftwareName:     "Editor Pro",
		RenewalDate:      time.Now().AddDate(0, -2, 0),
		ResponsibleEmail: "owner@corp.com",
		Status:           model.LicenseStatusInactive,
	}
	require.NoError(t, repo.Create(context.Background(), license))

	renewed, err := svc.RenewLicense(context.Background(), license.ID)
	require.NoError(t, err)

	assert.Equal(t, model.LicenseStatusActive, renewed.Status)

	wantDate := time.Now().AddDate(1, 0, 0)
	assert.WithinDuration(t, wantDate, renewed.RenewalDate, time.Minute,
		"renewal anchors to today, not the lapsed date")
}

func TestRenewLicenseNotFound(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.RenewLicense(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestCreateAcceptsZeroAmount(t *testing.T) {
	svc := NewService(newFakeRepo())

	err := svc.CreateLicense(context.Background(), &model.License{
		SoftwareName:     "Free Tier Tool",
		RenewalDate:      time.Now().AddDate(0, 6, 0),
		Amount:           0,
		ResponsibleEmail: "owner@corp.com",
	})
	assert.NoError(t, err)
}

func TestImportRejectsZeroAmount(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	result, err := svc.ImportLicenses(context.Background(), []model.LicenseImportRow{
		{
			SoftwareName:     "Paid Tool",
			RenewalDate:      "2026-06-01",
			Amount:           0,
			ResponsibleEmail: "owner@corp.com",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.SuccessCount)
	assert.Equal(t, 1, result.ErrorCount)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "row 1")
	assert.Empty(t, repo.licenses)
}

func TestImportContinuesPastBadRows(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	rows := []model.LicenseImportRow{
		{SoftwareName: "Good One", RenewalDate: "2026-06-01", Amount: 49.99, ResponsibleEmail: "a@corp.com"},
		{SoftwareName: "", RenewalDate: "2026-06-01", Amount: 10, ResponsibleEmail: "b@corp.com"},
		{SoftwareName: "Bad Date", RenewalDate: "someday", Amount: 10, ResponsibleEmail: "c@corp.com"},
		{SoftwareName: "Bad Email", RenewalDate: "2026-06-01", Amount: 10, ResponsibleEmail: "not-an-email"},
		{SoftwareName: "Good Two", RenewalDate: "15/08/2026", Amount: 20, ResponsibleEmail: "d@corp.com"},
	}

	result, err := svc.ImportLicenses(context.Background(), rows)
	require.NoError(t, err)

	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 3, result.ErrorCount)
	assert.Len(t, repo.licenses, 2)
}

func TestImportDefaultsStatusActive(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	_, err := svc.ImportLicenses(context.Background(), []model.LicenseImportRow{
		{SoftwareName: "Tool", RenewalDate: "2026-06-01", Amount: 5, ResponsibleEmail: "a@corp.com"},
	})
	require.NoError(t, err)

	for _, l := range repo.licenses {
		assert.Equal(t, model.LicenseStatusActive, l.Status)
	}
}

func TestImportNormalizesEmail(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	_, err := svc.ImportLicenses(context.Background(), []model.LicenseImportRow{
		{SoftwareName: "Tool", RenewalDate: "2026-06-01", Amount: 5, ResponsibleEmail: "  Owner@Corp.COM "},
	})
	require.NoError(t, err)

	for _, l := range repo.licenses {
		assert.Equal(t, "owner@corp.com", l.ResponsibleEmail)
	}
}

func TestSummaryBuckets(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	today := time.Now()
	add := func(daysOut int) {
		require.NoError(t, repo.Create(context.Background(), &model.License{
			SoftwareName:     "L",
			RenewalDate:      today.AddDate(0, 0, daysOut),
			ResponsibleEmail: "a@corp.com",
		}))
	}
	add(-10) // expired
	add(3)   // red
	add(20)  // yellow
	add(90)  // green
	add(120) // green

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 1, summary.Expired)
	assert.Equal(t, 1, summary.Red)
	assert.Equal(t, 1, summary.Yellow)
	assert.Equal(t, 2, summary.Green)
}
