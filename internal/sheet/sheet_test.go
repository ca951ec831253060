package sheet

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/renovahub/renewal-api/internal/model"
)

func TestWorkbookRoundTrip(t *testing.T) {
	licenses := []*model.License{
		{
			SoftwareName:     "Editor Pro",
			RenewalDate:      time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
			Amount:           199.99,
			Currency:         "USD",
			ResponsibleEmail: "owner@corp.com",
			RenewalURL:       "https://vendor.example/renew",
			Status:           model.LicenseStatusActive,
		},
		{
			SoftwareName:     "Scanner",
			RenewalDate:      time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
			Amount:           49.50,
			Currency:         "EUR",
			ResponsibleEmail: "other@corp.com",
			Status:           model.LicenseStatusInactive,
		},
	}

	f, err := BuildWorkbook(licenses)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	rows, err := ParseWorkbook(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Editor Pro", rows[0].SoftwareName)
	assert.Equal(t, "2026-06-01", rows[0].RenewalDate)
	assert.InDelta(t, 199.99, rows[0].Amount, 0.001)
	assert.Equal(t, "USD", rows[0].Currency)
	assert.Equal(t, "owner@corp.com", rows[0].ResponsibleEmail)
	assert.Equal(t, "https://vendor.example/renew", rows[0].RenewalURL)
	assert.Equal(t, model.LicenseStatusActive, rows[0].Status)
	assert.Equal(t, "Licenses", rows[0].SourceSheet)

	assert.Equal(t, "Scanner", rows[1].SoftwareName)
	assert.Equal(t, model.LicenseStatusInactive, rows[1].Status)
}

func TestParseSkipsHeaderAndBlankRows(t *testing.T) {
	f := excelize.NewFile()
	sheetName := f.GetSheetName(0)

	require.NoError(t, f.SetSheetRow(sheetName, "A1", &[]interface{}{
		"Software Name", "Renewal Date", "Amount", "Currency", "Responsible Email",
	}))
	require.NoError(t, f.SetSheetRow(sheetName, "A2", &[]interface{}{
		"Tool", "2026-01-01", 10.0, "USD", "a@corp.com",
	}))
	// A3 stays blank
	require.NoError(t, f.SetSheetRow(sheetName, "A4", &[]interface{}{
		"Other", "2026-02-01", 20.0, "USD", "b@corp.com",
	}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	rows, err := ParseWorkbook(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Tool", rows[0].SoftwareName)
	assert.Equal(t, "Other", rows[1].SoftwareName)
}

func TestParseMultipleSheetsTagsSource(t *testing.T) {
	f := excelize.NewFile()
	first := f.GetSheetName(0)
	f.SetSheetName(first, "Engineering")
	_, err := f.NewSheet("Marketing")
	require.NoError(t, err)

	require.NoError(t, f.SetSheetRow("Engineering", "A1", &[]interface{}{"Software Name"}))
	require.NoError(t, f.SetSheetRow("Engineering", "A2", &[]interface{}{"IDE"}))
	require.NoError(t, f.SetSheetRow("Marketing", "A1", &[]interface{}{"Software Name"}))
	require.NoError(t, f.SetSheetRow("Marketing", "A2", &[]interface{}{"CRM"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	rows, err := ParseWorkbook(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	bySheet := map[string]string{}
	for _, r := range rows {
		bySheet[r.SourceSheet] = r.SoftwareName
	}
	assert.Equal(t, "IDE", bySheet["Engineering"])
	assert.Equal(t, "CRM", bySheet["Marketing"])
}

func TestParseShortRows(t *testing.T) {
	f := excelize.NewFile()
	sheetName := f.GetSheetName(0)

	require.NoError(t, f.SetSheetRow(sheetName, "A1", &[]interface{}{"Software Name"}))
	require.NoError(t, f.SetSheetRow(sheetName, "A2", &[]interface{}{"Bare"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	rows, err := ParseWorkbook(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Bare", rows[0].SoftwareName)
	assert.Empty(t, rows[0].ResponsibleEmail)
	assert.Zero(t, rows[0].Amount)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := ParseWorkbook(bytes.NewReader([]byte("not an xlsx file")))
	assert.Error(t, err)
}
