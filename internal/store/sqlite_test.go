package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthsignals/riskwatch/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func insertReport(t *testing.T, s *SQLiteStore, id, villageID string, diarrhea int, createdAt time.Time) {
	t.Helper()
	_, err := s.db.Exec(
		`INSERT INTO reports (id, village_id, diarrhea_cases, fever_cases, vomiting_cases, cases_under_five, water_source, latitude, longitude, created_at)
		 VALUES (?, ?, ?, 1, 0, 2, 'River', -1.95, 30.06, ?)`,
		id, villageID, diarrhea, createdAt,
	)
	require.NoError(t, err)
}

func TestSQLiteStore_ReportRoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	created := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)

	insertReport(t, s, "report-1", "village-1", 12, created)

	r, err := s.GetReport(ctx, "report-1")
	require.NoError(t, err)
	assert.Equal(t, "village-1", r.VillageID)
	assert.Equal(t, 12, r.DiarrheaCases)
	assert.Equal(t, 1, r.FeverCases)
	assert.Equal(t, 2, r.ChildCases)
	assert.Equal(t, model.WaterSourceRiver, r.WaterSource)
	require.NotNil(t, r.Latitude)
	assert.InDelta(t, -1.95, *r.Latitude, 1e-9)
	assert.Empty(t, r.RiskTier)

	require.NoError(t, s.UpdateReportAssessment(ctx, "report-1",
		model.TierHigh, "light rain, 24.0°C", "Moderate total case count."))

	r, err = s.GetReport(ctx, "report-1")
	require.NoError(t, err)
	assert.Equal(t, string(model.TierHigh), r.RiskTier)
	assert.Equal(t, "light rain, 24.0°C", r.WeatherSnapshot)
	assert.Equal(t, "Moderate total case count.", r.AnalysisNotes)
}

func TestSQLiteStore_GetReport_NotFound(t *testing.T) {
	s := newTestSQLiteStore(t)

	_, err := s.GetReport(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get report")
}

func TestSQLiteStore_DiarrheaHistoryWindow(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	ref := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	insertReport(t, s, "r-old", "village-1", 9, ref.Add(-8*24*time.Hour))    // before window
	insertReport(t, s, "r-in1", "village-1", 2, ref.Add(-6*24*time.Hour))    // inside
	insertReport(t, s, "r-in2", "village-1", 4, ref.Add(-24*time.Hour))      // inside
	insertReport(t, s, "r-edge", "village-1", 7, ref)                        // boundary, excluded
	insertReport(t, s, "r-other", "village-2", 99, ref.Add(-24*time.Hour))   // other village

	counts, err := s.DiarrheaHistory(ctx, "village-1", ref.Add(-7*24*time.Hour), ref)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4}, counts)
}

func TestSQLiteStore_ReportCoordinates(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	insertReport(t, s, "report-1", "village-1", 1, time.Now().UTC())
	lat, lon, ok, err := s.ReportCoordinates(ctx, "report-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, -1.95, lat, 1e-9)
	assert.InDelta(t, 30.06, lon, 1e-9)

	_, err = s.db.Exec(`INSERT INTO reports (id, village_id) VALUES ('bare', 'village-1')`)
	require.NoError(t, err)
	_, _, ok, err = s.ReportCoordinates(ctx, "bare")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, ok, err = s.ReportCoordinates(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStore_ApprovedOfficials(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := s.db.Exec(`INSERT INTO approved_officials (phone_number) VALUES ('+15550001')`)
	require.NoError(t, err)

	approved, err := s.IsApprovedOfficial(ctx, "+15550001")
	require.NoError(t, err)
	assert.True(t, approved)

	approved, err = s.IsApprovedOfficial(ctx, "+15550002")
	require.NoError(t, err)
	assert.False(t, approved)

	// Lookup is an exact match; formatting variants do not count.
	approved, err = s.IsApprovedOfficial(ctx, "+1 555 0001")
	require.NoError(t, err)
	assert.False(t, approved)
}

func TestSQLiteStore_ApproveOfficials(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	added, err := s.ApproveOfficials(ctx, []string{"+15550001", "+15550002"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), added)

	// Re-approving is idempotent.
	added, err = s.ApproveOfficials(ctx, []string{"+15550001", "+15550003"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), added)

	approved, err := s.IsApprovedOfficial(ctx, "+15550003")
	require.NoError(t, err)
	assert.True(t, approved)
}

func TestSQLiteStore_UpdateProfileRole(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := s.db.Exec(`INSERT INTO profiles (id, phone_number) VALUES ('p-1', '+15550001')`)
	require.NoError(t, err)

	require.NoError(t, s.UpdateProfileRole(ctx, "p-1", model.RoleOfficial))

	var role string
	require.NoError(t, s.db.QueryRow(`SELECT role FROM profiles WHERE id = 'p-1'`).Scan(&role))
	assert.Equal(t, model.RoleOfficial, role)

	err = s.UpdateProfileRole(ctx, "ghost", model.RoleOfficial)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile not found")
}
