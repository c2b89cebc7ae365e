package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthsignals/riskwatch/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_GetReport_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, village_id`).
		WithArgs("missing-report").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetReport(context.Background(), "missing-report")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get report")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DiarrheaHistory(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	from := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	until := from.Add(7 * 24 * time.Hour)

	mock.ExpectQuery(`SELECT diarrhea_cases FROM reports`).
		WithArgs("village-1", from, until).
		WillReturnRows(pgxmock.NewRows([]string{"diarrhea_cases"}).
			AddRow(2).AddRow(0).AddRow(5))

	counts, err := s.DiarrheaHistory(context.Background(), "village-1", from, until)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0, 5}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DiarrheaHistory_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT diarrhea_cases FROM reports`).
		WithArgs("village-2", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"diarrhea_cases"}))

	counts, err := s.DiarrheaHistory(context.Background(), "village-2", time.Now(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReportCoordinates(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	lat, lon := -1.95, 30.06
	mock.ExpectQuery(`SELECT ST_Y\(location::geometry\), ST_X\(location::geometry\)`).
		WithArgs("report-1").
		WillReturnRows(pgxmock.NewRows([]string{"st_y", "st_x"}).AddRow(&lat, &lon))

	gotLat, gotLon, ok, err := s.ReportCoordinates(context.Background(), "report-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, lat, gotLat)
	assert.Equal(t, lon, gotLon)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReportCoordinates_NoLocation(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT ST_Y`).
		WithArgs("report-2").
		WillReturnError(pgx.ErrNoRows)

	_, _, ok, err := s.ReportCoordinates(context.Background(), "report-2")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateReportAssessment(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE reports SET risk_level`).
		WithArgs("Critical", "heavy rain, 18.5°C", "High total case count.", "report-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateReportAssessment(context.Background(), "report-1",
		model.TierCritical, "heavy rain, 18.5°C", "High total case count.")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateReportAssessment_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE reports SET risk_level`).
		WithArgs("Normal", "No data", "", "ghost").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateReportAssessment(context.Background(), "ghost", model.TierNormal, "No data", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_IsApprovedOfficial(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("+15550001").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	approved, err := s.IsApprovedOfficial(context.Background(), "+15550001")
	require.NoError(t, err)
	assert.True(t, approved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateProfileRole(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE profiles SET role`).
		WithArgs("official", "profile-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.UpdateProfileRole(context.Background(), "profile-1", "official"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ApproveOfficials(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO "approved_officials" \("phone_number"\) VALUES \(\$1\), \(\$2\) ON CONFLICT`).
		WithArgs("+15550001", "+15550002").
		WillReturnResult(pgxmock.NewResult("INSERT", 2))

	added, err := s.ApproveOfficials(context.Background(), []string{"+15550001", "+15550002"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), added)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS reports`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
