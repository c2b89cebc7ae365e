package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/healthsignals/riskwatch/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Intended for local
// development; it has no spatial functions, so coordinate normalization reads
// the split latitude/longitude columns only.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS reports (
	id               TEXT PRIMARY KEY,
	village_id       TEXT NOT NULL,
	diarrhea_cases   INTEGER NOT NULL DEFAULT 0,
	fever_cases      INTEGER NOT NULL DEFAULT 0,
	vomiting_cases   INTEGER NOT NULL DEFAULT 0,
	cases_under_five INTEGER NOT NULL DEFAULT 0,
	water_source     TEXT NOT NULL DEFAULT '',
	location         TEXT,
	latitude         REAL,
	longitude        REAL,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	risk_level       TEXT,
	weather_snapshot TEXT,
	analysis_notes   TEXT
);

CREATE INDEX IF NOT EXISTS idx_reports_village_created ON reports(village_id, created_at);

CREATE TABLE IF NOT EXISTS profiles (
	id           TEXT PRIMARY KEY,
	phone_number TEXT,
	role         TEXT NOT NULL DEFAULT 'health_worker',
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS approved_officials (
	phone_number TEXT PRIMARY KEY,
	added_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetReport(ctx context.Context, reportID string) (*model.Report, error) {
	var r model.Report
	var location, riskLevel, weather, notes sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT id, village_id, diarrhea_cases, fever_cases, vomiting_cases, cases_under_five,
		        water_source, location, latitude, longitude, created_at,
		        risk_level, weather_snapshot, analysis_notes
		 FROM reports WHERE id = ?`,
		reportID,
	).Scan(&r.ID, &r.VillageID, &r.DiarrheaCases, &r.FeverCases, &r.VomitingCases, &r.ChildCases,
		&r.WaterSource, &location, &r.Latitude, &r.Longitude, &r.CreatedAt,
		&riskLevel, &weather, &notes)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get report %s", reportID)
	}

	r.Location = location.String
	r.RiskTier = riskLevel.String
	r.WeatherSnapshot = weather.String
	r.AnalysisNotes = notes.String
	return &r, nil
}

func (s *SQLiteStore) DiarrheaHistory(ctx context.Context, villageID string, from, until time.Time) ([]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT diarrhea_cases FROM reports
		 WHERE village_id = ? AND created_at >= ? AND created_at < ?
		 ORDER BY created_at`,
		villageID, from, until,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: diarrhea history %s", villageID)
	}
	defer rows.Close()

	var counts []int
	for rows.Next() {
		var c int
		if err := rows.Scan(&c); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan history row")
		}
		counts = append(counts, c)
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: diarrhea history iterate")
}

func (s *SQLiteStore) ReportCoordinates(ctx context.Context, reportID string) (float64, float64, bool, error) {
	var lat, lon sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT latitude, longitude FROM reports WHERE id = ?`,
		reportID,
	).Scan(&lat, &lon)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, false, nil
		}
		return 0, 0, false, eris.Wrapf(err, "sqlite: report coordinates %s", reportID)
	}
	if !lat.Valid || !lon.Valid {
		return 0, 0, false, nil
	}
	return lat.Float64, lon.Float64, true, nil
}

func (s *SQLiteStore) UpdateReportAssessment(ctx context.Context, reportID string, tier model.RiskTier, weatherSnapshot, notes string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reports SET risk_level = ?, weather_snapshot = ?, analysis_notes = ? WHERE id = ?`,
		string(tier), weatherSnapshot, notes, reportID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update assessment %s", reportID)
	}
	return checkRowsAffected(res, "report", reportID)
}

func (s *SQLiteStore) IsApprovedOfficial(ctx context.Context, phone string) (bool, error) {
	var approved bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM approved_officials WHERE phone_number = ?)`,
		phone,
	).Scan(&approved)
	return approved, eris.Wrap(err, "sqlite: is approved official")
}

// ApproveOfficials adds phone numbers to the allowlist. Idempotent; returns
// the number of newly added entries.
func (s *SQLiteStore) ApproveOfficials(ctx context.Context, phones []string) (int64, error) {
	var added int64
	for _, p := range phones {
		res, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO approved_officials (phone_number) VALUES (?)`, p)
		if err != nil {
			return added, eris.Wrapf(err, "sqlite: approve official %s", p)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return added, eris.Wrap(err, "sqlite: approve official rows affected")
		}
		added += n
	}
	return added, nil
}

func (s *SQLiteStore) UpdateProfileRole(ctx context.Context, profileID, role string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET role = ? WHERE id = ?`,
		role, profileID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update profile role %s", profileID)
	}
	return checkRowsAffected(res, "profile", profileID)
}

func checkRowsAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "sqlite: rows affected for %s %s", kind, id)
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", kind, id)
	}
	return nil
}
