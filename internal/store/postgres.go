package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/healthsignals/riskwatch/internal/db"
	"github.com/healthsignals/riskwatch/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot webhook path.
var preparedStatements = map[string]string{
	"get_report":        `SELECT id, village_id, diarrhea_cases, fever_cases, vomiting_cases, cases_under_five, water_source, location, latitude, longitude, created_at, risk_level, weather_snapshot, analysis_notes FROM reports WHERE id = $1`,
	"diarrhea_history":  `SELECT diarrhea_cases FROM reports WHERE village_id = $1 AND created_at >= $2 AND created_at < $3 ORDER BY created_at`,
	"update_assessment": `UPDATE reports SET risk_level = $1, weather_snapshot = $2, analysis_notes = $3 WHERE id = $4`,
	"is_approved":       `SELECT EXISTS (SELECT 1 FROM approved_officials WHERE phone_number = $1)`,
	"update_role":       `UPDATE profiles SET role = $1 WHERE id = $2`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need direct
// query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS reports (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	village_id       TEXT NOT NULL,
	diarrhea_cases   INTEGER NOT NULL DEFAULT 0,
	fever_cases      INTEGER NOT NULL DEFAULT 0,
	vomiting_cases   INTEGER NOT NULL DEFAULT 0,
	cases_under_five INTEGER NOT NULL DEFAULT 0,
	water_source     TEXT NOT NULL DEFAULT '',
	location         TEXT,
	latitude         DOUBLE PRECISION,
	longitude        DOUBLE PRECISION,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	risk_level       TEXT,
	weather_snapshot TEXT,
	analysis_notes   TEXT
);

CREATE INDEX IF NOT EXISTS idx_reports_village_created ON reports(village_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_reports_risk_level ON reports(risk_level);

CREATE TABLE IF NOT EXISTS profiles (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	phone_number TEXT,
	role         TEXT NOT NULL DEFAULT 'health_worker',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_profiles_phone ON profiles(phone_number);

CREATE TABLE IF NOT EXISTS approved_officials (
	phone_number TEXT PRIMARY KEY,
	added_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) GetReport(ctx context.Context, reportID string) (*model.Report, error) {
	var r model.Report
	var location, riskLevel, weather, notes *string

	err := s.pool.QueryRow(ctx,
		`SELECT id, village_id, diarrhea_cases, fever_cases, vomiting_cases, cases_under_five,
		        water_source, location, latitude, longitude, created_at,
		        risk_level, weather_snapshot, analysis_notes
		 FROM reports WHERE id = $1`,
		reportID,
	).Scan(&r.ID, &r.VillageID, &r.DiarrheaCases, &r.FeverCases, &r.VomitingCases, &r.ChildCases,
		&r.WaterSource, &location, &r.Latitude, &r.Longitude, &r.CreatedAt,
		&riskLevel, &weather, &notes)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get report %s", reportID)
	}

	if location != nil {
		r.Location = *location
	}
	if riskLevel != nil {
		r.RiskTier = *riskLevel
	}
	if weather != nil {
		r.WeatherSnapshot = *weather
	}
	if notes != nil {
		r.AnalysisNotes = *notes
	}
	return &r, nil
}

func (s *PostgresStore) DiarrheaHistory(ctx context.Context, villageID string, from, until time.Time) ([]int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT diarrhea_cases FROM reports
		 WHERE village_id = $1 AND created_at >= $2 AND created_at < $3
		 ORDER BY created_at`,
		villageID, from, until,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: diarrhea history %s", villageID)
	}
	defer rows.Close()

	var counts []int
	for rows.Next() {
		var c int
		if err := rows.Scan(&c); err != nil {
			return nil, eris.Wrap(err, "postgres: scan history row")
		}
		counts = append(counts, c)
	}
	return counts, eris.Wrap(rows.Err(), "postgres: diarrhea history iterate")
}

// ReportCoordinates asks the database to normalize the location column into a
// decimal-degree pair. Requires PostGIS; rows whose location cannot be cast
// surface as a query error and the caller degrades.
func (s *PostgresStore) ReportCoordinates(ctx context.Context, reportID string) (float64, float64, bool, error) {
	var lat, lon *float64
	err := s.pool.QueryRow(ctx,
		`SELECT ST_Y(location::geometry), ST_X(location::geometry)
		 FROM reports WHERE id = $1 AND location IS NOT NULL`,
		reportID,
	).Scan(&lat, &lon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, false, nil
		}
		return 0, 0, false, eris.Wrapf(err, "postgres: report coordinates %s", reportID)
	}
	if lat == nil || lon == nil {
		return 0, 0, false, nil
	}
	return *lat, *lon, true, nil
}

func (s *PostgresStore) UpdateReportAssessment(ctx context.Context, reportID string, tier model.RiskTier, weatherSnapshot, notes string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE reports SET risk_level = $1, weather_snapshot = $2, analysis_notes = $3 WHERE id = $4`,
		string(tier), weatherSnapshot, notes, reportID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update assessment %s", reportID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("report not found: %s", reportID)
	}
	return nil
}

func (s *PostgresStore) IsApprovedOfficial(ctx context.Context, phone string) (bool, error) {
	var approved bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM approved_officials WHERE phone_number = $1)`,
		phone,
	).Scan(&approved)
	return approved, eris.Wrap(err, "postgres: is approved official")
}

// ApproveOfficials adds phone numbers to the allowlist. Idempotent; returns
// the number of newly added entries.
func (s *PostgresStore) ApproveOfficials(ctx context.Context, phones []string) (int64, error) {
	rows := make([][]any, 0, len(phones))
	for _, p := range phones {
		rows = append(rows, []any{p})
	}
	return db.Upsert(ctx, s.pool, db.UpsertConfig{
		Table:        "approved_officials",
		Columns:      []string{"phone_number"},
		ConflictKeys: []string{"phone_number"},
	}, rows)
}

func (s *PostgresStore) UpdateProfileRole(ctx context.Context, profileID, role string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE profiles SET role = $1 WHERE id = $2`,
		role, profileID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update profile role %s", profileID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("profile not found: %s", profileID)
	}
	return nil
}
