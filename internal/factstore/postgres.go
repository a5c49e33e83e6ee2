package factstore

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadscope/internal/model"
)

// Pool is the subset of pgxpool.Pool the store needs; pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the per-lead lookups.
var preparedStatements = map[string]string{
	"get_trial": `SELECT nct_id, title, status, phase, enrollment, start_date, completion_date,
	              study_type, principal_investigator, sponsor, funded_by
	              FROM clinical_trials WHERE nct_id = $1`,
	"get_grant": `SELECT project_num, pi_name, org_name, org_city, org_state, total_cost,
	              fiscal_year, project_title
	              FROM nih_grants WHERE core_project_num = $1
	              ORDER BY fiscal_year DESC LIMIT 1`,
	"get_retraction": `SELECT pmid, doi, title, journal, retraction_date, retraction_reason, original_paper_date
	                   FROM retractions WHERE pmid = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

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

const postgresMigration = `
CREATE TABLE IF NOT EXISTS clinical_trials (
	nct_id                 TEXT PRIMARY KEY,
	title                  TEXT,
	status                 TEXT,
	phase                  TEXT,
	enrollment             INTEGER,
	start_date             TEXT,
	completion_date        TEXT,
	study_type             TEXT,
	principal_investigator TEXT,
	sponsor                TEXT,
	funded_by              TEXT
);

CREATE TABLE IF NOT EXISTS nih_grants (
	project_num      TEXT PRIMARY KEY,
	core_project_num TEXT NOT NULL,
	pi_name          TEXT,
	org_name         TEXT,
	org_city         TEXT,
	org_state        TEXT,
	total_cost       DOUBLE PRECISION,
	fiscal_year      INTEGER,
	project_title    TEXT
);

CREATE TABLE IF NOT EXISTS retractions (
	pmid                TEXT PRIMARY KEY,
	doi                 TEXT,
	title               TEXT,
	journal             TEXT,
	retraction_date     TEXT,
	retraction_reason   TEXT,
	original_paper_date TEXT
);

CREATE INDEX IF NOT EXISTS idx_nih_grants_core ON nih_grants(core_project_num);
`

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

func (s *PostgresStore) GetTrial(ctx context.Context, nctID string) (*model.TrialRecord, error) {
	var t model.TrialRecord
	err := s.pool.QueryRow(ctx,
		`SELECT nct_id, title, status, phase, enrollment, start_date, completion_date,
		        study_type, principal_investigator, sponsor, funded_by
		 FROM clinical_trials WHERE nct_id = $1`,
		nctID,
	).Scan(&t.TrialID, &t.Title, &t.Status, &t.Phase, &t.Enrollment,
		&t.StartDate, &t.CompletionDate, &t.StudyType, &t.PrincipalInvestigator,
		&t.Sponsor, &t.FundedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get trial %s", nctID)
	}
	return &t, nil
}

func (s *PostgresStore) GetGrant(ctx context.Context, coreProjectNum string) (*model.GrantRecord, error) {
	var g model.GrantRecord
	err := s.pool.QueryRow(ctx,
		`SELECT project_num, pi_name, org_name, org_city, org_state, total_cost,
		        fiscal_year, project_title
		 FROM nih_grants WHERE core_project_num = $1
		 ORDER BY fiscal_year DESC LIMIT 1`,
		coreProjectNum,
	).Scan(&g.ProjectNum, &g.PIName, &g.OrgName, &g.OrgCity, &g.OrgState,
		&g.TotalCost, &g.FiscalYear, &g.ProjectTitle)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get grant %s", coreProjectNum)
	}
	return &g, nil
}

func (s *PostgresStore) GetRetraction(ctx context.Context, pmid string) (*model.RetractionRecord, error) {
	var r model.RetractionRecord
	err := s.pool.QueryRow(ctx,
		`SELECT pmid, doi, title, journal, retraction_date, retraction_reason, original_paper_date
		 FROM retractions WHERE pmid = $1`,
		pmid,
	).Scan(&r.PMID, &r.DOI, &r.Title, &r.Journal, &r.RetractionDate,
		&r.RetractionReason, &r.OriginalPaperDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get retraction %s", pmid)
	}
	return &r, nil
}
