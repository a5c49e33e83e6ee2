package factstore

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/leadscope/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
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
	total_cost       REAL,
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

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetTrial(ctx context.Context, nctID string) (*model.TrialRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT nct_id, title, status, phase, enrollment, start_date, completion_date,
		        study_type, principal_investigator, sponsor, funded_by
		 FROM clinical_trials WHERE nct_id = ?`,
		nctID,
	)

	var t model.TrialRecord
	err := row.Scan(&t.TrialID, &t.Title, &t.Status, &t.Phase, &t.Enrollment,
		&t.StartDate, &t.CompletionDate, &t.StudyType, &t.PrincipalInvestigator,
		&t.Sponsor, &t.FundedBy)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get trial %s", nctID)
	}
	return &t, nil
}

func (s *SQLiteStore) GetGrant(ctx context.Context, coreProjectNum string) (*model.GrantRecord, error) {
	// Most recent award year wins when a core project number spans several.
	row := s.db.QueryRowContext(ctx,
		`SELECT project_num, pi_name, org_name, org_city, org_state, total_cost,
		        fiscal_year, project_title
		 FROM nih_grants WHERE core_project_num = ?
		 ORDER BY fiscal_year DESC LIMIT 1`,
		coreProjectNum,
	)

	var g model.GrantRecord
	err := row.Scan(&g.ProjectNum, &g.PIName, &g.OrgName, &g.OrgCity, &g.OrgState,
		&g.TotalCost, &g.FiscalYear, &g.ProjectTitle)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get grant %s", coreProjectNum)
	}
	return &g, nil
}

func (s *SQLiteStore) GetRetraction(ctx context.Context, pmid string) (*model.RetractionRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT pmid, doi, title, journal, retraction_date, retraction_reason, original_paper_date
		 FROM retractions WHERE pmid = ?`,
		pmid,
	)

	var r model.RetractionRecord
	err := row.Scan(&r.PMID, &r.DOI, &r.Title, &r.Journal, &r.RetractionDate,
		&r.RetractionReason, &r.OriginalPaperDate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get retraction %s", pmid)
	}
	return &r, nil
}
