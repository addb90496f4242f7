package storage

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/wyseguys/site-audit/util"

	_ "modernc.org/sqlite"
)

// Storage wraps the database connection.
type Storage struct {
	db *sql.DB
}

// Run is one audit of one URL.
type Run struct {
	ID        string
	URL       string
	Host      string
	Kind      string
	StartedAt time.Time
	PDFPath   string
	// observatory result, zero when the run did not include it
	ObservatoryScore int
	ObservatoryGrade string
}

// CategoryScore is a lighthouse category result.
type CategoryScore struct {
	Category string `json:"category"`
	Score    int    `json:"score"`
	Class    string `json:"class"`
}

// RuleResult is an observatory rule result.
type RuleResult struct {
	Slug          string
	Pass          bool
	ScoreModifier int
	Description   string
}

// New opens (or creates) the SQLite database at the given path.
func New(dbPath string) (*Storage, error) {
	if err := util.EnsureFile(dbPath, os.FileMode(0o755)); err != nil {
		return nil, fmt.Errorf("failed to ensure db file: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-threaded, so we limit to 1 connection

	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		host TEXT NOT NULL,
		kind TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		pdf_path TEXT,
		observatory_score INTEGER,
		observatory_grade TEXT
	);
	CREATE INDEX IF NOT EXISTS runs_host ON runs(host, started_at);
	CREATE TABLE IF NOT EXISTS scores (
		run_id TEXT NOT NULL REFERENCES runs(id),
		category TEXT NOT NULL,
		score INTEGER NOT NULL,
		class TEXT NOT NULL,
		PRIMARY KEY (run_id, category)
	);
	CREATE TABLE IF NOT EXISTS rules (
		run_id TEXT NOT NULL REFERENCES runs(id),
		position INTEGER NOT NULL,
		slug TEXT NOT NULL,
		pass INTEGER NOT NULL,
		score_modifier INTEGER NOT NULL,
		description TEXT,
		PRIMARY KEY (run_id, position)
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Storage{db: db}, nil
}

// SaveRun stores a run with its scores and rules in one transaction.
func (s *Storage) SaveRun(run Run, scores []CategoryScore, rules []RuleResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
	INSERT INTO runs (id, url, host, kind, started_at, pdf_path, observatory_score, observatory_grade)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID, run.URL, run.Host, run.Kind, run.StartedAt.Unix(), run.PDFPath,
		run.ObservatoryScore, run.ObservatoryGrade,
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	for _, sc := range scores {
		if _, err := tx.Exec(`
		INSERT INTO scores (run_id, category, score, class) VALUES (?, ?, ?, ?)
		`, run.ID, sc.Category, sc.Score, sc.Class); err != nil {
			return fmt.Errorf("save score %s: %w", sc.Category, err)
		}
	}

	for i, r := range rules {
		if _, err := tx.Exec(`
		INSERT INTO rules (run_id, position, slug, pass, score_modifier, description)
		VALUES (?, ?, ?, ?, ?, ?)
		`, run.ID, i, r.Slug, r.Pass, r.ScoreModifier, r.Description); err != nil {
			return fmt.Errorf("save rule %s: %w", r.Slug, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns the newest runs first. An empty host lists every host;
// limit <= 0 means no limit.
func (s *Storage) ListRuns(host string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
	SELECT id, url, host, kind, started_at, COALESCE(pdf_path, ''),
		COALESCE(observatory_score, 0), COALESCE(observatory_grade, '')
	FROM runs
	WHERE ? = '' OR host = ?
	ORDER BY started_at DESC, rowid DESC
	LIMIT ?
	`, host, host, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r       Run
			started int64
		)
		if err := rows.Scan(&r.ID, &r.URL, &r.Host, &r.Kind, &started, &r.PDFPath,
			&r.ObservatoryScore, &r.ObservatoryGrade); err != nil {
			return nil, err
		}
		r.StartedAt = time.Unix(started, 0)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunScores returns a run's category scores by category name.
func (s *Storage) RunScores(runID string) ([]CategoryScore, error) {
	rows, err := s.db.Query(`
	SELECT category, score, class FROM scores WHERE run_id = ? ORDER BY category
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []CategoryScore
	for rows.Next() {
		var sc CategoryScore
		if err := rows.Scan(&sc.Category, &sc.Score, &sc.Class); err != nil {
			return nil, err
		}
		scores = append(scores, sc)
	}
	return scores, rows.Err()
}

// RunRules returns a run's observatory rules in the order they were saved.
func (s *Storage) RunRules(runID string) ([]RuleResult, error) {
	rows, err := s.db.Query(`
	SELECT slug, pass, score_modifier, COALESCE(description, '')
	FROM rules WHERE run_id = ? ORDER BY position
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []RuleResult
	for rows.Next() {
		var r RuleResult
		if err := rows.Scan(&r.Slug, &r.Pass, &r.ScoreModifier, &r.Description); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// Close closes the database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}
