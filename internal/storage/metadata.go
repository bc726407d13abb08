package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/codebuildervaibhav/video-sentiment/internal/aggregator"
	"github.com/codebuildervaibhav/video-sentiment/internal/sentiment"
)

// Analysis is one persisted video analysis
type Analysis struct {
	ID         string                      `json:"id"`
	JobID      string                      `json:"job_id"`
	SourceURL  string                      `json:"source_url"`
	Platform   string                      `json:"platform"`
	Title      string                      `json:"title"`
	Overall    string                      `json:"overall"`
	Transcript string                      `json:"transcript"`
	Sentiment  map[string]sentiment.Result `json:"sentiment"`
	Stats      []aggregator.Stat           `json:"stats"`
	DriveURL   string                      `json:"drive_url,omitempty"`
	CreatedAt  time.Time                   `json:"created_at"`
}

// AnalysisDB keeps the analysis history in SQLite
type AnalysisDB struct {
	db *sql.DB
}

// NewAnalysisDB opens (or creates) the database at dbPath
func NewAnalysisDB(dbPath string) (*AnalysisDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer at a time; sqlite serializes anyway
	db.SetMaxOpenConns(1)

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		job_id TEXT NOT NULL,
		source_url TEXT NOT NULL,
		platform TEXT NOT NULL,
		title TEXT NOT NULL,
		overall TEXT NOT NULL,
		transcript TEXT NOT NULL,
		sentiment_json TEXT NOT NULL,
		stats_json TEXT NOT NULL,
		drive_url TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);
	CREATE INDEX IF NOT EXISTS idx_analyses_job_id ON analyses(job_id);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &AnalysisDB{db: db}, nil
}

// SaveAnalysis inserts a. CreatedAt defaults to now.
func (adb *AnalysisDB) SaveAnalysis(a *Analysis) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	sentimentJSON, err := json.Marshal(a.Sentiment)
	if err != nil {
		return fmt.Errorf("failed to encode sentiment: %w", err)
	}
	statsJSON, err := json.Marshal(a.Stats)
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}

	query := `
	INSERT INTO analyses (id, job_id, source_url, platform, title, overall, transcript, sentiment_json, stats_json, drive_url, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = adb.db.Exec(query, a.ID, a.JobID, a.SourceURL, a.Platform, a.Title, a.Overall,
		a.Transcript, string(sentimentJSON), string(statsJSON), a.DriveURL, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

const selectAnalysis = `
	SELECT id, job_id, source_url, platform, title, overall, transcript, sentiment_json, stats_json, drive_url, created_at
	FROM analyses`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (*Analysis, error) {
	var a Analysis
	var sentimentJSON, statsJSON string
	err := row.Scan(&a.ID, &a.JobID, &a.SourceURL, &a.Platform, &a.Title, &a.Overall,
		&a.Transcript, &sentimentJSON, &statsJSON, &a.DriveURL, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(sentimentJSON), &a.Sentiment); err != nil {
		return nil, fmt.Errorf("failed to decode sentiment of %s: %w", a.ID, err)
	}
	if err := json.Unmarshal([]byte(statsJSON), &a.Stats); err != nil {
		return nil, fmt.Errorf("failed to decode stats of %s: %w", a.ID, err)
	}
	return &a, nil
}

// GetAnalysis retrieves one analysis by id
func (adb *AnalysisDB) GetAnalysis(id string) (*Analysis, error) {
	a, err := scanAnalysis(adb.db.QueryRow(selectAnalysis+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return a, nil
}

// ListAnalyses returns the newest analyses first
func (adb *AnalysisDB) ListAnalyses(limit int) ([]Analysis, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := adb.db.Query(selectAnalysis+` ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	analyses := []Analysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, *a)
	}
	return analyses, rows.Err()
}

// Close closes the database connection
func (adb *AnalysisDB) Close() error {
	return adb.db.Close()
}
