// Package store persists ranked leads and their outreach status in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"leadgen/internal/lead"
)

// Outreach lifecycle of a saved lead.
const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusResponded = "responded"
	StatusQualified = "qualified"
	StatusRejected  = "rejected"
)

var validStatuses = map[string]bool{
	StatusNew:       true,
	StatusContacted: true,
	StatusResponded: true,
	StatusQualified: true,
	StatusRejected:  true,
}

// Store manages lead persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// StoredLead is one persisted lead row.
type StoredLead struct {
	ID           int64
	IdentityKey  string
	Name         string
	Title        string
	Organization string
	Location     string
	Email        string
	Score        int
	Rank         int
	Breakdown    map[string]int
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// StatusChange is one entry in a lead's outreach history.
type StatusChange struct {
	LeadID    int64
	Status    string
	Note      string
	ChangedAt time.Time
}

// Open initializes or connects to the lead database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS leads (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            identity_key TEXT NOT NULL UNIQUE,
            name TEXT NOT NULL,
            title TEXT NOT NULL DEFAULT '',
            organization TEXT NOT NULL DEFAULT '',
            location TEXT NOT NULL DEFAULT '',
            email TEXT NOT NULL DEFAULT '',
            score INTEGER NOT NULL DEFAULT 0,
            rank INTEGER NOT NULL DEFAULT 0,
            breakdown_json TEXT NOT NULL DEFAULT '{}',
            status TEXT NOT NULL DEFAULT 'new',
            created_at TEXT NOT NULL,
            updated_at TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS lead_status (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            lead_id INTEGER NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
            status TEXT NOT NULL,
            note TEXT NOT NULL DEFAULT '',
            changed_at TEXT NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_leads_score ON leads(score DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_lead_status_lead ON lead_status(lead_id)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// SaveCandidates upserts the given candidates keyed by identity. A re-run of
// the pipeline refreshes scores and contact data of known leads without
// touching their outreach status. Returns how many rows were written.
func (s *Store) SaveCandidates(ctx context.Context, candidates *lead.Candidates) (int, error) {
	if candidates == nil || candidates.Len() == 0 {
		return 0, nil
	}

	saved := 0
	for _, cand := range candidates.Items {
		if err := s.saveCandidate(ctx, cand); err != nil {
			return saved, fmt.Errorf("saving %s: %w", cand.FullName, err)
		}
		saved++
	}
	return saved, nil
}

func (s *Store) saveCandidate(ctx context.Context, cand *lead.Candidate) error {
	breakdown := map[string]int{}
	if cand.Score != nil {
		breakdown = cand.Score.Breakdown
	}
	breakdownJSON, err := json.Marshal(breakdown)
	if err != nil {
		return fmt.Errorf("marshal breakdown: %w", err)
	}

	title, _ := cand.StringAttr(lead.FieldTitle)
	organization, _ := cand.StringAttr(lead.FieldOrganization)
	location, _ := cand.StringAttr(lead.FieldLocation)
	email, _ := cand.StringAttr(lead.FieldEmail)

	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO leads (
            identity_key, name, title, organization, location, email,
            score, rank, breakdown_json, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(identity_key) DO UPDATE SET
            name = excluded.name,
            title = excluded.title,
            organization = excluded.organization,
            location = excluded.location,
            email = excluded.email,
            score = excluded.score,
            rank = excluded.rank,
            breakdown_json = excluded.breakdown_json,
            updated_at = excluded.updated_at`,
		cand.IdentityKey, cand.FullName, title, organization, location, email,
		cand.Total(), cand.Rank, string(breakdownJSON), StatusNew, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert lead: %w", err)
	}
	return nil
}

// List returns all saved leads ordered by score, best first.
func (s *Store) List(ctx context.Context) ([]*StoredLead, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, identity_key, name, title, organization, location, email,
                score, rank, breakdown_json, status, created_at, updated_at
         FROM leads ORDER BY score DESC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var leads []*StoredLead
	for rows.Next() {
		stored, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, stored)
	}
	return leads, rows.Err()
}

// ListByStatus returns saved leads in the given outreach status, best first.
func (s *Store) ListByStatus(ctx context.Context, status string) ([]*StoredLead, error) {
	if !validStatuses[status] {
		return nil, fmt.Errorf("invalid lead status: %q", status)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, identity_key, name, title, organization, location, email,
                score, rank, breakdown_json, status, created_at, updated_at
         FROM leads WHERE status = ? ORDER BY score DESC, name ASC`, status)
	if err != nil {
		return nil, fmt.Errorf("list leads by status: %w", err)
	}
	defer rows.Close()

	var leads []*StoredLead
	for rows.Next() {
		stored, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, stored)
	}
	return leads, rows.Err()
}

// GetByIdentityKey fetches one lead, nil when absent.
func (s *Store) GetByIdentityKey(ctx context.Context, key string) (*StoredLead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, identity_key, name, title, organization, location, email,
                score, rank, breakdown_json, status, created_at, updated_at
         FROM leads WHERE identity_key = ?`, key)

	stored, err := scanLead(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return stored, err
}

// UpdateStatus moves a lead to a new outreach status and records the change
// in the history table.
func (s *Store) UpdateStatus(ctx context.Context, leadID int64, status, note string) error {
	if !validStatuses[status] {
		return fmt.Errorf("invalid lead status: %q", status)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin status update: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE leads SET status = ?, updated_at = ? WHERE id = ?`,
		status, now, leadID)
	if err != nil {
		return fmt.Errorf("update lead status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("lead %d not found", leadID)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO lead_status (lead_id, status, note, changed_at) VALUES (?, ?, ?, ?)`,
		leadID, status, note, now); err != nil {
		return fmt.Errorf("record status change: %w", err)
	}

	return tx.Commit()
}

// History returns the recorded status changes for a lead, oldest first.
func (s *Store) History(ctx context.Context, leadID int64) ([]StatusChange, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lead_id, status, note, changed_at FROM lead_status
         WHERE lead_id = ? ORDER BY id ASC`, leadID)
	if err != nil {
		return nil, fmt.Errorf("lead history: %w", err)
	}
	defer rows.Close()

	var changes []StatusChange
	for rows.Next() {
		var (
			change    StatusChange
			changedAt string
		)
		if err := rows.Scan(&change.LeadID, &change.Status, &change.Note, &changedAt); err != nil {
			return nil, fmt.Errorf("scan status change: %w", err)
		}
		change.ChangedAt, _ = time.Parse(time.RFC3339Nano, changedAt)
		changes = append(changes, change)
	}
	return changes, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*StoredLead, error) {
	var (
		stored        StoredLead
		breakdownJSON string
		createdAt     string
		updatedAt     string
	)
	if err := row.Scan(
		&stored.ID, &stored.IdentityKey, &stored.Name, &stored.Title,
		&stored.Organization, &stored.Location, &stored.Email,
		&stored.Score, &stored.Rank, &breakdownJSON, &stored.Status,
		&createdAt, &updatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan lead: %w", err)
	}

	if err := json.Unmarshal([]byte(breakdownJSON), &stored.Breakdown); err != nil {
		return nil, fmt.Errorf("parse breakdown: %w", err)
	}
	stored.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	stored.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &stored, nil
}
