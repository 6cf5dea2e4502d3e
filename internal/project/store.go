// Package project persists narration sessions: scenes, sentences, their
// visual plans, TTS artifacts, and frozen accepted takes.
package project

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"medreel/internal/match"
	"medreel/internal/plan"
)

// ErrNotFound is returned when a session or sentence id does not exist.
var ErrNotFound = errors.New("not found")

// Store provides persistence for narration sessions.
type Store interface {
	// CreateSession creates a new session and returns it.
	CreateSession(title string) (Session, error)
	// GetSession returns a session by id.
	GetSession(id string) (Session, error)
	// AddSentences appends sentences to a scene in order and returns them.
	AddSentences(sessionID, sceneKey string, texts []string) ([]SentenceItem, error)
	// ListSentences returns a session's sentences ordered by scene and position.
	ListSentences(sessionID string) ([]SentenceItem, error)
	// GetSentence returns one sentence by id.
	GetSentence(id string) (SentenceItem, error)
	// SavePlan replaces a sentence's visual plan.
	SavePlan(sentenceID string, vp plan.VisualPlan) error
	// SaveTTS records a sentence's narration audio path and duration.
	SaveTTS(sentenceID, path string, durationS float64) error
	// AcceptTake freezes a take snapshot onto a sentence.
	AcceptTake(sentenceID string, take match.Take) error
	// Close closes the underlying database.
	Close() error
}

// SQLiteStore implements Store backed by SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// Open creates or opens a session database at the given path and
// initializes the schema.
func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := Init(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) CreateSession(title string) (Session, error) {
	sess := Session{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	_, err := s.db.Exec(
		"INSERT INTO sessions (id, title, created_at) VALUES (?, ?, ?)",
		sess.ID, sess.Title, sess.CreatedAt,
	)
	if err != nil {
		return Session{}, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

func (s *SQLiteStore) GetSession(id string) (Session, error) {
	var sess Session
	err := s.db.QueryRow(
		"SELECT id, title, created_at FROM sessions WHERE id = ?", id,
	).Scan(&sess.ID, &sess.Title, &sess.CreatedAt)
	if err == sql.ErrNoRows {
		return Session{}, fmt.Errorf("%w: session %s", ErrNotFound, id)
	}
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *SQLiteStore) AddSentences(sessionID, sceneKey string, texts []string) ([]SentenceItem, error) {
	if _, err := s.GetSession(sessionID); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var next int
	err = tx.QueryRow(
		"SELECT COALESCE(MAX(position)+1, 0) FROM sentences WHERE session_id = ? AND scene_key = ?",
		sessionID, sceneKey,
	).Scan(&next)
	if err != nil {
		return nil, err
	}

	stmt, err := tx.Prepare(
		"INSERT INTO sentences (id, session_id, scene_key, position, text) VALUES (?, ?, ?, ?, ?)",
	)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	items := make([]SentenceItem, 0, len(texts))
	for i, text := range texts {
		item := SentenceItem{
			ID:       uuid.NewString(),
			SceneKey: sceneKey,
			Position: next + i,
			Text:     text,
		}
		if _, err := stmt.Exec(item.ID, sessionID, item.SceneKey, item.Position, item.Text); err != nil {
			return nil, fmt.Errorf("insert sentence: %w", err)
		}
		items = append(items, item)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return items, nil
}

const sentenceColumns = "id, scene_key, position, text, tts_path, duration_s, visual_plan, accepted_take"

func (s *SQLiteStore) ListSentences(sessionID string) ([]SentenceItem, error) {
	rows, err := s.db.Query(
		"SELECT "+sentenceColumns+" FROM sentences WHERE session_id = ? ORDER BY scene_key, position",
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []SentenceItem
	for rows.Next() {
		item, err := scanSentence(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) GetSentence(id string) (SentenceItem, error) {
	row := s.db.QueryRow("SELECT "+sentenceColumns+" FROM sentences WHERE id = ?", id)
	item, err := scanSentence(row)
	if err == sql.ErrNoRows {
		return SentenceItem{}, fmt.Errorf("%w: sentence %s", ErrNotFound, id)
	}
	return item, err
}

func (s *SQLiteStore) SavePlan(sentenceID string, vp plan.VisualPlan) error {
	blob, err := json.Marshal(vp)
	if err != nil {
		return fmt.Errorf("marshal visual plan: %w", err)
	}
	return s.updateSentence(sentenceID, "UPDATE sentences SET visual_plan = ? WHERE id = ?", string(blob))
}

func (s *SQLiteStore) SaveTTS(sentenceID, path string, durationS float64) error {
	res, err := s.db.Exec(
		"UPDATE sentences SET tts_path = ?, duration_s = ? WHERE id = ?",
		path, durationS, sentenceID,
	)
	if err != nil {
		return err
	}
	return requireRow(res, sentenceID)
}

// AcceptTake stores the take as a JSON snapshot. The snapshot is frozen:
// re-ingestion or index edits after acceptance never change it.
func (s *SQLiteStore) AcceptTake(sentenceID string, take match.Take) error {
	blob, err := json.Marshal(take)
	if err != nil {
		return fmt.Errorf("marshal take: %w", err)
	}
	return s.updateSentence(sentenceID, "UPDATE sentences SET accepted_take = ? WHERE id = ?", string(blob))
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) updateSentence(sentenceID, query, value string) error {
	res, err := s.db.Exec(query, value, sentenceID)
	if err != nil {
		return err
	}
	return requireRow(res, sentenceID)
}

func requireRow(res sql.Result, sentenceID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: sentence %s", ErrNotFound, sentenceID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSentence(row rowScanner) (SentenceItem, error) {
	var item SentenceItem
	var planBlob, takeBlob sql.NullString
	err := row.Scan(
		&item.ID, &item.SceneKey, &item.Position, &item.Text,
		&item.TTSPath, &item.DurationS, &planBlob, &takeBlob,
	)
	if err != nil {
		return SentenceItem{}, err
	}
	if planBlob.Valid && planBlob.String != "" {
		var vp plan.VisualPlan
		if err := json.Unmarshal([]byte(planBlob.String), &vp); err != nil {
			return SentenceItem{}, fmt.Errorf("parse stored visual plan: %w", err)
		}
		item.VisualPlan = &vp
	}
	if takeBlob.Valid && takeBlob.String != "" {
		var take match.Take
		if err := json.Unmarshal([]byte(takeBlob.String), &take); err != nil {
			return SentenceItem{}, fmt.Errorf("parse stored take: %w", err)
		}
		item.AcceptedTake = &take
	}
	return item, nil
}
