// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive keeps a SQLite history of survey runs and their turns.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/pdiddy/survey-engine/internal/transcript"
	"github.com/pdiddy/survey-engine/pkg/types"
)

// ErrNotFound is returned when a run ID is not in the archive.
var ErrNotFound = errors.New("run not found")

const defaultListLimit = 20

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages the archive database.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for failures that cannot be returned to
// the caller.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Run is one archived survey run without its turns.
type Run struct {
	ID       string              `json:"id"`
	Request  types.SurveyRequest `json:"request"`
	Started  time.Time           `json:"started"`
	Finished time.Time           `json:"finished"`
	Turns    int                 `json:"turns"`
	Error    string              `json:"error,omitempty"`
}

// Open opens or creates the archive at cfg.Path and creates the schema if
// it does not exist.
func Open(cfg types.ArchiveConfig, opts ...Option) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("archive path is empty")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			topic TEXT NOT NULL,
			papers INTEGER NOT NULL,
			model TEXT,
			started TEXT NOT NULL,
			finished TEXT,
			error TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS turns (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			source TEXT NOT NULL,
			content TEXT NOT NULL,
			PRIMARY KEY (run_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Begin registers a new run and returns its ID.
func (s *Store) Begin(ctx context.Context, req types.SurveyRequest) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, topic, papers, model, started) VALUES (?, ?, ?, ?, ?)`,
		id, req.Topic, req.Papers, req.Model, formatTime(time.Now()),
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}
	return id, nil
}

// AppendTurn stores the seq-th turn of a run.
func (s *Store) AppendTurn(ctx context.Context, runID string, seq int, turn types.Turn) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO turns (run_id, seq, source, content) VALUES (?, ?, ?, ?)`,
		runID, seq, turn.Source, turn.Content,
	)
	if err != nil {
		return fmt.Errorf("inserting turn %d of %s: %w", seq, runID, err)
	}
	return nil
}

// Finish marks a run as ended, with runErr when it failed.
func (s *Store) Finish(ctx context.Context, runID string, runErr error) error {
	var msg sql.NullString
	if runErr != nil {
		msg = sql.NullString{String: runErr.Error(), Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished = ?, error = ? WHERE id = ?`,
		formatTime(time.Now()), msg, runID,
	)
	if err != nil {
		return fmt.Errorf("finishing run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return nil
}

// Record archives every turn of seq as it passes through. Archive write
// failures end the sequence with an error. The run is finished when seq
// ends, including when the consumer stops early; a failure to finish it is
// yielded if the consumer is still reading and logged otherwise.
func (s *Store) Record(ctx context.Context, req types.SurveyRequest, seq iter.Seq2[types.Turn, error]) iter.Seq2[types.Turn, error] {
	return func(yield func(types.Turn, error) bool) {
		id, err := s.Begin(ctx, req)
		if err != nil {
			yield(types.Turn{}, err)
			return
		}

		var runErr error
		stopped := false
		defer func() {
			// The request context may already be gone; the run still gets closed.
			if err := s.Finish(context.WithoutCancel(ctx), id, runErr); err != nil {
				s.logger.Error("closing archived run", zap.String("run", id), zap.Error(err))
				if runErr == nil && !stopped {
					yield(types.Turn{}, fmt.Errorf("closing run %s: %w", id, err))
				}
			}
		}()

		n := 0
		for turn, err := range seq {
			if err != nil {
				runErr = err
				yield(turn, err)
				return
			}
			n++
			if err := s.AppendTurn(ctx, id, n, turn); err != nil {
				runErr = err
				yield(types.Turn{}, err)
				return
			}
			if !yield(turn, nil) {
				stopped = true
				return
			}
		}
	}
}

// ListOptions filters List.
type ListOptions struct {
	// Topic keeps runs whose topic contains this text.
	Topic string

	// Limit caps the result count (default 20).
	Limit int
}

// List returns runs, newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Run, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.topic, r.papers, COALESCE(r.model, ''), r.started,
			COALESCE(r.finished, ''), COALESCE(r.error, ''),
			(SELECT count(*) FROM turns t WHERE t.run_id = r.id)
		 FROM runs r
		 WHERE (? = '' OR instr(lower(r.topic), lower(?)) > 0)
		 ORDER BY r.started DESC, r.rowid DESC
		 LIMIT ?`,
		opts.Topic, opts.Topic, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Get loads a run with its turns as a transcript.
func (s *Store) Get(ctx context.Context, runID string) (*transcript.Transcript, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT r.id, r.topic, r.papers, COALESCE(r.model, ''), r.started,
			COALESCE(r.finished, ''), COALESCE(r.error, ''),
			(SELECT count(*) FROM turns t WHERE t.run_id = r.id)
		 FROM runs r WHERE r.id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT source, content FROM turns WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	t := &transcript.Transcript{
		ID:      r.ID,
		Request: r.Request,
		Turns:   []types.Turn{},
		Summary: types.RunSummary{
			Turns:    r.Turns,
			Started:  r.Started,
			Finished: r.Finished,
			Error:    r.Error,
		},
	}
	for rows.Next() {
		var turn types.Turn
		if err := rows.Scan(&turn.Source, &turn.Content); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		t.Turns = append(t.Turns, turn)
	}
	return t, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var r Run
	var started, finished string
	err := sc.Scan(&r.ID, &r.Request.Topic, &r.Request.Papers, &r.Request.Model,
		&started, &finished, &r.Error, &r.Turns)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("scanning run: %w", err)
	}
	r.Started = parseTime(started)
	r.Finished = parseTime(finished)
	return r, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
