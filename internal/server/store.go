// Package server is the scheduler data service: a SQLite-backed HTTP API
// holding stages, competitions and coverage, with the server-side conflict
// checker and the instant scheduler. The board client treats this service as
// a black box; everything it returns is authoritative.
package server

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver

	"feisboard/internal/model"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and applies
// migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS feis (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			feis_date TEXT NOT NULL,
			start_hour INTEGER NOT NULL DEFAULT 8,
			end_hour INTEGER NOT NULL DEFAULT 20
		)`,
		`CREATE TABLE IF NOT EXISTS stages (
			id TEXT PRIMARY KEY,
			feis_id TEXT NOT NULL,
			name TEXT NOT NULL,
			color TEXT NOT NULL DEFAULT '',
			sequence INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS competitions (
			id TEXT PRIMARY KEY,
			feis_id TEXT NOT NULL,
			code TEXT NOT NULL,
			name TEXT NOT NULL,
			duration_minutes INTEGER NOT NULL DEFAULT 0,
			entry_count INTEGER NOT NULL DEFAULT 0,
			level TEXT NOT NULL DEFAULT '',
			dance_type TEXT NOT NULL DEFAULT '',
			stage_id TEXT,
			scheduled_time TEXT,
			adjudicator_id TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS coverage_blocks (
			id TEXT PRIMARY KEY,
			stage_id TEXT NOT NULL,
			day TEXT NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			is_panel INTEGER NOT NULL DEFAULT 0,
			adjudicator_id TEXT,
			panel_id TEXT,
			note TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS adjudicators (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS panels (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS panel_members (
			panel_id TEXT NOT NULL,
			adjudicator_id TEXT NOT NULL,
			PRIMARY KEY (panel_id, adjudicator_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stages_feis ON stages(feis_id)`,
		`CREATE INDEX IF NOT EXISTS idx_competitions_feis ON competitions(feis_id)`,
		`CREATE INDEX IF NOT EXISTS idx_coverage_stage ON coverage_blocks(stage_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// newID makes a short prefixed random id ("cov-9f2a31d0" style).
func newID(prefix string) string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return prefix + "-" + hex.EncodeToString(b[:])
}

func (s *Store) Feis(ctx context.Context, feisID string) (model.Feis, error) {
	var f model.Feis
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, feis_date, start_hour, end_hour FROM feis WHERE id = ?`, feisID)
	err := row.Scan(&f.ID, &f.Name, &f.Date, &f.Timeline.StartHour, &f.Timeline.EndHour)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Feis{}, fmt.Errorf("feis %s: %w", feisID, ErrNotFound)
	}
	if err != nil {
		return model.Feis{}, err
	}
	def := model.DefaultTimelineConfig()
	f.Timeline.PixelsPerMinute = def.PixelsPerMinute
	f.Timeline.SnapQuantumMinutes = def.SnapQuantumMinutes
	return f, nil
}

func (s *Store) SaveFeis(ctx context.Context, f model.Feis) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO feis (id, name, feis_date, start_hour, end_hour) VALUES (?, ?, ?, ?, ?)`,
		f.ID, f.Name, f.Date, f.Timeline.StartHour, f.Timeline.EndHour)
	return err
}

// Stages returns the feis stages with their coverage blocks attached, in
// sequence order.
func (s *Store) Stages(ctx context.Context, feisID string) ([]model.Stage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, feis_id, name, color, sequence FROM stages WHERE feis_id = ? ORDER BY sequence, id`, feisID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stages []model.Stage
	for rows.Next() {
		var st model.Stage
		if err := rows.Scan(&st.ID, &st.FeisID, &st.Name, &st.Color, &st.Sequence); err != nil {
			return nil, err
		}
		stages = append(stages, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range stages {
		blocks, err := s.coverageFor(ctx, stages[i].ID)
		if err != nil {
			return nil, err
		}
		stages[i].CoverageBlocks = blocks
	}
	return stages, nil
}

func (s *Store) coverageFor(ctx context.Context, stageID string) ([]model.CoverageBlock, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, stage_id, day, start_time, end_time, is_panel, adjudicator_id, panel_id, note
		 FROM coverage_blocks WHERE stage_id = ? ORDER BY day, start_time, id`, stageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CoverageBlock
	for rows.Next() {
		var b model.CoverageBlock
		var adj, panel sql.NullString
		if err := rows.Scan(&b.ID, &b.StageID, &b.Day, &b.Start, &b.End, &b.IsPanel, &adj, &panel, &b.Note); err != nil {
			return nil, err
		}
		if adj.Valid {
			v := adj.String
			b.AdjudicatorID = &v
		}
		if panel.Valid {
			v := panel.String
			b.PanelID = &v
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Competitions returns every competition of the feis, scheduled or not.
func (s *Store) Competitions(ctx context.Context, feisID string) ([]model.Competition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, feis_id, code, name, duration_minutes, entry_count, level, dance_type, stage_id, scheduled_time, adjudicator_id
		 FROM competitions WHERE feis_id = ? ORDER BY code, id`, feisID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Competition
	for rows.Next() {
		var c model.Competition
		var stageID, schedAt, adj sql.NullString
		if err := rows.Scan(&c.ID, &c.FeisID, &c.Code, &c.Name, &c.DurationMinutes, &c.EntryCount,
			&c.Level, &c.DanceType, &stageID, &schedAt, &adj); err != nil {
			return nil, err
		}
		// A row with only half the pair persisted is treated as unscheduled
		// rather than surfaced; the pairing invariant holds on the way out.
		if stageID.Valid && schedAt.Valid {
			sid := stageID.String
			if at, err := model.ParseWallTime(schedAt.String); err == nil {
				c.StageID = &sid
				c.ScheduledAt = &at
			}
		}
		if adj.Valid {
			v := adj.String
			c.AdjudicatorID = &v
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) InsertStage(ctx context.Context, st model.Stage) (model.Stage, error) {
	if st.ID == "" {
		st.ID = newID("st")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO stages (id, feis_id, name, color, sequence) VALUES (?, ?, ?, ?, ?)`,
		st.ID, st.FeisID, st.Name, st.Color, st.Sequence)
	return st, err
}

// DeleteStage removes a stage and its coverage. Its competitions are
// unassigned (placement cleared), never deleted.
func (s *Store) DeleteStage(ctx context.Context, stageID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM stages WHERE id = ?`, stageID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("stage %s: %w", stageID, ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM coverage_blocks WHERE stage_id = ?`, stageID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE competitions SET stage_id = NULL, scheduled_time = NULL WHERE stage_id = ?`, stageID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) InsertCompetition(ctx context.Context, c model.Competition) (model.Competition, error) {
	if c.ID == "" {
		c.ID = newID("comp")
	}
	var stageID, schedAt, adj any
	if c.Scheduled() {
		stageID = *c.StageID
		schedAt = c.ScheduledAt.String()
	}
	if c.AdjudicatorID != nil {
		adj = *c.AdjudicatorID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO competitions (id, feis_id, code, name, duration_minutes, entry_count, level, dance_type, stage_id, scheduled_time, adjudicator_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.FeisID, c.Code, c.Name, c.DurationMinutes, c.EntryCount, c.Level, c.DanceType, stageID, schedAt, adj)
	return c, err
}

// ReplaceSchedule atomically replaces the feis schedule: every competition is
// first unassigned, then the given placements are applied, all in one
// transaction. Placements referencing unknown competitions or stages roll the
// whole request back.
func (s *Store) ReplaceSchedule(ctx context.Context, feisID string, placements []model.Placement) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE competitions SET stage_id = NULL, scheduled_time = NULL WHERE feis_id = ?`, feisID); err != nil {
		return err
	}
	for _, p := range placements {
		var exists int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM stages WHERE id = ? AND feis_id = ?`, p.StageID, feisID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return fmt.Errorf("stage %s: %w", p.StageID, ErrNotFound)
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE competitions SET stage_id = ?, scheduled_time = ? WHERE id = ? AND feis_id = ?`,
			p.StageID, p.ScheduledTime.String(), p.CompetitionID, feisID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("competition %s: %w", p.CompetitionID, ErrNotFound)
		}
	}
	return tx.Commit()
}

func (s *Store) InsertCoverage(ctx context.Context, b model.CoverageBlock) (model.CoverageBlock, error) {
	if b.ID == "" {
		b.ID = newID("cov")
	}
	var exists int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM stages WHERE id = ?`, b.StageID).Scan(&exists); err != nil {
		return b, err
	}
	if exists == 0 {
		return b, fmt.Errorf("stage %s: %w", b.StageID, ErrNotFound)
	}
	var adj, panel any
	if b.AdjudicatorID != nil {
		adj = *b.AdjudicatorID
	}
	if b.PanelID != nil {
		panel = *b.PanelID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO coverage_blocks (id, stage_id, day, start_time, end_time, is_panel, adjudicator_id, panel_id, note)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.StageID, b.Day, b.Start, b.End, b.IsPanel, adj, panel, b.Note)
	return b, err
}

func (s *Store) DeleteCoverage(ctx context.Context, coverageID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM coverage_blocks WHERE id = ?`, coverageID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("coverage %s: %w", coverageID, ErrNotFound)
	}
	return nil
}

func (s *Store) InsertAdjudicator(ctx context.Context, a model.Adjudicator) (model.Adjudicator, error) {
	if a.ID == "" {
		a.ID = newID("adj")
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO adjudicators (id, name) VALUES (?, ?)`, a.ID, a.Name)
	return a, err
}

func (s *Store) Adjudicators(ctx context.Context) ([]model.Adjudicator, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM adjudicators ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Adjudicator
	for rows.Next() {
		var a model.Adjudicator
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) InsertPanel(ctx context.Context, p model.Panel) (model.Panel, error) {
	if p.ID == "" {
		p.ID = newID("panel")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return p, err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `INSERT INTO panels (id, name) VALUES (?, ?)`, p.ID, p.Name); err != nil {
		return p, err
	}
	for _, adjID := range p.AdjudicatorIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO panel_members (panel_id, adjudicator_id) VALUES (?, ?)`, p.ID, adjID); err != nil {
			return p, err
		}
	}
	return p, tx.Commit()
}

func (s *Store) Panels(ctx context.Context) ([]model.Panel, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM panels ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Panel
	for rows.Next() {
		var p model.Panel
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		members, err := s.db.QueryContext(ctx,
			`SELECT adjudicator_id FROM panel_members WHERE panel_id = ? ORDER BY adjudicator_id`, out[i].ID)
		if err != nil {
			return nil, err
		}
		for members.Next() {
			var id string
			if err := members.Scan(&id); err != nil {
				members.Close()
				return nil, err
			}
			out[i].AdjudicatorIDs = append(out[i].AdjudicatorIDs, id)
		}
		if err := members.Err(); err != nil {
			members.Close()
			return nil, err
		}
		members.Close()
	}
	return out, nil
}
