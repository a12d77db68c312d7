package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/verte-zerg/vocadrill/internal/model"
)

const (
	defaultHistoryCap = model.MaxHistoryEntries
	streakKey         = "practice_streak"
)

type historyRow struct {
	ID           int64  `db:"id"`
	Mode         string `db:"mode"`
	StartedAt    string `db:"started_at"`
	EndedAt      string `db:"ended_at"`
	Total        int    `db:"total"`
	Correct      int    `db:"correct"`
	Wrong        int    `db:"wrong"`
	Skipped      int    `db:"skipped"`
	Accuracy     int    `db:"accuracy"`
	DurationSecs int64  `db:"duration_secs"`
	WrongIDs     string `db:"wrong_ids"`
	SkippedIDs   string `db:"skipped_ids"`
	Answers      string `db:"answers"`
}

func marshalList[T any](v []T) (string, error) {
	if v == nil {
		v = []T{}
	}
	raw, err := json.Marshal(v)
	return string(raw), err
}

func toHistoryRow(e model.HistoryEntry) (historyRow, error) {
	wrong, err := marshalList(e.WrongIDs)
	if err != nil {
		return historyRow{}, err
	}
	skipped, err := marshalList(e.SkippedIDs)
	if err != nil {
		return historyRow{}, err
	}
	answers, err := marshalList(e.Answers)
	if err != nil {
		return historyRow{}, err
	}
	return historyRow{
		ID:           e.ID,
		Mode:         string(e.Mode),
		StartedAt:    formatTime(e.StartedAt),
		EndedAt:      formatTime(e.EndedAt),
		Total:        e.Total,
		Correct:      e.Correct,
		Wrong:        e.Wrong,
		Skipped:      e.Skipped,
		Accuracy:     e.Accuracy,
		DurationSecs: e.DurationSecs,
		WrongIDs:     wrong,
		SkippedIDs:   skipped,
		Answers:      answers,
	}, nil
}

func (r historyRow) toEntry() (model.HistoryEntry, error) {
	e := model.HistoryEntry{
		ID:           r.ID,
		Mode:         model.Mode(r.Mode),
		Total:        r.Total,
		Correct:      r.Correct,
		Wrong:        r.Wrong,
		Skipped:      r.Skipped,
		Accuracy:     r.Accuracy,
		DurationSecs: r.DurationSecs,
	}
	var err error
	if e.StartedAt, err = parseTime(r.StartedAt); err != nil {
		return e, err
	}
	if e.EndedAt, err = parseTime(r.EndedAt); err != nil {
		return e, err
	}
	for _, f := range []struct {
		raw string
		dst any
	}{{r.WrongIDs, &e.WrongIDs}, {r.SkippedIDs, &e.SkippedIDs}, {r.Answers, &e.Answers}} {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return e, fmt.Errorf("history %d: %w", r.ID, err)
		}
	}
	return e, nil
}

// RecordHistory appends a finished session and evicts the oldest entries
// beyond the cap.
func (s *Store) RecordHistory(ctx context.Context, e model.HistoryEntry) (model.HistoryEntry, error) {
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		id, err := insertHistory(ctx, tx, e)
		if err != nil {
			return err
		}
		e.ID = id
		res, err := tx.ExecContext(ctx, `DELETE FROM history WHERE id NOT IN (
			SELECT id FROM history ORDER BY id DESC LIMIT ?)`, s.maxHistory)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			s.log.Debug("pruned history", "removed", n)
		}
		return nil
	})
	if err != nil {
		return model.HistoryEntry{}, fmt.Errorf("record history: %w", err)
	}
	return e, nil
}

func insertHistory(ctx context.Context, tx *sqlx.Tx, e model.HistoryEntry) (int64, error) {
	row, err := toHistoryRow(e)
	if err != nil {
		return 0, err
	}
	res, err := tx.NamedExecContext(ctx, `INSERT INTO history
		(mode, started_at, ended_at, total, correct, wrong, skipped, accuracy, duration_secs, wrong_ids, skipped_ids, answers)
		VALUES (:mode, :started_at, :ended_at, :total, :correct, :wrong, :skipped, :accuracy, :duration_secs, :wrong_ids, :skipped_ids, :answers)`, row)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// HistoryFilter narrows ListHistory. Zero values match everything.
type HistoryFilter struct {
	Mode  model.Mode
	Since *time.Time
	Until *time.Time
}

// ListHistory returns history entries, oldest first.
func (s *Store) ListHistory(ctx context.Context, filter HistoryFilter) ([]model.HistoryEntry, error) {
	query := `SELECT * FROM history WHERE 1=1`
	var args []any
	if filter.Mode != "" {
		query += ` AND mode = ?`
		args = append(args, string(filter.Mode))
	}
	if filter.Since != nil {
		query += ` AND ended_at >= ?`
		args = append(args, formatTime(*filter.Since))
	}
	if filter.Until != nil {
		query += ` AND ended_at <= ?`
		args = append(args, formatTime(*filter.Until))
	}
	query += ` ORDER BY id ASC`

	var rows []historyRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	entries := make([]model.HistoryEntry, 0, len(rows))
	for _, r := range rows {
		e, err := r.toEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Streak returns the stored day streak.
func (s *Store) Streak(ctx context.Context) (model.PracticeStreak, error) {
	return readStreak(ctx, s.db)
}

func readStreak(ctx context.Context, q sqlx.QueryerContext) (model.PracticeStreak, error) {
	var raw string
	err := sqlx.GetContext(ctx, q, &raw, `SELECT value FROM meta WHERE key = ?`, streakKey)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PracticeStreak{}, nil
	}
	if err != nil {
		return model.PracticeStreak{}, err
	}
	var st model.PracticeStreak
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return model.PracticeStreak{}, fmt.Errorf("decode streak: %w", err)
	}
	return st, nil
}

func writeStreak(ctx context.Context, tx *sqlx.Tx, st model.PracticeStreak) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		streakKey, string(raw))
	return err
}

// TouchStreak records practice on now's calendar day.
func (s *Store) TouchStreak(ctx context.Context, now time.Time) (model.PracticeStreak, error) {
	var st model.PracticeStreak
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		cur, err := readStreak(ctx, tx)
		if err != nil {
			return err
		}
		st = model.TouchStreak(cur, now)
		return writeStreak(ctx, tx, st)
	})
	return st, err
}
