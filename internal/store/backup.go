package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/verte-zerg/vocadrill/internal/model"
)

// BackupVersion is written into every backup document.
const BackupVersion = 1

// Backup is the JSON document written by ExportJSON.
type Backup struct {
	Version    int                  `json:"version"`
	ExportedAt time.Time            `json:"exported_at"`
	Words      []model.Word         `json:"words"`
	History    []model.HistoryEntry `json:"history"`
	Streak     model.PracticeStreak `json:"streak"`
}

// ExportJSON writes every word, the history and the streak as one document.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer) (Backup, error) {
	words, err := s.ListWords(ctx, ListFilter{})
	if err != nil {
		return Backup{}, err
	}
	history, err := s.ListHistory(ctx, HistoryFilter{})
	if err != nil {
		return Backup{}, err
	}
	streak, err := s.Streak(ctx)
	if err != nil {
		return Backup{}, err
	}
	b := Backup{
		Version:    BackupVersion,
		ExportedAt: time.Now().UTC(),
		Words:      words,
		History:    history,
		Streak:     streak,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return Backup{}, fmt.Errorf("encode backup: %w", err)
	}
	return b, nil
}

// ImportJSON replaces all stored data with the backup read from r.
func (s *Store) ImportJSON(ctx context.Context, r io.Reader) (Backup, error) {
	var b Backup
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return Backup{}, fmt.Errorf("decode backup: %w", err)
	}
	if b.Version > BackupVersion {
		return Backup{}, fmt.Errorf("backup version %d is newer than supported %d", b.Version, BackupVersion)
	}

	history := b.History
	if len(history) > s.maxHistory {
		history = history[len(history)-s.maxHistory:]
	}
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, stmt := range []string{`DELETE FROM words`, `DELETE FROM history`, `DELETE FROM meta`} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		for _, w := range b.Words {
			if w.ID == "" || w.Text == "" {
				return fmt.Errorf("backup word without id or text")
			}
			row, err := toRow(w)
			if err != nil {
				return err
			}
			if _, err := tx.NamedExecContext(ctx, `INSERT OR REPLACE INTO words (`+wordColumns+`)
				VALUES (:id, :text, :text_key, :set_id, :meanings, :created_at, :review_count, :correct_count,
					:streak, :mastered, :bookmarked, :srs_level, :next_review, :last_reviewed)`, row); err != nil {
				return fmt.Errorf("restore word %s: %w", w.ID, err)
			}
		}
		for _, e := range history {
			if _, err := insertHistory(ctx, tx, e); err != nil {
				return fmt.Errorf("restore history: %w", err)
			}
		}
		return writeStreak(ctx, tx, b.Streak)
	})
	if err != nil {
		return Backup{}, err
	}
	b.History = history
	return b, nil
}
