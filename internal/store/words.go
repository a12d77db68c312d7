package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/verte-zerg/vocadrill/internal/model"
)

type wordRow struct {
	ID           string `db:"id"`
	Text         string `db:"text"`
	TextKey      string `db:"text_key"`
	SetID        string `db:"set_id"`
	Meanings     string `db:"meanings"`
	CreatedAt    string `db:"created_at"`
	ReviewCount  int    `db:"review_count"`
	CorrectCount int    `db:"correct_count"`
	Streak       int    `db:"streak"`
	Mastered     bool   `db:"mastered"`
	Bookmarked   bool   `db:"bookmarked"`
	SRSLevel     int    `db:"srs_level"`
	NextReview   string `db:"next_review"`
	LastReviewed string `db:"last_reviewed"`
}

const wordColumns = `id, text, text_key, set_id, meanings, created_at, review_count, correct_count,
	streak, mastered, bookmarked, srs_level, next_review, last_reviewed`

func textKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func toRow(w model.Word) (wordRow, error) {
	meanings := w.Meanings
	if meanings == nil {
		meanings = []model.Meaning{}
	}
	raw, err := json.Marshal(meanings)
	if err != nil {
		return wordRow{}, err
	}
	return wordRow{
		ID:           w.ID,
		Text:         w.Text,
		TextKey:      textKey(w.Text),
		SetID:        w.SetID,
		Meanings:     string(raw),
		CreatedAt:    formatTime(w.CreatedAt),
		ReviewCount:  w.ReviewCount,
		CorrectCount: w.CorrectCount,
		Streak:       w.Streak,
		Mastered:     w.Mastered,
		Bookmarked:   w.Bookmarked,
		SRSLevel:     w.SRSLevel,
		NextReview:   formatTime(w.NextReview),
		LastReviewed: formatTime(w.LastReviewed),
	}, nil
}

func (r wordRow) toWord() (model.Word, error) {
	w := model.Word{
		ID:           r.ID,
		Text:         r.Text,
		SetID:        r.SetID,
		ReviewCount:  r.ReviewCount,
		CorrectCount: r.CorrectCount,
		Streak:       r.Streak,
		Mastered:     r.Mastered,
		Bookmarked:   r.Bookmarked,
		SRSLevel:     r.SRSLevel,
	}
	if err := json.Unmarshal([]byte(r.Meanings), &w.Meanings); err != nil {
		return model.Word{}, fmt.Errorf("word %s meanings: %w", r.ID, err)
	}
	var err error
	if w.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return model.Word{}, err
	}
	if w.NextReview, err = parseTime(r.NextReview); err != nil {
		return model.Word{}, err
	}
	if w.LastReviewed, err = parseTime(r.LastReviewed); err != nil {
		return model.Word{}, err
	}
	return w, nil
}

// AddWord inserts w, assigning an id and creation time when missing. It
// returns the stored word.
func (s *Store) AddWord(ctx context.Context, w model.Word) (model.Word, error) {
	w.Text = strings.TrimSpace(w.Text)
	if w.Text == "" {
		return model.Word{}, errors.New("word text is empty")
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}
	row, err := toRow(w)
	if err != nil {
		return model.Word{}, err
	}
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		var n int
		if err := tx.GetContext(ctx, &n,
			`SELECT COUNT(*) FROM words WHERE set_id = ? AND text_key = ?`, row.SetID, row.TextKey); err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%q: %w", w.Text, ErrDuplicate)
		}
		_, err := tx.NamedExecContext(ctx, `INSERT INTO words (`+wordColumns+`)
			VALUES (:id, :text, :text_key, :set_id, :meanings, :created_at, :review_count, :correct_count,
				:streak, :mastered, :bookmarked, :srs_level, :next_review, :last_reviewed)`, row)
		return err
	})
	if err != nil {
		return model.Word{}, err
	}
	return w, nil
}

// UpdateWord overwrites the stored word with the same id.
func (s *Store) UpdateWord(ctx context.Context, w model.Word) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		return updateWord(ctx, tx, w)
	})
}

func updateWord(ctx context.Context, tx *sqlx.Tx, w model.Word) error {
	row, err := toRow(w)
	if err != nil {
		return err
	}
	res, err := tx.NamedExecContext(ctx, `UPDATE words SET
		text = :text, text_key = :text_key, set_id = :set_id, meanings = :meanings,
		review_count = :review_count, correct_count = :correct_count, streak = :streak,
		mastered = :mastered, bookmarked = :bookmarked, srs_level = :srs_level,
		next_review = :next_review, last_reviewed = :last_reviewed
		WHERE id = :id`, row)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("word %s: %w", w.ID, ErrNotFound)
	}
	return nil
}

// GetWord returns the word with the given id.
func (s *Store) GetWord(ctx context.Context, id string) (model.Word, error) {
	return getWord(ctx, s.db, `SELECT `+wordColumns+` FROM words WHERE id = ?`, id)
}

// FindWord looks a word up by text, ignoring case. When several sets hold
// the word the oldest entry wins.
func (s *Store) FindWord(ctx context.Context, text string) (model.Word, error) {
	return getWord(ctx, s.db,
		`SELECT `+wordColumns+` FROM words WHERE text_key = ? ORDER BY created_at ASC LIMIT 1`, textKey(text))
}

func getWord(ctx context.Context, q sqlx.QueryerContext, query string, args ...any) (model.Word, error) {
	var row wordRow
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Word{}, fmt.Errorf("word %v: %w", args, ErrNotFound)
		}
		return model.Word{}, err
	}
	return row.toWord()
}

// ListFilter narrows ListWords.
type ListFilter struct {
	SetID      string
	Bookmarked bool
}

// ListWords returns stored words, oldest first.
func (s *Store) ListWords(ctx context.Context, filter ListFilter) ([]model.Word, error) {
	query := `SELECT ` + wordColumns + ` FROM words WHERE 1=1`
	var args []any
	if filter.SetID != "" {
		query += ` AND set_id = ?`
		args = append(args, filter.SetID)
	}
	if filter.Bookmarked {
		query += ` AND bookmarked = 1`
	}
	query += ` ORDER BY created_at ASC, id ASC`

	var rows []wordRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	words := make([]model.Word, 0, len(rows))
	for _, r := range rows {
		w, err := r.toWord()
		if err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	return words, nil
}

// ListSets returns the distinct non-empty set ids.
func (s *Store) ListSets(ctx context.Context) ([]string, error) {
	var sets []string
	err := s.db.SelectContext(ctx, &sets, `SELECT DISTINCT set_id FROM words WHERE set_id != '' ORDER BY set_id`)
	return sets, err
}

// DeleteWord removes a word.
func (s *Store) DeleteWord(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM words WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("word %s: %w", id, ErrNotFound)
	}
	return nil
}

// SetBookmarked flags or unflags a word.
func (s *Store) SetBookmarked(ctx context.Context, id string, on bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE words SET bookmarked = ? WHERE id = ?`, on, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("word %s: %w", id, ErrNotFound)
	}
	return nil
}

// ApplyDelta applies a grading delta to the stored word. A delta for a word
// that no longer exists is logged and dropped; applied is false then.
func (s *Store) ApplyDelta(ctx context.Context, d model.Delta) (applied bool, err error) {
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		w, err := getWord(ctx, tx, `SELECT `+wordColumns+` FROM words WHERE id = ?`, d.WordID)
		if errors.Is(err, ErrNotFound) {
			s.log.Warn("dropping delta for missing word", "word_id", d.WordID)
			return nil
		}
		if err != nil {
			return err
		}
		w.Apply(d)
		if err := updateWord(ctx, tx, w); err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

// CountDue counts words due for review at now, including never-scheduled ones.
func (s *Store) CountDue(ctx context.Context, now time.Time) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM words WHERE next_review = '' OR next_review <= ?`, formatTime(now))
	return n, err
}
