// Package importer moves words in and out of CSV and XLSX spreadsheets.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/verte-zerg/vocadrill/internal/model"
	"github.com/verte-zerg/vocadrill/internal/store"
)

// Column names, in the order they are exported.
var Columns = []string{"word", "set", "pos", "definition", "translation", "example", "synonyms", "antonyms", "phonetic"}

// DefaultSheet is the sheet written by WriteXLSX and read when none is named.
const DefaultSheet = "Sheet1"

// Format of a spreadsheet file.
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// DetectFormat picks the format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return CSV, nil
	case ".xlsx", ".xlsm":
		return XLSX, nil
	}
	return "", fmt.Errorf("unsupported file type %q (want .csv or .xlsx)", filepath.Ext(path))
}

// RowError reports a row that could not be parsed. Row is 1-based.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

// ReadFile parses words from a CSV or XLSX file.
func ReadFile(path, sheet string) ([]model.Word, []RowError, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close.
			_ = cerr
		}
	}()
	if format == CSV {
		return ReadCSV(f)
	}
	return ReadXLSX(f, sheet)
}

// ReadCSV parses words from CSV.
func ReadCSV(r io.Reader) ([]model.Word, []RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read csv: %w", err)
	}
	words, rowErrs := parseRows(rows)
	return words, rowErrs, nil
}

// ReadXLSX parses words from the named sheet, or the first sheet when sheet
// is empty.
func ReadXLSX(r io.Reader, sheet string) ([]model.Word, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close.
			_ = cerr
		}
	}()
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get rows: %w", err)
	}
	words, rowErrs := parseRows(rows)
	return words, rowErrs, nil
}

// parseRows maps rows to words. A first row naming known columns is a header;
// otherwise columns are positional. Consecutive rows for the same word and set
// become meanings of one word.
func parseRows(rows [][]string) ([]model.Word, []RowError) {
	index, start := headerIndex(rows)
	var (
		words   []model.Word
		rowErrs []RowError
	)
	for i := start; i < len(rows); i++ {
		row := rows[i]
		if blank(row) {
			continue
		}
		get := func(col string) string {
			j, ok := index[col]
			if !ok || j >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[j])
		}
		text := get("word")
		if text == "" {
			rowErrs = append(rowErrs, RowError{Row: i + 1, Err: errors.New("missing word")})
			continue
		}
		m := model.Meaning{
			PartOfSpeech: get("pos"),
			Definition:   get("definition"),
			Translation:  get("translation"),
			Example:      get("example"),
			Synonyms:     splitList(get("synonyms")),
			Antonyms:     splitList(get("antonyms")),
			Phonetics:    splitList(get("phonetic")),
		}
		set := get("set")
		if n := len(words); n > 0 && strings.EqualFold(words[n-1].Text, text) && words[n-1].SetID == set {
			words[n-1].Meanings = append(words[n-1].Meanings, m)
			continue
		}
		w := model.NewWord(text, m)
		w.SetID = set
		words = append(words, w)
	}
	return words, rowErrs
}

var columnAliases = map[string]string{
	"word":           "word",
	"term":           "word",
	"set":            "set",
	"deck":           "set",
	"pos":            "pos",
	"part of speech": "pos",
	"definition":     "definition",
	"meaning":        "definition",
	"translation":    "translation",
	"example":        "example",
	"synonyms":       "synonyms",
	"antonyms":       "antonyms",
	"phonetic":       "phonetic",
	"phonetics":      "phonetic",
	"pronunciation":  "phonetic",
}

func headerIndex(rows [][]string) (map[string]int, int) {
	positional := make(map[string]int, len(Columns))
	for i, c := range Columns {
		positional[c] = i
	}
	if len(rows) == 0 {
		return positional, 0
	}
	index := map[string]int{}
	for j, cell := range rows[0] {
		if col, ok := columnAliases[strings.ToLower(strings.TrimSpace(cell))]; ok {
			if _, dup := index[col]; !dup {
				index[col] = j
			}
		}
	}
	if _, ok := index["word"]; !ok {
		return positional, 0
	}
	return index, 1
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' || r == '|' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// exportRows flattens words to one row per meaning.
func exportRows(words []model.Word) [][]string {
	rows := [][]string{Columns}
	for _, w := range words {
		meanings := w.Meanings
		if len(meanings) == 0 {
			meanings = []model.Meaning{{}}
		}
		for _, m := range meanings {
			rows = append(rows, []string{
				w.Text,
				w.SetID,
				m.PartOfSpeech,
				m.Definition,
				m.Translation,
				m.Example,
				strings.Join(m.Synonyms, ", "),
				strings.Join(m.Antonyms, ", "),
				strings.Join(m.Phonetics, ", "),
			})
		}
	}
	return rows
}

// WriteCSV writes words as CSV with a header row.
func WriteCSV(w io.Writer, words []model.Word) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(exportRows(words)); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// WriteXLSX writes words to a workbook with a single sheet.
func WriteXLSX(w io.Writer, words []model.Word) error {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close.
			_ = cerr
		}
	}()
	for i, row := range exportRows(words) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(DefaultSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WordStore is the subset of the store used for imports.
type WordStore interface {
	ListWords(ctx context.Context, filter store.ListFilter) ([]model.Word, error)
	AddWord(ctx context.Context, w model.Word) (model.Word, error)
	UpdateWord(ctx context.Context, w model.Word) error
}

// Options controls Import.
type Options struct {
	// SetID is used for rows without a set.
	SetID string
	// Overwrite replaces meanings of words that already exist. Learning
	// state is kept either way.
	Overwrite bool
}

// Result summarises an import.
type Result struct {
	Created int
	Updated int
	Skipped int
}

// Import adds parsed words to st.
func Import(ctx context.Context, st WordStore, words []model.Word, opts Options) (Result, error) {
	existing, err := st.ListWords(ctx, store.ListFilter{})
	if err != nil {
		return Result{}, err
	}
	byKey := make(map[string]model.Word, len(existing))
	for _, w := range existing {
		byKey[key(w.SetID, w.Text)] = w
	}

	var res Result
	for _, w := range words {
		if w.SetID == "" {
			w.SetID = opts.SetID
		}
		k := key(w.SetID, w.Text)
		if cur, ok := byKey[k]; ok {
			if !opts.Overwrite {
				res.Skipped++
				continue
			}
			cur.Meanings = w.Meanings
			if err := st.UpdateWord(ctx, cur); err != nil {
				return res, fmt.Errorf("update %q: %w", w.Text, err)
			}
			byKey[k] = cur
			res.Updated++
			continue
		}
		added, err := st.AddWord(ctx, w)
		if err != nil {
			return res, fmt.Errorf("add %q: %w", w.Text, err)
		}
		byKey[k] = added
		res.Created++
	}
	return res, nil
}

func key(set, text string) string {
	return set + "\x00" + strings.ToLower(strings.TrimSpace(text))
}
