package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/vocadrill/internal/model"
	"github.com/verte-zerg/vocadrill/internal/store"
)

const listDefinitionWidth = 40

var (
	addDef      string
	addTr       string
	addExample  string
	addPos      string
	addSyn      []string
	addAnt      []string
	addPhonetic []string
	addSet      string

	listSet        string
	listBookmarked bool

	bookmarkOff bool
)

func newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <word>",
		Short: "Add a word",
		Args:  cobra.ExactArgs(1),
		RunE:  runAddCmd,
	}
	cmd.Flags().StringVar(&addDef, "def", "", "definition")
	cmd.Flags().StringVar(&addTr, "tr", "", "translation")
	cmd.Flags().StringVar(&addExample, "example", "", "example sentence")
	cmd.Flags().StringVar(&addPos, "pos", "", "part of speech")
	cmd.Flags().StringSliceVar(&addSyn, "syn", nil, "synonyms (comma separated)")
	cmd.Flags().StringSliceVar(&addAnt, "ant", nil, "antonyms (comma separated)")
	cmd.Flags().StringSliceVar(&addPhonetic, "phonetic", nil, "phonetic spellings (comma separated)")
	cmd.Flags().StringVar(&addSet, "set", "", "word set")
	return cmd
}

func runAddCmd(cmd *cobra.Command, args []string) error {
	text := strings.TrimSpace(args[0])
	if text == "" {
		return fmt.Errorf("word must not be empty")
	}
	m := model.Meaning{
		PartOfSpeech: strings.TrimSpace(addPos),
		Definition:   strings.TrimSpace(addDef),
		Translation:  strings.TrimSpace(addTr),
		Example:      strings.TrimSpace(addExample),
		Synonyms:     trimAll(addSyn),
		Antonyms:     trimAll(addAnt),
		Phonetics:    trimAll(addPhonetic),
	}
	if m.Definition == "" && m.Translation == "" {
		return fmt.Errorf("--def or --tr is required")
	}

	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	w := model.NewWord(text, m)
	w.SetID = strings.TrimSpace(addSet)
	added, err := a.st.AddWord(context.Background(), w)
	if errors.Is(err, store.ErrDuplicate) {
		return fmt.Errorf("%q is already in set %q", text, w.SetID)
	}
	if err != nil {
		return fmt.Errorf("failed to add word: %w", err)
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", added.Text, added.ID); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List words",
		Args:  cobra.NoArgs,
		RunE:  runListCmd,
	}
	cmd.Flags().StringVar(&listSet, "set", "", "only words from this set")
	cmd.Flags().BoolVar(&listBookmarked, "bookmarked", false, "only bookmarked words")
	return cmd
}

func runListCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	words, err := a.st.ListWords(context.Background(), store.ListFilter{SetID: listSet, Bookmarked: listBookmarked})
	if err != nil {
		return fmt.Errorf("failed to list words: %w", err)
	}
	if len(words) == 0 {
		logErrf("No words yet. Add one with: vocadrill add <word> --def <definition>\n")
		return nil
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), renderWordTable(words, time.Now())); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func renderWordTable(words []model.Word, now time.Time) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Word", "Set", "Definition", "Acc", "Reviews", "Level", "Next", "Flags").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, w := range words {
		t.Row(wordRow(w, now)...)
	}
	return t.String()
}

func wordRow(w model.Word, now time.Time) []string {
	acc := "-"
	if w.ReviewCount > 0 {
		acc = fmt.Sprintf("%.0f%%", w.Accuracy()*100)
	}
	next := "now"
	if !w.IsDue(now) {
		next = w.NextReview.Local().Format(model.DayLayout)
	}
	var flags string
	if w.Mastered {
		flags += "M"
	}
	if w.Bookmarked {
		flags += "B"
	}
	def := w.FieldValue(model.FieldDefinition)
	if def == "" {
		def = w.FieldValue(model.FieldTranslation)
	}
	return []string{
		w.Text,
		w.SetID,
		runewidth.Truncate(def, listDefinitionWidth, "…"),
		acc,
		strconv.Itoa(w.ReviewCount),
		strconv.Itoa(w.SRSLevel),
		next,
		flags,
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <word|id>",
		Short: "Delete a word",
		Args:  cobra.ExactArgs(1),
		RunE:  runDeleteCmd,
	}
}

func runDeleteCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()
	w, err := lookupWord(ctx, a.st, args[0])
	if err != nil {
		return err
	}
	if err := a.st.DeleteWord(ctx, w.ID); err != nil {
		return fmt.Errorf("failed to delete word: %w", err)
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", w.Text); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newBookmarkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookmark <word|id>",
		Short: "Bookmark a word",
		Args:  cobra.ExactArgs(1),
		RunE:  runBookmarkCmd,
	}
	cmd.Flags().BoolVar(&bookmarkOff, "off", false, "remove the bookmark")
	return cmd
}

func runBookmarkCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()
	w, err := lookupWord(ctx, a.st, args[0])
	if err != nil {
		return err
	}
	if err := a.st.SetBookmarked(ctx, w.ID, !bookmarkOff); err != nil {
		return fmt.Errorf("failed to update bookmark: %w", err)
	}
	state := "Bookmarked"
	if bookmarkOff {
		state = "Unbookmarked"
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", state, w.Text); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// lookupWord resolves an id or, failing that, a headword.
func lookupWord(ctx context.Context, st *store.Store, ref string) (model.Word, error) {
	if _, err := uuid.Parse(ref); err == nil {
		w, err := st.GetWord(ctx, ref)
		if err == nil {
			return w, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return model.Word{}, err
		}
	}
	w, err := st.FindWord(ctx, ref)
	if errors.Is(err, store.ErrNotFound) {
		return model.Word{}, fmt.Errorf("no word %q", ref)
	}
	return w, err
}

func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
