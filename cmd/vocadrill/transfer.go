package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/vocadrill/internal/importer"
	"github.com/verte-zerg/vocadrill/internal/model"
	"github.com/verte-zerg/vocadrill/internal/store"
)

var (
	importSet       string
	importSheet     string
	importOverwrite bool

	exportSet string

	restoreForce bool
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.csv|file.xlsx>",
		Short: "Import words from a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCmd,
	}
	cmd.Flags().StringVar(&importSet, "set", "", "set for rows without one")
	cmd.Flags().StringVar(&importSheet, "sheet", "", "xlsx sheet name (default: first sheet)")
	cmd.Flags().BoolVar(&importOverwrite, "overwrite", false, "replace meanings of existing words")
	return cmd
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	words, rowErrs, err := importer.ReadFile(args[0], importSheet)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	for _, re := range rowErrs {
		logErrf("Skipping %v\n", re)
	}

	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := importer.Import(context.Background(), a.st, words, importer.Options{
		SetID:     importSet,
		Overwrite: importOverwrite,
	})
	if err != nil {
		return fmt.Errorf("failed to import: %w", err)
	}
	a.log.Info("import finished", "file", args[0], "created", res.Created, "updated", res.Updated, "skipped", res.Skipped)
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d new, %d updated, %d skipped, %d invalid rows\n",
		res.Created, res.Updated, res.Skipped, len(rowErrs))
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <file.csv|file.xlsx>",
		Short: "Export words to a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportSet, "set", "", "only words from this set")
	return cmd
}

func runExportCmd(cmd *cobra.Command, args []string) error {
	path := args[0]
	format, err := importer.DetectFormat(path)
	if err != nil {
		return err
	}

	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	words, err := a.st.ListWords(context.Background(), store.ListFilter{SetID: exportSet})
	if err != nil {
		return fmt.Errorf("failed to list words: %w", err)
	}
	write := func(w io.Writer) error { return importer.WriteCSV(w, words) }
	if format == importer.XLSX {
		write = func(w io.Writer) error { return importer.WriteXLSX(w, words) }
	}
	if err := writeFileAtomic(path, write); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Exported %d words to %s\n", len(words), path); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup [file]",
		Short: "Write a JSON backup of words, history and streak",
		Long:  "Write a JSON backup of words, history and streak. Use - or no file for stdout.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runBackupCmd,
	}
}

func runBackupCmd(cmd *cobra.Command, args []string) error {
	path := "-"
	if len(args) == 1 {
		path = args[0]
	}

	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()
	var b store.Backup
	export := func(w io.Writer) error {
		var err error
		b, err = a.st.ExportJSON(ctx, w)
		return err
	}
	if path == "-" {
		return export(cmd.OutOrStdout())
	}
	if err := writeFileAtomic(path, export); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	logErrf("Backed up %d words and %d sessions to %s\n", len(b.Words), len(b.History), path)
	return nil
}

func newRestoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Replace all data with a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE:  runRestoreCmd,
	}
	cmd.Flags().BoolVar(&restoreForce, "force", false, "confirm that existing data is replaced")
	return cmd
}

func runRestoreCmd(cmd *cobra.Command, args []string) error {
	if !restoreForce {
		return fmt.Errorf("restore replaces every word and session; rerun with --force")
	}
	var r io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open backup: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				// Best-effort close of a read-only file.
				_ = cerr
			}
		}()
		r = f
	}

	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	b, err := a.st.ImportJSON(context.Background(), bufio.NewReader(r))
	if err != nil {
		return fmt.Errorf("failed to restore: %w", err)
	}
	a.log.Info("restored backup", "file", args[0], "words", len(b.Words), "sessions", len(b.History))
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Restored %d words, %d sessions, streak %d day(s) (exported %s)\n",
		len(b.Words), len(b.History), b.Streak.Days, b.ExportedAt.Local().Format(model.DayLayout))
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// writeFileAtomic writes through a temp file in the target directory and
// renames it into place.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmpFile, err := os.CreateTemp(dir, ".vocadrill-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	writer := bufio.NewWriter(tmpFile)
	if err := write(writer); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close: %w", err)
	}
	return os.Rename(tmpPath, path)
}
