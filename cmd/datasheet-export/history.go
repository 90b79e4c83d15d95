package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/datasheet-export/internal/catalog"
)

func newHistoryCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded conversion runs",
		Long: `History lists recent conversion runs from the history database, newest
first. Use --run with a run ID to see the outcome of every dataset in that
run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, v)
		},
	}

	cmd.Flags().Int("limit", 20, "maximum number of runs to show")
	cmd.Flags().String("run", "", "show the datasets of one run")
	cmd.Flags().Bool("json", false, "output as JSON")

	return cmd
}

func runHistory(cmd *cobra.Command, v *viper.Viper) error {
	hc := historyConfig(v)
	w := cmd.OutOrStdout()

	if _, err := os.Stat(hc.Path); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	store, err := catalog.Open(hc.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	jsonOutput, _ := cmd.Flags().GetBool("json")

	if runID, _ := cmd.Flags().GetString("run"); runID != "" {
		entries, err := store.Conversions(cmd.Context(), runID)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return fmt.Errorf("no run with ID %s", runID)
		}
		if jsonOutput {
			return writeJSON(w, entries)
		}
		renderConversions(w, entries)
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if jsonOutput {
		if runs == nil {
			runs = []catalog.Run{}
		}
		return writeJSON(w, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	renderRuns(w, runs)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTable returns a light-style table writing to w. Header cells keep
// their case.
func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	return t
}

func renderRuns(w io.Writer, runs []catalog.Run) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Run", "Started", "Duration", "Converted", "Not found", "Failed"})
	for _, r := range runs {
		t.AppendRow(table.Row{
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String(),
			r.Converted,
			r.NotFound,
			r.Failed,
		})
	}
	t.Render()
}

func renderConversions(w io.Writer, entries []catalog.Conversion) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Dataset", "Status", "Rows", "Destination", "Error"})
	for _, c := range entries {
		t.AppendRow(table.Row{c.Dataset, string(c.Status), c.Rows, c.Destination, c.Error})
	}
	t.Render()
}
