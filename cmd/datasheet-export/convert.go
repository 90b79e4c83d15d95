package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/datasheet-export/internal/catalog"
	"github.com/pdiddy/datasheet-export/internal/convert"
	"github.com/pdiddy/datasheet-export/internal/datasets"
)

func newConvertCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert [datasets...]",
		Short: "Convert datasets from pipe-delimited CSV to JSON",
		Long: `Convert reads <input-dir>/<name>.csv for each dataset, trims keys and
values, drops byte-order marks from the header, and writes
<output-dir>/<name>.json as an indented array of objects.

Datasets are processed one at a time in list order. A missing or broken
file is reported and the batch moves on. Without arguments the datasets
come from --datasets-file, the config file, or the built-in list.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, v, args)
		},
	}

	cmd.Flags().Bool("lenient", false, "exit zero even when datasets fail or are missing")
	cmd.Flags().Bool("no-history", false, "do not record this run in the history database")
	bindFlag(v, "lenient", cmd.Flags().Lookup("lenient"))
	bindFlag(v, "no_history", cmd.Flags().Lookup("no-history"))

	return cmd
}

func runConvert(cmd *cobra.Command, v *viper.Viper, args []string) error {
	cfg := exportConfig(v)

	names, err := datasets.Resolve(args, cfg)
	if err != nil {
		return err
	}
	if err := datasets.EnsureOutputDir(cfg.OutputDir); err != nil {
		return err
	}

	jobs := datasets.Jobs(names, cfg.InputDir, cfg.OutputDir)

	started := time.Now()
	result := convert.ConvertBatch(jobs, cmd.OutOrStdout())
	recordRun(cmd, v, catalog.FromBatch(result, started, time.Now()))

	if result.HasFailures() && !cfg.Lenient {
		return fmt.Errorf("%d dataset(s) failed conversion", result.NotFound+result.Failed)
	}
	return nil
}

// recordRun stores run in the history database. History problems are
// reported as warnings and never change the outcome of the conversion.
func recordRun(cmd *cobra.Command, v *viper.Viper, run catalog.Run) {
	hc := historyConfig(v)
	if hc.Disabled || hc.Path == "" {
		return
	}

	store, err := catalog.Open(hc.Path)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: run not recorded: %v\n", err)
		return
	}
	defer store.Close()

	if _, err := store.RecordRun(cmd.Context(), run); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: run not recorded: %v\n", err)
	}
}
