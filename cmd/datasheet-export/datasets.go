package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/datasheet-export/internal/datasets"
	"github.com/pdiddy/datasheet-export/pkg/types"
)

func newDatasetsCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datasets [datasets...]",
		Short: "List the datasets a conversion run would process",
		Long: `Datasets prints each dataset with its source and destination path and
whether the source file is present, without converting anything.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDatasets(cmd, v, args)
		},
	}

	cmd.Flags().Bool("json", false, "output the dataset list as JSON")

	return cmd
}

// datasetEntry is one line of the datasets listing.
type datasetEntry struct {
	types.Job
	Present bool `json:"present"`
}

func runDatasets(cmd *cobra.Command, v *viper.Viper, args []string) error {
	cfg := exportConfig(v)

	names, err := datasets.Resolve(args, cfg)
	if err != nil {
		return err
	}

	jobs := datasets.Jobs(names, cfg.InputDir, cfg.OutputDir)
	entries := make([]datasetEntry, len(jobs))
	for i, j := range jobs {
		_, err := os.Stat(j.Source)
		entries[i] = datasetEntry{Job: j, Present: err == nil}
	}

	w := cmd.OutOrStdout()
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	for _, e := range entries {
		mark := "ok"
		if !e.Present {
			mark = "missing"
		}
		fmt.Fprintf(w, "%-32s  %-7s  %s -> %s\n", e.Name, mark, e.Source, e.Destination)
	}
	return nil
}
