// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the datasheet-export CLI, which turns
// the pipe-delimited datasheet export into JSON files for the web front end.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/datasheet-export/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const (
	defaultInputDir  = "."
	defaultOutputDir = "public/data"
	defaultHistoryDB = ".datasheet-export/history.db"
	envPrefix        = "DATASHEET_EXPORT"
)

// newRootCmd builds the command tree around its own viper instance so
// flag, environment, and config file values never leak between runs.
func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "datasheet-export",
		Short: "Convert the pipe-delimited datasheet export to JSON",
		Long: `datasheet-export reads each table of the datasheet export (Factions.csv,
Datasheets.csv, ...) from the input directory and writes a pretty-printed
JSON array with the same base name into the output directory.

Settings come from flags, DATASHEET_EXPORT_* environment variables, or a
datasheet-export.yaml config file, in that order of precedence.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd, v)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default: ./datasheet-export.yaml or ~/.config/datasheet-export/datasheet-export.yaml)")
	pf.String("input-dir", defaultInputDir, "directory holding the <name>.csv files")
	pf.String("output-dir", defaultOutputDir, "directory receiving the <name>.json files")
	pf.String("datasets-file", "", "YAML file listing the datasets to convert")
	pf.String("history-db", defaultHistoryDB, "SQLite database recording conversion runs")

	bindFlag(v, "input_dir", pf.Lookup("input-dir"))
	bindFlag(v, "output_dir", pf.Lookup("output-dir"))
	bindFlag(v, "datasets_file", pf.Lookup("datasets-file"))
	bindFlag(v, "history_db", pf.Lookup("history-db"))

	root.AddCommand(newConvertCmd(v))
	root.AddCommand(newDatasetsCmd(v))
	root.AddCommand(newHistoryCmd(v))
	root.AddCommand(newVersionCmd())

	return root
}

func initConfig(cmd *cobra.Command, v *viper.Viper) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("datasheet-export")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "datasheet-export"))
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err == nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Using config file:", v.ConfigFileUsed())
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if cfgFile == "" && errors.As(err, &notFound) {
		return nil
	}
	return fmt.Errorf("reading config: %w", err)
}

// exportConfig resolves the conversion settings from v.
func exportConfig(v *viper.Viper) types.ExportConfig {
	return types.ExportConfig{
		InputDir:     v.GetString("input_dir"),
		OutputDir:    v.GetString("output_dir"),
		Datasets:     v.GetStringSlice("datasets"),
		DatasetsFile: v.GetString("datasets_file"),
		Lenient:      v.GetBool("lenient"),
	}
}

// historyConfig resolves the run history settings from v.
func historyConfig(v *viper.Viper) types.HistoryConfig {
	return types.HistoryConfig{
		Path:     v.GetString("history_db"),
		Disabled: v.GetBool("no_history"),
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
