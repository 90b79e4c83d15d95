// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ExportConfig holds settings for a conversion run.
type ExportConfig struct {
	// InputDir is the directory holding the <name>.csv source files (default ".").
	InputDir string `json:"input_dir" yaml:"input_dir"`

	// OutputDir is the directory receiving the <name>.json files (default "public/data").
	// It is created before the batch starts.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Datasets lists the dataset names to convert, in processing order.
	// Empty means the built-in list.
	Datasets []string `json:"datasets" yaml:"datasets"`

	// DatasetsFile is an optional YAML file with a datasets list. It takes
	// precedence over Datasets when set.
	DatasetsFile string `json:"datasets_file,omitempty" yaml:"datasets_file,omitempty"`

	// Lenient keeps the exit status zero even when datasets fail.
	Lenient bool `json:"lenient" yaml:"lenient"`
}

// HistoryConfig holds settings for the conversion run history.
type HistoryConfig struct {
	// Path is the SQLite database file (default ".datasheet-export/history.db").
	Path string `json:"path" yaml:"path"`

	// Disabled skips recording runs.
	Disabled bool `json:"disabled" yaml:"disabled"`
}
