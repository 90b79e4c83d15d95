// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package datasets names the exported tables to convert and derives the
// source and destination path of each one.
package datasets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/datasheet-export/pkg/types"
)

const (
	sourceExt = ".csv"
	destExt   = ".json"
)

// defaults lists the tables of the datasheet export, in processing order.
var defaults = []string{
	"Factions",
	"Datasheets",
	"Source",
	"Stratagems",
	"Abilities",
	"Datasheets_abilities",
	"Datasheets_detachment_abilities",
	"Datasheets_enhancements",
}

// Default returns the built-in dataset names.
func Default() []string {
	out := make([]string, len(defaults))
	copy(out, defaults)
	return out
}

// ListFile is the on-disk form of a dataset list.
type ListFile struct {
	Datasets []string `yaml:"datasets"`
}

// Load reads a YAML dataset list from path.
func Load(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading datasets file: %w", err)
	}
	var lf ListFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("parsing datasets file %s: %w", path, err)
	}
	if len(lf.Datasets) == 0 {
		return nil, fmt.Errorf("datasets file %s lists no datasets", path)
	}
	if err := Validate(lf.Datasets); err != nil {
		return nil, fmt.Errorf("datasets file %s: %w", path, err)
	}
	return lf.Datasets, nil
}

// Write saves names to path as a YAML dataset list.
func Write(path string, names []string) error {
	data, err := yaml.Marshal(&ListFile{Datasets: names})
	if err != nil {
		return fmt.Errorf("marshaling datasets file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects empty names, names containing a path separator, and
// duplicates.
func Validate(names []string) error {
	seen := make(map[string]bool, len(names))
	for i, n := range names {
		switch {
		case strings.TrimSpace(n) == "":
			return fmt.Errorf("dataset %d has an empty name", i+1)
		case strings.ContainsAny(n, `/\`):
			return fmt.Errorf("dataset name %q must not contain a path separator", n)
		case seen[n]:
			return fmt.Errorf("dataset %q is listed twice", n)
		}
		seen[n] = true
	}
	return nil
}

// Resolve picks the dataset names for a run: explicit names first, then the
// configured list file, then the configured names, then the defaults.
func Resolve(args []string, cfg types.ExportConfig) ([]string, error) {
	var names []string
	switch {
	case len(args) > 0:
		names = args
	case cfg.DatasetsFile != "":
		return Load(cfg.DatasetsFile)
	case len(cfg.Datasets) > 0:
		names = cfg.Datasets
	default:
		return Default(), nil
	}
	if err := Validate(names); err != nil {
		return nil, err
	}
	return names, nil
}

// Jobs derives <inputDir>/<name>.csv and <outputDir>/<name>.json for each
// name, keeping the order of names.
func Jobs(names []string, inputDir, outputDir string) []types.Job {
	jobs := make([]types.Job, len(names))
	for i, n := range names {
		jobs[i] = types.Job{
			Name:        n,
			Source:      filepath.Join(inputDir, n+sourceExt),
			Destination: filepath.Join(outputDir, n+destExt),
		}
	}
	return jobs
}

// EnsureOutputDir creates dir and any missing parents.
func EnsureOutputDir(dir string) error {
	if dir == "" {
		return errors.New("output directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", dir, err)
	}
	return nil
}
