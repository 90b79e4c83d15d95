// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ConversionStatus is the outcome of converting one dataset.
type ConversionStatus string

const (
	ConversionDone     ConversionStatus = "converted"
	ConversionNotFound ConversionStatus = "not_found"
	ConversionFailed   ConversionStatus = "failed"
)

// Job names one dataset and the paths it is read from and written to.
type Job struct {
	// Name is the logical dataset name (e.g. "Datasheets").
	Name string `json:"name" yaml:"name"`

	// Source is the path of the pipe-delimited input file.
	Source string `json:"source" yaml:"source"`

	// Destination is the path of the JSON output file.
	Destination string `json:"destination" yaml:"destination"`
}
