// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/convertly/pkg/types"
)

// ExportEntry is a request record as written by the exporters.
type ExportEntry struct {
	types.RequestRecord `yaml:",inline"`
	DurationMS          int64 `json:"duration_ms" yaml:"duration_ms"`
}

func exportEntries(records []types.RequestRecord) []ExportEntry {
	entries := make([]ExportEntry, len(records))
	for i, r := range records {
		entries[i] = ExportEntry{RequestRecord: r, DurationMS: r.Duration().Milliseconds()}
	}
	return entries
}

// WriteYAML writes records to w as a YAML sequence.
func WriteYAML(w io.Writer, records []types.RequestRecord) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(exportEntries(records)); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// WriteJSON writes records to w as an indented JSON array.
func WriteJSON(w io.Writer, records []types.RequestRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(exportEntries(records)); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}
