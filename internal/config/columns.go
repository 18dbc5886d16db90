package config

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
)

// ColumnDefinition maps a row field to the header shown for it in exports.
type ColumnDefinition struct {
	Field  string `json:"field"`
	Header string `json:"header"`
}

// ColumnConfig holds an ordered list of export columns.
type ColumnConfig struct {
	Columns []ColumnDefinition `json:"columns"`
}

// LoadColumnConfig reads a JSON column config file and validates it against
// the fields the rows actually expose.
func LoadColumnConfig(path string, known []string) (*ColumnConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read column config: %w", err)
	}

	var cfg ColumnConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse column config: %w", err)
	}

	if len(cfg.Columns) == 0 {
		return nil, fmt.Errorf("column config: no columns defined")
	}

	seen := make(map[string]bool, len(cfg.Columns))
	for i, col := range cfg.Columns {
		if col.Field == "" {
			return nil, fmt.Errorf("column config: column #%d has empty field", i)
		}
		if !slices.Contains(known, col.Field) {
			return nil, fmt.Errorf("column config: unknown field %q", col.Field)
		}
		if seen[col.Field] {
			return nil, fmt.Errorf("column config: duplicate field %q", col.Field)
		}
		seen[col.Field] = true
		if col.Header == "" {
			cfg.Columns[i].Header = col.Field
		}
	}

	return &cfg, nil
}
