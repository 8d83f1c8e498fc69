// Package config loads and validates per-client pipeline configuration.
//
// One YAML file per client replaces the old practice of copying the whole
// pipeline script per client: it carries the source fingerprints, rename
// mappings, cleaner bindings, the canonical schema, and the collaborator
// settings (CSV export, spreadsheet upload, warehouse load).
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"adetl/internal/normalize"
	"adetl/internal/table"
)

// Configuration validation errors.
var (
	ErrNoClient      = errors.New("client name is required")
	ErrNoRawDir      = errors.New("raw_dir is required")
	ErrNoSources     = errors.New("at least one source is required")
	ErrNoSchema      = errors.New("schema must not be empty")
	ErrSheetKey      = errors.New("sheet.key is required when sheet.upload is true")
	ErrWarehouseKind = errors.New("warehouse.kind and warehouse.dsn are required together")
)

// Client is the complete configuration for one client's pipeline run.
type Client struct {
	Client string `yaml:"client"`
	RawDir string `yaml:"raw_dir"`
	OutDir string `yaml:"out_dir"`

	Sources []SourceConfig `yaml:"sources"`
	Schema  []SchemaColumn `yaml:"schema"`

	Sheet     SheetConfig     `yaml:"sheet"`
	Warehouse WarehouseConfig `yaml:"warehouse"`
}

// SourceConfig declares one platform export shape.
type SourceConfig struct {
	Name     string            `yaml:"name"`
	Criteria []string          `yaml:"criteria"`
	Rename   map[string]string `yaml:"rename"`
	Cleaners []string          `yaml:"cleaners"`
}

// SchemaColumn is one ordered canonical column declaration.
type SchemaColumn struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// SheetConfig addresses the spreadsheet upload target.
type SheetConfig struct {
	Upload          bool   `yaml:"upload"`
	Key             string `yaml:"key"`
	Tab             string `yaml:"tab"`
	CredentialsFile string `yaml:"credentials_file"`
	VerticalOffset  int    `yaml:"vertical_offset"`
}

// WarehouseConfig addresses the optional relational sink.
type WarehouseConfig struct {
	Kind  string `yaml:"kind"` // "sqlite" | "postgres" | "mssql"
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

// Load reads and validates a client config file.
func Load(path string) (*Client, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Client
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the file-level shape. The engine invariants (ambiguous
// criteria, mapping targets outside the schema, unknown cleaners) are checked
// again by normalize.New; this layer only rejects configs that cannot even be
// assembled into an engine config.
func (c *Client) Validate() error {
	if c.Client == "" {
		return ErrNoClient
	}
	if c.RawDir == "" {
		return ErrNoRawDir
	}
	if len(c.Sources) == 0 {
		return ErrNoSources
	}
	if len(c.Schema) == 0 {
		return ErrNoSchema
	}
	for _, col := range c.Schema {
		if _, err := table.ParseKind(col.Type); err != nil {
			return fmt.Errorf("schema column %q: %w", col.Name, err)
		}
	}
	if c.Sheet.Upload && c.Sheet.Key == "" {
		return ErrSheetKey
	}
	if (c.Warehouse.Kind == "") != (c.Warehouse.DSN == "") {
		return ErrWarehouseKind
	}
	return nil
}

// EngineConfig assembles the normalization engine configuration. Source and
// schema order follow file order.
func (c *Client) EngineConfig() (normalize.Config, error) {
	cfg := normalize.Config{
		Sources: make([]normalize.Source, len(c.Sources)),
		Schema:  make(table.Schema, len(c.Schema)),
	}
	for i, s := range c.Sources {
		cfg.Sources[i] = normalize.Source{
			Name:     s.Name,
			Criteria: s.Criteria,
			Rename:   s.Rename,
			Cleaners: s.Cleaners,
		}
	}
	for i, col := range c.Schema {
		kind, err := table.ParseKind(col.Type)
		if err != nil {
			return normalize.Config{}, fmt.Errorf("schema column %q: %w", col.Name, err)
		}
		cfg.Schema[i] = table.Field{Name: col.Name, Kind: kind}
	}
	return cfg, nil
}

// WarehouseTable returns the configured sink table name, defaulting to the
// client name.
func (c *Client) WarehouseTable() string {
	if c.Warehouse.Table != "" {
		return c.Warehouse.Table
	}
	return c.Client
}
