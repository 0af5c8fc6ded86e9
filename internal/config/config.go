// Package config loads qcmpost settings from a JSONC or YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Format selects the config file syntax.
type Format string

const (
	JSONC Format = "jsonc"
	YAML  Format = "yaml"
)

// Config holds every tunable of a run. The zero value is not usable; start
// from Default.
type Config struct {
	RawDir       string   `yaml:"raw_dir"`
	ProcessedDir string   `yaml:"processed_dir"`
	Archive      string   `yaml:"archive"`
	Auxiliary    []string `yaml:"auxiliary"`
	Pretty       bool     `yaml:"pretty"`
}

// Default reproduces the fixed layout of the original tools.
func Default() Config {
	return Config{
		RawDir:       "raw",
		ProcessedDir: "processed",
		Archive:      "raw.zip",
		Auxiliary:    []string{"qcmKpis.*.json", "*.obj", "*.mtl"},
	}
}

// FormatOf guesses the format from a file extension.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	}
	return JSONC
}

// Load reads path. An empty path yields Default.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data, FormatOf(path))
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data over Default, so missing fields keep their defaults.
func Parse(data []byte, format Format) (Config, error) {
	cfg := Default()
	switch format {
	case YAML:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode yaml: %w", err)
		}
	case JSONC:
		json := jsonc.ToJSON(data)
		if !gjson.ValidBytes(json) {
			return Config{}, fmt.Errorf("decode jsonc: invalid document")
		}
		parseJSON(string(json), &cfg)
	default:
		return Config{}, fmt.Errorf("unknown format %q", format)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parseJSON(json string, cfg *Config) {
	if v := gjson.Get(json, "raw_dir"); v.Exists() {
		cfg.RawDir = v.String()
	}
	if v := gjson.Get(json, "processed_dir"); v.Exists() {
		cfg.ProcessedDir = v.String()
	}
	if v := gjson.Get(json, "archive"); v.Exists() {
		cfg.Archive = v.String()
	}
	if v := gjson.Get(json, "auxiliary"); v.Exists() {
		cfg.Auxiliary = cfg.Auxiliary[:0:0]
		v.ForEach(func(_, pat gjson.Result) bool {
			cfg.Auxiliary = append(cfg.Auxiliary, pat.String())
			return true
		})
	}
	if v := gjson.Get(json, "pretty"); v.Exists() {
		cfg.Pretty = v.Bool()
	}
}

// Validate checks that the directory names are single path elements.
func (c Config) Validate() error {
	for _, d := range []struct{ field, value string }{
		{"raw_dir", c.RawDir},
		{"processed_dir", c.ProcessedDir},
	} {
		v := strings.TrimSpace(d.value)
		if v == "" || v == "." || v == ".." {
			return fmt.Errorf("config: %s must name a directory, got %q", d.field, d.value)
		}
		if strings.ContainsAny(v, `/\`) {
			return fmt.Errorf("config: %s must not contain a path separator, got %q", d.field, d.value)
		}
	}
	if strings.TrimSpace(c.Archive) == "" {
		return fmt.Errorf("config: archive must not be empty")
	}
	for _, pat := range c.Auxiliary {
		if pat == "" {
			return fmt.Errorf("config: auxiliary patterns must not be empty")
		}
	}
	return nil
}
