// Package config loads engine settings from YAML or TOML files.
//
// A *Config is an option value: it implements every option getter of
// piecetable and textbuf and can be passed wherever those take opt any.
package config

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dacapoday/piecetree"
	"github.com/dacapoday/piecetree/piecetable"
	"github.com/dacapoday/piecetree/textbuf"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var ErrUnknownFormat = errors.New("unknown config format")

type Config struct {
	Table TableConfig `yaml:"table" toml:"table"`
	Edit  EditConfig  `yaml:"edit" toml:"edit"`
	Log   LogConfig   `yaml:"log" toml:"log"`
}

type TableConfig struct {
	// BufferSize bounds the chunks large inserts are cut into.
	BufferSize      int `yaml:"buffer_size" toml:"buffer_size"`
	SearchCacheSize int `yaml:"search_cache_size" toml:"search_cache_size"`
}

type EditConfig struct {
	// ReduceThreshold is the batch size above which edits are collapsed.
	ReduceThreshold int `yaml:"reduce_threshold" toml:"reduce_threshold"`
	// EOL is the end of line of documents without line breaks: LF or CRLF.
	EOL          string `yaml:"eol" toml:"eol"`
	NormalizeEOL bool   `yaml:"normalize_eol" toml:"normalize_eol"`
}

type LogConfig struct {
	// Level is a slog level name; empty disables logging.
	Level string `yaml:"level" toml:"level"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Table: TableConfig{
			BufferSize:      piecetable.DefaultBufferSize,
			SearchCacheSize: piecetable.DefaultSearchCacheSize,
		},
		Edit: EditConfig{
			ReduceThreshold: textbuf.DefaultReduceThreshold,
			EOL:             piecetree.LF.String(),
			NormalizeEOL:    true,
		},
	}
}

// Load reads path over the defaults. The format follows the file extension:
// .yaml, .yml or .toml.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes data in the format named by ext over the defaults and validates the result.
func Parse(data []byte, ext string) (*Config, error) {
	cfg := Default()
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.Wrap(err, "decode yaml")
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, errors.Wrap(err, "decode toml")
		}
	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "%q", ext)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every setting.
func (c *Config) Validate() error {
	if c.Table.BufferSize < 0 {
		return errors.Newf("buffer_size %d is negative", c.Table.BufferSize)
	}
	if c.Table.SearchCacheSize < 0 {
		return errors.Newf("search_cache_size %d is negative", c.Table.SearchCacheSize)
	}
	if c.Edit.ReduceThreshold < 0 {
		return errors.Newf("reduce_threshold %d is negative", c.Edit.ReduceThreshold)
	}
	if _, err := piecetree.ParseEndOfLine(c.Edit.EOL); err != nil {
		return errors.Wrapf(err, "eol %q", c.Edit.EOL)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	return nil
}

func (c *Config) level() (slog.Level, error) {
	var level slog.Level
	if c.Log.Level == "" {
		return level, nil
	}
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return level, errors.Wrapf(err, "log level %q", c.Log.Level)
	}
	return level, nil
}

func (c *Config) BufferSize() int { return c.Table.BufferSize }

func (c *Config) SearchCacheSize() int { return c.Table.SearchCacheSize }

func (c *Config) ReduceThreshold() int { return c.Edit.ReduceThreshold }

// DefaultEOL returns the configured end of line, LF when it does not parse.
func (c *Config) DefaultEOL() piecetree.EndOfLine {
	eol, _ := piecetree.ParseEndOfLine(c.Edit.EOL)
	return eol
}

func (c *Config) NormalizeEOL() bool { return c.Edit.NormalizeEOL }

// Logger returns a text logger on stderr at the configured level,
// or nil when logging is off.
func (c *Config) Logger() *slog.Logger {
	level, err := c.level()
	if c.Log.Level == "" || err != nil {
		return nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

var (
	_ piecetable.BufferSize      = (*Config)(nil)
	_ piecetable.SearchCacheSize = (*Config)(nil)
	_ textbuf.ReduceThreshold    = (*Config)(nil)
	_ textbuf.Logger             = (*Config)(nil)
)
