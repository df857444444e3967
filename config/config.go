package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/asaskevich/govalidator"
	"gopkg.in/yaml.v3"
)

func init() {
	govalidator.SetFieldsRequiredByDefault(true)
}

var DefaultLocation = "./pdfsign.conf" // Default location of the config file

// Config is the root of the config
type Config struct {
	Signature Signature `toml:"signature" yaml:"signature" valid:"optional"`
	TSA       TSA       `toml:"tsa" yaml:"tsa" valid:"optional"`
	Logging   Logging   `toml:"logging" yaml:"logging" valid:"optional"`
}

// Signature holds the defaults for new signatures.
type Signature struct {
	Name         string `toml:"name" yaml:"name" valid:"optional"`
	Reason       string `toml:"reason" yaml:"reason" valid:"optional"`
	Location     string `toml:"location" yaml:"location" valid:"optional"`
	ContactInfo  string `toml:"contact" yaml:"contact" valid:"optional"`
	Page         int    `toml:"page" yaml:"page" valid:"range(0|65535),optional"`
	ContentsSize int    `toml:"contents_size" yaml:"contents_size" valid:"range(0|1048576),optional"`

	Certificate string   `toml:"certificate" yaml:"certificate" valid:"optional"`
	Key         string   `toml:"key" yaml:"key" valid:"optional"`
	Chain       []string `toml:"chain" yaml:"chain" valid:"optional"`
}

// TSA configures the RFC 3161 timestamp authority. An empty URL disables
// timestamping.
type TSA struct {
	URL      string        `toml:"url" yaml:"url" valid:"url,optional"`
	Username string        `toml:"username" yaml:"username" valid:"optional"`
	Password string        `toml:"password" yaml:"password" valid:"optional"`
	Timeout  time.Duration `toml:"timeout" yaml:"timeout" valid:"optional"`
}

type Logging struct {
	Level  string `toml:"level" yaml:"level" valid:"in(debug|info|warn|error),optional"`
	Format string `toml:"format" yaml:"format" valid:"in(text|json),optional"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		TSA:     TSA{Timeout: 30 * time.Second},
		Logging: Logging{Level: "info", Format: "text"},
	}
}

// ValidateFields validates all the fields of the config
func (c Config) ValidateFields() error {
	if _, err := govalidator.ValidateStruct(c); err != nil {
		return err
	}
	if (c.TSA.Username == "") != (c.TSA.Password == "") {
		return fmt.Errorf("tsa: username and password must be set together")
	}
	if c.TSA.Username != "" && c.TSA.URL == "" {
		return fmt.Errorf("tsa: credentials given without url")
	}
	if c.TSA.Timeout < 0 {
		return fmt.Errorf("tsa: negative timeout %s", c.TSA.Timeout)
	}
	if (c.Signature.Certificate == "") != (c.Signature.Key == "") {
		return fmt.Errorf("signature: certificate and key must be set together")
	}
	return nil
}

// Read loads configfile on top of Default and validates the result. Files
// ending in .yaml or .yml are read as YAML, anything else as TOML.
func Read(configfile string) (*Config, error) {
	data, err := os.ReadFile(configfile)
	if err != nil {
		return nil, fmt.Errorf("config file is missing: %w", err)
	}

	c := Default()
	switch strings.ToLower(filepath.Ext(configfile)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("failed to decode YAML config %s: %w", configfile, err)
		}
	default:
		md, err := toml.Decode(string(data), c)
		if err != nil {
			return nil, fmt.Errorf("failed to decode TOML config %s: %w", configfile, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown config key %q in %s", undecoded[0].String(), configfile)
		}
	}

	if err := c.ValidateFields(); err != nil {
		return nil, fmt.Errorf("config is not valid: %w", err)
	}
	return c, nil
}

// NewLogger returns a logger writing to w in the configured format and at
// the configured level. Attributes named like secrets are redacted.
func (l Logging) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: l.level(),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if strings.Contains(strings.ToLower(a.Key), "password") {
				a.Value = slog.StringValue("[REDACTED]")
			}
			return a
		},
	}

	var handler slog.Handler
	if l.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func (l Logging) level() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
