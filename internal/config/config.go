// Package config loads the CLI configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MattSzymonski/Own-Password/internal/krypto"
)

const EnvConfigPath = "OWNPASS_CONFIG"

type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Crypto  CryptoConfig  `yaml:"crypto"`
	Session SessionConfig `yaml:"session"`
}

type StoreConfig struct {
	// Backend selects where encrypted vault blobs live: "dir" keeps one
	// file per vault under Dir, "bolt" keeps everything in one database
	// file at Path.
	Backend string `yaml:"backend"`
	Dir     string `yaml:"dir"`
	Path    string `yaml:"path"`
}

type CryptoConfig struct {
	// Cipher is "aes-gcm" or "chacha20". Only affects newly written files;
	// reads follow the file header.
	Cipher string `yaml:"cipher"`
	// KDFIterations below the built-in default are raised to it.
	KDFIterations uint32 `yaml:"kdf_iterations"`
}

type SessionConfig struct {
	IdleTimeout Duration `yaml:"idle_timeout"`
}

// Duration parses YAML strings like "15m" or "1h30m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}

	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func defaults() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	return Config{
		Store: StoreConfig{
			Backend: "dir",
			Dir:     filepath.Join(home, ".ownpass", "vaults"),
			Path:    filepath.Join(home, ".ownpass", "vaults.db"),
		},
		Crypto: CryptoConfig{
			Cipher:        "aes-gcm",
			KDFIterations: krypto.DefaultIterations,
		},
		Session: SessionConfig{
			IdleTimeout: Duration(15 * time.Minute),
		},
	}
}

// Load reads the YAML config file, falling back to defaults when it does not
// exist. The path comes from the OWNPASS_CONFIG environment variable, or
// ~/.ownpass/config.yaml.
func Load() (*Config, error) {
	cfg := defaults()

	path := os.Getenv(EnvConfigPath)
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return &cfg, nil
		}
		path = filepath.Join(home, ".ownpass", "config.yaml")
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case "dir", "bolt":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	switch c.Crypto.Cipher {
	case "aes-gcm", "chacha20":
	default:
		return fmt.Errorf("unknown cipher %q", c.Crypto.Cipher)
	}

	if c.Crypto.KDFIterations < krypto.DefaultIterations {
		c.Crypto.KDFIterations = krypto.DefaultIterations
	}

	return nil
}
