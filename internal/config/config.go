// Package config loads tabpilot settings from TOML files. A global file
// under the user config dir is merged with an optional project-local
// file; flags override both at the CLI layer.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the full tabpilot configuration.
type Config struct {
	BridgeURL    string `toml:"bridge_url"`
	MCPPort      int    `toml:"mcp_port"`
	CapturePort  int    `toml:"capture_port"`
	CaptureProxy bool   `toml:"capture_proxy"`
	DebugLog     string `toml:"debug_log"`

	Navigation NavigationConfig `toml:"navigation"`
	TTS        TTSConfig        `toml:"tts"`
	Terminal   TerminalConfig   `toml:"terminal"`
}

// NavigationConfig extends the allow-list locally, on top of whatever
// the settings provider reports.
type NavigationConfig struct {
	AllowAllURLs  bool     `toml:"allow_all_urls"`
	CustomDomains []string `toml:"custom_domains"`
}

// TTSConfig selects the default voice and speech rate.
type TTSConfig struct {
	Voice string  `toml:"voice"`
	Rate  float64 `toml:"rate"`
}

// TerminalConfig names the default terminal profile for terminal_spawn.
type TerminalConfig struct {
	DefaultProfile string `toml:"default_profile"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		BridgeURL:   "http://127.0.0.1:8765",
		MCPPort:     7797,
		CapturePort: 19899,
		TTS:         TTSConfig{Rate: 1.0},
	}
}

// GlobalPath returns the path of the per-user config file.
func GlobalPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "tabpilot", "tabpilot.toml"), nil
}

// Load builds the effective config: defaults, then the global file, then
// the project file in workDir. Missing files are not errors.
func Load(workDir string) (*Config, error) {
	cfg := Default()

	if globalPath, err := GlobalPath(); err == nil {
		if err := mergeFile(cfg, globalPath); err != nil {
			return nil, err
		}
	}

	projectPath := filepath.Join(workDir, "tabpilot.toml")
	if err := mergeFile(cfg, projectPath); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile reads exactly one config file over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := mergeFile(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// CustomDomainsBlock renders the local custom domains in the
// newline-delimited form the gatekeeper consumes, for merging with the
// settings provider's list.
func (c *Config) CustomDomainsBlock() string {
	return strings.Join(c.Navigation.CustomDomains, "\n")
}
