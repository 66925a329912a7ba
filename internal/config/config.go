package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models caseline.yml.
type Config struct {
	Server struct {
		Listen   string `yaml:"listen"`
		BasePath string `yaml:"base_path"`
	} `yaml:"server"`
	Templates struct {
		Path string `yaml:"path"`
	} `yaml:"templates"`
	Webhooks []Webhook `yaml:"webhooks"`
}

// Webhook is one outbound notification subscription. An empty Events list
// receives every kind.
type Webhook struct {
	Name           string   `yaml:"name"`
	URL            string   `yaml:"url"`
	Events         []string `yaml:"events"`
	Secret         string   `yaml:"secret"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	Enabled        bool     `yaml:"enabled"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; generate one with cl config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("config.server.listen is required")
	}
	if c.Templates.Path != "" {
		if _, err := os.Stat(c.Templates.Path); err != nil {
			return fmt.Errorf("config.templates.path: %w", err)
		}
	}
	names := map[string]bool{}
	for i, h := range c.Webhooks {
		if h.Name == "" {
			return fmt.Errorf("config.webhooks[%d]: name is required", i)
		}
		if names[h.Name] {
			return fmt.Errorf("config.webhooks: duplicate name %q", h.Name)
		}
		names[h.Name] = true
		u, err := url.Parse(h.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("webhook %s: url %q is not absolute", h.Name, h.URL)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("webhook %s: url scheme must be http or https", h.Name)
		}
		if h.TimeoutSeconds < 0 {
			return fmt.Errorf("webhook %s: timeout_seconds must not be negative", h.Name)
		}
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "caseline.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// Default returns the default Config struct.
func Default() *Config {
	cfg, err := FromYAML([]byte(defaultTemplate))
	if err != nil {
		panic(fmt.Sprintf("built-in default config invalid: %v", err))
	}
	return cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `server:
  listen: "127.0.0.1:8787"
  base_path: /v0

templates:
  # path: ./templates.yml   # omit to use the built-in catalog
  path: ""

webhooks: []
  # - name: intake-channel
  #   url: https://hooks.example.com/caseline
  #   events: [case-created, status-changed, reminder-fired]
  #   secret: change-me
  #   timeout_seconds: 5
  #   enabled: true
`
