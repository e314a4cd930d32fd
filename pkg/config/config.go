// Package config loads and persists the JSON session configuration kept
// under the workspace metadata directory.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Mode selects how the executor asks for and parses file changes.
type Mode string

const (
	// ModeTools requests tagged-JSON tool calls for the four verbs.
	ModeTools Mode = "tools"
	// ModeBlocks requests whole-file fenced code blocks.
	ModeBlocks Mode = "blocks"
)

// Config holds session settings. Zero values are filled by defaults on load;
// command-line flags override loaded values.
type Config struct {
	Provider        string  `json:"provider"` // "openai" or "ollama"
	Model           string  `json:"model"`
	BaseURL         string  `json:"base_url"`          // OpenAI-compatible endpoint root
	OllamaServerURL string  `json:"ollama_server_url"` // empty means OLLAMA_HOST / default
	Temperature     float64 `json:"temperature"`
	MaxTokens       int     `json:"max_tokens"`
	Iterations      int     `json:"iterations"`
	PlanSteps       int     `json:"plan_steps"`
	Mode            Mode    `json:"mode"`
	NumberedContext bool    `json:"numbered_context"` // prefix context lines with indices
	WebPort         int     `json:"web_port"`

	// SkipPrompt disables the between-iteration pause. Not persisted.
	SkipPrompt bool `json:"-"`
}

// Default returns the configuration used when no config file exists. The
// sampling settings match the original tool's observed usage.
func Default() *Config {
	return &Config{
		Provider:    "openai",
		Model:       "gpt-4o",
		BaseURL:     "https://api.openai.com/v1",
		Temperature: 0.7,
		MaxTokens:   4096,
		Iterations:  3,
		PlanSteps:   3,
		Mode:        ModeBlocks,
		WebPort:     54321,
	}
}

func configPath(workspaceDir string) string {
	return filepath.Join(workspaceDir, ".llmpc", "config.json")
}

// LoadOrInit reads the config file under the workspace metadata directory,
// writing the defaults there first if it does not exist yet.
func LoadOrInit(workspaceDir string) (*Config, error) {
	path := configPath(workspaceDir)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := Default()
		if saveErr := cfg.Save(workspaceDir); saveErr != nil {
			return nil, saveErr
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read config %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("could not parse config %s: %w", path, err)
	}
	cfg.fillDefaults()
	return cfg, nil
}

// Save writes the config as indented JSON under the workspace metadata
// directory.
func (c *Config) Save(workspaceDir string) error {
	path := configPath(workspaceDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("could not create config dir: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("could not write config %s: %w", path, err)
	}
	return nil
}

// fillDefaults patches zero values left by a hand-edited config file.
func (c *Config) fillDefaults() {
	def := Default()
	if c.Provider == "" {
		c.Provider = def.Provider
	}
	if c.Model == "" {
		c.Model = def.Model
	}
	if c.BaseURL == "" {
		c.BaseURL = def.BaseURL
	}
	if c.Temperature == 0 {
		c.Temperature = def.Temperature
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = def.MaxTokens
	}
	if c.Iterations == 0 {
		c.Iterations = def.Iterations
	}
	if c.PlanSteps == 0 {
		c.PlanSteps = def.PlanSteps
	}
	if c.Mode == "" {
		c.Mode = def.Mode
	}
	if c.WebPort == 0 {
		c.WebPort = def.WebPort
	}
}
