package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ExtractionMethodReadability extracts page content with a local readability pass.
const ExtractionMethodReadability = "readability"

// ExtractionMethodJina extracts page content through the Jina reader endpoint.
const ExtractionMethodJina = "jina"

// Config holds the application configuration. It mirrors the three
// top-level sections of the stored layout: basic settings, LLM model
// definitions, and quick-input presets.
type Config struct {
	Basic       BasicConfig  `json:"basic"`
	LLMModels   ModelList    `json:"llm_models"`
	QuickInputs []QuickInput `json:"quickInputs"`

	mu       sync.RWMutex
	filePath string
}

// ModelList wraps the model slice to keep the stored layout stable.
type ModelList struct {
	Models []Model `json:"models"`
}

// BasicConfig holds the non-list settings.
type BasicConfig struct {
	DefaultExtractionMethod string `json:"defaultExtractionMethod"`
	DefaultModelID          string `json:"defaultModelId,omitempty"`
	Language                string `json:"language,omitempty"`
	SystemPrompt            string `json:"systemPrompt,omitempty"`
	JinaAPIKey              string `json:"jinaApiKey,omitempty"`
	ContentDisplayHeight    int    `json:"contentDisplayHeight,omitempty"`
	NotificationsEnabled    bool   `json:"notificationsEnabled,omitempty"`

	Sync SyncConfig `json:"sync,omitempty"`

	// LastModified is bumped on every effective basic-settings mutation so
	// last-write-wins merge can resolve concurrent edits during sync.
	LastModified int64 `json:"lastModified"`

	// ModelOrderModified tracks reorder operations separately from content
	// edits, so a pure reorder on one device does not lose a content edit
	// made on another.
	ModelOrderModified int64 `json:"modelOrderModified,omitempty"`
}

// SyncConfig holds the WebDAV-style sync settings.
type SyncConfig struct {
	Enabled         bool   `json:"enabled,omitempty"`
	Endpoint        string `json:"endpoint,omitempty"`
	Username        string `json:"username,omitempty"`
	Password        string `json:"password,omitempty"`
	IntervalMinutes int    `json:"intervalMinutes,omitempty"`
}

// Now returns the current time in Unix milliseconds, the resolution used
// for all lastModified stamps.
func Now() int64 {
	return time.Now().UnixMilli()
}

// configDir returns the path to the config directory
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".thinkbot"), nil
}

// configPath returns the path to the config file
func configPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Default returns a fresh config with sensible defaults.
func Default() *Config {
	return &Config{
		Basic: BasicConfig{
			DefaultExtractionMethod: ExtractionMethodReadability,
			Language:                "en",
			ContentDisplayHeight:    10,
			NotificationsEnabled:    true,
		},
		LLMModels:   ModelList{Models: []Model{}},
		QuickInputs: []QuickInput{},
	}
}

// Load reads the config from disk, or creates a new one if it doesn't exist
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config from an explicit path. Used by Load and tests.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	cfg.filePath = path

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Ensure slices are initialized (not nil) after unmarshaling.
	// This must happen before Validate() since Validate() only reads.
	cfg.ensureInitialized()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ensureInitialized ensures all slices are initialized (not nil).
//
// Thread-safety: NOT thread-safe; only call during single-threaded
// initialization before the Config is shared across goroutines.
func (c *Config) ensureInitialized() {
	if c.LLMModels.Models == nil {
		c.LLMModels.Models = []Model{}
	}
	if c.QuickInputs == nil {
		c.QuickInputs = []QuickInput{}
	}
	if c.Basic.DefaultExtractionMethod == "" {
		c.Basic.DefaultExtractionMethod = ExtractionMethodReadability
	}
}

// Validate checks that the config is internally consistent.
// This is a read-only operation.
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch c.Basic.DefaultExtractionMethod {
	case ExtractionMethodReadability, ExtractionMethodJina:
	default:
		return fmt.Errorf("unknown extraction method: %s", c.Basic.DefaultExtractionMethod)
	}

	seenModels := make(map[string]bool)
	for _, m := range c.LLMModels.Models {
		if m.ID == "" {
			return fmt.Errorf("model with empty ID found")
		}
		if seenModels[m.ID] {
			return fmt.Errorf("duplicate model ID: %s", m.ID)
		}
		seenModels[m.ID] = true
	}

	seenInputs := make(map[string]bool)
	for _, q := range c.QuickInputs {
		if q.ID == "" {
			return fmt.Errorf("quick input with empty ID found")
		}
		if seenInputs[q.ID] {
			return fmt.Errorf("duplicate quick input ID: %s", q.ID)
		}
		seenInputs[q.ID] = true
	}

	return nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	path := c.filePath
	if path == "" {
		var err error
		path, err = configPath()
		if err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// Path returns the file path backing this config.
func (c *Config) Path() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.filePath != "" {
		return c.filePath
	}
	path, err := configPath()
	if err != nil {
		return ""
	}
	return path
}

// Reset restores defaults in place, preserving the backing file path.
func (c *Config) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	def := Default()
	c.Basic = def.Basic
	c.LLMModels = def.LLMModels
	c.QuickInputs = def.QuickInputs
}

// GetBasic returns a copy of the basic settings.
func (c *Config) GetBasic() BasicConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Basic
}

// SetBasic replaces the basic settings and bumps LastModified if anything
// actually changed. Returns true when a change was applied.
func (c *Config) SetBasic(basic BasicConfig) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Compare modulo the timestamps, which the caller does not own.
	incoming := basic
	incoming.LastModified = c.Basic.LastModified
	incoming.ModelOrderModified = c.Basic.ModelOrderModified
	if incoming == c.Basic {
		return false
	}

	incoming.LastModified = Now()
	c.Basic = incoming
	return true
}

// GetModels returns a copy of all models, including soft-deleted ones.
func (c *Config) GetModels() []Model {
	c.mu.RLock()
	defer c.mu.RUnlock()

	models := make([]Model, len(c.LLMModels.Models))
	copy(models, c.LLMModels.Models)
	return models
}

// SetModels replaces the model list wholesale. Used when the settings
// manager flushes its working set back into the config.
func (c *Config) SetModels(models []Model) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.LLMModels.Models = make([]Model, len(models))
	copy(c.LLMModels.Models, models)
}

// GetQuickInputs returns a copy of all quick inputs, including soft-deleted ones.
func (c *Config) GetQuickInputs() []QuickInput {
	c.mu.RLock()
	defer c.mu.RUnlock()

	inputs := make([]QuickInput, len(c.QuickInputs))
	for i, q := range c.QuickInputs {
		inputs[i] = q.Clone()
	}
	return inputs
}

// SetQuickInputs replaces the quick-input list wholesale.
func (c *Config) SetQuickInputs(inputs []QuickInput) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.QuickInputs = make([]QuickInput, len(inputs))
	for i, q := range inputs {
		c.QuickInputs[i] = q.Clone()
	}
}

// MarkModelOrderModified stamps the order-specific timestamp. Reorders are
// tracked separately from content edits (see BasicConfig).
func (c *Config) MarkModelOrderModified() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Basic.ModelOrderModified = Now()
}

// FindModel returns a copy of the model with the given ID, or nil.
func (c *Config) FindModel(id string) *Model {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for i := range c.LLMModels.Models {
		if c.LLMModels.Models[i].ID == id {
			m := c.LLMModels.Models[i]
			return &m
		}
	}
	return nil
}

// ResolveModelDisplayName maps a stored model identifier to a human-readable
// name. The identifier may be a model ID, a configured name, or the raw
// provider model string; the raw identifier is returned when nothing matches.
func (c *Config) ResolveModelDisplayName(identifier string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for i := range c.LLMModels.Models {
		m := &c.LLMModels.Models[i]
		if m.ID == identifier || m.Name == identifier || m.Model == identifier {
			if m.Name != "" {
				return m.Name
			}
			break
		}
	}
	return identifier
}
