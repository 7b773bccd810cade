package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/wookiisky/think-bot/internal/errors"
)

// ExportVersion is the envelope version written by Export and accepted by
// Import.
const ExportVersion = "2.0"

type envelopeConfigSection struct {
	Basic       BasicConfig  `json:"basic"`
	LLMModels   ModelList    `json:"llm_models"`
	QuickInputs []QuickInput `json:"quickInputs"`
}

type envelope struct {
	ExportedAt string                `json:"exportedAt"`
	Version    string                `json:"version" validate:"required,eq=2.0"`
	ExportedBy string                `json:"exportedBy"`
	Config     envelopeConfigSection `json:"config"`
}

var validate = validator.New()

// Export serializes the config into a versioned envelope.
func (c *Config) Export(exportedBy string) ([]byte, error) {
	c.mu.RLock()
	basic := c.Basic
	models := make([]Model, len(c.LLMModels.Models))
	copy(models, c.LLMModels.Models)
	inputs := make([]QuickInput, len(c.QuickInputs))
	for i, q := range c.QuickInputs {
		inputs[i] = q.Clone()
	}
	c.mu.RUnlock()

	env := envelope{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Version:    ExportVersion,
		ExportedBy: exportedBy,
		Config: envelopeConfigSection{
			Basic:       basic,
			LLMModels:   ModelList{Models: models},
			QuickInputs: inputs,
		},
	}

	return json.MarshalIndent(env, "", "  ")
}

// ExportToFile writes the envelope to a file.
func (c *Config) ExportToFile(path, exportedBy string) error {
	data, err := c.Export(exportedBy)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// ImportResult holds parsed settings awaiting user confirmation.
type ImportResult struct {
	ExportedAt  string
	ExportedBy  string
	Basic       BasicConfig
	Models      []Model
	QuickInputs []QuickInput
}

// ParseImport unmarshals and validates an exported envelope. It returns the
// contained settings without applying them; the caller decides (after user
// confirmation) whether to overwrite the live config with Apply.
func ParseImport(data []byte) (*ImportResult, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.ImportInvalid("file is not valid JSON")
	}

	if err := validate.Struct(env); err != nil {
		return nil, errors.ImportInvalid("unsupported export version")
	}

	// Minimal schema guard: a real settings export always carries the
	// default extraction method.
	if env.Config.Basic.DefaultExtractionMethod == "" {
		return nil, errors.ImportInvalid("missing basic.defaultExtractionMethod")
	}

	basic := env.Config.Basic

	models := env.Config.LLMModels.Models
	if models == nil {
		models = []Model{}
	}
	inputs := env.Config.QuickInputs
	if inputs == nil {
		inputs = []QuickInput{}
	}

	return &ImportResult{
		ExportedAt:  env.ExportedAt,
		ExportedBy:  env.ExportedBy,
		Basic:       basic,
		Models:      models,
		QuickInputs: inputs,
	}, nil
}

// Apply overwrites the config with the imported settings.
func (r *ImportResult) Apply(c *Config) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Basic = r.Basic
	c.LLMModels = ModelList{Models: make([]Model, len(r.Models))}
	copy(c.LLMModels.Models, r.Models)
	c.QuickInputs = make([]QuickInput, len(r.QuickInputs))
	for i, q := range r.QuickInputs {
		c.QuickInputs[i] = q.Clone()
	}
	c.ensureInitialized()
}
