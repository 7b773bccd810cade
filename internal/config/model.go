package config

import (
	"github.com/google/uuid"
)

// Provider identifiers. The provider determines which connection fields a
// model needs before it can serve requests.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderAzure  = "azure"
)

// Model is one configured LLM endpoint. Deleted models are kept with
// IsDeleted set so the deletion propagates through sync before the entry is
// physically removed.
type Model struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
	APIKey   string `json:"apiKey,omitempty"`

	// openai / gemini connection fields
	BaseURL string `json:"baseUrl,omitempty"`
	Model   string `json:"model,omitempty"`

	// azure connection fields
	Endpoint       string `json:"endpoint,omitempty"`
	DeploymentName string `json:"deploymentName,omitempty"`
	APIVersion     string `json:"apiVersion,omitempty"`

	MaxTokens      int     `json:"maxTokens,omitempty"`
	Temperature    float64 `json:"temperature,omitempty"`
	Tools          bool    `json:"tools,omitempty"`
	ThinkingBudget int     `json:"thinkingBudget,omitempty"`

	Enabled      bool  `json:"enabled"`
	IsDeleted    bool  `json:"isDeleted,omitempty"`
	LastModified int64 `json:"lastModified"`
}

// NewModel creates a model with a generated ID and provider defaults.
func NewModel(provider string) Model {
	m := Model{
		ID:           uuid.New().String(),
		Provider:     provider,
		MaxTokens:    4096,
		Temperature:  0.7,
		Enabled:      true,
		LastModified: Now(),
	}
	if provider == ProviderAzure {
		m.APIVersion = "2024-02-01"
	}
	return m
}

// IsComplete reports whether the model has every field its provider needs.
// Only complete models are eligible as default-model candidates or branch
// targets.
func (m *Model) IsComplete() bool {
	if m.Name == "" || m.APIKey == "" {
		return false
	}
	switch m.Provider {
	case ProviderOpenAI, ProviderGemini:
		return m.Model != "" && m.BaseURL != ""
	case ProviderAzure:
		return m.Endpoint != "" && m.DeploymentName != "" && m.APIVersion != ""
	default:
		return false
	}
}

// IsActive reports whether the model is enabled and not soft-deleted.
func (m *Model) IsActive() bool {
	return m.Enabled && !m.IsDeleted
}

// EqualIgnoringStamp compares two models with ID and LastModified masked out.
// Used to decide whether an update is effective before bumping the stamp.
func (m Model) EqualIgnoringStamp(other Model) bool {
	m.ID, other.ID = "", ""
	m.LastModified, other.LastModified = 0, 0
	return m == other
}
