// Package config holds the application settings: one explicit struct passed
// into each entry point, never ambient state.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pkg/errors"

	"github.com/vaultpilot/vaultpilot/internal/infra"
	"github.com/vaultpilot/vaultpilot/internal/repository"
	pkgLogger "github.com/vaultpilot/vaultpilot/pkg/logger"
)

// DefaultAgentMaxRounds bounds agent runs that never configure a cap.
const DefaultAgentMaxRounds = 50

// Settings represents the main application settings.
type Settings struct {
	LLM   LLMSettings   `json:"llm"`
	Agent AgentSettings `json:"agent"`
	Vault VaultSettings `json:"vault"`

	settingsRepository repository.SettingsRepository `json:"-"`
}

// LLMSettings contains completion service configuration.
type LLMSettings struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens,omitempty"` // 0 = service default
}

// AgentSettings contains agent behavior configuration.
type AgentSettings struct {
	MaxRounds             int    `json:"max_rounds"`
	LogLevel              string `json:"log_level"`
	EnableDelete          bool   `json:"enable_delete,omitempty"`
	EnableWebTools        bool   `json:"enable_web_tools,omitempty"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds,omitempty"` // 0 = no per-call deadline
}

// VaultSettings locates the document tree.
type VaultSettings struct {
	Root            string   `json:"root"`
	ExcludePatterns []string `json:"exclude_patterns,omitempty"`
}

// NewSettings creates default settings with an in-memory repository.
func NewSettings() *Settings {
	return NewSettingsWithRepository(infra.NewInMemorySettingsRepository())
}

// NewSettingsWithRepository creates default settings with an injected repository.
func NewSettingsWithRepository(settingsRepository repository.SettingsRepository) *Settings {
	settings := GetDefaultSettings()
	settings.settingsRepository = settingsRepository
	return settings
}

// NewSettingsWithPath creates default settings with a file-based repository.
func NewSettingsWithPath(configPath string) *Settings {
	return NewSettingsWithRepository(infra.NewFileSettingsRepository(configPath))
}

// Load reads settings from the repository, filling missing fields with
// defaults.
func (s *Settings) Load() error {
	if s.settingsRepository == nil {
		return errors.New("no settings repository configured")
	}

	data, err := s.settingsRepository.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load settings")
	}
	if err := json.Unmarshal(data, s); err != nil {
		return errors.Wrap(err, "failed to parse settings")
	}

	applyDefaults(s)
	return nil
}

// Save writes settings to the repository.
func (s *Settings) Save() error {
	if s.settingsRepository == nil {
		return errors.New("no settings repository configured")
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal settings")
	}
	return s.settingsRepository.Save(data)
}

// Validate validates the configuration.
func (s *Settings) Validate() error {
	if err := s.LLM.Validate(); err != nil {
		return err
	}
	if err := s.Agent.Validate(); err != nil {
		return err
	}
	return s.Vault.Validate()
}

func (c LLMSettings) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.MaxTokens, validation.Min(0)),
	)
}

func (c AgentSettings) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.MaxRounds, validation.Required, validation.Min(1)),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.RequestTimeoutSeconds, validation.Min(0)),
	)
}

func (c VaultSettings) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Root, validation.Required),
	)
}

// LoadSettings loads application settings from a JSON file. An empty
// configPath searches the standard locations; when nothing exists, a default
// settings file is created.
func LoadSettings(configPath string) (*Settings, error) {
	settings := NewSettingsWithPath(configPath)

	if configPath == "" {
		foundPath, _ := settings.settingsRepository.FindSettingsFile()
		if foundPath == "" {
			return createDefaultSettingsFile()
		}
	}

	if err := settings.Load(); err != nil {
		if configPath != "" {
			created, _ := createSettingsFileAtPath(configPath)
			return created, nil
		}
		return GetDefaultSettings(), nil
	}
	return settings, nil
}

// GetDefaultSettings returns default application settings.
func GetDefaultSettings() *Settings {
	return &Settings{
		LLM: LLMSettings{
			Model:     "claude-sonnet-4-5",
			MaxTokens: 0,
		},
		Agent: AgentSettings{
			MaxRounds:             DefaultAgentMaxRounds,
			LogLevel:              "info",
			EnableDelete:          false,
			EnableWebTools:        false,
			RequestTimeoutSeconds: 0,
		},
		Vault: VaultSettings{
			Root:            ".",
			ExcludePatterns: []string{".obsidian/**", ".git/**"},
		},
	}
}

// applyDefaults fills in missing fields with default values.
func applyDefaults(settings *Settings) {
	defaults := GetDefaultSettings()

	if settings.LLM.Model == "" {
		settings.LLM.Model = defaults.LLM.Model
	}
	if settings.Agent.MaxRounds == 0 {
		settings.Agent.MaxRounds = defaults.Agent.MaxRounds
	}
	if settings.Agent.LogLevel == "" {
		settings.Agent.LogLevel = defaults.Agent.LogLevel
	}
	if settings.Vault.Root == "" {
		settings.Vault.Root = defaults.Vault.Root
	}
	if settings.Vault.ExcludePatterns == nil {
		settings.Vault.ExcludePatterns = defaults.Vault.ExcludePatterns
	}
}

// createDefaultSettingsFile creates a default settings.json in ~/.vaultpilot/.
func createDefaultSettingsFile() (*Settings, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return GetDefaultSettings(), nil
	}
	return createSettingsFileAtPath(filepath.Join(homeDir, ".vaultpilot", "settings.json"))
}

// createSettingsFileAtPath creates a default settings file at the given path.
func createSettingsFileAtPath(settingsPath string) (*Settings, error) {
	settings := NewSettingsWithPath(settingsPath)
	if err := settings.Save(); err != nil {
		return GetDefaultSettings(), nil
	}

	pkgLogger.NewComponentLogger("settings").InfoWithIntention(pkgLogger.IntentionConfig,
		"Created default settings file", "path", settingsPath)
	return settings, nil
}
