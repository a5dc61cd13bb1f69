// Package infra provides concrete persistence backends for the repository
// interfaces.
package infra

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// FileSettingsRepository persists settings as a JSON file.
type FileSettingsRepository struct {
	configPath string // empty means search the standard locations
}

// InMemorySettingsRepository keeps settings in memory only, for tests and
// embedders that configure everything programmatically.
type InMemorySettingsRepository struct {
	data []byte
}

func NewFileSettingsRepository(configPath string) *FileSettingsRepository {
	return &FileSettingsRepository{configPath: configPath}
}

func NewInMemorySettingsRepository() *InMemorySettingsRepository {
	return &InMemorySettingsRepository{}
}

func (fr *FileSettingsRepository) Load() ([]byte, error) {
	configPath := fr.configPath
	if configPath == "" {
		foundPath, err := fr.FindSettingsFile()
		if err != nil {
			return nil, err
		}
		if foundPath == "" {
			return nil, errors.New("no settings file found")
		}
		configPath = foundPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read settings file")
	}
	return data, nil
}

func (fr *FileSettingsRepository) Save(data []byte) error {
	configPath := fr.configPath
	if configPath == "" {
		foundPath, _ := fr.FindSettingsFile()
		if foundPath != "" {
			configPath = foundPath
		} else {
			configPath = filepath.Join(".vaultpilot", "settings.json")
		}
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write settings file")
	}
	return nil
}

// FindSettingsFile searches for settings.json in order of preference:
// .vaultpilot/settings.json in the current directory, then
// $HOME/.vaultpilot/settings.json. Returns empty when none exists.
func (fr *FileSettingsRepository) FindSettingsFile() (string, error) {
	currentDirPath := filepath.Join(".vaultpilot", "settings.json")
	if _, err := os.Stat(currentDirPath); err == nil {
		return currentDirPath, nil
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		homeDirPath := filepath.Join(homeDir, ".vaultpilot", "settings.json")
		if _, err := os.Stat(homeDirPath); err == nil {
			return homeDirPath, nil
		}
	}
	return "", nil
}

func (mr *InMemorySettingsRepository) Load() ([]byte, error) {
	if mr.data == nil {
		return nil, errors.New("no data stored in memory repository")
	}
	return mr.data, nil
}

func (mr *InMemorySettingsRepository) Save(data []byte) error {
	mr.data = make([]byte, len(data))
	copy(mr.data, data)
	return nil
}

func (mr *InMemorySettingsRepository) FindSettingsFile() (string, error) {
	return "", nil
}
