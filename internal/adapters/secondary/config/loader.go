package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/fredcamaral/coursekit/internal/domain/entities"
	"github.com/fredcamaral/coursekit/internal/domain/ports"
)

const (
	localConfigName = "coursekit.toml"
	envFileName     = ".env"
)

// TOMLLoader reads the per-user config file, the coursekit.toml next to the
// content and the .env file
type TOMLLoader struct {
	globalPath string
}

// NewTOMLLoader creates a loader whose global file lives under
// ~/.config/coursekit
func NewTOMLLoader() *TOMLLoader {
	homeDir, _ := os.UserHomeDir()
	return &TOMLLoader{
		globalPath: filepath.Join(homeDir, ".config", "coursekit", "config.toml"),
	}
}

// GlobalPath returns the per-user config file path
func (l *TOMLLoader) GlobalPath() string {
	return l.globalPath
}

// LoadEnvFile loads dir/.env into the process environment. Variables that
// are already set win over the file; a missing file is not an error.
func (l *TOMLLoader) LoadEnvFile(dir string) error {
	path := filepath.Join(dir, envFileName)
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// LoadGlobal loads the per-user file. On first run the current defaults are
// written there so users have a file to edit.
func (l *TOMLLoader) LoadGlobal(ctx context.Context) (*ports.ConfigFile, error) {
	if _, err := os.Stat(l.globalPath); errors.Is(err, fs.ErrNotExist) {
		if err := writeDefaults(l.globalPath); err != nil {
			return nil, err
		}
	}
	return decodeFile(l.globalPath)
}

// LoadLocal loads dir/coursekit.toml, returning nil when it does not exist
func (l *TOMLLoader) LoadLocal(ctx context.Context, dir string) (*ports.ConfigFile, error) {
	path := filepath.Join(dir, localConfigName)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return decodeFile(path)
}

// decodeFile parses path and records which keys it defines, so a partial
// file only overrides what it names
func decodeFile(path string) (*ports.ConfigFile, error) {
	data, err := os.ReadFile(path) // #nosec G304 - global or local config path
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg entities.Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing TOML from %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config in %s: %w", path, err)
	}

	keys := make(map[string]bool)
	for _, key := range md.Keys() {
		keys[key.String()] = true
	}

	return &ports.ConfigFile{Path: path, Config: &cfg, Keys: keys}, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}

	file, err := os.Create(path) // #nosec G304 - global config path
	if err != nil {
		return fmt.Errorf("creating config file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	encoder := toml.NewEncoder(file)
	encoder.Indent = "  "
	if err := encoder.Encode(GetDefaultConfig()); err != nil {
		return fmt.Errorf("writing defaults to %s: %w", path, err)
	}
	return nil
}

// Ensure TOMLLoader implements ports.ConfigLoader
var _ ports.ConfigLoader = (*TOMLLoader)(nil)
