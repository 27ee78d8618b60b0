package ports

import (
	"context"

	"github.com/fredcamaral/coursekit/internal/domain/entities"
)

// ConfigFile is one TOML layer of the configuration. Keys holds the dotted
// names ("metrics.enabled") the file actually sets.
type ConfigFile struct {
	Path   string
	Config *entities.Config
	Keys   map[string]bool
}

// Sets reports whether the file defines key
func (f *ConfigFile) Sets(key string) bool {
	return f != nil && f.Keys[key]
}

// ConfigLoader reads the configuration layers from disk
type ConfigLoader interface {
	// LoadEnvFile loads dir/.env into the process environment
	LoadEnvFile(dir string) error

	// LoadGlobal loads the per-user file, writing defaults on first run
	LoadGlobal(ctx context.Context) (*ConfigFile, error)

	// LoadLocal loads coursekit.toml from dir; nil when there is none
	LoadLocal(ctx context.Context, dir string) (*ConfigFile, error)
}

// ConfigMerger folds configuration layers together
type ConfigMerger interface {
	Defaults() *entities.Config
	Overlay(base *entities.Config, files ...*ConfigFile) *entities.Config
	ApplyEnvVars(config *entities.Config) *entities.Config
	ApplyFlags(config *entities.Config, flags map[string]interface{}) *entities.Config
}
