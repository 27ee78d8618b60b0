package services

import (
	"context"
	"fmt"

	"github.com/fredcamaral/coursekit/internal/domain/entities"
	"github.com/fredcamaral/coursekit/internal/domain/ports"
)

// ResolvedConfig is the effective configuration and the files it came from,
// lowest precedence first
type ResolvedConfig struct {
	Config *entities.Config
	Files  []string
}

// ConfigService resolves the configuration. Precedence, highest first:
// flags, environment (.env included), local file, global file, defaults.
type ConfigService struct {
	loader ports.ConfigLoader
	merger ports.ConfigMerger
}

// NewConfigService creates a new configuration service
func NewConfigService(loader ports.ConfigLoader, merger ports.ConfigMerger) *ConfigService {
	return &ConfigService{
		loader: loader,
		merger: merger,
	}
}

// LoadConfig resolves the configuration for a process started in workingDir
func (s *ConfigService) LoadConfig(ctx context.Context, workingDir string, flags map[string]interface{}) (*ResolvedConfig, error) {
	// .env feeds the environment, so it must be loaded before defaults read it
	if err := s.loader.LoadEnvFile(workingDir); err != nil {
		return nil, fmt.Errorf("loading env file: %w", err)
	}

	global, err := s.loader.LoadGlobal(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading global config: %w", err)
	}
	local, err := s.loader.LoadLocal(ctx, workingDir)
	if err != nil {
		return nil, fmt.Errorf("loading local config: %w", err)
	}

	resolved := &ResolvedConfig{}
	var files []*ports.ConfigFile
	for _, f := range []*ports.ConfigFile{global, local} {
		if f == nil {
			continue
		}
		files = append(files, f)
		resolved.Files = append(resolved.Files, f.Path)
	}

	cfg := s.merger.Overlay(s.merger.Defaults(), files...)
	cfg = s.merger.ApplyEnvVars(cfg)
	cfg = s.merger.ApplyFlags(cfg, flags)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	resolved.Config = cfg
	return resolved, nil
}
