package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/abnzrdev/trainer/internal/api"
	"github.com/abnzrdev/trainer/internal/common/db"
	"github.com/abnzrdev/trainer/internal/content"
	"github.com/abnzrdev/trainer/internal/verify"
	"github.com/abnzrdev/trainer/pkg/utils/logger"
)

const (
	defaultDataDir = "~/.trainer"
)

// ContentConfig holds the sample cache location and the optional remote
// source samples are fetched from on a cache miss.
type ContentConfig struct {
	CacheDir string                `yaml:"cacheDir"`
	Source   content.FetcherConfig `yaml:"source"`
}

// WorkspaceConfig holds the working-directory settings.
type WorkspaceConfig struct {
	RootDir      string `yaml:"rootDir"`
	TemplateFile string `yaml:"templateFile"`
}

// AppConfig is the root application configuration.
type AppConfig struct {
	Logger    logger.Config    `yaml:"logger"`
	Database  db.Config        `yaml:"database"`
	Verify    verify.Config    `yaml:"verify"`
	Content   ContentConfig    `yaml:"content"`
	Workspace WorkspaceConfig  `yaml:"workspace"`
	Server    api.ServerConfig `yaml:"server"`
	Editor    string           `yaml:"editor"`
}

// loadAppConfig reads the YAML config and fills in defaults. A missing file
// is not an error; the trainer runs fine on defaults alone.
func loadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// defaults only
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if cfg.Logger.Format == "" {
		cfg.Logger.Format = "console"
	}
	if cfg.Logger.OutputPath == "" {
		cfg.Logger.OutputPath = expandHome(filepath.Join(defaultDataDir, "trainer.log"))
	}

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = filepath.Join(defaultDataDir, "trainer.db")
	}
	if cfg.Content.CacheDir == "" {
		cfg.Content.CacheDir = filepath.Join(defaultDataDir, "samples")
	}
	cfg.Content.CacheDir = expandHome(cfg.Content.CacheDir)
	if cfg.Workspace.RootDir == "" {
		cfg.Workspace.RootDir = filepath.Join(defaultDataDir, "workspaces")
	}
	cfg.Workspace.RootDir = expandHome(cfg.Workspace.RootDir)

	return &cfg, nil
}

// solutionTemplate loads the custom solution skeleton when one is
// configured, falling back to the built-in template.
func (c *AppConfig) solutionTemplate() (string, error) {
	if c.Workspace.TemplateFile == "" {
		return "", nil
	}
	data, err := os.ReadFile(expandHome(c.Workspace.TemplateFile))
	if err != nil {
		return "", fmt.Errorf("read solution template: %w", err)
	}
	return string(data), nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") && path != "~" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
