// SPDX-License-Identifier: MPL-2.0

// Package config loads the orchestrator configuration: defaults, an
// optional .sagemake.toml at the repository root, a repo-root .env file,
// and SAGEMAKE_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the per-repository config file (without extension).
	ConfigFileName = ".sagemake"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "toml"
	// EnvPrefix namespaces the environment variables viper binds.
	EnvPrefix = "SAGEMAKE"
)

// Config carries every knob the task table and the container matrix need.
type Config struct {
	// RepoRoot is the absolute path of the working tree being orchestrated.
	RepoRoot string `mapstructure:"-"`

	// TrunkBranch is the branch treated as the stable mainline; pushes to
	// it run the full suite.
	TrunkBranch string `mapstructure:"trunk_branch"`
	// Package is the Python package under orchestration. When empty it is
	// derived from pyproject.toml, falling back to "claasp".
	Package string `mapstructure:"package"`
	// TestedModule overrides the full-suite test target. Bound to the
	// TESTED_MODULE environment variable for Makefile parity.
	TestedModule string `mapstructure:"tested_module"`
	// SourceExt is the extension filter for change detection.
	SourceExt string `mapstructure:"source_ext"`
	// DocsDir is where the documentation build lives.
	DocsDir string `mapstructure:"docs_dir"`

	// ContainerEngine names the engine CLI ("docker").
	ContainerEngine string `mapstructure:"container_engine"`
	// ImageName is the fixed tag for the project image.
	ImageName string `mapstructure:"image_name"`
	// Dockerfile is the build description, relative to the repo root.
	Dockerfile string `mapstructure:"dockerfile"`
	// MountPath is where the working tree is mounted inside containers.
	MountPath string `mapstructure:"mount_path"`
	// CICommand is the batch command the ci task runs inside the container.
	CICommand []string `mapstructure:"ci_command"`

	// HistoryPath is the sqlite run-history location, relative to the repo
	// root; empty disables history.
	HistoryPath string `mapstructure:"history_path"`

	// Verbose raises the log level to debug.
	Verbose bool `mapstructure:"verbose"`
}

// Default returns the built-in configuration for a repository root.
func Default(repoRoot string) *Config {
	return &Config{
		RepoRoot:        repoRoot,
		TrunkBranch:     "master",
		SourceExt:       ".py",
		DocsDir:         "docs",
		ContainerEngine: "docker",
		ImageName:       "claasp",
		Dockerfile:      "docker/Dockerfile",
		MountPath:       "/home/sage/tii-claasp",
		HistoryPath:     filepath.Join(".sagemake", "history.db"),
	}
}

// Load resolves the configuration for the repository at repoRoot.
// cfgFile, when non-empty, points at an explicit config file instead of
// the repo-root .sagemake.toml.
func Load(repoRoot, cfgFile string) (*Config, error) {
	// Makefile-era workflows kept TESTED_MODULE and friends in a dotenv
	// file; load it into the process environment before viper binds.
	_ = godotenv.Load(filepath.Join(repoRoot, ".env"))

	defaults := Default(repoRoot)

	v := viper.New()
	v.SetDefault("trunk_branch", defaults.TrunkBranch)
	v.SetDefault("package", "")
	v.SetDefault("source_ext", defaults.SourceExt)
	v.SetDefault("docs_dir", defaults.DocsDir)
	v.SetDefault("container_engine", defaults.ContainerEngine)
	v.SetDefault("image_name", defaults.ImageName)
	v.SetDefault("dockerfile", defaults.Dockerfile)
	v.SetDefault("mount_path", defaults.MountPath)
	v.SetDefault("ci_command", []string{})
	v.SetDefault("history_path", defaults.HistoryPath)
	v.SetDefault("verbose", false)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(ConfigFileName)
		v.SetConfigType(ConfigFileExt)
		v.AddConfigPath(repoRoot)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// TESTED_MODULE keeps its historical unprefixed name.
	_ = v.BindEnv("tested_module", "SAGEMAKE_TESTED_MODULE", "TESTED_MODULE")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && cfgFile == "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if cfgFile != "" {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.RepoRoot = repoRoot

	if cfg.Package == "" {
		cfg.Package = detectPackageName(repoRoot)
	}
	return cfg, nil
}

// FullSuiteTarget is the module handed to the full test driver: the
// TESTED_MODULE override when set, otherwise the package itself.
func (c *Config) FullSuiteTarget() string {
	if c.TestedModule != "" {
		return c.TestedModule
	}
	return c.Package
}
