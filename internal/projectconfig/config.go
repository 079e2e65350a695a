// Package projectconfig provides the ProjectConfig struct and loader for
// .keiko.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/microsoft/keiko/internal/models"
	"github.com/microsoft/keiko/internal/utils"
)

// FileName is the project configuration file looked up by Load.
const FileName = ".keiko.yaml"

// Default values for project configuration. New() references them; no other
// code should duplicate them.
const (
	DefaultResultsDir = "results/"

	DefaultEngine     = "cli"
	DefaultTimeoutSec = 90
	DefaultWorkers    = 1

	DefaultJudgeKind       = "cli"
	DefaultJudgeTimeoutSec = 60

	DefaultCacheDir = ".keiko-cache"
)

// PathsConfig holds directory paths.
type PathsConfig struct {
	Results string `yaml:"results,omitempty"`
}

// AgentConfig holds how `keiko run` invokes the agent.
type AgentConfig struct {
	Command    []string `yaml:"command,omitempty"`
	Engine     string   `yaml:"engine,omitempty"`
	Model      string   `yaml:"model,omitempty"`
	TimeoutSec int      `yaml:"timeout_sec,omitempty"`
	Workers    int      `yaml:"workers,omitempty"`
}

// JudgeConfig holds how `keiko score` invokes the judge.
type JudgeConfig struct {
	Kind       string          `yaml:"kind,omitempty"`
	Command    []string        `yaml:"command,omitempty"`
	Model      string          `yaml:"model,omitempty"`
	TimeoutSec int             `yaml:"timeout_sec,omitempty"`
	Weights    *models.Weights `yaml:"weights,omitempty"`
}

// CacheConfig holds judge response cache settings.
type CacheConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .keiko.yaml.
type ProjectConfig struct {
	Paths PathsConfig `yaml:"paths,omitempty"`
	Agent AgentConfig `yaml:"agent,omitempty"`
	Judge JudgeConfig `yaml:"judge,omitempty"`
	Cache CacheConfig `yaml:"cache,omitempty"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Paths: PathsConfig{
			Results: DefaultResultsDir,
		},
		Agent: AgentConfig{
			Engine:     DefaultEngine,
			TimeoutSec: DefaultTimeoutSec,
			Workers:    DefaultWorkers,
		},
		Judge: JudgeConfig{
			Kind:       DefaultJudgeKind,
			TimeoutSec: DefaultJudgeTimeoutSec,
		},
		Cache: CacheConfig{
			Enabled: boolPtr(false),
			Dir:     DefaultCacheDir,
		},
	}
}

// Load finds .keiko.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults. Relative paths
// from the file anchor at the directory the file was found in, not wherever
// the command happens to run. If no config file is found, returns defaults
// with a nil error. Real I/O errors (e.g. permission denied) are returned to
// the caller.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	data, foundDir, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil // no file found → return defaults
		}
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}

	mergeConfig(cfg, &fileCfg)

	cfg.Paths.Results = utils.AnchorPath(foundDir, cfg.Paths.Results)
	cfg.Cache.Dir = utils.AnchorPath(foundDir, cfg.Cache.Dir)

	return cfg, nil
}

// findConfigFile walks up from dir looking for .keiko.yaml (max 10 levels).
// Returns the file contents and the directory it was found in, or
// os.ErrNotExist if no config file exists. Propagates real I/O errors (e.g.
// permission denied) instead of silently swallowing them.
func findConfigFile(dir string) ([]byte, string, error) {
	// Convert to absolute path so filepath.Dir(".") walks correctly.
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, dir, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return nil, "", os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	// Paths
	if src.Paths.Results != "" {
		dst.Paths.Results = src.Paths.Results
	}

	// Agent
	if len(src.Agent.Command) > 0 {
		dst.Agent.Command = src.Agent.Command
	}
	if src.Agent.Engine != "" {
		dst.Agent.Engine = src.Agent.Engine
	}
	if src.Agent.Model != "" {
		dst.Agent.Model = src.Agent.Model
	}
	if src.Agent.TimeoutSec != 0 {
		dst.Agent.TimeoutSec = src.Agent.TimeoutSec
	}
	if src.Agent.Workers != 0 {
		dst.Agent.Workers = src.Agent.Workers
	}

	// Judge
	if src.Judge.Kind != "" {
		dst.Judge.Kind = src.Judge.Kind
	}
	if len(src.Judge.Command) > 0 {
		dst.Judge.Command = src.Judge.Command
	}
	if src.Judge.Model != "" {
		dst.Judge.Model = src.Judge.Model
	}
	if src.Judge.TimeoutSec != 0 {
		dst.Judge.TimeoutSec = src.Judge.TimeoutSec
	}
	if src.Judge.Weights != nil {
		dst.Judge.Weights = src.Judge.Weights
	}

	// Cache
	if src.Cache.Enabled != nil {
		dst.Cache.Enabled = src.Cache.Enabled
	}
	if src.Cache.Dir != "" {
		dst.Cache.Dir = src.Cache.Dir
	}
}

func boolPtr(b bool) *bool {
	return &b
}
