package fuzz

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// DefaultTimeoutSeconds bounds each target run unless overridden.
const DefaultTimeoutSeconds = 5.0

// Config holds all configuration options.
type Config struct {
	// From config files (serialized)
	CorpusDir      string  `json:"corpus_dir"`
	TimeoutSeconds float64 `json:"timeout_seconds,omitempty"`
	Debug          bool    `json:"debug,omitempty"`

	// Resolved paths (computed, not serialized)
	EffectiveCwd string `json:"-"` // Absolute working directory (from -C flag or os.Getwd)
	CorpusDirAbs string `json:"-"` // Absolute path to the corpus directory

	// Sources tracks which config files were loaded (for diagnostics)
	Sources ConfigSources `json:"-"`
}

// ConfigSources tracks which config files were loaded.
type ConfigSources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project config if loaded, empty otherwise
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		CorpusDir:      "corpus",
		TimeoutSeconds: DefaultTimeoutSeconds,
	}
}

// ConfigFileName is the default project config file name.
const ConfigFileName = ".shrinkfuzz.json"

// getGlobalConfigPath returns the path to the global config file.
// Uses $XDG_CONFIG_HOME/shrinkfuzz/config.json if set, otherwise
// ~/.config/shrinkfuzz/config.json. Returns empty string if the home
// directory cannot be determined.
func getGlobalConfigPath(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, "shrinkfuzz", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "shrinkfuzz", "config.json")
	}

	return ""
}

// LoadConfigInput holds the inputs for LoadConfig.
type LoadConfigInput struct {
	WorkDirOverride   string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath        string            // -c/--config flag value
	CorpusDirOverride string            // --corpus flag value; empty means no override
	Env               map[string]string // environment variables
}

// LoadConfig loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config ($XDG_CONFIG_HOME/shrinkfuzz/config.json or ~/.config/shrinkfuzz/config.json)
// 3. Project config file: the explicit file given by ConfigPath if
// non-empty (it must exist), otherwise .shrinkfuzz.json in the working
// directory if it exists. The explicit file replaces the default
// project file; the two are never both loaded.
// 4. CLI overrides.
//
// Config files are JSON with optional comments and trailing commas.
// All paths in the returned Config are resolved to absolute paths.
func LoadConfig(input LoadConfigInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	} else if !filepath.IsAbs(workDir) {
		abs, err := filepath.Abs(workDir)
		if err != nil {
			return Config{}, fmt.Errorf("cannot resolve working directory: %w", err)
		}

		workDir = abs
	}

	cfg := DefaultConfig()

	globalCfg, globalPath, err := loadConfigLayer(getGlobalConfigPath(input.Env), false)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Global = globalPath
	cfg = mergeConfig(cfg, globalCfg, globalPath != "")

	projectCfg, projectPath, err := loadProjectLayer(workDir, input.ConfigPath)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Project = projectPath
	cfg = mergeConfig(cfg, projectCfg, projectPath != "")

	if input.CorpusDirOverride != "" {
		cfg.CorpusDir = input.CorpusDirOverride
	}

	if cfg.CorpusDir == "" {
		return Config{}, ErrCorpusDirEmpty
	}

	cfg.EffectiveCwd = workDir

	if filepath.IsAbs(cfg.CorpusDir) {
		cfg.CorpusDirAbs = cfg.CorpusDir
	} else {
		cfg.CorpusDirAbs = filepath.Join(workDir, cfg.CorpusDir)
	}

	return cfg, nil
}

// loadProjectLayer loads the project config file (.shrinkfuzz.json) or
// an explicitly requested config file, which must exist.
func loadProjectLayer(workDir, configPath string) (fileConfig, string, error) {
	if configPath != "" {
		cfgFile := configPath
		if !filepath.IsAbs(cfgFile) {
			cfgFile = filepath.Join(workDir, cfgFile)
		}

		if _, err := os.Stat(cfgFile); err != nil {
			return fileConfig{}, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
		}

		return loadConfigLayer(cfgFile, true)
	}

	return loadConfigLayer(filepath.Join(workDir, ConfigFileName), false)
}

// fileConfig mirrors Config's serialized fields with pointers so that
// absent and explicitly-set values can be told apart when merging.
type fileConfig struct {
	CorpusDir      *string  `json:"corpus_dir"`
	TimeoutSeconds *float64 `json:"timeout_seconds"`
	Debug          *bool    `json:"debug"`
}

// loadConfigLayer reads one config file. If mustExist is false, a
// missing or unreadable file yields an empty layer.
func loadConfigLayer(path string, mustExist bool) (fileConfig, string, error) {
	if path == "" {
		return fileConfig{}, "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if mustExist {
			return fileConfig{}, "", fmt.Errorf("%w: %s", ErrConfigFileRead, path)
		}

		return fileConfig{}, "", nil
	}

	std, err := hujson.Standardize(data)
	if err != nil {
		return fileConfig{}, "", fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	var fc fileConfig
	if err := json.Unmarshal(std, &fc); err != nil {
		return fileConfig{}, "", fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	if fc.CorpusDir != nil && *fc.CorpusDir == "" {
		return fileConfig{}, "", fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, ErrCorpusDirEmpty)
	}

	return fc, path, nil
}

func mergeConfig(base Config, layer fileConfig, loaded bool) Config {
	if !loaded {
		return base
	}

	if layer.CorpusDir != nil {
		base.CorpusDir = *layer.CorpusDir
	}

	if layer.TimeoutSeconds != nil {
		base.TimeoutSeconds = *layer.TimeoutSeconds
	}

	if layer.Debug != nil {
		base.Debug = *layer.Debug
	}

	return base
}
