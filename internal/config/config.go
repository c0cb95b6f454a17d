// Package config provides configuration management for angr-setup using Viper.
package config

import (
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	angrnative "github.com/angr/angr-native-go"
)

// AppName is the application name used for config file naming.
const AppName = "angr-setup"

// EnvPrefix prefixes environment variable overrides (ANGR_SETUP_PYTHON, ...).
const EnvPrefix = "ANGR_SETUP"

// Config represents the top-level configuration structure.
type Config struct {
	ProjectDir    string            `mapstructure:"project_dir" yaml:"project_dir" toml:"project_dir"`
	NativeDir     string            `mapstructure:"native_dir" yaml:"native_dir" toml:"native_dir"`
	LibDir        string            `mapstructure:"lib_dir" yaml:"lib_dir" toml:"lib_dir"`
	Python        string            `mapstructure:"python" yaml:"python" toml:"python"`
	Frontend      []string          `mapstructure:"frontend" yaml:"frontend" toml:"frontend"`
	SiteDirs      []string          `mapstructure:"site_dirs" yaml:"site_dirs" toml:"site_dirs"`
	BuildCommands [][]string        `mapstructure:"build_commands" yaml:"build_commands,omitempty" toml:"build_commands,omitempty"`
	Parallel      int               `mapstructure:"parallel" yaml:"parallel" toml:"parallel"`
	Host          HostOverride      `mapstructure:"host" yaml:"host" toml:"host"`
	Env           map[string]string `mapstructure:"env" yaml:"env,omitempty" toml:"env,omitempty"`
}

// HostOverride replaces detected host fields when set.
type HostOverride struct {
	Platform string `mapstructure:"platform" yaml:"platform,omitempty" toml:"platform,omitempty"`
	Machine  string `mapstructure:"machine" yaml:"machine,omitempty" toml:"machine,omitempty"`
	Name     string `mapstructure:"name" yaml:"name,omitempty" toml:"name,omitempty"`
}

// New returns a Viper instance with defaults, search paths and environment
// bindings for projectDir.
func New(projectDir string) *viper.Viper {
	v := viper.New()

	v.SetConfigName(AppName)
	v.SetConfigType("yaml")

	// Search paths (in order of precedence)
	v.AddConfigPath(projectDir)
	v.AddConfigPath(filepath.Join(xdg.ConfigHome, AppName))

	// Environment variable support; host.name becomes ANGR_SETUP_HOST_NAME.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	python := angrnative.DefaultPython()
	v.SetDefault("project_dir", projectDir)
	v.SetDefault("native_dir", angrnative.DefaultNativeDir)
	v.SetDefault("lib_dir", angrnative.DefaultLibDir)
	v.SetDefault("python", python)
	v.SetDefault("frontend", []string{python, "setup.py"})
	v.SetDefault("site_dirs", []string{})
	v.SetDefault("parallel", 0)
	v.SetDefault("host.platform", "")
	v.SetDefault("host.machine", "")
	v.SetDefault("host.name", "")

	return v
}

// Load reads the configuration file into v and decodes it.
// If path is provided, it reads from that specific file.
// If path is empty, a missing config file is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "reading config file")
		}
		if path != "" {
			return nil, errors.Wrapf(err, "config file not found at %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}

	return &cfg, nil
}

// HostInfo returns the detected host with configured overrides applied.
func (c *Config) HostInfo() angrnative.Host {
	h := angrnative.DetectHost()
	if c.Host.Platform != "" {
		h.Platform = c.Host.Platform
	}
	if c.Host.Machine != "" {
		h.Machine = c.Host.Machine
	}
	if c.Host.Name != "" {
		h.Name = c.Host.Name
	}
	return h
}

// Finder returns the package finder selected by the configuration: the
// site-packages directories when configured, the interpreter otherwise.
func (c *Config) Finder() angrnative.PackageFinder {
	if len(c.SiteDirs) > 0 {
		dirs := make([]string, 0, len(c.SiteDirs))
		for _, d := range c.SiteDirs {
			dirs = append(dirs, c.projectPath(d))
		}
		return &angrnative.SiteFinder{Dirs: dirs}
	}
	return &angrnative.PythonFinder{Python: c.Python}
}

// Candidates returns the configured build commands, or nil for the defaults.
func (c *Config) Candidates() []angrnative.Candidate {
	if len(c.BuildCommands) == 0 {
		return nil
	}
	out := make([]angrnative.Candidate, 0, len(c.BuildCommands))
	for _, argv := range c.BuildCommands {
		out = append(out, angrnative.Candidate(argv))
	}
	return out
}

// BuildConfig converts the configuration into a native build configuration.
func (c *Config) BuildConfig() *angrnative.BuildConfig {
	return &angrnative.BuildConfig{
		ProjectDir: c.ProjectDir,
		NativeDir:  c.NativeDir,
		LibDir:     c.LibDir,
		Finder:     c.Finder(),
		Candidates: c.Candidates(),
		Env:        c.buildEnv(),
		Parallel:   c.Parallel,
		Host:       c.HostInfo(),
	}
}

// Toolchain returns the packaging frontend as a toolchain.
func (c *Config) Toolchain() *angrnative.ExternalToolchain {
	return &angrnative.ExternalToolchain{
		Frontend: c.Frontend,
		Dir:      c.ProjectDir,
		Python:   c.Python,
	}
}

// buildEnv restores upper case variable names, which Viper lowercases.
func (c *Config) buildEnv() map[string]string {
	if len(c.Env) == 0 {
		return nil
	}
	env := make(map[string]string, len(c.Env))
	for k, v := range c.Env {
		env[strings.ToUpper(k)] = v
	}
	return env
}

func (c *Config) projectPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.ProjectDir, p)
}
