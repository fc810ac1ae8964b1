package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

//go:embed sample_config.toml
var sampleConfig string

// EnvPrefix is prepended to environment overrides, e.g.
// STREAMLINE_FFMPEG_THREADS=8 overrides ffmpeg.threads.
const EnvPrefix = "STREAMLINE"

// Load reads configuration from path (or the default location when path is
// empty), layered over DefaultConfig and under environment overrides. It
// returns the resolved path and whether the file existed; a missing file is
// not an error. Load does not validate: callers apply CLI overrides first and
// then call Validate.
func Load(path string) (*Config, string, bool, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, "", false, err
	}

	v := viper.New()
	v.SetConfigType("toml")

	base, err := toml.Marshal(DefaultConfig())
	if err != nil {
		return nil, "", false, fmt.Errorf("encode defaults: %w", err)
	}
	if err := v.ReadConfig(bytes.NewReader(base)); err != nil {
		return nil, "", false, fmt.Errorf("load defaults: %w", err)
	}

	exists := false
	switch _, statErr := os.Stat(resolved); {
	case statErr == nil:
		exists = true
		v.SetConfigFile(resolved)
		if err := v.MergeInConfig(); err != nil {
			return nil, resolved, true, fmt.Errorf("read config %s: %w", resolved, err)
		}
	case !errors.Is(statErr, fs.ErrNotExist):
		return nil, resolved, false, fmt.Errorf("stat config %s: %w", resolved, statErr)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, resolved, exists, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, resolved, exists, err
	}
	cfg.normalize()
	return &cfg, resolved, exists, nil
}

// Marshal renders cfg as TOML, used by `config show`.
func Marshal(cfg *Config) ([]byte, error) {
	return toml.Marshal(cfg)
}

// DefaultConfigPath returns ~/.config/streamline/config.toml (or the
// platform equivalent).
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("determine config dir: %w", err)
	}
	return filepath.Join(dir, "streamline", "config.toml"), nil
}

// CreateSample writes the embedded sample configuration to path.
func CreateSample(path string) error {
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

// ExpandPath resolves a leading "~" to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	if len(path) > 1 && path[1] != '/' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", path, err)
	}
	return filepath.Join(home, path[1:]), nil
}

func resolvePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultConfigPath()
	}
	return ExpandPath(path)
}

func (c *Config) expandPaths() error {
	targets := []*string{
		&c.Streamline.SourceDirectory,
		&c.Output.Directory,
		&c.Logging.File,
		&c.Cache.Path,
	}
	for _, p := range targets {
		expanded, err := ExpandPath(strings.TrimSpace(*p))
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}
