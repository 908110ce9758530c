package repo

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"
)

// RemoteConfig is the repository-local record of one remote.
type RemoteConfig struct {
	URL string `toml:"url,omitempty"`
	// Tracked lists the bookmarks whose local counterpart follows this
	// remote.
	Tracked []string `toml:"tracked,omitempty"`
}

// Config is repository-local state that lives outside the object graph.
type Config struct {
	Remotes map[string]*RemoteConfig `toml:"remotes,omitempty"`
}

const configFile = "remotes.toml"

// ReadConfig reads .verso/remotes.toml. A missing file yields an empty
// config.
func (r *Repo) ReadConfig() (*Config, error) {
	cfg := &Config{Remotes: make(map[string]*RemoteConfig)}
	_, err := toml.DecodeFile(filepath.Join(r.Dir, configFile), cfg)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	for name, rc := range cfg.Remotes {
		if rc == nil {
			cfg.Remotes[name] = &RemoteConfig{}
		}
	}
	return cfg, nil
}

// WriteConfig atomically replaces .verso/remotes.toml.
func (r *Repo) WriteConfig(cfg *Config) error {
	if cfg == nil {
		cfg = &Config{}
	}
	for _, rc := range cfg.Remotes {
		if rc != nil {
			slices.Sort(rc.Tracked)
			rc.Tracked = slices.Compact(rc.Tracked)
		}
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(r.Dir, configFile), buf.Bytes()); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (cfg *Config) remote(name string) *RemoteConfig {
	rc, ok := cfg.Remotes[name]
	if !ok {
		if cfg.Remotes == nil {
			cfg.Remotes = make(map[string]*RemoteConfig)
		}
		rc = &RemoteConfig{}
		cfg.Remotes[name] = rc
	}
	return rc
}

func (cfg *Config) isTracked(name, remote string) bool {
	rc, ok := cfg.Remotes[remote]
	return ok && slices.Contains(rc.Tracked, name)
}
