// Package settings loads layered TOML configuration.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
)

// EnvConfig names an environment variable pointing at an extra config file
// that is layered on top of the user config.
const EnvConfig = "VERSO_CONFIG"

// ErrWrongType is wrapped by errors for keys whose value has an unexpected
// type.
var ErrWrongType = errors.New("wrong config value type")

// Settings is a merged view of one or more TOML layers. Later layers
// override earlier ones key by key; tables merge recursively.
type Settings struct {
	data map[string]any
}

// Empty returns settings with no keys set.
func Empty() *Settings {
	return &Settings{data: map[string]any{}}
}

// UserConfigPath returns the path of the per-user config file.
func UserConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "verso", "config.toml")
}

// RepoConfigPath returns the path of the repository config file.
func RepoConfigPath(repoDir string) string {
	return filepath.Join(repoDir, "config.toml")
}

// Load reads the user config, the file named by $VERSO_CONFIG, and the
// repository config (when repoDir is non-empty), in that order.
func Load(repoDir string) (*Settings, error) {
	paths := []string{UserConfigPath()}
	if extra := os.Getenv(EnvConfig); extra != "" {
		paths = append(paths, extra)
	}
	if repoDir != "" {
		paths = append(paths, RepoConfigPath(repoDir))
	}
	return LoadFiles(paths...)
}

// LoadFiles merges the given files in order. Missing files are skipped.
func LoadFiles(paths ...string) (*Settings, error) {
	s := Empty()
	for _, p := range paths {
		var layer map[string]any
		_, err := toml.DecodeFile(p, &layer)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("load config %s: %w", p, err)
		}
		mergeTables(s.data, layer)
	}
	return s, nil
}

// Parse builds settings from TOML text layers.
func Parse(layers ...string) (*Settings, error) {
	s := Empty()
	for i, text := range layers {
		var layer map[string]any
		if _, err := toml.Decode(text, &layer); err != nil {
			return nil, fmt.Errorf("parse config layer %d: %w", i, err)
		}
		mergeTables(s.data, layer)
	}
	return s, nil
}

func mergeTables(dst, src map[string]any) {
	for k, v := range src {
		srcTable, srcIsTable := v.(map[string]any)
		dstTable, dstIsTable := dst[k].(map[string]any)
		if srcIsTable && dstIsTable {
			mergeTables(dstTable, srcTable)
			continue
		}
		if srcIsTable {
			copied := map[string]any{}
			mergeTables(copied, srcTable)
			dst[k] = copied
			continue
		}
		dst[k] = v
	}
}

// Get looks up a dotted key such as "diff.git.context".
func (s *Settings) Get(key string) (any, bool) {
	var cur any = s.data
	for _, part := range strings.Split(key, ".") {
		table, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = table[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// String returns the string at key, or def when unset.
func (s *Settings) String(key, def string) (string, error) {
	v, ok := s.Get(key)
	if !ok {
		return def, nil
	}
	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("config %s: %w: want string, got %T", key, ErrWrongType, v)
	}
	return str, nil
}

// Int returns the integer at key, or def when unset.
func (s *Settings) Int(key string, def int) (int, error) {
	v, ok := s.Get(key)
	if !ok {
		return def, nil
	}
	n, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("config %s: %w: want integer, got %T", key, ErrWrongType, v)
	}
	if n < 0 {
		return 0, fmt.Errorf("config %s: must not be negative, got %d", key, n)
	}
	return int(n), nil
}

// SignedInt is like Int but accepts negative values.
func (s *Settings) SignedInt(key string, def int) (int, error) {
	v, ok := s.Get(key)
	if !ok {
		return def, nil
	}
	n, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("config %s: %w: want integer, got %T", key, ErrWrongType, v)
	}
	return int(n), nil
}

// Bool returns the boolean at key, or def when unset.
func (s *Settings) Bool(key string, def bool) (bool, error) {
	v, ok := s.Get(key)
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("config %s: %w: want boolean, got %T", key, ErrWrongType, v)
	}
	return b, nil
}

// StringTable returns the table at key with string values.
func (s *Settings) StringTable(key string) (map[string]string, error) {
	out := map[string]string{}
	v, ok := s.Get(key)
	if !ok {
		return out, nil
	}
	table, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("config %s: %w: want table, got %T", key, ErrWrongType, v)
	}
	for k, item := range table {
		str, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("config %s.%s: %w: want string, got %T", key, k, ErrWrongType, item)
		}
		out[k] = str
	}
	return out, nil
}
