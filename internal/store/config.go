package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"
)

type GlobalConfig struct {
	CurrentRoom string `json:"currentRoom,omitempty"`

	// Rooms is an optional registry of named room directories.
	// When set, these entries take precedence over ~/.scenelinks/rooms/<name>.
	Rooms map[string]RoomRef `json:"rooms,omitempty"`

	// Players maps room name -> the player id this device acts as in that room.
	Players map[string]string `json:"players,omitempty"`

	// Panel holds optional preferences for the link panel.
	Panel *PanelConfig `json:"panel,omitempty"`
}

type RoomRef struct {
	// Path is the room directory (shared between viewers, e.g. on a network mount).
	Path string `json:"path"`

	// LastOpened is an optional timestamp for MRU selection in UIs.
	LastOpened string `json:"lastOpened,omitempty"`
}

type PanelConfig struct {
	// OpenInModal shows links in a preview modal instead of the system browser.
	OpenInModal bool `json:"openInModal,omitempty"`
	// AddMode is "per-item" (default) or "broadcast".
	AddMode string `json:"addMode,omitempty"`
	// PollMs is the room watch interval in milliseconds.
	PollMs int `json:"pollMs,omitempty"`

	MinListHeight   int `json:"minListHeight,omitempty"`
	ChromeHeight    int `json:"chromeHeight,omitempty"`
	CollapsedHeight int `json:"collapsedHeight,omitempty"`
}

func (c *GlobalConfig) PanelOrDefault() PanelConfig {
	if c == nil || c.Panel == nil {
		return PanelConfig{}
	}
	return *c.Panel
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.scenelinks).
	if v := strings.TrimSpace(os.Getenv("SCENELINKS_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".scenelinks"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadConfig reads the global config. Comments and trailing commas are
// accepted; a missing file yields an empty config.
func LoadConfig() (*GlobalConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &GlobalConfig{}, nil
		}
		return nil, err
	}
	var cfg GlobalConfig
	if err := json.Unmarshal(jsonc.ToJSON(b), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

func SaveConfig(cfg *GlobalConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	// Unique temp file + rename: panel and CLI processes may write concurrently.
	return atomicWriteFile(dir, "config.json.*.tmp", path, b, 0o600)
}

func NormalizeRoomName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("room name is empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", errors.New("room name must not contain path separators")
	}
	return name, nil
}

// RoomDir resolves a room name to its directory, preferring the registry.
func RoomDir(name string) (string, error) {
	name, err := NormalizeRoomName(name)
	if err != nil {
		return "", err
	}
	cfg, err := LoadConfig()
	if err != nil {
		return "", err
	}
	if ref, ok := cfg.Rooms[name]; ok && strings.TrimSpace(ref.Path) != "" {
		return filepath.Clean(ref.Path), nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "rooms", name), nil
}

// ListRooms unions room directories under ~/.scenelinks/rooms with the registry.
func ListRooms() ([]string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	set := map[string]struct{}{}
	if ents, err := os.ReadDir(filepath.Join(dir, "rooms")); err == nil {
		for _, e := range ents {
			if e.IsDir() {
				set[e.Name()] = struct{}{}
			}
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	for name := range cfg.Rooms {
		if name = strings.TrimSpace(name); name != "" {
			set[name] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}
