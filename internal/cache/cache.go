package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"wz-analyzer/internal/config"
	"wz-analyzer/internal/domain"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

type key struct {
	username string
	platform domain.Platform
}

func keyOf(f domain.Found) key {
	return key{username: f.Info.Username, platform: f.Info.Platform}
}

// Cache maps a roster (username, platform) pair to the identity it resolved
// to. Only Found players are stored. The in-memory map is hydrated from a JSON
// array file by Load and written back by Flush.
type Cache struct {
	path    string
	logger  zerolog.Logger
	mu      sync.RWMutex
	players map[key]domain.Found
	flushMu sync.Mutex
}

func New(cfg *config.Config, logger zerolog.Logger) *Cache {
	return &Cache{
		path:    cfg.CachePath,
		logger:  logger.With().Str("component", "cache").Logger(),
		players: make(map[key]domain.Found),
	}
}

// Get returns the cached identity for the exact (username, platform) pair.
func (c *Cache) Get(username string, platform domain.Platform) (domain.Found, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.players[key{username: username, platform: platform}]
	return f, ok
}

// PutAll stores every player, replacing earlier entries under the same key.
// Per-match game statistics are not kept.
func (c *Cache) PutAll(players []domain.Found) {
	if len(players) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range players {
		info := p.Info
		info.GameStatistics = nil
		c.players[keyOf(p)] = p.WithIdentity(info)
	}
	c.logger.Debug().Int("added", len(players)).Int("size", len(c.players)).Msg("players cached")
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.players)
}

// Load hydrates the cache from disk. A missing file is an empty cache.
func (c *Cache) Load() error {
	players, err := readFile(c.path)
	if err != nil {
		return err
	}

	c.mu.Lock()
	for _, p := range players {
		c.players[keyOf(p)] = p
	}
	size := len(c.players)
	c.mu.Unlock()

	c.logger.Info().Str("path", c.path).Int("size", size).Msg("player cache loaded")
	return nil
}

// Flush merges the in-memory entries over whatever is on disk and replaces
// the file atomically.
func (c *Cache) Flush() error {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	onDisk, err := readFile(c.path)
	if err != nil {
		c.logger.Warn().Err(err).Str("path", c.path).Msg("unreadable cache file will be overwritten")
		onDisk = nil
	}

	merged := make(map[key]domain.Found, len(onDisk))
	for _, p := range onDisk {
		merged[keyOf(p)] = p
	}
	c.mu.RLock()
	for k, p := range c.players {
		merged[k] = p
	}
	c.mu.RUnlock()

	out := make([]domain.Found, 0, len(merged))
	for _, p := range merged {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Info.Username != out[j].Info.Username {
			return out[i].Info.Username < out[j].Info.Username
		}
		return out[i].Info.Platform < out[j].Info.Platform
	})

	if err := writeFile(c.path, out); err != nil {
		c.logger.Error().Err(err).Str("path", c.path).Msg("failed to flush player cache")
		return err
	}

	c.logger.Info().Str("path", c.path).Int("size", len(out)).Msg("player cache flushed")
	return nil
}

func readFile(path string) ([]domain.Found, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var players []domain.Found
	if err := json.Unmarshal(data, &players); err != nil {
		return nil, fmt.Errorf("failed to decode cache file: %w", err)
	}

	valid := players[:0]
	for _, p := range players {
		if p.Info.Username == "" || p.Username == "" || p.PlatformFound == "" {
			continue
		}
		valid = append(valid, p)
	}
	return valid, nil
}

func writeFile(path string, players []domain.Found) error {
	data, err := json.MarshalIndent(players, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".playercache-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}
