package config

import (
	"log/slog"
	"sync"
)

// Holder keeps the live config and rebuilds it from the same sources on
// Reload (typically on SIGHUP). CLI flags given at start-up keep their
// precedence across reloads.
type Holder struct {
	mu    sync.RWMutex
	cfg   *Config
	path  string
	flags CLIFlags
}

// NewHolder wraps cfg, remembering the YAML path and CLI flags for Reload.
func NewHolder(cfg *Config, path string, flags CLIFlags) *Holder {
	return &Holder{cfg: cfg, path: path, flags: flags}
}

// Get returns the current config. Callers must not mutate it.
func (h *Holder) Get() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg
}

// Reload re-reads the YAML file and the environment and reapplies the CLI
// flags. On failure the previous config stays in place.
func (h *Holder) Reload() error {
	cfg, err := build(h.path, h.flags)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.cfg = cfg
	h.mu.Unlock()
	slog.Info("config reloaded", "path", h.path, "log_level", cfg.Logging.Level)
	return nil
}
