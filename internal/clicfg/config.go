// Package clicfg implements TOML configuration loading and platform-specific
// path resolution for decsyncctl.
package clicfg

// Config is the top-level configuration structure for decsyncctl.
type Config struct {
	Device  DeviceConfig  `toml:"device"`
	Sync    SyncConfig    `toml:"sync"`
	Logging LoggingConfig `toml:"logging"`
}

// DeviceConfig identifies this machine to DecSync peers.
type DeviceConfig struct {
	Name string `toml:"name"`
}

// SyncConfig holds directory and timing settings. decsyncctl's commands take
// the shared directory as an argument; they read LocalDir and
// LegacyWindowMonths from here, while DecsyncDir and WatchPollInterval are
// loaded but not read by any command.
type SyncConfig struct {
	DecsyncDir         string `toml:"decsync_dir"`
	LocalDir           string `toml:"local_dir"`
	LegacyWindowMonths int    `toml:"legacy_window_months"`
	WatchPollInterval  string `toml:"watch_poll_interval"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "text" or "json"
}

// DefaultConfig returns a Config populated with the zero-config defaults,
// used both as the base DefaultConfig Load decodes on top of and as the
// fallback for LoadOrDefault.
func DefaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			Name: defaultDeviceName(),
		},
		Sync: SyncConfig{
			DecsyncDir:         DefaultDecsyncDir(),
			LocalDir:           DefaultLocalDir(),
			LegacyWindowMonths: 3,
			WatchPollInterval:  "30s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
