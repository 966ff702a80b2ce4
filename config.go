package lattice

import (
	jlconfig "github.com/JeremyLoy/config"
)

// Config holds the engine's ambient settings. Fields are loaded from
// environment variables in snake case, e.g. LATTICE_LOG_LEVEL.
type Config struct {
	LatticeLogLevel string `config:"LATTICE_LOG_LEVEL"`
	// LatticeEventLogCapacity pre-sizes the per-tick event log buffer for the
	// expected number of events.
	LatticeEventLogCapacity int `config:"LATTICE_EVENT_LOG_CAPACITY"`
}

func DefaultConfig() Config {
	return Config{
		LatticeLogLevel:         "info",
		LatticeEventLogCapacity: 256,
	}
}

// LoadConfig loads the config from the environment, falling back to defaults
// for unset variables.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	err := jlconfig.FromEnv().To(&cfg)
	return cfg, err
}
