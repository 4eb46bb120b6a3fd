package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every environment override, e.g. BOOTHGO_CAMERA_TYPE.
const EnvPrefix = "BOOTHGO_"

// ApplyEnv overrides cfg fields from BOOTHGO_* environment variables.
// Unset variables leave the current value untouched.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
