package config

import "github.com/caarlos0/env/v11"

// parseEnv overlays fields tagged with `env` whose variables are set.
// Unset variables leave the current value alone. Malformed values panic,
// like malformed JSON or flags do.
func parseEnv(config *Config) {
	if err := env.Parse(config); err != nil {
		panic(err)
	}
}
