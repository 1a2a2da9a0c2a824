package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Structs

// Env holds information specific to the system the
// simulation is deployed on. This enables host adaptions
// without needing to maintain two different config files,
// e.g. exposing metrics on a host-assigned port.
type Env struct {
	PrometheusAddr string
}

// Functions

// LoadEnv reads in the .env file at supplied location
// and returns all overrides defined in it.
func LoadEnv(envFile string) (*Env, error) {

	// Load environment file.
	err := godotenv.Load(envFile)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read in .env file at '%s'", envFile)
	}

	env := new(Env)

	// Fill variables from .env into struct.
	env.PrometheusAddr = os.Getenv("PROMETHEUS_ADDR")

	return env, nil
}
