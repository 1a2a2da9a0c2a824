package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Structs

// Config holds all information parsed from
// supplied config file.
type Config struct {
	PrometheusAddr string
	Simulation     Simulation
}

// Simulation is the convergence simulation related
// part of the TOML config file. It describes how many
// replicas to run, how much load to put on each and
// which value spaces to draw operations from.
type Simulation struct {
	Replicas      int
	OpsPerReplica int
	KeySpace      int
	ValueSpace    int
	RemoveShare   float64
	Seed          int64
}

// Functions

// LoadConfig takes in the path to the main config file
// in TOML syntax and places the values from the file in
// the corresponding struct.
func LoadConfig(configFile string) (*Config, error) {

	conf := new(Config)

	// Parse values from TOML file into struct.
	_, err := toml.DecodeFile(configFile, conf)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read in TOML config file at '%s'", configFile)
	}

	// A convergence run needs at least two replicas,
	// otherwise there is nothing to merge.
	if conf.Simulation.Replicas < 2 {
		return nil, fmt.Errorf("simulation needs at least 2 replicas, config specifies %d", conf.Simulation.Replicas)
	}

	if conf.Simulation.OpsPerReplica < 1 {
		return nil, fmt.Errorf("simulation needs at least 1 operation per replica, config specifies %d", conf.Simulation.OpsPerReplica)
	}

	if (conf.Simulation.KeySpace < 1) || (conf.Simulation.ValueSpace < 1) {
		return nil, fmt.Errorf("key and value spaces have to contain at least 1 element each, config specifies %d and %d", conf.Simulation.KeySpace, conf.Simulation.ValueSpace)
	}

	if (conf.Simulation.RemoveShare < 0.0) || (conf.Simulation.RemoveShare > 1.0) {
		return nil, fmt.Errorf("share of removal operations has to lie in [0, 1], config specifies %f", conf.Simulation.RemoveShare)
	}

	return conf, nil
}
