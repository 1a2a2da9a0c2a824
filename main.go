package main

import (
	"flag"
	"os"
	"runtime"
	"strings"

	"github.com/dmarkfer/CRDT-LWW/config"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// Functions

// initLogger initializes a JSON gokit-logger set
// to the according log level supplied via cli flag.
func initLogger(loglevel string) log.Logger {

	logger := log.NewJSONLogger(log.NewSyncWriter(os.Stdout))
	logger = log.With(logger,
		"ts", log.DefaultTimestampUTC,
		"caller", log.DefaultCaller,
	)

	switch strings.ToLower(loglevel) {
	case "info":
		logger = level.NewFilter(logger, level.AllowInfo())
	case "warn":
		logger = level.NewFilter(logger, level.AllowWarn())
	case "error":
		logger = level.NewFilter(logger, level.AllowError())
	default:
		logger = level.NewFilter(logger, level.AllowDebug())
	}

	return logger
}

func main() {

	// Set CPUs usable to all available.
	runtime.GOMAXPROCS(runtime.NumCPU())

	// Parse command-line flag that defines a config path.
	configFlag := flag.String("config", "config.toml", "Provide path to configuration file in TOML syntax.")
	envFlag := flag.String("env", "", "Provide path to an optional .env file carrying host specific overrides.")
	loglevelFlag := flag.String("loglevel", "debug", "This flag sets the default logging level.")
	flag.Parse()

	logger := initLogger(*loglevelFlag)

	// Read configuration from file.
	conf, err := config.LoadConfig(*configFlag)
	if err != nil {
		level.Error(logger).Log(
			"msg", "failed to load the config", "err", err,
		)
		os.Exit(1)
	}

	// Apply host specific overrides if supplied.
	if *envFlag != "" {

		env, err := config.LoadEnv(*envFlag)
		if err != nil {
			level.Error(logger).Log(
				"msg", "failed to load the .env file", "err", err,
			)
			os.Exit(2)
		}

		if env.PrometheusAddr != "" {
			conf.PrometheusAddr = env.PrometheusAddr
		}
	}

	dictMetrics := NewDictMetrics(conf.PrometheusAddr)
	go runPromHTTP(logger, conf.PrometheusAddr)

	// Run the convergence simulation.
	divergent := runSimulation(logger, conf.Simulation, dictMetrics)
	if divergent != 0 {
		level.Error(logger).Log(
			"msg", "replicas diverged after full merge",
			"divergent", divergent,
		)
		os.Exit(3)
	}
}
