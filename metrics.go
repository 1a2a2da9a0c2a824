package main

import (
	"net/http"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type DictMetrics struct {
	Simulation *SimulationMetrics
}

type SimulationMetrics struct {
	Adds              metrics.Counter
	Removes           metrics.Counter
	Merges            metrics.Counter
	Lookups           metrics.Counter
	ConvergedReplicas metrics.Gauge
}

func NewDictMetrics(prometheusAddr string) *DictMetrics {

	m := &DictMetrics{}

	if prometheusAddr == "" {
		m.Simulation = &SimulationMetrics{
			Adds:              discard.NewCounter(),
			Removes:           discard.NewCounter(),
			Merges:            discard.NewCounter(),
			Lookups:           discard.NewCounter(),
			ConvergedReplicas: discard.NewGauge(),
		}
	} else {
		m.Simulation = &SimulationMetrics{
			Adds: prometheus.NewCounterFrom(prom.CounterOpts{
				Namespace: "lwwdict",
				Subsystem: "simulation",
				Name:      "adds_total",
				Help:      "Number of insertion operations applied across all replicas",
			}, nil),
			Removes: prometheus.NewCounterFrom(prom.CounterOpts{
				Namespace: "lwwdict",
				Subsystem: "simulation",
				Name:      "removes_total",
				Help:      "Number of removal operations applied across all replicas",
			}, nil),
			Merges: prometheus.NewCounterFrom(prom.CounterOpts{
				Namespace: "lwwdict",
				Subsystem: "simulation",
				Name:      "merges_total",
				Help:      "Number of pairwise replica merges performed",
			}, nil),
			Lookups: prometheus.NewCounterFrom(prom.CounterOpts{
				Namespace: "lwwdict",
				Subsystem: "simulation",
				Name:      "lookups_total",
				Help:      "Number of value lookups performed on merged replicas",
			}, nil),
			ConvergedReplicas: prometheus.NewGaugeFrom(prom.GaugeOpts{
				Namespace: "lwwdict",
				Subsystem: "simulation",
				Name:      "converged_replicas",
				Help:      "Number of replicas sharing the majority view after full merge",
			}, nil),
		}
	}

	return m
}

func runPromHTTP(logger log.Logger, addr string) {

	if addr == "" {
		level.Debug(logger).Log("msg", "prometheus addr is empty, not exposing prometheus metrics")
		return
	}

	http.Handle("/metrics", promhttp.HandlerFor(prom.DefaultGatherer, promhttp.HandlerOpts{}))

	level.Info(logger).Log("msg", "prometheus handler listening", "addr", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		level.Warn(logger).Log("msg", "failed to serve prometheus metrics", "err", err)
	}
}
