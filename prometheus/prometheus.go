// Mgmt
// Copyright (C) James Shubin and the project contributors
// Written by James Shubin <james@shubin.ca> and the project contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.
//
// Additional permission under GNU GPL version 3 section 7
//
// If you modify this program, or any covered work, by linking or combining it
// with embedded mcl code and modules (and that the embedded mcl code and
// modules which link with this program, contain a copy of their source code in
// the authoritative form) containing parts covered by the terms of any other
// license, the licensors of this program grant you additional permission to
// convey the resulting work. Furthermore, the licensors of this program grant
// the original author, James Shubin, additional permission to update this
// additional permission if he deems it necessary to achieve the goals of this
// additional permission.

// Package prometheus provides functions that are useful to control and manage
// the built-in prometheus instance of the reduction engine.
package prometheus

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultPrometheusListen is registered in
// https://github.com/prometheus/prometheus/wiki/Default-port-allocations
const DefaultPrometheusListen = "127.0.0.1:9233"

// These are the outcomes that a single step of the scheduler can have.
const (
	OutcomeReduced     = "reduced"
	OutcomeGuessed     = "guessed"
	OutcomeBlocked     = "blocked"
	OutcomeUninhabited = "uninhabited"
	OutcomeIrreducible = "irreducible"
)

// Prometheus is the struct that contains information about the prometheus
// instance. Run Init() on it.
type Prometheus struct {
	Listen string // the listen specification for the net/http server

	// Registerer is where the metrics are registered. It defaults to the
	// global prometheus registry. Tests should use a fresh registry.
	Registerer prometheus.Registerer

	// Gatherer serves the /metrics endpoint. It defaults to the global
	// prometheus gatherer.
	Gatherer prometheus.Gatherer

	runsTotal        prometheus.Counter     // total of reduction runs
	stepsTotal       prometheus.Counter     // total of scheduler steps
	reductionsTotal  *prometheus.CounterVec // total of steps by function and outcome
	tooComplexTotal  prometheus.Counter     // total of runs that ran out of steps
	reentrantTotal   prometheus.Counter     // total of refused nested runs
	runStartTimeSecs prometheus.Gauge       // start time of the last run

	server *http.Server
}

// Init some parameters and register the metrics.
func (obj *Prometheus) Init() error {
	if len(obj.Listen) == 0 {
		obj.Listen = DefaultPrometheusListen
	}
	if obj.Registerer == nil {
		obj.Registerer = prometheus.DefaultRegisterer
	}
	if obj.Gatherer == nil {
		obj.Gatherer = prometheus.DefaultGatherer
	}

	obj.runsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "typefunc_runs_total",
			Help: "Number of reduction runs that have started.",
		},
	)
	obj.stepsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "typefunc_steps_total",
			Help: "Number of scheduler steps taken.",
		},
	)
	obj.reductionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "typefunc_reductions_total",
			Help: "Number of type function instances handled.",
		},
		// Labels for this metric.
		// function: type function name: add, index, user, ...
		// outcome: reduced, guessed, blocked, uninhabited, irreducible
		[]string{"function", "outcome"},
	)
	obj.tooComplexTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "typefunc_too_complex_total",
			Help: "Number of reduction runs that exceeded their step budget.",
		},
	)
	obj.reentrantTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "typefunc_reentrant_total",
			Help: "Number of nested reduction runs that were refused.",
		},
	)
	obj.runStartTimeSecs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "typefunc_run_start_time_seconds",
			Help: "Start time of the last reduction run since unix epoch in seconds.",
		},
	)

	for _, c := range []prometheus.Collector{
		obj.runsTotal,
		obj.stepsTotal,
		obj.reductionsTotal,
		obj.tooComplexTotal,
		obj.reentrantTotal,
		obj.runStartTimeSecs,
	} {
		if err := obj.Registerer.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Start runs a http server in a go routine, that responds to /metrics as
// prometheus would expect.
func (obj *Prometheus) Start() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(obj.Gatherer, promhttp.HandlerOpts{}))
	obj.server = &http.Server{
		Addr:              obj.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go obj.server.ListenAndServe()
	return nil
}

// Stop the http server.
func (obj *Prometheus) Stop() error {
	if obj.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return obj.server.Shutdown(ctx)
}

// UpdateRunTotal counts a new run and records when it started.
func (obj *Prometheus) UpdateRunTotal() {
	obj.runsTotal.Inc()
	obj.runStartTimeSecs.SetToCurrentTime()
}

// UpdateStepsTotal counts scheduler steps.
func (obj *Prometheus) UpdateStepsTotal(n int) {
	obj.stepsTotal.Add(float64(n))
}

// UpdateReductionTotal counts one instance of function with an outcome.
func (obj *Prometheus) UpdateReductionTotal(function, outcome string) {
	labels := prometheus.Labels{"function": function, "outcome": outcome}
	obj.reductionsTotal.With(labels).Inc()
}

// UpdateTooComplexTotal counts a run that ran out of steps.
func (obj *Prometheus) UpdateTooComplexTotal() {
	obj.tooComplexTotal.Inc()
}

// UpdateReentrantTotal counts a refused nested run.
func (obj *Prometheus) UpdateReentrantTotal() {
	obj.reentrantTotal.Inc()
}
