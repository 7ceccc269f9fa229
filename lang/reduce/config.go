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

package reduce

import (
	"fmt"

	"github.com/purpleidea/typefunc/lang/funcs"
	"github.com/purpleidea/typefunc/prometheus"
	"github.com/purpleidea/typefunc/util/errwrap"

	"gopkg.in/yaml.v2"
)

const (
	// DefaultMaxSteps is the number of scheduler steps after which a run
	// gives up with a too complex diagnostic.
	DefaultMaxSteps = 1000000

	// DefaultRecursionLimit is the deepest the collector will walk before
	// giving up on a graph.
	DefaultRecursionLimit = 500

	// DefaultGuesserDepth turns the guesser off.
	DefaultGuesserDepth = -1
)

// Config holds the knobs of the reduction engine. Use DefaultConfig as a
// starting point, since a zero GuesserDepth means guess everything nested.
type Config struct {
	// MaxSteps bounds the number of scheduler steps of a run. Zero means
	// DefaultMaxSteps.
	MaxSteps int `yaml:"max-steps"`

	// CartesianProductLimit bounds union distribution. It is only used if
	// the reduction context does not set its own limit.
	CartesianProductLimit int `yaml:"cartesian-product-limit"`

	// GuesserDepth is the instance nesting depth past which instances are
	// guessed instead of reduced. A negative value disables guessing.
	GuesserDepth int `yaml:"guesser-depth"`

	// RecursionLimit bounds the depth of the collector walk. Zero means
	// DefaultRecursionLimit.
	RecursionLimit int `yaml:"recursion-limit"`

	Debug bool `yaml:"debug"`

	Logf func(format string, v ...interface{}) `yaml:"-"`

	// Metrics is optional. It must already be initialized.
	Metrics *prometheus.Prometheus `yaml:"-"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() *Config {
	return &Config{
		MaxSteps:              DefaultMaxSteps,
		CartesianProductLimit: funcs.DefaultCartesianProductLimit,
		GuesserDepth:          DefaultGuesserDepth,
		RecursionLimit:        DefaultRecursionLimit,
	}
}

// ParseConfig reads a YAML configuration. Missing keys keep their default
// value and unknown keys are an error.
func ParseConfig(data []byte) (*Config, error) {
	config := DefaultConfig()
	if err := yaml.UnmarshalStrict(data, config); err != nil {
		return nil, errwrap.Wrapf(err, "could not parse config")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate returns every problem with the configuration at once.
func (obj *Config) Validate() error {
	var reterr error
	if obj.MaxSteps < 0 {
		reterr = errwrap.Append(reterr, fmt.Errorf("max-steps must not be negative, got %d", obj.MaxSteps))
	}
	if obj.CartesianProductLimit < 0 {
		reterr = errwrap.Append(reterr, fmt.Errorf("cartesian-product-limit must not be negative, got %d", obj.CartesianProductLimit))
	}
	if obj.RecursionLimit < 0 {
		reterr = errwrap.Append(reterr, fmt.Errorf("recursion-limit must not be negative, got %d", obj.RecursionLimit))
	}
	return reterr
}

func (obj *Config) maxSteps() int {
	if obj.MaxSteps <= 0 {
		return DefaultMaxSteps
	}
	return obj.MaxSteps
}

func (obj *Config) recursionLimit() int {
	if obj.RecursionLimit <= 0 {
		return DefaultRecursionLimit
	}
	return obj.RecursionLimit
}

func (obj *Config) logf(format string, v ...interface{}) {
	if !obj.Debug || obj.Logf == nil {
		return
	}
	obj.Logf(format, v...)
}
