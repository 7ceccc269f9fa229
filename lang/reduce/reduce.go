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

// Package reduce is the type function reduction engine. Given an entry type or
// type pack, it finds every type function instance reachable from it, and
// reduces them in dependency order until nothing more can be done. Reduced
// instances are replaced in place by their result.
package reduce

import (
	"context"

	"github.com/purpleidea/typefunc/lang/funcs"
	"github.com/purpleidea/typefunc/lang/interfaces"
	"github.com/purpleidea/typefunc/lang/types"
)

// Engine runs reductions with a fixed configuration. It holds no state between
// runs, but the reduction context it is given usually does.
type Engine struct {
	config *Config
}

// New builds an engine. A nil config means DefaultConfig.
func New(config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	return &Engine{config: config}
}

// Config returns the configuration of the engine.
func (obj *Engine) Config() *Config { return obj.config }

// ReduceType reduces every instance reachable from entry. With force set, an
// instance that can not reduce is reported as uninhabited, even if it is only
// waiting on something. The context is passed to user functions, which stop
// when it is cancelled.
func (obj *Engine) ReduceType(ctx context.Context, entry types.TypeID, loc types.Location, tfctx *funcs.Context, force bool) *Result {
	c, err := collectType(entry, obj.config.GuesserDepth, obj.config.recursionLimit())
	if err != nil {
		obj.config.logf("could not collect %s: %+v", types.ToString(entry), err)
		return newRecorder().result
	}
	return obj.run(ctx, loc, tfctx, force, c)
}

// ReducePack is ReduceType for a type pack.
func (obj *Engine) ReducePack(ctx context.Context, entry types.PackID, loc types.Location, tfctx *funcs.Context, force bool) *Result {
	c, err := collectPack(entry, obj.config.GuesserDepth, obj.config.recursionLimit())
	if err != nil {
		obj.config.logf("could not collect %s: %+v", types.PackString(entry), err)
		return newRecorder().result
	}
	return obj.run(ctx, loc, tfctx, force, c)
}

func (obj *Engine) run(ctx context.Context, loc types.Location, tfctx *funcs.Context, force bool, c *collection) *Result {
	if len(c.Types) == 0 && len(c.Packs) == 0 {
		return newRecorder().result
	}

	if tfctx.Session != nil {
		if !tfctx.Session.Enter() {
			obj.config.logf("refusing a nested reduction at %s", loc)
			if m := obj.config.Metrics; m != nil {
				m.UpdateReentrantTotal()
			}
			return newRecorder().result
		}
		defer tfctx.Session.Leave()
	}
	if m := obj.config.Metrics; m != nil {
		m.UpdateRunTotal()
	}

	// fill in what the caller left out, and put it back afterwards
	if tfctx.CartesianProductLimit == 0 {
		tfctx.CartesianProductLimit = obj.config.CartesianProductLimit
		defer func() { tfctx.CartesianProductLimit = 0 }()
	}
	if tfctx.Logf == nil && obj.config.Logf != nil {
		debug := tfctx.Debug
		tfctx.Debug = obj.config.Debug
		tfctx.Logf = obj.config.Logf
		defer func() {
			tfctx.Debug = debug
			tfctx.Logf = nil
		}()
	}
	if tfctx.Nested == nil {
		tfctx.Nested = obj.Nested
		defer func() { tfctx.Nested = nil }()
	}
	location := tfctx.Location
	tfctx.Location = loc
	defer func() { tfctx.Location = location }()

	obj.config.logf("reducing %d types and %d packs at %s", len(c.Types), len(c.Packs), loc)
	s := newScheduler(obj.config, tfctx, loc, force, c)
	s.run(ctx)
	return s.rec.result
}

// Nested reduces an entry that a user function asked for. It is what the
// engine hands to user functions as funcs.Context.Nested.
func (obj *Engine) Nested(ctx context.Context, entry types.TypeID, loc types.Location, tfctx *funcs.Context) ([]*interfaces.Diagnostic, error) {
	result := obj.ReduceType(ctx, entry, loc, tfctx, false)
	return result.Messages, result.Err()
}

// ReduceType runs ReduceType on an engine with the default configuration.
func ReduceType(ctx context.Context, entry types.TypeID, loc types.Location, tfctx *funcs.Context, force bool) *Result {
	return New(nil).ReduceType(ctx, entry, loc, tfctx, force)
}

// ReducePack runs ReducePack on an engine with the default configuration.
func ReducePack(ctx context.Context, entry types.PackID, loc types.Location, tfctx *funcs.Context, force bool) *Result {
	return New(nil).ReducePack(ctx, entry, loc, tfctx, force)
}
