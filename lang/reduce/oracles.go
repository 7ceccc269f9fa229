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
	"github.com/purpleidea/typefunc/lang/funcs"
	"github.com/purpleidea/typefunc/lang/interfaces"
	"github.com/purpleidea/typefunc/lang/normalize"
	"github.com/purpleidea/typefunc/lang/overload"
	"github.com/purpleidea/typefunc/lang/simplify"
	"github.com/purpleidea/typefunc/lang/subtyping"
	"github.com/purpleidea/typefunc/lang/types"
	"github.com/purpleidea/typefunc/lang/unification"
)

// NewContext builds a reduction context that uses the reference oracles. New
// nodes go into arena. There is no constraint solver and no user runtime, so
// set Solver and Runtime if you need them.
func NewContext(arena *types.Arena, b *types.Builtins) *funcs.Context {
	sub := subtyping.New(b)
	unifier := &unification.Unifier{Arena: arena, Builtins: b}
	inst := &unification.Instantiator{Arena: arena}
	return &funcs.Context{
		Arena:        arena,
		Builtins:     b,
		Normalizer:   normalize.New(arena, b, normalize.Config{}),
		Simplifier:   simplify.New(arena, b, sub),
		Subtyping:    sub,
		Unifier:      unifier,
		Instantiator: inst,
		CallSolver: &overload.Resolver{
			Builtins:     b,
			Instantiator: inst,
			Unifier:      unifier,
			Subtyping:    sub,
		},
		ICE:     &interfaces.PanicReporter{},
		Session: &funcs.Session{},
	}
}
