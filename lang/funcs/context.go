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

// Package funcs provides the builtin type functions and the context they are
// reduced in.
package funcs

import (
	"context"

	"github.com/purpleidea/typefunc/lang/interfaces"
	"github.com/purpleidea/typefunc/lang/types"
)

// DefaultCartesianProductLimit is the largest number of argument combinations
// that union distribution will try.
const DefaultCartesianProductLimit = 5000

// UserRuntime evaluates user type functions inside a sandbox.
type UserRuntime interface {
	// AllowEvaluation returns false if user functions must not run. They
	// then reduce to the error type.
	AllowEvaluation() bool

	// Register compiles a definition once so that it can be called and
	// seen from other functions.
	Register(def *types.Definition) error

	// Evaluate runs the function on the given arguments. Every argument
	// has already been checked to be free of blocking types.
	Evaluate(ctx context.Context, tfctx *Context, instance types.TypeID, fn *types.UserFunction, typeArgs []types.TypeID) Reduction
}

// NestedReducer reduces an entry on behalf of a user function, with the
// settings of the run that the user function was called from. It returns the
// messages and errors of the nested run.
type NestedReducer func(ctx context.Context, entry types.TypeID, loc types.Location, tfctx *Context) ([]*interfaces.Diagnostic, error)

// Session is shared by every reduction that belongs to one checking unit. It
// is used to refuse nested reductions.
type Session struct {
	active bool
}

// Enter marks a reduction as running. It returns false if one already is, in
// which case the caller must not reduce and must not call Leave.
func (obj *Session) Enter() bool {
	if obj.active {
		return false
	}
	obj.active = true
	return true
}

// Leave marks the running reduction as done.
func (obj *Session) Leave() { obj.active = false }

// Active returns true while a reduction is running.
func (obj *Session) Active() bool { return obj.active }

// Context is everything a type function may use to compute its result. The
// Solver, Constraint and Runtime fields are optional.
type Context struct {
	Arena    *types.Arena
	Builtins *types.Builtins

	Normalizer   interfaces.Normalizer
	Simplifier   interfaces.Simplifier
	Subtyping    interfaces.Subtyping
	Unifier      interfaces.Unifier
	Instantiator interfaces.Instantiator
	CallSolver   interfaces.CallSolver
	ICE          interfaces.InternalErrorReporter

	Solver     interfaces.ConstraintSolver
	Constraint interfaces.Constraint
	Runtime    UserRuntime

	// Location is where the reduction was requested from.
	Location types.Location

	// CartesianProductLimit bounds union distribution. Zero means the
	// default.
	CartesianProductLimit int

	// Session guards against nested reductions. It may be nil, in which
	// case nesting is not checked.
	Session *Session

	// Nesting is the number of reductions asked for by user functions
	// that this one runs inside of.
	Nesting int

	// Nested is set by the engine while it runs. It may be nil outside of
	// a run.
	Nested NestedReducer

	Debug bool
	Logf  func(format string, v ...interface{})
}

func (obj *Context) productLimit() int {
	if obj.CartesianProductLimit <= 0 {
		return DefaultCartesianProductLimit
	}
	return obj.CartesianProductLimit
}

// ice reports an internal error. The default reporter does not return.
func (obj *Context) ice(msg string) {
	if obj.ICE == nil {
		panic(&interfaces.InternalCompilerError{Message: msg})
	}
	obj.ICE.ICE(msg)
}

func (obj *Context) logf(format string, v ...interface{}) {
	if !obj.Debug || obj.Logf == nil {
		return
	}
	obj.Logf(format, v...)
}

// pushReduce asks the constraint solver, if any, to reduce a type later.
func (obj *Context) pushReduce(ty types.TypeID) {
	if obj.Solver == nil {
		return
	}
	obj.Solver.PushReduceConstraint(obj.Location, ty)
}
