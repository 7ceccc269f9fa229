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

// Package overload resolves calls against function types. An intersection of
// function types is an overloaded function, and the first overload that
// accepts the arguments wins.
package overload

import (
	"github.com/purpleidea/typefunc/lang/interfaces"
	"github.com/purpleidea/typefunc/lang/types"
)

// Resolver is the reference implementation of interfaces.CallSolver.
type Resolver struct {
	Builtins     *types.Builtins
	Instantiator interfaces.Instantiator
	Unifier      interfaces.Unifier
	Subtyping    interfaces.Subtyping

	Debug bool
	Logf  func(format string, v ...interface{})
}

// SolveFunctionCall returns the return pack of the first overload of fn that
// accepts args.
func (obj *Resolver) SolveFunctionCall(fn types.TypeID, args types.PackID) (types.PackID, bool) {
	fn = types.Follow(fn)
	switch t := fn.Node().(type) {
	case *types.Any, *types.ErrorType:
		return obj.Builtins.AnyPack, true

	case *types.Function:
		return obj.try(fn, args)

	case *types.Intersection:
		for i, x := range t.Parts {
			if rets, ok := obj.try(x, args); ok {
				if obj.Debug && obj.Logf != nil {
					obj.Logf("overload: picked #%d of %s", i, fn)
				}
				return rets, true
			}
		}
	}
	return types.PackID{}, false
}

func (obj *Resolver) try(overload types.TypeID, args types.PackID) (types.PackID, bool) {
	inst, ok := obj.Instantiator.Instantiate(overload)
	if !ok {
		return types.PackID{}, false
	}
	f, ok := types.Get[*types.Function](types.Follow(inst))
	if !ok {
		return types.PackID{}, false
	}
	if obj.Unifier.UnifyPack(args, f.Args) != interfaces.UnifyOk {
		return types.PackID{}, false
	}
	if !obj.Subtyping.IsSubtypePack(args, f.Args) {
		return types.PackID{}, false
	}
	return f.Rets, true
}
