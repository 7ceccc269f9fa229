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

package funcs

import (
	"context"

	"github.com/purpleidea/typefunc/lang/types"
)

func andFunc(ctx context.Context, tfctx *Context, instance types.TypeID, typeArgs []types.TypeID, packArgs []types.PackID) Reduction {
	if !arity(tfctx, "and", typeArgs, packArgs, 2) {
		return erroneous()
	}
	lhs := types.Follow(typeArgs[0])
	rhs := types.Follow(typeArgs[1])

	// t1 = and<lhs, t1> is lhs, and t1 = and<t1, rhs> is rhs
	if rhs == instance && lhs != rhs {
		return reduced(lhs)
	}
	if lhs == instance && lhs != rhs {
		return reduced(rhs)
	}

	if IsPending(lhs, tfctx.Solver) {
		return blockedOn(lhs)
	}
	if IsPending(rhs, tfctx.Solver) {
		return blockedOn(rhs)
	}

	// a falsy lhs is the answer, otherwise the rhs is
	return shortCircuit(tfctx, lhs, rhs, tfctx.Builtins.Falsy)
}

func orFunc(ctx context.Context, tfctx *Context, instance types.TypeID, typeArgs []types.TypeID, packArgs []types.PackID) Reduction {
	if !arity(tfctx, "or", typeArgs, packArgs, 2) {
		return erroneous()
	}
	lhs := types.Follow(typeArgs[0])
	rhs := types.Follow(typeArgs[1])

	if rhs == instance && lhs != rhs {
		return reduced(lhs)
	}
	if lhs == instance && lhs != rhs {
		return reduced(rhs)
	}

	if isUnresolved(lhs) {
		return blockedOn(lhs)
	}
	if isUnresolved(rhs) {
		return blockedOn(rhs)
	}

	// a truthy lhs is the answer, otherwise the rhs is
	return shortCircuit(tfctx, lhs, rhs, tfctx.Builtins.Truthy)
}

// shortCircuit computes (lhs & filter) | rhs.
func shortCircuit(tfctx *Context, lhs, rhs, filter types.TypeID) Reduction {
	filtered := tfctx.Simplifier.Intersection(lhs, filter)
	overall := tfctx.Simplifier.Union(rhs, filtered.Result)
	blocked := []types.TypeID{}
	blocked = append(blocked, filtered.BlockedTypes...)
	blocked = append(blocked, overall.BlockedTypes...)
	return Reduction{
		Result:       overall.Result,
		Status:       MaybeOk,
		BlockedTypes: blocked,
	}
}
