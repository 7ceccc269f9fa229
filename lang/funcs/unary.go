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

	"github.com/purpleidea/typefunc/lang/interfaces"
	"github.com/purpleidea/typefunc/lang/types"
)

func notFunc(ctx context.Context, tfctx *Context, instance types.TypeID, typeArgs []types.TypeID, packArgs []types.PackID) Reduction {
	if !arity(tfctx, "not", typeArgs, packArgs, 1) {
		return erroneous()
	}
	ty := types.Follow(typeArgs[0])
	if ty == instance {
		return reduced(tfctx.Builtins.Never)
	}
	if IsPending(ty, tfctx.Solver) {
		return blockedOn(ty)
	}
	if r, ok := tryDistribute(ctx, tfctx, notFunc, instance, typeArgs, packArgs); ok {
		return r
	}
	// `not` always returns a boolean, even for a metatable.
	return reduced(tfctx.Builtins.Boolean)
}

func lenFunc(ctx context.Context, tfctx *Context, instance types.TypeID, typeArgs []types.TypeID, packArgs []types.PackID) Reduction {
	if !arity(tfctx, "len", typeArgs, packArgs, 1) {
		return erroneous()
	}
	operand := types.Follow(typeArgs[0])
	if operand == instance {
		return reduced(tfctx.Builtins.Never)
	}
	if IsPending(operand, tfctx.Solver) {
		return blockedOn(operand)
	}

	norm := tfctx.Normalizer.Normalize(operand)
	inhabited := inhabitance(tfctx, norm)
	if norm == nil || inhabited == interfaces.HitLimits {
		return unknownYet()
	}
	if norm.ShouldSuppressErrors() {
		return reduced(tfctx.Builtins.Number)
	}
	if inhabited == interfaces.Uninhabited || norm.IsSubtypeOfString() {
		return reduced(tfctx.Builtins.Number)
	}

	normalized := types.Follow(tfctx.Normalizer.TypeFromNormal(norm))
	if norm.HasTopTable() || types.Is[*types.Table](normalized) {
		return reduced(tfctx.Builtins.Number)
	}

	if r, ok := tryDistribute(ctx, tfctx, lenFunc, instance, typeArgs, packArgs); ok {
		return r
	}

	mm, ok := types.FindMetatableEntry(tfctx.Builtins, operand, "__len")
	if !ok {
		// a table with a metatable but no __len still has a length
		if types.Is[*types.Metatable](normalized) {
			return reduced(tfctx.Builtins.Number)
		}
		return erroneous()
	}
	if _, r, ok := checkMetamethod(tfctx, mm, operand); !ok {
		return r
	}
	return reduced(tfctx.Builtins.Number)
}

func unmFunc(ctx context.Context, tfctx *Context, instance types.TypeID, typeArgs []types.TypeID, packArgs []types.PackID) Reduction {
	if !arity(tfctx, "unm", typeArgs, packArgs, 1) {
		return erroneous()
	}
	operand := types.Follow(typeArgs[0])
	if operand == instance {
		return reduced(tfctx.Builtins.Never)
	}
	if IsPending(operand, tfctx.Solver) {
		return blockedOn(operand)
	}

	norm := tfctx.Normalizer.Normalize(operand)
	if norm == nil {
		return unknownYet()
	}
	if norm.ShouldSuppressErrors() {
		return reduced(operand)
	}
	if types.Is[*types.Never](operand) {
		return reduced(tfctx.Builtins.Never)
	}
	if norm.IsExactlyNumber() {
		return reduced(tfctx.Builtins.Number)
	}

	if r, ok := tryDistribute(ctx, tfctx, unmFunc, instance, typeArgs, packArgs); ok {
		return r
	}

	mm, ok := types.FindMetatableEntry(tfctx.Builtins, operand, "__unm")
	if !ok {
		return erroneous()
	}
	fn, r, ok := checkMetamethod(tfctx, mm, operand)
	if !ok {
		return r
	}
	ret, ok := types.First(fn.Rets)
	if !ok {
		return erroneous()
	}
	return reduced(ret)
}
