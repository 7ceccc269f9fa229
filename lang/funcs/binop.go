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

// metamethods maps each arithmetic and comparison kind to its metamethod.
var metamethods = map[types.FunctionKind]string{
	types.FuncAdd:    "__add",
	types.FuncSub:    "__sub",
	types.FuncMul:    "__mul",
	types.FuncDiv:    "__div",
	types.FuncIdiv:   "__idiv",
	types.FuncPow:    "__pow",
	types.FuncMod:    "__mod",
	types.FuncConcat: "__concat",
	types.FuncLt:     "__lt",
	types.FuncLe:     "__le",
	types.FuncEq:     "__eq",
}

// findBinaryMetamethod looks on the left operand first, then on the right one.
// The boolean reversed is true if the right operand had it.
func findBinaryMetamethod(b *types.Builtins, lhs, rhs types.TypeID, name string) (mm types.TypeID, reversed, ok bool) {
	if mm, ok := types.FindMetatableEntry(b, lhs, name); ok {
		return mm, false, true
	}
	if mm, ok := types.FindMetatableEntry(b, rhs, name); ok {
		return mm, true, true
	}
	return types.TypeID{}, false, false
}

// numericBinop returns the reducer of one arithmetic function.
func numericBinop(name, metamethod string) reducer {
	var f reducer
	f = func(ctx context.Context, tfctx *Context, instance types.TypeID, typeArgs []types.TypeID, packArgs []types.PackID) Reduction {
		if !arity(tfctx, name, typeArgs, packArgs, 2) {
			return erroneous()
		}
		lhs := types.Follow(typeArgs[0])
		rhs := types.Follow(typeArgs[1])

		if lhs == instance || rhs == instance {
			return reduced(tfctx.Builtins.Never)
		}
		// unreachable code can do any arithmetic it wants
		if types.Is[*types.Never](lhs) || types.Is[*types.Never](rhs) {
			return reduced(tfctx.Builtins.Never)
		}
		if IsPending(lhs, tfctx.Solver) {
			return blockedOn(lhs)
		}
		if IsPending(rhs, tfctx.Solver) {
			return blockedOn(rhs)
		}

		lnorm := tfctx.Normalizer.Normalize(lhs)
		rnorm := tfctx.Normalizer.Normalize(rhs)
		if lnorm == nil || rnorm == nil {
			return unknownYet()
		}
		if lnorm.ShouldSuppressErrors() || rnorm.ShouldSuppressErrors() {
			return reduced(tfctx.Builtins.Any)
		}
		if lnorm.IsExactlyNumber() && rnorm.IsExactlyNumber() {
			return reduced(tfctx.Builtins.Number)
		}

		if r, ok := tryDistribute(ctx, tfctx, f, instance, typeArgs, packArgs); ok {
			return r
		}

		mm, reversed, ok := findBinaryMetamethod(tfctx.Builtins, lhs, rhs, metamethod)
		if !ok {
			return erroneous()
		}
		mm = types.Follow(mm)
		if IsPending(mm, tfctx.Solver) {
			return blockedOn(mm)
		}

		args := tfctx.Arena.NewPack(lhs, rhs)
		if reversed {
			args = tfctx.Arena.NewPack(rhs, lhs)
		}
		rets, ok := tfctx.CallSolver.SolveFunctionCall(mm, args)
		if !ok {
			return erroneous()
		}
		head := types.Extend(rets, 1)
		if len(head) == 0 {
			return erroneous()
		}
		return reduced(head[0])
	}
	return f
}

func concatFunc(ctx context.Context, tfctx *Context, instance types.TypeID, typeArgs []types.TypeID, packArgs []types.PackID) Reduction {
	if !arity(tfctx, "concat", typeArgs, packArgs, 2) {
		return erroneous()
	}
	lhs := types.Follow(typeArgs[0])
	rhs := types.Follow(typeArgs[1])

	if lhs == instance || rhs == instance {
		return reduced(tfctx.Builtins.Never)
	}
	if IsPending(lhs, tfctx.Solver) {
		return blockedOn(lhs)
	}
	if IsPending(rhs, tfctx.Solver) {
		return blockedOn(rhs)
	}

	lnorm := tfctx.Normalizer.Normalize(lhs)
	rnorm := tfctx.Normalizer.Normalize(rhs)
	if lnorm == nil || rnorm == nil {
		return unknownYet()
	}
	if lnorm.ShouldSuppressErrors() || rnorm.ShouldSuppressErrors() {
		return reduced(tfctx.Builtins.Any)
	}
	if types.Is[*types.Never](lhs) || types.Is[*types.Never](rhs) {
		return reduced(tfctx.Builtins.Never)
	}
	concatable := func(n *interfaces.NormalizedType) bool {
		return n.IsSubtypeOfString() || n.IsExactlyNumber()
	}
	if concatable(lnorm) && concatable(rnorm) {
		return reduced(tfctx.Builtins.String)
	}

	if r, ok := tryDistribute(ctx, tfctx, concatFunc, instance, typeArgs, packArgs); ok {
		return r
	}

	mm, reversed, ok := findBinaryMetamethod(tfctx.Builtins, lhs, rhs, "__concat")
	if !ok {
		return erroneous()
	}
	args := []types.TypeID{lhs, rhs}
	if reversed {
		args = []types.TypeID{rhs, lhs}
	}
	if _, r, ok := checkMetamethod(tfctx, mm, args...); !ok {
		return r
	}
	return reduced(tfctx.Builtins.String)
}

// comparison returns the reducer of lt or le.
func comparison(name, metamethod string) reducer {
	var f reducer
	f = func(ctx context.Context, tfctx *Context, instance types.TypeID, typeArgs []types.TypeID, packArgs []types.PackID) Reduction {
		if !arity(tfctx, name, typeArgs, packArgs, 2) {
			return erroneous()
		}
		lhs := types.Follow(typeArgs[0])
		rhs := types.Follow(typeArgs[1])

		if lhs == instance || rhs == instance {
			return reduced(tfctx.Builtins.Never)
		}
		if isUnresolved(lhs) {
			return blockedOn(lhs)
		}
		if isUnresolved(rhs) {
			return blockedOn(rhs)
		}

		// lt<'a, number> means that 'a is a number
		if tfctx.Solver != nil && tfctx.Constraint != nil {
			lfree := types.Is[*types.Free](lhs)
			rfree := types.Is[*types.Free](rhs)
			if lfree && types.IsNumber(rhs) {
				if err := tfctx.Solver.Bind(tfctx.Constraint, lhs, tfctx.Builtins.Number); err != nil {
					tfctx.logf("could not bind %s: %+v", types.ToString(lhs), err)
				}
			} else if rfree && types.IsNumber(lhs) {
				if err := tfctx.Solver.Bind(tfctx.Constraint, rhs, tfctx.Builtins.Number); err != nil {
					tfctx.logf("could not bind %s: %+v", types.ToString(rhs), err)
				}
			}
		}
		lhs = types.Follow(lhs)
		rhs = types.Follow(rhs)

		lnorm := tfctx.Normalizer.Normalize(lhs)
		rnorm := tfctx.Normalizer.Normalize(rhs)
		linhabited := inhabitance(tfctx, lnorm)
		rinhabited := inhabitance(tfctx, rnorm)
		if lnorm == nil || rnorm == nil || linhabited == interfaces.HitLimits || rinhabited == interfaces.HitLimits {
			return unknownYet()
		}
		if lnorm.ShouldSuppressErrors() || rnorm.ShouldSuppressErrors() {
			return reduced(tfctx.Builtins.Boolean)
		}
		if linhabited == interfaces.Uninhabited || rinhabited == interfaces.Uninhabited {
			return reduced(tfctx.Builtins.Boolean)
		}
		if lnorm.IsSubtypeOfString() && rnorm.IsSubtypeOfString() {
			return reduced(tfctx.Builtins.Boolean)
		}
		if lnorm.IsExactlyNumber() && rnorm.IsExactlyNumber() {
			return reduced(tfctx.Builtins.Boolean)
		}

		if r, ok := tryDistribute(ctx, tfctx, f, instance, typeArgs, packArgs); ok {
			return r
		}

		mm, _, ok := findBinaryMetamethod(tfctx.Builtins, lhs, rhs, metamethod)
		if !ok {
			return erroneous()
		}
		if _, r, ok := checkMetamethod(tfctx, mm, lhs, rhs); !ok {
			return r
		}
		return reduced(tfctx.Builtins.Boolean)
	}
	return f
}

func eqFunc(ctx context.Context, tfctx *Context, instance types.TypeID, typeArgs []types.TypeID, packArgs []types.PackID) Reduction {
	if !arity(tfctx, "eq", typeArgs, packArgs, 2) {
		return erroneous()
	}
	lhs := types.Follow(typeArgs[0])
	rhs := types.Follow(typeArgs[1])

	if IsPending(lhs, tfctx.Solver) {
		return blockedOn(lhs)
	}
	if IsPending(rhs, tfctx.Solver) {
		return blockedOn(rhs)
	}

	lnorm := tfctx.Normalizer.Normalize(lhs)
	rnorm := tfctx.Normalizer.Normalize(rhs)
	linhabited := inhabitance(tfctx, lnorm)
	rinhabited := inhabitance(tfctx, rnorm)
	if lnorm == nil || rnorm == nil || linhabited == interfaces.HitLimits || rinhabited == interfaces.HitLimits {
		return unknownYet()
	}
	if lnorm.ShouldSuppressErrors() || rnorm.ShouldSuppressErrors() {
		return reduced(tfctx.Builtins.Boolean)
	}
	if linhabited == interfaces.Uninhabited || rinhabited == interfaces.Uninhabited {
		return reduced(tfctx.Builtins.Boolean)
	}

	mm, _, ok := findBinaryMetamethod(tfctx.Builtins, lhs, rhs, "__eq")
	if !ok {
		// without __eq, values of the two types must be able to meet
		switch tfctx.Normalizer.IsIntersectionInhabited(lhs, rhs) {
		case interfaces.Inhabited:
			return reduced(tfctx.Builtins.Boolean)
		case interfaces.Uninhabited:
			if lnorm.IsSubtypeOfString() && rnorm.IsSubtypeOfString() {
				return reduced(tfctx.Builtins.False)
			}
			if lnorm.IsSubtypeOfBooleans() && rnorm.IsSubtypeOfBooleans() {
				return reduced(tfctx.Builtins.False)
			}
		}
		return erroneous()
	}

	if _, r, ok := checkMetamethod(tfctx, mm, lhs, rhs); !ok {
		return r
	}
	return reduced(tfctx.Builtins.Boolean)
}
