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

// reducer is the shape shared by every builtin type function.
type reducer func(ctx context.Context, tfctx *Context, instance types.TypeID, typeArgs []types.TypeID, packArgs []types.PackID) Reduction

// tryDistribute rewrites f(A | B, C) into f(A, C) | f(B, C). Only the first
// union argument is split here: f recurses into this for the later ones. The
// boolean is false if there is no union argument, or if none of the branches
// produced anything, and the caller should carry on without distributing.
func tryDistribute(ctx context.Context, tfctx *Context, f reducer, instance types.TypeID, typeArgs []types.TypeID, packArgs []types.PackID) (Reduction, bool) {
	limit := tfctx.productLimit()
	product := 1
	index := -1
	var options []types.TypeID
	for i, arg := range typeArgs {
		u, ok := types.Get[*types.Union](types.Follow(arg))
		if !ok {
			continue
		}
		if index < 0 {
			index = i
			options = u.Options
		}
		product *= len(u.Options)
		if limit <= product {
			tfctx.logf("distribution of %s exceeds %d combinations", types.ToString(instance), limit)
			return erroneous(), true
		}
	}
	if index < 0 {
		return Reduction{}, false
	}

	status := MaybeOk
	blocked := []types.TypeID{}
	results := []types.TypeID{}
	for _, option := range options {
		args := append([]types.TypeID{}, typeArgs...)
		args[index] = option
		r := f(ctx, tfctx, instance, args, packArgs)
		blocked = append(blocked, r.BlockedTypes...)
		if r.Status != MaybeOk {
			status = r.Status
		}
		if status != MaybeOk || len(blocked) > 0 {
			break
		}
		if !r.Result.Valid() {
			// a branch that knows nothing makes the whole answer unknown
			return unknownYet(), true
		}
		results = append(results, r.Result)
	}

	if status != MaybeOk || len(blocked) > 0 {
		return Reduction{Status: status, BlockedTypes: blocked}, true
	}
	switch len(results) {
	case 0:
		return Reduction{}, false
	case 1:
		return reduced(results[0]), true
	}

	ty := tfctx.Arena.AddType(&types.FunctionInstance{
		Function: Builtin(types.FuncUnion),
		TypeArgs: results,
	})
	tfctx.pushReduce(ty)
	return reduced(ty), true
}

// checkMetamethod checks that a metamethod can be called with the arguments,
// and returns its instantiated type. If the boolean is false, the reduction
// must be returned as is.
func checkMetamethod(tfctx *Context, mm types.TypeID, args ...types.TypeID) (*types.Function, Reduction, bool) {
	mm = types.Follow(mm)
	if IsPending(mm, tfctx.Solver) {
		return nil, blockedOn(mm), false
	}
	if !types.Is[*types.Function](mm) {
		return nil, erroneous(), false
	}
	inst, ok := tfctx.Instantiator.Instantiate(mm)
	if !ok {
		return nil, erroneous(), false
	}
	fn, ok := types.Get[*types.Function](types.Follow(inst))
	if !ok {
		return nil, reduced(tfctx.Builtins.Error), false
	}

	pack := tfctx.Arena.NewPack(args...)
	if tfctx.Unifier.UnifyPack(pack, fn.Args) != interfaces.UnifyOk {
		return nil, erroneous(), false
	}
	if !tfctx.Subtyping.IsSubtypePack(pack, fn.Args) {
		return nil, erroneous(), false
	}
	return fn, Reduction{}, true
}

// inhabitance asks the normalizer about a normal form that might be missing.
func inhabitance(tfctx *Context, norm *interfaces.NormalizedType) interfaces.Inhabitance {
	if norm == nil {
		return interfaces.HitLimits
	}
	return tfctx.Normalizer.IsInhabited(norm)
}

// arity checks the shape of the arguments of an instance. A mismatch is a bug
// in whoever built the instance.
func arity(tfctx *Context, name string, typeArgs []types.TypeID, packArgs []types.PackID, n int) bool {
	if len(typeArgs) == n && len(packArgs) == 0 {
		return true
	}
	tfctx.ice(name + " type function: encountered a type function instance without the required argument structure")
	return false
}
