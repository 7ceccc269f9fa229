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

func singletonFunc(ctx context.Context, tfctx *Context, instance types.TypeID, typeArgs []types.TypeID, packArgs []types.PackID) Reduction {
	if !arity(tfctx, "singleton", typeArgs, packArgs, 1) {
		return erroneous()
	}
	ty := types.Follow(typeArgs[0])
	if IsPending(ty, tfctx.Solver) {
		return blockedOn(ty)
	}

	followed := ty
	if neg, ok := types.Get[*types.Negation](followed); ok {
		followed = types.Follow(neg.Ty)
	}
	// nil is its own singleton
	if types.IsSingleton(followed) || types.IsNil(followed) {
		return reduced(ty)
	}
	return reduced(tfctx.Builtins.Unknown)
}

// CollectUnionOptions flattens the arguments of a union instance, looking
// through literal unions and nested union instances. The blocking list holds
// every option that is pending, and every instance of another function.
func CollectUnionOptions(instance types.TypeID, solver interfaces.ConstraintSolver) (options, blocking []types.TypeID) {
	options = []types.TypeID{}
	blocking = []types.TypeID{}
	w := &types.Walker{
		VisitType: func(w *types.Walker, id types.TypeID) bool {
			switch t := id.Node().(type) {
			case *types.Union:
				return true
			case *types.FunctionInstance:
				if t.Function != nil && t.Function.Kind == types.FuncUnion {
					return true
				}
				options = append(options, id)
				blocking = append(blocking, id)
				return false
			}
			options = append(options, id)
			if IsPending(id, solver) {
				blocking = append(blocking, id)
			}
			return false
		},
		VisitPack: func(w *types.Walker, id types.PackID) bool {
			return false
		},
	}
	w.Type(instance)
	return options, blocking
}

func unionFunc(ctx context.Context, tfctx *Context, instance types.TypeID, typeArgs []types.TypeID, packArgs []types.PackID) Reduction {
	if len(packArgs) != 0 {
		tfctx.ice("union type function: encountered a type function instance without the required argument structure")
		return erroneous()
	}
	if len(typeArgs) == 1 {
		return reduced(types.Follow(typeArgs[0]))
	}

	options, blocking := CollectUnionOptions(instance, tfctx.Solver)
	if len(blocking) > 0 {
		return blockedOn(blocking...)
	}

	result := tfctx.Builtins.Never
	for _, ty := range options {
		res := tfctx.Simplifier.Union(result, ty)
		// a free type deep inside an option can still block here
		if len(res.BlockedTypes) > 0 {
			return blockedOn(res.BlockedTypes...)
		}
		result = res.Result
	}
	return reduced(result)
}

func intersectFunc(ctx context.Context, tfctx *Context, instance types.TypeID, typeArgs []types.TypeID, packArgs []types.PackID) Reduction {
	if len(packArgs) != 0 {
		tfctx.ice("intersect type function: encountered a type function instance without the required argument structure")
		return erroneous()
	}
	if len(typeArgs) == 1 {
		return reduced(types.Follow(typeArgs[0]))
	}

	args := []types.TypeID{}
	for _, ty := range typeArgs {
		args = append(args, types.Follow(ty))
	}
	if len(args) == 2 && types.Is[*types.NoRefine](args[1]) {
		return reduced(args[0])
	}
	if len(args) == 2 && types.Is[*types.NoRefine](args[0]) {
		return reduced(args[1])
	}

	for _, ty := range args {
		if IsPending(ty, tfctx.Solver) {
			return blockedOn(ty)
		}
		if types.Is[*types.Never](ty) {
			return reduced(tfctx.Builtins.Never)
		}
	}

	result := tfctx.Builtins.Unknown
	// operands that made the running result empty are kept apart so that
	// the answer stays readable
	unintersectable := []types.TypeID{}
	addUnintersectable := func(ty types.TypeID) {
		for _, x := range unintersectable {
			if x == ty {
				return
			}
		}
		unintersectable = append(unintersectable, ty)
	}
	for _, ty := range args {
		if types.Is[*types.NoRefine](ty) {
			continue
		}
		if simple, ok := tfctx.Simplifier.IntersectWithSimpleDiscriminant(result, ty); ok {
			if types.Is[*types.Never](simple) {
				addUnintersectable(ty)
			} else {
				result = simple
			}
			continue
		}

		res := tfctx.Simplifier.Intersection(result, ty)
		if types.Is[*types.Never](res.Result) {
			addUnintersectable(ty)
			continue
		}
		for _, b := range res.BlockedTypes {
			if !types.Is[*types.Generic](b) {
				return blockedOn(res.BlockedTypes...)
			}
		}
		result = res.Result
	}

	if len(unintersectable) > 0 {
		addUnintersectable(types.Follow(result))
		if len(unintersectable) == 1 {
			return reduced(unintersectable[0])
		}
		return reduced(tfctx.Arena.AddType(&types.Intersection{Parts: unintersectable}))
	}
	// never on its own explains nothing, so show the operands instead
	if types.Is[*types.Never](result) {
		parts := append([]types.TypeID{}, typeArgs...)
		return reduced(tfctx.Arena.AddType(&types.Intersection{Parts: parts}))
	}
	return reduced(result)
}

func weakoptionalFunc(ctx context.Context, tfctx *Context, instance types.TypeID, typeArgs []types.TypeID, packArgs []types.PackID) Reduction {
	if !arity(tfctx, "weakoptional", typeArgs, packArgs, 1) {
		return erroneous()
	}
	target := types.Follow(typeArgs[0])
	if IsPending(target, tfctx.Solver) {
		return blockedOn(target)
	}
	if types.Is[*types.Never](target) {
		return reduced(tfctx.Builtins.Nil)
	}

	norm := tfctx.Normalizer.Normalize(target)
	if norm == nil {
		return unknownYet()
	}
	if tfctx.Normalizer.IsInhabited(norm) == interfaces.Uninhabited {
		return reduced(tfctx.Builtins.Nil)
	}
	return reduced(target)
}
