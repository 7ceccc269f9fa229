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

	"github.com/hashicorp/go-set/v3"
	"github.com/purpleidea/typefunc/lang/types"
)

func refineFunc(ctx context.Context, tfctx *Context, instance types.TypeID, typeArgs []types.TypeID, packArgs []types.PackID) Reduction {
	if len(typeArgs) < 2 || len(packArgs) != 0 {
		tfctx.ice("refine type function: encountered a type function instance without the required argument structure")
		return erroneous()
	}

	// refine<T | t1, D> where t1 is this instance would make a degenerate
	// set type, so the recursive option is cut off first.
	target := types.Follow(typeArgs[0])
	if occurs(target, instance, set.New[types.TypeID](0)) {
		target = scrub(tfctx, target, instance, make(map[types.TypeID]types.TypeID))
	}

	discriminants := []types.TypeID{}
	for _, d := range typeArgs[1:] {
		discriminants = append(discriminants, types.Follow(d))
	}

	if isUnresolved(target) {
		return blockedOn(target)
	}
	for _, d := range discriminants {
		if IsPending(d, tfctx.Solver) {
			return blockedOn(d)
		}
	}

	// refining a target that contains a blocked type would mostly make
	// normalization explode
	if blockers := FindRefinementBlockers(target); len(blockers) > 0 {
		return blockedOn(blockers...)
	}

	// the most recently added discriminant is applied first
	for i := len(discriminants) - 1; i >= 0; i-- {
		refined, blocked := stepRefine(tfctx, target, discriminants[i])
		if len(blocked) > 0 {
			return blockedOn(blocked...)
		}
		if !refined.Valid() {
			return unknownYet()
		}
		target = refined
	}
	return reduced(target)
}

// stepRefine refines a target by one discriminant. If the result is invalid
// and nothing is blocking, the normalizer gave up.
func stepRefine(tfctx *Context, target, discriminant types.TypeID) (types.TypeID, []types.TypeID) {
	if blockers := FindRefinementBlockers(discriminant); len(blockers) > 0 {
		return types.TypeID{}, blockers
	}
	if !ContainsRefinableType(discriminant) {
		return target, nil
	}
	if ty, ok := tfctx.Simplifier.IntersectWithSimpleDiscriminant(target, discriminant); ok {
		return ty, nil
	}

	if neg, ok := types.Get[*types.Negation](discriminant); ok && types.IsNil(neg.Ty) {
		return tfctx.Simplifier.Intersection(target, discriminant).Result, nil
	}

	if types.Is[*types.Table](target) || isTruthyOrFalsy(discriminant) {
		res := tfctx.Simplifier.Intersection(target, discriminant)
		// free and generic types block simplification but not refinement
		for _, b := range res.BlockedTypes {
			switch types.Follow(b).Node().(type) {
			case *types.Free, *types.Generic:
				continue
			}
			return types.TypeID{}, res.BlockedTypes
		}
		return res.Result, nil
	}

	intersection := tfctx.Arena.AddType(&types.Intersection{Parts: []types.TypeID{target, discriminant}})
	normIntersection := tfctx.Normalizer.Normalize(intersection)
	normTarget := tfctx.Normalizer.Normalize(target)
	if normIntersection == nil || normTarget == nil {
		return types.TypeID{}, nil
	}
	result := tfctx.Normalizer.TypeFromNormal(normIntersection)
	// keep the error type of an error suppressing target
	if normTarget.ShouldSuppressErrors() && !normIntersection.ShouldSuppressErrors() {
		result = tfctx.Arena.AddType(&types.Union{Options: []types.TypeID{result, tfctx.Builtins.Error}})
	}
	return result, nil
}

// isFalsy returns true for false | nil, in either order.
func isFalsy(ty types.TypeID) bool {
	u, ok := types.Get[*types.Union](types.Follow(ty))
	if !ok {
		return false
	}
	seenNil, seenFalse := false, false
	for _, option := range u.Options {
		option = types.Follow(option)
		if types.IsNil(option) {
			seenNil = true
			continue
		}
		if b, ok := types.Get[*types.BooleanSingleton](option); ok && !b.Value {
			seenFalse = true
			continue
		}
		return false
	}
	return seenNil && seenFalse
}

func isTruthyOrFalsy(ty types.TypeID) bool {
	ty = types.Follow(ty)
	if neg, ok := types.Get[*types.Negation](ty); ok {
		return isFalsy(neg.Ty)
	}
	return isFalsy(ty)
}

// occurs returns true if needle is haystack, or one of its union or
// intersection members, at any depth.
func occurs(haystack, needle types.TypeID, seen *set.Set[types.TypeID]) bool {
	haystack = types.Follow(haystack)
	if haystack == needle {
		return true
	}
	if !seen.Insert(haystack) {
		return false
	}

	var members []types.TypeID
	switch t := haystack.Node().(type) {
	case *types.Union:
		members = t.Options
	case *types.Intersection:
		members = t.Parts
	}
	for _, m := range members {
		if occurs(m, needle, seen) {
			return true
		}
	}
	return false
}

// scrub removes needle from every union and intersection it is a direct
// member of, looking only through nested unions and intersections.
func scrub(tfctx *Context, ty, needle types.TypeID, seen map[types.TypeID]types.TypeID) types.TypeID {
	ty = types.Follow(ty)
	if r, exists := seen[ty]; exists {
		return r
	}
	seen[ty] = ty

	var members []types.TypeID
	isUnion := false
	switch t := ty.Node().(type) {
	case *types.Union:
		members = t.Options
		isUnion = true
	case *types.Intersection:
		members = t.Parts
	default:
		return ty
	}

	dirty, changed := false, false
	kept := []types.TypeID{}
	for _, m := range members {
		m = types.Follow(m)
		if m == needle {
			dirty = true
			continue
		}
		n := scrub(tfctx, m, needle, seen)
		if n != m {
			changed = true
		}
		kept = append(kept, n)
	}
	if !dirty && !changed {
		return ty
	}

	if dirty {
		// the identity of the set operator can be dropped too
		filtered := []types.TypeID{}
		for _, m := range kept {
			if isUnion && types.Is[*types.Never](m) {
				continue
			}
			if !isUnion && types.Is[*types.Unknown](m) {
				continue
			}
			filtered = append(filtered, m)
		}
		kept = filtered
	}

	var result types.TypeID
	switch {
	case len(kept) == 0 && isUnion:
		result = tfctx.Builtins.Never
	case len(kept) == 0:
		result = tfctx.Builtins.Unknown
	case len(kept) == 1:
		result = kept[0]
	case isUnion:
		result = tfctx.Arena.AddType(&types.Union{Options: kept})
	default:
		result = tfctx.Arena.AddType(&types.Intersection{Parts: kept})
	}
	seen[ty] = result
	return result
}
