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

func setmetatableFunc(ctx context.Context, tfctx *Context, instance types.TypeID, typeArgs []types.TypeID, packArgs []types.PackID) Reduction {
	if !arity(tfctx, "setmetatable", typeArgs, packArgs, 2) {
		return erroneous()
	}
	target := types.Follow(typeArgs[0])
	metatable := types.Follow(typeArgs[1])

	norm := tfctx.Normalizer.Normalize(target)
	if norm == nil {
		return unknownYet()
	}
	if !norm.HasTables() || norm.HasExterns() || !norm.HasOnlyTablesOrExterns() {
		return erroneous()
	}
	if !types.Is[*types.Table](metatable) && !types.Is[*types.Metatable](metatable) {
		return erroneous()
	}

	// a __metatable field locks the metatable
	locked := func(tbl types.TypeID) bool {
		_, ok := types.FindMetatableEntry(tfctx.Builtins, tbl, "__metatable")
		return ok
	}

	if len(norm.Tables) == 1 {
		tbl := norm.Tables[0]
		if locked(tbl) {
			return erroneous()
		}
		return reduced(tfctx.Arena.AddType(&types.Metatable{Table: tbl, Metatable: metatable}))
	}

	result := tfctx.Builtins.Never
	for _, tbl := range norm.Tables {
		if locked(tbl) {
			return erroneous()
		}
		with := tfctx.Arena.AddType(&types.Metatable{Table: tbl, Metatable: metatable})
		res := tfctx.Simplifier.Union(result, with)
		if len(res.BlockedTypes) > 0 {
			return blockedOn(res.BlockedTypes...)
		}
		result = res.Result
	}
	return reduced(result)
}

// getmetatableOf handles one part of the argument of getmetatable.
func getmetatableOf(tfctx *Context, target types.TypeID) Reduction {
	target = types.Follow(target)

	var result types.TypeID
	switch t := target.Node().(type) {
	case *types.Table:
		// no metatable, so nil
	case *types.Metatable:
		result = t.Metatable
	case *types.Extern:
		result = t.Metatable
	case *types.Primitive:
		result = t.Metatable
	case *types.StringSingleton:
		if p, ok := types.Get[*types.Primitive](types.Follow(tfctx.Builtins.String)); ok {
			result = p.Metatable
		}
	case *types.BooleanSingleton:
		// booleans have no metatable
	case *types.Any:
		result = target
	default:
		return erroneous()
	}

	if mm, ok := types.FindMetatableEntry(tfctx.Builtins, target, "__metatable"); ok {
		return reduced(mm)
	}
	if result.Valid() {
		return reduced(result)
	}
	return reduced(tfctx.Builtins.Nil)
}

func getmetatableFunc(ctx context.Context, tfctx *Context, instance types.TypeID, typeArgs []types.TypeID, packArgs []types.PackID) Reduction {
	if !arity(tfctx, "getmetatable", typeArgs, packArgs, 1) {
		return erroneous()
	}
	target := types.Follow(typeArgs[0])
	if IsPending(target, tfctx.Solver) {
		return blockedOn(target)
	}

	switch t := target.Node().(type) {
	case *types.Union:
		options := []types.TypeID{}
		for _, option := range t.Options {
			r := getmetatableOf(tfctx, option)
			if !r.Result.Valid() {
				return r
			}
			options = append(options, r.Result)
		}
		return reduced(tfctx.Arena.AddType(&types.Union{Options: options}))

	case *types.Intersection:
		parts := []types.TypeID{}
		skipped := false
		for _, part := range t.Parts {
			r := getmetatableOf(tfctx, part)
			if !r.Result.Valid() {
				// unknown says nothing about the metatable
				if types.Is[*types.Unknown](part) {
					skipped = true
					continue
				}
				return r
			}
			parts = append(parts, r.Result)
		}
		if skipped && len(parts) == 0 {
			return erroneous()
		}
		if len(parts) == 1 {
			return reduced(parts[0])
		}
		return reduced(tfctx.Arena.AddType(&types.Intersection{Parts: parts}))
	}

	return getmetatableOf(tfctx, target)
}
