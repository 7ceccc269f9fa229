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

// typeList is an insertion ordered set of types.
type typeList struct {
	list []types.TypeID
	seen *set.Set[types.TypeID]
}

func newTypeList() *typeList {
	return &typeList{
		list: []types.TypeID{},
		seen: set.New[types.TypeID](0),
	}
}

func (obj *typeList) add(ty types.TypeID) {
	if obj.seen.Insert(ty) {
		obj.list = append(obj.list, ty)
	}
}

// addExpanded adds the options of a union one by one, or the type itself.
func (obj *typeList) addExpanded(ty types.TypeID) {
	ty = types.Follow(ty)
	if u, ok := types.Get[*types.Union](ty); ok {
		for _, option := range u.Options {
			obj.add(types.Follow(option))
		}
		return
	}
	obj.add(ty)
}

// searchPropsAndIndexer looks up key in a set of properties and then in an
// index signature. It returns true if it found something.
func searchPropsAndIndexer(tfctx *Context, key types.TypeID, props map[string]types.Property, indexer *types.Indexer, result *typeList) bool {
	key = types.Follow(key)

	if s, ok := types.Get[*types.StringSingleton](key); ok {
		if prop, exists := props[s.Value]; exists {
			ty, ok := prop.Type()
			if !ok {
				return false
			}
			result.addExpanded(ty)
			return true
		}
	}

	if indexer == nil {
		return false
	}
	keyType := types.Follow(indexer.Key)
	// an index instance as the key type means we are in a cycle, so tie
	// the knot with the value type
	if fi, ok := types.Get[*types.FunctionInstance](keyType); ok && fi.Function != nil && fi.Function.Kind == types.FuncIndex {
		keyType = types.Follow(indexer.Value)
	}
	if !tfctx.Subtyping.IsSubtype(key, keyType) {
		return false
	}
	result.addExpanded(indexer.Value)
	return true
}

// indexInto finds what indexing indexee with key gives.
func indexInto(tfctx *Context, key, indexee types.TypeID, result *typeList, seen *set.Set[types.TypeID], raw bool) bool {
	key = types.Follow(key)
	indexee = types.Follow(indexee)
	if seen.Contains(indexee) {
		return false
	}
	seen.Insert(indexee)

	switch t := indexee.Node().(type) {
	case *types.Union:
		for _, component := range t.Options {
			component = types.Follow(component)
			// already handled as part of an earlier component
			if seen.Contains(component) && component != indexee {
				continue
			}
			if !indexInto(tfctx, key, component, result, seen, raw) {
				return false
			}
		}
		return true

	case *types.Function:
		rets, ok := tfctx.CallSolver.SolveFunctionCall(indexee, tfctx.Arena.NewPack(key))
		if !ok {
			return false
		}
		head := types.Extend(rets, 1)
		if len(head) == 0 {
			return false
		}
		result.add(types.Follow(head[0]))
		return true

	case *types.Table:
		return searchPropsAndIndexer(tfctx, key, t.Props, t.Indexer, result)

	case *types.Metatable:
		if tbl, ok := types.Get[*types.Table](types.Follow(t.Table)); ok {
			if searchPropsAndIndexer(tfctx, key, tbl.Props, tbl.Indexer, result) {
				return true
			}
		}
		if raw {
			return false
		}
		mm, ok := types.FindMetatableEntry(tfctx.Builtins, indexee, "__index")
		if !ok {
			return false
		}
		return indexInto(tfctx, key, mm, result, seen, raw)
	}
	return false
}

// indexFunc returns the reducer of index or rawget.
func indexFunc(name string, raw bool) reducer {
	return func(ctx context.Context, tfctx *Context, instance types.TypeID, typeArgs []types.TypeID, packArgs []types.PackID) Reduction {
		if !arity(tfctx, name, typeArgs, packArgs, 2) {
			return erroneous()
		}
		indexee := types.Follow(typeArgs[0])
		if IsPending(indexee, tfctx.Solver) {
			return blockedOn(indexee)
		}
		indexeeNorm := tfctx.Normalizer.Normalize(indexee)
		if indexeeNorm == nil {
			return unknownYet()
		}
		if indexeeNorm.ShouldSuppressErrors() {
			return reduced(tfctx.Builtins.Any)
		}
		if !onlyTablesOrExterns(indexeeNorm) {
			return erroneous()
		}

		key := types.Follow(typeArgs[1])
		if IsPending(key, tfctx.Solver) {
			return blockedOn(key)
		}
		keyNorm := tfctx.Normalizer.Normalize(key)
		if keyNorm == nil {
			return unknownYet()
		}
		if keyNorm.HasTops() || keyNorm.HasErrors() {
			return erroneous()
		}

		keys := []types.TypeID{key}
		if u, ok := types.Get[*types.Union](key); ok {
			keys = u.Options
		}

		result := newTypeList()
		if indexeeNorm.HasExterns() {
			// like the rawget global, this never works on externs
			if raw {
				return erroneous()
			}
			for _, e := range indexeeNorm.Externs {
				extern, ok := types.Get[*types.Extern](types.Follow(e))
				if !ok {
					return erroneous()
				}
				for _, k := range keys {
					if !indexExtern(tfctx, e, extern, k, result) {
						return erroneous()
					}
				}
			}
		}
		for _, tbl := range indexeeNorm.Tables {
			for _, k := range keys {
				if !indexInto(tfctx, k, tbl, result, set.New[types.TypeID](0), raw) {
					return erroneous()
				}
			}
		}

		switch len(result.list) {
		case 0:
			return reduced(tfctx.Builtins.Never)
		case 1:
			return reduced(result.list[0])
		}
		return reduced(tfctx.Arena.AddType(&types.Union{Options: result.list}))
	}
}

// indexExtern searches an extern, its parents and finally its __index.
func indexExtern(tfctx *Context, id types.TypeID, extern *types.Extern, key types.TypeID, result *typeList) bool {
	if searchPropsAndIndexer(tfctx, key, extern.Props, extern.Indexer, result) {
		return true
	}
	seen := set.From([]*types.Extern{extern})
	for parent := extern.Parent; parent.Valid(); {
		p, ok := types.Get[*types.Extern](types.Follow(parent))
		if !ok {
			break
		}
		if !seen.Insert(p) {
			break
		}
		if searchPropsAndIndexer(tfctx, key, p.Props, p.Indexer, result) {
			return true
		}
		parent = p.Parent
	}

	mm, ok := types.FindMetatableEntry(tfctx.Builtins, id, "__index")
	if !ok {
		return false
	}
	return indexInto(tfctx, key, mm, result, set.New[types.TypeID](0), false)
}
