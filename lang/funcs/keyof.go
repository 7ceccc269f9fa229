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
	"sort"

	"github.com/hashicorp/go-set/v3"
	"github.com/purpleidea/typefunc/lang/interfaces"
	"github.com/purpleidea/typefunc/lang/types"
)

// onlyTablesOrExterns returns false if the normal form has anything but table
// shapes or extern types in it, or has both.
func onlyTablesOrExterns(norm *interfaces.NormalizedType) bool {
	if norm.HasTables() == norm.HasExterns() {
		return false
	}
	return norm.HasOnlyTablesOrExterns()
}

// computeKeysOf adds the keys of ty to keys. It returns false if the answer is
// every string, in which case keys must be ignored. Unless raw is set, the
// __index metamethod is looked through.
func computeKeysOf(tfctx *Context, ty types.TypeID, keys *set.Set[string], seen *set.Set[types.TypeID], raw bool) bool {
	ty = types.Follow(ty)
	// the top table type
	if types.Is[*types.Primitive](ty) {
		return false
	}
	if seen.Contains(ty) {
		return true
	}
	seen.Insert(ty)

	switch t := ty.Node().(type) {
	case *types.Table:
		if t.Indexer != nil && types.IsString(t.Indexer.Key) {
			return false
		}
		for k := range t.Props {
			keys.Insert(k)
		}
		return true

	case *types.Metatable:
		res := true
		if !raw {
			if mm, ok := types.FindMetatableEntry(tfctx.Builtins, ty, "__index"); ok {
				res = res && computeKeysOf(tfctx, mm, keys, seen, raw)
			}
		}
		return res && computeKeysOf(tfctx, t.Table, keys, seen, raw)

	case *types.Extern:
		for k := range t.Props {
			keys.Insert(k)
		}
		res := true
		if t.Metatable.Valid() && !raw {
			if mm, ok := types.FindMetatableEntry(tfctx.Builtins, ty, "__index"); ok {
				res = res && computeKeysOf(tfctx, mm, keys, seen, raw)
			}
		}
		if t.Parent.Valid() {
			res = res && computeKeysOf(tfctx, t.Parent, keys, seen, raw)
		}
		return res
	}

	// normalization only hands us tables and externs here
	return false
}

// commonKeys computes the keys shared by every shape. It returns false if the
// first shape has every string as a key.
func commonKeys(tfctx *Context, shapes []types.TypeID, raw bool) (*set.Set[string], bool) {
	keys := set.New[string](0)
	if !computeKeysOf(tfctx, shapes[0], keys, set.New[types.TypeID](0), raw) {
		return nil, false
	}
	for _, shape := range shapes[1:] {
		local := set.New[string](0)
		// a shape with every key does not narrow anything
		if !computeKeysOf(tfctx, shape, local, set.New[types.TypeID](0), raw) {
			continue
		}
		for _, k := range keys.Slice() {
			if !local.Contains(k) {
				keys.Remove(k)
			}
		}
	}
	return keys, true
}

// keyofFunc returns the reducer of keyof or rawkeyof.
func keyofFunc(name string, raw bool) reducer {
	return func(ctx context.Context, tfctx *Context, instance types.TypeID, typeArgs []types.TypeID, packArgs []types.PackID) Reduction {
		if !arity(tfctx, name, typeArgs, packArgs, 1) {
			return erroneous()
		}
		operand := types.Follow(typeArgs[0])

		norm := tfctx.Normalizer.Normalize(operand)
		if norm == nil {
			return unknownYet()
		}
		if !onlyTablesOrExterns(norm) {
			return erroneous()
		}

		shapes := norm.Tables
		if norm.HasExterns() {
			shapes = norm.Externs
		}
		keys, ok := commonKeys(tfctx, shapes, raw)
		if !ok {
			return reduced(tfctx.Builtins.String)
		}
		if keys.Size() == 0 {
			return reduced(tfctx.Builtins.Never)
		}

		// the empty string is a key like any other
		names := keys.Slice()
		sort.Strings(names)
		singletons := []types.TypeID{}
		for _, k := range names {
			singletons = append(singletons, tfctx.Arena.AddType(&types.StringSingleton{Value: k}))
		}
		if len(singletons) == 1 {
			return reduced(singletons[0])
		}
		return reduced(tfctx.Arena.AddType(&types.Union{Options: singletons}))
	}
}
