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

// Package subtyping is a reference structural subtyping check.
package subtyping

import (
	"github.com/purpleidea/typefunc/lang/types"
)

type pair struct {
	sub, super types.TypeID
}

// Subtyping is the reference implementation of interfaces.Subtyping. Free
// types are treated optimistically: they are a subtype and a supertype of
// everything.
type Subtyping struct {
	Builtins *types.Builtins

	assumed map[pair]struct{}
}

// New builds a subtyping checker.
func New(b *types.Builtins) *Subtyping {
	return &Subtyping{
		Builtins: b,
	}
}

// IsSubtype returns true if every value of sub is a value of super.
func (obj *Subtyping) IsSubtype(sub, super types.TypeID) bool {
	obj.assumed = make(map[pair]struct{})
	return obj.isSubtype(sub, super)
}

// IsSubtypePack is IsSubtype for packs.
func (obj *Subtyping) IsSubtypePack(sub, super types.PackID) bool {
	obj.assumed = make(map[pair]struct{})
	return obj.isSubtypePack(sub, super)
}

func (obj *Subtyping) isSubtype(sub, super types.TypeID) bool {
	sub, super = types.Follow(sub), types.Follow(super)
	if sub == super {
		return true
	}
	key := pair{sub, super}
	if _, exists := obj.assumed[key]; exists {
		return true // coinductive
	}
	obj.assumed[key] = struct{}{}
	defer delete(obj.assumed, key)

	switch super.Node().(type) {
	case *types.Any, *types.Unknown, *types.ErrorType, *types.Free:
		return true
	}
	switch sub.Node().(type) {
	case *types.Never, *types.Any, *types.ErrorType, *types.Free:
		return true
	}

	if u, ok := types.Get[*types.Union](sub); ok {
		for _, x := range u.Options {
			if !obj.isSubtype(x, super) {
				return false
			}
		}
		return true
	}
	if i, ok := types.Get[*types.Intersection](super); ok {
		for _, x := range i.Parts {
			if !obj.isSubtype(sub, x) {
				return false
			}
		}
		return true
	}
	if u, ok := types.Get[*types.Union](super); ok {
		for _, x := range u.Options {
			if obj.isSubtype(sub, x) {
				return true
			}
		}
		return false
	}
	if i, ok := types.Get[*types.Intersection](sub); ok {
		for _, x := range i.Parts {
			if obj.isSubtype(x, super) {
				return true
			}
		}
		return false
	}
	if n, ok := types.Get[*types.Negation](super); ok {
		return types.Disjoint(sub, n.Ty)
	}

	switch p := super.Node().(type) {
	case *types.Primitive:
		return obj.primitive(sub, p)

	case *types.StringSingleton:
		s, ok := types.Get[*types.StringSingleton](sub)
		return ok && s.Value == p.Value

	case *types.BooleanSingleton:
		s, ok := types.Get[*types.BooleanSingleton](sub)
		return ok && s.Value == p.Value

	case *types.Table:
		return obj.table(sub, p)

	case *types.Metatable:
		m, ok := types.Get[*types.Metatable](sub)
		return ok && obj.isSubtype(m.Table, p.Table) && obj.isSubtype(m.Metatable, p.Metatable)

	case *types.Extern:
		e, ok := types.Get[*types.Extern](sub)
		return ok && e.IsSubclassOf(p)

	case *types.Function:
		f, ok := types.Get[*types.Function](sub)
		if !ok {
			return false
		}
		// arguments are contravariant
		return obj.isSubtypePack(p.Args, f.Args) && obj.isSubtypePack(f.Rets, p.Rets)
	}
	return false
}

func (obj *Subtyping) primitive(sub types.TypeID, p *types.Primitive) bool {
	switch s := sub.Node().(type) {
	case *types.Primitive:
		return s.Kind == p.Kind
	case *types.StringSingleton:
		return p.Kind == types.PrimitiveString
	case *types.BooleanSingleton:
		return p.Kind == types.PrimitiveBoolean
	case *types.Function:
		return p.Kind == types.PrimitiveFunction
	case *types.Table, *types.Metatable:
		return p.Kind == types.PrimitiveTable
	}
	return false
}

func (obj *Subtyping) table(sub types.TypeID, super *types.Table) bool {
	if m, ok := types.Get[*types.Metatable](sub); ok {
		sub = types.Follow(m.Table)
	}
	t, ok := types.Get[*types.Table](sub)
	if !ok {
		return false
	}
	for _, k := range super.Keys() {
		sp := super.Props[k]
		p, exists := t.Props[k]
		if !exists {
			// a missing property reads as nil
			if sp.Read.Valid() && !obj.isSubtype(obj.Builtins.Nil, sp.Read) {
				return false
			}
			continue
		}
		if sp.Read.Valid() {
			if !p.Read.Valid() || !obj.isSubtype(p.Read, sp.Read) {
				return false
			}
		}
		if sp.Write.Valid() {
			if !p.Write.Valid() || !obj.isSubtype(sp.Write, p.Write) {
				return false
			}
		}
	}
	if super.Indexer != nil {
		if t.Indexer == nil {
			return len(t.Props) == 0 // an empty table literal fits any indexer
		}
		return obj.isSubtype(t.Indexer.Key, super.Indexer.Key) &&
			obj.isSubtype(super.Indexer.Key, t.Indexer.Key) &&
			obj.isSubtype(t.Indexer.Value, super.Indexer.Value)
	}
	return true
}

func (obj *Subtyping) isSubtypePack(sub, super types.PackID) bool {
	subHead, subTail := types.Flatten(sub)
	superHead, superTail := types.Flatten(super)

	open := func(tail types.PackID) bool {
		switch types.FollowPack(tail).Node().(type) {
		case *types.GenericPack, *types.FreePack, *types.ErrorPack, *types.BlockedPack, *types.FunctionInstancePack:
			return true
		}
		return false
	}
	if (subTail.Valid() && open(subTail)) || (superTail.Valid() && open(superTail)) {
		// compare the common prefix only
		for i := 0; i < len(subHead) && i < len(superHead); i++ {
			if !obj.isSubtype(subHead[i], superHead[i]) {
				return false
			}
		}
		return true
	}

	variadic := func(tail types.PackID) (types.TypeID, bool) {
		v, ok := types.GetPack[*types.VariadicPack](types.FollowPack(tail))
		if !ok {
			return types.TypeID{}, false
		}
		return v.Ty, true
	}
	subVar, subIsVar := variadic(subTail)
	superVar, superIsVar := variadic(superTail)

	n := len(subHead)
	if len(superHead) > n {
		n = len(superHead)
	}
	for i := 0; i < n; i++ {
		var s, p types.TypeID
		switch {
		case i < len(subHead):
			s = subHead[i]
		case subIsVar:
			s = subVar
		default:
			s = obj.Builtins.Nil // missing values are nil
		}
		switch {
		case i < len(superHead):
			p = superHead[i]
		case superIsVar:
			p = superVar
		default:
			continue // extra values are dropped
		}
		if !obj.isSubtype(s, p) {
			return false
		}
	}
	if subIsVar && superIsVar {
		return obj.isSubtype(subVar, superVar)
	}
	return true
}
