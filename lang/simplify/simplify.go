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

// Package simplify is a reference type simplifier. It builds unions and
// intersections that are no bigger than they need to be, and reports the
// types it could not see through.
package simplify

import (
	"github.com/purpleidea/typefunc/lang/interfaces"
	"github.com/purpleidea/typefunc/lang/types"

	"github.com/hashicorp/go-set/v3"
)

const (
	// maxDistribution is the largest union that an intersection is
	// distributed over.
	maxDistribution = 64
)

// Simplifier is the reference implementation of interfaces.Simplifier.
type Simplifier struct {
	Arena    *types.Arena
	Builtins *types.Builtins

	// Subtyping is used to absorb redundant options. If nil, only
	// identical and obviously related types are merged.
	Subtyping interfaces.Subtyping
}

// New builds a simplifier.
func New(arena *types.Arena, b *types.Builtins, subtyping interfaces.Subtyping) *Simplifier {
	return &Simplifier{
		Arena:     arena,
		Builtins:  b,
		Subtyping: subtyping,
	}
}

// isBlocking returns true for a type that the simplifier can not reason about.
func isBlocking(ty types.TypeID) bool {
	switch types.Follow(ty).Node().(type) {
	case *types.Free, *types.Generic, *types.Blocked, *types.PendingExpansion, *types.FunctionInstance:
		return true
	}
	return false
}

// subtype is a conservative subtype check that never looks into blocking
// types.
func (obj *Simplifier) subtype(sub, super types.TypeID) bool {
	sub, super = types.Follow(sub), types.Follow(super)
	if sub == super || types.SameSingleton(sub, super) {
		return true
	}
	if isBlocking(sub) || isBlocking(super) {
		return false
	}
	switch super.Node().(type) {
	case *types.Unknown, *types.Any:
		return true
	}
	if types.Is[*types.Never](sub) {
		return true
	}
	if types.IsSingleton(sub) {
		if p, ok := types.Get[*types.Primitive](super); ok {
			return types.SameCategory(sub, super) && (p.Kind == types.PrimitiveString || p.Kind == types.PrimitiveBoolean)
		}
	}
	if n, ok := types.Get[*types.Negation](super); ok {
		if types.Disjoint(sub, n.Ty) {
			return true
		}
	}
	if obj.Subtyping != nil && !containsBlocking(sub) && !containsBlocking(super) {
		return obj.Subtyping.IsSubtype(sub, super)
	}
	return false
}

func containsBlocking(ty types.TypeID) bool {
	found := false
	w := &types.Walker{
		VisitType: func(w *types.Walker, id types.TypeID) bool {
			if isBlocking(id) {
				found = true
			}
			return !found
		},
	}
	w.Type(ty)
	return found || w.Err() != nil
}

func (obj *Simplifier) options(ty types.TypeID) []types.TypeID {
	ty = types.Follow(ty)
	if u, ok := types.Get[*types.Union](ty); ok {
		out := []types.TypeID{}
		for _, x := range u.Options {
			out = append(out, obj.options(x)...)
		}
		return out
	}
	return []types.TypeID{ty}
}

func blockedOf(ids ...types.TypeID) []types.TypeID {
	out := []types.TypeID{}
	for _, x := range ids {
		if isBlocking(x) {
			out = append(out, types.Follow(x))
		}
	}
	return out
}

// Union returns a simplified a | b.
func (obj *Simplifier) Union(a, b types.TypeID) interfaces.SimplifyResult {
	a, b = types.Follow(a), types.Follow(b)
	res := interfaces.SimplifyResult{BlockedTypes: blockedOf(a, b)}

	switch {
	case a == b:
		res.Result = a
		return res
	case types.Is[*types.Any](a) || types.Is[*types.Any](b):
		res.Result = obj.Builtins.Any
		return res
	case types.Is[*types.Unknown](a) || types.Is[*types.Unknown](b):
		res.Result = obj.Builtins.Unknown
		return res
	case types.Is[*types.Never](a):
		res.Result = b
		return res
	case types.Is[*types.Never](b):
		res.Result = a
		return res
	}

	kept := []types.TypeID{}
	add := func(x types.TypeID) {
		if types.Is[*types.Never](x) {
			return
		}
		for i, y := range kept {
			if obj.subtype(x, y) {
				return
			}
			if obj.subtype(y, x) {
				kept[i] = x
				return
			}
		}
		kept = append(kept, x)
	}
	for _, x := range obj.options(a) {
		add(x)
	}
	for _, x := range obj.options(b) {
		add(x)
	}
	kept = obj.mergeBooleans(kept)

	switch len(kept) {
	case 0:
		res.Result = obj.Builtins.Never
	case 1:
		res.Result = kept[0]
	default:
		res.Result = obj.Arena.AddType(&types.Union{Options: dedupe(kept)})
	}
	return res
}

// mergeBooleans replaces true and false with boolean.
func (obj *Simplifier) mergeBooleans(list []types.TypeID) []types.TypeID {
	t, f := -1, -1
	for i, x := range list {
		if s, ok := types.Get[*types.BooleanSingleton](types.Follow(x)); ok {
			if s.Value {
				t = i
			} else {
				f = i
			}
		}
	}
	if t < 0 || f < 0 {
		return list
	}
	out := []types.TypeID{}
	for i, x := range list {
		switch i {
		case t:
			out = append(out, obj.Builtins.Boolean)
		case f:
		default:
			out = append(out, x)
		}
	}
	return out
}

// dedupe drops repeated types, keeping the first of each.
func dedupe(list []types.TypeID) []types.TypeID {
	seen := set.New[types.TypeID](len(list))
	out := []types.TypeID{}
	for _, x := range list {
		x = types.Follow(x)
		if seen.Insert(x) {
			out = append(out, x)
		}
	}
	return out
}

// Intersection returns a simplified a & b.
func (obj *Simplifier) Intersection(a, b types.TypeID) interfaces.SimplifyResult {
	res := interfaces.SimplifyResult{}
	res.Result = obj.intersect(a, b, &res)
	res.BlockedTypes = dedupe(res.BlockedTypes)
	return res
}

func (obj *Simplifier) intersect(a, b types.TypeID, res *interfaces.SimplifyResult) types.TypeID {
	bi := obj.Builtins
	a, b = types.Follow(a), types.Follow(b)
	switch {
	case a == b, types.SameSingleton(a, b):
		return a
	case types.Is[*types.Never](a) || types.Is[*types.Never](b):
		return bi.Never
	case types.Is[*types.Any](a) || types.Is[*types.Any](b):
		return bi.Any
	case types.Is[*types.Unknown](a):
		return b
	case types.Is[*types.Unknown](b):
		return a
	case types.Is[*types.ErrorType](a) || types.Is[*types.ErrorType](b):
		return bi.Error
	}

	if isBlocking(a) || isBlocking(b) {
		res.BlockedTypes = append(res.BlockedTypes, blockedOf(a, b)...)
		return obj.Arena.AddType(&types.Intersection{Parts: []types.TypeID{a, b}})
	}

	// distribute over unions
	_, aok := types.Get[*types.Union](a)
	_, bok := types.Get[*types.Union](b)
	if aok || bok {
		left, right := obj.options(a), obj.options(b)
		if len(left)*len(right) <= maxDistribution {
			acc := bi.Never
			for _, x := range left {
				for _, y := range right {
					r := obj.intersect(x, y, res)
					u := obj.Union(acc, r)
					res.BlockedTypes = append(res.BlockedTypes, u.BlockedTypes...)
					acc = u.Result
				}
			}
			return acc
		}
		return obj.Arena.AddType(&types.Intersection{Parts: []types.TypeID{a, b}})
	}

	// negations
	if _, ok := types.Get[*types.Negation](a); ok {
		if _, ok := types.Get[*types.Negation](b); !ok {
			a, b = b, a
		}
	}
	if n, ok := types.Get[*types.Negation](b); ok {
		inner := types.Follow(n.Ty)
		if _, ok := types.Get[*types.Negation](a); ok {
			return obj.Arena.AddType(&types.Intersection{Parts: []types.TypeID{a, b}})
		}
		if u, ok := types.Get[*types.Union](inner); ok { // a & ~(x | y) == a & ~x & ~y
			acc := a
			for _, x := range u.Options {
				acc = obj.intersect(acc, obj.Arena.AddType(&types.Negation{Ty: x}), res)
			}
			return acc
		}
		if types.Disjoint(a, inner) {
			return a
		}
		if obj.subtype(a, inner) {
			return bi.Never
		}
		if types.IsPrimitive(a, types.PrimitiveBoolean) {
			if s, ok := types.Get[*types.BooleanSingleton](inner); ok {
				if s.Value {
					return bi.False
				}
				return bi.True
			}
		}
		return obj.Arena.AddType(&types.Intersection{Parts: []types.TypeID{a, b}})
	}

	if types.Disjoint(a, b) {
		return bi.Never
	}
	if obj.subtype(a, b) {
		return a
	}
	if obj.subtype(b, a) {
		return b
	}

	ta, aok2 := types.Get[*types.Table](a)
	tb, bok2 := types.Get[*types.Table](b)
	if aok2 && bok2 {
		return obj.mergeTables(ta, tb, res)
	}

	return obj.Arena.AddType(&types.Intersection{Parts: []types.TypeID{a, b}})
}

// mergeTables intersects two table shapes property by property. A property
// whose read type becomes never makes the whole table never.
func (obj *Simplifier) mergeTables(ta, tb *types.Table, res *interfaces.SimplifyResult) types.TypeID {
	props := make(map[string]types.Property)
	for _, k := range ta.Keys() {
		props[k] = ta.Props[k]
	}
	for _, k := range tb.Keys() {
		p, exists := props[k]
		if !exists {
			props[k] = tb.Props[k]
			continue
		}
		q := tb.Props[k]
		merged := types.Property{}
		switch {
		case p.Read.Valid() && q.Read.Valid():
			merged.Read = obj.intersect(p.Read, q.Read, res)
			if types.Is[*types.Never](merged.Read) {
				return obj.Builtins.Never
			}
		case p.Read.Valid():
			merged.Read = p.Read
		default:
			merged.Read = q.Read
		}
		switch {
		case p.Write.Valid() && q.Write.Valid():
			u := obj.Union(p.Write, q.Write)
			merged.Write = u.Result
		case p.Write.Valid():
			merged.Write = p.Write
		default:
			merged.Write = q.Write
		}
		props[k] = merged
	}
	indexer := ta.Indexer
	if indexer == nil {
		indexer = tb.Indexer
	}
	return obj.Arena.AddType(&types.Table{Props: props, Indexer: indexer})
}

// IntersectWithSimpleDiscriminant handles the cheap refinements: anything
// against unknown, and a table against a single property test.
func (obj *Simplifier) IntersectWithSimpleDiscriminant(target, discriminant types.TypeID) (types.TypeID, bool) {
	target, discriminant = types.Follow(target), types.Follow(discriminant)
	if types.Is[*types.Unknown](target) {
		return discriminant, true
	}

	tt, ok := types.Get[*types.Table](target)
	if !ok {
		return types.TypeID{}, false
	}
	dt, ok := types.Get[*types.Table](discriminant)
	if !ok || len(dt.Props) != 1 || dt.Indexer != nil {
		return types.TypeID{}, false
	}
	key := dt.Keys()[0]
	dp := dt.Props[key]
	if !dp.Read.Valid() || dp.Write.Valid() {
		return types.TypeID{}, false
	}
	tp, exists := tt.Props[key]
	if !exists || !tp.Read.Valid() {
		return types.TypeID{}, false
	}

	res := &interfaces.SimplifyResult{}
	refined := obj.intersect(tp.Read, dp.Read, res)
	if len(res.BlockedTypes) > 0 {
		return types.TypeID{}, false
	}
	if types.Is[*types.Never](refined) {
		return obj.Builtins.Never, true
	}
	props := make(map[string]types.Property, len(tt.Props))
	for _, k := range tt.Keys() {
		props[k] = tt.Props[k]
	}
	props[key] = types.Property{Read: refined, Write: tp.Write}
	return obj.Arena.AddType(&types.Table{Props: props, Indexer: tt.Indexer}), true
}
