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

// Package unification is a reference unifier. It learns bindings for free
// types so that one type may be used where another is expected, and it can
// instantiate generic function types with fresh free types.
package unification

import (
	"github.com/purpleidea/typefunc/lang/interfaces"
	"github.com/purpleidea/typefunc/lang/types"
	"github.com/purpleidea/typefunc/util"
)

const (
	// ErrOccursCheck is returned when a free type would contain itself.
	ErrOccursCheck = util.Error("occurs check failed")

	// DefaultIterationLimit is the number of unify steps before giving up.
	DefaultIterationLimit = 10000
)

// Unifier is the reference implementation of interfaces.Unifier. A free type
// that meets another type is bound to it.
type Unifier struct {
	Arena    *types.Arena
	Builtins *types.Builtins

	// Limit is the iteration limit. Zero means the default.
	Limit int

	Debug bool
	Logf  func(format string, v ...interface{})

	steps int
	seen  map[[2]types.TypeID]struct{}
}

// Unify tries to make sub usable where super is expected.
func (obj *Unifier) Unify(sub, super types.TypeID) interfaces.UnifyResult {
	obj.steps = 0
	obj.seen = make(map[[2]types.TypeID]struct{})
	return result(obj.unify(sub, super))
}

// UnifyPack is Unify for packs.
func (obj *Unifier) UnifyPack(sub, super types.PackID) interfaces.UnifyResult {
	obj.steps = 0
	obj.seen = make(map[[2]types.TypeID]struct{})
	return result(obj.unifyPack(sub, super))
}

func result(err error) interfaces.UnifyResult {
	switch err {
	case nil:
		return interfaces.UnifyOk
	case ErrOccursCheck:
		return interfaces.UnifyOccursCheckFailed
	}
	return interfaces.UnifyTooComplex
}

func (obj *Unifier) limit() int {
	if obj.Limit > 0 {
		return obj.Limit
	}
	return DefaultIterationLimit
}

// learn binds a free type after checking that it does not occur in the other
// side.
func (obj *Unifier) learn(free, ty types.TypeID) error {
	if err := OccursCheck(free, ty); err != nil {
		return err
	}
	if obj.Debug && obj.Logf != nil {
		obj.Logf("unify: %s := %s", free, ty)
	}
	if err := obj.Arena.Bind(free, ty); err != nil && err != types.ErrForeignArena {
		return err
	}
	return nil
}

func (obj *Unifier) unify(sub, super types.TypeID) error {
	obj.steps++
	if obj.steps > obj.limit() {
		return types.ErrRecursionLimit
	}
	sub, super = types.Follow(sub), types.Follow(super)
	if sub == super {
		return nil
	}
	key := [2]types.TypeID{sub, super}
	if _, exists := obj.seen[key]; exists {
		return nil
	}
	obj.seen[key] = struct{}{}

	// Here we have one side that is a free type, and the other one might
	// be anything at all, including another free type.
	if _, ok := types.Get[*types.Free](sub); ok {
		return obj.learn(sub, super)
	}
	if _, ok := types.Get[*types.Free](super); ok {
		return obj.learn(super, sub)
	}

	// At this point both sides are known, so the shapes have to line up
	// for anything more to be learned.
	switch p := super.Node().(type) {
	case *types.Union:
		if _, ok := types.Get[*types.Union](sub); ok {
			return nil
		}
		// a single free option can absorb the sub type
		frees := []types.TypeID{}
		for _, x := range p.Options {
			if types.Is[*types.Free](x) {
				frees = append(frees, types.Follow(x))
			}
		}
		if len(frees) == 1 && len(p.Options) == 2 {
			return obj.learn(frees[0], sub)
		}
		return nil

	case *types.Intersection:
		for _, x := range p.Parts {
			if err := obj.unify(sub, x); err != nil {
				return err
			}
		}
		return nil

	case *types.Table:
		s, ok := types.Get[*types.Table](sub)
		if m, isMeta := types.Get[*types.Metatable](sub); isMeta {
			s, ok = types.Get[*types.Table](types.Follow(m.Table))
		}
		if !ok {
			return nil
		}
		for _, k := range p.Keys() {
			sp, exists := s.Props[k]
			if !exists {
				continue
			}
			q := p.Props[k]
			if sp.Read.Valid() && q.Read.Valid() {
				if err := obj.unify(sp.Read, q.Read); err != nil {
					return err
				}
			}
			if sp.Write.Valid() && q.Write.Valid() {
				if err := obj.unify(q.Write, sp.Write); err != nil {
					return err
				}
			}
		}
		if s.Indexer != nil && p.Indexer != nil {
			if err := obj.unify(s.Indexer.Key, p.Indexer.Key); err != nil {
				return err
			}
			return obj.unify(s.Indexer.Value, p.Indexer.Value)
		}
		return nil

	case *types.Metatable:
		s, ok := types.Get[*types.Metatable](sub)
		if !ok {
			return nil
		}
		if err := obj.unify(s.Table, p.Table); err != nil {
			return err
		}
		return obj.unify(s.Metatable, p.Metatable)

	case *types.Function:
		s, ok := types.Get[*types.Function](sub)
		if !ok {
			return nil
		}
		if err := obj.unifyPack(p.Args, s.Args); err != nil {
			return err
		}
		return obj.unifyPack(s.Rets, p.Rets)
	}

	if u, ok := types.Get[*types.Union](sub); ok {
		for _, x := range u.Options {
			if err := obj.unify(x, super); err != nil {
				return err
			}
		}
	}
	return nil
}

func (obj *Unifier) unifyPack(sub, super types.PackID) error {
	sub, super = types.FollowPack(sub), types.FollowPack(super)
	if sub == super {
		return nil
	}
	subHead, subTail := types.Flatten(sub)
	superHead, superTail := types.Flatten(super)

	i := 0
	for ; i < len(subHead) && i < len(superHead); i++ {
		if err := obj.unify(subHead[i], superHead[i]); err != nil {
			return err
		}
	}

	// a free tail absorbs whatever is left on the other side
	if _, ok := types.GetPack[*types.FreePack](subTail); ok && i == len(subHead) {
		rest := obj.Arena.AddPack(&types.TypePack{Head: superHead[i:], Tail: superTail})
		return obj.bindPack(subTail, rest)
	}
	if _, ok := types.GetPack[*types.FreePack](superTail); ok && i == len(superHead) {
		rest := obj.Arena.AddPack(&types.TypePack{Head: subHead[i:], Tail: subTail})
		return obj.bindPack(superTail, rest)
	}

	sv, subVar := types.GetPack[*types.VariadicPack](subTail)
	pv, superVar := types.GetPack[*types.VariadicPack](superTail)
	for j := i; j < len(subHead) && superVar; j++ {
		if err := obj.unify(subHead[j], pv.Ty); err != nil {
			return err
		}
	}
	for j := i; j < len(superHead) && subVar; j++ {
		if err := obj.unify(sv.Ty, superHead[j]); err != nil {
			return err
		}
	}
	if subVar && superVar {
		return obj.unify(sv.Ty, pv.Ty)
	}
	return nil
}

func (obj *Unifier) bindPack(free, to types.PackID) error {
	if types.FollowPack(to) == types.FollowPack(free) {
		return nil
	}
	if err := obj.Arena.BindPack(free, to); err != nil && err != types.ErrForeignArena {
		return err
	}
	return nil
}

// OccursCheck returns ErrOccursCheck if the free type appears inside ty.
func OccursCheck(free, ty types.TypeID) error {
	free = types.Follow(free)
	ty = types.Follow(ty)
	if free == ty {
		return nil // binding a type to itself is a no-op
	}
	found := false
	w := &types.Walker{
		VisitType: func(w *types.Walker, id types.TypeID) bool {
			if id == free {
				found = true
			}
			return !found
		},
	}
	w.Children(ty)
	if found {
		return ErrOccursCheck
	}
	return nil
}
