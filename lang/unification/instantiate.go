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

package unification

import (
	"github.com/purpleidea/typefunc/lang/types"
)

// Instantiator replaces the generics of a function type with fresh free
// types, allocated in Arena.
type Instantiator struct {
	Arena *types.Arena
}

// Instantiate returns a copy of a generic function type in which every
// generic is a fresh free type. Types that are not generic functions are
// returned unchanged. Intersections of functions are instantiated part by
// part.
func (obj *Instantiator) Instantiate(ty types.TypeID) (types.TypeID, bool) {
	ty = types.Follow(ty)
	switch t := ty.Node().(type) {
	case *types.Function:
		if len(t.Generics) == 0 && len(t.GenericPacks) == 0 {
			return ty, true
		}
		sub := types.NewSubstitution(obj.Arena)
		for _, g := range t.Generics {
			sub.Types[types.Follow(g)] = obj.Arena.AddType(&types.Free{})
		}
		for _, g := range t.GenericPacks {
			sub.Packs[types.FollowPack(g)] = obj.Arena.AddPack(&types.FreePack{})
		}
		return sub.Type(ty), true

	case *types.Intersection:
		parts := []types.TypeID{}
		changed := false
		for _, x := range t.Parts {
			p, ok := obj.Instantiate(x)
			if !ok {
				return types.TypeID{}, false
			}
			changed = changed || p != types.Follow(x)
			parts = append(parts, p)
		}
		if !changed {
			return ty, true
		}
		return obj.Arena.AddType(&types.Intersection{Parts: parts}), true
	}
	return ty, true
}
