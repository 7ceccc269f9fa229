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
	"github.com/purpleidea/typefunc/lang/interfaces"
	"github.com/purpleidea/typefunc/lang/types"
)

// IsPending returns true if a type is not resolved enough for a function to
// look at it. Instances that were already marked stuck or solved are not
// pending: their dependents reduce around them. The solver may be nil.
func IsPending(ty types.TypeID, solver interfaces.ConstraintSolver) bool {
	ty = types.Follow(ty)
	switch t := ty.Node().(type) {
	case *types.FunctionInstance:
		if t.State == types.Unsolved {
			return true
		}
	case *types.Blocked, *types.PendingExpansion:
		return true
	}
	return solver != nil && solver.HasUnresolvedConstraints(ty)
}

// isUnresolved is a weaker test than IsPending that ignores the solver and
// the instance state. It is what the short circuiting functions block on.
func isUnresolved(ty types.TypeID) bool {
	switch types.Follow(ty).Node().(type) {
	case *types.Blocked, *types.PendingExpansion, *types.FunctionInstance:
		return true
	}
	return false
}

// FindUserBlockers returns every pending type reachable from the roots, in
// the order they were found. Externs are not looked into.
func FindUserBlockers(solver interfaces.ConstraintSolver, roots ...types.TypeID) []types.TypeID {
	found := newTypeList()
	w := &types.Walker{
		VisitType: func(w *types.Walker, id types.TypeID) bool {
			if IsPending(id, solver) {
				found.add(id)
			}
			return !types.Is[*types.Extern](id)
		},
	}
	for _, root := range roots {
		w.Type(root)
	}
	return found.list
}

// FindRefinementBlockers returns the blocked and pending expansion types that
// are reachable from ty. Externs are not looked into.
func FindRefinementBlockers(ty types.TypeID) []types.TypeID {
	found := []types.TypeID{}
	w := &types.Walker{
		VisitType: func(w *types.Walker, id types.TypeID) bool {
			switch id.Node().(type) {
			case *types.Blocked, *types.PendingExpansion:
				found = append(found, id)
				return false
			case *types.Extern:
				return false
			}
			return true
		},
	}
	w.Type(ty)
	return found
}

// ContainsRefinableType returns true if a discriminant has any part worth
// refining against. A discriminant made only of the no-refine marker, or of
// structures around it, is not.
func ContainsRefinableType(ty types.TypeID) bool {
	found := false
	w := &types.Walker{
		VisitType: func(w *types.Walker, id types.TypeID) bool {
			if found {
				return false
			}
			switch id.Node().(type) {
			case *types.NoRefine:
				return false
			case *types.Table, *types.Metatable, *types.Function, *types.Union, *types.Intersection, *types.Negation:
				return true
			}
			found = true
			return false
		},
	}
	w.Type(ty)
	return found
}
