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

package reduce

import (
	"github.com/hashicorp/go-set/v3"
	"github.com/purpleidea/typefunc/lang/types"
)

// collection is what the collector found below an entry point.
type collection struct {
	// Types and Packs are the function instances, innermost first.
	Types []types.TypeID
	Packs []types.PackID

	// Guess holds the instances nested deeper than the guesser depth.
	Guess      *set.Set[types.TypeID]
	GuessPacks *set.Set[types.PackID]

	// Cyclic holds the instances that can reach themselves through their
	// own arguments.
	Cyclic *set.Set[types.TypeID]
}

// collector walks a graph once and records every function instance in it.
// Nothing in the graph is modified.
type collector struct {
	guesserDepth   int
	recursionLimit int

	found *collection

	// stack holds the instances being walked, outermost first
	stack []interface{}
}

func newCollector(guesserDepth, recursionLimit int) *collector {
	return &collector{
		guesserDepth:   guesserDepth,
		recursionLimit: recursionLimit,
		found: &collection{
			Types:      []types.TypeID{},
			Packs:      []types.PackID{},
			Guess:      set.New[types.TypeID](0),
			GuessPacks: set.New[types.PackID](0),
			Cyclic:     set.New[types.TypeID](0),
		},
		stack: []interface{}{},
	}
}

func (obj *collector) onStack(id types.TypeID) bool {
	for _, x := range obj.stack {
		if x == interface{}(id) {
			return true
		}
	}
	return false
}

func (obj *collector) deep() bool {
	return obj.guesserDepth >= 0 && len(obj.stack) > obj.guesserDepth
}

func (obj *collector) walker() *types.Walker {
	return &types.Walker{
		Limit: obj.recursionLimit,
		VisitType: func(w *types.Walker, id types.TypeID) bool {
			switch id.Node().(type) {
			case *types.FunctionInstance:
				obj.stack = append(obj.stack, id)
				if obj.deep() {
					obj.found.Guess.Insert(id)
				}
				// pre-order, reversed at the end
				obj.found.Types = append(obj.found.Types, id)
				w.Children(id)
				obj.stack = obj.stack[:len(obj.stack)-1]
				return false

			case *types.Extern:
				return false
			}
			return true
		},
		VisitPack: func(w *types.Walker, id types.PackID) bool {
			if _, ok := id.Node().(*types.FunctionInstancePack); !ok {
				return true
			}
			obj.stack = append(obj.stack, id)
			if obj.deep() {
				obj.found.GuessPacks.Insert(id)
			}
			obj.found.Packs = append(obj.found.Packs, id)
			w.PackChildren(id)
			obj.stack = obj.stack[:len(obj.stack)-1]
			return false
		},
		Cycle: func(w *types.Walker, id types.TypeID) {
			// seeing an instance again is only a cycle if we are inside of
			// it, otherwise it is just shared
			if types.Is[*types.FunctionInstance](id) && obj.onStack(id) {
				obj.found.Cyclic.Insert(id)
			}
		},
	}
}

// finish puts the instances in innermost first order.
func (obj *collector) finish() *collection {
	for i, j := 0, len(obj.found.Types)-1; i < j; i, j = i+1, j-1 {
		obj.found.Types[i], obj.found.Types[j] = obj.found.Types[j], obj.found.Types[i]
	}
	for i, j := 0, len(obj.found.Packs)-1; i < j; i, j = i+1, j-1 {
		obj.found.Packs[i], obj.found.Packs[j] = obj.found.Packs[j], obj.found.Packs[i]
	}
	return obj.found
}

// collectType finds every function instance reachable from a type. It
// returns types.ErrRecursionLimit if the graph is too deep to walk.
func collectType(entry types.TypeID, guesserDepth, recursionLimit int) (*collection, error) {
	c := newCollector(guesserDepth, recursionLimit)
	w := c.walker()
	w.Type(entry)
	if err := w.Err(); err != nil {
		return nil, err
	}
	return c.finish(), nil
}

// collectPack is collectType for a type pack.
func collectPack(entry types.PackID, guesserDepth, recursionLimit int) (*collection, error) {
	c := newCollector(guesserDepth, recursionLimit)
	w := c.walker()
	w.Pack(entry)
	if err := w.Err(); err != nil {
		return nil, err
	}
	return c.finish(), nil
}

// hasUnscopedGenerics returns true if a generic type or pack appears outside
// of the function type that declares it. User functions can not handle those.
func hasUnscopedGenerics(ty types.TypeID) bool {
	found := false
	scopeTypes := []types.TypeID{}
	scopePacks := []types.PackID{}

	w := &types.Walker{}
	w.VisitType = func(w *types.Walker, id types.TypeID) bool {
		if found {
			return false
		}
		switch t := id.Node().(type) {
		case *types.Generic:
			inScope := false
			for _, g := range scopeTypes {
				if types.Follow(g) == id {
					inScope = true
					break
				}
			}
			found = found || !inScope
			return false

		case *types.Function:
			nt, np := len(scopeTypes), len(scopePacks)
			scopeTypes = append(scopeTypes, t.Generics...)
			scopePacks = append(scopePacks, t.GenericPacks...)
			w.Pack(t.Args)
			w.Pack(t.Rets)
			scopeTypes = scopeTypes[:nt]
			scopePacks = scopePacks[:np]
			return false

		case *types.Extern:
			return false
		}
		return true
	}
	w.VisitPack = func(w *types.Walker, id types.PackID) bool {
		if found {
			return false
		}
		if _, ok := id.Node().(*types.GenericPack); ok {
			inScope := false
			for _, g := range scopePacks {
				if types.FollowPack(g) == id {
					inScope = true
					break
				}
			}
			found = found || !inScope
			return false
		}
		return true
	}
	w.Type(ty)
	return found
}
