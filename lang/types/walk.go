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

package types

import (
	"github.com/purpleidea/typefunc/util"
)

const (
	// ErrRecursionLimit is returned by a Walker that nested too deeply.
	ErrRecursionLimit = util.Error("recursion limit exceeded")

	// DefaultRecursionLimit is the nesting depth at which a Walker gives up.
	DefaultRecursionLimit = 500
)

// Walker visits every type and pack reachable from a root exactly once. Bound
// links are always followed. The Visit functions return false to skip the
// children of a node; they may call back into the walker to traverse those
// children by hand.
type Walker struct {
	// VisitType is called for each new type node. If nil, every node is
	// descended into.
	VisitType func(w *Walker, id TypeID) bool

	// VisitPack is called for each new pack node. If nil, every node is
	// descended into.
	VisitPack func(w *Walker, id PackID) bool

	// Cycle is called when a type node is reached again.
	Cycle func(w *Walker, id TypeID)

	// Limit is the maximum nesting depth. Zero means the default.
	Limit int

	seenTypes map[TypeID]struct{}
	seenPacks map[PackID]struct{}
	depth     int
	err       error
}

// Err returns ErrRecursionLimit if the walk was aborted.
func (obj *Walker) Err() error { return obj.err }

// Reset forgets every visited node so that the walker can be reused.
func (obj *Walker) Reset() {
	obj.seenTypes = nil
	obj.seenPacks = nil
	obj.depth = 0
	obj.err = nil
}

func (obj *Walker) enter() bool {
	if obj.err != nil {
		return false
	}
	limit := obj.Limit
	if limit <= 0 {
		limit = DefaultRecursionLimit
	}
	obj.depth++
	if obj.depth > limit {
		obj.err = ErrRecursionLimit
		obj.depth--
		return false
	}
	return true
}

func (obj *Walker) leave() { obj.depth-- }

// Type traverses a type node.
func (obj *Walker) Type(id TypeID) {
	if !id.Valid() {
		return
	}
	id = Follow(id)
	if obj.seenTypes == nil {
		obj.seenTypes = make(map[TypeID]struct{})
	}
	if _, exists := obj.seenTypes[id]; exists {
		if obj.Cycle != nil {
			obj.Cycle(obj, id)
		}
		return
	}
	if !obj.enter() {
		return
	}
	defer obj.leave()
	obj.seenTypes[id] = struct{}{}

	if obj.VisitType != nil && !obj.VisitType(obj, id) {
		return
	}
	obj.Children(id)
}

// Children traverses the direct children of a type node.
func (obj *Walker) Children(id TypeID) {
	switch t := Follow(id).Node().(type) {
	case *Free:
		obj.Type(t.Lower)
		obj.Type(t.Upper)
	case *Union:
		for _, x := range t.Options {
			obj.Type(x)
		}
	case *Intersection:
		for _, x := range t.Parts {
			obj.Type(x)
		}
	case *Negation:
		obj.Type(t.Ty)
	case *Table:
		for _, k := range t.Keys() {
			obj.Type(t.Props[k].Read)
			obj.Type(t.Props[k].Write)
		}
		if t.Indexer != nil {
			obj.Type(t.Indexer.Key)
			obj.Type(t.Indexer.Value)
		}
	case *Metatable:
		obj.Type(t.Table)
		obj.Type(t.Metatable)
	case *Extern:
		for _, k := range t.Keys() {
			obj.Type(t.Props[k].Read)
			obj.Type(t.Props[k].Write)
		}
		if t.Indexer != nil {
			obj.Type(t.Indexer.Key)
			obj.Type(t.Indexer.Value)
		}
		obj.Type(t.Parent)
		obj.Type(t.Metatable)
	case *Function:
		obj.Pack(t.Args)
		obj.Pack(t.Rets)
	case *FunctionInstance:
		for _, x := range t.TypeArgs {
			obj.Type(x)
		}
		for _, x := range t.PackArgs {
			obj.Pack(x)
		}
	}
}

// Pack traverses a pack node.
func (obj *Walker) Pack(id PackID) {
	if !id.Valid() {
		return
	}
	id = FollowPack(id)
	if obj.seenPacks == nil {
		obj.seenPacks = make(map[PackID]struct{})
	}
	if _, exists := obj.seenPacks[id]; exists {
		return
	}
	if !obj.enter() {
		return
	}
	defer obj.leave()
	obj.seenPacks[id] = struct{}{}

	if obj.VisitPack != nil && !obj.VisitPack(obj, id) {
		return
	}
	obj.PackChildren(id)
}

// PackChildren traverses the direct children of a pack node.
func (obj *Walker) PackChildren(id PackID) {
	switch p := FollowPack(id).Node().(type) {
	case *TypePack:
		for _, x := range p.Head {
			obj.Type(x)
		}
		obj.Pack(p.Tail)
	case *VariadicPack:
		obj.Type(p.Ty)
	case *FunctionInstancePack:
		for _, x := range p.TypeArgs {
			obj.Type(x)
		}
		for _, x := range p.PackArgs {
			obj.Pack(x)
		}
	}
}
