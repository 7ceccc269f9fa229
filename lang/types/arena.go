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

// Package types contains the type graph that type functions are reduced over.
// Every node lives in an Arena and is addressed by a stable index. A node can
// later be bound to another node, after which all reads must go through
// Follow.
package types

import (
	"fmt"

	"github.com/purpleidea/typefunc/util"
)

const (
	// ErrForeignArena is returned when a node is mutated through an arena
	// that does not own it.
	ErrForeignArena = util.Error("node is owned by a different arena")

	// ErrFrozenArena is returned when a frozen arena is mutated.
	ErrFrozenArena = util.Error("arena is frozen")

	// ErrSelfBinding is returned when a bind would create a cycle of bound
	// links.
	ErrSelfBinding = util.Error("binding would create a cycle")

	// ErrInvalidNode is returned when the zero TypeID or PackID is used.
	ErrInvalidNode = util.Error("invalid node")
)

// TypeID is a handle to a type node. The zero value is not a valid node and
// is used to mean "absent" in optional fields.
type TypeID struct {
	arena *Arena
	index int32
}

// Valid returns true if this handle points to a node.
func (obj TypeID) Valid() bool { return obj.arena != nil }

// Arena returns the arena that owns this node.
func (obj TypeID) Arena() *Arena { return obj.arena }

// Index returns the position of this node in its arena.
func (obj TypeID) Index() int { return int(obj.index) }

// Node returns the variant currently stored in this slot. It does not follow
// bound links.
func (obj TypeID) Node() Type {
	if obj.arena == nil {
		return nil
	}
	return obj.arena.types[obj.index]
}

// String returns a human readable representation of the type.
func (obj TypeID) String() string { return ToString(obj) }

// PackID is a handle to a type pack node.
type PackID struct {
	arena *Arena
	index int32
}

// Valid returns true if this handle points to a node.
func (obj PackID) Valid() bool { return obj.arena != nil }

// Arena returns the arena that owns this node.
func (obj PackID) Arena() *Arena { return obj.arena }

// Index returns the position of this node in its arena.
func (obj PackID) Index() int { return int(obj.index) }

// Node returns the variant currently stored in this slot. It does not follow
// bound links.
func (obj PackID) Node() Pack {
	if obj.arena == nil {
		return nil
	}
	return obj.arena.packs[obj.index]
}

// String returns a human readable representation of the pack.
func (obj PackID) String() string { return PackString(obj) }

// Arena allocates and owns graph nodes. It is not safe for concurrent use.
type Arena struct {
	// Name is used in debug output only.
	Name string

	types  []Type
	packs  []Pack
	frozen bool
}

// NewArena builds a new empty arena.
func NewArena(name string) *Arena {
	return &Arena{
		Name: name,
	}
}

// AddType allocates a new type node.
func (obj *Arena) AddType(t Type) TypeID {
	obj.types = append(obj.types, t)
	return TypeID{arena: obj, index: int32(len(obj.types) - 1)}
}

// AddPack allocates a new type pack node.
func (obj *Arena) AddPack(p Pack) PackID {
	obj.packs = append(obj.packs, p)
	return PackID{arena: obj, index: int32(len(obj.packs) - 1)}
}

// NewPack is a convenience wrapper to allocate a finite pack.
func (obj *Arena) NewPack(head ...TypeID) PackID {
	return obj.AddPack(&TypePack{Head: head})
}

// Len returns the number of type nodes in the arena.
func (obj *Arena) Len() int { return len(obj.types) }

// Freeze prevents any further mutation of existing nodes. This is used for the
// builtin types, which are shared by every checking unit.
func (obj *Arena) Freeze() { obj.frozen = true }

// Frozen returns true if the arena was frozen.
func (obj *Arena) Frozen() bool { return obj.frozen }

func (obj *Arena) owns(arena *Arena) error {
	if arena == nil {
		return ErrInvalidNode
	}
	if arena != obj {
		return ErrForeignArena
	}
	if obj.frozen {
		return ErrFrozenArena
	}
	return nil
}

// Emplace overwrites the node stored at id. Bound variants must go through
// Bind so that cycles are rejected.
func (obj *Arena) Emplace(id TypeID, t Type) error {
	if err := obj.owns(id.arena); err != nil {
		return err
	}
	if b, ok := t.(*Bound); ok {
		return obj.Bind(id, b.To)
	}
	obj.types[id.index] = t
	return nil
}

// Bind replaces the node at id with a link to another node.
func (obj *Arena) Bind(id, to TypeID) error {
	if err := obj.owns(id.arena); err != nil {
		return err
	}
	if !to.Valid() {
		return ErrInvalidNode
	}
	// id may already be bound, so every link of the chain is checked and
	// not only where it ends
	for next := to; ; {
		if next == id {
			return ErrSelfBinding
		}
		b, ok := next.Node().(*Bound)
		if !ok {
			break
		}
		next = b.To
	}
	obj.types[id.index] = &Bound{To: to}
	return nil
}

// EmplacePack overwrites the pack node stored at id.
func (obj *Arena) EmplacePack(id PackID, p Pack) error {
	if err := obj.owns(id.arena); err != nil {
		return err
	}
	if b, ok := p.(*BoundPack); ok {
		return obj.BindPack(id, b.To)
	}
	obj.packs[id.index] = p
	return nil
}

// BindPack replaces the pack node at id with a link to another pack.
func (obj *Arena) BindPack(id, to PackID) error {
	if err := obj.owns(id.arena); err != nil {
		return err
	}
	if !to.Valid() {
		return ErrInvalidNode
	}
	for next := to; ; {
		if next == id {
			return ErrSelfBinding
		}
		b, ok := next.Node().(*BoundPack)
		if !ok {
			break
		}
		next = b.To
	}
	obj.packs[id.index] = &BoundPack{To: to}
	return nil
}

// String returns a short description of the arena.
func (obj *Arena) String() string {
	return fmt.Sprintf("arena(%s: %d types, %d packs)", obj.Name, len(obj.types), len(obj.packs))
}

// Follow resolves a type through any chain of bound links. Bind refuses to
// create cycles, so this always terminates.
func Follow(id TypeID) TypeID {
	for {
		b, ok := id.Node().(*Bound)
		if !ok {
			return id
		}
		id = b.To
	}
}

// FollowPack resolves a pack through any chain of bound links.
func FollowPack(id PackID) PackID {
	for {
		b, ok := id.Node().(*BoundPack)
		if !ok {
			return id
		}
		id = b.To
	}
}

// Get returns the node stored at id if it is of the requested variant. It does
// not follow bound links.
func Get[T Type](id TypeID) (T, bool) {
	v, ok := id.Node().(T)
	return v, ok
}

// GetPack returns the pack node stored at id if it is of the requested
// variant. It does not follow bound links.
func GetPack[T Pack](id PackID) (T, bool) {
	v, ok := id.Node().(T)
	return v, ok
}

// Is returns true if the followed node is of the requested variant.
func Is[T Type](id TypeID) bool {
	_, ok := Follow(id).Node().(T)
	return ok
}
