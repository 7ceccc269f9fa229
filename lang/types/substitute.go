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

// Substitution replaces some type and pack nodes with others, copying every
// node on the way that (transitively) contains a replaced one. Nodes that do
// not mention a replaced node are shared, not copied.
type Substitution struct {
	Arena *Arena
	Types map[TypeID]TypeID
	Packs map[PackID]PackID

	memoTypes map[TypeID]TypeID
	memoPacks map[PackID]PackID
	dirtyT    map[TypeID]bool
	dirtyP    map[PackID]bool
}

// NewSubstitution builds a substitution that allocates into arena.
func NewSubstitution(arena *Arena) *Substitution {
	return &Substitution{
		Arena: arena,
		Types: make(map[TypeID]TypeID),
		Packs: make(map[PackID]PackID),
	}
}

func (obj *Substitution) init() {
	if obj.memoTypes == nil {
		obj.memoTypes = make(map[TypeID]TypeID)
		obj.memoPacks = make(map[PackID]PackID)
		obj.dirtyT = make(map[TypeID]bool)
		obj.dirtyP = make(map[PackID]bool)
	}
}

func (obj *Substitution) isDirtyType(id TypeID) bool {
	if !id.Valid() {
		return false
	}
	id = Follow(id)
	if _, exists := obj.Types[id]; exists {
		return true
	}
	if d, exists := obj.dirtyT[id]; exists {
		return d // an in-progress node counts as clean
	}
	obj.dirtyT[id] = false
	dirty := false
	switch t := id.Node().(type) {
	case *Free:
		dirty = obj.isDirtyType(t.Lower) || obj.isDirtyType(t.Upper)
	case *Union:
		dirty = obj.anyDirty(t.Options)
	case *Intersection:
		dirty = obj.anyDirty(t.Parts)
	case *Negation:
		dirty = obj.isDirtyType(t.Ty)
	case *Table:
		dirty = obj.propsDirty(t.Props, t.Indexer)
	case *Metatable:
		dirty = obj.isDirtyType(t.Table) || obj.isDirtyType(t.Metatable)
	case *Function:
		dirty = obj.isDirtyPack(t.Args) || obj.isDirtyPack(t.Rets)
	case *FunctionInstance:
		dirty = obj.anyDirty(t.TypeArgs)
		for _, p := range t.PackArgs {
			dirty = dirty || obj.isDirtyPack(p)
		}
	}
	obj.dirtyT[id] = dirty
	return dirty
}

func (obj *Substitution) anyDirty(ids []TypeID) bool {
	for _, x := range ids {
		if obj.isDirtyType(x) {
			return true
		}
	}
	return false
}

func (obj *Substitution) propsDirty(props map[string]Property, indexer *Indexer) bool {
	for _, k := range sortedKeys(props) {
		if obj.isDirtyType(props[k].Read) || obj.isDirtyType(props[k].Write) {
			return true
		}
	}
	if indexer != nil {
		return obj.isDirtyType(indexer.Key) || obj.isDirtyType(indexer.Value)
	}
	return false
}

func (obj *Substitution) isDirtyPack(id PackID) bool {
	if !id.Valid() {
		return false
	}
	id = FollowPack(id)
	if _, exists := obj.Packs[id]; exists {
		return true
	}
	if d, exists := obj.dirtyP[id]; exists {
		return d
	}
	obj.dirtyP[id] = false
	dirty := false
	switch p := id.Node().(type) {
	case *TypePack:
		dirty = obj.anyDirty(p.Head) || obj.isDirtyPack(p.Tail)
	case *VariadicPack:
		dirty = obj.isDirtyType(p.Ty)
	case *FunctionInstancePack:
		dirty = obj.anyDirty(p.TypeArgs)
		for _, x := range p.PackArgs {
			dirty = dirty || obj.isDirtyPack(x)
		}
	}
	obj.dirtyP[id] = dirty
	return dirty
}

// Type returns the substituted version of a type.
func (obj *Substitution) Type(id TypeID) TypeID {
	obj.init()
	return obj.substType(id)
}

// Pack returns the substituted version of a pack.
func (obj *Substitution) Pack(id PackID) PackID {
	obj.init()
	return obj.substPack(id)
}

func (obj *Substitution) substType(id TypeID) TypeID {
	if !id.Valid() {
		return id
	}
	id = Follow(id)
	if r, exists := obj.Types[id]; exists {
		return r
	}
	if r, exists := obj.memoTypes[id]; exists {
		return r
	}
	if !obj.isDirtyType(id) {
		return id
	}

	// Reserve the copy first so that cycles resolve to it.
	out := obj.Arena.AddType(&Blocked{})
	obj.memoTypes[id] = out

	var t Type
	switch n := id.Node().(type) {
	case *Free:
		t = &Free{Lower: obj.substType(n.Lower), Upper: obj.substType(n.Upper)}
	case *Union:
		t = &Union{Options: obj.substTypes(n.Options)}
	case *Intersection:
		t = &Intersection{Parts: obj.substTypes(n.Parts)}
	case *Negation:
		t = &Negation{Ty: obj.substType(n.Ty)}
	case *Table:
		t = &Table{Props: obj.substProps(n.Props), Indexer: obj.substIndexer(n.Indexer)}
	case *Metatable:
		t = &Metatable{Table: obj.substType(n.Table), Metatable: obj.substType(n.Metatable)}
	case *Function:
		generics := []TypeID{}
		for _, g := range n.Generics {
			if _, exists := obj.Types[Follow(g)]; !exists {
				generics = append(generics, g)
			}
		}
		genericPacks := []PackID{}
		for _, g := range n.GenericPacks {
			if _, exists := obj.Packs[FollowPack(g)]; !exists {
				genericPacks = append(genericPacks, g)
			}
		}
		t = &Function{
			Generics:     generics,
			GenericPacks: genericPacks,
			Args:         obj.substPack(n.Args),
			Rets:         obj.substPack(n.Rets),
		}
	case *FunctionInstance:
		packs := []PackID{}
		for _, p := range n.PackArgs {
			packs = append(packs, obj.substPack(p))
		}
		t = &FunctionInstance{
			Function: n.Function,
			TypeArgs: obj.substTypes(n.TypeArgs),
			PackArgs: packs,
			User:     n.User,
		}
	default:
		t = n // unreachable: leaves are never dirty
	}
	obj.Arena.types[out.index] = t
	return out
}

func (obj *Substitution) substTypes(ids []TypeID) []TypeID {
	out := make([]TypeID, 0, len(ids))
	for _, x := range ids {
		out = append(out, obj.substType(x))
	}
	return out
}

func (obj *Substitution) substProps(props map[string]Property) map[string]Property {
	out := make(map[string]Property, len(props))
	for _, k := range sortedKeys(props) {
		p := props[k]
		out[k] = Property{Read: obj.substType(p.Read), Write: obj.substType(p.Write)}
	}
	return out
}

func (obj *Substitution) substIndexer(indexer *Indexer) *Indexer {
	if indexer == nil {
		return nil
	}
	return &Indexer{Key: obj.substType(indexer.Key), Value: obj.substType(indexer.Value)}
}

func (obj *Substitution) substPack(id PackID) PackID {
	if !id.Valid() {
		return id
	}
	id = FollowPack(id)
	if r, exists := obj.Packs[id]; exists {
		return r
	}
	if r, exists := obj.memoPacks[id]; exists {
		return r
	}
	if !obj.isDirtyPack(id) {
		return id
	}

	out := obj.Arena.AddPack(&BlockedPack{})
	obj.memoPacks[id] = out

	var p Pack
	switch n := id.Node().(type) {
	case *TypePack:
		p = &TypePack{Head: obj.substTypes(n.Head), Tail: obj.substPack(n.Tail)}
	case *VariadicPack:
		p = &VariadicPack{Ty: obj.substType(n.Ty)}
	case *FunctionInstancePack:
		packs := []PackID{}
		for _, x := range n.PackArgs {
			packs = append(packs, obj.substPack(x))
		}
		p = &FunctionInstancePack{Function: n.Function, TypeArgs: obj.substTypes(n.TypeArgs), PackArgs: packs}
	default:
		p = n
	}
	obj.Arena.packs[out.index] = p
	return out
}
