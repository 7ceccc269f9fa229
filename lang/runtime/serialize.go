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

package runtime

import (
	"fmt"

	"github.com/purpleidea/typefunc/lang/types"
	"github.com/purpleidea/typefunc/util"
	"github.com/purpleidea/typefunc/util/errwrap"
)

const (
	// ErrSerialize is returned for a type that user code can not see, such
	// as a free or blocked type.
	ErrSerialize = util.Error("type can not be passed to a type function")

	// ErrDeserialize is returned for a value that does not describe a
	// valid type.
	ErrDeserialize = util.Error("value is not a valid type")
)

// serializer turns graph nodes into values. Each node is turned into exactly
// one value, so sharing and cycles survive the trip.
type serializer struct {
	seen  map[types.TypeID]*Value
	packs map[types.PackID]*Value
}

func newSerializer() *serializer {
	return &serializer{
		seen:  make(map[types.TypeID]*Value),
		packs: make(map[types.PackID]*Value),
	}
}

// Serialize returns the value of a type.
func Serialize(ty types.TypeID) (*Value, error) {
	return newSerializer().typ(ty)
}

func (obj *serializer) typ(id types.TypeID) (*Value, error) {
	if !id.Valid() {
		return nil, errwrap.Wrapf(ErrSerialize, "invalid node")
	}
	id = types.Follow(id)
	if v, exists := obj.seen[id]; exists {
		return v, nil
	}
	v := &Value{}
	obj.seen[id] = v

	switch t := id.Node().(type) {
	case *types.Primitive:
		switch t.Kind {
		case types.PrimitiveNil, types.PrimitiveBoolean, types.PrimitiveNumber, types.PrimitiveString, types.PrimitiveThread, types.PrimitiveBuffer:
			v.Tag = t.Kind.String()
		default:
			return nil, errwrap.Wrapf(ErrSerialize, "the %s primitive", t.Kind)
		}

	case *types.StringSingleton:
		v.Tag = TagSingleton
		v.Singleton = t.Value

	case *types.BooleanSingleton:
		v.Tag = TagSingleton
		v.Singleton = t.Value

	case *types.Any:
		v.Tag = TagAny
	case *types.Unknown:
		v.Tag = TagUnknown
	case *types.Never:
		v.Tag = TagNever

	case *types.Generic:
		v.Tag = TagGeneric
		v.Name = t.Name

	case *types.Negation:
		v.Tag = TagNegation
		inner, err := obj.typ(t.Ty)
		if err != nil {
			return nil, err
		}
		v.Inner = inner

	case *types.Union:
		v.Tag = TagUnion
		components, err := obj.list(t.Options)
		if err != nil {
			return nil, err
		}
		v.Components = components

	case *types.Intersection:
		v.Tag = TagIntersection
		components, err := obj.list(t.Parts)
		if err != nil {
			return nil, err
		}
		v.Components = components

	case *types.Table:
		v.Tag = TagTable
		if err := obj.shape(v, t.Props, t.Indexer); err != nil {
			return nil, err
		}

	case *types.Metatable:
		tbl, ok := types.Get[*types.Table](types.Follow(t.Table))
		if !ok {
			return nil, errwrap.Wrapf(ErrSerialize, "metatable of a non table %s", types.ToString(t.Table))
		}
		v.Tag = TagTable
		if err := obj.shape(v, tbl.Props, tbl.Indexer); err != nil {
			return nil, err
		}
		mt, err := obj.typ(t.Metatable)
		if err != nil {
			return nil, err
		}
		v.Metatable = mt

	case *types.Extern:
		v.Tag = TagClass
		v.Name = t.Name
		v.host = id
		if err := obj.shape(v, t.Props, t.Indexer); err != nil {
			return nil, err
		}
		if t.Parent.Valid() {
			parent, err := obj.typ(t.Parent)
			if err != nil {
				return nil, err
			}
			v.Parent = parent
		}
		if t.Metatable.Valid() {
			mt, err := obj.typ(t.Metatable)
			if err != nil {
				return nil, err
			}
			v.Metatable = mt
		}

	case *types.Function:
		v.Tag = TagFunction
		for _, g := range t.Generics {
			gv, err := obj.typ(g)
			if err != nil {
				return nil, err
			}
			v.Generics = append(v.Generics, gv)
		}
		for _, g := range t.GenericPacks {
			gv, err := obj.genericPack(g)
			if err != nil {
				return nil, err
			}
			v.Generics = append(v.Generics, gv)
		}
		params, err := obj.pack(t.Args)
		if err != nil {
			return nil, err
		}
		returns, err := obj.pack(t.Rets)
		if err != nil {
			return nil, err
		}
		v.Params = params
		v.Returns = returns

	default:
		return nil, errwrap.Wrapf(ErrSerialize, "%s", types.ToString(id))
	}
	return v, nil
}

func (obj *serializer) list(ids []types.TypeID) ([]*Value, error) {
	out := []*Value{}
	for _, id := range ids {
		v, err := obj.typ(id)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (obj *serializer) shape(v *Value, props map[string]types.Property, indexer *types.Indexer) error {
	v.Props = make(map[string]*Property)
	for name, p := range props {
		prop := &Property{}
		if p.Read.Valid() {
			read, err := obj.typ(p.Read)
			if err != nil {
				return err
			}
			prop.Read = read
		}
		if p.Write.Valid() {
			write, err := obj.typ(p.Write)
			if err != nil {
				return err
			}
			prop.Write = write
		}
		v.Props[name] = prop
	}
	if indexer == nil {
		return nil
	}
	key, err := obj.typ(indexer.Key)
	if err != nil {
		return err
	}
	value, err := obj.typ(indexer.Value)
	if err != nil {
		return err
	}
	v.Indexer = &Indexer{Key: key, Value: value}
	return nil
}

func (obj *serializer) genericPack(id types.PackID) (*Value, error) {
	id = types.FollowPack(id)
	if v, exists := obj.packs[id]; exists {
		return v, nil
	}
	g, ok := types.GetPack[*types.GenericPack](id)
	if !ok {
		return nil, errwrap.Wrapf(ErrSerialize, "pack %s", types.PackString(id))
	}
	v := &Value{Tag: TagGeneric, Name: g.Name, Pack: true}
	obj.packs[id] = v
	return v, nil
}

func (obj *serializer) pack(id types.PackID) (*Pack, error) {
	head, tail := types.Flatten(id)
	values, err := obj.list(head)
	if err != nil {
		return nil, err
	}
	p := &Pack{Head: values}
	if !tail.Valid() {
		return p, nil
	}
	switch t := tail.Node().(type) {
	case *types.VariadicPack:
		v, err := obj.typ(t.Ty)
		if err != nil {
			return nil, err
		}
		p.Tail = v
	case *types.GenericPack:
		v, err := obj.genericPack(tail)
		if err != nil {
			return nil, err
		}
		p.Tail = v
	default:
		return nil, errwrap.Wrapf(ErrSerialize, "pack %s", types.PackString(id))
	}
	return p, nil
}

// deserializer builds graph nodes from values, in a single arena.
type deserializer struct {
	arena *types.Arena
	b     *types.Builtins
	seen  map[*Value]types.TypeID
	packs map[*Value]types.PackID
}

func newDeserializer(arena *types.Arena, b *types.Builtins) *deserializer {
	return &deserializer{
		arena: arena,
		b:     b,
		seen:  make(map[*Value]types.TypeID),
		packs: make(map[*Value]types.PackID),
	}
}

// Deserialize builds the type of a value in arena.
func Deserialize(arena *types.Arena, b *types.Builtins, v *Value) (types.TypeID, error) {
	return newDeserializer(arena, b).typ(v)
}

func (obj *deserializer) typ(v *Value) (types.TypeID, error) {
	if v == nil {
		return types.TypeID{}, errwrap.Wrapf(ErrDeserialize, "missing type")
	}
	switch v.Tag {
	case TagNil:
		return obj.b.Nil, nil
	case TagBoolean:
		return obj.b.Boolean, nil
	case TagNumber:
		return obj.b.Number, nil
	case TagString:
		return obj.b.String, nil
	case TagThread:
		return obj.b.Thread, nil
	case TagBuffer:
		return obj.b.Buffer, nil
	case TagAny:
		return obj.b.Any, nil
	case TagUnknown:
		return obj.b.Unknown, nil
	case TagNever:
		return obj.b.Never, nil
	case TagClass:
		if !v.host.Valid() {
			return types.TypeID{}, errwrap.Wrapf(ErrDeserialize, "class %s was not made by the host", v.Name)
		}
		return v.host, nil
	}
	if id, exists := obj.seen[v]; exists {
		return id, nil
	}

	switch v.Tag {
	case TagSingleton:
		switch x := v.Singleton.(type) {
		case string:
			id := obj.arena.AddType(&types.StringSingleton{Value: x})
			obj.seen[v] = id
			return id, nil
		case bool:
			if x {
				return obj.b.True, nil
			}
			return obj.b.False, nil
		}
		return types.TypeID{}, errwrap.Wrapf(ErrDeserialize, "singleton of %T", v.Singleton)

	case TagGeneric:
		if v.Pack {
			return types.TypeID{}, errwrap.Wrapf(ErrDeserialize, "generic pack %s used as a type", v.Name)
		}
		id := obj.arena.AddType(&types.Generic{Name: v.Name})
		obj.seen[v] = id
		return id, nil
	}

	// the rest may refer back to itself, so reserve the node first
	id := obj.arena.AddType(&types.Blocked{})
	obj.seen[v] = id

	var node types.Type
	switch v.Tag {
	case TagNegation:
		inner, err := obj.typ(v.Inner)
		if err != nil {
			return types.TypeID{}, err
		}
		node = &types.Negation{Ty: inner}

	case TagUnion, TagIntersection:
		components := []types.TypeID{}
		for _, c := range v.Components {
			ty, err := obj.typ(c)
			if err != nil {
				return types.TypeID{}, err
			}
			components = append(components, ty)
		}
		if v.Tag == TagUnion {
			node = &types.Union{Options: components}
		} else {
			node = &types.Intersection{Parts: components}
		}

	case TagTable:
		tbl, err := obj.table(v)
		if err != nil {
			return types.TypeID{}, err
		}
		node = tbl
		if v.Metatable != nil {
			mt, err := obj.typ(v.Metatable)
			if err != nil {
				return types.TypeID{}, err
			}
			node = &types.Metatable{Table: obj.arena.AddType(tbl), Metatable: mt}
		}

	case TagFunction:
		fn := &types.Function{}
		for _, g := range v.Generics {
			if g == nil || g.Tag != TagGeneric {
				return types.TypeID{}, errwrap.Wrapf(ErrDeserialize, "function generics must be generic")
			}
			if g.Pack {
				fn.GenericPacks = append(fn.GenericPacks, obj.genericPack(g))
				continue
			}
			ty, err := obj.typ(g)
			if err != nil {
				return types.TypeID{}, err
			}
			fn.Generics = append(fn.Generics, ty)
		}
		args, err := obj.pack(v.Params)
		if err != nil {
			return types.TypeID{}, err
		}
		rets, err := obj.pack(v.Returns)
		if err != nil {
			return types.TypeID{}, err
		}
		fn.Args = args
		fn.Rets = rets
		node = fn

	default:
		return types.TypeID{}, errwrap.Wrapf(ErrDeserialize, "unknown tag %q", v.Tag)
	}

	if err := obj.arena.Emplace(id, node); err != nil {
		return types.TypeID{}, err
	}
	return id, nil
}

func (obj *deserializer) table(v *Value) (*types.Table, error) {
	tbl := &types.Table{Props: make(map[string]types.Property)}
	for name, p := range v.Props {
		if p == nil || p.Read == nil && p.Write == nil {
			continue
		}
		prop := types.Property{}
		if p.Read != nil {
			read, err := obj.typ(p.Read)
			if err != nil {
				return nil, err
			}
			prop.Read = read
		}
		if p.Write != nil {
			write, err := obj.typ(p.Write)
			if err != nil {
				return nil, err
			}
			prop.Write = write
		}
		tbl.Props[name] = prop
	}
	if v.Indexer != nil {
		key, err := obj.typ(v.Indexer.Key)
		if err != nil {
			return nil, err
		}
		value, err := obj.typ(v.Indexer.Value)
		if err != nil {
			return nil, err
		}
		tbl.Indexer = &types.Indexer{Key: key, Value: value}
	}
	return tbl, nil
}

func (obj *deserializer) genericPack(v *Value) types.PackID {
	if id, exists := obj.packs[v]; exists {
		return id
	}
	id := obj.arena.AddPack(&types.GenericPack{Name: v.Name})
	obj.packs[v] = id
	return id
}

func (obj *deserializer) pack(p *Pack) (types.PackID, error) {
	if p == nil {
		return obj.arena.NewPack(), nil
	}
	head := []types.TypeID{}
	for _, x := range p.Head {
		ty, err := obj.typ(x)
		if err != nil {
			return types.PackID{}, err
		}
		head = append(head, ty)
	}
	if p.Tail == nil {
		return obj.arena.NewPack(head...), nil
	}
	if p.Tail.Tag == TagGeneric && p.Tail.Pack {
		return obj.arena.AddPack(&types.TypePack{Head: head, Tail: obj.genericPack(p.Tail)}), nil
	}
	ty, err := obj.typ(p.Tail)
	if err != nil {
		return types.PackID{}, err
	}
	tail := obj.arena.AddPack(&types.VariadicPack{Ty: ty})
	return obj.arena.AddPack(&types.TypePack{Head: head, Tail: tail}), nil
}

// describe returns a short printable form of a value, for tostring.
func describe(v *Value) string {
	return describeDepth(v, 0)
}

func describeDepth(v *Value, depth int) string {
	if v == nil {
		return "<nil>"
	}
	if depth > 8 {
		return "..."
	}
	switch v.Tag {
	case TagSingleton:
		if s, ok := v.Singleton.(string); ok {
			return fmt.Sprintf("%q", s)
		}
		return fmt.Sprintf("%v", v.Singleton)
	case TagNegation:
		return "~" + describeDepth(v.Inner, depth+1)
	case TagUnion, TagIntersection:
		sep := " | "
		if v.Tag == TagIntersection {
			sep = " & "
		}
		s := ""
		for i, c := range v.Components {
			if i > 0 {
				s += sep
			}
			s += describeDepth(c, depth+1)
		}
		return s
	case TagClass, TagGeneric:
		if v.Pack {
			return v.Name + "..."
		}
		return v.Name
	}
	return v.Tag
}
