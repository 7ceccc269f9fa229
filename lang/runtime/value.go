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
	"github.com/purpleidea/typefunc/lang/types"
)

// These are the tags of a type value, as user code sees them.
const (
	TagNil          = "nil"
	TagUnknown      = "unknown"
	TagNever        = "never"
	TagAny          = "any"
	TagBoolean      = "boolean"
	TagNumber       = "number"
	TagString       = "string"
	TagThread       = "thread"
	TagBuffer       = "buffer"
	TagSingleton    = "singleton"
	TagNegation     = "negation"
	TagUnion        = "union"
	TagIntersection = "intersection"
	TagTable        = "table"
	TagFunction     = "function"
	TagClass        = "class"
	TagGeneric      = "generic"
)

// Value is a type as it exists inside of the sandbox. It is a plain tree (or
// graph, for recursive types) that never points into an arena, so user code
// can build and change it freely.
type Value struct {
	Tag string

	// Singleton is the string or bool of a singleton value.
	Singleton interface{}

	// Inner is the negated type.
	Inner *Value

	// Components are the options of a union or the parts of an
	// intersection.
	Components []*Value

	// Props, Indexer and Metatable describe tables and classes.
	Props     map[string]*Property
	Indexer   *Indexer
	Metatable *Value

	// Params, Returns and Generics describe functions.
	Params   *Pack
	Returns  *Pack
	Generics []*Value

	// Name is set for classes and generics.
	Name string

	// Pack is true for a generic pack.
	Pack bool

	// Parent is the parent class of a class.
	Parent *Value

	// host is the class node this value was made from. Classes can not be
	// built by user code, so they always go back to where they came from.
	host types.TypeID
}

// Property is a table property. Either side may be nil.
type Property struct {
	Read  *Value
	Write *Value
}

// Indexer is a table index signature.
type Indexer struct {
	Key   *Value
	Value *Value
}

// Pack is a list of types with an optional variadic or generic tail.
type Pack struct {
	Head []*Value
	Tail *Value
}

// primitive returns true for the tags that carry no data.
func primitive(tag string) bool {
	switch tag {
	case TagNil, TagUnknown, TagNever, TagAny, TagBoolean, TagNumber, TagString, TagThread, TagBuffer:
		return true
	}
	return false
}

// Equal compares two values. Primitives and singletons compare by content,
// everything else by identity.
func (obj *Value) Equal(other *Value) bool {
	if obj == other {
		return true
	}
	if obj == nil || other == nil || obj.Tag != other.Tag {
		return false
	}
	switch {
	case primitive(obj.Tag):
		return true
	case obj.Tag == TagSingleton:
		return obj.Singleton == other.Singleton
	case obj.Tag == TagClass:
		return obj.host.Valid() && obj.host == other.host
	}
	return false
}

// Copy returns a deep copy of a value. Shared and recursive parts stay shared
// and recursive in the copy.
func (obj *Value) Copy() *Value {
	return copyValue(obj, make(map[*Value]*Value))
}

func copyValue(v *Value, seen map[*Value]*Value) *Value {
	if v == nil {
		return nil
	}
	if c, exists := seen[v]; exists {
		return c
	}
	c := &Value{
		Tag:       v.Tag,
		Singleton: v.Singleton,
		Name:      v.Name,
		Pack:      v.Pack,
		host:      v.host,
	}
	seen[v] = c

	c.Inner = copyValue(v.Inner, seen)
	for _, x := range v.Components {
		c.Components = append(c.Components, copyValue(x, seen))
	}
	if v.Props != nil {
		c.Props = make(map[string]*Property)
		for k, p := range v.Props {
			c.Props[k] = &Property{Read: copyValue(p.Read, seen), Write: copyValue(p.Write, seen)}
		}
	}
	if v.Indexer != nil {
		c.Indexer = &Indexer{Key: copyValue(v.Indexer.Key, seen), Value: copyValue(v.Indexer.Value, seen)}
	}
	c.Metatable = copyValue(v.Metatable, seen)
	c.Params = copyPack(v.Params, seen)
	c.Returns = copyPack(v.Returns, seen)
	for _, g := range v.Generics {
		c.Generics = append(c.Generics, copyValue(g, seen))
	}
	c.Parent = copyValue(v.Parent, seen)
	return c
}

func copyPack(p *Pack, seen map[*Value]*Value) *Pack {
	if p == nil {
		return nil
	}
	c := &Pack{Tail: copyValue(p.Tail, seen)}
	for _, x := range p.Head {
		c.Head = append(c.Head, copyValue(x, seen))
	}
	return c
}
