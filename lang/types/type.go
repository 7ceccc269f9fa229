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
	"sort"
)

// Type is the variant stored in a type node slot.
type Type interface {
	typeNode()
}

// PrimitiveKind is the kind of a Primitive type.
type PrimitiveKind int

// These are the primitive kinds.
const (
	PrimitiveNil PrimitiveKind = iota
	PrimitiveBoolean
	PrimitiveNumber
	PrimitiveString
	PrimitiveThread
	PrimitiveBuffer
	PrimitiveFunction // the top function type
	PrimitiveTable    // the top table type
)

// String returns the surface name of the primitive.
func (obj PrimitiveKind) String() string {
	switch obj {
	case PrimitiveNil:
		return "nil"
	case PrimitiveBoolean:
		return "boolean"
	case PrimitiveNumber:
		return "number"
	case PrimitiveString:
		return "string"
	case PrimitiveThread:
		return "thread"
	case PrimitiveBuffer:
		return "buffer"
	case PrimitiveFunction:
		return "function"
	case PrimitiveTable:
		return "table"
	}
	return "unknown-primitive"
}

// Primitive is one of the builtin primitive types. It may carry a metatable,
// as the string type does.
type Primitive struct {
	Kind      PrimitiveKind
	Metatable TypeID
}

// StringSingleton is the type of exactly one string value.
type StringSingleton struct {
	Value string
}

// BooleanSingleton is the type of exactly one boolean value.
type BooleanSingleton struct {
	Value bool
}

// Any is the gradual type. It suppresses errors.
type Any struct{}

// Unknown is the top type.
type Unknown struct{}

// Never is the bottom type.
type Never struct{}

// ErrorType is the type of an expression that already produced an error. It
// behaves like Any.
type ErrorType struct{}

// NoRefine is a marker discriminant that means "nothing to refine against".
type NoRefine struct{}

// Free is a type variable that has not been solved yet.
type Free struct {
	Lower TypeID // optional
	Upper TypeID // optional
}

// Generic is a quantified type variable.
type Generic struct {
	Name string
}

// Blocked is a placeholder for a type that some constraint has not produced
// yet.
type Blocked struct{}

// PendingExpansion is a type alias application that was not expanded yet.
type PendingExpansion struct {
	Name string
}

// Union is the set union of its options.
type Union struct {
	Options []TypeID
}

// Intersection is the set intersection of its parts.
type Intersection struct {
	Parts []TypeID
}

// Negation is the complement of a type.
type Negation struct {
	Ty TypeID
}

// Property is a table or extern property. Read and Write are optional, but at
// least one is usually set.
type Property struct {
	Read  TypeID
	Write TypeID
}

// NewProperty returns a read-write property of the given type.
func NewProperty(ty TypeID) Property {
	return Property{Read: ty, Write: ty}
}

// Type returns the read type of the property, or the write type if it can only
// be written.
func (obj Property) Type() (TypeID, bool) {
	if obj.Read.Valid() {
		return obj.Read, true
	}
	if obj.Write.Valid() {
		return obj.Write, true
	}
	return TypeID{}, false
}

// Indexer is the index signature of a table.
type Indexer struct {
	Key   TypeID
	Value TypeID
}

// Table is a structural table type.
type Table struct {
	Props   map[string]Property
	Indexer *Indexer
}

// Keys returns the property names in sorted order.
func (obj *Table) Keys() []string {
	return sortedKeys(obj.Props)
}

// Metatable is a table with a metatable attached.
type Metatable struct {
	Table     TypeID
	Metatable TypeID
}

// Extern is a host-declared object type. Parent and Metatable are optional.
type Extern struct {
	Name      string
	Props     map[string]Property
	Indexer   *Indexer
	Parent    TypeID
	Metatable TypeID
}

// Keys returns the property names in sorted order.
func (obj *Extern) Keys() []string {
	return sortedKeys(obj.Props)
}

// IsSubclassOf returns true if this extern is other, or inherits from it.
func (obj *Extern) IsSubclassOf(other *Extern) bool {
	seen := make(map[*Extern]struct{})
	for e := obj; e != nil; {
		if e == other {
			return true
		}
		if _, exists := seen[e]; exists {
			return false
		}
		seen[e] = struct{}{}
		if !e.Parent.Valid() {
			return false
		}
		parent, ok := Get[*Extern](Follow(e.Parent))
		if !ok {
			return false
		}
		e = parent
	}
	return false
}

// Function is a function type, possibly generic.
type Function struct {
	Generics     []TypeID
	GenericPacks []PackID
	Args         PackID
	Rets         PackID
}

// FunctionInstance is an unreduced application of a type function.
type FunctionInstance struct {
	Function *TypeFunction
	TypeArgs []TypeID
	PackArgs []PackID

	// State is the terminal state of the instance, once one is known.
	State InstanceState

	// User is only set for the user function kind.
	User *UserFunction
}

// Bound is a link to another node. Use Follow to resolve it.
type Bound struct {
	To TypeID
}

func (obj *Primitive) typeNode()        {}
func (obj *StringSingleton) typeNode()  {}
func (obj *BooleanSingleton) typeNode() {}
func (obj *Any) typeNode()              {}
func (obj *Unknown) typeNode()          {}
func (obj *Never) typeNode()            {}
func (obj *ErrorType) typeNode()        {}
func (obj *NoRefine) typeNode()         {}
func (obj *Free) typeNode()             {}
func (obj *Generic) typeNode()          {}
func (obj *Blocked) typeNode()          {}
func (obj *PendingExpansion) typeNode() {}
func (obj *Union) typeNode()            {}
func (obj *Intersection) typeNode()     {}
func (obj *Negation) typeNode()         {}
func (obj *Table) typeNode()            {}
func (obj *Metatable) typeNode()        {}
func (obj *Extern) typeNode()           {}
func (obj *Function) typeNode()         {}
func (obj *FunctionInstance) typeNode() {}
func (obj *Bound) typeNode()            {}

func sortedKeys(m map[string]Property) []string {
	keys := []string{}
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsPrimitive returns true if the followed type is the primitive of that kind.
func IsPrimitive(id TypeID, kind PrimitiveKind) bool {
	p, ok := Get[*Primitive](Follow(id))
	return ok && p.Kind == kind
}

// IsNumber returns true if the type is the number primitive.
func IsNumber(id TypeID) bool { return IsPrimitive(id, PrimitiveNumber) }

// IsString returns true if the type is the string primitive.
func IsString(id TypeID) bool { return IsPrimitive(id, PrimitiveString) }

// IsNil returns true if the type is the nil primitive.
func IsNil(id TypeID) bool { return IsPrimitive(id, PrimitiveNil) }

// IsSingleton returns true if the type is a string or boolean singleton.
func IsSingleton(id TypeID) bool {
	switch Follow(id).Node().(type) {
	case *StringSingleton, *BooleanSingleton:
		return true
	}
	return false
}
