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

type category int

const (
	catOther category = iota
	catNil
	catBoolean
	catNumber
	catString
	catThread
	catBuffer
	catFunction
	catTable
	catExtern
)

// categoryOf returns the runtime value category of a type, or catOther if
// the type may hold values of several categories.
func categoryOf(ty TypeID) category {
	switch t := Follow(ty).Node().(type) {
	case *Primitive:
		switch t.Kind {
		case PrimitiveNil:
			return catNil
		case PrimitiveBoolean:
			return catBoolean
		case PrimitiveNumber:
			return catNumber
		case PrimitiveString:
			return catString
		case PrimitiveThread:
			return catThread
		case PrimitiveBuffer:
			return catBuffer
		case PrimitiveFunction:
			return catFunction
		case PrimitiveTable:
			return catTable
		}
	case *StringSingleton:
		return catString
	case *BooleanSingleton:
		return catBoolean
	case *Function:
		return catFunction
	case *Table, *Metatable:
		return catTable
	case *Extern:
		return catExtern
	}
	return catOther
}

// SameCategory returns true if both types hold values of one known category,
// such as two strings.
func SameCategory(a, b TypeID) bool {
	ca := categoryOf(a)
	return ca != catOther && ca == categoryOf(b)
}

// SameSingleton returns true if both types are singletons of the same value,
// even when they are different nodes.
func SameSingleton(a, b TypeID) bool {
	a, b = Follow(a), Follow(b)
	if sa, ok := Get[*StringSingleton](a); ok {
		sb, ok := Get[*StringSingleton](b)
		return ok && sa.Value == sb.Value
	}
	if ba, ok := Get[*BooleanSingleton](a); ok {
		bb, ok := Get[*BooleanSingleton](b)
		return ok && ba.Value == bb.Value
	}
	return false
}

// Disjoint returns true if the two types certainly share no values. It only
// looks at primitives, singletons and shapes, and answers false when unsure.
func Disjoint(a, b TypeID) bool {
	a, b = Follow(a), Follow(b)
	ca, cb := categoryOf(a), categoryOf(b)
	if ca == catOther || cb == catOther {
		return false
	}
	if ca != cb {
		return true
	}
	if sa, ok := Get[*StringSingleton](a); ok {
		if sb, ok := Get[*StringSingleton](b); ok {
			return sa.Value != sb.Value
		}
	}
	if ba, ok := Get[*BooleanSingleton](a); ok {
		if bb, ok := Get[*BooleanSingleton](b); ok {
			return ba.Value != bb.Value
		}
	}
	if ea, ok := Get[*Extern](a); ok {
		if eb, ok := Get[*Extern](b); ok {
			return !ea.IsSubclassOf(eb) && !eb.IsSubclassOf(ea)
		}
	}
	return false
}
