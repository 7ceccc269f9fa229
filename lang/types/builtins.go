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

// Builtins holds the canonical builtin nodes. They live in their own frozen
// arena and are shared by every checking unit.
type Builtins struct {
	Arena *Arena

	Nil      TypeID
	Boolean  TypeID
	Number   TypeID
	String   TypeID
	Thread   TypeID
	Buffer   TypeID
	Function TypeID // top function
	Table    TypeID // top table

	True  TypeID
	False TypeID

	Any      TypeID
	Unknown  TypeID
	Never    TypeID
	Error    TypeID
	NoRefine TypeID

	// Falsy is false | nil and Truthy is its negation.
	Falsy  TypeID
	Truthy TypeID

	EmptyPack PackID
	AnyPack   PackID
	ErrorPack PackID
}

// NewBuiltins allocates a fresh, frozen set of builtin types.
func NewBuiltins() *Builtins {
	arena := NewArena("builtins")
	b := &Builtins{
		Arena: arena,
	}

	b.Nil = arena.AddType(&Primitive{Kind: PrimitiveNil})
	b.Boolean = arena.AddType(&Primitive{Kind: PrimitiveBoolean})
	b.Number = arena.AddType(&Primitive{Kind: PrimitiveNumber})
	b.Thread = arena.AddType(&Primitive{Kind: PrimitiveThread})
	b.Buffer = arena.AddType(&Primitive{Kind: PrimitiveBuffer})
	b.Function = arena.AddType(&Primitive{Kind: PrimitiveFunction})
	b.Table = arena.AddType(&Primitive{Kind: PrimitiveTable})

	b.True = arena.AddType(&BooleanSingleton{Value: true})
	b.False = arena.AddType(&BooleanSingleton{Value: false})

	b.Any = arena.AddType(&Any{})
	b.Unknown = arena.AddType(&Unknown{})
	b.Never = arena.AddType(&Never{})
	b.Error = arena.AddType(&ErrorType{})
	b.NoRefine = arena.AddType(&NoRefine{})

	b.Falsy = arena.AddType(&Union{Options: []TypeID{b.False, b.Nil}})
	b.Truthy = arena.AddType(&Negation{Ty: b.Falsy})

	b.EmptyPack = arena.AddPack(&TypePack{})
	b.AnyPack = arena.AddPack(&VariadicPack{Ty: b.Any})
	b.ErrorPack = arena.AddPack(&ErrorPack{})

	// The string metatable indexes into a small string library, which is
	// enough for getmetatable and __index lookups on strings.
	str := arena.AddType(&Primitive{Kind: PrimitiveString})
	b.String = str
	strArgs := arena.NewPack(str)
	numPack := arena.NewPack(b.Number)
	strPack := arena.NewPack(str)
	lib := arena.AddType(&Table{
		Props: map[string]Property{
			"len":   NewProperty(arena.AddType(&Function{Args: strArgs, Rets: numPack})),
			"lower": NewProperty(arena.AddType(&Function{Args: strArgs, Rets: strPack})),
			"upper": NewProperty(arena.AddType(&Function{Args: strArgs, Rets: strPack})),
			"rep":   NewProperty(arena.AddType(&Function{Args: arena.NewPack(str, b.Number), Rets: strPack})),
		},
	})
	meta := arena.AddType(&Table{
		Props: map[string]Property{
			"__index": NewProperty(lib),
		},
	})
	arena.types[str.index] = &Primitive{Kind: PrimitiveString, Metatable: meta}

	arena.Freeze()
	return b
}
