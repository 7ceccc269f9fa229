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

// FunctionKind names a type function. The set of kinds is closed: dispatch
// over it is a switch, not an indirect call.
type FunctionKind int

// These are the type function kinds.
const (
	FuncUser FunctionKind = iota
	FuncNot
	FuncLen
	FuncUnm
	FuncAdd
	FuncSub
	FuncMul
	FuncDiv
	FuncIdiv
	FuncPow
	FuncMod
	FuncConcat
	FuncAnd
	FuncOr
	FuncLt
	FuncLe
	FuncEq
	FuncRefine
	FuncSingleton
	FuncUnion
	FuncIntersect
	FuncKeyof
	FuncRawkeyof
	FuncIndex
	FuncRawget
	FuncSetmetatable
	FuncGetmetatable
	FuncWeakoptional
)

// TypeFunction describes a type function.
type TypeFunction struct {
	Kind FunctionKind
	Name string

	// CanReduceGenerics is true if the function can produce a result when
	// an argument is a generic type.
	CanReduceGenerics bool
}

// InstanceState is the terminal state of a type function instance.
type InstanceState int

// These are the instance states. Once an instance leaves Unsolved it never
// goes back within the same run.
const (
	// Unsolved means the instance may still reduce.
	Unsolved InstanceState = iota

	// Solved means a best-effort answer was given and the instance should
	// be treated like a generic by its dependents.
	Solved

	// Stuck means the instance has no valid reduction.
	Stuck
)

// String returns a name for the state.
func (obj InstanceState) String() string {
	switch obj {
	case Unsolved:
		return "unsolved"
	case Solved:
		return "solved"
	case Stuck:
		return "stuck"
	}
	return "invalid"
}

// Module is the checking unit that declared a user type function. Once it is
// unloaded, its functions can no longer be evaluated.
type Module struct {
	Name     string
	unloaded bool
}

// Unload marks the module as gone.
func (obj *Module) Unload() { obj.unloaded = true }

// Unloaded returns true if Unload was called.
func (obj *Module) Unloaded() bool { return obj.unloaded }

// Definition is the source of a user type function. Body is the function
// expression, for example `function(t) return t end`.
type Definition struct {
	Name      string
	Body      string
	HasErrors bool
}

// EnvFunction is a user function visible from another one. Depth is the scope
// depth it was declared at.
type EnvFunction struct {
	Definition *Definition
	Depth      int
}

// EnvAlias is a type alias visible from a user function.
type EnvAlias struct {
	Alias *TypeAlias
	Depth int
}

// UserFunction is the data carried by an instance of the user kind.
type UserFunction struct {
	Name       string
	Definition *Definition
	Owner      *Module

	// Functions holds every user function visible from this one, including
	// itself.
	Functions map[string]EnvFunction

	// Aliases holds every type alias visible from this function.
	Aliases map[string]EnvAlias
}

// GenericParam is a type parameter of an alias, with an optional default.
type GenericParam struct {
	Ty      TypeID
	Default TypeID
}

// GenericPackParam is a pack parameter of an alias, with an optional default.
type GenericPackParam struct {
	Tp      PackID
	Default PackID
}

// TypeAlias is a possibly parameterized type alias.
type TypeAlias struct {
	TypeParams []GenericParam
	PackParams []GenericPackParam
	Type       TypeID
}

// Simple returns true if the alias takes no parameters.
func (obj *TypeAlias) Simple() bool {
	return len(obj.TypeParams) == 0 && len(obj.PackParams) == 0
}
