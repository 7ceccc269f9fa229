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

package funcs

import (
	"context"
	"fmt"
	"sort"

	"github.com/purpleidea/typefunc/lang/types"
	"github.com/purpleidea/typefunc/util"
)

// ErrNotFound is returned by Lookup for an unknown function name.
const ErrNotFound = util.Error("type function not found")

// registeredFuncs is a global map of all the builtin type functions. You
// should never touch this map directly. Use methods like Register instead.
var registeredFuncs = make(map[string]*types.TypeFunction) // must initialize

// builtinFuncs indexes the same descriptors by kind.
var builtinFuncs = make(map[types.FunctionKind]*types.TypeFunction)

// Register makes a type function available by name. It is called from init()
// for each builtin. There is no matching Unregister function.
func Register(fn *types.TypeFunction) {
	if _, exists := registeredFuncs[fn.Name]; exists {
		panic(fmt.Sprintf("a type function named %s is already registered", fn.Name))
	}
	if _, exists := builtinFuncs[fn.Kind]; exists {
		panic(fmt.Sprintf("a type function of kind %d is already registered", fn.Kind))
	}
	registeredFuncs[fn.Name] = fn
	builtinFuncs[fn.Kind] = fn
}

// Lookup returns the descriptor of a registered type function.
func Lookup(name string) (*types.TypeFunction, error) {
	fn, exists := registeredFuncs[name]
	if !exists {
		return nil, ErrNotFound
	}
	return fn, nil
}

// LookupFunc is Lookup with the shape that the type parser wants. The user
// kind is not available this way, since its instances need a definition.
func LookupFunc(name string) (*types.TypeFunction, bool) {
	fn, err := Lookup(name)
	if err != nil || fn.Kind == types.FuncUser {
		return nil, false
	}
	return fn, true
}

// Builtin returns the descriptor of a kind. It panics on an unknown kind.
func Builtin(kind types.FunctionKind) *types.TypeFunction {
	fn, exists := builtinFuncs[kind]
	if !exists {
		panic(fmt.Sprintf("no type function of kind %d", kind))
	}
	return fn
}

// Names returns the names of every registered function, sorted.
func Names() []string {
	names := []string{}
	for name := range registeredFuncs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	generic := map[types.FunctionKind]bool{
		types.FuncAnd:    true,
		types.FuncOr:     true,
		types.FuncRefine: true,
	}
	for kind, name := range map[types.FunctionKind]string{
		types.FuncUser:         "user",
		types.FuncNot:          "not",
		types.FuncLen:          "len",
		types.FuncUnm:          "unm",
		types.FuncAdd:          "add",
		types.FuncSub:          "sub",
		types.FuncMul:          "mul",
		types.FuncDiv:          "div",
		types.FuncIdiv:         "idiv",
		types.FuncPow:          "pow",
		types.FuncMod:          "mod",
		types.FuncConcat:       "concat",
		types.FuncAnd:          "and",
		types.FuncOr:           "or",
		types.FuncLt:           "lt",
		types.FuncLe:           "le",
		types.FuncEq:           "eq",
		types.FuncRefine:       "refine",
		types.FuncSingleton:    "singleton",
		types.FuncUnion:        "union",
		types.FuncIntersect:    "intersect",
		types.FuncKeyof:        "keyof",
		types.FuncRawkeyof:     "rawkeyof",
		types.FuncIndex:        "index",
		types.FuncRawget:       "rawget",
		types.FuncSetmetatable: "setmetatable",
		types.FuncGetmetatable: "getmetatable",
		types.FuncWeakoptional: "weakoptional",
	} {
		Register(&types.TypeFunction{
			Kind:              kind,
			Name:              name,
			CanReduceGenerics: generic[kind],
		})
	}
}

// reducerOf returns the implementation of a kind.
func reducerOf(fn *types.TypeFunction) (reducer, bool) {
	switch fn.Kind {
	case types.FuncUser:
		return userFunc, true
	case types.FuncNot:
		return notFunc, true
	case types.FuncLen:
		return lenFunc, true
	case types.FuncUnm:
		return unmFunc, true
	case types.FuncAdd, types.FuncSub, types.FuncMul, types.FuncDiv, types.FuncIdiv, types.FuncPow, types.FuncMod:
		return numericBinop(fn.Name, metamethods[fn.Kind]), true
	case types.FuncConcat:
		return concatFunc, true
	case types.FuncAnd:
		return andFunc, true
	case types.FuncOr:
		return orFunc, true
	case types.FuncLt, types.FuncLe:
		return comparison(fn.Name, metamethods[fn.Kind]), true
	case types.FuncEq:
		return eqFunc, true
	case types.FuncRefine:
		return refineFunc, true
	case types.FuncSingleton:
		return singletonFunc, true
	case types.FuncUnion:
		return unionFunc, true
	case types.FuncIntersect:
		return intersectFunc, true
	case types.FuncKeyof:
		return keyofFunc("keyof", false), true
	case types.FuncRawkeyof:
		return keyofFunc("rawkeyof", true), true
	case types.FuncIndex:
		return indexFunc("index", false), true
	case types.FuncRawget:
		return indexFunc("rawget", true), true
	case types.FuncSetmetatable:
		return setmetatableFunc, true
	case types.FuncGetmetatable:
		return getmetatableFunc, true
	case types.FuncWeakoptional:
		return weakoptionalFunc, true
	}
	return nil, false
}

// Reduce runs the function of an instance on the given arguments. The
// arguments are usually those of the instance, already followed.
func Reduce(ctx context.Context, tfctx *Context, instance types.TypeID, typeArgs []types.TypeID, packArgs []types.PackID) Reduction {
	fi, ok := types.Get[*types.FunctionInstance](types.Follow(instance))
	if !ok || fi.Function == nil {
		tfctx.ice(fmt.Sprintf("%s is not a type function instance", types.ToString(instance)))
		return erroneous()
	}
	f, ok := reducerOf(fi.Function)
	if !ok {
		tfctx.ice(fmt.Sprintf("type function %s has no implementation", fi.Function.Name))
		return erroneous()
	}
	return f(ctx, tfctx, types.Follow(instance), typeArgs, packArgs)
}

// ReducePack runs the function of a pack instance. None of the builtins are
// pack functions, so this is always a bug in whoever built the instance.
func ReducePack(ctx context.Context, tfctx *Context, instance types.PackID, typeArgs []types.TypeID, packArgs []types.PackID) PackReduction {
	name := "<nil>"
	if fi, ok := types.GetPack[*types.FunctionInstancePack](types.FollowPack(instance)); ok && fi.Function != nil {
		name = fi.Function.Name
	}
	tfctx.ice(fmt.Sprintf("type pack function %s has no implementation", name))
	return PackReduction{Status: Erroneous}
}

// AddToScope binds every builtin that can be written by hand as a generic
// alias, so that `add<number>` means add<number, number>.
func AddToScope(arena *types.Arena, scope map[string]*types.TypeAlias) {
	unary := func(kind types.FunctionKind) *types.TypeAlias {
		t := arena.AddType(&types.Generic{Name: "T"})
		return &types.TypeAlias{
			TypeParams: []types.GenericParam{{Ty: t}},
			Type:       arena.AddType(&types.FunctionInstance{Function: Builtin(kind), TypeArgs: []types.TypeID{t}}),
		}
	}
	binary := func(kind types.FunctionKind, defaulted bool) *types.TypeAlias {
		t := arena.AddType(&types.Generic{Name: "T"})
		u := arena.AddType(&types.Generic{Name: "U"})
		second := types.GenericParam{Ty: u}
		if defaulted {
			second.Default = t
		}
		return &types.TypeAlias{
			TypeParams: []types.GenericParam{{Ty: t}, second},
			Type:       arena.AddType(&types.FunctionInstance{Function: Builtin(kind), TypeArgs: []types.TypeID{t, u}}),
		}
	}

	for _, kind := range []types.FunctionKind{types.FuncLen, types.FuncUnm, types.FuncKeyof, types.FuncRawkeyof, types.FuncGetmetatable} {
		scope[Builtin(kind).Name] = unary(kind)
	}
	for _, kind := range []types.FunctionKind{
		types.FuncAdd, types.FuncSub, types.FuncMul, types.FuncDiv, types.FuncIdiv, types.FuncPow, types.FuncMod,
		types.FuncConcat, types.FuncLt, types.FuncLe, types.FuncEq,
	} {
		scope[Builtin(kind).Name] = binary(kind, true)
	}
	for _, kind := range []types.FunctionKind{types.FuncIndex, types.FuncRawget, types.FuncSetmetatable} {
		scope[Builtin(kind).Name] = binary(kind, false)
	}
}
