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
	"sort"

	lua "github.com/yuin/gopher-lua"
)

// typeMetatableName is the registry name of the metatable of type values.
const typeMetatableName = "typefunc.type"

// push wraps a value for user code. The same value always gives the same
// userdata, so that rawequal works as expected.
func (obj *call) push(v *Value) lua.LValue {
	if v == nil {
		return lua.LNil
	}
	if ud, exists := obj.userdata[v]; exists {
		return ud
	}
	ud := obj.L.NewUserData()
	ud.Value = v
	obj.L.SetMetatable(ud, obj.L.GetTypeMetatable(typeMetatableName))
	obj.userdata[v] = ud
	return ud
}

// toValue returns the value inside of a Lua value, if it is a type.
func toValue(lv lua.LValue) (*Value, bool) {
	ud, ok := lv.(*lua.LUserData)
	if !ok {
		return nil, false
	}
	v, ok := ud.Value.(*Value)
	return v, ok
}

// check returns argument n, which must be a type.
func (obj *call) check(n int) *Value {
	v, ok := toValue(obj.L.Get(n))
	if !ok {
		obj.L.ArgError(n, "type expected")
		return nil
	}
	return v
}

// optional returns argument n, which must be a type or nil.
func (obj *call) optional(n int) *Value {
	if obj.L.Get(n) == lua.LNil {
		return nil
	}
	return obj.check(n)
}

// key returns a property name from argument n, which may be a string or a
// string singleton type.
func (obj *call) key(n int) string {
	switch x := obj.L.Get(n).(type) {
	case lua.LString:
		return string(x)
	case *lua.LUserData:
		if v, ok := toValue(x); ok && v.Tag == TagSingleton {
			if s, ok := v.Singleton.(string); ok {
				return s
			}
		}
	}
	obj.L.ArgError(n, "string or string singleton expected")
	return ""
}

// expect raises an error unless v has one of the tags.
func (obj *call) expect(method string, v *Value, tags ...string) {
	for _, tag := range tags {
		if v.Tag == tag {
			return
		}
	}
	obj.L.RaiseError("type.%s: not supported on a %s type", method, v.Tag)
}

func (obj *call) list(values []*Value) *lua.LTable {
	tbl := obj.L.NewTable()
	for _, v := range values {
		tbl.Append(obj.push(v))
	}
	return tbl
}

func (obj *call) packTable(p *Pack) *lua.LTable {
	tbl := obj.L.NewTable()
	if p == nil {
		tbl.RawSetString("head", obj.L.NewTable())
		return tbl
	}
	tbl.RawSetString("head", obj.list(p.Head))
	if p.Tail != nil {
		tbl.RawSetString("tail", obj.push(p.Tail))
	}
	return tbl
}

// packFrom reads a { head = {...}, tail = T } table.
func (obj *call) packFrom(n int, lv lua.LValue) *Pack {
	p := &Pack{}
	if lv == lua.LNil {
		return p
	}
	tbl, ok := lv.(*lua.LTable)
	if !ok {
		obj.L.ArgError(n, "pack table expected")
		return nil
	}
	if head, ok := tbl.RawGetString("head").(*lua.LTable); ok {
		for i := 1; i <= head.Len(); i++ {
			v, ok := toValue(head.RawGetInt(i))
			if !ok {
				obj.L.ArgError(n, "pack head must only hold types")
				return nil
			}
			p.Head = append(p.Head, v)
		}
	}
	if tail := tbl.RawGetString("tail"); tail != lua.LNil {
		v, ok := toValue(tail)
		if !ok {
			obj.L.ArgError(n, "pack tail must be a type")
			return nil
		}
		p.Tail = v
	}
	return p
}

// openLibrary installs the type value metatable and the types global.
func (obj *call) openLibrary() {
	L := obj.L

	mt := L.NewTypeMetatable(typeMetatableName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"tag":           obj.methodTag,
		"is":            obj.methodIs,
		"value":         obj.methodValue,
		"inner":         obj.methodInner,
		"components":    obj.methodComponents,
		"properties":    obj.methodProperties,
		"readproperty":  obj.methodReadProperty,
		"writeproperty": obj.methodWriteProperty,
		"setproperty":   obj.methodSetProperty,
		"indexer":       obj.methodIndexer,
		"setindexer":    obj.methodSetIndexer,
		"metatable":     obj.methodMetatable,
		"setmetatable":  obj.methodSetMetatable,
		"parameters":    obj.methodParameters,
		"setparameters": obj.methodSetParameters,
		"returns":       obj.methodReturns,
		"setreturns":    obj.methodSetReturns,
		"generics":      obj.methodGenerics,
		"name":          obj.methodName,
		"parent":        obj.methodParent,
		"ispack":        obj.methodIsPack,
	}))
	L.SetField(mt, "__eq", L.NewFunction(func(L *lua.LState) int {
		a, _ := toValue(L.Get(1))
		b, _ := toValue(L.Get(2))
		L.Push(lua.LBool(a != nil && a.Equal(b)))
		return 1
	}))
	L.SetField(mt, "__tostring", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(describe(obj.check(1))))
		return 1
	}))

	lib := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"singleton":      obj.libSingleton,
		"negationof":     obj.libNegationOf,
		"unionof":        obj.libUnionOf,
		"intersectionof": obj.libIntersectionOf,
		"newtable":       obj.libNewTable,
		"newfunction":    obj.libNewFunction,
		"generic":        obj.libGeneric,
		"copy":           obj.libCopy,
	})
	for _, tag := range []string{TagUnknown, TagNever, TagAny, TagBoolean, TagNumber, TagString, TagThread, TagBuffer} {
		lib.RawSetString(tag, obj.push(&Value{Tag: tag}))
	}
	L.SetGlobal("types", lib)
}

func (obj *call) methodTag(L *lua.LState) int {
	L.Push(lua.LString(obj.check(1).Tag))
	return 1
}

func (obj *call) methodIs(L *lua.LState) int {
	v := obj.check(1)
	L.Push(lua.LBool(v.Tag == L.CheckString(2)))
	return 1
}

func (obj *call) methodValue(L *lua.LState) int {
	v := obj.check(1)
	obj.expect("value", v, TagSingleton)
	switch x := v.Singleton.(type) {
	case string:
		L.Push(lua.LString(x))
	case bool:
		L.Push(lua.LBool(x))
	default:
		L.Push(lua.LNil)
	}
	return 1
}

func (obj *call) methodInner(L *lua.LState) int {
	v := obj.check(1)
	obj.expect("inner", v, TagNegation)
	L.Push(obj.push(v.Inner))
	return 1
}

func (obj *call) methodComponents(L *lua.LState) int {
	v := obj.check(1)
	obj.expect("components", v, TagUnion, TagIntersection)
	L.Push(obj.list(v.Components))
	return 1
}

func (obj *call) methodProperties(L *lua.LState) int {
	v := obj.check(1)
	obj.expect("properties", v, TagTable, TagClass)
	names := []string{}
	for name := range v.Props {
		names = append(names, name)
	}
	sort.Strings(names)

	tbl := L.NewTable()
	for _, name := range names {
		p := v.Props[name]
		entry := L.NewTable()
		if p.Read != nil {
			entry.RawSetString("read", obj.push(p.Read))
		}
		if p.Write != nil {
			entry.RawSetString("write", obj.push(p.Write))
		}
		tbl.RawSetString(name, entry)
	}
	L.Push(tbl)
	return 1
}

func (obj *call) methodReadProperty(L *lua.LState) int {
	v := obj.check(1)
	obj.expect("readproperty", v, TagTable, TagClass)
	if p, exists := v.Props[obj.key(2)]; exists && p.Read != nil {
		L.Push(obj.push(p.Read))
		return 1
	}
	L.Push(lua.LNil)
	return 1
}

func (obj *call) methodWriteProperty(L *lua.LState) int {
	v := obj.check(1)
	obj.expect("writeproperty", v, TagTable, TagClass)
	if p, exists := v.Props[obj.key(2)]; exists && p.Write != nil {
		L.Push(obj.push(p.Write))
		return 1
	}
	L.Push(lua.LNil)
	return 1
}

// methodSetProperty sets a read-write property, or removes it if the type is
// nil.
func (obj *call) methodSetProperty(L *lua.LState) int {
	v := obj.check(1)
	obj.expect("setproperty", v, TagTable)
	name := obj.key(2)
	ty := obj.optional(3)
	if v.Props == nil {
		v.Props = make(map[string]*Property)
	}
	if ty == nil {
		delete(v.Props, name)
		return 0
	}
	v.Props[name] = &Property{Read: ty, Write: ty}
	return 0
}

func (obj *call) methodIndexer(L *lua.LState) int {
	v := obj.check(1)
	obj.expect("indexer", v, TagTable, TagClass)
	if v.Indexer == nil {
		L.Push(lua.LNil)
		return 1
	}
	tbl := L.NewTable()
	tbl.RawSetString("index", obj.push(v.Indexer.Key))
	tbl.RawSetString("readresult", obj.push(v.Indexer.Value))
	tbl.RawSetString("writeresult", obj.push(v.Indexer.Value))
	L.Push(tbl)
	return 1
}

func (obj *call) methodSetIndexer(L *lua.LState) int {
	v := obj.check(1)
	obj.expect("setindexer", v, TagTable)
	key := obj.optional(2)
	if key == nil {
		v.Indexer = nil
		return 0
	}
	v.Indexer = &Indexer{Key: key, Value: obj.check(3)}
	return 0
}

func (obj *call) methodMetatable(L *lua.LState) int {
	v := obj.check(1)
	obj.expect("metatable", v, TagTable, TagClass)
	L.Push(obj.push(v.Metatable))
	return 1
}

func (obj *call) methodSetMetatable(L *lua.LState) int {
	v := obj.check(1)
	obj.expect("setmetatable", v, TagTable)
	mt := obj.optional(2)
	if mt != nil && mt.Tag != TagTable {
		L.ArgError(2, "metatable must be a table type")
		return 0
	}
	v.Metatable = mt
	return 0
}

func (obj *call) methodParameters(L *lua.LState) int {
	v := obj.check(1)
	obj.expect("parameters", v, TagFunction)
	L.Push(obj.packTable(v.Params))
	return 1
}

func (obj *call) methodSetParameters(L *lua.LState) int {
	v := obj.check(1)
	obj.expect("setparameters", v, TagFunction)
	v.Params = obj.packFrom(2, L.Get(2))
	return 0
}

func (obj *call) methodReturns(L *lua.LState) int {
	v := obj.check(1)
	obj.expect("returns", v, TagFunction)
	L.Push(obj.packTable(v.Returns))
	return 1
}

func (obj *call) methodSetReturns(L *lua.LState) int {
	v := obj.check(1)
	obj.expect("setreturns", v, TagFunction)
	v.Returns = obj.packFrom(2, L.Get(2))
	return 0
}

func (obj *call) methodGenerics(L *lua.LState) int {
	v := obj.check(1)
	obj.expect("generics", v, TagFunction)
	L.Push(obj.list(v.Generics))
	return 1
}

func (obj *call) methodName(L *lua.LState) int {
	v := obj.check(1)
	obj.expect("name", v, TagClass, TagGeneric)
	L.Push(lua.LString(v.Name))
	return 1
}

func (obj *call) methodParent(L *lua.LState) int {
	v := obj.check(1)
	obj.expect("parent", v, TagClass)
	L.Push(obj.push(v.Parent))
	return 1
}

func (obj *call) methodIsPack(L *lua.LState) int {
	v := obj.check(1)
	obj.expect("ispack", v, TagGeneric)
	L.Push(lua.LBool(v.Pack))
	return 1
}

// libSingleton builds a singleton from a string or a boolean. A nil gives the
// nil type.
func (obj *call) libSingleton(L *lua.LState) int {
	switch x := L.Get(1).(type) {
	case lua.LString:
		L.Push(obj.push(&Value{Tag: TagSingleton, Singleton: string(x)}))
	case lua.LBool:
		L.Push(obj.push(&Value{Tag: TagSingleton, Singleton: bool(x)}))
	default:
		if x != lua.LNil {
			L.ArgError(1, "string, boolean or nil expected")
			return 0
		}
		L.Push(obj.push(&Value{Tag: TagNil}))
	}
	return 1
}

func (obj *call) libNegationOf(L *lua.LState) int {
	v := obj.check(1)
	if v.Tag == TagTable || v.Tag == TagFunction {
		L.RaiseError("types.negationof: can not negate a %s type", v.Tag)
		return 0
	}
	L.Push(obj.push(&Value{Tag: TagNegation, Inner: v}))
	return 1
}

func (obj *call) components(name string) []*Value {
	n := obj.L.GetTop()
	if n < 2 {
		obj.L.RaiseError("types.%s: at least two types are needed, got %d", name, n)
		return nil
	}
	out := []*Value{}
	for i := 1; i <= n; i++ {
		out = append(out, obj.check(i))
	}
	return out
}

func (obj *call) libUnionOf(L *lua.LState) int {
	L.Push(obj.push(&Value{Tag: TagUnion, Components: obj.components("unionof")}))
	return 1
}

func (obj *call) libIntersectionOf(L *lua.LState) int {
	L.Push(obj.push(&Value{Tag: TagIntersection, Components: obj.components("intersectionof")}))
	return 1
}

// libNewTable builds a table type from optional props, indexer and
// metatable arguments. A prop is a type, or a { read = T, write = U } table.
func (obj *call) libNewTable(L *lua.LState) int {
	v := &Value{Tag: TagTable, Props: make(map[string]*Property)}

	if props := L.Get(1); props != lua.LNil {
		tbl, ok := props.(*lua.LTable)
		if !ok {
			L.ArgError(1, "table of properties expected")
			return 0
		}
		failed := false
		tbl.ForEach(func(k, val lua.LValue) {
			if failed {
				return
			}
			name, ok := k.(lua.LString)
			if !ok {
				failed = true
				return
			}
			if ty, ok := toValue(val); ok {
				v.Props[string(name)] = &Property{Read: ty, Write: ty}
				return
			}
			rw, ok := val.(*lua.LTable)
			if !ok {
				failed = true
				return
			}
			p := &Property{}
			p.Read, _ = toValue(rw.RawGetString("read"))
			p.Write, _ = toValue(rw.RawGetString("write"))
			v.Props[string(name)] = p
		})
		if failed {
			L.ArgError(1, "properties must map names to types")
			return 0
		}
	}

	if indexer := L.Get(2); indexer != lua.LNil {
		tbl, ok := indexer.(*lua.LTable)
		if !ok {
			L.ArgError(2, "indexer table expected")
			return 0
		}
		key, ok := toValue(tbl.RawGetString("index"))
		value, ok2 := toValue(tbl.RawGetString("readresult"))
		if !ok || !ok2 {
			L.ArgError(2, "indexer needs index and readresult types")
			return 0
		}
		v.Indexer = &Indexer{Key: key, Value: value}
	}

	if mt := obj.optional(3); mt != nil {
		if mt.Tag != TagTable {
			L.ArgError(3, "metatable must be a table type")
			return 0
		}
		v.Metatable = mt
	}

	L.Push(obj.push(v))
	return 1
}

func (obj *call) libNewFunction(L *lua.LState) int {
	v := &Value{
		Tag:     TagFunction,
		Params:  obj.packFrom(1, L.Get(1)),
		Returns: obj.packFrom(2, L.Get(2)),
	}
	if generics := L.Get(3); generics != lua.LNil {
		tbl, ok := generics.(*lua.LTable)
		if !ok {
			L.ArgError(3, "table of generics expected")
			return 0
		}
		for i := 1; i <= tbl.Len(); i++ {
			g, ok := toValue(tbl.RawGetInt(i))
			if !ok || g.Tag != TagGeneric {
				L.ArgError(3, "generics must be generic types")
				return 0
			}
			v.Generics = append(v.Generics, g)
		}
	}
	L.Push(obj.push(v))
	return 1
}

func (obj *call) libGeneric(L *lua.LState) int {
	name := L.CheckString(1)
	pack := L.OptBool(2, false)
	L.Push(obj.push(&Value{Tag: TagGeneric, Name: name, Pack: pack}))
	return 1
}

func (obj *call) libCopy(L *lua.LState) int {
	L.Push(obj.push(obj.check(1).Copy()))
	return 1
}
