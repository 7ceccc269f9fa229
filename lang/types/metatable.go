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

// GetMetatable returns the metatable attached to a type, if any. Strings and
// string singletons share the metatable of the string primitive.
func GetMetatable(b *Builtins, ty TypeID) (TypeID, bool) {
	ty = Follow(ty)
	var mt TypeID
	switch t := ty.Node().(type) {
	case *Metatable:
		mt = t.Metatable
	case *Extern:
		mt = t.Metatable
	case *Primitive:
		mt = t.Metatable
	case *StringSingleton:
		if p, ok := Get[*Primitive](Follow(b.String)); ok {
			mt = p.Metatable
		}
	}
	return mt, mt.Valid()
}

// tableOf returns the table shape of a type, looking through a metatable.
func tableOf(ty TypeID) (*Table, bool) {
	ty = Follow(ty)
	if m, ok := Get[*Metatable](ty); ok {
		ty = Follow(m.Table)
	}
	return Get[*Table](ty)
}

// FindMetatableEntry looks up a field of the metatable of a type. An `any`
// metatable answers `any` for every field.
func FindMetatableEntry(b *Builtins, ty TypeID, name string) (TypeID, bool) {
	mt, ok := GetMetatable(b, ty)
	if !ok {
		return TypeID{}, false
	}
	mt = Follow(mt)
	if Is[*Any](mt) {
		return b.Any, true
	}
	tbl, ok := tableOf(mt)
	if !ok {
		return TypeID{}, false
	}
	prop, exists := tbl.Props[name]
	if !exists {
		return TypeID{}, false
	}
	return prop.Type()
}
