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

package interfaces

import (
	"sort"

	"github.com/purpleidea/typefunc/lang/types"
)

// NormalizedStrings is a set of strings. If Cofinite is false it contains
// exactly the Singletons, otherwise it contains every string except those.
type NormalizedStrings struct {
	Cofinite   bool
	Singletons map[string]struct{}
}

// IsNever returns true if the set is empty.
func (obj *NormalizedStrings) IsNever() bool {
	return !obj.Cofinite && len(obj.Singletons) == 0
}

// IsString returns true if the set is every string.
func (obj *NormalizedStrings) IsString() bool {
	return obj.Cofinite && len(obj.Singletons) == 0
}

// Keys returns the singletons in sorted order.
func (obj *NormalizedStrings) Keys() []string {
	keys := []string{}
	for k := range obj.Singletons {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NormalizedFunctions is a set of function types. Top means the top function
// type, in which case Parts is ignored.
type NormalizedFunctions struct {
	Top   bool
	Parts []types.TypeID
}

// IsNever returns true if there is no function in the set.
func (obj *NormalizedFunctions) IsNever() bool {
	return !obj.Top && len(obj.Parts) == 0
}

// NormalizedType is a type in union-of-kinds normal form: one component per
// kind of value. A component that is unset contributes nothing. If Tops is set,
// every other component is empty.
type NormalizedType struct {
	// Tops is invalid, unknown or any.
	Tops types.TypeID

	True  bool
	False bool

	Errors  bool
	Nils    bool
	Numbers bool
	Strings NormalizedStrings
	Threads bool
	Buffers bool

	Functions NormalizedFunctions

	// Tables holds table and metatable shapes, and possibly the top table.
	Tables []types.TypeID

	// Externs holds extern types.
	Externs []types.TypeID

	// Tyvars holds the type variables of the union. They are opaque.
	Tyvars []types.TypeID

	// Limited is set if the normalizer gave up on part of the type.
	Limited bool
}

// ShouldSuppressErrors returns true if the type contains any or the error
// type.
func (obj *NormalizedType) ShouldSuppressErrors() bool {
	return obj.Errors || (obj.Tops.Valid() && types.Is[*types.Any](obj.Tops))
}

// HitLimits returns true if the normalizer did not finish.
func (obj *NormalizedType) HitLimits() bool { return obj.Limited }

// HasTops returns true if the type is unknown or any.
func (obj *NormalizedType) HasTops() bool { return obj.Tops.Valid() }

// HasBooleans returns true if either boolean is present.
func (obj *NormalizedType) HasBooleans() bool { return obj.True || obj.False }

// HasErrors returns true if the error type is present.
func (obj *NormalizedType) HasErrors() bool { return obj.Errors }

// HasNils returns true if nil is present.
func (obj *NormalizedType) HasNils() bool { return obj.Nils }

// HasNumbers returns true if number is present.
func (obj *NormalizedType) HasNumbers() bool { return obj.Numbers }

// HasStrings returns true if any string is present.
func (obj *NormalizedType) HasStrings() bool { return !obj.Strings.IsNever() }

// HasThreads returns true if thread is present.
func (obj *NormalizedType) HasThreads() bool { return obj.Threads }

// HasBuffers returns true if buffer is present.
func (obj *NormalizedType) HasBuffers() bool { return obj.Buffers }

// HasFunctions returns true if any function is present.
func (obj *NormalizedType) HasFunctions() bool { return !obj.Functions.IsNever() }

// HasTables returns true if any table is present.
func (obj *NormalizedType) HasTables() bool { return len(obj.Tables) > 0 }

// HasExterns returns true if any extern is present.
func (obj *NormalizedType) HasExterns() bool { return len(obj.Externs) > 0 }

// HasTyvars returns true if any type variable is present.
func (obj *NormalizedType) HasTyvars() bool { return len(obj.Tyvars) > 0 }

// HasTopTable returns true if the top table type is present.
func (obj *NormalizedType) HasTopTable() bool {
	for _, t := range obj.Tables {
		if types.IsPrimitive(t, types.PrimitiveTable) {
			return true
		}
	}
	return false
}

// kinds lists which kinds are present, in a fixed order.
func (obj *NormalizedType) kinds() []bool {
	return []bool{
		obj.HasTops(),
		obj.HasBooleans(),
		obj.HasErrors(),
		obj.HasNils(),
		obj.HasNumbers(),
		obj.HasStrings(),
		obj.HasThreads(),
		obj.HasBuffers(),
		obj.HasFunctions(),
		obj.HasTables(),
		obj.HasExterns(),
		obj.HasTyvars(),
	}
}

// IsNever returns true if nothing is present at all.
func (obj *NormalizedType) IsNever() bool {
	for _, b := range obj.kinds() {
		if b {
			return false
		}
	}
	return true
}

// only returns true if the given kind is present and nothing else is.
func (obj *NormalizedType) only(index int) bool {
	for i, b := range obj.kinds() {
		if b != (i == index) {
			return false
		}
	}
	return true
}

// IsExactlyNumber returns true if the type is exactly number.
func (obj *NormalizedType) IsExactlyNumber() bool {
	return obj.only(4)
}

// IsSubtypeOfString returns true if the type is a non-empty set of strings.
func (obj *NormalizedType) IsSubtypeOfString() bool {
	return obj.only(5)
}

// IsSubtypeOfBooleans returns true if the type is a non-empty set of
// booleans.
func (obj *NormalizedType) IsSubtypeOfBooleans() bool {
	return obj.only(1)
}

// HasOnlyTablesOrExterns returns true if there is nothing but tables and
// externs.
func (obj *NormalizedType) HasOnlyTablesOrExterns() bool {
	for i, b := range obj.kinds() {
		if b && i != 9 && i != 10 {
			return false
		}
	}
	return obj.HasTables() || obj.HasExterns()
}
