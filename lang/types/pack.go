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

// Pack is the variant stored in a type pack node slot.
type Pack interface {
	packNode()
}

// TypePack is a finite list of types with an optional tail pack.
type TypePack struct {
	Head []TypeID
	Tail PackID // optional
}

// VariadicPack is an unbounded repetition of one type.
type VariadicPack struct {
	Ty TypeID
}

// GenericPack is a quantified pack variable.
type GenericPack struct {
	Name string
}

// FreePack is a pack variable that has not been solved yet.
type FreePack struct{}

// BlockedPack is a placeholder for a pack that is not known yet.
type BlockedPack struct{}

// ErrorPack is the pack of an expression that already produced an error.
type ErrorPack struct{}

// FunctionInstancePack is an unreduced application of a type pack function.
type FunctionInstancePack struct {
	Function *TypeFunction
	TypeArgs []TypeID
	PackArgs []PackID
}

// BoundPack is a link to another pack. Use FollowPack to resolve it.
type BoundPack struct {
	To PackID
}

func (obj *TypePack) packNode()             {}
func (obj *VariadicPack) packNode()         {}
func (obj *GenericPack) packNode()          {}
func (obj *FreePack) packNode()             {}
func (obj *BlockedPack) packNode()          {}
func (obj *ErrorPack) packNode()            {}
func (obj *FunctionInstancePack) packNode() {}
func (obj *BoundPack) packNode()            {}

// Flatten walks the chain of tails of a pack and returns every known head
// element plus the final tail, which is invalid if the pack is finite.
func Flatten(id PackID) ([]TypeID, PackID) {
	head := []TypeID{}
	seen := make(map[PackID]struct{})
	id = FollowPack(id)
	for id.Valid() {
		if _, exists := seen[id]; exists {
			break
		}
		seen[id] = struct{}{}
		tp, ok := GetPack[*TypePack](id)
		if !ok {
			return head, id
		}
		head = append(head, tp.Head...)
		if !tp.Tail.Valid() {
			return head, PackID{}
		}
		id = FollowPack(tp.Tail)
	}
	return head, id
}

// First returns the first element of a pack, looking through variadic tails.
func First(id PackID) (TypeID, bool) {
	head, tail := Flatten(id)
	if len(head) > 0 {
		return head[0], true
	}
	if v, ok := GetPack[*VariadicPack](tail); ok {
		return v.Ty, true
	}
	return TypeID{}, false
}

// Extend returns up to n leading elements of a pack. Variadic tails are
// repeated as needed. Any other tail ends the result early.
func Extend(id PackID, n int) []TypeID {
	head, tail := Flatten(id)
	if len(head) >= n {
		return head[:n]
	}
	if v, ok := GetPack[*VariadicPack](tail); ok {
		for len(head) < n {
			head = append(head, v.Ty)
		}
	}
	return head
}
