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
	"errors"
	"testing"
)

func TestArenaBind0(t *testing.T) {
	b := NewBuiltins()
	arena := NewArena("test")
	x := arena.AddType(&Blocked{})
	y := arena.AddType(&Blocked{})

	if err := arena.Bind(x, y); err != nil {
		t.Errorf("bind error: %+v", err)
	}
	if err := arena.Bind(y, x); !errors.Is(err, ErrSelfBinding) {
		t.Errorf("expected a self binding error, got: %+v", err)
	}
	if err := arena.Bind(y, b.Number); err != nil {
		t.Errorf("bind error: %+v", err)
	}
	if got := Follow(x); got != b.Number {
		t.Errorf("expected x to follow to number, got: %s", got)
	}
	if !Is[*Primitive](x) {
		t.Errorf("expected x to be a primitive")
	}
	if _, ok := Get[*Primitive](x); ok {
		t.Errorf("Get should not follow bound links")
	}

	// rebinding a bound node must still see the whole chain
	u := arena.AddType(&Blocked{})
	v := arena.AddType(&Blocked{})
	w := arena.AddType(&Blocked{})
	if err := arena.Bind(u, v); err != nil {
		t.Errorf("bind error: %+v", err)
	}
	if err := arena.Bind(w, u); err != nil {
		t.Errorf("bind error: %+v", err)
	}
	if err := arena.Bind(u, w); !errors.Is(err, ErrSelfBinding) {
		t.Errorf("expected a self binding error, got: %+v", err)
	}
	if got := Follow(w); got != v {
		t.Errorf("expected w to follow to v, got: %s", got)
	}

	p1 := arena.AddPack(&TypePack{})
	p2 := arena.AddPack(&TypePack{})
	p3 := arena.AddPack(&TypePack{})
	if err := arena.BindPack(p1, p2); err != nil {
		t.Errorf("bind error: %+v", err)
	}
	if err := arena.BindPack(p3, p1); err != nil {
		t.Errorf("bind error: %+v", err)
	}
	if err := arena.BindPack(p1, p3); !errors.Is(err, ErrSelfBinding) {
		t.Errorf("expected a self binding error, got: %+v", err)
	}
	if got := FollowPack(p3); got != p2 {
		t.Errorf("expected p3 to follow to p2, got: %s", PackString(got))
	}

	other := NewArena("other")
	z := other.AddType(&Blocked{})
	if err := arena.Bind(z, b.Number); !errors.Is(err, ErrForeignArena) {
		t.Errorf("expected a foreign arena error, got: %+v", err)
	}
	if err := b.Arena.Emplace(b.Number, &Never{}); !errors.Is(err, ErrFrozenArena) {
		t.Errorf("expected a frozen arena error, got: %+v", err)
	}
	if err := arena.Bind(TypeID{}, b.Number); !errors.Is(err, ErrInvalidNode) {
		t.Errorf("expected an invalid node error, got: %+v", err)
	}
}

func TestPackFlatten0(t *testing.T) {
	b := NewBuiltins()
	arena := NewArena("test")
	tail := arena.AddPack(&VariadicPack{Ty: b.String})
	mid := arena.AddPack(&TypePack{Head: []TypeID{b.Boolean}, Tail: tail})
	p := arena.AddPack(&TypePack{Head: []TypeID{b.Number}, Tail: mid})

	head, rest := Flatten(p)
	if len(head) != 2 || head[0] != b.Number || head[1] != b.Boolean {
		t.Errorf("unexpected head: %v", head)
	}
	if rest != tail {
		t.Errorf("unexpected tail: %s", PackString(rest))
	}
	if got := Extend(p, 4); len(got) != 4 || got[3] != b.String {
		t.Errorf("unexpected extension: %v", got)
	}
	if first, ok := First(tail); !ok || first != b.String {
		t.Errorf("unexpected first element of a variadic pack")
	}
	if _, ok := First(b.EmptyPack); ok {
		t.Errorf("the empty pack has no first element")
	}
	if s, exp := PackString(p), "(number, boolean, ...string)"; s != exp {
		t.Errorf("expected: `%s`, got: `%s`", exp, s)
	}
}

func TestMetatableEntry0(t *testing.T) {
	b := NewBuiltins()
	arena := NewArena("test")
	p := &Parser{Arena: arena, Builtins: b}

	if _, ok := FindMetatableEntry(b, b.String, "__index"); !ok {
		t.Errorf("expected the string metatable to have __index")
	}
	hello, _ := p.Parse(`"hello"`)
	if _, ok := GetMetatable(b, hello); !ok {
		t.Errorf("expected string singletons to share the string metatable")
	}
	if _, ok := GetMetatable(b, b.Number); ok {
		t.Errorf("expected number to have no metatable")
	}

	ty, err := p.Parse("{ @metatable { __add: (number, number) -> number }, { x: number } }")
	if err != nil {
		t.Errorf("parse error: %+v", err)
		return
	}
	add, ok := FindMetatableEntry(b, ty, "__add")
	if !ok {
		t.Errorf("expected to find __add")
		return
	}
	if s := ToString(add); s != "(number, number) -> number" {
		t.Errorf("unexpected __add: %s", s)
	}
	if _, ok := FindMetatableEntry(b, ty, "__sub"); ok {
		t.Errorf("expected __sub to be missing")
	}

	anyMeta := arena.AddType(&Metatable{Table: arena.AddType(&Table{}), Metatable: b.Any})
	if got, ok := FindMetatableEntry(b, anyMeta, "__len"); !ok || got != b.Any {
		t.Errorf("expected an any metatable to answer any")
	}
}

func TestSubstitution0(t *testing.T) {
	b := NewBuiltins()
	arena := NewArena("test")
	p := &Parser{Arena: arena, Builtins: b}

	g := arena.AddType(&Generic{Name: "T"})
	p.Names = map[string]TypeID{"T": g}
	ty, err := p.Parse("{ x: T, y: number, z: { w: T } }")
	if err != nil {
		t.Errorf("parse error: %+v", err)
		return
	}
	clean, err := p.Parse("{ y: number }")
	if err != nil {
		t.Errorf("parse error: %+v", err)
		return
	}

	sub := NewSubstitution(arena)
	sub.Types[g] = b.String
	out := sub.Type(ty)
	if s, exp := ToString(out), "{ x: string, y: number, z: { w: string } }"; s != exp {
		t.Errorf("expected: `%s`, got: `%s`", exp, s)
	}
	if s, exp := ToString(ty), "{ x: T, y: number, z: { w: T } }"; s != exp {
		t.Errorf("the original was modified: `%s`", s)
	}
	if got := sub.Type(clean); got != clean {
		t.Errorf("a clean type should not be copied")
	}
}

func TestWalkerCycle0(t *testing.T) {
	b := NewBuiltins()
	arena := NewArena("test")
	self := arena.AddType(&Blocked{})
	tbl := arena.AddType(&Table{Props: map[string]Property{
		"next": NewProperty(self),
		"n":    NewProperty(b.Number),
	}})
	if err := arena.Bind(self, tbl); err != nil {
		t.Errorf("bind error: %+v", err)
		return
	}

	visits, cycles := 0, 0
	w := &Walker{
		VisitType: func(w *Walker, id TypeID) bool {
			visits++
			return true
		},
		Cycle: func(w *Walker, id TypeID) {
			cycles++
		},
	}
	w.Type(self)
	if err := w.Err(); err != nil {
		t.Errorf("walk error: %+v", err)
	}
	if visits != 2 { // the table and number
		t.Errorf("expected 2 visits, got: %d", visits)
	}
	if cycles != 3 { // number once, and both sides of next
		t.Errorf("expected 3 revisits, got: %d", cycles)
	}

	deep := &Walker{Limit: 1}
	deep.Type(self)
	if err := deep.Err(); !errors.Is(err, ErrRecursionLimit) {
		t.Errorf("expected a recursion limit error, got: %+v", err)
	}
}
