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

//go:build !root

package unification

import (
	"testing"

	"github.com/purpleidea/typefunc/lang/interfaces"
	"github.com/purpleidea/typefunc/lang/types"
)

func TestUnify0(t *testing.T) {
	b := types.NewBuiltins()
	arena := types.NewArena("test")
	u := &Unifier{Arena: arena, Builtins: b, Logf: t.Logf, Debug: testing.Verbose()}

	free := arena.AddType(&types.Free{})
	if r := u.Unify(free, b.Number); r != interfaces.UnifyOk {
		t.Errorf("unify failed: %d", r)
	}
	if got := types.Follow(free); got != b.Number {
		t.Errorf("expected free to be bound to number, got: %s", got)
	}
}

func TestOccursCheck0(t *testing.T) {
	b := types.NewBuiltins()
	arena := types.NewArena("test")
	u := &Unifier{Arena: arena, Builtins: b}

	free := arena.AddType(&types.Free{})
	p := &types.Parser{Arena: arena, Builtins: b, Names: map[string]types.TypeID{"F": free}}
	tbl, err := p.Parse("{ x: F }")
	if err != nil {
		t.Errorf("parse error: %+v", err)
		return
	}
	if r := u.Unify(free, tbl); r != interfaces.UnifyOccursCheckFailed {
		t.Errorf("expected the occurs check to fail, got: %d", r)
	}
	if !types.Is[*types.Free](free) {
		t.Errorf("a failed unify should not bind")
	}
	if err := OccursCheck(free, b.Number); err != nil {
		t.Errorf("unexpected occurs check error: %+v", err)
	}
}

func TestInstantiate0(t *testing.T) {
	b := types.NewBuiltins()
	arena := types.NewArena("test")
	p := &types.Parser{Arena: arena, Builtins: b}
	fn, err := p.Parse("<T>(T, T) -> T")
	if err != nil {
		t.Errorf("parse error: %+v", err)
		return
	}

	inst := &Instantiator{Arena: arena}
	out, ok := inst.Instantiate(fn)
	if !ok {
		t.Errorf("instantiate failed")
		return
	}
	f, ok := types.Get[*types.Function](types.Follow(out))
	if !ok {
		t.Errorf("expected a function, got: %s", out)
		return
	}
	if len(f.Generics) != 0 {
		t.Errorf("expected no generics, got: %d", len(f.Generics))
	}
	head, _ := types.Flatten(f.Args)
	if len(head) != 2 || !types.Is[*types.Free](head[0]) || types.Follow(head[0]) != types.Follow(head[1]) {
		t.Errorf("expected both arguments to share one free type")
		return
	}

	u := &Unifier{Arena: arena, Builtins: b}
	args := arena.NewPack(b.Number, b.Number)
	if r := u.UnifyPack(args, f.Args); r != interfaces.UnifyOk {
		t.Errorf("unify failed: %d", r)
	}
	if s, exp := types.ToString(out), "(number, number) -> number"; s != exp {
		t.Errorf("expected: %s, got: %s", exp, s)
	}
	if s, exp := types.ToString(fn), "<T>(T, T) -> T"; s != exp {
		t.Errorf("the generic function changed: %s", s)
	}

	// not generic
	if out, ok := inst.Instantiate(b.Number); !ok || out != b.Number {
		t.Errorf("expected number to instantiate to itself")
	}
}

func TestUnifyFreePack0(t *testing.T) {
	b := types.NewBuiltins()
	arena := types.NewArena("test")
	u := &Unifier{Arena: arena, Builtins: b}

	tail := arena.AddPack(&types.FreePack{})
	sub := arena.AddPack(&types.TypePack{Head: []types.TypeID{b.Number}, Tail: tail})
	super := arena.NewPack(b.Number, b.String, b.Boolean)
	if r := u.UnifyPack(sub, super); r != interfaces.UnifyOk {
		t.Errorf("unify failed: %d", r)
	}
	if s, exp := types.PackString(sub), "(number, string, boolean)"; s != exp {
		t.Errorf("expected: %s, got: %s", exp, s)
	}
}
