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

package subtyping

import (
	"fmt"
	"testing"

	"github.com/purpleidea/typefunc/lang/types"
)

func TestSubtype0(t *testing.T) {
	testCases := []struct {
		name       string
		sub, super string
		exp        bool
	}{
		{"reflexive", "number", "number", true},
		{"singleton", `"a"`, "string", true},
		{"wrong singleton", `"a"`, `"b"`, false},
		{"to unknown", "{ x: number }", "unknown", true},
		{"from never", "never", "number", true},
		{"union sub", "number | string", "string | number | nil", true},
		{"union sub fails", "number | string", "number", false},
		{"intersection super", "{ x: number, y: string }", "{ x: number } & { y: string }", true},
		{"negation", "number", "~nil", true},
		{"negation fails", "nil", "~nil", false},
		{"width", "{ x: number, y: string }", "{ x: number }", true},
		{"missing prop", "{ y: string }", "{ x: number }", false},
		{"optional prop", "{ y: string }", "{ x: number? }", true},
		{"read only covariance", `{ x: "a" }`, "{ read x: string }", true},
		{"top table", "{ x: number }", "table", true},
		{"function", "(number) -> string", "(number) -> string?", true},
		{"function args", "(number?) -> string", "(number) -> string", true},
		{"function args fail", "(number) -> string", "(number?) -> string", false},
		{"top function", "(number) -> string", "function", true},
		{"variadic", "(...number) -> ()", "(number, number) -> ()", true},
		{"free", "free", "number", true},
		{"any", "any", "number", true},
	}

	for index, tc := range testCases { // run all the tests
		testName := fmt.Sprintf("test #%d (%s)", index, tc.name)
		t.Run(testName, func(t *testing.T) {
			b := types.NewBuiltins()
			p := &types.Parser{Arena: types.NewArena("test"), Builtins: b}
			sub, err1 := p.Parse(tc.sub)
			super, err2 := p.Parse(tc.super)
			if err1 != nil || err2 != nil {
				t.Errorf("test #%d: parse errors: %+v, %+v", index, err1, err2)
				return
			}
			if got := New(b).IsSubtype(sub, super); got != tc.exp {
				t.Errorf("test #%d: FAIL", index)
				t.Errorf("test #%d: %s <: %s expected %t", index, tc.sub, tc.super, tc.exp)
			}
		})
	}
}

func TestRecursiveSubtype0(t *testing.T) {
	b := types.NewBuiltins()
	arena := types.NewArena("test")
	a := arena.AddType(&types.Blocked{})
	c := arena.AddType(&types.Blocked{})
	p := &types.Parser{Arena: arena, Builtins: b, Names: map[string]types.TypeID{"A": a, "C": c}}
	ta, _ := p.Parse("{ read next: A?, v: number }")
	tc, _ := p.Parse("{ read next: C? }")
	if err := arena.Bind(a, ta); err != nil {
		t.Errorf("bind error: %+v", err)
	}
	if err := arena.Bind(c, tc); err != nil {
		t.Errorf("bind error: %+v", err)
	}
	if !New(b).IsSubtype(a, c) {
		t.Errorf("expected recursive tables to be subtypes")
	}
}
