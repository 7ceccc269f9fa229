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

package reduce

import (
	"fmt"
	"testing"

	"github.com/purpleidea/typefunc/lang/funcs"
	"github.com/purpleidea/typefunc/lang/types"
)

func TestGuess0(t *testing.T) {
	type test struct { // an individual test
		name string
		expr string
		exp  string // empty if there should be no guess
	}
	testCases := []test{
		{"not", "not<string>", "boolean"},
		{"comparison", "lt<{}, {}>", "boolean"},
		{"equality", "eq<blocked, number>", "boolean"},
		{"length", "len<{}>", "number"},
		{"concat", "concat<{}, string>", "string"},
		{"a union operand", "add<number, number | string>", ""},
		{"exact numbers", "sub<number, number>", "number"},
		{"nested arithmetic", "mul<add<blocked, number>, number>", "number"},
		{"unary minus", "unm<number>", "number"},
		{"a string operand", "add<string, number>", ""},
		{"no guess for index", `index<{ a: number }, "a">`, ""},
	}

	for index, tc := range testCases {
		t.Run(fmt.Sprintf("test #%d (%s)", index, tc.name), func(t *testing.T) {
			b := types.NewBuiltins()
			arena := types.NewArena("test")
			p := newTestParser(arena, b)
			ty, err := p.Parse(tc.expr)
			if err != nil {
				t.Errorf("test #%d: FAIL", index)
				t.Errorf("test #%d: could not parse: %+v", index, err)
				return
			}

			g := &guesser{tfctx: NewContext(arena, b)}
			got, ok := g.Guess(ty)
			if tc.exp == "" {
				if ok {
					t.Errorf("test #%d: FAIL", index)
					t.Errorf("test #%d: unexpected guess: %s", index, types.ToString(got))
				}
				return
			}
			if !ok || types.ToString(got) != tc.exp {
				t.Errorf("test #%d: FAIL", index)
				t.Errorf("test #%d: expected: %s, got: %s (%t)", index, tc.exp, types.ToString(got), ok)
			}
		})
	}
}

func TestGuessDetachedInstance0(t *testing.T) {
	b := types.NewBuiltins()
	arena := types.NewArena("test")

	// an instance whose function was never filled in is not numeric
	detached := arena.AddType(&types.FunctionInstance{TypeArgs: []types.TypeID{b.Number}})
	add, err := funcs.Lookup("add")
	if err != nil {
		t.Errorf("could not find add: %+v", err)
		return
	}
	ty := arena.AddType(&types.FunctionInstance{Function: add, TypeArgs: []types.TypeID{detached, b.Number}})

	g := &guesser{tfctx: NewContext(arena, b)}
	if got, ok := g.Guess(ty); ok {
		t.Errorf("unexpected guess: %s", types.ToString(got))
	}
	if _, ok := g.Guess(detached); ok {
		t.Errorf("a detached instance can not be guessed")
	}
}
