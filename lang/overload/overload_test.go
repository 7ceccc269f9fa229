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

package overload

import (
	"testing"

	"github.com/purpleidea/typefunc/lang/subtyping"
	"github.com/purpleidea/typefunc/lang/types"
	"github.com/purpleidea/typefunc/lang/unification"
)

func TestSolveFunctionCall0(t *testing.T) {
	b := types.NewBuiltins()
	arena := types.NewArena("test")
	p := &types.Parser{Arena: arena, Builtins: b}
	r := &Resolver{
		Builtins:     b,
		Instantiator: &unification.Instantiator{Arena: arena},
		Unifier:      &unification.Unifier{Arena: arena, Builtins: b},
		Subtyping:    subtyping.New(b),
	}

	fn, err := p.Parse("((number, number) -> number) & ((string, string) -> string)")
	if err != nil {
		t.Errorf("parse error: %+v", err)
		return
	}

	testCases := []struct {
		args []types.TypeID
		exp  string // empty means no overload matches
	}{
		{[]types.TypeID{b.Number, b.Number}, "number"},
		{[]types.TypeID{b.String, b.String}, "string"},
		{[]types.TypeID{b.String, b.Number}, ""},
	}
	for index, tc := range testCases {
		rets, ok := r.SolveFunctionCall(fn, arena.NewPack(tc.args...))
		if tc.exp == "" {
			if ok {
				t.Errorf("test #%d: expected no overload, got: %s", index, types.PackString(rets))
			}
			continue
		}
		if !ok {
			t.Errorf("test #%d: expected an overload", index)
			continue
		}
		first, _ := types.First(rets)
		if s := types.ToString(first); s != tc.exp {
			t.Errorf("test #%d: expected: %s, got: %s", index, tc.exp, s)
		}
	}

	generic, _ := p.Parse("<T>(T, T) -> { value: T }")
	rets, ok := r.SolveFunctionCall(generic, arena.NewPack(b.Boolean, b.Boolean))
	if !ok {
		t.Errorf("expected the generic function to accept booleans")
		return
	}
	first, _ := types.First(rets)
	if s, exp := types.ToString(first), "{ value: boolean }"; s != exp {
		t.Errorf("expected: %s, got: %s", exp, s)
	}
	if rets, ok := r.SolveFunctionCall(b.Any, arena.NewPack(b.Number)); !ok || rets != b.AnyPack {
		t.Errorf("expected any to accept every call")
	}
}
