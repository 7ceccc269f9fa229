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
	"errors"
	"fmt"
	"testing"

	"github.com/purpleidea/typefunc/lang/funcs"
	"github.com/purpleidea/typefunc/lang/types"
)

func TestRoundTrip0(t *testing.T) {
	type test struct { // an individual test
		name string
		expr string
	}
	testCases := []test{
		{"primitive", "number"},
		{"top and bottom", "unknown | never"},
		{"singletons", `"a" | true`},
		{"negation", "~string"},
		{"intersection", "{ a: number } & { b: string }"},
		{"table", "{ a: number, [string]: boolean }"},
		{"function", "(number, string) -> boolean"},
		{"generic function", "<T>(T) -> T"},
		{"nested", "{ f: (number) -> { g: string } }"},
	}

	names := make(map[string]struct{})
	for index, tc := range testCases { // run all the tests
		if _, exists := names[tc.name]; exists {
			t.Errorf("test #%d: duplicate sub test name of: %s", index, tc.name)
			continue
		}
		names[tc.name] = struct{}{}

		t.Run(fmt.Sprintf("test #%d (%s)", index, tc.name), func(t *testing.T) {
			arena := types.NewArena("test")
			b := types.NewBuiltins()
			p := &types.Parser{
				Arena:     arena,
				Builtins:  b,
				Names:     make(map[string]types.TypeID),
				Functions: funcs.LookupFunc,
			}
			ty, err := p.Parse(tc.expr)
			if err != nil {
				t.Errorf("test #%d: could not parse: %+v", index, err)
				return
			}
			v, err := Serialize(ty)
			if err != nil {
				t.Errorf("test #%d: FAIL", index)
				t.Errorf("test #%d: could not serialize: %+v", index, err)
				return
			}
			out, err := Deserialize(arena, b, v)
			if err != nil {
				t.Errorf("test #%d: FAIL", index)
				t.Errorf("test #%d: could not deserialize: %+v", index, err)
				return
			}
			if got, want := types.ToString(out), types.ToString(ty); got != want {
				t.Errorf("test #%d: FAIL", index)
				t.Errorf("test #%d: expected: %s", index, want)
				t.Errorf("test #%d: got: %s", index, got)
			}
		})
	}
}

func TestRoundTripRecursive0(t *testing.T) {
	arena := types.NewArena("test")
	b := types.NewBuiltins()

	placeholder := arena.AddType(&types.Free{})
	list := arena.AddType(&types.Table{
		Props: map[string]types.Property{
			"value": types.NewProperty(b.Number),
			"next":  types.NewProperty(placeholder),
		},
	})
	if err := arena.Bind(placeholder, list); err != nil {
		t.Errorf("could not bind: %+v", err)
		return
	}

	v, err := Serialize(list)
	if err != nil {
		t.Errorf("could not serialize: %+v", err)
		return
	}
	if v.Props["next"].Read != v {
		t.Errorf("the cycle was not kept")
	}

	out, err := Deserialize(arena, b, v)
	if err != nil {
		t.Errorf("could not deserialize: %+v", err)
		return
	}
	tbl, ok := types.Get[*types.Table](types.Follow(out))
	if !ok {
		t.Errorf("expected a table, got: %s", types.ToString(out))
		return
	}
	if types.Follow(tbl.Props["next"].Read) != types.Follow(out) {
		t.Errorf("the cycle was not rebuilt: %s", types.ToString(out))
	}
}

func TestSerializeErrors0(t *testing.T) {
	arena := types.NewArena("test")
	b := types.NewBuiltins()

	for _, ty := range []types.TypeID{
		arena.AddType(&types.Free{}),
		arena.AddType(&types.Blocked{}),
		b.Function,
		b.Table,
	} {
		if _, err := Serialize(ty); !errors.Is(err, ErrSerialize) {
			t.Errorf("expected %s to fail, got: %v", types.ToString(ty), err)
		}
	}
}

func TestClass0(t *testing.T) {
	arena := types.NewArena("test")
	b := types.NewBuiltins()
	extern := arena.AddType(&types.Extern{
		Name:  "Vector",
		Props: map[string]types.Property{"x": types.NewProperty(b.Number)},
	})

	v, err := Serialize(extern)
	if err != nil {
		t.Errorf("could not serialize: %+v", err)
		return
	}
	if v.Tag != TagClass || v.Props["x"].Read.Tag != TagNumber {
		t.Errorf("unexpected value: %s", describe(v))
	}
	out, err := Deserialize(arena, b, v)
	if err != nil {
		t.Errorf("could not deserialize: %+v", err)
		return
	}
	// classes come back as themselves
	if out != extern {
		t.Errorf("expected the same extern, got: %s", types.ToString(out))
	}
}

func TestEqual0(t *testing.T) {
	a := &Value{Tag: TagSingleton, Singleton: "x"}
	if !a.Equal(&Value{Tag: TagSingleton, Singleton: "x"}) {
		t.Errorf("equal singletons should compare equal")
	}
	if a.Equal(&Value{Tag: TagSingleton, Singleton: true}) {
		t.Errorf("different singletons should differ")
	}
	if !(&Value{Tag: TagNumber}).Equal(&Value{Tag: TagNumber}) {
		t.Errorf("primitives should compare equal")
	}
	t1 := &Value{Tag: TagTable, Props: map[string]*Property{}}
	t2 := &Value{Tag: TagTable, Props: map[string]*Property{}}
	if t1.Equal(t2) || !t1.Equal(t1) {
		t.Errorf("tables compare by identity")
	}
}
