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

package normalize

import (
	"fmt"
	"testing"

	"github.com/purpleidea/typefunc/lang/interfaces"
	"github.com/purpleidea/typefunc/lang/types"
)

func TestNormalize0(t *testing.T) {
	type test struct { // an individual test
		name    string
		typ     string
		exp     string
		inhabit interfaces.Inhabitance
	}
	testCases := []test{}

	testCases = append(testCases, test{"number", "number", "number", interfaces.Inhabited})
	testCases = append(testCases, test{"simple union", "number | string", "number | string", interfaces.Inhabited})
	testCases = append(testCases, test{"refined away nil", "(number | nil) & ~nil", "number", interfaces.Inhabited})
	testCases = append(testCases, test{"disjoint", "number & string", "never", interfaces.Uninhabited})
	testCases = append(testCases, test{"only true", "boolean & ~false", "true", interfaces.Inhabited})
	testCases = append(testCases, test{"unknown is identity", "unknown & number", "number", interfaces.Inhabited})
	testCases = append(testCases, test{"any absorbs", "any | number", "any", interfaces.Inhabited})
	testCases = append(testCases, test{"uninhabited prop", "{ x: never }", "{ x: never }", interfaces.Uninhabited})
	testCases = append(testCases, test{"table merge", "{ x: number } & { y: string }", "{ x: number, y: string }", interfaces.Inhabited})
	testCases = append(testCases, test{"negated number", "~number & (number | string)", "string", interfaces.Inhabited})
	testCases = append(testCases, test{"singletons absorbed", `"a" | "b" | string`, "string", interfaces.Inhabited})
	testCases = append(testCases, test{"singletons", `"b" | "a"`, `"a" | "b"`, interfaces.Inhabited})
	testCases = append(testCases, test{"cofinite strings", `string & ~"a"`, `string & ~"a"`, interfaces.Inhabited})
	testCases = append(testCases, test{"error", "error | number", "*error-type* | number", interfaces.Inhabited})

	names := []string{}
	for index, tc := range testCases { // run all the tests
		if tc.name == "" {
			t.Errorf("test #%d: not named", index)
			continue
		}
		for _, n := range names {
			if tc.name == n {
				t.Errorf("test #%d: duplicate sub test name of: %s", index, tc.name)
			}
		}
		names = append(names, tc.name)

		testName := fmt.Sprintf("test #%d (%s)", index, tc.name)
		t.Run(testName, func(t *testing.T) {
			b := types.NewBuiltins()
			arena := types.NewArena("test")
			p := &types.Parser{Arena: arena, Builtins: b}
			ty, err := p.Parse(tc.typ)
			if err != nil {
				t.Errorf("test #%d: FAIL", index)
				t.Errorf("test #%d: parse error: %+v", index, err)
				return
			}

			n := New(arena, b, Config{})
			norm := n.Normalize(ty)
			if norm == nil {
				t.Errorf("test #%d: FAIL", index)
				t.Errorf("test #%d: normalize failed", index)
				return
			}
			if s := types.ToString(n.TypeFromNormal(norm)); s != tc.exp {
				t.Errorf("test #%d: FAIL", index)
				t.Errorf("test #%d: expected: %s", index, tc.exp)
				t.Errorf("test #%d: got: %s", index, s)
			}
			if got := n.IsInhabited(norm); got != tc.inhabit {
				t.Errorf("test #%d: FAIL", index)
				t.Errorf("test #%d: expected inhabitance %d, got %d", index, tc.inhabit, got)
			}
		})
	}
}

func TestNormalizePredicates0(t *testing.T) {
	b := types.NewBuiltins()
	arena := types.NewArena("test")
	p := &types.Parser{Arena: arena, Builtins: b}
	n := New(arena, b, Config{})

	norm := func(s string) *interfaces.NormalizedType {
		ty, err := p.Parse(s)
		if err != nil {
			t.Fatalf("parse error: %+v", err)
		}
		return n.Normalize(ty)
	}

	if !norm("number").IsExactlyNumber() {
		t.Errorf("number should be exactly number")
	}
	if norm("number | nil").IsExactlyNumber() {
		t.Errorf("number | nil should not be exactly number")
	}
	if !norm(`"a" | "b"`).IsSubtypeOfString() {
		t.Errorf("singletons should be a subtype of string")
	}
	if !norm("true").IsSubtypeOfBooleans() {
		t.Errorf("true should be a subtype of boolean")
	}
	if !norm("any").ShouldSuppressErrors() || !norm("error").ShouldSuppressErrors() {
		t.Errorf("any and error should suppress errors")
	}
	if norm("unknown").ShouldSuppressErrors() {
		t.Errorf("unknown should not suppress errors")
	}
	if !norm("table").HasTopTable() {
		t.Errorf("table should be the top table")
	}
	if x := norm("{ x: number } | free"); !x.HasTables() || !x.HasTyvars() || x.HasOnlyTablesOrExterns() {
		t.Errorf("unexpected kinds for a table and a free type")
	}
	if got := n.IsIntersectionInhabited(b.String, b.Number); got != interfaces.Uninhabited {
		t.Errorf("string and number do not intersect")
	}
	if got := n.IsIntersectionInhabited(b.String, b.Unknown); got != interfaces.Inhabited {
		t.Errorf("string and unknown intersect")
	}
}

func TestNormalizeLimit0(t *testing.T) {
	b := types.NewBuiltins()
	arena := types.NewArena("test")
	options := []types.TypeID{}
	for i := 0; i < 20; i++ {
		options = append(options, arena.AddType(&types.StringSingleton{Value: fmt.Sprintf("s%d", i)}))
	}
	u := arena.AddType(&types.Union{Options: options})

	n := New(arena, b, Config{SizeLimit: 10})
	if norm := n.Normalize(u); norm != nil {
		t.Errorf("expected normalization to hit the limit")
	}
	n.Config.SizeLimit = 0
	if norm := n.Normalize(u); norm == nil {
		t.Errorf("expected the default limit to be large enough")
	}
}
