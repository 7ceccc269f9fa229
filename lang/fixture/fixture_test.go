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

package fixture

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/purpleidea/typefunc/lang/types"
)

func TestLoadErrors0(t *testing.T) {
	type test struct { // an individual test
		name string
		yaml string
		err  string // part of the error
	}
	testCases := []test{
		{
			name: "empty",
			yaml: "types: []\n",
			err:  ErrNoEntry.Error(),
		},
		{
			name: "unknown key",
			yaml: "entry: A\nbogus: true\n",
			err:  "could not parse fixture",
		},
		{
			name: "duplicate",
			yaml: "types:\n  - name: A\n    type: number\n  - name: A\n    type: string\nentry: A\n",
			err:  "duplicate name: A",
		},
		{
			name: "bad expression",
			yaml: "types:\n  - name: A\n    type: add<number\nentry: A\n",
			err:  "type A",
		},
		{
			name: "both kinds",
			yaml: "functions:\n  f: \"function(t) return t end\"\ntypes:\n  - name: A\n    type: number\n    user: f\nentry: A\n",
			err:  "exclusive",
		},
		{
			name: "unknown user function",
			yaml: "types:\n  - name: A\n    user: f\nentry: A\n",
			err:  "user function f",
		},
		{
			name: "self reference",
			yaml: "types:\n  - name: A\n    type: A\nentry: A\n",
			err:  types.ErrSelfBinding.Error(),
		},
		{
			name: "bad config",
			yaml: "config:\n  max-steps: -1\ntypes:\n  - name: A\n    type: number\nentry: A\n",
			err:  "max-steps must not be negative",
		},
	}

	names := make(map[string]struct{})
	for index, tc := range testCases { // run all the tests
		if _, exists := names[tc.name]; exists {
			t.Errorf("test #%d: duplicate sub test name of: %s", index, tc.name)
			continue
		}
		names[tc.name] = struct{}{}

		t.Run(fmt.Sprintf("test #%d (%s)", index, tc.name), func(t *testing.T) {
			_, err := Load([]byte(tc.yaml))
			if err == nil {
				t.Errorf("test #%d: FAIL", index)
				t.Errorf("test #%d: expected an error", index)
				return
			}
			if !strings.Contains(err.Error(), tc.err) {
				t.Errorf("test #%d: FAIL", index)
				t.Errorf("test #%d: expected: %s", index, tc.err)
				t.Errorf("test #%d: got: %s", index, err)
			}
		})
	}
}

func TestLoad0(t *testing.T) {
	data := `
config:
  guesser-depth: 3
generics: [T]
aliases:
  Box:
    params: [U]
    defaults:
      U: string
    type: "{ value: U }"
types:
  - name: A
    type: "{ next: A, item: T }"
  - name: B
    type: add<number, number>
entry: B
`
	f, err := Load([]byte(data))
	if err != nil {
		t.Errorf("could not load: %+v", err)
		return
	}
	if f.Config.GuesserDepth != 3 {
		t.Errorf("config was not read: %d", f.Config.GuesserDepth)
	}
	if f.Context.Runtime != nil {
		t.Errorf("no functions means no runtime")
	}
	if s := strings.Join(f.Names, ","); s != "A,B" {
		t.Errorf("unexpected names: %s", s)
	}

	// the table refers to itself
	tbl, ok := types.Get[*types.Table](types.Follow(f.Types["A"]))
	if !ok {
		t.Errorf("expected a table, got: %s", types.ToString(f.Types["A"]))
		return
	}
	if types.Follow(tbl.Props["next"].Read) != types.Follow(f.Types["A"]) {
		t.Errorf("the table should be recursive")
	}
	if !types.Is[*types.Generic](tbl.Props["item"].Read) {
		t.Errorf("T should be the declared generic")
	}

	result := f.Run(context.Background())
	if err := result.Err(); err != nil {
		t.Errorf("unexpected error: %+v", err)
	}
	if s := f.Render(result); s != "A: { item: T, next: *CYCLE* }\nB: number\nreduced: 1 types, 0 packs\n" {
		t.Errorf("unexpected render:\n%s", s)
	}
}

func TestLoadFile0(t *testing.T) {
	if _, err := LoadFile("does-not-exist.yaml"); err == nil {
		t.Errorf("expected an error")
	}
	_, err := Load([]byte("entry: Nope\n"))
	if !errors.Is(err, ErrUnknownName) {
		t.Errorf("expected an unknown name, got: %v", err)
	}
}
