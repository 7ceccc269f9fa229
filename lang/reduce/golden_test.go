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

package reduce_test

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"testing"

	"github.com/purpleidea/typefunc/lang/fixture"

	"github.com/kylelemons/godebug/pretty"
	"golang.org/x/tools/txtar"
)

// TestGolden0 runs every testdata/*.txtar archive. Each one holds a graph.yaml
// fixture and the expected OUTPUT of rendering the run. An OUTPUT that starts
// with the magic error prefix is the error that loading should fail with.
func TestGolden0(t *testing.T) {
	const magicError = "# err: "
	const dir = "testdata/"

	type test struct { // an individual test
		name string
		path string // relative txtar path inside testdata
	}
	testCases := []test{}

	// build test array automatically from reading the dir
	files, err := os.ReadDir(dir)
	if err != nil {
		t.Errorf("could not read through tests directory: %+v", err)
		return
	}
	sorted := []string{}
	for _, f := range files {
		if !strings.HasSuffix(f.Name(), ".txtar") {
			continue
		}
		sorted = append(sorted, f.Name())
	}
	sort.Strings(sorted)
	for _, f := range sorted {
		testCases = append(testCases, test{
			name: f,
			path: f, // <something>.txtar
		})
	}

	names := make(map[string]struct{})
	for index, tc := range testCases { // run all the tests
		if _, exists := names[tc.name]; exists {
			t.Errorf("test #%d: duplicate sub test name of: %s", index, tc.name)
			continue
		}
		names[tc.name] = struct{}{}

		t.Run(fmt.Sprintf("test #%d (%s)", index, tc.name), func(t *testing.T) {
			archive, err := txtar.ParseFile(dir + tc.path)
			if err != nil {
				t.Errorf("test #%d: err parsing txtar(%s): %+v", index, tc.path, err)
				return
			}
			comment := strings.TrimSpace(string(archive.Comment))
			t.Logf("comment: %s\n", comment)

			var graph, output []byte
			for _, file := range archive.Files {
				switch file.Name {
				case "graph.yaml":
					graph = file.Data
				case "OUTPUT":
					output = file.Data
				}
			}
			if graph == nil || output == nil {
				t.Errorf("test #%d: archive needs a graph.yaml and an OUTPUT", index)
				return
			}
			expstr := strings.Trim(string(output), "\n")

			fail := strings.HasPrefix(expstr, magicError)
			f, err := fixture.Load(graph)
			if fail {
				expstr = strings.TrimPrefix(expstr, magicError)
				if err == nil {
					t.Errorf("test #%d: FAIL", index)
					t.Errorf("test #%d: expected error: %s", index, expstr)
					return
				}
				if s := err.Error(); s != expstr {
					t.Errorf("test #%d: FAIL", index)
					t.Errorf("test #%d: expected different error", index)
					t.Logf("test #%d: err: %s", index, s)
					t.Logf("test #%d: exp: %s", index, expstr)
				}
				return
			}
			if err != nil {
				t.Errorf("test #%d: FAIL", index)
				t.Errorf("test #%d: could not load fixture: %+v", index, err)
				return
			}
			f.Config.Debug = testing.Verbose()
			f.Config.Logf = func(format string, v ...interface{}) {
				t.Logf(fmt.Sprintf("test #%d: ", index)+format, v...)
			}

			result := f.Run(context.Background())
			str := strings.Trim(f.Render(result), "\n")
			if str != expstr {
				t.Errorf("test #%d: FAIL\n\n", index)
				t.Logf("test #%d:   actual:\n%s\n\n", index, str)
				t.Logf("test #%d: expected:\n%s\n\n", index, expstr)
				if diff := pretty.Compare(str, expstr); diff != "" { // bonus
					t.Logf("test #%d: diff:\n%s", index, diff)
				}
			}
		})
	}
}
