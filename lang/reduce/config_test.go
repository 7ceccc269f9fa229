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
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/kylelemons/godebug/pretty"
	"gopkg.in/yaml.v2"
)

func TestParseConfig0(t *testing.T) {
	type test struct { // an individual test
		name string
		data string
		fail bool
		exp  *Config
	}
	testCases := []test{}

	testCases = append(testCases, test{
		name: "empty",
		data: "",
		exp:  DefaultConfig(),
	})
	testCases = append(testCases, test{
		name: "everything",
		data: "max-steps: 10\ncartesian-product-limit: 4\nguesser-depth: 2\nrecursion-limit: 50\ndebug: true\n",
		exp: &Config{
			MaxSteps:              10,
			CartesianProductLimit: 4,
			GuesserDepth:          2,
			RecursionLimit:        50,
			Debug:                 true,
		},
	})
	{
		exp := DefaultConfig()
		exp.GuesserDepth = 0
		testCases = append(testCases, test{
			name: "partial",
			data: "guesser-depth: 0\n",
			exp:  exp,
		})
	}
	testCases = append(testCases, test{
		name: "unknown key",
		data: "max-step: 10\n",
		fail: true,
	})
	testCases = append(testCases, test{
		name: "negative",
		data: "max-steps: -1\nrecursion-limit: -2\n",
		fail: true,
	})
	testCases = append(testCases, test{
		name: "wrong type",
		data: "debug: [1, 2]\n",
		fail: true,
	})

	names := make(map[string]struct{})
	for index, tc := range testCases { // run all the tests
		if _, exists := names[tc.name]; exists {
			t.Errorf("test #%d: duplicate sub test name of: %s", index, tc.name)
			continue
		}
		names[tc.name] = struct{}{}

		t.Run(fmt.Sprintf("test #%d (%s)", index, tc.name), func(t *testing.T) {
			config, err := ParseConfig([]byte(tc.data))
			if !tc.fail && err != nil {
				t.Errorf("test #%d: FAIL", index)
				t.Errorf("test #%d: parse failed with: %+v", index, err)
				return
			}
			if tc.fail {
				if err == nil {
					t.Errorf("test #%d: FAIL", index)
					t.Errorf("test #%d: parse passed, expected fail", index)
				}
				return
			}

			// only compare what can be configured
			got, err := yaml.Marshal(config)
			if err != nil {
				t.Errorf("test #%d: FAIL", index)
				t.Errorf("test #%d: could not marshal: %+v", index, err)
				return
			}
			exp, err := yaml.Marshal(tc.exp)
			if err != nil {
				t.Errorf("test #%d: FAIL", index)
				t.Errorf("test #%d: could not marshal: %+v", index, err)
				return
			}
			if diff := pretty.Compare(string(got), string(exp)); diff != "" {
				t.Errorf("test #%d: FAIL", index)
				t.Errorf("test #%d: config did not match expected: (-got +want)\n%s", index, diff)
				t.Logf("test #%d:   actual: \n%s", index, spew.Sdump(config))
				t.Logf("test #%d: expected: \n%s", index, spew.Sdump(tc.exp))
			}
		})
	}
}

func TestValidate0(t *testing.T) {
	config := DefaultConfig()
	config.MaxSteps = -1
	config.CartesianProductLimit = -1
	config.RecursionLimit = -1

	err := config.Validate()
	if err == nil {
		t.Errorf("expected an error")
		return
	}
	// every problem is reported at once
	for _, key := range []string{"max-steps", "cartesian-product-limit", "recursion-limit"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("expected %s in: %s", key, err.Error())
		}
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config is invalid: %+v", err)
	}
}
