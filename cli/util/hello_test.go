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

package util

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

func TestHello0(t *testing.T) {
	type test struct { // an individual test
		name string
		data *Data
		exp  []string // lines that must be printed
	}
	testCases := []test{
		{
			name: "named",
			data: &Data{Program: "typefunc", Version: "0.1", Tagline: "reduces type functions"},
			exp:  []string{"typefunc 0.1: reduces type functions", "builtin type functions: 28"},
		},
		{
			name: "unnamed",
			data: &Data{Flags: Flags{Debug: true}},
			exp:  []string{"<unknown> <unknown>"},
		},
	}

	for index, tc := range testCases {
		t.Run(fmt.Sprintf("test #%d (%s)", index, tc.name), func(t *testing.T) {
			buf := &bytes.Buffer{}
			Hello(buf, tc.data)
			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			for _, exp := range tc.exp {
				found := false
				for _, line := range lines {
					found = found || line == exp
				}
				if !found {
					t.Errorf("test #%d: FAIL", index)
					t.Errorf("test #%d: missing line: %s", index, exp)
					t.Errorf("test #%d: got:\n%s", index, buf.String())
				}
			}
		})
	}
}
