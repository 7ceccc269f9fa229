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

// ReduceArgs is the reduce CLI parsing structure and type of the parsed
// result.
type ReduceArgs struct {
	// Input is the path of a YAML fixture.
	Input string `arg:"positional,required"`

	Force bool `arg:"--force" help:"demand an answer from every instance"`
	Dump  bool `arg:"--dump" help:"dump the result record after the report"`

	// These override the values from the fixture when set.
	MaxSteps     *int    `arg:"--max-steps" help:"scheduler step budget"`
	GuesserDepth *int    `arg:"--guesser-depth" help:"nesting depth past which instances are guessed (-1 is off)"`
	Timeout      *string `arg:"--timeout" help:"wall clock budget of each user function call, eg: 500ms"`

	Prometheus       bool   `arg:"--prometheus" help:"start a prometheus instance"`
	PrometheusListen string `arg:"--prometheus-listen" help:"specify prometheus instance binding"`
}

// FuncsArgs is the funcs CLI parsing structure and type of the parsed result.
type FuncsArgs struct {
	// Prefix filters the listed functions.
	Prefix string `arg:"positional" help:"only list functions with this prefix"`
}
