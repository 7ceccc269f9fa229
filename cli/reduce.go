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

package cli

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	cliUtil "github.com/purpleidea/typefunc/cli/util"
	"github.com/purpleidea/typefunc/lang/fixture"
	"github.com/purpleidea/typefunc/lang/funcs"
	"github.com/purpleidea/typefunc/lang/reduce"
	"github.com/purpleidea/typefunc/lang/types"
	"github.com/purpleidea/typefunc/prometheus"
	"github.com/purpleidea/typefunc/util"
	"github.com/purpleidea/typefunc/util/errwrap"

	"github.com/davecgh/go-spew/spew"
	"github.com/sanity-io/litter"
)

// dump is the result record with every node printed, since the nodes
// themselves point into the whole arena.
type dump struct {
	Reduced     []string
	Irreducible []string
	Blocked     []string
	Errors      []string
	Messages    []string
}

func newDump(result *reduce.Result) *dump {
	strs := func(ids []types.TypeID) []string {
		out := []string{}
		for _, id := range ids {
			out = append(out, types.ToString(id))
		}
		return out
	}
	d := &dump{
		Reduced:     strs(result.ReducedTypes),
		Irreducible: strs(result.IrreducibleTypes),
		Blocked:     strs(result.BlockedTypes),
		Errors:      []string{},
		Messages:    []string{},
	}
	for _, p := range result.ReducedPacks {
		d.Reduced = append(d.Reduced, types.PackString(p))
	}
	for _, p := range result.BlockedPacks {
		d.Blocked = append(d.Blocked, types.PackString(p))
	}
	for _, e := range result.Errors {
		d.Errors = append(d.Errors, e.Error())
	}
	for _, m := range result.Messages {
		d.Messages = append(d.Messages, m.Error())
	}
	return d
}

// reduceCmd runs the reduce subcommand.
func reduceCmd(ctx context.Context, name string, args *cliUtil.ReduceArgs, data *cliUtil.Data) error {
	logf := util.PrefixLogf(log.Printf, data.Program+": ")

	f, err := fixture.LoadFile(args.Input)
	if err != nil {
		return errwrap.Wrapf(err, "could not load %s", args.Input)
	}

	if args.Force {
		f.Force = true
	}
	if args.MaxSteps != nil {
		f.Config.MaxSteps = *args.MaxSteps
	}
	if args.GuesserDepth != nil {
		f.Config.GuesserDepth = *args.GuesserDepth
	}
	if err := f.Config.Validate(); err != nil {
		return errwrap.Wrapf(err, "invalid config")
	}
	if args.Timeout != nil {
		d, err := time.ParseDuration(*args.Timeout)
		if err != nil {
			return cliUtil.CliParseError(err)
		}
		if f.Runtime == nil {
			return fmt.Errorf("the fixture has no user functions to time out")
		}
		f.Runtime.Timeout = d
	}

	f.Config.Debug = data.Flags.Debug
	f.Config.Logf = util.PrefixLogf(logf, "reduce: ")
	if f.Runtime != nil {
		f.Runtime.Debug = data.Flags.Debug
		f.Runtime.Logf = util.PrefixLogf(logf, "runtime: ")
	}
	if data.Flags.Debug {
		logf("%s: config: %s", name, spew.Sdump(f.Config))
	}

	if args.Prometheus {
		prom := &prometheus.Prometheus{
			Listen: args.PrometheusListen,
		}
		if err := prom.Init(); err != nil {
			return errwrap.Wrapf(err, "can't initialize prometheus instance")
		}
		logf("prometheus: starting instance on: %s", prom.Listen)
		if err := prom.Start(); err != nil {
			return errwrap.Wrapf(err, "can't start prometheus instance")
		}
		defer func() {
			if err := prom.Stop(); err != nil {
				logf("prometheus: error stopping instance: %+v", err)
			}
		}()
		f.Config.Metrics = prom
	}

	start := time.Now()
	result := f.Run(ctx)
	logf("%s: finished in %s", name, time.Since(start))

	fmt.Fprint(data.Stdout, f.Render(result))
	if args.Dump {
		fmt.Fprintf(data.Stdout, "%s\n", litter.Sdump(newDump(result)))
	}

	if n := len(result.Errors); n > 0 {
		logf("%s: %d error(s)", name, n)
	}
	return nil
}

// funcsList runs the funcs subcommand.
func funcsList(args *cliUtil.FuncsArgs, data *cliUtil.Data) error {
	for _, name := range funcs.Names() {
		if !strings.HasPrefix(name, args.Prefix) {
			continue
		}
		fn, err := funcs.Lookup(name)
		if err != nil {
			return err // programming error
		}
		generic := ""
		if fn.CanReduceGenerics {
			generic = " (generic)"
		}
		fmt.Fprintf(data.Stdout, "%s%s\n", name, generic)
	}
	return nil
}
