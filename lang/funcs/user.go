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

package funcs

import (
	"context"
	"fmt"
	"sort"

	"github.com/purpleidea/typefunc/lang/types"
)

// userFunc checks that a user function can run, and hands it to the runtime.
func userFunc(ctx context.Context, tfctx *Context, instance types.TypeID, typeArgs []types.TypeID, packArgs []types.PackID) Reduction {
	fi, ok := types.Get[*types.FunctionInstance](instance)
	if !ok || fi.User == nil {
		tfctx.ice("all user-defined type functions must have an associated function definition")
		return erroneous()
	}
	user := fi.User
	if user.Owner != nil && user.Owner.Unloaded() {
		tfctx.ice("user-defined type function module has expired")
		return erroneous()
	}
	if user.Name == "" || user.Definition == nil {
		tfctx.ice("all user-defined type functions must have an associated function definition")
		return erroneous()
	}

	// broken code does not get to make more errors
	if tfctx.Runtime != nil && !tfctx.Runtime.AllowEvaluation() || user.Definition.HasErrors {
		return reduced(tfctx.Builtins.Error)
	}

	roots := []types.TypeID{}
	roots = append(roots, typeArgs...)
	for _, name := range sortedAliasNames(user.Aliases) {
		if alias := user.Aliases[name].Alias; alias != nil && alias.Simple() {
			roots = append(roots, alias.Type)
		}
	}
	if blockers := FindUserBlockers(tfctx.Solver, roots...); len(blockers) > 0 {
		return blockedOn(blockers...)
	}

	if tfctx.Runtime == nil {
		return Reduction{
			Status: Erroneous,
			Error:  fmt.Sprintf("'%s' type function: cannot be evaluated in this context", user.Name),
		}
	}

	for _, name := range sortedFunctionNames(user.Functions) {
		def := user.Functions[name].Definition
		// a dependency that does not parse cannot be evaluated
		if def == nil || def.HasErrors {
			return reduced(tfctx.Builtins.Error)
		}
		if err := tfctx.Runtime.Register(def); err != nil {
			tfctx.logf("could not register %s: %+v", name, err)
			tfctx.ice("user-defined type function reference cannot be registered")
			return erroneous()
		}
	}

	return tfctx.Runtime.Evaluate(ctx, tfctx, instance, user, typeArgs)
}

func sortedAliasNames(m map[string]types.EnvAlias) []string {
	names := []string{}
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedFunctionNames(m map[string]types.EnvFunction) []string {
	names := []string{}
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
