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
	"github.com/purpleidea/typefunc/lang/funcs"
	"github.com/purpleidea/typefunc/lang/types"
)

// guesser picks a plausible result for an instance that is nested too deep to
// be worth reducing exactly. It only looks at the kind of function and at the
// shape of its arguments, never at metamethods.
type guesser struct {
	tfctx *funcs.Context
}

// numeric returns true if a value of ty is most likely a number. Nested
// arithmetic is assumed to be numeric too.
func (obj *guesser) numeric(ty types.TypeID) bool {
	ty = types.Follow(ty)
	if fi, ok := types.Get[*types.FunctionInstance](ty); ok {
		if fi.Function == nil {
			return false
		}
		switch fi.Function.Kind {
		case types.FuncAdd, types.FuncSub, types.FuncMul, types.FuncDiv, types.FuncIdiv, types.FuncPow, types.FuncMod, types.FuncUnm, types.FuncLen:
			return true
		}
		return false
	}
	norm := obj.tfctx.Normalizer.Normalize(ty)
	return norm != nil && norm.IsExactlyNumber()
}

// Guess returns the guessed result, if there is one.
func (obj *guesser) Guess(instance types.TypeID) (types.TypeID, bool) {
	fi, ok := types.Get[*types.FunctionInstance](types.Follow(instance))
	if !ok || fi.Function == nil {
		return types.TypeID{}, false
	}
	b := obj.tfctx.Builtins

	switch fi.Function.Kind {
	case types.FuncNot, types.FuncLt, types.FuncLe, types.FuncEq:
		return b.Boolean, true

	case types.FuncLen:
		return b.Number, true

	case types.FuncConcat:
		return b.String, true

	case types.FuncAdd, types.FuncSub, types.FuncMul, types.FuncDiv, types.FuncIdiv, types.FuncPow, types.FuncMod, types.FuncUnm:
		for _, arg := range fi.TypeArgs {
			if !obj.numeric(arg) {
				return types.TypeID{}, false
			}
		}
		return b.Number, true
	}
	return types.TypeID{}, false
}
