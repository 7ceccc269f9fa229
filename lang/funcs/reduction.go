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
	"fmt"

	"github.com/purpleidea/typefunc/lang/types"
)

// Status says how definite a reduction is.
type Status int

const (
	// MaybeOk means the function might still reduce later, or already did.
	MaybeOk Status = iota

	// Irreducible means the function will not reduce, but is not wrong.
	Irreducible

	// Erroneous means there is no valid reduction.
	Erroneous
)

// String returns the name of the status.
func (obj Status) String() string {
	switch obj {
	case MaybeOk:
		return "maybe-ok"
	case Irreducible:
		return "irreducible"
	case Erroneous:
		return "erroneous"
	}
	return fmt.Sprintf("status(%d)", int(obj))
}

// Reduction is the output of a type function. Result is invalid when no
// replacement was found, in which case BlockedTypes and BlockedPacks list what
// it is waiting on.
type Reduction struct {
	Result       types.TypeID
	Status       Status
	BlockedTypes []types.TypeID
	BlockedPacks []types.PackID

	// Error is a user facing message, only set by user functions.
	Error string

	// Messages holds anything printed by a user function.
	Messages []string
}

// Reduced returns true if a replacement was found.
func (obj Reduction) Reduced() bool { return obj.Result.Valid() }

// String returns a short description, for debug logs.
func (obj Reduction) String() string {
	if obj.Result.Valid() {
		return fmt.Sprintf("%s (%s)", types.ToString(obj.Result), obj.Status)
	}
	return fmt.Sprintf("<none> (%s, blocked on %d types, %d packs)", obj.Status, len(obj.BlockedTypes), len(obj.BlockedPacks))
}

// PackReduction is the output of a type pack function.
type PackReduction struct {
	Result       types.PackID
	Status       Status
	BlockedTypes []types.TypeID
	BlockedPacks []types.PackID
	Error        string
	Messages     []string
}

func reduced(ty types.TypeID) Reduction {
	return Reduction{Result: ty, Status: MaybeOk}
}

func blockedOn(tys ...types.TypeID) Reduction {
	return Reduction{Status: MaybeOk, BlockedTypes: tys}
}

func erroneous() Reduction {
	return Reduction{Status: Erroneous}
}

// unknownYet is returned when an oracle gave up. Nothing is known.
func unknownYet() Reduction {
	return Reduction{Status: MaybeOk}
}
