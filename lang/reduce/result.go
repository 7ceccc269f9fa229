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
	"github.com/hashicorp/go-set/v3"
	"github.com/purpleidea/typefunc/lang/interfaces"
	"github.com/purpleidea/typefunc/lang/types"
	"github.com/purpleidea/typefunc/util/errwrap"
)

// Result is what a reduction run reports back to the constraint solver. Every
// list is in the order things happened, without duplicates.
type Result struct {
	// ReducedTypes and ReducedPacks are the instances that were bound to
	// their result.
	ReducedTypes []types.TypeID
	ReducedPacks []types.PackID

	// IrreducibleTypes will never reduce, no matter what the solver does.
	IrreducibleTypes []types.TypeID

	// Errors are uninhabited instances and internal problems.
	Errors []*interfaces.Diagnostic

	// Messages are things that user functions printed.
	Messages []*interfaces.Diagnostic

	// BlockedTypes and BlockedPacks are what the run was waiting on. The
	// solver should retry once one of them makes progress.
	BlockedTypes []types.TypeID
	BlockedPacks []types.PackID
}

// Empty returns true if the run did and found nothing.
func (obj *Result) Empty() bool {
	return len(obj.ReducedTypes) == 0 &&
		len(obj.ReducedPacks) == 0 &&
		len(obj.IrreducibleTypes) == 0 &&
		len(obj.Errors) == 0 &&
		len(obj.Messages) == 0 &&
		len(obj.BlockedTypes) == 0 &&
		len(obj.BlockedPacks) == 0
}

// Err returns all of the errors as a single error, or nil if there are none.
func (obj *Result) Err() error {
	var reterr error
	for _, d := range obj.Errors {
		reterr = errwrap.Append(reterr, d)
	}
	return reterr
}

// recorder fills a Result while keeping its lists free of duplicates.
type recorder struct {
	result *Result

	reducedTypes     *set.Set[types.TypeID]
	reducedPacks     *set.Set[types.PackID]
	irreducibleTypes *set.Set[types.TypeID]
	blockedTypes     *set.Set[types.TypeID]
	blockedPacks     *set.Set[types.PackID]
}

func newRecorder() *recorder {
	return &recorder{
		result: &Result{
			ReducedTypes:     []types.TypeID{},
			ReducedPacks:     []types.PackID{},
			IrreducibleTypes: []types.TypeID{},
			Errors:           []*interfaces.Diagnostic{},
			Messages:         []*interfaces.Diagnostic{},
			BlockedTypes:     []types.TypeID{},
			BlockedPacks:     []types.PackID{},
		},
		reducedTypes:     set.New[types.TypeID](0),
		reducedPacks:     set.New[types.PackID](0),
		irreducibleTypes: set.New[types.TypeID](0),
		blockedTypes:     set.New[types.TypeID](0),
		blockedPacks:     set.New[types.PackID](0),
	}
}

func (obj *recorder) reducedType(id types.TypeID) {
	if obj.reducedTypes.Insert(id) {
		obj.result.ReducedTypes = append(obj.result.ReducedTypes, id)
	}
}

func (obj *recorder) reducedPack(id types.PackID) {
	if obj.reducedPacks.Insert(id) {
		obj.result.ReducedPacks = append(obj.result.ReducedPacks, id)
	}
}

func (obj *recorder) irreducibleType(id types.TypeID) {
	if obj.irreducibleTypes.Insert(id) {
		obj.result.IrreducibleTypes = append(obj.result.IrreducibleTypes, id)
	}
}

func (obj *recorder) blockedType(id types.TypeID) {
	if obj.blockedTypes.Insert(id) {
		obj.result.BlockedTypes = append(obj.result.BlockedTypes, id)
	}
}

func (obj *recorder) blockedPack(id types.PackID) {
	if obj.blockedPacks.Insert(id) {
		obj.result.BlockedPacks = append(obj.result.BlockedPacks, id)
	}
}

func (obj *recorder) error(loc types.Location, err error) {
	obj.result.Errors = append(obj.result.Errors, &interfaces.Diagnostic{Location: loc, Err: err})
}

func (obj *recorder) message(loc types.Location, msg string) {
	obj.result.Messages = append(obj.result.Messages, &interfaces.Diagnostic{
		Location: loc,
		Err:      &interfaces.UserDefinedTypeFunctionError{Message: msg},
	})
}
