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

package interfaces

import (
	"fmt"

	"github.com/purpleidea/typefunc/lang/types"
	"github.com/purpleidea/typefunc/util"
)

const (
	// ErrNotReducible is a general purpose error for when a type function
	// has no answer. Most callers should use a Diagnostic instead.
	ErrNotReducible = util.Error("type function is not reducible")

	// ErrNoSolver is returned when an operation needs a constraint solver
	// but none is attached to the reduction.
	ErrNoSolver = util.Error("no constraint solver is available")
)

// Diagnostic is an error attached to a source location. It is what a type
// function reduction reports back to the checker. The wrapped error is one of
// the typed errors in this file, and can be found with errors.As.
type Diagnostic struct {
	Location types.Location
	Err      error
}

// Error returns a string representation of the diagnostic.
func (obj *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s", obj.Location, obj.Err)
}

// Unwrap returns the wrapped error.
func (obj *Diagnostic) Unwrap() error { return obj.Err }

// UninhabitedTypeFunctionError is reported for an instance that has no valid
// reduction.
type UninhabitedTypeFunctionError struct {
	Type types.TypeID
}

// Error returns a string representation of the error.
func (obj *UninhabitedTypeFunctionError) Error() string {
	return fmt.Sprintf("type function instance %s is uninhabited", types.ToString(obj.Type))
}

// UninhabitedTypePackFunctionError is the pack version of
// UninhabitedTypeFunctionError.
type UninhabitedTypePackFunctionError struct {
	Pack types.PackID
}

// Error returns a string representation of the error.
func (obj *UninhabitedTypePackFunctionError) Error() string {
	return fmt.Sprintf("type pack function instance %s is uninhabited", types.PackString(obj.Pack))
}

// CodeTooComplexError is reported when a run exceeds its step budget.
type CodeTooComplexError struct{}

// Error returns a string representation of the error.
func (obj *CodeTooComplexError) Error() string {
	return "code is too complex to typecheck"
}

// InternalError is a recoverable internal failure, such as a replacement that
// was not allowed to happen.
type InternalError struct {
	Message string
}

// Error returns a string representation of the error.
func (obj *InternalError) Error() string {
	return "internal error: " + obj.Message
}

// UserDefinedTypeFunctionError carries an error or a message produced by a
// user type function.
type UserDefinedTypeFunctionError struct {
	Message string
}

// Error returns a string representation of the error.
func (obj *UserDefinedTypeFunctionError) Error() string {
	return obj.Message
}

// InternalCompilerError is the panic value of the default internal error
// reporter. It means the checking unit has to be aborted.
type InternalCompilerError struct {
	Message string
}

// Error returns a string representation of the error.
func (obj *InternalCompilerError) Error() string {
	return "internal compiler error: " + obj.Message
}

// InternalErrorReporter receives invariant violations that can not be
// recovered from.
type InternalErrorReporter interface {
	ICE(msg string)
}

// PanicReporter is the default InternalErrorReporter. It panics with an
// *InternalCompilerError, which aborts the current checking unit.
type PanicReporter struct{}

// ICE panics.
func (obj *PanicReporter) ICE(msg string) {
	panic(&InternalCompilerError{Message: msg})
}

// RecordingReporter stores every ICE instead of panicking. It is used by tests
// and by tools that want to keep going.
type RecordingReporter struct {
	Messages []string
}

// ICE records the message.
func (obj *RecordingReporter) ICE(msg string) {
	obj.Messages = append(obj.Messages, msg)
}
