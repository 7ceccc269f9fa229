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
	"github.com/purpleidea/typefunc/lang/types"
)

// Inhabitance is the answer to an inhabitance query.
type Inhabitance int

const (
	// Inhabited means there is at least one value of the type.
	Inhabited Inhabitance = iota

	// Uninhabited means the type has no values.
	Uninhabited

	// HitLimits means the question could not be answered within limits.
	HitLimits
)

// Normalizer converts types into NormalizedType form and answers questions
// about them. A nil result from Normalize means normalization failed.
type Normalizer interface {
	// Normalize returns the normal form of a type, or nil on failure.
	Normalize(ty types.TypeID) *NormalizedType

	// IsInhabited checks if a normal form has any values.
	IsInhabited(norm *NormalizedType) Inhabitance

	// IsIntersectionInhabited checks if two types share any values.
	IsIntersectionInhabited(a, b types.TypeID) Inhabitance

	// TypeFromNormal turns a normal form back into a type.
	TypeFromNormal(norm *NormalizedType) types.TypeID
}

// SimplifyResult is the output of a simplification. BlockedTypes lists the
// types that prevented a more precise answer.
type SimplifyResult struct {
	Result       types.TypeID
	BlockedTypes []types.TypeID
}

// Simplifier builds simplified unions and intersections.
type Simplifier interface {
	Union(a, b types.TypeID) SimplifyResult
	Intersection(a, b types.TypeID) SimplifyResult

	// IntersectWithSimpleDiscriminant returns the intersection of a
	// target and a discriminant when it can be computed cheaply.
	IntersectWithSimpleDiscriminant(target, discriminant types.TypeID) (types.TypeID, bool)
}

// Subtyping answers subtyping queries.
type Subtyping interface {
	IsSubtype(sub, super types.TypeID) bool
	IsSubtypePack(sub, super types.PackID) bool
}

// UnifyResult is the outcome of a unification.
type UnifyResult int

const (
	// UnifyOk means unification succeeded.
	UnifyOk UnifyResult = iota

	// UnifyOccursCheckFailed means a type would have contained itself.
	UnifyOccursCheckFailed

	// UnifyTooComplex means unification gave up.
	UnifyTooComplex
)

// Unifier binds free types so that a subtype relation may hold.
type Unifier interface {
	Unify(sub, super types.TypeID) UnifyResult
	UnifyPack(sub, super types.PackID) UnifyResult
}

// Instantiator replaces the generics of a function type with fresh free
// types.
type Instantiator interface {
	Instantiate(ty types.TypeID) (types.TypeID, bool)
}

// CallSolver picks an overload of a function type for some arguments and
// returns the return pack.
type CallSolver interface {
	SolveFunctionCall(fn types.TypeID, args types.PackID) (types.PackID, bool)
}

// Constraint is the solver constraint that asked for a reduction.
type Constraint interface {
	String() string
}

// ConstraintSolver is the part of the outer constraint solver that the
// reduction engine talks to.
type ConstraintSolver interface {
	// HasUnresolvedConstraints returns true if the type is still waiting
	// on other constraints.
	HasUnresolvedConstraints(ty types.TypeID) bool

	// Bind binds a free type on behalf of a constraint.
	Bind(c Constraint, ty, to types.TypeID) error

	// PushReduceConstraint asks for a type to be reduced later.
	PushReduceConstraint(loc types.Location, ty types.TypeID)
}
