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

// Package normalize is a reference normalizer. It puts types into a union of
// kinds form that is good enough to answer the questions a type function
// asks: which kinds are present, is the type inhabited, and what does the
// normal form look like as a type again.
package normalize

import (
	"github.com/purpleidea/typefunc/lang/interfaces"
	"github.com/purpleidea/typefunc/lang/types"

	"github.com/hashicorp/go-set/v3"
)

const (
	// DefaultSizeLimit is the number of type nodes a single Normalize call
	// may visit before it gives up.
	DefaultSizeLimit = 2000
)

// Config is the normalizer configuration.
type Config struct {
	// SizeLimit is the work budget of one normalization. Zero means the
	// default.
	SizeLimit int `yaml:"size-limit"`
}

// Normalizer is the reference implementation of interfaces.Normalizer. New
// nodes are allocated in Arena.
type Normalizer struct {
	Arena    *types.Arena
	Builtins *types.Builtins
	Config   Config

	budget     int
	inProgress *set.Set[types.TypeID]
}

// New builds a normalizer.
func New(arena *types.Arena, b *types.Builtins, config Config) *Normalizer {
	return &Normalizer{
		Arena:    arena,
		Builtins: b,
		Config:   config,
	}
}

func (obj *Normalizer) limit() int {
	if obj.Config.SizeLimit > 0 {
		return obj.Config.SizeLimit
	}
	return DefaultSizeLimit
}

// Normalize returns the normal form of a type, or nil if it is too large.
func (obj *Normalizer) Normalize(ty types.TypeID) *interfaces.NormalizedType {
	obj.budget = obj.limit()
	obj.inProgress = set.New[types.TypeID](0)
	return obj.normalize(ty)
}

func (obj *Normalizer) normalize(ty types.TypeID) *interfaces.NormalizedType {
	obj.budget--
	if obj.budget < 0 {
		return nil
	}
	ty = types.Follow(ty)
	if !obj.inProgress.Insert(ty) {
		return newNever() // a union that contains itself adds nothing
	}
	defer obj.inProgress.Remove(ty)

	n := newNever()
	switch t := ty.Node().(type) {
	case *types.Any:
		n.Tops = obj.Builtins.Any
	case *types.Unknown, *types.NoRefine:
		n.Tops = obj.Builtins.Unknown
	case *types.Never:
	case *types.ErrorType:
		n.Errors = true
	case *types.Primitive:
		switch t.Kind {
		case types.PrimitiveNil:
			n.Nils = true
		case types.PrimitiveBoolean:
			n.True, n.False = true, true
		case types.PrimitiveNumber:
			n.Numbers = true
		case types.PrimitiveString:
			n.Strings.Cofinite = true
		case types.PrimitiveThread:
			n.Threads = true
		case types.PrimitiveBuffer:
			n.Buffers = true
		case types.PrimitiveFunction:
			n.Functions.Top = true
		case types.PrimitiveTable:
			n.Tables = []types.TypeID{obj.Builtins.Table}
		}
	case *types.StringSingleton:
		n.Strings.Singletons[t.Value] = struct{}{}
	case *types.BooleanSingleton:
		n.True, n.False = t.Value, !t.Value
	case *types.Table, *types.Metatable:
		n.Tables = []types.TypeID{ty}
	case *types.Extern:
		n.Externs = []types.TypeID{ty}
	case *types.Function:
		n.Functions.Parts = []types.TypeID{ty}

	case *types.Union:
		for _, x := range t.Options {
			o := obj.normalize(x)
			if o == nil {
				return nil
			}
			n = obj.union(n, o)
		}
	case *types.Intersection:
		n = nil
		for _, x := range t.Parts {
			o := obj.normalize(x)
			if o == nil {
				return nil
			}
			if n == nil {
				n = o
				continue
			}
			n = obj.intersect(n, o)
		}
		if n == nil {
			n = newUnknown(obj.Builtins)
		}
	case *types.Negation:
		inner := obj.normalize(t.Ty)
		if inner == nil {
			return nil
		}
		if inner.HasTyvars() {
			n.Tyvars = []types.TypeID{ty} // opaque
			break
		}
		n = obj.complement(inner)

	default: // free, generic, blocked, pending and instances
		n.Tyvars = []types.TypeID{ty}
	}
	return n
}

func newNever() *interfaces.NormalizedType {
	return &interfaces.NormalizedType{
		Strings: interfaces.NormalizedStrings{
			Singletons: make(map[string]struct{}),
		},
	}
}

func newUnknown(b *types.Builtins) *interfaces.NormalizedType {
	n := newNever()
	n.Tops = b.Unknown
	return n
}

// everything is unknown spelled out kind by kind, which is what a complement
// starts from.
func (obj *Normalizer) everything() *interfaces.NormalizedType {
	n := newNever()
	n.True, n.False = true, true
	n.Nils = true
	n.Numbers = true
	n.Strings.Cofinite = true
	n.Threads = true
	n.Buffers = true
	n.Functions.Top = true
	n.Tables = []types.TypeID{obj.Builtins.Table}
	return n
}

func copyStrings(s interfaces.NormalizedStrings) interfaces.NormalizedStrings {
	out := interfaces.NormalizedStrings{
		Cofinite:   s.Cofinite,
		Singletons: make(map[string]struct{}, len(s.Singletons)),
	}
	for k := range s.Singletons {
		out.Singletons[k] = struct{}{}
	}
	return out
}

// appendUnique appends the types that are not in the list yet, comparing
// them after following bound links.
func appendUnique(list []types.TypeID, more ...types.TypeID) []types.TypeID {
	seen := set.FromFunc(list, types.Follow)
	for _, x := range more {
		if seen.Insert(types.Follow(x)) {
			list = append(list, x)
		}
	}
	return list
}

func unionStrings(a, b interfaces.NormalizedStrings) interfaces.NormalizedStrings {
	out := interfaces.NormalizedStrings{Singletons: make(map[string]struct{})}
	switch {
	case !a.Cofinite && !b.Cofinite:
		for k := range a.Singletons {
			out.Singletons[k] = struct{}{}
		}
		for k := range b.Singletons {
			out.Singletons[k] = struct{}{}
		}
	case a.Cofinite && b.Cofinite: // only what both exclude stays excluded
		out.Cofinite = true
		for k := range a.Singletons {
			if _, exists := b.Singletons[k]; exists {
				out.Singletons[k] = struct{}{}
			}
		}
	default:
		co, fin := a, b
		if b.Cofinite {
			co, fin = b, a
		}
		out.Cofinite = true
		for k := range co.Singletons {
			if _, exists := fin.Singletons[k]; !exists {
				out.Singletons[k] = struct{}{}
			}
		}
	}
	return out
}

func intersectStrings(a, b interfaces.NormalizedStrings) interfaces.NormalizedStrings {
	out := interfaces.NormalizedStrings{Singletons: make(map[string]struct{})}
	switch {
	case !a.Cofinite && !b.Cofinite:
		for k := range a.Singletons {
			if _, exists := b.Singletons[k]; exists {
				out.Singletons[k] = struct{}{}
			}
		}
	case a.Cofinite && b.Cofinite:
		out.Cofinite = true
		for k := range a.Singletons {
			out.Singletons[k] = struct{}{}
		}
		for k := range b.Singletons {
			out.Singletons[k] = struct{}{}
		}
	default:
		co, fin := a, b
		if b.Cofinite {
			co, fin = b, a
		}
		for k := range fin.Singletons {
			if _, exists := co.Singletons[k]; !exists {
				out.Singletons[k] = struct{}{}
			}
		}
	}
	return out
}

func (obj *Normalizer) union(a, b *interfaces.NormalizedType) *interfaces.NormalizedType {
	if a.HasTops() || b.HasTops() {
		n := newNever()
		n.Tops = obj.Builtins.Unknown
		if (a.HasTops() && types.Is[*types.Any](a.Tops)) || (b.HasTops() && types.Is[*types.Any](b.Tops)) {
			n.Tops = obj.Builtins.Any
		}
		return n
	}
	n := newNever()
	n.True = a.True || b.True
	n.False = a.False || b.False
	n.Errors = a.Errors || b.Errors
	n.Nils = a.Nils || b.Nils
	n.Numbers = a.Numbers || b.Numbers
	n.Strings = unionStrings(a.Strings, b.Strings)
	n.Threads = a.Threads || b.Threads
	n.Buffers = a.Buffers || b.Buffers
	n.Functions.Top = a.Functions.Top || b.Functions.Top
	if !n.Functions.Top {
		n.Functions.Parts = appendUnique(appendUnique(nil, a.Functions.Parts...), b.Functions.Parts...)
	}
	if a.HasTopTable() || b.HasTopTable() {
		n.Tables = []types.TypeID{obj.Builtins.Table}
	} else {
		n.Tables = appendUnique(appendUnique(nil, a.Tables...), b.Tables...)
	}
	n.Externs = appendUnique(appendUnique(nil, a.Externs...), b.Externs...)
	n.Tyvars = appendUnique(appendUnique(nil, a.Tyvars...), b.Tyvars...)
	n.Limited = a.Limited || b.Limited
	return n
}

func (obj *Normalizer) intersect(a, b *interfaces.NormalizedType) *interfaces.NormalizedType {
	if a.HasTops() && b.HasTops() {
		if types.Is[*types.Any](a.Tops) {
			return a
		}
		return b
	}
	if a.HasTops() {
		return b
	}
	if b.HasTops() {
		return a
	}

	n := newNever()
	n.True = a.True && b.True
	n.False = a.False && b.False
	n.Errors = a.Errors && b.Errors
	n.Nils = a.Nils && b.Nils
	n.Numbers = a.Numbers && b.Numbers
	n.Strings = intersectStrings(a.Strings, b.Strings)
	n.Threads = a.Threads && b.Threads
	n.Buffers = a.Buffers && b.Buffers

	switch {
	case a.Functions.Top:
		n.Functions = interfaces.NormalizedFunctions{Top: b.Functions.Top, Parts: b.Functions.Parts}
	case b.Functions.Top:
		n.Functions = interfaces.NormalizedFunctions{Parts: a.Functions.Parts}
	case len(a.Functions.Parts) > 0 && len(b.Functions.Parts) > 0:
		n.Functions.Parts = appendUnique(appendUnique(nil, a.Functions.Parts...), b.Functions.Parts...)
	}

	for _, x := range a.Tables {
		for _, y := range b.Tables {
			if t, ok := obj.intersectTables(x, y); ok {
				n.Tables = appendUnique(n.Tables, t)
			}
		}
	}

	for _, x := range a.Externs {
		for _, y := range b.Externs {
			ex, _ := types.Get[*types.Extern](types.Follow(x))
			ey, _ := types.Get[*types.Extern](types.Follow(y))
			switch {
			case ex != nil && ey != nil && ex.IsSubclassOf(ey):
				n.Externs = appendUnique(n.Externs, x)
			case ex != nil && ey != nil && ey.IsSubclassOf(ex):
				n.Externs = appendUnique(n.Externs, y)
			}
		}
	}

	// Type variables are opaque, so they survive as long as the other
	// side has anything at all.
	if a.HasTyvars() && !b.IsNever() {
		n.Tyvars = appendUnique(n.Tyvars, a.Tyvars...)
	}
	if b.HasTyvars() && !a.IsNever() {
		n.Tyvars = appendUnique(n.Tyvars, b.Tyvars...)
	}
	n.Limited = a.Limited || b.Limited
	return n
}

// intersectTables merges two table shapes. Shared properties get the
// intersection of both property types.
func (obj *Normalizer) intersectTables(x, y types.TypeID) (types.TypeID, bool) {
	x, y = types.Follow(x), types.Follow(y)
	if x == y {
		return x, true
	}
	if types.IsPrimitive(x, types.PrimitiveTable) {
		return y, true
	}
	if types.IsPrimitive(y, types.PrimitiveTable) {
		return x, true
	}
	tx, okx := types.Get[*types.Table](x)
	ty, oky := types.Get[*types.Table](y)
	if !okx || !oky {
		return obj.Arena.AddType(&types.Intersection{Parts: []types.TypeID{x, y}}), true
	}

	props := make(map[string]types.Property)
	for _, k := range tx.Keys() {
		props[k] = tx.Props[k]
	}
	for _, k := range ty.Keys() {
		p, exists := props[k]
		if !exists {
			props[k] = ty.Props[k]
			continue
		}
		q := ty.Props[k]
		props[k] = types.Property{
			Read:  obj.meet(p.Read, q.Read),
			Write: obj.meet(p.Write, q.Write),
		}
	}
	indexer := tx.Indexer
	if indexer == nil {
		indexer = ty.Indexer
	}
	return obj.Arena.AddType(&types.Table{Props: props, Indexer: indexer}), true
}

func (obj *Normalizer) meet(a, b types.TypeID) types.TypeID {
	switch {
	case !a.Valid():
		return b
	case !b.Valid():
		return a
	case types.Follow(a) == types.Follow(b):
		return a
	}
	return obj.Arena.AddType(&types.Intersection{Parts: []types.TypeID{a, b}})
}

// complement returns everything that is not in the normal form. Table and
// function shapes other than the top types can not be subtracted, so the top
// types stay in.
func (obj *Normalizer) complement(n *interfaces.NormalizedType) *interfaces.NormalizedType {
	if n.HasTops() {
		return newNever()
	}
	out := obj.everything()
	out.True = !n.True
	out.False = !n.False
	out.Nils = !n.Nils
	out.Numbers = !n.Numbers
	out.Strings = copyStrings(n.Strings)
	out.Strings.Cofinite = !n.Strings.Cofinite
	out.Threads = !n.Threads
	out.Buffers = !n.Buffers
	if n.Functions.Top {
		out.Functions = interfaces.NormalizedFunctions{}
	}
	if n.HasTopTable() {
		out.Tables = nil
	}
	return out
}

// IsInhabited checks if a normal form has any values. Tables are inhabited
// unless one of their properties is not.
func (obj *Normalizer) IsInhabited(norm *interfaces.NormalizedType) interfaces.Inhabitance {
	return obj.isInhabited(norm, set.New[types.TypeID](0))
}

func (obj *Normalizer) isInhabited(norm *interfaces.NormalizedType, seen *set.Set[types.TypeID]) interfaces.Inhabitance {
	if norm == nil || norm.HitLimits() {
		return interfaces.HitLimits
	}
	for _, b := range []bool{
		norm.HasTops(),
		norm.HasBooleans(),
		norm.HasErrors(),
		norm.HasNils(),
		norm.HasNumbers(),
		norm.HasStrings(),
		norm.HasThreads(),
		norm.HasBuffers(),
		norm.HasFunctions(),
		norm.HasExterns(),
		norm.HasTyvars(),
	} {
		if b {
			return interfaces.Inhabited
		}
	}
	for _, t := range norm.Tables {
		switch obj.tableInhabited(t, seen) {
		case interfaces.Inhabited:
			return interfaces.Inhabited
		case interfaces.HitLimits:
			return interfaces.HitLimits
		}
	}
	return interfaces.Uninhabited
}

func (obj *Normalizer) tableInhabited(ty types.TypeID, seen *set.Set[types.TypeID]) interfaces.Inhabitance {
	ty = types.Follow(ty)
	if !seen.Insert(ty) {
		return interfaces.Inhabited
	}
	if m, ok := types.Get[*types.Metatable](ty); ok {
		ty = types.Follow(m.Table)
	}
	tbl, ok := types.Get[*types.Table](ty)
	if !ok {
		return interfaces.Inhabited
	}
	for _, k := range tbl.Keys() {
		read := tbl.Props[k].Read
		if !read.Valid() {
			continue
		}
		n := obj.Normalize(read)
		if n == nil {
			return interfaces.HitLimits
		}
		if r := obj.isInhabited(n, seen); r != interfaces.Inhabited {
			return r
		}
	}
	return interfaces.Inhabited
}

// IsIntersectionInhabited checks if two types share any values.
func (obj *Normalizer) IsIntersectionInhabited(a, b types.TypeID) interfaces.Inhabitance {
	na := obj.Normalize(a)
	nb := obj.Normalize(b)
	if na == nil || nb == nil {
		return interfaces.HitLimits
	}
	return obj.IsInhabited(obj.intersect(na, nb))
}

// TypeFromNormal turns a normal form back into a type.
func (obj *Normalizer) TypeFromNormal(norm *interfaces.NormalizedType) types.TypeID {
	b := obj.Builtins
	if norm.HasTops() {
		return norm.Tops
	}
	options := []types.TypeID{}
	switch {
	case norm.True && norm.False:
		options = append(options, b.Boolean)
	case norm.True:
		options = append(options, b.True)
	case norm.False:
		options = append(options, b.False)
	}
	options = append(options, norm.Externs...)
	if norm.Errors {
		options = append(options, b.Error)
	}
	if norm.Nils {
		options = append(options, b.Nil)
	}
	if norm.Numbers {
		options = append(options, b.Number)
	}
	switch {
	case norm.Strings.IsString():
		options = append(options, b.String)
	case norm.Strings.Cofinite:
		parts := []types.TypeID{b.String}
		for _, k := range norm.Strings.Keys() {
			s := obj.Arena.AddType(&types.StringSingleton{Value: k})
			parts = append(parts, obj.Arena.AddType(&types.Negation{Ty: s}))
		}
		options = append(options, obj.Arena.AddType(&types.Intersection{Parts: parts}))
	default:
		for _, k := range norm.Strings.Keys() {
			options = append(options, obj.Arena.AddType(&types.StringSingleton{Value: k}))
		}
	}
	if norm.Threads {
		options = append(options, b.Thread)
	}
	if norm.Buffers {
		options = append(options, b.Buffer)
	}
	switch {
	case norm.Functions.Top:
		options = append(options, b.Function)
	case len(norm.Functions.Parts) == 1:
		options = append(options, norm.Functions.Parts[0])
	case len(norm.Functions.Parts) > 1:
		options = append(options, obj.Arena.AddType(&types.Intersection{Parts: norm.Functions.Parts}))
	}
	options = append(options, norm.Tables...)
	options = append(options, norm.Tyvars...)

	switch len(options) {
	case 0:
		return b.Never
	case 1:
		return options[0]
	}
	return obj.Arena.AddType(&types.Union{Options: options})
}
