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
	"context"
	"fmt"

	"github.com/hashicorp/go-set/v3"
	"github.com/purpleidea/typefunc/lang/funcs"
	"github.com/purpleidea/typefunc/lang/interfaces"
	"github.com/purpleidea/typefunc/lang/types"
	"github.com/purpleidea/typefunc/prometheus"
)

// skip is what the scheduler learns about an argument before reducing.
type skip int

const (
	skipOkay skip = iota

	// skipDefer means the argument is an instance that may still reduce.
	skipDefer

	// skipIrreducible means the argument is an instance that will never
	// reduce in this run.
	skipIrreducible

	// skipGeneric means the argument is generic, or as good as generic.
	skipGeneric

	// skipStuck means the argument has no valid reduction at all.
	skipStuck

	// skipCyclic means the argument is an instance that contains itself.
	skipCyclic
)

func (obj skip) String() string {
	switch obj {
	case skipOkay:
		return "okay"
	case skipDefer:
		return "defer"
	case skipIrreducible:
		return "irreducible"
	case skipGeneric:
		return "generic"
	case skipStuck:
		return "stuck"
	case skipCyclic:
		return "cyclic"
	}
	return fmt.Sprintf("skip(%d)", int(obj))
}

// scheduler runs the work queues of a single reduction.
type scheduler struct {
	config *Config
	tfctx  *funcs.Context
	loc    types.Location
	force  bool

	guesser *guesser

	queuedTypes []types.TypeID
	queuedPacks []types.PackID

	irreducible      *set.Set[types.TypeID]
	irreduciblePacks *set.Set[types.PackID]
	cyclic           *set.Set[types.TypeID]
	guess            *set.Set[types.TypeID]
	guessPacks       *set.Set[types.PackID]

	rec   *recorder
	steps int
}

func newScheduler(config *Config, tfctx *funcs.Context, loc types.Location, force bool, c *collection) *scheduler {
	return &scheduler{
		config: config,
		tfctx:  tfctx,
		loc:    loc,
		force:  force,

		guesser: &guesser{tfctx: tfctx},

		queuedTypes: c.Types,
		queuedPacks: c.Packs,

		irreducible:      set.New[types.TypeID](0),
		irreduciblePacks: set.New[types.PackID](0),
		cyclic:           c.Cyclic,
		guess:            c.Guess,
		guessPacks:       c.GuessPacks,

		rec: newRecorder(),
	}
}

func (obj *scheduler) metrics() *prometheus.Prometheus { return obj.config.Metrics }

func (obj *scheduler) count(fi *types.FunctionInstance, outcome string) {
	if m := obj.metrics(); m != nil && fi.Function != nil {
		m.UpdateReductionTotal(fi.Function.Name, outcome)
	}
}

func (obj *scheduler) done() bool {
	return len(obj.queuedTypes) == 0 && len(obj.queuedPacks) == 0
}

// run steps until both queues are empty or the step budget is spent. Types
// always go before packs.
func (obj *scheduler) run(ctx context.Context) {
	maxSteps := obj.config.maxSteps()
	for !obj.done() {
		if obj.steps >= maxSteps {
			obj.config.logf("giving up after %d steps", obj.steps)
			obj.rec.error(obj.loc, &interfaces.CodeTooComplexError{})
			if m := obj.metrics(); m != nil {
				m.UpdateTooComplexTotal()
			}
			break
		}
		obj.steps++

		if len(obj.queuedTypes) > 0 {
			subject := obj.queuedTypes[0]
			obj.queuedTypes = obj.queuedTypes[1:]
			obj.stepType(ctx, subject)
			continue
		}
		subject := obj.queuedPacks[0]
		obj.queuedPacks = obj.queuedPacks[1:]
		obj.stepPack(ctx, subject)
	}
	if m := obj.metrics(); m != nil {
		m.UpdateStepsTotal(obj.steps)
	}
}

// skipType looks at a type, and through any intersection, for the first thing
// that would stop a function from reducing.
func (obj *scheduler) skipType(ty types.TypeID) skip {
	queue := []types.TypeID{types.Follow(ty)}
	seen := set.New[types.TypeID](0)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if !seen.Insert(current) {
			continue
		}

		switch t := current.Node().(type) {
		case *types.Intersection:
			for _, part := range t.Parts {
				queue = append(queue, types.Follow(part))
			}

		case *types.FunctionInstance:
			switch t.State {
			case types.Stuck:
				return skipStuck
			case types.Solved:
				return skipGeneric
			}
			if obj.cyclic.Contains(current) {
				return skipCyclic
			}
			if !obj.irreducible.Contains(current) {
				return skipDefer
			}
			return skipIrreducible

		case *types.Generic:
			return skipGeneric
		}
	}
	return skipOkay
}

func (obj *scheduler) skipPack(tp types.PackID) skip {
	tp = types.FollowPack(tp)
	switch tp.Node().(type) {
	case *types.FunctionInstancePack:
		if obj.irreduciblePacks.Contains(tp) {
			return skipIrreducible
		}
		return skipDefer
	case *types.GenericPack:
		return skipGeneric
	}
	return skipOkay
}

// owned returns true if the instance may have its state changed by us.
func (obj *scheduler) owned(subject types.TypeID) bool {
	return subject.Arena() == obj.tfctx.Arena
}

// testParameters returns true if every argument of the subject is ready. If
// not, it either requeues the subject or gives up on it.
func (obj *scheduler) testParameters(subject types.TypeID, fi *types.FunctionInstance) bool {
	generics := fi.Function != nil && fi.Function.CanReduceGenerics

	for _, arg := range fi.TypeArgs {
		s := obj.skipType(arg)
		switch {
		case s == skipStuck:
			obj.config.logf("%s is stuck because %s is", types.ToString(subject), types.ToString(arg))
			obj.irreducible.Insert(subject)
			if obj.owned(subject) {
				fi.State = types.Stuck
			}
			return false

		case s == skipIrreducible, s == skipGeneric && !generics:
			obj.config.logf("%s is irreducible because of %s (%s)", types.ToString(subject), types.ToString(arg), s)
			obj.irreducible.Insert(subject)
			if s == skipGeneric && obj.owned(subject) {
				fi.State = types.Solved
			}
			return false

		case s == skipDefer:
			obj.config.logf("%s is waiting on %s", types.ToString(subject), types.ToString(arg))
			obj.queuedTypes = append(obj.queuedTypes, subject)
			return false
		}
	}

	for _, arg := range fi.PackArgs {
		s := obj.skipPack(arg)
		switch {
		case s == skipIrreducible, s == skipGeneric && !generics:
			obj.irreducible.Insert(subject)
			return false

		case s == skipDefer:
			obj.queuedTypes = append(obj.queuedTypes, subject)
			return false
		}
	}
	return true
}

// testPackParameters is testParameters for a pack instance.
func (obj *scheduler) testPackParameters(subject types.PackID, fi *types.FunctionInstancePack) bool {
	generics := fi.Function != nil && fi.Function.CanReduceGenerics

	for _, arg := range fi.TypeArgs {
		s := obj.skipType(arg)
		switch {
		case s == skipStuck, s == skipIrreducible, s == skipGeneric && !generics:
			obj.irreduciblePacks.Insert(subject)
			return false

		case s == skipDefer:
			obj.queuedPacks = append(obj.queuedPacks, subject)
			return false
		}
	}
	for _, arg := range fi.PackArgs {
		s := obj.skipPack(arg)
		switch {
		case s == skipIrreducible, s == skipGeneric && !generics:
			obj.irreduciblePacks.Insert(subject)
			return false

		case s == skipDefer:
			obj.queuedPacks = append(obj.queuedPacks, subject)
			return false
		}
	}
	return true
}

// tryGuessing replaces a deeply nested instance with a guessed result.
func (obj *scheduler) tryGuessing(subject types.TypeID, fi *types.FunctionInstance) bool {
	if !obj.guess.Contains(subject) {
		return false
	}
	guess, ok := obj.guesser.Guess(subject)
	if !ok {
		return false
	}
	obj.config.logf("guessed %s => %s", types.ToString(subject), types.ToString(guess))
	if !obj.replace(subject, guess) {
		return false
	}
	obj.count(fi, prometheus.OutcomeGuessed)
	return true
}

// replace binds an instance to its result. A failure is reported and leaves
// the instance alone.
func (obj *scheduler) replace(subject, to types.TypeID) bool {
	if err := obj.tfctx.Arena.Bind(subject, to); err != nil {
		obj.rec.error(obj.loc, &interfaces.InternalError{
			Message: fmt.Sprintf("could not replace %s: %v", types.ToString(subject), err),
		})
		return false
	}
	obj.rec.reducedType(subject)
	return true
}

func (obj *scheduler) replacePack(subject, to types.PackID) bool {
	if err := obj.tfctx.Arena.BindPack(subject, to); err != nil {
		obj.rec.error(obj.loc, &interfaces.InternalError{
			Message: fmt.Sprintf("could not replace %s: %v", types.PackString(subject), err),
		})
		return false
	}
	obj.rec.reducedPack(subject)
	return true
}

// enqueueFound puts the instances of a fresh result at the front of the
// queues, so that they are handled before anything else.
func (obj *scheduler) enqueueFound(c *collection, err error) {
	if err != nil {
		obj.config.logf("could not collect instances of a result: %+v", err)
		return
	}
	for _, id := range c.Cyclic.Slice() {
		obj.cyclic.Insert(id)
	}
	obj.queuedTypes = append(append([]types.TypeID{}, c.Types...), obj.queuedTypes...)
	obj.queuedPacks = append(append([]types.PackID{}, c.Packs...), obj.queuedPacks...)
}

func (obj *scheduler) stepType(ctx context.Context, subject types.TypeID) {
	subject = types.Follow(subject)
	if obj.irreducible.Contains(subject) {
		return
	}
	fi, ok := types.Get[*types.FunctionInstance](subject)
	if !ok {
		return // already reduced
	}
	obj.config.logf("stepping %s", types.ToString(subject))

	if fi.Function != nil && fi.Function.Kind == types.FuncUser && hasUnscopedGenerics(subject) {
		obj.irreducible.Insert(subject)
		obj.rec.irreducibleType(subject)
		obj.count(fi, prometheus.OutcomeIrreducible)
		return
	}

	own := obj.skipType(subject)
	if !obj.testParameters(subject, fi) && own != skipCyclic {
		if fi.State == types.Stuck || fi.State == types.Solved {
			obj.tryGuessing(subject, fi)
		}
		return
	}

	if obj.tryGuessing(subject, fi) {
		return
	}

	r := funcs.Reduce(ctx, obj.tfctx, subject, fi.TypeArgs, fi.PackArgs)
	obj.config.logf("%s: %s", types.ToString(subject), r)
	obj.handleReduction(subject, fi, r)
}

func (obj *scheduler) handleReduction(subject types.TypeID, fi *types.FunctionInstance, r funcs.Reduction) {
	for _, msg := range r.Messages {
		obj.rec.message(obj.loc, msg)
	}

	if r.Result.Valid() {
		obj.config.logf("%s => %s", types.ToString(subject), types.ToString(r.Result))
		if !obj.replace(subject, r.Result) {
			return
		}
		obj.count(fi, prometheus.OutcomeReduced)
		obj.enqueueFound(collectType(r.Result, obj.config.GuesserDepth, obj.config.recursionLimit()))
		return
	}

	obj.irreducible.Insert(subject)
	if r.Error != "" {
		obj.rec.error(obj.loc, &interfaces.UserDefinedTypeFunctionError{Message: r.Error})
	}

	if r.Status != funcs.MaybeOk || obj.force {
		if fi.State == types.Unsolved && obj.owned(subject) {
			switch r.Status {
			case funcs.Irreducible:
				fi.State = types.Solved
			default:
				fi.State = types.Stuck
			}
		}
		obj.rec.error(obj.loc, &interfaces.UninhabitedTypeFunctionError{Type: subject})
		obj.count(fi, prometheus.OutcomeUninhabited)
		return
	}

	for _, b := range r.BlockedTypes {
		obj.rec.blockedType(b)
	}
	for _, b := range r.BlockedPacks {
		obj.rec.blockedPack(b)
	}
	obj.count(fi, prometheus.OutcomeBlocked)
}

func (obj *scheduler) stepPack(ctx context.Context, subject types.PackID) {
	subject = types.FollowPack(subject)
	if obj.irreduciblePacks.Contains(subject) {
		return
	}
	fi, ok := types.GetPack[*types.FunctionInstancePack](subject)
	if !ok {
		return
	}
	obj.config.logf("stepping %s", types.PackString(subject))

	if !obj.testPackParameters(subject, fi) {
		return
	}

	r := funcs.ReducePack(ctx, obj.tfctx, subject, fi.TypeArgs, fi.PackArgs)
	for _, msg := range r.Messages {
		obj.rec.message(obj.loc, msg)
	}

	if r.Result.Valid() {
		if !obj.replacePack(subject, r.Result) {
			return
		}
		obj.enqueueFound(collectPack(r.Result, obj.config.GuesserDepth, obj.config.recursionLimit()))
		return
	}

	obj.irreduciblePacks.Insert(subject)
	if r.Error != "" {
		obj.rec.error(obj.loc, &interfaces.UserDefinedTypeFunctionError{Message: r.Error})
	}
	if r.Status != funcs.MaybeOk || obj.force {
		obj.rec.error(obj.loc, &interfaces.UninhabitedTypePackFunctionError{Pack: subject})
		return
	}
	for _, b := range r.BlockedTypes {
		obj.rec.blockedType(b)
	}
	for _, b := range r.BlockedPacks {
		obj.rec.blockedPack(b)
	}
}
