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
	"strings"
	"testing"

	"github.com/purpleidea/typefunc/lang/interfaces"
	"github.com/purpleidea/typefunc/lang/normalize"
	"github.com/purpleidea/typefunc/lang/overload"
	"github.com/purpleidea/typefunc/lang/simplify"
	"github.com/purpleidea/typefunc/lang/subtyping"
	"github.com/purpleidea/typefunc/lang/types"
	"github.com/purpleidea/typefunc/lang/unification"

	"github.com/hashicorp/go-set/v3"
)

// newTestContext wires the reference oracles together. The reduce package has
// the same helper, but importing it here would be a cycle.
func newTestContext() (*Context, *interfaces.RecordingReporter) {
	b := types.NewBuiltins()
	arena := types.NewArena("test")
	sub := subtyping.New(b)
	unifier := &unification.Unifier{Arena: arena, Builtins: b}
	inst := &unification.Instantiator{Arena: arena}
	ice := &interfaces.RecordingReporter{}
	return &Context{
		Arena:        arena,
		Builtins:     b,
		Normalizer:   normalize.New(arena, b, normalize.Config{}),
		Simplifier:   simplify.New(arena, b, sub),
		Subtyping:    sub,
		Unifier:      unifier,
		Instantiator: inst,
		CallSolver: &overload.Resolver{
			Builtins:     b,
			Instantiator: inst,
			Unifier:      unifier,
			Subtyping:    sub,
		},
		ICE:     ice,
		Session: &Session{},
	}, ice
}

func newTestParser(tfctx *Context, names map[string]string) (*types.Parser, error) {
	p := &types.Parser{
		Arena:     tfctx.Arena,
		Builtins:  tfctx.Builtins,
		Names:     make(map[string]types.TypeID),
		Functions: LookupFunc,
	}
	for name, expr := range names {
		ty, err := p.Parse(expr)
		if err != nil {
			return nil, err
		}
		p.Names[name] = ty
	}
	return p, nil
}

// reduceOnce runs the function of an instance on its own arguments.
func reduceOnce(tfctx *Context, instance types.TypeID) Reduction {
	fi, _ := types.Get[*types.FunctionInstance](types.Follow(instance))
	return Reduce(context.Background(), tfctx, instance, fi.TypeArgs, fi.PackArgs)
}

func TestBuiltins0(t *testing.T) {
	const erroneousResult = "<erroneous>"
	const blockedResult = "<blocked>"

	// a table whose metatable adds a number to it, making a string
	adder := "{ @metatable { __add: (any, number) -> string }, {} }"

	type test struct { // an individual test
		name  string
		names map[string]string
		expr  string
		exp   string // erroneousResult, blockedResult or a printed type
	}
	testCases := []test{}

	{
		testCases = append(testCases,
			test{name: "add numbers", expr: "add<number, number>", exp: "number"},
			test{name: "add never", expr: "add<never, string>", exp: "never"},
			test{name: "add any", expr: "add<any, string>", exp: "any"},
			test{name: "add string", expr: "add<string, number>", exp: erroneousResult},
			test{name: "add blocked", expr: "add<blocked, number>", exp: blockedResult},
			test{name: "add one bad branch", expr: "add<number | string, number>", exp: erroneousResult},
			test{name: "add metamethod", names: map[string]string{"V": adder}, expr: "add<V, number>", exp: "string"},
			test{name: "add reversed metamethod", names: map[string]string{"V": adder}, expr: "add<number, V>", exp: "string"},
			test{name: "add distributes", names: map[string]string{"V": adder}, expr: "add<V | number, number>", exp: "union<string, number>"},
			test{name: "sub numbers", expr: "sub<number, number>", exp: "number"},
			test{name: "pow metamethod missing", names: map[string]string{"V": adder}, expr: "pow<V, number>", exp: erroneousResult},
		)
	}
	{
		testCases = append(testCases,
			test{name: "not number", expr: "not<number>", exp: "boolean"},
			test{name: "len string", expr: "len<string>", exp: "number"},
			test{name: "len singleton", expr: `len<"abc">`, exp: "number"},
			test{name: "len table", expr: "len<{ x: number }>", exp: "number"},
			test{name: "len metatable without __len", expr: "len<{ @metatable { x: number }, {} }>", exp: "number"},
			test{name: "len boolean", expr: "len<boolean>", exp: erroneousResult},
			test{name: "len never", expr: "len<never>", exp: "number"},
			test{name: "unm number", expr: "unm<number>", exp: "number"},
			test{name: "unm any", expr: "unm<any>", exp: "any"},
			test{name: "unm never", expr: "unm<never>", exp: "never"},
			test{name: "unm metamethod", expr: "unm<{ @metatable { __unm: (any) -> boolean }, {} }>", exp: "boolean"},
			test{name: "unm string", expr: "unm<string>", exp: erroneousResult},
		)
	}
	{
		testCases = append(testCases,
			test{name: "concat string number", expr: "concat<string, number>", exp: "string"},
			test{name: "concat boolean", expr: "concat<boolean, string>", exp: erroneousResult},
			test{name: "lt numbers", expr: "lt<number, number>", exp: "boolean"},
			test{name: "le strings", expr: `le<"a", string>`, exp: "boolean"},
			test{name: "lt mixed", expr: "lt<string, number>", exp: erroneousResult},
			test{name: "eq numbers", expr: "eq<number, number>", exp: "boolean"},
			test{name: "eq disjoint strings", expr: `eq<"a", "b">`, exp: "false"},
			test{name: "eq disjoint booleans", expr: "eq<true, false>", exp: "false"},
			test{name: "eq unrelated", expr: "eq<number, string>", exp: erroneousResult},
		)
	}
	{
		testCases = append(testCases,
			test{name: "and", expr: "and<false, string>", exp: "string | false"},
			test{name: "or", expr: "or<number, string>", exp: "string | number"},
			test{name: "or blocked", expr: "or<blocked, string>", exp: blockedResult},
			test{name: "refine nil", expr: "refine<string?, ~nil>", exp: "string"},
			test{name: "refine nothing", expr: "refine<number, norefine>", exp: "number"},
			test{name: "refine blocked", expr: "refine<blocked, number>", exp: blockedResult},
			test{name: "singleton string", expr: `singleton<"a">`, exp: `"a"`},
			test{name: "singleton negated nil", expr: "singleton<~nil>", exp: "~nil"},
			test{name: "singleton number", expr: "singleton<number>", exp: "unknown"},
			test{name: "union", expr: "union<number, string>", exp: "number | string"},
			test{name: "union same", expr: "union<number, number>", exp: "number"},
			test{name: "union nested", expr: "union<number, union<string, number>>", exp: "number | string"},
			test{name: "union blocked", expr: "union<number, add<blocked, number>>", exp: blockedResult},
			test{name: "intersect", expr: "intersect<number, unknown>", exp: "number"},
			test{name: "intersect norefine", expr: "intersect<number, norefine>", exp: "number"},
			test{name: "intersect never", expr: "intersect<number, never>", exp: "never"},
			test{name: "intersect disjoint", expr: "intersect<number, string>", exp: "string & number"},
			test{name: "weakoptional never", expr: "weakoptional<never>", exp: "nil"},
			test{name: "weakoptional number", expr: "weakoptional<number>", exp: "number"},
		)
	}
	{
		testCases = append(testCases,
			test{name: "keyof", expr: "keyof<{ a: number, b: string }>", exp: `"a" | "b"`},
			test{name: "keyof empty", expr: "keyof<{}>", exp: "never"},
			test{name: "keyof indexer", expr: "keyof<{ [string]: number }>", exp: "string"},
			test{name: "keyof common", expr: "keyof<{ a: number } | { a: string, b: number }>", exp: `"a"`},
			test{name: "keyof number", expr: "keyof<number>", exp: erroneousResult},
			test{name: "keyof empty string", expr: `keyof<{ [""]: number }>`, exp: `""`},
			test{name: "keyof metatable", expr: "keyof<{ @metatable { __index: { b: string } }, { a: number } }>", exp: `"a" | "b"`},
			test{name: "rawkeyof metatable", expr: "rawkeyof<{ @metatable { __index: { b: string } }, { a: number } }>", exp: `"a"`},
			test{name: "index", expr: `index<{ a: number }, "a">`, exp: "number"},
			test{name: "index missing", expr: `index<{ a: number }, "b">`, exp: erroneousResult},
			test{name: "index indexer", expr: `index<{ [string]: boolean }, "x">`, exp: "boolean"},
			test{name: "index union key", expr: `index<{ a: number, b: string }, "a" | "b">`, exp: "number | string"},
			test{name: "index any", expr: `index<any, "a">`, exp: "any"},
			test{name: "index through __index", expr: `index<{ @metatable { __index: { b: string } }, { a: number } }, "b">`, exp: "string"},
			test{name: "rawget through __index", expr: `rawget<{ @metatable { __index: { b: string } }, { a: number } }, "b">`, exp: erroneousResult},
			test{name: "index __index function", expr: `index<{ @metatable { __index: (any) -> number }, {} }, "b">`, exp: "number"},
		)
	}
	{
		testCases = append(testCases,
			test{name: "setmetatable", expr: "setmetatable<{ a: number }, { x: number }>", exp: "{ @metatable { x: number }, { a: number } }"},
			test{name: "setmetatable number", expr: "setmetatable<number, {}>", exp: erroneousResult},
			test{name: "setmetatable locked", expr: "setmetatable<{ @metatable { __metatable: string }, {} }, {}>", exp: erroneousResult},
			test{name: "getmetatable", expr: "getmetatable<{ @metatable { x: number }, {} }>", exp: "{ x: number }"},
			test{name: "getmetatable locked", expr: "getmetatable<{ @metatable { __metatable: string }, {} }>", exp: "string"},
			test{name: "getmetatable table", expr: "getmetatable<{}>", exp: "nil"},
			test{name: "getmetatable any", expr: "getmetatable<any>", exp: "any"},
			test{name: "getmetatable number", expr: "getmetatable<number>", exp: "nil"},
			test{name: "getmetatable union", expr: "getmetatable<{} | true>", exp: "nil | nil"},
			test{name: "getmetatable unknown part", expr: "getmetatable<unknown & { @metatable { x: number }, {} }>", exp: "{ x: number }"},
			test{name: "getmetatable function", expr: "getmetatable<(number) -> ()>", exp: erroneousResult},
		)
	}

	names := map[string]struct{}{}
	for index, tc := range testCases { // run all the tests
		if tc.name == "" {
			t.Errorf("test #%d: not named", index)
			continue
		}
		if _, exists := names[tc.name]; exists {
			t.Errorf("test #%d: duplicate sub test name of: %s", index, tc.name)
			continue
		}
		names[tc.name] = struct{}{}

		t.Run(fmt.Sprintf("test #%d (%s)", index, tc.name), func(t *testing.T) {
			tfctx, ice := newTestContext()
			p, err := newTestParser(tfctx, tc.names)
			if err != nil {
				t.Errorf("test #%d: FAIL", index)
				t.Errorf("test #%d: could not parse names: %+v", index, err)
				return
			}
			instance, err := p.Parse(tc.expr)
			if err != nil {
				t.Errorf("test #%d: FAIL", index)
				t.Errorf("test #%d: could not parse: %+v", index, err)
				return
			}
			r := reduceOnce(tfctx, instance)
			if len(ice.Messages) > 0 {
				t.Errorf("test #%d: FAIL", index)
				t.Errorf("test #%d: internal errors: %s", index, strings.Join(ice.Messages, ", "))
				return
			}

			got := ""
			switch {
			case r.Result.Valid():
				got = types.ToString(r.Result)
			case r.Status == Erroneous:
				got = erroneousResult
			case len(r.BlockedTypes) > 0:
				got = blockedResult
			default:
				got = fmt.Sprintf("<nothing: %s>", r)
			}
			if got != tc.exp {
				t.Errorf("test #%d: FAIL", index)
				t.Errorf("test #%d: expected: %s", index, tc.exp)
				t.Errorf("test #%d: got: %s", index, got)
			}
		})
	}
}

func TestSelfReference0(t *testing.T) {
	tfctx, _ := newTestContext()
	b := tfctx.Builtins
	for _, kind := range []types.FunctionKind{types.FuncAdd, types.FuncConcat, types.FuncLt} {
		fi := &types.FunctionInstance{Function: Builtin(kind), TypeArgs: []types.TypeID{b.Number, b.Number}}
		instance := tfctx.Arena.AddType(fi)
		fi.TypeArgs[1] = instance

		r := reduceOnce(tfctx, instance)
		if r.Result != b.Never {
			t.Errorf("%s: self reference should be never, got: %s", Builtin(kind).Name, r)
		}
	}

	// and<number, t1> where t1 is the instance is just number
	fi := &types.FunctionInstance{Function: Builtin(types.FuncAnd), TypeArgs: []types.TypeID{b.Number, b.Number}}
	instance := tfctx.Arena.AddType(fi)
	fi.TypeArgs[1] = instance
	if r := reduceOnce(tfctx, instance); r.Result != b.Number {
		t.Errorf("and: self reference should be the other side, got: %s", r)
	}
}

func TestDistributionLimit0(t *testing.T) {
	tfctx, _ := newTestContext()
	tfctx.CartesianProductLimit = 4
	p, err := newTestParser(tfctx, nil)
	if err != nil {
		t.Fatalf("could not build parser: %+v", err)
	}
	instance, err := p.Parse("mul<number | string | boolean, number | string>")
	if err != nil {
		t.Fatalf("could not parse: %+v", err)
	}
	r := reduceOnce(tfctx, instance)
	if r.Result.Valid() || r.Status != Erroneous {
		t.Errorf("expected an erroneous reduction, got: %s", r)
	}

	tfctx.CartesianProductLimit = 100
	r = reduceOnce(tfctx, instance)
	if r.Status != Erroneous {
		t.Errorf("expected the string branch to be erroneous, got: %s", r)
	}
}

func TestRefineOccurs0(t *testing.T) {
	tfctx, _ := newTestContext()
	b := tfctx.Builtins
	notNil := tfctx.Arena.AddType(&types.Negation{Ty: b.Nil})
	fi := &types.FunctionInstance{Function: Builtin(types.FuncRefine), TypeArgs: []types.TypeID{b.Number, notNil}}
	instance := tfctx.Arena.AddType(fi)
	fi.TypeArgs[0] = tfctx.Arena.AddType(&types.Union{Options: []types.TypeID{b.Number, b.Nil, instance}})

	r := reduceOnce(tfctx, instance)
	if !r.Result.Valid() {
		t.Fatalf("expected a result, got: %s", r)
	}
	if occurs(r.Result, instance, set.New[types.TypeID](0)) {
		t.Errorf("result still refers to the instance: %s", types.ToString(r.Result))
	}
	if s := types.ToString(r.Result); s != "number" {
		t.Errorf("expected number, got: %s", s)
	}
}

func TestArity0(t *testing.T) {
	tfctx, ice := newTestContext()
	b := tfctx.Builtins
	instance := tfctx.Arena.AddType(&types.FunctionInstance{
		Function: Builtin(types.FuncNot),
		TypeArgs: []types.TypeID{b.Number, b.Number},
	})
	r := reduceOnce(tfctx, instance)
	if r.Status != Erroneous {
		t.Errorf("expected an erroneous reduction, got: %s", r)
	}
	if len(ice.Messages) != 1 || !strings.HasPrefix(ice.Messages[0], "not type function:") {
		t.Errorf("expected one internal error, got: %v", ice.Messages)
	}
}

// testSolver binds types directly and records what it was asked.
type testSolver struct {
	arena      *types.Arena
	unresolved map[types.TypeID]bool
	pushed     []types.TypeID
}

func (obj *testSolver) HasUnresolvedConstraints(ty types.TypeID) bool { return obj.unresolved[ty] }

func (obj *testSolver) Bind(c interfaces.Constraint, ty, to types.TypeID) error {
	return obj.arena.Bind(ty, to)
}

func (obj *testSolver) PushReduceConstraint(loc types.Location, ty types.TypeID) {
	obj.pushed = append(obj.pushed, ty)
}

type testConstraint struct{}

func (obj *testConstraint) String() string { return "test" }

func TestComparisonInjection0(t *testing.T) {
	tfctx, _ := newTestContext()
	solver := &testSolver{arena: tfctx.Arena}
	tfctx.Solver = solver
	tfctx.Constraint = &testConstraint{}

	free := tfctx.Arena.AddType(&types.Free{})
	instance := tfctx.Arena.AddType(&types.FunctionInstance{
		Function: Builtin(types.FuncLt),
		TypeArgs: []types.TypeID{free, tfctx.Builtins.Number},
	})
	r := reduceOnce(tfctx, instance)
	if r.Result != tfctx.Builtins.Boolean {
		t.Errorf("expected boolean, got: %s", r)
	}
	if types.Follow(free) != tfctx.Builtins.Number {
		t.Errorf("free type was not bound to number: %s", types.ToString(free))
	}
}

func TestDistributionPush0(t *testing.T) {
	tfctx, _ := newTestContext()
	solver := &testSolver{arena: tfctx.Arena}
	tfctx.Solver = solver

	p, err := newTestParser(tfctx, map[string]string{
		"V": "{ @metatable { __len: (any) -> number }, {} }",
	})
	if err != nil {
		t.Fatalf("could not build parser: %+v", err)
	}
	instance, err := p.Parse("not<V | number>")
	if err != nil {
		t.Fatalf("could not parse: %+v", err)
	}
	r := reduceOnce(tfctx, instance)
	fi, ok := types.Get[*types.FunctionInstance](r.Result)
	if !ok || fi.Function.Kind != types.FuncUnion {
		t.Fatalf("expected a union instance, got: %s", r)
	}
	if len(solver.pushed) != 1 || solver.pushed[0] != r.Result {
		t.Errorf("the union instance was not pushed to the solver: %v", solver.pushed)
	}
}

func TestIsPending0(t *testing.T) {
	tfctx, _ := newTestContext()
	arena := tfctx.Arena
	b := tfctx.Builtins

	unsolved := arena.AddType(&types.FunctionInstance{Function: Builtin(types.FuncNot), TypeArgs: []types.TypeID{b.Number}})
	stuck := arena.AddType(&types.FunctionInstance{Function: Builtin(types.FuncNot), TypeArgs: []types.TypeID{b.Number}, State: types.Stuck})
	blocked := arena.AddType(&types.Blocked{})
	pending := arena.AddType(&types.PendingExpansion{Name: "Foo"})
	bound := arena.AddType(&types.Free{})
	if err := arena.Bind(bound, blocked); err != nil {
		t.Fatalf("could not bind: %+v", err)
	}
	waiting := arena.AddType(&types.Free{})
	solver := &testSolver{arena: arena, unresolved: map[types.TypeID]bool{waiting: true}}

	testCases := []struct {
		ty  types.TypeID
		exp bool
	}{
		{unsolved, true},
		{stuck, false},
		{blocked, true},
		{pending, true},
		{bound, true},
		{waiting, true},
		{b.Number, false},
	}
	for index, tc := range testCases {
		if got := IsPending(tc.ty, solver); got != tc.exp {
			t.Errorf("test #%d: expected %t for %s, got %t", index, tc.exp, types.ToString(tc.ty), got)
		}
	}
	if IsPending(waiting, nil) {
		t.Errorf("a free type is not pending without a solver")
	}
}

func TestBlockerScans0(t *testing.T) {
	tfctx, _ := newTestContext()
	p, err := newTestParser(tfctx, nil)
	if err != nil {
		t.Fatalf("could not build parser: %+v", err)
	}
	ty, err := p.Parse("{ a: blocked, b: (pending) -> number, c: add<number, number> }")
	if err != nil {
		t.Fatalf("could not parse: %+v", err)
	}
	if got := FindRefinementBlockers(ty); len(got) != 2 {
		t.Errorf("expected two refinement blockers, got: %v", got)
	}
	if got := FindUserBlockers(nil, ty); len(got) != 3 {
		t.Errorf("expected three user blockers, got: %v", got)
	}

	// repeated roots are reported once, in the order they were first seen
	instance, err := p.Parse("add<number, number>")
	if err != nil {
		t.Fatalf("could not parse: %+v", err)
	}
	blocked, err := p.Parse("blocked")
	if err != nil {
		t.Fatalf("could not parse: %+v", err)
	}
	got := FindUserBlockers(nil, instance, blocked, instance, blocked)
	if len(got) != 2 || got[0] != instance || got[1] != blocked {
		t.Errorf("expected the instance and then the blocked type, got: %v", got)
	}

	if ContainsRefinableType(tfctx.Builtins.NoRefine) {
		t.Errorf("the no-refine marker is not refinable")
	}
	wrapped, err := p.Parse("{ x: norefine } | ~norefine")
	if err != nil {
		t.Fatalf("could not parse: %+v", err)
	}
	if ContainsRefinableType(wrapped) {
		t.Errorf("structures around the no-refine marker are not refinable")
	}
	if !ContainsRefinableType(tfctx.Builtins.Nil) {
		t.Errorf("nil is refinable")
	}
}

func TestCollectUnionOptions0(t *testing.T) {
	tfctx, _ := newTestContext()
	p, err := newTestParser(tfctx, nil)
	if err != nil {
		t.Fatalf("could not build parser: %+v", err)
	}
	instance, err := p.Parse("union<number | string, union<boolean, nil>, not<number>>")
	if err != nil {
		t.Fatalf("could not parse: %+v", err)
	}
	options, blocking := CollectUnionOptions(instance, nil)
	got := []string{}
	for _, o := range options {
		got = append(got, types.ToString(o))
	}
	exp := "number, string, boolean, nil, not<number>"
	if s := strings.Join(got, ", "); s != exp {
		t.Errorf("expected: %s, got: %s", exp, s)
	}
	if len(blocking) != 1 || types.ToString(blocking[0]) != "not<number>" {
		t.Errorf("expected the not instance to block, got: %v", blocking)
	}
}

func TestCatalog0(t *testing.T) {
	exp := []string{
		"add", "and", "concat", "div", "eq", "getmetatable", "idiv", "index",
		"intersect", "keyof", "le", "len", "lt", "mod", "mul", "not", "or",
		"pow", "rawget", "rawkeyof", "refine", "setmetatable", "singleton",
		"sub", "union", "unm", "user", "weakoptional",
	}
	if got := Names(); strings.Join(got, " ") != strings.Join(exp, " ") {
		t.Errorf("unexpected catalog: %v", got)
	}
	for _, name := range []string{"and", "or", "refine"} {
		fn, err := Lookup(name)
		if err != nil {
			t.Errorf("lookup of %s failed: %+v", name, err)
			continue
		}
		if !fn.CanReduceGenerics {
			t.Errorf("%s should reduce over generics", name)
		}
	}
	if _, err := Lookup("nope"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got: %+v", err)
	}
	if _, ok := LookupFunc("user"); ok {
		t.Errorf("the user kind should not be available to the parser")
	}

	defer func() {
		if recover() == nil {
			t.Errorf("duplicate registration did not panic")
		}
	}()
	Register(&types.TypeFunction{Kind: types.FuncAdd, Name: "add"})
}

func TestAddToScope0(t *testing.T) {
	arena := types.NewArena("test")
	scope := make(map[string]*types.TypeAlias)
	AddToScope(arena, scope)

	if len(scope) != 19 {
		t.Errorf("expected 19 bindings, got: %d", len(scope))
	}
	add := scope["add"]
	if add == nil || len(add.TypeParams) != 2 || add.TypeParams[1].Default != add.TypeParams[0].Ty {
		t.Errorf("add should default its second parameter to the first")
	}
	index := scope["index"]
	if index == nil || len(index.TypeParams) != 2 || index.TypeParams[1].Default.Valid() {
		t.Errorf("index should not have a default")
	}
	if l := scope["len"]; l == nil || len(l.TypeParams) != 1 || types.ToString(l.Type) != "len<T>" {
		t.Errorf("len should be a unary binding")
	}
	for _, name := range []string{"not", "and", "or", "refine", "union", "user"} {
		if _, exists := scope[name]; exists {
			t.Errorf("%s should not be bound", name)
		}
	}
}

// testRuntime is a user function runtime that answers with a fixed type.
type testRuntime struct {
	allow      bool
	answer     types.TypeID
	registered []string
}

func (obj *testRuntime) AllowEvaluation() bool { return obj.allow }

func (obj *testRuntime) Register(def *types.Definition) error {
	obj.registered = append(obj.registered, def.Name)
	return nil
}

func (obj *testRuntime) Evaluate(ctx context.Context, tfctx *Context, instance types.TypeID, fn *types.UserFunction, typeArgs []types.TypeID) Reduction {
	return reduced(obj.answer)
}

func TestUserFunction0(t *testing.T) {
	newInstance := func(tfctx *Context, args ...types.TypeID) (types.TypeID, *types.UserFunction) {
		def := &types.Definition{Name: "f", Body: "function(t) return t end"}
		user := &types.UserFunction{
			Name:       "f",
			Definition: def,
			Owner:      &types.Module{Name: "test"},
			Functions: map[string]types.EnvFunction{
				"f": {Definition: def},
				"g": {Definition: &types.Definition{Name: "g", Body: "function() end"}},
			},
		}
		return tfctx.Arena.AddType(&types.FunctionInstance{
			Function: Builtin(types.FuncUser),
			TypeArgs: args,
			User:     user,
		}), user
	}

	t.Run("no runtime", func(t *testing.T) {
		tfctx, _ := newTestContext()
		instance, _ := newInstance(tfctx, tfctx.Builtins.Number)
		r := reduceOnce(tfctx, instance)
		if r.Status != Erroneous || !strings.Contains(r.Error, "cannot be evaluated in this context") {
			t.Errorf("unexpected reduction: %s (%s)", r, r.Error)
		}
	})

	t.Run("evaluation disabled", func(t *testing.T) {
		tfctx, _ := newTestContext()
		tfctx.Runtime = &testRuntime{allow: false}
		instance, _ := newInstance(tfctx, tfctx.Builtins.Number)
		if r := reduceOnce(tfctx, instance); r.Result != tfctx.Builtins.Error {
			t.Errorf("expected the error type, got: %s", r)
		}
	})

	t.Run("broken definition", func(t *testing.T) {
		tfctx, _ := newTestContext()
		tfctx.Runtime = &testRuntime{allow: true}
		instance, user := newInstance(tfctx, tfctx.Builtins.Number)
		user.Definition.HasErrors = true
		if r := reduceOnce(tfctx, instance); r.Result != tfctx.Builtins.Error {
			t.Errorf("expected the error type, got: %s", r)
		}
	})

	t.Run("blocked argument", func(t *testing.T) {
		tfctx, _ := newTestContext()
		tfctx.Runtime = &testRuntime{allow: true}
		blocked := tfctx.Arena.AddType(&types.Blocked{})
		instance, _ := newInstance(tfctx, blocked)
		r := reduceOnce(tfctx, instance)
		if len(r.BlockedTypes) != 1 || r.BlockedTypes[0] != blocked {
			t.Errorf("expected to be blocked, got: %s", r)
		}
	})

	t.Run("unloaded module", func(t *testing.T) {
		tfctx, ice := newTestContext()
		tfctx.Runtime = &testRuntime{allow: true}
		instance, user := newInstance(tfctx, tfctx.Builtins.Number)
		user.Owner.Unload()
		if r := reduceOnce(tfctx, instance); r.Status != Erroneous {
			t.Errorf("expected an erroneous reduction, got: %s", r)
		}
		if len(ice.Messages) != 1 {
			t.Errorf("expected an internal error, got: %v", ice.Messages)
		}
	})

	t.Run("evaluate", func(t *testing.T) {
		tfctx, _ := newTestContext()
		rt := &testRuntime{allow: true, answer: tfctx.Builtins.String}
		tfctx.Runtime = rt
		instance, _ := newInstance(tfctx, tfctx.Builtins.Number)
		if r := reduceOnce(tfctx, instance); r.Result != tfctx.Builtins.String {
			t.Errorf("expected string, got: %s", r)
		}
		if strings.Join(rt.registered, ",") != "f,g" {
			t.Errorf("expected every visible function to be registered, got: %v", rt.registered)
		}
	})
}

func TestSession0(t *testing.T) {
	s := &Session{}
	if !s.Enter() {
		t.Fatalf("first enter should succeed")
	}
	if s.Enter() {
		t.Errorf("nested enter should fail")
	}
	if !s.Active() {
		t.Errorf("session should be active")
	}
	s.Leave()
	if s.Active() || !s.Enter() {
		t.Errorf("session should be reusable")
	}
}
