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

// Package runtime evaluates user type functions inside of a Lua sandbox. Types
// cross into the sandbox as plain values, and come back as fresh nodes in the
// arena of the reduction. Every call gets its own interpreter, which only sees
// the functions and aliases that are in scope for the callee.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/purpleidea/typefunc/lang/funcs"
	"github.com/purpleidea/typefunc/lang/reduce"
	"github.com/purpleidea/typefunc/lang/types"
	"github.com/purpleidea/typefunc/util/errwrap"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

// Config is the runtime configuration.
type Config struct {
	// AllowEvaluation is false if user functions must not run at all.
	AllowEvaluation bool `yaml:"allow-evaluation"`

	// Timeout is the wall clock budget of a single call. Zero means no
	// limit other than the context.
	Timeout time.Duration `yaml:"timeout"`

	// MaxNesting bounds how deeply alias reductions asked for by user
	// functions may nest. Zero means DefaultMaxNesting.
	MaxNesting int `yaml:"max-nesting"`

	Debug bool `yaml:"debug"`

	Logf func(format string, v ...interface{}) `yaml:"-"`
}

// DefaultMaxNesting is the nesting limit of alias reductions when the config
// does not set one.
const DefaultMaxNesting = 32

var _ funcs.UserRuntime = &Runtime{} // ensure it meets this expectation

// Runtime implements funcs.UserRuntime. It caches compiled definitions, and
// is safe to share between reductions.
type Runtime struct {
	config *Config

	mutex *sync.Mutex
	cache map[*types.Definition]*lua.FunctionProto
}

// New builds a runtime. A nil config allows evaluation with no timeout.
func New(config *Config) *Runtime {
	if config == nil {
		config = &Config{AllowEvaluation: true}
	}
	return &Runtime{
		config: config,
		mutex:  &sync.Mutex{},
		cache:  make(map[*types.Definition]*lua.FunctionProto),
	}
}

func (obj *Runtime) logf(format string, v ...interface{}) {
	if !obj.config.Debug || obj.config.Logf == nil {
		return
	}
	obj.config.Logf(format, v...)
}

func (obj *Runtime) maxNesting() int {
	if obj.config.MaxNesting <= 0 {
		return DefaultMaxNesting
	}
	return obj.config.MaxNesting
}

// AllowEvaluation returns true if user functions may run.
func (obj *Runtime) AllowEvaluation() bool { return obj.config.AllowEvaluation }

// Register compiles a definition, unless it already was. The body must be a
// single function expression.
func (obj *Runtime) Register(def *types.Definition) error {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()

	if _, exists := obj.cache[def]; exists {
		return nil
	}
	chunk, err := parse.Parse(strings.NewReader("return "+def.Body), def.Name)
	if err != nil {
		return errwrap.Wrapf(err, "could not parse %s", def.Name)
	}
	proto, err := lua.Compile(chunk, def.Name)
	if err != nil {
		return errwrap.Wrapf(err, "could not compile %s", def.Name)
	}
	obj.logf("registered %s", def.Name)
	obj.cache[def] = proto
	return nil
}

// Registered returns true if a definition was already compiled.
func (obj *Runtime) Registered(def *types.Definition) bool {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()
	_, exists := obj.cache[def]
	return exists
}

func (obj *Runtime) proto(def *types.Definition) (*lua.FunctionProto, error) {
	if err := obj.Register(def); err != nil {
		return nil, err
	}
	obj.mutex.Lock()
	defer obj.mutex.Unlock()
	return obj.cache[def], nil
}

// call is the state of a single evaluation.
type call struct {
	runtime *Runtime
	ctx     context.Context
	L       *lua.LState
	tfctx   *funcs.Context
	name    string

	userdata map[*Value]*lua.LUserData
	messages []string
}

// newState returns an interpreter with only the safe parts of the standard
// library loaded.
func newState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module", "collectgarbage", "getfenv", "setfenv", "newproxy", "_printregs"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

func (obj *call) print(L *lua.LState) int {
	parts := []string{}
	for i := 1; i <= L.GetTop(); i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	msg := strings.Join(parts, "\t")
	obj.runtime.logf("%s: %s", obj.name, msg)
	obj.messages = append(obj.messages, msg)
	return 0
}

// binding is something in scope of the callee.
type binding struct {
	name  string
	depth int
	fn    *types.Definition
	alias *types.TypeAlias
}

func bindings(fn *types.UserFunction) []binding {
	out := []binding{}
	for name, f := range fn.Functions {
		out = append(out, binding{name: name, depth: f.Depth, fn: f.Definition})
	}
	for name, a := range fn.Aliases {
		out = append(out, binding{name: name, depth: a.Depth, alias: a.Alias})
	}
	// deeper scopes shadow outer ones
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].depth != out[j].depth {
			return out[i].depth < out[j].depth
		}
		return out[i].name < out[j].name
	})
	return out
}

// environment fills the globals of the interpreter.
func (obj *call) environment(fn *types.UserFunction) error {
	obj.openLibrary()
	obj.L.SetGlobal("print", obj.L.NewFunction(obj.print))

	for _, b := range bindings(fn) {
		switch {
		case b.fn != nil:
			proto, err := obj.runtime.proto(b.fn)
			if err != nil {
				return err
			}
			obj.L.Push(obj.L.NewFunctionFromProto(proto))
			if err := obj.L.PCall(0, 1, nil); err != nil {
				return errwrap.Wrapf(err, "could not load %s", b.name)
			}
			obj.L.SetGlobal(b.name, obj.L.Get(-1))
			obj.L.Pop(1)

		case b.alias != nil && b.alias.Simple():
			v, err := Serialize(b.alias.Type)
			if err != nil {
				return errwrap.Wrapf(err, "could not serialize alias %s", b.name)
			}
			obj.L.SetGlobal(b.name, obj.push(v))

		case b.alias != nil:
			obj.L.SetGlobal(b.name, obj.L.NewFunction(obj.aliasProxy(b.name, b.alias)))
		}
	}
	return nil
}

// aliasProxy returns a function that applies a parameterized alias to its
// arguments and reduces the result.
func (obj *call) aliasProxy(name string, alias *types.TypeAlias) lua.LGFunction {
	required := 0
	for _, p := range alias.TypeParams {
		if !p.Default.Valid() {
			required++
		}
	}
	for _, p := range alias.PackParams {
		if !p.Default.Valid() {
			required++
		}
	}
	total := len(alias.TypeParams) + len(alias.PackParams)

	return func(L *lua.LState) int {
		n := L.GetTop()
		if n < required || n > total {
			if required == total {
				L.RaiseError("'%s' type alias expects %d arguments, but %d are specified", name, total, n)
			} else {
				L.RaiseError("'%s' type alias expects %d to %d arguments, but %d are specified", name, required, total, n)
			}
			return 0
		}

		d := newDeserializer(obj.tfctx.Arena, obj.tfctx.Builtins)
		sub := types.NewSubstitution(obj.tfctx.Arena)
		for i, p := range alias.TypeParams {
			arg := sub.Type(p.Default)
			if i < n {
				ty, err := d.typ(obj.check(i + 1))
				if err != nil {
					L.RaiseError("'%s' type alias: %s", name, err.Error())
					return 0
				}
				arg = ty
			}
			sub.Types[types.Follow(p.Ty)] = arg
		}
		for j, p := range alias.PackParams {
			i := len(alias.TypeParams) + j
			arg := sub.Pack(p.Default)
			if i < n {
				tp, err := d.pack(obj.packFrom(i+1, L.Get(i+1)))
				if err != nil {
					L.RaiseError("'%s' type alias: %s", name, err.Error())
					return 0
				}
				arg = tp
			}
			sub.Packs[types.FollowPack(p.Tp)] = arg
		}
		ty := sub.Type(alias.Type)

		// an alias whose body calls back into it never bottoms out
		if obj.tfctx.Nesting >= obj.runtime.maxNesting() {
			L.RaiseError("'%s' type alias: nested more than %d times", name, obj.runtime.maxNesting())
			return 0
		}

		// this reduction is asked for by the user, so it may nest
		nested := *obj.tfctx
		nested.Session = nil
		nested.Nesting++
		run := nested.Nested
		if run == nil {
			run = reduce.New(nil).Nested
		}
		messages, err := run(obj.ctx, ty, obj.tfctx.Location, &nested)
		for _, diag := range messages {
			obj.messages = append(obj.messages, diag.Err.Error())
		}
		if err != nil {
			L.RaiseError("'%s' type alias: %s", name, errwrap.String(err))
			return 0
		}

		v, err := Serialize(ty)
		if err != nil {
			L.RaiseError("'%s' type alias: %s", name, err.Error())
			return 0
		}
		L.Push(obj.push(v))
		return 1
	}
}

// luaMessage strips the stack trace from an interpreter error.
func luaMessage(err error) string {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil {
		return apiErr.Object.String()
	}
	return err.Error()
}

// Evaluate runs a user function on some arguments.
func (obj *Runtime) Evaluate(ctx context.Context, tfctx *funcs.Context, instance types.TypeID, fn *types.UserFunction, typeArgs []types.TypeID) funcs.Reduction {
	if obj.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, obj.config.Timeout)
		defer cancel()
	}

	L := newState()
	defer L.Close()
	L.SetContext(ctx)

	c := &call{
		runtime:  obj,
		ctx:      ctx,
		L:        L,
		tfctx:    tfctx,
		name:     fn.Name,
		userdata: make(map[*Value]*lua.LUserData),
		messages: []string{},
	}
	fail := func(format string, v ...interface{}) funcs.Reduction {
		msg := fmt.Sprintf(format, v...)
		obj.logf("%s", msg)
		return funcs.Reduction{
			Status:   funcs.Erroneous,
			Error:    msg,
			Messages: c.messages,
		}
	}

	if err := c.environment(fn); err != nil {
		return fail("'%s' type function errored at runtime: %s", fn.Name, luaMessage(err))
	}
	callee, ok := L.GetGlobal(fn.Name).(*lua.LFunction)
	if !ok {
		return fail("'%s' type function: could not find the function", fn.Name)
	}

	args := []lua.LValue{}
	for _, arg := range typeArgs {
		v, err := Serialize(arg)
		if err != nil {
			return fail("'%s' type function: %s", fn.Name, err.Error())
		}
		args = append(args, c.push(v))
	}

	err := L.CallByParam(lua.P{Fn: callee, NRet: 1, Protect: true}, args...)
	if err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return fail("'%s' type function errored: timed out", fn.Name)
		case errors.Is(ctx.Err(), context.Canceled):
			return fail("'%s' type function errored: cancelled", fn.Name)
		}
		return fail("'%s' type function errored at runtime: %s", fn.Name, luaMessage(err))
	}
	ret := L.Get(-1)
	L.Pop(1)

	v, ok := toValue(ret)
	if !ok {
		return fail("'%s' type function: returned a non-type value", fn.Name)
	}
	ty, err := Deserialize(tfctx.Arena, tfctx.Builtins, v)
	if err != nil {
		return fail("'%s' type function: %s", fn.Name, err.Error())
	}
	return funcs.Reduction{
		Result:   ty,
		Status:   funcs.MaybeOk,
		Messages: c.messages,
	}
}
