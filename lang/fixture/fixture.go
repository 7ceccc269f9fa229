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

// Package fixture loads type graphs from YAML, so that reductions can be run
// and checked without a type checker in front of the engine. A fixture looks
// like this:
//
//	config:
//	  guesser-depth: 2
//	functions:
//	  keys: "function(t) return t end"
//	types:
//	  - name: A
//	    type: add<number, B>
//	  - name: B
//	    type: blocked
//	  - name: C
//	    user: keys
//	    args: [A]
//	entry: C
//
// Every name can be used by every type expression, in any order, so cycles
// are easy to write.
package fixture

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/purpleidea/typefunc/lang/funcs"
	"github.com/purpleidea/typefunc/lang/interfaces"
	"github.com/purpleidea/typefunc/lang/reduce"
	"github.com/purpleidea/typefunc/lang/runtime"
	"github.com/purpleidea/typefunc/lang/types"
	"github.com/purpleidea/typefunc/util"
	"github.com/purpleidea/typefunc/util/errwrap"

	"gopkg.in/yaml.v2"
)

const (
	// ErrNoEntry is returned when a fixture has nothing to reduce.
	ErrNoEntry = util.Error("fixture has no entry")

	// ErrUnknownName is returned for a reference to an undeclared name.
	ErrUnknownName = util.Error("unknown name")
)

// document is the on disk shape of a fixture.
type document struct {
	Config    interface{}       `yaml:"config"`
	Runtime   *runtime.Config   `yaml:"runtime"`
	Force     bool              `yaml:"force"`
	Line      int               `yaml:"line"`
	Column    int               `yaml:"column"`
	Generics  []string          `yaml:"generics"`
	Functions map[string]string `yaml:"functions"`
	Aliases   map[string]*alias `yaml:"aliases"`
	Types     []*entry          `yaml:"types"`
	Entry     string            `yaml:"entry"`
	EntryPack []string          `yaml:"entry-pack"`
}

type alias struct {
	Params   []string          `yaml:"params"`
	Defaults map[string]string `yaml:"defaults"`
	Type     string            `yaml:"type"`
}

type entry struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`

	// User and Args build an instance of a user function, which has no
	// expression syntax.
	User string   `yaml:"user"`
	Args []string `yaml:"args"`
}

// Fixture is a loaded type graph, ready to be reduced.
type Fixture struct {
	Arena    *types.Arena
	Builtins *types.Builtins

	// Context is the reduction context, with the reference oracles, a
	// recording internal error reporter and a runtime if any user
	// functions were declared.
	Context *funcs.Context

	Config *reduce.Config
	Force  bool

	// Runtime is the configuration of the user function runtime. It is nil
	// if the fixture declares no functions and no runtime.
	Runtime *runtime.Config

	Location types.Location

	// Entry is the type to reduce. If EntryPack is valid, it is reduced
	// instead.
	Entry     types.TypeID
	EntryPack types.PackID

	// Names are the declared types, in declaration order.
	Names []string
	Types map[string]types.TypeID

	// ICE collects internal errors instead of panicking.
	ICE *interfaces.RecordingReporter

	// labels maps the original nodes of the declared names back to them.
	labels map[types.TypeID]string
}

// LoadFile reads and loads a fixture from disk.
func LoadFile(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errwrap.Wrapf(err, "could not read fixture")
	}
	return Load(data)
}

// Load builds a fixture from its YAML representation.
func Load(data []byte) (*Fixture, error) {
	doc := &document{}
	if err := yaml.UnmarshalStrict(data, doc); err != nil {
		return nil, errwrap.Wrapf(err, "could not parse fixture")
	}

	config := reduce.DefaultConfig()
	if doc.Config != nil {
		b, err := yaml.Marshal(doc.Config)
		if err != nil {
			return nil, errwrap.Wrapf(err, "could not read config")
		}
		if config, err = reduce.ParseConfig(b); err != nil {
			return nil, err
		}
	}

	arena := types.NewArena("fixture")
	b := types.NewBuiltins()
	tfctx := reduce.NewContext(arena, b)
	ice := &interfaces.RecordingReporter{}
	tfctx.ICE = ice

	obj := &Fixture{
		Arena:    arena,
		Builtins: b,
		Context:  tfctx,
		Config:   config,
		Force:    doc.Force,
		Location: types.Location{Line: doc.Line, Column: doc.Column},
		Names:    []string{},
		Types:    make(map[string]types.TypeID),
		ICE:      ice,
		labels:   make(map[types.TypeID]string),
	}
	if doc.Runtime == nil && len(doc.Functions) > 0 {
		doc.Runtime = &runtime.Config{AllowEvaluation: true}
	}
	if doc.Runtime != nil {
		obj.Runtime = doc.Runtime
		tfctx.Runtime = runtime.New(doc.Runtime)
	}

	p := &types.Parser{
		Arena:     arena,
		Builtins:  b,
		Names:     make(map[string]types.TypeID),
		Functions: funcs.LookupFunc,
	}
	for _, name := range doc.Generics {
		if _, exists := p.Names[name]; exists {
			return nil, fmt.Errorf("duplicate name: %s", name)
		}
		p.Names[name] = arena.AddType(&types.Generic{Name: name})
	}

	// every name is a placeholder until its expression is parsed
	for _, e := range doc.Types {
		if e == nil || e.Name == "" {
			return nil, fmt.Errorf("a type has no name")
		}
		if _, exists := p.Names[e.Name]; exists {
			return nil, fmt.Errorf("duplicate name: %s", e.Name)
		}
		p.Names[e.Name] = arena.AddType(&types.Free{})
		obj.Names = append(obj.Names, e.Name)
		obj.Types[e.Name] = p.Names[e.Name]
	}

	aliases, err := obj.aliases(p, doc.Aliases)
	if err != nil {
		return nil, err
	}
	user := userScope(doc.Functions, aliases)

	var reterr error
	for _, e := range doc.Types {
		ty, err := obj.build(p, e, user)
		if err != nil {
			reterr = errwrap.Append(reterr, errwrap.Wrapf(err, "type %s", e.Name))
			continue
		}
		if err := arena.Bind(obj.Types[e.Name], ty); err != nil {
			reterr = errwrap.Append(reterr, errwrap.Wrapf(err, "type %s", e.Name))
		}
	}
	if reterr != nil {
		return nil, reterr
	}
	for _, name := range obj.Names {
		id := types.Follow(obj.Types[name])
		if _, exists := obj.labels[id]; !exists {
			obj.labels[id] = name
		}
	}

	switch {
	case len(doc.EntryPack) > 0:
		head := []types.TypeID{}
		for _, name := range doc.EntryPack {
			ty, exists := obj.Types[name]
			if !exists {
				return nil, errwrap.Wrapf(ErrUnknownName, "entry-pack %s", name)
			}
			head = append(head, ty)
		}
		obj.EntryPack = arena.NewPack(head...)
	case doc.Entry != "":
		ty, exists := obj.Types[doc.Entry]
		if !exists {
			return nil, errwrap.Wrapf(ErrUnknownName, "entry %s", doc.Entry)
		}
		obj.Entry = ty
	default:
		return nil, ErrNoEntry
	}

	return obj, nil
}

// aliases parses the declared aliases. Parameters shadow declared names while
// their alias is parsed.
func (obj *Fixture) aliases(p *types.Parser, docs map[string]*alias) (map[string]*types.TypeAlias, error) {
	result := make(map[string]*types.TypeAlias)
	names := []string{}
	for name := range docs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		a := docs[name]
		if a == nil {
			return nil, fmt.Errorf("alias %s is empty", name)
		}
		saved := make(map[string]types.TypeID)
		ta := &types.TypeAlias{TypeParams: []types.GenericParam{}}
		for _, param := range a.Params {
			if old, exists := p.Names[param]; exists {
				saved[param] = old
			}
			g := obj.Arena.AddType(&types.Generic{Name: param})
			p.Names[param] = g
			ta.TypeParams = append(ta.TypeParams, types.GenericParam{Ty: g})
		}
		var err error
		for i, param := range a.Params {
			expr, exists := a.Defaults[param]
			if !exists {
				continue
			}
			if ta.TypeParams[i].Default, err = p.Parse(expr); err != nil {
				break
			}
		}
		if err == nil {
			ta.Type, err = p.Parse(a.Type)
		}
		for _, param := range a.Params {
			delete(p.Names, param)
		}
		for param, old := range saved {
			p.Names[param] = old
		}
		if err != nil {
			return nil, errwrap.Wrapf(err, "alias %s", name)
		}
		result[name] = ta
	}
	return result, nil
}

// userScope builds the environment that every user instance of the fixture
// shares.
func userScope(functions map[string]string, aliases map[string]*types.TypeAlias) *types.UserFunction {
	scope := &types.UserFunction{
		Owner:     &types.Module{Name: "fixture"},
		Functions: make(map[string]types.EnvFunction),
		Aliases:   make(map[string]types.EnvAlias),
	}
	for name, body := range functions {
		scope.Functions[name] = types.EnvFunction{Definition: &types.Definition{Name: name, Body: body}}
	}
	for name, a := range aliases {
		scope.Aliases[name] = types.EnvAlias{Alias: a}
	}
	return scope
}

// build parses the node of one entry.
func (obj *Fixture) build(p *types.Parser, e *entry, scope *types.UserFunction) (types.TypeID, error) {
	if e.User == "" {
		if e.Type == "" {
			return types.TypeID{}, fmt.Errorf("no type or user function given")
		}
		return p.Parse(e.Type)
	}
	if e.Type != "" {
		return types.TypeID{}, fmt.Errorf("type and user function are exclusive")
	}

	fn, exists := scope.Functions[e.User]
	if !exists {
		return types.TypeID{}, errwrap.Wrapf(ErrUnknownName, "user function %s", e.User)
	}
	args := []types.TypeID{}
	for _, expr := range e.Args {
		ty, err := p.Parse(expr)
		if err != nil {
			return types.TypeID{}, err
		}
		args = append(args, ty)
	}
	return obj.Arena.AddType(&types.FunctionInstance{
		Function: funcs.Builtin(types.FuncUser),
		TypeArgs: args,
		User: &types.UserFunction{
			Name:       e.User,
			Definition: fn.Definition,
			Owner:      scope.Owner,
			Functions:  scope.Functions,
			Aliases:    scope.Aliases,
		},
	}), nil
}

// Run reduces the entry of the fixture.
func (obj *Fixture) Run(ctx context.Context) *reduce.Result {
	engine := reduce.New(obj.Config)
	if obj.EntryPack.Valid() {
		return engine.ReducePack(ctx, obj.EntryPack, obj.Location, obj.Context, obj.Force)
	}
	return engine.ReduceType(ctx, obj.Entry, obj.Location, obj.Context, obj.Force)
}

// label names a node by its declared name if it has one.
func (obj *Fixture) label(id types.TypeID) string {
	if name, exists := obj.labels[id]; exists {
		return name
	}
	return obj.replacer().Replace(types.ToString(id))
}

// replacer swaps the printed form of declared placeholder nodes, which
// depends on allocation order, for their names.
func (obj *Fixture) replacer() *strings.Replacer {
	pairs := []string{}
	for _, name := range obj.Names {
		id := types.Follow(obj.Types[name])
		if types.Is[*types.Blocked](id) || types.Is[*types.Free](id) || types.Is[*types.PendingExpansion](id) {
			pairs = append(pairs, types.ToString(id), name)
		}
	}
	return strings.NewReplacer(pairs...)
}

// Render prints the state of the graph and the result of a run. The output is
// stable, so it can be compared against a golden file.
func (obj *Fixture) Render(result *reduce.Result) string {
	r := obj.replacer()
	str := ""
	for _, name := range obj.Names {
		str += fmt.Sprintf("%s: %s\n", name, r.Replace(types.ToString(obj.Types[name])))
	}
	if obj.EntryPack.Valid() {
		str += fmt.Sprintf("pack: %s\n", r.Replace(types.PackString(obj.EntryPack)))
	}

	str += fmt.Sprintf("reduced: %d types, %d packs\n", len(result.ReducedTypes), len(result.ReducedPacks))
	for _, id := range result.IrreducibleTypes {
		str += fmt.Sprintf("irreducible: %s\n", obj.label(id))
	}
	for _, id := range result.BlockedTypes {
		str += fmt.Sprintf("blocked: %s\n", obj.label(id))
	}
	for _, id := range result.BlockedPacks {
		str += fmt.Sprintf("blocked pack: %s\n", r.Replace(types.PackString(id)))
	}
	for _, d := range result.Errors {
		str += fmt.Sprintf("error: %s\n", r.Replace(d.Error()))
	}
	for _, d := range result.Messages {
		str += fmt.Sprintf("message: %s\n", r.Replace(d.Error()))
	}
	for _, msg := range obj.ICE.Messages {
		str += fmt.Sprintf("ice: %s\n", r.Replace(msg))
	}
	return str
}
