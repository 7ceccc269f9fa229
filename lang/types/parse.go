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

package types

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/purpleidea/typefunc/util"
)

const (
	// ErrParse is wrapped by every error returned from Parser.Parse.
	ErrParse = util.Error("could not parse type")
)

// Parser builds type nodes from type expressions such as
// `add<number, { x: string }>` or `<T>(T, ...number) -> T?`. It is used by
// fixtures and tests to build graphs without spelling out every node.
//
// Identifiers resolve, in order, to generics of an enclosing function type,
// entries of Names, and builtin type names. The keywords `free`, `blocked`
// and `pending` allocate a fresh node of that kind each time they appear.
type Parser struct {
	Arena    *Arena
	Builtins *Builtins

	// Names maps identifiers to existing nodes.
	Names map[string]TypeID

	// Functions resolves `name<...>` applications to type functions.
	Functions func(name string) (*TypeFunction, bool)

	toks     []token
	pos      int
	generics []map[string]TypeID
	packs    []map[string]PackID
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// Parse parses one type expression.
func (obj *Parser) Parse(s string) (TypeID, error) {
	toks, err := lex(s)
	if err != nil {
		return TypeID{}, err
	}
	obj.toks = toks
	obj.pos = 0
	obj.generics = nil
	obj.packs = nil

	ty, err := obj.parseType()
	if err != nil {
		return TypeID{}, err
	}
	if t := obj.peek(); t.kind != tokEOF {
		return TypeID{}, obj.errorf(t, "unexpected %q after type", t.text)
	}
	return ty, nil
}

func lex(s string) ([]token, error) {
	toks := []token{}
	rs := []rune(s)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '_' || unicode.IsLetter(r):
			j := i
			for j < len(rs) && (rs[j] == '_' || unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j])) {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: string(rs[i:j]), pos: i})
			i = j
		case r == '"' || r == '\'':
			j := i + 1
			for j < len(rs) && rs[j] != r {
				if rs[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(rs) {
				return nil, fmt.Errorf("%w: unterminated string at %d", ErrParse, i)
			}
			raw := string(rs[i+1 : j])
			if r == '\'' {
				raw = strings.ReplaceAll(raw, `"`, `\"`)
				raw = strings.ReplaceAll(raw, `\'`, `'`)
			}
			val, err := strconv.Unquote(`"` + raw + `"`)
			if err != nil {
				return nil, fmt.Errorf("%w: bad string at %d", ErrParse, i)
			}
			toks = append(toks, token{kind: tokString, text: val, pos: i})
			i = j + 1
		case strings.HasPrefix(string(rs[i:]), "->"):
			toks = append(toks, token{kind: tokPunct, text: "->", pos: i})
			i += 2
		case strings.HasPrefix(string(rs[i:]), "..."):
			toks = append(toks, token{kind: tokPunct, text: "...", pos: i})
			i += 3
		case strings.ContainsRune("|&~?(){}[]<>,;:=@", r):
			toks = append(toks, token{kind: tokPunct, text: string(r), pos: i})
			i++
		default:
			return nil, fmt.Errorf("%w: unexpected character %q at %d", ErrParse, r, i)
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(rs)})
	return toks, nil
}

func (obj *Parser) errorf(t token, format string, args ...interface{}) error {
	return fmt.Errorf("%w: at %d: %s", ErrParse, t.pos, fmt.Sprintf(format, args...))
}

func (obj *Parser) peek() token { return obj.toks[obj.pos] }

func (obj *Parser) peekN(n int) token {
	if obj.pos+n >= len(obj.toks) {
		return obj.toks[len(obj.toks)-1]
	}
	return obj.toks[obj.pos+n]
}

func (obj *Parser) next() token {
	t := obj.toks[obj.pos]
	if t.kind != tokEOF {
		obj.pos++
	}
	return t
}

func (obj *Parser) is(text string) bool {
	t := obj.peek()
	return t.kind == tokPunct && t.text == text
}

func (obj *Parser) accept(text string) bool {
	if obj.is(text) {
		obj.next()
		return true
	}
	return false
}

func (obj *Parser) expect(text string) error {
	if t := obj.peek(); !obj.accept(text) {
		return obj.errorf(t, "expected %q, got %q", text, t.text)
	}
	return nil
}

func (obj *Parser) parseType() (TypeID, error) {
	first, err := obj.parseIntersection()
	if err != nil {
		return TypeID{}, err
	}
	options := []TypeID{first}
	for obj.accept("|") {
		ty, err := obj.parseIntersection()
		if err != nil {
			return TypeID{}, err
		}
		options = append(options, ty)
	}
	if len(options) == 1 {
		return first, nil
	}
	return obj.Arena.AddType(&Union{Options: options}), nil
}

func (obj *Parser) parseIntersection() (TypeID, error) {
	first, err := obj.parseUnary()
	if err != nil {
		return TypeID{}, err
	}
	parts := []TypeID{first}
	for obj.accept("&") {
		ty, err := obj.parseUnary()
		if err != nil {
			return TypeID{}, err
		}
		parts = append(parts, ty)
	}
	if len(parts) == 1 {
		return first, nil
	}
	return obj.Arena.AddType(&Intersection{Parts: parts}), nil
}

func (obj *Parser) parseUnary() (TypeID, error) {
	if obj.accept("~") {
		ty, err := obj.parseUnary()
		if err != nil {
			return TypeID{}, err
		}
		return obj.Arena.AddType(&Negation{Ty: ty}), nil
	}
	ty, err := obj.parsePrimary()
	if err != nil {
		return TypeID{}, err
	}
	for obj.accept("?") {
		ty = obj.Arena.AddType(&Union{Options: []TypeID{ty, obj.Builtins.Nil}})
	}
	return ty, nil
}

func (obj *Parser) parsePrimary() (TypeID, error) {
	t := obj.peek()
	switch {
	case t.kind == tokString:
		obj.next()
		return obj.Arena.AddType(&StringSingleton{Value: t.text}), nil

	case t.kind == tokIdent:
		return obj.parseName()

	case obj.is("("):
		return obj.parseParenOrFunction(nil, nil)

	case obj.is("<"):
		return obj.parseGenericFunction()

	case obj.is("{"):
		return obj.parseTable()
	}
	return TypeID{}, obj.errorf(t, "unexpected %q", t.text)
}

func (obj *Parser) lookupGeneric(name string) (TypeID, bool) {
	for i := len(obj.generics) - 1; i >= 0; i-- {
		if g, exists := obj.generics[i][name]; exists {
			return g, true
		}
	}
	return TypeID{}, false
}

func (obj *Parser) lookupGenericPack(name string) (PackID, bool) {
	for i := len(obj.packs) - 1; i >= 0; i-- {
		if g, exists := obj.packs[i][name]; exists {
			return g, true
		}
	}
	return PackID{}, false
}

func (obj *Parser) builtin(name string) (TypeID, bool) {
	b := obj.Builtins
	m := map[string]TypeID{
		"nil":      b.Nil,
		"boolean":  b.Boolean,
		"number":   b.Number,
		"string":   b.String,
		"thread":   b.Thread,
		"buffer":   b.Buffer,
		"function": b.Function,
		"table":    b.Table,
		"true":     b.True,
		"false":    b.False,
		"any":      b.Any,
		"unknown":  b.Unknown,
		"never":    b.Never,
		"error":    b.Error,
		"norefine": b.NoRefine,
	}
	ty, exists := m[name]
	return ty, exists
}

func (obj *Parser) parseName() (TypeID, error) {
	t := obj.next()
	name := t.text

	if obj.is("<") {
		if obj.Functions != nil {
			if fn, ok := obj.Functions(name); ok {
				return obj.parseInstance(fn)
			}
		}
		return TypeID{}, obj.errorf(t, "unknown type function %q", name)
	}

	if g, ok := obj.lookupGeneric(name); ok {
		return g, nil
	}
	if ty, exists := obj.Names[name]; exists {
		return ty, nil
	}
	switch name {
	case "free":
		return obj.Arena.AddType(&Free{}), nil
	case "blocked":
		return obj.Arena.AddType(&Blocked{}), nil
	case "pending":
		return obj.Arena.AddType(&PendingExpansion{Name: "pending"}), nil
	}
	if ty, ok := obj.builtin(name); ok {
		return ty, nil
	}
	return TypeID{}, obj.errorf(t, "unknown type %q", name)
}

func (obj *Parser) parseInstance(fn *TypeFunction) (TypeID, error) {
	if err := obj.expect("<"); err != nil {
		return TypeID{}, err
	}
	args := []TypeID{}
	if !obj.is(">") {
		for {
			ty, err := obj.parseType()
			if err != nil {
				return TypeID{}, err
			}
			args = append(args, ty)
			if !obj.accept(",") {
				break
			}
		}
	}
	if err := obj.expect(">"); err != nil {
		return TypeID{}, err
	}
	return obj.Arena.AddType(&FunctionInstance{Function: fn, TypeArgs: args}), nil
}

func (obj *Parser) parseGenericFunction() (TypeID, error) {
	if err := obj.expect("<"); err != nil {
		return TypeID{}, err
	}
	scope := make(map[string]TypeID)
	packScope := make(map[string]PackID)
	generics := []TypeID{}
	genericPacks := []PackID{}
	for {
		t := obj.next()
		if t.kind != tokIdent {
			return TypeID{}, obj.errorf(t, "expected generic name, got %q", t.text)
		}
		if obj.accept("...") {
			tp := obj.Arena.AddPack(&GenericPack{Name: t.text})
			packScope[t.text] = tp
			genericPacks = append(genericPacks, tp)
		} else {
			g := obj.Arena.AddType(&Generic{Name: t.text})
			scope[t.text] = g
			generics = append(generics, g)
		}
		if !obj.accept(",") {
			break
		}
	}
	if err := obj.expect(">"); err != nil {
		return TypeID{}, err
	}
	obj.generics = append(obj.generics, scope)
	obj.packs = append(obj.packs, packScope)
	defer func() {
		obj.generics = obj.generics[:len(obj.generics)-1]
		obj.packs = obj.packs[:len(obj.packs)-1]
	}()

	if !obj.is("(") {
		return TypeID{}, obj.errorf(obj.peek(), "expected function parameters")
	}
	return obj.parseParenOrFunction(generics, genericPacks)
}

// parseList parses `(a, b, ...c)` and returns the resulting pack. single is
// set if the list was exactly one plain type.
func (obj *Parser) parseList() (PackID, TypeID, bool, error) {
	if err := obj.expect("("); err != nil {
		return PackID{}, TypeID{}, false, err
	}
	head := []TypeID{}
	var tail PackID
	if !obj.is(")") {
		for {
			if obj.accept("...") {
				ty, err := obj.parseType()
				if err != nil {
					return PackID{}, TypeID{}, false, err
				}
				tail = obj.Arena.AddPack(&VariadicPack{Ty: ty})
				break
			}
			if t := obj.peek(); t.kind == tokIdent && obj.peekN(1).kind == tokPunct && obj.peekN(1).text == "..." {
				if tp, ok := obj.lookupGenericPack(t.text); ok {
					obj.next()
					obj.next()
					tail = tp
					break
				}
			}
			ty, err := obj.parseType()
			if err != nil {
				return PackID{}, TypeID{}, false, err
			}
			head = append(head, ty)
			if !obj.accept(",") {
				break
			}
		}
	}
	if err := obj.expect(")"); err != nil {
		return PackID{}, TypeID{}, false, err
	}
	single := len(head) == 1 && !tail.Valid()
	var first TypeID
	if single {
		first = head[0]
	}
	return obj.Arena.AddPack(&TypePack{Head: head, Tail: tail}), first, single, nil
}

func (obj *Parser) parseParenOrFunction(generics []TypeID, genericPacks []PackID) (TypeID, error) {
	start := obj.peek()
	args, first, single, err := obj.parseList()
	if err != nil {
		return TypeID{}, err
	}
	if !obj.accept("->") {
		if generics != nil || genericPacks != nil || !single {
			return TypeID{}, obj.errorf(start, "expected a function type")
		}
		return first, nil
	}

	var rets PackID
	if obj.is("(") {
		save := obj.pos
		pack, _, _, err := obj.parseList()
		if err != nil {
			return TypeID{}, err
		}
		if obj.is("->") { // the return type is itself a function
			obj.pos = save
			ty, err := obj.parseType()
			if err != nil {
				return TypeID{}, err
			}
			rets = obj.Arena.NewPack(ty)
		} else {
			rets = pack
		}
	} else {
		ty, err := obj.parseType()
		if err != nil {
			return TypeID{}, err
		}
		rets = obj.Arena.NewPack(ty)
	}
	return obj.Arena.AddType(&Function{
		Generics:     generics,
		GenericPacks: genericPacks,
		Args:         args,
		Rets:         rets,
	}), nil
}

func (obj *Parser) parseTable() (TypeID, error) {
	if err := obj.expect("{"); err != nil {
		return TypeID{}, err
	}
	if obj.is("@") {
		obj.next()
		if t := obj.next(); t.kind != tokIdent || t.text != "metatable" {
			return TypeID{}, obj.errorf(t, "expected @metatable")
		}
		mt, err := obj.parseType()
		if err != nil {
			return TypeID{}, err
		}
		if err := obj.expect(","); err != nil {
			return TypeID{}, err
		}
		tbl, err := obj.parseType()
		if err != nil {
			return TypeID{}, err
		}
		if err := obj.expect("}"); err != nil {
			return TypeID{}, err
		}
		return obj.Arena.AddType(&Metatable{Table: tbl, Metatable: mt}), nil
	}

	tbl := &Table{Props: make(map[string]Property)}
	for !obj.is("}") {
		if obj.accept("[") {
			t := obj.peek()
			var key TypeID
			if t.kind == tokString && obj.peekN(1).text == "]" { // ["name"]: T
				obj.next()
				obj.next()
				if err := obj.expect(":"); err != nil {
					return TypeID{}, err
				}
				val, err := obj.parseType()
				if err != nil {
					return TypeID{}, err
				}
				tbl.Props[t.text] = NewProperty(val)
			} else {
				var err error
				if key, err = obj.parseType(); err != nil {
					return TypeID{}, err
				}
				if err := obj.expect("]"); err != nil {
					return TypeID{}, err
				}
				if err := obj.expect(":"); err != nil {
					return TypeID{}, err
				}
				val, err := obj.parseType()
				if err != nil {
					return TypeID{}, err
				}
				tbl.Indexer = &Indexer{Key: key, Value: val}
			}
		} else {
			mode := ""
			t := obj.next()
			if (t.text == "read" || t.text == "write") && t.kind == tokIdent && obj.peek().kind == tokIdent {
				mode = t.text
				t = obj.next()
			}
			if t.kind != tokIdent && t.kind != tokString {
				return TypeID{}, obj.errorf(t, "expected property name, got %q", t.text)
			}
			if err := obj.expect(":"); err != nil {
				return TypeID{}, err
			}
			val, err := obj.parseType()
			if err != nil {
				return TypeID{}, err
			}
			prop := tbl.Props[t.text]
			switch mode {
			case "read":
				prop.Read = val
			case "write":
				prop.Write = val
			default:
				prop = NewProperty(val)
			}
			tbl.Props[t.text] = prop
		}
		if !obj.accept(",") && !obj.accept(";") {
			break
		}
	}
	if err := obj.expect("}"); err != nil {
		return TypeID{}, err
	}
	return obj.Arena.AddType(tbl), nil
}

var keywords = map[string]struct{}{
	"and": {}, "break": {}, "do": {}, "else": {}, "elseif": {}, "end": {},
	"false": {}, "for": {}, "function": {}, "if": {}, "in": {}, "local": {},
	"nil": {}, "not": {}, "or": {}, "repeat": {}, "return": {}, "then": {},
	"true": {}, "until": {}, "while": {},
}

func isKeyword(s string) bool {
	_, exists := keywords[s]
	return exists
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}
