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
)

type printer struct {
	active map[TypeID]struct{}
}

// ToString returns a human readable representation of a type. A node that is
// reached again while it is still being printed is shown as *CYCLE*.
func ToString(id TypeID) string {
	p := &printer{active: make(map[TypeID]struct{})}
	return p.typ(id)
}

// PackString returns a human readable representation of a pack.
func PackString(id PackID) string {
	p := &printer{active: make(map[TypeID]struct{})}
	return p.pack(id, true)
}

func (obj *printer) typ(id TypeID) string {
	if !id.Valid() {
		return "<nil>"
	}
	id = Follow(id)
	if _, exists := obj.active[id]; exists {
		return "*CYCLE*"
	}
	obj.active[id] = struct{}{}
	defer delete(obj.active, id)

	switch t := id.Node().(type) {
	case *Primitive:
		return t.Kind.String()
	case *StringSingleton:
		return strconv.Quote(t.Value)
	case *BooleanSingleton:
		return strconv.FormatBool(t.Value)
	case *Any:
		return "any"
	case *Unknown:
		return "unknown"
	case *Never:
		return "never"
	case *ErrorType:
		return "*error-type*"
	case *NoRefine:
		return "*no-refine*"
	case *Free:
		return fmt.Sprintf("'t%d", id.index)
	case *Generic:
		return t.Name
	case *Blocked:
		return fmt.Sprintf("*blocked-%d*", id.index)
	case *PendingExpansion:
		return fmt.Sprintf("*pending-expansion-%s*", t.Name)
	case *Union:
		return obj.join(t.Options, " | ")
	case *Intersection:
		return obj.join(t.Parts, " & ")
	case *Negation:
		return "~" + obj.wrapped(t.Ty)
	case *Table:
		return obj.table(t.Props, t.Indexer)
	case *Metatable:
		return fmt.Sprintf("{ @metatable %s, %s }", obj.typ(t.Metatable), obj.typ(t.Table))
	case *Extern:
		return t.Name
	case *Function:
		return obj.function(t)
	case *FunctionInstance:
		name := t.Function.Name
		if t.User != nil && t.User.Name != "" {
			name = t.User.Name
		}
		return name + "<" + obj.args(t.TypeArgs, t.PackArgs) + ">"
	}
	return "<invalid>"
}

// wrapped prints a type, adding parens if it would be ambiguous as an operand.
func (obj *printer) wrapped(id TypeID) string {
	s := obj.typ(id)
	switch Follow(id).Node().(type) {
	case *Union, *Intersection, *Function:
		return "(" + s + ")"
	}
	return s
}

func (obj *printer) join(ids []TypeID, sep string) string {
	parts := []string{}
	for _, x := range ids {
		parts = append(parts, obj.wrapped(x))
	}
	return strings.Join(parts, sep)
}

func (obj *printer) args(tys []TypeID, tps []PackID) string {
	parts := []string{}
	for _, x := range tys {
		parts = append(parts, obj.typ(x))
	}
	for _, x := range tps {
		parts = append(parts, obj.pack(x, true))
	}
	return strings.Join(parts, ", ")
}

func propName(name string) string {
	if isIdent(name) && !isKeyword(name) {
		return name
	}
	return "[" + strconv.Quote(name) + "]"
}

func (obj *printer) table(props map[string]Property, indexer *Indexer) string {
	parts := []string{}
	for _, k := range sortedKeys(props) {
		p := props[k]
		name := propName(k)
		switch {
		case p.Read.Valid() && p.Write.Valid() && Follow(p.Read) == Follow(p.Write):
			parts = append(parts, name+": "+obj.typ(p.Read))
		default:
			if p.Read.Valid() {
				parts = append(parts, "read "+name+": "+obj.typ(p.Read))
			}
			if p.Write.Valid() {
				parts = append(parts, "write "+name+": "+obj.typ(p.Write))
			}
		}
	}
	if indexer != nil {
		parts = append(parts, "["+obj.typ(indexer.Key)+"]: "+obj.typ(indexer.Value))
	}
	if len(parts) == 0 {
		return "{}"
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

func (obj *printer) function(t *Function) string {
	s := ""
	if len(t.Generics) > 0 || len(t.GenericPacks) > 0 {
		names := []string{}
		for _, g := range t.Generics {
			names = append(names, obj.typ(g))
		}
		for _, g := range t.GenericPacks {
			names = append(names, obj.pack(g, false))
		}
		s = "<" + strings.Join(names, ", ") + ">"
	}
	s += "(" + obj.pack(t.Args, false) + ") -> "

	head, tail := Flatten(t.Rets)
	if len(head) == 1 && !tail.Valid() {
		return s + obj.wrapped(head[0])
	}
	return s + "(" + obj.pack(t.Rets, false) + ")"
}

// pack prints the contents of a pack. If parens is true, finite lists are
// wrapped in parens.
func (obj *printer) pack(id PackID, parens bool) string {
	if !id.Valid() {
		return "<nil>"
	}
	head, tail := Flatten(id)
	parts := []string{}
	for _, x := range head {
		parts = append(parts, obj.typ(x))
	}
	if tail.Valid() {
		switch p := tail.Node().(type) {
		case *VariadicPack:
			parts = append(parts, "..."+obj.wrapped(p.Ty))
		case *GenericPack:
			parts = append(parts, p.Name+"...")
		case *FreePack:
			parts = append(parts, fmt.Sprintf("'p%d...", tail.index))
		case *BlockedPack:
			parts = append(parts, fmt.Sprintf("*blocked-tp-%d*", tail.index))
		case *ErrorPack:
			parts = append(parts, "...*error-type*")
		case *FunctionInstancePack:
			parts = append(parts, p.Function.Name+"<"+obj.args(p.TypeArgs, p.PackArgs)+">")
		}
	}
	s := strings.Join(parts, ", ")
	if parens && !(len(head) == 0 && tail.Valid()) {
		return "(" + s + ")"
	}
	return s
}
