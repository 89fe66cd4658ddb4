// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

// Package tree holds the nested mapping structure produced by the ATF parser.
//
// A parse never produces a dedicated AST. Every reduction yields one of three
// node shapes: a Scalar, a List of nodes, or a Map from string keys to nodes.
// The Document returned by a parse is a Map whose top-level keys are the
// statement kinds found in the file ("files", "include", "applelem",
// "instelem").
package tree

import (
	"strconv"
)

// Node is the sum type of all parse tree values. The only implementations
// are *Scalar, *List, and *Map.
type Node interface {
	node()
}

type ScalarType uint8

const (
	ScalarNull ScalarType = iota
	ScalarString
	ScalarIdentifier
	ScalarInteger
	ScalarFloat
	ScalarBool
)

func (t ScalarType) String() string {
	switch t {
	case ScalarNull:
		return "null"
	case ScalarString:
		return "string"
	case ScalarIdentifier:
		return "identifier"
	case ScalarInteger:
		return "integer"
	case ScalarFloat:
		return "float"
	case ScalarBool:
		return "bool"
	default:
		return "scalar-" + strconv.Itoa(int(t))
	}
}

// Scalar is a leaf value. Only the field matching Type is meaningful.
type Scalar struct {
	Type  ScalarType
	Str   string
	Int   int64
	Float float64
	Bool  bool
}

func (*Scalar) node() {}

// Text renders the scalar the way it is used as a mapping key.
func (s *Scalar) Text() string {
	switch s.Type {
	case ScalarString, ScalarIdentifier:
		return s.Str
	case ScalarInteger:
		return strconv.FormatInt(s.Int, 10)
	case ScalarFloat:
		return strconv.FormatFloat(s.Float, 'g', -1, 64)
	case ScalarBool:
		if s.Bool {
			return "TRUE"
		}
		return "FALSE"
	default:
		return "UNDEFINED"
	}
}

func Null() *Scalar {
	return &Scalar{Type: ScalarNull}
}

func String(v string) *Scalar {
	return &Scalar{Type: ScalarString, Str: v}
}

// Identifier wraps identifiers and keyword text such as DT_LONG or BASEATTR.
func Identifier(v string) *Scalar {
	return &Scalar{Type: ScalarIdentifier, Str: v}
}

func Integer(v int64) *Scalar {
	return &Scalar{Type: ScalarInteger, Int: v}
}

func Float(v float64) *Scalar {
	return &Scalar{Type: ScalarFloat, Float: v}
}

func Bool(v bool) *Scalar {
	return &Scalar{Type: ScalarBool, Bool: v}
}

// List is an ordered sequence. It stands in for both lists and fixed-size
// tuples such as the (name, base, attributes) triple of an application
// element.
type List struct {
	Items []Node
}

func (*List) node() {}

func NewList(items ...Node) *List {
	return &List{Items: items}
}

func (l *List) Len() int {
	return len(l.Items)
}

func (l *List) Append(items ...Node) {
	l.Items = append(l.Items, items...)
}

// Header is the ATF_FILE envelope of a parsed file.
type Header struct {
	Keyword string
	Label   string
	Version string
}

// Result is the value returned by a complete parse.
type Result struct {
	Header   Header
	Document *Map
}

// KeyOf returns the mapping key used to index an instance element by its Id
// value. Scalars use their text. A (datatype, value) pair uses the key of its
// value. Anything else has no key.
func KeyOf(n Node) (string, bool) {
	switch v := n.(type) {
	case *Scalar:
		return v.Text(), true
	case *List:
		if len(v.Items) == 2 {
			if dt, ok := v.Items[0].(*Scalar); ok && dt.Type == ScalarIdentifier {
				if _, ok := v.Items[1].(*Scalar); ok {
					return KeyOf(v.Items[1])
				}
			}
		}
		return "", false
	default:
		return "", false
	}
}
