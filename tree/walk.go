package tree

import (
	"fmt"
	"sort"
	"strings"
)

// Walk visits n and every node below it in pre-order. The path holds the map
// keys and list indexes leading to the visited node. Returning false from f
// skips the children of the current node.
func Walk(n Node, f func(path []string, n Node) bool) {
	walk(nil, n, f)
}

func walk(path []string, n Node, f func([]string, Node) bool) {
	if n == nil {
		return
	}
	if !f(path, n) {
		return
	}
	switch v := n.(type) {
	case *List:
		for x, item := range v.Items {
			walk(appendPath(path, fmt.Sprintf("%d", x)), item, f)
		}
	case *Map:
		v.Range(func(k string, item Node) bool {
			walk(appendPath(path, k), item, f)
			return true
		})
	}
}

// Equal compares two trees. Map comparison ignores key order; list
// comparison does not.
func Equal(a Node, b Node) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case *Scalar:
		bv, ok := b.(*Scalar)
		return ok && scalarEqual(av, bv)
	case *List:
		bv, ok := b.(*List)
		if !ok || len(av.Items) != len(bv.Items) {
			return false
		}
		for x := range av.Items {
			if !Equal(av.Items[x], bv.Items[x]) {
				return false
			}
		}
		return true
	case *Map:
		bv, ok := b.(*Map)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		equal := true
		av.Range(func(k string, v Node) bool {
			other, ok := bv.Get(k)
			equal = ok && Equal(v, other)
			return equal
		})
		return equal
	default:
		return false
	}
}

func scalarEqual(a *Scalar, b *Scalar) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case ScalarString, ScalarIdentifier:
		return a.Str == b.Str
	case ScalarInteger:
		return a.Int == b.Int
	case ScalarFloat:
		return a.Float == b.Float
	case ScalarBool:
		return a.Bool == b.Bool
	default:
		return true
	}
}

// Native converts a tree into plain Go values: nil, string, int64, float64,
// bool, []any, and map[string]any.
func Native(n Node) any {
	switch v := n.(type) {
	case *Scalar:
		switch v.Type {
		case ScalarString, ScalarIdentifier:
			return v.Str
		case ScalarInteger:
			return v.Int
		case ScalarFloat:
			return v.Float
		case ScalarBool:
			return v.Bool
		default:
			return nil
		}
	case *List:
		out := make([]any, 0, len(v.Items))
		for _, item := range v.Items {
			out = append(out, Native(item))
		}
		return out
	case *Map:
		out := make(map[string]any, v.Len())
		v.Range(func(k string, item Node) bool {
			out[k] = Native(item)
			return true
		})
		return out
	default:
		return nil
	}
}

// Format renders a tree in a compact, deterministic, python-like notation.
// Map keys are printed in insertion order.
func Format(n Node) string {
	var b strings.Builder
	format(&b, n)
	return b.String()
}

func format(b *strings.Builder, n Node) {
	switch v := n.(type) {
	case *Scalar:
		switch v.Type {
		case ScalarString:
			fmt.Fprintf(b, "%q", v.Str)
		case ScalarNull:
			b.WriteString("None")
		default:
			b.WriteString(v.Text())
		}
	case *List:
		b.WriteString("(")
		for x, item := range v.Items {
			if x > 0 {
				b.WriteString(", ")
			}
			format(b, item)
		}
		b.WriteString(")")
	case *Map:
		b.WriteString("{")
		first := true
		v.Range(func(k string, item Node) bool {
			if !first {
				b.WriteString(", ")
			}
			first = false
			fmt.Fprintf(b, "%q: ", k)
			format(b, item)
			return true
		})
		b.WriteString("}")
	default:
		b.WriteString("<nil>")
	}
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys(m *Map) []string {
	keys := m.Keys()
	sort.Strings(keys)
	return keys
}
