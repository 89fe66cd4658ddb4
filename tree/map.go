// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package tree

// Map is a string keyed mapping that remembers insertion order. Overwriting
// an existing key keeps its original position.
type Map struct {
	keys   []string
	values map[string]Node
}

func (*Map) node() {}

func NewMap() *Map {
	return &Map{values: make(map[string]Node)}
}

// MapOf builds a map from alternating key and value arguments. It is mostly
// useful for tests and literal fixtures.
func MapOf(kv ...any) *Map {
	m := NewMap()
	for x := 0; x+1 < len(kv); x = x + 2 {
		m.Set(kv[x].(string), kv[x+1].(Node))
	}
	return m
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

func (m *Map) Get(key string) (Node, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

func (m *Map) Set(key string, value Node) {
	if m.values == nil {
		m.values = make(map[string]Node)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Keys returns a copy of the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Range calls f for each entry in insertion order until f returns false.
func (m *Map) Range(f func(key string, value Node) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !f(k, m.values[k]) {
			return
		}
	}
}

// Update copies every entry of other into m, overwriting existing keys. It
// never descends into nested maps.
func (m *Map) Update(other *Map) {
	other.Range(func(k string, v Node) bool {
		m.Set(k, v)
		return true
	})
}

// Clone returns a shallow copy of m.
func (m *Map) Clone() *Map {
	out := NewMap()
	out.Update(m)
	return out
}

// Union returns a new map holding the entries of a overwritten by the entries
// of b. Neither input is modified.
func Union(a *Map, b *Map) *Map {
	out := a.Clone()
	out.Update(b)
	return out
}
