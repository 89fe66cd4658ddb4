// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package atf

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

type actionKind uint8

const (
	actionShift actionKind = iota + 1
	actionReduce
	actionAccept
)

// action is one entry of the action table. For shifts the target is the next
// state. For reductions it is the production index.
type action struct {
	kind   actionKind
	target int
}

func (a action) String() string {
	switch a.kind {
	case actionShift:
		return fmt.Sprintf("shift %d", a.target)
	case actionReduce:
		return fmt.Sprintf("reduce %d", a.target)
	case actionAccept:
		return "accept"
	default:
		return "error"
	}
}

// conflict records an ambiguity that was resolved while building the table.
type conflict struct {
	state     int
	lookahead symbol
	kept      action
	dropped   action
}

func (c conflict) String() string {
	return fmt.Sprintf("state %d on %s: kept %s, dropped %s", c.state, c.lookahead, c.kept, c.dropped)
}

// table is an immutable LALR(1) parse table.
type table struct {
	productions []production
	actions     []map[symbol]action
	gotos       []map[symbol]int
	conflicts   []conflict
}

// expected returns the terminals that have an action in the given state.
func (t *table) expected(state int) []symbol {
	out := make([]symbol, 0, len(t.actions[state]))
	for s := range t.actions[state] {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var defaultTable = sync.OnceValue(func() *table {
	return buildTable(newProductions())
})

type item struct {
	prod int
	dot  int
}

type symbolSet map[symbol]bool

func (s symbolSet) add(v symbol) bool {
	if s[v] {
		return false
	}
	s[v] = true
	return true
}

func (s symbolSet) union(other symbolSet) bool {
	changed := false
	for v := range other {
		if s.add(v) {
			changed = true
		}
	}
	return changed
}

func (s symbolSet) sorted() []symbol {
	out := make([]symbol, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// symDummy is the placeholder lookahead used to detect propagation.
const symDummy symbol = -1

type grammar struct {
	productions []production
	byLHS       map[symbol][]int
	nullable    map[symbol]bool
	first       map[symbol]symbolSet
}

func newGrammar(productions []production) *grammar {
	g := &grammar{
		productions: productions,
		byLHS:       make(map[symbol][]int),
		nullable:    make(map[symbol]bool),
		first:       make(map[symbol]symbolSet),
	}
	for x, p := range productions {
		g.byLHS[p.lhs] = append(g.byLHS[p.lhs], x)
		if _, ok := g.first[p.lhs]; !ok {
			g.first[p.lhs] = make(symbolSet)
		}
	}
	for changed := true; changed; {
		changed = false
		for _, p := range productions {
			if !g.nullable[p.lhs] && g.seqNullable(p.rhs) {
				g.nullable[p.lhs] = true
				changed = true
			}
			for _, s := range p.rhs {
				if s.isTerminal() {
					if g.first[p.lhs].add(s) {
						changed = true
					}
					break
				}
				if g.first[p.lhs].union(g.first[s]) {
					changed = true
				}
				if !g.nullable[s] {
					break
				}
			}
		}
	}
	return g
}

func (g *grammar) seqNullable(seq []symbol) bool {
	for _, s := range seq {
		if s.isTerminal() || !g.nullable[s] {
			return false
		}
	}
	return true
}

// firstOf returns FIRST(seq) and whether seq can derive the empty string.
func (g *grammar) firstOf(seq []symbol) (symbolSet, bool) {
	out := make(symbolSet)
	for _, s := range seq {
		if s.isTerminal() {
			out.add(s)
			return out, false
		}
		out.union(g.first[s])
		if !g.nullable[s] {
			return out, false
		}
	}
	return out, true
}

func (g *grammar) next(it item) (symbol, bool) {
	rhs := g.productions[it.prod].rhs
	if it.dot >= len(rhs) {
		return 0, false
	}
	return rhs[it.dot], true
}

// closure0 computes the LR(0) closure of a kernel.
func (g *grammar) closure0(kernel []item) []item {
	out := append([]item(nil), kernel...)
	seen := make(map[item]bool, len(kernel))
	for _, it := range kernel {
		seen[it] = true
	}
	for x := 0; x < len(out); x = x + 1 {
		s, ok := g.next(out[x])
		if !ok || s.isTerminal() {
			continue
		}
		for _, p := range g.byLHS[s] {
			it := item{prod: p}
			if !seen[it] {
				seen[it] = true
				out = append(out, it)
			}
		}
	}
	return out
}

// closure1 computes the LR(1) closure of a set of items with lookaheads.
func (g *grammar) closure1(kernel map[item]symbolSet) map[item]symbolSet {
	out := make(map[item]symbolSet, len(kernel))
	work := make([]item, 0, len(kernel))
	for it, las := range kernel {
		out[it] = make(symbolSet, len(las))
		out[it].union(las)
		work = append(work, it)
	}
	for len(work) > 0 {
		it := work[len(work)-1]
		work = work[:len(work)-1]
		s, ok := g.next(it)
		if !ok || s.isTerminal() {
			continue
		}
		rest := g.productions[it.prod].rhs[it.dot+1:]
		first, nullable := g.firstOf(rest)
		for _, p := range g.byLHS[s] {
			child := item{prod: p}
			las, ok := out[child]
			if !ok {
				las = make(symbolSet)
				out[child] = las
			}
			changed := las.union(first)
			if nullable && las.union(out[it]) {
				changed = true
			}
			if changed || !ok {
				work = append(work, child)
			}
		}
	}
	return out
}

func kernelKey(kernel []item) string {
	var b strings.Builder
	for _, it := range kernel {
		fmt.Fprintf(&b, "%d.%d;", it.prod, it.dot)
	}
	return b.String()
}

type lr0State struct {
	kernel      []item
	transitions map[symbol]int
}

// buildLR0 builds the LR(0) automaton. State 0 holds the start item.
func (g *grammar) buildLR0() []*lr0State {
	start := &lr0State{kernel: []item{{prod: 0}}, transitions: make(map[symbol]int)}
	states := []*lr0State{start}
	index := map[string]int{kernelKey(start.kernel): 0}
	for x := 0; x < len(states); x = x + 1 {
		state := states[x]
		var order []symbol
		gotos := make(map[symbol][]item)
		for _, it := range g.closure0(state.kernel) {
			s, ok := g.next(it)
			if !ok {
				continue
			}
			if _, ok := gotos[s]; !ok {
				order = append(order, s)
			}
			gotos[s] = append(gotos[s], item{prod: it.prod, dot: it.dot + 1})
		}
		for _, s := range order {
			kernel := gotos[s]
			sort.Slice(kernel, func(i, j int) bool {
				if kernel[i].prod != kernel[j].prod {
					return kernel[i].prod < kernel[j].prod
				}
				return kernel[i].dot < kernel[j].dot
			})
			key := kernelKey(kernel)
			target, ok := index[key]
			if !ok {
				target = len(states)
				index[key] = target
				states = append(states, &lr0State{kernel: kernel, transitions: make(map[symbol]int)})
			}
			state.transitions[s] = target
		}
	}
	return states
}

type kernelRef struct {
	state int
	item  item
}

// buildTable computes LALR(1) lookaheads by propagation over the LR(0)
// automaton and fills the action and goto tables. Shift wins a
// shift/reduce conflict and the lower production wins a reduce/reduce
// conflict. Every resolved conflict is recorded.
func buildTable(productions []production) *table {
	g := newGrammar(productions)
	states := g.buildLR0()

	lookaheads := make([]map[item]symbolSet, len(states))
	for x, state := range states {
		lookaheads[x] = make(map[item]symbolSet, len(state.kernel))
		for _, it := range state.kernel {
			lookaheads[x][it] = make(symbolSet)
		}
	}
	lookaheads[0][item{prod: 0}].add(symEOF)

	propagate := make(map[kernelRef][]kernelRef)
	for x, state := range states {
		for _, k := range state.kernel {
			from := kernelRef{state: x, item: k}
			closure := g.closure1(map[item]symbolSet{k: {symDummy: true}})
			for it, las := range closure {
				s, ok := g.next(it)
				if !ok {
					continue
				}
				to := kernelRef{state: state.transitions[s], item: item{prod: it.prod, dot: it.dot + 1}}
				for la := range las {
					if la == symDummy {
						propagate[from] = append(propagate[from], to)
						continue
					}
					lookaheads[to.state][to.item].add(la)
				}
			}
		}
	}
	for changed := true; changed; {
		changed = false
		for from, targets := range propagate {
			for _, to := range targets {
				if lookaheads[to.state][to.item].union(lookaheads[from.state][from.item]) {
					changed = true
				}
			}
		}
	}

	t := &table{
		productions: productions,
		actions:     make([]map[symbol]action, len(states)),
		gotos:       make([]map[symbol]int, len(states)),
	}
	for x, state := range states {
		t.actions[x] = make(map[symbol]action)
		t.gotos[x] = make(map[symbol]int)
		for s, target := range state.transitions {
			if s.isTerminal() {
				t.set(x, s, action{kind: actionShift, target: target})
			} else {
				t.gotos[x][s] = target
			}
		}
		closure := g.closure1(lookaheads[x])
		complete := make([]item, 0)
		for it := range closure {
			if _, ok := g.next(it); !ok {
				complete = append(complete, it)
			}
		}
		sort.Slice(complete, func(i, j int) bool { return complete[i].prod < complete[j].prod })
		for _, it := range complete {
			for _, la := range closure[it].sorted() {
				if it.prod == 0 && la == symEOF {
					t.set(x, la, action{kind: actionAccept})
					continue
				}
				t.set(x, la, action{kind: actionReduce, target: it.prod})
			}
		}
	}
	sort.Slice(t.conflicts, func(i, j int) bool {
		if t.conflicts[i].state != t.conflicts[j].state {
			return t.conflicts[i].state < t.conflicts[j].state
		}
		return t.conflicts[i].lookahead < t.conflicts[j].lookahead
	})
	return t
}

func (t *table) set(state int, la symbol, a action) {
	existing, ok := t.actions[state][la]
	if !ok || existing == a {
		t.actions[state][la] = a
		return
	}
	kept, dropped := existing, a
	switch {
	case a.kind == actionShift:
		kept, dropped = a, existing
	case existing.kind == actionShift:
	case a.kind == actionReduce && existing.kind == actionReduce && a.target < existing.target:
		kept, dropped = a, existing
	}
	t.actions[state][la] = kept
	t.conflicts = append(t.conflicts, conflict{state: state, lookahead: la, kept: kept, dropped: dropped})
}
