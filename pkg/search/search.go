// Package search implements a generic A* best-first search.
//
// The search knows nothing about grids or links. Callers describe the problem
// through callbacks over their own node type N and a comparable state key H.
// Because Hash and Neighbors receive the previous node, the same location
// reached from different directions can be tracked as distinct states, which
// direction-sensitive cost functions (corner penalties) depend on.
//
// The open set is a gods priority queue ordered by f = g + h, ties broken by
// insertion order so results are deterministic. Improved paths to an open
// state are pushed as new entries and stale entries are skipped on pop.
//
// Every search terminates: it stops on the first popped end state
// ([Success]), when the open set is exhausted ([NoPath]) or when more than
// MaxExpansions states have been popped ([Timeout]). In the last two cases the
// returned path leads to the state with the lowest heuristic seen.
package search

import (
	"github.com/emirpasic/gods/queues/priorityqueue"
)

// DefaultMaxExpansions is the expansion budget used when
// Problem.MaxExpansions is zero.
const DefaultMaxExpansions = 10000

// Status reports how a search ended.
type Status int

const (
	// Success means an end state was popped.
	Success Status = iota
	// Timeout means the expansion budget ran out.
	Timeout
	// NoPath means the open set was exhausted.
	NoPath
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Timeout:
		return "timeout"
	case NoPath:
		return "noPath"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Neighbor is a successor state and the cost of stepping to it.
type Neighbor[N any] struct {
	Node N
	Cost float64
}

// Problem describes a search. prev is nil for start states.
type Problem[N any, H comparable] struct {
	Starts        []N
	IsEnd         func(node N, prev *N) bool
	Neighbors     func(node N, prev *N) []Neighbor[N]
	Heuristic     func(node N) float64
	Hash          func(node N, prev *N) H
	MaxExpansions int
}

// Result is the outcome of a search.
type Result[N any] struct {
	Path     []N
	Cost     float64
	Status   Status
	Expanded int
}

type entry[N any, H comparable] struct {
	node   N
	parent *entry[N, H]
	hash   H
	g, h   float64
	seq    int
}

func (e *entry[N, H]) f() float64 { return e.g + e.h }

// Search runs A* over p.
func Search[N any, H comparable](p Problem[N, H]) Result[N] {
	budget := p.MaxExpansions
	if budget <= 0 {
		budget = DefaultMaxExpansions
	}

	queue := priorityqueue.NewWith(func(a, b interface{}) int {
		ea, eb := a.(*entry[N, H]), b.(*entry[N, H])
		switch fa, fb := ea.f(), eb.f(); {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return ea.seq - eb.seq
	})

	open := make(map[H]*entry[N, H])
	closed := make(map[H]bool)
	seq := 0
	var best *entry[N, H]

	push := func(e *entry[N, H]) {
		e.seq = seq
		seq++
		open[e.hash] = e
		queue.Enqueue(e)
		if best == nil || e.h < best.h {
			best = e
		}
	}

	for _, s := range p.Starts {
		hash := p.Hash(s, nil)
		if closed[hash] {
			continue
		}
		if _, ok := open[hash]; ok {
			continue
		}
		push(&entry[N, H]{node: s, hash: hash, h: p.Heuristic(s)})
	}

	expanded := 0
	for !queue.Empty() {
		v, _ := queue.Dequeue()
		cur := v.(*entry[N, H])
		if closed[cur.hash] || open[cur.hash] != cur {
			continue
		}

		var prev *N
		if cur.parent != nil {
			prev = &cur.parent.node
		}
		if p.IsEnd(cur.node, prev) {
			return Result[N]{Path: cur.path(), Cost: cur.g, Status: Success, Expanded: expanded}
		}

		expanded++
		if expanded > budget {
			return best.result(Timeout, expanded)
		}

		delete(open, cur.hash)
		closed[cur.hash] = true

		node := cur.node
		for _, nb := range p.Neighbors(node, prev) {
			hash := p.Hash(nb.Node, &node)
			if closed[hash] {
				continue
			}
			g := cur.g + nb.Cost
			if existing, ok := open[hash]; ok && g >= existing.g {
				continue
			}
			push(&entry[N, H]{node: nb.Node, parent: cur, hash: hash, g: g, h: p.Heuristic(nb.Node)})
		}
	}

	if best == nil {
		return Result[N]{Status: NoPath, Expanded: expanded}
	}
	return best.result(NoPath, expanded)
}

func (e *entry[N, H]) result(status Status, expanded int) Result[N] {
	return Result[N]{Path: e.path(), Cost: e.g, Status: status, Expanded: expanded}
}

func (e *entry[N, H]) path() []N {
	var out []N
	for cur := e; cur != nil; cur = cur.parent {
		out = append(out, cur.node)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
