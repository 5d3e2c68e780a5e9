// Package reconcile computes and applies edit scripts between two snapshots
// of a keyed list.
//
// Diff and Apply are pure. A Reconciler owns the rendered list state of one
// screen and drives a Surface with the edit script of every new snapshot.
package reconcile

import (
	"fmt"
	"slices"
	"sort"
)

// Callback tells Diff how to compare entries.
type Callback[T any, K comparable] struct {
	// Key returns the identity of an entry. Entries with equal keys are the
	// same item.
	Key func(T) K
	// SameContent reports whether two entries of the same item render the
	// same. Nil means never re-render.
	SameContent func(a, b T) bool
}

// Kind is the type of an edit operation.
type Kind uint8

const (
	KindRemove Kind = iota + 1
	KindMove
	KindInsert
	KindUpdate
)

func (k Kind) String() string {
	switch k {
	case KindRemove:
		return "remove"
	case KindMove:
		return "move"
	case KindInsert:
		return "insert"
	case KindUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// Op is one edit. Index addresses Remove, Insert and Update; From and To
// address Move, which removes the entry at From and re-inserts it at To.
// Indices are valid against the list as it is when the op is applied.
type Op[T any] struct {
	Kind  Kind
	Index int
	From  int
	To    int
	Item  T
}

func (o Op[T]) String() string {
	switch o.Kind {
	case KindRemove:
		return fmt.Sprintf("remove %d", o.Index)
	case KindMove:
		return fmt.Sprintf("move %d -> %d", o.From, o.To)
	case KindInsert, KindUpdate:
		return fmt.Sprintf("%s %d %v", o.Kind, o.Index, o.Item)
	default:
		return o.Kind.String()
	}
}

// Script is an ordered edit script.
type Script[T any] []Op[T]

// Count returns the number of ops of kind k.
func (s Script[T]) Count(k Kind) int {
	n := 0
	for _, op := range s {
		if op.Kind == k {
			n++
		}
	}
	return n
}

// Diff computes the script that turns before into after. Ops come in four
// runs: removals in descending index order, moves, insertions in ascending
// index order, then in-place updates. Only entries that leave the longest run of
// entries already in relative order are moved.
//
// Keys must be unique within each list. If they are not, Diff falls back to
// removing every entry of before and inserting every entry of after.
func Diff[T any, K comparable](before, after []T, cb Callback[T, K]) Script[T] {
	oldIdx, ok := index(before, cb.Key)
	if !ok {
		return replace(before, after)
	}
	newIdx, ok := index(after, cb.Key)
	if !ok {
		return replace(before, after)
	}

	var script Script[T]

	// Removals, back to front so earlier indices stay valid.
	for i := len(before) - 1; i >= 0; i-- {
		if _, keep := newIdx[cb.Key(before[i])]; !keep {
			script = append(script, Op[T]{Kind: KindRemove, Index: i})
		}
	}

	// cur holds the keys of the surviving entries in their current order.
	cur := make([]K, 0, len(before))
	targets := make([]int, 0, len(before))
	for _, item := range before {
		k := cb.Key(item)
		if n, keep := newIdx[k]; keep {
			cur = append(cur, k)
			targets = append(targets, n)
		}
	}
	stable := make(map[K]bool, len(cur))
	for _, j := range lis(targets) {
		stable[cur[j]] = true
	}

	// Moves, in target order: each displaced entry goes right behind the
	// surviving entry that precedes it in after.
	var prev K
	havePrev := false
	for _, item := range after {
		k := cb.Key(item)
		if _, matched := oldIdx[k]; !matched {
			continue
		}
		if !stable[k] {
			from := slices.Index(cur, k)
			cur = slices.Delete(cur, from, from+1)
			to := 0
			if havePrev {
				to = slices.Index(cur, prev) + 1
			}
			cur = slices.Insert(cur, to, k)
			if from != to {
				script = append(script, Op[T]{Kind: KindMove, From: from, To: to})
			}
		}
		prev, havePrev = k, true
	}

	// Insertions, front to back so every index lands in its final place.
	for n, item := range after {
		if _, matched := oldIdx[cb.Key(item)]; !matched {
			script = append(script, Op[T]{Kind: KindInsert, Index: n, Item: item})
		}
	}

	// Updates against final positions.
	if cb.SameContent != nil {
		for n, item := range after {
			i, matched := oldIdx[cb.Key(item)]
			if matched && !cb.SameContent(before[i], item) {
				script = append(script, Op[T]{Kind: KindUpdate, Index: n, Item: item})
			}
		}
	}
	return script
}

func index[T any, K comparable](items []T, key func(T) K) (map[K]int, bool) {
	m := make(map[K]int, len(items))
	for i, item := range items {
		k := key(item)
		if _, dup := m[k]; dup {
			return nil, false
		}
		m[k] = i
	}
	return m, true
}

func replace[T any](before, after []T) Script[T] {
	script := make(Script[T], 0, len(before)+len(after))
	for i := len(before) - 1; i >= 0; i-- {
		script = append(script, Op[T]{Kind: KindRemove, Index: i})
	}
	for n, item := range after {
		script = append(script, Op[T]{Kind: KindInsert, Index: n, Item: item})
	}
	return script
}

// lis returns the positions of one longest strictly increasing subsequence
// of seq, in ascending order.
func lis(seq []int) []int {
	if len(seq) == 0 {
		return nil
	}
	// tails[l] is the position in seq of the smallest tail of an increasing
	// subsequence of length l+1.
	tails := make([]int, 0, len(seq))
	parent := make([]int, len(seq))
	for i, v := range seq {
		l := sort.Search(len(tails), func(j int) bool { return seq[tails[j]] >= v })
		if l > 0 {
			parent[i] = tails[l-1]
		} else {
			parent[i] = -1
		}
		if l == len(tails) {
			tails = append(tails, i)
		} else {
			tails[l] = i
		}
	}
	out := make([]int, len(tails))
	for i, p := len(tails)-1, tails[len(tails)-1]; i >= 0; i, p = i-1, parent[p] {
		out[i] = p
	}
	return out
}

// Surface is a rendered list that accepts edit operations.
type Surface[T any] interface {
	Insert(index int, item T)
	Remove(index int)
	Move(from, to int)
	Update(index int, item T)
}

// ApplyTo replays script on s.
func ApplyTo[T any](s Surface[T], script Script[T]) {
	for _, op := range script {
		switch op.Kind {
		case KindRemove:
			s.Remove(op.Index)
		case KindMove:
			s.Move(op.From, op.To)
		case KindInsert:
			s.Insert(op.Index, op.Item)
		case KindUpdate:
			s.Update(op.Index, op.Item)
		}
	}
}

// Apply returns the result of applying script to a copy of old.
func Apply[T any](old []T, script Script[T]) []T {
	ls := &ListSurface[T]{Items: slices.Clone(old)}
	ApplyTo[T](ls, script)
	return ls.Items
}

// ListSurface is a Surface backed by a slice.
type ListSurface[T any] struct {
	Items []T
}

func (l *ListSurface[T]) Insert(index int, item T) { l.Items = slices.Insert(l.Items, index, item) }

func (l *ListSurface[T]) Remove(index int) { l.Items = slices.Delete(l.Items, index, index+1) }

func (l *ListSurface[T]) Move(from, to int) {
	item := l.Items[from]
	l.Items = slices.Delete(l.Items, from, from+1)
	l.Items = slices.Insert(l.Items, to, item)
}

func (l *ListSurface[T]) Update(index int, item T) { l.Items[index] = item }
