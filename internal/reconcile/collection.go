// Package reconcile merges REST query results with realtime deltas. Every
// function here is pure: it takes a state value and returns a new one.
package reconcile

type Keyed interface {
	Key() string
}

type opKind int

const (
	opUpsert opKind = iota
	opUpsertFront
	opPatch
	opRemove
)

type op[T Keyed] struct {
	seq   uint64
	kind  opKind
	key   string
	item  T
	patch func(T) T
}

// Collection is an ordered list of unique items with a log of the local
// operations applied to it. A fetch that started at Seq() can be folded in
// with Rebase without losing the operations recorded while it was in
// flight. The log holds every operation since the last folded fetch.
type Collection[T Keyed] struct {
	items []T
	log   []op[T]
	seq   uint64

	// base is the since of the last folded fetch.
	base uint64
}

// NewCollection keeps the first occurrence of every key.
func NewCollection[T Keyed](items []T) Collection[T] {
	return Collection[T]{items: dedupe(items)}
}

func dedupe[T Keyed](items []T) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.Key()]; ok {
			continue
		}
		seen[it.Key()] = struct{}{}
		out = append(out, it)
	}
	return out
}

// Items returns a copy of the current items.
func (c Collection[T]) Items() []T {
	return append([]T(nil), c.items...)
}

func (c Collection[T]) Len() int { return len(c.items) }

// Seq is the sequence number of the last recorded operation.
func (c Collection[T]) Seq() uint64 { return c.seq }

func (c Collection[T]) index(key string) int {
	for i, it := range c.items {
		if it.Key() == key {
			return i
		}
	}
	return -1
}

func (c Collection[T]) Get(key string) (T, bool) {
	if i := c.index(key); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

func (c Collection[T]) Has(key string) bool {
	return c.index(key) >= 0
}

// Upsert replaces the item with the same key in place, or appends it.
func (c Collection[T]) Upsert(item T) Collection[T] {
	return c.record(op[T]{kind: opUpsert, key: item.Key(), item: item})
}

// UpsertFront replaces in place, or inserts at the front.
func (c Collection[T]) UpsertFront(item T) Collection[T] {
	return c.record(op[T]{kind: opUpsertFront, key: item.Key(), item: item})
}

// Patch applies fn to the item with key. Absent keys are left alone, but the
// patch is still recorded so that it reaches the item if a later fetch
// brings it in.
func (c Collection[T]) Patch(key string, fn func(T) T) Collection[T] {
	return c.record(op[T]{kind: opPatch, key: key, patch: fn})
}

func (c Collection[T]) Remove(key string) Collection[T] {
	return c.record(op[T]{kind: opRemove, key: key})
}

func (c Collection[T]) record(o op[T]) Collection[T] {
	o.seq = c.seq + 1

	return Collection[T]{
		items: applyOp(append([]T(nil), c.items...), o),
		log:   append(append([]op[T](nil), c.log...), o),
		seq:   o.seq,
		base:  c.base,
	}
}

func applyOp[T Keyed](items []T, o op[T]) []T {
	idx := -1
	for i, it := range items {
		if it.Key() == o.key {
			idx = i
			break
		}
	}

	switch o.kind {
	case opUpsert, opUpsertFront:
		if idx >= 0 {
			items[idx] = o.item
			return items
		}
		if o.kind == opUpsertFront {
			return append([]T{o.item}, items...)
		}
		return append(items, o.item)
	case opPatch:
		if idx >= 0 {
			items[idx] = o.patch(items[idx])
		}
		return items
	case opRemove:
		if idx >= 0 {
			return append(items[:idx], items[idx+1:]...)
		}
		return items
	}
	return items
}

// Rebase replaces the items with fetched and replays every operation
// recorded after since, the Seq() observed when the fetch started. A fetch
// that started before the last folded one is older than the current items
// and is ignored.
func (c Collection[T]) Rebase(fetched []T, since uint64) Collection[T] {
	if since < c.base {
		return c
	}

	items := dedupe(fetched)

	var kept []op[T]
	for _, o := range c.log {
		if o.seq <= since {
			continue
		}
		items = applyOp(items, o)
		kept = append(kept, o)
	}

	return Collection[T]{items: items, log: kept, seq: c.seq, base: since}
}

// Filter returns the items for which keep is true.
func (c Collection[T]) Filter(keep func(T) bool) []T {
	var out []T
	for _, it := range c.items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
