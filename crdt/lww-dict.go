package crdt

import (
	"cmp"
	"sort"
	"sync"
)

// Structs

// Event is one recorded insertion or removal for a key: the
// affected value together with the logical timestamp the
// issuing replica attached to the operation.
type Event[V comparable, T cmp.Ordered] struct {
	Value V
	Time  T
}

// LWWDict conforms to the specification of a state-based
// last-writer-wins element dictionary. It keeps an
// append-only history of all insertion and removal events
// per key, ordered by timestamp and deduplicated on exact
// (value, timestamp) identity, plus an incrementally
// maintained view of each key's currently winning value.
type LWWDict[K comparable, V comparable, T cmp.Ordered] struct {
	lock    *sync.RWMutex
	added   map[K][]Event[V, T]
	removed map[K][]Event[V, T]
	current map[K]Event[V, T]
}

// Functions

// InitLWWDict returns an empty initialized new
// last-writer-wins element dictionary.
func InitLWWDict[K comparable, V comparable, T cmp.Ordered]() *LWWDict[K, V, T] {

	return &LWWDict[K, V, T]{
		lock:    new(sync.RWMutex),
		added:   make(map[K][]Event[V, T]),
		removed: make(map[K][]Event[V, T]),
		current: make(map[K]Event[V, T]),
	}
}

// InitLWWDictFrom returns a new dictionary seeded with a
// snapshot of the supplied dictionary's event histories and
// materialized view. It only read-locks the source, making
// it the intended way to obtain a merge source while the
// original stays in concurrent use.
func InitLWWDictFrom[K comparable, V comparable, T cmp.Ordered](src *LWWDict[K, V, T]) *LWWDict[K, V, T] {

	d := InitLWWDict[K, V, T]()

	src.lock.RLock()

	d.added = copyEvents(src.added)
	d.removed = copyEvents(src.removed)
	for k, cur := range src.current {
		d.current[k] = cur
	}

	src.lock.RUnlock()

	return d
}

// copyEvents deep-copies a history map so that the copy
// shares no backing storage with the original.
func copyEvents[K comparable, V comparable, T cmp.Ordered](src map[K][]Event[V, T]) map[K][]Event[V, T] {

	dst := make(map[K][]Event[V, T], len(src))

	for k, events := range src {
		dst[k] = append([]Event[V, T](nil), events...)
	}

	return dst
}

// orderedInsert places pair (v, t) into a per-key event
// collection such that ascending timestamp order is kept.
// An event carrying the exact same value and timestamp as
// an already present entry is the same logical event, e.g.
// recorded before via a merge, and collapses into it. The
// possibly grown collection is returned together with a
// flag telling whether a new entry was stored.
func orderedInsert[V comparable, T cmp.Ordered](events []Event[V, T], v V, t T) ([]Event[V, T], bool) {

	// Locate the first entry with a strictly greater
	// timestamp, the insertion point for t.
	i := sort.Search(len(events), func(i int) bool {
		return events[i].Time > t
	})

	// Walk the run of entries carrying exactly timestamp t
	// that precedes the insertion point and check for the
	// same value. Entries with equal timestamps but distinct
	// values are distinct events and all retained.
	for j := i - 1; j >= 0 && events[j].Time == t; j-- {

		if events[j].Value == v {
			return events, false
		}
	}

	events = append(events, Event[V, T]{})
	copy(events[i+1:], events[i:])
	events[i] = Event[V, T]{Value: v, Time: t}

	return events, true
}

// lastRemovalTime reports the highest timestamp among all
// removal events recorded for key k. Histories are kept in
// ascending timestamp order, so this is the final entry.
func (d *LWWDict[K, V, T]) lastRemovalTime(k K) (T, bool) {

	events := d.removed[k]
	if len(events) == 0 {
		var zero T
		return zero, false
	}

	return events[len(events)-1].Time, true
}

// addToCurrent admits a recorded insertion event to the
// materialized view. If insertion and removal timestamps
// for a key are the same, the removal has priority.
func (d *LWWDict[K, V, T]) addToCurrent(k K, v V, t T) {

	// An insertion dominated by an equal-or-later removal
	// does not surface.
	if lastRemoval, found := d.lastRemovalTime(k); found && lastRemoval >= t {
		return
	}

	// The insertion only replaces a standing winner if it
	// carries a strictly later timestamp.
	if cur, found := d.current[k]; !found || cur.Time < t {
		d.current[k] = Event[V, T]{Value: v, Time: t}
	}
}

// removeFromCurrent admits a recorded removal event to the
// materialized view. A removal at or after the standing
// winner's timestamp clears the key, an earlier one cannot
// evict it.
func (d *LWWDict[K, V, T]) removeFromCurrent(k K, v V, t T) {

	if cur, found := d.current[k]; found && t >= cur.Time {
		delete(d.current, k)
	}
}

// AddElement records the insertion of value v under key k
// at timestamp t and updates the currently visible value
// for k accordingly.
func (d *LWWDict[K, V, T]) AddElement(k K, v V, t T) {

	d.lock.Lock()

	d.added[k], _ = orderedInsert(d.added[k], v, t)
	d.addToCurrent(k, v, t)

	d.lock.Unlock()
}

// RemoveElement records the removal of value v under key k
// at timestamp t and updates the currently visible value
// for k accordingly.
func (d *LWWDict[K, V, T]) RemoveElement(k K, v V, t T) {

	d.lock.Lock()

	d.removed[k], _ = orderedInsert(d.removed[k], v, t)
	d.removeFromCurrent(k, v, t)

	d.lock.Unlock()
}

// UpdateValue records a new value for key k at timestamp t.
// Under last-writer-wins semantics an update is simply a
// later insertion, so this is an alias for AddElement.
func (d *LWWDict[K, V, T]) UpdateValue(k K, v V, t T) {
	d.AddElement(k, v, t)
}

// GetValueByKey returns the currently winning value for key
// k. The returned flag is false if the key was never added
// or its latest event is a dominating removal. An absent
// key is a normal outcome, not a failure.
func (d *LWWDict[K, V, T]) GetValueByKey(k K) (V, bool) {

	d.lock.RLock()
	cur, found := d.current[k]
	d.lock.RUnlock()

	return cur.Value, found
}

// MergeWith adds all events recorded by the supplied
// dictionary to this instance, avoiding duplicates and
// preserving ascending timestamp order, and updates the
// materialized view so it reflects the unioned history.
// The source dictionary is only read, never changed.
func (d *LWWDict[K, V, T]) MergeWith(other *LWWDict[K, V, T]) {

	// Merging an instance into itself cannot introduce any
	// new event. Return early, also because the exclusive
	// lock below must not be acquired twice on one instance.
	if d == other {
		return
	}

	d.lock.Lock()
	other.lock.RLock()

	d.mergeEvents(true, d.added, other.added)
	d.mergeEvents(false, d.removed, other.removed)

	other.lock.RUnlock()
	d.lock.Unlock()
}

// mergeEvents unions src's per-key event collections into
// dest. Every transferred event is re-admitted to the
// materialized view, even when its insertion was a dedup
// no-op: dest's removal history for that key may have
// changed since the event was first recorded remotely.
func (d *LWWDict[K, V, T]) mergeEvents(addFlag bool, dest, src map[K][]Event[V, T]) {

	for k, eventsSrc := range src {

		if _, found := dest[k]; !found {

			// Key unknown so far: take over the source
			// collection wholesale, it already is ordered
			// and deduplicated.
			dest[k] = append([]Event[V, T](nil), eventsSrc...)

			for _, event := range eventsSrc {

				if addFlag {
					d.addToCurrent(k, event.Value, event.Time)
				} else {
					d.removeFromCurrent(k, event.Value, event.Time)
				}
			}

			continue
		}

		for _, event := range eventsSrc {

			dest[k], _ = orderedInsert(dest[k], event.Value, event.Time)

			if addFlag {
				d.addToCurrent(k, event.Value, event.Time)
			} else {
				d.removeFromCurrent(k, event.Value, event.Time)
			}
		}
	}
}

// AddedData returns a snapshot copy of all insertion events
// this replica has recorded, per key and in ascending
// timestamp order. Embedding systems that persist or ship
// replica state serialize the two histories; the current
// view is always re-derivable from them.
func (d *LWWDict[K, V, T]) AddedData() map[K][]Event[V, T] {

	d.lock.RLock()
	data := copyEvents(d.added)
	d.lock.RUnlock()

	return data
}

// RemovedData returns a snapshot copy of all removal events
// this replica has recorded, per key and in ascending
// timestamp order.
func (d *LWWDict[K, V, T]) RemovedData() map[K][]Event[V, T] {

	d.lock.RLock()
	data := copyEvents(d.removed)
	d.lock.RUnlock()

	return data
}

// CurrentData returns a snapshot copy of the materialized
// view, mapping each visible key to its winning value and
// that value's timestamp.
func (d *LWWDict[K, V, T]) CurrentData() map[K]Event[V, T] {

	d.lock.RLock()

	data := make(map[K]Event[V, T], len(d.current))
	for k, cur := range d.current {
		data[k] = cur
	}

	d.lock.RUnlock()

	return data
}
