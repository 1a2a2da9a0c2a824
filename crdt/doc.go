/*
Package crdt implements the state-based last-writer-wins element dictionary
(LWW-Element-Dict), a conflict-free replicated data type mapping keys to
values across replicas that are updated independently and merged later
without any coordination.

Every insertion and removal a replica observes is recorded in a per-key,
append-only, deduplicated history ordered by logical timestamp. The value a
key currently exposes is derived from these histories: the insertion with the
highest timestamp wins, and on equal insertion and removal timestamps the
removal has priority. Because histories only ever grow and merging is a
deduplicated set union, replicas converge to the same observable state no
matter in which order or how often they merge.

CAUTION! Consider these two points:
* A dictionary instance synchronizes access to its own state internally, so
  it may be shared between goroutines without extra locking. However, when
  two instances have to be merged into each other concurrently in both
  directions, seed one side of the exchange with a snapshot obtained from
  InitLWWDictFrom instead of the live instance.
* Timestamps only need to be totally ordered, not wall-clock accurate. For
  correct last-writer-wins results the embedding system is responsible for
  generating timestamps that reflect its intended order of events, e.g. via
  Lamport counters or hybrid logical clocks.

The state-based LWW dictionary of this package is a practical derivation
from the CRDT specification by Shapiro, Preguiça, Baquero and Zawirski,
available under: https://hal.inria.fr/inria-00555588/document
*/
package crdt
