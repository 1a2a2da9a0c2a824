package crdt_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/dmarkfer/CRDT-LWW/crdt"
	"github.com/stretchr/testify/assert"
)

// Functions

// applyRandomOps drives a replica with a random stream of
// insertions and removals over a small key and value space.
// Timestamps are drawn from a shared strictly increasing
// clock so that every event in a test run is globally
// unique, which keeps equal-timestamp value ties out of
// the convergence checks (the data type resolves those by
// first-recorded order, see TestMergeWith).
func applyRandomOps(d *crdt.LWWDict[string, int, int64], rng *rand.Rand, clock *int64, ops int) {

	keys := []string{"A", "B", "C", "D", "E"}

	for i := 0; i < ops; i++ {

		*clock++

		k := keys[rng.Intn(len(keys))]
		v := rng.Intn(32)

		if rng.Intn(4) == 0 {
			d.RemoveElement(k, v, *clock)
		} else {
			d.AddElement(k, v, *clock)
		}
	}
}

// TestMergeCommutative checks that for arbitrarily built
// replicas A and B, merging A into B and B into A yields
// the same view and the same histories.
func TestMergeCommutative(t *testing.T) {

	for seed := int64(0); seed < 20; seed++ {

		rng := rand.New(rand.NewSource(seed))
		clock := new(int64)

		a := crdt.InitLWWDict[string, int, int64]()
		b := crdt.InitLWWDict[string, int, int64]()

		applyRandomOps(a, rng, clock, 200)
		applyRandomOps(b, rng, clock, 200)

		ab := crdt.InitLWWDictFrom(a)
		ab.MergeWith(b)

		ba := crdt.InitLWWDictFrom(b)
		ba.MergeWith(a)

		assert.Equal(t, ab.CurrentData(), ba.CurrentData(), fmt.Sprintf("views diverged for seed %d", seed))
		assert.Equal(t, ab.AddedData(), ba.AddedData(), fmt.Sprintf("insertion histories diverged for seed %d", seed))
		assert.Equal(t, ab.RemovedData(), ba.RemovedData(), fmt.Sprintf("removal histories diverged for seed %d", seed))
	}
}

// TestMergeAssociative checks that the grouping of merges
// does not matter: ((A+B)+C) equals (A+(B+C)).
func TestMergeAssociative(t *testing.T) {

	for seed := int64(0); seed < 20; seed++ {

		rng := rand.New(rand.NewSource(seed))
		clock := new(int64)

		a := crdt.InitLWWDict[string, int, int64]()
		b := crdt.InitLWWDict[string, int, int64]()
		c := crdt.InitLWWDict[string, int, int64]()

		applyRandomOps(a, rng, clock, 150)
		applyRandomOps(b, rng, clock, 150)
		applyRandomOps(c, rng, clock, 150)

		left := crdt.InitLWWDictFrom(a)
		left.MergeWith(b)
		left.MergeWith(c)

		bc := crdt.InitLWWDictFrom(b)
		bc.MergeWith(c)
		right := crdt.InitLWWDictFrom(a)
		right.MergeWith(bc)

		assert.Equal(t, left.CurrentData(), right.CurrentData(), fmt.Sprintf("views diverged for seed %d", seed))
		assert.Equal(t, left.AddedData(), right.AddedData(), fmt.Sprintf("insertion histories diverged for seed %d", seed))
		assert.Equal(t, left.RemovedData(), right.RemovedData(), fmt.Sprintf("removal histories diverged for seed %d", seed))
	}
}

// TestMergeIdempotent checks that repeatedly merging a
// replica with snapshots of itself changes nothing.
func TestMergeIdempotent(t *testing.T) {

	for seed := int64(0); seed < 20; seed++ {

		rng := rand.New(rand.NewSource(seed))
		clock := new(int64)

		d := crdt.InitLWWDict[string, int, int64]()
		applyRandomOps(d, rng, clock, 300)

		addedBefore := d.AddedData()
		removedBefore := d.RemovedData()
		currentBefore := d.CurrentData()

		d.MergeWith(d)
		d.MergeWith(crdt.InitLWWDictFrom(d))
		d.MergeWith(crdt.InitLWWDictFrom(d))

		assert.Equal(t, addedBefore, d.AddedData(), fmt.Sprintf("insertion history changed for seed %d", seed))
		assert.Equal(t, removedBefore, d.RemovedData(), fmt.Sprintf("removal history changed for seed %d", seed))
		assert.Equal(t, currentBefore, d.CurrentData(), fmt.Sprintf("view changed for seed %d", seed))
	}
}

// TestConvergenceAllOrders builds several replicas and
// merges the full set into each of them in a different
// order, expecting every replica to end up with the exact
// same view.
func TestConvergenceAllOrders(t *testing.T) {

	const replicas = 4

	rng := rand.New(rand.NewSource(42))
	clock := new(int64)

	dicts := make([]*crdt.LWWDict[string, int, int64], replicas)
	for i := 0; i < replicas; i++ {
		dicts[i] = crdt.InitLWWDict[string, int, int64]()
		applyRandomOps(dicts[i], rng, clock, 100)
	}

	// Every replica merges in all others, each in a
	// different rotation of the set.
	merged := make([]*crdt.LWWDict[string, int, int64], replicas)
	for i := 0; i < replicas; i++ {

		merged[i] = crdt.InitLWWDictFrom(dicts[i])
		for off := 1; off < replicas; off++ {
			merged[i].MergeWith(dicts[(i+off)%replicas])
		}
	}

	for i := 1; i < replicas; i++ {
		assert.Equal(t, merged[0].CurrentData(), merged[i].CurrentData(), fmt.Sprintf("replica %d diverged", i))
		assert.Equal(t, merged[0].AddedData(), merged[i].AddedData(), fmt.Sprintf("replica %d insertion history diverged", i))
		assert.Equal(t, merged[0].RemovedData(), merged[i].RemovedData(), fmt.Sprintf("replica %d removal history diverged", i))
	}
}
