package main

import (
	"fmt"
	"math/rand"
	"reflect"
	"sync"

	"github.com/dmarkfer/CRDT-LWW/config"
	"github.com/dmarkfer/CRDT-LWW/crdt"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/satori/go.uuid"
)

// Structs

// replica bundles one dictionary instance with the
// identity it acts under during a simulation run.
type replica struct {
	id   string
	dict *crdt.LWWDict[string, int, int64]
}

// Functions

// initReplicas returns the requested number of empty,
// uniquely identified dictionary replicas.
func initReplicas(num int) []*replica {

	replicas := make([]*replica, num)

	for i := 0; i < num; i++ {
		replicas[i] = &replica{
			id:   uuid.NewV4().String(),
			dict: crdt.InitLWWDict[string, int, int64](),
		}
	}

	return replicas
}

// applyOps drives one replica with its deterministic
// stream of insertion and removal operations. Timestamps
// are interleaved Lamport counters: strictly increasing
// per replica and globally unique across all replicas, so
// no two events of a run ever tie.
func applyOps(r *replica, index int, num int, sim config.Simulation, m *DictMetrics) {

	rng := rand.New(rand.NewSource(sim.Seed + int64(index)))

	for step := 0; step < sim.OpsPerReplica; step++ {

		ts := (int64(step) * int64(num)) + int64(index) + 1

		k := fmt.Sprintf("key-%d", rng.Intn(sim.KeySpace))
		v := rng.Intn(sim.ValueSpace)

		if rng.Float64() < sim.RemoveShare {
			r.dict.RemoveElement(k, v, ts)
			m.Simulation.Removes.Add(1)
		} else {
			r.dict.AddElement(k, v, ts)
			m.Simulation.Adds.Add(1)
		}
	}
}

// runSimulation runs independent operation streams against
// a set of replicas, merges every replica with snapshots of
// all others in a per-replica rotated order and verifies
// that all replicas expose the exact same view afterwards.
// It returns the number of replicas that diverged.
func runSimulation(logger log.Logger, sim config.Simulation, m *DictMetrics) int {

	replicas := initReplicas(sim.Replicas)

	// Phase one: all replicas apply their operation
	// streams concurrently and in isolation.
	wg := new(sync.WaitGroup)
	wg.Add(len(replicas))

	for i, r := range replicas {

		go func(r *replica, i int) {
			defer wg.Done()
			applyOps(r, i, len(replicas), sim, m)
		}(r, i)
	}

	wg.Wait()

	level.Debug(logger).Log(
		"msg", "operation streams applied",
		"replicas", len(replicas),
		"ops_per_replica", sim.OpsPerReplica,
	)

	// Phase two: exchange state. Snapshots taken up front
	// play the part of received state transfer messages and
	// keep the live instances free for merging.
	snapshots := make([]*crdt.LWWDict[string, int, int64], len(replicas))
	for i, r := range replicas {
		snapshots[i] = crdt.InitLWWDictFrom(r.dict)
	}

	wg.Add(len(replicas))

	for i, r := range replicas {

		go func(r *replica, i int) {
			defer wg.Done()

			// Every replica merges in the full set, each
			// one in a different rotation, so a convergent
			// outcome cannot depend on merge order.
			for off := 1; off < len(replicas); off++ {
				r.dict.MergeWith(snapshots[(i+off)%len(replicas)])
				m.Simulation.Merges.Add(1)
			}
		}(r, i)
	}

	wg.Wait()

	// Phase three: verify all replicas arrived at the
	// same view.
	views := make([]map[string]crdt.Event[int, int64], len(replicas))
	for i, r := range replicas {
		views[i] = r.dict.CurrentData()
	}

	divergent := 0
	for i := 1; i < len(views); i++ {

		if !reflect.DeepEqual(views[0], views[i]) {
			divergent++
			level.Warn(logger).Log(
				"msg", "replica view diverged",
				"replica", replicas[i].id,
				"view_size", len(views[i]),
				"expected_size", len(views[0]),
			)
		}
	}

	m.Simulation.ConvergedReplicas.Set(float64(len(replicas) - divergent))

	// Sample the merged state once per key so a run also
	// exercises the read path.
	present := 0
	for n := 0; n < sim.KeySpace; n++ {

		if _, found := replicas[0].dict.GetValueByKey(fmt.Sprintf("key-%d", n)); found {
			present++
		}
		m.Simulation.Lookups.Add(1)
	}

	level.Info(logger).Log(
		"msg", "simulation finished",
		"replicas", len(replicas),
		"divergent", divergent,
		"visible_keys", present,
		"key_space", sim.KeySpace,
		"view_size", len(views[0]),
	)

	return divergent
}
