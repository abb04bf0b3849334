package uf

import "github.com/crillab/gophersat-smt/sat"

// snapshot is the theory state captured right before one ProcessAssignment
// call, so ConflictRecovery can restore the exact state after re-asserting
// any earlier prefix of the trail.
type snapshot struct {
	graph      *congruenceGraph
	activeNeqs []neqPair
	trail      []sat.IntLit
	processed  map[int]bool
	propQueue  []sat.IntLit
	queued     map[sat.IntLit]bool
}

func (th *Theory) snapshot() *snapshot {
	processed := make(map[int]bool, len(th.processed))
	for k, v := range th.processed {
		processed[k] = v
	}
	queued := make(map[sat.IntLit]bool, len(th.queued))
	for k, v := range th.queued {
		queued[k] = v
	}
	return &snapshot{
		graph:      th.graph.clone(),
		activeNeqs: append([]neqPair(nil), th.activeNeqs...),
		trail:      append([]sat.IntLit(nil), th.trail...),
		processed:  processed,
		propQueue:  append([]sat.IntLit(nil), th.propQueue...),
		queued:     queued,
	}
}

// ConflictRecovery restores state to the snapshot taken just before the
// trail reached len(survivors) entries. survivors is always a prefix of
// the original trail, since both the SAT core and this theory grow their
// trails in lockstep and backjump only ever discards a trailing suffix.
// snapshots[i] was captured with a trail of length i (right before the
// (i+1)-th ProcessAssignment call), so it is exactly the state to restore
// for a surviving trail of length i.
func (th *Theory) ConflictRecovery(survivors []sat.IntLit) {
	k := len(survivors)
	if k == len(th.trail) {
		return
	}
	if k == 0 {
		th.Reset()
		return
	}
	snap := th.snapshots[k]
	th.graph = snap.graph
	th.activeNeqs = append([]neqPair(nil), snap.activeNeqs...)
	th.trail = append([]sat.IntLit(nil), snap.trail...)
	th.processed = snap.processed
	th.propQueue = append([]sat.IntLit(nil), snap.propQueue...)
	th.queued = snap.queued
	th.snapshots = th.snapshots[:k]
}
