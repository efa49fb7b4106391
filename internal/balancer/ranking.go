package balancer

import (
	"cmp"

	"golang.org/x/exp/slices"

	"github.com/dreamware/solvernet/internal/cluster"
)

// Candidate is a roster member together with the snapshot it just returned.
type Candidate struct {
	Member Member
	Status cluster.StatusResponse
}

// compareCandidates orders by available memory descending, then CPU load
// ascending.
func compareCandidates(a, b Candidate) int {
	if c := cmp.Compare(b.Status.MemoryAvailableMB, a.Status.MemoryAvailableMB); c != 0 {
		return c
	}
	return cmp.Compare(a.Status.CPULoad, b.Status.CPULoad)
}

// Rank sorts candidates in place, best first. The sort is stable, so workers
// that tie on both memory and CPU keep their roster order.
//
// Example:
//
//	A{mem=500, cpu=0.2}, B{mem=800, cpu=0.5}, C{mem=800, cpu=0.1}
//	Rank -> C, B, A
func Rank(candidates []Candidate) {
	slices.SortStableFunc(candidates, compareCandidates)
}

// Ranked converts already-ranked candidates into broadcast entries.
func Ranked(candidates []Candidate) []cluster.RankedWorker {
	out := make([]cluster.RankedWorker, len(candidates))
	for i, c := range candidates {
		out[i] = cluster.RankedWorker{
			ID:                c.Member.Info.ID,
			MemoryAvailableMB: c.Status.MemoryAvailableMB,
			CPULoad:           c.Status.CPULoad,
		}
	}
	return out
}
