package balancer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/solvernet/internal/cluster"
)

func candidate(id string, mem, cpu float64) Candidate {
	return Candidate{
		Member: Member{Info: cluster.WorkerInfo{ID: id}},
		Status: cluster.StatusResponse{MemoryAvailableMB: mem, CPULoad: cpu},
	}
}

func ids(cs []Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Member.Info.ID
	}
	return out
}

func TestRank(t *testing.T) {
	tests := []struct {
		name string
		in   []Candidate
		want []string
	}{
		{
			name: "memory first then cpu",
			in:   []Candidate{candidate("A", 500, 0.2), candidate("B", 800, 0.5), candidate("C", 800, 0.1)},
			want: []string{"C", "B", "A"},
		},
		{
			name: "memory dominates cpu",
			in:   []Candidate{candidate("A", 100, 0.0), candidate("B", 101, 9.9)},
			want: []string{"B", "A"},
		},
		{
			name: "full tie keeps roster order",
			in:   []Candidate{candidate("A", 800, 0.3), candidate("B", 800, 0.3), candidate("C", 800, 0.3)},
			want: []string{"A", "B", "C"},
		},
		{
			name: "single",
			in:   []Candidate{candidate("A", 1, 1)},
			want: []string{"A"},
		},
		{
			name: "empty",
			in:   []Candidate{},
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Rank(tt.in)
			assert.Equal(t, tt.want, ids(tt.in))
		})
	}
}

func TestRanked(t *testing.T) {
	cs := []Candidate{candidate("C", 800, 0.1), candidate("A", 500, 0.2)}
	got := Ranked(cs)
	require.Len(t, got, 2)
	assert.Equal(t, cluster.RankedWorker{ID: "C", MemoryAvailableMB: 800, CPULoad: 0.1}, got[0])
	assert.Equal(t, cluster.RankedWorker{ID: "A", MemoryAvailableMB: 500, CPULoad: 0.2}, got[1])

	assert.NotNil(t, Ranked(nil))
}
