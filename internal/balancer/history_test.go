package balancer

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func rec(id string) RequestRecord { return RequestRecord{RequestID: id} }

func requestIDs(rs []RequestRecord) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.RequestID
	}
	return out
}

func TestHistoryAppendAndEvict(t *testing.T) {
	h := NewHistory(3)
	assert.Equal(t, 3, h.Capacity())
	assert.Empty(t, h.Records())

	h.Append(rec("a"))
	h.Append(rec("b"))
	assert.Equal(t, []string{"a", "b"}, requestIDs(h.Records()))

	h.Append(rec("c"))
	h.Append(rec("d"))
	h.Append(rec("e"))
	assert.Equal(t, []string{"c", "d", "e"}, requestIDs(h.Records()), "oldest evicted first")
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, uint64(5), h.Total())
}

func TestHistoryRecordsIsACopy(t *testing.T) {
	h := NewHistory(2)
	h.Append(rec("a"))

	got := h.Records()
	got[0].RequestID = "mutated"
	assert.Equal(t, "a", h.Records()[0].RequestID)
}

func TestHistoryDefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultHistorySize, NewHistory(0).Capacity())
	assert.Equal(t, DefaultHistorySize, NewHistory(-1).Capacity())
}

func TestHistoryConcurrentAppend(t *testing.T) {
	h := NewHistory(64)
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h.Append(rec(fmt.Sprint(i)))
			_ = h.Records()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 64, h.Len())
	assert.Equal(t, uint64(200), h.Total())
}
