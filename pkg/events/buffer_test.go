package events

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferEvictsOldest(t *testing.T) {
	b := NewBuffer[int](3)
	for i := 1; i <= 5; i++ {
		b.Append(i)
	}

	assert.Equal(t, []int{3, 4, 5}, b.ReadAll(false))
	assert.Equal(t, 3, b.Len())
}

func TestBufferCapacityNeverExceeded(t *testing.T) {
	b := NewBuffer[int](1000)
	for i := 0; i < 1001; i++ {
		b.Append(i)
	}

	got := b.ReadAll(false)
	require.Len(t, got, 1000)
	assert.Equal(t, 1, got[0], "first record should have been evicted")
	assert.Equal(t, 1000, got[999])
}

func TestBufferReadAllClear(t *testing.T) {
	b := NewBuffer[string](10)
	b.Append("a")
	b.Append("b")

	assert.Equal(t, []string{"a", "b"}, b.ReadAll(true))
	assert.Empty(t, b.ReadAll(false))
	assert.Equal(t, 0, b.Len())
}

func TestBufferSnapshotIsCopy(t *testing.T) {
	b := NewBuffer[string](10)
	b.Append("a")

	snap := b.ReadAll(false)
	snap[0] = "mutated"

	assert.Equal(t, []string{"a"}, b.ReadAll(false))
}

func TestBufferSetCapacityShrinks(t *testing.T) {
	b := NewBuffer[int](10)
	for i := 0; i < 10; i++ {
		b.Append(i)
	}

	b.SetCapacity(4)
	assert.Equal(t, []int{6, 7, 8, 9}, b.ReadAll(false))
	assert.Equal(t, 4, b.Capacity())

	b.SetCapacity(0)
	assert.Equal(t, DefaultCapacity, b.Capacity())
}

func TestBufferQuery(t *testing.T) {
	b := NewBuffer[int](20)
	for i := 1; i <= 10; i++ {
		b.Append(i)
	}
	even := func(n int) bool { return n%2 == 0 }

	tests := []struct {
		name  string
		match func(int) bool
		limit int
		want  []int
	}{
		{name: "all", want: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
		{name: "filtered", match: even, want: []int{2, 4, 6, 8, 10}},
		{name: "most recent limit", match: even, limit: 2, want: []int{8, 10}},
		{name: "limit larger than matches", match: even, limit: 50, want: []int{2, 4, 6, 8, 10}},
		{name: "no matches", match: func(int) bool { return false }, want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.Query(tt.match, tt.limit, false))
		})
	}

	b.Query(even, 1, true)
	assert.Equal(t, 0, b.Len(), "clear empties the whole buffer")
}

func TestBufferConcurrentReadClearLosesNothing(t *testing.T) {
	const writers, perWriter = 4, 500
	b := NewBuffer[string](writers * perWriter)

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				b.Append(fmt.Sprintf("%d-%d", w, i))
			}
		}(w)
	}

	seen := make(map[string]int)
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	drain := func() {
		for _, s := range b.ReadAll(true) {
			seen[s]++
		}
	}
	for {
		select {
		case <-done:
			drain()
			assert.Len(t, seen, writers*perWriter)
			for k, n := range seen {
				assert.Equal(t, 1, n, "record %s returned more than once", k)
			}
			return
		default:
			drain()
		}
	}
}
