package parallel

import (
	"sync/atomic"
	"testing"
)

func TestForSequential(t *testing.T) {
	cfg := Config{Enabled: false}

	visited := make([]bool, 100)
	For(100, func(i int) { visited[i] = true }, cfg)

	for i, v := range visited {
		if !v {
			t.Errorf("index %d not visited", i)
		}
	}
}

func TestForParallel(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 8}

	var count atomic.Int64
	For(1000, func(i int) { count.Add(1) }, cfg)

	if count.Load() != 1000 {
		t.Errorf("visited %d indices, want 1000", count.Load())
	}
}

func TestForSmallFallsBackToSequential(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 64}

	// n < MinChunkSize runs on the calling goroutine; order is exact.
	var order []int
	For(10, func(i int) { order = append(order, i) }, cfg)

	for i, v := range order {
		if v != i {
			t.Fatalf("order[%d] = %d, want %d", i, v, i)
		}
	}
}

func TestForBatch(t *testing.T) {
	cfg := DefaultConfig()

	const batch, filters = 8, 16
	visited := make([]atomic.Bool, batch*filters)
	ForBatch(batch, filters, func(n, k int) {
		if n < 0 || n >= batch || k < 0 || k >= filters {
			t.Errorf("out of range pair (%d, %d)", n, k)
			return
		}
		visited[n*filters+k].Store(true)
	}, cfg)

	for i := range visited {
		if !visited[i].Load() {
			t.Errorf("pair %d/%d not visited", i/filters, i%filters)
		}
	}
}
