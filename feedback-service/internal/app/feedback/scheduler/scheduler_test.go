package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ids(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("item-%d", i+1)
	}
	return out
}

func identity(s string) string { return s }

func TestRun_ConcurrencyBoundRespected(t *testing.T) {
	var inFlight, highWater atomic.Int32

	op := func(ctx context.Context, item string) error {
		cur := inFlight.Add(1)
		for {
			prev := highWater.Load()
			if cur <= prev || highWater.CompareAndSwap(prev, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return nil
	}

	result := Run(context.Background(), Options{Bound: 5, Source: "test"}, ids(23), identity, op)

	assert.Equal(t, 23, result.Imported)
	assert.LessOrEqual(t, highWater.Load(), int32(5))
	assert.Equal(t, int32(5), highWater.Load())
}

func TestRun_PartialFailureIsolation(t *testing.T) {
	var mu sync.Mutex
	persisted := map[string]bool{}

	op := func(ctx context.Context, item string) error {
		if item == "item-3" {
			return &ItemError{Stage: StageEnrich, ExternalID: item, Err: errors.New("model timeout")}
		}
		mu.Lock()
		persisted[item] = true
		mu.Unlock()
		return nil
	}

	result := Run(context.Background(), Options{Bound: 5, Source: "test"}, ids(10), identity, op)

	assert.Equal(t, 9, result.Imported)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 0, result.Skipped)
	assert.Len(t, persisted, 9)
	assert.False(t, persisted["item-3"])
}

func TestRun_ChunksAreSequential(t *testing.T) {
	var mu sync.Mutex
	var events []string

	record := func(e string) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	}

	op := func(ctx context.Context, item string) error {
		record("start:" + item)
		time.Sleep(2 * time.Millisecond)
		record("end:" + item)
		return nil
	}

	items := ids(7)
	Run(context.Background(), Options{Bound: 3}, items, identity, op)

	position := map[string]int{}
	for i, e := range events {
		position[e] = i
	}

	chunks := [][]string{items[0:3], items[3:6], items[6:7]}
	for c := 1; c < len(chunks); c++ {
		for _, prev := range chunks[c-1] {
			for _, next := range chunks[c] {
				assert.Less(t, position["end:"+prev], position["start:"+next],
					"%s started before %s finished", next, prev)
			}
		}
	}
}

func TestRun_DuplicateCountsAsSkipped(t *testing.T) {
	op := func(ctx context.Context, item string) error {
		if item == "item-2" {
			return fmt.Errorf("persist: %w", ErrDuplicate)
		}
		return nil
	}

	result := Run(context.Background(), Options{}, ids(4), identity, op)

	assert.Equal(t, Result{Imported: 3, Skipped: 1}, result)
}

func TestRun_Empty(t *testing.T) {
	called := false
	result := Run(context.Background(), Options{}, nil, identity, func(context.Context, string) error {
		called = true
		return nil
	})

	assert.Equal(t, Result{}, result)
	assert.False(t, called)
}

func TestItemError(t *testing.T) {
	cause := errors.New("boom")
	err := &ItemError{Stage: StagePersist, ExternalID: "R1", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "persist R1: boom", err.Error())
}
