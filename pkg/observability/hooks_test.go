package observability

import (
	"context"
	"testing"
	"time"
)

type countingOptimizerHooks struct {
	NoopOptimizerHooks
	collects int
	commits  int
}

func (h *countingOptimizerHooks) OnCollectStart(context.Context, int) { h.collects++ }
func (h *countingOptimizerHooks) OnCommit(_ context.Context, _ string, _ bool) {
	h.commits++
}

type countingCacheHooks struct {
	NoopCacheHooks
	hits int
}

func (h *countingCacheHooks) OnCacheHit(context.Context, string) { h.hits++ }

func TestRegistryDispatch(t *testing.T) {
	t.Cleanup(Reset)

	opt := &countingOptimizerHooks{}
	ca := &countingCacheHooks{}
	SetOptimizerHooks(opt)
	SetCacheHooks(ca)

	ctx := context.Background()
	Optimizer().OnCollectStart(ctx, 3)
	Optimizer().OnCommit(ctx, "n1", false)
	Optimizer().OnCommit(ctx, "n2", true)
	Cache().OnCacheHit(ctx, "layout")

	if opt.collects != 1 || opt.commits != 2 {
		t.Errorf("optimizer hooks saw collects=%d commits=%d, want 1 and 2", opt.collects, opt.commits)
	}
	if ca.hits != 1 {
		t.Errorf("cache hooks saw %d hits, want 1", ca.hits)
	}
}

func TestSetNilIgnored(t *testing.T) {
	t.Cleanup(Reset)

	SetOptimizerHooks(nil)
	SetCacheHooks(nil)

	// The no-op defaults must survive and not panic.
	Optimizer().OnLayoutStart(context.Background(), 1, 1)
	Optimizer().OnLayoutComplete(context.Background(), time.Second, true)
	Cache().OnCacheMiss(context.Background(), "layout")
}

func TestReset(t *testing.T) {
	opt := &countingOptimizerHooks{}
	SetOptimizerHooks(opt)
	Reset()

	Optimizer().OnCollectStart(context.Background(), 1)
	if opt.collects != 0 {
		t.Error("Reset() left custom hooks registered")
	}
}
