package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	l := NoopLayoutHooks{}
	l.OnLoad(ctx, "layout.json", 3, time.Millisecond, nil)
	l.OnSave(ctx, "layout.json", 512, nil)
	l.OnEdit(ctx, "swap", time.Millisecond, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "preview")
	c.OnCacheMiss(ctx, "preview")
	c.OnCacheSet(ctx, "preview", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	if _, ok := Layout().(NoopLayoutHooks); !ok {
		t.Error("Layout() should return NoopLayoutHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	layout := &recordingLayoutHooks{}
	SetLayoutHooks(layout)
	if Layout() != layout {
		t.Error("SetLayoutHooks should set custom hooks")
	}
	Layout().OnEdit(context.Background(), "resize", 0, nil)
	if len(layout.edits) != 1 || layout.edits[0] != "resize" {
		t.Errorf("recorded edits = %v", layout.edits)
	}

	cache := &testCacheHooks{}
	SetCacheHooks(cache)
	if Cache() != cache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	Reset()
	if _, ok := Layout().(NoopLayoutHooks); !ok {
		t.Error("Reset() should restore NoopLayoutHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	custom := &recordingLayoutHooks{}
	SetLayoutHooks(custom)
	SetLayoutHooks(nil)
	if Layout() != custom {
		t.Error("SetLayoutHooks(nil) should be ignored")
	}
}

type recordingLayoutHooks struct {
	NoopLayoutHooks
	edits []string
}

func (r *recordingLayoutHooks) OnEdit(_ context.Context, op string, _ time.Duration, _ error) {
	r.edits = append(r.edits, op)
}

type testCacheHooks struct{ NoopCacheHooks }
