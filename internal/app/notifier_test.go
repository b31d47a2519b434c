package app

import (
	"context"
	"testing"

	"github.com/vocably/vocably/internal/core"
)

func TestBroadcastReachesEveryOpenObserver(t *testing.T) {
	reg := NewRegistry()
	a, b, closed := &fakeSignal{}, &fakeSignal{}, &fakeSignal{}
	closed.Close()
	reg.Bind("a", "ct-a", a, nil)
	reg.Bind("b", "ct-b", b, nil)
	reg.Bind("c", "ct-c", closed, nil)

	n := NewDirectNotifier(reg, nil)
	n.Broadcast(core.Snapshot{"R1": 2})

	want := `{"type":"counts","rooms":{"R1":2}}`
	for name, sig := range map[string]*fakeSignal{"a": a, "b": b} {
		frames := sig.Frames()
		if len(frames) != 1 || frames[0] != want {
			t.Fatalf("%s frames = %v, want [%s]", name, frames, want)
		}
	}
	if len(closed.Frames()) != 0 {
		t.Fatalf("closed observer received a frame")
	}
}

func TestKickPolicyCancelsSlowObserver(t *testing.T) {
	reg := NewRegistry()
	slow := &fakeSignal{full: true}
	ctx, cancel := context.WithCancel(context.Background())
	reg.Bind("slow", "ct", slow, cancel)

	NewDirectNotifier(reg, KickPolicy{}).Broadcast(core.Snapshot{"R1": 1})
	if ctx.Err() == nil {
		t.Fatalf("slow observer was not canceled")
	}

	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	reg.Bind("slow2", "ct", &fakeSignal{full: true}, cancel2)
	NewDirectNotifier(reg, LossyPolicy{}).Broadcast(core.Snapshot{"R1": 1})
	if ctx2.Err() != nil {
		t.Fatalf("lossy policy must keep the observer")
	}
}

func TestEmptySnapshotEncodesAsObject(t *testing.T) {
	frame, err := core.EncodeCounts(nil)
	if err != nil {
		t.Fatalf("EncodeCounts: %v", err)
	}
	if string(frame) != `{"type":"counts","rooms":{}}` {
		t.Fatalf("frame = %s", frame)
	}
}

func TestRegistryWatchCounts(t *testing.T) {
	reg := NewRegistry()
	reg.Bind("s1", "", &fakeSignal{}, nil)
	reg.Bind("s2", "", &fakeSignal{}, nil)
	reg.Bind("s3", "", &fakeSignal{}, nil)

	if err := reg.Watch("missing", "R1"); err == nil {
		t.Fatalf("watch on unbound observer should fail")
	}
	_ = reg.Watch("s1", "R1")
	_ = reg.Watch("s2", "R1")
	_ = reg.Watch("s3", "R2")

	if n := reg.WatchCount("R1"); n != 2 {
		t.Fatalf("WatchCount(R1) = %d", n)
	}
	counts := reg.WatchCounts()
	if counts["R1"] != 2 || counts["R2"] != 1 {
		t.Fatalf("WatchCounts = %v", counts)
	}

	if prev, ok := reg.Unwatch("s3"); !ok || prev != "R2" {
		t.Fatalf("Unwatch = %q,%v", prev, ok)
	}
	if room, ok := reg.Unbind("s1"); !ok || room != "R1" {
		t.Fatalf("Unbind = %q,%v", room, ok)
	}
	if n := reg.WatchCount("R1"); n != 1 {
		t.Fatalf("WatchCount after unbind = %d", n)
	}
	if reg.Len() != 2 {
		t.Fatalf("Len = %d", reg.Len())
	}
}
