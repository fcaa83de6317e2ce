package core

import (
	"testing"

	"github.com/okravchenko/tidechat-server/internal/log"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry(log.Disabled())
	c := userClient(1, "alice")

	if r.IsOnline(1) {
		t.Fatal("user should be offline before register")
	}

	if first := r.Register(c); !first {
		t.Fatal("expected first register to report first handle")
	}
	if got := r.Lookup(1); got != c {
		t.Fatalf("lookup returned %v, want %v", got, c)
	}
	if !r.IsOnline(1) {
		t.Fatal("user should be online after register")
	}

	if last := r.Unregister(c); !last {
		t.Fatal("expected unregister of only handle to report last")
	}
	if r.IsOnline(1) {
		t.Fatal("user should be offline after last unregister")
	}
	if r.Lookup(1) != nil {
		t.Fatal("lookup should return nil after unregister")
	}
}

func TestRegistryMultipleHandles(t *testing.T) {
	r := NewRegistry(log.Disabled())
	c1 := userClient(1, "alice")
	c2 := userClient(1, "alice")

	if first := r.Register(c1); !first {
		t.Fatal("first handle should report first")
	}
	if first := r.Register(c2); first {
		t.Fatal("second handle must not report first")
	}

	if got := len(r.Handles(1)); got != 2 {
		t.Fatalf("expected 2 handles, got %d", got)
	}

	if last := r.Unregister(c1); last {
		t.Fatal("unregister with another live handle must not report last")
	}
	if !r.IsOnline(1) {
		t.Fatal("user still has a live handle, should be online")
	}
	if got := r.Lookup(1); got != c2 {
		t.Fatalf("lookup should fall back to the remaining handle, got %v", got)
	}

	if last := r.Unregister(c2); !last {
		t.Fatal("unregister of final handle should report last")
	}
}

func TestRegistryUnregisterIdempotent(t *testing.T) {
	r := NewRegistry(log.Disabled())
	c := userClient(1, "alice")

	r.Register(c)
	if last := r.Unregister(c); !last {
		t.Fatal("expected last on first unregister")
	}
	if last := r.Unregister(c); last {
		t.Fatal("second unregister must be a no-op")
	}
}

func TestRegistrySkipsAnonymous(t *testing.T) {
	r := NewRegistry(log.Disabled())
	c := anonymousClient()

	if first := r.Register(c); first {
		t.Fatal("anonymous register must be skipped")
	}
	if r.IsOnline(AnonymousUserID) {
		t.Fatal("anonymous identity must never be online")
	}
}
