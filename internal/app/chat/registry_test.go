package chat

import (
	"testing"
)

func TestRegisterTracksOnlineSet(t *testing.T) {
	reg := NewRegistry()

	alice := newTestClient(reg, "alice")
	bob := newTestClient(reg, "bob")

	reg.Register(alice)
	reg.Register(bob)

	if got := reg.OnlineUserIDs(); !equalIDs(got, []string{"alice", "bob"}) {
		t.Fatalf("unexpected online set: %v", got)
	}

	if !reg.Unregister(alice) {
		t.Fatalf("expected unregister of a live handle to report removal")
	}

	if got := reg.OnlineUserIDs(); !equalIDs(got, []string{"bob"}) {
		t.Fatalf("unexpected online set after unregister: %v", got)
	}
}

func TestRegisterReplacesExistingHandle(t *testing.T) {
	reg := NewRegistry()

	h1 := newTestClient(reg, "alice")
	h2 := newTestClient(reg, "alice")

	reg.Register(h1)
	reg.Register(h2)

	if got := reg.Lookup("alice"); got != h2 {
		t.Fatalf("expected newest handle to be registered, got %p want %p", got, h2)
	}

	if got := reg.OnlineUserIDs(); !equalIDs(got, []string{"alice"}) {
		t.Fatalf("replacement must not duplicate the registry entry: %v", got)
	}

	// A stale disconnect must not evict the newer connection.
	if reg.Unregister(h1) {
		t.Fatalf("unregister with a replaced handle must be a no-op")
	}

	if got := reg.Lookup("alice"); got != h2 {
		t.Fatalf("stale unregister evicted the live handle: got %p want %p", got, h2)
	}

	if !reg.Unregister(h2) {
		t.Fatalf("expected unregister of the current handle to report removal")
	}

	if got := reg.Lookup("alice"); got != nil {
		t.Fatalf("expected user offline after unregister, got %p", got)
	}
}

func TestPresenceBroadcastReflectsPostMutationSnapshot(t *testing.T) {
	reg := NewRegistry()

	alice := newTestClient(reg, "alice")
	reg.Register(alice)

	if got := mustPresence(t, alice); !equalIDs(got, []string{"alice"}) {
		t.Fatalf("unexpected presence after first register: %v", got)
	}

	bob := newTestClient(reg, "bob")
	reg.Register(bob)

	if got := mustPresence(t, alice); !equalIDs(got, []string{"alice", "bob"}) {
		t.Fatalf("unexpected presence pushed to alice: %v", got)
	}
	if got := mustPresence(t, bob); !equalIDs(got, []string{"alice", "bob"}) {
		t.Fatalf("unexpected presence pushed to bob: %v", got)
	}

	reg.Unregister(bob)

	if got := mustPresence(t, alice); !equalIDs(got, []string{"alice"}) {
		t.Fatalf("unexpected presence after bob left: %v", got)
	}
}

func TestNoBroadcastWhenOnlineSetUnchanged(t *testing.T) {
	reg := NewRegistry()

	alice := newTestClient(reg, "alice")
	reg.Register(alice)
	mustPresence(t, alice)

	// Unregister of a handle that was never registered changes nothing.
	ghost := newTestClient(reg, "ghost")
	if reg.Unregister(ghost) {
		t.Fatalf("unregister of an unknown handle must be a no-op")
	}
	assertNoEvent(t, alice)

	// Stale unregister after replacement changes nothing either.
	replacement := newTestClient(reg, "alice")
	reg.Register(replacement)
	mustPresence(t, replacement)

	if reg.Unregister(alice) {
		t.Fatalf("stale unregister must be a no-op")
	}
	assertNoEvent(t, replacement)
}

func TestPresenceOrderingPerClient(t *testing.T) {
	reg := NewRegistry()

	observer := newTestClient(reg, "observer")
	reg.Register(observer)
	mustPresence(t, observer)

	names := []string{"u1", "u2", "u3"}
	clients := make([]*Client, 0, len(names))
	for _, name := range names {
		c := newTestClient(reg, name)
		reg.Register(c)
		clients = append(clients, c)
	}

	// The observer sees the online set grow in mutation order.
	want := [][]string{
		{"observer", "u1"},
		{"observer", "u1", "u2"},
		{"observer", "u1", "u2", "u3"},
	}
	for i := range want {
		if got := mustPresence(t, observer); !equalIDs(got, want[i]) {
			t.Fatalf("broadcast %d: got %v, want %v", i, got, want[i])
		}
	}

	for i := len(clients) - 1; i >= 0; i-- {
		reg.Unregister(clients[i])
	}

	wantShrink := [][]string{
		{"observer", "u1", "u2"},
		{"observer", "u1"},
		{"observer"},
	}
	for i := range wantShrink {
		if got := mustPresence(t, observer); !equalIDs(got, wantShrink[i]) {
			t.Fatalf("shrink broadcast %d: got %v, want %v", i, got, wantShrink[i])
		}
	}
}

func TestFullSendQueueUnregistersConnection(t *testing.T) {
	reg := NewRegistry()

	slow := newTestClient(reg, "slow")
	reg.Register(slow)

	// Fill the slow client's outbound queue so the next push fails.
	for slow.enqueue([]byte("{}")) {
	}

	bob := newTestClient(reg, "bob")
	reg.Register(bob)

	// The failed push must not abort delivery to bob, and must evict the
	// stale connection, which triggers a second broadcast.
	if got := mustPresence(t, bob); !equalIDs(got, []string{"bob", "slow"}) {
		t.Fatalf("unexpected first presence for bob: %v", got)
	}
	if got := mustPresence(t, bob); !equalIDs(got, []string{"bob"}) {
		t.Fatalf("expected slow client evicted, got presence %v", got)
	}

	if got := reg.Lookup("slow"); got != nil {
		t.Fatalf("expected slow client unregistered after failed push")
	}
}

func TestPushToOfflineUserIsAMiss(t *testing.T) {
	reg := NewRegistry()

	event, err := NewEvent(EventMessage, MessagePayload{ID: "m1"})
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}

	if reg.PushTo("nobody", event) {
		t.Fatalf("push to an offline user must report a miss")
	}
}

func TestPushToDeliversToRegisteredConnection(t *testing.T) {
	reg := NewRegistry()

	alice := newTestClient(reg, "alice")
	reg.Register(alice)

	event, err := NewEvent(EventMessage, MessagePayload{ID: "m1", Text: "hi"})
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}

	if !reg.PushTo("alice", event) {
		t.Fatalf("expected push to a registered connection to succeed")
	}

	msg := mustMessage(t, alice)
	if msg.ID != "m1" || msg.Text != "hi" {
		t.Fatalf("unexpected pushed message: %+v", msg)
	}
}
