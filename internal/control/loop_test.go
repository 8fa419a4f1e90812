package control

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tank-rc/tank/internal/hardware"
	"github.com/tank-rc/tank/internal/session"
	"github.com/tank-rc/tank/internal/vehicle"
)

type sentMessage struct {
	sessionID string
	event     string
	data      any
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (n *recordingNotifier) Send(sessionID, event string, data any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{sessionID, event, data})
}

func (n *recordingNotifier) take() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.sent
	n.sent = nil
	return out
}

type harness struct {
	loop     *Loop
	sim      *hardware.Sim
	notifier *recordingNotifier
	registry *session.Registry
	motion   *vehicle.Controller
}

func newHarness() *harness {
	sim := hardware.NewSim(false)
	reg := session.NewRegistry()
	motion := vehicle.NewController(sim)
	n := &recordingNotifier{}
	loop := NewLoop(reg, motion, sim, n, 16)
	loop.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return &harness{loop: loop, sim: sim, notifier: n, registry: reg, motion: motion}
}

func (h *harness) assertMotors(t *testing.T, left, right vehicle.Pair) {
	t.Helper()
	if got := h.sim.Motor(vehicle.MotorLeft); got != left {
		t.Errorf("left motor = %+v, want %+v", got, left)
	}
	if got := h.sim.Motor(vehicle.MotorRight); got != right {
		t.Errorf("right motor = %+v, want %+v", got, right)
	}
}

// assertUsersCount checks that every listed session, and only those,
// received usersCount with the given total.
func assertUsersCount(t *testing.T, sent []sentMessage, total int, sessions ...string) {
	t.Helper()
	got := make(map[string]bool)
	for _, m := range sent {
		if m.event != EventUsersCount {
			continue
		}
		p, ok := m.data.(UsersCountPayload)
		if !ok {
			t.Fatalf("usersCount payload has type %T", m.data)
		}
		if p.TotalUsers != total {
			t.Errorf("usersCount to %s = %d, want %d", m.sessionID, p.TotalUsers, total)
		}
		got[m.sessionID] = true
	}
	if len(got) != len(sessions) {
		t.Errorf("usersCount sent to %v, want %v", got, sessions)
	}
	for _, id := range sessions {
		if !got[id] {
			t.Errorf("session %s did not receive usersCount", id)
		}
	}
}

var (
	hi = vehicle.High
	lo = vehicle.Low
)

func TestScenarioTwoOperators(t *testing.T) {
	h := newHarness()

	h.loop.Handle(Connect("A", "10.0.0.2:1"))
	assertUsersCount(t, h.notifier.take(), 1, "A")
	if !h.sim.AnyConnected() {
		t.Error("indicator should show users present after A connects")
	}

	h.loop.Handle(Connect("B", "10.0.0.3:1"))
	assertUsersCount(t, h.notifier.take(), 2, "A", "B")

	h.loop.Handle(CommandEvent("A", "command:forward:on"))
	h.assertMotors(t, vehicle.Pair{V1: hi, V2: lo}, vehicle.Pair{V1: hi, V2: lo})

	h.loop.Handle(CommandEvent("B", "command:left:on"))
	h.assertMotors(t, vehicle.Pair{V1: lo, V2: hi}, vehicle.Pair{V1: hi, V2: lo})

	h.loop.Handle(Disconnect("A"))
	assertUsersCount(t, h.notifier.take(), 1, "B")
	if h.motion.Intent() != vehicle.RotateLeft {
		t.Errorf("intent = %s after A left, want rotate_left (no brake while B remains)", h.motion.Intent())
	}
	if !h.sim.AnyConnected() {
		t.Error("indicator should still show users present")
	}

	h.loop.Handle(Disconnect("B"))
	assertUsersCount(t, h.notifier.take(), 0)
	if h.sim.AnyConnected() {
		t.Error("indicator should show no users after last disconnect")
	}
	h.assertMotors(t, vehicle.Pair{V1: lo, V2: lo}, vehicle.Pair{V1: lo, V2: lo})
	if h.motion.Intent() != vehicle.Brake {
		t.Errorf("intent = %s, want brake", h.motion.Intent())
	}
}

func TestCommandMapping(t *testing.T) {
	tests := []struct {
		name        string
		left, right vehicle.Pair
		intent      vehicle.Intent
	}{
		{"command:forward:on", vehicle.Pair{V1: hi, V2: lo}, vehicle.Pair{V1: hi, V2: lo}, vehicle.Forward},
		{"command:reverse:on", vehicle.Pair{V1: lo, V2: hi}, vehicle.Pair{V1: lo, V2: hi}, vehicle.Reverse},
		{"command:left:on", vehicle.Pair{V1: lo, V2: hi}, vehicle.Pair{V1: hi, V2: lo}, vehicle.RotateLeft},
		{"command:right:on", vehicle.Pair{V1: hi, V2: lo}, vehicle.Pair{V1: lo, V2: hi}, vehicle.RotateRight},
		{"command:forward:off", vehicle.Pair{V1: lo, V2: lo}, vehicle.Pair{V1: lo, V2: lo}, vehicle.Brake},
		{"command:reverse:off", vehicle.Pair{V1: lo, V2: lo}, vehicle.Pair{V1: lo, V2: lo}, vehicle.Brake},
		{"command:left:off", vehicle.Pair{V1: lo, V2: lo}, vehicle.Pair{V1: lo, V2: lo}, vehicle.Brake},
		{"command:right:off", vehicle.Pair{V1: lo, V2: lo}, vehicle.Pair{V1: lo, V2: lo}, vehicle.Brake},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.loop.Handle(Connect("A", ""))
			// Start from a moving state so every off command is observable.
			h.loop.Handle(CommandEvent("A", "command:reverse:on"))

			h.loop.Handle(CommandEvent("A", tt.name))
			h.assertMotors(t, tt.left, tt.right)
			if h.motion.Intent() != tt.intent {
				t.Errorf("intent = %s, want %s", h.motion.Intent(), tt.intent)
			}
		})
	}
}

func TestUnknownEventsIgnored(t *testing.T) {
	h := newHarness()
	h.loop.Handle(Connect("A", ""))
	h.loop.Handle(CommandEvent("A", "command:forward:on"))
	h.notifier.take()
	writes := h.sim.Writes()

	for _, name := range []string{
		"",
		"forward",
		"command:forward",
		"command:forward:maybe",
		"command:up:on",
		"command:forward:on:extra",
		"signal:received",
	} {
		h.loop.Handle(CommandEvent("A", name))
	}

	if h.sim.Writes() != writes {
		t.Errorf("unknown events wrote to the actuator (%d -> %d)", writes, h.sim.Writes())
	}
	if h.motion.Intent() != vehicle.Forward {
		t.Errorf("intent = %s, want forward", h.motion.Intent())
	}
	if sent := h.notifier.take(); len(sent) != 0 {
		t.Errorf("unknown events produced notifications: %v", sent)
	}
}

func TestCommandFromUnregisteredSessionDropped(t *testing.T) {
	h := newHarness()
	h.loop.Handle(Connect("A", ""))
	h.loop.Handle(Disconnect("A"))

	h.loop.Handle(CommandEvent("A", "command:forward:on"))
	h.loop.Handle(CommandEvent("ghost", "command:right:on"))

	h.assertMotors(t, vehicle.Pair{V1: lo, V2: lo}, vehicle.Pair{V1: lo, V2: lo})
	if h.motion.Intent() != vehicle.Brake {
		t.Errorf("intent = %s, want brake", h.motion.Intent())
	}
}

func TestDuplicateConnectNotDoubleCounted(t *testing.T) {
	h := newHarness()
	h.loop.Handle(Connect("A", ""))
	h.notifier.take()

	h.loop.Handle(Connect("A", ""))
	if h.registry.Count() != 1 {
		t.Errorf("Count() = %d, want 1", h.registry.Count())
	}
	if sent := h.notifier.take(); len(sent) != 0 {
		t.Errorf("duplicate connect announced: %v", sent)
	}
}

func TestDisconnectUnknownStillBrakesAtZero(t *testing.T) {
	h := newHarness()
	h.sim.SetMotor(vehicle.MotorLeft, hi, lo)
	h.sim.SetAnyConnected(true)

	h.loop.Handle(Disconnect("never-connected"))

	h.assertMotors(t, vehicle.Pair{V1: lo, V2: lo}, vehicle.Pair{V1: lo, V2: lo})
	if h.sim.AnyConnected() {
		t.Error("indicator should show no users")
	}
}

func TestSignalReceived(t *testing.T) {
	h := newHarness()
	h.loop.Handle(Connect("A", ""))
	h.loop.Handle(Connect("B", ""))
	h.notifier.take()

	h.loop.Handle(Signal(""))
	h.loop.Handle(Signal("hello"))

	sent := h.notifier.take()
	if len(sent) != 4 {
		t.Fatalf("sent %d messages, want 4", len(sent))
	}
	for i, m := range sent {
		if m.event != EventSignalReceived {
			t.Errorf("message %d event = %q", i, m.event)
		}
		p := m.data.(SignalReceivedPayload)
		if p.Date != 1700000000000 {
			t.Errorf("message %d date = %d", i, p.Date)
		}
		want := DefaultSignalMessage
		if i >= 2 {
			want = "hello"
		}
		if p.Value != want {
			t.Errorf("message %d value = %q, want %q", i, p.Value, want)
		}
	}
}

func TestBrakeIdempotent(t *testing.T) {
	h := newHarness()
	h.loop.Handle(Connect("A", ""))
	for i := 0; i < 5; i++ {
		h.loop.Handle(CommandEvent("A", "command:forward:off"))
		h.assertMotors(t, vehicle.Pair{V1: lo, V2: lo}, vehicle.Pair{V1: lo, V2: lo})
	}
}

func TestRunProcessesInOrderAndStopsSafely(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(context.Background())

	finished := make(chan struct{})
	go func() {
		h.loop.Run(ctx)
		close(finished)
	}()

	submit := func(ev Event) {
		t.Helper()
		if err := h.loop.Submit(ctx, ev); err != nil {
			t.Fatalf("Submit(%v): %v", ev.Kind, err)
		}
	}
	submit(Connect("A", ""))
	submit(CommandEvent("A", "command:forward:on"))
	submit(CommandEvent("A", "command:right:on"))

	st, err := h.loop.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.TotalUsers != 1 || !st.AnyConnected || st.Intent != vehicle.RotateRight {
		t.Errorf("Status = %+v, want 1 user rotating right", st)
	}

	cancel()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	h.assertMotors(t, vehicle.Pair{V1: lo, V2: lo}, vehicle.Pair{V1: lo, V2: lo})
	if h.sim.AnyConnected() {
		t.Error("indicator should show no users after shutdown")
	}

	err = h.loop.Submit(context.Background(), Connect("B", ""))
	if !errors.Is(err, ErrLoopStopped) {
		t.Errorf("Submit after stop = %v, want ErrLoopStopped", err)
	}
	if _, err := h.loop.Status(context.Background()); !errors.Is(err, ErrLoopStopped) {
		t.Errorf("Status after stop = %v, want ErrLoopStopped", err)
	}
}

func TestSubmitHonorsContext(t *testing.T) {
	h := newHarness()
	h.loop.events = make(chan Event, 1)
	h.loop.events <- Connect("filler", "")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := h.loop.Submit(ctx, Connect("A", ""))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Submit on full queue = %v, want DeadlineExceeded", err)
	}
}

func TestConcurrentSubmitters(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.loop.Run(ctx)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", i)
			h.loop.Submit(ctx, Connect(id, ""))
			h.loop.Submit(ctx, CommandEvent(id, "command:forward:on"))
		}(i)
	}
	wg.Wait()

	st, err := h.loop.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalUsers != n {
		t.Errorf("TotalUsers = %d, want %d", st.TotalUsers, n)
	}
	if st.Intent != vehicle.Forward {
		t.Errorf("Intent = %s, want forward", st.Intent)
	}
}
