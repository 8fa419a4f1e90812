package mock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tank-rc/tank/internal/control"
)

type recordingSink struct {
	mu     sync.Mutex
	events []control.Event
}

func (s *recordingSink) Submit(_ context.Context, ev control.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSink) snapshot() []control.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]control.Event(nil), s.events...)
}

func TestGenerator_ConnectsOperatorsOnStart(t *testing.T) {
	sink := &recordingSink{}
	gen := NewGenerator(sink, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	gen.Start(ctx)

	// Start() connects synchronously before launching the run goroutine.
	events := sink.snapshot()
	if len(events) != len(gen.operators) {
		t.Fatalf("got %d events on start, want %d", len(events), len(gen.operators))
	}
	for i, ev := range events {
		if ev.Kind != control.EventConnect || ev.SessionID != gen.operators[i].id {
			t.Errorf("event %d = %+v, want connect of %s", i, ev, gen.operators[i].id)
		}
	}
}

func TestGenerator_ScriptsUseRoutableCommands(t *testing.T) {
	gen := NewGenerator(&recordingSink{}, time.Hour)
	for _, op := range gen.operators {
		for i, s := range op.script {
			if s.command == "" {
				continue
			}
			if _, ok := control.ParseCommand(s.command); !ok {
				t.Errorf("%s step %d: %q is not a routable command", op.pattern, i, s.command)
			}
		}
	}
}

func TestGenerator_AdvanceWrapsAround(t *testing.T) {
	sink := &recordingSink{}
	gen := NewGenerator(sink, time.Hour)
	op := gen.operators[0]

	for i := 0; i < len(op.script)+1; i++ {
		gen.advance(context.Background(), op)
	}
	if op.pos != 1 {
		t.Errorf("pos = %d after a full cycle plus one, want 1", op.pos)
	}
	events := sink.snapshot()
	if len(events) == 0 || events[0].Name != "command:forward:on" {
		t.Errorf("first patrol event = %+v", events)
	}
}

func TestGenerator_DropoutLeavesAndRejoins(t *testing.T) {
	sink := &recordingSink{}
	gen := NewGenerator(sink, time.Hour)

	var dropout *mockOperator
	for _, op := range gen.operators {
		if op.pattern == "dropout" {
			dropout = op
		}
	}
	if dropout == nil {
		t.Fatal("no dropout operator")
	}

	for range dropout.script {
		gen.advance(context.Background(), dropout)
	}

	var joins, leaves int
	for _, ev := range sink.snapshot() {
		switch ev.Kind {
		case control.EventConnect:
			joins++
		case control.EventDisconnect:
			leaves++
		}
	}
	if joins != leaves || joins == 0 {
		t.Errorf("joins = %d leaves = %d, want equal and non-zero", joins, leaves)
	}
}
