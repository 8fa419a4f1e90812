package mock

import (
	"context"
	"log"
	"time"

	"github.com/tank-rc/tank/internal/control"
)

// step is one scripted action of a mock operator. An empty command with
// leave set disconnects; with join set it connects.
type step struct {
	join    bool
	leave   bool
	command string
}

type mockOperator struct {
	id      string
	pattern string
	script  []step
	pos     int
}

// Sink is where generated events go; the control loop satisfies it.
type Sink interface {
	Submit(ctx context.Context, ev control.Event) error
}

// Generator replays scripted operators against the control loop so the
// pipeline can be exercised on the bench without browsers or hardware.
type Generator struct {
	sink      Sink
	tick      time.Duration
	operators []*mockOperator
}

func NewGenerator(sink Sink, tick time.Duration) *Generator {
	return &Generator{
		sink: sink,
		tick: tick,
		operators: []*mockOperator{
			{id: "mock-patrol", pattern: "patrol", script: patrol()},
			{id: "mock-spinner", pattern: "spinner", script: spinner()},
			{id: "mock-dropout", pattern: "dropout", script: dropout()},
		},
	}
}

// Start joins every operator synchronously, then advances the scripts on a
// ticker until ctx is cancelled.
func (g *Generator) Start(ctx context.Context) {
	for _, op := range g.operators {
		g.submit(ctx, control.Connect(op.id, "mock"))
	}
	go g.run(ctx)
}

func (g *Generator) run(ctx context.Context) {
	ticker := time.NewTicker(g.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, op := range g.operators {
				g.advance(ctx, op)
			}
		}
	}
}

func (g *Generator) advance(ctx context.Context, op *mockOperator) {
	if len(op.script) == 0 {
		return
	}
	s := op.script[op.pos]
	op.pos = (op.pos + 1) % len(op.script)

	switch {
	case s.leave:
		g.submit(ctx, control.Disconnect(op.id))
	case s.join:
		g.submit(ctx, control.Connect(op.id, "mock"))
	case s.command != "":
		g.submit(ctx, control.CommandEvent(op.id, s.command))
	}
}

func (g *Generator) submit(ctx context.Context, ev control.Event) {
	if err := g.sink.Submit(ctx, ev); err != nil && ctx.Err() == nil {
		log.Printf("mock: submit %s for %s: %v", ev.Kind, ev.SessionID, err)
	}
}

func cmd(name string) step { return step{command: name} }

// patrol drives a square: forward, pause, rotate right, pause.
func patrol() []step {
	return []step{
		cmd("command:forward:on"), {}, {}, cmd("command:forward:off"),
		cmd("command:right:on"), cmd("command:right:off"), {},
	}
}

// spinner alternates rotations with long idle gaps, occasionally
// overriding whoever else is driving.
func spinner() []step {
	return []step{
		{}, {}, cmd("command:left:on"), {}, cmd("command:left:off"),
		{}, {}, {}, cmd("command:reverse:on"), cmd("command:reverse:off"),
	}
}

// dropout keeps reconnecting, sometimes mid-command.
func dropout() []step {
	return []step{
		{}, cmd("command:forward:on"), {leave: true}, {}, {join: true},
		{}, {}, {}, {leave: true}, {join: true},
	}
}
