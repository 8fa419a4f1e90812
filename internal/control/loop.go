// Package control runs the connection-to-actuator pipeline. A single
// goroutine consumes transport events in arrival order and is the only
// writer of the session registry and the motion intent, so the most
// recently processed command from any session always wins.
package control

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/tank-rc/tank/internal/session"
	"github.com/tank-rc/tank/internal/vehicle"
)

var ErrLoopStopped = errors.New("control loop stopped")

// Status is a point-in-time view of the pipeline for the HTTP API.
type Status struct {
	TotalUsers   int            `json:"totalUsers"`
	Intent       vehicle.Intent `json:"intent"`
	AnyConnected bool           `json:"anyConnected"`
}

type Loop struct {
	registry  *session.Registry
	motion    *vehicle.Controller
	indicator vehicle.IndicatorPort
	notifier  Notifier
	now       func() time.Time

	events chan Event
	done   chan struct{}
}

func NewLoop(registry *session.Registry, motion *vehicle.Controller, indicator vehicle.IndicatorPort, notifier Notifier, queueSize int) *Loop {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Loop{
		registry:  registry,
		motion:    motion,
		indicator: indicator,
		notifier:  notifier,
		now:       time.Now,
		events:    make(chan Event, queueSize),
		done:      make(chan struct{}),
	}
}

// Run processes events until ctx is cancelled, then brakes and switches the
// indicator to "no users" before returning.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	defer l.stopVehicle()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-l.events:
			l.Handle(ev)
		}
	}
}

// Submit queues ev for the loop. It blocks while the queue is full.
func (l *Loop) Submit(ctx context.Context, ev Event) error {
	select {
	case <-l.done:
		return ErrLoopStopped
	default:
	}

	select {
	case l.events <- ev:
		return nil
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status asks the loop for a snapshot, ordered after every event already
// submitted.
func (l *Loop) Status(ctx context.Context) (Status, error) {
	reply := make(chan Status, 1)
	if err := l.Submit(ctx, Event{Kind: eventStatus, reply: reply}); err != nil {
		return Status{}, err
	}
	select {
	case st := <-reply:
		return st, nil
	case <-l.done:
		return Status{}, ErrLoopStopped
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}
}

// Handle processes one event to completion. Run is its only caller outside
// tests.
func (l *Loop) Handle(ev Event) {
	switch ev.Kind {
	case EventConnect:
		l.handleConnect(ev)
	case EventDisconnect:
		l.handleDisconnect(ev)
	case EventCommand:
		l.dispatch(ev)
	case EventSignal:
		l.signalReceived(ev.Name)
	case eventStatus:
		ev.reply <- l.status()
	}
}

func (l *Loop) handleConnect(ev Event) {
	err := l.registry.Add(session.Session{
		ID:          ev.SessionID,
		RemoteAddr:  ev.RemoteAddr,
		ConnectedAt: l.now(),
	})
	if err != nil {
		log.Printf("connect %s ignored: %v", ev.SessionID, err)
		return
	}
	log.Printf("New connection to session: %s", ev.SessionID)
	l.announceCount()
}

func (l *Loop) handleDisconnect(ev Event) {
	if _, ok := l.registry.Remove(ev.SessionID); ok {
		log.Printf("Session disconnected: %s", ev.SessionID)
		l.announceCount()
	} else {
		log.Printf("disconnect of unknown session %s ignored", ev.SessionID)
	}
	l.checkZero()
}

func (l *Loop) dispatch(ev Event) {
	cmd, ok := ParseCommand(ev.Name)
	if !ok {
		return
	}
	if !l.registry.Has(ev.SessionID) {
		log.Printf("command %s from unregistered session %s dropped", cmd, ev.SessionID)
		return
	}

	switch cmd.Intent() {
	case vehicle.Forward:
		l.motion.Forward()
	case vehicle.Reverse:
		l.motion.Reverse()
	case vehicle.RotateLeft:
		l.motion.RotateLeft()
	case vehicle.RotateRight:
		l.motion.RotateRight()
	case vehicle.Brake:
		l.motion.Brake()
	}
	log.Printf("command received from %s --> %s", ev.SessionID, cmd)
}

// announceCount pushes the live count to every session, then updates the
// indicator.
func (l *Loop) announceCount() {
	count := l.registry.Count()
	l.broadcast(EventUsersCount, UsersCountPayload{TotalUsers: count})
	l.updateIndicator(count)
}

// checkZero brakes when no operator is left. It does not depend on any
// fan-out having succeeded.
func (l *Loop) checkZero() {
	count := l.registry.Count()
	if count != 0 {
		return
	}
	l.motion.Brake()
	l.updateIndicator(count)
}

func (l *Loop) signalReceived(message string) {
	if message == "" {
		message = DefaultSignalMessage
	}
	l.broadcast(EventSignalReceived, SignalReceivedPayload{
		Date:  l.now().UnixMilli(),
		Value: message,
	})
}

func (l *Loop) broadcast(event string, data any) {
	for _, id := range l.registry.IDs() {
		l.notifier.Send(id, event, data)
	}
}

func (l *Loop) updateIndicator(count int) {
	l.indicator.SetAnyConnected(count > 0)
	if count == 0 {
		log.Println("Awaiting users to join...")
	}
}

func (l *Loop) status() Status {
	count := l.registry.Count()
	return Status{
		TotalUsers:   count,
		Intent:       l.motion.Intent(),
		AnyConnected: count > 0,
	}
}

func (l *Loop) stopVehicle() {
	l.motion.Brake()
	l.indicator.SetAnyConnected(false)
	log.Println("control loop stopped, vehicle braked")
}
