package control

import (
	"strings"

	"github.com/tank-rc/tank/internal/vehicle"
)

// EventKind is the closed set of things the control loop reacts to.
type EventKind int

const (
	EventConnect EventKind = iota
	EventDisconnect
	EventCommand
	EventSignal
	eventStatus
)

var eventKindNames = map[EventKind]string{
	EventConnect:    "connection",
	EventDisconnect: "disconnect",
	EventCommand:    "command",
	EventSignal:     "signal",
	eventStatus:     "status",
}

func (k EventKind) String() string {
	if s, ok := eventKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Event is one transport event. Name carries the raw inbound event name for
// EventCommand and the message text for EventSignal.
type Event struct {
	Kind       EventKind
	SessionID  string
	RemoteAddr string
	Name       string

	reply chan Status
}

func Connect(id, remoteAddr string) Event {
	return Event{Kind: EventConnect, SessionID: id, RemoteAddr: remoteAddr}
}

func Disconnect(id string) Event {
	return Event{Kind: EventDisconnect, SessionID: id}
}

func CommandEvent(id, name string) Event {
	return Event{Kind: EventCommand, SessionID: id, Name: name}
}

func Signal(message string) Event {
	return Event{Kind: EventSignal, Name: message}
}

// Command is one of the eight inbound drive commands.
type Command struct {
	Direction string
	On        bool
}

const commandPrefix = "command:"

var driveIntents = map[string]vehicle.Intent{
	"forward": vehicle.Forward,
	"reverse": vehicle.Reverse,
	"left":    vehicle.RotateLeft,
	"right":   vehicle.RotateRight,
}

// ParseCommand maps "command:<direction>:<on|off>". Anything else reports
// ok=false and is dropped by the dispatcher.
func ParseCommand(name string) (Command, bool) {
	rest, found := strings.CutPrefix(name, commandPrefix)
	if !found {
		return Command{}, false
	}
	dir, state, found := strings.Cut(rest, ":")
	if !found {
		return Command{}, false
	}
	if _, ok := driveIntents[dir]; !ok {
		return Command{}, false
	}
	switch state {
	case "on":
		return Command{Direction: dir, On: true}, true
	case "off":
		return Command{Direction: dir, On: false}, true
	}
	return Command{}, false
}

func (c Command) String() string {
	state := "off"
	if c.On {
		state = "on"
	}
	return commandPrefix + c.Direction + ":" + state
}

// Intent is the motion a command resolves to: the direction's drive intent
// when on, Brake when off.
func (c Command) Intent() vehicle.Intent {
	if !c.On {
		return vehicle.Brake
	}
	return driveIntents[c.Direction]
}

// CommandNames lists every routable command event name.
func CommandNames() []string {
	names := make([]string, 0, 2*len(driveIntents))
	for _, dir := range []string{"forward", "reverse", "left", "right"} {
		names = append(names, commandPrefix+dir+":on", commandPrefix+dir+":off")
	}
	return names
}
