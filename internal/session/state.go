package session

import (
	"encoding/json"
	"time"
)

type State int

const (
	Connected State = iota
	Disconnected
)

var stateNames = map[State]string{
	Connected:    "connected",
	Disconnected: "disconnected",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Session is one live operator connection. ID is assigned by the transport
// when the connection is accepted.
type Session struct {
	ID          string    `json:"id"`
	RemoteAddr  string    `json:"remoteAddr,omitempty"`
	State       State     `json:"state"`
	ConnectedAt time.Time `json:"connectedAt"`
}
