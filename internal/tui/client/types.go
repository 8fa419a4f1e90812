// Package client provides the WebSocket client for the tank server.
// Types mirror the server wire protocol without importing server packages.
package client

import "encoding/json"

// Outbound server event names.
const (
	EventUsersCount     = "usersCount"
	EventSignalReceived = "signal:received"
)

// WSMessage is the envelope for all WebSocket messages.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type UsersCountPayload struct {
	TotalUsers int `json:"totalUsers"`
}

type SignalReceivedPayload struct {
	Date  int64  `json:"date"`
	Value string `json:"value"`
}

// CommandName builds the inbound event for a drive direction.
func CommandName(dir string, on bool) string {
	state := "off"
	if on {
		state = "on"
	}
	return "command:" + dir + ":" + state
}
