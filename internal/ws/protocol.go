package ws

import (
	"github.com/tidwall/gjson"
)

// WSMessage is the frame shape in both directions:
// {"event": "<name>", "data": <payload>}.
type WSMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

type SignalRequest struct {
	Value string `json:"value"`
}

// parseEvent extracts the event name from an inbound frame. Frames that are
// not JSON objects with a string "event" are rejected.
func parseEvent(frame []byte) (string, bool) {
	if !gjson.ValidBytes(frame) {
		return "", false
	}
	ev := gjson.GetBytes(frame, "event")
	if ev.Type != gjson.String {
		return "", false
	}
	return ev.Str, true
}
