package control

// Outbound event names.
const (
	EventUsersCount     = "usersCount"
	EventSignalReceived = "signal:received"

	DefaultSignalMessage = "Signal received."
)

// Notifier delivers an outbound event to one session. Delivery is
// best-effort; a failed send never blocks or fails the loop.
type Notifier interface {
	Send(sessionID, event string, data any)
}

type UsersCountPayload struct {
	TotalUsers int `json:"totalUsers"`
}

type SignalReceivedPayload struct {
	Date  int64  `json:"date"`
	Value string `json:"value"`
}
