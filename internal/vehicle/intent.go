package vehicle

import (
	"encoding/json"
)

type Intent int

const (
	Idle Intent = iota
	Forward
	Reverse
	RotateLeft
	RotateRight
	Brake
)

var intentNames = map[Intent]string{
	Idle:        "idle",
	Forward:     "forward",
	Reverse:     "reverse",
	RotateLeft:  "rotate_left",
	RotateRight: "rotate_right",
	Brake:       "brake",
}

var intentFromName = map[string]Intent{
	"idle":         Idle,
	"forward":      Forward,
	"reverse":      Reverse,
	"rotate_left":  RotateLeft,
	"rotate_right": RotateRight,
	"brake":        Brake,
}

func (i Intent) String() string {
	if s, ok := intentNames[i]; ok {
		return s
	}
	return "unknown"
}

func (i Intent) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.String())
}

func (i *Intent) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if v, ok := intentFromName[s]; ok {
		*i = v
	}
	return nil
}

type MotorID int

const (
	MotorLeft MotorID = iota
	MotorRight
)

func (m MotorID) String() string {
	switch m {
	case MotorLeft:
		return "left"
	case MotorRight:
		return "right"
	}
	return "unknown"
}

// Level is a single binary output level on a motor driver input.
type Level uint8

const (
	Low  Level = 0
	High Level = 1
)

// Pair is the two driver inputs of one motor. (High, Low) spins the motor
// one way, (Low, High) the other, and (Low, Low) stops it.
type Pair struct {
	V1 Level `json:"v1"`
	V2 Level `json:"v2"`
}

var (
	spinForward  = Pair{High, Low}
	spinBackward = Pair{Low, High}
	stopped      = Pair{Low, Low}
)

var encodings = map[Intent][2]Pair{
	Forward:     {spinForward, spinForward},
	Reverse:     {spinBackward, spinBackward},
	RotateLeft:  {spinBackward, spinForward},
	RotateRight: {spinForward, spinBackward},
	Brake:       {stopped, stopped},
}

// Encoding returns the left and right motor outputs for a drive intent.
// Idle has no encoding of its own.
func Encoding(i Intent) (left, right Pair, ok bool) {
	e, ok := encodings[i]
	if !ok {
		return Pair{}, Pair{}, false
	}
	return e[0], e[1], true
}
