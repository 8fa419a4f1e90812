// Package vehicle holds the motion state of the tank: the single global
// motion intent and its encoding onto the two motor drivers.
package vehicle

import (
	"log"
)

// ActuatorPort sets the driver inputs of one motor. Writes are
// fire-and-forget; implementations log their own failures.
type ActuatorPort interface {
	SetMotor(id MotorID, v1, v2 Level)
}

// IndicatorPort reflects whether any operator is connected.
type IndicatorPort interface {
	SetAnyConnected(connected bool)
}

// Controller owns the one MotionIntent register. Every call fully supersedes
// the previous one, whichever session issued it. It is not safe for
// concurrent use; the control loop is its only caller.
type Controller struct {
	port   ActuatorPort
	intent Intent
}

// NewController drives both motors low and starts in Idle.
func NewController(port ActuatorPort) *Controller {
	port.SetMotor(MotorLeft, Low, Low)
	port.SetMotor(MotorRight, Low, Low)
	return &Controller{port: port, intent: Idle}
}

func (c *Controller) Forward()     { c.apply(Forward) }
func (c *Controller) Reverse()     { c.apply(Reverse) }
func (c *Controller) RotateLeft()  { c.apply(RotateLeft) }
func (c *Controller) RotateRight() { c.apply(RotateRight) }
func (c *Controller) Brake()       { c.apply(Brake) }

func (c *Controller) Intent() Intent {
	return c.intent
}

func (c *Controller) apply(i Intent) {
	left, right, ok := Encoding(i)
	if !ok {
		return
	}
	log.Printf("motion: %s -> %s", c.intent, i)
	c.port.SetMotor(MotorLeft, left.V1, left.V2)
	c.port.SetMotor(MotorRight, right.V1, right.V2)
	c.intent = i
}
