// Package hardware implements the vehicle's actuator and indicator ports:
// GPIO pins through periph.io on the real board, and an in-memory
// simulation for tests and bench runs.
package hardware

import (
	"fmt"
	"log"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/tank-rc/tank/internal/config"
	"github.com/tank-rc/tank/internal/vehicle"
)

// GPIO drives two H-bridge motor channels and the two presence LEDs.
type GPIO struct {
	motors     map[vehicle.MotorID][2]gpio.PinOut
	usersLED   gpio.PinOut
	noUsersLED gpio.PinOut
}

// OpenGPIO initializes the host drivers and resolves every configured pin.
// The no-users LED is lit on return.
func OpenGPIO(cfg config.HardwareConfig) (*GPIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host drivers: %w", err)
	}

	lookup := func(name string) (gpio.PinOut, error) {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("gpio pin %q not found", name)
		}
		return p, nil
	}

	var pins [6]gpio.PinOut
	for i, name := range cfg.Pins() {
		p, err := lookup(name)
		if err != nil {
			return nil, err
		}
		pins[i] = p
	}

	return newGPIO([2]gpio.PinOut{pins[0], pins[1]}, [2]gpio.PinOut{pins[2], pins[3]}, pins[4], pins[5]), nil
}

func newGPIO(left, right [2]gpio.PinOut, usersLED, noUsersLED gpio.PinOut) *GPIO {
	g := &GPIO{
		motors: map[vehicle.MotorID][2]gpio.PinOut{
			vehicle.MotorLeft:  left,
			vehicle.MotorRight: right,
		},
		usersLED:   usersLED,
		noUsersLED: noUsersLED,
	}
	g.SetAnyConnected(false)
	return g
}

func (g *GPIO) SetMotor(id vehicle.MotorID, v1, v2 vehicle.Level) {
	pins, ok := g.motors[id]
	if !ok {
		log.Printf("gpio: unknown motor %d", id)
		return
	}
	g.out(pins[0], v1)
	g.out(pins[1], v2)
}

// SetAnyConnected lights exactly one of the two LEDs. The LED being switched
// off is written first so both are never lit together.
func (g *GPIO) SetAnyConnected(connected bool) {
	if connected {
		g.out(g.noUsersLED, vehicle.Low)
		g.out(g.usersLED, vehicle.High)
		return
	}
	g.out(g.usersLED, vehicle.Low)
	g.out(g.noUsersLED, vehicle.High)
}

// Halt drives every motor pin low and turns both LEDs off.
func (g *GPIO) Halt() {
	for _, pins := range g.motors {
		g.out(pins[0], vehicle.Low)
		g.out(pins[1], vehicle.Low)
	}
	g.out(g.usersLED, vehicle.Low)
	g.out(g.noUsersLED, vehicle.Low)
}

func (g *GPIO) out(p gpio.PinOut, l vehicle.Level) {
	if err := p.Out(gpio.Level(l == vehicle.High)); err != nil {
		log.Printf("gpio: write %s: %v", p.Name(), err)
	}
}
