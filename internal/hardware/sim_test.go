package hardware

import (
	"testing"

	"github.com/tank-rc/tank/internal/vehicle"
)

func TestSimRecordsWrites(t *testing.T) {
	s := NewSim(false)

	if s.AnyConnected() {
		t.Error("new sim reports users connected")
	}

	s.SetMotor(vehicle.MotorLeft, vehicle.Low, vehicle.High)
	s.SetMotor(vehicle.MotorRight, vehicle.High, vehicle.Low)
	s.SetAnyConnected(true)

	if got := s.Motor(vehicle.MotorLeft); got != (vehicle.Pair{V1: vehicle.Low, V2: vehicle.High}) {
		t.Errorf("left = %+v", got)
	}
	if got := s.Motor(vehicle.MotorRight); got != (vehicle.Pair{V1: vehicle.High, V2: vehicle.Low}) {
		t.Errorf("right = %+v", got)
	}
	if !s.AnyConnected() {
		t.Error("AnyConnected() = false after SetAnyConnected(true)")
	}
	if s.Writes() != 2 {
		t.Errorf("Writes() = %d, want 2", s.Writes())
	}
}
