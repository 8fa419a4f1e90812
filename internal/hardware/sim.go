package hardware

import (
	"log"
	"sync"

	"github.com/tank-rc/tank/internal/vehicle"
)

// Sim is an in-memory actuator and indicator used by tests and by the
// server's --sim mode.
type Sim struct {
	mu           sync.RWMutex
	motors       map[vehicle.MotorID]vehicle.Pair
	anyConnected bool
	writes       int
	verbose      bool
}

func NewSim(verbose bool) *Sim {
	return &Sim{
		motors:  make(map[vehicle.MotorID]vehicle.Pair),
		verbose: verbose,
	}
}

func (s *Sim) SetMotor(id vehicle.MotorID, v1, v2 vehicle.Level) {
	s.mu.Lock()
	s.motors[id] = vehicle.Pair{V1: v1, V2: v2}
	s.writes++
	s.mu.Unlock()

	if s.verbose {
		log.Printf("sim: %s motor (%d,%d)", id, v1, v2)
	}
}

func (s *Sim) SetAnyConnected(connected bool) {
	s.mu.Lock()
	s.anyConnected = connected
	s.mu.Unlock()

	if s.verbose {
		log.Printf("sim: users led=%t no-users led=%t", connected, !connected)
	}
}

func (s *Sim) Motor(id vehicle.MotorID) vehicle.Pair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.motors[id]
}

func (s *Sim) AnyConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.anyConnected
}

// Writes counts SetMotor calls since construction.
func (s *Sim) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}
