package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/tank-rc/tank/internal/config"
	"github.com/tank-rc/tank/internal/control"
	"github.com/tank-rc/tank/internal/frontend"
	"github.com/tank-rc/tank/internal/hardware"
	"github.com/tank-rc/tank/internal/mock"
	"github.com/tank-rc/tank/internal/netinfo"
	"github.com/tank-rc/tank/internal/session"
	"github.com/tank-rc/tank/internal/vehicle"
	"github.com/tank-rc/tank/internal/ws"
)

// hardwarePorts is what the control pipeline needs from a driver.
type hardwarePorts interface {
	vehicle.ActuatorPort
	vehicle.IndicatorPort
}

// options are the command-line switches that do not live in the config file.
type options struct {
	dev  bool
	mock bool
}

// openFunc opens the configured driver. release returns it to a safe state.
type openFunc func(cfg *config.Config) (ports hardwarePorts, release func(), err error)

func openHardware(cfg *config.Config) (hardwarePorts, func(), error) {
	if cfg.Hardware.Driver == config.DriverSim {
		log.Println("Using simulated hardware")
		return hardware.NewSim(true), func() {}, nil
	}
	g, err := hardware.OpenGPIO(cfg.Hardware)
	if err != nil {
		return nil, nil, fmt.Errorf("open GPIO: %w", err)
	}
	return g, g.Halt, nil
}

func main() {
	configPath := pflag.String("config", "config.yaml", "Path to config file")
	port := pflag.Int("port", 0, "Override server port")
	sim := pflag.Bool("sim", false, "Use simulated motors and LEDs")
	devMode := pflag.Bool("dev", false, "Development mode (serve frontend from filesystem)")
	mockMode := pflag.Bool("mock", false, "Drive the pipeline with scripted mock operators")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *sim {
		cfg.Hardware.Driver = config.DriverSim
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, options{dev: *devMode, mock: *mockMode}, openHardware)
	stop()
	if err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// run serves until ctx is cancelled or the listener fails. The driver is
// released before run returns on every path.
func run(ctx context.Context, cfg *config.Config, opts options, open openFunc) error {
	ports, release, err := open(cfg)
	if err != nil {
		return err
	}
	defer release()

	registry := session.NewRegistry()
	motion := vehicle.NewController(ports)
	hub := ws.NewHub(cfg)
	loop := control.NewLoop(registry, motion, ports, hub, cfg.Transport.EventQueue)

	frontendDir := filepath.Join("internal", "frontend", "static")
	var embeddedHandler http.Handler
	if !opts.dev {
		embeddedHandler = frontend.Handler()
		if embeddedHandler == nil {
			if _, err := os.Stat(frontendDir); err == nil {
				log.Printf("No embedded frontend, falling back to: %s", frontendDir)
				embeddedHandler = http.FileServer(http.Dir(frontendDir))
			}
		}
	}

	server := ws.NewServer(cfg, hub, loop, frontendDir, opts.dev, embeddedHandler)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loopDone := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(loopDone)
	}()

	if opts.mock {
		log.Println("Starting mock operators")
		mock.NewGenerator(loop, time.Second).Start(ctx)
	}

	addr, err := netinfo.InterfaceAddress(ctx, cfg.Network.Interface)
	if err != nil {
		log.Printf("Could not determine advertised address: %v", err)
		addr = cfg.Server.Host
	}
	log.Printf("Server running at http://%s:%d", addr, cfg.Server.Port)

	err = ws.ListenAndServe(ctx, cfg.Server.Addr(), server.Handler())
	log.Println("Shutting down...")
	cancel()
	hub.Close()
	<-loopDone
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
