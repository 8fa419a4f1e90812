package main

import (
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/tank-rc/tank/internal/tui/app"
	"github.com/tank-rc/tank/internal/tui/client"
)

func main() {
	wsURL := pflag.String("url", "ws://127.0.0.1:3000/ws", "WebSocket URL of the tank server")
	logPath := pflag.String("log", "", "Write client logs to this file")
	hold := pflag.Duration("hold", app.DefaultInitialHold, "How long a fresh key press drives before the first key repeat must arrive")
	pflag.Parse()

	// The alt screen owns the terminal; keep log output off it.
	log.SetOutput(io.Discard)
	if *logPath != "" {
		f, err := tea.LogToFile(*logPath, "tank-tui")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	}

	ws := client.NewWSClient(*wsURL)
	defer ws.Close()

	m := app.New(ws).WithInitialHold(*hold)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
