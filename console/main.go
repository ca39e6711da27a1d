package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/chzyer/readline"

	"github.com/itohio/goturbidity/pkg/config"
	"github.com/itohio/goturbidity/pkg/link"
	"github.com/itohio/goturbidity/pkg/monitor"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		envFlag    = flag.String("env", ".env", "Environment file with TURBIDITY_PORT/TURBIDITY_BAUD")
		mockFlag   = flag.Bool("mock", false, "Use simulated probe instead of serial port")
		quietFlag  = flag.Bool("quiet", false, "Print events only, not every reading")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ApplyEnv(*envFlag); err != nil {
		log.Fatalf("Failed to apply environment: %v", err)
	}
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

	var device link.Device
	if *mockFlag {
		device = link.NewMock(&cfg.Mock)
	} else {
		device = link.New(cfg.Serial.Port, cfg.Serial.BaudRate, link.DefaultBufferSize)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "> ",
		HistoryFile: historyFilePath(),
	})
	if err != nil {
		log.Fatalf("Failed to initialize console: %v", err)
	}
	defer rl.Close()

	log.SetOutput(&readlineWriter{rl: rl, out: os.Stderr})

	if *mockFlag {
		log.Println("Starting simulated probe")
	} else {
		log.Printf("Connecting to %s at %d baud", cfg.Serial.Port, cfg.Serial.BaudRate)
	}
	if err := device.Connect(); err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer device.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	updates := make(chan update, 16)
	m := monitor.New(cfg, device)
	m.OnUpdate(forwardUpdates(updates))
	go m.ProcessReadings(device.Readings())

	state := newConsoleState(device, os.Stdout)
	state.rl = rl
	state.watch = !*quietFlag

	log.Println("Console started (type 'help' for commands)")

	commandChan := make(chan string, 10)
	go readlineLoop(ctx, cancel, rl, commandChan)

	for {
		select {
		case cmd := <-commandChan:
			if !state.handleCommand(cmd) {
				return
			}
		case u := <-updates:
			state.handleUpdate(u)
		case <-ctx.Done():
			return
		}
	}
}
