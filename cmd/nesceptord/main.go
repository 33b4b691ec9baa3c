// Package main implements nesceptord, the per-console ingestion daemon: it
// reads a NESceptor's byte stream (serial or a recording) and republishes
// decoded Outputs on the shared race bus.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nesceptor/raceline/internal/broadcast"
	"github.com/nesceptor/raceline/internal/config"
	"github.com/nesceptor/raceline/internal/ingest"
	"github.com/nesceptor/raceline/internal/smb"
	"github.com/nesceptor/raceline/internal/version"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to configuration file")
		portName   = flag.String("port", "", "Serial port to read (overrides config)")
		recording  = flag.String("recording", "", "Recording file to replay instead of a live port")
		name       = flag.String("name", "player1", "Player name this daemon publishes as")
		help       = flag.Bool("help", false, "Show help message")
		showVer    = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *help {
		printUsage()
		os.Exit(0)
	}
	if *showVer {
		version.PrintBuildInfo()
		os.Exit(0)
	}

	cfg := config.New()
	if *configFile != "" {
		if err := cfg.LoadFromFile(*configFile); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	setupGracefulShutdown()

	fmt.Println("nesceptord - NESceptor ingestion daemon starting...")

	baseline := smb.NewBaselineCache()

	var source ingest.Source
	switch {
	case *recording != "":
		fmt.Printf("Replaying recording: %s\n", *recording)
		reader, err := ingest.NewRecordingReader(*recording, baseline)
		if err != nil {
			log.Fatalf("Failed to open recording: %v", err)
		}
		source = reader

	case *portName != "":
		fmt.Printf("Opening serial port: %s\n", *portName)
		worker, err := ingest.StartSerialWorker(ingest.SerialWorkerConfig{
			PortName: *portName,
		}, baseline)
		if err != nil {
			log.Fatalf("Failed to start serial worker: %v", err)
		}
		source = worker

	default:
		log.Fatal("Either -port or -recording is required")
	}

	ctx := context.Background()
	pub, err := broadcast.NewPublisher(ctx, cfg.Broadcast.PublishAddr, *name)
	if err != nil {
		log.Fatalf("Failed to start publisher: %v", err)
	}
	defer pub.Close()

	fmt.Printf("Publishing as %q on %s\n", *name, cfg.Broadcast.PublishAddr)
	relayLoop(source, pub)
}

// relayLoop drains newly produced Outputs off source and republishes each
// one, forever. A source with nothing new simply yields nothing this tick;
// a RecordingReader advances its wall-clock-paced playback inside GetNext.
func relayLoop(source ingest.Source, pub *broadcast.Publisher) {
	for {
		for _, out := range source.GetNext() {
			if err := pub.Send(out); err != nil {
				log.Printf("publish failed: %v", err)
			}
		}
		time.Sleep(time.Millisecond)
	}
}

func setupGracefulShutdown() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		fmt.Println("\nInterrupt received, shutting down gracefully...")
		os.Exit(0)
	}()
}

func printUsage() {
	fmt.Println("nesceptord - NESceptor ingestion daemon")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  nesceptord -port <device> -name <player> [options]")
	fmt.Println("  nesceptord -recording <file> -name <player> [options]")
	fmt.Println()
	fmt.Println("OPTIONS:")
	flag.PrintDefaults()
}
