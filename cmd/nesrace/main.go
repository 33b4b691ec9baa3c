// Package main implements nesrace, the headless race orchestrator: it stands
// up one ingestion worker per configured player -- serial, recording, or
// broadcast-relayed -- feeds their streams into the race orchestrator, and
// prints standings as the race unfolds.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/nesceptor/raceline/internal/broadcast"
	"github.com/nesceptor/raceline/internal/codec"
	"github.com/nesceptor/raceline/internal/config"
	"github.com/nesceptor/raceline/internal/ingest"
	"github.com/nesceptor/raceline/internal/race"
	"github.com/nesceptor/raceline/internal/route"
	"github.com/nesceptor/raceline/internal/smb"
	"github.com/nesceptor/raceline/internal/version"
)

func main() {
	var (
		configFile   = flag.String("config", "", "Path to configuration file")
		subscribeCSV = flag.String("subscribe", "", "Comma-separated nesceptord publisher addresses (dynamic discovery, ignores config sources)")
		help         = flag.Bool("help", false, "Show help message")
		showVer      = flag.Bool("version", false, "Show version information")
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

	fmt.Println("nesrace - headless race orchestrator starting...")

	category := loadCategory(cfg)
	orch := race.NewOrchestrator(category, cfg.Race.ReplayBufferSize,
		[3]float64{0.3, 0.2, 6},
		[3]float64{0.15, 0.2, 12})

	ctx := context.Background()

	if *subscribeCSV != "" {
		runDynamicDiscovery(ctx, strings.Split(*subscribeCSV, ","), orch)
		return
	}

	runConfiguredRoster(ctx, cfg, orch)
}

// runConfiguredRoster builds one ingestion worker per cfg.Sources entry and
// registers each directly with the orchestrator by its configured name.
func runConfiguredRoster(ctx context.Context, cfg *config.Config, orch *race.Orchestrator) {
	if len(cfg.Sources) == 0 {
		log.Fatal("No player sources configured (config sources, or -subscribe for dynamic discovery)")
	}

	baseline := smb.NewBaselineCache()

	for i, sc := range cfg.Sources {
		src, err := ingest.BuildSource(ctx, sc, baseline, cfg.Broadcast.SubscribeAddrs)
		if err != nil {
			log.Fatalf("Failed to build source %q: %v", sc.Name, err)
		}
		orch.AddPlayer(uint32(i+1), sc.Name, uint8(i+1), src)
		fmt.Printf("Registered player %q (%s)\n", sc.Name, sc.Kind)
	}

	tick := 0
	for range time.Tick(50 * time.Millisecond) {
		orch.Step()
		tick++
		if tick%10 == 0 {
			printStandings(orch)
		}
	}
}

// runDynamicDiscovery preserves the ad hoc any-seat-welcome mode: subscribe
// to a raw address list and register a new orchestrator player the first
// time each distinct broadcast name is observed, rather than requiring the
// roster to be known up front.
func runDynamicDiscovery(ctx context.Context, addrs []string, orch *race.Orchestrator) {
	fmt.Printf("Subscribing to: %s\n", strings.Join(addrs, ", "))

	sub, err := broadcast.NewSubscriber(ctx, addrs)
	if err != nil {
		log.Fatalf("Failed to start subscriber: %v", err)
	}
	defer sub.Close()

	feeds := newFeedRegistry(orch)
	go feeds.drain(sub.Received())

	for range time.Tick(500 * time.Millisecond) {
		orch.Step()
		printStandings(orch)
	}
}

// feed is a minimal ingest.Source backed by whatever the broadcast
// subscriber has delivered for one player name.
type feed struct {
	mu     sync.Mutex
	latest *codec.Output
	next   []*codec.Output
}

func (f *feed) GetLatest() *codec.Output {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest
}

func (f *feed) GetNext() []*codec.Output {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.next
	f.next = nil
	return out
}

func (f *feed) push(out *codec.Output) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latest = out
	f.next = append(f.next, out)
}

// feedRegistry maps a broadcast player name to an orchestrator player,
// registering new players on first sight.
type feedRegistry struct {
	orch *race.Orchestrator

	mu     sync.Mutex
	byName map[string]*feed
	nextID uint32
}

func newFeedRegistry(orch *race.Orchestrator) *feedRegistry {
	return &feedRegistry{orch: orch, byName: make(map[string]*feed)}
}

func (r *feedRegistry) drain(received <-chan broadcast.Received) {
	for rcv := range received {
		r.mu.Lock()
		f, ok := r.byName[rcv.Name]
		if !ok {
			f = &feed{}
			r.byName[rcv.Name] = f
			r.nextID++
			id := r.nextID
			r.mu.Unlock()
			r.orch.AddPlayer(id, rcv.Name, uint8(id), f)
		} else {
			r.mu.Unlock()
		}
		f.push(rcv.Output)
	}
}

func printStandings(orch *race.Orchestrator) {
	fmt.Println("--- standings ---")
	for _, e := range orch.Standings() {
		interval := "--"
		if e.IntervalMS == 0 {
			interval = "leader"
		} else if e.IntervalMS > 0 {
			interval = fmt.Sprintf("+%.1fs", float64(e.IntervalMS)/1000)
		}
		fmt.Printf("%2d. %-16s %s\n", e.Position+1, e.Name, interval)
	}
}

// loadCategory reads the route table named by the config, falling back to
// a placeholder single-section "any%" category so the orchestrator can run
// without one.
func loadCategory(cfg *config.Config) route.Category {
	if cfg.Route.CategoryFile != "" {
		if cat, err := route.LoadCategory(cfg.Route.CategoryFile); err == nil {
			return cat
		} else {
			log.Printf("route category %q not loaded (%v), using default", cfg.Route.CategoryFile, err)
		}
	}
	return route.Category{
		Name: "any%",
		Sections: []route.Section{
			{Name: "world-1", AID: 0x06, Left: 0, Right: 4096, World: 1, Level: 1},
		},
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
	fmt.Println("nesrace - headless race orchestrator")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  nesrace -config race.json")
	fmt.Println("  nesrace -subscribe tcp://host1:5556,tcp://host2:5556 [options]")
	fmt.Println()
	fmt.Println("OPTIONS:")
	flag.PrintDefaults()
}
