package ingest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/nesceptor/raceline/internal/broadcast"
)

// muxKey canonicalizes a set of publisher addresses into a stable map key,
// independent of the order the caller happened to list them in.
func muxKey(addrs []string) string {
	sorted := append([]string(nil), addrs...)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}

// mux is a process-wide, lazily initialized pub/sub context: one
// broadcast.Subscriber per distinct address set, demultiplexed by seat name
// into per-BroadcastClient sinks. Frames naming a seat nobody has
// registered for are silently dropped.
type mux struct {
	sub *broadcast.Subscriber

	mu    sync.Mutex
	sinks map[string]*outputSlot
}

var (
	muxesMu sync.Mutex
	muxes   = map[string]*mux{}
)

func acquireMux(ctx context.Context, addrs []string) (*mux, error) {
	key := muxKey(addrs)

	muxesMu.Lock()
	defer muxesMu.Unlock()

	if m, ok := muxes[key]; ok {
		return m, nil
	}

	sub, err := broadcast.NewSubscriber(ctx, addrs)
	if err != nil {
		return nil, err
	}
	m := &mux{sub: sub, sinks: make(map[string]*outputSlot)}
	go m.run()
	muxes[key] = m
	return m, nil
}

func (m *mux) run() {
	for r := range m.sub.Received() {
		m.mu.Lock()
		sink, ok := m.sinks[r.Name]
		m.mu.Unlock()
		if !ok {
			continue // unknown name frame: no registered sink, dropped
		}
		sink.push(r.Output)
	}
}

func (m *mux) register(name string, sink *outputSlot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinks[name] = sink
}

func (m *mux) unregister(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sinks, name)
}

// BroadcastClient is a Source fed by the process-wide broadcast multiplexer,
// keyed by a seat name -- one race-orchestrator-side consumer's view of a
// single remote publisher's "smb" topic frames.
type BroadcastClient struct {
	*outputSlot

	mux  *mux
	name string
}

// NewBroadcastClient subscribes (lazily initializing the process-wide
// multiplexer for this set of publisher addresses if needed) and returns a
// Source that receives only frames tagged with name.
func NewBroadcastClient(ctx context.Context, addrs []string, name string, queueCapacity int) (*BroadcastClient, error) {
	if len(addrs) == 0 {
		return nil, fmt.Errorf("ingest: broadcast client requires at least one publisher address")
	}
	m, err := acquireMux(ctx, addrs)
	if err != nil {
		return nil, fmt.Errorf("ingest: broadcast client %q: %w", name, err)
	}

	c := &BroadcastClient{
		outputSlot: newOutputSlot(queueCapacity),
		mux:        m,
		name:       name,
	}
	m.register(name, c.outputSlot)
	return c, nil
}

// Close unregisters this client's sink from the shared multiplexer. The
// underlying subscriber socket is process-wide and outlives any single
// client; it closes with the process, not with any one Close call.
func (c *BroadcastClient) Close() {
	c.mux.unregister(c.name)
}
