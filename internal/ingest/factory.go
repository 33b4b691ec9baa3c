package ingest

import (
	"context"
	"fmt"

	"github.com/nesceptor/raceline/internal/config"
	"github.com/nesceptor/raceline/internal/smb"
)

// BuildSource instantiates the one ingestion worker a SourceConfig describes
// -- a live serial device, a recording replayed at its original pace, or a
// broadcast-client sink keyed by the source's own name -- so a race
// orchestrator process can stand up its whole player roster from
// config.Config.Sources without hand-wiring each kind itself.
func BuildSource(ctx context.Context, cfg config.SourceConfig, baseline *smb.BaselineCache, broadcastAddrs []string) (Source, error) {
	switch cfg.Kind {
	case config.SourceSerial:
		worker, err := StartSerialWorker(SerialWorkerConfig{
			PortName:      cfg.PortName,
			BaudRate:      cfg.BaudRate,
			QueueCapacity: cfg.QueueCapacity,
			RecordingPath: cfg.TeeToPath,
		}, baseline)
		if err != nil {
			return nil, fmt.Errorf("ingest: build serial source %q: %w", cfg.Name, err)
		}
		return worker, nil

	case config.SourceRecording:
		reader, err := NewRecordingReader(cfg.RecordingPath, baseline)
		if err != nil {
			return nil, fmt.Errorf("ingest: build recording source %q: %w", cfg.Name, err)
		}
		if cfg.StartAtMs > 0 {
			reader.StartAt(cfg.StartAtMs)
		}
		reader.SetPaused(false)
		return reader, nil

	case config.SourceBroadcast:
		client, err := NewBroadcastClient(ctx, broadcastAddrs, cfg.Name, cfg.QueueCapacity)
		if err != nil {
			return nil, fmt.Errorf("ingest: build broadcast source %q: %w", cfg.Name, err)
		}
		return client, nil

	default:
		return nil, fmt.Errorf("ingest: unknown source kind %q for %q", cfg.Kind, cfg.Name)
	}
}
