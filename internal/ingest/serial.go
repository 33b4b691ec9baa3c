package ingest

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"
	serial "go.bug.st/serial"

	"github.com/nesceptor/raceline/internal/codec"
	"github.com/nesceptor/raceline/internal/nesmodel"
	"github.com/nesceptor/raceline/internal/protocol"
	"github.com/nesceptor/raceline/internal/rateest"
	"github.com/nesceptor/raceline/internal/smb"
)

// defaultReadBufferSize is the read chunk size requested from the serial
// port per call; the port itself may return fewer bytes.
const defaultReadBufferSize = 1024

// SerialWorkerConfig configures one live NESceptor serial ingestion worker.
type SerialWorkerConfig struct {
	PortName       string
	BaudRate       int // 0 defaults to protocol.DefaultBaud
	QueueCapacity  int // 0 defaults to DefaultNextQueueCapacity
	ReadBufferSize int // 0 defaults to defaultReadBufferSize
	RecordingPath  string // empty disables the recording tee
}

// SerialWorker owns a live serial port and a background goroutine that
// feeds it through the parser/reducer/projector pipeline, exposing the
// result through the same latest/next API every ingest source shares.
type SerialWorker struct {
	*outputSlot

	port      serial.Port
	parser    *protocol.Parser
	model     *nesmodel.Model
	projector *smb.Projector
	startDet  smb.StartDetector
	rates     *rateest.Estimator

	recMu    sync.Mutex
	recorder *recorder
	recStart time.Time

	start time.Time
	done  chan struct{}
}

// ErrAlreadyRecording is returned by StartRecording while a recording tee
// is active. Fatal to the call, not the worker.
var ErrAlreadyRecording = errors.New("ingest: recording already in progress")

// StartSerialWorker opens the configured serial port and starts ingesting
// in a background goroutine. On failure to open the port, the worker is not
// started and the error is returned directly.
func StartSerialWorker(cfg SerialWorkerConfig, baseline *smb.BaselineCache) (*SerialWorker, error) {
	baud := cfg.BaudRate
	if baud == 0 {
		baud = protocol.DefaultBaud
	}
	mode := &serial.Mode{BaudRate: baud}

	port, err := serial.Open(cfg.PortName, mode)
	if err != nil {
		return nil, fmt.Errorf("ingest: open serial port %q: %w", cfg.PortName, err)
	}

	w := &SerialWorker{
		outputSlot: newOutputSlot(cfg.QueueCapacity),
		port:       port,
		parser:     &protocol.Parser{},
		model:      nesmodel.New(),
		projector:  smb.NewProjector(baseline),
		rates:      rateest.New(time.Now()),
		start:      time.Now(),
		done:       make(chan struct{}),
	}

	if cfg.RecordingPath != "" {
		rec, err := newRecorder(cfg.RecordingPath)
		if err != nil {
			port.Close()
			return nil, fmt.Errorf("ingest: open recording tee %q: %w", cfg.RecordingPath, err)
		}
		w.recorder = rec
		w.recStart = w.start
	}

	bufSize := cfg.ReadBufferSize
	if bufSize == 0 {
		bufSize = defaultReadBufferSize
	}
	go w.run(bufSize)

	return w, nil
}

// Close stops the ingestion goroutine and releases the serial port and any
// recording tee.
func (w *SerialWorker) Close() error {
	close(w.done)
	err := w.port.Close()
	w.StopRecording()
	return err
}

// StartRecording begins teeing every raw read to a fresh recording file at
// path, truncating any existing file. Returns ErrAlreadyRecording if a tee
// is already active.
func (w *SerialWorker) StartRecording(path string) error {
	w.recMu.Lock()
	defer w.recMu.Unlock()
	if w.recorder != nil {
		return ErrAlreadyRecording
	}
	rec, err := newRecorder(path)
	if err != nil {
		return fmt.Errorf("ingest: open recording tee %q: %w", path, err)
	}
	w.recorder = rec
	w.recStart = time.Now()
	return nil
}

// StopRecording flushes and closes the active recording tee, if any.
func (w *SerialWorker) StopRecording() {
	w.recMu.Lock()
	defer w.recMu.Unlock()
	if w.recorder != nil {
		w.recorder.Close()
		w.recorder = nil
	}
}

// RateEstimate reports the current bytes/s, messages/s, and cumulative
// parse-error count observed on this worker's stream.
func (w *SerialWorker) RateEstimate() (bytesPerSec, messagesPerSec float64, errors uint64) {
	return w.rates.BytesPerSecond(), w.rates.MessagesPerSecond(), w.rates.ErrorCount()
}

func (w *SerialWorker) run(bufSize int) {
	buf := make([]byte, bufSize)
	for {
		select {
		case <-w.done:
			return
		default:
		}

		n, err := w.port.Read(buf)
		if err != nil {
			// Read errors are indistinguishable from transient EOF; keep
			// retrying until the worker is stopped.
			glog.V(1).Infof("ingest: serial read: %v", err)
			time.Sleep(10 * time.Microsecond)
			continue
		}
		if n == 0 {
			time.Sleep(10 * time.Microsecond)
			continue
		}

		now := time.Now()
		w.rates.AddBytes(now, n)
		w.recMu.Lock()
		if w.recorder != nil {
			w.recorder.Write(now.Sub(w.recStart), buf[:n])
		}
		w.recMu.Unlock()

		msgCount := 0
		for i := 0; i < n; i++ {
			msg, status := w.parser.Feed(buf[i])
			if status.IsError() {
				w.rates.AddError()
				continue
			}
			if status != protocol.Success {
				continue
			}
			msgCount++

			boundary := w.model.Apply(msg)
			if !w.projector.ShouldEmit(w.model, boundary) {
				continue
			}

			out := &codec.Output{
				Elapsed:    now.Sub(w.start).Milliseconds(),
				PoweredOn:  w.model.PoweredOn,
				M2:         w.model.M2,
				Controller: w.model.Controller.State,
			}
			if msg.Type == protocol.RstLow {
				w.startDet.Reset()
				w.projector.Reset()
			}
			if out.PoweredOn {
				out.Frame = w.projector.Project(w.model)
				out.FramePalette = w.model.PPU.FramePalette
				out.UserM2 = w.startDet.Observe(out.Frame.AID, out.Frame.APX, out.Frame.Time, out.M2)
			}
			w.push(out)
		}
		w.rates.AddMessages(now, msgCount)
	}
}

// recorder tees raw ingested bytes to disk in the shared recording file
// format: a sequence of (elapsed_ms int64 LE, n uint64 LE, bytes[n]) records.
type recorder struct {
	f *os.File
}

func newRecorder(path string) (*recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &recorder{f: f}, nil
}

func (r *recorder) Write(elapsed time.Duration, data []byte) {
	var hdr [16]byte
	putInt64(hdr[0:8], elapsed.Milliseconds())
	putUint64(hdr[8:16], uint64(len(data)))
	if _, err := r.f.Write(hdr[:]); err != nil {
		glog.Errorf("ingest: recording write header: %v", err)
		return
	}
	if _, err := r.f.Write(data); err != nil {
		glog.Errorf("ingest: recording write payload: %v", err)
	}
}

func (r *recorder) Close() error {
	return r.f.Close()
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func putInt64(b []byte, v int64) {
	putUint64(b, uint64(v))
}
