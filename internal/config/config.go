// Package config provides JSON-file-backed configuration for the
// nesceptor ingestion and race tools, adapted from the emulator's own
// load/validate/save config layer.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/glog"
)

// Config holds all application configuration for a nesceptord or nesrace
// process. A single Config can describe any number of ingestion sources,
// since a race orchestrator ingests one stream per player.
type Config struct {
	Sources   []SourceConfig  `json:"sources"`
	Broadcast BroadcastConfig `json:"broadcast"`
	Route     RouteConfig     `json:"route"`
	Race      RaceConfig      `json:"race"`
	Paths     PathsConfig     `json:"paths"`

	configPath string
	loaded     bool
}

// SourceKind names how one player's byte stream is obtained.
type SourceKind string

const (
	SourceSerial    SourceKind = "serial"
	SourceRecording SourceKind = "recording"
	SourceBroadcast SourceKind = "broadcast"
)

// SourceConfig configures one ingestion source feeding one player slot.
type SourceConfig struct {
	Name string     `json:"name"`
	Kind SourceKind `json:"kind"`

	// Serial
	PortName string `json:"port_name,omitempty"`
	BaudRate int    `json:"baud_rate,omitempty"`

	// Recording
	RecordingPath string `json:"recording_path,omitempty"`
	StartAtMs     int64  `json:"start_at_ms,omitempty"`

	// Shared
	QueueCapacity int    `json:"queue_capacity,omitempty"`
	TeeToPath     string `json:"tee_to_path,omitempty"`
}

// BroadcastConfig configures this process's ZeroMQ pub/sub participation.
type BroadcastConfig struct {
	PublishAddr    string   `json:"publish_addr,omitempty"`
	SubscribeAddrs []string `json:"subscribe_addrs,omitempty"`
}

// RouteConfig points at the route-category table used by the timing state
// machine and minimap.
type RouteConfig struct {
	CategoryFile string `json:"category_file"`
}

// RaceConfig tunes the orchestrator.
type RaceConfig struct {
	ReplayBufferSize int     `json:"replay_buffer_size"`
	IntervalBucketMs int     `json:"interval_bucket_ms"`
	CameraDamping    float64 `json:"camera_damping"`
}

// PathsConfig names on-disk locations this process reads from or writes to.
type PathsConfig struct {
	Baselines  string `json:"baselines"`
	Recordings string `json:"recordings"`
	Logs       string `json:"logs"`
}

// New returns a Config populated with reasonable defaults for a
// single-machine development setup.
func New() *Config {
	return &Config{
		Broadcast: BroadcastConfig{
			PublishAddr: "tcp://*:5556",
		},
		Route: RouteConfig{
			CategoryFile: "./route/category.json",
		},
		Race: RaceConfig{
			ReplayBufferSize: 1024,
			IntervalBucketMs: 100,
			CameraDamping:    0.85,
		},
		Paths: PathsConfig{
			Baselines:  "./baselines",
			Recordings: "./recordings",
			Logs:       "./logs",
		},
	}
}

// LoadFromFile loads configuration from a JSON file, writing out the
// default configuration first if the file doesn't exist yet.
func (c *Config) LoadFromFile(path string) error {
	c.configPath = path

	if _, err := os.Stat(path); os.IsNotExist(err) {
		glog.V(1).Infof("config: %q not found, writing defaults", path)
		return c.SaveToFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %q: %w", path, err)
	}
	if err := c.validate(); err != nil {
		return fmt.Errorf("config: invalid: %w", err)
	}
	if err := c.createDirectories(); err != nil {
		return fmt.Errorf("config: create directories: %w", err)
	}

	c.loaded = true
	glog.V(1).Infof("config: loaded %q (%d sources)", path, len(c.Sources))
	return nil
}

// SaveToFile writes the configuration to path as indented JSON.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("config: create directory %q: %w", dir, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write %q: %w", path, err)
	}

	c.configPath = path
	glog.V(1).Infof("config: wrote %q", path)
	return nil
}

// Save rewrites the configuration to the path it was last loaded from or
// saved to.
func (c *Config) Save() error {
	if c.configPath == "" {
		return fmt.Errorf("config: no path set")
	}
	return c.SaveToFile(c.configPath)
}

func (c *Config) validate() error {
	for i, s := range c.Sources {
		switch s.Kind {
		case SourceSerial:
			if s.PortName == "" {
				return fmt.Errorf("source %d (%s): serial source requires port_name", i, s.Name)
			}
			if s.BaudRate <= 0 {
				c.Sources[i].BaudRate = 4_000_000
			}
		case SourceRecording:
			if s.RecordingPath == "" {
				return fmt.Errorf("source %d (%s): recording source requires recording_path", i, s.Name)
			}
		case SourceBroadcast:
			// subscribed globally via Broadcast.SubscribeAddrs; nothing per-source to validate
		default:
			return fmt.Errorf("source %d (%s): unknown kind %q", i, s.Name, s.Kind)
		}
		if s.QueueCapacity <= 0 {
			c.Sources[i].QueueCapacity = 128
		}
	}

	if c.Race.ReplayBufferSize <= 0 {
		c.Race.ReplayBufferSize = 1024
	}
	if c.Race.IntervalBucketMs <= 0 {
		c.Race.IntervalBucketMs = 100
	}
	if c.Race.CameraDamping <= 0 || c.Race.CameraDamping >= 1 {
		c.Race.CameraDamping = 0.85
	}

	return nil
}

func (c *Config) createDirectories() error {
	for _, dir := range []string{c.Paths.Baselines, c.Paths.Recordings, c.Paths.Logs} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
