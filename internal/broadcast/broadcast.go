// Package broadcast fans decoded Outputs out to, and gathers them back in
// from, a process-wide ZeroMQ pub/sub bus: the mechanism multiple
// ingestion processes (one per NESceptor-equipped console) use to reach a
// single race orchestrator process.
package broadcast

import (
	"context"
	"fmt"

	"github.com/go-zeromq/zmq4"
	"github.com/golang/glog"

	"github.com/nesceptor/raceline/internal/codec"
)

// Topic is the single ZeroMQ subscription topic every publisher/subscriber
// in this system uses; player identity travels in the envelope's name
// frame, not the topic, so a subscriber never has to resubscribe as
// players join or leave.
const Topic = "smb"

// Publisher binds a PUB socket and publishes Outputs under a fixed player
// name, framed as ["smb", name, payload].
type Publisher struct {
	sock zmq4.Socket
	name string
}

// NewPublisher binds a PUB socket at addr (e.g. "tcp://*:5556") and returns
// a Publisher that tags every message with name.
func NewPublisher(ctx context.Context, addr, name string) (*Publisher, error) {
	sock := zmq4.NewPub(ctx)
	if err := sock.Listen(addr); err != nil {
		return nil, fmt.Errorf("broadcast: listen %q: %w", addr, err)
	}
	return &Publisher{sock: sock, name: name}, nil
}

// Send encodes out and publishes it under this Publisher's name.
func (p *Publisher) Send(out *codec.Output) error {
	payload := codec.Encode(out, nil)
	msg := zmq4.NewMsgFrom([]byte(Topic), []byte(p.name), payload)
	if err := p.sock.Send(msg); err != nil {
		return fmt.Errorf("broadcast: send: %w", err)
	}
	return nil
}

// Close releases the underlying socket.
func (p *Publisher) Close() error {
	return p.sock.Close()
}

// Received pairs a decoded Output with the player name it arrived tagged
// with.
type Received struct {
	Name   string
	Output *codec.Output
}

// Subscriber connects a SUB socket to one or more publisher addresses and
// decodes every incoming envelope, handing decoded Outputs to a channel.
type Subscriber struct {
	sock zmq4.Socket
	out  chan Received
	done chan struct{}
}

// NewSubscriber connects to every given address, subscribes to Topic, and
// starts a background goroutine decoding incoming envelopes onto the
// returned Subscriber's Received channel.
func NewSubscriber(ctx context.Context, addrs []string) (*Subscriber, error) {
	sock := zmq4.NewSub(ctx)
	for _, addr := range addrs {
		if err := sock.Dial(addr); err != nil {
			return nil, fmt.Errorf("broadcast: dial %q: %w", addr, err)
		}
	}
	if err := sock.SetOption(zmq4.OptionSubscribe, Topic); err != nil {
		return nil, fmt.Errorf("broadcast: subscribe: %w", err)
	}

	s := &Subscriber{
		sock: sock,
		out:  make(chan Received, 256),
		done: make(chan struct{}),
	}
	go s.run()
	return s, nil
}

// Received returns the channel decoded envelopes are delivered on.
func (s *Subscriber) Received() <-chan Received {
	return s.out
}

// Close stops the receive goroutine and releases the socket. The Received
// channel is closed by the goroutine on its way out.
func (s *Subscriber) Close() error {
	close(s.done)
	return s.sock.Close()
}

func (s *Subscriber) run() {
	defer close(s.out)
	for {
		select {
		case <-s.done:
			return
		default:
		}

		msg, err := s.sock.Recv()
		if err != nil {
			select {
			case <-s.done:
			default:
				glog.Errorf("broadcast: recv error: %v", err)
			}
			return
		}
		if len(msg.Frames) != 3 {
			continue // malformed envelope; dropped, not fatal
		}
		topic, name, payload := string(msg.Frames[0]), string(msg.Frames[1]), msg.Frames[2]
		if topic != Topic {
			continue // frame for a name/topic we don't recognize
		}

		out, err := codec.Decode(payload)
		if err != nil {
			glog.Warningf("broadcast: decode from %q: %v", name, err)
			continue
		}

		select {
		case s.out <- Received{Name: name, Output: out}:
		case <-s.done:
			return
		}
	}
}
