package ipc

import (
	"bufio"
	"net"
	"sync"

	"github.com/arti-chat/core/internal/logger"
	"github.com/arti-chat/core/internal/metrics"
	"github.com/google/uuid"
)

// sinkQueueDepth bounds each subscriber's outstanding reload events.
// A slow UI that never drains its socket gets pruned rather than
// allowed to block every other subscriber (spec §8 property 7, sink
// liveness).
const sinkQueueDepth = 16

// sink is one connected broadcast subscriber, identified for logging
// by a random id rather than anything the protocol exposes. Its
// lifecycle is Accepting -> Writing -> Dropped: a sink starts
// Accepting while the writer goroutine spins up, moves to Writing once
// it is draining queue, and moves to Dropped the moment a send would
// block or a write to the connection fails.
type sink struct {
	id     string
	conn   net.Conn
	queue  chan string
	once   sync.Once
	closed chan struct{}
}

func newSink(conn net.Conn) *sink {
	return &sink{
		id:     uuid.NewString(),
		conn:   conn,
		queue:  make(chan string, sinkQueueDepth),
		closed: make(chan struct{}),
	}
}

// send enqueues a line without blocking. A full queue means the
// subscriber fell behind; send then reports false and the caller drops
// and prunes the sink.
func (s *sink) send(line string) (ok bool) {
	select {
	case s.queue <- line:
		return true
	default:
		return false
	}
}

func (s *sink) drop() {
	s.once.Do(func() {
		close(s.closed)
		s.conn.Close()
	})
}

// writeLoop drains the queue onto the connection until the sink is
// dropped or a write fails.
func (s *sink) writeLoop(log logger.Logger) {
	w := bufio.NewWriter(s.conn)
	for {
		select {
		case <-s.closed:
			return
		case line := <-s.queue:
			if _, err := w.WriteString(line + "\n"); err != nil {
				log.Warn("broadcast sink write failed, dropping", logger.String("sink_id", s.id), logger.Error(err))
				s.drop()
				return
			}
			if err := w.Flush(); err != nil {
				log.Warn("broadcast sink flush failed, dropping", logger.String("sink_id", s.id), logger.Error(err))
				s.drop()
				return
			}
		}
	}
}

// broadcastHub owns the mutex-guarded list of live sinks. Per
// SPEC_FULL.md's Open Question resolution, BroadcastReload always fans
// out to every sink, never just the most recently attached one.
type broadcastHub struct {
	mu    sync.Mutex
	sinks map[string]*sink
	log   logger.Logger
}

func newBroadcastHub(log logger.Logger) *broadcastHub {
	return &broadcastHub{sinks: make(map[string]*sink), log: log}
}

func (h *broadcastHub) add(conn net.Conn) *sink {
	s := newSink(conn)
	h.mu.Lock()
	h.sinks[s.id] = s
	h.mu.Unlock()
	go s.writeLoop(h.log)
	return s
}

func (h *broadcastHub) remove(s *sink) {
	h.mu.Lock()
	delete(h.sinks, s.id)
	h.mu.Unlock()
	s.drop()
}

// broadcast fans a line out to every live sink, holding the mutex only
// long enough to snapshot the sink list and attempt each non-blocking
// send; a sink whose queue is full is dropped and pruned, and a sink
// its writer already dropped after a failed write is pruned without
// being sent to.
func (h *broadcastHub) broadcast(line string) {
	h.mu.Lock()
	targets := make([]*sink, 0, len(h.sinks))
	for _, s := range h.sinks {
		targets = append(targets, s)
	}
	h.mu.Unlock()

	var dropped []*sink
	for _, s := range targets {
		select {
		case <-s.closed:
			h.remove(s)
			continue
		default:
		}
		if !s.send(line) {
			dropped = append(dropped, s)
		}
	}
	for _, s := range dropped {
		metrics.IPCBroadcastsDropped.Inc()
		h.log.Warn("broadcast sink queue full, dropping subscriber", logger.String("sink_id", s.id))
		h.remove(s)
	}
}
