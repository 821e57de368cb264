// Package ipc implements the local IPC server (spec §4.I): two
// Unix-domain sockets, one that fans out reload broadcasts to every
// connected UI and one that serves the command router over
// newline-delimited JSON. Binding either socket is fatal (spec §7); a
// stale socket file left behind by a crashed prior instance is removed
// before listening, since sqlite-style "just reopen" semantics don't
// apply to sockets.
package ipc

import (
	"context"
	"net"
	"os"

	"github.com/arti-chat/core/internal/coreerr"
	"github.com/arti-chat/core/internal/logger"
	"github.com/arti-chat/core/internal/metrics"
)

// Server owns both IPC sockets and implements internal/retry.Broadcaster
// and internal/rpc.Broadcaster.
type Server struct {
	broadcastPath string
	rpcPath       string
	router        Router
	hub           *broadcastHub
	broadcastLn   net.Listener
	rpcLn         net.Listener
	log           logger.Logger
}

// New builds a Server bound to the given socket paths. It does not
// listen until Run is called. router may be nil at construction time:
// the command router typically needs a Broadcaster, and this Server
// satisfies that interface before its own router is known, so callers
// wire it in afterwards with SetRouter.
func New(broadcastPath, rpcPath string, router Router, log logger.Logger) *Server {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	return &Server{
		broadcastPath: broadcastPath,
		rpcPath:       rpcPath,
		router:        router,
		hub:           newBroadcastHub(log),
		log:           log,
	}
}

// SetRouter installs the command router, for the common construction
// order where the router itself depends on this Server as a
// Broadcaster.
func (s *Server) SetRouter(router Router) {
	s.router = router
}

// Run binds both sockets and serves until ctx is canceled. Bind
// failure on either socket is returned immediately and is meant to be
// treated as fatal by the caller (spec §7).
func (s *Server) Run(ctx context.Context) error {
	broadcastLn, err := listenUnix(s.broadcastPath)
	if err != nil {
		return coreerr.New(coreerr.CodeIPC, "failed to bind broadcast socket", err)
	}
	s.broadcastLn = broadcastLn

	rpcLn, err := listenUnix(s.rpcPath)
	if err != nil {
		broadcastLn.Close()
		return coreerr.New(coreerr.CodeIPC, "failed to bind rpc socket", err)
	}
	s.rpcLn = rpcLn

	go s.acceptBroadcastSubscribers()
	go rpcAcceptLoop(ctx, rpcLn, s.router, s.log)

	<-ctx.Done()
	s.Close()
	return nil
}

// listenUnix removes any stale socket file left by a prior process
// before binding, matching the teacher's "reopen cleanly" facade
// philosophy but applied to a filesystem socket rather than a pooled
// connection.
func listenUnix(path string) (net.Listener, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return net.Listen("unix", path)
}

func (s *Server) acceptBroadcastSubscribers() {
	for {
		conn, err := s.broadcastLn.Accept()
		if err != nil {
			return
		}
		metrics.IPCConnections.WithLabelValues("broadcast").Inc()
		s.hub.add(conn)
	}
}

// BroadcastReload pushes a reload hint naming the contact whose
// conversation changed to every connected UI. Implements
// internal/retry.Broadcaster and internal/rpc.Broadcaster.
func (s *Server) BroadcastReload(onionID string) {
	s.hub.broadcast(`{"onion_id":"` + jsonEscape(onionID) + `"}`)
}

// Close releases both listeners and drops every broadcast sink. Safe
// to call more than once.
func (s *Server) Close() {
	if s.broadcastLn != nil {
		s.broadcastLn.Close()
	}
	if s.rpcLn != nil {
		s.rpcLn.Close()
	}
	s.hub.mu.Lock()
	sinks := make([]*sink, 0, len(s.hub.sinks))
	for _, sk := range s.hub.sinks {
		sinks = append(sinks, sk)
	}
	s.hub.mu.Unlock()
	for _, sk := range sinks {
		s.hub.remove(sk)
	}
}

// jsonEscape is a minimal escaper for the one untrusted field
// (onion_id) that goes into a hand-built JSON broadcast line; onion
// addresses never legitimately contain a quote or backslash, so this
// only defends against a corrupted contact row, not a deliberately
// hostile client.
func jsonEscape(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' || c == '\\' {
			out = append(out, '\\')
		}
		out = append(out, c)
	}
	return string(out)
}
