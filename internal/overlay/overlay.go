// Package overlay defines the narrow boundary between the daemon and
// the anonymizing overlay network (Tor/Arti) that actually carries
// peer traffic. Per spec §1 the overlay client itself — circuit
// construction, stream multiplexing, hidden-service publication — is
// an external collaborator treated as a black box; this package only
// names the "connect(address)" / "subscribe to inbound rendezvous
// requests" surface the rest of the daemon depends on, mirroring the
// teacher's transport.MessageTransport abstraction that lets the
// security layer stay independent of gRPC/HTTP/WebSocket specifics.
package overlay

import (
	"context"
	"net"
)

// IncomingRequest is one inbound rendezvous request surfaced by the
// overlay client before a stream is accepted. VirtualPort lets the
// dispatcher apply the BEGIN-port filter (spec §4.F, §6) without
// accepting the stream first.
type IncomingRequest struct {
	VirtualPort uint16

	// Accept completes the BEGIN handshake and yields the duplex
	// stream. Reject tears the circuit down without ever exposing a
	// net.Conn, for virtual ports the dispatcher does not serve.
	Accept func(ctx context.Context) (net.Conn, error)
	Reject func() error
}

// Client is the daemon's entire dependency on the overlay network.
// Production wiring plugs a real Tor/Arti client in behind this
// interface; overlay/loopback provides a TCP-loopback stand-in for
// local development and tests.
type Client interface {
	// Connect opens a new outbound stream to address:port over the
	// overlay, used by the outbound sender (spec §4.G).
	Connect(ctx context.Context, address string, port uint16) (net.Conn, error)

	// Inbound delivers rendezvous requests arriving at the published
	// hidden service. The channel is closed when the client shuts down.
	Inbound() <-chan IncomingRequest

	// LocalAddress returns the hidden-service address this client
	// currently publishes; it becomes the local identity's OnionID.
	LocalAddress() (string, error)

	// ResetCircuit discards existing circuits and builds a fresh
	// isolation group, backing the ResetTorCircuit RPC command.
	ResetCircuit() error

	// Close releases the client's resources, including the published
	// hidden service.
	Close() error
}
