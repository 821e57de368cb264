// Package loopback implements overlay.Client over plain TCP on
// 127.0.0.1. It is explicitly not Tor: there are no circuits, no
// isolation groups, no anonymity. It exists so the rest of the daemon
// (dispatcher, sender, retry loop) can be built and tested against a
// real net.Conn without an Arti dependency, the same way the teacher's
// pkg/storage/memory stands in for a real storage backend in tests and
// cmd/test-server.
package loopback

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"sync"

	"github.com/arti-chat/core/internal/coreerr"
	"github.com/arti-chat/core/internal/overlay"
)

// registry maps an onion-shaped address to the real loopback address
// backing it, simulating the overlay's name resolution so one process
// can run several loopback clients that can dial each other (used by
// dispatcher/sender tests that exercise two peers in-process).
var (
	registryMu sync.Mutex
	registry   = map[string]string{}
)

// Client is a loopback overlay.Client. The zero value is not usable;
// construct with New.
type Client struct {
	virtualPort uint16
	address     string
	listener    net.Listener
	inbound     chan overlay.IncomingRequest
	closeOnce   sync.Once
	done        chan struct{}
}

var _ overlay.Client = (*Client)(nil)

// New starts listening on 127.0.0.1:0, registers a random onion-shaped
// address for it, and begins accepting inbound connections as
// rendezvous requests on virtualPort.
func New(virtualPort uint16) (*Client, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, coreerr.New(coreerr.CodeTransport, "failed to listen on loopback", err)
	}

	address, err := randomOnionAddress()
	if err != nil {
		ln.Close()
		return nil, err
	}

	registryMu.Lock()
	registry[address] = ln.Addr().String()
	registryMu.Unlock()

	c := &Client{
		virtualPort: virtualPort,
		address:     address,
		listener:    ln,
		inbound:     make(chan overlay.IncomingRequest, 16),
		done:        make(chan struct{}),
	}
	go c.acceptLoop()
	return c, nil
}

func randomOnionAddress() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", coreerr.New(coreerr.CodeCrypto, "failed to generate loopback address", err)
	}
	return hex.EncodeToString(raw) + ".onion", nil
}

func (c *Client) acceptLoop() {
	for {
		conn, err := c.listener.Accept()
		if err != nil {
			close(c.inbound)
			return
		}

		req := overlay.IncomingRequest{
			VirtualPort: c.virtualPort,
			Accept: func(ctx context.Context) (net.Conn, error) {
				return conn, nil
			},
			Reject: func() error {
				return conn.Close()
			},
		}

		select {
		case c.inbound <- req:
		case <-c.done:
			conn.Close()
			return
		}
	}
}

// Connect resolves address through the process-local registry and
// dials the real loopback address behind it, ignoring port (loopback
// has exactly one listener per client).
func (c *Client) Connect(ctx context.Context, address string, port uint16) (net.Conn, error) {
	registryMu.Lock()
	real, ok := registry[address]
	registryMu.Unlock()
	if !ok {
		return nil, coreerr.New(coreerr.CodeTransport, fmt.Sprintf("unknown loopback address %s", address), nil)
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", real)
	if err != nil {
		return nil, coreerr.New(coreerr.CodeTransport, "failed to connect", err)
	}
	return conn, nil
}

// Inbound returns the channel of rendezvous requests.
func (c *Client) Inbound() <-chan overlay.IncomingRequest {
	return c.inbound
}

// LocalAddress returns the onion-shaped address registered for this client.
func (c *Client) LocalAddress() (string, error) {
	return c.address, nil
}

// ResetCircuit is a no-op for loopback: there is no circuit to reset.
func (c *Client) ResetCircuit() error {
	return nil
}

// Close stops accepting new connections and removes the client's
// registry entry.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.listener.Close()
		registryMu.Lock()
		delete(registry, c.address)
		registryMu.Unlock()
	})
	return err
}
