package ipc

import (
	"bufio"
	"context"
	"net"

	"github.com/arti-chat/core/internal/logger"
	"github.com/arti-chat/core/internal/metrics"
)

// Router is the narrow slice of internal/rpc.Router the IPC layer
// needs: decode one line, return zero or one reply line.
type Router interface {
	Handle(ctx context.Context, line []byte) []byte
}

// serveRPCConn reads newline-delimited JSON commands off conn and
// writes back whatever the router produces, one line per command. A
// command with no reply (SendMessage, SendAppFocusState, config
// setters) simply advances to the next line.
func serveRPCConn(ctx context.Context, conn net.Conn, router Router, log logger.Logger) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	w := bufio.NewWriter(conn)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		reply := router.Handle(ctx, append([]byte(nil), line...))
		if reply == nil {
			continue
		}
		if _, err := w.Write(reply); err != nil {
			log.Warn("rpc connection write failed", logger.Error(err))
			return
		}
		if err := w.Flush(); err != nil {
			log.Warn("rpc connection flush failed", logger.Error(err))
			return
		}
	}
	if err := scanner.Err(); err != nil {
		log.Debug("rpc connection closed", logger.Error(err))
	}
}

// rpcAcceptLoop accepts connections on ln until it is closed, handling
// each one in its own goroutine so one slow caller can't stall others.
func rpcAcceptLoop(ctx context.Context, ln net.Listener, router Router, log logger.Logger) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		metrics.IPCConnections.WithLabelValues("rpc").Inc()
		go serveRPCConn(ctx, conn, router, log)
	}
}
