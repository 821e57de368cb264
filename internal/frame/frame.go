// Package frame implements the null-terminated framing used on peer
// overlay streams (the local IPC sockets carry newline-delimited JSON
// lines instead). Arti's embedded-Tor
// stream implementation has been observed to return spurious early EOFs
// on bulk reads, so ReadFrame reads one byte at a time rather than
// filling a buffer in a single call.
package frame

import (
	"bufio"
	"io"

	"github.com/arti-chat/core/internal/coreerr"
	"github.com/arti-chat/core/internal/metrics"
)

// DefaultMaxSize bounds a single frame so a misbehaving peer can't
// exhaust memory with an unterminated stream.
const DefaultMaxSize = 1 << 20 // 1 MiB

// ReadFrame reads bytes from r up to and excluding the next 0x00
// terminator, one byte at a time. It returns io.EOF only if the stream
// closed with nothing read; a stream that closes mid-frame returns
// ErrFrameTruncated so the caller can tell "no more frames" apart from
// "peer hung up mid-message".
func ReadFrame(r io.Reader, maxSize int) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	buf := make([]byte, 0, 256)
	one := make([]byte, 1)

	for {
		n, err := r.Read(one)
		if n == 1 {
			if one[0] == 0 {
				metrics.FramesRead.WithLabelValues("ok").Inc()
				return buf, nil
			}
			buf = append(buf, one[0])
			if len(buf) > maxSize {
				metrics.FramesRead.WithLabelValues("too_large").Inc()
				return nil, coreerr.New(coreerr.CodeFrame, "frame exceeds maximum size", coreerr.ErrFrameTooLarge)
			}
			continue
		}
		if err == io.EOF {
			if len(buf) == 0 {
				return nil, io.EOF
			}
			metrics.FramesRead.WithLabelValues("truncated").Inc()
			return nil, coreerr.New(coreerr.CodeFrame, "stream closed before frame terminator", coreerr.ErrFrameTruncated)
		}
		if err != nil {
			return nil, coreerr.New(coreerr.CodeTransport, "read failed", err)
		}
	}
}

// WriteFrame writes payload followed by a single 0x00 terminator.
func WriteFrame(w io.Writer, payload []byte) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(payload); err != nil {
		return coreerr.New(coreerr.CodeTransport, "write failed", err)
	}
	if err := bw.WriteByte(0); err != nil {
		return coreerr.New(coreerr.CodeTransport, "write failed", err)
	}
	if err := bw.Flush(); err != nil {
		return coreerr.New(coreerr.CodeTransport, "flush failed", err)
	}
	metrics.FramesWritten.Inc()
	return nil
}
