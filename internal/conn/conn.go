// Package conn implements the client side of the line-oriented text protocol:
// one TCP socket, one command in flight, responses terminated by a line break
// or by the peer closing the stream.
package conn

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"
	"unicode/utf8"

	"github.com/torosent/kvbench/internal/clientmetrics"
)

const (
	// DefaultTimeout bounds connect and every command round-trip.
	DefaultTimeout = 5 * time.Second
	// DefaultDelimiter terminates every command written to the target.
	DefaultDelimiter = '\n'

	readChunkSize = 4096
)

var (
	// ErrTimeout is wrapped by CommandError when no complete response arrives in time.
	ErrTimeout = errors.New("command timed out")
	// ErrClosed is returned by Send on a closed or broken connection.
	ErrClosed = errors.New("connection closed")

	errInvalidUTF8 = errors.New("response is not valid UTF-8")
)

// ConnectionError reports that the socket could not be established.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// CommandError reports a failed round-trip for a single command.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Options configure a connection.
type Options struct {
	Addr      string        // host:port of the target service
	Timeout   time.Duration // connect and per-command timeout
	Delimiter byte          // appended to every command
}

func (o *Options) normalize() {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Delimiter == 0 {
		o.Delimiter = DefaultDelimiter
	}
}

// Conn is a single socket to the target. It must not be used from more than one
// goroutine at a time.
type Conn struct {
	opt     Options
	nc      net.Conn
	buf     []byte
	metrics *clientmetrics.ClientMetrics
}

// Dial opens a connection to opt.Addr. The dial is bounded by opt.Timeout and ctx.
func Dial(ctx context.Context, opt Options) (*Conn, error) {
	opt.normalize()
	dialer := net.Dialer{Timeout: opt.Timeout}
	nc, err := dialer.DialContext(ctx, "tcp", opt.Addr)
	if err != nil {
		return nil, &ConnectionError{Addr: opt.Addr, Err: err}
	}
	m := clientmetrics.New()
	m.MarkConnected()
	return &Conn{
		opt:     opt,
		nc:      nc,
		buf:     make([]byte, readChunkSize),
		metrics: m,
	}, nil
}

// Send writes command followed by the delimiter and blocks until a response is
// complete. The returned text has surrounding whitespace trimmed.
//
// A timeout or I/O failure leaves the connection closed so that a late response
// is never read as the answer to a later command.
func (c *Conn) Send(ctx context.Context, command string) (string, error) {
	if c == nil || c.nc == nil {
		return "", ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	deadline := time.Now().Add(c.opt.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.nc.SetDeadline(deadline); err != nil {
		return "", c.fail(command, err)
	}
	// Cancellation pushes the deadline into the past so a blocked read returns.
	nc := c.nc
	stop := context.AfterFunc(ctx, func() {
		_ = nc.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	payload := make([]byte, 0, len(command)+1)
	payload = append(payload, command...)
	payload = append(payload, c.opt.Delimiter)
	if _, err := nc.Write(payload); err != nil {
		if ctx.Err() != nil {
			c.shutdown()
			return "", ctx.Err()
		}
		return "", c.fail(command, err)
	}
	c.metrics.RecordCommand(len(payload))

	var resp []byte
	for {
		n, err := nc.Read(c.buf)
		if n > 0 {
			chunk := c.buf[:n]
			resp = append(resp, chunk...)
			if bytes.ContainsAny(chunk, "\r\n") {
				break
			}
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			// Peer closed: whatever arrived is the response.
			c.shutdown()
			break
		}
		if ctx.Err() != nil {
			c.shutdown()
			return "", ctx.Err()
		}
		return "", c.fail(command, err)
	}

	c.metrics.RecordResponse(len(resp))
	if !utf8.Valid(resp) {
		return "", &CommandError{Command: command, Err: errInvalidUTF8}
	}
	return string(bytes.TrimSpace(resp)), nil
}

// Close releases the socket. It is safe to call more than once.
func (c *Conn) Close() error {
	if c == nil || c.nc == nil {
		return nil
	}
	err := c.nc.Close()
	c.nc = nil
	return err
}

// Traffic returns the wire counters recorded so far.
func (c *Conn) Traffic() clientmetrics.Snapshot {
	if c == nil || c.metrics == nil {
		return clientmetrics.Snapshot{}
	}
	return c.metrics.Snapshot()
}

// fail closes the broken socket and wraps err for the caller.
func (c *Conn) fail(command string, err error) error {
	c.metrics.RecordError()
	c.shutdown()
	if isTimeout(err) {
		err = ErrTimeout
	}
	return &CommandError{Command: command, Err: err}
}

func (c *Conn) shutdown() {
	if c.nc != nil {
		_ = c.nc.Close()
		c.nc = nil
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
