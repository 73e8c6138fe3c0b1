package swarmclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// closeReason is the reason text sent with the client's close frame.
const closeReason = "Done"

// DecodeFunc turns one complete server frame into a typed update. Returning
// ok=false skips the frame without yielding, so unrecognized message shapes
// degrade gracefully instead of terminating the stream. A non-nil error is
// fatal to the stream.
type DecodeFunc[T any] func(raw json.RawMessage) (msg T, ok bool, err error)

// Stream is one active streaming call. Updates are delivered in the order
// the server sent them, with at most one decoded message in flight.
//
// The Updates channel is closed when the stream terminates for any reason;
// Err reports the terminal error afterwards (nil for a server close, caller
// cancellation, or an abrupt peer disconnect after the handshake).
type Stream[T any] struct {
	updates chan T
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
}

// Updates returns the channel of decoded messages.
func (s *Stream[T]) Updates() <-chan T { return s.updates }

// Err returns the terminal error of the stream, blocking until the stream
// has fully torn down.
func (s *Stream[T]) Err() error {
	<-s.done
	return s.err
}

// Close cancels the stream and blocks until teardown has finished,
// including the graceful close handshake and registry removal. Closing a
// stream that already terminated is a no-op.
func (s *Stream[T]) Close() {
	s.cancel()
	<-s.done
}

// StreamCall opens a streaming connection to /API/<endpoint>, sends the
// payload (with the session token merged in) as the handshake frame, and
// yields each decoded server frame. Connection attempts that die
// prematurely are retried with linear backoff up to the configured
// attempt limit; any other setup failure is fatal.
//
// Teardown always runs when the stream ends, regardless of how: the close
// handshake is attempted with a fresh, non-cancelled deadline and the
// connection is removed from the active registry.
func StreamCall[T any](ctx context.Context, c *Client, endpoint string, payload map[string]any, decode DecodeFunc[T]) (*Stream[T], error) {
	token, err := c.sessions.GetOrCreate(ctx)
	if err != nil {
		return nil, err
	}

	conn, err := c.dialWithRetry(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(injectSession(payload, token))
	if err != nil {
		c.closeGracefully(endpoint, conn)
		return nil, &StreamingError{Endpoint: endpoint, Message: "marshal handshake payload", Err: err}
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.closeGracefully(endpoint, conn)
		return nil, &StreamingError{Endpoint: endpoint, Message: "send handshake frame", Err: err}
	}

	sctx, cancel := context.WithCancel(ctx)
	s := &Stream[T]{
		updates: make(chan T),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	entry := &registeredConn{conn: conn, close: s.Close}
	c.registry.add(token, entry)

	go func() {
		stopPing := make(chan struct{})
		var wg sync.WaitGroup
		if c.opts.KeepAliveInterval > 0 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				keepAlive(conn, c.opts.KeepAliveInterval, stopPing)
			}()
		}

		err := receiveLoop(sctx, conn, endpoint, decode, s.updates)

		close(stopPing)
		wg.Wait()
		cancel()
		c.closeGracefully(endpoint, conn)
		c.registry.remove(token, entry)

		s.err = err
		close(s.updates)
		close(s.done)
	}()

	return s, nil
}

// receiveLoop reads frames until the peer closes, the caller cancels, or a
// fatal receive error occurs. A nil return is a normal or soft stop.
func receiveLoop[T any](ctx context.Context, conn *websocket.Conn, endpoint string, decode DecodeFunc[T], out chan<- T) error {
	// Unblock the blocking read when the caller cancels: expire the read
	// deadline instead of closing the connection, so the graceful close
	// handshake can still run afterwards.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.SetReadDeadline(time.Now())
		case <-watchDone:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			switch {
			case ctx.Err() != nil:
				// Cancellation is a normal termination, never an error.
				return nil
			case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
				return nil
			case isPrematureClose(err):
				// The peer died mid-stream; updates already yielded stand.
				return nil
			default:
				return &StreamingError{Endpoint: endpoint, Message: "receive frame", Err: err}
			}
		}

		msg, ok, err := decode(raw)
		if err != nil {
			return &StreamingError{Endpoint: endpoint, Message: "decode frame", Err: err}
		}
		if !ok {
			continue
		}

		select {
		case out <- msg:
		case <-ctx.Done():
			return nil
		}
	}
}

// keepAlive sends ping frames at the configured interval until stopped.
func keepAlive(conn *websocket.Conn, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			deadline := time.Now().Add(interval)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		case <-stop:
			return
		}
	}
}

// dialWithRetry opens the websocket connection, retrying with linear
// backoff (attempt * RetryBackoff) when the failure looks like a premature
// closure. Other failures, retry exhaustion, and cancellation are fatal.
func (c *Client) dialWithRetry(ctx context.Context, endpoint string) (*websocket.Conn, error) {
	u := c.wsBase + apiPrefix + endpoint
	var header http.Header
	if c.opts.Authorization != "" {
		header = http.Header{"Authorization": []string{c.opts.Authorization}}
	}

	for attempt := 1; ; attempt++ {
		conn, resp, err := c.dialer.DialContext(ctx, u, header)
		if err == nil {
			return conn, nil
		}
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if ctx.Err() != nil {
			return nil, &StreamingError{Endpoint: endpoint, Message: "connect cancelled", Err: ctx.Err()}
		}
		if !isPrematureClose(err) || attempt >= c.opts.MaxRetryAttempts {
			return nil, &StreamingError{Endpoint: endpoint, Message: "connect failed", Err: err}
		}

		delay := time.Duration(attempt) * c.opts.RetryBackoff
		c.log.Debug().Str("endpoint", endpoint).Int("attempt", attempt).Dur("delay", delay).Err(err).
			Msg("websocket connect failed, retrying")
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, &StreamingError{Endpoint: endpoint, Message: "connect cancelled", Err: ctx.Err()}
		}
	}
}

// isPrematureClose reports whether err is the class of connection failure
// worth retrying or soft-stopping on: the peer vanished or reset rather
// than answering properly. Cancellation never qualifies.
func isPrematureClose(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, websocket.ErrBadHandshake):
		return true
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return true
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.EPIPE):
		return true
	case websocket.IsCloseError(err, websocket.CloseAbnormalClosure):
		return true
	}
	return false
}

// closeGracefully runs the best-effort close handshake: send a normal
// close frame, wait up to CloseTimeout for the peer's acknowledgment while
// discarding interim frames, then dispose the connection unconditionally.
// Nothing here may surface to the caller; failures are only logged.
//
// Must only be called by the goroutine that owns the connection's reader.
func (c *Client) closeGracefully(endpoint string, conn *websocket.Conn) {
	deadline := time.Now().Add(c.opts.CloseTimeout)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, closeReason)
	if err := conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
		c.log.Debug().Str("endpoint", endpoint).Err(err).Msg("close frame send failed")
	} else {
		_ = conn.SetReadDeadline(deadline)
		for {
			// The peer's close frame surfaces as a read error, as does the
			// deadline expiring; either way the wait is over.
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}
	if err := conn.Close(); err != nil {
		c.log.Debug().Str("endpoint", endpoint).Err(err).Msg("connection dispose failed")
	}
}

// CloseAll gracefully closes every registered streaming connection. Each
// entry's owning stream runs its own close handshake during teardown;
// failures there are logged, never propagated, and never abort the
// remaining closures. Affected streams observe a normal termination.
func (c *Client) CloseAll() {
	for sessionID, entry := range c.registry.drain() {
		c.log.Debug().Str("session", sessionID).Msg("closing streaming connection")
		entry.close()
	}
}
