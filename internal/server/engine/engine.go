// Package engine implements the HTTP/1.1 connection engine.
package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/gateserve-go/internal/server/config"
	"github.com/yndnr/gateserve-go/internal/telemetry/logger"
	"github.com/yndnr/gateserve-go/internal/telemetry/metric"
	"github.com/yndnr/gateserve-go/pkg/cmap"
)

// Handler dispatches one parsed request to a response.
type Handler interface {
	Handle(ctx context.Context, req *Request) *Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, req *Request) *Response

// Handle calls f(ctx, req).
func (f HandlerFunc) Handle(ctx context.Context, req *Request) *Response {
	return f(ctx, req)
}

// Engine is the connection engine: acceptor, worker pool, and
// per-connection request loop.
type Engine struct {
	cfg     *config.ServerConfig
	handler Handler
	log     logger.Logger
	metrics *metric.Registry

	listener net.Listener
	queue    chan net.Conn
	conns    *cmap.Map[string, net.Conn]
	parked   *cmap.Map[string, net.Conn]

	// maxIdle is the effective idle allowance: a parked connection
	// keeps its worker, so it is capped at worker_threads-1 to leave
	// at least one worker free for new connections.
	maxIdle int64

	inflight atomic.Int64
	idle     atomic.Int64
	draining atomic.Bool

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopped  chan struct{}
}

// New creates an engine serving cfg through handler.
func New(cfg *config.ServerConfig, handler Handler, log logger.Logger, metrics *metric.Registry) *Engine {
	maxIdle := int64(cfg.Connection.MaxIdleConnections)
	if limit := int64(cfg.Pool.WorkerThreads - 1); maxIdle > limit {
		maxIdle = limit
	}
	return &Engine{
		cfg:     cfg,
		handler: handler,
		log:     log,
		metrics: metrics,
		// The queue never holds more than the admission ceiling, so
		// guarded sends cannot block.
		queue:   make(chan net.Conn, cfg.Pool.MaxConcurrentConnections),
		conns:   cmap.New[string, net.Conn](),
		parked:  cmap.New[string, net.Conn](),
		maxIdle: maxIdle,
		stopped: make(chan struct{}),
	}
}

// Start binds the listening socket and launches the worker pool and
// acceptor. It returns once the engine is accepting.
func (e *Engine) Start() error {
	ln, err := net.Listen("tcp", e.cfg.Server.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", e.cfg.Server.Addr(), err)
	}
	e.listener = ln

	for i := 0; i < e.cfg.Pool.WorkerThreads; i++ {
		e.wg.Add(1)
		go e.worker()
	}

	e.wg.Add(1)
	go e.acceptLoop()

	e.log.Info("engine started",
		"addr", ln.Addr().String(),
		"workers", e.cfg.Pool.WorkerThreads,
		"max_concurrent", e.cfg.Pool.MaxConcurrentConnections,
	)
	return nil
}

// Addr returns the bound listen address, or "" before Start.
func (e *Engine) Addr() string {
	if e.listener == nil {
		return ""
	}
	return e.listener.Addr().String()
}

// InFlight returns the number of connections currently admitted.
func (e *Engine) InFlight() int64 {
	return e.inflight.Load()
}

// acceptLoop owns the listening socket. It applies admission control:
// at the ceiling, new connections are closed immediately without a
// response.
func (e *Engine) acceptLoop() {
	defer e.wg.Done()
	defer close(e.queue)

	ceiling := int64(e.cfg.Pool.MaxConcurrentConnections)

	for {
		conn, err := e.listener.Accept()
		if err != nil {
			select {
			case <-e.stopped:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			e.log.Warn("accept failed", "error", err)
			continue
		}

		e.metrics.ConnectionsTotal.Inc()

		if e.inflight.Load() >= ceiling {
			e.metrics.ConnectionsRejected.Inc()
			e.log.Debug("connection rejected at ceiling", "remote", conn.RemoteAddr().String())
			conn.Close()
			continue
		}
		e.inflight.Add(1)

		select {
		case e.queue <- conn:
		case <-e.stopped:
			e.inflight.Add(-1)
			conn.Close()
			return
		}
	}
}

// worker consumes connections from the queue and serves each to
// completion, keep-alive reuse included.
func (e *Engine) worker() {
	defer e.wg.Done()
	for conn := range e.queue {
		e.serve(conn)
	}
}

// serve runs the request loop for one connection. The connection is
// owned by this goroutine until it returns.
func (e *Engine) serve(conn net.Conn) {
	connID := ulid.Make().String()
	e.conns.Set(connID, conn)
	e.metrics.ConnectionsActive.Inc()

	defer func() {
		conn.Close()
		e.conns.Delete(connID)
		e.inflight.Add(-1)
		e.metrics.ConnectionsActive.Dec()
	}()

	br := bufio.NewReaderSize(conn, e.cfg.Connection.BufferSize)
	bw := bufio.NewWriterSize(conn, e.cfg.Connection.BufferSize)
	remote := conn.RemoteAddr().String()

	parked := false
	for {
		if parked {
			conn.SetReadDeadline(time.Now().Add(e.parkTimeout()))
			// Shutdown may have raced the park decision; re-check after
			// registering so the wake-up cannot be missed.
			if e.draining.Load() {
				conn.SetReadDeadline(time.Now())
			}
		} else {
			conn.SetReadDeadline(time.Now().Add(e.cfg.Server.ReadTimeout))
		}

		req, err := ReadRequest(br)
		if parked {
			e.parked.Delete(connID)
			e.idle.Add(-1)
			e.metrics.ConnectionsIdle.Dec()
		}
		if err != nil {
			e.handleReadError(conn, bw, remote, err, parked)
			return
		}

		req.RemoteAddr = remote
		req.RequestID = ulid.Make().String()

		ctx := logger.WithRequestID(context.Background(), req.RequestID)
		start := time.Now()

		resp := e.handler.Handle(ctx, req)
		if resp == nil {
			resp = JSONError(500, "Internal server error")
		}
		resp.SetHeader("X-Request-ID", req.RequestID)
		if req.Method == "HEAD" {
			resp.OmitBody = true
		}

		keepAlive := req.KeepAlive() && !e.draining.Load()
		if keepAlive && e.idle.Load() >= e.maxIdle {
			// Idle allowance exhausted; close after this response
			// rather than parking.
			keepAlive = false
		}

		conn.SetWriteDeadline(time.Now().Add(e.cfg.Server.WriteTimeout))
		werr := resp.WriteTo(bw, keepAlive)
		if werr == nil {
			werr = bw.Flush()
		}
		if werr != nil {
			e.log.Debug("write failed", "remote", remote, "error", werr)
			return
		}

		duration := time.Since(start)
		e.metrics.RequestsTotal.WithLabelValues(req.Method, strconv.Itoa(resp.Status)).Inc()
		e.metrics.RequestDuration.WithLabelValues(req.Method).Observe(duration.Seconds())

		if e.cfg.Log.LogRequests {
			e.log.Info("request",
				"request_id", req.RequestID,
				"method", req.Method,
				"path", req.Path,
				"status", resp.Status,
				"remote", remote,
				"duration_ms", duration.Milliseconds(),
			)
		}

		if !keepAlive {
			return
		}

		parked = true
		e.parked.Set(connID, conn)
		e.idle.Add(1)
		e.metrics.ConnectionsIdle.Inc()
	}
}

// handleReadError responds to a failed request read. Client
// disconnects and timeouts on parked connections close silently;
// malformed input gets an error status first.
func (e *Engine) handleReadError(conn net.Conn, bw *bufio.Writer, remote string, err error, parked bool) {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		if !parked {
			e.log.Debug("read timeout", "remote", remote)
		}
		return
	}

	var resp *Response
	switch {
	case errors.Is(err, ErrBodyTooLarge):
		resp = JSONError(413, "Request body too large")
	case errors.Is(err, ErrUnsupportedProtocol):
		resp = JSONError(505, "HTTP version not supported")
	case errors.Is(err, ErrMalformedRequest), errors.Is(err, ErrRequestLineTooLong), errors.Is(err, ErrTooManyHeaders):
		resp = JSONError(400, "Malformed request")
	default:
		e.log.Debug("read failed", "remote", remote, "error", err)
		return
	}

	e.log.Debug("rejecting malformed request", "remote", remote, "error", err)
	conn.SetWriteDeadline(time.Now().Add(e.cfg.Server.WriteTimeout))
	if werr := resp.WriteTo(bw, false); werr == nil {
		bw.Flush()
	}
	e.metrics.RequestsTotal.WithLabelValues("INVALID", strconv.Itoa(resp.Status)).Inc()
}

// parkTimeout bounds how long a keep-alive connection may wait for its
// next request.
func (e *Engine) parkTimeout() time.Duration {
	ka := e.cfg.Connection.KeepAliveTimeout
	idle := e.cfg.Connection.IdleTimeout
	if idle > 0 && idle < ka {
		return idle
	}
	return ka
}

// Shutdown stops the engine: the acceptor closes first so no new
// connections are admitted, in-flight connections drain until ctx
// expires, then remaining sockets are force-closed.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.stopOnce.Do(func() {
		e.draining.Store(true)
		close(e.stopped)
		if e.listener != nil {
			e.listener.Close()
		}

		// Wake only parked connections so their workers observe the
		// drain; connections mid-request keep their read deadline and
		// finish inside the grace period.
		e.parked.Range(func(_ string, conn net.Conn) bool {
			conn.SetReadDeadline(time.Now())
			return true
		})
	})

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.log.Info("engine drained")
		return nil
	case <-ctx.Done():
		forced := 0
		e.conns.Range(func(_ string, conn net.Conn) bool {
			conn.Close()
			forced++
			return true
		})
		e.log.Warn("engine shutdown grace expired", "forced_closes", forced)
		<-done
		return ctx.Err()
	}
}
