package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/gateserve-go/internal/server/config"
	"github.com/yndnr/gateserve-go/internal/telemetry/logger"
	"github.com/yndnr/gateserve-go/internal/telemetry/metric"
)

func testConfig() *config.ServerConfig {
	cfg := config.Default()
	cfg.Server.Port = 0 // ephemeral
	cfg.Server.ReadTimeout = 2 * time.Second
	cfg.Server.WriteTimeout = 2 * time.Second
	cfg.Connection.KeepAliveTimeout = 2 * time.Second
	cfg.Connection.IdleTimeout = 2 * time.Second
	cfg.Log.LogRequests = false
	return cfg
}

func startEngine(t *testing.T, cfg *config.ServerConfig, h Handler) *Engine {
	t.Helper()
	log, _ := logger.New(logger.Config{Level: "error", Format: "json", Output: io.Discard})
	e := New(cfg, h, log, metric.NewRegistry())
	if err := e.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		e.Shutdown(ctx)
	})
	return e
}

func echoHandler() Handler {
	return HandlerFunc(func(ctx context.Context, req *Request) *Response {
		return Text(200, req.Method+" "+req.Path)
	})
}

// TestServeHTTPClient tests serving a standard net/http client.
func TestServeHTTPClient(t *testing.T) {
	e := startEngine(t, testConfig(), echoHandler())

	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get("http://" + e.Addr() + "/hello")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "GET /hello" {
		t.Errorf("body = %q", body)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

// TestKeepAliveReuse tests two sequential requests over one connection.
func TestKeepAliveReuse(t *testing.T) {
	e := startEngine(t, testConfig(), echoHandler())

	conn, err := net.Dial("tcp", e.Addr())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	br := bufio.NewReader(conn)

	for i, path := range []string{"/first", "/second"} {
		fmt.Fprintf(conn, "GET %s HTTP/1.1\r\nHost: t\r\n\r\n", path)

		status, headers, body := readResponse(t, br)
		if status != 200 {
			t.Fatalf("request %d: status = %d", i, status)
		}
		if body != "GET "+path {
			t.Errorf("request %d: body = %q", i, body)
		}
		if headers["connection"] != "keep-alive" {
			t.Errorf("request %d: connection = %q", i, headers["connection"])
		}
	}
}

// TestConnectionClose tests that Connection: close is honored.
func TestConnectionClose(t *testing.T) {
	e := startEngine(t, testConfig(), echoHandler())

	conn, err := net.Dial("tcp", e.Addr())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	br := bufio.NewReader(conn)

	fmt.Fprintf(conn, "GET / HTTP/1.1\r\nHost: t\r\nConnection: close\r\n\r\n")
	status, headers, _ := readResponse(t, br)
	if status != 200 {
		t.Fatalf("status = %d", status)
	}
	if headers["connection"] != "close" {
		t.Errorf("connection = %q, want close", headers["connection"])
	}

	// Server must close its side; the next read sees EOF.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := br.ReadByte(); err != io.EOF {
		t.Errorf("expected EOF after close, got %v", err)
	}
}

// TestHeadSuppressesBody tests that a HEAD response advertises the
// entity length but carries no payload, so a following request on the
// same connection reads a clean status line.
func TestHeadSuppressesBody(t *testing.T) {
	fixed := HandlerFunc(func(ctx context.Context, req *Request) *Response {
		return Text(200, "0123456789")
	})
	e := startEngine(t, testConfig(), fixed)

	conn, err := net.Dial("tcp", e.Addr())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	br := bufio.NewReader(conn)

	fmt.Fprintf(conn, "HEAD /f.txt HTTP/1.1\r\nHost: t\r\n\r\n")
	status, headers := readHead(t, br)
	if status != 200 {
		t.Fatalf("HEAD status = %d", status)
	}
	if headers["content-length"] != "10" {
		t.Errorf("content-length = %q, want 10", headers["content-length"])
	}

	// A conforming client reads no body after HEAD; the next status
	// line must follow the HEAD headers immediately.
	fmt.Fprintf(conn, "GET /f.txt HTTP/1.1\r\nHost: t\r\n\r\n")
	status, _, body := readResponse(t, br)
	if status != 200 || body != "0123456789" {
		t.Errorf("GET after HEAD: status = %d body = %q", status, body)
	}
}

// TestIdleAllowanceLeavesWorkerFree tests that parked connections
// cannot hold every worker: with a single worker the connection is
// closed after the response instead of parking, and the next client
// is served.
func TestIdleAllowanceLeavesWorkerFree(t *testing.T) {
	cfg := testConfig()
	cfg.Pool.WorkerThreads = 1
	cfg.Connection.MaxIdleConnections = 5
	e := startEngine(t, cfg, echoHandler())

	first, err := net.Dial("tcp", e.Addr())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer first.Close()
	fmt.Fprintf(first, "GET /one HTTP/1.1\r\nHost: t\r\n\r\n")

	status, headers, _ := readResponse(t, bufio.NewReader(first))
	if status != 200 {
		t.Fatalf("status = %d", status)
	}
	if headers["connection"] != "close" {
		t.Errorf("connection = %q, want close (sole worker must not park)", headers["connection"])
	}

	// The worker is free again; a second client is served promptly.
	second, err := net.Dial("tcp", e.Addr())
	if err != nil {
		t.Fatalf("second dial failed: %v", err)
	}
	defer second.Close()
	second.SetDeadline(time.Now().Add(1 * time.Second))
	fmt.Fprintf(second, "GET /two HTTP/1.1\r\nHost: t\r\n\r\n")

	status, _, body := readResponse(t, bufio.NewReader(second))
	if status != 200 || body != "GET /two" {
		t.Errorf("second client: status = %d body = %q", status, body)
	}
}

// TestMalformedRequest tests the 400 path.
func TestMalformedRequest(t *testing.T) {
	e := startEngine(t, testConfig(), echoHandler())

	conn, err := net.Dial("tcp", e.Addr())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	fmt.Fprintf(conn, "NONSENSE\r\n\r\n")
	status, _, _ := readResponse(t, bufio.NewReader(conn))
	if status != 400 {
		t.Errorf("status = %d, want 400", status)
	}
}

// TestAdmissionControl tests that connections past the ceiling are
// closed without a response rather than hanging.
func TestAdmissionControl(t *testing.T) {
	cfg := testConfig()
	cfg.Pool.WorkerThreads = 2
	cfg.Pool.MaxConcurrentConnections = 2

	release := make(chan struct{})
	blocking := HandlerFunc(func(ctx context.Context, req *Request) *Response {
		<-release
		return Text(200, "done")
	})
	e := startEngine(t, cfg, blocking)
	defer close(release)

	// Fill the ceiling with two in-flight requests.
	var held []net.Conn
	for i := 0; i < 2; i++ {
		conn, err := net.Dial("tcp", e.Addr())
		if err != nil {
			t.Fatalf("dial %d failed: %v", i, err)
		}
		defer conn.Close()
		fmt.Fprintf(conn, "GET /block HTTP/1.1\r\nHost: t\r\n\r\n")
		held = append(held, conn)
	}

	// Wait until both are admitted.
	deadline := time.Now().Add(2 * time.Second)
	for e.InFlight() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("in-flight = %d, want 2", e.InFlight())
		}
		time.Sleep(10 * time.Millisecond)
	}

	// The next connection must be closed immediately without a response.
	extra, err := net.Dial("tcp", e.Addr())
	if err != nil {
		t.Fatalf("extra dial failed: %v", err)
	}
	defer extra.Close()

	extra.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1)
	if _, err := extra.Read(buf); err != io.EOF {
		t.Errorf("expected EOF on rejected connection, got %v", err)
	}
	_ = held
}

// TestConcurrentRequests tests parallel clients against the pool.
func TestConcurrentRequests(t *testing.T) {
	cfg := testConfig()
	cfg.Pool.WorkerThreads = 4
	e := startEngine(t, cfg, echoHandler())

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			client := &http.Client{Timeout: 3 * time.Second}
			resp, err := client.Get(fmt.Sprintf("http://%s/c/%d", e.Addr(), i))
			if err != nil {
				errs <- err
				return
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			if want := fmt.Sprintf("GET /c/%d", i); string(body) != want {
				errs <- fmt.Errorf("body = %q, want %q", body, want)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

// TestShutdownDrains tests that shutdown waits for in-flight work.
func TestShutdownDrains(t *testing.T) {
	cfg := testConfig()

	slow := HandlerFunc(func(ctx context.Context, req *Request) *Response {
		time.Sleep(200 * time.Millisecond)
		return Text(200, "slow done")
	})

	log, _ := logger.New(logger.Config{Level: "error", Format: "json", Output: io.Discard})
	e := New(cfg, slow, log, metric.NewRegistry())
	if err := e.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	conn, err := net.Dial("tcp", e.Addr())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	fmt.Fprintf(conn, "GET /slow HTTP/1.1\r\nHost: t\r\nConnection: close\r\n\r\n")
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	// The in-flight request completed during the drain.
	status, _, body := readResponse(t, bufio.NewReader(conn))
	if status != 200 || body != "slow done" {
		t.Errorf("status = %d body = %q", status, body)
	}

	// New connections are refused after shutdown.
	if _, err := net.Dial("tcp", e.Addr()); err == nil {
		t.Error("dial succeeded after shutdown")
	}
}

// TestShutdownWakesParked tests that a parked connection does not
// hold up the drain for its park timeout.
func TestShutdownWakesParked(t *testing.T) {
	cfg := testConfig()

	log, _ := logger.New(logger.Config{Level: "error", Format: "json", Output: io.Discard})
	e := New(cfg, echoHandler(), log, metric.NewRegistry())
	if err := e.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	conn, err := net.Dial("tcp", e.Addr())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	fmt.Fprintf(conn, "GET / HTTP/1.1\r\nHost: t\r\n\r\n")
	if status, _, _ := readResponse(t, bufio.NewReader(conn)); status != 200 {
		t.Fatalf("status = %d", status)
	}
	time.Sleep(100 * time.Millisecond) // let the worker park

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("drain took %v, parked connection was not woken", elapsed)
	}
}

// TestShutdownLetsActiveReaderFinish tests that a connection mid-way
// through sending its request keeps its read deadline when shutdown
// begins, and drains into the grace period.
func TestShutdownLetsActiveReaderFinish(t *testing.T) {
	cfg := testConfig()

	log, _ := logger.New(logger.Config{Level: "error", Format: "json", Output: io.Discard})
	e := New(cfg, echoHandler(), log, metric.NewRegistry())
	if err := e.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	conn, err := net.Dial("tcp", e.Addr())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	// Send only part of the request, then let shutdown begin.
	fmt.Fprintf(conn, "GET /late HTTP/1.1\r\nHost: t\r\n")
	time.Sleep(50 * time.Millisecond)

	errc := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		errc <- e.Shutdown(ctx)
	}()
	time.Sleep(100 * time.Millisecond)

	fmt.Fprintf(conn, "\r\n")
	status, _, body := readResponse(t, bufio.NewReader(conn))
	if status != 200 || body != "GET /late" {
		t.Errorf("status = %d body = %q", status, body)
	}
	if err := <-errc; err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

// readHead reads a status line and lowercased headers, leaving the
// reader positioned at the body.
func readHead(t *testing.T, br *bufio.Reader) (int, map[string]string) {
	t.Helper()

	statusLine, err := br.ReadString('\n')
	if err != nil {
		t.Fatalf("read status line: %v", err)
	}
	var proto string
	var status int
	if _, err := fmt.Sscanf(statusLine, "%s %d", &proto, &status); err != nil {
		t.Fatalf("bad status line %q: %v", statusLine, err)
	}

	headers := make(map[string]string)
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			t.Fatalf("read header: %v", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		name, value, _ := strings.Cut(line, ":")
		headers[strings.ToLower(name)] = strings.TrimSpace(value)
	}
	return status, headers
}

// readResponse reads one framed response, returning status, lowercased
// headers, and the body per Content-Length.
func readResponse(t *testing.T, br *bufio.Reader) (int, map[string]string, string) {
	t.Helper()

	status, headers := readHead(t, br)

	var body []byte
	if cl := headers["content-length"]; cl != "" {
		var n int
		fmt.Sscanf(cl, "%d", &n)
		body = make([]byte, n)
		if _, err := io.ReadFull(br, body); err != nil {
			t.Fatalf("read body: %v", err)
		}
	}
	return status, headers, string(body)
}
