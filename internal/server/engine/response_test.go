package engine

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func frame(t *testing.T, resp *Response, keepAlive bool) string {
	t.Helper()
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	if err := resp.WriteTo(bw, keepAlive); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if err := bw.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	return buf.String()
}

// TestWriteTo tests response framing.
func TestWriteTo(t *testing.T) {
	t.Run("content-length framing", func(t *testing.T) {
		out := frame(t, Text(200, "hello"), true)

		if !strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n") {
			t.Errorf("bad status line: %q", out)
		}
		if !strings.Contains(out, "Content-Length: 5\r\n") {
			t.Errorf("missing content-length: %q", out)
		}
		if !strings.Contains(out, "Connection: keep-alive\r\n") {
			t.Errorf("missing keep-alive: %q", out)
		}
		if !strings.HasSuffix(out, "\r\n\r\nhello") {
			t.Errorf("body not at end: %q", out)
		}
	})

	t.Run("connection close", func(t *testing.T) {
		out := frame(t, Text(404, "nope"), false)
		if !strings.Contains(out, "Connection: close\r\n") {
			t.Errorf("missing close: %q", out)
		}
	})

	t.Run("empty body still has content-length", func(t *testing.T) {
		out := frame(t, NewResponse(204), false)
		if !strings.Contains(out, "Content-Length: 0\r\n") {
			t.Errorf("missing zero content-length: %q", out)
		}
	})

	t.Run("omitted body keeps entity length", func(t *testing.T) {
		resp := Text(200, "0123456789")
		resp.OmitBody = true

		out := frame(t, resp, true)
		if !strings.Contains(out, "Content-Length: 10\r\n") {
			t.Errorf("missing entity length: %q", out)
		}
		if !strings.HasSuffix(out, "\r\n\r\n") {
			t.Errorf("payload bytes after headers: %q", out)
		}
	})

	t.Run("omitted body suppresses chunks", func(t *testing.T) {
		resp := NewResponse(200)
		resp.Chunks = [][]byte{[]byte("hello")}
		resp.OmitBody = true

		out := frame(t, resp, false)
		if !strings.Contains(out, "Transfer-Encoding: chunked\r\n") {
			t.Errorf("missing transfer-encoding: %q", out)
		}
		if !strings.HasSuffix(out, "\r\n\r\n") || strings.Contains(out, "hello") {
			t.Errorf("chunk bytes after headers: %q", out)
		}
	})

	t.Run("chunked framing", func(t *testing.T) {
		resp := NewResponse(200)
		resp.Headers["Content-Type"] = "text/plain"
		resp.Chunks = [][]byte{[]byte("hello"), []byte(" world")}

		out := frame(t, resp, true)
		if !strings.Contains(out, "Transfer-Encoding: chunked\r\n") {
			t.Errorf("missing transfer-encoding: %q", out)
		}
		if strings.Contains(out, "Content-Length") {
			t.Errorf("chunked response must not carry content-length: %q", out)
		}
		if !strings.Contains(out, "5\r\nhello\r\n6\r\n world\r\n0\r\n\r\n") {
			t.Errorf("bad chunk framing: %q", out)
		}
	})
}

// TestJSONError tests the standard API error body.
func TestJSONError(t *testing.T) {
	resp := JSONError(401, "Invalid username or password")
	if resp.Status != 401 {
		t.Errorf("status = %d, want 401", resp.Status)
	}
	if resp.Headers["Content-Type"] != "application/json" {
		t.Errorf("content-type = %q", resp.Headers["Content-Type"])
	}

	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body.Success || body.Error != "Invalid username or password" {
		t.Errorf("body = %+v", body)
	}
}

// TestStatusText tests reason phrase lookup.
func TestStatusText(t *testing.T) {
	if got := StatusText(200); got != "OK" {
		t.Errorf("StatusText(200) = %q", got)
	}
	if got := StatusText(999); got != "Unknown" {
		t.Errorf("StatusText(999) = %q", got)
	}
}
