// Package engine implements the HTTP/1.1 connection engine.
package engine

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
)

// Parser limits. Oversized input is a client error, not a server crash.
const (
	maxRequestLineBytes = 8192
	maxHeaderCount      = 100
	maxBodyBytes        = 1 << 20 // 1 MiB
)

// Parse errors. The connection loop maps these to 400/413/505 before
// closing the connection.
var (
	ErrMalformedRequest    = errors.New("malformed request")
	ErrRequestLineTooLong  = errors.New("request line too long")
	ErrTooManyHeaders      = errors.New("too many headers")
	ErrBodyTooLarge        = errors.New("request body too large")
	ErrUnsupportedProtocol = errors.New("unsupported protocol version")
)

// Request is a single parsed HTTP request.
type Request struct {
	Method   string
	Path     string // request target without the query string
	RawQuery string
	Proto    string // "HTTP/1.0" or "HTTP/1.1"

	// Headers holds the request headers with lowercased names.
	// Duplicate headers keep the last value.
	Headers map[string]string

	Body []byte

	// RemoteAddr and RequestID are filled in by the connection loop,
	// not the parser.
	RemoteAddr string
	RequestID  string
}

// Header returns a header value by case-insensitive name.
func (r *Request) Header(name string) string {
	return r.Headers[strings.ToLower(name)]
}

// KeepAlive reports whether the client asked to reuse the connection.
// HTTP/1.1 defaults to keep-alive unless "Connection: close"; HTTP/1.0
// requires an explicit "Connection: keep-alive".
func (r *Request) KeepAlive() bool {
	conn := strings.ToLower(r.Header("Connection"))
	if r.Proto == "HTTP/1.1" {
		return conn != "close"
	}
	return conn == "keep-alive"
}

// Query parses the query string into a map. Repeated keys keep the
// first value. Malformed pairs are skipped.
func (r *Request) Query() map[string]string {
	if r.RawQuery == "" {
		return nil
	}
	values, err := url.ParseQuery(r.RawQuery)
	if err != nil {
		return nil
	}
	q := make(map[string]string, len(values))
	for k, vs := range values {
		if len(vs) > 0 {
			q[k] = vs[0]
		}
	}
	return q
}

// ReadRequest parses one HTTP request from the buffered reader.
// It blocks until a full request head (and body, if any) has been read,
// bounded by whatever deadline the caller has set on the underlying
// connection.
func ReadRequest(br *bufio.Reader) (*Request, error) {
	line, err := readLine(br, maxRequestLineBytes)
	if err != nil {
		return nil, err
	}

	method, target, proto, ok := parseRequestLine(line)
	if !ok {
		return nil, fmt.Errorf("%w: bad request line %q", ErrMalformedRequest, line)
	}
	if proto != "HTTP/1.0" && proto != "HTTP/1.1" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProtocol, proto)
	}

	req := &Request{
		Method:  method,
		Proto:   proto,
		Headers: make(map[string]string),
	}

	// Routing ignores the query string.
	if i := strings.IndexByte(target, '?'); i >= 0 {
		req.Path = target[:i]
		req.RawQuery = target[i+1:]
	} else {
		req.Path = target
	}

	for {
		line, err := readLine(br, maxRequestLineBytes)
		if err != nil {
			return nil, err
		}
		if line == "" {
			break
		}
		if len(req.Headers) >= maxHeaderCount {
			return nil, ErrTooManyHeaders
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok || name == "" || strings.ContainsAny(name, " \t") {
			return nil, fmt.Errorf("%w: bad header %q", ErrMalformedRequest, line)
		}
		req.Headers[strings.ToLower(name)] = strings.TrimSpace(value)
	}

	if te := req.Header("Transfer-Encoding"); te != "" {
		return nil, fmt.Errorf("%w: transfer-encoding %q", ErrMalformedRequest, te)
	}

	if cl := req.Header("Content-Length"); cl != "" {
		n, err := strconv.ParseInt(cl, 10, 64)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: bad content-length %q", ErrMalformedRequest, cl)
		}
		if n > maxBodyBytes {
			return nil, ErrBodyTooLarge
		}
		if n > 0 {
			body := make([]byte, n)
			if _, err := io.ReadFull(br, body); err != nil {
				return nil, fmt.Errorf("%w: short body: %v", ErrMalformedRequest, err)
			}
			req.Body = body
		}
	}

	return req, nil
}

// parseRequestLine splits "METHOD SP TARGET SP PROTO".
func parseRequestLine(line string) (method, target, proto string, ok bool) {
	method, rest, ok1 := strings.Cut(line, " ")
	target, proto, ok2 := strings.Cut(rest, " ")
	if !ok1 || !ok2 || method == "" || target == "" {
		return "", "", "", false
	}
	if strings.Contains(target, " ") {
		return "", "", "", false
	}
	return method, target, proto, true
}

// readLine reads one CRLF- (or LF-) terminated line, bounded by limit.
func readLine(br *bufio.Reader, limit int) (string, error) {
	var sb strings.Builder
	for {
		frag, err := br.ReadString('\n')
		sb.WriteString(frag)
		if sb.Len() > limit {
			return "", ErrRequestLineTooLong
		}
		if err != nil {
			return "", err
		}
		if strings.HasSuffix(frag, "\n") {
			break
		}
	}
	line := sb.String()
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}
