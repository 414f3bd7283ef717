// Package engine implements the HTTP/1.1 connection engine.
package engine

import (
	"bufio"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// statusText maps the status codes the server emits to reason phrases.
var statusText = map[int]string{
	200: "OK",
	201: "Created",
	204: "No Content",
	301: "Moved Permanently",
	400: "Bad Request",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	409: "Conflict",
	413: "Payload Too Large",
	429: "Too Many Requests",
	500: "Internal Server Error",
	505: "HTTP Version Not Supported",
}

// StatusText returns the reason phrase for a status code.
func StatusText(code int) string {
	if text, ok := statusText[code]; ok {
		return text
	}
	return "Unknown"
}

// Response is a single HTTP response to be framed onto the wire.
type Response struct {
	Status  int
	Headers map[string]string
	Body    []byte

	// Chunks, when non-nil, selects chunked transfer encoding and the
	// body is written piecewise from it instead of Body.
	Chunks [][]byte

	// OmitBody suppresses the payload while keeping the entity headers.
	// Set for HEAD responses: the client will not read a body, so any
	// payload bytes would desynchronize keep-alive framing.
	OmitBody bool
}

// NewResponse creates an empty response with the given status.
func NewResponse(status int) *Response {
	return &Response{
		Status:  status,
		Headers: make(map[string]string),
	}
}

// SetHeader sets a response header, replacing any existing value.
func (r *Response) SetHeader(name, value string) *Response {
	r.Headers[name] = value
	return r
}

// Text creates a plain-text response.
func Text(status int, body string) *Response {
	resp := NewResponse(status)
	resp.Headers["Content-Type"] = "text/plain; charset=utf-8"
	resp.Body = []byte(body)
	return resp
}

// HTML creates an HTML response.
func HTML(status int, body string) *Response {
	resp := NewResponse(status)
	resp.Headers["Content-Type"] = "text/html; charset=utf-8"
	resp.Body = []byte(body)
	return resp
}

// JSON creates a JSON response by marshaling v. Marshal errors degrade
// to a 500 with a generic body.
func JSON(status int, v any) *Response {
	body, err := json.Marshal(v)
	if err != nil {
		return Text(500, "internal server error")
	}
	resp := NewResponse(status)
	resp.Headers["Content-Type"] = "application/json"
	resp.Body = body
	return resp
}

// JSONError creates the standard error body used by the API endpoints.
func JSONError(status int, message string) *Response {
	return JSON(status, map[string]any{
		"success": false,
		"error":   message,
	})
}

// WriteTo frames the response onto the buffered writer. keepAlive
// selects the Connection header; the caller flushes.
func (r *Response) WriteTo(bw *bufio.Writer, keepAlive bool) error {
	if _, err := fmt.Fprintf(bw, "HTTP/1.1 %d %s\r\n", r.Status, StatusText(r.Status)); err != nil {
		return err
	}

	headers := make([]string, 0, len(r.Headers))
	for name := range r.Headers {
		headers = append(headers, name)
	}
	sort.Strings(headers)
	for _, name := range headers {
		if _, err := fmt.Fprintf(bw, "%s: %s\r\n", name, r.Headers[name]); err != nil {
			return err
		}
	}

	if keepAlive {
		bw.WriteString("Connection: keep-alive\r\n")
	} else {
		bw.WriteString("Connection: close\r\n")
	}

	if r.Chunks != nil {
		bw.WriteString("Transfer-Encoding: chunked\r\n\r\n")
		if r.OmitBody {
			return nil
		}
		for _, chunk := range r.Chunks {
			if len(chunk) == 0 {
				continue
			}
			if _, err := fmt.Fprintf(bw, "%x\r\n", len(chunk)); err != nil {
				return err
			}
			if _, err := bw.Write(chunk); err != nil {
				return err
			}
			if _, err := bw.WriteString("\r\n"); err != nil {
				return err
			}
		}
		_, err := bw.WriteString("0\r\n\r\n")
		return err
	}

	bw.WriteString("Content-Length: " + strconv.Itoa(len(r.Body)) + "\r\n\r\n")
	if r.OmitBody || len(r.Body) == 0 {
		return nil
	}
	_, err := bw.Write(r.Body)
	return err
}
