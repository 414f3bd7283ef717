// Package router maps parsed requests to handlers.
package router

import (
	"context"
	"fmt"
	"html"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yndnr/gateserve-go/internal/server/engine"
)

// mimeTypes maps file extensions to content types, matching the set
// the server advertises.
var mimeTypes = map[string]string{
	".html":  "text/html; charset=utf-8",
	".htm":   "text/html; charset=utf-8",
	".css":   "text/css; charset=utf-8",
	".js":    "application/javascript",
	".json":  "application/json",
	".txt":   "text/plain; charset=utf-8",
	".xml":   "application/xml",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
	".ico":   "image/x-icon",
	".pdf":   "application/pdf",
	".zip":   "application/zip",
	".wasm":  "application/wasm",
	".woff":  "font/woff",
	".woff2": "font/woff2",
}

// mimeTypeFor returns the content type for a file path.
func mimeTypeFor(name string) string {
	if ct, ok := mimeTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// serveStatic delivers files from the static directory. Traversal
// outside the root is rejected with 403 before touching the
// filesystem.
func (r *Router) serveStatic(ctx context.Context, req *engine.Request) *engine.Response {
	rel, ok := sanitizePath(req.Path)
	if !ok {
		r.log.Warn("path traversal rejected", "path", req.Path, "remote", req.RemoteAddr)
		return engine.JSONError(403, "Forbidden")
	}

	full := filepath.Join(r.cfg.Static.Directory, filepath.FromSlash(rel))

	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return engine.JSONError(404, "Not found")
		}
		if os.IsPermission(err) {
			return engine.JSONError(403, "Forbidden")
		}
		r.log.Error("stat failed", "path", full, "error", err)
		return engine.JSONError(500, "Internal server error")
	}

	if info.IsDir() {
		// Prefer the index file inside the directory.
		index := filepath.Join(full, r.cfg.Static.IndexFile)
		if _, err := os.Stat(index); err == nil {
			return r.serveFile(index)
		}
		if !r.cfg.Static.DirectoryListing {
			return engine.JSONError(403, "Directory listing disabled")
		}
		return r.serveListing(full, req.Path)
	}

	return r.serveFile(full)
}

// serveFile reads and frames one file.
func (r *Router) serveFile(full string) *engine.Response {
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return engine.JSONError(404, "Not found")
		}
		if os.IsPermission(err) {
			return engine.JSONError(403, "Forbidden")
		}
		r.log.Error("read failed", "path", full, "error", err)
		return engine.JSONError(500, "Internal server error")
	}

	resp := engine.NewResponse(200)
	resp.Headers["Content-Type"] = mimeTypeFor(full)
	resp.Body = data
	return resp
}

// serveListing renders a directory listing: parent navigation first,
// then directories, then files, each group name-sorted.
func (r *Router) serveListing(full, urlPath string) *engine.Response {
	entries, err := os.ReadDir(full)
	if err != nil {
		r.log.Error("readdir failed", "path", full, "error", err)
		return engine.JSONError(500, "Internal server error")
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return entries[i].Name() < entries[j].Name()
	})

	var sb strings.Builder
	escaped := html.EscapeString(urlPath)
	fmt.Fprintf(&sb, "<!DOCTYPE html>\n<html>\n<head><title>Index of %s</title></head>\n<body>\n", escaped)
	fmt.Fprintf(&sb, "<h1>Index of %s</h1>\n<ul>\n", escaped)

	if urlPath != "/" {
		parent := path.Dir(strings.TrimSuffix(urlPath, "/"))
		fmt.Fprintf(&sb, "<li><a href=%q>../</a></li>\n", parent)
	}

	base := strings.TrimSuffix(urlPath, "/")
	for _, entry := range entries {
		name := entry.Name()
		display := name
		if entry.IsDir() {
			display += "/"
		}
		href := base + "/" + name
		fmt.Fprintf(&sb, "<li><a href=%q>%s</a></li>\n", href, html.EscapeString(display))
	}

	sb.WriteString("</ul>\n</body>\n</html>\n")
	return engine.HTML(200, sb.String())
}

// sanitizePath normalizes a request path into a root-relative file
// path, rejecting any form of parent traversal.
func sanitizePath(reqPath string) (string, bool) {
	if strings.Contains(reqPath, "..") {
		return "", false
	}

	cleaned := path.Clean("/" + reqPath)
	if cleaned == "/" {
		return ".", true
	}
	return strings.TrimPrefix(cleaned, "/"), true
}
