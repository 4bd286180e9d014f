// Package router is a small method+path mux with wildcard segments and a
// colored access log.
package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// --- ANSI color codes ---
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

type HandlerFunc func(http.ResponseWriter, *http.Request)

type route struct {
	method   string
	segments []string
	handler  HandlerFunc
}

type Router struct {
	routes []route
}

func New() *Router {
	return &Router{}
}

func (r *Router) GET(path string, h HandlerFunc)  { r.add(http.MethodGet, path, h) }
func (r *Router) POST(path string, h HandlerFunc) { r.add(http.MethodPost, path, h) }

func (r *Router) add(method, path string, h HandlerFunc) {
	r.routes = append(r.routes, route{
		method:   method,
		segments: strings.Split(strings.Trim(path, "/"), "/"),
		handler:  h,
	})
}

// ServeHTTP dispatches to the first route whose method and segments match.
// A "*" segment matches any single path segment.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

	segments := strings.Split(strings.Trim(req.URL.Path, "/"), "/")

	matched := false
	pathKnown := false
	for _, rt := range r.routes {
		if !matchSegments(rt.segments, segments) {
			continue
		}
		pathKnown = true
		if rt.method != req.Method {
			continue
		}
		rt.handler(lrw, req)
		matched = true
		break
	}

	if !matched {
		if pathKnown {
			http.Error(lrw, "Method Not Allowed", http.StatusMethodNotAllowed)
		} else {
			http.Error(lrw, "Not Found", http.StatusNotFound)
		}
	}

	duration := time.Since(start)
	logrus.Infof("%s%s%s %s %s%d%s %s(%v)%s",
		methodColor(req.Method), req.Method, colorReset,
		req.URL.Path,
		statusColor(lrw.statusCode), lrw.statusCode, colorReset,
		colorBlue, duration, colorReset)
}

func matchSegments(pattern, path []string) bool {
	if len(pattern) != len(path) {
		return false
	}
	for i, seg := range pattern {
		if seg != "*" && seg != path[i] {
			return false
		}
	}
	return true
}

// Start runs the HTTP server on the given address.
func (r *Router) Start(addr string) error {
	logrus.WithField("addr", addr).Info("starting API server")
	return http.ListenAndServe(addr, r)
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusColor(code int) string {
	switch {
	case code >= 500:
		return colorRed
	case code >= 400:
		return colorYellow
	default:
		return colorGreen
	}
}

func methodColor(method string) string {
	switch method {
	case http.MethodPost:
		return colorYellow
	case http.MethodGet:
		return colorCyan
	default:
		return colorGreen
	}
}
