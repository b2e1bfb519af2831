// Package capture runs an optional local HTTP proxy that records browser
// traffic into the netlog store. It exists for setups where the
// extension's own capture feed is unavailable: point the browser at the
// proxy (or its PAC file) and requests flow into the same store the
// network tools report from.
package capture

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/elazarl/goproxy"
	"github.com/tabpilot/tabpilot/internal/bridge"
	"github.com/tabpilot/tabpilot/internal/netlog"
	"github.com/tabpilot/tabpilot/pkg/events"
)

// Server is a recording HTTP proxy.
type Server struct {
	port     int
	proxy    *goproxy.ProxyHttpServer
	server   *http.Server
	store    *netlog.Store
	eventBus *events.EventBus

	mu      sync.RWMutex
	running bool
}

// NewServer creates a recording proxy on the given port.
func NewServer(port int, store *netlog.Store, eventBus *events.EventBus) *Server {
	s := &Server{
		port:     port,
		store:    store,
		eventBus: eventBus,
	}

	proxy := goproxy.NewProxyHttpServer()
	proxy.Verbose = false
	s.proxy = proxy
	s.setupHandlers()

	return s
}

// requestTiming is attached to the proxy context per request.
type requestTiming struct {
	start  time.Time
	method string
	url    string
}

func (s *Server) setupHandlers() {
	s.proxy.OnRequest().DoFunc(func(r *http.Request, ctx *goproxy.ProxyCtx) (*http.Request, *http.Response) {
		ctx.UserData = &requestTiming{
			start:  time.Now(),
			method: r.Method,
			url:    r.URL.String(),
		}
		return r, nil
	})

	s.proxy.OnResponse().DoFunc(func(resp *http.Response, ctx *goproxy.ProxyCtx) *http.Response {
		timing, ok := ctx.UserData.(*requestTiming)
		if !ok {
			return resp
		}

		ev := bridge.NetworkEvent{
			RequestID:  fmt.Sprintf("proxy-%d", ctx.Session),
			Method:     timing.method,
			URL:        timing.url,
			DurationMS: float64(time.Since(timing.start).Milliseconds()),
		}
		if resp != nil {
			ev.StatusCode = resp.StatusCode
			if resp.ContentLength > 0 {
				ev.Size = resp.ContentLength
			}
		} else {
			ev.Failed = true
			ev.Error = "connection failed"
		}

		s.record(ev)
		return resp
	})
}

func (s *Server) record(ev bridge.NetworkEvent) {
	s.store.Add(ev)
	s.eventBus.Publish(events.Event{
		Type: events.NetworkRequest,
		Data: map[string]interface{}{
			"method": ev.Method,
			"url":    ev.URL,
			"status": ev.StatusCode,
			"source": "proxy",
		},
	})
}

// Start begins serving the proxy and its PAC file.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("capture proxy already running")
	}

	s.server = &http.Server{
		Addr: fmt.Sprintf(":%d", s.port),
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/proxy.pac" || r.URL.Path == "/pac" {
				s.servePACFile(w, r)
				return
			}
			s.proxy.ServeHTTP(w, r)
		}),
	}

	s.running = true

	go func() {
		log.Printf("capture proxy listening on port %d (PAC: http://localhost:%d/proxy.pac)", s.port, s.port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("capture proxy error: %v", err)
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
		}
	}()

	return nil
}

// Stop shuts the proxy down.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if s.server != nil {
		return s.server.Close()
	}
	return nil
}

// IsRunning reports whether the proxy is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// GetPort returns the proxy port.
func (s *Server) GetPort() int {
	return s.port
}

// PACURL returns where browsers can fetch the auto-config file.
func (s *Server) PACURL() string {
	return fmt.Sprintf("http://localhost:%d/proxy.pac", s.port)
}

func (s *Server) servePACFile(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/x-ns-proxy-autoconfig")

	pac := fmt.Sprintf(`function FindProxyForURL(url, host) {
    if (url.substring(0, 5) == "http:") {
        return "PROXY localhost:%d; DIRECT";
    }
    if (url.substring(0, 6) == "https:") {
        return "PROXY localhost:%d; DIRECT";
    }
    return "DIRECT";
}`, s.port, s.port)

	fmt.Fprint(w, pac)
}
