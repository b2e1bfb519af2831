package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/tabpilot/tabpilot/internal/bridge"
	"github.com/tabpilot/tabpilot/internal/capture"
	"github.com/tabpilot/tabpilot/internal/config"
	"github.com/tabpilot/tabpilot/internal/gatekeeper"
	"github.com/tabpilot/tabpilot/internal/navigator"
	"github.com/tabpilot/tabpilot/internal/netlog"
	"github.com/tabpilot/tabpilot/internal/session"
	"github.com/tabpilot/tabpilot/pkg/events"
	"github.com/tabpilot/tabpilot/pkg/ports"
)

// JSON-RPC 2.0 Message Types
type JSONRPCMessage struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

type JSONRPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MCPTool is one registered tool. Handlers receive the per-session
// context so tools like navigate can track the current tab target.
type MCPTool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     func(sess *session.Context, args json.RawMessage) (interface{}, error)
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type ServerCapabilities struct {
	Tools *ToolsCapability `json:"tools,omitempty"`
}

type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// streamClient is one open SSE connection.
type streamClient struct {
	ID             string
	Context        context.Context
	Cancel         context.CancelFunc
	ResponseWriter http.ResponseWriter
	Flusher        http.Flusher
	mu             sync.Mutex
}

// Deps collects the components the tool handlers drive.
type Deps struct {
	Bridge    *bridge.Client
	Settings  *gatekeeper.SettingsCache
	Navigator *navigator.Executor
	Netlog    *netlog.Store
	Capture   *capture.Server
	Sessions  *session.Manager
	EventBus  *events.EventBus
	// Config returns the current configuration; it may change under a
	// live reload, so handlers call it per request.
	Config func() *config.Config
}

// StreamableServer implements the MCP Streamable HTTP transport:
// POST /mcp for JSON-RPC, GET /mcp with Accept: text/event-stream for
// server-initiated notifications.
type StreamableServer struct {
	mu      sync.RWMutex
	router  *mux.Router
	streams map[string]*streamClient
	tools   map[string]MCPTool

	port int
	deps Deps

	serverInfo   ServerInfo
	capabilities ServerCapabilities

	server *http.Server
}

// NewStreamableServer wires the tool registry against the given
// components. Call Start to serve.
func NewStreamableServer(port int, deps Deps) *StreamableServer {
	s := &StreamableServer{
		router:  mux.NewRouter(),
		streams: make(map[string]*streamClient),
		tools:   make(map[string]MCPTool),
		port:    port,
		deps:    deps,
		serverInfo: ServerInfo{
			Name:    "tabpilot-mcp",
			Version: "1.0.0",
		},
		capabilities: ServerCapabilities{
			Tools: &ToolsCapability{ListChanged: true},
		},
	}

	s.setupRoutes()
	s.registerTools()

	return s
}

func (s *StreamableServer) setupRoutes() {
	// Main MCP endpoint implementing Streamable HTTP Transport
	// - POST with Accept: application/json → Standard JSON-RPC response
	// - POST with Accept: text/event-stream → SSE stream response
	// - GET with Accept: text/event-stream → SSE streaming connection
	s.router.HandleFunc("/mcp", s.handleRequest).Methods("POST", "GET")

	// Health check
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

func (s *StreamableServer) handleRequest(w http.ResponseWriter, r *http.Request) {
	acceptHeader := r.Header.Get("Accept")
	acceptsSSE := strings.Contains(acceptHeader, "text/event-stream")

	if r.Method == "GET" {
		if !acceptsSSE {
			http.Error(w, "GET requests must accept text/event-stream", http.StatusNotAcceptable)
			return
		}
		s.handleStreamingConnection(w, r)
		return
	}

	if acceptsSSE {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
	} else {
		w.Header().Set("Content-Type", "application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.sendError(w, nil, -32700, "Parse error", err.Error())
		return
	}
	defer r.Body.Close()

	// Accept both a batch array and a single message.
	var messages []JSONRPCMessage
	if err := json.Unmarshal(body, &messages); err != nil {
		var msg JSONRPCMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			s.sendError(w, nil, -32700, "Parse error", err.Error())
			return
		}
		messages = []JSONRPCMessage{msg}
	}

	sessionID := r.Header.Get("Mcp-Session-Id")
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	w.Header().Set("Mcp-Session-Id", sessionID)
	sess := s.deps.Sessions.GetOrCreate(sessionID)

	if acceptsSSE {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
			return
		}

		fmt.Fprintf(w, ": MCP Streamable HTTP Transport\n\n")
		flusher.Flush()

		for _, msg := range messages {
			if response := s.processMessage(&msg, sess); response != nil {
				data, _ := json.Marshal(response)
				fmt.Fprintf(w, "data: %s\n\n", data)
				flusher.Flush()
			}
		}
		return
	}

	responses := make([]JSONRPCMessage, 0)
	for _, msg := range messages {
		if response := s.processMessage(&msg, sess); response != nil {
			responses = append(responses, *response)
		}
	}

	if len(responses) == 1 {
		json.NewEncoder(w).Encode(responses[0])
	} else if len(responses) > 1 {
		json.NewEncoder(w).Encode(responses)
	}
}

func (s *StreamableServer) handleStreamingConnection(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	sessionID := r.Header.Get("Mcp-Session-Id")
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	ctx, cancel := context.WithCancel(r.Context())

	client := &streamClient{
		ID:             sessionID,
		Context:        ctx,
		Cancel:         cancel,
		ResponseWriter: w,
		Flusher:        flusher,
	}

	s.mu.Lock()
	s.streams[sessionID] = client
	s.mu.Unlock()

	s.deps.EventBus.Publish(events.Event{
		Type: events.MCPConnected,
		Data: map[string]interface{}{"sessionId": sessionID},
	})

	defer func() {
		s.mu.Lock()
		delete(s.streams, sessionID)
		s.mu.Unlock()
		cancel()
		s.deps.EventBus.Publish(events.Event{
			Type: events.MCPDisconnected,
			Data: map[string]interface{}{"sessionId": sessionID},
		})
	}()

	fmt.Fprintf(w, ": MCP Streamable HTTP Transport\n")
	fmt.Fprintf(w, ": Session-Id: %s\n\n", sessionID)
	flusher.Flush()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	eventChan := make(chan events.Event, 100)
	forward := func(e events.Event) {
		select {
		case eventChan <- e:
		default:
			// Channel full, skip
		}
	}
	s.deps.EventBus.Subscribe(events.NavigationDone, forward)
	s.deps.EventBus.Subscribe(events.NavigationBlocked, forward)
	s.deps.EventBus.Subscribe(events.TabOpened, forward)
	s.deps.EventBus.Subscribe(events.TabClosed, forward)
	s.deps.EventBus.Subscribe(events.DownloadProgress, forward)

	for {
		select {
		case <-ctx.Done():
			return

		case <-heartbeat.C:
			s.sendSSEEvent(client, "ping", map[string]string{"timestamp": time.Now().Format(time.RFC3339)})

		case event := <-eventChan:
			notification := JSONRPCMessage{
				Jsonrpc: "2.0",
				Method:  fmt.Sprintf("notifications/%s", strings.ReplaceAll(string(event.Type), ".", "/")),
				Params:  mustMarshal(event.Data),
			}
			s.sendSSEEvent(client, "message", notification)
		}
	}
}

func (s *StreamableServer) processMessage(msg *JSONRPCMessage, sess *session.Context) *JSONRPCMessage {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg, sess)

	case "notifications/initialized":
		// Client acknowledgement, no response expected.
		return nil

	case "ping":
		return &JSONRPCMessage{Jsonrpc: "2.0", ID: msg.ID, Result: map[string]interface{}{}}

	case "tools/list":
		return s.handleToolsList(msg)

	case "tools/call":
		return s.handleToolCall(msg, sess)

	default:
		return s.createErrorResponse(msg.ID, -32601, "Method not found", nil)
	}
}

func (s *StreamableServer) handleInitialize(msg *JSONRPCMessage, sess *session.Context) *JSONRPCMessage {
	var params struct {
		ClientInfo struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		} `json:"clientInfo"`
	}
	if len(msg.Params) > 0 && json.Unmarshal(msg.Params, &params) == nil {
		sess.SetClientInfo(params.ClientInfo.Name, params.ClientInfo.Version)
	}

	return &JSONRPCMessage{
		Jsonrpc: "2.0",
		ID:      msg.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities":    s.capabilities,
			"serverInfo":      s.serverInfo,
		},
	}
}

func (s *StreamableServer) sendSSEEvent(client *streamClient, eventType string, data interface{}) error {
	client.mu.Lock()
	defer client.mu.Unlock()

	dataBytes, err := json.Marshal(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(client.ResponseWriter, "event: %s\n", eventType)
	fmt.Fprintf(client.ResponseWriter, "data: %s\n\n", dataBytes)
	client.Flusher.Flush()

	return nil
}

func (s *StreamableServer) createErrorResponse(id interface{}, code int, message string, data interface{}) *JSONRPCMessage {
	return &JSONRPCMessage{
		Jsonrpc: "2.0",
		ID:      id,
		Error: &JSONRPCError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

func (s *StreamableServer) sendError(w http.ResponseWriter, id interface{}, code int, message string, data interface{}) {
	json.NewEncoder(w).Encode(s.createErrorResponse(id, code, message, data))
}

// BroadcastNotification sends a notification to every open SSE stream.
func (s *StreamableServer) BroadcastNotification(method string, params interface{}) {
	s.mu.RLock()
	clients := make([]*streamClient, 0, len(s.streams))
	for _, client := range s.streams {
		clients = append(clients, client)
	}
	s.mu.RUnlock()

	notification := JSONRPCMessage{
		Jsonrpc: "2.0",
		Method:  method,
		Params:  mustMarshal(params),
	}

	for _, client := range clients {
		go s.sendSSEEvent(client, "message", notification)
	}
}

func (s *StreamableServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	streams := len(s.streams)
	s.mu.RUnlock()

	health := map[string]interface{}{
		"status":   "healthy",
		"streams":  streams,
		"sessions": s.deps.Sessions.Count(),
	}
	if s.deps.Capture != nil && s.deps.Capture.IsRunning() {
		health["captureProxy"] = s.deps.Capture.PACURL()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// Start finds an open port at or above the configured one and serves
// until Stop.
func (s *StreamableServer) Start() error {
	availablePort, err := ports.FindAvailablePort(s.port)
	if err != nil {
		return fmt.Errorf("failed to find available port: %w", err)
	}
	s.port = availablePort

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: corsMiddleware(s.router),
	}

	return s.server.ListenAndServe()
}

// Stop shuts the HTTP server down and cancels open streams.
func (s *StreamableServer) Stop() error {
	s.mu.Lock()
	for _, client := range s.streams {
		client.Cancel()
	}
	s.mu.Unlock()

	if s.server != nil {
		return s.server.Shutdown(context.Background())
	}
	return nil
}

// GetPort returns the port the server bound to.
func (s *StreamableServer) GetPort() int {
	return s.port
}

// IsRunning reports whether Start has been called.
func (s *StreamableServer) IsRunning() bool {
	return s.server != nil
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Mcp-Session-Id")
		w.Header().Set("Access-Control-Expose-Headers", "Mcp-Session-Id")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func mustMarshal(v interface{}) json.RawMessage {
	data, _ := json.Marshal(v)
	return json.RawMessage(data)
}
