package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tabpilot/tabpilot/internal/bridge"
	"github.com/tabpilot/tabpilot/internal/capture"
	"github.com/tabpilot/tabpilot/internal/config"
	"github.com/tabpilot/tabpilot/internal/gatekeeper"
	"github.com/tabpilot/tabpilot/internal/instance"
	"github.com/tabpilot/tabpilot/internal/mcp"
	"github.com/tabpilot/tabpilot/internal/navigator"
	"github.com/tabpilot/tabpilot/internal/netlog"
	"github.com/tabpilot/tabpilot/internal/session"
	"github.com/tabpilot/tabpilot/internal/tui"
	"github.com/tabpilot/tabpilot/pkg/events"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Version is set at build time
	Version = "dev"

	workDir      string
	bridgeURL    string
	mcpPort      int
	capturePort  int
	captureProxy bool
	noTUI        bool
	mcpStdio     bool
	debugLog     string
	showSettings bool
)

var rootCmd = &cobra.Command{
	Use:   "tabpilot",
	Short: "MCP server that drives the browser through a local extension bridge",
	Long: `Tabpilot exposes browser control (navigation, tabs, screenshots, cookies,
bookmarks, downloads, notifications, network capture) as MCP tools, with an
allow-list gatekeeper deciding which navigations are permitted.

Basic Usage:
  tabpilot                      # Start with the TUI dashboard
  tabpilot --no-tui             # Headless mode (MCP server only)
  tabpilot --mcp                # Stdio transport for MCP clients that spawn the server
  tabpilot -p 8080              # Use a custom MCP port (default: 7797)

Capture Proxy:
  tabpilot --proxy              # Also run the recording HTTP proxy (port 19899)
  tabpilot --capture-port 9999  # Use a custom proxy port

Configuration:
  ~/.config/tabpilot/tabpilot.toml   # Global settings
  ./tabpilot.toml                    # Per-project overrides (custom domains etc.)

Default Ports:
  MCP Server: 7797              # Streamable HTTP transport at /mcp
  Bridge: 127.0.0.1:8765        # The extension bridge tabpilot connects to
  Capture Proxy: 19899          # Optional, PAC file at /proxy.pac`,
	Run: runApp,
}

func init() {
	rootCmd.Flags().StringVarP(&workDir, "dir", "d", ".", "Working directory for project configuration")
	rootCmd.Flags().StringVar(&bridgeURL, "bridge", "", "Extension bridge URL (default http://127.0.0.1:8765)")
	rootCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "MCP server port (default 7797)")
	rootCmd.Flags().IntVar(&capturePort, "capture-port", 0, "Capture proxy port (default 19899)")
	rootCmd.Flags().BoolVar(&captureProxy, "proxy", false, "Run the recording HTTP capture proxy")
	rootCmd.Flags().BoolVar(&noTUI, "no-tui", false, "Run in headless mode (MCP server only)")
	rootCmd.Flags().BoolVar(&mcpStdio, "mcp", false, "Serve MCP over stdio instead of HTTP (no TUI)")
	rootCmd.Flags().StringVar(&debugLog, "debug-log", "", "Write debug logs to this file (rotated)")
	rootCmd.Flags().BoolVar(&showSettings, "settings", false, "Print the effective configuration and exit")

	rootCmd.Version = Version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runApp(cmd *cobra.Command, args []string) {
	// A project .env can hold TABPILOT_* overrides; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(workDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	applyFlagOverrides(cfg)
	applyEnvOverrides(cfg)

	if showSettings {
		printSettings(cfg)
		return
	}

	setupLogging(cfg)

	// The config pointer is swapped atomically on live reload, so tool
	// handlers always see a consistent snapshot.
	var current atomic.Pointer[config.Config]
	current.Store(cfg)

	bus := events.NewEventBus()
	defer bus.Shutdown()

	store := netlog.NewStore(1000)
	client := bridge.NewClient(cfg.BridgeURL)
	settingsCache := gatekeeper.NewSettingsCache(client.NavigationSettings)

	var captureServer *capture.Server
	if cfg.CaptureProxy {
		captureServer = capture.NewServer(cfg.CapturePort, store, bus)
		if err := captureServer.Start(); err != nil {
			log.Printf("capture proxy: %v", err)
		} else {
			defer captureServer.Stop()
		}
	}

	mcpServer := mcp.NewStreamableServer(cfg.MCPPort, mcp.Deps{
		Bridge:    client,
		Settings:  settingsCache,
		Navigator: navigator.New(client),
		Netlog:    store,
		Capture:   captureServer,
		Sessions:  session.NewManager(),
		EventBus:  bus,
		Config:    current.Load,
	})

	if mcpStdio {
		if err := mcpServer.ServeStdio(); err != nil {
			fmt.Fprintf(os.Stderr, "mcp stdio: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Consume the bridge's event feed so tab/download/network events show
	// up in the dashboard and the netlog store.
	stream := bridge.NewStream(cfg.BridgeURL, bus, store.Add)
	go stream.Run(ctx)

	go func() {
		if err := mcpServer.Start(); err != nil {
			log.Printf("mcp server: %v", err)
		}
	}()
	// Give Start a moment to bind so the registered port is right.
	time.Sleep(100 * time.Millisecond)

	registerInstance(mcpServer.GetPort(), cfg.BridgeURL)
	defer mcpServer.Stop()

	// Reload project config on change; flag overrides stay in force.
	watcher, err := config.NewWatcher(projectConfigPath(), func(updated *config.Config) {
		applyFlagOverrides(updated)
		applyEnvOverrides(updated)
		current.Store(updated)
		log.Printf("configuration reloaded")
	})
	if err == nil {
		defer watcher.Close()
	}

	if noTUI {
		fmt.Printf("tabpilot MCP server on http://localhost:%d/mcp\n", mcpServer.GetPort())
		waitForSignal()
		return
	}

	model := tui.NewModel(bus, store, mcpServer.GetPort())
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "tui: %v\n", err)
		os.Exit(1)
	}
}

func applyFlagOverrides(cfg *config.Config) {
	if bridgeURL != "" {
		cfg.BridgeURL = bridgeURL
	}
	if mcpPort != 0 {
		cfg.MCPPort = mcpPort
	}
	if capturePort != 0 {
		cfg.CapturePort = capturePort
	}
	if captureProxy {
		cfg.CaptureProxy = true
	}
	if debugLog != "" {
		cfg.DebugLog = debugLog
	}
}

func applyEnvOverrides(cfg *config.Config) {
	if v := os.Getenv("TABPILOT_BRIDGE_URL"); v != "" {
		cfg.BridgeURL = v
	}
	if v := os.Getenv("TABPILOT_DEBUG_LOG"); v != "" {
		cfg.DebugLog = v
	}
}

// setupLogging routes the standard logger. With a debug log configured
// it goes to a rotated file; otherwise it is discarded so log output
// cannot corrupt the TUI or the stdio transport.
func setupLogging(cfg *config.Config) {
	if cfg.DebugLog == "" {
		log.SetOutput(io.Discard)
		return
	}
	log.SetOutput(&lumberjack.Logger{
		Filename:   cfg.DebugLog,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
	})
}

func projectConfigPath() string {
	if workDir == "" {
		return "tabpilot.toml"
	}
	return workDir + "/tabpilot.toml"
}

func registerInstance(port int, bridge string) {
	dir, err := instance.DefaultDir()
	if err != nil {
		return
	}
	reg, err := instance.NewRegistry(dir)
	if err != nil {
		return
	}
	reg.CleanupStale(24 * time.Hour)

	id := uuid.New().String()[:8]
	if err := reg.Register(instance.Instance{
		ID:        id,
		PID:       os.Getpid(),
		MCPPort:   port,
		BridgeURL: bridge,
		StartedAt: time.Now(),
	}); err != nil {
		log.Printf("instance registration: %v", err)
	}
}

func printSettings(cfg *config.Config) {
	fmt.Printf("bridge_url:    %s\n", cfg.BridgeURL)
	fmt.Printf("mcp_port:      %d\n", cfg.MCPPort)
	fmt.Printf("capture_proxy: %v (port %d)\n", cfg.CaptureProxy, cfg.CapturePort)
	fmt.Printf("debug_log:     %s\n", cfg.DebugLog)
	fmt.Printf("allow_all:     %v\n", cfg.Navigation.AllowAllURLs)
	fmt.Printf("custom_domains:\n")
	for _, d := range cfg.Navigation.CustomDomains {
		fmt.Printf("  - %s\n", d)
	}
	fmt.Printf("tts: voice=%q rate=%.1f\n", cfg.TTS.Voice, cfg.TTS.Rate)
}

func waitForSignal() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
}
