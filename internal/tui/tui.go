// Package tui renders the daemon dashboard: bridge status, MCP client
// count, recent navigations, and the captured-request tail.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tabpilot/tabpilot/internal/netlog"
	"github.com/tabpilot/tabpilot/pkg/events"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	statusUpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	statusDownStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	blockedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63"))
)

// activityLine is one rendered event in the activity feed.
type activityLine struct {
	At   time.Time
	Text string
}

const maxActivity = 200

// eventMsg carries bus events into the bubbletea loop.
type eventMsg events.Event

type tickMsg time.Time

// Model is the dashboard state.
type Model struct {
	spinner  spinner.Model
	viewport viewport.Model
	ready    bool

	bridgeUp   bool
	mcpPort    int
	mcpClients int

	activity []activityLine
	store    *netlog.Store

	eventChan chan events.Event
	width     int
	height    int
}

// NewModel builds the dashboard and subscribes it to the event bus.
func NewModel(bus *events.EventBus, store *netlog.Store, mcpPort int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	eventChan := make(chan events.Event, 100)
	forward := func(e events.Event) {
		select {
		case eventChan <- e:
		default:
		}
	}
	for _, t := range []events.EventType{
		events.BridgeConnected, events.BridgeDisconnected,
		events.NavigationDone, events.NavigationBlocked,
		events.TabOpened, events.TabClosed, events.TabActivated,
		events.DownloadProgress, events.NotificationSent,
		events.MCPConnected, events.MCPDisconnected, events.MCPActivity,
	} {
		bus.Subscribe(t, forward)
	}

	return Model{
		spinner:   sp,
		store:     store,
		mcpPort:   mcpPort,
		eventChan: eventChan,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForEvent(), tick())
}

func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return eventMsg(<-m.eventChan)
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "c":
			m.store.Clear()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-8)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 8
		}
		return m, nil

	case eventMsg:
		m.apply(events.Event(msg))
		return m, m.waitForEvent()

	case tickMsg:
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// apply folds one bus event into the dashboard state.
func (m *Model) apply(e events.Event) {
	switch e.Type {
	case events.BridgeConnected:
		m.bridgeUp = true
		m.addActivity(e.Timestamp, "bridge connected")
	case events.BridgeDisconnected:
		m.bridgeUp = false
		m.addActivity(e.Timestamp, "bridge disconnected")
	case events.MCPConnected:
		m.mcpClients++
		m.addActivity(e.Timestamp, "MCP client connected")
	case events.MCPDisconnected:
		if m.mcpClients > 0 {
			m.mcpClients--
		}
		m.addActivity(e.Timestamp, "MCP client disconnected")
	case events.NavigationDone:
		url, _ := e.Data["url"].(string)
		reused, _ := e.Data["reused"].(bool)
		verb := "opened"
		if reused {
			verb = "reused tab for"
		}
		m.addActivity(e.Timestamp, fmt.Sprintf("%s %s (tab %d)", verb, url, e.TabID))
	case events.NavigationBlocked:
		url, _ := e.Data["url"].(string)
		m.addActivity(e.Timestamp, blockedStyle.Render("blocked "+url))
	case events.TabClosed:
		m.addActivity(e.Timestamp, fmt.Sprintf("closed tab %d", e.TabID))
	case events.NotificationSent:
		title, _ := e.Data["title"].(string)
		m.addActivity(e.Timestamp, "notification: "+title)
	case events.MCPActivity:
		tool, _ := e.Data["tool"].(string)
		m.addActivity(e.Timestamp, dimStyle.Render("tool call: "+tool))
	case events.DownloadProgress:
		filename, _ := e.Data["filename"].(string)
		m.addActivity(e.Timestamp, "download: "+filename)
	}
}

func (m *Model) addActivity(at time.Time, text string) {
	m.activity = append(m.activity, activityLine{At: at, Text: text})
	if len(m.activity) > maxActivity {
		m.activity = m.activity[len(m.activity)-maxActivity:]
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("tabpilot"))
	b.WriteString("  ")
	if m.bridgeUp {
		b.WriteString(statusUpStyle.Render("● bridge"))
	} else {
		b.WriteString(statusDownStyle.Render("○ bridge"))
		b.WriteString(" " + m.spinner.View())
	}
	fmt.Fprintf(&b, "  %s", dimStyle.Render(fmt.Sprintf("mcp :%d, %d client(s)", m.mcpPort, m.mcpClients)))
	b.WriteString("\n\n")

	summary := m.store.Summarize(0)
	b.WriteString(headerStyle.Render("Network"))
	fmt.Fprintf(&b, "  %d captured", summary.Total)
	if n := summary.ByClass[netlog.ClassClientError] + summary.ByClass[netlog.ClassServerError] + summary.ByClass[netlog.ClassFailed]; n > 0 {
		b.WriteString(statusDownStyle.Render(fmt.Sprintf("  %d failing", n)))
	}
	if summary.Trackers > 0 {
		b.WriteString(blockedStyle.Render(fmt.Sprintf("  %d trackers", summary.Trackers)))
	}
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render("Activity"))
	b.WriteString("\n")
	start := 0
	visible := 15
	if m.height > 0 {
		visible = m.height - 8
	}
	if len(m.activity) > visible && visible > 0 {
		start = len(m.activity) - visible
	}
	for _, line := range m.activity[start:] {
		fmt.Fprintf(&b, "%s %s\n", dimStyle.Render(line.At.Format("15:04:05")), line.Text)
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("q quit · c clear capture"))
	return b.String()
}
