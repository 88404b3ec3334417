package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// signal-watch polls the telemetry service's read API and renders the
// recent window of each stream.

const defaultBaseURL = "http://127.0.0.1:8080"

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Bold(true)

	rowStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	healthyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

var streams = []string{"state_change", "error", "power"}

type signal struct {
	ID         uint      `json:"id"`
	SignalType string    `json:"signal_type"`
	Value      float64   `json:"value"`
	Timestamp  time.Time `json:"timestamp"`
}

type model struct {
	baseURL  string
	client   *http.Client
	healthy  bool
	health   string
	recent   map[string][]signal
	fetchErr error
	quitting bool
}

type pollTickMsg struct{}

type telemetryMsg struct {
	healthy bool
	health  string
	recent  map[string][]signal
	err     error
}

func initialModel(baseURL string) model {
	return model{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		health:  "connecting...",
		recent:  map[string][]signal{},
	}
}

func (m model) Init() tea.Cmd {
	return fetchTelemetry(m.client, m.baseURL)
}

func pollTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return pollTickMsg{}
	})
}

func fetchTelemetry(client *http.Client, baseURL string) tea.Cmd {
	return func() tea.Msg {
		msg := telemetryMsg{recent: map[string][]signal{}}

		resp, err := client.Get(baseURL + "/health")
		if err != nil {
			msg.err = err
			msg.health = "service unreachable"
			return msg
		}
		msg.health = healthStatus(resp.Body)
		resp.Body.Close()
		msg.healthy = resp.StatusCode == http.StatusOK

		for _, stream := range streams {
			resp, err := client.Get(baseURL + "/signals/" + stream)
			if err != nil {
				msg.err = err
				return msg
			}
			var recent []signal
			if err := json.NewDecoder(resp.Body).Decode(&recent); err != nil {
				resp.Body.Close()
				msg.err = fmt.Errorf("decoding %s: %w", stream, err)
				return msg
			}
			resp.Body.Close()
			msg.recent[stream] = recent
		}
		return msg
	}
}

// healthStatus reads a /health response body. A body that is not the
// expected JSON (a proxy error page, a truncated response) still has to
// render as something on the status line.
func healthStatus(body io.Reader) string {
	var health struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(body).Decode(&health); err != nil || health.Status == "" {
		return "unhealthy"
	}
	return health.Status
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m, fetchTelemetry(m.client, m.baseURL)
		}

	case pollTickMsg:
		return m, fetchTelemetry(m.client, m.baseURL)

	case telemetryMsg:
		m.healthy = msg.healthy
		m.health = msg.health
		m.fetchErr = msg.err
		for stream, recent := range msg.recent {
			m.recent[stream] = recent
		}
		return m, pollTick()
	}

	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	s := titleStyle.Render("signal-watch — "+m.baseURL) + "\n"

	if m.healthy {
		s += healthyStyle.Render("● "+m.health) + "\n\n"
	} else {
		s += errorStyle.Render("● "+m.health) + "\n\n"
	}

	if m.fetchErr != nil {
		s += errorStyle.Render(fmt.Sprintf("fetch error: %v", m.fetchErr)) + "\n\n"
	}

	for _, stream := range streams {
		s += headerStyle.Render(stream) + "\n"
		recent := m.recent[stream]
		if len(recent) == 0 {
			s += rowStyle.Render("(no readings)") + "\n"
		}
		for _, sig := range recent {
			s += rowStyle.Render(fmt.Sprintf("#%-8d %10.2f   %s",
				sig.ID, sig.Value, sig.Timestamp.Local().Format("15:04:05.000"))) + "\n"
		}
		s += "\n"
	}

	s += hintStyle.Render("r: refresh now • q: quit")
	return s
}

func main() {
	baseURL := defaultBaseURL
	if v := os.Getenv("WATCH_BASE_URL"); v != "" {
		baseURL = v
	}
	if len(os.Args) > 1 {
		baseURL = os.Args[1]
	}

	p := tea.NewProgram(initialModel(baseURL))
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
