package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/storyloom/guardrail/pkg/delta"
	"github.com/storyloom/guardrail/pkg/engine"
	"github.com/storyloom/guardrail/pkg/guardrail"
)

const PlaceHolderText = "Paste narrative text here, then press Enter to validate..."

// turnEntry is one submitted turn and its verdict, kept for the transcript.
type turnEntry struct {
	narrative string
	category  string
	verdict   *engine.Verdict
}

// ConsoleUI is the BubbleTea model that runs the review console.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config        *ConsoleConfig
	client        *http.Client
	turns         []turnEntry
	priorState    json.RawMessage
	pendingDelta  json.RawMessage
	categoryIdx   int
	transcriptVp  viewport.Model
	metaViewport  viewport.Model
	textarea      textarea.Model
	ready         bool
	width         int
	height        int
	err           error
	loading       bool
	statusLine    string
	showQuitModal bool
	progressTick  int
}

type verdictMsg struct {
	narrative string
	category  string
	verdict   *engine.Verdict
	err       error
}

type progressTickMsg struct{}

var (
	transcriptPanelStyle = lipgloss.NewStyle().
				PaddingTop(2).
				PaddingBottom(1).
				PaddingLeft(3).
				PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	commitStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	rejectStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")). // red
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

// categoryChoices is what Tab cycles through: the empty string means no
// declared exploit on this turn.
var categoryChoices = func() []string {
	choices := []string{""}
	for _, c := range guardrail.Categories {
		choices = append(choices, string(c))
	}
	return choices
}()

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 4000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	transcriptVp := viewport.New(50, 20)
	transcriptVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:       cfg,
		client:       client,
		priorState:   json.RawMessage("{}"),
		pendingDelta: json.RawMessage("{}"),
		textarea:     ta,
		transcriptVp: transcriptVp,
		metaViewport: metaVp,
		ready:        false,
	}
}

func (m ConsoleUI) selectedCategory() string {
	return categoryChoices[m.categoryIdx%len(categoryChoices)]
}

func writeInitialContent(transcriptWidth int) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("GUARDRAIL REVIEW CONSOLE") + "\n\n")
	content.WriteString("Paste narrative text below to run it through the validation engine.\n")
	content.WriteString("Use /delta to attach a state delta and Tab to declare an exploit category.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", transcriptWidth-6)) + "\n\n")
	return content.String()
}

func (m *ConsoleUI) writeMetadata() string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("LAST VERDICT") + "\n\n")

	if len(m.turns) == 0 {
		content.WriteString("No turns submitted yet.\n\n")
	} else {
		last := m.turns[len(m.turns)-1]
		v := last.verdict

		content.WriteString("Turn ID:\n")
		content.WriteString(v.TurnID.String()[:8] + "...\n\n")

		content.WriteString("Outcome:\n")
		content.WriteString(renderOutcome(v.Outcome) + "\n\n")

		content.WriteString("Exploit:\n")
		content.WriteString(fmt.Sprintf("%s (%.2f)\n", v.ExploitOutcome, v.Confidence))
		if v.MatchedCategory != "" {
			content.WriteString("matched: " + string(v.MatchedCategory) + "\n")
		}
		content.WriteString("\n")

		content.WriteString("Findings:\n")
		if len(v.DeltaFindings) == 0 {
			content.WriteString("None\n")
		} else {
			for _, f := range v.DeltaFindings {
				content.WriteString(fmt.Sprintf("• [%s] %s\n", f.Severity, f.Path))
			}
		}
		content.WriteString("\n")

		content.WriteString("Signals:\n")
		if len(v.GuardrailSignals) == 0 {
			content.WriteString("None\n")
		} else {
			for _, s := range v.GuardrailSignals {
				content.WriteString(fmt.Sprintf("• %s %s\n", s.Category, s.Polarity))
			}
		}
		content.WriteString("\n")
	}

	content.WriteString("Declared category:\n")
	if c := m.selectedCategory(); c != "" {
		content.WriteString(c + "\n\n")
	} else {
		content.WriteString("(none)\n\n")
	}

	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Validate\n")
	content.WriteString("• Tab: Cycle category\n")
	content.WriteString("• Ctrl+Y: Copy evidence\n")
	content.WriteString("• /delta {json}: Set delta\n")
	content.WriteString("• /prior {json}: Set prior\n")
	content.WriteString("• /reset: Clear session\n")

	return content.String()
}

// writeTranscriptContent rebuilds the transcript for the current viewport width.
func (m *ConsoleUI) writeTranscriptContent() {
	transcriptWidth := m.transcriptVp.Width - 6 // Account for left(3) + right(3) padding

	var content strings.Builder
	content.WriteString(writeInitialContent(transcriptWidth))

	for _, turn := range m.turns {
		header := "Turn"
		if turn.category != "" {
			header = fmt.Sprintf("Turn (declared %s)", turn.category)
		}
		content.WriteString(userStyle.Render(header+": ") + wordwrap.String(turn.narrative, transcriptWidth-6) + "\n")
		content.WriteString(renderVerdictLine(turn.verdict, transcriptWidth) + "\n\n")
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}
	if m.statusLine != "" {
		content.WriteString(promptStyle.Render(m.statusLine) + "\n")
	}

	m.transcriptVp.SetContent(content.String())
	m.transcriptVp.GotoBottom()
}

func renderOutcome(outcome engine.Outcome) string {
	switch outcome {
	case engine.OutcomeReject:
		return rejectStyle.Render(string(outcome))
	case engine.OutcomeCommitWithWarning:
		return warnStyle.Render(string(outcome))
	default:
		return commitStyle.Render(string(outcome))
	}
}

func renderVerdictLine(v *engine.Verdict, width int) string {
	var line strings.Builder
	line.WriteString(renderOutcome(v.Outcome))
	line.WriteString(fmt.Sprintf("  exploit=%s", v.ExploitOutcome))
	if len(v.DeltaFindings) > 0 {
		line.WriteString(fmt.Sprintf("  findings=%d", len(v.DeltaFindings)))
	}
	if len(v.GuardrailSignals) > 0 {
		line.WriteString(fmt.Sprintf("  signals=%d", len(v.GuardrailSignals)))
	}

	out := line.String()
	for _, f := range v.DeltaFindings {
		detail := fmt.Sprintf("  %s: %s (expected %s, got %s)", f.Path, f.Reason, f.Expected, f.Actual)
		out += "\n" + wordwrap.String(detail, width-6)
	}
	return out
}

func (m ConsoleUI) Init() tea.Cmd {
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.transcriptVp, vpCmd = m.transcriptVp.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		transcriptWidth := int(float64(m.width)*0.75) - 4
		metaWidth := m.width - transcriptWidth - 6

		m.transcriptVp.Width = transcriptWidth - 2
		m.transcriptVp.Height = m.height - 7
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.textarea.SetWidth(transcriptWidth - 4)

		m.ready = true
		m.writeTranscriptContent()
		m.metaViewport.SetContent(m.writeMetadata())

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil

		case tea.KeyTab:
			m.categoryIdx = (m.categoryIdx + 1) % len(categoryChoices)
			m.metaViewport.SetContent(m.writeMetadata())
			return m, nil

		case tea.KeyCtrlY:
			return m.copyEvidence()

		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.textarea.Reset()
			m.loading = true
			m.statusLine = ""
			m.progressTick = 0
			m.writeTranscriptContent()

			return m, tea.Batch(m.submitTurn(input), progressTick())
		}

	case verdictMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.writeTranscriptContent()
			currentContent := m.transcriptVp.View()
			errorMsg := errorStyle.Render("Error: "+msg.err.Error()) + "\n\n"
			m.transcriptVp.SetContent(currentContent + errorMsg)
		} else {
			m.turns = append(m.turns, turnEntry{
				narrative: msg.narrative,
				category:  msg.category,
				verdict:   msg.verdict,
			})
			// Committed deltas become the prior for the next turn.
			if msg.verdict.Outcome != engine.OutcomeReject && len(msg.verdict.NormalizedDelta) > 0 {
				m.priorState = advancePrior(m.priorState, msg.verdict.NormalizedDelta)
			}
			m.writeTranscriptContent()
			m.metaViewport.SetContent(m.writeMetadata())
		}
		m.transcriptVp.GotoBottom()
		return m, nil

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeTranscriptContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.transcriptVp, vpCmd = m.transcriptVp.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

// advancePrior merges a committed delta's top-level domains over the prior
// state so the console can replay multi-turn sessions. The API does the same
// merge server-side when a session ID is supplied.
func advancePrior(prior, committed json.RawMessage) json.RawMessage {
	merged, err := delta.MergeCommitted(prior, committed)
	if err != nil {
		return prior
	}
	return merged
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	trimmed := strings.TrimSpace(input)

	switch {
	case trimmed == "/help":
		m.statusLine = "Commands: /delta {json}, /prior {json}, /reset, /help"

	case trimmed == "/reset":
		m.priorState = json.RawMessage("{}")
		m.pendingDelta = json.RawMessage("{}")
		m.turns = nil
		m.categoryIdx = 0
		m.statusLine = "Session cleared."
		m.metaViewport.SetContent(m.writeMetadata())

	case strings.HasPrefix(trimmed, "/delta "):
		payload := strings.TrimSpace(strings.TrimPrefix(trimmed, "/delta "))
		if !json.Valid([]byte(payload)) {
			m.statusLine = "Invalid JSON after /delta."
		} else {
			m.pendingDelta = json.RawMessage(payload)
			m.statusLine = "State delta set for next turn."
		}

	case strings.HasPrefix(trimmed, "/prior "):
		payload := strings.TrimSpace(strings.TrimPrefix(trimmed, "/prior "))
		if !json.Valid([]byte(payload)) {
			m.statusLine = "Invalid JSON after /prior."
		} else {
			m.priorState = json.RawMessage(payload)
			m.statusLine = "Prior state replaced."
		}

	default:
		m.statusLine = "Unknown command. Try /help."
	}

	m.textarea.Reset()
	m.writeTranscriptContent()
	return m, nil
}

func (m ConsoleUI) copyEvidence() (tea.Model, tea.Cmd) {
	if len(m.turns) == 0 {
		m.statusLine = "No verdict to copy yet."
		m.writeTranscriptContent()
		return m, nil
	}

	record := m.turns[len(m.turns)-1].verdict.Evidence()
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		m.statusLine = "Failed to encode evidence record."
	} else if err := clipboard.WriteAll(string(data)); err != nil {
		m.statusLine = "Clipboard unavailable: " + err.Error()
	} else {
		m.statusLine = "Evidence record copied to clipboard."
	}
	m.writeTranscriptContent()
	return m, nil
}

func (m ConsoleUI) submitTurn(narrative string) tea.Cmd {
	category := m.selectedCategory()
	req := engine.TurnRequest{
		PriorState:              m.priorState,
		StateDelta:              m.pendingDelta,
		NarrativeText:           narrative,
		DeclaredExploitCategory: category,
	}
	return func() tea.Msg {
		verdict, err := postTurn(m.client, m.config.APIBaseURL, req)
		return verdictMsg{narrative: narrative, category: category, verdict: verdict, err: err}
	}
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Review Console?"))
	content.WriteString("\n\n")
	content.WriteString("Unsaved session state will be lost.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	transcriptWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - transcriptWidth - 6

	transcriptPanel := transcriptPanelStyle.Width(transcriptWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.transcriptVp.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", transcriptWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, transcriptPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.transcriptVp.Width - 6
	if usable <= 0 {
		usable = 30 // fallback before sizing
	}

	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
