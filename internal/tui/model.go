package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"librarian/internal/domain"
)

// Recommender is the TUI-facing subset of the librarian service.
type Recommender interface {
	Recommend(ctx context.Context, query string) (domain.Recommendation, error)
}

type recommendationMsg struct {
	query string
	rec   domain.Recommendation
	err   error
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	ctx      context.Context
	service  Recommender
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	rec      *domain.Recommendation
	status   string
	cursor   int
	ready    bool
	loading  bool
	query    string
}

// New creates a new TUI model instance. ctx bounds every request it issues.
func New(ctx context.Context, service Recommender, banner string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Vreau o carte despre prietenie și magie"
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	vp := viewport.New(0, 0)
	if banner == "" {
		banner = "Scrie cererea ta și apasă Enter."
	}
	return Model{ctx: ctx, service: service, input: ti, viewport: vp, spinner: sp, status: banner}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) recommend(q string) tea.Cmd {
	return func() tea.Msg {
		rec, err := m.service.Recommend(m.ctx, q)
		return recommendationMsg{query: q, rec: rec, err: err}
	}
}

// Update handles key, window and result events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 1                                    // header
		totalFooterLines := 2 + m.candidateLines()               // candidates + status
		reserved := totalHeaderLines + totalFooterLines + qh + 1 // 1 spacer
		vh := msg.Height - reserved
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderRecommendation())
		return m, nil
	case recommendationMsg:
		if msg.query != m.query {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.status = domain.UserMessage(msg.err)
			m.viewport.SetContent(m.renderRecommendation())
			return m, nil
		}
		rec := msg.rec
		m.rec = &rec
		m.cursor = 0
		m.status = statusFor(rec)
		m.viewport.SetContent(m.renderRecommendation())
		m.viewport.GotoTop()
		return m, nil
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.loading {
				return m, nil
			}
			// Each query starts from a clean slate.
			m.rec = nil
			m.cursor = 0
			m.query = q
			m.loading = true
			m.status = fmt.Sprintf("Caut recomandări pentru %q...", q)
			m.input.SetValue("")
			m.viewport.SetContent(m.renderRecommendation())
			return m, tea.Batch(m.spinner.Tick, m.recommend(q))
		case "down":
			if n := m.candidateCount(); n > 0 {
				m.cursor = (m.cursor + 1) % n
				return m, nil
			}
		case "up":
			if n := m.candidateCount(); n > 0 {
				m.cursor = (m.cursor - 1 + n) % n
				return m, nil
			}
		case "pgdown", "pgup":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the layout.
func (m Model) View() string {
	if !m.ready {
		return "Se încarcă..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Smart Librarian")
	results := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := m.status
	if m.loading {
		status = m.spinner.View() + " " + status
	}
	status = statusStyle.Render(status)
	return header + "\n" + results + "\n" + m.renderCandidates() + "\n" + input + "\n" + status
}

func (m Model) candidateCount() int {
	if m.rec == nil {
		return 0
	}
	return len(m.rec.Candidates)
}

func (m Model) candidateLines() int {
	return max(1, m.candidateCount())
}

func (m Model) renderRecommendation() string {
	switch {
	case m.loading:
		return "Mă gândesc..."
	case m.rec == nil:
		return "Nicio recomandare încă."
	case m.rec.Blocked || m.rec.NoMatches:
		return m.rec.Notice
	}
	var b strings.Builder
	if m.rec.AssistantText != "" {
		b.WriteString("Recomandare: ")
		b.WriteString(m.rec.AssistantText)
		b.WriteString("\n\n")
	}
	if m.rec.Title == "" {
		b.WriteString(m.rec.Notice)
		return b.String()
	}
	b.WriteString(titleStyle.Render(fmt.Sprintf("Rezumat complet pentru '%s'", m.rec.Title)))
	b.WriteString("\n\n")
	b.WriteString(highlightBestSentence(m.rec.FullSummary, m.rec.Query))
	return b.String()
}

func (m Model) renderCandidates() string {
	if m.candidateCount() == 0 {
		return candidateStyle.Render("Candidați: -")
	}
	lines := make([]string, len(m.rec.Candidates))
	for i, c := range m.rec.Candidates {
		score := "n/a"
		if c.Score != nil {
			score = fmt.Sprintf("%.3f", *c.Score)
		}
		marker := "  "
		if i == m.cursor {
			marker = "> "
		}
		line := fmt.Sprintf("%s%s  score=%s", marker, c.Title, score)
		if c.Title == m.rec.Title {
			line = highlightStyle.Render(line)
		}
		lines[i] = line
	}
	return candidateStyle.Render(strings.Join(lines, "\n"))
}

func statusFor(rec domain.Recommendation) string {
	switch {
	case rec.Blocked, rec.NoMatches:
		return rec.Notice
	case rec.Title == "":
		return rec.Notice
	}
	return fmt.Sprintf("%d candidați pentru %q", len(rec.Candidates), rec.Query)
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	titleStyle     = lipgloss.NewStyle().Underline(true)
	candidateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	unicodeWordRe  = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe     = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

// highlightBestSentence emphasises the sentence sharing the most words with query.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx := 0
	bestScore := -1
	for i, s := range sentences {
		score := tokenOverlapScore(qTokens, s)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx && bestScore > 0 {
			sentences[i] = highlightStyle.Render(sent)
		} else {
			sentences[i] = sent
		}
	}
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	tokens := unicodeWordRe.FindAllString(strings.ToLower(sentence), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
