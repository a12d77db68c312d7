// Package tui provides the Bubble Tea practice interface.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/vocadrill/internal/logging"
	"github.com/verte-zerg/vocadrill/internal/model"
	"github.com/verte-zerg/vocadrill/internal/practice"
	"github.com/verte-zerg/vocadrill/internal/speech"
	"github.com/verte-zerg/vocadrill/internal/srs"
)

const speakTimeout = 10 * time.Second

type phase int

const (
	phaseAsk phase = iota
	phaseFeedback
	phaseSummary
)

// DeltaStore persists grading deltas.
type DeltaStore interface {
	ApplyDelta(ctx context.Context, d model.Delta) (bool, error)
}

// Options wires the collaborators of a Model. Zero values are valid.
type Options struct {
	Store DeltaStore
	// Pool supplies quiz distractors; the session's words when nil.
	Pool    []model.Word
	Speaker speech.Speaker
	Logger  *slog.Logger
	Rand    *rand.Rand
	Now     func() time.Time
}

// Model implements the Bubble Tea practice UI over a practice.Session.
type Model struct {
	sess    *practice.Session
	store   DeltaStore
	vocab   *model.Vocabulary
	speaker speech.Speaker
	log     *slog.Logger
	rnd     *rand.Rand
	now     func() time.Time

	width  int
	height int

	phase     phase
	word      model.Word
	input     textinput.Model
	revealed  bool
	hints     int
	choices   []string
	answer    int // correct choice index, -1 without choices
	picked    int
	deadline  time.Time
	last      *practice.Result
	lastInput string
	summary   *practice.Summary
	status    string
}

type autoNextMsg struct{ tok practice.Token }

type expireMsg struct{ tok practice.Token }

type countdownMsg struct{ tok practice.Token }

type spokeMsg struct{ err error }

var (
	correctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	extraStyle     = incorrectStyle.Copy().Strikethrough(true)
	accentStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	goodStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	badStyle       = incorrectStyle.Copy().Bold(true)
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// NewModel constructs a practice UI for sess.
func NewModel(sess *practice.Session, opts Options) *Model {
	m := &Model{
		sess:    sess,
		store:   opts.Store,
		speaker: opts.Speaker,
		log:     opts.Logger,
		rnd:     opts.Rand,
		now:     opts.Now,
		answer:  -1,
		picked:  -1,
	}
	pool := opts.Pool
	if pool == nil {
		pool = sess.Words()
	}
	m.vocab = model.NewVocabulary(pool)
	if m.speaker == nil {
		m.speaker = speech.Nop{}
	}
	if m.log == nil {
		m.log = logging.Discard()
	}
	if m.rnd == nil {
		m.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if m.now == nil {
		m.now = time.Now
	}
	m.input = textinput.New()
	m.input.Prompt = "> "
	m.input.CharLimit = 200
	m.input.Focus()
	m.prepareQuestion()
	return m
}

// Summary returns the finished session summary, if any.
func (m *Model) Summary() (practice.Summary, bool) {
	if m.summary == nil {
		return practice.Summary{}, false
	}
	return *m.summary, true
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.questionCmd()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(10, m.contentWidth()-4)
		return m, nil
	case autoNextMsg:
		if m.phase != phaseFeedback {
			return m, nil
		}
		if m.sess.State() == practice.Complete || m.sess.Timers().Valid(msg.tok) {
			return m, m.next()
		}
		return m, nil
	case expireMsg:
		if m.phase != phaseAsk {
			return m, nil
		}
		res := m.sess.Expire(msg.tok)
		if res == nil {
			return m, nil
		}
		m.lastInput = ""
		m.status = "Time is up."
		return m, m.handleResult(res)
	case countdownMsg:
		if m.phase == phaseAsk && m.sess.Timers().Valid(msg.tok) {
			return m, countdownTick(msg.tok)
		}
		return m, nil
	case spokeMsg:
		if msg.err != nil {
			m.log.Warn("speech failed", "err", msg.err)
			m.status = "Speech failed: " + msg.err.Error()
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	if m.phase == phaseAsk && m.freeText() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, m.quit()
	}
	switch m.phase {
	case phaseSummary:
		if msg.Type == tea.KeyEnter || msg.Type == tea.KeyEsc || msg.String() == "q" {
			return m, tea.Quit
		}
		return m, nil
	case phaseFeedback:
		switch msg.Type {
		case tea.KeyEnter, tea.KeySpace:
			return m, m.next()
		case tea.KeyEsc:
			return m, m.finish()
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEsc:
		if len(m.sess.Answers()) == 0 {
			return m, m.quit()
		}
		return m, m.finish()
	case tea.KeyCtrlS:
		m.lastInput = ""
		return m, m.handleResult(m.sess.Skip())
	case tea.KeyTab:
		m.hints = min(m.hints+1, len(m.sess.Settings().HintFields))
		return m, nil
	case tea.KeyCtrlR:
		if m.sess.Mode() == model.ModeDictation {
			return m, m.speakCmd()
		}
		return m, nil
	}

	switch {
	case m.sess.Mode() == model.ModeFlashcard:
		return m, m.updateFlashcard(msg)
	case m.answer >= 0:
		return m, m.updateQuiz(msg)
	}
	return m.updateFreeText(msg)
}

func (m *Model) updateFlashcard(msg tea.KeyMsg) tea.Cmd {
	if !m.revealed {
		if msg.Type == tea.KeyEnter || msg.Type == tea.KeySpace {
			m.revealed = true
		}
		return nil
	}
	if msg.Type != tea.KeyRunes {
		return nil
	}
	q, err := srs.ParseQuality(msg.String())
	if err != nil {
		return nil
	}
	m.lastInput = q.String()
	return m.handleResult(m.sess.Rate(q))
}

func (m *Model) updateQuiz(msg tea.KeyMsg) tea.Cmd {
	if msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return nil
	}
	idx := int(msg.Runes[0] - '1')
	if idx < 0 || idx >= len(m.choices) {
		return nil
	}
	m.picked = idx
	m.lastInput = m.choices[idx]
	return m.handleResult(m.sess.Submit(m.choices[idx], idx == m.answer))
}

func (m *Model) updateFreeText(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEnter {
		value := m.input.Value()
		if strings.TrimSpace(value) == "" {
			return m, nil
		}
		m.lastInput = value
		return m, m.handleResult(m.sess.Answer(value))
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleResult persists the delta and shows feedback for the answered word.
func (m *Model) handleResult(res *practice.Result) tea.Cmd {
	if res == nil {
		return nil
	}
	m.last = res
	m.persist(res)
	m.phase = phaseFeedback
	m.deadline = time.Time{}
	if !m.sess.Settings().AutoNext {
		return nil
	}
	tok := m.sess.Timers().Current()
	return tea.Tick(m.sess.Settings().AutoNextDelay, func(time.Time) tea.Msg {
		return autoNextMsg{tok: tok}
	})
}

func (m *Model) persist(res *practice.Result) {
	if res.Delta == nil {
		return
	}
	m.vocab.Apply(*res.Delta)
	if m.store == nil {
		return
	}
	if _, err := m.store.ApplyDelta(context.Background(), *res.Delta); err != nil {
		m.log.Error("apply delta", "word_id", res.Delta.WordID, "err", err)
		m.status = "Failed to save progress: " + err.Error()
	}
}

func (m *Model) next() tea.Cmd {
	if m.sess.State() != practice.Active {
		return m.finish()
	}
	m.phase = phaseAsk
	m.status = ""
	m.prepareQuestion()
	return m.questionCmd()
}

func (m *Model) finish() tea.Cmd {
	sum, err := m.sess.Finish(context.Background())
	if err != nil {
		m.log.Error("finish session", "err", err)
		m.status = "Failed to record session: " + err.Error()
	} else {
		m.log.Info("session finished", "mode", sum.Mode, "total", sum.Total, "score", sum.Score, "accuracy", sum.Accuracy)
	}
	m.summary = &sum
	m.phase = phaseSummary
	return nil
}

// quit records a session that has answers and discards an untouched one.
func (m *Model) quit() tea.Cmd {
	if m.phase != phaseSummary {
		if len(m.sess.Answers()) > 0 {
			m.finish()
		} else {
			m.sess.Dispose()
		}
	}
	return tea.Quit
}

func (m *Model) prepareQuestion() {
	w, ok := m.sess.Current()
	if !ok {
		return
	}
	settings := m.sess.Settings()
	m.word = w
	m.input.Reset()
	m.revealed = false
	m.hints = 0
	m.choices, m.answer, m.picked = nil, -1, -1
	m.last = nil
	if m.sess.Mode() == model.ModeQuiz {
		m.choices, m.answer = practice.Choices(w, m.vocab.Words(), settings.AnswerField, settings.Choices, m.rnd)
	}
	m.deadline = time.Time{}
	if settings.TimeLimit > 0 {
		m.deadline = m.now().Add(settings.TimeLimit)
	}
}

func (m *Model) questionCmd() tea.Cmd {
	if m.sess.State() != practice.Active {
		return nil
	}
	var cmds []tea.Cmd
	if limit := m.sess.Settings().TimeLimit; limit > 0 {
		tok := m.sess.Timers().Current()
		cmds = append(cmds,
			tea.Tick(limit, func(time.Time) tea.Msg { return expireMsg{tok: tok} }),
			countdownTick(tok))
	}
	if m.sess.Mode() == model.ModeDictation {
		cmds = append(cmds, m.speakCmd())
	}
	if m.freeText() {
		cmds = append(cmds, textinput.Blink)
	}
	return tea.Batch(cmds...)
}

func countdownTick(tok practice.Token) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return countdownMsg{tok: tok} })
}

func (m *Model) speakCmd() tea.Cmd {
	text := m.word.Text
	sp := m.speaker
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), speakTimeout)
		defer cancel()
		return spokeMsg{err: sp.Speak(ctx, text)}
	}
}

func (m *Model) freeText() bool {
	return m.sess.Mode() != model.ModeFlashcard && m.answer < 0
}

func (m *Model) contentWidth() int {
	if m.width == 0 {
		return 60
	}
	return max(1, int(float64(m.width)*0.70))
}

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	if m.phase == phaseSummary {
		content = m.renderSummary()
	} else {
		content = m.renderQuestion()
	}
	if m.width == 0 || m.height == 0 {
		return content + "\n" + m.renderFooter()
	}
	width := m.contentWidth()
	content = lipgloss.NewStyle().Width(width).Render(content)
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderQuestion() string {
	settings := m.sess.Settings()
	width := m.contentWidth()
	lines := []string{accentStyle.Render(strings.ToUpper(string(m.sess.Mode())))}
	if m.sess.Mode() == model.ModeDictation {
		lines = append(lines, labelStyle.Render("Listen and type the word. ctrl+r repeats."))
	}
	for _, f := range settings.AskFields {
		if v := m.word.FieldValue(f); v != "" {
			lines = append(lines, labelStyle.Render(string(f)), wrapText(v, width, correctStyle))
		}
	}
	for _, f := range settings.HintFields[:m.hints] {
		if v := m.word.FieldValue(f); v != "" {
			lines = append(lines, labelStyle.Render("hint: "+string(f)), wrapText(v, width, pendingStyle))
		}
	}
	lines = append(lines, "")

	switch {
	case m.sess.Mode() == model.ModeFlashcard:
		lines = append(lines, m.renderFlashcard(width)...)
	case len(m.choices) > 0:
		lines = append(lines, m.renderChoices()...)
	case m.phase == phaseAsk:
		lines = append(lines, m.input.View())
	}
	if m.phase == phaseFeedback {
		lines = append(lines, "", m.renderFeedback(width))
	}
	if m.status != "" {
		lines = append(lines, "", incorrectStyle.Render(m.status))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderFlashcard(width int) []string {
	if !m.revealed {
		return []string{labelStyle.Render("space: flip  tab: hint  ctrl+s: skip  esc: finish")}
	}
	answer := m.word.FieldValue(m.sess.Settings().AnswerField)
	lines := []string{wrapText(answer, width, accentStyle)}
	if m.phase == phaseAsk {
		lines = append(lines, "", labelStyle.Render("1 forgot  2 hard  3 good  4 easy"))
	}
	return lines
}

func (m *Model) renderChoices() []string {
	lines := make([]string, 0, len(m.choices))
	for i, c := range m.choices {
		style := correctStyle
		if m.phase == phaseFeedback {
			switch i {
			case m.answer:
				style = goodStyle
			case m.picked:
				style = badStyle
			default:
				style = pendingStyle
			}
		}
		lines = append(lines, style.Render(fmt.Sprintf("%d. %s", i+1, c)))
	}
	return lines
}

func (m *Model) renderFeedback(width int) string {
	res := m.last
	if res == nil {
		return ""
	}
	var lines []string
	switch {
	case res.Skipped:
		lines = append(lines, pendingStyle.Render("Skipped"))
	case res.Correct:
		lines = append(lines, goodStyle.Render("Correct"))
	default:
		lines = append(lines, badStyle.Render("Wrong"))
	}
	if m.freeText() && m.lastInput != "" && !res.Correct {
		diff := diffRunes([]rune(res.CorrectAnswer), []rune(strings.TrimSpace(m.lastInput)), m.sess.Settings().StrictMode)
		lines = append(lines, wrapStyledRunes(diff, width))
	}
	if !res.Correct && m.sess.Settings().ShowAnswer && m.sess.Mode() != model.ModeFlashcard {
		lines = append(lines, labelStyle.Render("answer: ")+correctStyle.Render(res.CorrectAnswer))
	}
	if res.Suggestion != "" {
		lines = append(lines, labelStyle.Render("did you mean: ")+accentStyle.Render(res.Suggestion))
	}
	lines = append(lines, labelStyle.Render("enter: next  esc: finish"))
	return strings.Join(lines, "\n")
}

func (m *Model) renderSummary() string {
	sum := m.summary
	if sum == nil {
		return ""
	}
	lines := []string{
		accentStyle.Render("Session complete"),
		fmt.Sprintf("Mode: %s", sum.Mode),
		fmt.Sprintf("Score: %d/%d (%d%%)", sum.Score, sum.Total, sum.Accuracy),
		fmt.Sprintf("Wrong: %d  Skipped: %d", sum.Wrong, sum.Skipped),
		fmt.Sprintf("Time: %s", sum.Duration.Round(time.Second)),
	}
	if sum.Streak.Days > 0 {
		lines = append(lines, fmt.Sprintf("Day streak: %d", sum.Streak.Days))
	}
	if m.status != "" {
		lines = append(lines, incorrectStyle.Render(m.status))
	}
	lines = append(lines, "", labelStyle.Render("enter: quit"))
	return strings.Join(lines, "\n")
}

func (m *Model) renderFooter() string {
	p := m.sess.Progress()
	if p.Total == 0 {
		return ""
	}
	current := min(p.Index+1, p.Total)
	if m.phase != phaseAsk {
		current = p.Index
	}
	segments := []string{
		fmt.Sprintf("Word %d/%d", current, p.Total),
		fmt.Sprintf("Score %d", p.Score),
		fmt.Sprintf("Wrong %d", p.Wrong),
		fmt.Sprintf("Skipped %d", p.Skipped),
	}
	if m.phase == phaseAsk && !m.deadline.IsZero() {
		left := max(0, m.deadline.Sub(m.now()))
		segments = append(segments, fmt.Sprintf("%ds left", int(left.Round(time.Second).Seconds())))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}
