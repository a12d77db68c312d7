// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/vocadrill/internal/model"
	"github.com/verte-zerg/vocadrill/internal/stats"
)

const (
	tabOverview = iota
	tabHistory
	tabWeak
)

const (
	plotHeight = 10
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea stats UI.
type Model struct {
	src  stats.Source
	opts stats.ReportOptions

	report stats.Report
	errMsg string

	tabs      []string
	activeTab int
	overview  viewport.Model
	tables    map[int]*table.Model
	layouts   map[int]*tableLayout

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

type tableLayout struct {
	width    int
	height   int
	rowCount int
	colCount int
}

// NewModel constructs a stats UI model.
func NewModel(src stats.Source, opts stats.ReportOptions) *Model {
	if opts.CurveWindow < 1 {
		opts.CurveWindow = 1
	}
	m := &Model{
		src:      src,
		opts:     opts,
		tabs:     []string{"Overview", "History", "Weak Words"},
		overview: viewport.New(0, 0),
		tables:   map[int]*table.Model{},
		layouts:  map[int]*tableLayout{},
	}
	for _, tab := range []int{tabHistory, tabWeak} {
		t := newTable(nil, 0, 1)
		m.tables[tab] = &t
		m.layouts[tab] = &tableLayout{}
	}
	m.initInputs()
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderOverview()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || (!m.filterMode && msg.String() == "q") {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=":
			m.opts.CurveWindow = nextCurveWindow(m.opts.CurveWindow)
			m.renderOverview()
			return m, nil
		case "-":
			m.opts.CurveWindow = prevCurveWindow(m.opts.CurveWindow)
			m.renderOverview()
			return m, nil
		case "/":
			return m.startFilter()
		case "g", "home":
			if t := m.activeTable(); t != nil {
				t.GotoTop()
			} else {
				m.overview.GotoTop()
			}
			return m, nil
		case "G", "end":
			if t := m.activeTable(); t != nil {
				t.GotoBottom()
			} else {
				m.overview.GotoBottom()
			}
			return m, nil
		default:
			var cmd tea.Cmd
			if t := m.activeTable(); t != nil {
				*t, cmd = t.Update(msg)
				return m, cmd
			}
			m.overview, cmd = m.overview.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) activeTable() *table.Model {
	return m.tables[m.activeTab]
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Mode: "),
		newFilterInput("Since (YYYY-MM-DD): "),
		newFilterInput("Last: "),
		newFilterInput("Curve window: "),
	}
	m.setInputsFromOptions()
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(1, lipgloss.Height(activeNavStyle.Render("X")))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromOptions() {
	m.filterInputs[0].SetValue(string(m.opts.Mode))
	if m.opts.Since != nil {
		m.filterInputs[1].SetValue(m.opts.Since.Format("2006-01-02"))
	} else {
		m.filterInputs[1].SetValue("")
	}
	if m.opts.Last > 0 {
		m.filterInputs[2].SetValue(strconv.Itoa(m.opts.Last))
	} else {
		m.filterInputs[2].SetValue("")
	}
	m.filterInputs[3].SetValue(strconv.Itoa(m.opts.CurveWindow))
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.overview.Width = m.width
	m.overview.Height = bodyHeight
	for tab, t := range m.tables {
		m.layouts[tab].resize(t, m.width, bodyHeight)
	}
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = max(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := (m.activeTab + delta + count) % count
	if t := m.activeTable(); t != nil {
		t.Blur()
	}
	m.activeTab = next
	if t := m.activeTable(); t != nil {
		t.Focus()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	filters := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + filters
}

func (m *Model) renderFilterSummary() string {
	mode := string(m.opts.Mode)
	if mode == "" {
		mode = "any"
	}
	since := "any"
	if m.opts.Since != nil {
		since = m.opts.Since.Format("2006-01-02")
	}
	last := "all"
	if m.opts.Last > 0 {
		last = strconv.Itoa(m.opts.Last)
	}
	summary := fmt.Sprintf("Settings: mode=%s  since=%s  last=%s  window=%d", mode, since, last, m.opts.CurveWindow)
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderHelp() string {
	help := "Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Settings: /  Quit: q"
	if m.activeTab != tabOverview {
		help = "Nav: left/right  Rows: up/down  Top/Bottom: g/G  Settings: /  Quit: q"
	}
	return headerStyle.Render(help)
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	if m.errMsg != "" {
		return m.renderHelp() + "\n" + errorStyle.Render(m.errMsg)
	}
	return m.renderHelp()
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Settings (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	switch m.activeTab {
	case tabHistory:
		if len(m.report.History) == 0 {
			return fitLines("No sessions found.", m.width, height)
		}
	case tabWeak:
		if len(m.report.Weak) == 0 {
			return fitLines("No weak words found.", m.width, height)
		}
	default:
		return fitLines(m.overview.View(), m.width, height)
	}
	return fitLines(tableMutedStyle.Render(m.activeTable().View()), m.width, height)
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.src, m.opts)
	if err != nil {
		m.errMsg = err.Error()
		m.overview.SetContent("Failed to load stats.")
		return
	}
	m.errMsg = ""
	m.report = report

	width := m.width
	if width <= 0 {
		width = 80
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.layouts[tabHistory].apply(m.tables[tabHistory], historyColumns(), historyRows(report.History), width, bodyHeight)
	m.layouts[tabWeak].apply(m.tables[tabWeak], weakColumns(), weakRows(report.Weak), width, bodyHeight)
	m.renderOverview()
}

func (m *Model) renderOverview() {
	if m.errMsg != "" {
		m.overview.SetContent("Failed to load stats.")
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.overview.SetContent(renderOverview(m.report, m.opts.CurveWindow, width))
}

func renderOverview(r stats.Report, window, width int) string {
	parts := []string{renderSummaryCards(r.Overview, width)}
	if len(r.History) > 0 {
		parts = append(parts, renderCurves(r.History, window, width))
	}
	var buf bytes.Buffer
	if err := stats.RenderModes(&buf, r.Modes); err == nil && buf.Len() > 0 {
		parts = append(parts, strings.TrimRight(buf.String(), "\n"))
	}
	buf.Reset()
	if err := stats.RenderForecast(&buf, r.Forecast, r.Now); err == nil && buf.Len() > 0 {
		parts = append(parts, strings.TrimRight(buf.String(), "\n"))
	}
	return strings.Join(parts, "\n\n")
}

func renderSummaryCards(o stats.Overview, width int) string {
	cards := []string{
		metricCard("Words", fmt.Sprintf("%d", o.Words)),
		metricCard("Mastered", fmt.Sprintf("%d", o.Mastered)),
		metricCard("Due", fmt.Sprintf("%d", o.Due)),
		metricCard("Sessions", fmt.Sprintf("%d", o.Sessions)),
		metricCard("Avg Acc", fmt.Sprintf("%.1f%%", o.AvgAccuracy)),
		metricCard("Streak", fmt.Sprintf("%d d", o.Streak)),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4], cards[5])
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderCurves(history []model.HistoryEntry, window, width int) string {
	var buf bytes.Buffer
	if err := stats.RenderCurves(&buf, history, window, width, plotHeight, true); err != nil {
		return fmt.Sprintf("Failed to render curves: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func historyColumns() []table.Column {
	widths := []int{16, 9, 5, 7, 5, 7, 8, 9}
	cols := make([]table.Column, len(stats.HistoryHeaders))
	for i, h := range stats.HistoryHeaders {
		cols[i] = table.Column{Title: h, Width: widths[i]}
	}
	return cols
}

// historyRows lists sessions newest first.
func historyRows(history []model.HistoryEntry) []table.Row {
	rows := stats.HistoryRows(history)
	out := make([]table.Row, len(rows))
	for i, r := range rows {
		out[len(rows)-1-i] = table.Row(r)
	}
	return out
}

func weakColumns() []table.Column {
	return []table.Column{
		{Title: "Word", Width: 20},
		{Title: "Score", Width: 6},
		{Title: "Accuracy", Width: 9},
		{Title: "Reviews", Width: 7},
		{Title: "Streak", Width: 6},
		{Title: "Missed", Width: 6},
	}
}

func weakRows(ranked []stats.RankedWord) []table.Row {
	rows := make([]table.Row, 0, len(ranked))
	for _, r := range ranked {
		missed := ""
		if r.RecentWrong {
			missed = "yes"
		}
		rows = append(rows, table.Row{
			r.Word.Text,
			fmt.Sprintf("%d", r.Score),
			fmt.Sprintf("%.0f%%", r.Word.Accuracy()*100),
			fmt.Sprintf("%d", r.Word.ReviewCount),
			fmt.Sprintf("%d", r.Word.Streak),
			missed,
		})
	}
	return rows
}

func newTable(columns []table.Column, width, height int) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(max(1, height-1)),
	)
	t.SetWidth(width)
	t.SetStyles(tableStyles())
	return t
}

func (l *tableLayout) apply(t *table.Model, cols []table.Column, rows []table.Row, width, height int) {
	t.SetColumns(cols)
	t.SetRows(rows)
	l.rowCount = len(rows)
	l.colCount = len(cols)
	l.width, l.height = 0, 0
	l.resize(t, width, height)
}

func (l *tableLayout) resize(t *table.Model, width, height int) {
	viewportHeight := max(1, height-1)
	if l.width == width && l.height == viewportHeight {
		return
	}
	l.width = width
	l.height = viewportHeight
	t.SetWidth(width)
	t.SetHeight(viewportHeight)
	if h := adjustTableHeight(t, height); h != l.height {
		l.height = h
		t.SetHeight(h)
	}
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

// adjustTableHeight makes the rendered table, header included, fill bodyHeight.
func adjustTableHeight(t *table.Model, bodyHeight int) int {
	target := max(1, bodyHeight)
	height := t.Height()
	for i := 0; i < 2; i++ {
		viewHeight := lipgloss.Height(t.View())
		if viewHeight == target {
			return height
		}
		height = max(1, height+target-viewHeight)
		t.SetHeight(height)
	}
	return height
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromOptions()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.refreshReport()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	m.filterIndex = (idx + count) % count
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applyFilter() error {
	var mode model.Mode
	if raw := strings.TrimSpace(m.filterInputs[0].Value()); raw != "" && raw != "any" {
		parsed, err := model.ParseMode(raw)
		if err != nil {
			return err
		}
		mode = parsed
	}

	var since *time.Time
	if raw := strings.TrimSpace(m.filterInputs[1].Value()); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			return fmt.Errorf("invalid since date (expected YYYY-MM-DD)")
		}
		since = &parsed
	}

	last := 0
	if raw := strings.TrimSpace(m.filterInputs[2].Value()); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return fmt.Errorf("invalid last value (use 0 or positive integer)")
		}
		last = parsed
	}

	window := 1
	if raw := strings.TrimSpace(m.filterInputs[3].Value()); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return fmt.Errorf("invalid curve window (use integer >= 1)")
		}
		window = parsed
	}

	m.opts.Mode = mode
	m.opts.Since = since
	m.opts.Last = last
	m.opts.CurveWindow = window
	return nil
}

func nextCurveWindow(n int) int {
	if n < 5 {
		return 5
	}
	return (n/5 + 1) * 5
}

func prevCurveWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return (n / 5) * 5
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
