// Package tui is the interactive terminal front end: three inputs, a price
// history table and an options chain table, redrawn by desk render steps.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"TickerDesk/internal/desk"
	"TickerDesk/internal/model"
)

const (
	inputSymbol = iota
	inputStart
	inputEnd
)

// Requester starts table refreshes. desk.Coordinator satisfies it.
type Requester interface {
	RequestPriceHistory(symbol, start, end string) uint64
	RequestOptionsChain(symbol string) uint64
}

// renderMsg carries a desk render step onto the bubbletea goroutine.
type renderMsg struct{ fn func() }

// programUI posts render steps into a running program.
type programUI struct{ p *tea.Program }

func (u *programUI) Post(fn func()) { u.p.Send(renderMsg{fn: fn}) }

type statusLine struct {
	text  string
	style lipgloss.Style
}

// Model is the bubbletea model. Its tables are the coordinator's render
// targets and are only touched inside Update.
type Model struct {
	Requester Requester

	inputs []textinput.Model
	focus  int
	active desk.RequestKind

	prices     *gridTable
	options    *gridTable
	priceView  table.Model
	optionView table.Model

	status map[desk.RequestKind]statusLine
	dirty  map[desk.RequestKind]bool
	width  int
}

// NewModel creates a Model with the inputs prefilled.
func NewModel(symbol, start, end string) *Model {
	m := &Model{
		active:  desk.KindPrices,
		prices:  &gridTable{},
		options: &gridTable{},
		status:  map[desk.RequestKind]statusLine{},
		dirty:   map[desk.RequestKind]bool{},
	}
	m.inputs = []textinput.Model{
		newInput("AAPL", symbol, 12),
		newInput("YYYY-MM-DD", start, 10),
		newInput("YYYY-MM-DD", end, 10),
	}
	m.inputs[inputSymbol].Focus()

	m.priceView = newView(8)
	m.optionView = newView(8)
	return m
}

func newInput(placeholder, value string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Width = limit + 1
	ti.SetValue(value)
	return ti
}

func newView(height int) table.Model {
	t := table.New(table.WithFocused(true), table.WithHeight(height))
	t.SetStyles(tableStyles())
	return t
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Rendered records the outcome of a render step. Set it as the
// coordinator's OnRender hook.
func (m *Model) Rendered(r desk.Report) {
	m.status[r.Kind] = statusLine{text: r.String(), style: statusStyle(r.Status)}
	m.dirty[r.Kind] = true
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case renderMsg:
		msg.fn()
		if m.dirty[desk.KindPrices] {
			syncView(&m.priceView, m.prices)
		}
		if m.dirty[desk.KindOptions] {
			syncView(&m.optionView, m.options)
		}
		m.dirty = map[desk.RequestKind]bool{}
		return m, nil

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			return m, m.cycleFocus(1)
		case "shift+tab":
			return m, m.cycleFocus(-1)
		case "ctrl+p", "enter":
			m.requestPrices()
			return m, nil
		case "ctrl+o":
			m.requestOptions()
			return m, nil
		case "ctrl+t":
			if m.active == desk.KindPrices {
				m.active = desk.KindOptions
			} else {
				m.active = desk.KindPrices
			}
			return m, nil
		case "up", "down", "pgup", "pgdown", "home", "end":
			var cmd tea.Cmd
			if m.active == desk.KindPrices {
				m.priceView, cmd = m.priceView.Update(msg)
			} else {
				m.optionView, cmd = m.optionView.Update(msg)
			}
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) cycleFocus(delta int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
	return m.inputs[m.focus].Focus()
}

func (m *Model) symbol() string {
	return strings.TrimSpace(m.inputs[inputSymbol].Value())
}

func (m *Model) requestPrices() {
	sym := m.symbol()
	if sym == "" {
		m.status[desk.KindPrices] = statusLine{text: "enter a symbol", style: errorStyle}
		return
	}
	start := strings.TrimSpace(m.inputs[inputStart].Value())
	end := strings.TrimSpace(m.inputs[inputEnd].Value())
	if m.Requester != nil {
		m.Requester.RequestPriceHistory(sym, start, end)
	}
	m.status[desk.KindPrices] = statusLine{
		text:  fmt.Sprintf("loading %s %s to %s", sym, start, end),
		style: dimStyle,
	}
}

func (m *Model) requestOptions() {
	sym := m.symbol()
	if sym == "" {
		m.status[desk.KindOptions] = statusLine{text: "enter a symbol", style: errorStyle}
		return
	}
	if m.Requester != nil {
		m.Requester.RequestOptionsChain(sym)
	}
	m.status[desk.KindOptions] = statusLine{text: fmt.Sprintf("loading %s calls", sym), style: dimStyle}
}

func (m *Model) resize(width, height int) {
	m.width = width
	avail := height - 12
	if avail < 6 {
		avail = 6
	}
	m.priceView.SetHeight(avail / 2)
	m.optionView.SetHeight(avail - avail/2)
	if width > 4 {
		m.priceView.SetWidth(width - 4)
		m.optionView.SetWidth(width - 4)
	}
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("TickerDesk"))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("Symbol ") + m.inputs[inputSymbol].View() + "  ")
	b.WriteString(labelStyle.Render("Start ") + m.inputs[inputStart].View() + "  ")
	b.WriteString(labelStyle.Render("End ") + m.inputs[inputEnd].View())
	b.WriteString("\n\n")

	b.WriteString(m.section("Price history", desk.KindPrices, m.priceView.View()))
	b.WriteString(m.section("Options chain (calls)", desk.KindOptions, m.optionView.View()))

	b.WriteString(footerStyle.Render("enter/ctrl+p prices  ctrl+o options  tab next field  ctrl+t switch table  esc quit"))
	return b.String()
}

func (m *Model) section(title string, kind desk.RequestKind, body string) string {
	border := idleBorder
	if m.active == kind {
		border = activeBorder
	}
	head := headingStyle.Render(title)
	if st, ok := m.status[kind]; ok {
		head += "  " + st.style.Render(st.text)
	}
	return head + "\n" + border.Render(body) + "\n"
}

func statusStyle(s model.Status) lipgloss.Style {
	switch s {
	case model.StatusOK:
		return okStyle
	case model.StatusEmpty:
		return emptyStyle
	default:
		return errorStyle
	}
}
