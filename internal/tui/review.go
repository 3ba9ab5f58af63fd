// Package tui is the interactive review screen: a list of disposable
// sessions where the user marks candidates and trashes them in one go.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/key"
	"github.com/mattn/go-runewidth"

	"github.com/ccsweep/ccsweep/internal/render"
	"github.com/ccsweep/ccsweep/internal/session"
	"github.com/ccsweep/ccsweep/internal/trash"
)

type model struct {
	journal  *trash.Journal
	sums     []*session.Summary
	marked   map[int]bool
	cursor   int
	offset   int
	width    int
	height   int
	trashed  int
	lastErr  error
	quitting bool
}

// Run opens the review screen over the given summaries. It returns how many
// sessions were trashed.
func Run(journal *trash.Journal, sums []*session.Summary) (int, error) {
	m := model{
		journal: journal,
		sums:    sums,
		marked:  make(map[int]bool),
		width:   80,
		height:  24,
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return 0, err
	}
	return final.(model).trashed, nil
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			m.adjustScroll()

		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.sums)-1 {
				m.cursor++
			}
			m.adjustScroll()

		case key.Matches(msg, keys.Mark):
			if len(m.sums) > 0 {
				m.marked[m.cursor] = !m.marked[m.cursor]
				if m.cursor < len(m.sums)-1 {
					m.cursor++
					m.adjustScroll()
				}
			}

		case key.Matches(msg, keys.Trash):
			m = m.trashMarked()
		}
	}
	return m, nil
}

// trashMarked trashes every marked session and drops it from the list.
func (m model) trashMarked() model {
	var remaining []*session.Summary
	marked := m.marked
	m.marked = make(map[int]bool)
	m.lastErr = nil

	for i, s := range m.sums {
		if !marked[i] {
			remaining = append(remaining, s)
			continue
		}
		if _, err := m.journal.Trash(s, "reviewed: "+s.Tier.Label()); err != nil {
			m.lastErr = err
			remaining = append(remaining, s)
			continue
		}
		m.trashed++
	}

	m.sums = remaining
	if m.cursor >= len(m.sums) {
		m.cursor = len(m.sums) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.adjustScroll()
	return m
}

func (m *model) adjustScroll() {
	visible := m.listHeight()
	if visible < 1 {
		visible = 1
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

func (m model) listHeight() int {
	return m.height - 3 // title + status + error line
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(styleTitle.Render(fmt.Sprintf(" review — %d sessions, %d trashed", len(m.sums), m.trashed)))
	b.WriteString("\n")

	height := m.listHeight()
	if len(m.sums) == 0 {
		b.WriteString(styleDimText.Render("  nothing left to review"))
		b.WriteString("\n")
	}

	for i := m.offset; i < len(m.sums) && i-m.offset < height; i++ {
		s := m.sums[i]
		prefix := "  "
		if m.marked[i] {
			prefix = styleMarked.Render("✗ ")
		}

		date := "-"
		if !s.LastAt.IsZero() {
			date = s.LastAt.Format("01-02")
		}
		title := s.Title
		if title == "" {
			title = "(" + string(s.Category) + ")"
		}

		line := fmt.Sprintf("%s %s %6s  %s", render.TierBadge(s.Tier), date, render.HumanSize(s.Size), title)
		if runewidth.StringWidth(line) > m.width-2 {
			line = runewidth.Truncate(line, m.width-2, "…")
		}

		if i == m.cursor {
			b.WriteString(styleSelected.Render("> "))
		} else {
			b.WriteString(prefix)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString(styleStatusBar.Render("space mark · t trash marked · j/k move · esc quit"))
	if m.lastErr != nil {
		b.WriteString("\n")
		b.WriteString(styleMarked.Render("error: " + m.lastErr.Error()))
	}
	return b.String()
}
