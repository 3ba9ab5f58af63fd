// Package render turns classified summaries into terminal output for the
// CLI. It is a thin consumer of the core: no classification or scanning
// logic lives here.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"

	"github.com/ccsweep/ccsweep/internal/session"
)

var (
	colorDim = lipgloss.Color("240")

	styleAutoDelete = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	styleSuggested  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	styleReview     = lipgloss.NewStyle().Foreground(lipgloss.Color("12")) // blue
	styleKeep       = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	styleDim        = lipgloss.NewStyle().Foreground(colorDim)
	styleHeader     = lipgloss.NewStyle().Bold(true)
)

// TierStyle returns the lipgloss style for a tier badge.
func TierStyle(t session.Tier) lipgloss.Style {
	switch t {
	case session.TierAutoDelete:
		return styleAutoDelete
	case session.TierSuggested:
		return styleSuggested
	case session.TierKeep:
		return styleKeep
	default:
		return styleReview
	}
}

// TierBadge renders a fixed-width colored tier label.
func TierBadge(t session.Tier) string {
	return TierStyle(t).Render(fmt.Sprintf("%-11s", t.Label()))
}

// HumanSize formats a byte count the way the list column expects it.
func HumanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1fM", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fK", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}

// Table renders one line per summary: tier, date, size, messages, title.
// Width 0 disables truncation.
func Table(sums []*session.Summary, width int) string {
	var b strings.Builder

	header := fmt.Sprintf("%-11s %-10s %7s %9s  %s", "TIER", "DATE", "SIZE", "MSGS", "TITLE")
	b.WriteString(styleHeader.Render(header))
	b.WriteString("\n")

	for _, s := range sums {
		date := "-"
		if !s.LastAt.IsZero() {
			date = s.LastAt.Format("2006-01-02")
		}
		msgs := fmt.Sprintf("%du/%da", s.UserMessages, s.AssistantMessages)

		title := s.Title
		if title == "" {
			title = styleDim.Render("(" + string(s.Category) + ")")
		}

		line := fmt.Sprintf("%s %-10s %7s %9s  %s",
			TierBadge(s.Tier), date, HumanSize(s.Size), msgs, title)
		if width > 0 {
			line = truncate.StringWithTail(line, uint(width), "…")
		}
		b.WriteString(line)
		b.WriteString("\n")

		if len(s.Reasons) > 0 && s.Tier != session.TierKeep {
			reason := "  └ " + strings.Join(s.Reasons, "; ")
			if width > 4 && runewidth.StringWidth(reason) > width {
				reason = runewidth.Truncate(reason, width, "…")
			}
			b.WriteString(styleDim.Render(reason))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// TierCounts summarizes how many sessions landed in each tier.
func TierCounts(sums []*session.Summary) string {
	counts := make(map[session.Tier]int)
	var bytes int64
	for _, s := range sums {
		counts[s.Tier]++
		if s.Tier == session.TierAutoDelete || s.Tier == session.TierSuggested {
			bytes += s.Size
		}
	}
	return fmt.Sprintf("%s %d  %s %d  %s %d  %s %d  (%s reclaimable)",
		styleAutoDelete.Render("auto-delete"), counts[session.TierAutoDelete],
		styleSuggested.Render("suggested"), counts[session.TierSuggested],
		styleReview.Render("review"), counts[session.TierReview],
		styleKeep.Render("keep"), counts[session.TierKeep],
		HumanSize(bytes))
}
