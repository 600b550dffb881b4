// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package board

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/AleutianAI/caseboard/internal/schema"
)

const clockLayout = "Monday • January 02, 2006 • 03:04:05 PM"

const dueShortLayout = "01/02/06"

// defaultWidth is assumed until the first WindowSizeMsg arrives.
const defaultWidth = 140

// Fixed table column widths; the name and focus columns flex.
const (
	caseNoWidth    = 12
	typeWidth      = 16
	stageWidth     = 12
	attnWidth      = 8
	statusWidth    = 7
	paralegalWidth = 12
	dueWidth       = 26
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}

	var b strings.Builder
	b.WriteString(titleStyle.Width(width).Render(m.cfg.Title))
	b.WriteString("\n")
	b.WriteString(clockStyle.Width(width).Render(m.now.Format(clockLayout)))
	b.WriteString("\n\n")
	b.WriteString(m.renderOverview(width))
	b.WriteString("\n\n")
	b.WriteString(m.renderTable(width))
	b.WriteString("\n\n")
	if m.hasTicker() {
		indicator := ""
		if m.fetching {
			indicator = m.spinner.View()
		}
		b.WriteString(renderTicker(m.cfg.Symbols, m.quotes, m.offset, m.now, indicator))
		b.WriteString("\n")
	}
	b.WriteString(m.renderFooter())
	b.WriteString("\n")
	return b.String()
}

// renderOverview lays the firm snapshot and the deadline radar side by
// side.
func (m Model) renderOverview(width int) string {
	half := (width - 6) / 2
	if half < 40 {
		half = 40
	}
	snapshot := panelStyle.Width(half).Render(m.renderSnapshot())
	radar := panelStyle.Width(half).Render(m.renderRadar())
	return lipgloss.JoinHorizontal(lipgloss.Top, snapshot, "  ", radar)
}

// renderSnapshot summarizes the caseload: headline counts plus the
// busiest practice areas.
func (m Model) renderSnapshot() string {
	total := len(m.ranked)
	active, needs := 0, 0
	typeCounts := make(map[string]int)
	for _, rc := range m.ranked {
		if schema.IsActiveStatus(rc.record.Status) {
			active++
		}
		if rc.record.Attention == schema.AttentionNeeds {
			needs++
		}
		typeCounts[schema.NormalizeCaseType(rc.record.CaseType)]++
	}

	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("FIRM SNAPSHOT"))
	b.WriteString("\n\n")
	b.WriteString(statLine("TOTAL CASES", total, statValueStyle))
	b.WriteString(statLine("ACTIVE", active, statActiveStyle))
	b.WriteString(statLine("NEEDS ATTENTION", needs, statAlertStyle))
	b.WriteString("\n")
	b.WriteString(panelTitleStyle.Render("TOP PRACTICE AREAS"))
	b.WriteString("\n")
	for _, tc := range topPracticeAreas(typeCounts, 3) {
		b.WriteString(fmt.Sprintf("  %s %s\n",
			labelStyle.Render(pad(tc.name, 18)),
			statValueStyle.Render(strconv.Itoa(tc.count))))
	}
	return strings.TrimRight(b.String(), "\n")
}

func statLine(label string, value int, style lipgloss.Style) string {
	return fmt.Sprintf("%s %s\n",
		labelStyle.Render(pad(label, 16)),
		style.Render(fmt.Sprintf("%3d", value)))
}

// renderRadar lists the nearest pending deadlines across the whole
// caseload, soonest first.
func (m Model) renderRadar() string {
	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("DEADLINE RADAR"))
	b.WriteString("\n\n")

	entries := radarEntries(m.ranked, radarLimit)
	if len(entries) == 0 {
		b.WriteString(dimStyle.Render("No pending deadlines"))
		return b.String()
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s  •  %s • %s",
			pad(e.caseName, 22),
			e.due.Format(dueShortLayout),
			truncate(e.description, 28))
		b.WriteString(deadlineColor(e.days).Render(line))
		b.WriteString(urgencyTagStyle.Render(fmt.Sprintf("  (%s)", urgencyLabel(e.days))))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderTable renders the live case table, one row per record in
// board order.
func (m Model) renderTable(width int) string {
	nameW, focusW := flexWidths(width)

	var b strings.Builder
	b.WriteString(tableHeaderStyle.Render(strings.Join([]string{
		pad("CASE#", caseNoWidth),
		pad("CASE NAME", nameW),
		pad("TYPE", typeWidth),
		pad("STAGE", stageWidth),
		pad("ATTN", attnWidth),
		pad("STATUS", statusWidth),
		pad("PARALEGAL", paralegalWidth),
		pad("FOCUS", focusW),
		pad("NEXT DUE", dueWidth),
	}, "  ")))
	b.WriteString("\n")

	if len(m.ranked) == 0 {
		if m.loaded {
			b.WriteString(dimStyle.Render("No cases on file"))
		} else {
			b.WriteString(dimStyle.Render("Loading cases..."))
		}
		return b.String()
	}
	for _, rc := range m.ranked {
		b.WriteString(m.renderRow(rc, nameW, focusW))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// cell is one rendered table column.
type cell struct {
	text  string
	style lipgloss.Style
}

// renderRow renders one table line. A row being replayed by the focus
// animation trades its per-cell colors for the highlight backdrop.
func (m Model) renderRow(rc rankedCase, nameW, focusW int) string {
	rec := rc.record

	focus := focusText(rec)
	animated := false
	if override, ok := m.anim.overrideFor(rec.ID); ok {
		focus = override
		animated = true
	}

	attnText, attnStyle := "WAIT", waitStyle
	if rec.Attention == schema.AttentionNeeds {
		attnText, attnStyle = "⚠ ALERT", alertStyle
	}

	statusText, statusStyle := statusCell(rec.Status)

	dueText, dueStyle := "—", dimStyle
	if rc.deadline != nil {
		dueText = fmt.Sprintf("%s (%+d) %s",
			time.Time(rc.deadline.DueDate).Format(dueShortLayout),
			rc.days,
			truncate(rc.deadline.Description, dueWidth-15))
		dueStyle = deadlineColor(rc.days)
	}

	caseType := schema.NormalizeCaseType(rec.CaseType)
	cells := []cell{
		{pad(rec.CaseNumber, caseNoWidth), caseNoStyle},
		{pad(rec.CaseName, nameW), nameStyle},
		{pad(caseType, typeWidth), lipgloss.NewStyle().Foreground(lipgloss.Color(schema.CaseTypeColor(caseType)))},
		{pad(orDash(rec.Stage), stageWidth), stageStyle},
		{pad(attnText, attnWidth), attnStyle},
		{pad(statusText, statusWidth), statusStyle},
		{pad(orDash(rec.Paralegal), paralegalWidth), nameStyle},
		{pad(focus, focusW), focusStyle},
		{pad(dueText, dueWidth), dueStyle},
	}

	if animated {
		parts := make([]string, 0, len(cells))
		for _, c := range cells {
			parts = append(parts, c.text)
		}
		style := animSoftRowStyle
		if m.anim.highlightStrong() {
			style = animStrongRowStyle
		}
		return style.Render(strings.Join(parts, "  "))
	}
	parts := make([]string, 0, len(cells))
	for _, c := range cells {
		parts = append(parts, c.style.Render(c.text))
	}
	return strings.Join(parts, "  ")
}

// renderFooter shows data freshness, any reload problem, and the key
// hints.
func (m Model) renderFooter() string {
	var parts []string
	if !m.updatedAt.IsZero() {
		parts = append(parts, footerStyle.Render("Updated "+m.updatedAt.Format("03:04:05 PM")))
	}
	if m.loadErr != nil {
		parts = append(parts, alertStyle.Render("reload failed: "+m.loadErr.Error()))
	}
	parts = append(parts, footerStyle.Render("r refresh • q quit"))
	return strings.Join(parts, "   ")
}

// statusCell maps a record status to its badge text and style.
func statusCell(status string) (string, lipgloss.Style) {
	switch status {
	case schema.StatusOpen:
		return "ACTIVE", statusOpenStyle
	case schema.StatusFiled:
		return "FILED", statusFiledStyle
	case schema.StatusPreFiling:
		return "PRE", statusPreStyle
	case schema.StatusClosed:
		return "CLOSED", statusClosedStyle
	default:
		return strings.ToUpper(status), nameStyle
	}
}

// deadlineColor maps a day countdown to the shared urgency ramp.
func deadlineColor(days int) lipgloss.Style {
	switch {
	case days <= 3:
		return deadlineNearStyle
	case days <= 30:
		return deadlineSoonStyle
	default:
		return deadlineFarStyle
	}
}

// flexWidths splits the leftover table width between the case name
// and focus columns.
func flexWidths(width int) (nameW, focusW int) {
	fixed := caseNoWidth + typeWidth + stageWidth + attnWidth + statusWidth + paralegalWidth + dueWidth
	flex := width - fixed - 2*8
	if flex < 40 {
		flex = 40
	}
	nameW = flex * 2 / 5
	focusW = flex - nameW
	return nameW, focusW
}

// pad fits s into a fixed-width column: truncated on overflow, padded
// with spaces otherwise. Padding counts display cells, not bytes, so
// symbols like the attention glyph keep columns aligned.
func pad(s string, width int) string {
	s = truncate(s, width)
	if n := width - lipgloss.Width(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// === Styles ===

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#e7f1ff")).
			Background(lipgloss.Color("#16324f")).
			Align(lipgloss.Center)

	clockStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#88aadd")).
			Align(lipgloss.Center)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3a5a87")).
			Padding(0, 1)

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#33aaff"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#88aadd"))

	statValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#e7f1ff"))

	statActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3bee9d"))

	statAlertStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff6464"))

	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#33aaff"))

	caseNoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#88aadd"))

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e7f1ff"))

	stageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#b9c8e8"))

	focusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d6e4ff"))

	alertStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff6464"))

	waitStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5a6b84"))

	statusOpenStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3bee9d"))

	statusFiledStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#4dd0e1"))

	statusPreStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffd166"))

	statusClosedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#5b8dd9"))

	deadlineNearStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#ff5555"))

	deadlineSoonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#ffa654"))

	deadlineFarStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#e7f1ff"))

	urgencyTagStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffd166"))

	animStrongRowStyle = lipgloss.NewStyle().
				Bold(true).
				Background(lipgloss.Color("#1f4d7a"))

	animSoftRowStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("#152b4a"))

	tickerHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#33aaff"))

	tickerSymbolStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#ffffff"))

	tickerPriceStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#e7f1ff"))

	tickerUpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3bee9d"))

	tickerDownStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff6464"))

	tickerSepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3a5a87"))

	tickerMissingStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#5a6b84"))

	tickerStampStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#88aadd"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5a6b84"))

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#88aadd"))
)
