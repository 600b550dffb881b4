// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Tests for the wall display model and its pure rendering helpers

package board

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/caseboard/internal/datastore"
	"github.com/AleutianAI/caseboard/internal/schema"
	"github.com/AleutianAI/caseboard/internal/stocks"
)

var testToday = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func dateOf(y int, m time.Month, d int) strfmt.Date {
	return strfmt.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func keyMsg(key string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

func TestSortCases_AttentionOutranksDeadline(t *testing.T) {
	calm := schema.NewRecord("24-CV-0001", "Calm Matter")
	calm.Deadlines = []schema.Deadline{{DueDate: dateOf(2026, 3, 11), Description: "Hearing"}}

	urgent := schema.NewRecord("24-CV-0002", "Urgent Matter")
	urgent.Attention = schema.AttentionNeeds

	ranked := sortCases([]schema.CaseRecord{calm, urgent}, testToday)

	require.Len(t, ranked, 2)
	assert.Equal(t, "24-CV-0002", ranked[0].record.CaseNumber)
	assert.Equal(t, farFuture, ranked[0].days)
	assert.Equal(t, 1, ranked[1].days)
}

func TestSortCases_NearestDeadlineFirst(t *testing.T) {
	far := schema.NewRecord("24-CV-0001", "Far Matter")
	far.Deadlines = []schema.Deadline{{DueDate: dateOf(2026, 3, 20), Description: "Discovery"}}

	near := schema.NewRecord("24-CV-0002", "Near Matter")
	near.Deadlines = []schema.Deadline{{DueDate: dateOf(2026, 3, 12), Description: "Response"}}

	undated := schema.NewRecord("24-CV-0003", "Undated Matter")

	ranked := sortCases([]schema.CaseRecord{far, near, undated}, testToday)

	require.Len(t, ranked, 3)
	assert.Equal(t, "24-CV-0002", ranked[0].record.CaseNumber)
	assert.Equal(t, "24-CV-0001", ranked[1].record.CaseNumber)
	assert.Equal(t, "24-CV-0003", ranked[2].record.CaseNumber)
}

func TestSortCases_StatusThenNameBreakTies(t *testing.T) {
	closed := schema.NewRecord("24-CV-0001", "Alpha Matter")
	closed.Status = schema.StatusClosed

	zulu := schema.NewRecord("24-CV-0002", "zulu matter")
	alpha := schema.NewRecord("24-CV-0003", "Beta Matter")

	ranked := sortCases([]schema.CaseRecord{closed, zulu, alpha}, testToday)

	require.Len(t, ranked, 3)
	assert.Equal(t, "Beta Matter", ranked[0].record.CaseName)
	assert.Equal(t, "zulu matter", ranked[1].record.CaseName)
	assert.Equal(t, "Alpha Matter", ranked[2].record.CaseName)
}

func TestSortCases_ResolvedDeadlinesIgnored(t *testing.T) {
	rec := schema.NewRecord("24-CV-0001", "Resolved Matter")
	rec.Deadlines = []schema.Deadline{
		{DueDate: dateOf(2026, 3, 11), Description: "Done", Resolved: true},
		{DueDate: dateOf(2026, 3, 18), Description: "Pending"},
	}

	ranked := sortCases([]schema.CaseRecord{rec}, testToday)

	require.NotNil(t, ranked[0].deadline)
	assert.Equal(t, "Pending", ranked[0].deadline.Description)
	assert.Equal(t, 8, ranked[0].days)
}

func TestDaysUntil(t *testing.T) {
	assert.Equal(t, 2, daysUntil(dateOf(2026, 3, 12), testToday))
	assert.Equal(t, 0, daysUntil(dateOf(2026, 3, 10), testToday))
	assert.Equal(t, -1, daysUntil(dateOf(2026, 3, 9), testToday))
}

func TestUrgencyLabel(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{days: -2, want: "OVERDUE"},
		{days: 0, want: "TODAY"},
		{days: 1, want: "1 DAY"},
		{days: 14, want: "14 DAYS"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, urgencyLabel(tt.days))
	}
}

func TestTopPracticeAreas(t *testing.T) {
	counts := map[string]int{
		"Personal Injury": 4,
		"Probate":         4,
		"Civil":           2,
		"Family":          1,
	}

	top := topPracticeAreas(counts, 3)

	require.Len(t, top, 3)
	assert.Equal(t, typeCount{name: "Personal Injury", count: 4}, top[0])
	assert.Equal(t, typeCount{name: "Probate", count: 4}, top[1])
	assert.Equal(t, typeCount{name: "Civil", count: 2}, top[2])
}

func TestRadarEntries_SoonestFirstAndCapped(t *testing.T) {
	var cases []schema.CaseRecord
	for day := 18; day >= 11; day-- {
		rec := schema.NewRecord("24-CV-000"+string(rune('0'+day-10)), "Matter")
		rec.Deadlines = []schema.Deadline{{DueDate: dateOf(2026, 3, day), Description: "Filing"}}
		cases = append(cases, rec)
	}
	cases = append(cases, schema.NewRecord("24-CV-0099", "No Deadline"))

	entries := radarEntries(sortCases(cases, testToday), radarLimit)

	require.Len(t, entries, radarLimit)
	for i := 0; i < len(entries)-1; i++ {
		assert.LessOrEqual(t, entries[i].days, entries[i+1].days)
	}
	assert.Equal(t, 1, entries[0].days)
	assert.Equal(t, 6, entries[len(entries)-1].days)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exactly10!", truncate("exactly10!", 10))

	long := strings.Repeat("a", 70)
	got := truncate(long, 60)
	assert.Equal(t, 58, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "…"))
}

func TestFocusText(t *testing.T) {
	rec := schema.NewRecord("24-CV-0001", "Matter")
	assert.Equal(t, "-", focusText(rec))

	rec.CurrentTask = "   "
	assert.Equal(t, "-", focusText(rec))

	rec.CurrentTask = "  Draft motion to compel  "
	assert.Equal(t, "Draft motion to compel", focusText(rec))
}

func TestTickerWindowSlice(t *testing.T) {
	symbols := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"}

	assert.Equal(t, []string{"A", "B", "C", "D", "E", "F", "G"}, tickerWindowSlice(symbols, 0))
	assert.Equal(t, []string{"I", "J", "A", "B", "C", "D", "E"}, tickerWindowSlice(symbols, 8))
	assert.Equal(t, []string{"A", "B", "C"}, tickerWindowSlice(symbols[:3], 0))
	assert.Nil(t, tickerWindowSlice(nil, 0))
}

func TestAdvanceOffset(t *testing.T) {
	assert.Equal(t, 1, advanceOffset(0, 10))
	assert.Equal(t, 0, advanceOffset(9, 10))
	assert.Equal(t, 0, advanceOffset(5, 0))
}

func TestTickerSegment(t *testing.T) {
	up := tickerSegment("AAPL", stocks.Quote{Symbol: "AAPL", Price: 190.5, Change: 2.5, ChangePercent: 1.33}, true)
	assert.Contains(t, up, "AAPL")
	assert.Contains(t, up, "190.50")
	assert.Contains(t, up, "▲")
	assert.Contains(t, up, "+1.33%")

	down := tickerSegment("MSFT", stocks.Quote{Symbol: "MSFT", Price: 410.0, Change: -1.8, ChangePercent: -0.44}, true)
	assert.Contains(t, down, "▼")
	assert.Contains(t, down, "-0.44%")

	missing := tickerSegment("GOOGL", stocks.Quote{}, false)
	assert.Contains(t, missing, "N/A")
	assert.Contains(t, missing, "--")
}

func TestRenderTicker_WindowAndStamp(t *testing.T) {
	symbols := []string{"AAPL", "MSFT", "GOOGL"}
	quotes := map[string]stocks.Quote{
		"AAPL": {Symbol: "AAPL", Price: 190.5, Change: 2.5, ChangePercent: 1.33},
	}
	now := time.Date(2026, 3, 10, 14, 5, 6, 0, time.UTC)

	strip := renderTicker(symbols, quotes, 0, now, "")

	assert.Contains(t, strip, "MARKET • ")
	assert.Contains(t, strip, "AAPL")
	assert.Contains(t, strip, "N/A")
	assert.Contains(t, strip, "|")
	assert.Contains(t, strip, "02:05:06 PM")

	busy := renderTicker(symbols, quotes, 0, now, "⣷")
	assert.Contains(t, busy, "⣷")
}

func TestFocusAnim_TriggerCyclesCandidates(t *testing.T) {
	first := schema.NewRecord("24-CV-0001", "First Matter")
	first.CurrentTask = "Draft motion"
	idle := schema.NewRecord("24-CV-0002", "Idle Matter")
	second := schema.NewRecord("24-CV-0003", "Second Matter")
	second.CurrentTask = "Call client"

	ranked := sortCases([]schema.CaseRecord{first, idle, second}, testToday)

	var anim focusAnim
	require.True(t, anim.trigger(ranked))
	firstPick := anim.caseID

	// A replay in flight refuses a second trigger.
	assert.False(t, anim.trigger(ranked))

	for anim.advance() {
	}
	require.True(t, anim.trigger(ranked))
	assert.NotEqual(t, firstPick, anim.caseID)
}

func TestFocusAnim_NoCandidates(t *testing.T) {
	idle := schema.NewRecord("24-CV-0001", "Idle Matter")
	ranked := sortCases([]schema.CaseRecord{idle}, testToday)

	var anim focusAnim
	assert.False(t, anim.trigger(ranked))
	assert.False(t, anim.advance())
}

func TestFocusAnim_ReplayProgression(t *testing.T) {
	rec := schema.NewRecord("24-CV-0001", "Typing Matter")
	rec.CurrentTask = "Call client"
	ranked := sortCases([]schema.CaseRecord{rec}, testToday)

	var anim focusAnim
	require.True(t, anim.trigger(ranked))
	caseID := ranked[0].record.ID

	// The lead frames show an empty focus cell with the bright backdrop.
	text, ok := anim.overrideFor(caseID)
	require.True(t, ok)
	assert.Empty(t, text)
	assert.True(t, anim.highlightStrong())

	_, ok = anim.overrideFor("someone-else")
	assert.False(t, ok)

	for i := 0; i < animLeadSteps+4; i++ {
		require.True(t, anim.advance())
	}
	text, ok = anim.overrideFor(caseID)
	require.True(t, ok)
	assert.Equal(t, "Call", text)
	assert.False(t, anim.highlightStrong())

	// Run the replay out: 11 runes plus the tail.
	total := utf8.RuneCountInString(rec.CurrentTask) + animTailSteps
	for anim.step < total {
		require.True(t, anim.advance())
	}
	assert.False(t, anim.advance())

	_, ok = anim.overrideFor(caseID)
	assert.False(t, ok)
}

func TestStatusCell(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{status: schema.StatusOpen, want: "ACTIVE"},
		{status: schema.StatusFiled, want: "FILED"},
		{status: schema.StatusPreFiling, want: "PRE"},
		{status: schema.StatusClosed, want: "CLOSED"},
		{status: schema.StatusArchived, want: "ARCHIVED"},
	}
	for _, tt := range tests {
		got, _ := statusCell(tt.status)
		assert.Equal(t, tt.want, got)
	}
}

func TestNew_Defaults(t *testing.T) {
	m := New(Config{})
	assert.Equal(t, DefaultTitle, m.cfg.Title)
	assert.Equal(t, defaultQuoteRefresh, m.quoteRefresh)

	m = New(Config{Title: "WELLS LAW", QuoteRefresh: 30 * time.Second})
	assert.Equal(t, "WELLS LAW", m.cfg.Title)
	assert.Equal(t, 30*time.Second, m.quoteRefresh)
}

func TestUpdate_QuitKeys(t *testing.T) {
	m := New(Config{})

	updated, cmd := m.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	_, isQuit := cmd().(tea.QuitMsg)
	assert.True(t, isQuit)
	assert.True(t, updated.(Model).quitting)

	_, cmd = New(Config{}).Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	_, isQuit = cmd().(tea.QuitMsg)
	assert.True(t, isQuit)
}

func TestUpdate_CasesMsgRanksRecords(t *testing.T) {
	urgent := schema.NewRecord("24-CV-0002", "Urgent Matter")
	urgent.Attention = schema.AttentionNeeds
	calm := schema.NewRecord("24-CV-0001", "Calm Matter")

	m := New(Config{})
	updated, _ := m.Update(casesMsg{doc: schema.NewDocument([]schema.CaseRecord{calm, urgent})})
	got := updated.(Model)

	require.Len(t, got.ranked, 2)
	assert.Equal(t, "24-CV-0002", got.ranked[0].record.CaseNumber)
	assert.True(t, got.loaded)
	assert.NoError(t, got.loadErr)

	// A failed reload keeps the last good caseload on screen.
	updated, _ = got.Update(casesMsg{err: errors.New("disk gone")})
	got = updated.(Model)
	assert.Error(t, got.loadErr)
	assert.Len(t, got.ranked, 2)
}

func TestUpdate_ReloadKeyReadsStore(t *testing.T) {
	store, err := datastore.New(datastore.DefaultConfig(t.TempDir()))
	require.NoError(t, err)

	rec := schema.NewRecord("24-CV-0100", "Reload Matter")
	_, err = store.Save(context.Background(), []schema.CaseRecord{rec}, datastore.SaveOptions{Actor: "tester", Action: "manual"})
	require.NoError(t, err)

	m := New(Config{Store: store})
	_, cmd := m.Update(keyMsg("r"))
	require.NotNil(t, cmd)

	msg, ok := cmd().(casesMsg)
	require.True(t, ok)
	require.NoError(t, msg.err)
	require.Len(t, msg.doc.Cases, 1)
	assert.Equal(t, "24-CV-0100", msg.doc.Cases[0].CaseNumber)
}

func TestUpdate_QuoteAndScrollState(t *testing.T) {
	fetcher := stocks.NewFetcher(stocks.FetcherConfig{})
	m := New(Config{Fetcher: fetcher, Symbols: []string{"AAPL", "MSFT", "GOOGL"}})

	// Init fires a fetch immediately, so a fresh ticker model starts busy.
	assert.True(t, m.fetching)

	updated, _ := m.Update(quotesMsg{{Symbol: "AAPL", Price: 190.5, Change: 2.5, ChangePercent: 1.33}})
	got := updated.(Model)
	assert.False(t, got.fetching)
	assert.Contains(t, got.quotes, "AAPL")

	// Spinner ticks stop propagating once the fetch has landed.
	_, cmd := got.Update(spinner.TickMsg{})
	assert.Nil(t, cmd)

	updated, _ = got.Update(scrollTickMsg{})
	got = updated.(Model)
	assert.Equal(t, 1, got.offset)

	updated, cmd = got.Update(quoteTickMsg{})
	got = updated.(Model)
	assert.True(t, got.fetching)
	assert.NotNil(t, cmd)
}

func TestUpdate_WindowSize(t *testing.T) {
	updated, _ := New(Config{}).Update(tea.WindowSizeMsg{Width: 150, Height: 42})
	got := updated.(Model)
	assert.Equal(t, 150, got.width)
	assert.Equal(t, 42, got.height)
}

func TestUpdate_AnimTickStartsReplay(t *testing.T) {
	rec := schema.NewRecord("24-CV-0001", "Typing Matter")
	rec.CurrentTask = "Prepare exhibits"

	m := New(Config{})
	updated, _ := m.Update(casesMsg{doc: schema.NewDocument([]schema.CaseRecord{rec})})
	got := updated.(Model)

	updated, cmd := got.Update(animTickMsg{})
	got = updated.(Model)
	assert.True(t, got.anim.active)
	assert.NotNil(t, cmd)

	updated, _ = got.Update(animStepMsg{})
	got = updated.(Model)
	assert.Equal(t, 1, got.anim.step)
}

func TestView_ShowsCaseload(t *testing.T) {
	urgent := schema.NewRecord("24-CV-0002", "Hartley v. Grange")
	urgent.Attention = schema.AttentionNeeds
	urgent.CaseType = "Personal Injury"
	urgent.Deadlines = []schema.Deadline{{DueDate: dateOf(2026, 3, 12), Description: "Response brief"}}
	calm := schema.NewRecord("24-PR-0007", "Estate of Whitfield")
	calm.CaseType = "Probate"

	m := New(Config{})
	m.now = testToday
	updated, _ := m.Update(casesMsg{doc: schema.NewDocument([]schema.CaseRecord{calm, urgent})})
	updated, _ = updated.(Model).Update(tea.WindowSizeMsg{Width: 160, Height: 45})
	view := updated.(Model).View()

	assert.Contains(t, view, DefaultTitle)
	assert.Contains(t, view, "Tuesday • March 10, 2026")
	assert.Contains(t, view, "FIRM SNAPSHOT")
	assert.Contains(t, view, "DEADLINE RADAR")
	assert.Contains(t, view, "Response brief")
	assert.Contains(t, view, "(2 DAYS)")
	assert.Contains(t, view, "24-CV-0002")
	assert.Contains(t, view, "⚠ ALERT")
	assert.Contains(t, view, "ACTIVE")
	assert.Contains(t, view, "r refresh • q quit")
	assert.NotContains(t, view, "MARKET")
}

func TestView_LoadingAndEmptyStates(t *testing.T) {
	m := New(Config{})
	assert.Contains(t, m.View(), "Loading cases...")

	updated, _ := m.Update(casesMsg{doc: schema.NewDocument(nil)})
	assert.Contains(t, updated.(Model).View(), "No cases on file")
}

func TestView_QuittingIsBlank(t *testing.T) {
	updated, _ := New(Config{}).Update(keyMsg("q"))
	assert.Empty(t, updated.(Model).View())
}
