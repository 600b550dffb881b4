// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package board renders the office wall display: a full-screen
// terminal view of the caseload with a firm snapshot, a deadline
// radar, the live case table, and a scrolling market ticker.
//
// # Description
//
// The board is strictly read-only. It reloads the case document on a
// timer, on the 'r' key, and whenever the data directory's change
// marker is touched by another process, so edits made through the CLI
// or an editor show up within moments. Market quotes refresh on their
// own slower cadence through the stocks fetcher.
//
// # Thread Safety
//
// Model is not safe for concurrent use; bubbletea serializes all
// access to it. Run is safe to call from any goroutine but should run
// at most once per process since it owns the terminal.
package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/AleutianAI/caseboard/internal/datastore"
	"github.com/AleutianAI/caseboard/internal/schema"
	"github.com/AleutianAI/caseboard/internal/stocks"
	"github.com/AleutianAI/caseboard/internal/watch"
)

// DefaultTitle is the headline shown when the config leaves it blank.
const DefaultTitle = "CASEBOARD STATUS"

// Refresh cadences, tuned for an always-on wall display.
const (
	clockInterval       = time.Second
	caseRefreshInterval = 60 * time.Second
	defaultQuoteRefresh = 90 * time.Second
	scrollInterval      = 2 * time.Second
	animTriggerInterval = 30 * time.Second
	animStepInterval    = 90 * time.Millisecond
)

// Config wires the board to its data sources.
type Config struct {
	// Store reads the case document. Required.
	Store *datastore.Store

	// Fetcher supplies market quotes. Optional; the ticker strip is
	// hidden when nil.
	Fetcher *stocks.Fetcher

	// Symbols is the watchlist the ticker scrolls, in order.
	Symbols []string

	// Title is the headline across the top of the board.
	Title string

	// QuoteRefresh overrides how often quotes are refetched.
	QuoteRefresh time.Duration
}

// === Messages ===

type clockTickMsg time.Time

type caseTickMsg struct{}

// casesMsg carries the result of a document reload.
type casesMsg struct {
	doc schema.CaseDocument
	err error
}

type quoteTickMsg struct{}

type quotesMsg []stocks.Quote

type scrollTickMsg struct{}

type animTickMsg struct{}

type animStepMsg struct{}

// externalChangeMsg arrives from the marker watcher when another
// process saves the document.
type externalChangeMsg struct{}

// Model is the bubbletea model for the wall display.
type Model struct {
	// === Configuration ===
	cfg          Config
	quoteRefresh time.Duration

	// === Case state ===
	ranked    []rankedCase
	loaded    bool
	loadErr   error
	updatedAt time.Time

	// === Market state ===
	quotes   map[string]stocks.Quote
	fetching bool
	spinner  spinner.Model
	offset   int

	// === Display state ===
	now      time.Time
	width    int
	height   int
	anim     focusAnim
	quitting bool
}

// New builds the board model. Run drives it against the terminal; New
// is exported separately so tests can pump Update directly.
func New(cfg Config) Model {
	if cfg.Title == "" {
		cfg.Title = DefaultTitle
	}
	refresh := cfg.QuoteRefresh
	if refresh <= 0 {
		refresh = defaultQuoteRefresh
	}
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = tickerStampStyle
	m := Model{
		cfg:          cfg,
		quoteRefresh: refresh,
		quotes:       make(map[string]stocks.Quote),
		spinner:      sp,
		now:          time.Now(),
	}
	// Init fires the first fetch right away, so the indicator starts on.
	m.fetching = m.hasTicker()
	return m
}

// tick schedules msg after d.
func tick(d time.Duration, msg tea.Msg) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return msg })
}

// Init starts the clocks and kicks off the first loads.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.reloadCmd(),
		tea.Tick(clockInterval, func(t time.Time) tea.Msg { return clockTickMsg(t) }),
		tick(caseRefreshInterval, caseTickMsg{}),
		tick(animTriggerInterval, animTickMsg{}),
	}
	if m.hasTicker() {
		cmds = append(cmds,
			m.fetchCmd(),
			m.spinner.Tick,
			tick(m.quoteRefresh, quoteTickMsg{}),
			tick(scrollInterval, scrollTickMsg{}),
		)
	}
	return tea.Batch(cmds...)
}

func (m Model) hasTicker() bool {
	return m.cfg.Fetcher != nil && len(m.cfg.Symbols) > 0
}

// reloadCmd reads the case document off the UI loop.
func (m Model) reloadCmd() tea.Cmd {
	store := m.cfg.Store
	return func() tea.Msg {
		doc, err := store.Read(context.Background())
		return casesMsg{doc: doc, err: err}
	}
}

// fetchCmd pulls quotes for the whole watchlist off the UI loop.
func (m Model) fetchCmd() tea.Cmd {
	fetcher, symbols := m.cfg.Fetcher, m.cfg.Symbols
	return func() tea.Msg {
		return quotesMsg(fetcher.Quotes(context.Background(), symbols))
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m, m.reloadCmd()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case clockTickMsg:
		m.now = time.Time(msg)
		return m, tea.Tick(clockInterval, func(t time.Time) tea.Msg { return clockTickMsg(t) })

	case caseTickMsg:
		return m, tea.Batch(m.reloadCmd(), tick(caseRefreshInterval, caseTickMsg{}))

	case externalChangeMsg:
		return m, m.reloadCmd()

	case casesMsg:
		if msg.err != nil {
			m.loadErr = msg.err
			return m, nil
		}
		m.loadErr = nil
		m.loaded = true
		m.updatedAt = m.now
		m.ranked = sortCases(msg.doc.Cases, m.now)
		return m, nil

	case quoteTickMsg:
		cmds := []tea.Cmd{tick(m.quoteRefresh, quoteTickMsg{})}
		if m.hasTicker() && !m.fetching {
			m.fetching = true
			cmds = append(cmds, m.fetchCmd(), m.spinner.Tick)
		}
		return m, tea.Batch(cmds...)

	case quotesMsg:
		m.fetching = false
		for _, q := range msg {
			m.quotes[q.Symbol] = q
		}
		return m, nil

	case spinner.TickMsg:
		// The indicator only animates while a fetch is in flight.
		if !m.fetching {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case scrollTickMsg:
		m.offset = advanceOffset(m.offset, len(m.cfg.Symbols))
		return m, tick(scrollInterval, scrollTickMsg{})

	case animTickMsg:
		cmds := []tea.Cmd{tick(animTriggerInterval, animTickMsg{})}
		if m.anim.trigger(m.ranked) {
			cmds = append(cmds, tick(animStepInterval, animStepMsg{}))
		}
		return m, tea.Batch(cmds...)

	case animStepMsg:
		if m.anim.advance() {
			return m, tick(animStepInterval, animStepMsg{})
		}
		return m, nil
	}
	return m, nil
}

// Run drives the board on the attached terminal until the user quits
// or ctx is cancelled. Saves made by other processes arrive through
// the data directory's change marker.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Store == nil {
		return fmt.Errorf("board requires a datastore")
	}
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return fmt.Errorf("the board needs an interactive terminal; use the web dashboard for headless displays")
	}

	p := tea.NewProgram(New(cfg), tea.WithAltScreen(), tea.WithContext(ctx))

	watcher, err := watch.New(cfg.Store.Config().MarkerFile, 0, func() {
		p.Send(externalChangeMsg{})
	})
	if err != nil {
		slog.Warn("change marker watch unavailable, relying on the refresh timer", "error", err)
	} else {
		defer watcher.Close()
		if err := watcher.Start(ctx); err != nil {
			slog.Warn("change marker watch unavailable, relying on the refresh timer", "error", err)
		}
	}

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
