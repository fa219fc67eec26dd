package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/detangle/pkg/observability"
	"github.com/matzehuels/detangle/pkg/optimize"
)

// =============================================================================
// Progress Messages
// =============================================================================

type collectStartMsg struct{ seeds int }

type collectDoneMsg struct {
	nodes    int
	duration time.Duration
}

type layoutStartMsg struct{ nodes, edges int }

type layoutDoneMsg struct {
	duration time.Duration
	cacheHit bool
}

type snapDoneMsg struct{ connectors, changed int }

type commitMsg struct{ failed bool }

type resultMsg struct{ result optimize.Result }

type tickMsg time.Time

// watchHooks forwards optimizer events into the TUI as bubbletea messages.
// Sends never block: if the program is gone, events are dropped.
type watchHooks struct {
	msgs chan tea.Msg
}

func (h *watchHooks) send(m tea.Msg) {
	select {
	case h.msgs <- m:
	default:
	}
}

func (h *watchHooks) OnCollectStart(_ context.Context, seedCount int) {
	h.send(collectStartMsg{seeds: seedCount})
}

func (h *watchHooks) OnCollectComplete(_ context.Context, nodeCount int, duration time.Duration) {
	h.send(collectDoneMsg{nodes: nodeCount, duration: duration})
}

func (h *watchHooks) OnLayoutStart(_ context.Context, nodeCount, edgeCount int) {
	h.send(layoutStartMsg{nodes: nodeCount, edges: edgeCount})
}

func (h *watchHooks) OnLayoutComplete(_ context.Context, duration time.Duration, cacheHit bool) {
	h.send(layoutDoneMsg{duration: duration, cacheHit: cacheHit})
}

func (h *watchHooks) OnSnapComplete(_ context.Context, connectorCount, changedCount int) {
	h.send(snapDoneMsg{connectors: connectorCount, changed: changedCount})
}

func (h *watchHooks) OnCommit(_ context.Context, _ string, failed bool) {
	h.send(commitMsg{failed: failed})
}

var _ observability.OptimizerHooks = (*watchHooks)(nil)

// =============================================================================
// WatchModel - Live run progress
// =============================================================================

type phaseState int

const (
	phasePending phaseState = iota
	phaseRunning
	phaseDone
)

// WatchModel is the bubbletea model behind `optimize --watch`. It renders
// one line per phase with live commit counters.
type WatchModel struct {
	msgs chan tea.Msg

	collect phaseState
	layout  phaseState
	snap    phaseState

	seeds    int
	nodes    int
	edges    int
	cacheHit bool

	collectDuration time.Duration
	layoutDuration  time.Duration

	commitsOK     int
	commitsFailed int
	connectors    int
	changed       int

	frame  int
	result *optimize.Result
}

// NewWatchModel creates a watch model consuming progress messages from msgs.
func NewWatchModel(msgs chan tea.Msg) WatchModel {
	return WatchModel{msgs: msgs}
}

func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.listen(), tick())
}

// listen waits for the next progress message from the run goroutine.
func (m WatchModel) listen() tea.Cmd {
	return func() tea.Msg {
		return <-m.msgs
	}
}

func tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tickMsg:
		m.frame++
		return m, tick()
	case collectStartMsg:
		m.collect = phaseRunning
		m.seeds = msg.seeds
		return m, m.listen()
	case collectDoneMsg:
		m.collect = phaseDone
		m.nodes = msg.nodes
		m.collectDuration = msg.duration
		return m, m.listen()
	case layoutStartMsg:
		m.layout = phaseRunning
		m.nodes = msg.nodes
		m.edges = msg.edges
		return m, m.listen()
	case layoutDoneMsg:
		m.layout = phaseDone
		m.layoutDuration = msg.duration
		m.cacheHit = msg.cacheHit
		m.snap = phaseRunning
		return m, m.listen()
	case commitMsg:
		if msg.failed {
			m.commitsFailed++
		} else {
			m.commitsOK++
		}
		return m, m.listen()
	case snapDoneMsg:
		m.snap = phaseDone
		m.connectors = msg.connectors
		m.changed = msg.changed
		return m, m.listen()
	case resultMsg:
		m.result = &msg.result
		return m, tea.Quit
	}
	return m, nil
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (m WatchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Untangling connectors"))
	b.WriteString("\n\n")

	b.WriteString(m.phaseLine(m.collect, "Collecting",
		fmt.Sprintf("%d seeds → %d nodes", m.seeds, m.nodes),
		m.collectDuration))

	layoutDetail := fmt.Sprintf("%d nodes, %d edges", m.nodes, m.edges)
	if m.layout == phaseDone && m.cacheHit {
		layoutDetail += " " + styleCached.Render(iconCached)
	}
	b.WriteString(m.phaseLine(m.layout, "Laying out", layoutDetail, m.layoutDuration))

	b.WriteString(m.phaseLine(m.snap, "Snapping",
		fmt.Sprintf("%d connectors, %d changed", m.connectors, m.changed), 0))

	if m.commitsOK > 0 || m.commitsFailed > 0 {
		line := fmt.Sprintf("  %d writes", m.commitsOK)
		if m.commitsFailed > 0 {
			line += StyleWarning.Render(fmt.Sprintf("  %d failed", m.commitsFailed))
		}
		b.WriteString(StyleDim.Render(line))
		b.WriteString("\n")
	}

	if m.result != nil {
		b.WriteString("\n")
		if m.result.Success {
			b.WriteString(styleIconSuccess.Render(iconSuccess) + " " + m.result.Message)
		} else {
			b.WriteString(styleIconError.Render(iconError) + " " + m.result.Message)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (m WatchModel) phaseLine(state phaseState, name, detail string, d time.Duration) string {
	var icon string
	switch state {
	case phaseDone:
		icon = styleIconSuccess.Render(iconSuccess)
	case phaseRunning:
		icon = styleIconSpinner.Render(spinnerFrames[m.frame%len(spinnerFrames)])
	default:
		icon = StyleDim.Render("·")
	}

	line := fmt.Sprintf("%s %-12s %s", icon, name, StyleDim.Render(detail))
	if state == phaseDone && d > 0 {
		line += StyleDim.Render(fmt.Sprintf(" (%s)", d.Round(time.Millisecond)))
	}
	return line + "\n"
}

// =============================================================================
// Run Driver
// =============================================================================

// runWatched executes the run behind the live TUI. The optimizer runs in its
// own goroutine; its hook events stream into the model. If the TUI cannot
// start (no TTY), the run still completes and its result is returned.
func runWatched(ctx context.Context, runner *optimize.Runner, selection []string, opts optimize.Options) optimize.Result {
	msgs := make(chan tea.Msg, 64)
	observability.SetOptimizerHooks(&watchHooks{msgs: msgs})

	resultCh := make(chan optimize.Result, 1)
	go func() {
		result := runner.Run(ctx, selection, opts)
		resultCh <- result
		select {
		case msgs <- resultMsg{result: result}:
		default:
		}
	}()

	p := tea.NewProgram(NewWatchModel(msgs), tea.WithContext(ctx), tea.WithOutput(os.Stderr))
	_, _ = p.Run()

	return <-resultCh
}
