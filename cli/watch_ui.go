package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/yoanbernabeu/strmlink/config"
	"github.com/yoanbernabeu/strmlink/scanner"
	"github.com/yoanbernabeu/strmlink/watcher"
)

const watchUIMaxEvents = 10

func isInteractiveTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func shouldUseWatchUI(interactive, noUI, background bool) bool {
	return interactive && !noUI && !background
}

type watchEventMsg watcher.Event

type watchScanMsg struct {
	report *scanner.Report
}

type watchReadyMsg struct{}

type watchErrMsg struct {
	err error
}

// watchModel is the bubbletea model of the interactive watch screen.
type watchModel struct {
	targets []watchTarget
	ready   bool
	err     error

	handled int
	failed  int
	links   int
	scanned int

	recent []watcher.Event
}

func newWatchModel(targets []watchTarget) watchModel {
	return watchModel{targets: targets}
}

func (m watchModel) Init() tea.Cmd {
	return nil
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case watchScanMsg:
		m.scanned += msg.report.TotalPointerFiles
		m.links += msg.report.CreatedLinks
		m.failed += len(msg.report.Errors)
	case watchReadyMsg:
		m.ready = true
	case watchEventMsg:
		ev := watcher.Event(msg)
		m.handled++
		m.links += ev.Result.LinksCreated
		if ev.Type == watcher.EventFileError {
			m.failed++
		}
		m.recent = append(m.recent, ev)
		if len(m.recent) > watchUIMaxEvents {
			m.recent = m.recent[len(m.recent)-watchUIMaxEvents:]
		}
	case watchErrMsg:
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("strmlink watch"))
	b.WriteString("\n\n")
	for _, t := range m.targets {
		mode := "recursive"
		if !t.Recursive {
			mode = "top level"
		}
		fmt.Fprintf(&b, "  %s %s\n", t.Path, mutedStyle.Render("("+mode+")"))
	}
	b.WriteString("\n")

	status := warnStyle.Render("starting")
	if m.ready {
		status = successStyle.Render("watching")
	}
	if m.err != nil {
		status = errorStyle.Render("error: " + m.err.Error())
	}
	fmt.Fprintf(&b, "  %s %s\n", labelStyle.Render("Status:"), status)
	fmt.Fprintf(&b, "  %s %d\n", labelStyle.Render("Initial scan:"), m.scanned)
	fmt.Fprintf(&b, "  %s %d\n", labelStyle.Render("Handled:"), m.handled)
	fmt.Fprintf(&b, "  %s %d\n", labelStyle.Render("Links created:"), m.links)
	fmt.Fprintf(&b, "  %s %d\n", labelStyle.Render("Errors:"), m.failed)

	if len(m.recent) > 0 {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render("Recent"))
		b.WriteString("\n")
		for i := len(m.recent) - 1; i >= 0; i-- {
			b.WriteString("  ")
			b.WriteString(formatWatchEvent(m.recent[i]))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Press q to quit"))
	b.WriteString("\n")
	return b.String()
}

func runWatchForegroundUI(cfg *config.Config, targets []watchTarget) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := tea.NewProgram(newWatchModel(targets))

	eng := newEngine(cfg)
	eng.AddSink(watcher.SinkFunc(func(ev watcher.Event) error {
		p.Send(watchEventMsg(ev))
		return nil
	}))
	defer eng.StopWatch()

	go func() {
		err := startWatching(ctx, eng, cfg, targets, func(r *scanner.Report) {
			p.Send(watchScanMsg{report: r})
		})
		if err != nil {
			p.Send(watchErrMsg{err: err})
			return
		}
		p.Send(watchReadyMsg{})
	}()

	final, err := p.Run()
	cancel()
	if err != nil {
		return fmt.Errorf("watch UI failed: %w", err)
	}
	if m, ok := final.(watchModel); ok && m.err != nil {
		return m.err
	}
	return nil
}
