package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/yoanbernabeu/strmlink/linker"
	"github.com/yoanbernabeu/strmlink/reaper"
	"github.com/yoanbernabeu/strmlink/scanner"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	labelStyle   = lipgloss.NewStyle().Width(16)
)

// failure is the JSON body printed when a command aborts.
type failure struct {
	Success bool             `json:"success"`
	Kind    linker.ErrorKind `json:"kind"`
	Error   string           `json:"error"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeFailureJSON(w io.Writer, err error) error {
	return writeJSON(w, failure{Kind: linker.KindOf(err), Error: err.Error()})
}

func row(w io.Writer, label string, value any) {
	fmt.Fprintf(w, "  %s %v\n", labelStyle.Render(label+":"), value)
}

func printScanReport(w io.Writer, r *scanner.Report) {
	title := "Scan complete"
	if r.DryRun {
		title = "Dry run complete (nothing written)"
	}
	fmt.Fprintln(w, titleStyle.Render(title))
	row(w, "Directory", r.Directory)
	row(w, "Pointer files", r.TotalPointerFiles)
	row(w, "Processed", r.Processed)
	row(w, "Links created", successStyle.Render(fmt.Sprint(r.CreatedLinks)))
	row(w, "Up to date", r.Skipped)
	row(w, "Duration", fmt.Sprintf("%.2fs", r.DurationSeconds))

	for _, d := range r.Details {
		for _, link := range d.Result.CreatedLinks {
			fmt.Fprintf(w, "  %s %s\n", successStyle.Render("+"), link)
		}
	}

	if len(r.Errors) == 0 {
		return
	}
	fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("\n%d error(s):", len(r.Errors))))
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  %s %s %s\n", errorStyle.Render("x"), e.File, mutedStyle.Render(fmt.Sprintf("[%s] %s", e.Kind, e.Error)))
	}
}

func printCleanupResult(w io.Writer, r *reaper.Result) {
	fmt.Fprintln(w, titleStyle.Render("Cleanup complete"))
	row(w, "Directory", r.Directory)
	row(w, "Links removed", successStyle.Render(fmt.Sprint(r.RemovedCount)))
	row(w, "Duration", fmt.Sprintf("%.2fs", r.DurationSeconds))
	for _, p := range r.Removed {
		fmt.Fprintf(w, "  %s %s\n", mutedStyle.Render("-"), p)
	}
	if len(r.Errors) == 0 {
		return
	}
	fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("\n%d error(s):", len(r.Errors))))
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  %s %s\n", errorStyle.Render("x"), e)
	}
}

func printKinds(w io.Writer, payload, companion []string) {
	fmt.Fprintln(w, titleStyle.Render("Payload kinds"))
	for _, k := range payload {
		fmt.Fprintf(w, "  %s\n", k)
	}
	fmt.Fprintln(w, titleStyle.Render("Companion kinds"))
	for _, k := range companion {
		fmt.Fprintf(w, "  %s\n", k)
	}
}
