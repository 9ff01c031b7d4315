package identify

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/labstack/gommon/bytes"
	"github.com/mattn/go-isatty"

	"github.com/tphakala/pugmark/internal/analysis"
	"github.com/tphakala/pugmark/internal/classifier"
	"github.com/tphakala/pugmark/internal/upload"
)

const progressBarWidth = 30

// progressPrinter redraws a single progress line on terminals and prints one
// line per stage change elsewhere.
type progressPrinter struct {
	w         io.Writer
	tty       bool
	lastStage analysis.Stage
	started   bool
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w, tty: isTerminal(w)}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (p *progressPrinter) update(snap analysis.Snapshot) {
	if snap.Terminal() {
		return
	}

	if p.tty {
		fmt.Fprintf(p.w, "\r%-11s %s %3d%%", stageLabel(snap.Stage), progressBar(snap.Progress), snap.Progress)
		p.started = true
		return
	}

	if !p.started || snap.Stage != p.lastStage {
		fmt.Fprintf(p.w, "%s...\n", stageLabel(snap.Stage))
		p.started = true
		p.lastStage = snap.Stage
	}
}

func (p *progressPrinter) finish(snap analysis.Snapshot) {
	if p.tty && p.started {
		fmt.Fprint(p.w, "\r"+strings.Repeat(" ", progressBarWidth+20)+"\r")
	}
	if snap.Cancelled {
		fmt.Fprintln(p.w, "Analysis cancelled")
	}
}

func stageLabel(s analysis.Stage) string {
	switch s {
	case analysis.StageScanning:
		return "Scanning"
	case analysis.StageProcessing:
		return "Processing"
	default:
		return "Complete"
	}
}

func progressBar(progress int) string {
	filled := progress * progressBarWidth / analysis.MaxProgress
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", progressBarWidth-filled) + "]"
}

// renderResult prints the classification of file as a table.
func renderResult(w io.Writer, file *upload.File, result classifier.Result) error {
	rec := result.Record()

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("Footprint analysis")

	verdict := text.FgGreen.Sprint(rec.Name)
	if !result.Known() {
		verdict = text.FgYellow.Sprint(rec.Name)
	}

	tw.AppendRows([]table.Row{
		{"File", file.Name},
		{"Size", bytes.Format(file.Size)},
		{"Species", verdict},
		{"Class", result.ClassID()},
		{"Scientific name", rec.ScientificName},
		{"Conservation status", rec.ConservationStatus},
		{"Habitat", rec.Habitat},
		{"Confidence", fmt.Sprintf("%.1f%%", result.Confidence)},
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, WidthMax: 60},
	})
	tw.Render()

	if rec.Description != "" {
		fmt.Fprintln(w, text.WrapSoft(strings.TrimSpace(rec.Description), 72))
	}
	return nil
}
