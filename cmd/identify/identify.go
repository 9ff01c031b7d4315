// Package identify runs one footprint image through the staged analysis
// from the command line.
package identify

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tphakala/pugmark/internal/analysis"
	"github.com/tphakala/pugmark/internal/classifier"
	"github.com/tphakala/pugmark/internal/conf"
	"github.com/tphakala/pugmark/internal/errors"
	"github.com/tphakala/pugmark/internal/species"
	"github.com/tphakala/pugmark/internal/upload"
)

// Options controls a single identification.
type Options struct {
	Path    string
	Instant bool // classify immediately, skipping the stage timers
}

// Command creates the identify command.
func Command() *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:   "identify [image]",
		Short: "Identify the footprint in an image",
		Long:  "Run an image through scanning and processing, then print the classification.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Path = args[0]
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return Run(ctx, conf.GetSettings(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&opts.Instant, "instant", false, "Skip the scanning and processing delays")
	return cmd
}

// Run identifies opts.Path and writes progress and the result table to w.
func Run(ctx context.Context, settings *conf.Settings, opts Options, w io.Writer) error {
	uploads, err := upload.NewPolicy(settings.Upload.MaxSize, settings.Upload.Extensions)
	if err != nil {
		return err
	}

	file, err := readFile(opts.Path, uploads)
	if err != nil {
		return err
	}

	registry, err := species.Load(settings.Classifier.SpeciesFile)
	if err != nil {
		return err
	}
	policy, err := classifier.NewPolicy(registry, classifier.WithThreshold(settings.Classifier.Threshold))
	if err != nil {
		return err
	}

	if opts.Instant {
		result := policy.Classify(file.Name, file.Size)
		return renderResult(w, file, result)
	}

	engine, err := analysis.NewEngine(analysis.ConfigFromSettings(settings), policy)
	if err != nil {
		return err
	}

	run, err := engine.Start(ctx, "", file)
	if err != nil {
		return err
	}
	defer run.Cancel()

	final := follow(run, newProgressPrinter(w))
	if final.Cancelled || final.Result == nil {
		return errors.Newf("analysis cancelled").
			Category(errors.CategoryCancellation).
			Component("identify").
			Build()
	}
	return renderResult(w, file, *final.Result)
}

// readFile loads path through the upload policy.
func readFile(path string, policy upload.Policy) (*upload.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(fmt.Errorf("open image: %w", err)).
			Category(errors.CategoryFileIO).
			Component("identify").
			Build()
	}
	defer f.Close()

	return upload.Read(filepath.Base(path), "", f, policy)
}

// follow feeds every snapshot of run to p and returns the terminal one.
func follow(run *analysis.Run, p *progressPrinter) analysis.Snapshot {
	snapshots, unsubscribe := run.Subscribe()
	defer unsubscribe()

	var last analysis.Snapshot
	for snap := range snapshots {
		p.update(snap)
		last = snap
	}
	p.finish(last)
	return last
}
