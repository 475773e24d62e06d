package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mikey/sender-protect/internal/core"
	"github.com/mikey/sender-protect/internal/emlparse"
	"github.com/mikey/sender-protect/internal/form"
	"github.com/mikey/sender-protect/internal/render"
	"github.com/mikey/sender-protect/internal/utils"
	"go.uber.org/zap"
)

const previewSize = 500

// Input is what the user gave on the command line
type Input struct {
	File        string
	Sender      string
	Content     string
	Headers     string
	UseEnhanced bool
	ShowMetrics bool
}

// Runner analyzes one message from the command line and prints the results
type Runner struct {
	service       *core.AnalysisService
	api           core.ClassifierAPI
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
	out           io.Writer
	apiURL        string
	verbose       bool
}

// NewRunner creates a new CLI runner
func NewRunner(
	service *core.AnalysisService,
	api core.ClassifierAPI,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
	out io.Writer,
	apiURL string,
	verbose bool,
) *Runner {
	if out == nil {
		out = os.Stdout
	}
	return &Runner{
		service:       service,
		api:           api,
		textProcessor: textProcessor,
		logger:        logger,
		out:           out,
		apiURL:        apiURL,
		verbose:       verbose,
	}
}

// Run fills the form from the input, runs one analysis and prints it. The
// returned error is the outcome error, if any.
func (r *Runner) Run(ctx context.Context, in Input) error {
	if err := r.fill(in); err != nil {
		render.WriteError(r.out, err.Error())
		return err
	}

	if in.File != "" {
		data, err := os.ReadFile(in.File)
		if err != nil {
			err = fmt.Errorf("failed to read message file: %w", err)
			render.WriteError(r.out, err.Error())
			return err
		}
		if _, err := r.service.SelectFile(filepath.Base(in.File), data); err != nil {
			render.WriteError(r.out, core.Message(err))
			return err
		}
		r.logger.Debug("Selected message file", zap.String("file", in.File), zap.Int("size", len(data)))
	}

	r.printSummary()

	if in.ShowMetrics {
		render.WriteMetrics(r.out, render.LoadMetrics(ctx, r.api, r.logger))
	}

	fmt.Fprintf(r.out, "\n=== Analysis ===\n")
	fmt.Fprintf(r.out, "API: %s\n", r.apiURL)
	if r.service.Form().Data().UseEnhanced {
		fmt.Fprintf(r.out, "Model: enhanced\n")
	} else {
		fmt.Fprintf(r.out, "Model: baseline\n")
	}

	startTime := time.Now()
	outcome, err := r.service.Analyze(ctx)
	if err != nil {
		render.WriteError(r.out, core.Message(err))
		return err
	}

	render.WriteResult(r.out, render.NewResultView(outcome))
	fmt.Fprintf(r.out, "\nAttempt ID: %s\n", outcome.AttemptID)
	fmt.Fprintf(r.out, "Processing time: %v\n", time.Since(startTime))

	return nil
}

func (r *Runner) fill(in Input) error {
	fields := []struct {
		name  string
		value string
	}{
		{form.FieldSenderEmail, in.Sender},
		{form.FieldEmailContent, in.Content},
		{form.FieldRawHeaders, in.Headers},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := r.service.Form().SetField(f.name, f.value); err != nil {
			return err
		}
	}
	r.service.Form().Update(func(d *form.Data) {
		d.UseEnhanced = in.UseEnhanced
	})
	return nil
}

func (r *Runner) printSummary() {
	data := r.service.Form().Data()

	fmt.Fprintf(r.out, "\n=== Email Summary ===\n")
	if name := r.service.Form().FileName(); name != "" {
		fmt.Fprintf(r.out, "File: %s\n", name)
	}
	fmt.Fprintf(r.out, "From: %s\n", emlparse.DecodeHeader(data.SenderEmail))
	fmt.Fprintf(r.out, "Content length: %d bytes\n", len(data.EmailContent))
	fmt.Fprintf(r.out, "Raw headers: %d bytes\n", len(data.RawHeaders))

	if r.verbose {
		fmt.Fprintf(r.out, "\nContent preview:\n%s\n", r.textProcessor.Preview(data.EmailContent, previewSize))
	}
}
