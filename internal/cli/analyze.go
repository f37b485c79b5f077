package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jfahler/loadmasterbot/pkg/catalog"
	errs "github.com/jfahler/loadmasterbot/pkg/errors"
	"github.com/jfahler/loadmasterbot/pkg/report"
)

// analyzeOpts holds the command-line flags for the analyze command.
type analyzeOpts struct {
	outputOpts
	submitter string
	context   string
	rule      string
	top       int
	timeout   time.Duration
	refresh   bool
	noCache   bool
}

// analyzeCommand creates the analyze command.
func (c *CLI) analyzeCommand() *cobra.Command {
	opts := analyzeOpts{}

	cmd := &cobra.Command{
		Use:   "analyze <modlist.html|->",
		Short: "Analyze an exported launcher mod list",
		Long: `Analyze reads a mod list exported from the Arma 3 launcher (HTML), fetches
every referenced workshop item and reports size, missing dependencies and
required expansions.

With --user and --context the list is recorded and compared with the
previous upload for the same pair.`,
		Example: `  loadmaster analyze modlist.html
  loadmaster analyze modlist.html --user alice --context ops -f json
  cat modlist.html | loadmaster analyze -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAnalyze(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.submitter, "user", "", "submitter id for history tracking")
	cmd.Flags().StringVar(&opts.context, "context", "", "context id (server or group) for history tracking")
	cmd.Flags().StringVar(&opts.rule, "rule", "", "expansion detection rule: companion or base-ids (default from config)")
	cmd.Flags().IntVar(&opts.top, "top", report.DefaultTop, "number of largest mods to list")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "overall analysis timeout (default from config)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached workshop pages")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the HTTP cache entirely")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format: text, json, yaml")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the report to a file")

	return cmd
}

func (c *CLI) runAnalyze(ctx context.Context, input string, opts analyzeOpts) error {
	ctx = withLogger(ctx, c.Logger)
	logger := loggerFromContext(ctx)

	popts := c.analysisOptions()
	doc, err := readDocument(input, c.config().Input.MaxBytes)
	if err != nil {
		return err
	}
	popts.Document = string(doc)
	popts.SubmitterID = opts.submitter
	popts.ContextID = opts.context
	popts.Refresh = opts.refresh
	if opts.rule != "" {
		popts.Rule = catalog.Rule(opts.rule)
	}
	if opts.timeout > 0 {
		popts.Timeout = opts.timeout
	}

	runner, closeRunner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer closeRunner()

	textOut := opts.output == "" && (opts.format == "" || opts.format == string(report.FormatText))
	var spinner *Spinner
	if textOut {
		spinner = newSpinner(ctx, "Fetching workshop metadata...")
		spinner.Start()
	}

	prog := newProgress(logger)
	result, err := runner.Analyze(ctx, popts)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}
	prog.done("analysis finished", "mods", result.TotalItems, "unresolved", result.FallbackCount)

	if done, err := opts.emit(result); done || err != nil {
		return err
	}
	printAnalysis(result, opts.top)
	if !popts.Tracked() {
		printNextStep("Track changes between uploads", "loadmaster analyze "+input+" --user <id> --context <id>")
	}
	return nil
}

// readDocument reads a mod list from a file or, for "-", from stdin. At most
// maxBytes+1 bytes are read so oversized input is rejected without being
// held in memory.
func readDocument(input string, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = errs.DefaultMaxDocumentBytes
	}
	var r io.Reader
	if input == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(input)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "open mod list")
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "read mod list")
	}
	if err := errs.ValidateDocument(data, maxBytes); err != nil {
		return nil, err
	}
	return data, nil
}
