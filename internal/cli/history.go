package cli

import (
	"github.com/spf13/cobra"

	"github.com/jfahler/loadmasterbot/pkg/report"
)

// historyCommand creates the history command.
func (c *CLI) historyCommand() *cobra.Command {
	var (
		out       outputOpts
		submitter string
		contextID string
		top       int
	)

	cmd := &cobra.Command{
		Use:     "history",
		Short:   "Show the last recorded mod list for a submitter",
		Example: `  loadmaster history --user alice --context ops`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)
			runner, closeRunner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer closeRunner()

			h, err := runner.LastAnalysis(ctx, submitter, contextID)
			if err != nil {
				return err
			}
			if done, err := out.emit(h); done || err != nil {
				return err
			}
			printHistory(h, top)
			return nil
		},
	}

	cmd.Flags().StringVar(&submitter, "user", "", "submitter id")
	cmd.Flags().StringVar(&contextID, "context", "", "context id")
	cmd.Flags().IntVar(&top, "top", report.DefaultTop, "number of largest mods to list")
	cmd.Flags().StringVarP(&out.format, "format", "f", "text", "output format: text, json, yaml")
	cmd.Flags().StringVarP(&out.output, "output", "o", "", "write the history to a file")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("context")

	return cmd
}
