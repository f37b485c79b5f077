package cli

import (
	"github.com/spf13/cobra"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		out     outputOpts
		refresh bool
	)

	cmd := &cobra.Command{
		Use:     "inspect <workshop-id>",
		Short:   "Show metadata for one workshop item",
		Example: `  loadmaster inspect 450814997`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)
			runner, closeRunner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer closeRunner()

			meta, err := runner.Inspect(ctx, args[0], refresh)
			if err != nil {
				return err
			}
			if done, err := out.emit(meta); done || err != nil {
				return err
			}
			printItem(meta)
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the cached page")
	cmd.Flags().StringVarP(&out.format, "format", "f", "text", "output format: text, json, yaml")
	cmd.Flags().StringVarP(&out.output, "output", "o", "", "write the item to a file")

	return cmd
}
