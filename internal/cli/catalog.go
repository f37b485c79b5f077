package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/jfahler/loadmasterbot/pkg/catalog"
	errs "github.com/jfahler/loadmasterbot/pkg/errors"
)

// catalogCommand lists the expansions used for detection, or shows one.
func (c *CLI) catalogCommand() *cobra.Command {
	var out outputOpts

	cmd := &cobra.Command{
		Use:   "catalog [key]",
		Short: "List the expansions loadmaster detects",
		Example: `  loadmaster catalog
  loadmaster catalog sog -f json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load(c.config().Catalog.Path)
			if err != nil {
				return errs.Wrap(errs.ErrCodeInvalidConfig, err, "load catalog")
			}
			if len(args) == 1 {
				return showExpansion(cat, args[0], out)
			}

			list := make([]*catalog.Expansion, 0, len(cat.Expansions))
			for _, k := range cat.Keys() {
				e, _ := cat.Lookup(k)
				list = append(list, e)
			}
			if done, err := out.emit(list); done || err != nil {
				return err
			}
			printSection("Expansions")
			for _, e := range list {
				printKeyValue(e.Key, e.Name)
			}
			printNextStep("Show one expansion", "loadmaster catalog <key>")
			return nil
		},
	}

	cmd.Flags().StringVarP(&out.format, "format", "f", "text", "output format: text, json, yaml")
	cmd.Flags().StringVarP(&out.output, "output", "o", "", "write the listing to a file")

	return cmd
}

func showExpansion(cat *catalog.Catalog, key string, out outputOpts) error {
	e, ok := cat.Lookup(strings.ToLower(key))
	if !ok {
		return errs.New(errs.ErrCodeNotFound, "no expansion with key %q (see loadmaster catalog)", key)
	}
	if done, err := out.emit(e); done || err != nil {
		return err
	}
	printKeyValue("Name", e.Name)
	printKeyValue("Key", e.Key)
	if e.CompanionID != "" {
		printKeyValue("Companion", e.CompanionID)
	}
	if len(e.BaseIDs) > 0 {
		printKeyValue("Base ids", strings.Join(e.BaseIDs, ", "))
	}
	if len(e.Keywords) > 0 {
		printKeyValue("Keywords", strings.Join(e.Keywords, ", "))
	}
	if e.URL != "" {
		printKeyValue("URL", StyleLink.Render(e.URL))
	}
	return nil
}
