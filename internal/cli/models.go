package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/protoqsar/protopred-go/pkg/types/prediction"
)

// newModelsCmd builds the models subcommand, which lists the model catalog.
// It runs entirely offline and works without credentials.
func newModelsCmd() *cobra.Command {
	var moduleFlag string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the available prediction models",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}

			modules := prediction.Modules()
			if moduleFlag != "" {
				m, err := prediction.ParseModule(moduleFlag)
				if err != nil {
					return err
				}
				modules = []prediction.Module{m}
			}

			if cliCtx.Output == "json" {
				return printJSON(cmd, catalogListing(modules))
			}

			headers := []string{"MODULE", "CATEGORY", "MODEL"}
			var rows [][]string
			for _, module := range modules {
				for _, category := range prediction.Categories(module) {
					for _, name := range prediction.Models(module, category) {
						rows = append(rows, []string{string(module), category, name})
					}
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), formatTable(headers, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&moduleFlag, "module", "", "restrict the listing to one module")
	return cmd
}

// catalogListing renders the catalog as a JSON-friendly nested map in
// catalog order.
func catalogListing(modules []prediction.Module) map[string]map[string][]string {
	out := make(map[string]map[string][]string, len(modules))
	for _, module := range modules {
		categories := make(map[string][]string)
		for _, category := range prediction.Categories(module) {
			categories[category] = prediction.Models(module, category)
		}
		out[string(module)] = categories
	}
	return out
}
