package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"rill/internal/query"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var flat bool

	cmd := &cobra.Command{
		Use:   "search field=value ...",
		Short: "Search providers and rank the surviving candidates",
		Long: `Search queries every configured provider, normalizes and merges the
results, applies each query field as a filter and prints the surviving
candidates grouped per entity, best first.

Fields are key=value pairs. The type field selects what is searched
(source, episode or movie); every other field doubles as a filter, for
example:

  rill search type=episode series=lost season=1 number=1 quality=720p`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := parseQueryArgs(args)
			if err != nil {
				return err
			}
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.pipeline.Run(cmd.Context(), q)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(result.Sources) == 0 {
				fmt.Fprintln(out, "No candidates found")
				return nil
			}

			var rows [][]string
			if flat {
				for _, src := range result.Sources {
					rows = append(rows, sourceRow(src))
				}
			} else {
				rows = groupRows(result.Groups)
			}
			fmt.Fprintln(out, renderTable(sourceHeaders, rows, sourceAligns))
			fmt.Fprintf(out, "%d candidates in %d groups\n", len(result.Sources), len(result.Groups))
			return nil
		},
	}

	cmd.Flags().BoolVar(&flat, "flat", false, "List candidates without grouping by entity")
	return cmd
}

// parseQueryArgs turns key=value command arguments into a query.
func parseQueryArgs(args []string) (*query.Query, error) {
	fields := make([]query.Field, 0, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("argument %q is not a field=value pair", arg)
		}
		fields = append(fields, query.Field{Key: key, Value: value})
	}
	return query.New(fields...)
}
