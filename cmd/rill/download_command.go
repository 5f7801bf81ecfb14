package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "download field=value ...",
		Short: "Search and hand the best candidate to the download backend",
		Args:  cobra.MinimumNArgs(1),
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

			d, err := app.pipeline.Download(cmd.Context(), q)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if d == nil {
				fmt.Fprintln(out, "No candidates found")
				return nil
			}
			src, err := app.store.SourceByID(cmd.Context(), d.SourceID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Queued %s (download %d, state %s)\n", src.Name, d.ID, d.State)
			return nil
		},
	}
}
