package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newDownloadsCommand(ctx *commandContext) *cobra.Command {
	downloadsCmd := &cobra.Command{
		Use:   "downloads",
		Short: "Inspect and manage tracked downloads",
	}

	downloadsCmd.AddCommand(newDownloadsListCommand(ctx))
	downloadsCmd.AddCommand(newDownloadsCancelCommand(ctx))
	downloadsCmd.AddCommand(newDownloadsArchiveCommand(ctx))
	downloadsCmd.AddCommand(newDownloadsSyncCommand(ctx))

	return downloadsCmd
}

func newDownloadsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked downloads",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer app.Close()

			items, err := app.manager.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No downloads tracked")
				return nil
			}
			rows := make([][]string, 0, len(items))
			for _, d := range items {
				rows = append(rows, downloadRow(d))
			}
			fmt.Fprintln(out, renderTable(downloadHeaders, rows, downloadAligns))
			return nil
		},
	}
}

func newDownloadsCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a download and release it from the backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDownloadID(args[0])
			if err != nil {
				return err
			}
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.manager.Cancel(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancelled download %d\n", id)
			return nil
		},
	}
}

func newDownloadsArchiveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <id>",
		Short: "Archive a finished download",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDownloadID(args[0])
			if err != nil {
				return err
			}
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.manager.Archive(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Archived download %d\n", id)
			return nil
		},
	}
}

func newDownloadsSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconcile tracked downloads against the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.manager.Sync(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Downloads synchronized")
			return nil
		},
	}
}

func parseDownloadID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid download id %q", arg)
	}
	return id, nil
}
