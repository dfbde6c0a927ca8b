package main

import (
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/medscan/internal/middleware"
	"github.com/bryanwahyu/medscan/internal/report"
)

// NewHistoryCmd prints the scan history feed as Markdown.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print an owner's scan history as Markdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			owner, _ := cmd.Flags().GetString("owner")
			limit, _ := cmd.Flags().GetInt("limit")

			db, err := openDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			list, err := db.scans.List(cmd.Context(), owner, middleware.ValidateLimit(limit))
			if err != nil {
				return err
			}
			_, err = report.NewMarkdownWriter(cmd.OutOrStdout()).Write(owner, list)
			return err
		},
	}
	cmd.Flags().String("owner", "", "owner id (empty lists every owner)")
	cmd.Flags().Int("limit", 50, "maximum number of scans")
	return cmd
}
