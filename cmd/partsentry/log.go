package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	discoverydomain "github.com/smallbiznis/partsentry/internal/discovery/domain"
)

func newLogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Inspect the part discovery audit log",
	}
	cmd.AddCommand(
		newLogListCmd(),
		newLogPurgeCmd(),
	)
	return cmd
}

func newLogListCmd() *cobra.Command {
	var session string
	var part string
	var invoice string
	var action string
	var days int
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List discovery log entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			filter := discoverydomain.QueryFilter{
				SessionID:     session,
				PartNumber:    part,
				InvoiceNumber: invoice,
				Action:        discoverydomain.Action(action),
				Limit:         limit,
			}

			var entries []discoverydomain.LogEntry
			if days > 0 {
				entries, err = a.Discovery.QueryDays(ctx, filter, days)
			} else {
				entries, err = a.Discovery.Query(ctx, filter)
			}
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tACTION\tPART\tINVOICE\tPRICE\tSESSION")
			for _, e := range entries {
				price := "-"
				if e.DiscoveredPrice != nil {
					price = e.DiscoveredPrice.StringFixed(4)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					e.CreatedAt.Format("2006-01-02 15:04:05"),
					e.Action, e.PartNumber, e.InvoiceNumber, price, e.SessionID)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d entries\n", len(entries))
			return nil
		},
	}
	cmd.Flags().StringVar(&session, "session", "", "Filter by session id")
	cmd.Flags().StringVar(&part, "part", "", "Filter by part number")
	cmd.Flags().StringVar(&invoice, "invoice", "", "Filter by invoice number")
	cmd.Flags().StringVar(&action, "action", "", "Filter by action: discovered, added, updated, skipped or price_mismatch")
	cmd.Flags().IntVar(&days, "days", 0, "Only entries newer than this many days")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum entries to return")
	return cmd
}

func newLogPurgeCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete discovery log entries older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			deleted, err := a.Discovery.PurgeOlderThan(ctx, days)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d entries older than %d days\n", deleted, days)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 90, "Retention window in days")
	return cmd
}
