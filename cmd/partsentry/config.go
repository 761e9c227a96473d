package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	settingsdomain "github.com/smallbiznis/partsentry/internal/settings/domain"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage validation settings stored in the database",
	}
	cmd.AddCommand(
		newConfigGetCmd(),
		newConfigSetCmd(),
		newConfigListCmd(),
	)
	return cmd
}

func newConfigGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Show one setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.Settings.List(ctx, "")
			if err != nil {
				return err
			}
			for _, e := range entries {
				if e.Key == args[0] {
					fmt.Fprintf(cmd.OutOrStdout(), "%s=%s (%s)\n", e.Key, e.Value, e.DataType)
					return nil
				}
			}
			return settingsdomain.ErrNotFound
		},
	}
	return cmd
}

func newConfigSetCmd() *cobra.Command {
	var dataType string
	var category string
	var description string
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			req := settingsdomain.SetRequest{
				Key:      args[0],
				Value:    args[1],
				DataType: settingsdomain.DataType(dataType),
				Category: category,
			}
			if description != "" {
				req.Description = &description
			}

			entry, err := a.Settings.Set(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s=%s (%s)\n", entry.Key, entry.Value, entry.DataType)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dataType, "type", "t", "string", "Value type: string, number, boolean or json")
	cmd.Flags().StringVar(&category, "category", "validation", "Setting category")
	cmd.Flags().StringVar(&description, "description", "", "Setting description")
	return cmd
}

func newConfigListCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.Settings.List(ctx, category)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tVALUE\tTYPE\tCATEGORY")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Key, e.Value, e.DataType, e.Category)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Filter by category")
	return cmd
}
