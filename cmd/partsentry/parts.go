package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	partsdomain "github.com/smallbiznis/partsentry/internal/parts/domain"
)

func newPartsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parts",
		Short: "Manage the parts price catalog",
	}
	cmd.AddCommand(
		newPartsListCmd(),
		newPartsAddCmd(),
		newPartsImportCmd(),
		newPartsDeactivateCmd(),
	)
	return cmd
}

func newPartsListCmd() *cobra.Command {
	var all bool
	var category string
	var source string
	var limit int
	var offset int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog parts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			filter := partsdomain.ListFilter{
				Category: category,
				Source:   partsdomain.Source(source),
				Limit:    limit,
				Offset:   offset,
			}
			if !all {
				active := true
				filter.Active = &active
			}

			items, total, err := a.Parts.List(ctx, filter)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPART\tTYPE\tDESCRIPTION\tPRICE\tSOURCE\tACTIVE")
			for _, p := range items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%t\n",
					p.ID, p.PartNumber, p.ItemType, p.Description,
					p.AuthorizedPrice.StringFixed(4), p.Source, p.Active)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d parts\n", len(items), total)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include deactivated parts")
	cmd.Flags().StringVar(&category, "category", "", "Filter by category")
	cmd.Flags().StringVar(&source, "source", "", "Filter by source: manual, discovered or imported")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum rows to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "Rows to skip")
	return cmd
}

func newPartsAddCmd() *cobra.Command {
	var description string
	var itemType string
	var price string
	var category string
	var notes string
	cmd := &cobra.Command{
		Use:   "add <part-number>",
		Short: "Add a part to the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			authorized, err := decimal.NewFromString(price)
			if err != nil {
				return fmt.Errorf("invalid --price %q: %w", price, err)
			}

			req := partsdomain.CreateRequest{
				PartNumber:      args[0],
				Description:     description,
				ItemType:        itemType,
				AuthorizedPrice: authorized,
				Source:          partsdomain.SourceManual,
			}
			if category != "" {
				req.Category = &category
			}
			if notes != "" {
				req.Notes = &notes
			}

			part, err := a.Parts.Create(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added part %s (%s) at %s\n",
				part.PartNumber, part.ID, part.AuthorizedPrice.StringFixed(4))
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Part description")
	cmd.Flags().StringVarP(&itemType, "type", "t", "parts", "Item type")
	cmd.Flags().StringVarP(&price, "price", "p", "", "Authorized price")
	cmd.Flags().StringVar(&category, "category", "", "Category")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func newPartsImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import parts from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			summary, err := a.Parts.ImportCSV(ctx, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d rows: %d created, %d duplicate, %d invalid\n",
				summary.Rows, summary.Created, summary.Duplicate, summary.Invalid)
			return nil
		},
	}
	return cmd
}

func newPartsDeactivateCmd() *cobra.Command {
	var hard bool
	cmd := &cobra.Command{
		Use:   "deactivate <id>",
		Short: "Deactivate a part (or delete it with --hard)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := snowflake.ParseString(args[0])
			if err != nil {
				return fmt.Errorf("invalid part id %q: %w", args[0], err)
			}

			if hard {
				if err := a.Parts.HardDelete(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted part %s\n", id)
				return nil
			}
			if err := a.Parts.Deactivate(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deactivated part %s\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVar(&hard, "hard", false, "Remove the row instead of deactivating")
	return cmd
}
