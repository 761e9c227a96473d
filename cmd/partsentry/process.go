package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	discoverydomain "github.com/smallbiznis/partsentry/internal/discovery/domain"
	"github.com/smallbiznis/partsentry/internal/processor"
	"github.com/smallbiznis/partsentry/internal/report"
	settingsdomain "github.com/smallbiznis/partsentry/internal/settings/domain"
)

func newProcessCmd() *cobra.Command {
	var interactive bool
	var autoAdd bool
	var format string
	var output string
	cmd := &cobra.Command{
		Use:   "process <invoice.pdf>",
		Short: "Validate a single PDF invoice against the parts catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			provider := a.decisionProvider(ctx, interactive, autoAdd)
			res, disc := a.Proc.ProcessSingle(ctx, args[0], provider)
			if !res.Success {
				return fmt.Errorf("process %s: %s", res.File, res.ErrorMessage)
			}

			out := cmd.OutOrStdout()
			printResult(out, res, disc)

			path, err := a.newWriter(output).WriteInvoice(res.Result, a.resolveFormat(ctx, format))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "report: %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Prompt for each unknown part")
	cmd.Flags().BoolVar(&autoAdd, "auto-add", false, "Add unknown parts at their discovered price")
	cmd.Flags().StringVar(&format, "format", "", "Report format: txt, csv or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Report output directory")
	return cmd
}

func newBatchCmd() *cobra.Command {
	var workers int
	var continueOnError bool
	var interactive bool
	var autoAdd bool
	var format string
	var output string
	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Validate every PDF invoice in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if workers <= 0 {
				workers = a.batchWorkers(ctx)
			}
			if interactive && workers > 1 {
				return fmt.Errorf("--interactive requires --workers 1")
			}

			out := cmd.OutOrStdout()
			batch, runErr := a.Proc.ProcessDirectory(ctx, args[0], processor.Options{
				Workers:         workers,
				ContinueOnError: continueOnError,
				Provider:        a.decisionProvider(ctx, interactive, autoAdd),
				Progress: func(current, total int, message string) {
					fmt.Fprintf(out, "[%d/%d] %s\n", current, total, message)
				},
			})
			if runErr != nil && !errors.Is(runErr, processor.ErrBatchAborted) {
				return runErr
			}

			printBatch(out, batch)

			path, err := a.newWriter(output).WriteBatch(toReportBatch(batch), a.resolveFormat(ctx, format))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "report: %s\n", path)
			return runErr
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Worker pool size (0 uses the configured default)")
	cmd.Flags().BoolVar(&continueOnError, "continue-on-error", true, "Keep processing after a file fails")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Prompt for each unknown part (sequential only)")
	cmd.Flags().BoolVar(&autoAdd, "auto-add", false, "Add unknown parts at their discovered price")
	cmd.Flags().StringVar(&format, "format", "", "Report format: txt, csv or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Report output directory")
	return cmd
}

func newWatchCmd() *cobra.Command {
	var autoAdd bool
	var format string
	var output string
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Watch a directory and validate PDF invoices as they arrive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			provider := a.decisionProvider(ctx, false, autoAdd)
			writer := a.newWriter(output)
			fmtv := a.resolveFormat(ctx, format)

			fmt.Fprintf(out, "watching %s (ctrl-c to stop)\n", args[0])
			err = a.Proc.Watch(ctx, args[0], provider, func(res processor.FileResult) {
				if !res.Success {
					fmt.Fprintf(out, "%s: FAILED: %s\n", res.File, res.ErrorMessage)
					return
				}
				fmt.Fprintf(out, "%s: %d lines, %d passed, %d failed, %d unknown\n",
					res.File,
					res.Result.Summary.TotalParts,
					res.Result.Summary.PassedParts,
					res.Result.Summary.FailedParts,
					res.Result.Summary.UnknownParts)
				if path, werr := writer.WriteInvoice(res.Result, fmtv); werr == nil {
					fmt.Fprintf(out, "report: %s\n", path)
				}
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&autoAdd, "auto-add", false, "Add unknown parts at their discovered price")
	cmd.Flags().StringVar(&format, "format", "", "Report format: txt, csv or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Report output directory")
	return cmd
}

func (a *cliApp) newWriter(override string) *report.Writer {
	dir := a.Cfg.OutputDir
	if override != "" {
		dir = override
	}
	return report.NewWriter(dir, a.Log)
}

func (a *cliApp) resolveFormat(ctx context.Context, flag string) report.Format {
	if flag != "" {
		return report.ParseFormat(flag)
	}
	raw, _ := a.Settings.StringOr(ctx, settingsdomain.KeyReportFormat, string(report.FormatText))
	return report.ParseFormat(raw)
}

func (a *cliApp) batchWorkers(ctx context.Context) int {
	n, err := a.Settings.Number(ctx, settingsdomain.KeyBatchWorkers)
	if err == nil && n.IntPart() >= 1 {
		return int(n.IntPart())
	}
	return a.Cfg.Workers
}

func toReportBatch(batch *processor.BatchResult) *report.Batch {
	out := &report.Batch{
		GeneratedAt: time.Now().UTC(),
		Combined:    batch.Combined,
	}
	for _, f := range batch.Files {
		if f.Result != nil {
			out.Invoices = append(out.Invoices, f.Result)
		}
	}
	return out
}

func printResult(out io.Writer, res processor.FileResult, disc discoverydomain.Summary) {
	s := res.Result.Summary
	fmt.Fprintf(out, "invoice %s (%s)\n", res.InvoiceNumber, res.File)
	fmt.Fprintf(out, "  lines:   %d\n", s.TotalParts)
	fmt.Fprintf(out, "  passed:  %d\n", s.PassedParts)
	fmt.Fprintf(out, "  failed:  %d\n", s.FailedParts)
	fmt.Fprintf(out, "  unknown: %d\n", s.UnknownParts)
	if disc.UniqueParts > 0 {
		fmt.Fprintf(out, "  discovery: %d unique unknown parts, %d added, %d skipped\n",
			disc.UniqueParts, disc.Added, disc.Skipped)
	}
}

func printBatch(out io.Writer, batch *processor.BatchResult) {
	fmt.Fprintf(out, "files: %d total, %d ok, %d failed\n",
		batch.TotalFiles, batch.SuccessfulFiles, batch.FailedFiles)
	for _, f := range batch.Files {
		if !f.Success {
			fmt.Fprintf(out, "  %s: %s\n", f.File, f.ErrorMessage)
		}
	}
	fmt.Fprintf(out, "lines: %d total, %d passed, %d failed, %d unknown\n",
		batch.Combined.TotalParts, batch.Combined.PassedParts,
		batch.Combined.FailedParts, batch.Combined.UnknownParts)
	if batch.Discovery.UniqueParts > 0 {
		fmt.Fprintf(out, "discovery: %d unique unknown parts, %d added, %d skipped\n",
			batch.Discovery.UniqueParts, batch.Discovery.Added, batch.Discovery.Skipped)
	}
}
