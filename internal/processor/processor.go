// Package processor sequences extraction, discovery and validation for one
// invoice file or a whole directory. One file's failure never aborts a batch.
package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	discoverydomain "github.com/smallbiznis/partsentry/internal/discovery/domain"
	"github.com/smallbiznis/partsentry/internal/extract"
	validationdomain "github.com/smallbiznis/partsentry/internal/validation/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// FileResult is the outcome of processing one invoice file.
type FileResult struct {
	File             string
	Success          bool
	InvoiceNumber    string
	LineCount        int
	UnknownParts     int
	ValidationErrors int
	ProcessingTime   time.Duration
	ErrorMessage     string
	Result           *validationdomain.Result
}

// BatchResult aggregates a directory run. Per-file results keep their own
// identity; Combined merges every validated line's outcome for the
// consolidated report.
type BatchResult struct {
	TotalFiles      int
	SuccessfulFiles int
	FailedFiles     int
	Files           []FileResult
	Combined        validationdomain.Summary
	Discovery       discoverydomain.Summary
}

// ProgressFunc observes batch progress after each file. Purely
// observational: it cannot affect control flow.
type ProgressFunc func(current, total int, message string)

// Options configures one batch run.
type Options struct {
	// Workers bounds the pool for parallel file processing. Values <= 1
	// process sequentially with one shared discovery session.
	Workers int
	// ContinueOnError keeps the batch going past per-file failures.
	ContinueOnError bool
	// Provider resolves unknown parts. Parallel runs must use a
	// non-blocking provider; sequential runs may prompt.
	Provider discoverydomain.DecisionProvider
	Progress ProgressFunc
}

// ErrBatchAborted is returned when a file fails and ContinueOnError is off.
var ErrBatchAborted = fmt.Errorf("batch aborted on first failure")

type Params struct {
	fx.In

	Log       *zap.Logger
	Extractor extract.Extractor
	Engine    validationdomain.Engine
	Discovery discoverydomain.Service
}

type Processor struct {
	log       *zap.Logger
	extractor extract.Extractor
	engine    validationdomain.Engine
	discovery discoverydomain.Service
}

func New(p Params) *Processor {
	return &Processor{
		log:       p.Log.Named("processor"),
		extractor: p.Extractor,
		engine:    p.Engine,
		discovery: p.Discovery,
	}
}

// ProcessSingle runs one file with its own discovery session.
func (p *Processor) ProcessSingle(ctx context.Context, path string, provider discoverydomain.DecisionProvider) (FileResult, discoverydomain.Summary) {
	cfg, err := p.engine.RunConfig(ctx)
	if err != nil {
		return FileResult{File: path, ErrorMessage: err.Error()}, discoverydomain.Summary{}
	}

	session := p.discovery.NewSession(provider)
	result := p.processFile(ctx, path, cfg, session)
	summary := session.Summary()
	session.End()
	return result, summary
}

// ProcessDirectory validates every .pdf in dir in stable sorted order.
func (p *Processor) ProcessDirectory(ctx context.Context, dir string, opts Options) (*BatchResult, error) {
	files, err := listInvoices(dir)
	if err != nil {
		return nil, err
	}

	cfg, err := p.engine.RunConfig(ctx)
	if err != nil {
		return nil, err
	}

	if opts.Provider == nil {
		opts.Provider = discoveryFallback{}
	}

	batch := &BatchResult{TotalFiles: len(files), Files: make([]FileResult, len(files))}

	var runErr error
	if opts.Workers > 1 {
		runErr = p.runParallel(ctx, files, cfg, opts, batch)
	} else {
		runErr = p.runSequential(ctx, files, cfg, opts, batch)
	}

	for _, res := range batch.Files {
		if res.File == "" {
			continue
		}
		if res.Success {
			batch.SuccessfulFiles++
		} else {
			batch.FailedFiles++
		}
		if res.Result != nil {
			batch.Combined.TotalParts += res.Result.Summary.TotalParts
			batch.Combined.PassedParts += res.Result.Summary.PassedParts
			batch.Combined.FailedParts += res.Result.Summary.FailedParts
			batch.Combined.UnknownParts += res.Result.Summary.UnknownParts
		}
	}

	p.log.Info("batch finished",
		zap.Int("total_files", batch.TotalFiles),
		zap.Int("successful", batch.SuccessfulFiles),
		zap.Int("failed", batch.FailedFiles),
	)
	return batch, runErr
}

func (p *Processor) runSequential(ctx context.Context, files []string, cfg validationdomain.RunConfig, opts Options, batch *BatchResult) error {
	session := p.discovery.NewSession(opts.Provider)
	defer func() {
		batch.Discovery = session.Summary()
		session.End()
	}()

	for i, path := range files {
		result := p.processFile(ctx, path, cfg, session)
		batch.Files[i] = result
		report(opts.Progress, i+1, len(files), progressMessage(result))

		if !result.Success && !opts.ContinueOnError {
			batch.Files = batch.Files[:i+1]
			return fmt.Errorf("%w: %s: %s", ErrBatchAborted, filepath.Base(path), result.ErrorMessage)
		}
	}
	return nil
}

// runParallel processes independent files on a bounded worker pool. Each
// worker holds its own discovery session; cross-file duplicate suppression
// relies on the catalog's uniqueness constraint, not shared memory.
func (p *Processor) runParallel(ctx context.Context, files []string, cfg validationdomain.RunConfig, opts Options, batch *BatchResult) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
		aborted   error
	)

	jobs := make(chan int)
	for w := 0; w < opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				session := p.discovery.NewSession(opts.Provider)
				result := p.processFile(runCtx, files[i], cfg, session)
				discoverySummary := session.Summary()
				session.End()

				mu.Lock()
				batch.Files[i] = result
				batch.Discovery.UniqueParts += discoverySummary.UniqueParts
				batch.Discovery.TotalOccurrences += discoverySummary.TotalOccurrences
				batch.Discovery.Added += discoverySummary.Added
				batch.Discovery.Skipped += discoverySummary.Skipped
				completed++
				report(opts.Progress, completed, len(files), progressMessage(result))
				if !result.Success && !opts.ContinueOnError && aborted == nil {
					aborted = fmt.Errorf("%w: %s: %s", ErrBatchAborted, filepath.Base(files[i]), result.ErrorMessage)
					cancel()
				}
				mu.Unlock()
			}
		}()
	}

	for i := range files {
		select {
		case <-runCtx.Done():
		case jobs <- i:
			continue
		}
		break
	}
	close(jobs)
	wg.Wait()

	return aborted
}

// processFile is the per-file boundary: any extraction or validation error
// is recorded on the result, never re-raised to the caller.
func (p *Processor) processFile(ctx context.Context, path string, cfg validationdomain.RunConfig, session discoverydomain.Session) FileResult {
	start := time.Now()
	result := FileResult{File: path}

	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.ErrorMessage = fmt.Sprintf("unexpected error: %v", r)
			result.ProcessingTime = time.Since(start)
			p.log.Error("file processing panic", zap.String("file", path), zap.Any("panic", r))
		}
	}()

	invoice, err := p.extractor.Extract(ctx, path)
	if err != nil {
		result.ErrorMessage = err.Error()
		result.ProcessingTime = time.Since(start)
		p.log.Warn("extraction failed", zap.String("file", path), zap.Error(err))
		return result
	}

	validated := p.engine.ValidateInvoice(ctx, cfg, invoice, session)

	result.Success = true
	result.InvoiceNumber = validated.InvoiceNumber
	result.LineCount = validated.Summary.TotalParts
	result.UnknownParts = validated.Summary.UnknownParts
	result.ValidationErrors = validated.Summary.FailedParts
	result.Result = validated
	result.ProcessingTime = time.Since(start)
	return result
}

func listInvoices(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read invoice directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)

	if len(files) == 0 {
		return nil, fmt.Errorf("no pdf invoices found in %s", dir)
	}
	return files, nil
}

func progressMessage(result FileResult) string {
	name := filepath.Base(result.File)
	if !result.Success {
		return fmt.Sprintf("%s: failed: %s", name, result.ErrorMessage)
	}
	return fmt.Sprintf("%s: %d lines, %d unknown, %d errors",
		name, result.LineCount, result.UnknownParts, result.ValidationErrors)
}

func report(progress ProgressFunc, current, total int, message string) {
	if progress != nil {
		progress(current, total, message)
	}
}

// discoveryFallback collects unknown parts without catalog mutation when no
// provider was supplied.
type discoveryFallback struct{}

func (discoveryFallback) Resolve(ctx context.Context, part *discoverydomain.UnknownPart) (discoverydomain.Decision, error) {
	_ = ctx
	_ = part
	return discoverydomain.Decision{Action: discoverydomain.DecisionSkip, Rationale: "no provider configured"}, nil
}
