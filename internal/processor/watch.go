package processor

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	discoverydomain "github.com/smallbiznis/partsentry/internal/discovery/domain"
	"go.uber.org/zap"
)

// settleDelay gives the producer time to finish writing a dropped file
// before extraction opens it.
const settleDelay = 500 * time.Millisecond

// Watch monitors an inbox directory and processes each newly created PDF
// with a non-interactive discovery session. Blocks until ctx is cancelled.
func (p *Processor) Watch(ctx context.Context, dir string, provider discoverydomain.DecisionProvider, onResult func(FileResult)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}
	p.log.Info("watching inbox", zap.String("dir", dir))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".pdf") {
				continue
			}

			time.Sleep(settleDelay)
			result, _ := p.ProcessSingle(ctx, event.Name, provider)
			p.log.Info("inbox file processed",
				zap.String("file", filepath.Base(event.Name)),
				zap.Bool("success", result.Success),
			)
			if onResult != nil {
				onResult(result)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.log.Warn("watch error", zap.Error(err))
		}
	}
}
