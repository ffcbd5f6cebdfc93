package tone

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	domain "github.com/work-piyush006/lifesync-ai/internal/domain/alarm"
	"github.com/work-piyush006/lifesync-ai/internal/logger"
	repo "github.com/work-piyush006/lifesync-ai/internal/repository/alarms"
)

// Pool is the registry of custom and self-recorded audio sources.
// It is append-only from the core's perspective; the only removal path is
// the directory watcher pruning entries whose file was deleted externally.
type Pool struct {
	// store persists pool entries.
	store repo.TonePool
	// dir is the watched tone directory.
	dir string
	// watcher observes file removals in dir.
	watcher *fsnotify.Watcher
	// ctx carries the named logger; also stops the watch loop.
	ctx context.Context
	// cancel stops the watch loop.
	cancel context.CancelFunc
}

// NewPool creates the tone pool over the store and starts watching the tone
// directory, creating it if needed.
func NewPool(ctx context.Context, store repo.TonePool, dir string) (*Pool, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create tone directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create tone watcher: %w", err)
	}

	if err = watcher.Add(dir); err != nil {
		_ = watcher.Close()

		return nil, fmt.Errorf("watch tone directory: %w", err)
	}

	poolCtx, cancel := context.WithCancel(logger.WithName(ctx, "tonepool"))
	p := &Pool{
		store:   store,
		dir:     dir,
		watcher: watcher,
		ctx:     poolCtx,
		cancel:  cancel,
	}

	go p.watch()

	return p, nil
}

// Register appends an audio source to the pool. The file must already exist
// under the tone directory.
func (p *Pool) Register(ctx context.Context, path string, kind domain.Tone) (*repo.ToneRecord, error) {
	if !fileExists(path) {
		return nil, fmt.Errorf("tone file %q does not exist", path)
	}

	record, err := p.store.RegisterTone(ctx, &repo.ToneRecord{Path: path, Kind: kind})
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Tone registered", "path", path, "kind", kind)

	return record, nil
}

// ListTones returns the registered sources.
func (p *Pool) ListTones(ctx context.Context) ([]*repo.ToneRecord, error) {
	return p.store.ListTones(ctx)
}

// Close stops the directory watcher.
func (p *Pool) Close() error {
	p.cancel()

	return p.watcher.Close()
}

// watch prunes pool entries when their backing file is removed or renamed
// away. Creation events are ignored: registration is explicit.
func (p *Pool) watch() {
	for {
		select {
		case <-p.ctx.Done():
			return

		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}

			if !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}

			path := filepath.Clean(event.Name)
			if err := p.store.DeleteToneByPath(p.ctx, path); err != nil {
				logger.ErrorKV(p.ctx, "Failed to prune removed tone", "path", path, "error", err)
				continue
			}

			logger.InfoKV(p.ctx, "Tone file removed, pruned from pool", "path", path)

		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}

			if !errors.Is(err, fsnotify.ErrEventOverflow) {
				logger.WarnKV(p.ctx, "Tone watcher error", "error", err)
			}
		}
	}
}

var _ PoolLister = (*Pool)(nil)
