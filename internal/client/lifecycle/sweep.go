package lifecycle

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophsend/internal/client/api"
	"golang.org/x/sync/errgroup"
)

// SweepResult lists the files whose state changed during a sweep.
type SweepResult struct {
	// Changed files are still tracked with a new count or limit.
	Changed []string
	// Removed files were exhausted or expired and are no longer tracked.
	Removed []string
}

func (r SweepResult) Empty() bool {
	return len(r.Changed) == 0 && len(r.Removed) == 0
}

// Sweep refreshes every tracked file, drops the exhausted and expired ones
// and reports what changed. Refresh failures of single files are logged and
// skipped; only cancellation aborts the sweep. A file that was untracked is
// reported as removed even when deleting its stored row failed.
func (m *Manager) Sweep(ctx context.Context) (SweepResult, error) {
	files := m.List()
	if len(files) == 0 {
		return SweepResult{}, nil
	}

	var (
		mu  sync.Mutex
		res SweepResult
	)
	record := func(list *[]string, id string) {
		mu.Lock()
		*list = append(*list, id)
		mu.Unlock()
	}

	now := m.now()
	var g errgroup.Group
	g.SetLimit(m.sweepConcurrency)

	for _, f := range files {
		g.Go(func() error {
			removed, changed, err := m.sweepOne(ctx, f.ID, now)
			if removed {
				// untracked even if the store failed
				record(&res.Removed, f.ID)
			}
			switch {
			case errors.Is(err, api.ErrCancelled), errors.Is(err, context.Canceled):
				return err
			case err != nil && removed:
				m.logger.Warn(ctx, "removing stored file failed", "file_id", f.ID, "error", err)
			case err != nil:
				m.logger.Warn(ctx, "refresh failed", "file_id", f.ID, "error", err)
			case changed:
				record(&res.Changed, f.ID)
			}
			return nil
		})
	}

	err := g.Wait()
	sort.Strings(res.Changed)
	sort.Strings(res.Removed)
	if err != nil {
		return res, err
	}

	if !res.Empty() {
		m.logger.Info(ctx, "sweep finished", "changed", len(res.Changed), "removed", len(res.Removed))
	}
	return res, nil
}

func (m *Manager) sweepOne(ctx context.Context, id string, now time.Time) (removed, changed bool, err error) {
	if err := ctx.Err(); err != nil {
		return false, false, err
	}

	unlock := m.locks.lock(id)
	defer unlock()

	f, ok := m.Get(id)
	if !ok {
		// deleted while the sweep was running
		return false, false, nil
	}
	if f.Expired(now) {
		return true, false, m.forget(ctx, id)
	}

	next, err := m.reconcile(ctx, f)
	if err != nil {
		return false, false, err
	}
	if next.Exhausted() {
		return true, false, m.retire(ctx, next)
	}
	if err := m.put(ctx, next); err != nil {
		return false, false, err
	}
	return false, next.DownloadCount != f.DownloadCount || next.DownloadLimit != f.DownloadLimit, nil
}
