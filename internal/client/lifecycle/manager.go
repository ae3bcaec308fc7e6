package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophsend/internal/client/api"
	"github.com/dmitrijs2005/gophsend/internal/client/models"
	"github.com/dmitrijs2005/gophsend/internal/common"
	"github.com/dmitrijs2005/gophsend/internal/logging"
)

// DefaultSweepConcurrency bounds the number of files refreshed at once.
const DefaultSweepConcurrency = 4

var (
	ErrNotTracked    = fmt.Errorf("file is not tracked: %w", common.ErrNotFound)
	ErrEmptyPassword = errors.New("password must not be empty")
	ErrInvalidFile   = errors.New("owned file needs an id, a url, an owner token and a keychain")
)

// API is the part of the share service the manager calls.
type API interface {
	Metadata(ctx context.Context, id string, keychain api.MetadataKeychain) (api.Metadata, error)
	Delete(ctx context.Context, id, ownerToken string) (bool, error)
	SetParams(ctx context.Context, id, ownerToken string, downloadLimit int) (bool, error)
	SetPassword(ctx context.Context, id, ownerToken string, keys api.AuthKeySource) (bool, error)
}

// Store persists owned files.
type Store interface {
	Upsert(ctx context.Context, f *models.File) error
	DeleteByID(ctx context.Context, id string) error
	// Retire persists the final state of f and drops its row atomically.
	Retire(ctx context.Context, f *models.File) error
	GetAll(ctx context.Context) ([]*models.File, error)
}

// Manager owns the set of tracked files.
type Manager struct {
	api    API
	store  Store
	logger logging.Logger
	now    func() time.Time

	sweepConcurrency int

	mu    sync.RWMutex
	files map[string]OwnedFile
	locks keyedMutex
}

type Option func(*Manager)

func WithLogger(l logging.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithSweepConcurrency(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.sweepConcurrency = n
		}
	}
}

func NewManager(client API, store Store, opts ...Option) *Manager {
	m := &Manager{
		api:              client,
		store:            store,
		logger:           logging.Nop(),
		now:              time.Now,
		sweepConcurrency: DefaultSweepConcurrency,
		files:            make(map[string]OwnedFile),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load replaces the tracked set with the stored one. Rows that cannot be
// restored are skipped.
func (m *Manager) Load(ctx context.Context) error {
	records, err := m.store.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load owned files: %w", err)
	}

	files := make(map[string]OwnedFile, len(records))
	for _, r := range records {
		f, err := FromRecord(r)
		if err != nil {
			m.logger.Warn(ctx, "skipping stored file", "file_id", r.ID, "error", err)
			continue
		}
		files[f.ID] = f
	}

	m.mu.Lock()
	m.files = files
	m.mu.Unlock()

	m.logger.Debug(ctx, "owned files loaded", "count", len(files))
	return nil
}

// Add starts tracking f and persists it.
func (m *Manager) Add(ctx context.Context, f OwnedFile) error {
	if f.ID == "" || f.URL == "" || f.OwnerToken == "" || f.Keychain == nil {
		return ErrInvalidFile
	}
	if f.DownloadLimit < 1 {
		return common.ErrInvalidLimit
	}

	unlock := m.locks.lock(f.ID)
	defer unlock()

	return m.put(ctx, f)
}

func (m *Manager) Get(id string) (OwnedFile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[id]
	return f, ok
}

// List returns the tracked files, oldest first.
func (m *Manager) List() []OwnedFile {
	m.mu.RLock()
	out := make([]OwnedFile, 0, len(m.files))
	for _, f := range m.files {
		out = append(out, f)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Delete stops tracking the file and then invalidates it on the server.
// The local removal stands even when the server call fails.
func (m *Manager) Delete(ctx context.Context, id string) (bool, error) {
	unlock := m.locks.lock(id)
	defer unlock()

	f, ok := m.Get(id)
	if !ok {
		return false, ErrNotTracked
	}
	if err := m.forget(ctx, id); err != nil {
		return false, err
	}

	ok, err := m.api.Delete(ctx, id, f.OwnerToken)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", id, err)
	}
	m.logger.Info(ctx, "file deleted", "file_id", id, "server_ack", ok)
	return ok, nil
}

// ChangeLimit sets a new download limit. The tracked value only changes
// when the server accepted it.
func (m *Manager) ChangeLimit(ctx context.Context, id string, limit int) (bool, error) {
	if limit < 1 {
		return false, common.ErrInvalidLimit
	}

	unlock := m.locks.lock(id)
	defer unlock()

	f, ok := m.Get(id)
	if !ok {
		return false, ErrNotTracked
	}

	ok, err := m.api.SetParams(ctx, id, f.OwnerToken, limit)
	if err != nil {
		return false, fmt.Errorf("change limit of %s: %w", id, err)
	}
	if !ok {
		return false, nil
	}

	if err := m.put(ctx, f.WithDownloadLimit(limit)); err != nil {
		return true, err
	}
	return true, nil
}

// SetPassword protects the file with a password. The keychain switches to
// the password key before the request; it is switched back when the server
// does not accept the change.
func (m *Manager) SetPassword(ctx context.Context, id string, password []byte) (bool, error) {
	if len(password) == 0 {
		return false, ErrEmptyPassword
	}

	unlock := m.locks.lock(id)
	defer unlock()

	f, ok := m.Get(id)
	if !ok {
		return false, ErrNotTracked
	}

	f.Keychain.SetPassword(password, f.URL)
	ok, err := m.api.SetPassword(ctx, id, f.OwnerToken, f.Keychain)
	if err != nil || !ok {
		if rerr := m.restoreAuthKey(f); rerr != nil {
			return false, errors.Join(err, rerr)
		}
		if err != nil {
			return false, fmt.Errorf("set password of %s: %w", id, err)
		}
		return false, nil
	}

	if err := m.put(ctx, f.withPassword(string(password))); err != nil {
		return true, err
	}
	return true, nil
}

func (m *Manager) restoreAuthKey(f OwnedFile) error {
	if f.password != "" {
		f.Keychain.SetPassword([]byte(f.password), f.URL)
		return nil
	}
	return f.Keychain.ClearPassword()
}

// Refresh asks the server for the download count of the file. A 404 means
// the budget is used up: the count is set to the limit and no error is
// returned.
func (m *Manager) Refresh(ctx context.Context, id string) (OwnedFile, error) {
	unlock := m.locks.lock(id)
	defer unlock()

	f, ok := m.Get(id)
	if !ok {
		return OwnedFile{}, ErrNotTracked
	}
	return m.refresh(ctx, f)
}

// refresh must be called with the file's lock held.
func (m *Manager) refresh(ctx context.Context, f OwnedFile) (OwnedFile, error) {
	next, err := m.reconcile(ctx, f)
	if err != nil {
		return f, err
	}
	// the keychain nonce has moved as well, so always persist
	if err := m.put(ctx, next); err != nil {
		return next, err
	}
	return next, nil
}

// reconcile applies the server's view of f without persisting it.
func (m *Manager) reconcile(ctx context.Context, f OwnedFile) (OwnedFile, error) {
	meta, err := m.api.Metadata(ctx, f.ID, f.Keychain)
	switch {
	case err == nil:
		return f.WithDownloadLimit(meta.DownloadLimit).WithDownloadCount(meta.DownloadCount), nil
	case errors.Is(err, api.ErrNotFound):
		return f.WithDownloadCount(f.DownloadLimit), nil
	default:
		return f, fmt.Errorf("refresh %s: %w", f.ID, err)
	}
}

func (m *Manager) put(ctx context.Context, f OwnedFile) error {
	if err := m.store.Upsert(ctx, f.Record()); err != nil {
		return fmt.Errorf("persist %s: %w", f.ID, err)
	}
	m.mu.Lock()
	m.files[f.ID] = f
	m.mu.Unlock()
	return nil
}

func (m *Manager) forget(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.files, id)
	m.mu.Unlock()
	if err := m.store.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("forget %s: %w", id, err)
	}
	return nil
}

// retire stops tracking f and stores its final state and removal in one
// step. The file is untracked even when the store fails.
func (m *Manager) retire(ctx context.Context, f OwnedFile) error {
	m.mu.Lock()
	delete(m.files, f.ID)
	m.mu.Unlock()
	if err := m.store.Retire(ctx, f.Record()); err != nil {
		return fmt.Errorf("retire %s: %w", f.ID, err)
	}
	return nil
}
