package lifecycle

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophsend/internal/client/api"
	"github.com/dmitrijs2005/gophsend/internal/client/keychain"
	"github.com/dmitrijs2005/gophsend/internal/client/models"
)

type metadataResult struct {
	meta api.Metadata
	err  error
}

type fakeAPI struct {
	mu sync.Mutex

	metadata   map[string]metadataResult
	metaDelay  time.Duration
	inFlight   int
	maxFlight  int
	perFile    map[string]int
	overlapped bool
	metaCalls  int

	deleteOK, paramsOK, passwordOK bool
	callErr                        error

	deleted   []string
	limits    map[string]int
	passwords map[string]string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		metadata:   map[string]metadataResult{},
		perFile:    map[string]int{},
		limits:     map[string]int{},
		passwords:  map[string]string{},
		deleteOK:   true,
		paramsOK:   true,
		passwordOK: true,
	}
}

func (f *fakeAPI) Metadata(ctx context.Context, id string, _ api.MetadataKeychain) (api.Metadata, error) {
	f.mu.Lock()
	f.metaCalls++
	f.inFlight++
	if f.inFlight > f.maxFlight {
		f.maxFlight = f.inFlight
	}
	f.perFile[id]++
	if f.perFile[id] > 1 {
		f.overlapped = true
	}
	res, ok := f.metadata[id]
	delay := f.metaDelay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	f.inFlight--
	f.perFile[id]--
	f.mu.Unlock()

	if !ok {
		return api.Metadata{}, errors.New("no metadata configured")
	}
	return res.meta, res.err
}

func (f *fakeAPI) Delete(_ context.Context, id, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return f.deleteOK, f.callErr
}

func (f *fakeAPI) SetParams(_ context.Context, id, _ string, limit int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limits[id] = limit
	return f.paramsOK, f.callErr
}

func (f *fakeAPI) SetPassword(_ context.Context, id, _ string, keys api.AuthKeySource) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.passwords[id] = keys.AuthKeyB64()
	return f.passwordOK, f.callErr
}

func notFound() error { return &api.StatusError{Op: "metadata", Code: 404} }

type memStore struct {
	mu        sync.Mutex
	rows      map[string]models.File
	failErr   error
	deleteErr error
	retired   map[string]models.File
}

func newMemStore() *memStore {
	return &memStore{rows: map[string]models.File{}, retired: map[string]models.File{}}
}

func (s *memStore) Upsert(_ context.Context, f *models.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.rows[f.ID] = *f
	return nil
}

func (s *memStore) DeleteByID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.rows, id)
	return nil
}

// Retire keeps the previous row when the delete fails, like a rolled back
// transaction.
func (s *memStore) Retire(_ context.Context, f *models.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.retired[f.ID] = *f
	delete(s.rows, f.ID)
	return nil
}

func (s *memStore) GetAll(context.Context) ([]*models.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.File, 0, len(s.rows))
	for _, r := range s.rows {
		r := r
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) get(id string) (models.File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	return r, ok
}

var baseTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func ownedFile(id string, created time.Time) OwnedFile {
	return OwnedFile{
		ID:            id,
		URL:           "https://send.example/download/" + id + "/",
		Name:          id + ".bin",
		Size:          10,
		Type:          "application/octet-stream",
		CreatedAt:     created,
		ExpiresAt:     created.Add(24 * time.Hour),
		OwnerToken:    "owner-" + id,
		DownloadLimit: 1,
		Keychain:      keychain.New(),
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
