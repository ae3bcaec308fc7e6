package api

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dmitrijs2005/gophsend/internal/client/models"
)

// fakeCapability signs a header as "sig:<nonce>" so servers can tell which
// nonce a request was built from.
type fakeCapability struct {
	sync.Mutex
	mu    sync.Mutex
	nonce string
}

func newFakeCapability(nonce string) *fakeCapability {
	return &fakeCapability{nonce: nonce}
}

func (f *fakeCapability) AuthHeader(context.Context) (string, error) {
	return "sig:" + f.Nonce(), nil
}

func (f *fakeCapability) Nonce() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nonce
}

func (f *fakeCapability) SetNonce(n string) {
	f.mu.Lock()
	f.nonce = n
	f.mu.Unlock()
}

func (f *fakeCapability) DecryptMetadata(blob []byte) (models.FileMetadata, error) {
	var m models.FileMetadata
	err := json.Unmarshal(blob, &m)
	return m, err
}

type fakeAuthKey string

func (k fakeAuthKey) AuthKeyB64() string { return string(k) }

type progressRecorder struct {
	mu    sync.Mutex
	calls [][2]int64
}

func (p *progressRecorder) record(loaded, total int64) {
	p.mu.Lock()
	p.calls = append(p.calls, [2]int64{loaded, total})
	p.mu.Unlock()
}

func (p *progressRecorder) snapshot() [][2]int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][2]int64(nil), p.calls...)
}
