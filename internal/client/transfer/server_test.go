package transfer

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/gophsend/internal/common"
	"github.com/dmitrijs2005/gophsend/internal/cryptox"
)

type storedFile struct {
	data    []byte
	meta    string
	authKey string
	nonce   string
	owner   string
	dlimit  int
	dtotal  int
}

// shareServer is an in-memory share service speaking the send-v1 protocol.
type shareServer struct {
	*httptest.Server

	mu      sync.Mutex
	files   map[string]*storedFile
	seq     int
	hold    chan struct{}
	uploads int

	stall   stallMode
	stalled chan struct{}
	release chan struct{}
}

type stallMode int

const (
	stallNone stallMode = iota
	stallBeforeHeaders
	stallMidBody
)

func newShareServer(t *testing.T) *shareServer {
	t.Helper()
	s := &shareServer{files: map[string]*storedFile{}}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/upload", s.upload)
	mux.HandleFunc("GET /api/metadata/{id}", s.metadata)
	mux.HandleFunc("GET /api/download/{id}", s.download)
	mux.HandleFunc("POST /api/params/{id}", s.params)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// holdUploads makes uploads wait until the client goes away.
func (s *shareServer) holdUploads(t *testing.T) {
	hold := make(chan struct{})
	s.mu.Lock()
	s.hold = hold
	s.mu.Unlock()
	t.Cleanup(func() { close(hold) })
}

// stallDownloads makes downloads hang at the given point until the client
// goes away. The returned channel receives once a download has stalled.
func (s *shareServer) stallDownloads(t *testing.T, mode stallMode) <-chan struct{} {
	stalled := make(chan struct{}, 1)
	release := make(chan struct{})
	s.mu.Lock()
	s.stall, s.stalled, s.release = mode, stalled, release
	s.mu.Unlock()
	t.Cleanup(func() { close(release) })
	return stalled
}

func (s *shareServer) wait(r *http.Request, stalled, release chan struct{}) {
	select {
	case stalled <- struct{}{}:
	default:
	}
	select {
	case <-r.Context().Done():
	case <-release:
	}
}

func (s *shareServer) remove(id string) {
	s.mu.Lock()
	delete(s.files, id)
	s.mu.Unlock()
}

func (s *shareServer) file(id string) (storedFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		return storedFile{}, false
	}
	return *f, true
}

func newNonce() string { return common.EncodeB64(common.GenerateRandByteArray(16)) }

func (s *shareServer) upload(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	hold := s.hold
	s.uploads++
	s.mu.Unlock()
	if hold != nil {
		select {
		case <-r.Context().Done():
		case <-hold:
		}
		return
	}

	verifier, ok := strings.CutPrefix(r.Header.Get("Authorization"), "send-v1 ")
	if !ok || verifier == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	part, _, err := r.FormFile("data")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	data, _ := io.ReadAll(part)

	s.mu.Lock()
	s.seq++
	id := fmt.Sprintf("%010x", s.seq)
	f := &storedFile{
		data:    data,
		meta:    r.Header.Get("X-File-Metadata"),
		authKey: verifier,
		nonce:   newNonce(),
		owner:   "owner-" + id,
		dlimit:  1,
	}
	s.files[id] = f
	nonce := f.nonce
	s.mu.Unlock()

	w.Header().Set("WWW-Authenticate", "send-v1 "+nonce)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"url":   s.URL + "/download/" + id + "/",
		"id":    id,
		"owner": "owner-" + id,
	})
}

// authorize checks the signature over the current nonce and rotates it.
// It must be called with s.mu held.
func (s *shareServer) authorize(w http.ResponseWriter, r *http.Request, f *storedFile) bool {
	key, _ := common.DecodeB64(f.authKey)
	nonce, _ := common.DecodeB64(f.nonce)
	want := "send-v1 " + common.EncodeB64(cryptox.Sign(key, nonce))

	f.nonce = newNonce()
	w.Header().Set("WWW-Authenticate", "send-v1 "+f.nonce)
	if r.Header.Get("Authorization") != want {
		w.WriteHeader(http.StatusUnauthorized)
		return false
	}
	return true
}

func (s *shareServer) metadata(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[r.PathValue("id")]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if !s.authorize(w, r, f) {
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"dtotal":   f.dtotal,
		"dlimit":   f.dlimit,
		"size":     len(f.data),
		"ttl":      86400000,
		"metadata": f.meta,
	})
}

func (s *shareServer) download(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	f, ok := s.files[id]
	if !ok {
		s.mu.Unlock()
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if !s.authorize(w, r, f) {
		s.mu.Unlock()
		return
	}
	f.dtotal++
	if f.dtotal >= f.dlimit {
		delete(s.files, id)
	}
	data := f.data
	mode, stalled, release := s.stall, s.stalled, s.release
	s.mu.Unlock()

	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	switch mode {
	case stallBeforeHeaders:
		s.wait(r, stalled, release)
		return
	case stallMidBody:
		_, _ = w.Write(data[:len(data)/2])
		w.(http.Flusher).Flush()
		s.wait(r, stalled, release)
		return
	}
	_, _ = w.Write(data)
}

func (s *shareServer) params(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OwnerToken string `json:"owner_token"`
		DLimit     int    `json:"dlimit"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[r.PathValue("id")]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if body.OwnerToken != f.owner {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	f.dlimit = body.DLimit
}
