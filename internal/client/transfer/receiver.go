package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophsend/internal/client/api"
	"github.com/dmitrijs2005/gophsend/internal/client/keychain"
	"github.com/dmitrijs2005/gophsend/internal/common"
)

// Fetcher is the part of the API a Receiver needs.
type Fetcher interface {
	Metadata(ctx context.Context, id string, keychain api.MetadataKeychain) (api.Metadata, error)
	Download(ctx context.Context, id string, capability api.Capability, onProgress api.ProgressFunc) ([]byte, error)
}

// DownloadIntent describes a file to fetch.
type DownloadIntent struct {
	ShareURL string
	Password string
}

// Received is a downloaded and decrypted file.
type Received struct {
	ID       string
	Name     string
	Type     string
	Data     []byte
	Duration time.Duration
}

// Receiver downloads and decrypts shared files.
type Receiver struct {
	api Fetcher
	now func() time.Time
}

func NewReceiver(client Fetcher) *Receiver {
	return &Receiver{api: client, now: time.Now}
}

// Receive fetches the metadata of the shared file, downloads the content
// and decrypts it.
func (r *Receiver) Receive(ctx context.Context, in DownloadIntent, onPhase func(Phase), onProgress api.ProgressFunc) (Received, error) {
	if onPhase == nil {
		onPhase = func(Phase) {}
	}

	link, err := ParseShareURL(in.ShareURL)
	if err != nil {
		return Received{}, err
	}
	kc, err := keychain.FromSecretB64(link.Secret, "")
	if err != nil {
		return Received{}, err
	}
	if in.Password != "" {
		kc.SetPassword([]byte(in.Password), link.URL)
	}

	start := r.now()
	meta, err := r.api.Metadata(ctx, link.ID, kc)
	if err != nil {
		return Received{}, err
	}

	onPhase(PhaseDownloading)
	ciphertext, err := r.api.Download(ctx, link.ID, kc, onProgress)
	if err != nil {
		return Received{}, err
	}

	if isCancelled(ctx.Err()) {
		return Received{}, api.ErrCancelled
	}
	onPhase(PhaseDecrypting)
	iv, err := common.DecodeB64(meta.IV)
	if err != nil {
		return Received{}, fmt.Errorf("decode iv: %w", err)
	}
	plaintext, err := kc.Decrypt(ciphertext, iv)
	if err != nil {
		return Received{}, err
	}

	return Received{
		ID:       link.ID,
		Name:     meta.Name,
		Type:     meta.Type,
		Data:     plaintext,
		Duration: r.now().Sub(start),
	}, nil
}
