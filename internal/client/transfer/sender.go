package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophsend/internal/client/api"
	"github.com/dmitrijs2005/gophsend/internal/client/keychain"
	"github.com/dmitrijs2005/gophsend/internal/client/lifecycle"
	"github.com/dmitrijs2005/gophsend/internal/client/models"
	"github.com/dmitrijs2005/gophsend/internal/common"
)

// DefaultExpiry is how long the service keeps an upload.
const DefaultExpiry = 24 * time.Hour

// Uploader is the API call a Sender needs.
type Uploader interface {
	Upload(ctx context.Context, req api.UploadRequest) (api.UploadResult, error)
}

// UploadIntent describes a file to share.
type UploadIntent struct {
	Name string
	Type string
	Data []byte
}

// Sender encrypts and uploads files.
type Sender struct {
	api    Uploader
	expiry time.Duration
	now    func() time.Time
}

func NewSender(client Uploader, expiry time.Duration) *Sender {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Sender{api: client, expiry: expiry, now: time.Now}
}

// Send encrypts the intent's data under a fresh keychain and uploads it.
// The returned file starts with a download limit of one.
func (s *Sender) Send(ctx context.Context, in UploadIntent, onPhase func(Phase), onProgress api.ProgressFunc) (lifecycle.OwnedFile, error) {
	if onPhase == nil {
		onPhase = func(Phase) {}
	}
	if in.Type == "" {
		in.Type = "application/octet-stream"
	}

	onPhase(PhaseEncrypting)
	kc := keychain.New()
	ciphertext, iv, err := kc.Encrypt(in.Data)
	if err != nil {
		return lifecycle.OwnedFile{}, fmt.Errorf("encrypt: %w", err)
	}
	meta, err := kc.EncryptMetadata(models.FileMetadata{
		Name: in.Name,
		Type: in.Type,
		IV:   common.EncodeB64(iv),
	})
	if err != nil {
		return lifecycle.OwnedFile{}, fmt.Errorf("encrypt metadata: %w", err)
	}
	if isCancelled(ctx.Err()) {
		return lifecycle.OwnedFile{}, api.ErrCancelled
	}

	onPhase(PhaseUploading)
	start := s.now()
	res, err := s.api.Upload(ctx, api.UploadRequest{
		Encrypted:  ciphertext,
		Metadata:   meta,
		Verifier:   kc.AuthKeyB64(),
		Capability: kc,
		OnProgress: onProgress,
	})
	if err != nil {
		return lifecycle.OwnedFile{}, err
	}
	finished := s.now()
	elapsed := finished.Sub(start)

	var speed float64
	if elapsed > 0 {
		speed = float64(len(in.Data)) / elapsed.Seconds()
	}

	return lifecycle.OwnedFile{
		ID:             res.ID,
		URL:            res.URL,
		Name:           in.Name,
		Size:           int64(len(in.Data)),
		Type:           in.Type,
		CreatedAt:      finished,
		ExpiresAt:      finished.Add(s.expiry),
		OwnerToken:     res.OwnerToken,
		DownloadLimit:  1,
		DownloadCount:  0,
		UploadDuration: elapsed,
		Speed:          speed,
		Keychain:       kc,
	}, nil
}
