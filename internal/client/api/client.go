package api

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophsend/internal/client/models"
)

// Capability produces authenticated headers for one shared resource and
// holds the last nonce the server issued for it. Lock/Unlock serialize the
// request exchanges made with the capability.
type Capability interface {
	sync.Locker
	AuthHeader(ctx context.Context) (string, error)
	Nonce() string
	SetNonce(nonce string)
}

// MetadataKeychain is a Capability able to open the metadata blob.
type MetadataKeychain interface {
	Capability
	DecryptMetadata(blob []byte) (models.FileMetadata, error)
}

// AuthKeySource provides the key sent on a password change.
type AuthKeySource interface {
	AuthKeyB64() string
}

// ProgressFunc receives (loaded, total) byte counts. Calls are
// non-decreasing in loaded and loaded never exceeds total.
type ProgressFunc func(loaded, total int64)

// UploadRequest is the input of Upload.
type UploadRequest struct {
	Encrypted []byte
	// Metadata is the encrypted metadata blob, sent base64url encoded.
	Metadata []byte
	// Verifier is the pre-shared upload credential (base64url).
	Verifier string
	// Capability, if set, receives any nonce the server returns.
	Capability Capability
	OnProgress ProgressFunc
}

// UploadResult is the server's answer to a successful upload.
type UploadResult struct {
	URL        string
	ID         string
	OwnerToken string
}

// Metadata is the merged accounting and decrypted metadata of a resource.
type Metadata struct {
	DownloadCount int
	DownloadLimit int
	Size          int64
	TTL           time.Duration
	Name          string
	Type          string
	IV            string
}

// Client is the API surface of the share service used by GophSend.
type Client interface {
	Upload(ctx context.Context, req UploadRequest) (UploadResult, error)
	Download(ctx context.Context, id string, capability Capability, onProgress ProgressFunc) ([]byte, error)
	Metadata(ctx context.Context, id string, keychain MetadataKeychain) (Metadata, error)
	Delete(ctx context.Context, id, ownerToken string) (bool, error)
	SetParams(ctx context.Context, id, ownerToken string, downloadLimit int) (bool, error)
	SetPassword(ctx context.Context, id, ownerToken string, keys AuthKeySource) (bool, error)
}
