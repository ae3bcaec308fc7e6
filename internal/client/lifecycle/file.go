package lifecycle

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophsend/internal/client/keychain"
	"github.com/dmitrijs2005/gophsend/internal/client/models"
)

// OwnedFile is a file uploaded by this client.
type OwnedFile struct {
	ID        string
	URL       string
	Name      string
	Size      int64
	Type      string
	CreatedAt time.Time
	ExpiresAt time.Time

	OwnerToken    string
	DownloadLimit int
	DownloadCount int

	UploadDuration time.Duration
	Speed          float64

	Keychain *keychain.Keychain

	password string
}

// WithDownloadCount returns f with the count raised to n. The count never
// decreases.
func (f OwnedFile) WithDownloadCount(n int) OwnedFile {
	if n > f.DownloadCount {
		f.DownloadCount = n
	}
	return f
}

// WithDownloadLimit returns f with the given limit. Limits below one are
// ignored.
func (f OwnedFile) WithDownloadLimit(n int) OwnedFile {
	if n >= 1 {
		f.DownloadLimit = n
	}
	return f
}

func (f OwnedFile) withPassword(password string) OwnedFile {
	f.password = password
	return f
}

// Exhausted reports whether the download budget is used up.
func (f OwnedFile) Exhausted() bool {
	return f.DownloadCount >= f.DownloadLimit
}

func (f OwnedFile) Expired(now time.Time) bool {
	return !f.ExpiresAt.IsZero() && !now.Before(f.ExpiresAt)
}

func (f OwnedFile) HasPassword() bool {
	return f.password != ""
}

// ShareURL is the link handed to recipients: the file URL with the secret
// in the fragment.
func (f OwnedFile) ShareURL() string {
	return f.URL + "#" + f.Keychain.SecretB64()
}

// Record converts f to its persisted form, capturing the keychain's
// current nonce.
func (f OwnedFile) Record() *models.File {
	return &models.File{
		ID:             f.ID,
		URL:            f.URL,
		Name:           f.Name,
		Size:           f.Size,
		Type:           f.Type,
		CreatedAt:      f.CreatedAt,
		ExpiresAt:      f.ExpiresAt,
		SecretKey:      f.Keychain.SecretB64(),
		Nonce:          f.Keychain.Nonce(),
		Password:       f.password,
		OwnerToken:     f.OwnerToken,
		DownloadLimit:  f.DownloadLimit,
		DownloadCount:  f.DownloadCount,
		UploadDuration: f.UploadDuration,
		Speed:          f.Speed,
	}
}

// FromRecord rebuilds an OwnedFile and its keychain from a stored row.
func FromRecord(r *models.File) (OwnedFile, error) {
	kc, err := keychain.FromSecretB64(r.SecretKey, r.Nonce)
	if err != nil {
		return OwnedFile{}, fmt.Errorf("file %s: %w", r.ID, err)
	}
	if r.Password != "" {
		kc.SetPassword([]byte(r.Password), r.URL)
	}

	limit := r.DownloadLimit
	if limit < 1 {
		limit = 1
	}
	count := r.DownloadCount
	if count < 0 {
		count = 0
	}

	return OwnedFile{
		ID:             r.ID,
		URL:            r.URL,
		Name:           r.Name,
		Size:           r.Size,
		Type:           r.Type,
		CreatedAt:      r.CreatedAt,
		ExpiresAt:      r.ExpiresAt,
		OwnerToken:     r.OwnerToken,
		DownloadLimit:  limit,
		DownloadCount:  count,
		UploadDuration: r.UploadDuration,
		Speed:          r.Speed,
		Keychain:       kc,
		password:       r.Password,
	}, nil
}
