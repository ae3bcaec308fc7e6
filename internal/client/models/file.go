// Package models defines client-side data models shared by the GophSend
// packages and the local database.
package models

import "time"

// FileMetadata is the plaintext of the encrypted metadata blob stored by
// the server next to every shared file.
type FileMetadata struct {
	Name string `json:"name"`
	Type string `json:"type"`
	// IV is the base64url AES-GCM IV of the file content.
	IV string `json:"iv"`
}

// File is the persisted form of an owned (uploaded by us) shared file.
type File struct {
	ID        string
	URL       string
	Name      string
	Size      int64
	Type      string
	CreatedAt time.Time
	ExpiresAt time.Time

	// SecretKey is the base64url keychain secret; Nonce the last known
	// server nonce for that keychain.
	SecretKey string
	Nonce     string

	// Password, when set, replaces the secret-derived authentication key.
	Password      string
	OwnerToken    string
	DownloadLimit int
	DownloadCount int

	// UploadDuration and Speed (bytes per second) describe the upload.
	UploadDuration time.Duration
	Speed          float64
}
