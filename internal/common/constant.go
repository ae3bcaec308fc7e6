// Package common contains shared constants, sentinel errors and small
// helpers used across GophSend components.
package common

const (
	// AuthorizationHeader carries either the nonce-signed capability header
	// or the upload verifier.
	AuthorizationHeader = "Authorization"

	// AuthenticateHeader is the response header with the rotated nonce,
	// formatted as "<scheme> <nonce>".
	AuthenticateHeader = "WWW-Authenticate"

	// FileMetadataHeader carries the encrypted metadata on upload.
	FileMetadataHeader = "X-File-Metadata"

	// AuthScheme prefixes every Authorization value sent by the client.
	AuthScheme = "send-v1"
)
