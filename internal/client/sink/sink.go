// Package sink stores decrypted downloads.
package sink

import "context"

// Sink saves a received file and returns where it ended up.
type Sink interface {
	Save(ctx context.Context, name, contentType string, data []byte) (string, error)
}
