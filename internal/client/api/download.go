package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
)

// Download fetches the encrypted body of a resource. A 401 repeats the whole
// attempt (fresh request, fresh header) while attempts remain; a 404 fails
// at once with an error matching ErrNotFound. Progress is only reported for
// a 200 body. Cancellation is checked before every attempt and on every
// body chunk and always surfaces as ErrCancelled.
func (c *HTTPClient) Download(ctx context.Context, id string, capability Capability, onProgress ProgressFunc) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.downloadAttempts; attempt++ {
		if err := cancelled(ctx); err != nil {
			return nil, err
		}

		data, err := c.downloadOnce(ctx, id, capability, onProgress)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, ErrAuthRejected) {
			return nil, err
		}
		lastErr = err
		c.logger.Debug(ctx, "download rejected", "file_id", id, "attempt", attempt)
	}
	return nil, lastErr
}

// maxPrealloc bounds the up-front buffer allocation for a download body.
const maxPrealloc = 8 << 20

func (c *HTTPClient) downloadOnce(ctx context.Context, id string, capability Capability, onProgress ProgressFunc) ([]byte, error) {
	const op = "download"

	capability.Lock()
	defer capability.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("download", id), nil)
	if err != nil {
		return nil, err
	}
	before, err := authorize(ctx, req, capability)
	if err != nil {
		return nil, err
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, transportError(ctx, op, err)
	}
	defer resp.Body.Close()

	reconcileNonce(capability, resp, before)

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Op: op, Code: resp.StatusCode}
	}

	var buf bytes.Buffer
	if resp.ContentLength > 0 {
		// Content-Length is server-controlled; grow past this as bytes arrive.
		buf.Grow(int(min(resp.ContentLength, maxPrealloc)))
	}
	if _, err := buf.ReadFrom(newProgressReader(ctx, resp.Body, resp.ContentLength, onProgress)); err != nil {
		return nil, transportError(ctx, op, err)
	}
	return buf.Bytes(), nil
}
