package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/dmitrijs2005/gophsend/internal/common"
)

type uploadResponse struct {
	URL   string `json:"url"`
	ID    string `json:"id"`
	Owner string `json:"owner"`
}

func multipartBody(encrypted []byte) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("data", "blob")
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(encrypted); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return body, w.FormDataContentType(), nil
}

// Upload posts the encrypted file as a multipart body authorized by the
// upload verifier. Progress is reported while the transport consumes the
// body. Cancelling ctx aborts the request and yields ErrCancelled.
func (c *HTTPClient) Upload(ctx context.Context, r UploadRequest) (UploadResult, error) {
	const op = "upload"

	if err := cancelled(ctx); err != nil {
		return UploadResult{}, err
	}

	body, contentType, err := multipartBody(r.Encrypted)
	if err != nil {
		return UploadResult{}, fmt.Errorf("%s: build body: %w", op, err)
	}
	total := int64(body.Len())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("upload"),
		newProgressReader(ctx, body, total, r.OnProgress))
	if err != nil {
		return UploadResult{}, err
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(common.FileMetadataHeader, common.EncodeB64(r.Metadata))
	req.Header.Set(common.AuthorizationHeader, common.AuthScheme+" "+r.Verifier)

	if r.Capability != nil {
		r.Capability.Lock()
		defer r.Capability.Unlock()
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return UploadResult{}, transportError(ctx, op, err)
	}
	defer resp.Body.Close()

	if r.Capability != nil {
		if ch, ok := ParseChallenge(resp.Header.Get(common.AuthenticateHeader)); ok {
			r.Capability.SetNonce(ch.Nonce)
		}
	}

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return UploadResult{}, &StatusError{Op: op, Code: resp.StatusCode}
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if cerr := cancelled(ctx); cerr != nil {
			return UploadResult{}, cerr
		}
		return UploadResult{}, fmt.Errorf("%s: decode body: %w", op, err)
	}

	c.logger.Debug(ctx, "upload accepted", "file_id", out.ID, "bytes", total)
	return UploadResult{URL: out.URL, ID: out.ID, OwnerToken: out.Owner}, nil
}
