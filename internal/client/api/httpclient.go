package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophsend/internal/common"
	"github.com/dmitrijs2005/gophsend/internal/logging"
)

// DefaultDownloadAttempts is the number of whole download attempts made
// when the server keeps answering 401.
const DefaultDownloadAttempts = 2

// HTTPClient talks to the share service over HTTP. It is safe for
// concurrent use; requests made with the same capability are serialized.
type HTTPClient struct {
	baseURL          string
	hc               *http.Client
	logger           logging.Logger
	downloadAttempts int
}

type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying transport. Deadlines belong here
// (http.Client.Timeout); the client itself imposes none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.hc = hc }
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.logger = l }
}

func WithDownloadAttempts(n int) Option {
	return func(c *HTTPClient) {
		if n > 0 {
			c.downloadAttempts = n
		}
	}
}

func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:          strings.TrimRight(baseURL, "/"),
		hc:               &http.Client{},
		logger:           logging.Nop(),
		downloadAttempts: DefaultDownloadAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPClient) endpoint(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return c.baseURL + "/api/" + strings.Join(escaped, "/")
}

type ownerRequest struct {
	OwnerToken string `json:"owner_token"`
	DLimit     int    `json:"dlimit,omitempty"`
	Auth       string `json:"auth,omitempty"`
}

// postJSON sends an owner-token authorized call and reports whether the
// server accepted it. err is only set when no response was received.
func (c *HTTPClient) postJSON(ctx context.Context, op, path string, body ownerRequest) (bool, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, path, bytes.NewReader(payload))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return false, transportError(ctx, op, err)
	}
	drain(resp)

	ok := resp.StatusCode >= 200 && resp.StatusCode <= 299
	if !ok {
		c.logger.Warn(ctx, "request rejected", "op", op, "status", resp.StatusCode)
	}
	return ok, nil
}

// Delete invalidates the resource server-side.
func (c *HTTPClient) Delete(ctx context.Context, id, ownerToken string) (bool, error) {
	return c.postJSON(ctx, "delete", c.endpoint("delete", id), ownerRequest{OwnerToken: ownerToken})
}

// SetParams changes the download limit of the resource.
func (c *HTTPClient) SetParams(ctx context.Context, id, ownerToken string, downloadLimit int) (bool, error) {
	if downloadLimit < 1 {
		return false, common.ErrInvalidLimit
	}
	return c.postJSON(ctx, "params", c.endpoint("params", id),
		ownerRequest{OwnerToken: ownerToken, DLimit: downloadLimit})
}

// SetPassword sends the auth key of keys, which the caller must already
// have rebuilt from the new password.
func (c *HTTPClient) SetPassword(ctx context.Context, id, ownerToken string, keys AuthKeySource) (bool, error) {
	return c.postJSON(ctx, "password", c.endpoint("password", id),
		ownerRequest{OwnerToken: ownerToken, Auth: keys.AuthKeyB64()})
}

type metadataResponse struct {
	DTotal   int    `json:"dtotal"`
	DLimit   int    `json:"dlimit"`
	Size     int64  `json:"size"`
	TTL      int64  `json:"ttl"`
	Metadata string `json:"metadata"`
}

// Metadata fetches the download budget of a resource and decrypts its
// metadata. Any non-200 status is returned as a *StatusError.
func (c *HTTPClient) Metadata(ctx context.Context, id string, keychain MetadataKeychain) (Metadata, error) {
	const op = "metadata"
	target := c.endpoint("metadata", id)

	resp, err := c.exchangeWithRetry(ctx, op, keychain, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	})
	if err != nil {
		return Metadata{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Metadata{}, &StatusError{Op: op, Code: resp.StatusCode}
	}

	var body metadataResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if cerr := cancelled(ctx); cerr != nil {
			return Metadata{}, cerr
		}
		return Metadata{}, fmt.Errorf("%s: decode body: %w", op, err)
	}
	blob, err := common.DecodeB64(body.Metadata)
	if err != nil {
		return Metadata{}, fmt.Errorf("%s: decode metadata blob: %w", op, err)
	}
	meta, err := keychain.DecryptMetadata(blob)
	if err != nil {
		return Metadata{}, err
	}

	return Metadata{
		DownloadCount: body.DTotal,
		DownloadLimit: body.DLimit,
		Size:          body.Size,
		TTL:           time.Duration(body.TTL) * time.Millisecond,
		Name:          meta.Name,
		Type:          meta.Type,
		IV:            meta.IV,
	}, nil
}
