package api

import (
	"context"
	"io"
	"net/http"
)

// requestFunc builds a fresh request for every attempt so the body can be
// sent again.
type requestFunc func(ctx context.Context) (*http.Request, error)

// exchangeWithRetry performs one authenticated exchange and retries it once
// if the server rotated the nonce on a 401. The capability is held locked
// for both attempts. Transport errors are returned without retrying.
func (c *HTTPClient) exchangeWithRetry(ctx context.Context, op string, capability Capability, newReq requestFunc) (*http.Response, error) {
	capability.Lock()
	defer capability.Unlock()

	resp, retry, err := c.exchange(ctx, op, capability, newReq)
	if err != nil || !retry {
		return resp, err
	}
	drain(resp)

	if err := cancelled(ctx); err != nil {
		return nil, err
	}
	c.logger.Debug(ctx, "nonce rotated, retrying", "op", op)

	resp, _, err = c.exchange(ctx, op, capability, newReq)
	return resp, err
}

// exchange is a single attempt. The caller must hold the capability lock.
func (c *HTTPClient) exchange(ctx context.Context, op string, capability Capability, newReq requestFunc) (*http.Response, bool, error) {
	if err := cancelled(ctx); err != nil {
		return nil, false, err
	}
	req, err := newReq(ctx)
	if err != nil {
		return nil, false, err
	}
	before, err := authorize(ctx, req, capability)
	if err != nil {
		return nil, false, err
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, false, transportError(ctx, op, err)
	}
	return resp, reconcileNonce(capability, resp, before), nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
