package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gophsend/internal/common"
)

// AuthChallenge is a parsed WWW-Authenticate value ("<scheme> <nonce>").
type AuthChallenge struct {
	Scheme string
	Nonce  string
}

// ParseChallenge parses a WWW-Authenticate header. ok is false when the
// header is absent. A header without a nonce part yields an empty Nonce.
func ParseChallenge(header string) (ch AuthChallenge, ok bool) {
	fields := strings.Fields(header)
	if len(fields) == 0 {
		return AuthChallenge{}, false
	}
	ch.Scheme = fields[0]
	if len(fields) > 1 {
		ch.Nonce = fields[1]
	}
	return ch, true
}

// reconcileNonce applies the nonce of resp to the capability, whatever the
// status, and reports whether the response is retry-eligible: a 401 whose
// nonce differs from the one held before the exchange started. A 401 with
// an unchanged nonce is a final rejection.
func reconcileNonce(capability Capability, resp *http.Response, before string) bool {
	ch, ok := ParseChallenge(resp.Header.Get(common.AuthenticateHeader))
	if !ok {
		return false
	}
	capability.SetNonce(ch.Nonce)
	return resp.StatusCode == http.StatusUnauthorized && ch.Nonce != before
}

// authorize sets the Authorization header from the capability's current
// nonce and returns that nonce.
func authorize(ctx context.Context, req *http.Request, capability Capability) (string, error) {
	before := capability.Nonce()
	header, err := capability.AuthHeader(ctx)
	if err != nil {
		return "", fmt.Errorf("auth header: %w", err)
	}
	req.Header.Set(common.AuthorizationHeader, header)
	return before, nil
}
