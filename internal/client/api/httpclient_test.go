package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/gophsend/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ownerServer(t *testing.T, status int, got *ownerRequest, path *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*path = r.URL.Path
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOwnerCalls(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		call     func(c *HTTPClient) (bool, error)
		wantPath string
		wantBody ownerRequest
		wantOK   bool
	}{
		{
			name:     "delete accepted",
			status:   http.StatusOK,
			call:     func(c *HTTPClient) (bool, error) { return c.Delete(t.Context(), "abc", "tok") },
			wantPath: "/api/delete/abc",
			wantBody: ownerRequest{OwnerToken: "tok"},
			wantOK:   true,
		},
		{
			name:     "delete of missing file",
			status:   http.StatusNotFound,
			call:     func(c *HTTPClient) (bool, error) { return c.Delete(t.Context(), "abc", "tok") },
			wantPath: "/api/delete/abc",
			wantBody: ownerRequest{OwnerToken: "tok"},
			wantOK:   false,
		},
		{
			name:     "params",
			status:   http.StatusOK,
			call:     func(c *HTTPClient) (bool, error) { return c.SetParams(t.Context(), "abc", "tok", 5) },
			wantPath: "/api/params/abc",
			wantBody: ownerRequest{OwnerToken: "tok", DLimit: 5},
			wantOK:   true,
		},
		{
			name:     "password",
			status:   http.StatusOK,
			call:     func(c *HTTPClient) (bool, error) { return c.SetPassword(t.Context(), "abc", "tok", fakeAuthKey("key")) },
			wantPath: "/api/password/abc",
			wantBody: ownerRequest{OwnerToken: "tok", Auth: "key"},
			wantOK:   true,
		},
		{
			name:     "password rejected",
			status:   http.StatusUnauthorized,
			call:     func(c *HTTPClient) (bool, error) { return c.SetPassword(t.Context(), "abc", "tok", fakeAuthKey("key")) },
			wantPath: "/api/password/abc",
			wantBody: ownerRequest{OwnerToken: "tok", Auth: "key"},
			wantOK:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ownerRequest
			var path string
			srv := ownerServer(t, tt.status, &got, &path)

			ok, err := tt.call(NewHTTPClient(srv.URL + "/"))
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantPath, path)
			assert.Equal(t, tt.wantBody, got)
		})
	}
}

func TestSetParams_RejectsLimitBelowOne(t *testing.T) {
	ok, err := NewHTTPClient("http://127.0.0.1:0").SetParams(t.Context(), "abc", "tok", 0)
	require.ErrorIs(t, err, common.ErrInvalidLimit)
	assert.False(t, ok)
}

func TestOwnerCalls_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	ok, err := NewHTTPClient(url).Delete(t.Context(), "abc", "tok")
	assert.False(t, ok)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "delete", te.Op)
}

func TestEndpoint_EscapesID(t *testing.T) {
	c := NewHTTPClient("https://send.example/")
	assert.Equal(t, "https://send.example/api/download/a%2Fb", c.endpoint("download", "a/b"))
}
