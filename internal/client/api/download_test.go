package api

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownload_StreamsBodyWithProgress(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 100*1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/download/abc", r.URL.Path)
		assert.Equal(t, "sig:n1", r.Header.Get("Authorization"))
		w.Header().Set("WWW-Authenticate", "send-v1 n2")
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	kc := newFakeCapability("n1")
	rec := &progressRecorder{}
	data, err := NewHTTPClient(srv.URL).Download(t.Context(), "abc", kc, rec.record)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.Equal(t, "n2", kc.Nonce())

	calls := rec.snapshot()
	require.NotEmpty(t, calls)
	var prev int64
	for _, c := range calls {
		assert.GreaterOrEqual(t, c[0], prev)
		assert.LessOrEqual(t, c[0], c[1])
		assert.Equal(t, int64(len(payload)), c[1])
		prev = c[0]
	}
	assert.Equal(t, int64(len(payload)), prev)
}

func TestDownload_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	rec := &progressRecorder{}
	_, err := NewHTTPClient(srv.URL).Download(t.Context(), "abc", newFakeCapability("n1"), rec.record)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 404, StatusCode(err))
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, rec.snapshot())
}

func TestDownload_UnauthorizedRepeatsWholeAttempt(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		attempts int32
	}{
		{name: "default budget", attempts: DefaultDownloadAttempts},
		{name: "custom budget", opts: []Option{WithDownloadAttempts(3)}, attempts: 3},
		{name: "non-positive keeps default", opts: []Option{WithDownloadAttempts(0)}, attempts: DefaultDownloadAttempts},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(http.StatusUnauthorized)
			}))
			defer srv.Close()

			_, err := NewHTTPClient(srv.URL, tt.opts...).Download(t.Context(), "abc", newFakeCapability("n1"), nil)
			require.ErrorIs(t, err, ErrAuthRejected)
			assert.Equal(t, tt.attempts, calls.Load())
		})
	}
}

func TestDownload_SecondAttemptUsesRotatedNonce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "sig:n2" {
			w.Header().Set("WWW-Authenticate", "send-v1 n2")
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	data, err := NewHTTPClient(srv.URL).Download(t.Context(), "abc", newFakeCapability("n1"), nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), data)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDownload_CancelledBeforeStart(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := NewHTTPClient(srv.URL).Download(ctx, "abc", newFakeCapability("n1"), nil)
	require.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, 0, StatusCode(err))
	assert.Equal(t, int32(0), calls.Load())
}

func TestDownload_CancelledMidBody(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(256*1024))
		_, _ = w.Write(bytes.Repeat([]byte("y"), 64*1024))
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	_, err := NewHTTPClient(srv.URL).Download(ctx, "abc", newFakeCapability("n1"), func(loaded, total int64) {
		cancel()
	})
	require.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, 0, StatusCode(err))
}

func TestDownload_TransportErrorNotRetried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewHTTPClient(url).Download(t.Context(), "abc", newFakeCapability("n1"), nil)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "download", te.Op)
}

func TestDownload_HugeContentLengthDoesNotPreallocate(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		br := bufio.NewReader(conn)
		for {
			line, err := br.ReadString('\n')
			if err != nil || line == "\r\n" {
				break
			}
		}
		_, _ = io.WriteString(conn, "HTTP/1.1 200 OK\r\n"+
			"Content-Length: 4611686018427387904\r\n"+
			"WWW-Authenticate: send-v1 n2\r\n\r\nabc")
	}()

	c := NewHTTPClient("http://"+ln.Addr().String(), WithDownloadAttempts(1))
	var data []byte
	require.NotPanics(t, func() {
		data, err = c.Download(t.Context(), "abc", newFakeCapability("n1"), nil)
	})
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Nil(t, data)
}
