package cli

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophsend/internal/client/keychain"
	"github.com/dmitrijs2005/gophsend/internal/client/lifecycle"
	"github.com/dmitrijs2005/gophsend/internal/client/transfer"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDescribe(t *testing.T) {
	kc := keychain.New()
	file := &lifecycle.OwnedFile{ID: "0123456789", URL: "https://send.example/download/0123456789/", Keychain: kc}

	tests := []struct {
		name string
		ev   transfer.Event
		want string
	}{
		{name: "started", ev: transfer.EventStarted{Direction: transfer.DirectionUpload}, want: "[upload] started"},
		{name: "phase", ev: transfer.EventPhase{Phase: transfer.PhaseDecrypting}, want: "[decrypting]"},
		{
			name: "progress",
			ev:   transfer.EventProgress{Direction: transfer.DirectionDownload, Progress: transfer.Progress{Done: 500, Total: 1000}},
			want: "[download] 500 B / 1.0 kB (50%)",
		},
		{name: "unknown total", ev: transfer.EventProgress{Progress: transfer.Progress{Done: 1, Total: -1}}, want: ""},
		{
			name: "upload done",
			ev:   transfer.EventTransferDone{Direction: transfer.DirectionUpload, Outcome: transfer.OutcomeCompleted, Name: "a.txt", File: file},
			want: "[upload] a.txt shared: " + file.ShareURL(),
		},
		{
			name: "download done",
			ev:   transfer.EventTransferDone{Direction: transfer.DirectionDownload, Outcome: transfer.OutcomeCompleted, Name: "a.txt", Location: "/tmp/a.txt"},
			want: "[download] a.txt saved to /tmp/a.txt",
		},
		{
			name: "cancelled",
			ev:   transfer.EventTransferDone{Direction: transfer.DirectionDownload, Outcome: transfer.OutcomeCancelled},
			want: "[download] cancelled",
		},
		{
			name: "not found",
			ev:   transfer.EventTransferDone{Direction: transfer.DirectionDownload, Outcome: transfer.OutcomeErrored, NotFound: true},
			want: "[download] file not found, it may have expired or reached its download limit",
		},
		{
			name: "failed",
			ev:   transfer.EventTransferDone{Direction: transfer.DirectionUpload, Outcome: transfer.OutcomeErrored, Err: errors.New("boom")},
			want: "[upload] failed: boom",
		},
		{
			name: "files changed",
			ev:   transfer.EventFilesChanged{Changed: []string{"b"}, Removed: []string{"a", "c"}},
			want: "no longer available: a, c; updated: b",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describe(tt.ev))
		})
	}
}

func TestFormatFile(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := lifecycle.OwnedFile{
		ID:            "0123456789",
		URL:           "https://send.example/download/0123456789/",
		Name:          "a.txt",
		Size:          2048,
		DownloadLimit: 3,
		DownloadCount: 1,
		ExpiresAt:     now.Add(3 * time.Hour),
		Keychain:      keychain.New(),
	}
	line := formatFile(f, now)
	assert.Contains(t, line, "0123456789")
	assert.Contains(t, line, "2.0 kB")
	assert.Contains(t, line, "1/3 downloads")
	assert.Contains(t, line, "3 hours from now")
	assert.Contains(t, line, f.ShareURL())
	assert.NotContains(t, line, "[password]")
}

func noColor(t *testing.T) {
	t.Helper()
	orig := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = orig })
}

func TestPaint(t *testing.T) {
	assert.Equal(t, okColor, paint(transfer.EventTransferDone{Outcome: transfer.OutcomeCompleted}))
	assert.Equal(t, failColor, paint(transfer.EventTransferDone{Outcome: transfer.OutcomeErrored}))
	assert.Equal(t, infoColor, paint(transfer.EventFilesChanged{}))
}

func TestPrintEvents_UntilClosed(t *testing.T) {
	noColor(t)
	lines := capturePrints(t)
	ch := make(chan transfer.Event, 2)
	ch <- transfer.EventStarted{Direction: transfer.DirectionDownload}
	ch <- transfer.EventProgress{Progress: transfer.Progress{Total: -1}}
	close(ch)

	printEvents(ch)
	assert.Equal(t, []string{"[download] started"}, *lines)
}

func TestPrintEvents_ProgressOncePerPercent(t *testing.T) {
	noColor(t)
	lines := capturePrints(t)
	a, b := uuid.New(), uuid.New()
	progress := func(op uuid.UUID, done int64) transfer.Event {
		return transfer.EventProgress{OpID: op, Direction: transfer.DirectionUpload, Progress: transfer.Progress{Done: done, Total: 1000}}
	}

	ch := make(chan transfer.Event, 16)
	ch <- progress(a, 1)
	ch <- progress(a, 5)
	ch <- progress(a, 9)
	ch <- progress(a, 10)
	ch <- progress(b, 3)
	ch <- progress(a, 19)
	ch <- progress(a, 1000)
	ch <- transfer.EventTransferDone{OpID: a, Direction: transfer.DirectionUpload, Outcome: transfer.OutcomeCancelled}
	ch <- progress(a, 1000)
	close(ch)

	printEvents(ch)
	assert.Equal(t, []string{
		"[upload] 1 B / 1.0 kB (0%)",
		"[upload] 10 B / 1.0 kB (1%)",
		"[upload] 3 B / 1.0 kB (0%)",
		"[upload] 1.0 kB / 1.0 kB (100%)",
		"[upload] cancelled",
		"[upload] 1.0 kB / 1.0 kB (100%)",
	}, *lines)
}
