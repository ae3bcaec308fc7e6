package api

import (
	"context"
	"io"
)

const chunkSize = 32 * 1024

// progressReader counts bytes read from r and reports them. It checks the
// context before every read so a cancelled transfer stops at the next chunk
// boundary instead of waiting for the transport.
type progressReader struct {
	ctx        context.Context
	r          io.Reader
	loaded     int64
	total      int64
	onProgress ProgressFunc
}

func newProgressReader(ctx context.Context, r io.Reader, total int64, fn ProgressFunc) *progressReader {
	return &progressReader{ctx: ctx, r: r, total: total, onProgress: fn}
}

func (p *progressReader) Read(b []byte) (int, error) {
	if err := cancelled(p.ctx); err != nil {
		return 0, err
	}
	if len(b) > chunkSize {
		b = b[:chunkSize]
	}
	n, err := p.r.Read(b)
	if n > 0 {
		p.loaded += int64(n)
		if p.onProgress != nil && p.total >= 0 && p.loaded <= p.total {
			p.onProgress(p.loaded, p.total)
		}
	}
	return n, err
}
