package sink

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/gophsend/internal/filex"
)

// LocalSink writes files into a directory. Names are taken as single path
// elements and existing files are never overwritten.
type LocalSink struct {
	Dir string
}

func NewLocalSink(dir string) (*LocalSink, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return &LocalSink{Dir: abs}, nil
}

func (s *LocalSink) Save(ctx context.Context, name, _ string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	safe, err := filex.SafeName(name)
	if err != nil {
		return "", fmt.Errorf("save %q: %w", name, err)
	}

	f, err := filex.CreateUnique(filepath.Join(s.Dir, safe))
	if err != nil {
		return "", fmt.Errorf("save %q: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write %s: %w", f.Name(), err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", f.Name(), err)
	}
	return f.Name(), nil
}
