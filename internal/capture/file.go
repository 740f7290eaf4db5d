package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// FileSource replays a recorded clip from disk as if it were a live camera.
// Chunks of ChunkSize bytes are emitted every Interval.
type FileSource struct {
	Path      string
	ChunkSize int
	Interval  time.Duration
}

// Open opens the file. A permission error maps to ErrPermissionDenied.
func (f FileSource) Open(_ context.Context, _ Constraints) (Stream, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
		return nil, err
	}
	size := f.ChunkSize
	if size <= 0 {
		size = 64 << 10
	}
	fs := &fileStream{f: fh, size: size}
	if f.Interval > 0 {
		fs.tick = time.NewTicker(f.Interval)
	}
	return fs, nil
}

type fileStream struct {
	f    *os.File
	size int
	tick *time.Ticker
}

func (s *fileStream) Read(ctx context.Context) ([]byte, error) {
	if s.tick != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.tick.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf := make([]byte, s.size)
	n, err := s.f.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err == nil {
		err = io.EOF
	}
	return nil, err
}

func (s *fileStream) Close() error {
	if s.tick != nil {
		s.tick.Stop()
	}
	return s.f.Close()
}
