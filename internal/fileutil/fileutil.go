package fileutil

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ReplaceFile copies src over dst with SHA256 + size verification. The copy
// is written to a temporary sibling of dst and renamed into place, so an
// existing dst is overwritten only by a complete copy. Missing parent
// directories of dst are created.
func ReplaceFile(ctx context.Context, src, dst string) (int64, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}
	if srcInfo.IsDir() {
		return 0, fmt.Errorf("source %s is a directory", src)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, fmt.Errorf("create destination directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.part")
	if err != nil {
		return 0, fmt.Errorf("create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	written, err := copyVerified(ctx, src, tmp, srcInfo.Size())
	if err != nil {
		return 0, err
	}
	if err := tmp.Chmod(srcInfo.Mode().Perm() | 0o644); err != nil {
		return 0, fmt.Errorf("chmod %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return 0, fmt.Errorf("move into place: %w", err)
	}
	committed = true
	return written, nil
}

func copyVerified(ctx context.Context, src string, out *os.File, srcSize int64) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	srcHasher := sha256.New()
	tee := io.TeeReader(contextReader{ctx: ctx, r: in}, srcHasher)
	written, err := io.Copy(out, tee)
	if err != nil {
		return 0, err
	}
	if written != srcSize {
		return 0, fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcSize, written)
	}
	if err := out.Sync(); err != nil {
		return 0, fmt.Errorf("sync copy: %w", err)
	}

	if _, err := out.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	dstHasher := sha256.New()
	if _, err := io.Copy(dstHasher, out); err != nil {
		return 0, fmt.Errorf("read back copy: %w", err)
	}
	if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
		return 0, fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}
	return written, nil
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
