// Package fileutil stages source documents into the inbox directory.
package fileutil

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// StageDocument copies src into inboxDir under its base name and returns the
// destination path. The copy is verified by size and SHA256 so a partially
// written document is never queued. When src already lives at the destination
// path it is returned unchanged; when a different file occupies the name, a
// numbered suffix is appended.
func StageDocument(src, inboxDir string) (string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("stat source: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s is not a regular file", src)
	}

	dest := filepath.Join(inboxDir, filepath.Base(src))
	if dest == src {
		return src, nil
	}
	dest, err = nextFreeName(dest)
	if err != nil {
		return "", err
	}

	if err := copyVerified(src, dest, info.Size()); err != nil {
		return "", fmt.Errorf("stage %s: %w", filepath.Base(src), err)
	}
	return dest, nil
}

// nextFreeName returns path itself when unoccupied, otherwise the first
// "name (n).ext" variant that is.
func nextFreeName(path string) (string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path, nil
	} else if err != nil {
		return "", fmt.Errorf("stat destination: %w", err)
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for n := 1; n < 100; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		} else if err != nil {
			return "", fmt.Errorf("stat destination: %w", err)
		}
	}
	return "", fmt.Errorf("no free name for %s in inbox", filepath.Base(path))
}

// copyVerified streams src to dst, checking size and SHA256 of what was read
// against what was written. Removes dst on mismatch.
func copyVerified(src, dst string, srcSize int64) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()

	srcHasher := sha256.New()
	dstHasher := sha256.New()
	tee := io.TeeReader(in, srcHasher)
	multi := io.MultiWriter(out, dstHasher)

	written, err := io.Copy(multi, tee)
	if err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if written != srcSize {
		_ = os.Remove(dst)
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcSize, written)
	}
	if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
		_ = os.Remove(dst)
		return fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}
	return nil
}
