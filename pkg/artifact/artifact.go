// Package artifact stores session output files — the WAV and the two
// transcripts — on local disk or an S3-compatible object store, so a
// recording box can mirror its sessions somewhere durable.
//
// Paths are forward-slash separated and relative to the store root.
// Implementations are safe for concurrent use.
package artifact

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
)

// Store reads and writes artifact files.
type Store interface {
	// Read opens the named file. The caller closes the reader. A
	// missing file yields an error wrapping os.ErrNotExist.
	Read(ctx context.Context, name string) (io.ReadCloser, error)

	// Write opens the named file for writing, truncating any existing
	// content and creating parents as needed. Close flushes.
	Write(ctx context.Context, name string) (io.WriteCloser, error)

	// Delete removes the named file. Missing files are not an error.
	Delete(ctx context.Context, name string) error

	// Exists reports whether the named file exists.
	Exists(ctx context.Context, name string) (bool, error)
}

// MirrorDir copies every regular file in dir to the store under
// <base(dir)>/<file>, returning the written names. Used after a
// session closes to mirror its whole artifact directory.
func MirrorDir(ctx context.Context, store Store, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("artifact: read session dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	base := filepath.Base(dir)
	var written []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := path.Join(base, entry.Name())
		if err := copyFile(ctx, store, name, filepath.Join(dir, entry.Name())); err != nil {
			return written, err
		}
		written = append(written, name)
		slog.Debug("artifact: mirrored", "name", name)
	}
	return written, nil
}

func copyFile(ctx context.Context, store Store, name, src string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("artifact: open %s: %w", src, err)
	}
	defer f.Close()

	w, err := store.Write(ctx, name)
	if err != nil {
		return fmt.Errorf("artifact: write %s: %w", name, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return fmt.Errorf("artifact: copy %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("artifact: flush %s: %w", name, err)
	}
	return nil
}
