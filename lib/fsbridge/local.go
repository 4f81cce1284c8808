// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fsbridge

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/atelier/lib/contenthash"
)

// Local implements FS over the host filesystem.
type Local struct {
	// DirMode is used for directories created by WriteFile, Copy,
	// Move, and MkdirAll. Zero means 0o755.
	DirMode os.FileMode

	// FileMode is applied to files written by WriteFile and Copy.
	// Zero means 0o644.
	FileMode os.FileMode
}

// NewLocal returns a Local with default permissions.
func NewLocal() *Local {
	return &Local{}
}

func (l *Local) dirMode() os.FileMode {
	if l.DirMode == 0 {
		return 0o755
	}
	return l.DirMode
}

func (l *Local) fileMode() os.FileMode {
	if l.FileMode == 0 {
		return 0o644
	}
	return l.FileMode
}

func (l *Local) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, newError("read", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newError("read", path, err)
	}
	return data, nil
}

// WriteFile writes data to a temporary file next to path and renames
// it into place.
func (l *Local) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return newError("write", path, err)
	}

	directory := filepath.Dir(path)
	if err := os.MkdirAll(directory, l.dirMode()); err != nil {
		return newError("write", path, err)
	}

	tmpFile, err := os.CreateTemp(directory, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return newError("write", path, err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return newError("write", path, err)
	}
	if err := tmpFile.Chmod(l.fileMode()); err != nil {
		tmpFile.Close()
		return newError("write", path, err)
	}
	if err := tmpFile.Close(); err != nil {
		return newError("write", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return newError("write", path, err)
	}

	success = true
	return nil
}

func (l *Local) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, newError("stat", path, err)
	}
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, newError("stat", path, err)
}

func (l *Local) MkdirAll(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return newError("mkdir", path, err)
	}
	if err := os.MkdirAll(path, l.dirMode()); err != nil {
		return newError("mkdir", path, err)
	}
	return nil
}

// Copy streams source into a temporary file beside destination, then
// renames it into place.
func (l *Local) Copy(ctx context.Context, source, destination string) error {
	if err := ctx.Err(); err != nil {
		return newError("copy", source, err)
	}

	input, err := os.Open(source)
	if err != nil {
		return newError("copy", source, err)
	}
	defer input.Close()

	directory := filepath.Dir(destination)
	if err := os.MkdirAll(directory, l.dirMode()); err != nil {
		return newError("copy", destination, err)
	}

	tmpFile, err := os.CreateTemp(directory, "."+filepath.Base(destination)+"-*.tmp")
	if err != nil {
		return newError("copy", destination, err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, input); err != nil {
		tmpFile.Close()
		return newError("copy", destination, err)
	}
	if err := tmpFile.Chmod(l.fileMode()); err != nil {
		tmpFile.Close()
		return newError("copy", destination, err)
	}
	if err := tmpFile.Close(); err != nil {
		return newError("copy", destination, err)
	}
	if err := os.Rename(tmpPath, destination); err != nil {
		return newError("copy", destination, err)
	}

	success = true
	return nil
}

func (l *Local) Move(ctx context.Context, source, destination string) error {
	if err := ctx.Err(); err != nil {
		return newError("move", source, err)
	}
	if err := os.MkdirAll(filepath.Dir(destination), l.dirMode()); err != nil {
		return newError("move", destination, err)
	}
	if err := os.Rename(source, destination); err != nil {
		return newError("move", source, err)
	}
	return nil
}

func (l *Local) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return newError("remove", path, err)
	}
	if err := os.Remove(path); err != nil {
		return newError("remove", path, err)
	}
	return nil
}

func (l *Local) Hash(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", newError("hash", path, err)
	}
	digest, err := contenthash.HashFile(path)
	if err != nil {
		return "", newError("hash", path, err)
	}
	return contenthash.FormatDigest(digest), nil
}
