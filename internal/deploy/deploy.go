// Package deploy copies a finished package into the deployment directory.
package deploy

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Target returns the deployed location of name inside deployDir.
func Target(deployDir, name string) string {
	return filepath.Join(deployDir, name+".apk")
}

// Deploy copies src to <deployDir>/<name>.apk, creating deployDir if needed.
// The copy goes through a temp file in deployDir followed by a rename, so a
// reader never observes a partially written package.
func Deploy(src, deployDir, name string) (string, error) {
	if err := os.MkdirAll(deployDir, 0o750); err != nil {
		return "", fmt.Errorf("create deploy directory: %w", err)
	}
	dst := Target(deployDir, name)

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open package: %w", err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(deployDir, "."+name+"-*.apk.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", fmt.Errorf("copy package: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", fmt.Errorf("sync package: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", fmt.Errorf("close package: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return "", fmt.Errorf("chmod package: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		cleanup()
		return "", fmt.Errorf("rename package: %w", err)
	}
	return dst, nil
}
